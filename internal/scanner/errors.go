package scanner

import (
	"errors"
	"fmt"
)

// ErrScanInProgress is returned when a scan is requested while another
// scan is already running against the same scanner. Concurrent scans are
// rejected, never queued.
var ErrScanInProgress = errors.New("scan already in progress")

// InvalidRootError reports a scan root that does not exist or is not a
// directory. The scan aborts with no side effects.
type InvalidRootError struct {
	Root   string
	Reason string
	Err    error
}

func (e *InvalidRootError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid scan root %q: %s: %v", e.Root, e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid scan root %q: %s", e.Root, e.Reason)
}

func (e *InvalidRootError) Unwrap() error {
	return e.Err
}
