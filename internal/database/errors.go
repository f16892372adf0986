package database

import "fmt"

// StoreError reports a persistence failure. Writes are never silently
// dropped: every storage I/O failure surfaces as a StoreError and the
// caller decides whether to retry or abort the scan.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Err: err}
}
