package fingerprint

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"

	"dupescan/internal/filesystem"
)

// chunkSize is the read buffer size. Files are folded into the digest in
// chunks of this size so very large files never load into memory whole.
const chunkSize = 4096

// HexLength is the length of a fingerprint in hex characters.
const HexLength = sha1.Size * 2

// ReadError reports a file that could not be opened or read while
// hashing. Callers treat it as "skip this file this scan": any previous
// record for the path stays untouched.
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("fingerprint %s: %v", e.Path, e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

// File computes the SHA-1 hex digest of the file at path. The digest
// depends only on the file's bytes, never on its path or the order files
// are scanned in.
func File(path string) (string, error) {
	f, err := filesystem.OpenWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
		return "", &ReadError{Path: path, Err: err}
	}
	defer f.Close()

	h := sha1.New()
	buf := make([]byte, chunkSize)
	if _, err := io.CopyBuffer(h, f, buf); err != nil {
		return "", &ReadError{Path: path, Err: err}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
