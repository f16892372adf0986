// Package fingerprint computes content hashes for indexed files. A
// fingerprint is the SHA-1 hex digest of the file's full byte stream,
// used as a proxy for content equality when grouping duplicates. It is
// not a security primitive.
package fingerprint
