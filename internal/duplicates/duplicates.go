package duplicates

import (
	"context"
	"fmt"

	"dupescan/internal/database"
	"dupescan/internal/fingerprint"
	"dupescan/internal/pathfilter"
)

// InvalidHashError reports a hash that is not a lowercase 40-character
// hex digest.
type InvalidHashError struct {
	Hash string
}

func (e *InvalidHashError) Error() string {
	return fmt.Sprintf("invalid content hash %q", e.Hash)
}

// Index answers duplicate queries and ignore/unignore requests.
type Index struct {
	db *database.Database
}

// New creates an Index backed by db.
func New(db *database.Database) *Index {
	return &Index{db: db}
}

// Groups returns duplicate groups, most populous first, members oldest
// first. A non-empty directoryFilter restricts both group qualification
// and membership to paths strictly beneath that directory. Ignored
// groups are omitted unless includeIgnored is set.
func (i *Index) Groups(ctx context.Context, directoryFilter string, includeIgnored bool) ([]database.DuplicateGroup, error) {
	prefix := ""
	if directoryFilter != "" {
		normalized, err := pathfilter.Normalize(directoryFilter)
		if err != nil {
			return nil, fmt.Errorf("normalize directory filter: %w", err)
		}
		prefix = normalized
	}
	return i.db.DuplicateGroups(ctx, prefix, includeIgnored)
}

// Ignore suppresses the group for hash from default reporting.
// Idempotent, and valid for a hash with no current members.
func (i *Index) Ignore(ctx context.Context, hash string) error {
	if err := validateHash(hash); err != nil {
		return err
	}
	return i.db.IgnoreGroup(ctx, hash)
}

// Unignore restores the group for hash to default reporting.
// Unignoring a hash that was never ignored is a no-op.
func (i *Index) Unignore(ctx context.Context, hash string) error {
	if err := validateHash(hash); err != nil {
		return err
	}
	return i.db.UnignoreGroup(ctx, hash)
}

// Members returns every file record sharing hash, oldest first.
func (i *Index) Members(ctx context.Context, hash string) ([]database.FileRecord, error) {
	if err := validateHash(hash); err != nil {
		return nil, err
	}
	return i.db.FilesByHash(ctx, hash)
}

func validateHash(hash string) error {
	if len(hash) != fingerprint.HexLength {
		return &InvalidHashError{Hash: hash}
	}
	for _, c := range hash {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		default:
			return &InvalidHashError{Hash: hash}
		}
	}
	return nil
}
