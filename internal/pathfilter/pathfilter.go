package pathfilter

import (
	"path/filepath"
)

// Normalize converts a path to its absolute, cleaned form. All records
// and comparisons use normalized paths so the same file is never indexed
// twice under different spellings.
func Normalize(path string) (string, error) {
	return filepath.Abs(path)
}

// ExcludedSet holds directory exclusions supplied by the operator.
// An entry excludes directories whose base name matches it exactly, or
// whose normalized absolute path matches the entry's normalized absolute
// form exactly. No globbing, no prefix matching.
type ExcludedSet struct {
	names map[string]struct{}
	paths map[string]struct{}
}

// NewExcludedSet builds an ExcludedSet from literal names and/or paths.
// Entries that cannot be resolved to an absolute path are still matched
// by name.
func NewExcludedSet(entries []string) ExcludedSet {
	s := ExcludedSet{
		names: make(map[string]struct{}, len(entries)),
		paths: make(map[string]struct{}, len(entries)),
	}
	for _, entry := range entries {
		if entry == "" {
			continue
		}
		s.names[entry] = struct{}{}
		if abs, err := Normalize(entry); err == nil {
			s.paths[abs] = struct{}{}
		}
	}
	return s
}

// Empty reports whether the set contains no exclusions.
func (s ExcludedSet) Empty() bool {
	return len(s.names) == 0 && len(s.paths) == 0
}

// IsHidden reports whether the final component of path begins with a
// dot. "." and ".." are not considered hidden.
func IsHidden(path string) bool {
	name := filepath.Base(path)
	if name == "." || name == ".." {
		return false
	}
	return len(name) > 0 && name[0] == '.'
}

// IsExcludedDirectory reports whether dirPath is excluded by the set,
// either by base name or by normalized absolute path.
func IsExcludedDirectory(dirPath string, excluded ExcludedSet) bool {
	if excluded.Empty() {
		return false
	}
	if _, ok := excluded.names[filepath.Base(dirPath)]; ok {
		return true
	}
	abs, err := Normalize(dirPath)
	if err != nil {
		return false
	}
	_, ok := excluded.paths[abs]
	return ok
}

// ShouldSkipDirectory reports whether a directory must be pruned from
// the walk. Pruned directories are never descended into, so nothing
// beneath them is observed or hashed.
func ShouldSkipDirectory(dirPath string, includeHidden bool, excluded ExcludedSet) bool {
	if !includeHidden && IsHidden(dirPath) {
		return true
	}
	return IsExcludedDirectory(dirPath, excluded)
}

// ShouldSkipFile reports whether a file must be skipped.
func ShouldSkipFile(filePath string, includeHidden bool) bool {
	return !includeHidden && IsHidden(filePath)
}
