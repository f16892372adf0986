// Package pathfilter decides which paths a scan should visit. It
// classifies hidden files and directories (dot-prefixed names) and
// matches directories against an operator-supplied exclusion set of
// literal names or absolute paths. All predicates are pure functions
// over path strings; nothing here touches the filesystem.
package pathfilter
