// Package database provides SQLite persistence for the duplicate
// scanner. It owns every file record and ignored-group row:
//
//   - files: one row per indexed path with its content hash,
//     modification time, and last scan time
//   - ignored_groups: content hashes whose duplicate set the operator
//     suppressed from reporting
//   - users/sessions: dashboard authentication
//
// The database runs in WAL mode so dashboard reads can proceed while a
// scan writes; readers always see fully committed rows.
package database
