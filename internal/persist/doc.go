// Package persist copies designated in-container directories, a log
// snapshot, and the container's inspection metadata to timestamped
// host backup directories.
//
// Every copy is best-effort: a directory that does not exist in the
// container is reported as "no data found" and skipped, and the backup
// as a whole still succeeds. Backups never mutate container state.
package persist
