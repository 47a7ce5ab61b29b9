// Package channel owns the two shared files between this client and the host process.
//
// Ownership boundary:
// - control file writes (single writer, whole-file overwrite)
//
// - response file observation (mtime sampling, full reads after a detected change)
//
// Nothing here retries or schedules; that belongs to package watch.
package channel
