// Package progress caches which topics the current user has completed.
//
// The cache is filled after login with Refresh and grows one topic at a time
// through MarkComplete. Logout calls Reset, which empties the set and bumps an
// epoch so that requests still in flight for the previous user cannot write
// their results back. Results are also dropped when the session is gone by
// the time they arrive.
//
// Reads (IsComplete, CompletedCount, Completed) are safe from any goroutine
// and return copies.
package progress
