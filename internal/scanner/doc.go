// Package scanner walks a directory tree and runs a file transformer over
// every eligible text file under a bounded worker pool. Results are keyed by
// path relative to the scanned root and returned in path order regardless of
// completion order. Preview mode renders unified diffs; apply mode writes the
// transformed text back in place.
package scanner
