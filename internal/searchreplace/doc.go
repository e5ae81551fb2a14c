// Package searchreplace implements the search-replace command: a
// whitespace-insensitive search across a directory tree, replaced either in
// full or as a minimal token diff that leaves surrounding formatting intact.
package searchreplace
