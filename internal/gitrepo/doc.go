// Package gitrepo answers questions about git repositories on disk: which
// repository owns a directory, and how to address a hosted repository.
package gitrepo
