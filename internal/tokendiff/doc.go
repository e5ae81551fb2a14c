// Package tokendiff rewrites text with token-level edits so that formatting
// outside the edited tokens survives untouched.
//
// Minimal mode tokenizes a search and a replacement pattern, aligns the two
// token sequences and substitutes only the tokens that differ. Full mode
// matches the search pattern with all whitespace ignored and replaces whole
// matched spans.
package tokendiff
