// Package rewrite locates "group" % "artifact" % version declarations in source
// text and rewrites the version literal without touching anything else.
//
// Two declaration shapes are handled: a quoted version literal written inline,
// and a bare identifier whose value binding (val/def name = "x") lives in the
// same file. Policy gates can skip downgrades and major bumps, in which case
// the text is returned byte for byte.
package rewrite
