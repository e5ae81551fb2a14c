// Package githubcli wraps the gh executable.
//
// Client opens pull requests with gh pr create and issues REST calls through
// gh api, decoding the JSON payloads into Response values that callers can
// post-filter.
package githubcli
