// Package upgrade drives a dependency upgrade run from the command line.
//
// The Coordinator scans a root directory once, rewriting every requested
// library declaration. In preview mode it hands unified diffs to the
// presenter. In apply mode the scanner writes files in place, after which
// the Coordinator groups them by owning repository and runs one branch and
// pull request workflow per repository under a bounded pool. Files that no
// repository owns are written but never committed.
package upgrade
