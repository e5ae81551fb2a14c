// Package execshell runs the git and gh executables on behalf of depbump.
//
// ShellExecutor wraps a CommandRunner with zap logging and lifecycle
// observers, and converts non-zero exit codes into CommandFailedError values.
// OSCommandRunner is the process-backed runner; tests substitute fakes.
package execshell
