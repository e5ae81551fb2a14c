// Package gitworkflow turns rewritten files in one repository into a pushed
// branch and an open pull request.
//
// The Orchestrator names a branch after the upgraded libraries, picks the
// first name unused locally and on the remote, then checks it out, stages
// exactly the changed files, commits, pushes with upstream tracking, and
// opens the pull request. Each step is a failure point that ends the run
// for that repository and is reported in the WorkflowResult.
package gitworkflow
