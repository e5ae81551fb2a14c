package gitworkflow_test

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/depbump/internal/execshell"
	"github.com/temirov/depbump/internal/githubcli"
	"github.com/temirov/depbump/internal/gitworkflow"
	"github.com/temirov/depbump/internal/rewrite"
)

const (
	testRepositoryRootConstant = "/workspace/billing"
	testPullRequestURLConstant = "https://github.com/acme/billing/pull/12"
)

type scriptedGitExecutor struct {
	mutex            sync.Mutex
	outputs          map[string]string
	failures         map[string]error
	recordedCommands []execshell.CommandDetails
}

func (executor *scriptedGitExecutor) ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	executor.mutex.Lock()
	defer executor.mutex.Unlock()
	executor.recordedCommands = append(executor.recordedCommands, details)

	commandLine := strings.Join(details.Arguments, " ")
	for prefix, failure := range executor.failures {
		if strings.HasPrefix(commandLine, prefix) {
			return execshell.ExecutionResult{}, failure
		}
	}
	return execshell.ExecutionResult{StandardOutput: executor.outputs[commandLine]}, nil
}

func (executor *scriptedGitExecutor) commandLines() []string {
	executor.mutex.Lock()
	defer executor.mutex.Unlock()
	lines := make([]string, 0, len(executor.recordedCommands))
	for _, details := range executor.recordedCommands {
		lines = append(lines, strings.Join(details.Arguments, " "))
	}
	return lines
}

type stubPullRequestCreator struct {
	url             string
	failure         error
	recordedRequest githubcli.PullRequestRequest
}

func (creator *stubPullRequestCreator) CreatePullRequest(executionContext context.Context, request githubcli.PullRequestRequest) (string, error) {
	creator.recordedRequest = request
	return creator.url, creator.failure
}

func commandFailure(arguments string, standardError string) error {
	return execshell.CommandFailedError{
		Command: execshell.ShellCommand{Name: execshell.CommandGit, Details: execshell.CommandDetails{Arguments: strings.Fields(arguments)}},
		Result:  execshell.ExecutionResult{ExitCode: 1, StandardError: standardError},
	}
}

func TestNewOrchestratorValidatesDependencies(testInstance *testing.T) {
	_, creationError := gitworkflow.NewOrchestrator(gitworkflow.Dependencies{PullRequestCreator: &stubPullRequestCreator{}})
	require.ErrorIs(testInstance, creationError, gitworkflow.ErrGitExecutorNotConfigured)

	_, creationError = gitworkflow.NewOrchestrator(gitworkflow.Dependencies{GitExecutor: &scriptedGitExecutor{}})
	require.ErrorIs(testInstance, creationError, gitworkflow.ErrPullRequestCreatorNotConfigured)
}

func TestOrchestratorRunSuccess(testInstance *testing.T) {
	executor := &scriptedGitExecutor{}
	creator := &stubPullRequestCreator{url: testPullRequestURLConstant}
	orchestrator, creationError := gitworkflow.NewOrchestrator(gitworkflow.Dependencies{GitExecutor: executor, PullRequestCreator: creator})
	require.NoError(testInstance, creationError)

	changedFiles := []string{
		filepath.Join(testRepositoryRootConstant, "build.sbt"),
		filepath.Join(testRepositoryRootConstant, "project", "Dependencies.scala"),
	}
	result := orchestrator.Run(context.Background(), testRepositoryRootConstant, changedFiles, []rewrite.LibrarySpec{testMongoLibrary})

	require.True(testInstance, result.Success)
	require.Equal(testInstance, "PR created for 'billing': "+testPullRequestURLConstant, result.Message)
	require.Equal(testInstance, "upgrade-mongo-scala-driver-4.11.1", result.Branch)
	require.Equal(testInstance, testPullRequestURLConstant, result.PullRequestURL)
	require.Equal(testInstance, []string{
		"branch --list upgrade-mongo-scala-driver-4.11.1",
		"ls-remote --heads origin upgrade-mongo-scala-driver-4.11.1",
		"checkout -b upgrade-mongo-scala-driver-4.11.1",
		"add build.sbt",
		"add project/Dependencies.scala",
		"commit -m Upgrade mongo-scala-driver to 4.11.1\n\nBumps org.mongodb:mongo-scala-driver to version 4.11.1.",
		"push -u origin upgrade-mongo-scala-driver-4.11.1",
	}, executor.commandLines())

	for _, details := range executor.recordedCommands {
		require.Equal(testInstance, testRepositoryRootConstant, details.WorkingDirectory)
		require.Equal(testInstance, "0", details.EnvironmentVariables["GIT_TERMINAL_PROMPT"])
	}

	require.Equal(testInstance, githubcli.PullRequestRequest{
		WorkingDirectory: testRepositoryRootConstant,
		Title:            "Upgrade mongo-scala-driver to 4.11.1",
		Body:             gitworkflow.BuildPullRequestBody([]rewrite.LibrarySpec{testMongoLibrary}),
		HeadBranch:       "upgrade-mongo-scala-driver-4.11.1",
	}, creator.recordedRequest)
}

func TestOrchestratorRunResolvesBranchCollisions(testInstance *testing.T) {
	executor := &scriptedGitExecutor{outputs: map[string]string{
		"branch --list upgrade-mongo-scala-driver-4.11.1":              "  upgrade-mongo-scala-driver-4.11.1\n",
		"ls-remote --heads origin upgrade-mongo-scala-driver-4.11.1-2": "abc123\trefs/heads/upgrade-mongo-scala-driver-4.11.1-2\n",
	}}
	orchestrator, creationError := gitworkflow.NewOrchestrator(gitworkflow.Dependencies{GitExecutor: executor, PullRequestCreator: &stubPullRequestCreator{url: testPullRequestURLConstant}})
	require.NoError(testInstance, creationError)

	result := orchestrator.Run(context.Background(), testRepositoryRootConstant, []string{"build.sbt"}, []rewrite.LibrarySpec{testMongoLibrary})

	require.True(testInstance, result.Success)
	require.Equal(testInstance, "upgrade-mongo-scala-driver-4.11.1-3", result.Branch)
	require.Contains(testInstance, executor.commandLines(), "checkout -b upgrade-mongo-scala-driver-4.11.1-3")
	require.Contains(testInstance, executor.commandLines(), "add build.sbt")
}

func TestOrchestratorRunTreatsLookupFailureAsAbsent(testInstance *testing.T) {
	executor := &scriptedGitExecutor{failures: map[string]error{"ls-remote": errors.New("network unreachable")}}
	orchestrator, creationError := gitworkflow.NewOrchestrator(gitworkflow.Dependencies{GitExecutor: executor, PullRequestCreator: &stubPullRequestCreator{url: testPullRequestURLConstant}})
	require.NoError(testInstance, creationError)

	result := orchestrator.Run(context.Background(), testRepositoryRootConstant, []string{"build.sbt"}, []rewrite.LibrarySpec{testMongoLibrary})
	require.True(testInstance, result.Success)
	require.Equal(testInstance, "upgrade-mongo-scala-driver-4.11.1", result.Branch)
}

func TestOrchestratorRunStepFailures(testInstance *testing.T) {
	testCases := []struct {
		name             string
		failures         map[string]error
		pullRequestError error
		expectedMessage  string
		expectedLastStep string
		expectPushedOnly bool
	}{
		{
			name:             "checkout",
			failures:         map[string]error{"checkout": commandFailure("checkout -b x", "fatal: a branch named 'x' already exists")},
			expectedMessage:  "Failed to create branch 'upgrade-mongo-scala-driver-4.11.1': fatal: a branch named 'x' already exists",
			expectedLastStep: "checkout -b upgrade-mongo-scala-driver-4.11.1",
		},
		{
			name:             "stage",
			failures:         map[string]error{"add": commandFailure("add build.sbt", "fatal: pathspec did not match")},
			expectedMessage:  "Failed to stage 'build.sbt': fatal: pathspec did not match",
			expectedLastStep: "add build.sbt",
		},
		{
			name:             "commit",
			failures:         map[string]error{"commit": commandFailure("commit", "")},
			expectedMessage:  "Failed to commit in '/workspace/billing': git commit exited with code 1",
			expectedLastStep: "commit -m Upgrade mongo-scala-driver to 4.11.1\n\nBumps org.mongodb:mongo-scala-driver to version 4.11.1.",
		},
		{
			name:             "push",
			failures:         map[string]error{"push": commandFailure("push", "remote: Permission denied")},
			expectedMessage:  "Failed to push branch 'upgrade-mongo-scala-driver-4.11.1': remote: Permission denied",
			expectedLastStep: "push -u origin upgrade-mongo-scala-driver-4.11.1",
		},
		{
			name: "pull_request",
			pullRequestError: githubcli.OperationError{
				Operation: "CreatePullRequest",
				Cause: execshell.CommandFailedError{
					Command: execshell.ShellCommand{Name: execshell.CommandGitHub},
					Result:  execshell.ExecutionResult{ExitCode: 1, StandardError: "a pull request already exists"},
				},
			},
			expectedMessage:  "Branch 'upgrade-mongo-scala-driver-4.11.1' pushed but PR creation failed: a pull request already exists",
			expectedLastStep: "push -u origin upgrade-mongo-scala-driver-4.11.1",
			expectPushedOnly: true,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			executor := &scriptedGitExecutor{failures: testCase.failures}
			orchestrator, creationError := gitworkflow.NewOrchestrator(gitworkflow.Dependencies{
				GitExecutor:        executor,
				PullRequestCreator: &stubPullRequestCreator{failure: testCase.pullRequestError},
			})
			require.NoError(testInstance, creationError)

			result := orchestrator.Run(context.Background(), testRepositoryRootConstant, []string{"build.sbt"}, []rewrite.LibrarySpec{testMongoLibrary})

			require.False(testInstance, result.Success)
			require.Equal(testInstance, testCase.expectedMessage, result.Message)
			require.Equal(testInstance, testCase.expectPushedOnly, result.PushedWithoutPullRequest)
			commandLines := executor.commandLines()
			require.Equal(testInstance, testCase.expectedLastStep, commandLines[len(commandLines)-1])
		})
	}
}

func TestOrchestratorRunRejectsEmptyInput(testInstance *testing.T) {
	executor := &scriptedGitExecutor{}
	orchestrator, creationError := gitworkflow.NewOrchestrator(gitworkflow.Dependencies{GitExecutor: executor, PullRequestCreator: &stubPullRequestCreator{}})
	require.NoError(testInstance, creationError)

	noLibraries := orchestrator.Run(context.Background(), testRepositoryRootConstant, []string{"build.sbt"}, nil)
	require.False(testInstance, noLibraries.Success)

	noFiles := orchestrator.Run(context.Background(), testRepositoryRootConstant, nil, []rewrite.LibrarySpec{testMongoLibrary})
	require.False(testInstance, noFiles.Success)
	require.Empty(testInstance, executor.commandLines())
}
