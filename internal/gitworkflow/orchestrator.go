package gitworkflow

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/depbump/internal/execshell"
	"github.com/temirov/depbump/internal/githubcli"
	"github.com/temirov/depbump/internal/rewrite"
)

const (
	gitExecutorMissingMessageConstant        = "git executor not configured"
	pullRequestCreatorMissingMessageConstant = "pull request creator not configured"
	noLibrariesMessageConstant               = "no libraries applied"
	noChangedFilesMessageConstant            = "no changed files"
	branchNamesExhaustedTemplate             = "no unused branch name derived from '%s'"
	branchCreationFailedTemplate             = "Failed to create branch '%s': %s"
	stageFailedTemplate                      = "Failed to stage '%s': %s"
	commitFailedTemplate                     = "Failed to commit in '%s': %s"
	pushFailedTemplate                       = "Failed to push branch '%s': %s"
	pullRequestFailedTemplate                = "Branch '%s' pushed but PR creation failed: %s"
	pullRequestCreatedTemplate               = "PR created for '%s': %s"
	gitCheckoutSubcommandConstant            = "checkout"
	gitCreateBranchFlagConstant              = "-b"
	gitBranchSubcommandConstant              = "branch"
	gitListFlagConstant                      = "--list"
	gitLSRemoteSubcommandConstant            = "ls-remote"
	gitHeadsFlagConstant                     = "--heads"
	gitAddSubcommandConstant                 = "add"
	gitCommitSubcommandConstant              = "commit"
	gitMessageFlagConstant                   = "-m"
	gitPushSubcommandConstant                = "push"
	gitUpstreamFlagConstant                  = "-u"
	gitTerminalPromptEnvironmentName         = "GIT_TERMINAL_PROMPT"
	gitTerminalPromptDisabledValue           = "0"
	defaultRemoteNameConstant                = "origin"
	maximumBranchAttemptsConstant            = 1000
	repositoryLogFieldConstant               = "repository"
	branchLogFieldConstant                   = "branch"
	workflowFailedMessageConstant            = "pull request workflow failed"
	workflowSucceededMessageConstant         = "pull request opened"
	reasonLogFieldConstant                   = "reason"
	branchLookupFailedMessageConstant        = "branch lookup failed, treating branch as absent"
)

var (
	// ErrGitExecutorNotConfigured indicates the git executor dependency was missing.
	ErrGitExecutorNotConfigured = errors.New(gitExecutorMissingMessageConstant)
	// ErrPullRequestCreatorNotConfigured indicates the pull request dependency was missing.
	ErrPullRequestCreatorNotConfigured = errors.New(pullRequestCreatorMissingMessageConstant)
)

// GitExecutor runs git subcommands.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// PullRequestCreator opens pull requests for pushed branches.
type PullRequestCreator interface {
	CreatePullRequest(executionContext context.Context, request githubcli.PullRequestRequest) (string, error)
}

// Dependencies enumerates the collaborators of an Orchestrator.
type Dependencies struct {
	Logger             *zap.Logger
	GitExecutor        GitExecutor
	PullRequestCreator PullRequestCreator
	RemoteName         string
}

// WorkflowResult is the terminal record of one repository's workflow.
type WorkflowResult struct {
	RepositoryRoot           string `json:"repository_root" yaml:"repository_root"`
	Success                  bool   `json:"success" yaml:"success"`
	Message                  string `json:"message" yaml:"message"`
	Branch                   string `json:"branch,omitempty" yaml:"branch,omitempty"`
	PullRequestURL           string `json:"pull_request_url,omitempty" yaml:"pull_request_url,omitempty"`
	PushedWithoutPullRequest bool   `json:"pushed_without_pull_request,omitempty" yaml:"pushed_without_pull_request,omitempty"`
}

// Orchestrator runs the branch, stage, commit, push, pull request sequence.
type Orchestrator struct {
	logger             *zap.Logger
	gitExecutor        GitExecutor
	pullRequestCreator PullRequestCreator
	remoteName         string
}

// NewOrchestrator validates dependencies and constructs an Orchestrator.
func NewOrchestrator(dependencies Dependencies) (*Orchestrator, error) {
	if dependencies.GitExecutor == nil {
		return nil, ErrGitExecutorNotConfigured
	}
	if dependencies.PullRequestCreator == nil {
		return nil, ErrPullRequestCreatorNotConfigured
	}

	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	remoteName := strings.TrimSpace(dependencies.RemoteName)
	if len(remoteName) == 0 {
		remoteName = defaultRemoteNameConstant
	}

	return &Orchestrator{
		logger:             logger,
		gitExecutor:        dependencies.GitExecutor,
		pullRequestCreator: dependencies.PullRequestCreator,
		remoteName:         remoteName,
	}, nil
}

// Run publishes changedFiles in repositoryRoot. Steps run strictly in order and
// the first failing step ends the run; failures are reported in the result
// rather than returned.
func (orchestrator *Orchestrator) Run(executionContext context.Context, repositoryRoot string, changedFiles []string, libraries []rewrite.LibrarySpec) WorkflowResult {
	result := WorkflowResult{RepositoryRoot: repositoryRoot}
	if len(libraries) == 0 {
		return orchestrator.fail(result, noLibrariesMessageConstant)
	}
	if len(changedFiles) == 0 {
		return orchestrator.fail(result, noChangedFilesMessageConstant)
	}

	baseBranchName := BuildBranchName(libraries)
	branchName, branchFound := orchestrator.findUnusedBranchName(executionContext, repositoryRoot, baseBranchName)
	if !branchFound {
		return orchestrator.fail(result, fmt.Sprintf(branchNamesExhaustedTemplate, baseBranchName))
	}
	result.Branch = branchName

	if checkoutError := orchestrator.executeGit(executionContext, repositoryRoot, gitCheckoutSubcommandConstant, gitCreateBranchFlagConstant, branchName); checkoutError != nil {
		return orchestrator.fail(result, fmt.Sprintf(branchCreationFailedTemplate, branchName, describeFailure(checkoutError)))
	}

	for _, changedFile := range changedFiles {
		stagedPath := relativeToRepository(repositoryRoot, changedFile)
		if stageError := orchestrator.executeGit(executionContext, repositoryRoot, gitAddSubcommandConstant, stagedPath); stageError != nil {
			return orchestrator.fail(result, fmt.Sprintf(stageFailedTemplate, stagedPath, describeFailure(stageError)))
		}
	}

	if commitError := orchestrator.executeGit(executionContext, repositoryRoot, gitCommitSubcommandConstant, gitMessageFlagConstant, BuildCommitMessage(libraries)); commitError != nil {
		return orchestrator.fail(result, fmt.Sprintf(commitFailedTemplate, repositoryRoot, describeFailure(commitError)))
	}

	if pushError := orchestrator.executeGit(executionContext, repositoryRoot, gitPushSubcommandConstant, gitUpstreamFlagConstant, orchestrator.remoteName, branchName); pushError != nil {
		return orchestrator.fail(result, fmt.Sprintf(pushFailedTemplate, branchName, describeFailure(pushError)))
	}

	pullRequestURL, pullRequestError := orchestrator.pullRequestCreator.CreatePullRequest(executionContext, githubcli.PullRequestRequest{
		WorkingDirectory: repositoryRoot,
		Title:            BuildCommitTitle(libraries),
		Body:             BuildPullRequestBody(libraries),
		HeadBranch:       branchName,
	})
	if pullRequestError != nil {
		result.PushedWithoutPullRequest = true
		return orchestrator.fail(result, fmt.Sprintf(pullRequestFailedTemplate, branchName, describeFailure(pullRequestError)))
	}

	result.Success = true
	result.PullRequestURL = pullRequestURL
	result.Message = fmt.Sprintf(pullRequestCreatedTemplate, filepath.Base(repositoryRoot), pullRequestURL)
	orchestrator.logger.Info(workflowSucceededMessageConstant,
		zap.String(repositoryLogFieldConstant, repositoryRoot),
		zap.String(branchLogFieldConstant, branchName),
	)
	return result
}

func (orchestrator *Orchestrator) findUnusedBranchName(executionContext context.Context, repositoryRoot string, baseBranchName string) (string, bool) {
	for attempt := 1; attempt <= maximumBranchAttemptsConstant; attempt++ {
		candidate := CandidateBranchName(baseBranchName, attempt)
		if !orchestrator.branchExists(executionContext, repositoryRoot, candidate) {
			return candidate, true
		}
	}
	return "", false
}

func (orchestrator *Orchestrator) branchExists(executionContext context.Context, repositoryRoot string, branchName string) bool {
	if orchestrator.commandProducesOutput(executionContext, repositoryRoot, gitBranchSubcommandConstant, gitListFlagConstant, branchName) {
		return true
	}
	return orchestrator.commandProducesOutput(executionContext, repositoryRoot, gitLSRemoteSubcommandConstant, gitHeadsFlagConstant, orchestrator.remoteName, branchName)
}

func (orchestrator *Orchestrator) commandProducesOutput(executionContext context.Context, repositoryRoot string, arguments ...string) bool {
	executionResult, executionError := orchestrator.gitExecutor.ExecuteGit(executionContext, orchestrator.commandDetails(repositoryRoot, arguments))
	if executionError != nil {
		orchestrator.logger.Debug(branchLookupFailedMessageConstant,
			zap.String(repositoryLogFieldConstant, repositoryRoot),
			zap.Error(executionError),
		)
		return false
	}
	return len(strings.TrimSpace(executionResult.StandardOutput)) > 0
}

func (orchestrator *Orchestrator) executeGit(executionContext context.Context, repositoryRoot string, arguments ...string) error {
	_, executionError := orchestrator.gitExecutor.ExecuteGit(executionContext, orchestrator.commandDetails(repositoryRoot, arguments))
	return executionError
}

func (orchestrator *Orchestrator) commandDetails(repositoryRoot string, arguments []string) execshell.CommandDetails {
	return execshell.CommandDetails{
		Arguments:            arguments,
		WorkingDirectory:     repositoryRoot,
		EnvironmentVariables: map[string]string{gitTerminalPromptEnvironmentName: gitTerminalPromptDisabledValue},
	}
}

func (orchestrator *Orchestrator) fail(result WorkflowResult, message string) WorkflowResult {
	result.Success = false
	result.Message = message
	orchestrator.logger.Warn(workflowFailedMessageConstant,
		zap.String(repositoryLogFieldConstant, result.RepositoryRoot),
		zap.String(branchLogFieldConstant, result.Branch),
		zap.String(reasonLogFieldConstant, message),
	)
	return result
}

// describeFailure prefers the captured standard error of a failed command.
func describeFailure(failure error) string {
	var commandFailure execshell.CommandFailedError
	if errors.As(failure, &commandFailure) {
		if standardError := commandFailure.StandardErrorText(); len(standardError) > 0 {
			return standardError
		}
	}
	return failure.Error()
}

func relativeToRepository(repositoryRoot string, filePath string) string {
	if !filepath.IsAbs(filePath) {
		return filePath
	}
	relativePath, relativeError := filepath.Rel(repositoryRoot, filePath)
	if relativeError != nil || strings.HasPrefix(relativePath, "..") {
		return filePath
	}
	return relativePath
}
