package execshell

import (
	"fmt"
	"strings"
)

const (
	genericStartTemplateConstant           = "Running %s"
	genericSuccessTemplateConstant         = "Completed %s"
	genericFailurePrefixTemplateConstant   = "%s failed"
	failureTemplateConstant                = "%s (exit code %d%s)"
	executionFailureTemplateConstant       = "%s: %s"
	workingDirectorySuffixTemplateConstant = " (in %s)"
	standardErrorSuffixTemplateConstant    = ": %s"
	argumentsJoinSeparatorConstant         = " "
	unknownFailureMessageConstant          = "unknown error"
	defaultWorkingDirectoryLabelConstant   = "current directory"
	unknownValueLabelConstant              = "unknown"
	defaultRemoteLabelConstant             = "origin"
)

const (
	gitCheckoutSubcommandConstant = "checkout"
	gitBranchSubcommandConstant   = "branch"
	gitLSRemoteSubcommandConstant = "ls-remote"
	gitAddSubcommandConstant      = "add"
	gitCommitSubcommandConstant   = "commit"
	gitPushSubcommandConstant     = "push"
	gitCreateBranchFlagConstant   = "-b"
	gitListFlagConstant           = "--list"
	gitHeadsFlagConstant          = "--heads"
	gitHubPullRequestConstant     = "pr"
	gitHubCreateConstant          = "create"
	gitHubAPIConstant             = "api"
	gitHubHeadFlagConstant        = "--head"
	gitHubMethodFlagConstant      = "-X"
	defaultHTTPMethodConstant     = "GET"
)

const (
	branchCreationStartTemplate     = "Creating branch %s in %s"
	branchCreationSuccessTemplate   = "Created branch %s in %s"
	branchCreationFailureTemplate   = "Failed to create branch %s in %s"
	localBranchLookupStartTemplate  = "Checking for local branch %s in %s"
	localBranchFoundTemplate        = "Local branch %s exists in %s"
	localBranchMissingTemplate      = "Local branch %s not found in %s"
	localBranchFailureTemplate      = "Failed to check local branch %s in %s"
	remoteBranchLookupStartTemplate = "Checking %s for branch %s from %s"
	remoteBranchFoundTemplate       = "Branch %s exists on %s"
	remoteBranchMissingTemplate     = "Branch %s not found on %s"
	remoteBranchFailureTemplate     = "Failed to check %s for branch %s from %s"
	stageStartTemplate              = "Staging %s in %s"
	stageSuccessTemplate            = "Staged %s in %s"
	stageFailureTemplate            = "Failed to stage %s in %s"
	commitStartTemplate             = "Committing changes in %s"
	commitSuccessTemplate           = "Committed changes in %s"
	commitFailureTemplate           = "Failed to commit changes in %s"
	pushStartTemplate               = "Pushing %s to %s from %s"
	pushSuccessTemplate             = "Pushed %s to %s from %s"
	pushFailureTemplate             = "Failed to push %s to %s from %s"
	pullRequestStartTemplate        = "Opening pull request for %s in %s"
	pullRequestSuccessTemplate      = "Opened pull request %s"
	pullRequestFailureTemplate      = "Failed to open pull request for %s in %s"
	apiRequestStartTemplate         = "Requesting %s %s"
	apiRequestSuccessTemplate       = "Received %s %s"
	apiRequestFailureTemplate       = "Request %s %s failed"
)

type commandDescription struct {
	start         string
	success       string
	failurePrefix string
}

// CommandMessageFormatter renders human-readable lifecycle messages for shell commands.
type CommandMessageFormatter struct{}

// BuildStartedMessage describes a command about to run.
func (formatter CommandMessageFormatter) BuildStartedMessage(command ShellCommand) string {
	return formatter.describe(command, ExecutionResult{}).start
}

// BuildSuccessMessage describes a command that exited with code zero.
func (formatter CommandMessageFormatter) BuildSuccessMessage(command ShellCommand, result ExecutionResult) string {
	return formatter.describe(command, result).success
}

// BuildFailureMessage describes a command that exited with a non-zero code.
func (formatter CommandMessageFormatter) BuildFailureMessage(command ShellCommand, result ExecutionResult) string {
	description := formatter.describe(command, result)
	return fmt.Sprintf(failureTemplateConstant, description.failurePrefix, result.ExitCode, formatStandardErrorSuffix(result.StandardError))
}

// BuildExecutionFailureMessage describes a command that could not be run.
func (formatter CommandMessageFormatter) BuildExecutionFailureMessage(command ShellCommand, failure error) string {
	failureMessage := unknownFailureMessageConstant
	if failure != nil {
		failureMessage = failure.Error()
	}
	return fmt.Sprintf(executionFailureTemplateConstant, formatter.describe(command, ExecutionResult{}).failurePrefix, failureMessage)
}

func (formatter CommandMessageFormatter) describe(command ShellCommand, result ExecutionResult) commandDescription {
	arguments := command.Details.Arguments
	workingDirectory := describeWorkingDirectory(command)
	subcommand := argumentAtIndex(arguments, 0)

	switch command.Name {
	case CommandGit:
		switch subcommand {
		case gitCheckoutSubcommandConstant:
			if branchName, found := valueAfterFlag(arguments, gitCreateBranchFlagConstant); found {
				return commandDescription{
					start:         fmt.Sprintf(branchCreationStartTemplate, branchName, workingDirectory),
					success:       fmt.Sprintf(branchCreationSuccessTemplate, branchName, workingDirectory),
					failurePrefix: fmt.Sprintf(branchCreationFailureTemplate, branchName, workingDirectory),
				}
			}
		case gitBranchSubcommandConstant:
			if branchName, found := valueAfterFlag(arguments, gitListFlagConstant); found {
				lookupResult := localBranchMissingTemplate
				if len(strings.TrimSpace(result.StandardOutput)) > 0 {
					lookupResult = localBranchFoundTemplate
				}
				return commandDescription{
					start:         fmt.Sprintf(localBranchLookupStartTemplate, branchName, workingDirectory),
					success:       fmt.Sprintf(lookupResult, branchName, workingDirectory),
					failurePrefix: fmt.Sprintf(localBranchFailureTemplate, branchName, workingDirectory),
				}
			}
		case gitLSRemoteSubcommandConstant:
			if containsArgument(arguments, gitHeadsFlagConstant) {
				remoteName := ensureValue(argumentAtIndex(arguments, len(arguments)-2))
				branchName := ensureValue(argumentAtIndex(arguments, len(arguments)-1))
				lookupResult := remoteBranchMissingTemplate
				if len(strings.TrimSpace(result.StandardOutput)) > 0 {
					lookupResult = remoteBranchFoundTemplate
				}
				return commandDescription{
					start:         fmt.Sprintf(remoteBranchLookupStartTemplate, remoteName, branchName, workingDirectory),
					success:       fmt.Sprintf(lookupResult, branchName, remoteName),
					failurePrefix: fmt.Sprintf(remoteBranchFailureTemplate, remoteName, branchName, workingDirectory),
				}
			}
		case gitAddSubcommandConstant:
			stagedPaths := ensureValue(strings.Join(arguments[1:], argumentsJoinSeparatorConstant))
			return commandDescription{
				start:         fmt.Sprintf(stageStartTemplate, stagedPaths, workingDirectory),
				success:       fmt.Sprintf(stageSuccessTemplate, stagedPaths, workingDirectory),
				failurePrefix: fmt.Sprintf(stageFailureTemplate, stagedPaths, workingDirectory),
			}
		case gitCommitSubcommandConstant:
			return commandDescription{
				start:         fmt.Sprintf(commitStartTemplate, workingDirectory),
				success:       fmt.Sprintf(commitSuccessTemplate, workingDirectory),
				failurePrefix: fmt.Sprintf(commitFailureTemplate, workingDirectory),
			}
		case gitPushSubcommandConstant:
			positional := positionalArguments(arguments[1:])
			remoteName := defaultRemoteLabelConstant
			if len(positional) > 0 {
				remoteName = positional[0]
			}
			branchName := ensureValue(argumentAtIndex(positional, 1))
			return commandDescription{
				start:         fmt.Sprintf(pushStartTemplate, branchName, remoteName, workingDirectory),
				success:       fmt.Sprintf(pushSuccessTemplate, branchName, remoteName, workingDirectory),
				failurePrefix: fmt.Sprintf(pushFailureTemplate, branchName, remoteName, workingDirectory),
			}
		}
	case CommandGitHub:
		switch subcommand {
		case gitHubPullRequestConstant:
			if argumentAtIndex(arguments, 1) == gitHubCreateConstant {
				headBranch, _ := valueAfterFlag(arguments, gitHubHeadFlagConstant)
				headBranch = ensureValue(headBranch)
				return commandDescription{
					start:         fmt.Sprintf(pullRequestStartTemplate, headBranch, workingDirectory),
					success:       fmt.Sprintf(pullRequestSuccessTemplate, ensureValue(strings.TrimSpace(result.StandardOutput))),
					failurePrefix: fmt.Sprintf(pullRequestFailureTemplate, headBranch, workingDirectory),
				}
			}
		case gitHubAPIConstant:
			httpMethod, found := valueAfterFlag(arguments, gitHubMethodFlagConstant)
			if !found {
				httpMethod = defaultHTTPMethodConstant
			}
			endpoint := ensureValue(argumentAtIndex(arguments, 1))
			return commandDescription{
				start:         fmt.Sprintf(apiRequestStartTemplate, httpMethod, endpoint),
				success:       fmt.Sprintf(apiRequestSuccessTemplate, httpMethod, endpoint),
				failurePrefix: fmt.Sprintf(apiRequestFailureTemplate, httpMethod, endpoint),
			}
		}
	}

	commandLabel := describeCommandWithDirectory(command)
	return commandDescription{
		start:         fmt.Sprintf(genericStartTemplateConstant, commandLabel),
		success:       fmt.Sprintf(genericSuccessTemplateConstant, commandLabel),
		failurePrefix: fmt.Sprintf(genericFailurePrefixTemplateConstant, commandLabel),
	}
}

func describeCommandWithDirectory(command ShellCommand) string {
	commandLabel := describeCommand(command)
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return commandLabel
	}
	return commandLabel + fmt.Sprintf(workingDirectorySuffixTemplateConstant, trimmedWorkingDirectory)
}

func describeWorkingDirectory(command ShellCommand) string {
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return defaultWorkingDirectoryLabelConstant
	}
	return trimmedWorkingDirectory
}

func formatStandardErrorSuffix(standardError string) string {
	trimmedStandardError := strings.TrimSpace(standardError)
	if len(trimmedStandardError) == 0 {
		return ""
	}
	return fmt.Sprintf(standardErrorSuffixTemplateConstant, trimmedStandardError)
}

func argumentAtIndex(arguments []string, index int) string {
	if index < 0 || index >= len(arguments) {
		return ""
	}
	return strings.TrimSpace(arguments[index])
}

func valueAfterFlag(arguments []string, flagName string) (string, bool) {
	for argumentIndex, argument := range arguments {
		if argument == flagName && argumentIndex+1 < len(arguments) {
			return strings.TrimSpace(arguments[argumentIndex+1]), true
		}
	}
	return "", false
}

func containsArgument(arguments []string, expected string) bool {
	for _, argument := range arguments {
		if argument == expected {
			return true
		}
	}
	return false
}

func positionalArguments(arguments []string) []string {
	positional := make([]string, 0, len(arguments))
	for _, argument := range arguments {
		if strings.HasPrefix(argument, "-") {
			continue
		}
		positional = append(positional, argument)
	}
	return positional
}

func ensureValue(value string) string {
	if len(strings.TrimSpace(value)) == 0 {
		return unknownValueLabelConstant
	}
	return value
}
