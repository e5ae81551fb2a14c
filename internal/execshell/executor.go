package execshell

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

const (
	loggerNotConfiguredMessageConstant        = "shell executor logger not configured"
	commandRunnerNotConfiguredMessageConstant = "shell executor command runner not configured"
	commandFailedErrorTemplateConstant        = "%s exited with code %d"
	commandFailedWithOutputTemplateConstant   = "%s exited with code %d: %s"
	commandExecutionErrorTemplateConstant     = "%s could not be executed: %v"
	commandLabelSeparatorConstant             = " "
	commandNameLogFieldConstant               = "command"
	commandArgumentsLogFieldConstant          = "arguments"
	workingDirectoryLogFieldConstant          = "working_directory"
	exitCodeLogFieldConstant                  = "exit_code"
	standardErrorLogFieldConstant             = "stderr"
)

// CommandName identifies an executable invoked through the shell executor.
type CommandName string

// Supported executables.
const (
	CommandGit    CommandName = "git"
	CommandGitHub CommandName = "gh"
)

// CommandDetails describes the arguments and environment of one invocation.
type CommandDetails struct {
	Arguments            []string
	WorkingDirectory     string
	EnvironmentVariables map[string]string
	StandardInput        []byte
}

// ShellCommand couples an executable with its invocation details.
type ShellCommand struct {
	Name    CommandName
	Details CommandDetails
}

// ExecutionResult captures the observable outcome of a process.
type ExecutionResult struct {
	StandardOutput string
	StandardError  string
	ExitCode       int
}

// CommandRunner executes shell commands.
type CommandRunner interface {
	Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error)
}

var (
	// ErrLoggerNotConfigured indicates a missing logger.
	ErrLoggerNotConfigured = errors.New(loggerNotConfiguredMessageConstant)
	// ErrCommandRunnerNotConfigured indicates a missing command runner.
	ErrCommandRunnerNotConfigured = errors.New(commandRunnerNotConfiguredMessageConstant)
)

// CommandFailedError reports a process that exited with a non-zero code.
type CommandFailedError struct {
	Command ShellCommand
	Result  ExecutionResult
}

// Error describes the failed command including its trimmed standard error.
func (failedError CommandFailedError) Error() string {
	commandLabel := describeCommand(failedError.Command)
	trimmedStandardError := strings.TrimSpace(failedError.Result.StandardError)
	if len(trimmedStandardError) == 0 {
		return fmt.Sprintf(commandFailedErrorTemplateConstant, commandLabel, failedError.Result.ExitCode)
	}
	return fmt.Sprintf(commandFailedWithOutputTemplateConstant, commandLabel, failedError.Result.ExitCode, trimmedStandardError)
}

// StandardErrorText returns the trimmed standard error of the failed command.
func (failedError CommandFailedError) StandardErrorText() string {
	return strings.TrimSpace(failedError.Result.StandardError)
}

// CommandExecutionError reports a process that could not be started or awaited.
type CommandExecutionError struct {
	Command ShellCommand
	Cause   error
}

// Error describes the execution failure.
func (executionError CommandExecutionError) Error() string {
	return fmt.Sprintf(commandExecutionErrorTemplateConstant, describeCommand(executionError.Command), executionError.Cause)
}

// Unwrap exposes the underlying cause.
func (executionError CommandExecutionError) Unwrap() error {
	return executionError.Cause
}

// ShellExecutor runs git and gh commands with structured logging.
type ShellExecutor struct {
	logger    *zap.Logger
	runner    CommandRunner
	observer  CommandEventObserver
	formatter CommandMessageFormatter
}

// NewShellExecutor constructs a ShellExecutor. The optional observer receives
// lifecycle events in addition to the logger.
func NewShellExecutor(logger *zap.Logger, runner CommandRunner, observers ...CommandEventObserver) (*ShellExecutor, error) {
	if logger == nil {
		return nil, ErrLoggerNotConfigured
	}
	if runner == nil {
		return nil, ErrCommandRunnerNotConfigured
	}

	var observer CommandEventObserver = noopCommandEventObserver{}
	for _, candidate := range observers {
		if candidate != nil {
			observer = candidate
		}
	}

	return &ShellExecutor{logger: logger, runner: runner, observer: observer}, nil
}

// ExecuteGit runs git with the supplied details.
func (executor *ShellExecutor) ExecuteGit(executionContext context.Context, details CommandDetails) (ExecutionResult, error) {
	return executor.Execute(executionContext, ShellCommand{Name: CommandGit, Details: details})
}

// ExecuteGitHubCLI runs gh with the supplied details.
func (executor *ShellExecutor) ExecuteGitHubCLI(executionContext context.Context, details CommandDetails) (ExecutionResult, error) {
	return executor.Execute(executionContext, ShellCommand{Name: CommandGitHub, Details: details})
}

// Execute runs an arbitrary command. A non-zero exit code yields CommandFailedError.
func (executor *ShellExecutor) Execute(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	commandFields := []zap.Field{
		zap.String(commandNameLogFieldConstant, string(command.Name)),
		zap.Strings(commandArgumentsLogFieldConstant, command.Details.Arguments),
		zap.String(workingDirectoryLogFieldConstant, command.Details.WorkingDirectory),
	}

	executor.logger.Debug(executor.formatter.BuildStartedMessage(command), commandFields...)
	executor.observer.CommandStarted(command)

	executionResult, runError := executor.runner.Run(executionContext, command)
	if runError != nil {
		executor.logger.Error(executor.formatter.BuildExecutionFailureMessage(command, runError), append(commandFields, zap.Error(runError))...)
		executor.observer.CommandExecutionFailed(command, runError)
		return ExecutionResult{}, CommandExecutionError{Command: command, Cause: runError}
	}

	executor.observer.CommandCompleted(command, executionResult)
	if executionResult.ExitCode != 0 {
		executor.logger.Warn(
			executor.formatter.BuildFailureMessage(command, executionResult),
			append(commandFields,
				zap.Int(exitCodeLogFieldConstant, executionResult.ExitCode),
				zap.String(standardErrorLogFieldConstant, strings.TrimSpace(executionResult.StandardError)),
			)...,
		)
		return ExecutionResult{}, CommandFailedError{Command: command, Result: executionResult}
	}

	executor.logger.Debug(executor.formatter.BuildSuccessMessage(command, executionResult), commandFields...)
	return executionResult, nil
}

func describeCommand(command ShellCommand) string {
	commandParts := append([]string{string(command.Name)}, command.Details.Arguments...)
	return strings.Join(commandParts, commandLabelSeparatorConstant)
}
