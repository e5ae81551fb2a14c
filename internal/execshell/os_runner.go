package execshell

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"sort"
	"time"
)

const environmentAssignmentSeparatorConstant = "="

// OSCommandRunner executes commands as child processes.
type OSCommandRunner struct {
	timeout time.Duration
}

// OSCommandRunnerOption customizes an OSCommandRunner.
type OSCommandRunnerOption func(*OSCommandRunner)

// WithCommandTimeout bounds every process started by the runner. Zero disables the bound.
func WithCommandTimeout(timeout time.Duration) OSCommandRunnerOption {
	return func(runner *OSCommandRunner) {
		runner.timeout = timeout
	}
}

// NewOSCommandRunner constructs a runner backed by os/exec.
func NewOSCommandRunner(options ...OSCommandRunnerOption) *OSCommandRunner {
	runner := &OSCommandRunner{}
	for _, option := range options {
		if option != nil {
			option(runner)
		}
	}
	return runner
}

// Run starts the process and waits for it. A non-zero exit is reported through ExitCode, not as an error.
func (runner *OSCommandRunner) Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	if runner.timeout > 0 {
		var cancel context.CancelFunc
		executionContext, cancel = context.WithTimeout(executionContext, runner.timeout)
		defer cancel()
	}

	process := exec.CommandContext(executionContext, string(command.Name), append([]string{}, command.Details.Arguments...)...)
	process.Dir = command.Details.WorkingDirectory
	if len(command.Details.EnvironmentVariables) > 0 {
		process.Env = mergeEnvironment(os.Environ(), command.Details.EnvironmentVariables)
	}
	if len(command.Details.StandardInput) > 0 {
		process.Stdin = bytes.NewReader(command.Details.StandardInput)
	}

	var standardOutput, standardError bytes.Buffer
	process.Stdout = &standardOutput
	process.Stderr = &standardError

	result := ExecutionResult{}
	runError := process.Run()
	result.StandardOutput = standardOutput.String()
	result.StandardError = standardError.String()
	if runError == nil {
		return result, nil
	}

	var exitError *exec.ExitError
	if errors.As(runError, &exitError) && executionContext.Err() == nil {
		result.ExitCode = exitError.ExitCode()
		return result, nil
	}
	if contextError := executionContext.Err(); contextError != nil {
		return ExecutionResult{}, contextError
	}
	return ExecutionResult{}, runError
}

func mergeEnvironment(baseEnvironment []string, overrides map[string]string) []string {
	overrideKeys := make([]string, 0, len(overrides))
	for overrideKey := range overrides {
		overrideKeys = append(overrideKeys, overrideKey)
	}
	sort.Strings(overrideKeys)

	mergedEnvironment := append([]string{}, baseEnvironment...)
	for _, overrideKey := range overrideKeys {
		mergedEnvironment = append(mergedEnvironment, overrideKey+environmentAssignmentSeparatorConstant+overrides[overrideKey])
	}
	return mergedEnvironment
}
