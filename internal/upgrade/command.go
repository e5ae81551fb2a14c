package upgrade

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/depbump/internal/execshell"
	"github.com/temirov/depbump/internal/githubcli"
	"github.com/temirov/depbump/internal/gitworkflow"
	"github.com/temirov/depbump/internal/rewrite"
	"github.com/temirov/depbump/internal/scanner"
	"github.com/temirov/depbump/internal/ui"
)

const (
	commandUseConstant                      = "upgrade"
	commandShortDescriptionConstant         = "Rewrite pinned dependency versions and open pull requests"
	commandLongDescriptionConstant          = "upgrade rewrites \"group\" % \"artifact\" % \"version\" declarations under a root directory. Without --apply it previews unified diffs; with --apply it writes the files and opens one branch and pull request per repository."
	unexpectedArgumentsErrorMessageConstant = "upgrade does not accept positional arguments"
	commandExecutionErrorTemplateConstant   = "upgrade failed: %w"
	librariesFileReadErrorTemplateConstant  = "unable to read libraries file %s: %w"
	rootFlagNameConstant                    = "root"
	rootFlagDescriptionConstant             = "Directory to scan"
	libraryFlagNameConstant                 = "library"
	libraryFlagDescriptionConstant          = "Library to upgrade as group:artifact:version (repeatable)"
	librariesFileFlagNameConstant           = "libraries-file"
	librariesFileFlagDescriptionConstant    = "File listing group:artifact:version entries, one per line"
	applyFlagNameConstant                   = "apply"
	applyFlagDescriptionConstant            = "Write changes and open pull requests instead of previewing"
	downgradeProtectFlagNameConstant        = "only-downgrade-protect"
	downgradeProtectFlagDescriptionConstant = "Leave declarations that are already newer than the target untouched"
	skipMajorFlagNameConstant               = "skip-major"
	skipMajorFlagDescriptionConstant        = "Leave declarations untouched when the target bumps the major version"
	extensionsFlagNameConstant              = "extensions"
	extensionsFlagDescriptionConstant       = "Comma separated file extensions to scan"
	workersFlagNameConstant                 = "workers"
	workersFlagDescriptionConstant          = "Number of concurrent file and repository workers"
	remoteFlagNameConstant                  = "remote"
	remoteFlagDescriptionConstant           = "Remote receiving pushed branches"
)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// PresenterProvider supplies the presenter receiving results and notifications.
type PresenterProvider func() ui.Presenter

// ConfigurationProvider returns the current upgrade configuration.
type ConfigurationProvider func() Configuration

// CommandEventObserverProvider supplies an observer for executed commands.
type CommandEventObserverProvider func() execshell.CommandEventObserver

// CommandExecutor runs git and GitHub CLI commands.
type CommandExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
	ExecuteGitHubCLI(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// CommandBuilder assembles the upgrade command.
type CommandBuilder struct {
	LoggerProvider               LoggerProvider
	PresenterProvider            PresenterProvider
	ConfigurationProvider        ConfigurationProvider
	CommandEventObserverProvider CommandEventObserverProvider
	Executor                     CommandExecutor
}

// Build constructs the upgrade command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   commandUseConstant,
		Short: commandShortDescriptionConstant,
		Long:  commandLongDescriptionConstant,
		RunE:  builder.run,
	}

	command.Flags().String(rootFlagNameConstant, "", rootFlagDescriptionConstant)
	command.Flags().StringArray(libraryFlagNameConstant, nil, libraryFlagDescriptionConstant)
	command.Flags().String(librariesFileFlagNameConstant, "", librariesFileFlagDescriptionConstant)
	command.Flags().Bool(applyFlagNameConstant, false, applyFlagDescriptionConstant)
	command.Flags().Bool(downgradeProtectFlagNameConstant, false, downgradeProtectFlagDescriptionConstant)
	command.Flags().Bool(skipMajorFlagNameConstant, false, skipMajorFlagDescriptionConstant)
	command.Flags().String(extensionsFlagNameConstant, "", extensionsFlagDescriptionConstant)
	command.Flags().Int(workersFlagNameConstant, 0, workersFlagDescriptionConstant)
	command.Flags().String(remoteFlagNameConstant, "", remoteFlagDescriptionConstant)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	if len(arguments) > 0 {
		return errors.New(unexpectedArgumentsErrorMessageConstant)
	}

	logger := builder.resolveLogger()
	presenter := builder.resolvePresenter(command, logger)

	configuration, configurationError := builder.resolveConfiguration(command)
	if configurationError != nil {
		return configurationError
	}

	libraryLines, linesError := collectLibraryLines(command)
	if linesError != nil {
		return linesError
	}
	libraries, invalidLines := rewrite.ParseLibrarySpecs(libraryLines)
	for _, invalidLine := range invalidLines {
		presenter.Notify(invalidLine, ui.SeverityWarning)
	}

	applyChanges, applyFlagError := command.Flags().GetBool(applyFlagNameConstant)
	if applyFlagError != nil {
		return applyFlagError
	}
	mode := scanner.ModePreview
	if applyChanges {
		mode = scanner.ModeApply
	}

	coordinator, coordinatorError := builder.buildCoordinator(logger, presenter, configuration)
	if coordinatorError != nil {
		return coordinatorError
	}

	request := Request{
		Root:      configuration.Root,
		Libraries: libraries,
		Policy: rewrite.Policy{
			OnlyDowngradeProtect: configuration.OnlyDowngradeProtect,
			SkipMajor:            configuration.SkipMajor,
		},
		Mode:       mode,
		Extensions: configuration.Extensions,
		Workers:    configuration.Workers,
	}

	if _, runError := coordinator.Run(command.Context(), request); runError != nil {
		return fmt.Errorf(commandExecutionErrorTemplateConstant, runError)
	}
	return nil
}

func (builder *CommandBuilder) buildCoordinator(logger *zap.Logger, presenter ui.Presenter, configuration Configuration) (*Coordinator, error) {
	executor, executorError := builder.resolveExecutor(logger)
	if executorError != nil {
		return nil, executorError
	}

	githubClient, clientError := githubcli.NewClient(executor)
	if clientError != nil {
		return nil, clientError
	}

	orchestrator, orchestratorError := gitworkflow.NewOrchestrator(gitworkflow.Dependencies{
		Logger:             logger,
		GitExecutor:        executor,
		PullRequestCreator: githubClient,
		RemoteName:         configuration.Remote,
	})
	if orchestratorError != nil {
		return nil, orchestratorError
	}

	return NewCoordinator(Dependencies{
		Logger:    logger,
		Presenter: presenter,
		Scanner:   scanner.NewScanner(logger),
		Rewriter:  rewrite.NewRewriter(logger),
		Workflow:  orchestrator,
	})
}

func (builder *CommandBuilder) resolveConfiguration(command *cobra.Command) (Configuration, error) {
	configuration := DefaultConfiguration()
	if builder.ConfigurationProvider != nil {
		configuration = builder.ConfigurationProvider()
	}

	flagSet := command.Flags()
	if flagSet.Changed(rootFlagNameConstant) {
		rootValue, rootError := flagSet.GetString(rootFlagNameConstant)
		if rootError != nil {
			return Configuration{}, rootError
		}
		configuration.Root = rootValue
	}
	if flagSet.Changed(downgradeProtectFlagNameConstant) {
		downgradeValue, downgradeError := flagSet.GetBool(downgradeProtectFlagNameConstant)
		if downgradeError != nil {
			return Configuration{}, downgradeError
		}
		configuration.OnlyDowngradeProtect = downgradeValue
	}
	if flagSet.Changed(skipMajorFlagNameConstant) {
		skipMajorValue, skipMajorError := flagSet.GetBool(skipMajorFlagNameConstant)
		if skipMajorError != nil {
			return Configuration{}, skipMajorError
		}
		configuration.SkipMajor = skipMajorValue
	}
	if flagSet.Changed(extensionsFlagNameConstant) {
		extensionsValue, extensionsError := flagSet.GetString(extensionsFlagNameConstant)
		if extensionsError != nil {
			return Configuration{}, extensionsError
		}
		configuration.Extensions = scanner.ParseExtensions(extensionsValue)
	}
	if flagSet.Changed(workersFlagNameConstant) {
		workersValue, workersError := flagSet.GetInt(workersFlagNameConstant)
		if workersError != nil {
			return Configuration{}, workersError
		}
		configuration.Workers = workersValue
	}
	if flagSet.Changed(remoteFlagNameConstant) {
		remoteValue, remoteError := flagSet.GetString(remoteFlagNameConstant)
		if remoteError != nil {
			return Configuration{}, remoteError
		}
		configuration.Remote = remoteValue
	}

	return configuration.Sanitize(), nil
}

func collectLibraryLines(command *cobra.Command) ([]string, error) {
	libraryLines, libraryFlagError := command.Flags().GetStringArray(libraryFlagNameConstant)
	if libraryFlagError != nil {
		return nil, libraryFlagError
	}

	librariesFilePath, fileFlagError := command.Flags().GetString(librariesFileFlagNameConstant)
	if fileFlagError != nil {
		return nil, fileFlagError
	}
	trimmedFilePath := strings.TrimSpace(librariesFilePath)
	if len(trimmedFilePath) == 0 {
		return libraryLines, nil
	}

	fileContent, readError := os.ReadFile(upgradeConfigurationHomeDirectoryExpander.Expand(trimmedFilePath))
	if readError != nil {
		return nil, fmt.Errorf(librariesFileReadErrorTemplateConstant, trimmedFilePath, readError)
	}
	return append(libraryLines, string(fileContent)), nil
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}

	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}

	return logger
}

func (builder *CommandBuilder) resolvePresenter(command *cobra.Command, logger *zap.Logger) ui.Presenter {
	if builder.PresenterProvider != nil {
		if presenter := builder.PresenterProvider(); presenter != nil {
			return presenter
		}
	}
	return ui.NewConsolePresenter(command.OutOrStdout(), logger, ui.OutputFormatYAML)
}

func (builder *CommandBuilder) resolveExecutor(logger *zap.Logger) (CommandExecutor, error) {
	if builder.Executor != nil {
		return builder.Executor, nil
	}

	var observers []execshell.CommandEventObserver
	if builder.CommandEventObserverProvider != nil {
		if observer := builder.CommandEventObserverProvider(); observer != nil {
			observers = append(observers, observer)
		}
	}

	shellExecutor, creationError := execshell.NewShellExecutor(logger, execshell.NewOSCommandRunner(), observers...)
	if creationError != nil {
		return nil, creationError
	}
	return shellExecutor, nil
}
