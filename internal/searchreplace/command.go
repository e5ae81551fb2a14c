package searchreplace

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/depbump/internal/scanner"
	"github.com/temirov/depbump/internal/ui"
)

const (
	commandUseConstant                      = "search-replace"
	commandShortDescriptionConstant         = "Search and replace text across a directory tree"
	commandLongDescriptionConstant          = "search-replace matches the search string while ignoring whitespace and replaces every match, or with --minimal-diff substitutes only the tokens that differ between search and replacement."
	unexpectedArgumentsErrorMessageConstant = "search-replace does not accept positional arguments"
	commandExecutionErrorTemplateConstant   = "search-replace failed: %w"
	rootFlagNameConstant                    = "root"
	rootFlagDescriptionConstant             = "Directory to scan"
	searchFlagNameConstant                  = "search"
	searchFlagDescriptionConstant           = "Text or pattern to search for"
	replaceFlagNameConstant                 = "replace"
	replaceFlagDescriptionConstant          = "Replacement text"
	extensionsFlagNameConstant              = "extensions"
	extensionsFlagDescriptionConstant       = "Comma separated file extensions to scan (empty scans every file)"
	regexFlagNameConstant                   = "regex"
	regexFlagDescriptionConstant            = "Treat the search string as a regular expression"
	previewFlagNameConstant                 = "preview"
	previewFlagDescriptionConstant          = "Show diffs without writing files"
	minimalDiffFlagNameConstant             = "minimal-diff"
	minimalDiffFlagDescriptionConstant      = "Substitute only differing tokens and preserve whitespace"
	workersFlagNameConstant                 = "workers"
	workersFlagDescriptionConstant          = "Number of concurrent file workers"
)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// PresenterProvider supplies the presenter receiving results and notifications.
type PresenterProvider func() ui.Presenter

// ConfigurationProvider returns the current search-replace configuration.
type ConfigurationProvider func() Configuration

// CommandBuilder assembles the search-replace command.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	PresenterProvider     PresenterProvider
	ConfigurationProvider ConfigurationProvider
}

// Build constructs the search-replace command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   commandUseConstant,
		Short: commandShortDescriptionConstant,
		Long:  commandLongDescriptionConstant,
		RunE:  builder.run,
	}

	command.Flags().String(rootFlagNameConstant, "", rootFlagDescriptionConstant)
	command.Flags().String(searchFlagNameConstant, "", searchFlagDescriptionConstant)
	command.Flags().String(replaceFlagNameConstant, "", replaceFlagDescriptionConstant)
	command.Flags().String(extensionsFlagNameConstant, "", extensionsFlagDescriptionConstant)
	command.Flags().Bool(regexFlagNameConstant, false, regexFlagDescriptionConstant)
	command.Flags().Bool(previewFlagNameConstant, false, previewFlagDescriptionConstant)
	command.Flags().Bool(minimalDiffFlagNameConstant, false, minimalDiffFlagDescriptionConstant)
	command.Flags().Int(workersFlagNameConstant, 0, workersFlagDescriptionConstant)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	if len(arguments) > 0 {
		return errors.New(unexpectedArgumentsErrorMessageConstant)
	}

	request, requestError := builder.parseRequest(command)
	if requestError != nil {
		return requestError
	}

	logger := builder.resolveLogger()
	service, serviceError := NewService(Dependencies{
		Logger:    logger,
		Presenter: builder.resolvePresenter(command, logger),
		Scanner:   scanner.NewScanner(logger),
	})
	if serviceError != nil {
		return serviceError
	}

	if _, runError := service.Run(command.Context(), request); runError != nil {
		return fmt.Errorf(commandExecutionErrorTemplateConstant, runError)
	}
	return nil
}

func (builder *CommandBuilder) parseRequest(command *cobra.Command) (Request, error) {
	configuration := DefaultConfiguration()
	if builder.ConfigurationProvider != nil {
		configuration = builder.ConfigurationProvider()
	}

	flagSet := command.Flags()
	if flagSet.Changed(rootFlagNameConstant) {
		rootValue, rootError := flagSet.GetString(rootFlagNameConstant)
		if rootError != nil {
			return Request{}, rootError
		}
		configuration.Root = rootValue
	}
	if flagSet.Changed(extensionsFlagNameConstant) {
		extensionsValue, extensionsError := flagSet.GetString(extensionsFlagNameConstant)
		if extensionsError != nil {
			return Request{}, extensionsError
		}
		configuration.Extensions = scanner.ParseExtensions(extensionsValue)
	}
	if flagSet.Changed(workersFlagNameConstant) {
		workersValue, workersError := flagSet.GetInt(workersFlagNameConstant)
		if workersError != nil {
			return Request{}, workersError
		}
		configuration.Workers = workersValue
	}
	configuration = configuration.Sanitize()

	searchValue, searchError := flagSet.GetString(searchFlagNameConstant)
	if searchError != nil {
		return Request{}, searchError
	}
	replaceValue, replaceError := flagSet.GetString(replaceFlagNameConstant)
	if replaceError != nil {
		return Request{}, replaceError
	}
	regexValue, regexError := flagSet.GetBool(regexFlagNameConstant)
	if regexError != nil {
		return Request{}, regexError
	}
	previewValue, previewError := flagSet.GetBool(previewFlagNameConstant)
	if previewError != nil {
		return Request{}, previewError
	}
	minimalDiffValue, minimalDiffError := flagSet.GetBool(minimalDiffFlagNameConstant)
	if minimalDiffError != nil {
		return Request{}, minimalDiffError
	}

	return Request{
		Root:        configuration.Root,
		Search:      searchValue,
		Replacement: replaceValue,
		Extensions:  configuration.Extensions,
		UseRegex:    regexValue,
		Preview:     previewValue,
		MinimalDiff: minimalDiffValue,
		Workers:     configuration.Workers,
	}, nil
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
