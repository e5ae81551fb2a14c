package cli

import (
	"context"
	"errors"
	"fmt"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/temirov/depbump/internal/execshell"
	"github.com/temirov/depbump/internal/searchreplace"
	"github.com/temirov/depbump/internal/team"
	"github.com/temirov/depbump/internal/ui"
	"github.com/temirov/depbump/internal/upgrade"
	"github.com/temirov/depbump/internal/utils"
)

const (
	applicationNameConstant                 = "depbump"
	applicationShortDescriptionConstant     = "Upgrade dependency versions across repositories"
	applicationLongDescriptionConstant      = "depbump rewrites library versions in build files, previews the resulting diffs, and publishes the changes as one branch and pull request per git repository."
	configFileFlagNameConstant              = "config"
	configFileFlagUsageConstant             = "Optional path to a configuration file (YAML or JSON)."
	logLevelFlagNameConstant                = "log-level"
	logLevelFlagUsageConstant               = "Override the configured log level."
	logFormatFlagNameConstant               = "log-format"
	logFormatFlagUsageConstant              = "Override the configured log format (structured or console)."
	outputFormatFlagNameConstant            = "output-format"
	outputFormatFlagUsageConstant           = "Override the configured result format (yaml or json)."
	commonConfigurationKeyConstant          = "common"
	commonLogLevelConfigKeyConstant         = commonConfigurationKeyConstant + ".log_level"
	commonLogFormatConfigKeyConstant        = commonConfigurationKeyConstant + ".log_format"
	commonOutputFormatConfigKeyConstant     = commonConfigurationKeyConstant + ".output_format"
	environmentPrefixConstant               = "DEPBUMP"
	configurationNameConstant               = "config"
	configurationTypeConstant               = "yaml"
	configurationInitializedMessageConstant = "configuration initialized"
	configurationLogLevelFieldConstant      = "log_level"
	configurationLogFormatFieldConstant     = "log_format"
	configurationFileFieldConstant          = "config_file"
	configurationLoadErrorTemplateConstant  = "unable to load configuration: %w"
	loggerCreationErrorTemplateConstant     = "unable to create logger: %w"
	loggerSyncErrorTemplateConstant         = "unable to flush logger: %w"
	outputFormatErrorTemplateConstant       = "unable to select output format: %w"
	commandBuildErrorTemplateConstant       = "unable to build %s command: %w"
	rootCommandInfoMessageConstant          = "depbump CLI executed"
	rootCommandDebugMessageConstant         = "depbump CLI diagnostics"
	logFieldCommandNameConstant             = "command_name"
	logFieldArgumentCountConstant           = "argument_count"
	logFieldArgumentsConstant               = "arguments"
	loggerNotInitializedMessageConstant     = "logger not initialized"
	defaultConfigurationSearchPathConstant  = "."
	toolsConfigurationKeyConstant           = "tools"
	upgradeConfigurationKeyConstant         = toolsConfigurationKeyConstant + ".upgrade"
	searchReplaceConfigurationKeyConstant   = toolsConfigurationKeyConstant + ".search_replace"
	teamConfigurationKeyConstant            = toolsConfigurationKeyConstant + ".team"
)

// applicationVersion is overridden at build time with -ldflags.
var applicationVersion = "dev"

// ApplicationConfiguration describes the persisted configuration for the CLI entrypoint.
type ApplicationConfiguration struct {
	Common ApplicationCommonConfiguration `mapstructure:"common"`
	Tools  ApplicationToolsConfiguration  `mapstructure:"tools"`
}

// ApplicationCommonConfiguration stores logging and output settings shared across commands.
type ApplicationCommonConfiguration struct {
	LogLevel     string `mapstructure:"log_level"`
	LogFormat    string `mapstructure:"log_format"`
	OutputFormat string `mapstructure:"output_format"`
}

// ApplicationToolsConfiguration holds configuration for CLI subcommands grouped by tool.
type ApplicationToolsConfiguration struct {
	Upgrade       upgrade.Configuration       `mapstructure:"upgrade"`
	SearchReplace searchreplace.Configuration `mapstructure:"search_replace"`
	Team          team.Configuration          `mapstructure:"team"`
}

// Application wires the Cobra root command, configuration loader, structured logger and presenter.
type Application struct {
	rootCommand           *cobra.Command
	configurationLoader   *utils.ConfigurationLoader
	loggerFactory         *utils.LoggerFactory
	logger                *zap.Logger
	consoleLogger         *zap.Logger
	presenter             ui.Presenter
	configuration         ApplicationConfiguration
	configurationMetadata utils.LoadedConfiguration
	configurationFilePath string
	logLevelFlagValue     string
	logFormatFlagValue    string
	outputFormatFlagValue string
}

// NewApplication assembles a fully wired CLI application instance.
func NewApplication() *Application {
	configurationLoader := utils.NewConfigurationLoader(
		configurationNameConstant,
		configurationTypeConstant,
		environmentPrefixConstant,
		[]string{defaultConfigurationSearchPathConstant},
	)
	configurationLoader.SetEmbeddedConfiguration(EmbeddedDefaultConfiguration())

	application := &Application{
		configurationLoader: configurationLoader,
		loggerFactory:       utils.NewLoggerFactory(),
		logger:              zap.NewNop(),
		consoleLogger:       zap.NewNop(),
	}

	cobraCommand := &cobra.Command{
		Use:           applicationNameConstant,
		Short:         applicationShortDescriptionConstant,
		Long:          applicationLongDescriptionConstant,
		Version:       applicationVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
			return application.initializeConfiguration(command)
		},
		RunE: func(command *cobra.Command, arguments []string) error {
			return application.runRootCommand(command, arguments)
		},
	}

	cobraCommand.SetContext(context.Background())
	cobraCommand.PersistentFlags().StringVar(&application.configurationFilePath, configFileFlagNameConstant, "", configFileFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.logLevelFlagValue, logLevelFlagNameConstant, "", logLevelFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.logFormatFlagValue, logFormatFlagNameConstant, "", logFormatFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.outputFormatFlagValue, outputFormatFlagNameConstant, "", outputFormatFlagUsageConstant)

	upgradeBuilder := upgrade.CommandBuilder{
		LoggerProvider:    application.diagnosticLogger,
		PresenterProvider: application.currentPresenter,
		ConfigurationProvider: func() upgrade.Configuration {
			return application.configuration.Tools.Upgrade
		},
		CommandEventObserverProvider: application.commandEventObserver,
	}
	application.addCommand(cobraCommand, "upgrade", upgradeBuilder.Build)

	searchReplaceBuilder := searchreplace.CommandBuilder{
		LoggerProvider:    application.diagnosticLogger,
		PresenterProvider: application.currentPresenter,
		ConfigurationProvider: func() searchreplace.Configuration {
			return application.configuration.Tools.SearchReplace
		},
	}
	application.addCommand(cobraCommand, "search-replace", searchReplaceBuilder.Build)

	teamBuilder := team.CommandBuilder{
		LoggerProvider:    application.diagnosticLogger,
		PresenterProvider: application.currentPresenter,
		ConfigurationProvider: func() team.Configuration {
			return application.configuration.Tools.Team
		},
		CommandEventObserverProvider: application.commandEventObserver,
	}
	application.addCommand(cobraCommand, "team", teamBuilder.Build)

	application.rootCommand = cobraCommand

	return application
}

// Execute runs the configured Cobra command hierarchy and ensures logger flushing.
func (application *Application) Execute() error {
	executionError := application.rootCommand.Execute()
	if syncError := application.flushLogger(); syncError != nil {
		return fmt.Errorf(loggerSyncErrorTemplateConstant, syncError)
	}
	return executionError
}

// Execute builds a fresh application instance and executes the root command hierarchy.
func Execute() error {
	return NewApplication().Execute()
}

func (application *Application) addCommand(rootCommand *cobra.Command, commandName string, build func() (*cobra.Command, error)) {
	command, buildError := build()
	if buildError != nil {
		application.logger.Error(fmt.Errorf(commandBuildErrorTemplateConstant, commandName, buildError).Error())
		return
	}
	rootCommand.AddCommand(command)
}

func (application *Application) initializeConfiguration(command *cobra.Command) error {
	defaultValues := map[string]any{
		commonLogLevelConfigKeyConstant:     string(utils.LogLevelInfo),
		commonLogFormatConfigKeyConstant:    string(utils.LogFormatStructured),
		commonOutputFormatConfigKeyConstant: string(ui.OutputFormatYAML),
	}
	for configurationKey, configurationValue := range upgrade.DefaultConfigurationValues(upgradeConfigurationKeyConstant) {
		defaultValues[configurationKey] = configurationValue
	}
	for configurationKey, configurationValue := range searchreplace.DefaultConfigurationValues(searchReplaceConfigurationKeyConstant) {
		defaultValues[configurationKey] = configurationValue
	}
	for configurationKey, configurationValue := range team.DefaultConfigurationValues(teamConfigurationKeyConstant) {
		defaultValues[configurationKey] = configurationValue
	}

	loadedConfiguration, loadError := application.configurationLoader.LoadConfiguration(application.configurationFilePath, defaultValues, &application.configuration)
	if loadError != nil {
		return fmt.Errorf(configurationLoadErrorTemplateConstant, loadError)
	}

	application.configurationMetadata = loadedConfiguration

	if application.persistentFlagChanged(command, logLevelFlagNameConstant) {
		application.configuration.Common.LogLevel = application.logLevelFlagValue
	}

	if application.persistentFlagChanged(command, logFormatFlagNameConstant) {
		application.configuration.Common.LogFormat = application.logFormatFlagValue
	}

	if application.persistentFlagChanged(command, outputFormatFlagNameConstant) {
		application.configuration.Common.OutputFormat = application.outputFormatFlagValue
	}

	loggerOutputs, loggerCreationError := application.loggerFactory.CreateLoggerOutputs(
		utils.LogLevel(application.configuration.Common.LogLevel),
		utils.LogFormat(application.configuration.Common.LogFormat),
	)
	if loggerCreationError != nil {
		return fmt.Errorf(loggerCreationErrorTemplateConstant, loggerCreationError)
	}

	outputFormat, outputFormatError := ui.ParseOutputFormat(application.configuration.Common.OutputFormat)
	if outputFormatError != nil {
		return fmt.Errorf(outputFormatErrorTemplateConstant, outputFormatError)
	}

	application.logger = loggerOutputs.DiagnosticLogger
	application.consoleLogger = loggerOutputs.ConsoleLogger

	application.presenter = ui.NewConsolePresenter(command.OutOrStdout(), application.consoleLogger, outputFormat)

	application.logger.Info(
		configurationInitializedMessageConstant,
		zap.String(configurationLogLevelFieldConstant, application.configuration.Common.LogLevel),
		zap.String(configurationLogFormatFieldConstant, application.configuration.Common.LogFormat),
		zap.String(configurationFileFieldConstant, application.configurationMetadata.ConfigFileUsed),
	)

	return nil
}

func (application *Application) diagnosticLogger() *zap.Logger {
	return application.logger
}

func (application *Application) currentPresenter() ui.Presenter {
	return application.presenter
}

func (application *Application) commandEventObserver() execshell.CommandEventObserver {
	return ui.NewConsoleCommandEventLogger(application.consoleLogger)
}

func (application *Application) runRootCommand(command *cobra.Command, arguments []string) error {
	if application.logger == nil {
		return errors.New(loggerNotInitializedMessageConstant)
	}

	application.logger.Info(
		rootCommandInfoMessageConstant,
		zap.String(logFieldCommandNameConstant, command.Name()),
		zap.Int(logFieldArgumentCountConstant, len(arguments)),
	)

	application.logger.Debug(
		rootCommandDebugMessageConstant,
		zap.Strings(logFieldArgumentsConstant, arguments),
	)

	return command.Help()
}

func (application *Application) flushLogger() error {
	for _, logger := range []*zap.Logger{application.logger, application.consoleLogger} {
		if syncError := syncLoggerInstance(logger); syncError != nil {
			return syncError
		}
	}
	return nil
}

func syncLoggerInstance(logger *zap.Logger) error {
	if logger == nil {
		return nil
	}

	syncError := logger.Sync()
	switch {
	case syncError == nil:
		return nil
	case errors.Is(syncError, syscall.ENOTSUP):
		return nil
	case errors.Is(syncError, syscall.EINVAL):
		return nil
	case errors.Is(syncError, syscall.ENOTTY):
		return nil
	default:
		return syncError
	}
}

func (application *Application) persistentFlagChanged(command *cobra.Command, flagName string) bool {
	if command == nil {
		return false
	}

	flagSetsToInspect := []*pflag.FlagSet{
		command.PersistentFlags(),
		command.InheritedFlags(),
	}

	rootCommand := command.Root()
	if rootCommand != nil {
		flagSetsToInspect = append(flagSetsToInspect, rootCommand.PersistentFlags())
	}

	for _, flagSet := range flagSetsToInspect {
		if flagSet == nil {
			continue
		}

		if flagSet.Changed(flagName) {
			return true
		}
	}

	return false
}
