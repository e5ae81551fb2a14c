package utils

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	logLevelDebugStringConstant          = "debug"
	logLevelInfoStringConstant           = "info"
	logLevelWarnStringConstant           = "warn"
	logLevelErrorStringConstant          = "error"
	logFormatStructuredStringConstant    = "structured"
	logFormatConsoleStringConstant       = "console"
	jsonZapEncodingStringConstant        = "json"
	consoleZapEncodingStringConstant     = "console"
	unsupportedLogLevelTemplateConstant  = "unsupported log level: %s"
	unsupportedLogFormatTemplateConstant = "unsupported log format: %s"
	consoleMessageKeyConstant            = "message"
	consoleLevelKeyConstant              = "level"
)

// LogLevel enumerates supported logging granularities.
type LogLevel string

// Supported log levels.
const (
	LogLevelDebug LogLevel = LogLevel(logLevelDebugStringConstant)
	LogLevelInfo  LogLevel = LogLevel(logLevelInfoStringConstant)
	LogLevelWarn  LogLevel = LogLevel(logLevelWarnStringConstant)
	LogLevelError LogLevel = LogLevel(logLevelErrorStringConstant)
)

// LogFormat enumerates supported logger output encodings.
type LogFormat string

// Supported log formats.
const (
	LogFormatStructured LogFormat = LogFormat(logFormatStructuredStringConstant)
	LogFormatConsole    LogFormat = LogFormat(logFormatConsoleStringConstant)
)

var logLevelMapping = map[LogLevel]zapcore.Level{
	LogLevelDebug: zapcore.DebugLevel,
	LogLevelInfo:  zapcore.InfoLevel,
	LogLevelWarn:  zapcore.WarnLevel,
	LogLevelError: zapcore.ErrorLevel,
}

var logFormatEncodingMapping = map[LogFormat]string{
	LogFormatStructured: jsonZapEncodingStringConstant,
	LogFormatConsole:    consoleZapEncodingStringConstant,
}

// LoggerOutputs pairs the diagnostic logger with a terse console logger used
// for user-facing notifications.
type LoggerOutputs struct {
	DiagnosticLogger *zap.Logger
	ConsoleLogger    *zap.Logger
}

// LoggerFactory builds zap loggers with consistent configuration.
type LoggerFactory struct {
	consoleOutput io.Writer
}

// NewLoggerFactory constructs a logger factory whose console logger writes to standard error.
func NewLoggerFactory() *LoggerFactory {
	return &LoggerFactory{consoleOutput: os.Stderr}
}

// NewLoggerFactoryWithConsoleOutput directs the console logger to output.
func NewLoggerFactoryWithConsoleOutput(output io.Writer) *LoggerFactory {
	if output == nil {
		output = os.Stderr
	}
	return &LoggerFactory{consoleOutput: output}
}

// CreateLogger produces the diagnostic logger honoring the requested level and format.
func (factory *LoggerFactory) CreateLogger(requestedLogLevel LogLevel, requestedLogFormat LogFormat) (*zap.Logger, error) {
	zapLogLevel, encoding, validationError := resolveLoggerSettings(requestedLogLevel, requestedLogFormat)
	if validationError != nil {
		return nil, validationError
	}

	configuration := zap.NewProductionConfig()
	configuration.Level = zap.NewAtomicLevelAt(zapLogLevel)
	configuration.Encoding = encoding
	if encoding == consoleZapEncodingStringConstant {
		configuration.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		configuration.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	return configuration.Build()
}

// CreateLoggerOutputs builds both loggers. The console logger prints only
// level and message and never drops below info.
func (factory *LoggerFactory) CreateLoggerOutputs(requestedLogLevel LogLevel, requestedLogFormat LogFormat) (LoggerOutputs, error) {
	diagnosticLogger, creationError := factory.CreateLogger(requestedLogLevel, requestedLogFormat)
	if creationError != nil {
		return LoggerOutputs{}, creationError
	}

	consoleLevel := logLevelMapping[requestedLogLevel]
	if consoleLevel < zapcore.InfoLevel {
		consoleLevel = zapcore.InfoLevel
	}

	encoderConfiguration := zapcore.EncoderConfig{
		MessageKey:     consoleMessageKeyConstant,
		LevelKey:       consoleLevelKeyConstant,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeDuration: zapcore.StringDurationEncoder,
	}
	consoleCore := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfiguration),
		NewFlushingWriter(factory.resolveConsoleOutput()),
		consoleLevel,
	)

	return LoggerOutputs{DiagnosticLogger: diagnosticLogger, ConsoleLogger: zap.New(consoleCore)}, nil
}

func (factory *LoggerFactory) resolveConsoleOutput() io.Writer {
	if factory == nil || factory.consoleOutput == nil {
		return os.Stderr
	}
	return factory.consoleOutput
}

func resolveLoggerSettings(requestedLogLevel LogLevel, requestedLogFormat LogFormat) (zapcore.Level, string, error) {
	zapLogLevel, levelExists := logLevelMapping[requestedLogLevel]
	if !levelExists {
		return zapcore.InfoLevel, "", fmt.Errorf(unsupportedLogLevelTemplateConstant, requestedLogLevel)
	}

	encoding, formatExists := logFormatEncodingMapping[requestedLogFormat]
	if !formatExists {
		return zapcore.InfoLevel, "", fmt.Errorf(unsupportedLogFormatTemplateConstant, requestedLogFormat)
	}

	return zapLogLevel, encoding, nil
}
