package ui

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Severity classifies a notification.
type Severity string

// Supported severities.
const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// OutputFormat selects how structured results are rendered.
type OutputFormat string

// Supported output formats.
const (
	OutputFormatYAML OutputFormat = "yaml"
	OutputFormatJSON OutputFormat = "json"
)

const (
	resultHeaderTemplateConstant      = "== %s ==\n"
	diffSectionHeaderTemplateConstant = "--- %s ---\n"
	unsupportedOutputFormatTemplate   = "unsupported output format: %s"
	renderFailureMessageConstant      = "failed to render result"
	resultNameLogFieldConstant        = "result"
	severityLogFieldConstant          = "severity"
	jsonIndentConstant                = "  "
	yamlIndentConstant                = 2
	lineTerminatorConstant            = "\n"
)

// Presenter receives everything the core wants shown to a person.
type Presenter interface {
	ShowResult(name string, payload any)
	Notify(message string, severity Severity)
}

// ConsolePresenter writes results to an output stream and routes notifications through zap.
type ConsolePresenter struct {
	mutex  sync.Mutex
	output io.Writer
	logger *zap.Logger
	format OutputFormat
}

// ParseOutputFormat validates a configured output format. Empty selects YAML.
func ParseOutputFormat(raw string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(strings.TrimSpace(raw))) {
	case "", OutputFormatYAML:
		return OutputFormatYAML, nil
	case OutputFormatJSON:
		return OutputFormatJSON, nil
	default:
		return "", fmt.Errorf(unsupportedOutputFormatTemplate, raw)
	}
}

// NewConsolePresenter constructs a presenter. A nil output writes to standard output.
func NewConsolePresenter(output io.Writer, logger *zap.Logger, format OutputFormat) *ConsolePresenter {
	if output == nil {
		output = os.Stdout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(format) == 0 {
		format = OutputFormatYAML
	}
	return &ConsolePresenter{output: output, logger: logger, format: format}
}

// ShowResult renders payload under a header. Strings are written verbatim,
// string maps are written as per-key sections in key order, and everything
// else is encoded in the configured format.
func (presenter *ConsolePresenter) ShowResult(name string, payload any) {
	rendered, renderError := presenter.render(payload)
	if renderError != nil {
		presenter.logger.Error(renderFailureMessageConstant, zap.String(resultNameLogFieldConstant, name), zap.Error(renderError))
		return
	}

	presenter.mutex.Lock()
	defer presenter.mutex.Unlock()
	fmt.Fprintf(presenter.output, resultHeaderTemplateConstant, name)
	io.WriteString(presenter.output, ensureTrailingNewline(rendered))
}

// Notify logs message at the level matching severity.
func (presenter *ConsolePresenter) Notify(message string, severity Severity) {
	switch severity {
	case SeverityError:
		presenter.logger.Error(message)
	case SeverityWarning:
		presenter.logger.Warn(message)
	default:
		presenter.logger.Info(message)
	}
}

func (presenter *ConsolePresenter) render(payload any) (string, error) {
	switch typed := payload.(type) {
	case string:
		return typed, nil
	case map[string]string:
		return renderSections(typed), nil
	}

	switch presenter.format {
	case OutputFormatJSON:
		encoded, encodingError := json.MarshalIndent(payload, "", jsonIndentConstant)
		if encodingError != nil {
			return "", encodingError
		}
		return string(encoded), nil
	default:
		var builder strings.Builder
		encoder := yaml.NewEncoder(&builder)
		encoder.SetIndent(yamlIndentConstant)
		encodingError := encoder.Encode(payload)
		closeError := encoder.Close()
		if joined := errors.Join(encodingError, closeError); joined != nil {
			return "", joined
		}
		return builder.String(), nil
	}
}

func renderSections(sections map[string]string) string {
	sectionNames := make([]string, 0, len(sections))
	for sectionName := range sections {
		sectionNames = append(sectionNames, sectionName)
	}
	sort.Strings(sectionNames)

	var builder strings.Builder
	for _, sectionName := range sectionNames {
		fmt.Fprintf(&builder, diffSectionHeaderTemplateConstant, sectionName)
		builder.WriteString(ensureTrailingNewline(sections[sectionName]))
	}
	return builder.String()
}

func ensureTrailingNewline(text string) string {
	if len(text) == 0 || strings.HasSuffix(text, lineTerminatorConstant) {
		return text
	}
	return text + lineTerminatorConstant
}
