package searchreplace

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/depbump/internal/scanner"
	"github.com/temirov/depbump/internal/tokendiff"
	"github.com/temirov/depbump/internal/ui"
)

const (
	presenterMissingMessageConstant     = "presenter not configured"
	scannerMissingMessageConstant       = "directory scanner not configured"
	rootRequiredMessageConstant         = "root directory required"
	searchRequiredMessageConstant       = "search string required"
	selectDirectoryNotificationConstant = "Select a directory first."
	searchRequiredNotificationConstant  = "Search string required."
	runningNotificationTemplate         = "Running %s (%s)..."
	completedNotificationTemplate       = "Completed. %d file(s) affected."
	previewModeLabelConstant            = "Preview"
	applyModeLabelConstant              = "Apply"
	minimalStrategyLabelConstant        = "Minimal Token-Diff"
	fullStrategyLabelConstant           = "Full Replace"
	rootResolutionErrorTemplate         = "unable to resolve root directory %s: %w"
	scanErrorTemplate                   = "scan failed: %w"
	previewResultNameConstant           = "preview"
	summaryResultNameConstant           = "search_replace_results"
	minimalReplacementCountConstant     = 1
	affectedFilesLogFieldConstant       = "affected_files"
	searchCompletedMessageConstant      = "search and replace completed"
)

var (
	// ErrPresenterNotConfigured indicates the presenter dependency was missing.
	ErrPresenterNotConfigured = errors.New(presenterMissingMessageConstant)
	// ErrScannerNotConfigured indicates the scanner dependency was missing.
	ErrScannerNotConfigured = errors.New(scannerMissingMessageConstant)
	// ErrRootDirectoryRequired indicates a run without a root directory.
	ErrRootDirectoryRequired = errors.New(rootRequiredMessageConstant)
	// ErrSearchRequired indicates a run with an empty search string.
	ErrSearchRequired = errors.New(searchRequiredMessageConstant)
)

// DirectoryScanner walks a tree and transforms eligible files.
type DirectoryScanner interface {
	Scan(executionContext context.Context, options scanner.Options, transformer scanner.FileTransformer) (scanner.Outcome, error)
}

// Dependencies enumerates the collaborators of a Service.
type Dependencies struct {
	Logger    *zap.Logger
	Presenter ui.Presenter
	Scanner   DirectoryScanner
}

// Request describes one search and replace run.
type Request struct {
	Root        string
	Search      string
	Replacement string
	Extensions  []string
	UseRegex    bool
	Preview     bool
	MinimalDiff bool
	Workers     int
}

// FileSummary reports one affected file.
type FileSummary struct {
	File         string   `json:"file" yaml:"file"`
	Preview      bool     `json:"preview" yaml:"preview"`
	Replacements int      `json:"replacements" yaml:"replacements"`
	Diff         []string `json:"diff,omitempty" yaml:"diff,omitempty"`
}

// Summary is the result tree handed to the presenter.
type Summary struct {
	Directory    string        `json:"directory" yaml:"directory"`
	Preview      bool          `json:"preview" yaml:"preview"`
	MinimalDiff  bool          `json:"minimal_diff" yaml:"minimal_diff"`
	Extensions   []string      `json:"extensions" yaml:"extensions"`
	ResultsCount int           `json:"results_count" yaml:"results_count"`
	Results      []FileSummary `json:"results" yaml:"results"`
}

// Service runs whitespace-insensitive search and replace over a directory tree.
type Service struct {
	logger    *zap.Logger
	presenter ui.Presenter
	scanner   DirectoryScanner
}

// NewService validates dependencies and constructs a Service.
func NewService(dependencies Dependencies) (*Service, error) {
	if dependencies.Presenter == nil {
		return nil, ErrPresenterNotConfigured
	}
	if dependencies.Scanner == nil {
		return nil, ErrScannerNotConfigured
	}

	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{logger: logger, presenter: dependencies.Presenter, scanner: dependencies.Scanner}, nil
}

// Run executes one search and replace. An invalid regular expression is
// returned before any file is touched.
func (service *Service) Run(executionContext context.Context, request Request) (Summary, error) {
	trimmedRoot := strings.TrimSpace(request.Root)
	if len(trimmedRoot) == 0 {
		service.presenter.Notify(selectDirectoryNotificationConstant, ui.SeverityWarning)
		return Summary{}, ErrRootDirectoryRequired
	}

	search := strings.TrimSpace(request.Search)
	replacement := strings.TrimSpace(request.Replacement)
	if len(search) == 0 {
		service.presenter.Notify(searchRequiredNotificationConstant, ui.SeverityWarning)
		return Summary{}, ErrSearchRequired
	}
	if request.UseRegex && !request.MinimalDiff {
		if _, patternError := tokendiff.FindMatches("", search, true); patternError != nil {
			return Summary{}, patternError
		}
	}

	rootDirectory, absoluteError := filepath.Abs(trimmedRoot)
	if absoluteError != nil {
		return Summary{}, fmt.Errorf(rootResolutionErrorTemplate, trimmedRoot, absoluteError)
	}

	service.presenter.Notify(fmt.Sprintf(runningNotificationTemplate, modeLabel(request.Preview), strategyLabel(request.MinimalDiff)), ui.SeverityInfo)

	mode := scanner.ModeApply
	if request.Preview {
		mode = scanner.ModePreview
	}

	outcome, scanError := service.scanner.Scan(executionContext, scanner.Options{
		Root:       rootDirectory,
		Extensions: request.Extensions,
		Workers:    request.Workers,
		Mode:       mode,
	}, buildTransformer(search, replacement, request.UseRegex, request.MinimalDiff))
	if scanError != nil {
		return Summary{}, fmt.Errorf(scanErrorTemplate, scanError)
	}

	summary := Summary{
		Directory:   rootDirectory,
		Preview:     request.Preview,
		MinimalDiff: request.MinimalDiff,
		Extensions:  request.Extensions,
		Results:     make([]FileSummary, 0, len(outcome.Files)),
	}
	for _, fileResult := range outcome.Files {
		summary.Results = append(summary.Results, FileSummary{
			File:         fileResult.Path,
			Preview:      request.Preview,
			Replacements: fileResult.Replacements,
			Diff:         fileResult.DiffLines,
		})
	}
	summary.ResultsCount = len(summary.Results)

	if request.Preview && summary.ResultsCount > 0 {
		service.presenter.ShowResult(previewResultNameConstant, outcome.DiffsByPath())
	}
	service.presenter.ShowResult(summaryResultNameConstant, summary)
	service.presenter.Notify(fmt.Sprintf(completedNotificationTemplate, summary.ResultsCount), ui.SeverityInfo)
	service.logger.Info(searchCompletedMessageConstant, zap.Int(affectedFilesLogFieldConstant, summary.ResultsCount))

	return summary, nil
}

func buildTransformer(search string, replacement string, useRegex bool, minimalDiff bool) scanner.FileTransformer {
	if minimalDiff {
		return scanner.FileTransformerFunc(func(_ string, content string) (scanner.Transformation, error) {
			minimalResult := tokendiff.ApplyMinimal(content, search, replacement)
			if !minimalResult.Changed(content) {
				return scanner.Transformation{Text: content}, nil
			}
			return scanner.Transformation{Text: minimalResult.Text, Replacements: minimalReplacementCountConstant}, nil
		})
	}

	return scanner.FileTransformerFunc(func(_ string, content string) (scanner.Transformation, error) {
		fullResult, replaceError := tokendiff.ReplaceAll(content, search, replacement, useRegex)
		if replaceError != nil {
			return scanner.Transformation{}, replaceError
		}
		return scanner.Transformation{Text: fullResult.Text, Replacements: fullResult.Replacements}, nil
	})
}

func modeLabel(preview bool) string {
	if preview {
		return previewModeLabelConstant
	}
	return applyModeLabelConstant
}

func strategyLabel(minimalDiff bool) string {
	if minimalDiff {
		return minimalStrategyLabelConstant
	}
	return fullStrategyLabelConstant
}
