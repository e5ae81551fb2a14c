package upgrade

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/temirov/depbump/internal/gitrepo"
	"github.com/temirov/depbump/internal/gitworkflow"
	"github.com/temirov/depbump/internal/rewrite"
	"github.com/temirov/depbump/internal/scanner"
	"github.com/temirov/depbump/internal/ui"
)

const (
	presenterMissingMessageConstant       = "presenter not configured"
	scannerMissingMessageConstant         = "directory scanner not configured"
	workflowMissingMessageConstant        = "workflow runner not configured"
	rootRequiredMessageConstant           = "root directory required"
	librariesRequiredMessageConstant      = "at least one library required"
	selectDirectoryNotificationConstant   = "Select a directory first."
	enterLibraryNotificationConstant      = "Enter at least one library."
	noChangesNotificationConstant         = "No changes detected."
	creatingBranchNotificationTemplate    = "Creating branch and PR for '%s'…"
	outsideRepositoryNotificationTemplate = "Wrote %d file(s) outside any git repo (no branch/PR created)."
	appliedNotificationTemplate           = "Applied changes to %d file(s) across %d repo(s)."
	rootResolutionErrorTemplate           = "unable to resolve root directory %s: %w"
	scanErrorTemplate                     = "scan failed: %w"
	previewResultNameConstant             = "preview"
	summaryResultNameConstant             = "upgrade"
	repositoryLogFieldConstant            = "repository"
	fileCountLogFieldConstant             = "files"
	libraryCountLogFieldConstant          = "libraries"
	modeLogFieldConstant                  = "mode"
	upgradeStartedMessageConstant         = "upgrade started"
	upgradeCompletedMessageConstant       = "upgrade completed"
	workflowDispatchedMessageConstant     = "repository workflow dispatched"
)

var (
	// ErrPresenterNotConfigured indicates the presenter dependency was missing.
	ErrPresenterNotConfigured = errors.New(presenterMissingMessageConstant)
	// ErrScannerNotConfigured indicates the scanner dependency was missing.
	ErrScannerNotConfigured = errors.New(scannerMissingMessageConstant)
	// ErrWorkflowNotConfigured indicates the workflow dependency was missing.
	ErrWorkflowNotConfigured = errors.New(workflowMissingMessageConstant)
	// ErrRootDirectoryRequired indicates a run without a root directory.
	ErrRootDirectoryRequired = errors.New(rootRequiredMessageConstant)
	// ErrLibrariesRequired indicates a run without any valid library.
	ErrLibrariesRequired = errors.New(librariesRequiredMessageConstant)
)

// DirectoryScanner walks a tree and transforms eligible files.
type DirectoryScanner interface {
	Scan(executionContext context.Context, options scanner.Options, transformer scanner.FileTransformer) (scanner.Outcome, error)
}

// LibraryRewriter rewrites every requested library in one text.
type LibraryRewriter interface {
	RewriteAll(text string, specs []rewrite.LibrarySpec, policy rewrite.Policy) rewrite.BatchResult
}

// RepositoryLocator maps a file to the repository that owns it.
type RepositoryLocator interface {
	LocateFile(filePath string) (string, bool)
}

// WorkflowRunner publishes one repository's changes.
type WorkflowRunner interface {
	Run(executionContext context.Context, repositoryRoot string, changedFiles []string, libraries []rewrite.LibrarySpec) gitworkflow.WorkflowResult
}

// Dependencies enumerates the collaborators of a Coordinator.
type Dependencies struct {
	Logger    *zap.Logger
	Presenter ui.Presenter
	Scanner   DirectoryScanner
	Rewriter  LibraryRewriter
	Locator   RepositoryLocator
	Workflow  WorkflowRunner
}

// Request describes one upgrade run.
type Request struct {
	Root       string
	Libraries  []rewrite.LibrarySpec
	Policy     rewrite.Policy
	Mode       scanner.Mode
	Extensions []string
	Workers    int
}

// Summary aggregates the outcome of an upgrade run.
type Summary struct {
	Mode                     scanner.Mode                 `json:"mode" yaml:"mode"`
	FilesChanged             int                          `json:"files_changed" yaml:"files_changed"`
	FilesWritten             int                          `json:"files_written" yaml:"files_written"`
	FilesOutsideRepositories int                          `json:"files_outside_repositories" yaml:"files_outside_repositories"`
	RepositoriesSucceeded    int                          `json:"repositories_succeeded" yaml:"repositories_succeeded"`
	RepositoriesFailed       int                          `json:"repositories_failed" yaml:"repositories_failed"`
	Warnings                 []string                     `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Diffs                    map[string]string            `json:"-" yaml:"-"`
	Results                  []gitworkflow.WorkflowResult `json:"results,omitempty" yaml:"results,omitempty"`
}

type repositoryChangeSet struct {
	repositoryRoot string
	files          []string
	libraryKeys    map[string]struct{}
}

// Coordinator sequences scanning, grouping and per-repository publishing.
type Coordinator struct {
	logger    *zap.Logger
	presenter ui.Presenter
	scanner   DirectoryScanner
	rewriter  LibraryRewriter
	locator   RepositoryLocator
	workflow  WorkflowRunner
}

// NewCoordinator validates dependencies and constructs a Coordinator.
func NewCoordinator(dependencies Dependencies) (*Coordinator, error) {
	if dependencies.Presenter == nil {
		return nil, ErrPresenterNotConfigured
	}
	if dependencies.Scanner == nil {
		return nil, ErrScannerNotConfigured
	}
	if dependencies.Workflow == nil {
		return nil, ErrWorkflowNotConfigured
	}

	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	rewriter := dependencies.Rewriter
	if rewriter == nil {
		rewriter = rewrite.NewRewriter(logger)
	}

	locator := dependencies.Locator
	if locator == nil {
		rootLocator, locatorError := gitrepo.NewRepositoryRootLocator(0)
		if locatorError != nil {
			return nil, locatorError
		}
		locator = rootLocator
	}

	return &Coordinator{
		logger:    logger,
		presenter: dependencies.Presenter,
		scanner:   dependencies.Scanner,
		rewriter:  rewriter,
		locator:   locator,
		workflow:  dependencies.Workflow,
	}, nil
}

// Run executes one upgrade. Input errors are announced through the presenter
// and returned; per-file and per-repository failures are only reported.
func (coordinator *Coordinator) Run(executionContext context.Context, request Request) (Summary, error) {
	mode := request.Mode
	if mode != scanner.ModeApply {
		mode = scanner.ModePreview
	}
	summary := Summary{Mode: mode}

	trimmedRoot := strings.TrimSpace(request.Root)
	if len(trimmedRoot) == 0 {
		coordinator.presenter.Notify(selectDirectoryNotificationConstant, ui.SeverityWarning)
		return summary, ErrRootDirectoryRequired
	}
	if len(request.Libraries) == 0 {
		coordinator.presenter.Notify(enterLibraryNotificationConstant, ui.SeverityWarning)
		return summary, ErrLibrariesRequired
	}
	rootDirectory, absoluteError := filepath.Abs(trimmedRoot)
	if absoluteError != nil {
		return summary, fmt.Errorf(rootResolutionErrorTemplate, trimmedRoot, absoluteError)
	}

	coordinator.logger.Info(
		upgradeStartedMessageConstant,
		zap.String(modeLogFieldConstant, string(mode)),
		zap.Int(libraryCountLogFieldConstant, len(request.Libraries)),
	)

	transformer := coordinator.transformer(request.Libraries, request.Policy)
	outcome, scanError := coordinator.scanner.Scan(executionContext, scanner.Options{
		Root:       rootDirectory,
		Extensions: request.Extensions,
		Workers:    request.Workers,
		Mode:       mode,
	}, transformer)
	if scanError != nil {
		return summary, fmt.Errorf(scanErrorTemplate, scanError)
	}

	summary.Warnings = outcome.Warnings
	summary.FilesChanged = len(outcome.Files)
	for _, warning := range outcome.Warnings {
		coordinator.presenter.Notify(warning, ui.SeverityWarning)
	}

	if len(outcome.Files) == 0 {
		coordinator.presenter.Notify(noChangesNotificationConstant, ui.SeverityWarning)
		return summary, nil
	}

	if mode == scanner.ModePreview {
		summary.Diffs = outcome.DiffsByPath()
		coordinator.presenter.ShowResult(previewResultNameConstant, summary.Diffs)
		return summary, nil
	}

	coordinator.publish(executionContext, request, outcome, &summary)

	coordinator.logger.Info(
		upgradeCompletedMessageConstant,
		zap.Int(fileCountLogFieldConstant, summary.FilesWritten),
	)
	coordinator.presenter.ShowResult(summaryResultNameConstant, summary)
	return summary, nil
}

func (coordinator *Coordinator) transformer(libraries []rewrite.LibrarySpec, policy rewrite.Policy) scanner.FileTransformer {
	return scanner.FileTransformerFunc(func(relativePath string, content string) (scanner.Transformation, error) {
		batch := coordinator.rewriter.RewriteAll(content, libraries, policy)
		return scanner.Transformation{
			Text:               batch.Text,
			ChangedLibraryKeys: batch.ChangedLibraryKeys,
			Warnings:           batch.Warnings,
		}, nil
	})
}

// publish groups written files by repository and runs one workflow per
// repository. Files are already on disk before any workflow starts.
func (coordinator *Coordinator) publish(executionContext context.Context, request Request, outcome scanner.Outcome, summary *Summary) {
	changeSets, outsideFileCount := coordinator.groupByRepository(outcome.Files)
	summary.FilesOutsideRepositories = outsideFileCount
	for _, changeSet := range changeSets {
		summary.FilesWritten += len(changeSet.files)
	}
	summary.FilesWritten += outsideFileCount

	repositoryGroupCount := len(changeSets)
	if outsideFileCount > 0 {
		repositoryGroupCount++
		coordinator.presenter.Notify(fmt.Sprintf(outsideRepositoryNotificationTemplate, outsideFileCount), ui.SeverityWarning)
	}

	workerCount := request.Workers
	if workerCount <= 0 {
		workerCount = scanner.DefaultWorkerCount
	}

	results := make([]gitworkflow.WorkflowResult, len(changeSets))
	var workflowGroup errgroup.Group
	workflowGroup.SetLimit(workerCount)
	for changeSetIndex, changeSet := range changeSets {
		changeSetIndex, changeSet := changeSetIndex, changeSet
		appliedLibraries := selectLibraries(request.Libraries, changeSet.libraryKeys)
		workflowGroup.Go(func() error {
			coordinator.presenter.Notify(fmt.Sprintf(creatingBranchNotificationTemplate, filepath.Base(changeSet.repositoryRoot)), ui.SeverityInfo)
			coordinator.logger.Debug(
				workflowDispatchedMessageConstant,
				zap.String(repositoryLogFieldConstant, changeSet.repositoryRoot),
				zap.Int(fileCountLogFieldConstant, len(changeSet.files)),
			)
			results[changeSetIndex] = coordinator.workflow.Run(executionContext, changeSet.repositoryRoot, changeSet.files, appliedLibraries)
			return nil
		})
	}
	_ = workflowGroup.Wait()

	for _, result := range results {
		switch {
		case result.Success:
			summary.RepositoriesSucceeded++
			coordinator.presenter.Notify(result.Message, ui.SeverityInfo)
		case result.PushedWithoutPullRequest:
			summary.RepositoriesFailed++
			coordinator.presenter.Notify(result.Message, ui.SeverityWarning)
		default:
			summary.RepositoriesFailed++
			coordinator.presenter.Notify(result.Message, ui.SeverityError)
		}
	}
	summary.Results = results

	coordinator.presenter.Notify(fmt.Sprintf(appliedNotificationTemplate, summary.FilesWritten, repositoryGroupCount), ui.SeverityInfo)
}

// groupByRepository returns change sets ordered by repository root and the
// number of written files that no repository owns.
func (coordinator *Coordinator) groupByRepository(files []scanner.FileResult) ([]repositoryChangeSet, int) {
	changeSetsByRoot := make(map[string]*repositoryChangeSet)
	outsideFileCount := 0
	for _, fileResult := range files {
		if !fileResult.Written {
			continue
		}
		repositoryRoot, found := coordinator.locator.LocateFile(fileResult.Path)
		if !found {
			outsideFileCount++
			continue
		}
		changeSet, exists := changeSetsByRoot[repositoryRoot]
		if !exists {
			changeSet = &repositoryChangeSet{repositoryRoot: repositoryRoot, libraryKeys: make(map[string]struct{})}
			changeSetsByRoot[repositoryRoot] = changeSet
		}
		changeSet.files = append(changeSet.files, fileResult.Path)
		for _, libraryKey := range fileResult.ChangedLibraryKeys {
			changeSet.libraryKeys[libraryKey] = struct{}{}
		}
	}

	repositoryRoots := make([]string, 0, len(changeSetsByRoot))
	for repositoryRoot := range changeSetsByRoot {
		repositoryRoots = append(repositoryRoots, repositoryRoot)
	}
	sort.Strings(repositoryRoots)

	changeSets := make([]repositoryChangeSet, 0, len(repositoryRoots))
	for _, repositoryRoot := range repositoryRoots {
		changeSets = append(changeSets, *changeSetsByRoot[repositoryRoot])
	}
	return changeSets, outsideFileCount
}

// selectLibraries keeps request order.
func selectLibraries(libraries []rewrite.LibrarySpec, libraryKeys map[string]struct{}) []rewrite.LibrarySpec {
	selected := make([]rewrite.LibrarySpec, 0, len(libraryKeys))
	for _, library := range libraries {
		if _, changed := libraryKeys[library.Key()]; changed {
			selected = append(selected, library)
		}
	}
	return selected
}
