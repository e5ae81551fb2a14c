package scanner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultWorkerCount bounds concurrent file processing when no width is configured.
	DefaultWorkerCount = 8

	binaryProbeLengthConstant       = 8000
	gitMetadataDirectoryName        = ".git"
	relativeWarningTemplateConstant = "%s: %s"
	rootDirectoryRequiredMessage    = "root directory required"
	rootDirectoryInvalidTemplate    = "root directory %s is not accessible: %w"
	rootNotDirectoryTemplate        = "root path %s is not a directory"
	transformerRequiredMessage      = "file transformer required"

	fileSkippedMessage       = "file skipped"
	fileTransformedMessage   = "file transformed"
	scanCompletedMessage     = "directory scan completed"
	pathLogField             = "path"
	reasonLogField           = "reason"
	modeLogField             = "mode"
	changedFileCountLogField = "changed_files"
	scannedFileCountLogField = "scanned_files"
	readFailureReason        = "read_failed"
	binaryContentReason      = "binary_content"
	invalidEncodingReason    = "invalid_utf8"
	transformFailureReason   = "transform_failed"
	writeFailureReason       = "write_failed"
)

var (
	// ErrRootDirectoryRequired indicates Scan was called without a root.
	ErrRootDirectoryRequired = errors.New(rootDirectoryRequiredMessage)
	// ErrTransformerRequired indicates Scan was called without a transformer.
	ErrTransformerRequired = errors.New(transformerRequiredMessage)
)

// Mode selects whether a scan only previews changes or writes them.
type Mode string

// Scan modes.
const (
	ModePreview Mode = "preview"
	ModeApply   Mode = "apply"
)

// Options configures a scan.
type Options struct {
	Root       string
	Extensions []string
	Workers    int
	Mode       Mode
}

// FileResult describes one file whose text changed.
type FileResult struct {
	Path               string
	RelativePath       string
	OriginalText       string
	ModifiedText       string
	ChangedLibraryKeys []string
	Replacements       int
	DiffLines          []string
	Written            bool
}

// Outcome aggregates a scan. Files and Warnings are ordered by relative path.
type Outcome struct {
	Files        []FileResult
	Warnings     []string
	ScannedFiles int
}

// DiffsByPath maps relative paths to their rendered diff text.
func (outcome Outcome) DiffsByPath() map[string]string {
	diffs := make(map[string]string, len(outcome.Files))
	for _, fileResult := range outcome.Files {
		diffs[fileResult.RelativePath] = strings.Join(fileResult.DiffLines, diffLineSeparatorConstant)
	}
	return diffs
}

type fileOutcome struct {
	result   *FileResult
	warnings []string
}

// Scanner walks directory trees and transforms eligible files.
type Scanner struct {
	logger *zap.Logger
}

// NewScanner constructs a Scanner. A nil logger disables logging.
func NewScanner(logger *zap.Logger) *Scanner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scanner{logger: logger}
}

// Scan walks options.Root, transforms each eligible file and collects the
// files whose text changed. Unreadable, binary, non UTF-8 and unwritable files
// are skipped without failing the scan.
func (scanner *Scanner) Scan(executionContext context.Context, options Options, transformer FileTransformer) (Outcome, error) {
	if transformer == nil {
		return Outcome{}, ErrTransformerRequired
	}

	rootDirectory := strings.TrimSpace(options.Root)
	if len(rootDirectory) == 0 {
		return Outcome{}, ErrRootDirectoryRequired
	}
	rootInfo, statError := os.Stat(rootDirectory)
	if statError != nil {
		return Outcome{}, fmt.Errorf(rootDirectoryInvalidTemplate, rootDirectory, statError)
	}
	if !rootInfo.IsDir() {
		return Outcome{}, fmt.Errorf(rootNotDirectoryTemplate, rootDirectory)
	}

	candidatePaths := collectCandidatePaths(rootDirectory, options.Extensions)

	workerCount := options.Workers
	if workerCount <= 0 {
		workerCount = DefaultWorkerCount
	}

	fileOutcomes := make([]fileOutcome, len(candidatePaths))
	workerGroup, groupContext := errgroup.WithContext(executionContext)
	workerGroup.SetLimit(workerCount)
	for candidateIndex, candidatePath := range candidatePaths {
		candidateIndex, candidatePath := candidateIndex, candidatePath
		workerGroup.Go(func() error {
			if contextError := groupContext.Err(); contextError != nil {
				return contextError
			}
			fileOutcomes[candidateIndex] = scanner.processFile(rootDirectory, candidatePath, options.Mode, transformer)
			return nil
		})
	}
	if waitError := workerGroup.Wait(); waitError != nil {
		return Outcome{}, waitError
	}

	outcome := Outcome{ScannedFiles: len(candidatePaths)}
	for _, processed := range fileOutcomes {
		outcome.Warnings = append(outcome.Warnings, processed.warnings...)
		if processed.result != nil {
			outcome.Files = append(outcome.Files, *processed.result)
		}
	}

	scanner.logger.Debug(
		scanCompletedMessage,
		zap.String(modeLogField, string(options.Mode)),
		zap.Int(scannedFileCountLogField, outcome.ScannedFiles),
		zap.Int(changedFileCountLogField, len(outcome.Files)),
	)

	return outcome, nil
}

func (scanner *Scanner) processFile(rootDirectory string, filePath string, mode Mode, transformer FileTransformer) fileOutcome {
	relativePath, relativeError := filepath.Rel(rootDirectory, filePath)
	if relativeError != nil {
		relativePath = filePath
	}

	fileInfo, statError := os.Stat(filePath)
	if statError != nil {
		scanner.logSkip(relativePath, readFailureReason)
		return fileOutcome{}
	}

	contentBytes, readError := os.ReadFile(filePath)
	if readError != nil {
		scanner.logSkip(relativePath, readFailureReason)
		return fileOutcome{}
	}
	if isBinary(contentBytes) {
		scanner.logSkip(relativePath, binaryContentReason)
		return fileOutcome{}
	}
	if !utf8.Valid(contentBytes) {
		scanner.logSkip(relativePath, invalidEncodingReason)
		return fileOutcome{}
	}

	originalText := string(contentBytes)
	transformation, transformError := transformer.TransformFile(relativePath, originalText)
	if transformError != nil {
		scanner.logSkip(relativePath, transformFailureReason)
		return fileOutcome{}
	}

	warnings := make([]string, 0, len(transformation.Warnings))
	for _, warning := range transformation.Warnings {
		warnings = append(warnings, fmt.Sprintf(relativeWarningTemplateConstant, relativePath, warning))
	}

	if transformation.Text == originalText {
		return fileOutcome{warnings: warnings}
	}

	fileResult := &FileResult{
		Path:               filePath,
		RelativePath:       relativePath,
		OriginalText:       originalText,
		ModifiedText:       transformation.Text,
		ChangedLibraryKeys: transformation.ChangedLibraryKeys,
		Replacements:       transformation.Replacements,
	}

	switch mode {
	case ModeApply:
		if writeError := os.WriteFile(filePath, []byte(transformation.Text), fileInfo.Mode().Perm()); writeError != nil {
			scanner.logSkip(relativePath, writeFailureReason)
			return fileOutcome{warnings: warnings}
		}
		fileResult.Written = true
	default:
		fileResult.DiffLines = UnifiedDiffLines(originalText, transformation.Text, relativePath)
	}

	scanner.logger.Debug(fileTransformedMessage, zap.String(pathLogField, relativePath), zap.String(modeLogField, string(mode)))
	return fileOutcome{result: fileResult, warnings: warnings}
}

func (scanner *Scanner) logSkip(relativePath string, reason string) {
	scanner.logger.Debug(fileSkippedMessage, zap.String(pathLogField, relativePath), zap.String(reasonLogField, reason))
}

// collectCandidatePaths returns regular files under rootDirectory whose names
// end with one of the extensions, sorted. Version control metadata is skipped.
func collectCandidatePaths(rootDirectory string, extensions []string) []string {
	normalizedExtensions := normalizeExtensions(extensions)

	var candidatePaths []string
	_ = filepath.WalkDir(rootDirectory, func(path string, directoryEntry fs.DirEntry, walkError error) error {
		if walkError != nil {
			if directoryEntry != nil && directoryEntry.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if directoryEntry.IsDir() {
			if directoryEntry.Name() == gitMetadataDirectoryName {
				return fs.SkipDir
			}
			return nil
		}
		if !directoryEntry.Type().IsRegular() {
			return nil
		}
		if !MatchesExtension(directoryEntry.Name(), normalizedExtensions) {
			return nil
		}
		candidatePaths = append(candidatePaths, path)
		return nil
	})

	sort.Strings(candidatePaths)
	return candidatePaths
}

// MatchesExtension reports whether fileName ends with any of the extensions.
// An empty extension list admits every file.
func MatchesExtension(fileName string, extensions []string) bool {
	if len(extensions) == 0 {
		return true
	}
	for _, extension := range extensions {
		if strings.HasSuffix(fileName, extension) {
			return true
		}
	}
	return false
}

func normalizeExtensions(extensions []string) []string {
	normalized := make([]string, 0, len(extensions))
	for _, extension := range extensions {
		trimmedExtension := strings.TrimSpace(extension)
		if len(trimmedExtension) == 0 {
			continue
		}
		normalized = append(normalized, trimmedExtension)
	}
	return normalized
}

// ParseExtensions splits a comma separated extension list.
func ParseExtensions(rawExtensions string) []string {
	return normalizeExtensions(strings.Split(rawExtensions, ","))
}

func isBinary(content []byte) bool {
	probe := content
	if len(probe) > binaryProbeLengthConstant {
		probe = probe[:binaryProbeLengthConstant]
	}
	return bytes.IndexByte(probe, 0) >= 0
}
