package rewrite

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/depbump/internal/versions"
)

const (
	directDeclarationPatternTemplate   = `("%s"\s*%%%%?\s*"%s"\s*%%\s*)"([^"]+)"`
	variableDeclarationPatternTemplate = `"%s"\s*%%%%?\s*"%s"\s*%%\s*([a-zA-Z_]\w*)`
	variableBindingPatternTemplate     = `((?:private\s+)?(?:lazy\s+)?(?:val|def)\s+%s\s*(?::\s*String\s*)?=\s*)"([^"]+)"`
	quotedLiteralTemplate              = `"%s"`
	unresolvedVariableWarningTemplate  = "%s used for %s:%s but its definition was not found"

	libraryKeyLogFieldConstant      = "library"
	existingVersionLogFieldConstant = "existing_version"
	targetVersionLogFieldConstant   = "target_version"
	variableLogFieldConstant        = "variable"
	skipReasonLogFieldConstant      = "reason"
	skippedDeclarationMessage       = "declaration left unchanged"
	unresolvedVariableMessage       = "version variable binding not found"
)

// SkipReason explains why a located declaration was not rewritten.
type SkipReason string

// Skip reasons recorded on DependencyMatch.
const (
	SkipReasonNone             SkipReason = ""
	SkipReasonAlreadyCurrent   SkipReason = "already_current"
	SkipReasonDowngradeProtect SkipReason = "downgrade_protect"
	SkipReasonMajorBump        SkipReason = "major_bump"
)

// Policy holds the gates applied to each located declaration.
type Policy struct {
	// OnlyDowngradeProtect skips declarations whose current version is newer than the target.
	OnlyDowngradeProtect bool
	// SkipMajor skips declarations where the target increases the major version.
	SkipMajor bool
}

// DependencyMatch is one located version literal. Offsets index the original
// text and cover the literal including its quotes.
type DependencyMatch struct {
	VersionStart    int
	VersionEnd      int
	ExistingVersion string
	VariableName    string
	Rewritten       bool
	SkipReason      SkipReason
}

// Result is the outcome of rewriting one library in one text.
type Result struct {
	Text     string
	Changed  bool
	Matches  []DependencyMatch
	Warnings []string
}

// BatchResult is the outcome of threading several libraries through one text.
type BatchResult struct {
	Text               string
	ChangedLibraryKeys []string
	Warnings           []string
}

type textEdit struct {
	start       int
	end         int
	replacement string
}

// Rewriter rewrites dependency version literals.
type Rewriter struct {
	logger *zap.Logger
}

// NewRewriter constructs a Rewriter. A nil logger disables logging.
func NewRewriter(logger *zap.Logger) *Rewriter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Rewriter{logger: logger}
}

// Rewrite updates every declaration of spec in text. Direct literals and
// variable bindings are both located in the original text and the resulting
// edits are applied together.
func (rewriter *Rewriter) Rewrite(text string, spec LibrarySpec, policy Policy) Result {
	directMatches, directEdits := rewriter.rewriteDirectDeclarations(text, spec, policy)
	variableMatches, variableEdits, warnings := rewriter.rewriteVariableDeclarations(text, spec, policy)

	edits := append(directEdits, variableEdits...)
	matches := append(directMatches, variableMatches...)
	sort.SliceStable(matches, func(left int, right int) bool {
		return matches[left].VersionStart < matches[right].VersionStart
	})

	if len(edits) == 0 {
		return Result{Text: text, Changed: false, Matches: matches, Warnings: warnings}
	}

	return Result{Text: applyEdits(text, edits), Changed: true, Matches: matches, Warnings: warnings}
}

// RewriteAll applies every spec in order, feeding the output of one into the next.
func (rewriter *Rewriter) RewriteAll(text string, specs []LibrarySpec, policy Policy) BatchResult {
	batchResult := BatchResult{Text: text}
	changedKeys := make(map[string]struct{})

	for _, spec := range specs {
		specResult := rewriter.Rewrite(batchResult.Text, spec, policy)
		batchResult.Text = specResult.Text
		batchResult.Warnings = append(batchResult.Warnings, specResult.Warnings...)
		if !specResult.Changed {
			continue
		}
		if _, alreadyRecorded := changedKeys[spec.Key()]; alreadyRecorded {
			continue
		}
		changedKeys[spec.Key()] = struct{}{}
		batchResult.ChangedLibraryKeys = append(batchResult.ChangedLibraryKeys, spec.Key())
	}

	return batchResult
}

func (rewriter *Rewriter) rewriteDirectDeclarations(text string, spec LibrarySpec, policy Policy) ([]DependencyMatch, []textEdit) {
	pattern := regexp.MustCompile(fmt.Sprintf(directDeclarationPatternTemplate, regexp.QuoteMeta(spec.Group), regexp.QuoteMeta(spec.Artifact)))

	var matches []DependencyMatch
	var edits []textEdit
	for _, submatchIndexes := range pattern.FindAllStringSubmatchIndex(text, -1) {
		versionStart, versionEnd := submatchIndexes[4], submatchIndexes[5]
		match := DependencyMatch{
			VersionStart:    versionStart - 1,
			VersionEnd:      versionEnd + 1,
			ExistingVersion: text[versionStart:versionEnd],
		}
		match = rewriter.evaluate(match, spec, policy)
		matches = append(matches, match)
		if match.Rewritten {
			edits = append(edits, textEdit{start: match.VersionStart, end: match.VersionEnd, replacement: fmt.Sprintf(quotedLiteralTemplate, spec.Version)})
		}
	}

	return matches, edits
}

func (rewriter *Rewriter) rewriteVariableDeclarations(text string, spec LibrarySpec, policy Policy) ([]DependencyMatch, []textEdit, []string) {
	pattern := regexp.MustCompile(fmt.Sprintf(variableDeclarationPatternTemplate, regexp.QuoteMeta(spec.Group), regexp.QuoteMeta(spec.Artifact)))

	var variableNames []string
	seenNames := make(map[string]struct{})
	for _, submatches := range pattern.FindAllStringSubmatch(text, -1) {
		variableName := submatches[1]
		if _, alreadySeen := seenNames[variableName]; alreadySeen {
			continue
		}
		seenNames[variableName] = struct{}{}
		variableNames = append(variableNames, variableName)
	}

	var matches []DependencyMatch
	var edits []textEdit
	var warnings []string
	for _, variableName := range variableNames {
		bindingPattern := regexp.MustCompile(fmt.Sprintf(variableBindingPatternTemplate, regexp.QuoteMeta(variableName)))
		submatchIndexes := bindingPattern.FindStringSubmatchIndex(text)
		if submatchIndexes == nil {
			warnings = append(warnings, fmt.Sprintf(unresolvedVariableWarningTemplate, variableName, spec.Group, spec.Artifact))
			rewriter.logger.Debug(
				unresolvedVariableMessage,
				zap.String(libraryKeyLogFieldConstant, spec.Key()),
				zap.String(variableLogFieldConstant, variableName),
			)
			continue
		}

		versionStart, versionEnd := submatchIndexes[4], submatchIndexes[5]
		match := DependencyMatch{
			VersionStart:    versionStart - 1,
			VersionEnd:      versionEnd + 1,
			ExistingVersion: text[versionStart:versionEnd],
			VariableName:    variableName,
		}
		match = rewriter.evaluate(match, spec, policy)
		matches = append(matches, match)
		if match.Rewritten {
			edits = append(edits, textEdit{start: match.VersionStart, end: match.VersionEnd, replacement: fmt.Sprintf(quotedLiteralTemplate, spec.Version)})
		}
	}

	return matches, edits, warnings
}

func (rewriter *Rewriter) evaluate(match DependencyMatch, spec LibrarySpec, policy Policy) DependencyMatch {
	match.SkipReason = skipReason(match.ExistingVersion, spec, policy)
	match.Rewritten = match.SkipReason == SkipReasonNone
	if !match.Rewritten {
		rewriter.logger.Debug(
			skippedDeclarationMessage,
			zap.String(libraryKeyLogFieldConstant, spec.Key()),
			zap.String(existingVersionLogFieldConstant, match.ExistingVersion),
			zap.String(targetVersionLogFieldConstant, spec.Version),
			zap.String(skipReasonLogFieldConstant, string(match.SkipReason)),
		)
	}
	return match
}

func skipReason(existingVersion string, spec LibrarySpec, policy Policy) SkipReason {
	if existingVersion == spec.Version {
		return SkipReasonAlreadyCurrent
	}
	if policy.OnlyDowngradeProtect && versions.CompareStrings(existingVersion, spec.Version) == versions.OrderingGreater {
		return SkipReasonDowngradeProtect
	}
	if policy.SkipMajor && versions.IsMajorBump(existingVersion, spec.Version) {
		return SkipReasonMajorBump
	}
	return SkipReasonNone
}

// applyEdits splices edits into text. Overlapping edits keep the earliest one.
func applyEdits(text string, edits []textEdit) string {
	sort.SliceStable(edits, func(left int, right int) bool {
		return edits[left].start < edits[right].start
	})

	var builder strings.Builder
	builder.Grow(len(text))
	consumedOffset := 0
	for _, edit := range edits {
		if edit.start < consumedOffset {
			continue
		}
		builder.WriteString(text[consumedOffset:edit.start])
		builder.WriteString(edit.replacement)
		consumedOffset = edit.end
	}
	builder.WriteString(text[consumedOffset:])
	return builder.String()
}
