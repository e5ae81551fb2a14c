package scanner

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

const (
	diffContextLinesConstant     = 3
	modifiedFileLabelSuffix      = " (modified)"
	diffLineSeparatorConstant    = "\n"
	carriageReturnSuffixConstant = "\r"
)

// UnifiedDiffLines renders a unified diff between two texts as individual
// lines without line terminators.
func UnifiedDiffLines(originalText string, modifiedText string, relativePath string) []string {
	unifiedDiff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(originalText),
		B:        difflib.SplitLines(modifiedText),
		FromFile: relativePath,
		ToFile:   relativePath + modifiedFileLabelSuffix,
		Context:  diffContextLinesConstant,
	}

	renderedDiff, renderError := difflib.GetUnifiedDiffString(unifiedDiff)
	if renderError != nil || len(renderedDiff) == 0 {
		return nil
	}

	lines := strings.Split(strings.TrimSuffix(renderedDiff, diffLineSeparatorConstant), diffLineSeparatorConstant)
	for lineIndex, line := range lines {
		lines[lineIndex] = strings.TrimSuffix(line, carriageReturnSuffixConstant)
	}
	return lines
}
