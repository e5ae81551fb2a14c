package tokendiff

import (
	"sort"
	"strings"
)

// MinimalResult describes a minimal token rewrite of one text.
type MinimalResult struct {
	Text          string
	Matched       bool
	Substitutions int
	Operations    []Operation
}

// Changed reports whether the rewrite altered the text.
func (result MinimalResult) Changed(original string) bool {
	return result.Matched && result.Text != original
}

type substitution struct {
	start       int
	end         int
	replacement string
}

// ApplyMinimal rewrites content by substituting only the tokens that differ
// between search and replacement.
//
// The search pattern must occur in content when whitespace is ignored, and its
// tokens must be locatable in order; otherwise content is returned unchanged
// with Matched false. Each pairwise replacement substitutes the first
// occurrence of the old token anywhere in content, so a token value repeated
// earlier in the file is the one rewritten. Delete and insert runs are
// reported in Operations but not applied.
func ApplyMinimal(content string, search string, replacement string) MinimalResult {
	searchTokens := Tokenize(search)
	replacementTokens, replacementSpans := TokenizeWithSpans(replacement)

	if !strings.Contains(RemoveWhitespace(content), RemoveWhitespace(search)) {
		return MinimalResult{Text: content}
	}
	if _, located := LocateTokens(content, searchTokens); !located {
		return MinimalResult{Text: content}
	}

	operations := Align(searchTokens, replacementTokens)

	var substitutions []substitution
	for _, operation := range operations {
		if operation.Kind != OperationReplace {
			continue
		}

		if !operation.Opaque() {
			oldToken := operation.OldTokens[0]
			position := strings.Index(content, oldToken)
			if position < 0 {
				continue
			}
			substitutions = append(substitutions, substitution{start: position, end: position + len(oldToken), replacement: operation.NewTokens[0]})
			continue
		}

		runSpans, located := LocateTokens(content, operation.OldTokens)
		if !located {
			continue
		}
		lastNewIndex := operation.NewIndex + len(operation.NewTokens) - 1
		replacementText := replacement[replacementSpans[operation.NewIndex].Start:replacementSpans[lastNewIndex].End]
		substitutions = append(substitutions, substitution{start: runSpans[0].Start, end: runSpans[len(runSpans)-1].End, replacement: replacementText})
	}

	rewritten, appliedCount := applySubstitutions(content, substitutions)
	return MinimalResult{Text: rewritten, Matched: true, Substitutions: appliedCount, Operations: operations}
}

// applySubstitutions splices non-overlapping substitutions into content; when
// two overlap the one that starts first wins.
func applySubstitutions(content string, substitutions []substitution) (string, int) {
	if len(substitutions) == 0 {
		return content, 0
	}

	sort.SliceStable(substitutions, func(left int, right int) bool {
		return substitutions[left].start < substitutions[right].start
	})

	var builder strings.Builder
	builder.Grow(len(content))
	consumedOffset := 0
	appliedCount := 0
	for _, candidate := range substitutions {
		if candidate.start < consumedOffset {
			continue
		}
		builder.WriteString(content[consumedOffset:candidate.start])
		builder.WriteString(candidate.replacement)
		consumedOffset = candidate.end
		appliedCount++
	}
	builder.WriteString(content[consumedOffset:])

	return builder.String(), appliedCount
}
