package tokendiff

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const invalidSearchPatternTemplate = "invalid search pattern %q: %w"

// MatchSpan is the byte range of a whitespace-insensitive match.
type MatchSpan struct {
	Start int
	End   int
}

// FullResult describes a full-match replacement of one text.
type FullResult struct {
	Text         string
	Replacements int
}

type strippedText struct {
	text         string
	originalByte []int
}

func stripWhitespaceWithIndex(content string) strippedText {
	var builder strings.Builder
	originalByte := make([]int, 0, len(content))
	for offset := 0; offset < len(content); {
		character, width := utf8.DecodeRuneInString(content[offset:])
		if !unicode.IsSpace(character) {
			builder.WriteString(content[offset : offset+width])
			for byteOffset := 0; byteOffset < width; byteOffset++ {
				originalByte = append(originalByte, offset+byteOffset)
			}
		}
		offset += width
	}
	return strippedText{text: builder.String(), originalByte: originalByte}
}

// FindMatches locates search inside content with all whitespace removed from
// both. In regex mode the whitespace-free search is compiled as a regular
// expression. Spans index the original content.
func FindMatches(content string, search string, useRegex bool) ([]MatchSpan, error) {
	stripped := stripWhitespaceWithIndex(content)
	strippedSearch := RemoveWhitespace(search)
	if len(strippedSearch) == 0 {
		return nil, nil
	}

	var strippedSpans [][]int
	if useRegex {
		pattern, compileError := regexp.Compile(strippedSearch)
		if compileError != nil {
			return nil, fmt.Errorf(invalidSearchPatternTemplate, search, compileError)
		}
		strippedSpans = pattern.FindAllStringIndex(stripped.text, -1)
	} else {
		for searchOffset := 0; searchOffset <= len(stripped.text); {
			relativePosition := strings.Index(stripped.text[searchOffset:], strippedSearch)
			if relativePosition < 0 {
				break
			}
			matchStart := searchOffset + relativePosition
			strippedSpans = append(strippedSpans, []int{matchStart, matchStart + len(strippedSearch)})
			searchOffset = matchStart + len(strippedSearch)
		}
	}

	spans := make([]MatchSpan, 0, len(strippedSpans))
	for _, strippedSpan := range strippedSpans {
		if strippedSpan[1] <= strippedSpan[0] {
			continue
		}
		spans = append(spans, MatchSpan{
			Start: stripped.originalByte[strippedSpan[0]],
			End:   stripped.originalByte[strippedSpan[1]-1] + 1,
		})
	}
	return spans, nil
}

// ReplaceAll replaces every whitespace-insensitive match of search in content
// with replacement, verbatim.
func ReplaceAll(content string, search string, replacement string, useRegex bool) (FullResult, error) {
	spans, findError := FindMatches(content, search, useRegex)
	if findError != nil {
		return FullResult{Text: content}, findError
	}
	if len(spans) == 0 {
		return FullResult{Text: content}, nil
	}

	rewritten := content
	for spanIndex := len(spans) - 1; spanIndex >= 0; spanIndex-- {
		span := spans[spanIndex]
		rewritten = rewritten[:span.Start] + replacement + rewritten[span.End:]
	}

	return FullResult{Text: rewritten, Replacements: len(spans)}, nil
}
