package tokendiff

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Quoted strings win over punctuation, punctuation over identifier runs.
var tokenPattern = regexp.MustCompile(`"[^"]*"|'[^']*'|[%(){}\[\],=]|[A-Za-z0-9._:-]+`)

// TokenSpan is the byte range of a token inside some text.
type TokenSpan struct {
	Start int
	End   int
}

// Tokenize returns the tokens of text in order. Whitespace and stray
// punctuation are not tokens.
func Tokenize(text string) []string {
	return tokenPattern.FindAllString(text, -1)
}

// TokenizeWithSpans returns the tokens of text along with their byte offsets.
func TokenizeWithSpans(text string) ([]string, []TokenSpan) {
	indexes := tokenPattern.FindAllStringIndex(text, -1)
	tokens := make([]string, 0, len(indexes))
	spans := make([]TokenSpan, 0, len(indexes))
	for _, index := range indexes {
		tokens = append(tokens, text[index[0]:index[1]])
		spans = append(spans, TokenSpan{Start: index[0], End: index[1]})
	}
	return tokens, spans
}

// LocateTokens finds tokens in content in order. Each search starts at the
// end of the previous token after skipping whitespace, and takes the first
// occurrence from there. It reports false when any token is missing or when
// tokens is empty.
func LocateTokens(content string, tokens []string) ([]TokenSpan, bool) {
	if len(tokens) == 0 {
		return nil, false
	}

	spans := make([]TokenSpan, 0, len(tokens))
	searchOffset := 0
	for _, token := range tokens {
		searchOffset = skipWhitespace(content, searchOffset)
		relativePosition := strings.Index(content[searchOffset:], token)
		if relativePosition < 0 {
			return nil, false
		}
		tokenStart := searchOffset + relativePosition
		spans = append(spans, TokenSpan{Start: tokenStart, End: tokenStart + len(token)})
		searchOffset = tokenStart + len(token)
	}

	return spans, true
}

func skipWhitespace(content string, offset int) int {
	for offset < len(content) {
		character, width := utf8.DecodeRuneInString(content[offset:])
		if !unicode.IsSpace(character) {
			break
		}
		offset += width
	}
	return offset
}

// RemoveWhitespace drops every whitespace rune from text.
func RemoveWhitespace(text string) string {
	return strings.Map(func(character rune) rune {
		if unicode.IsSpace(character) {
			return -1
		}
		return character
	}, text)
}
