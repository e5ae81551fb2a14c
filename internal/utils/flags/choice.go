// Package flags renders and validates enumerated cobra flag values.
package flags

import (
	"fmt"
	"strings"
)

const (
	choicePlaceholderPrefix     = "<"
	choicePlaceholderSuffix     = ">"
	choiceSeparatorLiteral      = "|"
	choiceUsageEmptyTemplate    = "`%s`"
	choiceUsageFullTemplate     = "`%s` %s"
	unsupportedChoiceTemplate   = "unsupported %s %q (expected one of %s)"
	choiceListSeparatorConstant = ", "
)

// FormatChoiceUsage builds a usage string where the default option is capitalized inside a placeholder.
func FormatChoiceUsage(defaultChoice string, choices []string, description string) string {
	placeholder := choicePlaceholderPrefix + strings.Join(highlightDefaultChoice(defaultChoice, choices), choiceSeparatorLiteral) + choicePlaceholderSuffix
	if len(strings.TrimSpace(description)) == 0 {
		return fmt.Sprintf(choiceUsageEmptyTemplate, placeholder)
	}
	return fmt.Sprintf(choiceUsageFullTemplate, placeholder, description)
}

// NormalizeChoice lowercases value and checks it against choices. An empty
// value resolves to defaultChoice.
func NormalizeChoice(flagName string, value string, defaultChoice string, choices []string) (string, error) {
	normalizedValue := strings.ToLower(strings.TrimSpace(value))
	if len(normalizedValue) == 0 {
		normalizedValue = strings.ToLower(strings.TrimSpace(defaultChoice))
	}
	for _, choice := range choices {
		if strings.ToLower(strings.TrimSpace(choice)) == normalizedValue {
			return normalizedValue, nil
		}
	}
	return "", fmt.Errorf(unsupportedChoiceTemplate, flagName, value, strings.Join(choices, choiceListSeparatorConstant))
}

func highlightDefaultChoice(defaultChoice string, choices []string) []string {
	normalizedDefault := strings.ToLower(strings.TrimSpace(defaultChoice))
	highlighted := make([]string, 0, len(choices))
	seen := make(map[string]struct{}, len(choices))

	for _, choice := range choices {
		trimmedChoice := strings.TrimSpace(choice)
		normalizedChoice := strings.ToLower(trimmedChoice)
		if len(normalizedChoice) == 0 {
			continue
		}
		if _, exists := seen[normalizedChoice]; exists {
			continue
		}
		seen[normalizedChoice] = struct{}{}

		if normalizedChoice == normalizedDefault {
			trimmedChoice = strings.ToUpper(trimmedChoice)
		}
		highlighted = append(highlighted, trimmedChoice)
	}

	return highlighted
}
