package config

import (
	"strings"
	"unicode"

	"github.com/temirov/ingest/internal/utils"
)

// ParsePatternList splits each value on commas and whitespace, drops empty
// items, normalizes backslashes to slashes and removes duplicates in order.
func ParsePatternList(values []string) []string {
	var patterns []string
	for _, value := range values {
		items := strings.FieldsFunc(value, func(character rune) bool {
			return character == ',' || unicode.IsSpace(character)
		})
		for _, item := range items {
			patterns = append(patterns, utils.NormalizeSeparators(item))
		}
	}
	return utils.DeduplicatePatterns(patterns)
}
