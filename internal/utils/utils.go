// Package utils contains general helper functions used across the ingest tool.
package utils

import (
	"path/filepath"
	"strings"
)

const pathSegmentSeparator = "/"

// DeduplicatePatterns removes duplicate patterns from a slice while preserving order.
// The first occurrence of each unique pattern is kept.
func DeduplicatePatterns(patterns []string) []string {
	encounteredPatterns := make(map[string]struct{})
	result := make([]string, 0, len(patterns))
	for _, pattern := range patterns {
		if _, exists := encounteredPatterns[pattern]; !exists {
			encounteredPatterns[pattern] = struct{}{}
			result = append(result, pattern)
		}
	}
	return result
}

// IsWithinRoot reports whether candidate equals root or lies beneath it.
// Both paths are expected to be absolute and cleaned.
func IsWithinRoot(candidate, root string) bool {
	relativePath, relErr := filepath.Rel(root, candidate)
	if relErr != nil {
		return false
	}
	relativePath = filepath.ToSlash(relativePath)
	return relativePath == "." || (relativePath != ".." && !strings.HasPrefix(relativePath, "../"))
}

// JoinRelativePath joins a slash-separated parent path and a child name.
func JoinRelativePath(parent, name string) string {
	if parent == "" || parent == "." {
		return name
	}
	return parent + pathSegmentSeparator + name
}

// NormalizeSeparators converts backslashes to forward slashes.
func NormalizeSeparators(value string) string {
	return strings.ReplaceAll(value, "\\", pathSegmentSeparator)
}
