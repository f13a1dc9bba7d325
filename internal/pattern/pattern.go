// Package pattern decides whether a path relative to the scan root is processed.
package pattern

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gobwas/glob"

	"github.com/temirov/ingest/internal/utils"
)

const (
	pathSeparator       = '/'
	pathSeparatorString = "/"
	doubleStarPrefix    = "**/"
	doubleStarSegment   = "/**/"
	emptyPatternError   = "empty pattern"
	invalidPatternError = "invalid pattern %q: %w"
)

var errEmptyPattern = errors.New(emptyPatternError)

// Pattern is one compiled glob rule.
//
// A pattern without a slash matches the final path segment at any depth.
// A pattern containing a slash is anchored at the scan root; a leading slash
// only anchors and is removed. A trailing slash restricts the pattern to
// directories. "*" stays within a segment while "**" crosses segments, and
// "**/" may also match zero directories.
type Pattern struct {
	source        string
	directoryOnly bool
	anchored      bool
	globs         []glob.Glob
}

// Compile parses source into a Pattern. Case folding lowers the pattern so
// that it can be matched against lowered paths.
func Compile(source string, caseInsensitive bool) (Pattern, error) {
	normalized := strings.TrimSpace(utils.NormalizeSeparators(source))
	if caseInsensitive {
		normalized = strings.ToLower(normalized)
	}
	compiled := Pattern{source: source}
	if strings.HasSuffix(normalized, pathSeparatorString) {
		compiled.directoryOnly = true
		normalized = strings.TrimRight(normalized, pathSeparatorString)
	}
	if strings.HasPrefix(normalized, pathSeparatorString) {
		compiled.anchored = true
		normalized = strings.TrimLeft(normalized, pathSeparatorString)
	}
	if normalized == "" {
		return Pattern{}, fmt.Errorf(invalidPatternError, source, errEmptyPattern)
	}
	if strings.Contains(normalized, pathSeparatorString) {
		compiled.anchored = true
	}

	for _, variant := range expandVariants(normalized) {
		matcher, compileError := glob.Compile(variant, pathSeparator)
		if compileError != nil {
			return Pattern{}, fmt.Errorf(invalidPatternError, source, compileError)
		}
		compiled.globs = append(compiled.globs, matcher)
	}
	return compiled, nil
}

// Validate reports whether source compiles.
func Validate(source string) error {
	_, err := Compile(source, false)
	return err
}

// String returns the pattern as written by the user.
func (compiled Pattern) String() string {
	return compiled.source
}

// DirectoryOnly reports whether the pattern ends with a slash.
func (compiled Pattern) DirectoryOnly() bool {
	return compiled.directoryOnly
}

// Match reports whether the slash-separated relative path matches.
// The path must already be case folded when the pattern was compiled with folding.
func (compiled Pattern) Match(relativePath string, isDirectory bool) bool {
	if compiled.directoryOnly && !isDirectory {
		return false
	}
	subject := relativePath
	if !compiled.anchored {
		if index := strings.LastIndexByte(relativePath, pathSeparator); index >= 0 {
			subject = relativePath[index+1:]
		}
	}
	for _, matcher := range compiled.globs {
		if matcher.Match(subject) {
			return true
		}
	}
	return false
}

// expandVariants adds the forms in which "**/" stands for zero directories.
func expandVariants(normalized string) []string {
	variants := []string{normalized}
	if strings.Contains(normalized, doubleStarSegment) {
		variants = append(variants, strings.ReplaceAll(normalized, doubleStarSegment, pathSeparatorString))
	}
	expanded := append([]string(nil), variants...)
	for _, variant := range variants {
		if strings.HasPrefix(variant, doubleStarPrefix) {
			expanded = append(expanded, strings.TrimPrefix(variant, doubleStarPrefix))
		}
	}
	return utils.DeduplicatePatterns(expanded)
}
