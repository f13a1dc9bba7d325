package pattern

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"

	"github.com/temirov/ingest/internal/types"
	"github.com/temirov/ingest/internal/utils"
)

const (
	compileExcludeError    = "compile exclude pattern: %w"
	compileIncludeError    = "compile include pattern: %w"
	compileIgnoreFileError = "compile %s: %w"
)

var ignoreFileNames = []string{utils.GitIgnoreFileName, utils.IgnoreFileName}

// Decision is the matcher's verdict for one path.
type Decision struct {
	Include bool
	Reason  types.SkipReason
	Pattern string
}

type ignoreRuleSet struct {
	baseDirectory string
	source        string
	rules         *ignore.GitIgnore
}

// Matcher evaluates paths against exclude, include and ignore-file rules.
// Exclusion always wins over inclusion. Matcher is not safe for concurrent
// use while ignore files are being loaded.
type Matcher struct {
	caseInsensitive bool
	excludes        []Pattern
	includes        []Pattern
	ignoreRuleSets  []ignoreRuleSet
}

// New compiles the default, user exclude and include patterns of cfg.
func New(cfg types.ScanConfig) (*Matcher, error) {
	matcher := &Matcher{caseInsensitive: cfg.CaseInsensitive()}
	excludeSources := append(cfg.DefaultExcludes(), cfg.ExcludePatterns()...)
	for _, source := range utils.DeduplicatePatterns(excludeSources) {
		compiled, err := Compile(source, matcher.caseInsensitive)
		if err != nil {
			return nil, fmt.Errorf(compileExcludeError, err)
		}
		matcher.excludes = append(matcher.excludes, compiled)
	}
	for _, source := range cfg.IncludePatterns() {
		compiled, err := Compile(source, matcher.caseInsensitive)
		if err != nil {
			return nil, fmt.Errorf(compileIncludeError, err)
		}
		matcher.includes = append(matcher.includes, compiled)
	}
	return matcher, nil
}

// LoadIgnoreFiles compiles the .gitignore and .ignore files found in
// absoluteDirectory. Their rules apply to paths beneath relativeDirectory.
// Missing files are not an error.
func (matcher *Matcher) LoadIgnoreFiles(relativeDirectory, absoluteDirectory string) error {
	baseDirectory := relativeDirectory
	if baseDirectory == "." {
		baseDirectory = ""
	}
	for _, fileName := range ignoreFileNames {
		ignoreFilePath := filepath.Join(absoluteDirectory, fileName)
		info, statErr := os.Stat(ignoreFilePath)
		if statErr != nil || info.IsDir() {
			continue
		}
		rules, compileErr := ignore.CompileIgnoreFile(ignoreFilePath)
		if compileErr != nil {
			return fmt.Errorf(compileIgnoreFileError, ignoreFilePath, compileErr)
		}
		matcher.ignoreRuleSets = append(matcher.ignoreRuleSets, ignoreRuleSet{
			baseDirectory: baseDirectory,
			source:        utils.JoinRelativePath(baseDirectory, fileName),
			rules:         rules,
		})
	}
	return nil
}

// Decide evaluates relativePath, a slash-separated path below the scan root.
// The path and each ancestor directory are checked against exclusions first.
// Include patterns apply to files only and also accept a file when one of its
// ancestor directories matches.
func (matcher *Matcher) Decide(relativePath string, isDirectory bool) Decision {
	originalSegments := strings.Split(relativePath, pathSeparatorString)
	subject := relativePath
	if matcher.caseInsensitive {
		subject = strings.ToLower(subject)
	}
	segments := strings.Split(subject, pathSeparatorString)

	for segmentCount := 1; segmentCount <= len(segments); segmentCount++ {
		candidate := strings.Join(segments[:segmentCount], pathSeparatorString)
		originalCandidate := strings.Join(originalSegments[:segmentCount], pathSeparatorString)
		candidateIsDirectory := segmentCount < len(segments) || isDirectory
		if matched, source := matcher.matchExclude(candidate, originalCandidate, candidateIsDirectory); matched {
			return Decision{Reason: types.SkipReasonExcluded, Pattern: source}
		}
	}

	if isDirectory || len(matcher.includes) == 0 {
		return Decision{Include: true}
	}
	for segmentCount := len(segments); segmentCount >= 1; segmentCount-- {
		candidate := strings.Join(segments[:segmentCount], pathSeparatorString)
		candidateIsDirectory := segmentCount < len(segments)
		for _, include := range matcher.includes {
			if include.Match(candidate, candidateIsDirectory) {
				return Decision{Include: true, Pattern: include.String()}
			}
		}
	}
	return Decision{Reason: types.SkipReasonNotIncluded}
}

// matchExclude checks glob excludes against the folded candidate and ignore
// file rules against the path as it appears on disk.
func (matcher *Matcher) matchExclude(candidate, originalCandidate string, isDirectory bool) (bool, string) {
	for _, exclude := range matcher.excludes {
		if exclude.Match(candidate, isDirectory) {
			return true, exclude.String()
		}
	}
	for _, ruleSet := range matcher.ignoreRuleSets {
		if ruleSet.matches(originalCandidate, isDirectory) {
			return true, ruleSet.source
		}
	}
	return false, ""
}

func (ruleSet ignoreRuleSet) matches(candidate string, isDirectory bool) bool {
	relativeCandidate := candidate
	if ruleSet.baseDirectory != "" {
		prefix := ruleSet.baseDirectory + pathSeparatorString
		if !strings.HasPrefix(candidate, prefix) {
			return false
		}
		relativeCandidate = strings.TrimPrefix(candidate, prefix)
	}
	if ruleSet.rules.MatchesPath(relativeCandidate) {
		return true
	}
	return isDirectory && ruleSet.rules.MatchesPath(relativeCandidate+pathSeparatorString)
}
