package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/text/encoding/htmlindex"

	"github.com/temirov/ingest/internal/pattern"
	"github.com/temirov/ingest/internal/types"
)

// Defaults applied by DefaultScanOptions.
const (
	DefaultMaxFileSize  int64 = 10 * 1024 * 1024
	DefaultMaxTotalSize int64 = 500 * 1024 * 1024
)

const (
	DefaultMaxFiles         = 10000
	DefaultFallbackEncoding = "windows-1252"
	workersPerProcessor     = 4
	maximumWorkers          = 64
)

const (
	emptyRootError         = "root path is empty"
	absolutePathError      = "resolve absolute path for %s: %w"
	negativeLimitError     = "%s must not be negative, got %d"
	zeroFileSizeError      = "max file size must be positive"
	unknownSizePolicyError = "unknown size policy %q"
	unknownEncodingError   = "unknown fallback encoding %q: %w"
	invalidIncludeError    = "include: %w"
	invalidExcludeError    = "exclude: %w"
	maxTotalSizeLabel      = "max total size"
	maxFilesLabel          = "max files"
	workersLabel           = "workers"
)

// ScanOptions is the mutable form of a scan configuration assembled by the CLI.
type ScanOptions struct {
	Root                   string
	IncludePatterns        []string
	ExcludePatterns        []string
	DisableDefaultExcludes bool
	MaxFileSize            int64
	MaxTotalSize           int64
	MaxFiles               int
	FollowSymlinks         bool
	SizePolicy             types.SizePolicy
	UseGitignore           bool
	CaseInsensitive        bool
	FallbackEncoding       string
	Workers                int
	// OmittedPaths are files or directories left out of the walk entirely,
	// such as the digest being written. Relative paths resolve against the
	// working directory.
	OmittedPaths           []string
}

// DefaultScanOptions returns options populated with the documented defaults.
func DefaultScanOptions(root string) ScanOptions {
	return ScanOptions{
		Root:             root,
		MaxFileSize:      DefaultMaxFileSize,
		MaxTotalSize:     DefaultMaxTotalSize,
		MaxFiles:         DefaultMaxFiles,
		SizePolicy:       types.SizePolicyTruncate,
		UseGitignore:     true,
		CaseInsensitive:  DefaultCaseInsensitive(),
		FallbackEncoding: DefaultFallbackEncoding,
		Workers:          DefaultWorkers(),
	}
}

// DefaultCaseInsensitive reports whether the host's default filesystems fold case.
func DefaultCaseInsensitive() bool {
	return runtime.GOOS == "windows" || runtime.GOOS == "darwin"
}

// DefaultWorkers is four workers per available processor, capped.
func DefaultWorkers() int {
	workers := workersPerProcessor * runtime.GOMAXPROCS(0)
	if workers > maximumWorkers {
		return maximumWorkers
	}
	return workers
}

// NewScanConfig validates options and freezes them into a types.ScanConfig.
// Pattern lists are split and normalized with ParsePatternList. A zero
// MaxTotalSize or MaxFiles disables that limit; zero Workers selects DefaultWorkers.
func NewScanConfig(options ScanOptions) (types.ScanConfig, error) {
	if strings.TrimSpace(options.Root) == "" {
		return types.ScanConfig{}, errors.New(emptyRootError)
	}
	absoluteRoot, absErr := filepath.Abs(options.Root)
	if absErr != nil {
		return types.ScanConfig{}, fmt.Errorf(absolutePathError, options.Root, absErr)
	}

	if options.MaxFileSize <= 0 {
		return types.ScanConfig{}, errors.New(zeroFileSizeError)
	}
	if options.MaxTotalSize < 0 {
		return types.ScanConfig{}, fmt.Errorf(negativeLimitError, maxTotalSizeLabel, options.MaxTotalSize)
	}
	if options.MaxFiles < 0 {
		return types.ScanConfig{}, fmt.Errorf(negativeLimitError, maxFilesLabel, options.MaxFiles)
	}
	if options.Workers < 0 {
		return types.ScanConfig{}, fmt.Errorf(negativeLimitError, workersLabel, options.Workers)
	}
	workers := options.Workers
	if workers == 0 {
		workers = DefaultWorkers()
	}

	sizePolicy := options.SizePolicy
	switch sizePolicy {
	case "":
		sizePolicy = types.SizePolicyTruncate
	case types.SizePolicyTruncate, types.SizePolicySkip:
	default:
		return types.ScanConfig{}, fmt.Errorf(unknownSizePolicyError, sizePolicy)
	}

	fallbackEncoding := strings.TrimSpace(options.FallbackEncoding)
	if fallbackEncoding != "" {
		if _, lookupErr := htmlindex.Get(fallbackEncoding); lookupErr != nil {
			return types.ScanConfig{}, fmt.Errorf(unknownEncodingError, fallbackEncoding, lookupErr)
		}
	}

	includePatterns := ParsePatternList(options.IncludePatterns)
	for _, source := range includePatterns {
		if err := pattern.Validate(source); err != nil {
			return types.ScanConfig{}, fmt.Errorf(invalidIncludeError, err)
		}
	}
	excludePatterns := ParsePatternList(options.ExcludePatterns)
	for _, source := range excludePatterns {
		if err := pattern.Validate(source); err != nil {
			return types.ScanConfig{}, fmt.Errorf(invalidExcludeError, err)
		}
	}
	var omittedPaths []string
	for _, omitted := range options.OmittedPaths {
		absoluteOmitted, omitErr := filepath.Abs(omitted)
		if omitErr != nil {
			return types.ScanConfig{}, fmt.Errorf(absolutePathError, omitted, omitErr)
		}
		omittedPaths = append(omittedPaths, filepath.Clean(absoluteOmitted))
	}
	var defaultExcludes []string
	if !options.DisableDefaultExcludes {
		defaultExcludes = DefaultExcludePatterns()
	}

	return types.NewScanConfig(types.ScanSettings{
		Root:             filepath.Clean(absoluteRoot),
		IncludePatterns:  includePatterns,
		ExcludePatterns:  excludePatterns,
		DefaultExcludes:  defaultExcludes,
		MaxFileSize:      options.MaxFileSize,
		MaxTotalSize:     options.MaxTotalSize,
		MaxFiles:         options.MaxFiles,
		FollowSymlinks:   options.FollowSymlinks,
		SizePolicy:       sizePolicy,
		UseGitignore:     options.UseGitignore,
		CaseInsensitive:  options.CaseInsensitive,
		FallbackEncoding: fallbackEncoding,
		Workers:          workers,
		OmittedPaths:     omittedPaths,
	}), nil
}

// RootName returns the display name of a scan root.
func RootName(root string) string {
	name := filepath.Base(filepath.Clean(root))
	if name == string(os.PathSeparator) || name == "." || name == "" {
		return root
	}
	return name
}
