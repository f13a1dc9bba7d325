package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"

	"github.com/temirov/ingest/internal/types"
	"github.com/temirov/ingest/internal/utils"
)

const (
	workingDirectoryError  = "determine working directory: %w"
	resolveConfigPathError = "resolve configuration path %s: %w"
	statConfigError        = "stat configuration %s: %w"
	configIsDirectoryError = "configuration path %s is a directory"
	readConfigError        = "read configuration from %s: %w"
	decodeConfigError      = "decode configuration from %s: %w"
	maxFileSizeKey         = "scan.max_file_size"
	maxTotalSizeKey        = "scan.max_total_size"
	configValueError       = "%s: %w"
)

// LoadOptions controls how application configuration is discovered.
type LoadOptions struct {
	WorkingDirectory string
	ExplicitFilePath string
}

// ApplicationConfiguration holds defaults for the ingest command read from YAML.
type ApplicationConfiguration struct {
	Scan   ScanConfiguration   `mapstructure:"scan"`
	Output OutputConfiguration `mapstructure:"output"`
	Tokens TokenConfiguration  `mapstructure:"tokens"`
}

// ScanConfiguration mirrors ScanOptions with optional fields.
type ScanConfiguration struct {
	Include         []string `mapstructure:"include"`
	Exclude         []string `mapstructure:"exclude"`
	MaxFileSize     string   `mapstructure:"max_file_size"`
	MaxTotalSize    string   `mapstructure:"max_total_size"`
	MaxFiles        *int     `mapstructure:"max_files"`
	FollowSymlinks  *bool    `mapstructure:"follow_symlinks"`
	SizePolicy      string   `mapstructure:"size_policy"`
	UseGitignore    *bool    `mapstructure:"use_gitignore"`
	DefaultExcludes *bool    `mapstructure:"default_excludes"`
	CaseInsensitive *bool    `mapstructure:"case_insensitive"`
	Encoding        *string  `mapstructure:"encoding"`
	Workers         *int     `mapstructure:"workers"`
}

// OutputConfiguration controls where and how the digest is written.
type OutputConfiguration struct {
	Format    string `mapstructure:"format"`
	Path      string `mapstructure:"path"`
	Clipboard *bool  `mapstructure:"clipboard"`
}

// TokenConfiguration controls exact token counting defaults.
type TokenConfiguration struct {
	Enabled *bool  `mapstructure:"enabled"`
	Model   string `mapstructure:"model"`
}

// GlobalConfigurationPath returns the XDG location of the global configuration file.
func GlobalConfigurationPath() string {
	return filepath.Join(xdg.ConfigHome, utils.ApplicationName, utils.ConfigFileName)
}

// LoadApplicationConfiguration loads configuration from global and local files.
// Local values override global ones field by field.
func LoadApplicationConfiguration(options LoadOptions) (ApplicationConfiguration, error) {
	workingDirectory := options.WorkingDirectory
	if workingDirectory == "" {
		currentDirectory, err := os.Getwd()
		if err != nil {
			return ApplicationConfiguration{}, fmt.Errorf(workingDirectoryError, err)
		}
		workingDirectory = currentDirectory
	}

	var merged ApplicationConfiguration

	globalConfig, loadErr := loadConfigurationFromPath(GlobalConfigurationPath())
	if loadErr != nil {
		return ApplicationConfiguration{}, loadErr
	}
	merged = merged.Merge(globalConfig)

	localPath, resolveErr := resolveLocalConfigPath(workingDirectory, options.ExplicitFilePath)
	if resolveErr != nil {
		return ApplicationConfiguration{}, resolveErr
	}
	if localPath != "" {
		localConfig, loadErr := loadConfigurationFromPath(localPath)
		if loadErr != nil {
			return ApplicationConfiguration{}, loadErr
		}
		merged = merged.Merge(localConfig)
	}

	merged.Scan.Include = ParsePatternList(merged.Scan.Include)
	merged.Scan.Exclude = ParsePatternList(merged.Scan.Exclude)

	return merged, nil
}

func resolveLocalConfigPath(workingDirectory, explicitPath string) (string, error) {
	if explicitPath != "" {
		if filepath.IsAbs(explicitPath) {
			return explicitPath, nil
		}
		if workingDirectory == "" {
			absolute, err := filepath.Abs(explicitPath)
			if err != nil {
				return "", fmt.Errorf(resolveConfigPathError, explicitPath, err)
			}
			return absolute, nil
		}
		return filepath.Join(workingDirectory, explicitPath), nil
	}
	if workingDirectory == "" {
		return "", nil
	}
	return filepath.Join(workingDirectory, utils.ConfigFileName), nil
}

func loadConfigurationFromPath(path string) (ApplicationConfiguration, error) {
	if path == "" {
		return ApplicationConfiguration{}, nil
	}
	info, statErr := os.Stat(path)
	if statErr != nil {
		if os.IsNotExist(statErr) {
			return ApplicationConfiguration{}, nil
		}
		return ApplicationConfiguration{}, fmt.Errorf(statConfigError, path, statErr)
	}
	if info.IsDir() {
		return ApplicationConfiguration{}, fmt.Errorf(configIsDirectoryError, path)
	}

	reader := viper.New()
	reader.SetConfigFile(path)
	if readErr := reader.ReadInConfig(); readErr != nil {
		return ApplicationConfiguration{}, fmt.Errorf(readConfigError, path, readErr)
	}
	var config ApplicationConfiguration
	if decodeErr := reader.Unmarshal(&config); decodeErr != nil {
		return ApplicationConfiguration{}, fmt.Errorf(decodeConfigError, path, decodeErr)
	}
	return config, nil
}

// Merge overlays override onto the receiver returning the combined configuration.
func (config ApplicationConfiguration) Merge(override ApplicationConfiguration) ApplicationConfiguration {
	result := config
	result.Scan = result.Scan.merge(override.Scan)
	result.Output = result.Output.merge(override.Output)
	result.Tokens = result.Tokens.merge(override.Tokens)
	return result
}

// ApplyToScanOptions copies every configured value onto options.
func (config ApplicationConfiguration) ApplyToScanOptions(options *ScanOptions) error {
	scan := config.Scan
	if len(scan.Include) > 0 {
		options.IncludePatterns = append([]string(nil), scan.Include...)
	}
	if len(scan.Exclude) > 0 {
		options.ExcludePatterns = append([]string(nil), scan.Exclude...)
	}
	if scan.MaxFileSize != "" {
		parsed, err := utils.ParseByteSize(scan.MaxFileSize)
		if err != nil {
			return fmt.Errorf(configValueError, maxFileSizeKey, err)
		}
		options.MaxFileSize = parsed
	}
	if scan.MaxTotalSize != "" {
		parsed, err := utils.ParseByteSize(scan.MaxTotalSize)
		if err != nil {
			return fmt.Errorf(configValueError, maxTotalSizeKey, err)
		}
		options.MaxTotalSize = parsed
	}
	if scan.MaxFiles != nil {
		options.MaxFiles = *scan.MaxFiles
	}
	if scan.FollowSymlinks != nil {
		options.FollowSymlinks = *scan.FollowSymlinks
	}
	if scan.SizePolicy != "" {
		options.SizePolicy = types.SizePolicy(scan.SizePolicy)
	}
	if scan.UseGitignore != nil {
		options.UseGitignore = *scan.UseGitignore
	}
	if scan.DefaultExcludes != nil {
		options.DisableDefaultExcludes = !*scan.DefaultExcludes
	}
	if scan.CaseInsensitive != nil {
		options.CaseInsensitive = *scan.CaseInsensitive
	}
	if scan.Encoding != nil {
		options.FallbackEncoding = *scan.Encoding
	}
	if scan.Workers != nil {
		options.Workers = *scan.Workers
	}
	return nil
}

func (config ScanConfiguration) merge(override ScanConfiguration) ScanConfiguration {
	result := config
	if len(override.Include) > 0 {
		result.Include = append([]string{}, override.Include...)
	}
	if len(override.Exclude) > 0 {
		result.Exclude = append([]string{}, override.Exclude...)
	}
	if override.MaxFileSize != "" {
		result.MaxFileSize = override.MaxFileSize
	}
	if override.MaxTotalSize != "" {
		result.MaxTotalSize = override.MaxTotalSize
	}
	if override.MaxFiles != nil {
		result.MaxFiles = cloneInt(override.MaxFiles)
	}
	if override.FollowSymlinks != nil {
		result.FollowSymlinks = cloneBool(override.FollowSymlinks)
	}
	if override.SizePolicy != "" {
		result.SizePolicy = override.SizePolicy
	}
	if override.UseGitignore != nil {
		result.UseGitignore = cloneBool(override.UseGitignore)
	}
	if override.DefaultExcludes != nil {
		result.DefaultExcludes = cloneBool(override.DefaultExcludes)
	}
	if override.CaseInsensitive != nil {
		result.CaseInsensitive = cloneBool(override.CaseInsensitive)
	}
	if override.Encoding != nil {
		encoding := *override.Encoding
		result.Encoding = &encoding
	}
	if override.Workers != nil {
		result.Workers = cloneInt(override.Workers)
	}
	return result
}

func (config OutputConfiguration) merge(override OutputConfiguration) OutputConfiguration {
	result := config
	if override.Format != "" {
		result.Format = override.Format
	}
	if override.Path != "" {
		result.Path = override.Path
	}
	if override.Clipboard != nil {
		result.Clipboard = cloneBool(override.Clipboard)
	}
	return result
}

func (config TokenConfiguration) merge(override TokenConfiguration) TokenConfiguration {
	result := config
	if override.Enabled != nil {
		result.Enabled = cloneBool(override.Enabled)
	}
	if override.Model != "" {
		result.Model = override.Model
	}
	return result
}

func cloneBool(value *bool) *bool {
	if value == nil {
		return nil
	}
	cloned := *value
	return &cloned
}

func cloneInt(value *int) *int {
	if value == nil {
		return nil
	}
	cloned := *value
	return &cloned
}
