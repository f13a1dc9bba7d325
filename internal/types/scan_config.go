package types

// ScanSettings carries the validated values a ScanConfig is built from.
type ScanSettings struct {
	Root             string
	IncludePatterns  []string
	ExcludePatterns  []string
	DefaultExcludes  []string
	MaxFileSize      int64
	MaxTotalSize     int64
	MaxFiles         int
	FollowSymlinks   bool
	SizePolicy       SizePolicy
	UseGitignore     bool
	CaseInsensitive  bool
	FallbackEncoding string
	Workers          int
	// OmittedPaths are absolute paths the walk drops without reporting them.
	OmittedPaths     []string
}

// ScanConfig is the immutable configuration of one scan.
// Slice accessors return copies.
type ScanConfig struct {
	settings ScanSettings
}

// NewScanConfig freezes settings into a ScanConfig.
// Callers are expected to validate settings first; see config.NewScanConfig.
func NewScanConfig(settings ScanSettings) ScanConfig {
	frozen := settings
	frozen.IncludePatterns = cloneStrings(settings.IncludePatterns)
	frozen.ExcludePatterns = cloneStrings(settings.ExcludePatterns)
	frozen.DefaultExcludes = cloneStrings(settings.DefaultExcludes)
	frozen.OmittedPaths = cloneStrings(settings.OmittedPaths)
	return ScanConfig{settings: frozen}
}

func (config ScanConfig) Root() string { return config.settings.Root }
func (config ScanConfig) IncludePatterns() []string { return cloneStrings(config.settings.IncludePatterns) }
func (config ScanConfig) ExcludePatterns() []string { return cloneStrings(config.settings.ExcludePatterns) }
func (config ScanConfig) DefaultExcludes() []string { return cloneStrings(config.settings.DefaultExcludes) }
func (config ScanConfig) MaxFileSize() int64 { return config.settings.MaxFileSize }
func (config ScanConfig) MaxTotalSize() int64 { return config.settings.MaxTotalSize }
func (config ScanConfig) MaxFiles() int { return config.settings.MaxFiles }
func (config ScanConfig) FollowSymlinks() bool { return config.settings.FollowSymlinks }
func (config ScanConfig) SizePolicy() SizePolicy { return config.settings.SizePolicy }
func (config ScanConfig) UseGitignore() bool { return config.settings.UseGitignore }
func (config ScanConfig) CaseInsensitive() bool { return config.settings.CaseInsensitive }
func (config ScanConfig) FallbackEncoding() string { return config.settings.FallbackEncoding }
func (config ScanConfig) Workers() int { return config.settings.Workers }
func (config ScanConfig) OmittedPaths() []string { return cloneStrings(config.settings.OmittedPaths) }
func (config ScanConfig) HasIncludePatterns() bool { return len(config.settings.IncludePatterns) > 0 }
func (config ScanConfig) Settings() ScanSettings { return NewScanConfig(config.settings).settings }

func cloneStrings(values []string) []string {
	if values == nil {
		return nil
	}
	return append([]string(nil), values...)
}
