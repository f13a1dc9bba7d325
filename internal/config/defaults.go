package config

import "github.com/temirov/ingest/internal/utils"

// ExcludeCategory groups default exclude patterns by the kind of content they remove.
type ExcludeCategory struct {
	Name     string
	Patterns []string
}

// defaultExcludeTable lists the built-in exclusions. Patterns without a slash
// match a name at any depth; a trailing slash restricts them to directories.
var defaultExcludeTable = []ExcludeCategory{
	{
		Name:     "version-control",
		Patterns: []string{utils.GitDirectoryName + "/", ".svn/", ".hg/", ".bzr/"},
	},
	{
		Name: "dependencies",
		Patterns: []string{
			"node_modules/", "bower_components/", ".venv/", "venv/", "__pycache__/",
			".tox/", ".mypy_cache/", ".pytest_cache/", ".gradle/",
		},
	},
	{
		Name:     "build-output",
		Patterns: []string{"target/", "dist/", "build/", "*.egg-info/"},
	},
	{
		Name: "compiled",
		Patterns: []string{
			"*.pyc", "*.pyo", "*.class", "*.o", "*.obj", "*.so", "*.dll", "*.dylib",
			"*.exe", "*.a", "*.lib",
		},
	},
	{
		Name: "archives",
		Patterns: []string{
			"*.jar", "*.war", "*.ear", "*.zip", "*.tar", "*.gz", "*.tgz", "*.bz2",
			"*.xz", "*.7z", "*.rar",
		},
	},
	{
		Name: "media",
		Patterns: []string{
			"*.png", "*.jpg", "*.jpeg", "*.gif", "*.bmp", "*.ico", "*.webp", "*.pdf",
			"*.mov", "*.mp4", "*.mp3", "*.wav",
		},
	},
	{
		Name:     "editor-metadata",
		Patterns: []string{".DS_Store", ".idea/", ".vscode/"},
	},
}

// DefaultExcludeCategories returns a copy of the built-in exclude table.
func DefaultExcludeCategories() []ExcludeCategory {
	categories := make([]ExcludeCategory, 0, len(defaultExcludeTable))
	for _, category := range defaultExcludeTable {
		categories = append(categories, ExcludeCategory{
			Name:     category.Name,
			Patterns: append([]string(nil), category.Patterns...),
		})
	}
	return categories
}

// DefaultExcludePatterns flattens the built-in table in category order.
func DefaultExcludePatterns() []string {
	var patterns []string
	for _, category := range defaultExcludeTable {
		patterns = append(patterns, category.Patterns...)
	}
	return utils.DeduplicatePatterns(patterns)
}
