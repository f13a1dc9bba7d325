package utils

// Shared names used across the ingest tool.
const (
	// ApplicationName names the binary and the global configuration directory.
	ApplicationName = "ingest"
	// ConfigFileName is the configuration file looked up locally and globally.
	ConfigFileName = "config.yaml"
	// IgnoreFileName is the name of the project's ignore file.
	IgnoreFileName = ".ignore"
	// GitIgnoreFileName is the name of the Git ignore file.
	GitIgnoreFileName = ".gitignore"
	// GitDirectoryName is the name of the Git repository directory.
	GitDirectoryName = ".git"
	// StandardOutputPath selects standard output as the digest destination.
	StandardOutputPath = "-"
	// DigestFileExtension is appended to the root name for the default output file.
	DigestFileExtension = ".txt"
)
