// Package cli provides the command line interface.
package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/temirov/ingest/internal/config"
	"github.com/temirov/ingest/internal/digest"
	"github.com/temirov/ingest/internal/output"
	"github.com/temirov/ingest/internal/services/clipboard"
	"github.com/temirov/ingest/internal/services/ingest"
	"github.com/temirov/ingest/internal/tokenizer"
	"github.com/temirov/ingest/internal/types"
	"github.com/temirov/ingest/internal/utils"
)

const (
	includeFlagName                  = "include"
	includeFlagShorthand             = "i"
	excludeFlagName                  = "exclude"
	excludeFlagShorthand             = "e"
	maxSizeFlagName                  = "max-size"
	maxSizeFlagShorthand             = "s"
	maxTotalSizeFlagName             = "max-total-size"
	maxFilesFlagName                 = "max-files"
	followSymlinksFlagName           = "follow-symlinks"
	skipLargeFlagName                = "skip-large"
	noGitignoreFlagName              = "no-gitignore"
	noDefaultExcludesFlagName        = "no-default-excludes"
	encodingFlagName                 = "encoding"
	workersFlagName                  = "workers"
	outputFlagName                   = "output"
	outputFlagShorthand              = "o"
	formatFlagName                   = "format"
	clipboardFlagName                = "clipboard"
	tokensFlagName                   = "tokens"
	modelFlagName                    = "model"
	configFlagName                   = "config"
	verboseFlagName                  = "verbose"
	verboseFlagShorthand             = "v"
	globalFlagName                   = "global"
	forceFlagName                    = "force"
	includeFlagDescription           = "only include files matching pattern (repeatable, comma or space separated)"
	excludeFlagDescription           = "exclude paths matching pattern (repeatable, comma or space separated)"
	maxSizeFlagDescription           = "maximum size of a single file, e.g. 100KB or 10MiB"
	maxTotalSizeFlagDescription      = "maximum total content size, 0 disables the limit"
	maxFilesFlagDescription          = "maximum number of files in the digest, 0 disables the limit"
	followSymlinksFlagDescription    = "follow symbolic links that stay inside the root"
	skipLargeFlagDescription         = "skip files above --max-size instead of truncating them"
	noGitignoreFlagDescription       = "do not apply .gitignore and .ignore files"
	noDefaultExcludesFlagDescription = "do not apply the built-in exclude list"
	encodingFlagDescription          = "fallback encoding for text that is not UTF-8"
	workersFlagDescription           = "number of concurrent file readers"
	outputFlagDescription            = "output file, - for standard output (default <root name>.txt)"
	formatFlagDescription            = "output format: text or json"
	clipboardFlagDescription         = "copy the digest to the clipboard"
	tokensFlagDescription            = "count tokens with a model tokenizer"
	modelFlagDescription             = "tokenizer model used with --tokens"
	configFlagDescription            = "configuration file (default ./config.yaml)"
	verboseFlagDescription           = "log skipped paths"
	globalFlagDescription            = "write the global configuration file"
	forceFlagDescription             = "overwrite an existing configuration file"
	defaultPath                      = "."
	defaultTokenizerModelName        = "gpt-4o"
	rootUse                          = "ingest [path]"
	rootShortDescription             = "turn a directory into a text digest for language models"
	rootLongDescription              = `ingest walks a directory and writes one digest: a summary header, the
directory tree, and the content of every text file. Paths are filtered by
include and exclude patterns, .gitignore files and a built-in exclude list.
Large files are truncated, binary files are marked, and a total size budget
bounds the digest.`
	rootUsageExample = `  # Digest the current directory into <name>.txt
  ingest

  # Only Go sources, printed to standard output
  ingest -i '*.go' -o - ./service

  # JSON digest with an exact token count
  ingest --format json --tokens --model gpt-4o .`
	initUse                     = "init"
	initShortDescription        = "write a configuration file with the default settings"
	versionTemplate             = "ingest version: {{.Version}}\n"
	invalidFormatMessage        = "invalid format value '%s'"
	workingDirectoryErrorFormat = "unable to determine working directory: %w"
	flagValueErrorFormat        = "--%s: %w"
	loggerErrorFormat           = "initialize logger: %w"
	digestWrittenMessageFormat  = "Digest written to %s\n"
	configWrittenMessageFormat  = "Configuration written to %s\n"
	tokenizerUnavailableMessage = "tokenizer unavailable, counting with the heuristic"
	modelLogField               = "model"
)

// isSupportedFormat reports whether the provided format is recognized.
func isSupportedFormat(format string) bool {
	switch format {
	case types.FormatText, types.FormatJSON:
		return true
	default:
		return false
	}
}

// environment carries the process-level collaborators of the commands.
type environment struct {
	// workingDirectory overrides os.Getwd when set.
	workingDirectory string
	copier           clipboard.Copier
	newLogger        func(verbose bool) (*zap.Logger, error)
	newTokenCounter  func(tokenizer.Config) (tokenizer.Counter, string, error)
}

func defaultEnvironment() environment {
	return environment{
		copier:          clipboard.NewService(),
		newLogger:       utils.NewApplicationLogger,
		newTokenCounter: tokenizer.NewCounter,
	}
}

func (env environment) resolveWorkingDirectory() (string, error) {
	if env.workingDirectory != "" {
		return env.workingDirectory, nil
	}
	workingDirectory, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf(workingDirectoryErrorFormat, err)
	}
	return workingDirectory, nil
}

// Execute runs the ingest application.
func Execute() error {
	rootCommand := createRootCommand(defaultEnvironment())
	rootCommand.SetArgs(joinToggleArguments(rootCommand, os.Args[1:]))
	return rootCommand.Execute()
}

// ingestOptions stores the flag values of the root command.
type ingestOptions struct {
	includePatterns        []string
	excludePatterns        []string
	maxFileSize            string
	maxTotalSize           string
	maxFiles               int
	followSymlinks         bool
	skipLarge              bool
	disableGitignore       bool
	disableDefaultExcludes bool
	encoding               string
	workers                int
	outputPath             string
	format                 string
	clipboard              bool
	tokens                 bool
	model                  string
	configPath             string
	verbose                bool
}

// deliveryOptions describes where and how the finished digest goes.
type deliveryOptions struct {
	outputPath string
	format     string
	clipboard  bool
	tokens     bool
	model      string
}

// createRootCommand builds the root Cobra command.
func createRootCommand(env environment) *cobra.Command {
	var options ingestOptions

	rootCommand := &cobra.Command{
		Use:          rootUse,
		Short:        rootShortDescription,
		Long:         rootLongDescription,
		Example:      rootUsageExample,
		Args:         cobra.MaximumNArgs(1),
		Version:      utils.GetApplicationVersion(),
		SilenceUsage: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			root := defaultPath
			if len(arguments) == 1 {
				root = arguments[0]
			}
			return runIngest(command, env, root, options)
		},
	}
	rootCommand.SetVersionTemplate(versionTemplate)

	flagSet := rootCommand.Flags()
	flagSet.StringArrayVarP(&options.includePatterns, includeFlagName, includeFlagShorthand, nil, includeFlagDescription)
	flagSet.StringArrayVarP(&options.excludePatterns, excludeFlagName, excludeFlagShorthand, nil, excludeFlagDescription)
	flagSet.StringVarP(&options.maxFileSize, maxSizeFlagName, maxSizeFlagShorthand, utils.FormatFileSize(config.DefaultMaxFileSize), maxSizeFlagDescription)
	flagSet.StringVar(&options.maxTotalSize, maxTotalSizeFlagName, utils.FormatFileSize(config.DefaultMaxTotalSize), maxTotalSizeFlagDescription)
	flagSet.IntVar(&options.maxFiles, maxFilesFlagName, config.DefaultMaxFiles, maxFilesFlagDescription)
	addToggleFlag(flagSet, &options.followSymlinks, followSymlinksFlagName, "", followSymlinksFlagDescription)
	addToggleFlag(flagSet, &options.skipLarge, skipLargeFlagName, "", skipLargeFlagDescription)
	addToggleFlag(flagSet, &options.disableGitignore, noGitignoreFlagName, "", noGitignoreFlagDescription)
	addToggleFlag(flagSet, &options.disableDefaultExcludes, noDefaultExcludesFlagName, "", noDefaultExcludesFlagDescription)
	flagSet.StringVar(&options.encoding, encodingFlagName, config.DefaultFallbackEncoding, encodingFlagDescription)
	flagSet.IntVar(&options.workers, workersFlagName, 0, workersFlagDescription)
	flagSet.StringVarP(&options.outputPath, outputFlagName, outputFlagShorthand, "", outputFlagDescription)
	flagSet.StringVar(&options.format, formatFlagName, types.FormatText, formatFlagDescription)
	addToggleFlag(flagSet, &options.clipboard, clipboardFlagName, "", clipboardFlagDescription)
	addToggleFlag(flagSet, &options.tokens, tokensFlagName, "", tokensFlagDescription)
	flagSet.StringVar(&options.model, modelFlagName, defaultTokenizerModelName, modelFlagDescription)
	flagSet.StringVar(&options.configPath, configFlagName, "", configFlagDescription)
	addToggleFlag(flagSet, &options.verbose, verboseFlagName, verboseFlagShorthand, verboseFlagDescription)

	rootCommand.AddCommand(createInitCommand(env))
	rootCommand.InitDefaultCompletionCmd()
	return rootCommand
}

// createInitCommand returns the init subcommand.
func createInitCommand(env environment) *cobra.Command {
	var global bool
	var force bool

	initCommand := &cobra.Command{
		Use:   initUse,
		Short: initShortDescription,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			workingDirectory, err := env.resolveWorkingDirectory()
			if err != nil {
				return err
			}
			target := config.InitTargetLocal
			if global {
				target = config.InitTargetGlobal
			}
			destination, initErr := config.InitializeConfiguration(config.InitOptions{
				Target:           target,
				Force:            force,
				WorkingDirectory: workingDirectory,
			})
			if initErr != nil {
				return initErr
			}
			fmt.Fprintf(command.OutOrStdout(), configWrittenMessageFormat, destination)
			return nil
		},
	}
	addToggleFlag(initCommand.Flags(), &global, globalFlagName, "", globalFlagDescription)
	addToggleFlag(initCommand.Flags(), &force, forceFlagName, "", forceFlagDescription)
	return initCommand
}

// runIngest resolves configuration, scans root, and delivers the digest.
func runIngest(command *cobra.Command, env environment, root string, options ingestOptions) error {
	workingDirectory, err := env.resolveWorkingDirectory()
	if err != nil {
		return err
	}
	if !filepath.IsAbs(root) {
		root = filepath.Join(workingDirectory, root)
	}

	applicationConfig, loadErr := config.LoadApplicationConfiguration(config.LoadOptions{
		WorkingDirectory: workingDirectory,
		ExplicitFilePath: options.configPath,
	})
	if loadErr != nil {
		return loadErr
	}

	scanOptions := config.DefaultScanOptions(root)
	if applyErr := applicationConfig.ApplyToScanOptions(&scanOptions); applyErr != nil {
		return applyErr
	}
	if overrideErr := applyScanFlags(command.Flags(), options, &scanOptions); overrideErr != nil {
		return overrideErr
	}

	delivery := resolveDelivery(command.Flags(), options, applicationConfig)
	if !isSupportedFormat(delivery.format) {
		return fmt.Errorf(invalidFormatMessage, delivery.format)
	}
	if delivery.outputPath == "" {
		delivery.outputPath = output.DefaultPath(root, workingDirectory)
	} else if delivery.outputPath != utils.StandardOutputPath && !filepath.IsAbs(delivery.outputPath) {
		delivery.outputPath = filepath.Join(workingDirectory, delivery.outputPath)
	}
	if delivery.outputPath != utils.StandardOutputPath {
		scanOptions.OmittedPaths = append(scanOptions.OmittedPaths, delivery.outputPath)
	}

	scanConfig, configErr := config.NewScanConfig(scanOptions)
	if configErr != nil {
		return configErr
	}

	logger, loggerErr := env.newLogger(options.verbose)
	if loggerErr != nil {
		return fmt.Errorf(loggerErrorFormat, loggerErr)
	}
	defer func() {
		_ = logger.Sync()
	}()

	var tokenCounter tokenizer.Counter
	if delivery.tokens {
		newTokenCounter := env.newTokenCounter
		if newTokenCounter == nil {
			newTokenCounter = tokenizer.NewCounter
		}
		counter, _, counterErr := newTokenCounter(tokenizer.Config{Model: delivery.model})
		if counterErr != nil {
			logger.Warn(tokenizerUnavailableMessage, zap.String(modelLogField, delivery.model), zap.Error(counterErr))
			counter = tokenizer.HeuristicCounter{}
		}
		tokenCounter = counter
	}

	result, runErr := ingest.Run(command.Context(), scanConfig, ingest.Options{
		Logger:       logger,
		TokenCounter: tokenCounter,
	})
	if runErr != nil {
		return runErr
	}

	sink := output.Sink{
		Path:   delivery.outputPath,
		Format: delivery.format,
		Stdout: command.OutOrStdout(),
	}
	if delivery.clipboard {
		sink.Copier = env.copier
	}
	if deliverErr := sink.Deliver(result); deliverErr != nil {
		return deliverErr
	}
	if delivery.outputPath != utils.StandardOutputPath {
		fmt.Fprint(command.ErrOrStderr(), digest.RenderHeader(result))
		fmt.Fprintf(command.ErrOrStderr(), digestWrittenMessageFormat, delivery.outputPath)
	}
	return nil
}

// applyScanFlags copies explicitly set flags onto scanOptions so they win over
// configuration files.
func applyScanFlags(flagSet *pflag.FlagSet, options ingestOptions, scanOptions *config.ScanOptions) error {
	if flagSet.Changed(includeFlagName) {
		scanOptions.IncludePatterns = append([]string(nil), options.includePatterns...)
	}
	if flagSet.Changed(excludeFlagName) {
		scanOptions.ExcludePatterns = append(scanOptions.ExcludePatterns, options.excludePatterns...)
	}
	if flagSet.Changed(maxSizeFlagName) {
		parsed, err := utils.ParseByteSize(options.maxFileSize)
		if err != nil {
			return fmt.Errorf(flagValueErrorFormat, maxSizeFlagName, err)
		}
		scanOptions.MaxFileSize = parsed
	}
	if flagSet.Changed(maxTotalSizeFlagName) {
		parsed, err := utils.ParseByteSize(options.maxTotalSize)
		if err != nil {
			return fmt.Errorf(flagValueErrorFormat, maxTotalSizeFlagName, err)
		}
		scanOptions.MaxTotalSize = parsed
	}
	if flagSet.Changed(maxFilesFlagName) {
		scanOptions.MaxFiles = options.maxFiles
	}
	if flagSet.Changed(followSymlinksFlagName) {
		scanOptions.FollowSymlinks = options.followSymlinks
	}
	if flagSet.Changed(skipLargeFlagName) {
		scanOptions.SizePolicy = types.SizePolicyTruncate
		if options.skipLarge {
			scanOptions.SizePolicy = types.SizePolicySkip
		}
	}
	if flagSet.Changed(noGitignoreFlagName) {
		scanOptions.UseGitignore = !options.disableGitignore
	}
	if flagSet.Changed(noDefaultExcludesFlagName) {
		scanOptions.DisableDefaultExcludes = options.disableDefaultExcludes
	}
	if flagSet.Changed(encodingFlagName) {
		scanOptions.FallbackEncoding = options.encoding
	}
	if flagSet.Changed(workersFlagName) {
		scanOptions.Workers = options.workers
	}
	return nil
}

// resolveDelivery merges output and token settings: explicit flags, then
// configuration, then flag defaults.
func resolveDelivery(flagSet *pflag.FlagSet, options ingestOptions, applicationConfig config.ApplicationConfiguration) deliveryOptions {
	delivery := deliveryOptions{
		outputPath: applicationConfig.Output.Path,
		format:     options.format,
		clipboard:  options.clipboard,
		tokens:     options.tokens,
		model:      options.model,
	}
	if flagSet.Changed(outputFlagName) {
		delivery.outputPath = options.outputPath
	}
	if !flagSet.Changed(formatFlagName) && applicationConfig.Output.Format != "" {
		delivery.format = applicationConfig.Output.Format
	}
	if !flagSet.Changed(clipboardFlagName) && applicationConfig.Output.Clipboard != nil {
		delivery.clipboard = *applicationConfig.Output.Clipboard
	}
	if !flagSet.Changed(tokensFlagName) && applicationConfig.Tokens.Enabled != nil {
		delivery.tokens = *applicationConfig.Tokens.Enabled
	}
	if !flagSet.Changed(modelFlagName) && applicationConfig.Tokens.Model != "" {
		delivery.model = applicationConfig.Tokens.Model
	}
	delivery.format = strings.ToLower(strings.TrimSpace(delivery.format))
	return delivery
}
