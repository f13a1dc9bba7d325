package ingest_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/temirov/ingest/internal/config"
	"github.com/temirov/ingest/internal/digest"
	"github.com/temirov/ingest/internal/services/ingest"
	"github.com/temirov/ingest/internal/types"
)

type stubCounter struct {
	err error
}

func (stubCounter) Name() string { return "stub-model" }

func (counter stubCounter) CountString(input string) (int, error) {
	if counter.err != nil {
		return 0, counter.err
	}
	return len(strings.Fields(input)), nil
}

func writeFile(t *testing.T, root, relativePath string, content []byte) {
	t.Helper()
	fullPath := filepath.Join(root, filepath.FromSlash(relativePath))
	require.NoError(t, os.MkdirAll(filepath.Dir(fullPath), 0o755))
	require.NoError(t, os.WriteFile(fullPath, content, 0o600))
}

func run(t *testing.T, root string, mutate func(options *config.ScanOptions), serviceOptions ingest.Options) types.DigestResult {
	t.Helper()
	options := config.DefaultScanOptions(root)
	if mutate != nil {
		mutate(&options)
	}
	cfg, err := config.NewScanConfig(options)
	require.NoError(t, err)
	result, err := ingest.Run(context.Background(), cfg, serviceOptions)
	require.NoError(t, err)
	return result
}

func section(t *testing.T, result types.DigestResult, relativePath string) types.FileRecord {
	t.Helper()
	for _, record := range result.Sections {
		if record.RelativePath == relativePath {
			return record
		}
	}
	t.Fatalf("no section for %s", relativePath)
	return types.FileRecord{}
}

func TestRunMixedDirectoryScenario(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.txt", []byte("0123456789"))
	writeFile(t, root, "b.bin", []byte{'B', 0x00, 'I', 'N'})
	writeFile(t, root, "node_modules/x.js", []byte("SECRET_MODULE_CONTENT"))

	result := run(t, root, nil, ingest.Options{})
	text := digest.RenderText(result)

	assert.Equal(t, "0123456789", section(t, result, "a.txt").Content)
	assert.Equal(t, types.FileStatusBinary, section(t, result, "b.bin").Status)
	assert.Contains(t, text, "[binary file, 4 bytes]")
	assert.NotContains(t, text, "SECRET_MODULE_CONTENT")
	assert.NotContains(t, text, "x.js")
	assert.Equal(t, 1, result.Statistics.SkippedByReason[types.SkipReasonExcluded])
}

func TestRunTruncationScenario(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "big.txt", bytes.Repeat([]byte("A"), 500))

	result := run(t, root, func(options *config.ScanOptions) { options.MaxFileSize = 100 }, ingest.Options{})
	record := section(t, result, "big.txt")

	assert.Equal(t, strings.Repeat("A", 100), record.Content)
	assert.True(t, record.Truncated)
	assert.Equal(t, int64(500), record.OriginalSize)
	assert.Contains(t, digest.RenderText(result), strings.Repeat("A", 100)+"\n...truncated...")
}

func TestRunBudgetScenario(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "one.txt", bytes.Repeat([]byte("1"), 40))
	writeFile(t, root, "two.txt", bytes.Repeat([]byte("2"), 40))

	result := run(t, root, func(options *config.ScanOptions) { options.MaxTotalSize = 50 }, ingest.Options{})

	require.Len(t, result.Sections, 1)
	assert.Equal(t, strings.Repeat("1", 40), result.Sections[0].Content)
	assert.Equal(t, 1, result.Statistics.SkippedByReason[types.SkipReasonBudgetExceeded])
	assert.LessOrEqual(t, result.Statistics.TotalSizeBytes, int64(50))
	assert.NotContains(t, digest.RenderText(result), "2222")
}

func TestRunIsDeterministicAcrossWorkerCounts(t *testing.T) {
	root := t.TempDir()
	for index := 0; index < 60; index++ {
		writeFile(t, root, fmt.Sprintf("dir%02d/file%02d.txt", index%7, index), []byte(strings.Repeat(fmt.Sprintf("line %d\n", index), index+1)))
	}

	reference := digest.RenderText(run(t, root, func(options *config.ScanOptions) { options.Workers = 1 }, ingest.Options{}))
	for _, workers := range []int{2, 8, 64} {
		for attempt := 0; attempt < 3; attempt++ {
			output := digest.RenderText(run(t, root, func(options *config.ScanOptions) { options.Workers = workers }, ingest.Options{}))
			require.Equal(t, reference, output, "workers=%d attempt=%d", workers, attempt)
		}
	}
}

func TestRunTreeListsEverySection(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/main.go", []byte("package main"))
	writeFile(t, root, "src/lib/util.go", []byte("package lib"))
	writeFile(t, root, "docs/guide.md", []byte("# guide"))

	result := run(t, root, func(options *config.ScanOptions) { options.MaxTotalSize = 15 }, ingest.Options{})
	for _, record := range result.Sections {
		segments := strings.Split(record.RelativePath, "/")
		assert.Contains(t, result.Tree, segments[len(segments)-1])
	}
	assert.Contains(t, result.Tree, "util.go")
}

func TestRunFatalRoot(t *testing.T) {
	cfg, err := config.NewScanConfig(config.DefaultScanOptions(filepath.Join(t.TempDir(), "missing")))
	require.NoError(t, err)

	_, runErr := ingest.Run(context.Background(), cfg, ingest.Options{})
	var fatal *types.FatalScanError
	assert.True(t, errors.As(runErr, &fatal))
}

func TestRunHonorsCancellation(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.txt", []byte("a"))
	cfg, err := config.NewScanConfig(config.DefaultScanOptions(root))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, runErr := ingest.Run(ctx, cfg, ingest.Options{})
	assert.ErrorIs(t, runErr, context.Canceled)
}

func TestRunTokenCounter(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.txt", []byte("alpha beta gamma"))

	counted := run(t, root, nil, ingest.Options{TokenCounter: stubCounter{}})
	assert.Equal(t, "stub-model", counted.Statistics.TokenModel)
	assert.Positive(t, counted.Statistics.ModelTokenCount)

	core, logs := observer.New(zap.WarnLevel)
	failed := run(t, root, nil, ingest.Options{TokenCounter: stubCounter{err: errors.New("offline")}, Logger: zap.New(core)})
	assert.Empty(t, failed.Statistics.TokenModel)
	assert.Equal(t, 1, logs.FilterMessage("token counting failed").Len())
}
