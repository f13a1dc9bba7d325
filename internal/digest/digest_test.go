package digest_test

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/temirov/ingest/internal/config"
	"github.com/temirov/ingest/internal/digest"
	"github.com/temirov/ingest/internal/types"
)

func scanConfig(t *testing.T, mutate func(options *config.ScanOptions)) types.ScanConfig {
	t.Helper()
	options := config.DefaultScanOptions(filepath.Join(t.TempDir(), "project"))
	if mutate != nil {
		mutate(&options)
	}
	cfg, err := config.NewScanConfig(options)
	require.NoError(t, err)
	return cfg
}

func fileEntry(relativePath string, size int64) types.TreeEntry {
	return types.TreeEntry{RelativePath: relativePath, Kind: types.EntryKindFile, Size: size, Depth: strings.Count(relativePath, "/") + 1}
}

func directoryEntry(relativePath string) types.TreeEntry {
	return types.TreeEntry{RelativePath: relativePath, Kind: types.EntryKindDirectory, Depth: strings.Count(relativePath, "/") + 1}
}

func skippedEntry(entry types.TreeEntry, reason types.SkipReason) types.TreeEntry {
	entry.Skip = &types.Skip{Reason: reason}
	return entry
}

func textRecord(relativePath, content string) types.FileRecord {
	return types.FileRecord{RelativePath: relativePath, Status: types.FileStatusText, Content: content, OriginalSize: int64(len(content))}
}

func assemble(t *testing.T, cfg types.ScanConfig, entries []types.TreeEntry, records map[string]types.FileRecord) types.DigestResult {
	t.Helper()
	assembler := digest.NewAssembler(cfg)
	for _, entry := range entries {
		assembler.Add(entry)
	}
	var ordered []types.FileRecord
	for _, candidate := range assembler.Candidates() {
		record, found := records[candidate.RelativePath]
		require.True(t, found, "missing record for %s", candidate.RelativePath)
		ordered = append(ordered, record)
	}
	result, err := assembler.Assemble(ordered)
	require.NoError(t, err)
	return result
}

func sectionPaths(result types.DigestResult) []string {
	var paths []string
	for _, section := range result.Sections {
		paths = append(paths, section.RelativePath)
	}
	return paths
}

func TestAssembleTreeDiagram(t *testing.T) {
	cfg := scanConfig(t, nil)
	entries := []types.TreeEntry{
		directoryEntry("src"),
		fileEntry("src/main.go", 12),
		directoryEntry("src/util"),
		fileEntry("src/util/strings.go", 5),
		{RelativePath: "link", Kind: types.EntryKindSymlink, LinkTarget: "src", Depth: 1, Skip: &types.Skip{Reason: types.SkipReasonSymlinkNotFollowed}},
		skippedEntry(directoryEntry("node_modules"), types.SkipReasonExcluded),
		fileEntry("z.txt", 1),
	}
	result := assemble(t, cfg, entries, map[string]types.FileRecord{
		"src/main.go":         textRecord("src/main.go", "package main"),
		"src/util/strings.go": textRecord("src/util/strings.go", "hello"),
		"z.txt":               textRecord("z.txt", "z"),
	})

	expectedTree := strings.Join([]string{
		"Directory structure:",
		"└── project/",
		"    ├── src/",
		"    │   ├── main.go",
		"    │   └── util/",
		"    │       └── strings.go",
		"    ├── link -> src",
		"    └── z.txt",
		"",
	}, "\n")
	assert.Equal(t, expectedTree, result.Tree)
	assert.Equal(t, 2, result.Statistics.DirectoryCount)
	assert.Equal(t, []string{"src/main.go", "src/util/strings.go", "z.txt"}, sectionPaths(result))
	assert.NotContains(t, result.Tree, "node_modules")
}

func TestAssembleBudgetNeverSplitsFiles(t *testing.T) {
	cfg := scanConfig(t, func(options *config.ScanOptions) { options.MaxTotalSize = 50 })
	first := strings.Repeat("1", 40)
	second := strings.Repeat("2", 40)
	result := assemble(t, cfg, []types.TreeEntry{fileEntry("first.txt", 40), fileEntry("second.txt", 40)}, map[string]types.FileRecord{
		"first.txt":  textRecord("first.txt", first),
		"second.txt": textRecord("second.txt", second),
	})

	require.Equal(t, []string{"first.txt"}, sectionPaths(result))
	assert.Equal(t, first, result.Sections[0].Content)
	assert.Equal(t, int64(40), result.Statistics.TotalSizeBytes)
	assert.LessOrEqual(t, result.Statistics.TotalSizeBytes, cfg.MaxTotalSize())
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, types.SkippedEntry{RelativePath: "second.txt", Reason: types.SkipReasonBudgetExceeded}, result.Skipped[0])
	assert.Contains(t, result.Tree, "second.txt")
	assert.NotContains(t, digest.RenderText(result), second)
}

func TestAssembleBudgetIsSticky(t *testing.T) {
	cfg := scanConfig(t, func(options *config.ScanOptions) { options.MaxTotalSize = 10 })
	result := assemble(t, cfg, []types.TreeEntry{fileEntry("a.txt", 6), fileEntry("b.txt", 6), fileEntry("c.txt", 1)}, map[string]types.FileRecord{
		"a.txt": textRecord("a.txt", "aaaaaa"),
		"b.txt": textRecord("b.txt", "bbbbbb"),
		"c.txt": textRecord("c.txt", "c"),
	})

	assert.Equal(t, []string{"a.txt"}, sectionPaths(result))
	assert.Equal(t, 2, result.Statistics.SkippedByReason[types.SkipReasonBudgetExceeded])
}

func TestAssembleFileLimit(t *testing.T) {
	cfg := scanConfig(t, func(options *config.ScanOptions) { options.MaxFiles = 2 })
	result := assemble(t, cfg, []types.TreeEntry{fileEntry("a", 1), fileEntry("b", 1), fileEntry("c", 1)}, map[string]types.FileRecord{
		"a": textRecord("a", "a"),
		"b": textRecord("b", "b"),
		"c": textRecord("c", "c"),
	})

	assert.Equal(t, []string{"a", "b"}, sectionPaths(result))
	assert.Equal(t, 1, result.Statistics.SkippedByReason[types.SkipReasonFileLimit])
}

func TestAssembleStatisticsAndSkipAggregation(t *testing.T) {
	cfg := scanConfig(t, nil)
	entries := []types.TreeEntry{
		fileEntry("a.txt", 10),
		fileEntry("b.bin", 4),
		fileEntry("huge.log", 100),
		fileEntry("locked.txt", 3),
		skippedEntry(directoryEntry("node_modules"), types.SkipReasonExcluded),
		skippedEntry(fileEntry("notes.md", 2), types.SkipReasonNotIncluded),
	}
	result := assemble(t, cfg, entries, map[string]types.FileRecord{
		"a.txt":      textRecord("a.txt", "0123456789"),
		"b.bin":      {RelativePath: "b.bin", Status: types.FileStatusBinary, OriginalSize: 4},
		"huge.log":   {RelativePath: "huge.log", Status: types.FileStatusTooLarge, OriginalSize: 100, Reason: "size 100 exceeds limit 50"},
		"locked.txt": {RelativePath: "locked.txt", Status: types.FileStatusUnreadable, Reason: "permission denied"},
	})

	statistics := result.Statistics
	assert.Equal(t, 2, statistics.FileCount)
	assert.Equal(t, int64(10), statistics.TotalSizeBytes)
	assert.Equal(t, 4, statistics.SkippedCount)
	assert.Equal(t, map[types.SkipReason]int{
		types.SkipReasonTooLarge:    1,
		types.SkipReasonUnreadable:  1,
		types.SkipReasonExcluded:    1,
		types.SkipReasonNotIncluded: 1,
	}, statistics.SkippedByReason)
	assert.Equal(t, []string{"a.txt", "b.bin"}, sectionPaths(result))
	assert.Contains(t, result.Tree, "huge.log")
	assert.Contains(t, result.Tree, "locked.txt")
	assert.NotContains(t, result.Tree, "notes.md")
	assert.Positive(t, statistics.EstimatedTokenCount)
}

func TestAssemblePrunesEmptyDirectoriesWithIncludes(t *testing.T) {
	cfg := scanConfig(t, func(options *config.ScanOptions) { options.IncludePatterns = []string{"*.go"} })
	entries := []types.TreeEntry{
		directoryEntry("docs"),
		skippedEntry(fileEntry("docs/readme.md", 3), types.SkipReasonNotIncluded),
		directoryEntry("pkg"),
		fileEntry("pkg/lib.go", 3),
	}
	result := assemble(t, cfg, entries, map[string]types.FileRecord{"pkg/lib.go": textRecord("pkg/lib.go", "pkg")})

	assert.NotContains(t, result.Tree, "docs")
	assert.Contains(t, result.Tree, "pkg/")
	assert.Equal(t, 1, result.Statistics.DirectoryCount)
}

func TestAssembleRejectsMisalignedRecords(t *testing.T) {
	assembler := digest.NewAssembler(scanConfig(t, nil))
	assembler.Add(fileEntry("a.txt", 1))

	_, err := assembler.Assemble(nil)
	assert.Error(t, err)
	_, err = assembler.Assemble([]types.FileRecord{textRecord("b.txt", "b")})
	assert.Error(t, err)
}

func TestRenderTextFormat(t *testing.T) {
	cfg := scanConfig(t, nil)
	result := assemble(t, cfg, []types.TreeEntry{fileEntry("a.txt", 10), fileEntry("b.bin", 6), fileEntry("big.txt", 500)}, map[string]types.FileRecord{
		"a.txt":   textRecord("a.txt", "0123456789"),
		"b.bin":   {RelativePath: "b.bin", Status: types.FileStatusBinary, OriginalSize: 6},
		"big.txt": {RelativePath: "big.txt", Status: types.FileStatusText, Content: strings.Repeat("A", 100), OriginalSize: 500, Truncated: true},
	})

	separator := strings.Repeat("=", 48)
	expectedSections := separator + "\nFile: a.txt\n" + separator + "\n0123456789\n\n" +
		separator + "\nFile: b.bin\n" + separator + "\n[binary file, 6 bytes]\n\n" +
		separator + "\nFile: big.txt\n" + separator + "\n" + strings.Repeat("A", 100) + "\n...truncated...\n\n"
	assert.Equal(t, expectedSections, digest.RenderSections(result.Sections))

	text := digest.RenderText(result)
	assert.True(t, strings.HasPrefix(text, "Directory: project\nFiles analyzed: 3\nDirectories: 0\nTotal size: 110 B (110 bytes)\n"))
	assert.Contains(t, text, "(approximation: 4 characters per token)")
	assert.Contains(t, text, "Skipped: 0\n\nDirectory structure:\n└── project/\n")
	assert.True(t, strings.HasSuffix(text, expectedSections))
}

func TestRenderHeaderListsSkipReasonsSortedAndModelTokens(t *testing.T) {
	result := types.DigestResult{
		RootName: "repo",
		Statistics: types.Statistics{
			SkippedCount:    3,
			SkippedByReason: map[types.SkipReason]int{types.SkipReasonTooLarge: 1, types.SkipReasonBudgetExceeded: 2},
			ModelTokenCount: 1234,
			TokenModel:      "gpt-4o",
		},
	}
	header := digest.RenderHeader(result)
	assert.Contains(t, header, "Tokens (gpt-4o): 1.2k\n")
	assert.Contains(t, header, "Skipped: 3\n  budget_exceeded: 2\n  too_large: 1\n")
}

func TestWriteJSON(t *testing.T) {
	cfg := scanConfig(t, nil)
	result := assemble(t, cfg, []types.TreeEntry{fileEntry("a.txt", 2)}, map[string]types.FileRecord{"a.txt": textRecord("a.txt", "<>")})

	var buffer bytes.Buffer
	require.NoError(t, digest.Write(&buffer, result, types.FormatJSON))
	assert.Contains(t, buffer.String(), `"content": "<>"`)

	var decoded types.DigestResult
	require.NoError(t, json.Unmarshal(buffer.Bytes(), &decoded))
	assert.Equal(t, result.Tree, decoded.Tree)
	assert.Equal(t, result.Statistics.FileCount, decoded.Statistics.FileCount)

	assert.Error(t, digest.Write(&buffer, result, "xml"))
}

func TestDirectoryCountExcludesSkippedDirectories(t *testing.T) {
	cfg := scanConfig(t, nil)
	entries := []types.TreeEntry{
		directoryEntry("locked"),
		directoryEntry("src"),
		fileEntry("src/main.go", 3),
		directoryEntry("src/loop"),
	}
	entries[0] = skippedEntry(entries[0], types.SkipReasonPermissionDenied)
	entries[3] = skippedEntry(entries[3], types.SkipReasonSymlinkCycle)

	result := assemble(t, cfg, entries, map[string]types.FileRecord{"src/main.go": textRecord("src/main.go", "abc")})

	assert.Contains(t, result.Tree, "locked/")
	assert.Contains(t, result.Tree, "loop/")
	assert.Equal(t, 1, result.Statistics.DirectoryCount)
	assert.Equal(t, 2, result.Statistics.SkippedCount)
}
