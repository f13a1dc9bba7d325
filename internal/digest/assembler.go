// Package digest folds walker entries and reader records into a DigestResult
// and renders it.
package digest

import (
	"fmt"
	"path"

	"github.com/temirov/ingest/internal/config"
	"github.com/temirov/ingest/internal/tokenizer"
	"github.com/temirov/ingest/internal/types"
)

const (
	rootRelativePath = "."
	recordCountError = "expected %d file records, got %d"
	recordPathError  = "record %d is for %s, expected %s"
)

// Assembler builds one digest. Entries must be added in walker order.
// An Assembler is used once and is not safe for concurrent use.
type Assembler struct {
	config     types.ScanConfig
	root       *treeNode
	nodes      map[string]*treeNode
	entries    []addedEntry
	candidates []types.TreeEntry
}

type addedEntry struct {
	entry     types.TreeEntry
	candidate bool
}

// NewAssembler prepares an empty digest for cfg.
func NewAssembler(cfg types.ScanConfig) *Assembler {
	root := &treeNode{name: config.RootName(cfg.Root()), kind: types.EntryKindDirectory}
	return &Assembler{
		config: cfg,
		root:   root,
		nodes:  map[string]*treeNode{rootRelativePath: root},
	}
}

// Add consumes one walker entry and reports whether it became a read candidate.
func (assembler *Assembler) Add(entry types.TreeEntry) bool {
	candidate := assembler.place(entry)
	assembler.entries = append(assembler.entries, addedEntry{entry: entry, candidate: candidate})
	if candidate {
		assembler.candidates = append(assembler.candidates, entry)
	}
	return candidate
}

// place adds entry to the tree diagram unless a pattern rejected it and
// reports whether the entry is a file to read.
func (assembler *Assembler) place(entry types.TreeEntry) bool {
	if entry.RelativePath == rootRelativePath {
		return false
	}
	if entry.Skip != nil && entry.Skip.Reason.IsPatternReason() {
		return false
	}

	parent, found := assembler.nodes[path.Dir(entry.RelativePath)]
	if !found {
		return false
	}
	node := &treeNode{
		name:       entry.Name(),
		kind:       entry.Kind,
		linkTarget: entry.LinkTarget,
		skipped:    entry.Skip != nil,
	}
	parent.children = append(parent.children, node)
	if entry.Kind == types.EntryKindDirectory && entry.Skip == nil {
		assembler.nodes[entry.RelativePath] = node
	}
	return entry.Kind == types.EntryKindFile && entry.Skip == nil
}

// Candidates returns the file entries that must be read, in canonical order.
func (assembler *Assembler) Candidates() []types.TreeEntry {
	return append([]types.TreeEntry(nil), assembler.candidates...)
}

// Assemble produces the digest. records[i] must be the reader's result for
// Candidates()[i]. Sections are appended in canonical order until the file
// limit or the total size budget is reached; from then on every remaining
// file is skipped whole, so the included sections always form a prefix.
func (assembler *Assembler) Assemble(records []types.FileRecord) (types.DigestResult, error) {
	if len(records) != len(assembler.candidates) {
		return types.DigestResult{}, fmt.Errorf(recordCountError, len(assembler.candidates), len(records))
	}
	for index, record := range records {
		if record.RelativePath != assembler.candidates[index].RelativePath {
			return types.DigestResult{}, fmt.Errorf(recordPathError, index, record.RelativePath, assembler.candidates[index].RelativePath)
		}
	}

	outcomes := assembler.selectSections(records)

	result := types.DigestResult{
		RootName:   assembler.root.name,
		Statistics: types.Statistics{SkippedByReason: map[types.SkipReason]int{}},
	}
	candidateIndex := 0
	for _, added := range assembler.entries {
		entry := added.entry
		var skip *types.SkippedEntry
		switch {
		case entry.Skip != nil:
			skip = &types.SkippedEntry{RelativePath: entry.RelativePath, Reason: entry.Skip.Reason, Detail: entry.Skip.Detail}
		case added.candidate:
			outcome := outcomes[candidateIndex]
			candidateIndex++
			if outcome.skip != nil {
				skip = outcome.skip
				break
			}
			result.Sections = append(result.Sections, outcome.record)
			result.Statistics.TotalSizeBytes += outcome.record.ContentBytes()
		}
		if skip != nil {
			result.Skipped = append(result.Skipped, *skip)
			result.Statistics.SkippedByReason[skip.Reason]++
		}
	}

	if assembler.config.HasIncludePatterns() {
		assembler.root.pruneEmptyDirectories()
	}
	result.Tree = renderTree(assembler.root)
	result.Statistics.FileCount = len(result.Sections)
	result.Statistics.DirectoryCount = assembler.root.countDirectories()
	result.Statistics.SkippedCount = len(result.Skipped)
	result.Statistics.EstimatedTokenCount = tokenizer.EstimateTokens(result.Tree + RenderSections(result.Sections))
	return result, nil
}

type sectionOutcome struct {
	record types.FileRecord
	skip   *types.SkippedEntry
}

// selectSections applies the per-record status, the file limit and the total
// size budget in candidate order.
func (assembler *Assembler) selectSections(records []types.FileRecord) []sectionOutcome {
	maxFiles := assembler.config.MaxFiles()
	maxTotalSize := assembler.config.MaxTotalSize()

	outcomes := make([]sectionOutcome, len(records))
	includedFiles := 0
	var includedBytes int64
	var stopReason types.SkipReason

	for index, record := range records {
		outcome := sectionOutcome{record: record}
		switch {
		case record.Status == types.FileStatusTooLarge:
			outcome.skip = skippedRecord(record, types.SkipReasonTooLarge)
		case record.Status == types.FileStatusUnreadable:
			outcome.skip = skippedRecord(record, types.SkipReasonUnreadable)
		case stopReason != "":
			outcome.skip = skippedRecord(record, stopReason)
		case maxFiles > 0 && includedFiles >= maxFiles:
			stopReason = types.SkipReasonFileLimit
			outcome.skip = skippedRecord(record, stopReason)
		case maxTotalSize > 0 && includedBytes+record.ContentBytes() > maxTotalSize:
			stopReason = types.SkipReasonBudgetExceeded
			outcome.skip = skippedRecord(record, stopReason)
		default:
			includedFiles++
			includedBytes += record.ContentBytes()
		}
		outcomes[index] = outcome
	}
	return outcomes
}

func skippedRecord(record types.FileRecord, reason types.SkipReason) *types.SkippedEntry {
	return &types.SkippedEntry{RelativePath: record.RelativePath, Reason: reason, Detail: record.Reason}
}
