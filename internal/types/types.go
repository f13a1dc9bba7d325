// Package types defines every cross‑package data structure used by the ingest CLI.
package types

// EntryKind identifies the filesystem node type of a TreeEntry.
type EntryKind string

const (
	EntryKindFile      EntryKind = "file"
	EntryKindDirectory EntryKind = "directory"
	EntryKindSymlink   EntryKind = "symlink"
)

// FileStatus describes how the reader classified a file.
type FileStatus string

const (
	FileStatusText        FileStatus = "text"
	FileStatusBinary      FileStatus = "binary"
	FileStatusUndecodable FileStatus = "undecodable"
	FileStatusTooLarge    FileStatus = "too_large"
	FileStatusUnreadable  FileStatus = "unreadable"
)

const (
	FormatText = "text"
	FormatJSON = "json"
)

// SizePolicy selects what happens to files above the per-file cap.
type SizePolicy string

const (
	SizePolicyTruncate SizePolicy = "truncate"
	SizePolicySkip     SizePolicy = "skip"
)

// Skip explains why a node did not make it into the digest content.
type Skip struct {
	Reason SkipReason `json:"reason"`
	Detail string     `json:"detail,omitempty"`
}

// TreeEntry is one filesystem node produced by the walker.
type TreeEntry struct {
	RelativePath string    `json:"path"`
	AbsolutePath string    `json:"-"`
	Kind         EntryKind `json:"kind"`
	Size         int64     `json:"size"`
	Depth        int       `json:"depth"`
	LinkTarget   string    `json:"linkTarget,omitempty"`
	Skip         *Skip     `json:"skip,omitempty"`
}

// Name returns the final path segment of the entry.
func (entry TreeEntry) Name() string {
	for index := len(entry.RelativePath) - 1; index >= 0; index-- {
		if entry.RelativePath[index] == '/' {
			return entry.RelativePath[index+1:]
		}
	}
	return entry.RelativePath
}

// IsSkipped reports whether the walker already rejected the entry.
func (entry TreeEntry) IsSkipped() bool {
	return entry.Skip != nil
}

// FileRecord is the reader's result for one file.
type FileRecord struct {
	RelativePath string     `json:"path"`
	Status       FileStatus `json:"status"`
	Content      string     `json:"content,omitempty"`
	OriginalSize int64      `json:"originalSize"`
	Truncated    bool       `json:"truncated,omitempty"`
	Encoding     string     `json:"encoding,omitempty"`
	Reason       string     `json:"reason,omitempty"`
}

// HasSection reports whether the record is rendered as a content section.
func (record FileRecord) HasSection() bool {
	switch record.Status {
	case FileStatusText, FileStatusBinary, FileStatusUndecodable:
		return true
	default:
		return false
	}
}

// ContentBytes is the number of content bytes the record contributes to the budget.
func (record FileRecord) ContentBytes() int64 {
	if record.Status != FileStatusText {
		return 0
	}
	return int64(len(record.Content))
}

// SkippedEntry is one path that was left out of the digest content.
type SkippedEntry struct {
	RelativePath string     `json:"path"`
	Reason       SkipReason `json:"reason"`
	Detail       string     `json:"detail,omitempty"`
}

// Statistics summarizes one digest.
type Statistics struct {
	FileCount           int                `json:"fileCount"`
	DirectoryCount      int                `json:"directoryCount"`
	TotalSizeBytes      int64              `json:"totalSizeBytes"`
	EstimatedTokenCount int                `json:"estimatedTokenCount"`
	SkippedCount        int                `json:"skippedCount"`
	SkippedByReason     map[SkipReason]int `json:"skippedByReason,omitempty"`
	ModelTokenCount     int                `json:"modelTokenCount,omitempty"`
	TokenModel          string             `json:"tokenModel,omitempty"`
}

// DigestResult is the assembled output of one scan.
type DigestResult struct {
	RootName   string         `json:"root"`
	Tree       string         `json:"tree"`
	Sections   []FileRecord   `json:"files"`
	Skipped    []SkippedEntry `json:"skipped,omitempty"`
	Statistics Statistics     `json:"statistics"`
}
