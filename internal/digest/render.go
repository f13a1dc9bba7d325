package digest

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/temirov/ingest/internal/tokenizer"
	"github.com/temirov/ingest/internal/types"
	"github.com/temirov/ingest/internal/utils"
)

const (
	sectionSeparatorWidth  = 48
	truncationMarker       = "\n...truncated..."
	binaryPlaceholder      = "[binary file, %d bytes]"
	undecodablePlaceholder = "[undecodable text, %d bytes]"
	jsonIndent             = "  "

	directoryLineFormat     = "Directory: %s\n"
	filesLineFormat         = "Files analyzed: %d\n"
	directoriesLineFormat   = "Directories: %d\n"
	totalSizeLineFormat     = "Total size: %s (%d bytes)\n"
	estimatedTokensFormat   = "Estimated tokens: %s (approximation: %d characters per token)\n"
	modelTokensLineFormat   = "Tokens (%s): %s\n"
	skippedLineFormat       = "Skipped: %d\n"
	skippedReasonLineFormat = "  %s: %d\n"
	fileHeadingFormat       = "File: %s\n"
)

var sectionSeparator = strings.Repeat("=", sectionSeparatorWidth)

// RenderHeader returns the summary block that opens a text digest.
func RenderHeader(result types.DigestResult) string {
	statistics := result.Statistics
	var builder strings.Builder
	fmt.Fprintf(&builder, directoryLineFormat, result.RootName)
	fmt.Fprintf(&builder, filesLineFormat, statistics.FileCount)
	fmt.Fprintf(&builder, directoriesLineFormat, statistics.DirectoryCount)
	fmt.Fprintf(&builder, totalSizeLineFormat, utils.FormatFileSize(statistics.TotalSizeBytes), statistics.TotalSizeBytes)
	fmt.Fprintf(&builder, estimatedTokensFormat, utils.FormatTokenCount(statistics.EstimatedTokenCount), tokenizer.CharsPerToken)
	if statistics.TokenModel != "" {
		fmt.Fprintf(&builder, modelTokensLineFormat, statistics.TokenModel, utils.FormatTokenCount(statistics.ModelTokenCount))
	}
	fmt.Fprintf(&builder, skippedLineFormat, statistics.SkippedCount)
	for _, reason := range sortSkipReasons(statistics.SkippedByReason) {
		fmt.Fprintf(&builder, skippedReasonLineFormat, reason, statistics.SkippedByReason[reason])
	}
	return builder.String()
}

// RenderSection returns one file section: separator, heading, separator, body.
func RenderSection(record types.FileRecord) string {
	var builder strings.Builder
	builder.WriteString(sectionSeparator)
	builder.WriteString("\n")
	fmt.Fprintf(&builder, fileHeadingFormat, record.RelativePath)
	builder.WriteString(sectionSeparator)
	builder.WriteString("\n")
	switch record.Status {
	case types.FileStatusBinary:
		fmt.Fprintf(&builder, binaryPlaceholder, record.OriginalSize)
	case types.FileStatusUndecodable:
		fmt.Fprintf(&builder, undecodablePlaceholder, record.OriginalSize)
	default:
		builder.WriteString(record.Content)
		if record.Truncated {
			builder.WriteString(truncationMarker)
		}
	}
	builder.WriteString("\n\n")
	return builder.String()
}

// RenderSections concatenates the sections in order.
func RenderSections(records []types.FileRecord) string {
	var builder strings.Builder
	for _, record := range records {
		builder.WriteString(RenderSection(record))
	}
	return builder.String()
}

// RenderBody returns the tree diagram followed by the file sections.
func RenderBody(result types.DigestResult) string {
	return result.Tree + "\n" + RenderSections(result.Sections)
}

// RenderText returns the complete text digest.
func RenderText(result types.DigestResult) string {
	return RenderHeader(result) + "\n" + RenderBody(result)
}

// WriteText writes the text digest to writer.
func WriteText(writer io.Writer, result types.DigestResult) error {
	_, err := io.WriteString(writer, RenderText(result))
	return err
}

// WriteJSON writes the digest as indented JSON.
func WriteJSON(writer io.Writer, result types.DigestResult) error {
	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", jsonIndent)
	encoder.SetEscapeHTML(false)
	return encoder.Encode(result)
}

// Write renders result in format, which is types.FormatText or types.FormatJSON.
func Write(writer io.Writer, result types.DigestResult, format string) error {
	switch format {
	case types.FormatJSON:
		return WriteJSON(writer, result)
	case types.FormatText, "":
		return WriteText(writer, result)
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}
