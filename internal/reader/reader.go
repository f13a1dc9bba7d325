package reader

import (
	"fmt"
	"io"
	"math"
	"os"

	"go.uber.org/zap"

	"github.com/temirov/ingest/internal/types"
	"github.com/temirov/ingest/internal/utils"
)

const (
	openFileError         = "open %s: %w"
	readFileError         = "read %s: %w"
	tooLargeReason        = "size %d exceeds limit %d"
	decodedTooLargeReason = "decoded size %d exceeds limit %d"
	readFailedLogMessage  = "file unreadable"
	pathLogField          = "path"
)

// Reader turns file entries into FileRecords. It holds no mutable state and
// is safe for concurrent use.
type Reader struct {
	maxFileSize      int64
	sizePolicy       types.SizePolicy
	fallbackEncoding string
	logger           *zap.Logger
}

// New constructs a Reader from the scan configuration. A nil logger disables logging.
func New(config types.ScanConfig, logger *zap.Logger) *Reader {
	return &Reader{
		maxFileSize:      config.MaxFileSize(),
		sizePolicy:       config.SizePolicy(),
		fallbackEncoding: config.FallbackEncoding(),
		logger:           utils.LoggerOrNop(logger),
	}
}

// Read loads entry once, without retries. Files above the per-file cap are
// either reported as too large without being read or cut to the cap at a
// character boundary, depending on the size policy. Failures produce an
// unreadable record instead of an error.
func (reader *Reader) Read(entry types.TreeEntry) types.FileRecord {
	record := types.FileRecord{RelativePath: entry.RelativePath, OriginalSize: entry.Size}

	if reader.sizePolicy == types.SizePolicySkip && entry.Size > reader.maxFileSize {
		return reader.tooLarge(record)
	}

	data, originalSize, readErr := reader.readLimited(entry.AbsolutePath)
	if readErr != nil {
		record.Status = types.FileStatusUnreadable
		record.Reason = readErr.Error()
		reader.logger.Debug(readFailedLogMessage, zap.String(pathLogField, entry.RelativePath), zap.Error(readErr))
		return record
	}
	if originalSize > record.OriginalSize {
		record.OriginalSize = originalSize
	}

	cut := int64(len(data)) > reader.maxFileSize
	if cut {
		if reader.sizePolicy == types.SizePolicySkip {
			return reader.tooLarge(record)
		}
		data = data[:reader.maxFileSize]
	}

	classification := Classify(data, ClassifyOptions{FallbackEncoding: reader.fallbackEncoding, Cut: cut})
	record.Status = classification.Kind
	record.Encoding = classification.Encoding
	if classification.Kind != types.FileStatusText {
		return record
	}
	text := classification.Text
	if int64(len(text)) > reader.maxFileSize {
		if reader.sizePolicy == types.SizePolicySkip {
			record.Status = types.FileStatusTooLarge
			record.Encoding = ""
			record.Reason = fmt.Sprintf(decodedTooLargeReason, len(text), reader.maxFileSize)
			return record
		}
		text = capText(text, reader.maxFileSize)
		cut = true
	}
	record.Content = text
	record.Truncated = cut
	return record
}

// capText shortens decoded text to at most limit bytes at a character boundary.
// Transcoding can make the text longer than the bytes it was read from.
func capText(text string, limit int64) string {
	return string(trimPartialRune([]byte(text[:limit])))
}

func (reader *Reader) tooLarge(record types.FileRecord) types.FileRecord {
	record.Status = types.FileStatusTooLarge
	record.Reason = fmt.Sprintf(tooLargeReason, record.OriginalSize, reader.maxFileSize)
	return record
}

// readLimited reads at most maxFileSize+1 bytes so that overflow is detectable
// and returns the size reported by the open handle.
//
// #nosec G304
func (reader *Reader) readLimited(path string) ([]byte, int64, error) {
	fileHandle, openErr := os.Open(path)
	if openErr != nil {
		return nil, 0, fmt.Errorf(openFileError, path, openErr)
	}
	defer fileHandle.Close()

	var statSize int64
	if info, statErr := fileHandle.Stat(); statErr == nil {
		statSize = info.Size()
	}
	readLimit := reader.maxFileSize
	if readLimit < math.MaxInt64 {
		readLimit++
	}
	data, readErr := io.ReadAll(io.LimitReader(fileHandle, readLimit))
	if readErr != nil {
		return nil, 0, fmt.Errorf(readFileError, path, readErr)
	}
	if int64(len(data)) > statSize {
		statSize = int64(len(data))
	}
	return data, statSize, nil
}
