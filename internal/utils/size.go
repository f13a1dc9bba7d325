package utils

import (
	"fmt"
	"math"
	"strings"

	"github.com/dustin/go-humanize"
)

const (
	invalidByteSizeError   = "invalid size %q: %w"
	negativeByteSizeError  = "invalid size %q: must not be negative"
	oversizedByteSizeError = "invalid size %q: exceeds %d bytes"
)

// FormatFileSize converts a byte length into a human-readable binary-unit string such as "1.5 KiB".
func FormatFileSize(bytes int64) string {
	if bytes < 0 {
		bytes = 0
	}
	return humanize.IBytes(uint64(bytes))
}

// ParseByteSize parses sizes such as "100", "10MiB", or "1.5 MB" into a byte count.
func ParseByteSize(value string) (int64, error) {
	trimmed := strings.TrimSpace(value)
	if strings.HasPrefix(trimmed, "-") {
		return 0, fmt.Errorf(negativeByteSizeError, value)
	}
	parsed, parseError := humanize.ParseBytes(trimmed)
	if parseError != nil {
		return 0, fmt.Errorf(invalidByteSizeError, value, parseError)
	}
	if parsed > math.MaxInt64 {
		return 0, fmt.Errorf(oversizedByteSizeError, value, int64(math.MaxInt64))
	}
	return int64(parsed), nil
}

// FormatTokenCount abbreviates large counts as "1.2k" or "3.4M".
func FormatTokenCount(count int) string {
	switch {
	case count > 1_000_000:
		return fmt.Sprintf("%.1fM", float64(count)/1_000_000)
	case count > 1_000:
		return fmt.Sprintf("%.1fk", float64(count)/1_000)
	default:
		return humanize.Comma(int64(count))
	}
}
