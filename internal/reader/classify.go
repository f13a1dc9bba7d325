// Package reader loads candidate files and classifies their bytes as text or binary.
package reader

import (
	"bytes"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"

	"github.com/temirov/ingest/internal/types"
)

const (
	// SniffLength is the number of leading bytes inspected for NUL and control bytes.
	SniffLength = 8000
	// controlByteRatioLimit is the share of control bytes above which a sample is binary.
	controlByteRatioLimit = 0.10

	EncodingUTF8    = "utf-8"
	EncodingUTF16LE = "utf-16le"
	EncodingUTF16BE = "utf-16be"
)

var (
	utf16LittleEndianBOM = []byte{0xFF, 0xFE}
	utf16BigEndianBOM    = []byte{0xFE, 0xFF}
)

// ClassifyOptions tunes Classify.
type ClassifyOptions struct {
	// FallbackEncoding names an encoding from the WHATWG index used when the
	// sample is not UTF-8. Empty disables the fallback.
	FallbackEncoding string
	// Cut reports that the sample ends at a size cap rather than at the end of
	// the file, so a trailing partial character is dropped instead of failing.
	Cut bool
}

// Classification is the outcome of Classify. Text is set only for text samples.
type Classification struct {
	Kind     types.FileStatus
	Text     string
	Encoding string
}

// Classify decides whether sample is text, binary, or undecodable text.
// Checks run in order: empty input, UTF-16 byte order mark, NUL byte in the
// first SniffLength bytes, valid UTF-8, control byte ratio, fallback encoding.
// Valid UTF-8 is returned byte for byte.
func Classify(sample []byte, options ClassifyOptions) Classification {
	if len(sample) == 0 {
		return Classification{Kind: types.FileStatusText, Encoding: EncodingUTF8}
	}

	if bytes.HasPrefix(sample, utf16LittleEndianBOM) {
		return decodeUTF16(sample, unicode.LittleEndian, EncodingUTF16LE, options.Cut)
	}
	if bytes.HasPrefix(sample, utf16BigEndianBOM) {
		return decodeUTF16(sample, unicode.BigEndian, EncodingUTF16BE, options.Cut)
	}

	sniffed := sample
	if len(sniffed) > SniffLength {
		sniffed = sniffed[:SniffLength]
	}
	if bytes.IndexByte(sniffed, 0) >= 0 {
		return Classification{Kind: types.FileStatusBinary}
	}

	candidate := sample
	if options.Cut {
		candidate = trimPartialRune(candidate)
	}
	if utf8.Valid(candidate) {
		return Classification{Kind: types.FileStatusText, Text: string(candidate), Encoding: EncodingUTF8}
	}

	if controlByteRatio(sniffed) > controlByteRatioLimit {
		return Classification{Kind: types.FileStatusBinary}
	}

	if options.FallbackEncoding != "" {
		fallback, lookupErr := htmlindex.Get(options.FallbackEncoding)
		if lookupErr == nil {
			if decoded, ok := decodeWith(fallback, sample); ok {
				name, nameErr := htmlindex.Name(fallback)
				if nameErr != nil {
					name = options.FallbackEncoding
				}
				return Classification{Kind: types.FileStatusText, Text: decoded, Encoding: name}
			}
		}
	}
	return Classification{Kind: types.FileStatusUndecodable}
}

func decodeUTF16(sample []byte, endianness unicode.Endianness, name string, cut bool) Classification {
	if cut && len(sample)%2 == 1 {
		sample = sample[:len(sample)-1]
	}
	decoded, ok := decodeWith(unicode.UTF16(endianness, unicode.ExpectBOM), sample)
	if !ok {
		return Classification{Kind: types.FileStatusUndecodable}
	}
	if cut {
		decoded = string(trimPartialRune([]byte(decoded)))
	}
	return Classification{Kind: types.FileStatusText, Text: decoded, Encoding: name}
}

func decodeWith(textEncoding encoding.Encoding, sample []byte) (string, bool) {
	decoded, decodeErr := textEncoding.NewDecoder().Bytes(sample)
	if decodeErr != nil || !utf8.Valid(decoded) {
		return "", false
	}
	return string(decoded), true
}

// trimPartialRune drops an incomplete UTF-8 sequence at the end of data.
func trimPartialRune(data []byte) []byte {
	for back := 1; back <= utf8.UTFMax && back <= len(data); back++ {
		start := len(data) - back
		if !utf8.RuneStart(data[start]) {
			continue
		}
		if !utf8.FullRune(data[start:]) {
			return data[:start]
		}
		return data
	}
	return data
}

// controlByteRatio returns the share of bytes that are neither printable nor
// common text whitespace.
func controlByteRatio(sample []byte) float64 {
	if len(sample) == 0 {
		return 0
	}
	controlBytes := 0
	for _, value := range sample {
		if isControlByte(value) {
			controlBytes++
		}
	}
	return float64(controlBytes) / float64(len(sample))
}

func isControlByte(value byte) bool {
	switch value {
	case '\a', '\b', '\t', '\n', '\f', '\r', 0x1b:
		return false
	}
	return value < 0x20 || value == 0x7f
}
