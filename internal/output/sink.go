// Package output delivers a rendered digest to its destination.
package output

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/temirov/ingest/internal/config"
	"github.com/temirov/ingest/internal/digest"
	"github.com/temirov/ingest/internal/services/clipboard"
	"github.com/temirov/ingest/internal/types"
	"github.com/temirov/ingest/internal/utils"
)

const (
	renderDigestError    = "render digest: %w"
	writeStdoutError     = "write digest to standard output: %w"
	createDirectoryError = "create output directory %s: %w"
	writeFileError       = "write digest to %s: %w"
	outputFilePermission = 0o644
	outputDirPermission  = 0o755
)

// Sink writes a digest to a file or to standard output and optionally copies
// it to the clipboard.
type Sink struct {
	// Path is the destination file; utils.StandardOutputPath selects Stdout.
	Path   string
	// Format is types.FormatText or types.FormatJSON.
	Format string
	Stdout io.Writer
	// Copier receives the rendered digest when set.
	Copier clipboard.Copier
}

// Deliver renders result and writes it to the sink's destinations.
func (sink Sink) Deliver(result types.DigestResult) error {
	var buffer bytes.Buffer
	if err := digest.Write(&buffer, result, sink.Format); err != nil {
		return fmt.Errorf(renderDigestError, err)
	}

	if sink.Path == utils.StandardOutputPath {
		stdout := sink.Stdout
		if stdout == nil {
			stdout = os.Stdout
		}
		if _, err := stdout.Write(buffer.Bytes()); err != nil {
			return fmt.Errorf(writeStdoutError, err)
		}
	} else if sink.Path != "" {
		directory := filepath.Dir(sink.Path)
		if err := os.MkdirAll(directory, outputDirPermission); err != nil {
			return fmt.Errorf(createDirectoryError, directory, err)
		}
		if err := os.WriteFile(sink.Path, buffer.Bytes(), outputFilePermission); err != nil {
			return fmt.Errorf(writeFileError, sink.Path, err)
		}
	}

	if sink.Copier != nil {
		return sink.Copier.Copy(buffer.String())
	}
	return nil
}

// DefaultPath names the digest file after the scan root, in workingDirectory.
func DefaultPath(root, workingDirectory string) string {
	return filepath.Join(workingDirectory, config.RootName(root)+utils.DigestFileExtension)
}
