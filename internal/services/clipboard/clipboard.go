// Package clipboard provides access to the system clipboard.
package clipboard

import (
	"errors"
	"fmt"

	"github.com/atotto/clipboard"
)

const (
	unsupportedClipboardMessage = "no clipboard utility available on this system"
	copyClipboardError          = "copy digest to clipboard: %w"
)

// ErrUnsupported reports that no clipboard backend was found.
var ErrUnsupported = errors.New(unsupportedClipboardMessage)

// Copier copies textual data to the system clipboard.
type Copier interface {
	Copy(text string) error
}

// Service implements Copier using github.com/atotto/clipboard.
type Service struct{}

// NewService constructs a Clipboard service implementation.
func NewService() *Service {
	return &Service{}
}

// Copy writes text to the system clipboard.
func (service *Service) Copy(text string) error {
	if clipboard.Unsupported {
		return ErrUnsupported
	}
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf(copyClipboardError, err)
	}
	return nil
}

var _ Copier = (*Service)(nil)
