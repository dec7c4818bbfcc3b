// Package clipboard is the copy-to-clipboard collaborator used by the
// detail view.  The System copier writes to the clipboard of the machine the
// console runs on, which is the operator's workstation in desktop use.
package clipboard

import (
	"errors"
	"fmt"

	"github.com/atotto/clipboard"
)

// ErrUnavailable is returned when copying is switched off or unsupported.
var ErrUnavailable = errors.New("clipboard is not available")

// Copier copies text for the operator.
type Copier interface {
	Copy(text string) error
}

// System writes through the OS clipboard.
type System struct{}

// Copy implements Copier.
func (System) Copy(text string) error {
	if clipboard.Unsupported {
		return ErrUnavailable
	}
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("write clipboard: %w", err)
	}
	return nil
}

// Disabled rejects every copy.
type Disabled struct{}

// Copy implements Copier.
func (Disabled) Copy(string) error { return ErrUnavailable }

// New returns System when enabled, otherwise Disabled.
func New(enabled bool) Copier {
	if enabled {
		return System{}
	}
	return Disabled{}
}
