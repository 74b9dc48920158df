package copyfeedback

import (
	"errors"
	"fmt"

	"github.com/atotto/clipboard"
)

// ErrClipboardUnavailable indicates the host has no usable clipboard.
var ErrClipboardUnavailable = errors.New("system clipboard unavailable")

// Clipboard receives copied code.
type Clipboard interface {
	WriteAll(text string) error
}

// SystemClipboard writes to the host clipboard of the machine running the
// server. It only makes sense when the browser runs on the same machine.
type SystemClipboard struct{}

// WriteAll implements Clipboard.
func (SystemClipboard) WriteAll(text string) error {
	if clipboard.Unsupported {
		return ErrClipboardUnavailable
	}
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("%w: %v", ErrClipboardUnavailable, err)
	}
	return nil
}

// NoClipboard discards writes. The browser copies on its own side.
type NoClipboard struct{}

// WriteAll implements Clipboard.
func (NoClipboard) WriteAll(string) error { return nil }

// NewClipboard returns SystemClipboard when enabled, NoClipboard otherwise.
func NewClipboard(system bool) Clipboard {
	if system {
		return SystemClipboard{}
	}
	return NoClipboard{}
}

// SystemSupported reports whether this platform has a clipboard utility.
func SystemSupported() bool {
	return !clipboard.Unsupported
}
