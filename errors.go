package mdeditor

import (
	"errors"

	"github.com/matnoble/mdeditor/internal/llm"
)

// Sentinel errors for editor operations.
var (
	// ErrBusy indicates another text transform is still running.
	ErrBusy = errors.New("another operation is in progress")

	// ErrStale indicates the document changed while a transform ran, so its
	// result was discarded.
	ErrStale = errors.New("document changed during operation")

	// ErrMissingAPIKey indicates AI features were used without credentials.
	ErrMissingAPIKey = llm.ErrMissingAPIKey

	// ErrNoContainer indicates an export was requested from a page without
	// a print container.
	ErrNoContainer = errors.New("page has no print container")

	// ErrInvalidAssetPath indicates the custom asset directory is unusable.
	ErrInvalidAssetPath = errors.New("invalid asset path")
)
