package core

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound marks lookups of catalog or playlist records that do not exist.
	ErrNotFound = errors.New("not found")

	// ErrValidation marks rejected client input.
	ErrValidation = errors.New("validation failed")

	ErrArtistNotFound       = fmt.Errorf("artist %w", ErrNotFound)
	ErrSongNotFound         = fmt.Errorf("song %w", ErrNotFound)
	ErrPlaylistItemNotFound = fmt.Errorf("playlist item %w", ErrNotFound)
)

// ValidationError is rejected client input. Reason always starts with a
// fixed phrase ("invalid csv", "empty file", ...) followed by the offending
// values, which lets MapError classify it without reading user text.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return ErrValidation.Error() + ": " + e.Reason
}

// Is makes errors.Is(err, ErrValidation) hold.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Validationf builds a *ValidationError.
func Validationf(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// ValidateArtistName rejects names that cannot double as a file name in the
// filesystem backend or would collide with its bookkeeping files.
func ValidateArtistName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return Validationf("invalid artist name: empty")
	case strings.ContainsAny(name, `/\`), strings.Contains(name, ".."), name == ".":
		return Validationf("invalid artist name %q: path characters are not allowed", name)
	case strings.HasPrefix(name, "_"):
		return Validationf("invalid artist name %q: must not start with an underscore", name)
	case strings.ContainsAny(name, "\n\r,"):
		return Validationf("invalid artist name %q: commas and line breaks are not allowed", name)
	}
	return nil
}
