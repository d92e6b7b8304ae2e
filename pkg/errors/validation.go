package errors

import (
	"strings"
	"unicode"
)

// ValidateFieldName validates a record field name used as an encoding.
//
// Field names come from chart files and API requests, so the rules are
// conservative:
//   - No empty names
//   - No control characters
//   - Maximum length of 256 characters
func ValidateFieldName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "field name cannot be empty")
	}

	if len(name) > 256 {
		return New(ErrCodeInvalidInput, "field name too long (max 256 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "field name contains invalid control characters")
		}
	}

	return nil
}

// ValidateDimensions validates a frame size in pixels.
func ValidateDimensions(width, height float64) error {
	if width <= 0 || height <= 0 {
		return New(ErrCodeInvalidInput, "frame size must be positive, got %gx%g", width, height)
	}
	const maxSide = 20000
	if width > maxSide || height > maxSide {
		return New(ErrCodeInvalidInput, "frame size too large (max %d pixels per side)", maxSide)
	}
	return nil
}

// ValidateDataPath validates a dataset path referenced from a chart file.
// It rejects paths that escape the chart's directory.
func ValidateDataPath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidConfig, "data path cannot be empty")
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidConfig, "data path contains invalid characters")
		}
	}

	for _, part := range strings.Split(strings.ReplaceAll(path, "\\", "/"), "/") {
		if part == ".." {
			return New(ErrCodeInvalidConfig, "data path cannot contain path traversal sequences (..)")
		}
	}

	return nil
}
