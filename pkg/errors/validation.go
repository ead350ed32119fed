package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// cellNameRegex matches cell names that map to a file in the same directory.
var cellNameRegex = regexp.MustCompile(`^[A-Za-z0-9_$][A-Za-z0-9_.$\-]*$`)

// ValidateCellName validates a cell name received from an untrusted caller
// (an HTTP path segment or a CLI argument) before it becomes "<name>.mag".
//
// The validation rules are intentionally conservative:
//   - No empty names
//   - No control characters
//   - No path separators or traversal sequences
//   - Maximum length of 256 characters
func ValidateCellName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidCellName, "cell name cannot be empty")
	}

	if len(name) > 256 {
		return New(ErrCodeInvalidCellName, "cell name too long (max 256 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidCellName, "cell name contains invalid control characters")
		}
	}

	dangerousPatterns := []string{
		"..",   // Parent directory
		"/",    // Path separator
		"\x00", // Null byte
		"\\",   // Backslash (Windows path)
	}

	for _, pattern := range dangerousPatterns {
		if strings.Contains(name, pattern) {
			return New(ErrCodeInvalidCellName, "cell name contains invalid characters: %q", pattern)
		}
	}

	if !cellNameRegex.MatchString(name) {
		return New(ErrCodeInvalidCellName, "invalid cell name: %q", name)
	}

	return nil
}

// ValidateLayerName validates a layer name used as a query key.
// Layer names are opaque, so only emptiness, length and whitespace are checked.
func ValidateLayerName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "layer name cannot be empty")
	}
	if len(name) > 128 {
		return New(ErrCodeInvalidInput, "layer name too long (max 128 characters)")
	}
	for _, r := range name {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "layer name contains whitespace or control characters")
		}
	}
	return nil
}
