package errors

import (
	"regexp"
	"strings"
	"unicode"
)

const maxNameLength = 128

// graphNameRegex matches names usable both as file basenames and as store keys.
var graphNameRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ValidateGraphName validates the name a graph document is stored under.
// Names become file names in the file store and key suffixes in Redis and
// MongoDB, so they must not be usable for path traversal or key injection.
//
// The validation rules are intentionally conservative:
//   - No empty names
//   - No control characters
//   - No path separators or traversal sequences
//   - Must start with a letter or digit (no hidden files)
//   - Maximum length of 128 characters
func ValidateGraphName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidName, "graph name cannot be empty")
	}

	if len(name) > maxNameLength {
		return New(ErrCodeInvalidName, "graph name too long (max %d characters)", maxNameLength)
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidName, "graph name contains invalid control characters")
		}
	}

	dangerousPatterns := []string{
		"..",   // Parent directory
		"/",    // Path separator
		"\\",   // Backslash (Windows path)
		"\x00", // Null byte
	}

	for _, pattern := range dangerousPatterns {
		if strings.Contains(name, pattern) {
			return New(ErrCodeInvalidName, "graph name contains invalid characters: %q", pattern)
		}
	}

	if !graphNameRegex.MatchString(name) {
		return New(ErrCodeInvalidName, "invalid graph name: %q", name)
	}

	return nil
}

// ValidateNodeID validates a caller-supplied node identifier.
// IDs are free-form but must be non-empty and printable.
func ValidateNodeID(id string) error {
	if strings.TrimSpace(id) == "" {
		return New(ErrCodeInvalidInput, "node id cannot be blank")
	}
	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "node id contains invalid control characters")
		}
	}
	return nil
}
