package errors

import (
	"strings"
	"unicode"
)

// ValidateElementID validates an element identifier from a scene file.
// It rejects identifiers that could break cache keys, DOT output, or
// store lookups.
//
// The validation rules are intentionally conservative:
//   - No empty identifiers
//   - No control characters
//   - No whitespace
//   - Maximum length of 128 characters
func ValidateElementID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidScene, "element id cannot be empty")
	}

	if len(id) > 128 {
		return New(ErrCodeInvalidScene, "element id too long (max 128 characters)")
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidScene, "element id contains control characters")
		}
		if unicode.IsSpace(r) {
			return New(ErrCodeInvalidScene, "element id contains whitespace: %q", id)
		}
	}

	return nil
}

// ValidateGravitationName validates a gravitation node name from configuration.
// Names appear in logs and rendered output, so the same conservative rules
// as element identifiers apply, plus a ban on the path separator.
func ValidateGravitationName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidConfig, "gravitation node name cannot be empty")
	}
	if len(name) > 128 {
		return New(ErrCodeInvalidConfig, "gravitation node name too long (max 128 characters)")
	}
	if strings.ContainsRune(name, '/') {
		return New(ErrCodeInvalidConfig, "gravitation node name contains '/': %q", name)
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidConfig, "gravitation node name contains control characters")
		}
	}
	return nil
}
