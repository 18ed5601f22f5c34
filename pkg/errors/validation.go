package errors

import (
	"strings"
	"unicode"
)

// maxNameLength bounds person and tree names.
const maxNameLength = 200

// ValidateName checks a required human-readable name such as a tree name or
// a person's first name. field is used in the error message.
func ValidateName(field, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return New(ErrCodeInvalidInput, "%s is required", field)
	}
	if len(name) > maxNameLength {
		return New(ErrCodeInvalidInput, "%s too long (max %d characters)", field, maxNameLength)
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "%s contains invalid control characters", field)
		}
	}
	return nil
}

// ValidateID checks an identifier taken from a URL path or request body.
// IDs are opaque but must be short, printable and free of separators.
func ValidateID(field, id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "%s is required", field)
	}
	if len(id) > 128 {
		return New(ErrCodeInvalidInput, "%s too long", field)
	}
	for _, r := range id {
		if unicode.IsControl(r) || unicode.IsSpace(r) || r == '/' || r == '\\' {
			return New(ErrCodeInvalidInput, "%s contains invalid characters", field)
		}
	}
	return nil
}

// ValidateObjectKey validates a blob store key for safety.
// It prevents path traversal when keys are mapped onto a filesystem.
//
// Validation rules:
//   - Key cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No absolute keys (must not start with /)
//   - No path traversal sequences (..)
//   - No backslashes (Windows-style paths)
func ValidateObjectKey(key string) error {
	if key == "" {
		return New(ErrCodeInvalidPath, "key is required")
	}

	const maxKeyLength = 500
	if len(key) > maxKeyLength {
		return New(ErrCodeInvalidPath, "key too long (max %d characters)", maxKeyLength)
	}

	for _, r := range key {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "key contains invalid characters")
		}
	}

	if strings.HasPrefix(key, "/") {
		return New(ErrCodeInvalidPath, "key must be relative (cannot start with /)")
	}

	if strings.Contains(key, "..") {
		return New(ErrCodeInvalidPath, "key cannot contain path traversal sequences (..)")
	}

	if strings.Contains(key, "\\") {
		return New(ErrCodeInvalidPath, "key cannot contain backslashes")
	}

	return nil
}

// ValidateDate accepts an empty string or a date in YYYY-MM-DD form.
// Partial dates (YYYY or YYYY-MM) are allowed for uncertain records.
func ValidateDate(field, s string) error {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, "-")
	if len(parts) > 3 {
		return New(ErrCodeInvalidInput, "%s must be YYYY, YYYY-MM or YYYY-MM-DD", field)
	}
	widths := []int{4, 2, 2}
	for i, p := range parts {
		if len(p) != widths[i] {
			return New(ErrCodeInvalidInput, "%s must be YYYY, YYYY-MM or YYYY-MM-DD", field)
		}
		for _, r := range p {
			if r < '0' || r > '9' {
				return New(ErrCodeInvalidInput, "%s must be YYYY, YYYY-MM or YYYY-MM-DD", field)
			}
		}
	}
	return nil
}
