package errors

import (
	"strings"
	"unicode"
)

// ValidateAssetID validates an asset id for use in output directory names.
// Asset ids end up as path components ("<object1>_<object2>_<relation>"), so
// the rules reject anything that could escape the output root:
//   - No empty ids
//   - No control characters or null bytes
//   - No path separators or traversal sequences
//   - Maximum length of 128 characters
func ValidateAssetID(id string) error {
	if id == "" {
		return New(ErrCodeCatalog, "asset id cannot be empty")
	}

	if len(id) > 128 {
		return New(ErrCodeCatalog, "asset id too long (max 128 characters): %q", id[:32]+"...")
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeCatalog, "asset id contains invalid control characters")
		}
	}

	for _, pattern := range []string{"..", "/", "\\", "\x00"} {
		if strings.Contains(id, pattern) {
			return New(ErrCodeCatalog, "asset id %q contains invalid characters: %q", id, pattern)
		}
	}

	return nil
}

// ValidateFilenamePrefix validates the prefix used for image and metadata
// file names. It must be a simple basename fragment.
func ValidateFilenamePrefix(prefix string) error {
	if prefix == "" {
		return New(ErrCodeInvalidConfig, "filename prefix cannot be empty")
	}
	if strings.ContainsAny(prefix, "/\\\x00") || strings.Contains(prefix, "..") {
		return New(ErrCodeInvalidConfig, "filename prefix cannot contain path components: %q", prefix)
	}
	if strings.HasPrefix(prefix, ".") {
		return New(ErrCodeInvalidConfig, "filename prefix cannot start with a dot: %q", prefix)
	}
	return nil
}
