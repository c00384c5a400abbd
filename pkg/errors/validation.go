package errors

import (
	"slices"
	"strings"
	"unicode"
)

// maxKeyLength bounds widget, layout, and scene keys coming from users.
const maxKeyLength = 128

// ValidateKey validates a widget, layout, or scene key supplied by a user.
// kind names the key in error messages ("widget", "layout", "scene").
//
// The store itself accepts any string; this check guards the CLI and HTTP
// surfaces:
//   - No empty keys
//   - No control characters or null bytes
//   - No leading or trailing whitespace
//   - Maximum length of 128 characters
func ValidateKey(kind, key string) error {
	if key == "" {
		return New(ErrCodeInvalidKey, "%s key cannot be empty", kind)
	}
	if len(key) > maxKeyLength {
		return New(ErrCodeInvalidKey, "%s key too long (max %d characters)", kind, maxKeyLength)
	}
	for _, r := range key {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidKey, "%s key contains invalid control characters", kind)
		}
	}
	if strings.TrimSpace(key) != key {
		return New(ErrCodeInvalidKey, "%s key has leading or trailing whitespace: %q", kind, key)
	}
	return nil
}

// ValidateGridSize validates the board dimensions. Both must be positive.
func ValidateGridSize(xSize, ySize int) error {
	if xSize <= 0 || ySize <= 0 {
		return New(ErrCodeInvalidGrid, "grid size must be positive, got %dx%d", xSize, ySize)
	}
	return nil
}

// ValidateSceneKeys validates the declared scene keys and the initial scene.
// Keys must be valid, unique, and include initial.
func ValidateSceneKeys(keys []string, initial string) error {
	if len(keys) == 0 {
		return New(ErrCodeInvalidConfig, "at least one scene key is required")
	}
	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		if err := ValidateKey("scene", k); err != nil {
			return err
		}
		if seen[k] {
			return New(ErrCodeInvalidConfig, "duplicate scene key: %q", k)
		}
		seen[k] = true
	}
	if !slices.Contains(keys, initial) {
		return New(ErrCodeInvalidConfig, "initial scene %q is not a declared scene", initial)
	}
	return nil
}
