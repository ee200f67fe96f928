// Package security validates user-supplied filesystem locations before
// they reach the detection engine.
package security

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode"
)

// MaxPathLength bounds accepted location strings
const MaxPathLength = 4096

// ValidatePath rejects locations that cannot name a real directory
func ValidatePath(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("path cannot be empty")
	}

	if len(path) >= MaxPathLength {
		return fmt.Errorf("path too long: %d characters", len(path))
	}

	if strings.Contains(path, "\x00") {
		return fmt.Errorf("path contains null bytes: %q", path)
	}

	for _, r := range path {
		if unicode.IsControl(r) {
			return fmt.Errorf("path contains control character %U: %q", r, path)
		}
	}

	return nil
}

// SanitizePath trims surrounding whitespace and cleans the path
func SanitizePath(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return ""
	}
	return filepath.Clean(path)
}

// IsPathWithinDirectory reports whether targetPath is basePath or lies below it
func IsPathWithinDirectory(targetPath, basePath string) (bool, error) {
	absTarget, err := filepath.Abs(targetPath)
	if err != nil {
		return false, fmt.Errorf("resolve %s: %w", targetPath, err)
	}
	absBase, err := filepath.Abs(basePath)
	if err != nil {
		return false, fmt.Errorf("resolve %s: %w", basePath, err)
	}

	rel, err := filepath.Rel(absBase, absTarget)
	if err != nil {
		return false, nil
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))), nil
}
