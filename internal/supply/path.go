package supply

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var ErrPathNotAllowed = errors.New("not under any allowed path")

// ResolvePath makes an artifact path absolute and evaluates symlinks.
func ResolvePath(path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("absolute path for %q: %w", path, err)
	}

	resolved, err := filepath.EvalSymlinks(absPath)
	if err != nil {
		return "", fmt.Errorf("resolving symlinks for %q: %w", absPath, err)
	}

	return resolved, nil
}

// ValidatePath checks the resolved path is under one of the allowed prefixes.
// Empty allowedPaths means no restriction.
func ValidatePath(resolved string, allowedPaths []string) error {
	if len(allowedPaths) == 0 {
		return nil
	}

	for _, allowed := range allowedPaths {
		prefix := ExpandTilde(allowed)

		// Ensure prefix ends with separator for proper directory matching
		dir := prefix
		if !strings.HasSuffix(dir, string(filepath.Separator)) {
			dir += string(filepath.Separator)
		}

		if resolved == prefix || strings.HasPrefix(resolved, dir) {
			return nil
		}
	}

	return fmt.Errorf("artifact path %q is %w", resolved, ErrPathNotAllowed)
}

// ExpandTilde replaces a leading "~/" with the user's home directory.
func ExpandTilde(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
