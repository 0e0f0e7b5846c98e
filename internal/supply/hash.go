package supply

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/opencontainers/go-digest"
)

// ParseHash checks a pinned digest is hex and returns it in lower case.
// Length is not checked: a truncated pin fails as a checksum mismatch.
func ParseHash(s string) (string, error) {
	if s == "" {
		return "", fmt.Errorf("empty digest")
	}
	if i := strings.IndexFunc(s, func(r rune) bool { return !isHexDigit(r) }); i >= 0 {
		return "", fmt.Errorf("invalid hex digest %q: unexpected character %q", s, s[i])
	}
	return strings.ToLower(s), nil
}

func isHexDigit(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

// ComputeHash returns the lowercase hex SHA-256 of everything read from r.
func ComputeHash(r io.Reader) (string, error) {
	d, err := digest.SHA256.FromReader(r)
	if err != nil {
		return "", err
	}
	return d.Encoded(), nil
}

// ComputeFileHash resolves symlinks, verifies regular file, returns the hex digest.
func ComputeFileHash(path string) (string, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return "", fmt.Errorf("resolving path %q: %w", path, err)
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return "", fmt.Errorf("stat %q: %w", resolved, err)
	}

	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("%q is not a regular file", resolved)
	}

	f, err := os.Open(resolved)
	if err != nil {
		return "", fmt.Errorf("opening %q: %w", resolved, err)
	}
	defer f.Close()

	sum, err := ComputeHash(f)
	if err != nil {
		return "", fmt.Errorf("hashing %q: %w", resolved, err)
	}
	return sum, nil
}
