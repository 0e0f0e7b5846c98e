package supply

import "strings"

// VerifyResult holds the outcome of checking one artifact file.
type VerifyResult struct {
	ResolvedPath string // absolute, symlinks resolved
	ComputedHash string // lowercase hex
	Match        bool
}

// VerifyArtifact runs path validation then hashes the file and compares it
// with expectedHash, ignoring case. A mismatch is reported through Match,
// not as an error.
func VerifyArtifact(path, expectedHash string, allowedPaths []string) (*VerifyResult, error) {
	resolved, err := ResolvePath(path)
	if err != nil {
		return nil, err
	}

	// Path validation first (fail fast before computing hash)
	if err := ValidatePath(resolved, allowedPaths); err != nil {
		return nil, err
	}

	computed, err := ComputeFileHash(resolved)
	if err != nil {
		return nil, err
	}

	return &VerifyResult{
		ResolvedPath: resolved,
		ComputedHash: computed,
		Match:        strings.EqualFold(computed, expectedHash),
	}, nil
}
