package supply

import (
	"errors"
	"fmt"
	"strings"

	"github.com/VikingOwl91/witness/internal/resolution"
)

// ErrVerificationFailed matches every error that should abort the build
// because the resolved set does not reconcile with the configuration.
var ErrVerificationFailed = errors.New("dependency verification failed")

// MalformedPinError reports a verify or exclude entry with the wrong shape.
type MalformedPinError struct {
	Kind   string // "verify" or "exclude"
	Entry  string
	Reason string
}

func (e *MalformedPinError) Error() string {
	return fmt.Sprintf("malformed %s entry %q: %s", e.Kind, e.Entry, e.Reason)
}

type ExcludeNotFoundError struct {
	Coordinate resolution.Coordinate
}

func (e *ExcludeNotFoundError) Error() string {
	return "No dependency for integrity exclusion found: " + e.Coordinate.String()
}

func (e *ExcludeNotFoundError) Is(target error) bool { return target == ErrVerificationFailed }

type VerifyNotFoundError struct {
	Coordinate resolution.Coordinate
}

func (e *VerifyNotFoundError) Error() string {
	return "No dependency for integrity assertion found: " + e.Coordinate.String()
}

func (e *VerifyNotFoundError) Is(target error) bool { return target == ErrVerificationFailed }

// ChecksumMismatchError carries the computed hash for debugging; the message
// names only the pinned one.
type ChecksumMismatchError struct {
	Coordinate resolution.Coordinate
	Expected   string
	Actual     string
}

func (e *ChecksumMismatchError) Error() string {
	return "Checksum failed for " + e.Coordinate.String() + ":" + e.Expected
}

func (e *ChecksumMismatchError) Is(target error) bool { return target == ErrVerificationFailed }

// UnaccountedError lists every resolved dependency named by neither list.
type UnaccountedError struct {
	Coordinates []resolution.Coordinate
}

func (e *UnaccountedError) Error() string {
	var b strings.Builder
	b.WriteString("No dependency for integrity assertion found for: ")
	for _, c := range e.Coordinates {
		b.WriteString("\n- ")
		b.WriteString(c.String())
	}
	return b.String()
}

func (e *UnaccountedError) Is(target error) bool { return target == ErrVerificationFailed }

// ArtifactUnreadableError wraps a failure to read or locate an artifact's content.
type ArtifactUnreadableError struct {
	Coordinate resolution.Coordinate
	Path       string
	Err        error
}

func (e *ArtifactUnreadableError) Error() string {
	return fmt.Sprintf("artifact %s unreadable (%s): %v", e.Coordinate, e.Path, e.Err)
}

func (e *ArtifactUnreadableError) Unwrap() error { return e.Err }

func (e *ArtifactUnreadableError) Is(target error) bool { return target == ErrVerificationFailed }
