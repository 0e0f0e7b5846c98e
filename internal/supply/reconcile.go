package supply

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/VikingOwl91/witness/internal/resolution"
)

// Reconciler checks a resolved set against a Policy. Every resolved
// artifact must be claimed by exactly one exclude or verify entry, and every
// entry must claim an artifact.
type Reconciler struct {
	out          io.Writer
	logger       *slog.Logger
	allowedPaths []string
}

// NewReconciler writes progress lines to out. allowedPaths restricts where
// verified artifact files may live; empty means no restriction.
func NewReconciler(out io.Writer, logger *slog.Logger, allowedPaths []string) *Reconciler {
	return &Reconciler{
		out:          out,
		logger:       logger,
		allowedPaths: allowedPaths,
	}
}

// Reconcile processes all excludes, then all pins, each in configured order,
// and stops at the first failing entry. Artifacts left unclaimed afterwards
// are reported together.
func (r *Reconciler) Reconcile(ctx context.Context, artifacts []resolution.Artifact, policy Policy) error {
	remaining := slices.Clone(artifacts)

	for _, ex := range policy.Excludes {
		if err := ctx.Err(); err != nil {
			return err
		}
		i := indexOf(remaining, ex.Coordinate)
		if i < 0 {
			return &ExcludeNotFoundError{Coordinate: ex.Coordinate}
		}
		remaining = slices.Delete(remaining, i, i+1)

		fmt.Fprintf(r.out, "Skipping verification for %s\n", ex.Coordinate)
		r.logger.Debug("dependency excluded", slog.String("dependency", ex.Coordinate.String()))
	}

	for _, pin := range policy.Pins {
		if err := ctx.Err(); err != nil {
			return err
		}
		i := indexOf(remaining, pin.Coordinate)
		if i < 0 {
			return &VerifyNotFoundError{Coordinate: pin.Coordinate}
		}
		artifact := remaining[i]

		fmt.Fprintf(r.out, "Verifying %s\n", pin.Coordinate)

		result, err := VerifyArtifact(artifact.Path, pin.Hash, r.allowedPaths)
		if err != nil {
			return r.artifactError(artifact, err)
		}
		if !result.Match {
			r.logger.Error("checksum mismatch",
				slog.String("dependency", pin.Coordinate.String()),
				slog.String("path", result.ResolvedPath),
				slog.String("expected", pin.Hash),
				slog.String("computed", result.ComputedHash),
			)
			return &ChecksumMismatchError{
				Coordinate: pin.Coordinate,
				Expected:   pin.Hash,
				Actual:     result.ComputedHash,
			}
		}
		remaining = slices.Delete(remaining, i, i+1)

		r.logger.Debug("dependency verified",
			slog.String("dependency", pin.Coordinate.String()),
			slog.String("version", artifact.Version),
			slog.String("path", result.ResolvedPath),
		)
	}

	if len(remaining) > 0 {
		left := make([]resolution.Coordinate, len(remaining))
		for i, a := range remaining {
			left[i] = a.Coordinate
		}
		return &UnaccountedError{Coordinates: left}
	}

	r.logger.Info("all dependencies accounted for",
		slog.Int("resolved", len(artifacts)),
		slog.Int("excluded", len(policy.Excludes)),
		slog.Int("verified", len(policy.Pins)),
	)
	return nil
}

func (r *Reconciler) artifactError(a resolution.Artifact, err error) error {
	if errors.Is(err, ErrPathNotAllowed) {
		return fmt.Errorf("%w: %s: %w", ErrVerificationFailed, a.Coordinate, err)
	}
	return &ArtifactUnreadableError{Coordinate: a.Coordinate, Path: a.Path, Err: err}
}

func indexOf(artifacts []resolution.Artifact, c resolution.Coordinate) int {
	return slices.IndexFunc(artifacts, func(a resolution.Artifact) bool {
		return a.Coordinate == c
	})
}
