// Package witness hooks dependency verification into a build's lifecycle.
//
// A host drives a Hook in two phases: Configure receives the project
// configuration before resolution completes, and AfterResolution runs once
// the dependency graph is final, before any step consumes the artifacts.
// A non-nil error from AfterResolution must abort the build.
package witness

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/VikingOwl91/witness/internal/config"
	"github.com/VikingOwl91/witness/internal/logging"
	"github.com/VikingOwl91/witness/internal/resolution"
	"github.com/VikingOwl91/witness/internal/supply"
)

var (
	ErrNotConfigured = errors.New("witness: hook not configured")
	ErrAlreadyRan    = errors.New("witness: post-resolution hook already ran")
)

type Hook struct {
	out    io.Writer
	logger *slog.Logger

	configured    bool
	ran           bool
	configuration string
	policy        supply.Policy
	options       resolution.Options
	allowedPaths  []string
}

// New returns a hook writing progress lines to out.
func New(out io.Writer, logger *slog.Logger) *Hook {
	return &Hook{
		out:           out,
		logger:        logger,
		configuration: resolution.DefaultConfiguration,
	}
}

// Configure captures a validated configuration. Later changes to cfg do not
// affect the hook.
func (h *Hook) Configure(cfg *config.Config) {
	h.configuration = cfg.DependencyVerification.Configuration
	h.policy = cfg.Policy()
	h.options = resolution.Options{Repository: cfg.SupplyChain.Repository}
	h.allowedPaths = append([]string(nil), cfg.SupplyChain.AllowedPaths...)
	h.configured = true
}

// AfterResolution reconciles the report's resolved set with the configured
// policy. It may run only once per hook.
func (h *Hook) AfterResolution(ctx context.Context, report *resolution.Report) error {
	if !h.configured {
		return ErrNotConfigured
	}
	if h.ran {
		return ErrAlreadyRan
	}
	h.ran = true

	artifacts, err := h.flatten(ctx, report)
	if err != nil {
		return err
	}

	reconciler := supply.NewReconciler(h.out, h.logger, h.allowedPaths)
	return logging.Phase(ctx, h.logger, "reconcile", func(ctx context.Context) error {
		return reconciler.Reconcile(ctx, artifacts, h.policy)
	})
}

// Checksums writes a verify block pinning every resolved artifact at its
// current hash. It works with or without Configure.
func (h *Hook) Checksums(ctx context.Context, w io.Writer, report *resolution.Report) error {
	artifacts, err := h.flatten(ctx, report)
	if err != nil {
		return err
	}

	var pins []supply.Pin
	err = logging.Phase(ctx, h.logger, "dump", func(context.Context) error {
		var err error
		pins, err = supply.Dump(artifacts)
		return err
	})
	if err != nil {
		return err
	}
	return supply.WriteVerifyBlock(w, pins)
}

func (h *Hook) flatten(ctx context.Context, report *resolution.Report) ([]resolution.Artifact, error) {
	var artifacts []resolution.Artifact
	err := logging.Phase(ctx, h.logger, "flatten", func(context.Context) error {
		var err error
		artifacts, err = resolution.Flatten(report, h.configuration, h.options)
		return err
	})
	if err != nil {
		return nil, err
	}
	h.logger.Debug("resolved set flattened",
		slog.String("configuration", h.configuration),
		slog.Int("artifacts", len(artifacts)),
	)
	return artifacts, nil
}

// SetConfiguration overrides the configuration name to flatten.
func (h *Hook) SetConfiguration(name string) {
	if name != "" {
		h.configuration = name
	}
}
