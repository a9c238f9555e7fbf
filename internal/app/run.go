package app

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/vk/relmatrix/internal/aggregate"
	"github.com/vk/relmatrix/internal/artifact"
	"github.com/vk/relmatrix/internal/assemble"
	"github.com/vk/relmatrix/internal/ctxlog"
	"github.com/vk/relmatrix/internal/executor"
	"github.com/vk/relmatrix/internal/publish"
)

// Run executes one complete release attempt: parallel build jobs, the
// aggregation barrier, package assembly, and ordered publication. It returns
// nil only if every required job succeeded and every package published.
func (a *App) Run(ctx context.Context, cfg *Config) error {
	runID := uuid.New()
	logger := a.logger.With("run", runID, "version", cfg.Version)
	ctx = ctxlog.WithLogger(ctx, logger)
	logger.Info("🚀 Release run starting.", "project", a.model.Project, "targets", a.matrix.Len())

	if cfg.HealthcheckPort > 0 {
		a.startHealthcheckServer(cfg.HealthcheckPort)
	}

	if cfg.Deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Deadline)
		defer cancel()
	}

	exec := executor.New(a.tools.Toolchain, a.tools.Stripper, a.tools.Wasm, a.tools.Optimizer, cfg.OutputDir)
	jobs := exec.Run(ctx, a.matrix)

	// Every failed target is reported individually, so an operator can
	// re-run just the failed slice of the matrix.
	for _, j := range executor.Failed(jobs) {
		logger.Error("Build job failed.", "target", j.TargetID(), "stage", j.FailedStage(), "error", j.Err())
	}

	required := append(a.matrix.IDs(), artifact.WasmTargetID)
	store, err := aggregate.Collect(ctx, filepath.Join(cfg.OutputDir, "artifacts"), jobs, required)
	if err != nil {
		return fmt.Errorf("build stage failed: %w", err)
	}

	packages, err := assemble.Assemble(store, a.matrix, a.model.Project, cfg.Version)
	if err != nil {
		return fmt.Errorf("assembly stage failed: %w", err)
	}
	logger.Info("Packages assembled.", "count", len(packages))

	publisher, err := a.newPublisher()
	if err != nil {
		return fmt.Errorf("publish stage failed: %w", err)
	}

	published, err := publisher.PublishAll(ctx, packages)
	if err != nil {
		if len(published) > 0 {
			// No rollback: a partial release stays live and is surfaced,
			// not silently retried.
			logger.Error("Run halted mid-publish; already-published packages remain live.", "published", strings.Join(published, ", "))
		}
		return fmt.Errorf("publish stage failed: %w", err)
	}

	logger.Info("🏁 Release complete.", "packages", len(published))
	return nil
}

// newPublisher resolves registry endpoints and credentials. Credentials are
// read from the environment here, immediately before publishing, and flow
// only into the publisher.
func (a *App) newPublisher() (*publish.Publisher, error) {
	creds, err := publish.LoadCredentials(a.tools.Getenv, a.model.Registries, a.model.Credentials)
	if err != nil {
		return nil, err
	}

	endpoints := make(map[assemble.RegistryKind]publish.Endpoint, len(a.tools.Registries))
	for kind, client := range a.tools.Registries {
		reg, ok := a.model.Registries[string(kind)]
		if !ok {
			return nil, fmt.Errorf("no registry configuration for kind %q", kind)
		}
		endpoints[kind] = publish.Endpoint{
			Client:     client,
			Credential: creds.For(reg.Family),
		}
	}
	return publish.New(endpoints), nil
}
