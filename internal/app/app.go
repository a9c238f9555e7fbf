// Package app wires the release pipeline together: configuration loading,
// matrix validation, job execution, the aggregation barrier, package
// assembly, and publication.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/vk/relmatrix/internal/assemble"
	"github.com/vk/relmatrix/internal/config"
	"github.com/vk/relmatrix/internal/ctxlog"
	"github.com/vk/relmatrix/internal/matrix"
	"github.com/vk/relmatrix/internal/publish"
	"github.com/vk/relmatrix/internal/toolchain"
)

// Toolset bundles the external tool capabilities a run depends on. Tests
// substitute doubles; production uses the exec-backed implementations.
type Toolset struct {
	Toolchain  toolchain.Toolchain
	Stripper   toolchain.Stripper
	Wasm       toolchain.WasmToolchain
	Optimizer  toolchain.Optimizer
	Registries map[assemble.RegistryKind]publish.Registry
	// Getenv resolves credential environment variables. Defaults to
	// os.Getenv.
	Getenv func(string) string
}

// App encapsulates one release run's dependencies and lifecycle.
type App struct {
	outW   io.Writer
	logger *slog.Logger
	model  *config.Model
	matrix *matrix.Matrix
	tools  *Toolset
}

// NewApp constructs a fully initialized App: it loads the declarative
// matrix through the given loader and validates it. A bad matrix is a
// configuration error, so NewApp panics before any job could be dispatched;
// the entrypoint recovers and turns the panic into a clean exit.
func NewApp(outW io.Writer, cfg *Config, loader config.Loader, tools *Toolset) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	model, err := loader.Load(ctx, cfg.MatrixPath)
	if err != nil {
		panic(fmt.Errorf("failed to load matrix configuration: %w", err))
	}
	logger.Debug("Matrix configuration loaded.", "project", model.Project, "targets", len(model.Targets))

	m, err := matrix.New(model.Targets)
	if err != nil {
		panic(err)
	}
	logger.Debug("Matrix validation passed.", "targets", m.Len())

	if tools == nil {
		tools = defaultToolset(cfg, model)
	}
	if tools.Getenv == nil {
		tools.Getenv = os.Getenv
	}

	return &App{
		outW:   outW,
		logger: logger,
		model:  model,
		matrix: m,
		tools:  tools,
	}
}

// defaultToolset builds the production tool capabilities: cargo for native
// and wasm builds, the configured strip and optimizer utilities, and HTTP
// registry clients for every configured endpoint.
func defaultToolset(cfg *Config, model *config.Model) *Toolset {
	registries := make(map[assemble.RegistryKind]publish.Registry, len(model.Registries))
	for kind, reg := range model.Registries {
		if reg.URL == "" {
			continue
		}
		registries[assemble.RegistryKind(kind)] = &publish.HTTPRegistry{BaseURL: reg.URL}
	}

	return &Toolset{
		Toolchain:  toolchain.NewCargo(cfg.SourceDir, model.Project, model.Project),
		Stripper:   toolchain.ExecStripper{},
		Wasm:       &toolchain.CargoWasm{SourceDir: cfg.SourceDir, ModuleName: model.Wasm.ModuleName},
		Optimizer:  &toolchain.WasmOpt{Tool: model.Wasm.Optimizer},
		Registries: registries,
	}
}

// Matrix returns the validated matrix. This is primarily for testing.
func (a *App) Matrix() *matrix.Matrix {
	return a.matrix
}
