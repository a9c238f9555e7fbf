// Package toolchain defines the capability interfaces for the external build
// tools the orchestrator drives (compiler, strip utility, WASM optimizer)
// and provides exec-backed implementations for a Cargo source tree.
//
// The orchestrator depends only on these interfaces; tests substitute
// doubles that simulate failure at each stage.
package toolchain

import (
	"context"

	"github.com/vk/relmatrix/internal/config"
)

// Toolchain builds the two per-target artifacts inside the target's
// isolated environment.
type Toolchain interface {
	// Setup runs the target's optional cross-toolchain install command.
	// It is only called when the target declares one.
	Setup(ctx context.Context, target *config.Target) error

	// BuildBinding compiles the native-binding module and places it in
	// outDir under its canonical name, returning the resulting path.
	BuildBinding(ctx context.Context, target *config.Target, outDir string) (string, error)

	// BuildCLI compiles the CLI executable with the same toolchain and
	// relocates it to outDir under the target's canonical binary name,
	// returning the resulting path.
	BuildCLI(ctx context.Context, target *config.Target, outDir string) (string, error)
}

// Stripper removes debug symbols from a binary in place.
type Stripper interface {
	Strip(ctx context.Context, tool string, path string) error
}

// WasmToolchain builds the WebAssembly module and places it in outDir,
// returning the resulting path.
type WasmToolchain interface {
	BuildModule(ctx context.Context, outDir string) (string, error)
}

// Optimizer is the opaque size-optimization transform run over the built
// WASM module. Its output fully supersedes its input.
type Optimizer interface {
	Optimize(ctx context.Context, module []byte) ([]byte, error)
}
