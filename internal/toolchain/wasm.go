package toolchain

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vk/relmatrix/internal/ctxlog"
)

const wasmTriple = "wasm32-unknown-unknown"

// CargoWasm builds the WebAssembly module from the same source tree.
type CargoWasm struct {
	// SourceDir is the root of the versioned source tree.
	SourceDir string
	// ModuleName is the canonical output filename for the module.
	ModuleName string
}

// BuildModule implements WasmToolchain.
func (c *CargoWasm) BuildModule(ctx context.Context, outDir string) (string, error) {
	env := os.Environ()
	if _, err := runCommand(ctx, c.SourceDir, env, "cargo", "build", "--release", "--lib", "--target", wasmTriple); err != nil {
		return "", err
	}

	built, err := findByExtension(filepath.Join(c.SourceDir, "target", wasmTriple, "release"), ".wasm")
	if err != nil {
		return "", err
	}

	dst := filepath.Join(outDir, c.ModuleName)
	if err := copyFile(built, dst, 0o644); err != nil {
		return "", err
	}
	return dst, nil
}

// WasmOpt runs an external size optimizer (wasm-opt by default) over module
// bytes. The transform is modeled as bytes in, bytes out; the temp files it
// needs are an implementation detail.
type WasmOpt struct {
	// Tool is the optimizer executable.
	Tool string
}

// Optimize implements Optimizer.
func (w *WasmOpt) Optimize(ctx context.Context, module []byte) ([]byte, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Optimizing wasm module.", "tool", w.Tool, "input_bytes", len(module))

	dir, err := os.MkdirTemp("", "relmatrix-wasmopt-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	in := filepath.Join(dir, "in.wasm")
	out := filepath.Join(dir, "out.wasm")
	if err := os.WriteFile(in, module, 0o644); err != nil {
		return nil, err
	}

	if _, err := runCommand(ctx, dir, nil, w.Tool, "-Oz", in, "-o", out); err != nil {
		return nil, err
	}

	optimized, err := os.ReadFile(out)
	if err != nil {
		return nil, fmt.Errorf("optimizer produced no output: %w", err)
	}
	return optimized, nil
}
