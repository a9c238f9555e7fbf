package toolchain

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/vk/relmatrix/internal/artifact"
	"github.com/vk/relmatrix/internal/config"
	"github.com/vk/relmatrix/internal/ctxlog"
)

// Cargo drives a Rust source tree through cargo, producing the
// native-binding cdylib and the CLI executable for one target per job.
type Cargo struct {
	// SourceDir is the root of the versioned source tree.
	SourceDir string
	// CrateName is the library crate name, used to locate cdylib output.
	CrateName string
	// BinName is the cargo binary target compiled for the CLI artifact.
	BinName string
}

// NewCargo returns a Cargo toolchain rooted at the given source tree.
func NewCargo(sourceDir, crateName, binName string) *Cargo {
	return &Cargo{SourceDir: sourceDir, CrateName: crateName, BinName: binName}
}

// Setup runs the target's cross-toolchain install command.
func (c *Cargo) Setup(ctx context.Context, target *config.Target) error {
	logger := ctxlog.FromContext(ctx).With("target", target.ID)
	logger.Info("Installing cross toolchain.", "command", target.Setup)

	_, err := runShell(ctx, c.SourceDir, c.environFor(target), target.Setup)
	return err
}

// BuildBinding compiles the library crate as a cdylib for the target triple
// and relocates it to outDir under the platform's canonical binding name.
func (c *Cargo) BuildBinding(ctx context.Context, target *config.Target, outDir string) (string, error) {
	triple, err := tripleFor(target)
	if err != nil {
		return "", err
	}

	env := c.environFor(target)
	if _, err := runCommand(ctx, c.SourceDir, env, "cargo", "build", "--release", "--lib", "--target", triple); err != nil {
		return "", err
	}

	built, err := c.findBinding(target, triple)
	if err != nil {
		return "", err
	}

	dst := filepath.Join(outDir, artifact.BindingName(target.OS))
	if err := copyFile(built, dst, 0o644); err != nil {
		return "", err
	}
	return dst, nil
}

// BuildCLI compiles the CLI binary with the same toolchain and renames it to
// the target's canonical binary name.
func (c *Cargo) BuildCLI(ctx context.Context, target *config.Target, outDir string) (string, error) {
	triple, err := tripleFor(target)
	if err != nil {
		return "", err
	}

	env := c.environFor(target)
	if _, err := runCommand(ctx, c.SourceDir, env, "cargo", "build", "--release", "--bin", c.BinName, "--target", triple); err != nil {
		return "", err
	}

	built := filepath.Join(c.releaseDir(triple), c.BinName)
	if target.OS == config.OSWindows {
		built += ".exe"
	}

	dst := filepath.Join(outDir, target.BinaryName)
	if err := copyFile(built, dst, 0o755); err != nil {
		return "", err
	}
	return dst, nil
}

// environFor builds the job's isolated environment: the host environment,
// then the per-target variables in sorted key order so two builds of the
// same target always see an identical environment.
func (c *Cargo) environFor(target *config.Target) []string {
	env := os.Environ()

	keys := make([]string, 0, len(target.Env))
	for k := range target.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		env = append(env, k+"="+target.Env[k])
	}
	return env
}

func (c *Cargo) releaseDir(triple string) string {
	return filepath.Join(c.SourceDir, "target", triple, "release")
}

func (c *Cargo) findBinding(target *config.Target, triple string) (string, error) {
	dir := c.releaseDir(triple)
	switch target.OS {
	case config.OSWindows:
		return findByExtension(dir, ".dll")
	case config.OSMacOS:
		return findByExtension(dir, ".dylib")
	default:
		return findByExtension(dir, ".so")
	}
}

// tripleFor maps a target's (os, arch) to the rust target triple cargo
// expects. Unknown combinations are configuration mistakes surfaced as
// build errors.
func tripleFor(target *config.Target) (string, error) {
	switch target.OS {
	case config.OSLinux:
		switch target.Arch {
		case "x86_64":
			return "x86_64-unknown-linux-gnu", nil
		case "aarch64":
			return "aarch64-unknown-linux-gnu", nil
		case "armv7":
			return "armv7-unknown-linux-gnueabihf", nil
		}
	case config.OSMacOS:
		switch target.Arch {
		case "x86_64":
			return "x86_64-apple-darwin", nil
		case "aarch64":
			return "aarch64-apple-darwin", nil
		}
	case config.OSWindows:
		switch target.Arch {
		case "x86_64":
			return "x86_64-pc-windows-msvc", nil
		case "aarch64":
			return "aarch64-pc-windows-msvc", nil
		}
	}
	return "", fmt.Errorf("no rust triple for os %q arch %q", target.OS, target.Arch)
}
