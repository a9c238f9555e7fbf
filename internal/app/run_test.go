package app_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/vk/relmatrix/internal/aggregate"
	"github.com/vk/relmatrix/internal/app"
	"github.com/vk/relmatrix/internal/assemble"
	"github.com/vk/relmatrix/internal/hcl"
	"github.com/vk/relmatrix/internal/publish"
	"github.com/vk/relmatrix/internal/testutil"
)

const releaseMatrix = `
project = "relmatrix"

target "linux-x64" {
  os          = "linux"
  arch        = "x86_64"
  strip_tool  = "strip"
  binary_name = "relcli"
}

target "macos-arm64" {
  os          = "macos"
  arch        = "aarch64"
  setup       = "rustup target add aarch64-apple-darwin"
  strip_tool  = "strip -x"
  binary_name = "relcli"
}

target "windows-x64" {
  os          = "windows"
  arch        = "x86_64"
  binary_name = "relcli"
}

wasm {
  module_name = "relmatrix.wasm"
}
`

func writeMatrix(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "release.hcl")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func testToolset(reg publish.Registry) *app.Toolset {
	return &app.Toolset{
		Toolchain: &testutil.FakeToolchain{},
		Stripper:  &testutil.FakeStripper{},
		Wasm:      &testutil.FakeWasm{ModuleName: "relmatrix.wasm"},
		Optimizer: &testutil.FakeOptimizer{},
		Registries: map[assemble.RegistryKind]publish.Registry{
			assemble.RegistryNative:   reg,
			assemble.RegistryCLI:      reg,
			assemble.RegistryWasm:     reg,
			assemble.RegistryUmbrella: reg,
		},
		Getenv: func(key string) string {
			if key == "MODULE_REGISTRY_TOKEN" {
				return "tok-module"
			}
			return ""
		},
	}
}

func newTestConfig(t *testing.T, matrixPath string) *app.Config {
	t.Helper()
	cfg, err := app.NewConfig(app.Config{
		MatrixPath: matrixPath,
		Version:    "1.2.3",
		OutputDir:  t.TempDir(),
		LogLevel:   "error",
	})
	require.NoError(t, err)
	return cfg
}

func TestRun_FullReleaseSucceeds(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	out := &testutil.SafeBuffer{}
	cfg := newTestConfig(t, writeMatrix(t, releaseMatrix))
	reg := &testutil.FakeRegistry{}
	a := app.NewApp(out, cfg, hcl.NewLoader(), testToolset(reg))

	// --- Act ---
	err := a.Run(context.Background(), cfg)

	// --- Assert ---
	require.NoError(t, err)

	want := []string{
		"relmatrix-linux-x64",
		"relmatrix-macos-arm64",
		"relmatrix-windows-x64",
		"relmatrix",
		"relmatrix-cli",
		"relmatrix-wasm",
	}
	require.Empty(t, cmp.Diff(want, reg.PublishedNames()), "natives first, then umbrella, then cli and wasm")

	for _, credential := range reg.Credentials {
		require.Equal(t, "tok-module", credential)
	}

	// The aggregated layout holds every artifact under its target id.
	binding, err := os.ReadFile(filepath.Join(cfg.OutputDir, "artifacts", "linux-x64", "binding.so"))
	require.NoError(t, err)
	require.Equal(t, "binding:linux-x64", string(binding))

	wasm, err := os.ReadFile(filepath.Join(cfg.OutputDir, "artifacts", "wasm", "relmatrix.wasm"))
	require.NoError(t, err)
	require.Equal(t, testutil.OptimizedPrefix+"wasm-raw", string(wasm), "the published module is the optimizer's output")
}

func TestRun_OneFailedTargetBlocksTheWholeRelease(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	out := &testutil.SafeBuffer{}
	cfg := newTestConfig(t, writeMatrix(t, releaseMatrix))
	reg := &testutil.FakeRegistry{}
	tools := testToolset(reg)
	tools.Toolchain = &testutil.FakeToolchain{
		FailSetup: map[string]error{"macos-arm64": errors.New("rustup: network unreachable")},
	}
	a := app.NewApp(out, cfg, hcl.NewLoader(), tools)

	// --- Act ---
	err := a.Run(context.Background(), cfg)

	// --- Assert ---
	require.ErrorIs(t, err, aggregate.ErrMissingArtifacts)
	require.Contains(t, err.Error(), "macos-arm64 (setup)")
	require.Empty(t, reg.PublishedNames(), "nothing publishes while any required job failed")
}

func TestRun_MissingCredentialFailsBeforeAnyPublish(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	out := &testutil.SafeBuffer{}
	cfg := newTestConfig(t, writeMatrix(t, releaseMatrix))
	reg := &testutil.FakeRegistry{}
	tools := testToolset(reg)
	tools.Getenv = func(string) string { return "" }
	a := app.NewApp(out, cfg, hcl.NewLoader(), tools)

	// --- Act ---
	err := a.Run(context.Background(), cfg)

	// --- Assert ---
	require.ErrorIs(t, err, publish.ErrMissingCredential)
	require.Empty(t, reg.PublishedNames())
}

func TestRun_PartialReleaseIsSurfacedNotRolledBack(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	out := &testutil.SafeBuffer{}
	cfg := newTestConfig(t, writeMatrix(t, releaseMatrix))
	boom := errors.New("upstream 503")
	reg := &testutil.FakeRegistry{Fail: map[string]error{"relmatrix-cli": boom}}
	a := app.NewApp(out, cfg, hcl.NewLoader(), testToolset(reg))

	// --- Act ---
	err := a.Run(context.Background(), cfg)

	// --- Assert ---
	require.ErrorIs(t, err, boom)
	require.Equal(t, []string{
		"relmatrix-linux-x64",
		"relmatrix-macos-arm64",
		"relmatrix-windows-x64",
		"relmatrix",
	}, reg.PublishedNames(), "everything before the failure stays published")
	require.Contains(t, out.String(), "already-published packages remain live")
}

func TestNewApp_PanicsOnInvalidMatrix(t *testing.T) {
	t.Parallel()

	out := &testutil.SafeBuffer{}
	bad := writeMatrix(t, `
target "win-arm" {
  os          = "windows"
  arch        = "aarch64"
  strip_tool  = "strip"
  binary_name = "relcli"
}
`)
	cfg := newTestConfig(t, bad)

	require.Panics(t, func() {
		app.NewApp(out, cfg, hcl.NewLoader(), testToolset(&testutil.FakeRegistry{}))
	})
}

func TestNewConfig_RequiresMatrixPathAndVersion(t *testing.T) {
	t.Parallel()

	_, err := app.NewConfig(app.Config{Version: "1.2.3"})
	require.Error(t, err)

	_, err = app.NewConfig(app.Config{MatrixPath: "release.hcl"})
	require.Error(t, err)

	cfg, err := app.NewConfig(app.Config{MatrixPath: "release.hcl", Version: "1.2.3"})
	require.NoError(t, err)
	require.Equal(t, ".", cfg.SourceDir)
	require.Equal(t, "dist", cfg.OutputDir)
}
