package testutil

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vk/relmatrix/internal/artifact"
	"github.com/vk/relmatrix/internal/assemble"
	"github.com/vk/relmatrix/internal/config"
)

// FakeToolchain is a scriptable Toolchain double. It writes small marker
// files where real builds would place artifacts, and can be told to fail a
// given target at the setup or build stage.
type FakeToolchain struct {
	mu sync.Mutex

	// FailSetup and FailBuild map target ids to injected errors.
	FailSetup map[string]error
	FailBuild map[string]error
	// BuildDelay stalls every build call, for deadline tests.
	BuildDelay time.Duration

	// SetupRuns records the target ids whose setup command ran.
	SetupRuns []string
}

// Setup implements toolchain.Toolchain.
func (f *FakeToolchain) Setup(ctx context.Context, target *config.Target) error {
	f.mu.Lock()
	f.SetupRuns = append(f.SetupRuns, target.ID)
	err := f.FailSetup[target.ID]
	f.mu.Unlock()
	return err
}

// BuildBinding implements toolchain.Toolchain.
func (f *FakeToolchain) BuildBinding(ctx context.Context, target *config.Target, outDir string) (string, error) {
	if err := f.wait(ctx, target); err != nil {
		return "", err
	}
	path := filepath.Join(outDir, artifact.BindingName(target.OS))
	return path, os.WriteFile(path, []byte("binding:"+target.ID), 0o644)
}

// BuildCLI implements toolchain.Toolchain.
func (f *FakeToolchain) BuildCLI(ctx context.Context, target *config.Target, outDir string) (string, error) {
	if err := f.wait(ctx, target); err != nil {
		return "", err
	}
	path := filepath.Join(outDir, target.BinaryName)
	return path, os.WriteFile(path, []byte("cli:"+target.ID), 0o755)
}

func (f *FakeToolchain) wait(ctx context.Context, target *config.Target) error {
	f.mu.Lock()
	err := f.FailBuild[target.ID]
	delay := f.BuildDelay
	f.mu.Unlock()
	if err != nil {
		return err
	}
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return ctx.Err()
}

// FakeStripper records strip invocations and can fail on demand.
type FakeStripper struct {
	mu sync.Mutex

	// Fail injects an error for every strip call using the given tool.
	Fail map[string]error
	// Stripped records the paths that were stripped, in call order.
	Stripped []string
}

// Strip implements toolchain.Stripper.
func (f *FakeStripper) Strip(ctx context.Context, tool string, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.Fail[tool]; err != nil {
		return err
	}
	f.Stripped = append(f.Stripped, path)
	return nil
}

// FakeWasm is a scriptable WasmToolchain double.
type FakeWasm struct {
	// Fail injects a build failure.
	Fail error
	// ModuleName overrides the output filename; defaults to "lib.wasm".
	ModuleName string
}

// BuildModule implements toolchain.WasmToolchain.
func (f *FakeWasm) BuildModule(ctx context.Context, outDir string) (string, error) {
	if f.Fail != nil {
		return "", f.Fail
	}
	name := f.ModuleName
	if name == "" {
		name = "lib.wasm"
	}
	path := filepath.Join(outDir, name)
	return path, os.WriteFile(path, []byte("wasm-raw"), 0o644)
}

// FakeOptimizer is a scriptable Optimizer double. On success it prefixes the
// module bytes so tests can verify the optimized output superseded the raw
// build.
type FakeOptimizer struct {
	Fail error
}

// OptimizedPrefix marks bytes that passed through the fake optimizer.
const OptimizedPrefix = "optimized|"

// Optimize implements toolchain.Optimizer.
func (f *FakeOptimizer) Optimize(ctx context.Context, module []byte) ([]byte, error) {
	if f.Fail != nil {
		return nil, f.Fail
	}
	return append([]byte(OptimizedPrefix), module...), nil
}

// FakeRegistry is a scriptable Registry double. Sharing one instance across
// all registry kinds records the global publish order.
type FakeRegistry struct {
	mu sync.Mutex

	// Fail maps package names to injected publish errors.
	Fail map[string]error

	// Published records package names in publish order.
	Published []string
	// Credentials records the credential observed per publish call.
	Credentials []string
}

// Publish implements publish.Registry.
func (f *FakeRegistry) Publish(ctx context.Context, pkg *assemble.Package, credential string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.Fail[pkg.Name]; err != nil {
		return err
	}
	f.Published = append(f.Published, pkg.Name)
	f.Credentials = append(f.Credentials, credential)
	return nil
}

// PublishedNames returns a copy of the recorded publish order.
func (f *FakeRegistry) PublishedNames() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.Published))
	copy(out, f.Published)
	return out
}
