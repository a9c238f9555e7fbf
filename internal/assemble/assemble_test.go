package assemble

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/vk/relmatrix/internal/artifact"
	"github.com/vk/relmatrix/internal/config"
	"github.com/vk/relmatrix/internal/matrix"
)

func testMatrix(t *testing.T) *matrix.Matrix {
	t.Helper()
	m, err := matrix.New([]*config.Target{
		{ID: "linux-x64", OS: config.OSLinux, Arch: "x86_64", StripTool: "strip", BinaryName: "relcli"},
		{ID: "macos-arm64", OS: config.OSMacOS, Arch: "aarch64", StripTool: "strip", BinaryName: "relcli"},
		{ID: "windows-x64", OS: config.OSWindows, Arch: "x86_64", BinaryName: "relcli"},
	})
	require.NoError(t, err)
	return m
}

func completeStore(t *testing.T, m *matrix.Matrix) *artifact.Store {
	t.Helper()
	var all []artifact.Artifact
	for _, target := range m.Targets() {
		all = append(all,
			artifact.Artifact{TargetID: target.ID, Kind: artifact.KindNativeBinding, Path: "dist/" + target.ID + "/binding.so", Stripped: true},
			artifact.Artifact{TargetID: target.ID, Kind: artifact.KindCLIBinary, Path: "dist/" + target.ID + "/relcli", Stripped: true},
		)
	}
	all = append(all, artifact.Artifact{TargetID: artifact.WasmTargetID, Kind: artifact.KindWasmModule, Path: "dist/wasm/rel.wasm"})
	store, err := artifact.NewStore(all)
	require.NoError(t, err)
	return store
}

func TestAssemble_ProducesOnePackagePerTargetPlusThree(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	m := testMatrix(t)
	store := completeStore(t, m)

	// --- Act ---
	packages, err := Assemble(store, m, "relmatrix", "1.2.3")

	// --- Assert ---
	require.NoError(t, err)
	require.Len(t, packages, m.Len()+3)

	names := make([]string, len(packages))
	for i, p := range packages {
		names[i] = p.Name
		require.Equal(t, "1.2.3", p.Version, "every package in a run carries the same version")
	}
	want := []string{
		"relmatrix-linux-x64",
		"relmatrix-macos-arm64",
		"relmatrix-windows-x64",
		"relmatrix-cli",
		"relmatrix-wasm",
		"relmatrix",
	}
	require.Empty(t, cmp.Diff(want, names))
}

func TestAssemble_NativePackagesCarryOnlyTheirBinding(t *testing.T) {
	t.Parallel()

	m := testMatrix(t)
	packages, err := Assemble(completeStore(t, m), m, "relmatrix", "1.2.3")
	require.NoError(t, err)

	native := packages[0]
	require.Equal(t, RegistryNative, native.Registry)
	require.Len(t, native.Contents, 1)
	require.Equal(t, artifact.KindNativeBinding, native.Contents[0].Kind)
	require.Equal(t, "linux-x64", native.Contents[0].TargetID)
	require.Empty(t, native.OptionalDeps)
}

func TestAssemble_CLIPackageBundlesEveryTargetBinary(t *testing.T) {
	t.Parallel()

	m := testMatrix(t)
	packages, err := Assemble(completeStore(t, m), m, "relmatrix", "1.2.3")
	require.NoError(t, err)

	cli := packages[m.Len()]
	require.Equal(t, RegistryCLI, cli.Registry)
	require.Len(t, cli.Contents, m.Len())
	for i, target := range m.Targets() {
		require.Equal(t, target.ID, cli.Contents[i].TargetID, "cli binaries keep matrix order")
		require.Equal(t, artifact.KindCLIBinary, cli.Contents[i].Kind)
	}
}

func TestAssemble_UmbrellaDeclaresOptionalNativeDeps(t *testing.T) {
	t.Parallel()

	m := testMatrix(t)
	packages, err := Assemble(completeStore(t, m), m, "relmatrix", "1.2.3")
	require.NoError(t, err)

	umbrella := packages[len(packages)-1]
	require.Equal(t, RegistryUmbrella, umbrella.Registry)
	require.Equal(t, "relmatrix", umbrella.Name)
	require.Empty(t, umbrella.Contents, "the umbrella package ships no payload")
	require.Equal(t, []string{"relmatrix-linux-x64", "relmatrix-macos-arm64", "relmatrix-windows-x64"}, umbrella.OptionalDeps)
}

func TestAssemble_IsDeterministic(t *testing.T) {
	t.Parallel()

	m := testMatrix(t)
	store := completeStore(t, m)

	first, err := Assemble(store, m, "relmatrix", "1.2.3")
	require.NoError(t, err)
	second, err := Assemble(store, m, "relmatrix", "1.2.3")
	require.NoError(t, err)

	require.Empty(t, cmp.Diff(first, second))
}

func TestAssemble_RejectsEmptyVersion(t *testing.T) {
	t.Parallel()

	m := testMatrix(t)
	_, err := Assemble(completeStore(t, m), m, "relmatrix", "")

	require.ErrorIs(t, err, ErrNoVersion)
}

func TestAssemble_RejectsIncompleteStore(t *testing.T) {
	t.Parallel()

	m := testMatrix(t)

	// A store missing the macos cli binary and the wasm module.
	store, err := artifact.NewStore([]artifact.Artifact{
		{TargetID: "linux-x64", Kind: artifact.KindNativeBinding, Path: "dist/linux-x64/binding.so"},
		{TargetID: "linux-x64", Kind: artifact.KindCLIBinary, Path: "dist/linux-x64/relcli"},
		{TargetID: "macos-arm64", Kind: artifact.KindNativeBinding, Path: "dist/macos-arm64/binding.dylib"},
	})
	require.NoError(t, err)

	_, err = Assemble(store, m, "relmatrix", "1.2.3")

	require.ErrorIs(t, err, ErrIncomplete)
	require.Contains(t, err.Error(), "macos-arm64")
}
