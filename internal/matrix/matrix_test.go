package matrix

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vk/relmatrix/internal/artifact"
	"github.com/vk/relmatrix/internal/config"
)

func validTargets() []*config.Target {
	return []*config.Target{
		{ID: "linux-x64-gnu", OS: config.OSLinux, Arch: "x86_64", StripTool: "strip", BinaryName: "relcli"},
		{ID: "macos-arm64", OS: config.OSMacOS, Arch: "aarch64", StripTool: "strip -x", BinaryName: "relcli"},
		{ID: "windows-x64", OS: config.OSWindows, Arch: "x86_64", BinaryName: "relcli.exe"},
	}
}

func TestNew_ValidMatrix(t *testing.T) {
	t.Parallel()

	m, err := New(validTargets())

	require.NoError(t, err)
	require.Equal(t, 3, m.Len())
	require.Equal(t, []string{"linux-x64-gnu", "macos-arm64", "windows-x64"}, m.IDs(), "declaration order must be preserved")
}

func TestNew_ValidationFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func([]*config.Target) []*config.Target
		wantMsg string
	}{
		{
			name:    "empty matrix",
			mutate:  func([]*config.Target) []*config.Target { return nil },
			wantMsg: "no targets declared",
		},
		{
			name: "duplicate id",
			mutate: func(targets []*config.Target) []*config.Target {
				targets[1].ID = targets[0].ID
				return targets
			},
			wantMsg: "duplicate target id",
		},
		{
			name: "empty id",
			mutate: func(targets []*config.Target) []*config.Target {
				targets[0].ID = ""
				return targets
			},
			wantMsg: "empty id",
		},
		{
			name: "unsupported os",
			mutate: func(targets []*config.Target) []*config.Target {
				targets[0].OS = "plan9"
				return targets
			},
			wantMsg: "unsupported os",
		},
		{
			name: "empty arch",
			mutate: func(targets []*config.Target) []*config.Target {
				targets[2].Arch = ""
				return targets
			},
			wantMsg: "empty arch",
		},
		{
			name: "empty binary name",
			mutate: func(targets []*config.Target) []*config.Target {
				targets[1].BinaryName = ""
				return targets
			},
			wantMsg: "empty binary_name",
		},
		{
			name: "strip tool on windows",
			mutate: func(targets []*config.Target) []*config.Target {
				targets[2].StripTool = "strip"
				return targets
			},
			wantMsg: "strip_tool on windows",
		},
		{
			name: "reserved wasm id",
			mutate: func(targets []*config.Target) []*config.Target {
				targets[1].ID = artifact.WasmTargetID
				return targets
			},
			wantMsg: "reserved",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			m, err := New(tc.mutate(validTargets()))

			require.Nil(t, m)
			require.ErrorIs(t, err, ErrInvalidMatrix)
			require.Contains(t, err.Error(), tc.wantMsg)
		})
	}
}

func TestTargets_ReturnsDeepCopies(t *testing.T) {
	t.Parallel()

	declared := validTargets()
	declared[0].Env = map[string]string{"CC": "zig cc"}

	m, err := New(declared)
	require.NoError(t, err)

	// Mutations on the caller's slice after construction stay invisible.
	declared[0].ID = "tampered"
	declared[0].Env["CC"] = "tampered"
	require.Equal(t, "linux-x64-gnu", m.Targets()[0].ID)
	require.Equal(t, "zig cc", m.Targets()[0].Env["CC"])

	// And so do mutations on what the accessor hands out.
	got := m.Targets()
	got[0] = nil
	require.NotNil(t, m.Targets()[0])

	got = m.Targets()
	got[1].BinaryName = "tampered"
	got[1].Env = map[string]string{"oops": "y"}
	require.Equal(t, "relcli", m.Targets()[1].BinaryName)
	require.Empty(t, m.Targets()[1].Env)
}
