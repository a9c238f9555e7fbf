package job

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vk/relmatrix/internal/artifact"
	"github.com/vk/relmatrix/internal/config"
)

func newTestJob(t *testing.T) *Job {
	t.Helper()
	target := &config.Target{ID: "linux-x64", OS: config.OSLinux, Arch: "x86_64", BinaryName: "relcli"}
	return NewTarget(target, t.TempDir())
}

func TestJob_Lifecycle(t *testing.T) {
	t.Parallel()

	j := newTestJob(t)
	require.Equal(t, Pending, j.State())

	j.Start()
	require.Equal(t, Running, j.State())

	arts := []artifact.Artifact{{TargetID: "linux-x64", Kind: artifact.KindNativeBinding, Path: "x/binding.so"}}
	j.Succeed(arts)
	require.Equal(t, Succeeded, j.State())
	require.Equal(t, arts, j.Artifacts())
}

func TestJob_TerminalStateIsImmutable(t *testing.T) {
	t.Parallel()

	j := newTestJob(t)
	j.Start()

	failure := errors.New("linker exploded")
	j.Fail(StageBuild, failure)

	// A later success report must not resurrect a failed job.
	j.Succeed([]artifact.Artifact{{TargetID: "linux-x64", Kind: artifact.KindCLIBinary}})

	require.Equal(t, Failed, j.State())
	require.Equal(t, StageBuild, j.FailedStage())
	require.ErrorIs(t, j.Err(), failure)
	require.Empty(t, j.Artifacts())
}

func TestJob_StartAfterTerminalIsNoOp(t *testing.T) {
	t.Parallel()

	j := newTestJob(t)
	j.Start()
	j.Fail(StageSetup, errors.New("no such toolchain"))

	j.Start()

	require.Equal(t, Failed, j.State())
}

func TestNewWasm_UsesSentinelTargetID(t *testing.T) {
	t.Parallel()

	j := NewWasm(t.TempDir())

	require.Equal(t, artifact.WasmTargetID, j.TargetID())
	require.Nil(t, j.Target())
	require.NotEqual(t, NewWasm(t.TempDir()).ID(), j.ID(), "each job gets its own id")
}

func TestState_String(t *testing.T) {
	t.Parallel()

	require.Equal(t, "pending", Pending.String())
	require.Equal(t, "running", Running.String())
	require.Equal(t, "succeeded", Succeeded.String())
	require.Equal(t, "failed", Failed.String())
}
