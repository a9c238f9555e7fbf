package executor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/vk/relmatrix/internal/ctxlog"
	"github.com/vk/relmatrix/internal/job"
	"github.com/vk/relmatrix/internal/matrix"
	"github.com/vk/relmatrix/internal/toolchain"
)

// Executor owns the fork-join dispatch of build jobs. It performs no
// CPU-bound work itself; all heavy lifting happens inside the opaque
// toolchain calls.
type Executor struct {
	toolchain toolchain.Toolchain
	stripper  toolchain.Stripper
	wasm      toolchain.WasmToolchain
	optimizer toolchain.Optimizer

	// workDir is the parent of every job's private output directory.
	workDir string
}

// New creates an Executor over the given tool capabilities.
func New(tc toolchain.Toolchain, st toolchain.Stripper, wasm toolchain.WasmToolchain, opt toolchain.Optimizer, workDir string) *Executor {
	return &Executor{toolchain: tc, stripper: st, wasm: wasm, optimizer: opt, workDir: workDir}
}

// Run dispatches one job per matrix target plus the WASM pipeline, waits for
// every job to reach a terminal state, and returns all jobs in dispatch
// order (matrix order, wasm last). Run itself never fails: per-job errors
// are recorded on the jobs, and the caller decides what a failure means.
func (e *Executor) Run(ctx context.Context, m *matrix.Matrix) []*job.Job {
	logger := ctxlog.FromContext(ctx)

	jobs := make([]*job.Job, 0, m.Len()+1)
	for _, t := range m.Targets() {
		j := job.NewTarget(t, filepath.Join(e.workDir, "jobs", t.ID))
		jobs = append(jobs, j)
	}
	wasmJob := job.NewWasm(filepath.Join(e.workDir, "jobs", wasmJobDir))
	jobs = append(jobs, wasmJob)

	logger.Info("🚀 Dispatching build jobs.", "targets", m.Len(), "total", len(jobs))

	var wg sync.WaitGroup
	wg.Add(len(jobs))
	for _, j := range jobs {
		go func(j *job.Job) {
			defer wg.Done()
			if err := os.MkdirAll(j.OutDir(), 0o755); err != nil {
				j.Fail(job.StageSetup, fmt.Errorf("creating job output dir: %w", err))
				return
			}
			if j.Target() != nil {
				e.runTarget(ctx, j)
			} else {
				e.runWasm(ctx, j)
			}
		}(j)
	}

	wg.Wait()
	logger.Info("🏁 All build jobs terminal.", "total", len(jobs))
	return jobs
}

// wasmJobDir keeps the wasm pipeline's private namespace alongside, but
// distinct from, the matrix targets' directories.
const wasmJobDir = "wasm"

// Failed returns the jobs whose terminal state is failed, in dispatch order.
func Failed(jobs []*job.Job) []*job.Job {
	var failed []*job.Job
	for _, j := range jobs {
		if j.State() == job.Failed {
			failed = append(failed, j)
		}
	}
	return failed
}
