package executor

import (
	"context"
	"os"

	"github.com/vk/relmatrix/internal/artifact"
	"github.com/vk/relmatrix/internal/ctxlog"
	"github.com/vk/relmatrix/internal/job"
)

// runWasm executes the independent WASM pipeline: build the module, run the
// external size optimizer over its bytes, and replace the file with the
// optimized output. The optimizer's output fully supersedes the raw build;
// there is no fallback to the unoptimized module, so a failed optimization
// fails the whole pipeline.
func (e *Executor) runWasm(ctx context.Context, j *job.Job) {
	logger := ctxlog.FromContext(ctx).With("target", j.TargetID(), "job", j.ID())

	j.Start()
	logger.Info("▶️ WASM pipeline started.")

	path, err := e.wasm.BuildModule(ctx, j.OutDir())
	if err != nil {
		logger.Error("WASM build failed.", "error", err)
		j.Fail(job.StageBuild, err)
		return
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		j.Fail(job.StageBuild, err)
		return
	}

	optimized, err := e.optimizer.Optimize(ctx, raw)
	if err != nil {
		logger.Error("WASM optimization failed.", "error", err)
		j.Fail(job.StageOptimize, err)
		return
	}

	if err := os.WriteFile(path, optimized, 0o644); err != nil {
		j.Fail(job.StageOptimize, err)
		return
	}

	j.Succeed([]artifact.Artifact{
		{TargetID: artifact.WasmTargetID, Kind: artifact.KindWasmModule, Path: path},
	})
	logger.Info("✅ WASM pipeline succeeded.", "raw_bytes", len(raw), "optimized_bytes", len(optimized))
}
