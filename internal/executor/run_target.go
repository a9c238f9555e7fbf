package executor

import (
	"context"

	"github.com/vk/relmatrix/internal/artifact"
	"github.com/vk/relmatrix/internal/ctxlog"
	"github.com/vk/relmatrix/internal/job"
)

// runTarget executes the five build stages for one matrix target: optional
// setup, environment preparation (owned by the toolchain), native-binding
// build, CLI build, and the post-process strip pass. Success requires both
// artifact kinds; any stage failure marks the job failed and leaves its
// partial output unpublished in the private namespace.
func (e *Executor) runTarget(ctx context.Context, j *job.Job) {
	t := j.Target()
	env := t.Image
	if env == "" {
		env = "host"
	}
	logger := ctxlog.FromContext(ctx).With("target", t.ID, "job", j.ID(), "environment", env)

	j.Start()
	logger.Info("▶️ Build job started.")

	if t.Setup != "" {
		if err := e.toolchain.Setup(ctx, t); err != nil {
			logger.Error("Cross-toolchain setup failed.", "error", err)
			j.Fail(job.StageSetup, err)
			return
		}
	}

	bindingPath, err := e.toolchain.BuildBinding(ctx, t, j.OutDir())
	if err != nil {
		logger.Error("Native-binding build failed.", "error", err)
		j.Fail(job.StageBuild, err)
		return
	}

	cliPath, err := e.toolchain.BuildCLI(ctx, t, j.OutDir())
	if err != nil {
		logger.Error("CLI build failed.", "error", err)
		j.Fail(job.StageBuild, err)
		return
	}

	stripped, err := e.postProcess(ctx, t, bindingPath, cliPath)
	if err != nil {
		logger.Error("Strip pass failed.", "tool", t.StripTool, "error", err)
		j.Fail(job.StageStrip, err)
		return
	}

	j.Succeed([]artifact.Artifact{
		{TargetID: t.ID, Kind: artifact.KindNativeBinding, Path: bindingPath, Stripped: stripped},
		{TargetID: t.ID, Kind: artifact.KindCLIBinary, Path: cliPath, Stripped: stripped},
	})
	logger.Info("✅ Build job succeeded.", "stripped", stripped)
}
