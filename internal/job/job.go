// Package job models the lifecycle of a single build job. A job transitions
// pending → running → {succeeded, failed}; the terminal state is immutable
// and is reached exactly once, guarded by a sync.Once.
package job

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/vk/relmatrix/internal/artifact"
	"github.com/vk/relmatrix/internal/config"
)

// State is the execution state of a job, managed atomically.
type State int32

const (
	// Pending indicates the job has been created but not yet picked up.
	Pending State = iota
	// Running indicates the job is currently building.
	Running
	// Succeeded indicates the job produced all of its artifacts.
	Succeeded
	// Failed indicates the job failed at some stage.
	Failed
)

// String implements fmt.Stringer for log output.
func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Running:
		return "running"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Stage identifies where in the build pipeline a job failed.
type Stage string

const (
	StageSetup    Stage = "setup"
	StageBuild    Stage = "build"
	StageStrip    Stage = "strip"
	StageOptimize Stage = "optimize"
)

// Job is one unit of parallel work: either a matrix target build or the
// WASM pipeline. Jobs share no mutable state with each other; each owns a
// private output directory invisible to its siblings until aggregation.
type Job struct {
	id       uuid.UUID
	targetID string
	target   *config.Target // nil for the wasm pipeline
	outDir   string

	state      atomic.Int32
	finishOnce sync.Once
	err        error
	stage      Stage
	artifacts  []artifact.Artifact
}

// NewTarget creates a pending job for one matrix target.
func NewTarget(t *config.Target, outDir string) *Job {
	return &Job{id: uuid.New(), targetID: t.ID, target: t, outDir: outDir}
}

// NewWasm creates the pending job for the WASM pipeline.
func NewWasm(outDir string) *Job {
	return &Job{id: uuid.New(), targetID: artifact.WasmTargetID, outDir: outDir}
}

// ID returns the job's unique id, used for log correlation.
func (j *Job) ID() uuid.UUID { return j.id }

// TargetID returns the owning target's id, or artifact.WasmTargetID.
func (j *Job) TargetID() string { return j.targetID }

// Target returns the matrix target, or nil for the wasm pipeline.
func (j *Job) Target() *config.Target { return j.target }

// OutDir returns the job's private output directory.
func (j *Job) OutDir() string { return j.outDir }

// State atomically reads the job's current state.
func (j *Job) State() State {
	return State(j.state.Load())
}

// Start moves the job from pending to running. It is a no-op if the job has
// already started or finished.
func (j *Job) Start() {
	j.state.CompareAndSwap(int32(Pending), int32(Running))
}

// Succeed records the job's artifacts and moves it to the succeeded terminal
// state. The first call to Succeed or Fail wins; later calls are ignored.
func (j *Job) Succeed(artifacts []artifact.Artifact) {
	j.finishOnce.Do(func() {
		j.artifacts = artifacts
		j.state.Store(int32(Succeeded))
	})
}

// Fail records the failing stage and error and moves the job to the failed
// terminal state. The first call to Succeed or Fail wins.
func (j *Job) Fail(stage Stage, err error) {
	j.finishOnce.Do(func() {
		j.stage = stage
		j.err = err
		j.state.Store(int32(Failed))
	})
}

// Err returns the job's failure cause. Valid only after the job is terminal.
func (j *Job) Err() error { return j.err }

// FailedStage returns the stage the job failed at. Valid only after the job
// is terminal.
func (j *Job) FailedStage() Stage { return j.stage }

// Artifacts returns a copy of the artifacts produced by a succeeded job.
func (j *Job) Artifacts() []artifact.Artifact {
	out := make([]artifact.Artifact, len(j.artifacts))
	copy(out, j.artifacts)
	return out
}
