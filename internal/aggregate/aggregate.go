// Package aggregate implements the join barrier between the parallel build
// jobs and everything downstream. Nothing after it runs unless every
// required job reached the succeeded terminal state.
package aggregate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/vk/relmatrix/internal/artifact"
	"github.com/vk/relmatrix/internal/ctxlog"
	"github.com/vk/relmatrix/internal/job"
)

// ErrMissingArtifacts is returned when one or more required jobs are failed
// or non-terminal at the barrier. The error text names the absent targets.
var ErrMissingArtifacts = errors.New("missing artifacts")

// Collect enforces the barrier and builds the aggregated store. Every id in
// required must correspond to a succeeded job; otherwise Collect fails
// naming each absent target and its stage, and no partial store is built.
// On success each job's private artifacts are copied into the unified
// target-keyed layout under destDir.
func Collect(ctx context.Context, destDir string, jobs []*job.Job, required []string) (*artifact.Store, error) {
	logger := ctxlog.FromContext(ctx)

	byTarget := make(map[string]*job.Job, len(jobs))
	for _, j := range jobs {
		byTarget[j.TargetID()] = j
	}

	var absent []string
	for _, id := range required {
		j, ok := byTarget[id]
		switch {
		case !ok:
			absent = append(absent, fmt.Sprintf("%s (never dispatched)", id))
		case j.State() == job.Failed:
			absent = append(absent, fmt.Sprintf("%s (%s)", id, j.FailedStage()))
		case j.State() != job.Succeeded:
			// A job still pending or running at the barrier is treated the
			// same as a failed one; the deadline belongs to the opaque calls.
			absent = append(absent, fmt.Sprintf("%s (not terminal)", id))
		}
	}
	if len(absent) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingArtifacts, strings.Join(absent, ", "))
	}

	var all []artifact.Artifact
	for _, id := range required {
		for _, a := range byTarget[id].Artifacts() {
			dst := filepath.Join(destDir, a.TargetID, filepath.Base(a.Path))
			if err := copyArtifact(a.Path, dst); err != nil {
				return nil, fmt.Errorf("aggregating %s artifact for %s: %w", a.Kind, a.TargetID, err)
			}
			a.Path = dst
			all = append(all, a)
		}
	}

	store, err := artifact.NewStore(all)
	if err != nil {
		return nil, err
	}
	logger.Info("📦 Artifacts aggregated.", "targets", len(store.Targets()), "artifacts", store.Len())
	return store, nil
}

func copyArtifact(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
