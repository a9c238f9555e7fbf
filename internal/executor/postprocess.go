package executor

import (
	"context"

	"github.com/vk/relmatrix/internal/config"
)

// postProcess applies the target's configured strip tool to both artifacts
// in place. Without a strip tool the artifacts pass through unchanged. A
// strip failure is fatal for the job: an artifact that failed a configured
// strip step is never published, even though the unstripped file exists.
func (e *Executor) postProcess(ctx context.Context, t *config.Target, paths ...string) (bool, error) {
	if t.StripTool == "" {
		return false, nil
	}
	for _, path := range paths {
		if err := e.stripper.Strip(ctx, t.StripTool, path); err != nil {
			return false, err
		}
	}
	return true, nil
}
