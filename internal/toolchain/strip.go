package toolchain

import (
	"context"
	"strings"

	"github.com/vk/relmatrix/internal/ctxlog"
)

// ExecStripper invokes the target's configured strip utility as an external
// command. The tool string may carry flags ("strip -x"); the binary path is
// appended as the final argument and the file is rewritten in place.
type ExecStripper struct{}

// Strip implements Stripper.
func (ExecStripper) Strip(ctx context.Context, tool string, path string) error {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Stripping debug symbols.", "tool", tool, "path", path)

	argv := append(strings.Fields(tool), path)
	_, err := runCommand(ctx, "", nil, argv...)
	return err
}
