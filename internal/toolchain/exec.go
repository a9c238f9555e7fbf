package toolchain

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/vk/relmatrix/internal/ctxlog"
)

// runCommand executes an external tool, captures its combined output, and
// returns a descriptive error on failure. The last lines of output are
// folded into the error so operators see the tool's own diagnostics.
func runCommand(ctx context.Context, dir string, env []string, argv ...string) ([]string, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Running external command.", "argv", argv, "dir", dir)

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir
	cmd.Env = env

	out, err := cmd.CombinedOutput()
	lines := splitLines(string(out))
	if err != nil {
		return lines, fmt.Errorf("%s failed: %w: %s", argv[0], err, tail(lines, 5))
	}
	return lines, nil
}

// runShell executes a shell command line, for configured setup commands that
// are written as a single string.
func runShell(ctx context.Context, dir string, env []string, command string) ([]string, error) {
	return runCommand(ctx, dir, env, "sh", "-c", command)
}

func splitLines(s string) []string {
	s = strings.TrimRight(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

func tail(lines []string, n int) string {
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "; ")
}

// copyFile copies src to dst, creating parent directories and applying the
// given permissions. Used to relocate build outputs into a job's private
// output namespace.
func copyFile(src, dst string, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// findByExtension returns the first regular file in dir with the given
// extension. Build output directories contain exactly one match per build.
func findByExtension(dir, ext string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ext) {
			return filepath.Join(dir, e.Name()), nil
		}
	}
	return "", fmt.Errorf("no %s file found in %s", ext, dir)
}
