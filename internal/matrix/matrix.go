// Package matrix holds the validated, immutable build matrix. Validation
// runs once at load time and fails the process before any job is dispatched,
// so a bad matrix is a configuration error rather than a runtime one.
package matrix

import (
	"errors"
	"fmt"

	"github.com/vk/relmatrix/internal/artifact"
	"github.com/vk/relmatrix/internal/config"
)

// ErrInvalidMatrix wraps every validation failure so callers can classify
// matrix problems as configuration errors.
var ErrInvalidMatrix = errors.New("invalid target matrix")

// Matrix is the fixed, ordered set of build targets for a release run.
type Matrix struct {
	targets []*config.Target
}

// New validates the declared targets and returns an immutable Matrix.
// The declaration order is preserved; it defines job dispatch order and the
// deterministic ordering used by assembly and publishing.
func New(targets []*config.Target) (*Matrix, error) {
	if len(targets) == 0 {
		return nil, fmt.Errorf("%w: no targets declared", ErrInvalidMatrix)
	}

	seen := make(map[string]struct{}, len(targets))
	for _, t := range targets {
		if t.ID == "" {
			return nil, fmt.Errorf("%w: target with empty id", ErrInvalidMatrix)
		}
		if _, dup := seen[t.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate target id %q", ErrInvalidMatrix, t.ID)
		}
		// The wasm pipeline owns this id; a matrix target reusing it would
		// shadow the pipeline job at the aggregation barrier.
		if t.ID == artifact.WasmTargetID {
			return nil, fmt.Errorf("%w: target id %q is reserved", ErrInvalidMatrix, t.ID)
		}
		seen[t.ID] = struct{}{}

		switch t.OS {
		case config.OSWindows, config.OSMacOS, config.OSLinux:
		default:
			return nil, fmt.Errorf("%w: target %q has unsupported os %q", ErrInvalidMatrix, t.ID, t.OS)
		}
		if t.Arch == "" {
			return nil, fmt.Errorf("%w: target %q has empty arch", ErrInvalidMatrix, t.ID)
		}
		if t.BinaryName == "" {
			return nil, fmt.Errorf("%w: target %q has empty binary_name", ErrInvalidMatrix, t.ID)
		}
		// PE binaries carry their debug info in separate files; there is no
		// strip step on windows targets.
		if t.StripTool != "" && t.OS == config.OSWindows {
			return nil, fmt.Errorf("%w: target %q sets strip_tool on windows", ErrInvalidMatrix, t.ID)
		}
	}

	owned := make([]*config.Target, len(targets))
	for i, t := range targets {
		owned[i] = cloneTarget(t)
	}
	return &Matrix{targets: owned}, nil
}

// Targets returns the matrix targets in declaration order. Each call yields
// fresh copies; mutating them never reaches the matrix or its other callers.
func (m *Matrix) Targets() []*config.Target {
	out := make([]*config.Target, len(m.targets))
	for i, t := range m.targets {
		out[i] = cloneTarget(t)
	}
	return out
}

func cloneTarget(t *config.Target) *config.Target {
	c := *t
	if t.Env != nil {
		c.Env = make(map[string]string, len(t.Env))
		for k, v := range t.Env {
			c.Env[k] = v
		}
	}
	return &c
}

// IDs returns the target ids in declaration order.
func (m *Matrix) IDs() []string {
	ids := make([]string, len(m.targets))
	for i, t := range m.targets {
		ids[i] = t.ID
	}
	return ids
}

// Len returns the number of targets in the matrix.
func (m *Matrix) Len() int {
	return len(m.targets)
}
