package app

import (
	"errors"
	"time"
)

// Config holds all the configuration an App instance needs to run one
// release attempt.
type Config struct {
	// MatrixPath points at the declarative matrix file or directory.
	MatrixPath string
	// Version is the single release version stamped on every package.
	Version string
	// SourceDir is the root of the versioned source tree to build.
	SourceDir string
	// OutputDir is where job workspaces and aggregated artifacts land.
	OutputDir string

	LogFormat       string
	LogLevel        string
	HealthcheckPort int

	// Deadline bounds the whole run. Zero means no externally imposed
	// deadline; jobs still running when it expires count as failed at the
	// aggregation barrier.
	Deadline time.Duration
}

// NewConfig validates a Config and fills in defaults.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.MatrixPath == "" {
		return nil, errors.New("MatrixPath is a required configuration field and cannot be empty")
	}
	if cfg.Version == "" {
		return nil, errors.New("Version is a required configuration field and cannot be empty")
	}
	if cfg.SourceDir == "" {
		cfg.SourceDir = "."
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "dist"
	}
	return &cfg, nil
}
