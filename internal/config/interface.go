package config

import "context"

// Loader is the interface for a format-specific configuration loader. Load
// reads the release configuration from a file or directory, translates it
// into the format-agnostic model, and applies defaults.
type Loader interface {
	Load(ctx context.Context, path string) (*Model, error)
}
