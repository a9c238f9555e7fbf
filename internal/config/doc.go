// Package config defines the format-agnostic configuration model for a
// release run: the target matrix, the WASM pipeline settings, and the
// registry endpoints. It also defines the Loader interface implemented by
// the format-specific packages (hcl, yaml).
//
// The config.Model is the single source of truth for the matrix, executor,
// and publish packages. It is loaded once at startup and never mutated
// afterwards.
package config
