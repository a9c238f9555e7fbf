// Package hcl loads release configuration written in HCL and translates it
// into the format-agnostic config model. It is the primary configuration
// format; the yaml package provides the alternate loader.
package hcl

import (
	"context"
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/vk/relmatrix/internal/config"
	"github.com/vk/relmatrix/internal/ctxlog"
	"github.com/vk/relmatrix/internal/fsutil"
)

// Loader is the HCL implementation of config.Loader.
type Loader struct{}

// NewLoader creates a new HCL configuration loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses every .hcl file at path (a single file or a directory),
// merges the discovered blocks, and returns the normalized model. Semantic
// matrix validation is the matrix package's job; the loader only translates.
func (l *Loader) Load(ctx context.Context, path string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)

	files, err := l.findFiles(path)
	if err != nil {
		return nil, err
	}
	logger.Debug("Discovered HCL matrix files.", "count", len(files))

	model := &config.Model{Registries: make(map[string]*config.Registry)}
	parser := hclparse.NewParser()

	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse %s: %w", file, diags)
		}

		var root fileRoot
		if diags := gohcl.DecodeBody(hclFile.Body, nil, &root); diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode %s: %w", file, diags)
		}

		if root.Project != "" {
			model.Project = root.Project
		}
		if root.Wasm != nil {
			model.Wasm = &config.Wasm{ModuleName: root.Wasm.ModuleName, Optimizer: root.Wasm.Optimizer}
		}
		if root.Credentials != nil {
			model.Credentials = config.CredentialSources{
				ModuleTokenEnv: root.Credentials.ModuleTokenEnv,
				CrateTokenEnv:  root.Credentials.CrateTokenEnv,
			}
		}
		for _, reg := range root.Registries {
			if _, dup := model.Registries[reg.Kind]; dup {
				return nil, fmt.Errorf("registry %q declared more than once", reg.Kind)
			}
			model.Registries[reg.Kind] = &config.Registry{
				Kind:   reg.Kind,
				URL:    reg.URL,
				Family: config.RegistryFamily(reg.Family),
			}
		}
		for _, t := range root.Targets {
			translated, err := l.translateTarget(t)
			if err != nil {
				return nil, fmt.Errorf("in %s: %w", file, err)
			}
			model.Targets = append(model.Targets, translated)
		}
	}

	model.Normalize()
	logger.Debug("HCL matrix loaded.", "targets", len(model.Targets))
	return model, nil
}

func (l *Loader) findFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	files, err := fsutil.FindFilesByExtension(path, ".hcl")
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .hcl files found under %s", path)
	}
	return files, nil
}

// translateTarget converts the HCL schema into the agnostic model,
// evaluating the env expression against the target's own attributes.
func (l *Loader) translateTarget(t *Target) (*config.Target, error) {
	env, err := evalEnv(t)
	if err != nil {
		return nil, fmt.Errorf("target %q: %w", t.ID, err)
	}
	return &config.Target{
		ID:         t.ID,
		OS:         t.OS,
		Arch:       t.Arch,
		Image:      t.Image,
		Setup:      t.Setup,
		StripTool:  t.StripTool,
		BinaryName: t.BinaryName,
		Env:        env,
	}, nil
}
