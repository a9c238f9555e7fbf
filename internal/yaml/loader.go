// Package yaml loads release configuration written in YAML, for matrices
// maintained alongside CI definitions. Unlike the HCL loader, env values
// are taken literally; there is no expression evaluation.
package yaml

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/vk/relmatrix/internal/config"
	"github.com/vk/relmatrix/internal/ctxlog"
)

// Loader is the YAML implementation of config.Loader.
type Loader struct{}

// NewLoader creates a new YAML configuration loader.
func NewLoader() *Loader {
	return &Loader{}
}

type target struct {
	ID         string            `yaml:"id"`
	OS         string            `yaml:"os"`
	Arch       string            `yaml:"arch"`
	Image      string            `yaml:"image"`
	Setup      string            `yaml:"setup"`
	StripTool  string            `yaml:"strip_tool"`
	BinaryName string            `yaml:"binary_name"`
	Env        map[string]string `yaml:"env"`
}

type wasmBlock struct {
	ModuleName string `yaml:"module_name"`
	Optimizer  string `yaml:"optimizer"`
}

type registryBlock struct {
	Kind   string `yaml:"kind"`
	URL    string `yaml:"url"`
	Family string `yaml:"family"`
}

type credentialsBlock struct {
	ModuleTokenEnv string `yaml:"module_token_env"`
	CrateTokenEnv  string `yaml:"crate_token_env"`
}

type fileRoot struct {
	Project     string            `yaml:"project"`
	Targets     []target          `yaml:"targets"`
	Wasm        *wasmBlock        `yaml:"wasm"`
	Registries  []registryBlock   `yaml:"registries"`
	Credentials *credentialsBlock `yaml:"credentials"`
}

// Load parses a single YAML matrix file and returns the normalized model.
func (l *Loader) Load(ctx context.Context, path string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var root fileRoot
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	model := &config.Model{
		Project:    root.Project,
		Registries: make(map[string]*config.Registry),
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
		model.Targets = append(model.Targets, &config.Target{
			ID:         t.ID,
			OS:         t.OS,
			Arch:       t.Arch,
			Image:      t.Image,
			Setup:      t.Setup,
			StripTool:  t.StripTool,
			BinaryName: t.BinaryName,
			Env:        t.Env,
		})
	}

	model.Normalize()
	logger.Debug("YAML matrix loaded.", "targets", len(model.Targets))
	return model, nil
}
