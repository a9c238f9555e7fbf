package hcl

import "github.com/hashicorp/hcl/v2"

// --- HCL-specific schema, decoded with gohcl before translation into the
// format-agnostic config model. ---

// Target represents a `target` block from a matrix file.
type Target struct {
	ID         string `hcl:"id,label"`
	OS         string `hcl:"os"`
	Arch       string `hcl:"arch"`
	Image      string `hcl:"image,optional"`
	Setup      string `hcl:"setup,optional"`
	StripTool  string `hcl:"strip_tool,optional"`
	BinaryName string `hcl:"binary_name"`
	// Env is kept as an expression so values can reference the `target`
	// object (id, os, arch), e.g. conditional page-size flags per arch.
	Env hcl.Expression `hcl:"env,optional"`
}

// Wasm represents the `wasm` block configuring the independent pipeline.
type Wasm struct {
	ModuleName string `hcl:"module_name,optional"`
	Optimizer  string `hcl:"optimizer,optional"`
}

// Registry represents a `registry` block declaring one publish endpoint.
type Registry struct {
	Kind   string `hcl:"kind,label"`
	URL    string `hcl:"url"`
	Family string `hcl:"family,optional"`
}

// Credentials represents the `credentials` block naming the environment
// variables that hold publish tokens.
type Credentials struct {
	ModuleTokenEnv string `hcl:"module_token_env,optional"`
	CrateTokenEnv  string `hcl:"crate_token_env,optional"`
}

// fileRoot decodes all recognized top-level blocks from any matrix file.
type fileRoot struct {
	Project     string       `hcl:"project,optional"`
	Targets     []*Target    `hcl:"target,block"`
	Wasm        *Wasm        `hcl:"wasm,block"`
	Registries  []*Registry  `hcl:"registry,block"`
	Credentials *Credentials `hcl:"credentials,block"`
	Remain      hcl.Body     `hcl:",remain"`
}
