package config

// Supported operating systems for matrix targets.
const (
	OSWindows = "windows"
	OSMacOS   = "macos"
	OSLinux   = "linux"
)

// RegistryFamily identifies which credential a registry endpoint consumes.
type RegistryFamily string

const (
	// FamilyModule covers the package registries (native, cli, wasm, umbrella).
	FamilyModule RegistryFamily = "module"
	// FamilyCrate covers the source-crate registry.
	FamilyCrate RegistryFamily = "crate"
)

// Model is the unified, format-agnostic representation of the entire release
// configuration, regardless of whether it was loaded from HCL or YAML.
type Model struct {
	// Project is the base name stamped onto every assembled package.
	Project string
	// Targets is the declarative build matrix, in declaration order.
	Targets []*Target
	// Wasm configures the independent WASM pipeline.
	Wasm *Wasm
	// Registries maps a registry kind (native, cli, wasm, umbrella) to its
	// publish endpoint.
	Registries map[string]*Registry
	// Credentials names the environment variables holding publish tokens.
	Credentials CredentialSources
}

// Target is the format-agnostic representation of one `target` block. It is
// immutable after loading.
type Target struct {
	// ID uniquely identifies the target across the matrix,
	// e.g. "linux-x64-gnu".
	ID string
	// OS is one of OSWindows, OSMacOS, OSLinux.
	OS string
	// Arch is the CPU architecture, e.g. "x86_64", "aarch64", "armv7".
	Arch string
	// Image is an optional identifier of the isolated build environment
	// (container image). Empty means the host.
	Image string
	// Setup is an optional pre-build command that installs a cross
	// toolchain. Failure fails the job with no retry.
	Setup string
	// StripTool is the optional symbol-stripping utility. Empty means the
	// target's artifacts are never stripped.
	StripTool string
	// BinaryName is the canonical output filename for the CLI artifact.
	BinaryName string
	// Env holds target-specific environment variables applied during the
	// build, already evaluated to plain strings.
	Env map[string]string
}

// Wasm configures the single-target WASM pipeline.
type Wasm struct {
	// ModuleName is the output filename of the built module.
	ModuleName string
	// Optimizer is the external size-optimization tool run over the module.
	Optimizer string
}

// Registry is one publish endpoint.
type Registry struct {
	// Kind is one of "native", "cli", "wasm", "umbrella".
	Kind string
	// URL is the endpoint base URL.
	URL string
	// Family selects which credential the endpoint consumes.
	Family RegistryFamily
}

// CredentialSources names the environment variables that hold the two opaque
// publish secrets. The values themselves are read only at publish time and
// are never stored in the model.
type CredentialSources struct {
	ModuleTokenEnv string
	CrateTokenEnv  string
}

// Registry kinds, matching the package kinds produced by assembly.
const (
	RegistryNative   = "native"
	RegistryCLI      = "cli"
	RegistryWasm     = "wasm"
	RegistryUmbrella = "umbrella"
)

// Normalize fills in defaults for everything the configuration file may
// leave unset. Both loaders call it exactly once before returning the model.
func (m *Model) Normalize() {
	if m.Project == "" {
		m.Project = "relmatrix"
	}
	if m.Wasm == nil {
		m.Wasm = &Wasm{}
	}
	if m.Wasm.ModuleName == "" {
		m.Wasm.ModuleName = m.Project + ".wasm"
	}
	if m.Wasm.Optimizer == "" {
		m.Wasm.Optimizer = "wasm-opt"
	}
	if m.Registries == nil {
		m.Registries = make(map[string]*Registry)
	}
	for _, kind := range []string{RegistryNative, RegistryCLI, RegistryWasm, RegistryUmbrella} {
		reg, ok := m.Registries[kind]
		if !ok {
			reg = &Registry{Kind: kind}
			m.Registries[kind] = reg
		}
		if reg.Family == "" {
			reg.Family = FamilyModule
		}
	}
	if m.Credentials.ModuleTokenEnv == "" {
		m.Credentials.ModuleTokenEnv = "MODULE_REGISTRY_TOKEN"
	}
	if m.Credentials.CrateTokenEnv == "" {
		m.Credentials.CrateTokenEnv = "CRATE_REGISTRY_TOKEN"
	}
}
