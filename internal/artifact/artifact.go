// Package artifact defines the build artifact model and the read-only
// aggregated store that the assembly stage consumes.
package artifact

import "github.com/vk/relmatrix/internal/config"

// Kind distinguishes the three artifact types a release run produces.
type Kind string

const (
	// KindNativeBinding is the platform-specific loadable module.
	KindNativeBinding Kind = "native-binding"
	// KindCLIBinary is the standalone command-line executable.
	KindCLIBinary Kind = "cli-binary"
	// KindWasmModule is the size-optimized WebAssembly module.
	KindWasmModule Kind = "wasm-module"
)

// WasmTargetID is the sentinel target id owned by the WASM pipeline, which
// lives outside the declarative matrix.
const WasmTargetID = "wasm"

// Artifact is one file produced by a build job or the WASM pipeline.
type Artifact struct {
	// TargetID is the owning target's id, or WasmTargetID.
	TargetID string
	// Kind is the artifact type.
	Kind Kind
	// Path is the artifact's location on disk.
	Path string
	// Stripped is true only if a configured strip tool ran and succeeded.
	Stripped bool
}

// BindingName returns the canonical native-binding filename for a platform.
func BindingName(os string) string {
	switch os {
	case config.OSWindows:
		return "binding.dll"
	case config.OSMacOS:
		return "binding.dylib"
	default:
		return "binding.so"
	}
}
