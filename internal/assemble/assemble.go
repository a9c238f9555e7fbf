// Package assemble maps the aggregated artifact store into the set of
// publishable packages. Assembly is a pure function of the store, the
// matrix, and the release version: running it twice over the same inputs
// yields identical package descriptors.
package assemble

import (
	"errors"
	"fmt"

	"github.com/vk/relmatrix/internal/artifact"
	"github.com/vk/relmatrix/internal/matrix"
)

// RegistryKind names the registry a package is published to.
type RegistryKind string

const (
	RegistryNative   RegistryKind = "native"
	RegistryCLI      RegistryKind = "cli"
	RegistryWasm     RegistryKind = "wasm"
	RegistryUmbrella RegistryKind = "umbrella"
)

// Assembly error taxonomy. Both block the publish stage entirely.
var (
	ErrNoVersion  = errors.New("release version must not be empty")
	ErrIncomplete = errors.New("aggregated store is incomplete")
)

// Package is one publishable unit. It references artifacts by their
// aggregated paths; it owns no bytes of its own.
type Package struct {
	// Name is the registry-facing package name.
	Name string
	// Registry selects the publish endpoint.
	Registry RegistryKind
	// Version is the single release version shared by every package in a
	// run; there is no per-package drift.
	Version string
	// Contents is the ordered list of artifact references. Empty for the
	// umbrella package.
	Contents []artifact.Artifact
	// OptionalDeps lists the per-target native package names the umbrella
	// package selects between at install time. Empty for all other kinds.
	OptionalDeps []string
}

// Assemble derives the release's packages from the aggregated store:
// one native package per matrix target, one CLI package carrying every
// target's binary keyed by target id, one WASM package, and one payload-free
// umbrella package declaring optional dependencies on the native packages.
// The returned order is native packages in matrix order, then CLI, WASM,
// umbrella; the publisher applies its own ordering contract on top.
func Assemble(store *artifact.Store, m *matrix.Matrix, project, version string) ([]Package, error) {
	if version == "" {
		return nil, ErrNoVersion
	}

	packages := make([]Package, 0, m.Len()+3)
	nativeNames := make([]string, 0, m.Len())
	cliContents := make([]artifact.Artifact, 0, m.Len())

	for _, t := range m.Targets() {
		binding, ok := store.Find(t.ID, artifact.KindNativeBinding)
		if !ok {
			return nil, fmt.Errorf("%w: no native-binding artifact for %s", ErrIncomplete, t.ID)
		}
		cli, ok := store.Find(t.ID, artifact.KindCLIBinary)
		if !ok {
			return nil, fmt.Errorf("%w: no cli-binary artifact for %s", ErrIncomplete, t.ID)
		}

		name := project + "-" + t.ID
		nativeNames = append(nativeNames, name)
		cliContents = append(cliContents, cli)

		packages = append(packages, Package{
			Name:     name,
			Registry: RegistryNative,
			Version:  version,
			Contents: []artifact.Artifact{binding},
		})
	}

	packages = append(packages, Package{
		Name:     project + "-cli",
		Registry: RegistryCLI,
		Version:  version,
		Contents: cliContents,
	})

	wasm, ok := store.Find(artifact.WasmTargetID, artifact.KindWasmModule)
	if !ok {
		return nil, fmt.Errorf("%w: no wasm-module artifact", ErrIncomplete)
	}
	packages = append(packages, Package{
		Name:     project + "-wasm",
		Registry: RegistryWasm,
		Version:  version,
		Contents: []artifact.Artifact{wasm},
	})

	packages = append(packages, Package{
		Name:         project,
		Registry:     RegistryUmbrella,
		Version:      version,
		OptionalDeps: nativeNames,
	})

	return packages, nil
}
