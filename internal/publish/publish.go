// Package publish sequences the assembled packages onto their registries.
// Publishing is strictly sequential, one package at a time: every native
// package first (so the umbrella's optional dependencies resolve), then the
// umbrella, then the CLI and WASM packages. Calls are synchronous and never
// retried; the first failure halts the run with everything already published
// left in place.
package publish

import (
	"context"
	"errors"
	"fmt"

	"github.com/vk/relmatrix/internal/assemble"
	"github.com/vk/relmatrix/internal/ctxlog"
)

// Registry is the capability interface for one package registry endpoint.
type Registry interface {
	Publish(ctx context.Context, pkg *assemble.Package, credential string) error
}

// ErrNoEndpoint means a package was assembled for a registry kind that has
// no configured endpoint. It fails the run before any publish call is made.
var ErrNoEndpoint = errors.New("no registry endpoint configured")

// Endpoint pairs a registry client with the credential it consumes. The
// credential lives only here; it is never logged and never stored on the
// packages.
type Endpoint struct {
	Client     Registry
	Credential string
}

// Publisher publishes packages in the ordering contract's sequence.
type Publisher struct {
	endpoints map[assemble.RegistryKind]Endpoint
}

// New creates a Publisher over the configured endpoints.
func New(endpoints map[assemble.RegistryKind]Endpoint) *Publisher {
	return &Publisher{endpoints: endpoints}
}

// PublishAll publishes every package, halting at the first failure. It
// returns the names of the packages that were published, in order; on error
// the returned slice still lists what went out, because a partial release is
// a real terminal outcome the operator must see, not something to roll back
// silently.
func (p *Publisher) PublishAll(ctx context.Context, packages []assemble.Package) ([]string, error) {
	logger := ctxlog.FromContext(ctx)

	ordered := Order(packages)
	for _, pkg := range ordered {
		if _, ok := p.endpoints[pkg.Registry]; !ok {
			return nil, fmt.Errorf("%w: %s (package %q)", ErrNoEndpoint, pkg.Registry, pkg.Name)
		}
	}

	var published []string
	for i := range ordered {
		pkg := &ordered[i]
		ep := p.endpoints[pkg.Registry]
		if err := ep.Client.Publish(ctx, pkg, ep.Credential); err != nil {
			return published, fmt.Errorf("publishing %q (version %s) to the %s registry: %w", pkg.Name, pkg.Version, pkg.Registry, err)
		}
		published = append(published, pkg.Name)
		logger.Info("📦 Package published.", "package", pkg.Name, "registry", pkg.Registry, "version", pkg.Version)
	}
	return published, nil
}

// Order arranges packages into the publish sequence: native packages (in
// their given relative order), then the umbrella package, then CLI and WASM.
// The umbrella must follow every native package so its optional dependencies
// resolve at publish time; CLI and WASM only need to follow the natives.
func Order(packages []assemble.Package) []assemble.Package {
	ordered := make([]assemble.Package, 0, len(packages))
	for _, kind := range []assemble.RegistryKind{
		assemble.RegistryNative,
		assemble.RegistryUmbrella,
		assemble.RegistryCLI,
		assemble.RegistryWasm,
	} {
		for _, pkg := range packages {
			if pkg.Registry == kind {
				ordered = append(ordered, pkg)
			}
		}
	}
	return ordered
}
