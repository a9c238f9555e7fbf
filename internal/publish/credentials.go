package publish

import (
	"errors"
	"fmt"

	"github.com/vk/relmatrix/internal/config"
)

// ErrMissingCredential means a required publish token was not present in the
// environment. It fails the run before any publish call is made.
var ErrMissingCredential = errors.New("missing registry credential")

// Credentials holds the two opaque secrets, one per registry family. They
// are read from the environment only at publish time and are handed solely
// to the Publisher's endpoints.
type Credentials struct {
	module string
	crate  string
}

// LoadCredentials reads the configured environment variables through getenv
// (os.Getenv in production, a map lookup in tests). The module-family token
// is always required; the crate-family token is required only if some
// registry endpoint declares the crate family.
func LoadCredentials(getenv func(string) string, registries map[string]*config.Registry, src config.CredentialSources) (Credentials, error) {
	creds := Credentials{
		module: getenv(src.ModuleTokenEnv),
		crate:  getenv(src.CrateTokenEnv),
	}
	if creds.module == "" {
		return Credentials{}, fmt.Errorf("%w: %s is not set", ErrMissingCredential, src.ModuleTokenEnv)
	}
	for _, reg := range registries {
		if reg.Family == config.FamilyCrate && creds.crate == "" {
			return Credentials{}, fmt.Errorf("%w: %s is not set", ErrMissingCredential, src.CrateTokenEnv)
		}
	}
	return creds, nil
}

// For returns the credential consumed by the given registry family.
func (c Credentials) For(family config.RegistryFamily) string {
	if family == config.FamilyCrate {
		return c.crate
	}
	return c.module
}
