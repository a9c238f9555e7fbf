package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/vk/relmatrix/internal/assemble"
	"github.com/vk/relmatrix/internal/ctxlog"
)

// httpClient is shared across endpoints to reuse TCP connections.
var httpClient = &http.Client{}

// HTTPRegistry publishes a package to an HTTP registry: each artifact is
// uploaded under the package's version path, then a manifest describing the
// package is uploaded last, making the version visible atomically from the
// registry's point of view.
type HTTPRegistry struct {
	// BaseURL is the registry endpoint, without a trailing slash.
	BaseURL string
	// Client overrides the shared HTTP client when set.
	Client *http.Client
}

// manifest is the registry-facing package descriptor.
type manifest struct {
	Name         string   `json:"name"`
	Version      string   `json:"version"`
	Files        []string `json:"files,omitempty"`
	OptionalDeps []string `json:"optionalDependencies,omitempty"`
}

// Publish implements Registry.
func (r *HTTPRegistry) Publish(ctx context.Context, pkg *assemble.Package, credential string) error {
	logger := ctxlog.FromContext(ctx).With("package", pkg.Name, "registry", r.BaseURL)

	files := make([]string, 0, len(pkg.Contents))
	for _, a := range pkg.Contents {
		name := filepath.Base(a.Path)
		files = append(files, a.TargetID+"/"+name)

		payload, err := os.ReadFile(a.Path)
		if err != nil {
			return fmt.Errorf("reading artifact %s: %w", a.Path, err)
		}
		url := fmt.Sprintf("%s/%s/%s/%s/%s", r.BaseURL, pkg.Name, pkg.Version, a.TargetID, name)
		if err := r.put(ctx, url, "application/octet-stream", payload, credential); err != nil {
			return err
		}
		logger.Debug("Artifact uploaded.", "file", name, "bytes", len(payload))
	}

	body, err := json.Marshal(manifest{
		Name:         pkg.Name,
		Version:      pkg.Version,
		Files:        files,
		OptionalDeps: pkg.OptionalDeps,
	})
	if err != nil {
		return err
	}
	url := fmt.Sprintf("%s/%s/%s", r.BaseURL, pkg.Name, pkg.Version)
	return r.put(ctx, url, "application/json", body, credential)
}

func (r *HTTPRegistry) put(ctx context.Context, url, contentType string, body []byte, credential string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating upload request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+credential)
	req.ContentLength = int64(len(body))

	client := r.Client
	if client == nil {
		client = httpClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("executing upload request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("registry rejected upload with status: %s", resp.Status)
	}
	return nil
}
