package templates

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Extension is the fixed suffix of every markup resource.
const Extension = ".mustache"

// ResourcePath maps a dotted view path to its resource location:
// "comments._comment" -> "comments/_comment.mustache".
func ResourcePath(view string) string {
	return strings.Join(strings.Split(view, "."), "/") + Extension
}

// ViewFromResource is the inverse of ResourcePath for slash-separated paths.
func ViewFromResource(resource string) (string, bool) {
	if !strings.HasSuffix(resource, Extension) {
		return "", false
	}
	trimmed := strings.TrimSuffix(filepath.ToSlash(resource), Extension)
	return strings.ReplaceAll(strings.Trim(trimmed, "/"), "/", "."), true
}

// Source retrieves raw markup for a resource path.
type Source interface {
	Fetch(ctx context.Context, resource string) (string, error)
	Location(resource string) string
}

// HTTPSource reads markup from the blog server.
type HTTPSource struct {
	base   *url.URL
	client *http.Client
}

// NewHTTPSource creates a source rooted at baseURL (e.g. http://host/views/).
func NewHTTPSource(baseURL string, timeout time.Duration) (*HTTPSource, error) {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid template base url: %w", err)
	}
	return &HTTPSource{
		base:   base,
		client: &http.Client{Timeout: timeout},
	}, nil
}

// Location returns the absolute URL of a resource.
func (s *HTTPSource) Location(resource string) string {
	ref := &url.URL{Path: resource}
	return s.base.ResolveReference(ref).String()
}

// Fetch retrieves a resource.
func (s *HTTPSource) Fetch(ctx context.Context, resource string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.Location(resource), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return string(body), nil
}

// DirSource reads markup from a local directory laid out like the server's
// views directory.
type DirSource struct {
	root string
}

// NewDirSource creates a source rooted at dir.
func NewDirSource(dir string) *DirSource {
	return &DirSource{root: dir}
}

// Root returns the directory the source reads from.
func (s *DirSource) Root() string {
	return s.root
}

// Location returns the file path of a resource.
func (s *DirSource) Location(resource string) string {
	return filepath.Join(s.root, filepath.FromSlash(resource))
}

// Fetch reads a resource from disk.
func (s *DirSource) Fetch(_ context.Context, resource string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(resource))
	if strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("resource escapes template root: %s", resource)
	}
	// #nosec G304 - resource is confined to the configured root above
	data, err := os.ReadFile(filepath.Join(s.root, clean))
	if err != nil {
		return "", fmt.Errorf("failed to read template: %w", err)
	}
	return string(data), nil
}
