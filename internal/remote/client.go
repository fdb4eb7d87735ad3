// Package remote talks to the blog's REST API and server-rendered pages.
package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/yildizm/BlogView/internal/common"
	"github.com/yildizm/BlogView/internal/logger"
)

const maxBodyBytes = 4 << 20

// Config locates the API.
type Config struct {
	// SiteURL is the blog root, used for server-rendered pages.
	SiteURL string
	// PostsURL is the posts collection endpoint, e.g. <site>/v1/posts.
	PostsURL string
	Timeout  time.Duration
}

// Client performs the requests the runtime needs. It holds no state beyond
// the HTTP client and is safe for concurrent use.
type Client struct {
	site   *url.URL
	posts  *url.URL
	client *http.Client
	log    *logger.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the client logger.
func WithLogger(log *logger.Logger) Option {
	return func(c *Client) { c.log = log.WithComponent("remote") }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// New creates a client.
func New(cfg Config, opts ...Option) (*Client, error) {
	site, err := url.Parse(cfg.SiteURL)
	if err != nil || site.Host == "" {
		return nil, fmt.Errorf("invalid site url %q", cfg.SiteURL)
	}
	posts, err := url.Parse(strings.TrimRight(cfg.PostsURL, "/"))
	if err != nil || posts.Host == "" {
		return nil, fmt.Errorf("invalid posts url %q", cfg.PostsURL)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	c := &Client{
		site:   site,
		posts:  posts,
		client: &http.Client{Timeout: timeout},
		log:    logger.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// PostsURL returns the collection endpoint.
func (c *Client) PostsURL() string {
	return c.posts.String()
}

// FetchPosts retrieves the post collection, newest first.
func (c *Client) FetchPosts(ctx context.Context) ([]*common.Model, error) {
	body, err := c.do(ctx, http.MethodGet, c.posts.String(), nil, "application/json")
	if err != nil {
		return nil, err
	}
	models, err := common.DecodeModels(body)
	if err != nil {
		return nil, common.NewRemoteRequestFailed(c.posts.String(), 0, nil, err)
	}
	c.log.InfoWithFields("posts fetched", []logger.Field{logger.Count(len(models))})
	return models, nil
}

// CreateComment posts a form-encoded comment to postURL + "/comments" and
// returns the created record.
func (c *Client) CreateComment(ctx context.Context, postURL string, form url.Values) (*common.Model, error) {
	endpoint := strings.TrimRight(postURL, "/") + "/comments"
	body, err := c.do(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()), "application/json")
	if err != nil {
		return nil, err
	}
	comment, err := common.DecodeModel(body)
	if err != nil {
		return nil, common.NewRemoteRequestFailed(endpoint, 0, nil, err)
	}
	c.log.InfoWithFields("comment created", []logger.Field{logger.F("endpoint", endpoint), logger.F("id", comment.ID)})
	return comment, nil
}

// FetchPage retrieves the server-rendered page for an address-bar path.
func (c *Client) FetchPage(ctx context.Context, path string) (string, error) {
	endpoint := c.site.JoinPath(strings.TrimLeft(path, "/")).String()
	body, err := c.do(ctx, http.MethodGet, endpoint, nil, "text/html")
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, payload io.Reader, accept string) ([]byte, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, method, endpoint, payload)
	if err != nil {
		return nil, common.NewRemoteRequestFailed(endpoint, 0, nil, err)
	}
	req.Header.Set("Accept", accept)
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	if payload != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.log.WarnWithFields("request failed", []logger.Field{logger.F("url", endpoint), logger.Error(err)})
		return nil, common.NewRemoteRequestFailed(endpoint, 0, nil, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, common.NewRemoteRequestFailed(endpoint, resp.StatusCode, nil, err)
	}

	c.log.DebugWithFields("request done", []logger.Field{
		logger.F("method", method),
		logger.F("url", endpoint),
		logger.F("status", resp.StatusCode),
		logger.Duration(time.Since(start)),
	})

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, decodeFailure(endpoint, resp.StatusCode, body)
	}
	return body, nil
}

// decodeFailure turns a non-2xx response into a RemoteRequestFailed error.
// Validation failures arrive as {"field": ["message", ...]}; other errors as
// a bare JSON string.
func decodeFailure(endpoint string, status int, body []byte) error {
	be := common.NewRemoteRequestFailed(endpoint, status, nil, nil)

	var fields map[string][]string
	if err := json.Unmarshal(body, &fields); err == nil && len(fields) > 0 {
		be.Fields = fields
		return be
	}

	var single map[string]string
	if err := json.Unmarshal(body, &single); err == nil && len(single) > 0 {
		be.Fields = make(map[string][]string, len(single))
		for k, v := range single {
			be.Fields[k] = []string{v}
		}
		return be
	}

	var message string
	if err := json.Unmarshal(body, &message); err == nil && message != "" {
		be.Message = message
	}
	return be
}
