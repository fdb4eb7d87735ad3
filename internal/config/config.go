package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config holds the complete application configuration
type Config struct {
	Version       string              `yaml:"version" json:"version"`
	Site          SiteConfig          `yaml:"site" json:"site"`
	API           APIConfig           `yaml:"api" json:"api"`
	Templates     TemplateConfig      `yaml:"templates" json:"templates"`
	Blog          BlogConfig          `yaml:"blog" json:"blog"`
	Notifications NotificationsConfig `yaml:"notifications" json:"notifications"`
	Router        RouterConfig        `yaml:"router" json:"router"`
	Output        OutputConfig        `yaml:"output" json:"output"`
}

// SiteConfig locates the blog server
type SiteConfig struct {
	URL string `yaml:"url" json:"url" validate:"required,url"` // site root; API and views hang off it
}

// APIConfig configures the REST client
type APIConfig struct {
	Prefix  string        `yaml:"prefix" json:"prefix"`                      // API version prefix, e.g. v1
	Timeout time.Duration `yaml:"timeout" json:"timeout" validate:"gt=0"` // request timeout
}

// TemplateConfig configures where markup resources come from
type TemplateConfig struct {
	BaseURL string `yaml:"base_url" json:"base_url" validate:"omitempty,url"` // defaults to <site>/views/
	Dir     string `yaml:"dir" json:"dir"`                                    // local directory instead of HTTP
	Watch   bool   `yaml:"watch" json:"watch"`                                // drop cached entries when local files change
}

// BlogConfig configures the list view
type BlogConfig struct {
	PerPage        int  `yaml:"per_page" json:"per_page" validate:"gte=1"`
	InfiniteScroll bool `yaml:"infinite_scroll" json:"infinite_scroll"`
	PrefetchMargin int  `yaml:"prefetch_margin" json:"prefetch_margin" validate:"gte=0"`
}

// NotificationsConfig configures transient messages
type NotificationsConfig struct {
	Delay time.Duration `yaml:"delay" json:"delay" validate:"gt=0"` // auto-dismiss delay
	Fade  time.Duration `yaml:"fade" json:"fade" validate:"gte=0"`  // fade-out before detach
}

// RouterConfig configures history tracking
type RouterConfig struct {
	Root   string `yaml:"root" json:"root"`
	Silent bool   `yaml:"silent" json:"silent"` // skip dispatching the start path
}

// OutputConfig configures output formatting and display
type OutputConfig struct {
	Format  string `yaml:"format" json:"format" validate:"omitempty,oneof=text json markdown csv"`
	Theme   string `yaml:"theme" json:"theme" validate:"omitempty,oneof=default high-contrast minimal"`
	Verbose bool   `yaml:"verbose" json:"verbose"`
	LogFile string `yaml:"log_file" json:"log_file"`
	Mouse   bool   `yaml:"mouse" json:"mouse"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Version: "1.0",
		Site: SiteConfig{
			URL: "http://localhost:8000/",
		},
		API: APIConfig{
			Prefix:  "v1",
			Timeout: 10 * time.Second,
		},
		Templates: TemplateConfig{
			Watch: false,
		},
		Blog: BlogConfig{
			PerPage:        15,
			InfiniteScroll: true,
			PrefetchMargin: 50,
		},
		Notifications: NotificationsConfig{
			Delay: 5 * time.Second,
			Fade:  400 * time.Millisecond,
		},
		Router: RouterConfig{
			Root:   "/",
			Silent: true,
		},
		Output: OutputConfig{
			Format: "text",
			Theme:  "default",
			Mouse:  true,
		},
	}
}

// PostsURL returns the collection endpoint, e.g. http://host/v1/posts
func (c *Config) PostsURL() string {
	return joinURL(c.Site.URL, c.API.Prefix, "posts")
}

// ViewsURL returns the markup base URL
func (c *Config) ViewsURL() string {
	if c.Templates.BaseURL != "" {
		return strings.TrimRight(c.Templates.BaseURL, "/") + "/"
	}
	return joinURL(c.Site.URL, "views") + "/"
}

func joinURL(base string, parts ...string) string {
	out := strings.TrimRight(base, "/")
	for _, p := range parts {
		p = strings.Trim(p, "/")
		if p != "" {
			out += "/" + p
		}
	}
	return out
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return describeValidation(err)
	}
	if err := c.validateSite(); err != nil {
		return err
	}
	if c.Templates.Watch && c.Templates.Dir == "" {
		return fmt.Errorf("templates.watch requires templates.dir")
	}
	return nil
}

// validateSite rejects site URLs that are not absolute http(s) URLs
func (c *Config) validateSite() error {
	u, err := url.Parse(c.Site.URL)
	if err != nil {
		return fmt.Errorf("invalid site url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid site url scheme: %s (must be http or https)", u.Scheme)
	}
	return nil
}

func describeValidation(err error) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.TrimPrefix(fe.Namespace(), "Config.")
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s failed %s=%s", field, fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s failed %s", field, fe.Tag()))
		}
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
}
