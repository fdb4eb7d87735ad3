// Package templates resolves view paths to compiled mustache templates.
//
// Compiled views are cached for the life of the process; partials are
// fetched raw on every use and inlined before data substitution.
package templates

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/yildizm/BlogView/internal/common"
	"github.com/yildizm/BlogView/internal/logger"
)

// Stats receives cache activity.
type Stats interface {
	TemplateHit(view string)
	TemplateMiss(view string)
	PartialFetched(name string)
}

type nopStats struct{}

func (nopStats) TemplateHit(string)    {}
func (nopStats) TemplateMiss(string)   {}
func (nopStats) PartialFetched(string) {}

// Cache maps view paths to compiled templates.
type Cache struct {
	source  Source
	log     *logger.Logger
	stats   Stats
	mu      sync.RWMutex
	entries map[string]*Template
	group   singleflight.Group
}

// Option configures a Cache.
type Option func(*Cache)

// WithLogger sets the cache logger.
func WithLogger(log *logger.Logger) Option {
	return func(c *Cache) { c.log = log.WithComponent("templates") }
}

// WithStats records hits, misses and partial fetches.
func WithStats(stats Stats) Option {
	return func(c *Cache) { c.stats = stats }
}

// NewCache creates an empty cache reading from source.
func NewCache(source Source, opts ...Option) *Cache {
	c := &Cache{
		source:  source,
		log:     logger.Discard(),
		stats:   nopStats{},
		entries: make(map[string]*Template),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Source returns the backing source.
func (c *Cache) Source() Source {
	return c.source
}

// Resolve returns the compiled template for view, fetching and compiling it
// on first use.
func (c *Cache) Resolve(ctx context.Context, view string) (*Template, error) {
	c.mu.RLock()
	tmpl, ok := c.entries[view]
	c.mu.RUnlock()
	if ok {
		c.stats.TemplateHit(view)
		return tmpl, nil
	}

	v, err, _ := c.group.Do(view, func() (interface{}, error) {
		c.mu.RLock()
		cached, ok := c.entries[view]
		c.mu.RUnlock()
		if ok {
			return cached, nil
		}

		c.stats.TemplateMiss(view)
		resource := ResourcePath(view)
		raw, err := c.source.Fetch(ctx, resource)
		if err != nil {
			c.log.WarnWithFields("template fetch failed", []logger.Field{logger.View(view), logger.Error(err)})
			return nil, common.NewTemplateNotFound(view, err)
		}

		compiled, err := Compile(view, raw)
		if err != nil {
			return nil, common.NewTemplateNotFound(view, err)
		}

		c.mu.Lock()
		c.entries[view] = compiled
		c.mu.Unlock()
		c.log.DebugWithFields("template cached", []logger.Field{logger.View(view), logger.F("location", c.source.Location(resource))})
		return compiled, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Template), nil
}

// FetchPartial retrieves a partial's raw markup. Nothing is cached.
func (c *Cache) FetchPartial(ctx context.Context, name string) (string, error) {
	raw, err := c.source.Fetch(ctx, ResourcePath(name))
	if err != nil {
		return "", common.NewTemplateNotFound(name, err)
	}
	c.stats.PartialFetched(name)
	return raw, nil
}

// Render resolves view and executes it with data, inlining partials through
// FetchPartial. It blocks until every partial the pass needs is fetched.
func (c *Cache) Render(ctx context.Context, view string, data any) (string, error) {
	tmpl, err := c.Resolve(ctx, view)
	if err != nil {
		return "", err
	}
	out, err := tmpl.Execute(data, func(name string) (string, error) {
		return c.FetchPartial(ctx, name)
	})
	if err != nil {
		if common.IsTemplateNotFound(err) {
			return "", err
		}
		return "", common.NewTemplateNotFound(view, err)
	}
	return out, nil
}

// Invalidate drops a cached view. Only the template watcher calls this.
func (c *Cache) Invalidate(view string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[view]; !ok {
		return false
	}
	delete(c.entries, view)
	return true
}

// Len returns the number of cached views.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
