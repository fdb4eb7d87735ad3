// Package pager tracks how much of the post collection has been
// materialized and decides when scrolling should materialize more.
package pager

import (
	"github.com/yildizm/BlogView/internal/common"
	"github.com/yildizm/BlogView/internal/dom"
)

const (
	DefaultPerPage = 15
	DefaultMargin  = 50

	// ListenerKey identifies the infinite scroll listener on the window.
	ListenerKey = "infinite-scroll"
)

// Controller is the materialization cursor over a collection.
type Controller struct {
	PerPage    int
	page       int
	collection *common.Collection
}

// NewController creates a cursor at page zero.
func NewController(collection *common.Collection, perPage int) *Controller {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	return &Controller{PerPage: perPage, collection: collection}
}

// Page returns the number of pages handed out since the last reset.
func (c *Controller) Page() int {
	return c.page
}

// Paginate returns the next contiguous slice of the collection and advances
// the cursor. The slice is shorter than PerPage, or empty, once the
// collection is exhausted.
func (c *Controller) Paginate() []*common.Model {
	rest := c.collection.Rest(c.PerPage * c.page)
	if len(rest) > c.PerPage {
		rest = rest[:c.PerPage]
	}
	c.page++
	return rest
}

// Skip advances the cursor without returning models, for pages already
// materialized by someone else.
func (c *Controller) Skip(pages int) {
	if pages > 0 {
		c.page += pages
	}
}

// Reset moves the cursor back to page zero.
func (c *Controller) Reset() {
	c.page = 0
}

// Seek moves the cursor to page, for undoing a Paginate whose models
// could not be materialized.
func (c *Controller) Seek(page int) {
	if page >= 0 {
		c.page = page
	}
}

// Exhausted reports whether the next Paginate would return nothing.
func (c *Controller) Exhausted() bool {
	return c.PerPage*c.page >= c.collection.Len()
}

// Position is the scroll geometry of the main region.
type Position struct {
	ScrollTop      int
	DocumentHeight int
	ViewportHeight int
}

// ShouldLoad reports whether the viewport is within margin of the bottom.
func ShouldLoad(pos Position, margin int) bool {
	return pos.ScrollTop >= pos.DocumentHeight-pos.ViewportHeight-margin
}

// InfiniteScroll binds a load callback to window scroll events.
type InfiniteScroll struct {
	window *dom.Window
	margin int
	load   func()
}

// NewInfiniteScroll creates a disabled binding.
func NewInfiniteScroll(window *dom.Window, margin int, load func()) *InfiniteScroll {
	if margin < 0 {
		margin = DefaultMargin
	}
	return &InfiniteScroll{window: window, margin: margin, load: load}
}

// Enable attaches the scroll listener. Enabling again keeps a single
// listener.
func (s *InfiniteScroll) Enable() {
	s.window.On(dom.EventScroll, ListenerKey, func(payload any) {
		pos, ok := payload.(Position)
		if !ok {
			return
		}
		s.Check(pos)
	})
}

// Disable detaches the scroll listener.
func (s *InfiniteScroll) Disable() {
	s.window.Off(dom.EventScroll, ListenerKey)
}

// Enabled reports whether the listener is attached.
func (s *InfiniteScroll) Enabled() bool {
	return s.window.Listeners(dom.EventScroll) > 0
}

// Check runs the load callback if pos is within the margin.
func (s *InfiniteScroll) Check(pos Position) bool {
	if !ShouldLoad(pos, s.margin) {
		return false
	}
	s.load()
	return true
}
