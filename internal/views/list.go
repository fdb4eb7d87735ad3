package views

import (
	"context"

	"github.com/yildizm/BlogView/internal/common"
	"github.com/yildizm/BlogView/internal/dom"
	"github.com/yildizm/BlogView/internal/pager"
)

// ListRootView is the post list: it owns the pagination cursor, the
// infinite scroll binding and one ItemView per materialized post.
type ListRootView struct {
	renderer   *Renderer
	el         *dom.Element
	collection *common.Collection
	pager      *pager.Controller
	scroll     *pager.InfiniteScroll

	// OnError receives failures from scroll-triggered loads.
	OnError func(error)
	// Context is used for scroll-triggered loads.
	Context context.Context
}

// ListOptions configures a ListRootView.
type ListOptions struct {
	PerPage int
	Margin  int
	Window  *dom.Window
}

// NewListRootView creates the list view over collection, attached to el.
func NewListRootView(renderer *Renderer, el *dom.Element, collection *common.Collection, opts ListOptions) *ListRootView {
	v := &ListRootView{
		renderer:   renderer,
		el:         el,
		collection: collection,
		pager:      pager.NewController(collection, opts.PerPage),
		Context:    context.Background(),
	}
	window := opts.Window
	if window == nil {
		window = dom.NewWindow()
	}
	v.scroll = pager.NewInfiniteScroll(window, opts.Margin, v.loadMore)
	return v
}

// Element returns the attachment point.
func (v *ListRootView) Element() *dom.Element { return v.el }

// Pager returns the materialization cursor.
func (v *ListRootView) Pager() *pager.Controller { return v.pager }

// Scroll returns the infinite scroll binding.
func (v *ListRootView) Scroll() *pager.InfiniteScroll { return v.scroll }

// Render replaces the element's content with the page after the cursor.
func (v *ListRootView) Render(ctx context.Context) error {
	items, err := v.renderPage(ctx)
	if err != nil {
		return err
	}
	v.el.Mount(items...)
	return nil
}

// Reset re-renders the list from the top. When a post fails to render the
// element and the cursor keep their previous state.
func (v *ListRootView) Reset(ctx context.Context) error {
	prev := v.pager.Page()
	v.pager.Reset()
	items, err := v.renderPage(ctx)
	if err != nil {
		v.pager.Seek(prev)
		return err
	}
	v.el.Mount(items...)
	return nil
}

// AddPosts appends one ItemView per model of the next page, in collection
// order, and returns how many were added. Nothing is appended and the
// cursor stays put if any post fails to render.
func (v *ListRootView) AddPosts(ctx context.Context) (int, error) {
	items, err := v.renderPage(ctx)
	if err != nil {
		return 0, err
	}
	for _, el := range items {
		v.el.Append(el)
	}
	return len(items), nil
}

// renderPage renders the next page into detached elements. The cursor only
// advances when every post rendered.
func (v *ListRootView) renderPage(ctx context.Context) ([]*dom.Element, error) {
	page := v.pager.Page()
	models := v.pager.Paginate()
	items := make([]*dom.Element, 0, len(models))
	for _, model := range models {
		item := NewItemView(v.renderer, ViewPostItem, model)
		if err := item.Render(ctx); err != nil {
			v.pager.Seek(page)
			return nil, err
		}
		items = append(items, item.Element())
	}
	return items, nil
}

// EnableInfiniteScroll attaches the scroll listener once.
func (v *ListRootView) EnableInfiniteScroll() {
	v.scroll.Enable()
}

// DisableInfiniteScroll detaches the scroll listener.
func (v *ListRootView) DisableInfiniteScroll() {
	v.scroll.Disable()
}

func (v *ListRootView) loadMore() {
	if v.pager.Exhausted() {
		return
	}
	if _, err := v.AddPosts(v.Context); err != nil && v.OnError != nil {
		v.OnError(err)
	}
}
