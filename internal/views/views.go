// Package views renders blog data into dom elements through the template
// cache. Each variant owns one attachment point and fully replaces its
// content on every Render.
package views

import (
	"context"
	"fmt"

	"github.com/yildizm/BlogView/internal/common"
	"github.com/yildizm/BlogView/internal/dom"
	"github.com/yildizm/BlogView/internal/logger"
	"github.com/yildizm/BlogView/internal/templates"
)

// View paths.
const (
	ViewPostItem     = "posts._post"
	ViewPostShow     = "posts.show"
	ViewComment      = "comments._comment"
	ViewNotification = "layouts._notification"
)

// Roles marking regions inside rendered markup.
const (
	RoleMain          = "main"
	RoleComments      = "comments"
	RoleNotifications = "notifications"
)

// View is the capability every variant shares.
type View interface {
	Render(ctx context.Context) error
	Element() *dom.Element
}

// Renderer is the rendering helper views compose.
type Renderer struct {
	cache *templates.Cache
	log   *logger.Logger
}

// NewRenderer creates a renderer over cache.
func NewRenderer(cache *templates.Cache, log *logger.Logger) *Renderer {
	if log == nil {
		log = logger.Discard()
	}
	return &Renderer{cache: cache, log: log.WithComponent("views")}
}

// Render executes view with data. Partials are inlined before substitution.
func (r *Renderer) Render(ctx context.Context, view string, data any) (string, error) {
	out, err := r.cache.Render(ctx, view, data)
	if err != nil {
		r.log.WarnWithFields("render failed", []logger.Field{logger.View(view), logger.Error(err)})
		return "", err
	}
	return out, nil
}

// ItemView renders one model with a partial view.
type ItemView struct {
	renderer *Renderer
	view     string
	model    *common.Model
	el       *dom.Element
}

// NewItemView creates an item view with its own detached element.
func NewItemView(renderer *Renderer, view string, model *common.Model) *ItemView {
	el := dom.NewElement(fmt.Sprintf("%s:%d", view, model.ID), view)
	return &ItemView{renderer: renderer, view: view, model: model, el: el}
}

// Element returns the attachment point.
func (v *ItemView) Element() *dom.Element { return v.el }

// Model returns the bound model.
func (v *ItemView) Model() *common.Model { return v.model }

// Render replaces the element's content with the rendered model.
func (v *ItemView) Render(ctx context.Context) error {
	out, err := v.renderer.Render(ctx, v.view, v.model.TemplateData())
	if err != nil {
		return err
	}
	v.el.SetHTML(out)
	return nil
}
