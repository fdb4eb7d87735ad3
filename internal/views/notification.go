package views

import (
	"context"
	"fmt"
	"html"

	"github.com/yildizm/BlogView/internal/dom"
	"github.com/yildizm/BlogView/internal/notify"
)

// Notification element states, stored in the "state" attribute.
const (
	StateAttr = "state"
	KindAttr  = "kind"
)

// NotificationView keeps one element per queued notification, oldest at
// the top, and detaches each element when its item is removed.
type NotificationView struct {
	renderer *Renderer
	queue    *notify.Queue
	el       *dom.Element

	// Context is used for rendering items as they are added.
	Context context.Context
}

// NewNotificationView attaches to el and subscribes to queue.
func NewNotificationView(renderer *Renderer, queue *notify.Queue, el *dom.Element) *NotificationView {
	v := &NotificationView{renderer: renderer, queue: queue, el: el, Context: context.Background()}
	queue.Subscribe(v.handle)
	return v
}

// Element returns the notifications container.
func (v *NotificationView) Element() *dom.Element { return v.el }

// Render rebuilds the container from the queue.
func (v *NotificationView) Render(ctx context.Context) error {
	v.el.Empty()
	for _, it := range v.queue.Items() {
		v.el.Append(v.renderItem(ctx, it))
	}
	return nil
}

func (v *NotificationView) handle(ev notify.Event) {
	id := ev.Item.ID.String()
	switch ev.Type {
	case notify.EventAdded:
		v.el.Append(v.renderItem(v.Context, ev.Item))
	case notify.EventFading:
		if child := v.el.Child(id); child != nil {
			child.SetAttr(StateAttr, notify.StateFading.String())
		}
	case notify.EventRemoved:
		v.el.Remove(id)
	}
}

// renderItem renders the notification template, falling back to plain
// markup so a missing template never swallows the message.
func (v *NotificationView) renderItem(ctx context.Context, it notify.Item) *dom.Element {
	el := dom.NewElement(it.ID.String(), "notification")
	el.SetAttr(KindAttr, string(it.Kind))
	el.SetAttr(StateAttr, it.State.String())

	data := map[string]any{
		"type":    string(it.Kind),
		"message": it.Message,
	}
	out, err := v.renderer.Render(ctx, ViewNotification, data)
	if err != nil {
		out = fmt.Sprintf(`<div class="alert alert-%s">%s</div>`, html.EscapeString(string(it.Kind)), html.EscapeString(it.Message))
	}
	el.SetHTML(out)
	return el
}
