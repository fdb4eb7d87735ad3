package formatter

import (
	"strings"
	"time"

	"github.com/yildizm/BlogView/internal/app"
	"github.com/yildizm/BlogView/internal/common"
	"github.com/yildizm/BlogView/internal/markup"
	"github.com/yildizm/BlogView/internal/monitor"
	"github.com/yildizm/BlogView/internal/router"
)

// Page is a settled snapshot of the runtime, the unit every formatter
// writes.
type Page struct {
	Route         string               `json:"route"`
	Path          string               `json:"path"`
	URL           string               `json:"url"`
	CapturedAt    time.Time            `json:"captured_at"`
	Posts         []PostOutput         `json:"posts,omitempty"`
	TotalPosts    int                  `json:"total_posts"`
	Post          *PostOutput          `json:"post,omitempty"`
	Text          string               `json:"text"`
	Links         []LinkOutput         `json:"links,omitempty"`
	Notifications []NotificationOutput `json:"notifications,omitempty"`
	Session       *monitor.Snapshot    `json:"session,omitempty"`
}

// PostOutput summarizes one post
type PostOutput struct {
	ID       int             `json:"id"`
	Title    string          `json:"title"`
	URL      string          `json:"url"`
	Body     string          `json:"body,omitempty"`
	Comments []CommentOutput `json:"comments,omitempty"`
	Count    int             `json:"comment_count"`
}

// CommentOutput is one comment, newest first
type CommentOutput struct {
	ID      int    `json:"id"`
	Author  string `json:"author"`
	Content string `json:"content"`
}

// LinkOutput is an activatable link in the main region
type LinkOutput struct {
	Text   string `json:"text"`
	Href   string `json:"href"`
	Bypass bool   `json:"bypass,omitempty"`
}

// NotificationOutput is a queued notification
type NotificationOutput struct {
	ID      string `json:"id"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
	State   string `json:"state"`
}

// Capture snapshots rt. In list mode Posts holds the materialized page
// range; in single mode Post holds the open post with its comments.
func Capture(rt *app.Runtime) *Page {
	state := rt.State()
	collection := rt.Collection()
	page := &Page{
		Route:      state.String(),
		Path:       state.Path,
		CapturedAt: time.Now(),
		TotalPosts: collection.Len(),
		Text:       markup.Text(rt.Main().HTML()),
	}
	if h := rt.Router().History(); h != nil {
		page.URL = h.URL()
	}

	if state.Mode == router.ModeSingle {
		if model, ok := collection.Get(state.ID); ok {
			post := postOutput(collection, model)
			for _, c := range model.Comments {
				post.Comments = append(post.Comments, CommentOutput{
					ID:      c.ID,
					Author:  c.String("author_name"),
					Content: c.String("content"),
				})
			}
			page.Post = &post
		}
	} else {
		controller := rt.List().Pager()
		shown := min(controller.Page()*controller.PerPage, collection.Len())
		for _, model := range collection.Models()[:shown] {
			page.Posts = append(page.Posts, postOutput(collection, model))
		}
	}

	for _, l := range rt.Links() {
		page.Links = append(page.Links, LinkOutput{Text: l.Text, Href: l.Href, Bypass: l.Bypass})
	}
	for _, it := range rt.Queue().Items() {
		page.Notifications = append(page.Notifications, NotificationOutput{
			ID:      it.ID.String(),
			Kind:    string(it.Kind),
			Message: it.Message,
			State:   it.State.String(),
		})
	}
	return page
}

func postOutput(collection *common.Collection, m *common.Model) PostOutput {
	return PostOutput{
		ID:    m.ID,
		Title: m.String("title"),
		URL:   collection.ModelURL(m),
		Body:  strings.TrimSpace(m.String("content")),
		Count: len(m.Comments),
	}
}
