package views

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/yildizm/BlogView/internal/common"
	"github.com/yildizm/BlogView/internal/dom"
	"github.com/yildizm/BlogView/internal/notify"
	"github.com/yildizm/BlogView/internal/pager"
	"github.com/yildizm/BlogView/internal/templates"
)

type mapSource map[string]string

func (s mapSource) Fetch(_ context.Context, resource string) (string, error) {
	raw, ok := s[resource]
	if !ok {
		return "", errors.New("not found")
	}
	return raw, nil
}

func (s mapSource) Location(resource string) string { return resource }

func blogTemplates() mapSource {
	return mapSource{
		"posts/_post.mustache":           `<article><h2><a href="/posts/{{id}}">{{title}}</a></h2></article>`,
		"posts/show.mustache":            `<article><h1>{{post.title}}</h1><ul data-role="comments">{{#post.comments}}{{> comments._comment}}{{/post.comments}}</ul><form method="POST"><input type="text" name="author_name"><textarea name="content"></textarea><input type="submit" value="Post"></form></article>`,
		"comments/_comment.mustache":     `<li>{{author_name}}: {{content}}</li>`,
		"layouts/_notification.mustache": `<div class="alert alert-{{type}}">{{message}}</div>`,
	}
}

func newRenderer(src templates.Source) *Renderer {
	return NewRenderer(templates.NewCache(src), nil)
}

func newPosts(n int) *common.Collection {
	models := make([]*common.Model, 0, n)
	for i := 1; i <= n; i++ {
		models = append(models, common.NewModel(map[string]any{
			"id":    float64(i),
			"title": fmt.Sprintf("Post %d", i),
		}))
	}
	c := common.NewCollection("http://blog.test/v1/posts")
	c.Reset(models)
	return c
}

func TestItemViewRenderReplacesContent(t *testing.T) {
	model := common.NewModel(map[string]any{"id": float64(3), "title": "Three"})
	item := NewItemView(newRenderer(blogTemplates()), ViewPostItem, model)

	for i := 0; i < 2; i++ {
		if err := item.Render(context.Background()); err != nil {
			t.Fatalf("Render failed: %v", err)
		}
	}
	want := `<article><h2><a href="/posts/3">Three</a></h2></article>`
	if got := item.Element().HTML(); got != want {
		t.Errorf("Expected %s, got %s", want, got)
	}
}

func TestListRootViewPaginates(t *testing.T) {
	main := dom.NewElement("main", RoleMain)
	list := NewListRootView(newRenderer(blogTemplates()), main, newPosts(20), ListOptions{PerPage: 15})

	if err := list.Render(context.Background()); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if main.Len() != 15 {
		t.Fatalf("Expected 15 posts, got %d", main.Len())
	}

	added, err := list.AddPosts(context.Background())
	if err != nil || added != 5 {
		t.Fatalf("Expected 5 more posts, got %d (%v)", added, err)
	}
	children := main.Children()
	for i, child := range children {
		if want := fmt.Sprintf("posts._post:%d", i+1); child.ID != want {
			t.Fatalf("Expected collection order, position %d is %s", i, child.ID)
		}
	}

	if err := list.Reset(context.Background()); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if main.Len() != 15 || main.Children()[0].ID != "posts._post:1" {
		t.Errorf("Expected list restarted from the top, got %d items", main.Len())
	}
	if list.Pager().Page() != 1 {
		t.Errorf("Expected one page materialized after reset, got %d", list.Pager().Page())
	}
}

func TestListRootViewResetFailureKeepsContent(t *testing.T) {
	src := blogTemplates()
	cache := templates.NewCache(src)
	main := dom.NewElement("main", RoleMain)
	list := NewListRootView(NewRenderer(cache, nil), main, newPosts(20), ListOptions{PerPage: 15})
	if err := list.Render(context.Background()); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	before := main.HTML()

	delete(src, "posts/_post.mustache")
	cache.Invalidate(ViewPostItem)

	if _, err := list.AddPosts(context.Background()); !common.IsTemplateNotFound(err) {
		t.Fatalf("Expected TemplateNotFound from AddPosts, got %v", err)
	}
	if err := list.Reset(context.Background()); !common.IsTemplateNotFound(err) {
		t.Fatalf("Expected TemplateNotFound from Reset, got %v", err)
	}
	if main.HTML() != before || main.Len() != 15 {
		t.Errorf("Expected rendered posts kept, got %d items", main.Len())
	}
	if list.Pager().Page() != 1 {
		t.Errorf("Expected cursor left at page 1, got %d", list.Pager().Page())
	}
}

func TestListRootViewInfiniteScroll(t *testing.T) {
	window := dom.NewWindow()
	main := dom.NewElement("main", RoleMain)
	list := NewListRootView(newRenderer(blogTemplates()), main, newPosts(40), ListOptions{PerPage: 15, Margin: pager.DefaultMargin, Window: window})
	_ = list.Render(context.Background())

	list.EnableInfiniteScroll()
	list.EnableInfiniteScroll()

	window.Trigger(dom.EventScroll, pager.Position{ScrollTop: 749, DocumentHeight: 1000, ViewportHeight: 200})
	if main.Len() != 15 {
		t.Fatalf("Expected no load outside the margin, got %d", main.Len())
	}
	window.Trigger(dom.EventScroll, pager.Position{ScrollTop: 750, DocumentHeight: 1000, ViewportHeight: 200})
	if main.Len() != 30 {
		t.Fatalf("Expected exactly one page added, got %d", main.Len())
	}

	list.DisableInfiniteScroll()
	if window.Listeners(dom.EventScroll) != 0 {
		t.Fatal("Expected listener removed")
	}
	window.Trigger(dom.EventScroll, pager.Position{ScrollTop: 1000, DocumentHeight: 1000, ViewportHeight: 200})
	if main.Len() != 30 {
		t.Errorf("Expected no loads while disabled, got %d", main.Len())
	}
}

func TestListRootViewScrollErrorReported(t *testing.T) {
	src := blogTemplates()
	delete(src, "posts/_post.mustache")
	window := dom.NewWindow()
	list := NewListRootView(newRenderer(src), dom.NewElement("main", RoleMain), newPosts(3), ListOptions{Window: window})

	var reported error
	list.OnError = func(err error) { reported = err }
	list.EnableInfiniteScroll()
	window.Trigger(dom.EventScroll, pager.Position{ScrollTop: 0, DocumentHeight: 10, ViewportHeight: 10})

	if !common.IsTemplateNotFound(reported) {
		t.Errorf("Expected TemplateNotFound reported, got %v", reported)
	}
}

// flakySource fails the next fetches of a resource a set number of times.
type flakySource struct {
	mapSource
	fail map[string]int
}

func (s *flakySource) Fetch(ctx context.Context, resource string) (string, error) {
	if s.fail[resource] > 0 {
		s.fail[resource]--
		return "", errors.New("unavailable")
	}
	return s.mapSource.Fetch(ctx, resource)
}

func newDetail(t *testing.T) (*DetailView, *notify.Queue, *common.Model) {
	t.Helper()
	return newDetailFrom(t, blogTemplates())
}

func newDetailFrom(t *testing.T, src templates.Source) (*DetailView, *notify.Queue, *common.Model) {
	t.Helper()
	queue := notify.NewQueue(notify.Options{})
	post := common.NewModel(map[string]any{
		"id":    float64(1),
		"title": "Hello",
		"comments": []any{
			map[string]any{"id": float64(4), "content": "older", "author_name": "B"},
		},
	})
	detail := NewDetailView(newRenderer(src), queue, dom.NewElement("main", RoleMain))
	detail.Bind(post, "http://blog.test/v1/posts/1")
	if err := detail.Render(context.Background()); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	return detail, queue, post
}

func TestDetailViewRender(t *testing.T) {
	detail, _, _ := newDetail(t)

	comments := detail.Comments()
	if comments == nil {
		t.Fatal("Expected a comments region")
	}
	if comments.HTML() != "<li>B: older</li>" {
		t.Errorf("Unexpected comments markup %q", comments.HTML())
	}
	if !strings.Contains(detail.Element().HTML(), "<h1>Hello</h1>") {
		t.Errorf("Expected post title rendered, got %s", detail.Element().HTML())
	}

	form := detail.Form()
	if form == nil || len(form.Fields) != 2 {
		t.Fatalf("Expected a two-field form, got %+v", form)
	}
}

func TestDetailViewSubmitSuccess(t *testing.T) {
	detail, queue, post := newDetail(t)

	detail.SetField("content", "hi")
	detail.SetField("author_name", "A")

	req, err := detail.Submit()
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if req.Endpoint() != "http://blog.test/v1/posts/1/comments" || req.PostID != 1 {
		t.Errorf("Unexpected request %+v", req)
	}
	if req.Form.Get("content") != "hi" || req.Form.Get("author_name") != "A" {
		t.Errorf("Unexpected form values %v", req.Form)
	}

	before := detail.Comments().HTML()
	created := common.NewModel(map[string]any{"id": float64(9), "post_id": float64(1), "content": "hi", "author_name": "A"})
	if err := detail.CommentAdded(context.Background(), post, created, true); err != nil {
		t.Fatalf("CommentAdded failed: %v", err)
	}

	if got := detail.Comments().HTML(); got != "<li>A: hi</li>"+before {
		t.Errorf("Expected one new comment at the top, got %q", got)
	}
	if top := detail.Comments().Children()[0]; top.ID != "comments._comment:9" {
		t.Errorf("Expected new comment first, got %s", top.ID)
	}
	for _, f := range detail.Form().Fields {
		if f.Value != "" {
			t.Errorf("Expected field %s cleared, got %q", f.Name, f.Value)
		}
	}
	if len(post.Comments) != 2 || post.Comments[0].ID != 9 {
		t.Errorf("Expected model comments prepended, got %+v", post.Comments)
	}

	items := queue.Items()
	if len(items) != 1 || items[0].Kind != notify.KindSuccess || items[0].Message != CommentAddedMessage {
		t.Errorf("Expected exactly one success notification, got %+v", items)
	}
}

func TestDetailViewCommentRenderFallsBackToPost(t *testing.T) {
	src := &flakySource{mapSource: blogTemplates(), fail: map[string]int{}}
	detail, queue, post := newDetailFrom(t, src)
	detail.SetField("content", "hi")

	src.fail["comments/_comment.mustache"] = 1
	created := common.NewModel(map[string]any{"id": float64(9), "content": "hi", "author_name": "A"})
	if err := detail.CommentAdded(context.Background(), post, created, true); err != nil {
		t.Fatalf("CommentAdded failed: %v", err)
	}

	if got := detail.Comments().HTML(); got != "<li>A: hi</li><li>B: older</li>" {
		t.Errorf("Expected post re-rendered with the new comment, got %q", got)
	}
	if detail.Values().Get("content") != "" {
		t.Error("Expected a fresh form after re-render")
	}
	items := queue.Items()
	if len(items) != 1 || items[0].Kind != notify.KindSuccess {
		t.Errorf("Expected exactly one success notification, got %+v", items)
	}
}

func TestDetailViewCommentRenderFailure(t *testing.T) {
	src := blogTemplates()
	detail, queue, post := newDetailFrom(t, src)
	detail.SetField("content", "hi")
	before := detail.Element().HTML()

	delete(src, "comments/_comment.mustache")
	created := common.NewModel(map[string]any{"id": float64(9), "content": "hi", "author_name": "A"})
	err := detail.CommentAdded(context.Background(), post, created, true)
	if !common.IsTemplateNotFound(err) {
		t.Fatalf("Expected TemplateNotFound, got %v", err)
	}

	if detail.Element().HTML() != before {
		t.Error("Expected the view untouched")
	}
	if len(post.Comments) != 2 || post.Comments[0].ID != 9 {
		t.Error("Expected the stored comment kept on the model")
	}
	if detail.Values().Get("content") != "hi" {
		t.Error("Expected the draft kept")
	}
	if queue.Len() != 0 {
		t.Errorf("Expected no success notification, got %+v", queue.Items())
	}
}

func TestDetailViewSubmitValidation(t *testing.T) {
	detail, _, _ := newDetail(t)
	detail.SetField("content", "  ")

	_, err := detail.Submit()
	if !common.IsInvalidInput(err) {
		t.Fatalf("Expected invalid input, got %v", err)
	}
	want := "The author name field is required. The content field is required."
	if got := common.UserMessage(err); got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestDetailViewCommentFailed(t *testing.T) {
	detail, queue, post := newDetail(t)
	before := detail.Comments().HTML()

	detail.CommentFailed(common.NewRemoteRequestFailed("u", 500, nil, nil))

	if detail.Comments().HTML() != before || len(post.Comments) != 1 {
		t.Error("Expected no comment added on failure")
	}
	items := queue.Items()
	if len(items) != 1 || items[0].Kind != notify.KindError {
		t.Errorf("Expected exactly one error notification, got %+v", items)
	}
}

func TestDetailViewStaleCommentSkipsDOM(t *testing.T) {
	detail, queue, post := newDetail(t)
	detail.SetField("content", "draft")
	before := detail.Element().HTML()

	created := common.NewModel(map[string]any{"id": float64(10), "content": "late", "author_name": "C"})
	if err := detail.CommentAdded(context.Background(), post, created, false); err != nil {
		t.Fatalf("CommentAdded failed: %v", err)
	}
	if detail.Element().HTML() != before {
		t.Error("Expected DOM untouched for a stale response")
	}
	if detail.Values().Get("content") != "draft" {
		t.Error("Expected form left alone for a stale response")
	}
	if post.Comments[0].ID != 10 || queue.Len() != 1 {
		t.Error("Expected model updated and success notified")
	}
}

func TestNotificationView(t *testing.T) {
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	queue := notify.NewQueue(notify.Options{Now: func() time.Time { return now }})
	container := dom.NewElement("notifications", RoleNotifications)
	NewNotificationView(newRenderer(blogTemplates()), queue, container)

	first := queue.Add(notify.KindSuccess, "Comment Added!")
	second := queue.Add(notify.KindError, "404: Page Not Found")

	if container.Len() != 2 {
		t.Fatalf("Expected two elements, got %d", container.Len())
	}
	if container.Children()[0].ID != first.ID.String() || container.Children()[1].ID != second.ID.String() {
		t.Error("Expected oldest at the top")
	}
	if got := container.Children()[0].HTML(); got != `<div class="alert alert-success">Comment Added!</div>` {
		t.Errorf("Unexpected notification markup %q", got)
	}

	queue.Dismiss(first.ID)
	if container.Child(first.ID.String()).Attr(StateAttr) != "fading" {
		t.Error("Expected fading state on element")
	}
	queue.Detach(first.ID)
	queue.Detach(first.ID)
	if container.Len() != 1 || container.Child(first.ID.String()) != nil {
		t.Errorf("Expected element detached once, %d left", container.Len())
	}
}

func TestNotificationViewFallback(t *testing.T) {
	queue := notify.NewQueue(notify.Options{})
	container := dom.NewElement("notifications", RoleNotifications)
	NewNotificationView(newRenderer(mapSource{}), queue, container)

	queue.Add(notify.KindError, "Could not load <view>")
	want := `<div class="alert alert-error">Could not load &lt;view&gt;</div>`
	if got := container.Children()[0].HTML(); got != want {
		t.Errorf("Expected fallback %q, got %q", want, got)
	}
}
