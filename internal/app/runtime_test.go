package app

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/yildizm/BlogView/internal/common"
	"github.com/yildizm/BlogView/internal/dom"
	"github.com/yildizm/BlogView/internal/markup"
	"github.com/yildizm/BlogView/internal/notify"
	"github.com/yildizm/BlogView/internal/pager"
	"github.com/yildizm/BlogView/internal/router"
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
		"posts/show.mustache":            `<article><h1>{{post.title}}</h1><a href="/" data-bypass>Home</a><ul data-role="comments">{{#post.comments}}{{> comments._comment}}{{/post.comments}}</ul><form><input type="text" name="author_name"><textarea name="content"></textarea></form></article>`,
		"comments/_comment.mustache":     `<li>{{author_name}}: {{content}}</li>`,
		"layouts/_notification.mustache": `<div class="alert alert-{{type}}">{{message}}</div>`,
	}
}

type fakeRemote struct {
	posts      []*common.Model
	postsErr   error
	page       string
	pageErr    error
	comment    *common.Model
	commentErr error

	pagePaths []string
	comments  []url.Values
}

func (f *fakeRemote) FetchPosts(context.Context) ([]*common.Model, error) {
	return f.posts, f.postsErr
}

func (f *fakeRemote) CreateComment(_ context.Context, postURL string, form url.Values) (*common.Model, error) {
	f.comments = append(f.comments, form)
	if f.commentErr != nil {
		return nil, f.commentErr
	}
	return f.comment, nil
}

func (f *fakeRemote) FetchPage(_ context.Context, path string) (string, error) {
	f.pagePaths = append(f.pagePaths, path)
	return f.page, f.pageErr
}

func makePosts(n int) []*common.Model {
	posts := make([]*common.Model, 0, n)
	for i := 1; i <= n; i++ {
		posts = append(posts, common.NewModel(map[string]any{
			"id":    float64(i),
			"title": fmt.Sprintf("Post %d", i),
		}))
	}
	return posts
}

// deferredScheduler holds work until flushed so tests can interleave
// responses with navigation.
type deferredScheduler struct {
	*SyncScheduler
	work []func() func()
}

func (s *deferredScheduler) Go(work func() func()) {
	s.work = append(s.work, work)
}

func (s *deferredScheduler) Flush() {
	for len(s.work) > 0 {
		next := s.work[0]
		s.work = s.work[1:]
		if apply := next(); apply != nil {
			apply()
		}
	}
}

type harness struct {
	rt     *Runtime
	remote *fakeRemote
	sched  *SyncScheduler
	start  time.Time
}

func newHarness(t *testing.T, remote *fakeRemote, sched Scheduler, silent bool) *harness {
	t.Helper()
	return newHarnessWithTemplates(t, remote, sched, silent, blogTemplates())
}

func newHarnessWithTemplates(t *testing.T, remote *fakeRemote, sched Scheduler, silent bool, src templates.Source) *harness {
	t.Helper()
	h := &harness{remote: remote, start: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	switch s := sched.(type) {
	case *SyncScheduler:
		h.sched = s
	case *deferredScheduler:
		h.sched = s.SyncScheduler
	}
	queue := notify.NewQueue(notify.Options{
		Delay: 5 * time.Second,
		Fade:  400 * time.Millisecond,
		Now:   func() time.Time { return h.start.Add(h.sched.Elapsed()) },
	})
	h.rt = New(context.Background(), Options{
		Root:           "/",
		Silent:         silent,
		SiteURL:        "http://blog.test/",
		PostsURL:       "http://blog.test/v1/posts",
		PerPage:        15,
		InfiniteScroll: true,
		Margin:         pager.DefaultMargin,
	}, remote, templates.NewCache(src), queue, sched)
	return h
}

func errorMessages(q *notify.Queue) []string {
	var out []string
	for _, it := range q.Items() {
		if it.Kind == notify.KindError {
			out = append(out, it.Message)
		}
	}
	return out
}

func TestStartSilentMountsFirstPaint(t *testing.T) {
	remote := &fakeRemote{
		posts: makePosts(20),
		page:  `<html><body><div class="navbar"></div><div class="container" data-role="main"><article>server page</article></div></body></html>`,
	}
	h := newHarness(t, remote, NewSyncScheduler(), true)

	if err := h.rt.Start(""); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if got := h.rt.Main().HTML(); got != "<article>server page</article>" {
		t.Errorf("Expected server main region mounted, got %q", got)
	}
	if h.rt.List().Pager().Page() != 1 {
		t.Errorf("Expected first page counted as materialized, got %d", h.rt.List().Pager().Page())
	}
	if h.rt.Window().Listeners(dom.EventScroll) != 1 {
		t.Error("Expected infinite scroll enabled")
	}

	h.rt.Scroll(pager.Position{ScrollTop: 100, DocumentHeight: 120, ViewportHeight: 20})
	children := h.rt.Main().Children()
	if len(children) != 6 || children[1].ID != "posts._post:16" {
		t.Errorf("Expected second page appended after server markup, got %d children", len(children))
	}
}

func TestStartNotSilentRendersList(t *testing.T) {
	remote := &fakeRemote{posts: makePosts(3)}
	h := newHarness(t, remote, NewSyncScheduler(), false)

	if err := h.rt.Start(""); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if len(remote.pagePaths) != 0 {
		t.Error("Expected no first paint fetch without a silent router")
	}
	if h.rt.Main().Len() != 3 {
		t.Errorf("Expected 3 rendered posts, got %d", h.rt.Main().Len())
	}
}

func TestStartTwiceFails(t *testing.T) {
	h := newHarness(t, &fakeRemote{}, NewSyncScheduler(), false)
	_ = h.rt.Start("")
	if err := h.rt.Start(""); !errors.Is(err, router.ErrAlreadyStarted) {
		t.Errorf("Expected ErrAlreadyStarted, got %v", err)
	}
}

func TestStartSilentDetailRendersFromTemplate(t *testing.T) {
	remote := &fakeRemote{
		posts: makePosts(2),
		page:  `<div data-role="main">server detail</div>`,
	}
	h := newHarness(t, remote, NewSyncScheduler(), true)

	_ = h.rt.Start("posts/2")
	if !strings.Contains(h.rt.Main().HTML(), "<h1>Post 2</h1>") {
		t.Errorf("Expected detail view rendered, got %q", h.rt.Main().HTML())
	}
	if h.rt.Detail().Form() == nil {
		t.Error("Expected comment form bound")
	}
}

func TestFirstPaintFailureFallsBackToList(t *testing.T) {
	remote := &fakeRemote{posts: makePosts(2), pageErr: errors.New("offline")}
	h := newHarness(t, remote, NewSyncScheduler(), true)

	_ = h.rt.Start("")
	if h.rt.Main().Len() != 2 {
		t.Errorf("Expected list rendered from templates, got %q", h.rt.Main().HTML())
	}
}

func TestFetchPostsFailureReported(t *testing.T) {
	remote := &fakeRemote{postsErr: common.NewRemoteRequestFailed("u", 0, nil, errors.New("refused"))}
	h := newHarness(t, remote, NewSyncScheduler(), false)

	_ = h.rt.Start("")
	if msgs := errorMessages(h.rt.Queue()); len(msgs) != 1 || msgs[0] != "Could not reach the blog server" {
		t.Errorf("Expected one error notification, got %v", msgs)
	}
}

func TestNavigateListAndDetail(t *testing.T) {
	h := newHarness(t, &fakeRemote{posts: makePosts(40)}, NewSyncScheduler(), false)
	_ = h.rt.Start("")
	_, _ = h.rt.List().AddPosts(context.Background())
	if h.rt.Main().Len() != 30 {
		t.Fatalf("Expected 30 posts, got %d", h.rt.Main().Len())
	}

	if err := h.rt.Navigate("posts/3"); err != nil {
		t.Fatalf("Navigate failed: %v", err)
	}
	if h.rt.State().String() != "single:3" {
		t.Errorf("Unexpected state %s", h.rt.State())
	}
	if h.rt.Window().Listeners(dom.EventScroll) != 0 {
		t.Error("Expected infinite scroll disabled on the detail view")
	}

	if err := h.rt.Navigate(""); err != nil {
		t.Fatalf("Navigate failed: %v", err)
	}
	if h.rt.List().Pager().Page() != 1 || h.rt.Main().Len() != 15 {
		t.Errorf("Expected list reset to the first page, got page %d with %d items", h.rt.List().Pager().Page(), h.rt.Main().Len())
	}
	if h.rt.Main().Children()[0].ID != "posts._post:1" {
		t.Error("Expected list restarted from the top")
	}
	if h.rt.Window().Listeners(dom.EventScroll) != 1 {
		t.Error("Expected infinite scroll re-enabled")
	}
}

func TestNavigateMissingModelLeavesViewUnchanged(t *testing.T) {
	h := newHarness(t, &fakeRemote{posts: makePosts(3)}, NewSyncScheduler(), false)
	_ = h.rt.Start("")
	before := h.rt.Main().HTML()

	err := h.rt.Navigate("posts/5")
	if !common.IsModelNotInMemory(err) {
		t.Fatalf("Expected ModelNotInMemory, got %v", err)
	}
	if h.rt.Main().HTML() != before {
		t.Error("Expected the rendered view unchanged")
	}
	if h.rt.State().Mode != router.ModeList || h.rt.Router().History().URL() != "/" {
		t.Errorf("Expected address bar unchanged, got %s", h.rt.Router().History().URL())
	}
	if msgs := errorMessages(h.rt.Queue()); len(msgs) != 1 || msgs[0] != "Post 5 could not be found" {
		t.Errorf("Expected one error notification, got %v", msgs)
	}
}

func TestNavigateToListRenderFailureKeepsDetail(t *testing.T) {
	src := blogTemplates()
	delete(src, "posts/_post.mustache")
	h := newHarnessWithTemplates(t, &fakeRemote{posts: makePosts(3)}, NewSyncScheduler(), false, src)

	if err := h.rt.Start("posts/1"); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	before := h.rt.Main().HTML()
	page := h.rt.List().Pager().Page()
	if !strings.Contains(before, "<h1>Post 1</h1>") {
		t.Fatalf("Expected detail rendered, got %q", before)
	}

	err := h.rt.Navigate("")
	if !common.IsTemplateNotFound(err) {
		t.Fatalf("Expected TemplateNotFound, got %v", err)
	}
	if got := h.rt.Main().HTML(); got != before {
		t.Errorf("Expected detail view kept, got %q", got)
	}
	if h.rt.State().String() != "single:1" || h.rt.Router().History().URL() != "/posts/1" {
		t.Errorf("Expected route kept on the post, got %s at %s", h.rt.State(), h.rt.Router().History().URL())
	}
	if h.rt.List().Pager().Page() != page {
		t.Errorf("Expected cursor unchanged at %d, got %d", page, h.rt.List().Pager().Page())
	}
	if h.rt.Window().Listeners(dom.EventScroll) != 0 {
		t.Error("Expected infinite scroll left disabled")
	}
	if msgs := errorMessages(h.rt.Queue()); len(msgs) != 1 {
		t.Errorf("Expected one error notification, got %v", msgs)
	}
}

func TestClickAndBack(t *testing.T) {
	h := newHarness(t, &fakeRemote{posts: makePosts(3)}, NewSyncScheduler(), false)
	_ = h.rt.Start("")

	links := h.rt.Links()
	if len(links) != 3 {
		t.Fatalf("Expected 3 links, got %d", len(links))
	}
	handled, err := h.rt.Click(links[1])
	if err != nil || !handled {
		t.Fatalf("Click failed: %v %v", handled, err)
	}
	if h.rt.State().String() != "single:2" {
		t.Errorf("Unexpected state %s", h.rt.State())
	}

	var home markup.Link
	for _, l := range h.rt.Links() {
		if l.Bypass {
			home = l
		}
	}
	if handled, _ := h.rt.Click(home); handled {
		t.Error("Expected bypass link left alone")
	}

	moved, err := h.rt.Back()
	if err != nil || !moved || h.rt.State().Mode != router.ModeList {
		t.Errorf("Expected back to the list, got %s (%v)", h.rt.State(), err)
	}
}

func openDetail(t *testing.T, h *harness) {
	t.Helper()
	_ = h.rt.Start("")
	if err := h.rt.Navigate("posts/1"); err != nil {
		t.Fatalf("Navigate failed: %v", err)
	}
	h.rt.Detail().SetField("content", "hi")
	h.rt.Detail().SetField("author_name", "A")
}

func TestSubmitSuccess(t *testing.T) {
	remote := &fakeRemote{
		posts:   makePosts(1),
		comment: common.NewModel(map[string]any{"id": float64(9), "post_id": float64(1), "content": "hi", "author_name": "A"}),
	}
	h := newHarness(t, remote, NewSyncScheduler(), false)
	openDetail(t, h)

	if err := h.rt.Submit(); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	comments := h.rt.Detail().Comments()
	if comments.Len() != 1 || comments.HTML() != "<li>A: hi</li>" {
		t.Errorf("Expected exactly one new comment, got %q", comments.HTML())
	}
	if v := h.rt.Detail().Values(); v.Get("content") != "" || v.Get("author_name") != "" {
		t.Errorf("Expected text fields cleared, got %v", v)
	}
	items := h.rt.Queue().Items()
	if len(items) != 1 || items[0].Kind != notify.KindSuccess || items[0].Message != "Comment Added!" {
		t.Errorf("Expected exactly one success notification, got %+v", items)
	}
	post, _ := h.rt.Collection().Get(1)
	if len(post.Comments) != 1 || post.Comments[0].ID != 9 {
		t.Error("Expected model comments updated")
	}
	if remote.comments[0].Get("content") != "hi" {
		t.Errorf("Unexpected form sent %v", remote.comments[0])
	}
}

func TestSubmitFailure(t *testing.T) {
	remote := &fakeRemote{
		posts:      makePosts(1),
		commentErr: common.NewRemoteRequestFailed("u", 400, map[string][]string{"content": {"The content field is required."}}, nil),
	}
	h := newHarness(t, remote, NewSyncScheduler(), false)
	openDetail(t, h)

	_ = h.rt.Submit()

	if h.rt.Detail().Comments().HTML() != "" {
		t.Error("Expected no comment added")
	}
	items := h.rt.Queue().Items()
	if len(items) != 1 || items[0].Kind != notify.KindError || items[0].Message != "The content field is required." {
		t.Errorf("Expected exactly one error notification, got %+v", items)
	}
}

func TestSubmitCommentRenderFailure(t *testing.T) {
	remote := &fakeRemote{
		posts:   makePosts(1),
		comment: common.NewModel(map[string]any{"id": float64(9), "post_id": float64(1), "content": "hi", "author_name": "A"}),
	}
	src := blogTemplates()
	h := newHarnessWithTemplates(t, remote, NewSyncScheduler(), false, src)
	openDetail(t, h)
	before := h.rt.Main().HTML()
	delete(src, "comments/_comment.mustache")

	if err := h.rt.Submit(); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	if h.rt.Main().HTML() != before {
		t.Error("Expected the post view untouched")
	}
	items := h.rt.Queue().Items()
	if len(items) != 1 || items[0].Kind != notify.KindError {
		t.Errorf("Expected exactly one error notification and no success, got %+v", items)
	}
	post, _ := h.rt.Collection().Get(1)
	if len(post.Comments) != 1 || post.Comments[0].ID != 9 {
		t.Error("Expected the stored comment kept on the model")
	}
}

func TestSubmitInvalidInputNotSent(t *testing.T) {
	remote := &fakeRemote{posts: makePosts(1)}
	h := newHarness(t, remote, NewSyncScheduler(), false)
	openDetail(t, h)
	h.rt.Detail().SetField("content", "")

	if err := h.rt.Submit(); !common.IsInvalidInput(err) {
		t.Fatalf("Expected invalid input, got %v", err)
	}
	if len(remote.comments) != 0 {
		t.Error("Expected nothing sent")
	}
	if msgs := errorMessages(h.rt.Queue()); len(msgs) != 1 {
		t.Errorf("Expected one error notification, got %v", msgs)
	}
}

func TestSubmitRequiresOpenPost(t *testing.T) {
	remote := &fakeRemote{posts: makePosts(2)}
	h := newHarness(t, remote, NewSyncScheduler(), false)
	openDetail(t, h)

	if err := h.rt.Navigate(""); err != nil {
		t.Fatalf("Navigate failed: %v", err)
	}
	if err := h.rt.Submit(); !errors.Is(err, ErrNoPostOpen) {
		t.Fatalf("Expected ErrNoPostOpen, got %v", err)
	}
	if len(remote.comments) != 0 {
		t.Errorf("Expected nothing sent, got %v", remote.comments)
	}
	if h.rt.Submitting() {
		t.Error("Expected no request in flight")
	}
	if msgs := errorMessages(h.rt.Queue()); len(msgs) != 1 || msgs[0] != ErrNoPostOpen.Error() {
		t.Errorf("Expected one error notification, got %v", msgs)
	}
}

func TestStaleCommentSkipsDOM(t *testing.T) {
	remote := &fakeRemote{
		posts:   makePosts(2),
		comment: common.NewModel(map[string]any{"id": float64(9), "post_id": float64(1), "content": "hi", "author_name": "A"}),
	}
	sched := &deferredScheduler{SyncScheduler: NewSyncScheduler()}
	h := newHarness(t, remote, sched, false)

	_ = h.rt.Start("")
	sched.Flush()
	_ = h.rt.Navigate("posts/1")
	h.rt.Detail().SetField("content", "hi")
	h.rt.Detail().SetField("author_name", "A")
	_ = h.rt.Submit()
	if !h.rt.Submitting() {
		t.Fatal("Expected request in flight")
	}

	_ = h.rt.Navigate("posts/2")
	before := h.rt.Main().HTML()
	sched.Flush()

	if h.rt.Main().HTML() != before {
		t.Error("Expected the post 2 view untouched by the late response")
	}
	post, _ := h.rt.Collection().Get(1)
	if len(post.Comments) != 1 {
		t.Error("Expected post 1 updated in memory")
	}
	other, _ := h.rt.Collection().Get(2)
	if len(other.Comments) != 0 {
		t.Error("Expected post 2 untouched")
	}
	if items := h.rt.Queue().Items(); len(items) != 1 || items[0].Kind != notify.KindSuccess {
		t.Errorf("Expected the success notification, got %+v", items)
	}
}

func TestStaleFirstPaintDropped(t *testing.T) {
	remote := &fakeRemote{
		posts: makePosts(3),
		page:  `<div data-role="main">server list</div>`,
	}
	sched := &deferredScheduler{SyncScheduler: NewSyncScheduler()}
	h := newHarness(t, remote, sched, true)

	_ = h.rt.Start("")
	// Run only the collection fetch, then navigate before the page arrives.
	fetch := sched.work[0]
	sched.work = sched.work[1:]
	fetch()()
	_ = h.rt.Navigate("posts/1")
	sched.Flush()

	if strings.Contains(h.rt.Main().HTML(), "server list") {
		t.Error("Expected the stale first paint dropped")
	}
	if !strings.Contains(h.rt.Main().HTML(), "<h1>Post 1</h1>") {
		t.Errorf("Expected detail view kept, got %q", h.rt.Main().HTML())
	}
}

func TestNotificationTimers(t *testing.T) {
	h := newHarness(t, &fakeRemote{}, NewSyncScheduler(), false)
	h.rt.Report(errors.New("first"))
	h.rt.Report(errors.New("second"))
	items := h.rt.Queue().Items()
	if h.rt.Notifications().Len() != 2 {
		t.Fatalf("Expected two notification elements, got %d", h.rt.Notifications().Len())
	}

	h.sched.Advance(1 * time.Second)
	if !h.rt.HoverNotification(items[1].ID.String()) {
		t.Fatal("Expected hover to succeed")
	}
	h.sched.Advance(1 * time.Second)
	if !h.rt.LeaveNotification(items[1].ID.String()) {
		t.Fatal("Expected leave to succeed")
	}

	// T+5000: the unhovered item fades and detaches after the fade.
	h.sched.Advance(3 * time.Second)
	if it, _ := h.rt.Queue().Get(items[0].ID); it.State != notify.StateFading {
		t.Errorf("Expected first item fading at T+5000, got %s", it.State)
	}
	if it, _ := h.rt.Queue().Get(items[1].ID); it.State != notify.StateVisible {
		t.Errorf("Expected hovered item still visible at T+5000, got %s", it.State)
	}
	h.sched.Advance(400 * time.Millisecond)
	if h.rt.Notifications().Len() != 1 {
		t.Errorf("Expected first element detached, got %d", h.rt.Notifications().Len())
	}

	// Release was at T+2000, so removal starts at T+7000.
	h.sched.Advance(1600*time.Millisecond - time.Millisecond)
	if it, _ := h.rt.Queue().Get(items[1].ID); it.State != notify.StateVisible {
		t.Errorf("Expected visible just before release+5000, got %s", it.State)
	}
	h.sched.Advance(time.Millisecond)
	if it, _ := h.rt.Queue().Get(items[1].ID); it.State != notify.StateFading {
		t.Errorf("Expected fading at release+5000, got %s", it.State)
	}
	h.sched.Advance(time.Second)
	if h.rt.Queue().Len() != 0 || h.rt.Notifications().Len() != 0 {
		t.Error("Expected every notification removed")
	}
}

func TestDismissNotification(t *testing.T) {
	h := newHarness(t, &fakeRemote{}, NewSyncScheduler(), false)
	h.rt.Report(errors.New("boom"))
	id := h.rt.Queue().Items()[0].ID.String()

	if !h.rt.DismissNotification(id) {
		t.Fatal("Expected dismiss to succeed")
	}
	if h.rt.DismissNotification(id) {
		t.Error("Expected second dismiss ignored")
	}
	if h.rt.HoverNotification("not-a-ulid") {
		t.Error("Expected invalid id ignored")
	}
	h.sched.Advance(time.Second)
	if h.rt.Notifications().Len() != 0 {
		t.Error("Expected element detached after fade")
	}
}
