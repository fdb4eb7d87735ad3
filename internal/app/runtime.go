// Package app wires the blog runtime: the post collection, the list and
// detail views, the router, the notification queue and the remote client.
// Every transition runs on the caller's event loop; blocking requests go
// through a Scheduler and come back as continuations.
package app

import (
	"context"
	"errors"
	"net/url"

	"github.com/oklog/ulid/v2"

	"github.com/yildizm/BlogView/internal/common"
	"github.com/yildizm/BlogView/internal/dom"
	"github.com/yildizm/BlogView/internal/logger"
	"github.com/yildizm/BlogView/internal/markup"
	"github.com/yildizm/BlogView/internal/monitor"
	"github.com/yildizm/BlogView/internal/notify"
	"github.com/yildizm/BlogView/internal/pager"
	"github.com/yildizm/BlogView/internal/router"
	"github.com/yildizm/BlogView/internal/templates"
	"github.com/yildizm/BlogView/internal/views"
)

// ErrNoPostOpen is returned by Submit outside the single post route.
var ErrNoPostOpen = errors.New("no post is open")

// Remote is the slice of the API client the runtime uses.
type Remote interface {
	FetchPosts(ctx context.Context) ([]*common.Model, error)
	CreateComment(ctx context.Context, postURL string, form url.Values) (*common.Model, error)
	FetchPage(ctx context.Context, path string) (string, error)
}

// Options configures the runtime.
type Options struct {
	Root           string
	Silent         bool
	SiteURL        string
	PostsURL       string
	PerPage        int
	InfiniteScroll bool
	Margin         int
}

// Option customizes a Runtime.
type Option func(*Runtime)

// WithLogger sets the runtime logger.
func WithLogger(log *logger.Logger) Option {
	return func(r *Runtime) { r.log = log }
}

// WithSession records operation counters.
func WithSession(session *monitor.Session) Option {
	return func(r *Runtime) { r.session = session }
}

// Runtime is the blog application. It is not safe for concurrent use; the
// event loop owns it.
type Runtime struct {
	opts   Options
	ctx    context.Context
	remote Remote
	sched  Scheduler
	log    *logger.Logger

	session *monitor.Session

	window        *dom.Window
	main          *dom.Element
	notifications *dom.Element

	collection *common.Collection
	renderer   *views.Renderer
	list       *views.ListRootView
	detail     *views.DetailView
	queue      *notify.Queue
	router     *router.Router

	loaded     bool
	painted    bool
	pending    func() error
	submitting bool
}

// New builds a runtime. Nothing is fetched until Start.
func New(ctx context.Context, opts Options, remote Remote, cache *templates.Cache, queue *notify.Queue, sched Scheduler, options ...Option) *Runtime {
	r := &Runtime{
		opts:          opts,
		ctx:           ctx,
		remote:        remote,
		sched:         sched,
		log:           logger.Discard(),
		session:       monitor.NewSession(),
		window:        dom.NewWindow(),
		main:          dom.NewElement("main", views.RoleMain),
		notifications: dom.NewElement("notifications", views.RoleNotifications),
		collection:    common.NewCollection(opts.PostsURL),
		queue:         queue,
	}
	for _, opt := range options {
		opt(r)
	}
	r.log = r.log.WithComponent("app")

	r.renderer = views.NewRenderer(cache, r.log)
	r.list = views.NewListRootView(r.renderer, r.main, r.collection, views.ListOptions{
		PerPage: opts.PerPage,
		Margin:  opts.Margin,
		Window:  r.window,
	})
	r.list.Context = ctx
	r.list.OnError = r.Report
	r.detail = views.NewDetailView(r.renderer, queue, r.main)
	noteView := views.NewNotificationView(r.renderer, queue, r.notifications)
	noteView.Context = ctx

	queue.Subscribe(r.scheduleRemoval)

	r.router = router.New(router.Handlers{
		Index: r.index,
		Show:  r.show,
	}, router.WithLogger(r.log), router.WithSite(opts.SiteURL))
	return r
}

// Main returns the main region.
func (r *Runtime) Main() *dom.Element { return r.main }

// Notifications returns the notifications container.
func (r *Runtime) Notifications() *dom.Element { return r.notifications }

// Window returns the event source scroll listeners attach to.
func (r *Runtime) Window() *dom.Window { return r.window }

// Queue returns the notification feed.
func (r *Runtime) Queue() *notify.Queue { return r.queue }

// Router returns the router.
func (r *Runtime) Router() *router.Router { return r.router }

// Detail returns the detail view, whose form the UI edits.
func (r *Runtime) Detail() *views.DetailView { return r.detail }

// List returns the list view.
func (r *Runtime) List() *views.ListRootView { return r.list }

// Collection returns the fetched posts.
func (r *Runtime) Collection() *common.Collection { return r.collection }

// Session returns the operation counters.
func (r *Runtime) Session() *monitor.Session { return r.session }

// State returns the committed route.
func (r *Runtime) State() router.State { return r.router.State() }

// Loaded reports whether the post collection has arrived.
func (r *Runtime) Loaded() bool { return r.loaded }

// Submitting reports whether a comment request is in flight.
func (r *Runtime) Submitting() bool { return r.submitting }

// Links returns the activatable links in the main region.
func (r *Runtime) Links() []markup.Link {
	return markup.Links(r.main.HTML())
}

// Start begins routing at fragment and fetches the post collection. With a
// silent router the server-rendered page for fragment is mounted as the
// first paint instead of dispatching the route.
func (r *Runtime) Start(fragment string) error {
	if err := r.router.Start(r.opts.Root, r.opts.Silent, fragment); err != nil {
		r.Report(err)
		return err
	}

	state := r.router.State()
	if r.opts.Silent && state.Mode == router.ModeSingle {
		// The detail view must render from the template to host the form.
		r.pending = func() error { return r.show(state.ID) }
	}
	r.fetchPosts()
	if r.opts.Silent {
		r.firstPaint(state)
	}
	return nil
}

func (r *Runtime) fetchPosts() {
	r.sched.Go(func() func() {
		var models []*common.Model
		err := r.session.Track(monitor.OperationFetchPosts, func() error {
			var err error
			models, err = r.remote.FetchPosts(r.ctx)
			return err
		})
		return func() {
			if err != nil {
				r.Report(err)
				return
			}
			r.collection.Reset(models)
			r.loaded = true
			r.log.InfoWithFields("collection loaded", []logger.Field{logger.Count(len(models))})
			r.runPending()
		}
	})
}

func (r *Runtime) runPending() {
	if r.pending == nil || !r.loaded {
		return
	}
	action := r.pending
	r.pending = nil
	if err := action(); err != nil {
		r.Report(err)
	}
}

// firstPaint mounts the server-rendered main region for state. A response
// that arrives after the route moved on, or after a view already rendered,
// is dropped.
func (r *Runtime) firstPaint(state router.State) {
	r.sched.Go(func() func() {
		var page string
		err := r.session.Track(monitor.OperationFirstPaint, func() error {
			var err error
			page, err = r.remote.FetchPage(r.ctx, state.Path)
			return err
		})
		return func() {
			if r.router.State().Seq != state.Seq || r.painted {
				r.log.DebugWithFields("stale first paint dropped", []logger.Field{logger.Route(state)})
				return
			}
			if err != nil {
				r.log.WarnWithFields("first paint failed", []logger.Field{logger.Route(state), logger.Error(err)})
				r.fallbackPaint(state)
				return
			}
			inner, ok := markup.Inner(page, views.RoleMain)
			if !ok {
				r.fallbackPaint(state)
				return
			}
			r.main.SetHTML(inner)
			if state.Mode == router.ModeList {
				// The server already rendered the first page.
				r.list.Pager().Skip(1)
				if r.opts.InfiniteScroll {
					r.list.EnableInfiniteScroll()
				}
			}
		}
	})
}

func (r *Runtime) fallbackPaint(state router.State) {
	if r.pending != nil {
		return
	}
	if state.Mode == router.ModeSingle {
		r.pending = func() error { return r.show(state.ID) }
	} else {
		r.pending = r.index
	}
	r.runPending()
}

// index is the list route: render from the top. A failed render leaves
// the current view and cursor in place.
func (r *Runtime) index() error {
	if !r.loaded {
		r.pending = r.index
		return nil
	}
	if err := r.list.Reset(r.ctx); err != nil {
		return err
	}
	r.painted = true
	if r.opts.InfiniteScroll {
		r.list.EnableInfiniteScroll()
	}
	return nil
}

// show is the detail route. The post must already be in memory; a missing
// post leaves the current view untouched.
func (r *Runtime) show(id int) error {
	if !r.loaded {
		r.pending = func() error { return r.show(id) }
		return nil
	}
	model, ok := r.collection.Get(id)
	if !ok {
		return common.NewModelNotInMemory(id)
	}

	prevModel, prevURL := r.detail.Model(), r.collectionURL(r.detail.Model())
	r.detail.Bind(model, r.collection.ModelURL(model))
	if err := r.detail.Render(r.ctx); err != nil {
		r.detail.Bind(prevModel, prevURL)
		return err
	}
	r.painted = true
	r.list.DisableInfiniteScroll()
	return nil
}

func (r *Runtime) collectionURL(m *common.Model) string {
	if m == nil {
		return ""
	}
	return r.collection.ModelURL(m)
}

// Navigate routes to fragment. Failures become error notifications and
// leave the current view and address in place.
func (r *Runtime) Navigate(fragment string) error {
	err := r.session.Track(monitor.OperationNavigate, func() error {
		return r.router.Navigate(fragment)
	})
	if err != nil {
		r.Report(err)
	}
	return err
}

// Click routes an activated link. It reports whether the link was handled
// in-app.
func (r *Runtime) Click(link markup.Link) (bool, error) {
	handled, err := r.router.Click(link)
	if err != nil {
		r.Report(err)
	}
	return handled, err
}

// Back returns to the previous route.
func (r *Runtime) Back() (bool, error) {
	moved, err := r.router.Back()
	if err != nil {
		r.Report(err)
	}
	return moved, err
}

// Scroll raises a scroll event with the main region's geometry.
func (r *Runtime) Scroll(pos pager.Position) {
	r.window.Trigger(dom.EventScroll, pos)
}

// Submit sends the detail view's comment form. Invalid input and request
// failures each produce one error notification. A response that arrives
// after the route changed updates the post and notifies, but leaves the
// rendered view alone.
func (r *Runtime) Submit() error {
	if r.submitting {
		return nil
	}
	if state := r.router.State(); state.Mode != router.ModeSingle || r.detail.Model() == nil || r.detail.Model().ID != state.ID {
		r.Report(ErrNoPostOpen)
		return ErrNoPostOpen
	}
	req, err := r.detail.Submit()
	if err != nil {
		r.Report(err)
		return err
	}
	post := r.detail.Model()
	seq := r.router.State().Seq
	r.submitting = true

	r.sched.Go(func() func() {
		var comment *common.Model
		err := r.session.Track(monitor.OperationCreateComment, func() error {
			var err error
			comment, err = r.remote.CreateComment(r.ctx, req.PostURL, req.Form)
			return err
		})
		return func() {
			r.submitting = false
			if err != nil {
				r.log.WarnWithFields("comment failed", []logger.Field{logger.F("post", req.PostID), logger.Error(err)})
				r.detail.CommentFailed(err)
				return
			}
			current := r.router.State().Seq == seq
			if !current {
				r.log.DebugWithFields("comment resolved after navigation", []logger.Field{logger.F("post", req.PostID)})
			}
			if err := r.detail.CommentAdded(r.ctx, post, comment, current); err != nil {
				r.Report(err)
			}
		}
	})
	return nil
}

// HoverNotification pauses a notification's removal.
func (r *Runtime) HoverNotification(id string) bool {
	nid, ok := notificationID(id)
	return ok && r.queue.Hover(nid)
}

// LeaveNotification restarts a notification's full removal delay.
func (r *Runtime) LeaveNotification(id string) bool {
	nid, ok := notificationID(id)
	if !ok {
		return false
	}
	gen, ok := r.queue.Leave(nid)
	if !ok {
		return false
	}
	r.sched.After(r.queue.Delay(), func() { r.queue.Expire(nid, gen) })
	return true
}

// DismissNotification removes a notification now.
func (r *Runtime) DismissNotification(id string) bool {
	nid, ok := notificationID(id)
	return ok && r.queue.Dismiss(nid)
}

func notificationID(id string) (ulid.ULID, bool) {
	parsed, err := ulid.Parse(id)
	return parsed, err == nil
}

// Report converts err into an error notification.
func (r *Runtime) Report(err error) {
	if err == nil {
		return
	}
	r.log.WarnWithFields("operation failed", []logger.Field{logger.Error(err)})
	r.session.Error()
	r.queue.Add(notify.KindError, common.UserMessage(err))
}

func (r *Runtime) scheduleRemoval(ev notify.Event) {
	id, gen := ev.Item.ID, ev.Item.Gen
	switch ev.Type {
	case notify.EventAdded:
		r.sched.After(r.queue.Delay(), func() { r.queue.Expire(id, gen) })
	case notify.EventFading:
		r.sched.After(r.queue.Fade(), func() { r.queue.Detach(id) })
	}
}
