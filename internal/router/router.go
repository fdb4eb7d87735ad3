// Package router maps address-bar fragments to blog actions and keeps the
// address bar in step with what is rendered.
package router

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/yildizm/BlogView/internal/logger"
	"github.com/yildizm/BlogView/internal/markup"
)

var (
	ErrAlreadyStarted = errors.New("router already started")
	ErrNotStarted     = errors.New("router not started")
	ErrNoRoute        = errors.New("no route")
)

// Mode is the active view subtree.
type Mode string

const (
	ModeList   Mode = "list"
	ModeSingle Mode = "single"
)

// State is the committed route. Seq increases with every commit so async
// work can tell whether the route it was issued under is still current.
type State struct {
	Path string
	Mode Mode
	ID   int
	Seq  uint64
}

func (s State) String() string {
	if s.Mode == ModeSingle {
		return fmt.Sprintf("single:%d", s.ID)
	}
	return string(ModeList)
}

// Match resolves a fragment against the two routes: "" and "posts/:id".
func Match(fragment string) (State, bool) {
	fragment = Normalize(fragment)
	if fragment == "" {
		return State{Path: "", Mode: ModeList}, true
	}
	parts := strings.Split(fragment, "/")
	if len(parts) != 2 || parts[0] != "posts" {
		return State{}, false
	}
	id, err := strconv.Atoi(parts[1])
	if err != nil || id < 0 {
		return State{}, false
	}
	return State{Path: fragment, Mode: ModeSingle, ID: id}, true
}

// Normalize strips leading "#" and "/" and trailing "/" from a fragment.
func Normalize(fragment string) string {
	fragment = strings.TrimLeft(fragment, "#/")
	if i := strings.IndexAny(fragment, "?#"); i >= 0 {
		fragment = fragment[:i]
	}
	return strings.TrimRight(fragment, "/")
}

// Handlers are the blog actions routes dispatch to. A non-nil error leaves
// the current route in place.
type Handlers struct {
	Index func() error
	Show  func(id int) error
}

// Option configures a Router.
type Option func(*Router)

// WithLogger sets the router logger.
func WithLogger(log *logger.Logger) Option {
	return func(r *Router) { r.log = log.WithComponent("router") }
}

// WithSite sets the site URL used to recognise absolute in-app links.
func WithSite(site string) Option {
	return func(r *Router) {
		if u, err := url.Parse(site); err == nil {
			r.site = u
		}
	}
}

// Router owns the route state and the history that backs the address bar.
type Router struct {
	handlers Handlers
	history  *History
	state    State
	started  bool
	site     *url.URL
	log      *logger.Logger
}

// New creates a router that has not started tracking history yet.
func New(handlers Handlers, opts ...Option) *Router {
	r := &Router{handlers: handlers, log: logger.Discard()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start begins history tracking at fragment. It may run once. A silent
// start commits the route without dispatching, since the first paint comes
// from the server.
func (r *Router) Start(root string, silent bool, fragment string) error {
	if r.started {
		return ErrAlreadyStarted
	}
	state, ok := Match(fragment)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoRoute, Normalize(fragment))
	}

	r.started = true
	r.history = NewHistory(root, state.Path)
	state.Seq = 1
	r.state = state
	r.log.InfoWithFields("history started", []logger.Field{logger.Route(state), logger.F("silent", silent)})

	if silent {
		return nil
	}
	return r.dispatch(state)
}

// Started reports whether Start has run.
func (r *Router) Started() bool {
	return r.started
}

// State returns the committed route.
func (r *Router) State() State {
	return r.state
}

// History returns the address-bar history, nil before Start.
func (r *Router) History() *History {
	return r.history
}

// Navigate dispatches fragment and, only if the action succeeds, pushes it
// onto the history and commits the new state. Navigating to the current
// fragment does nothing.
func (r *Router) Navigate(fragment string) error {
	if !r.started {
		return ErrNotStarted
	}
	fragment = r.relative(fragment)
	if fragment == r.state.Path {
		return nil
	}
	next, ok := Match(fragment)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoRoute, fragment)
	}
	if err := r.dispatch(next); err != nil {
		return err
	}
	r.history.Push(next.Path)
	r.commit(next)
	return nil
}

// Back returns to the previous history entry. It reports false when there is
// nowhere to go back to.
func (r *Router) Back() (bool, error) {
	if !r.started {
		return false, ErrNotStarted
	}
	prev, ok := r.history.Previous()
	if !ok {
		return false, nil
	}
	next, ok := Match(prev)
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrNoRoute, prev)
	}
	if err := r.dispatch(next); err != nil {
		return false, err
	}
	r.history.Pop()
	r.commit(next)
	return true, nil
}

// Click routes an activated link. View toggles are handled first and use
// their target override; plain links are handled unless they opt out with
// data-bypass or point off-site. It reports whether the link was handled.
func (r *Router) Click(link markup.Link) (bool, error) {
	if link.Toggle {
		dest := link.Destination()
		if dest == "" {
			return false, nil
		}
		return true, r.Navigate(dest)
	}
	if link.Href == "" || link.Bypass || r.external(link.Href) {
		return false, nil
	}
	return true, r.Navigate(link.Href)
}

func (r *Router) dispatch(s State) error {
	switch s.Mode {
	case ModeSingle:
		if r.handlers.Show == nil {
			return nil
		}
		return r.handlers.Show(s.ID)
	default:
		if r.handlers.Index == nil {
			return nil
		}
		return r.handlers.Index()
	}
}

func (r *Router) commit(s State) {
	s.Seq = r.state.Seq + 1
	r.state = s
	r.log.DebugWithFields("route committed", []logger.Field{logger.Route(s), logger.F("seq", s.Seq)})
}

func (r *Router) external(href string) bool {
	u, err := url.Parse(href)
	if err != nil {
		return true
	}
	if !u.IsAbs() && u.Host == "" {
		return false
	}
	return r.site == nil || !strings.EqualFold(u.Host, r.site.Host)
}

// relative turns an href into a fragment under the history root.
func (r *Router) relative(href string) string {
	if u, err := url.Parse(href); err == nil && (u.IsAbs() || u.Host != "") {
		href = u.Path
	}
	if root := strings.Trim(r.history.Root(), "/"); root != "" {
		trimmed := strings.TrimLeft(href, "/")
		if trimmed == root || strings.HasPrefix(trimmed, root+"/") {
			href = strings.TrimPrefix(trimmed, root)
		}
	}
	return Normalize(href)
}
