// Package notify implements the transient notification feed. Every item
// auto-dismisses after a fixed delay unless hovered; leaving restarts the
// full delay. Removal fades the item and then detaches it exactly once.
//
// The queue holds no timers of its own. Callers schedule Expire and Detach
// with the generation and durations the transitions hand back.
package notify

import (
	"crypto/rand"
	"io"
	"time"

	"github.com/oklog/ulid/v2"
)

// Kind is the notification category.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindInfo    Kind = "info"
)

// State is an item's lifecycle position.
type State int

const (
	StateVisible State = iota
	StateHovered
	StateFading
	StateRemoved
)

func (s State) String() string {
	switch s {
	case StateVisible:
		return "visible"
	case StateHovered:
		return "hovered"
	case StateFading:
		return "fading"
	case StateRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

const (
	DefaultDelay = 5 * time.Second
	DefaultFade  = 400 * time.Millisecond
)

// Item is a snapshot of one notification.
type Item struct {
	ID        ulid.ULID
	Kind      Kind
	Message   string
	CreatedAt time.Time

	State State
	// Gen increments whenever a pending removal is cancelled or replaced;
	// an Expire carrying an older generation is ignored.
	Gen uint64
	// Deadline is when the pending transition is due: expiry while visible,
	// detachment while fading. Zero while hovered.
	Deadline time.Time
}

// EventType names what happened to an item.
type EventType string

const (
	EventAdded   EventType = "added"
	EventFading  EventType = "fading"
	EventRemoved EventType = "removed"
)

// Event is delivered to subscribers after a transition.
type Event struct {
	Type EventType
	Item Item
}

// Listener observes queue events.
type Listener func(Event)

// Options configures a Queue.
type Options struct {
	Delay time.Duration
	Fade  time.Duration
	Now   func() time.Time
}

// Queue is the ordered notification feed, oldest first. It is owned by the
// event loop and is not safe for concurrent use.
type Queue struct {
	delay     time.Duration
	fade      time.Duration
	now       func() time.Time
	entropy   io.Reader
	items     []*Item
	listeners []Listener
}

// NewQueue creates an empty queue.
func NewQueue(opts Options) *Queue {
	q := &Queue{
		delay:   opts.Delay,
		fade:    opts.Fade,
		now:     opts.Now,
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
	if q.delay <= 0 {
		q.delay = DefaultDelay
	}
	if q.fade < 0 {
		q.fade = 0
	}
	if q.now == nil {
		q.now = time.Now
	}
	return q
}

// Delay returns the auto-dismiss delay.
func (q *Queue) Delay() time.Duration { return q.delay }

// Fade returns how long a removed item stays in the fading state.
func (q *Queue) Fade() time.Duration { return q.fade }

// Subscribe registers a listener for add, fade and remove events.
func (q *Queue) Subscribe(fn Listener) {
	q.listeners = append(q.listeners, fn)
}

func (q *Queue) emit(typ EventType, it *Item) {
	ev := Event{Type: typ, Item: *it}
	for _, fn := range q.listeners {
		fn(ev)
	}
}

// Add appends a visible item with its removal due after the delay.
func (q *Queue) Add(kind Kind, message string) Item {
	now := q.now()
	it := &Item{
		ID:        ulid.MustNew(ulid.Timestamp(now), q.entropy),
		Kind:      kind,
		Message:   message,
		CreatedAt: now,
		State:     StateVisible,
		Deadline:  now.Add(q.delay),
	}
	q.items = append(q.items, it)
	q.emit(EventAdded, it)
	return *it
}

func (q *Queue) find(id ulid.ULID) *Item {
	for _, it := range q.items {
		if it.ID == id {
			return it
		}
	}
	return nil
}

// Get returns the current snapshot of an item still in the feed.
func (q *Queue) Get(id ulid.ULID) (Item, bool) {
	it := q.find(id)
	if it == nil {
		return Item{}, false
	}
	return *it, true
}

// Items returns every item not yet removed, oldest first.
func (q *Queue) Items() []Item {
	out := make([]Item, 0, len(q.items))
	for _, it := range q.items {
		out = append(out, *it)
	}
	return out
}

// Len returns the number of items not yet removed.
func (q *Queue) Len() int {
	return len(q.items)
}

// Hover cancels a visible item's pending removal.
func (q *Queue) Hover(id ulid.ULID) bool {
	it := q.find(id)
	if it == nil || it.State != StateVisible {
		return false
	}
	it.State = StateHovered
	it.Gen++
	it.Deadline = time.Time{}
	return true
}

// Leave restarts the full delay for a hovered item and returns the
// generation the new removal must carry.
func (q *Queue) Leave(id ulid.ULID) (uint64, bool) {
	it := q.find(id)
	if it == nil || it.State != StateHovered {
		return 0, false
	}
	it.State = StateVisible
	it.Gen++
	it.Deadline = q.now().Add(q.delay)
	return it.Gen, true
}

// Expire starts fading a visible item if gen is still current.
func (q *Queue) Expire(id ulid.ULID, gen uint64) bool {
	it := q.find(id)
	if it == nil || it.State != StateVisible || it.Gen != gen {
		return false
	}
	q.startFade(it, q.now())
	return true
}

// Dismiss starts fading an item right away, hovered or not.
func (q *Queue) Dismiss(id ulid.ULID) bool {
	it := q.find(id)
	if it == nil || (it.State != StateVisible && it.State != StateHovered) {
		return false
	}
	it.Gen++
	q.startFade(it, q.now())
	return true
}

func (q *Queue) startFade(it *Item, at time.Time) {
	it.State = StateFading
	it.Deadline = at.Add(q.fade)
	q.emit(EventFading, it)
}

// Detach removes an item from the feed. Only the first call for an item
// has any effect.
func (q *Queue) Detach(id ulid.ULID) bool {
	for i, it := range q.items {
		if it.ID != id {
			continue
		}
		q.items = append(q.items[:i], q.items[i+1:]...)
		it.State = StateRemoved
		it.Deadline = time.Time{}
		q.emit(EventRemoved, it)
		return true
	}
	return false
}
