package dom

import "sort"

// Event names raised on the window.
const (
	EventScroll = "scroll"
)

// Handler receives the event payload.
type Handler func(payload any)

// Window is the top-level event source. Listeners are keyed, so registering
// the same key twice replaces the first registration instead of stacking.
type Window struct {
	listeners map[string]map[string]Handler
}

// NewWindow creates a window with no listeners.
func NewWindow() *Window {
	return &Window{listeners: make(map[string]map[string]Handler)}
}

// On registers fn for event under key.
func (w *Window) On(event, key string, fn Handler) {
	byKey, ok := w.listeners[event]
	if !ok {
		byKey = make(map[string]Handler)
		w.listeners[event] = byKey
	}
	byKey[key] = fn
}

// Off removes the listener registered under key, or every listener for the
// event when key is empty.
func (w *Window) Off(event, key string) {
	if key == "" {
		delete(w.listeners, event)
		return
	}
	delete(w.listeners[event], key)
}

// Listeners returns how many listeners are attached for event.
func (w *Window) Listeners(event string) int {
	return len(w.listeners[event])
}

// Trigger calls every listener for event in key order.
func (w *Window) Trigger(event string, payload any) {
	byKey := w.listeners[event]
	keys := make([]string, 0, len(byKey))
	for k := range byKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if fn, ok := byKey[k]; ok {
			fn(payload)
		}
	}
}
