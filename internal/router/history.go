package router

import "strings"

// History models the address bar: a root path plus a stack of fragments,
// the last of which is current.
type History struct {
	root    string
	entries []string
}

// NewHistory starts a history at fragment.
func NewHistory(root, fragment string) *History {
	if root == "" {
		root = "/"
	}
	if !strings.HasPrefix(root, "/") {
		root = "/" + root
	}
	if !strings.HasSuffix(root, "/") {
		root += "/"
	}
	return &History{root: root, entries: []string{Normalize(fragment)}}
}

// Root returns the base path.
func (h *History) Root() string {
	return h.root
}

// Current returns the fragment in the address bar.
func (h *History) Current() string {
	return h.entries[len(h.entries)-1]
}

// URL returns the full address-bar path.
func (h *History) URL() string {
	return h.root + h.Current()
}

// Push makes fragment current.
func (h *History) Push(fragment string) {
	h.entries = append(h.entries, Normalize(fragment))
}

// Previous returns the entry before the current one.
func (h *History) Previous() (string, bool) {
	if len(h.entries) < 2 {
		return "", false
	}
	return h.entries[len(h.entries)-2], true
}

// Pop drops the current entry. The first entry is never dropped.
func (h *History) Pop() bool {
	if len(h.entries) < 2 {
		return false
	}
	h.entries = h.entries[:len(h.entries)-1]
	return true
}

// Len returns the number of entries.
func (h *History) Len() int {
	return len(h.entries)
}
