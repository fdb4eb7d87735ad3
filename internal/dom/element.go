// Package dom holds the rendered element tree views attach to, and the
// window-level event source that scroll listeners register on.
package dom

import "strings"

// Element is an attachment point. It carries either leaf markup or an
// ordered list of child elements, never both.
type Element struct {
	ID       string
	Role     string
	attrs    map[string]string
	markup   string
	children []*Element
	parent   *Element
}

// NewElement creates a detached element.
func NewElement(id, role string) *Element {
	return &Element{ID: id, Role: role}
}

// SetHTML replaces all content with leaf markup.
func (e *Element) SetHTML(markup string) {
	e.detachChildren()
	e.markup = markup
}

// Mount replaces all content with the given children.
func (e *Element) Mount(children ...*Element) {
	e.detachChildren()
	e.markup = ""
	for _, c := range children {
		e.Append(c)
	}
}

// Empty clears the element.
func (e *Element) Empty() {
	e.detachChildren()
	e.markup = ""
}

// Append attaches child after the existing children. Leaf markup already
// present is kept as the first child.
func (e *Element) Append(child *Element) {
	e.promoteMarkup()
	child.detach()
	child.parent = e
	e.children = append(e.children, child)
}

// Prepend attaches child before the existing children.
func (e *Element) Prepend(child *Element) {
	e.promoteMarkup()
	child.detach()
	child.parent = e
	e.children = append([]*Element{child}, e.children...)
}

// Remove detaches the direct child with the given id. It reports whether a
// child was removed, so a second call for the same id is a no-op.
func (e *Element) Remove(id string) bool {
	for i, c := range e.children {
		if c.ID == id {
			c.parent = nil
			e.children = append(e.children[:i], e.children[i+1:]...)
			return true
		}
	}
	return false
}

// Child returns the direct child with the given id.
func (e *Element) Child(id string) *Element {
	for _, c := range e.children {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// Find returns the first element in the subtree (self included) with role.
func (e *Element) Find(role string) *Element {
	if e.Role == role {
		return e
	}
	for _, c := range e.children {
		if found := c.Find(role); found != nil {
			return found
		}
	}
	return nil
}

// Children returns the attached children in order.
func (e *Element) Children() []*Element {
	return e.children
}

// Len returns the number of attached children.
func (e *Element) Len() int {
	return len(e.children)
}

// Parent returns the element this one is attached to.
func (e *Element) Parent() *Element {
	return e.parent
}

// SetAttr sets an attribute.
func (e *Element) SetAttr(key, value string) {
	if e.attrs == nil {
		e.attrs = make(map[string]string)
	}
	e.attrs[key] = value
}

// Attr returns an attribute value.
func (e *Element) Attr(key string) string {
	return e.attrs[key]
}

// HTML renders the subtree.
func (e *Element) HTML() string {
	if len(e.children) == 0 {
		return e.markup
	}
	var b strings.Builder
	for _, c := range e.children {
		b.WriteString(c.HTML())
	}
	return b.String()
}

func (e *Element) promoteMarkup() {
	if e.markup == "" {
		return
	}
	leaf := &Element{markup: e.markup, parent: e}
	e.markup = ""
	e.children = append([]*Element{leaf}, e.children...)
}

func (e *Element) detach() {
	if e.parent != nil {
		e.parent.removeChild(e)
	}
}

func (e *Element) removeChild(child *Element) {
	for i, c := range e.children {
		if c == child {
			e.children = append(e.children[:i], e.children[i+1:]...)
			break
		}
	}
	child.parent = nil
}

func (e *Element) detachChildren() {
	for _, c := range e.children {
		c.parent = nil
	}
	e.children = nil
}
