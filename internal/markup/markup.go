// Package markup inspects rendered HTML: it flattens it to terminal text,
// extracts the navigable links and forms, and splits out role-marked regions.
package markup

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Link is an activatable element found in rendered markup.
type Link struct {
	Href   string
	Target string // data-target override for view toggles
	Text   string
	Bypass bool // data-bypass opts out of in-app routing
	Toggle bool // data-toggle="view"
}

// Destination returns the path a view toggle navigates to.
func (l Link) Destination() string {
	if l.Toggle && l.Target != "" {
		return l.Target
	}
	return l.Href
}

// FieldKind classifies a form control.
type FieldKind string

const (
	FieldText     FieldKind = "text"
	FieldTextarea FieldKind = "textarea"
	FieldHidden   FieldKind = "hidden"
	FieldOther    FieldKind = "other"
)

// Field is a named form control and its current value.
type Field struct {
	Name        string
	Kind        FieldKind
	Value       string
	Placeholder string
}

// Form is the first form found in a fragment.
type Form struct {
	Action string
	Method string
	Fields []Field
}

func parseFragment(markup string) ([]*html.Node, error) {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(markup), body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse markup: %w", err)
	}
	return nodes, nil
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func walk(nodes []*html.Node, fn func(*html.Node) bool) {
	for _, n := range nodes {
		walkNode(n, fn)
	}
}

func walkNode(n *html.Node, fn func(*html.Node) bool) {
	if !fn(n) {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walkNode(c, fn)
	}
}

// Links returns anchors with an href and view-toggle triggers in document order.
func Links(markup string) []Link {
	nodes, err := parseFragment(markup)
	if err != nil {
		return nil
	}

	var links []Link
	walk(nodes, func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return true
		}
		href, hasHref := attr(n, "href")
		toggle, _ := attr(n, "data-toggle")
		isAnchor := n.DataAtom == atom.A && hasHref
		if !isAnchor && toggle != "view" {
			return true
		}
		_, bypass := attr(n, "data-bypass")
		target, _ := attr(n, "data-target")
		links = append(links, Link{
			Href:   href,
			Target: target,
			Text:   collapse(textOf(n)),
			Bypass: bypass,
			Toggle: toggle == "view",
		})
		return true
	})
	return links
}

// FindForm returns the first form in the fragment.
func FindForm(markup string) (*Form, bool) {
	nodes, err := parseFragment(markup)
	if err != nil {
		return nil, false
	}

	var form *Form
	walk(nodes, func(n *html.Node) bool {
		if form != nil {
			return false
		}
		if n.Type == html.ElementNode && n.DataAtom == atom.Form {
			action, _ := attr(n, "action")
			method, _ := attr(n, "method")
			form = &Form{Action: action, Method: strings.ToUpper(method)}
			collectFields(n, form)
			return false
		}
		return true
	})
	return form, form != nil
}

func collectFields(root *html.Node, form *Form) {
	walkNode(root, func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return true
		}
		name, ok := attr(n, "name")
		if !ok || name == "" {
			return true
		}
		placeholder, _ := attr(n, "placeholder")
		switch n.DataAtom {
		case atom.Textarea:
			form.Fields = append(form.Fields, Field{Name: name, Kind: FieldTextarea, Value: textOf(n), Placeholder: placeholder})
			return false
		case atom.Input:
			typ, _ := attr(n, "type")
			value, _ := attr(n, "value")
			kind := FieldOther
			switch strings.ToLower(typ) {
			case "", "text":
				kind = FieldText
			case "hidden":
				kind = FieldHidden
			case "submit", "button", "reset", "image", "file":
				return true
			}
			form.Fields = append(form.Fields, Field{Name: name, Kind: kind, Value: value, Placeholder: placeholder})
		}
		return true
	})
}

// Split cuts a fragment around the first element carrying data-role=role and
// returns the markup before it, the element's inner markup, and the markup
// after it. The element's own tags stay with before/after.
func Split(markup, role string) (before, inner, after string, ok bool) {
	nodes, err := parseFragment(markup)
	if err != nil {
		return markup, "", "", false
	}

	var target *html.Node
	walk(nodes, func(n *html.Node) bool {
		if target != nil {
			return false
		}
		if n.Type == html.ElementNode {
			if v, _ := attr(n, "data-role"); v == role {
				target = n
				return false
			}
		}
		return true
	})
	if target == nil {
		return markup, "", "", false
	}

	// Swap the children for a marker, render, then cut at the marker.
	const marker = "blogview-split-marker"
	var children bytes.Buffer
	for c := target.FirstChild; c != nil; c = c.NextSibling {
		_ = html.Render(&children, c)
	}
	for target.FirstChild != nil {
		target.RemoveChild(target.FirstChild)
	}
	target.AppendChild(&html.Node{Type: html.TextNode, Data: marker})

	var whole bytes.Buffer
	for _, n := range nodes {
		_ = html.Render(&whole, n)
	}
	rendered := whole.String()
	idx := strings.Index(rendered, marker)
	if idx < 0 {
		return markup, "", "", false
	}
	width := len(marker)
	return rendered[:idx], children.String(), rendered[idx+width:], true
}

// Inner returns the inner markup of the first element with data-role=role.
func Inner(markup, role string) (string, bool) {
	_, inner, _, ok := Split(markup, role)
	return inner, ok
}

var blockElements = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Br: true, atom.Li: true, atom.Ul: true, atom.Ol: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Article: true, atom.Section: true, atom.Header: true, atom.Footer: true,
	atom.Form: true, atom.Blockquote: true, atom.Pre: true, atom.Hr: true, atom.Tr: true,
}

var blankLines = regexp.MustCompile(`\n{3,}`)

// Text flattens markup to readable terminal text. Block elements break lines,
// form controls render as placeholders and scripts are dropped.
func Text(markup string) string {
	nodes, err := parseFragment(markup)
	if err != nil {
		return markup
	}

	var b strings.Builder
	for _, n := range nodes {
		writeText(&b, n)
	}

	lines := strings.Split(b.String(), "\n")
	for i, line := range lines {
		lines[i] = collapse(line)
	}
	out := strings.Join(lines, "\n")
	out = blankLines.ReplaceAllString(out, "\n\n")
	return strings.Trim(out, "\n")
}

func writeText(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
		return
	case html.ElementNode:
		switch n.DataAtom {
		case atom.Script, atom.Style:
			return
		case atom.Input:
			typ, _ := attr(n, "type")
			if strings.EqualFold(typ, "hidden") {
				return
			}
			label, _ := attr(n, "placeholder")
			if label == "" {
				label, _ = attr(n, "value")
			}
			if label == "" {
				label, _ = attr(n, "name")
			}
			fmt.Fprintf(b, "[ %s ]", label)
			return
		case atom.Textarea:
			label, _ := attr(n, "placeholder")
			if label == "" {
				label, _ = attr(n, "name")
			}
			fmt.Fprintf(b, "\n[ %s ]\n", label)
			return
		case atom.Button:
			fmt.Fprintf(b, "< %s >", collapse(textOf(n)))
			return
		case atom.H1, atom.H2, atom.H3:
			b.WriteString("\n\n")
		}
	}

	block := n.Type == html.ElementNode && blockElements[n.DataAtom]
	if block {
		b.WriteString("\n")
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeText(b, c)
	}
	if block {
		b.WriteString("\n")
	}
}

func textOf(n *html.Node) string {
	var b strings.Builder
	walkNode(n, func(c *html.Node) bool {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
		return true
	})
	return b.String()
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
