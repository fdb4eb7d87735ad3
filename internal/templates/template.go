package templates

import (
	"fmt"
	"regexp"

	"github.com/cbroglie/mustache"
)

// MaxPartialDepth bounds nested partial inlining.
const MaxPartialDepth = 8

// PartialResolver returns the raw markup of a named partial.
type PartialResolver func(name string) (string, error)

var partialTag = regexp.MustCompile(`\{\{>\s*([A-Za-z0-9_.\-/]+)\s*\}\}`)

// noPartials keeps the mustache engine from reading partials on its own;
// every partial has been inlined before substitution runs.
var noPartials = &mustache.StaticProvider{Partials: map[string]string{}}

// InlinePartials is the structural stage: every {{> name}} placeholder is
// replaced by the partial's raw markup, repeatedly, until none remain.
func InlinePartials(markup string, resolve PartialResolver) (string, error) {
	for depth := 0; partialTag.MatchString(markup); depth++ {
		if depth >= MaxPartialDepth {
			return "", fmt.Errorf("partials nested deeper than %d levels", MaxPartialDepth)
		}

		var resolveErr error
		markup = partialTag.ReplaceAllStringFunc(markup, func(tag string) string {
			if resolveErr != nil {
				return ""
			}
			name := partialTag.FindStringSubmatch(tag)[1]
			raw, err := resolve(name)
			if err != nil {
				resolveErr = err
				return ""
			}
			return raw
		})
		if resolveErr != nil {
			return "", resolveErr
		}
	}
	return markup, nil
}

// Substitute is the data stage: mustache substitution over a template that
// no longer references partials.
func Substitute(structural string, data any) (string, error) {
	tmpl, err := mustache.ParseStringPartials(structural, noPartials)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}
	return render(tmpl, data)
}

func render(tmpl *mustache.Template, data any) (string, error) {
	out, err := tmpl.Render(data)
	if err != nil {
		return "", fmt.Errorf("failed to render template: %w", err)
	}
	return out, nil
}

// Template is a compiled view. It is immutable once built.
type Template struct {
	view   string
	raw    string
	static *mustache.Template // set when raw has no partial placeholders
}

// Compile validates markup and prepares a Template.
func Compile(view, raw string) (*Template, error) {
	parsed, err := mustache.ParseStringPartials(raw, noPartials)
	if err != nil {
		return nil, fmt.Errorf("failed to compile %s: %w", view, err)
	}
	t := &Template{view: view, raw: raw}
	if !partialTag.MatchString(raw) {
		t.static = parsed
	}
	return t, nil
}

// View returns the view path the template was compiled for.
func (t *Template) View() string {
	return t.view
}

// Execute inlines partials through resolve, then substitutes data.
func (t *Template) Execute(data any, resolve PartialResolver) (string, error) {
	if t.static != nil {
		return render(t.static, data)
	}
	structural, err := InlinePartials(t.raw, resolve)
	if err != nil {
		return "", err
	}
	return Substitute(structural, data)
}
