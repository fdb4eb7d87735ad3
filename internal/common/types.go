package common

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Model is an identified blog record (post or comment) with a flat set of
// named attributes. Posts also own their comments, newest first.
type Model struct {
	ID         int
	Attributes map[string]any
	Comments   []*Model
}

// NewModel builds a model from decoded attributes. An embedded "comments"
// array becomes the owned comments sequence.
func NewModel(attrs map[string]any) *Model {
	m := &Model{Attributes: make(map[string]any, len(attrs))}
	for k, v := range attrs {
		if k == "comments" {
			m.Comments = commentsFrom(v)
			continue
		}
		m.Attributes[k] = v
	}
	m.ID = toInt(attrs["id"])
	return m
}

func commentsFrom(v any) []*Model {
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	comments := make([]*Model, 0, len(raw))
	for _, item := range raw {
		if attrs, ok := item.(map[string]any); ok {
			comments = append(comments, NewModel(attrs))
		}
	}
	return comments
}

// DecodeModels decodes a JSON array of records.
func DecodeModels(data []byte) ([]*Model, error) {
	var raw []map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode records: %w", err)
	}
	models := make([]*Model, 0, len(raw))
	for _, attrs := range raw {
		models = append(models, NewModel(attrs))
	}
	return models, nil
}

// DecodeModel decodes a single JSON record.
func DecodeModel(data []byte) (*Model, error) {
	var attrs map[string]any
	if err := json.Unmarshal(data, &attrs); err != nil {
		return nil, fmt.Errorf("failed to decode record: %w", err)
	}
	return NewModel(attrs), nil
}

// Get returns a raw attribute value.
func (m *Model) Get(key string) any {
	return m.Attributes[key]
}

// String returns an attribute formatted as text.
func (m *Model) String(key string) string {
	v, ok := m.Attributes[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Set assigns an attribute.
func (m *Model) Set(key string, value any) {
	if key == "id" {
		m.ID = toInt(value)
	}
	m.Attributes[key] = value
}

// PrependComment puts a comment at the head of the owned sequence so the
// newest-first order holds without re-sorting.
func (m *Model) PrependComment(comment *Model) {
	m.Comments = append([]*Model{comment}, m.Comments...)
}

// TemplateData returns the attributes as substitution data, with comments
// rebuilt from the owned sequence.
func (m *Model) TemplateData() map[string]any {
	data := make(map[string]any, len(m.Attributes)+1)
	for k, v := range m.Attributes {
		data[k] = v
	}
	if m.Comments != nil {
		comments := make([]any, 0, len(m.Comments))
		for _, c := range m.Comments {
			comments = append(comments, c.TemplateData())
		}
		data["comments"] = comments
	}
	return data
}

// Collection is the ordered set of posts fetched from the API.
type Collection struct {
	url    string
	models []*Model
	index  map[int]*Model
}

// NewCollection creates an empty collection bound to its endpoint.
func NewCollection(url string) *Collection {
	return &Collection{
		url:   strings.TrimRight(url, "/"),
		index: make(map[int]*Model),
	}
}

// URL returns the collection endpoint.
func (c *Collection) URL() string {
	return c.url
}

// ModelURL returns the canonical URL of a member model.
func (c *Collection) ModelURL(m *Model) string {
	return c.url + "/" + strconv.Itoa(m.ID)
}

// Reset replaces the contents, preserving the given order.
func (c *Collection) Reset(models []*Model) {
	c.models = models
	c.index = make(map[int]*Model, len(models))
	for _, m := range models {
		c.index[m.ID] = m
	}
}

// Get looks a model up by id.
func (c *Collection) Get(id int) (*Model, bool) {
	m, ok := c.index[id]
	return m, ok
}

// Len returns the number of models.
func (c *Collection) Len() int {
	return len(c.models)
}

// Models returns the models in collection order.
func (c *Collection) Models() []*Model {
	return c.models
}

// Rest returns every model from position n onwards.
func (c *Collection) Rest(n int) []*Model {
	if n < 0 {
		n = 0
	}
	if n >= len(c.models) {
		return nil
	}
	return c.models[n:]
}

func toInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	case json.Number:
		i, _ := n.Int64()
		return int(i)
	case string:
		i, _ := strconv.Atoi(n)
		return i
	default:
		return 0
	}
}
