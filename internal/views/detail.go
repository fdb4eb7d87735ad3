package views

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/yildizm/BlogView/internal/common"
	"github.com/yildizm/BlogView/internal/dom"
	"github.com/yildizm/BlogView/internal/markup"
	"github.com/yildizm/BlogView/internal/notify"
)

// CommentAddedMessage is the success notification for a new comment.
const CommentAddedMessage = "Comment Added!"

// commentInput mirrors the server's comment rules.
type commentInput struct {
	Content    string `validate:"required"`
	AuthorName string `validate:"required"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

var fieldNames = map[string]string{
	"Content":    "content",
	"AuthorName": "author_name",
}

// CommentRequest is a validated comment submission.
type CommentRequest struct {
	PostID  int
	PostURL string
	Form    url.Values
}

// Endpoint returns the comments endpoint for the post.
func (r CommentRequest) Endpoint() string {
	return strings.TrimRight(r.PostURL, "/") + "/comments"
}

// DetailView renders one post with its comments and hosts the comment form.
type DetailView struct {
	renderer *Renderer
	notes    *notify.Queue
	el       *dom.Element
	model    *common.Model
	modelURL string
	comments *dom.Element
	form     *markup.Form
}

// NewDetailView creates a detail view attached to el.
func NewDetailView(renderer *Renderer, notes *notify.Queue, el *dom.Element) *DetailView {
	return &DetailView{renderer: renderer, notes: notes, el: el}
}

// Element returns the attachment point.
func (v *DetailView) Element() *dom.Element { return v.el }

// Model returns the bound post.
func (v *DetailView) Model() *common.Model { return v.model }

// Comments returns the comments region, nil when the markup has none.
func (v *DetailView) Comments() *dom.Element { return v.comments }

// Form returns the comment form with its current values.
func (v *DetailView) Form() *markup.Form { return v.form }

// Bind points the view at a post and its canonical URL.
func (v *DetailView) Bind(model *common.Model, modelURL string) {
	v.model = model
	v.modelURL = modelURL
}

// Render replaces the element's content with the post. The comments region
// becomes its own element so new comments can be prepended to it.
func (v *DetailView) Render(ctx context.Context) error {
	if v.model == nil {
		return fmt.Errorf("detail view has no model")
	}
	out, err := v.renderer.Render(ctx, ViewPostShow, map[string]any{"post": v.model.TemplateData()})
	if err != nil {
		return err
	}

	before, inner, after, ok := markup.Split(out, RoleComments)
	if ok {
		head := dom.NewElement("post-head", "")
		head.SetHTML(before)
		comments := dom.NewElement("post-comments", RoleComments)
		comments.SetHTML(inner)
		tail := dom.NewElement("post-tail", "")
		tail.SetHTML(after)
		v.el.Mount(head, comments, tail)
		v.comments = comments
	} else {
		v.el.SetHTML(out)
		v.comments = nil
	}

	if form, found := markup.FindForm(out); found {
		v.form = form
	} else {
		v.form = nil
	}
	return nil
}

// SetField updates a form field's value. It reports false for unknown names.
func (v *DetailView) SetField(name, value string) bool {
	if v.form == nil {
		return false
	}
	for i := range v.form.Fields {
		if v.form.Fields[i].Name == name {
			v.form.Fields[i].Value = value
			return true
		}
	}
	return false
}

// Values serializes the form fields.
func (v *DetailView) Values() url.Values {
	values := url.Values{}
	if v.form == nil {
		return values
	}
	for _, f := range v.form.Fields {
		values.Add(f.Name, f.Value)
	}
	return values
}

// Submit serializes and validates the form and returns the request to send.
func (v *DetailView) Submit() (*CommentRequest, error) {
	if v.model == nil || v.form == nil {
		return nil, fmt.Errorf("no comment form is displayed")
	}
	values := v.Values()
	input := commentInput{
		Content:    strings.TrimSpace(values.Get("content")),
		AuthorName: strings.TrimSpace(values.Get("author_name")),
	}
	req := &CommentRequest{PostID: v.model.ID, PostURL: v.modelURL, Form: values}
	if err := validate.Struct(input); err != nil {
		return nil, common.NewInvalidInput(req.Endpoint(), describeInput(err))
	}
	return req, nil
}

func describeInput(err error) map[string][]string {
	fields := make(map[string][]string)
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		fields["form"] = []string{err.Error()}
		return fields
	}
	for _, fe := range verrs {
		name := fieldNames[fe.Field()]
		label := strings.ReplaceAll(name, "_", " ")
		fields[name] = append(fields[name], fmt.Sprintf("The %s field is required.", label))
	}
	return fields
}

// CommentAdded applies a comment created for post. The post is always
// updated. With updateDOM the rendered comment is prepended to the
// comments region and the text fields are cleared; if the comment cannot
// be rendered on its own the whole post is re-rendered from the model.
// One success notification is enqueued once the view agrees with the
// model. A render error is returned instead of notifying.
func (v *DetailView) CommentAdded(ctx context.Context, post, comment *common.Model, updateDOM bool) error {
	post.PrependComment(comment)
	if updateDOM {
		if err := v.showComment(ctx, comment); err != nil {
			return err
		}
	}
	v.notes.Add(notify.KindSuccess, CommentAddedMessage)
	return nil
}

func (v *DetailView) showComment(ctx context.Context, comment *common.Model) error {
	item := NewItemView(v.renderer, ViewComment, comment)
	if err := item.Render(ctx); err != nil {
		return v.Render(ctx)
	}
	if v.comments != nil {
		v.comments.Prepend(item.Element())
	}
	v.clearText()
	return nil
}

// CommentFailed enqueues exactly one error notification for err.
func (v *DetailView) CommentFailed(err error) {
	v.notes.Add(notify.KindError, common.UserMessage(err))
}

func (v *DetailView) clearText() {
	if v.form == nil {
		return
	}
	for i := range v.form.Fields {
		switch v.form.Fields[i].Kind {
		case markup.FieldText, markup.FieldTextarea:
			v.form.Fields[i].Value = ""
		}
	}
}
