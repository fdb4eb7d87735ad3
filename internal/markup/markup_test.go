package markup

import (
	"strings"
	"testing"
)

const detailMarkup = `<article>
  <h1>Hello</h1>
  <p>First post body</p>
  <form action="/v1/posts/1/comments" method="post">
    <input type="hidden" name="post_id" value="1">
    <input type="text" name="author_name" placeholder="Your name">
    <textarea name="content" placeholder="Say something"></textarea>
    <input type="submit" value="Add">
  </form>
  <ul data-role="comments"><li>old comment</li></ul>
  <a href="/" data-bypass>Home page</a>
</article>`

func TestLinks(t *testing.T) {
	markup := `<div>
  <a href="posts/1">One</a>
  <a href="http://elsewhere" data-bypass>Away</a>
  <button data-toggle="view" data-target="posts/2" href="posts/9">Two</button>
  <span data-toggle="view" href="posts/3">Three</span>
  <a name="anchor-without-href">x</a>
</div>`

	links := Links(markup)
	if len(links) != 4 {
		t.Fatalf("Expected 4 links, got %d: %+v", len(links), links)
	}

	tests := []struct {
		text        string
		destination string
		bypass      bool
		toggle      bool
	}{
		{"One", "posts/1", false, false},
		{"Away", "http://elsewhere", true, false},
		{"Two", "posts/2", false, true},
		{"Three", "posts/3", false, true},
	}
	for i, tt := range tests {
		got := links[i]
		if got.Text != tt.text {
			t.Errorf("link %d: expected text %q, got %q", i, tt.text, got.Text)
		}
		if got.Destination() != tt.destination {
			t.Errorf("link %d: expected destination %q, got %q", i, tt.destination, got.Destination())
		}
		if got.Bypass != tt.bypass || got.Toggle != tt.toggle {
			t.Errorf("link %d: expected bypass=%v toggle=%v, got %+v", i, tt.bypass, tt.toggle, got)
		}
	}
}

func TestFindForm(t *testing.T) {
	form, ok := FindForm(detailMarkup)
	if !ok {
		t.Fatal("Expected a form")
	}
	if form.Action != "/v1/posts/1/comments" || form.Method != "POST" {
		t.Errorf("Unexpected form header: %+v", form)
	}
	if len(form.Fields) != 3 {
		t.Fatalf("Expected 3 fields (submit skipped), got %d: %+v", len(form.Fields), form.Fields)
	}
	want := []struct {
		name string
		kind FieldKind
	}{
		{"post_id", FieldHidden},
		{"author_name", FieldText},
		{"content", FieldTextarea},
	}
	for i, w := range want {
		if form.Fields[i].Name != w.name || form.Fields[i].Kind != w.kind {
			t.Errorf("field %d: expected %s/%s, got %+v", i, w.name, w.kind, form.Fields[i])
		}
	}
	if form.Fields[0].Value != "1" {
		t.Errorf("Expected hidden value 1, got %q", form.Fields[0].Value)
	}
}

func TestFindFormMissing(t *testing.T) {
	if _, ok := FindForm("<p>no form here</p>"); ok {
		t.Error("Expected no form")
	}
}

func TestSplit(t *testing.T) {
	before, inner, after, ok := Split(detailMarkup, "comments")
	if !ok {
		t.Fatal("Expected comments region")
	}
	if inner != "<li>old comment</li>" {
		t.Errorf("Unexpected inner markup: %q", inner)
	}
	if !strings.HasSuffix(before, `<ul data-role="comments">`) {
		t.Errorf("Expected before to end at the region's opening tag, got %q", before)
	}
	if !strings.HasPrefix(after, "</ul>") {
		t.Errorf("Expected after to start with the closing tag, got %q", after)
	}
	if strings.Contains(before+after, "old comment") {
		t.Error("Region content leaked outside inner")
	}
}

func TestSplitMissingRole(t *testing.T) {
	before, inner, after, ok := Split("<p>plain</p>", "comments")
	if ok || inner != "" || after != "" || before != "<p>plain</p>" {
		t.Errorf("Expected passthrough, got %q %q %q %v", before, inner, after, ok)
	}
}

func TestInner(t *testing.T) {
	page := `<div class="container" data-role="main"><h2>Server side</h2></div>`
	inner, ok := Inner(page, "main")
	if !ok || inner != "<h2>Server side</h2>" {
		t.Errorf("Unexpected inner: %q %v", inner, ok)
	}
}

func TestText(t *testing.T) {
	text := Text(detailMarkup)

	for _, want := range []string{"Hello", "First post body", "[ Your name ]", "[ Say something ]", "old comment", "Home page"} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected text to contain %q, got:\n%s", want, text)
		}
	}
	if strings.Contains(text, "<") {
		t.Errorf("Expected tags stripped, got:\n%s", text)
	}
	if strings.Contains(text, "\n\n\n") {
		t.Errorf("Expected blank lines collapsed, got:\n%s", text)
	}
}

func TestTextUnescapes(t *testing.T) {
	if got := Text("<p>Tom &amp; Jerry</p>"); got != "Tom & Jerry" {
		t.Errorf("Expected unescaped text, got %q", got)
	}
}
