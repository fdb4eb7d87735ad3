package formatter

import (
	"fmt"
	"strings"
)

// markdownFormatter formats output as Markdown
type markdownFormatter struct{}

// NewMarkdown creates a new Markdown formatter
func NewMarkdown() Formatter {
	return &markdownFormatter{}
}

func (f *markdownFormatter) Format(page *Page) ([]byte, error) {
	var b strings.Builder

	if page.Post != nil {
		f.writePost(&b, page.Post)
	} else {
		f.writePosts(&b, page)
	}

	if len(page.Notifications) > 0 {
		b.WriteString("## Notifications\n\n")
		for _, n := range page.Notifications {
			fmt.Fprintf(&b, "- **%s** %s\n", n.Kind, escapeMarkdown(n.Message))
		}
		b.WriteString("\n")
	}

	if snap := page.Session; snap != nil {
		b.WriteString("## Session\n\n")
		b.WriteString("| Operation | OK | Failed | Avg |\n")
		b.WriteString("|-----------|----|--------|-----|\n")
		for _, op := range snap.Operations {
			fmt.Fprintf(&b, "| %s | %d | %d | %s |\n", op.Operation, op.SuccessCount, op.ErrorCount, nanos(op.AvgTime))
		}
		fmt.Fprintf(&b, "\nTemplates: %d hits, %d misses, %d partial fetches. Errors: %d.\n",
			snap.TemplateHits, snap.TemplateMisses, snap.PartialFetches, snap.Errors)
	}

	return []byte(b.String()), nil
}

func (f *markdownFormatter) writePosts(b *strings.Builder, page *Page) {
	b.WriteString("# Posts\n\n")
	fmt.Fprintf(b, "Showing %d of %d.\n\n", len(page.Posts), page.TotalPosts)
	for _, post := range page.Posts {
		fmt.Fprintf(b, "- [%s](%s) (%s)\n", escapeMarkdown(post.Title), post.URL, plural(post.Count, "comment"))
	}
	b.WriteString("\n")
}

func (f *markdownFormatter) writePost(b *strings.Builder, post *PostOutput) {
	fmt.Fprintf(b, "# %s\n\n", escapeMarkdown(post.Title))
	if post.Body != "" {
		b.WriteString(post.Body + "\n\n")
	}
	fmt.Fprintf(b, "## Comments (%d)\n\n", post.Count)
	for _, c := range post.Comments {
		fmt.Fprintf(b, "> **%s**: %s\n>\n", escapeMarkdown(c.Author), escapeMarkdown(c.Content))
	}
	b.WriteString("\n")
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`, "*", `\*`, "_", `\_`, "[", `\[`, "]", `\]`, "`", "\\`",
)

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(strings.ReplaceAll(s, "\n", " "))
}
