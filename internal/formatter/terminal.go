package formatter

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/yildizm/go-termfmt"

	"github.com/yildizm/BlogView/internal/emoji"
)

// terminalFormatter formats a page as plain text for terminal display
type terminalFormatter struct {
	opts  *termfmt.TerminalOptions
	title lipgloss.Style
	muted lipgloss.Style
}

// NewTerminal creates a new terminal formatter with optional color support
func NewTerminal(color bool) Formatter {
	opts := termfmt.DefaultOptions()
	opts.Color = color
	opts.Emoji = !emoji.IsEmojiDisabled()
	return &terminalFormatter{
		opts:  opts,
		title: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "#1E40AF", Dark: "#3B82F6"}),
		muted: lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"}),
	}
}

func (f *terminalFormatter) Format(page *Page) ([]byte, error) {
	var b strings.Builder

	f.writeHeader(&b, page)
	if page.Post != nil {
		f.writePost(&b, page.Post)
	} else {
		f.writePosts(&b, page)
	}
	f.writeNotifications(&b, page.Notifications)
	f.writeSession(&b, page)

	return []byte(b.String()), nil
}

func (f *terminalFormatter) style(s lipgloss.Style, text string) string {
	if !f.opts.Color {
		return text
	}
	return s.Render(text)
}

func (f *terminalFormatter) writeHeader(b *strings.Builder, page *Page) {
	where := page.URL
	if where == "" {
		where = "/" + page.Path
	}
	b.WriteString(f.style(f.title, emoji.GetEmoji("rocket")+" BlogView") + " " + f.style(f.muted, where) + "\n\n")
}

// writePosts writes the materialized list as a tree
func (f *terminalFormatter) writePosts(b *strings.Builder, page *Page) {
	fmt.Fprintf(b, "%s Posts (%d of %d)\n", emoji.GetEmoji("post"), len(page.Posts), page.TotalPosts)
	if len(page.Posts) == 0 {
		b.WriteString(f.style(f.muted, "No posts yet") + "\n\n")
		return
	}

	items := make([]termfmt.TreeItem, 0, len(page.Posts))
	for i, post := range page.Posts {
		items = append(items, termfmt.TreeItem{
			Label: fmt.Sprintf("#%d %s", post.ID, post.Title),
			Value: plural(post.Count, "comment"),
			Last:  i == len(page.Posts)-1,
		})
	}
	b.WriteString(termfmt.TreeViewWithOptions(items, f.opts) + "\n\n")
}

// writePost writes the open post and its comments
func (f *terminalFormatter) writePost(b *strings.Builder, post *PostOutput) {
	b.WriteString(f.style(f.title, fmt.Sprintf("%s %s", emoji.GetEmoji("post"), post.Title)) + "\n")
	b.WriteString(f.style(f.muted, post.URL) + "\n\n")
	if post.Body != "" {
		b.WriteString(post.Body + "\n\n")
	}

	fmt.Fprintf(b, "%s %s\n", emoji.GetEmoji("comment"), plural(post.Count, "comment"))
	if len(post.Comments) == 0 {
		b.WriteString("\n")
		return
	}
	items := make([]termfmt.TreeItem, 0, len(post.Comments))
	for i, c := range post.Comments {
		items = append(items, termfmt.TreeItem{
			Label: c.Author,
			Value: c.Content,
			Last:  i == len(post.Comments)-1,
		})
	}
	b.WriteString(termfmt.TreeViewWithOptions(items, f.opts) + "\n\n")
}

func (f *terminalFormatter) writeNotifications(b *strings.Builder, notes []NotificationOutput) {
	if len(notes) == 0 {
		return
	}
	b.WriteString("Notifications\n")
	for _, n := range notes {
		fmt.Fprintf(b, "  %s %s\n", getKindEmoji(n.Kind), n.Message)
	}
	b.WriteString("\n")
}

// writeSession writes the session counters when they were captured
func (f *terminalFormatter) writeSession(b *strings.Builder, page *Page) {
	snap := page.Session
	if snap == nil {
		return
	}
	b.WriteString(getStatsEmoji(f.opts) + " Session\n")

	items := []termfmt.TreeItem{
		{Label: "Template hits", Value: formatNumber(int(snap.TemplateHits))},
		{Label: "Template misses", Value: formatNumber(int(snap.TemplateMisses))},
		{Label: "Partial fetches", Value: formatNumber(int(snap.PartialFetches))},
		{Label: "Errors", Value: formatNumber(int(snap.Errors)), Last: len(snap.Operations) == 0},
	}
	for i, op := range snap.Operations {
		items = append(items, termfmt.TreeItem{
			Label: string(op.Operation),
			Value: fmt.Sprintf("%d ok, %d failed, avg %s", op.SuccessCount, op.ErrorCount, nanos(op.AvgTime)),
			Last:  i == len(snap.Operations)-1,
		})
	}
	b.WriteString(termfmt.TreeViewWithOptions(items, f.opts) + "\n")
}
