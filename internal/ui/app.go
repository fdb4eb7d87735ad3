package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/yildizm/BlogView/internal/app"
	"github.com/yildizm/BlogView/internal/emoji"
	"github.com/yildizm/BlogView/internal/markup"
	"github.com/yildizm/BlogView/internal/notify"
	"github.com/yildizm/BlogView/internal/pager"
	"github.com/yildizm/BlogView/internal/router"
	"github.com/yildizm/BlogView/internal/views"
)

// focus is the widget receiving keys
type focus int

const (
	focusBrowse focus = iota
	focusAuthor
	focusContent
)

const contentHeight = 4

// Options configures the terminal adapter
type Options struct {
	Title     string
	StartPath string
	Mouse     bool
}

// Model adapts the blog runtime to a bubbletea program. The viewport shows
// the main region, the notification stack sits under the header, and the
// comment form opens below the viewport on the detail view.
type Model struct {
	rt     *app.Runtime
	sched  CommandScheduler
	styles *Styles
	opts   Options

	width    int
	height   int
	ready    bool
	quitting bool
	showHelp bool

	viewport viewport.Model
	author   textinput.Model
	content  textarea.Model
	focus    focus

	links    []markup.Link
	selected int
	seq      uint64
	hovered  string
	awaiting bool
}

// NewModel creates the adapter. sched must be the scheduler rt was built
// with.
func NewModel(rt *app.Runtime, sched CommandScheduler, opts Options) *Model {
	if opts.Title == "" {
		opts.Title = "BlogView"
	}

	author := textinput.New()
	author.Placeholder = "Your name"
	author.Prompt = ""
	author.CharLimit = 255

	content := textarea.New()
	content.Placeholder = "Write a comment..."
	content.ShowLineNumbers = false
	content.SetHeight(contentHeight)

	return &Model{
		rt:       rt,
		sched:    sched,
		styles:   GetStyles(),
		opts:     opts,
		viewport: viewport.New(80, 20),
		author:   author,
		content:  content,
	}
}

// Init starts the runtime at the configured path
func (m *Model) Init() tea.Cmd {
	_ = m.rt.Start(m.opts.StartPath)
	m.refresh()
	return m.sched.Cmd()
}

// Update handles messages and forwards transitions to the runtime
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.handleWindowResize(msg)
	case tea.KeyMsg:
		cmd = m.handleKeyPress(msg)
	case tea.MouseMsg:
		cmd = m.handleMouse(msg)
	case continueMsg:
		m.handleContinue(msg)
	}
	if m.quitting {
		return m, tea.Quit
	}
	m.refresh()
	return m, tea.Batch(cmd, m.sched.Cmd())
}

func (m *Model) handleWindowResize(msg tea.WindowSizeMsg) {
	m.width = msg.Width
	m.height = msg.Height
	m.ready = true
	m.author.Width = max(10, msg.Width-16)
	m.content.SetWidth(max(10, msg.Width-4))
}

func (m *Model) handleContinue(msg continueMsg) {
	if msg.apply != nil {
		msg.apply()
	}
	if m.awaiting && !m.rt.Submitting() {
		m.awaiting = false
		m.syncForm()
	}
}

// handleKeyPress routes keys to the form when it has focus, else to browsing
func (m *Model) handleKeyPress(msg tea.KeyMsg) tea.Cmd {
	if msg.String() == "ctrl+c" {
		m.quitting = true
		return nil
	}
	if m.focus != focusBrowse {
		return m.handleFormKey(msg)
	}

	switch msg.String() {
	case "q":
		m.quitting = true
	case "?", "h":
		m.showHelp = !m.showHelp
	case "tab", "n":
		m.moveSelection(1)
	case "shift+tab", "p":
		m.moveSelection(-1)
	case "enter":
		m.activateLink()
	case "b", "backspace", "left":
		_, _ = m.rt.Back()
	case "r":
		_ = m.rt.Navigate("")
	case "c":
		return m.openForm()
	case "x":
		m.dismissNewest()
	default:
		return m.scroll(msg)
	}
	return nil
}

func (m *Model) handleFormKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		m.blurForm()
		return nil
	case "tab", "shift+tab":
		if m.focus == focusAuthor {
			return m.setFocus(focusContent)
		}
		return m.setFocus(focusAuthor)
	case "ctrl+s":
		m.submit()
		return nil
	case "enter":
		if m.focus == focusAuthor {
			return m.setFocus(focusContent)
		}
	}

	var cmd tea.Cmd
	if m.focus == focusAuthor {
		m.author, cmd = m.author.Update(msg)
	} else {
		m.content, cmd = m.content.Update(msg)
	}
	return cmd
}

// handleMouse maps motion over the notification stack to hover and leave,
// a click on a notification to dismiss, and the wheel to scrolling
func (m *Model) handleMouse(msg tea.MouseMsg) tea.Cmd {
	id := m.notificationAt(msg.Y)
	switch {
	case msg.Action == tea.MouseActionMotion:
		m.hover(id)
		return nil
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft && id != "":
		m.rt.DismissNotification(id)
		return nil
	}
	return m.scroll(msg)
}

func (m *Model) hover(id string) {
	if id == m.hovered {
		return
	}
	if m.hovered != "" {
		m.rt.LeaveNotification(m.hovered)
	}
	m.hovered = ""
	if id != "" && m.rt.HoverNotification(id) {
		m.hovered = id
	}
}

// notificationAt returns the notification drawn on screen row y. Row 0 is
// the header; notifications follow one per row.
func (m *Model) notificationAt(y int) string {
	children := m.rt.Notifications().Children()
	idx := y - 1
	if idx < 0 || idx >= len(children) {
		return ""
	}
	return children[idx].ID
}

// scroll moves the viewport and raises a scroll event with its geometry
func (m *Model) scroll(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	before := m.viewport.YOffset
	m.viewport, cmd = m.viewport.Update(msg)
	if m.viewport.YOffset != before {
		m.rt.Scroll(m.position())
	}
	return cmd
}

func (m *Model) position() pager.Position {
	return pager.Position{
		ScrollTop:      m.viewport.YOffset,
		DocumentHeight: m.viewport.TotalLineCount(),
		ViewportHeight: m.viewport.Height,
	}
}

func (m *Model) moveSelection(delta int) {
	if len(m.links) == 0 {
		return
	}
	m.selected = (m.selected + delta + len(m.links)) % len(m.links)
}

// activateLink clicks the selected link. Links the router leaves alone
// would leave the blog, which a terminal cannot follow.
func (m *Model) activateLink() {
	if m.selected >= len(m.links) {
		return
	}
	link := m.links[m.selected]
	handled, err := m.rt.Click(link)
	if !handled && err == nil {
		m.rt.Queue().Add(notify.KindInfo, fmt.Sprintf("%s opens outside the blog", link.Href))
	}
}

func (m *Model) dismissNewest() {
	items := m.rt.Queue().Items()
	for i := len(items) - 1; i >= 0; i-- {
		if m.rt.DismissNotification(items[i].ID.String()) {
			return
		}
	}
}

func (m *Model) formAvailable() bool {
	return m.rt.State().Mode == router.ModeSingle && m.rt.Detail().Form() != nil
}

func (m *Model) openForm() tea.Cmd {
	if !m.formAvailable() {
		return nil
	}
	return m.setFocus(focusAuthor)
}

func (m *Model) setFocus(f focus) tea.Cmd {
	m.focus = f
	switch f {
	case focusAuthor:
		m.content.Blur()
		return m.author.Focus()
	case focusContent:
		m.author.Blur()
		return m.content.Focus()
	}
	m.author.Blur()
	m.content.Blur()
	return nil
}

func (m *Model) blurForm() {
	m.setFocus(focusBrowse)
}

// submit copies the inputs into the rendered form and sends it
func (m *Model) submit() {
	detail := m.rt.Detail()
	detail.SetField("author_name", m.author.Value())
	detail.SetField("content", m.content.Value())
	if err := m.rt.Submit(); err != nil {
		return
	}
	m.awaiting = m.rt.Submitting()
	if !m.awaiting {
		m.syncForm()
	}
}

// syncForm copies the rendered form's values back into the inputs
func (m *Model) syncForm() {
	values := m.rt.Detail().Values()
	m.author.SetValue(values.Get("author_name"))
	m.content.SetValue(values.Get("content"))
}

// refresh pulls the runtime's element tree into the widgets
func (m *Model) refresh() {
	state := m.rt.State()
	routeChanged := state.Seq != m.seq
	if routeChanged {
		m.seq = state.Seq
		m.selected = 0
		if !m.formAvailable() {
			m.blurForm()
		}
		m.syncForm()
	}

	m.links = m.rt.Links()
	if m.selected >= len(m.links) {
		m.selected = max(0, len(m.links)-1)
	}
	if m.hovered != "" && m.rt.Notifications().Child(m.hovered) == nil {
		m.hovered = ""
	}

	m.layout()
	m.viewport.SetContent(m.mainText())
	if routeChanged {
		m.viewport.GotoTop()
	}
}

func (m *Model) layout() {
	if !m.ready {
		return
	}
	used := 2 + m.rt.Notifications().Len() // header and status rows
	if m.focus != focusBrowse {
		used += lipgloss.Height(m.renderForm())
	}
	m.viewport.Width = m.width
	m.viewport.Height = max(1, m.height-used)
}

func (m *Model) mainText() string {
	text := markup.Text(m.rt.Main().HTML())
	if strings.TrimSpace(text) == "" && !m.rt.Loaded() {
		text = emoji.GetEmoji("loading") + " Loading posts..."
	}
	if m.viewport.Width > 0 {
		text = lipgloss.NewStyle().Width(m.viewport.Width).Render(text)
	}
	return text
}

// View renders the screen
func (m *Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.quitting {
		return ""
	}

	sections := []string{m.renderHeader()}
	sections = append(sections, m.renderNotifications()...)
	if m.showHelp {
		sections = append(sections, m.renderHelp())
	} else {
		sections = append(sections, m.viewport.View())
	}
	if m.focus != focusBrowse {
		sections = append(sections, m.renderForm())
	}
	sections = append(sections, m.renderStatus())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *Model) renderHeader() string {
	s := m.styles
	state := m.rt.State()
	title := s.Render(s.Title, emoji.GetEmoji("rocket")+" "+m.opts.Title)

	var where string
	if state.Mode == router.ModeSingle {
		where = fmt.Sprintf("%s post %d", emoji.GetEmoji("post"), state.ID)
	} else {
		where = fmt.Sprintf("%s %d of %d posts", emoji.GetEmoji("post"),
			min(m.rt.List().Pager().Page()*m.rt.List().Pager().PerPage, m.rt.Collection().Len()),
			m.rt.Collection().Len())
	}
	if m.rt.Submitting() {
		where += " " + emoji.GetEmoji("loading") + " sending comment"
	}
	return title + " " + s.Render(s.Header, where)
}

func (m *Model) renderNotifications() []string {
	s := m.styles
	children := m.rt.Notifications().Children()
	lines := make([]string, 0, len(children))
	for _, el := range children {
		kind := el.Attr(views.KindAttr)
		text := strings.Join(strings.Fields(markup.Text(el.HTML())), " ")
		style := s.Notification(kind, el.Attr(views.StateAttr), el.ID == m.hovered)
		line := emoji.ForKind(kind) + " " + text
		if m.width > 0 {
			line = truncate(line, m.width)
		}
		lines = append(lines, s.Render(style, line))
	}
	return lines
}

func (m *Model) renderForm() string {
	s := m.styles
	author := s.Render(s.Label, "Name    ") + m.author.View()
	body := s.Render(s.Label, "Comment") + "\n" + m.content.View()
	return s.Render(s.Panel, lipgloss.JoinVertical(lipgloss.Left, author, body))
}

func (m *Model) renderStatus() string {
	s := m.styles
	var parts []string
	if m.selected < len(m.links) {
		link := m.links[m.selected]
		label := link.Text
		if label == "" {
			label = link.Href
		}
		parts = append(parts, s.Render(s.Selected, fmt.Sprintf("%s %s", emoji.GetEmoji("link"), label)))
	}
	hint := "tab link • enter open • b back • ? help • q quit"
	if m.focus != focusBrowse {
		hint = "tab switch field • ctrl+s send • esc close"
	} else if m.formAvailable() {
		hint = "c comment • " + hint
	}
	parts = append(parts, s.Render(s.Muted, hint))
	return strings.Join(parts, "  ")
}

func (m *Model) renderHelp() string {
	s := m.styles
	rows := [][2]string{
		{"j/k, ↑/↓, pgup/pgdn", "scroll; more posts load near the bottom"},
		{"tab / shift+tab", "select next / previous link"},
		{"enter", "open the selected link"},
		{"b, backspace", "go back"},
		{"r", "return to the post list"},
		{"c", "write a comment on the open post"},
		{"ctrl+s", "send the comment"},
		{"x, click", "dismiss a notification"},
		{"hover", "keep a notification on screen"},
		{"q", "quit"},
	}
	lines := make([]string, 0, len(rows)+2)
	lines = append(lines, s.Render(s.Title, emoji.GetEmoji("help")+" Keys"), "")
	for _, r := range rows {
		lines = append(lines, fmt.Sprintf("  %-22s %s", s.Render(s.Label, r[0]), r[1]))
	}
	return lipgloss.NewStyle().Height(m.viewport.Height).Render(strings.Join(lines, "\n"))
}

func truncate(s string, width int) string {
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width <= 1 {
		return string(runes[:width])
	}
	return string(runes[:width-1]) + "…"
}

// Run runs the blog in the terminal until the user quits
func Run(rt *app.Runtime, sched CommandScheduler, opts Options) error {
	model := NewModel(rt, sched, opts)
	programOpts := []tea.ProgramOption{tea.WithAltScreen()}
	if opts.Mouse {
		programOpts = append(programOpts, tea.WithMouseAllMotion())
	}
	p := tea.NewProgram(model, programOpts...)
	_, err := p.Run()
	return err
}
