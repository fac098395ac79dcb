package tui

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/igusev/qlaunch/internal/model"
	"github.com/igusev/qlaunch/internal/types"
)

// Searcher is the part of the launcher the TUI drives
type Searcher interface {
	Search(ctx context.Context, query string, limit int) []model.SearchResult
	RecentItems(ctx context.Context, limit int, excludedIDs []string) []model.SearchResult
	ReportUsage(ns types.Namespace, id, query string, wasFirstResult bool)
}

// RefreshCompleteMsg is sent when a reindex started from the TUI finishes
type RefreshCompleteMsg struct {
	Err       error
	Documents int
}

// resultsMsg carries the results of one query; seq drops replies to stale queries
type resultsMsg struct {
	seq     int
	query   string
	results []model.SearchResult
}

// Model represents the TUI state
type Model struct {
	textInput   textinput.Model      // Search input field
	styles      Styles               // Pre-configured styles
	searcher    Searcher             // Query engine
	results     []model.SearchResult // Results for the current query
	selected    model.SearchResult   // Result picked with Enter
	version     string               // Application version
	refreshErr  error                // Reindex error if any
	onRefresh   func() tea.Cmd       // Callback to trigger a reindex
	documents   int                  // Indexed document count (header)
	limit       int                  // Results per query
	seq         int                  // Sequence number of the latest query
	cursor      int                  // Current cursor position in results
	width       int                  // Terminal width
	height      int                  // Terminal height
	quitting    bool                 // Whether user is quitting
	refreshing  bool                 // Whether a reindex is in progress
	autoRefresh bool                 // Whether to reindex on start
	searching   bool                 // Whether a query is in flight
	showScores  bool                 // Whether to show ranking scores
	showHelp    bool                 // Whether to show help text
}

// Options configures a Model
type Options struct {
	InitialQuery string
	Limit        int
	Documents    int
	ShowScores   bool
	AutoRefresh  bool
	Version      string
	OnRefresh    func() tea.Cmd
}

// New creates a TUI model over searcher
func New(searcher Searcher, opts Options) Model {
	styles := NewStyles()

	ti := textinput.New()
	ti.Placeholder = "Search apps, contacts, shortcuts..."
	ti.Focus()
	ti.CharLimit = 156
	ti.Width = 50
	ti.Prompt = "> "
	ti.PromptStyle = styles.Prompt

	if opts.InitialQuery != "" {
		ti.SetValue(opts.InitialQuery)
	}
	if opts.Limit <= 0 {
		opts.Limit = 50
	}

	return Model{
		textInput:   ti,
		styles:      styles,
		searcher:    searcher,
		version:     opts.Version,
		onRefresh:   opts.OnRefresh,
		documents:   opts.Documents,
		limit:       opts.Limit,
		showScores:  opts.ShowScores,
		autoRefresh: opts.AutoRefresh,
	}
}

// autoRefreshMsg is sent on startup to trigger a reindex
type autoRefreshMsg struct{}

// Init runs the initial query and the optional startup reindex
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink, m.query(m.seq, m.textInput.Value())}
	if m.autoRefresh && m.onRefresh != nil {
		cmds = append(cmds, func() tea.Msg { return autoRefreshMsg{} })
	}
	return tea.Batch(cmds...)
}

// query returns a command that runs one search. An empty query lists recent items.
func (m Model) query(seq int, q string) tea.Cmd {
	searcher, limit := m.searcher, m.limit
	return func() tea.Msg {
		ctx := context.Background()
		var results []model.SearchResult
		if strings.TrimSpace(q) == "" {
			results = searcher.RecentItems(ctx, limit, nil)
		} else {
			results = searcher.Search(ctx, q, limit)
		}
		return resultsMsg{seq: seq, query: q, results: results}
	}
}

// requery bumps the sequence number and starts a search for the current input
func (m *Model) requery() tea.Cmd {
	m.seq++
	m.searching = true
	return m.query(m.seq, m.textInput.Value())
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit

		case "ctrl+r":
			if m.onRefresh != nil && !m.refreshing {
				m.refreshing = true
				m.refreshErr = nil
				return m, m.onRefresh()
			}

		case "enter":
			if len(m.results) > 0 && m.cursor < len(m.results) {
				m.selected = m.results[m.cursor]
				b := m.selected.Common()
				m.searcher.ReportUsage(b.Namespace, b.ID, strings.TrimSpace(m.textInput.Value()), m.cursor == 0)
			}
			m.quitting = true
			return m, tea.Quit

		case "ctrl+s":
			m.showScores = !m.showScores

		case "?":
			m.showHelp = !m.showHelp

		case "down", "ctrl+n":
			if m.cursor < len(m.results)-1 {
				m.cursor++
			}

		case "up", "ctrl+p":
			if m.cursor > 0 {
				m.cursor--
			}

		default:
			before := m.textInput.Value()
			m.textInput, cmd = m.textInput.Update(msg)
			if m.textInput.Value() != before {
				return m, tea.Batch(cmd, m.requery())
			}
		}

	case resultsMsg:
		if msg.seq != m.seq {
			break
		}
		m.searching = false
		m.results = msg.results
		m.cursor = 0

	case autoRefreshMsg:
		if m.onRefresh != nil && !m.refreshing {
			m.refreshing = true
			m.refreshErr = nil
			return m, m.onRefresh()
		}

	case RefreshCompleteMsg:
		m.refreshing = false
		m.refreshErr = msg.Err
		if msg.Err == nil {
			m.documents = msg.Documents
			return m, m.requery()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	}

	return m, cmd
}

// renderResult renders one result line plus an optional subtitle line
func renderResult(r model.SearchResult, style, highlightStyle, subtitleStyle, kindStyle lipgloss.Style, query string, showScores bool) string {
	var result strings.Builder
	b := r.Common()

	result.WriteString(kindStyle.Render(kindLabel(r.Kind())))
	result.WriteString(" ")
	result.WriteString(renderHighlight(b.Title, query, style, highlightStyle))

	if showScores {
		scoreStyle := lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")) // Gray
		result.WriteString(scoreStyle.Render(fmt.Sprintf(" [%d]", b.RankingScore)))
	}

	if b.Subtitle != "" {
		result.WriteString("\n")
		result.WriteString(subtitleStyle.Render(truncateSnippet(b.Subtitle, 60)))
	}

	return result.String()
}

// kindLabel returns a fixed-width tag for a result variant
func kindLabel(k model.Kind) string {
	switch k {
	case model.KindApp:
		return "app "
	case model.KindContact:
		return "ctct"
	case model.KindShortcut:
		return "shct"
	case model.KindSearchIntent:
		return "web "
	case model.KindSnippet:
		return "snip"
	default:
		return "link"
	}
}

// renderHighlight highlights the first occurrence of any query token in title
func renderHighlight(title, query string, style lipgloss.Style, highlightStyle lipgloss.Style) string {
	lowerTitle := strings.ToLower(title)
	for _, token := range strings.Fields(query) {
		lowerToken := strings.ToLower(token)
		idx := strings.Index(lowerTitle, lowerToken)
		// Lowercasing can change byte lengths; only slice when it did not
		if idx < 0 || len(lowerTitle) != len(title) {
			continue
		}
		before := title[:idx]
		matched := title[idx : idx+len(lowerToken)]
		after := title[idx+len(lowerToken):]
		return style.Render(before) + highlightStyle.Render(matched) + style.Render(after)
	}
	return style.Render(title)
}

// View renders the TUI
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	// Status indicator: ○ idle, ● active (green) or error (red)
	var statusIndicator string
	if m.refreshing || m.searching {
		statusIndicator = m.styles.StatusActive.Render("●")
	} else if m.refreshErr != nil {
		statusIndicator = m.styles.StatusError.Render("●")
	} else {
		statusIndicator = m.styles.StatusIdle.Render("○")
	}

	titleLeft := fmt.Sprintf("%s %s %s",
		m.styles.Mark,
		m.styles.Title.Render("qlaunch"),
		m.styles.Version.Render(m.version))

	count := formatCount(len(m.results), m.documents, m.styles.Count, m.styles.CountActive)
	helpIndicator := m.styles.Help.Render("[?] Help")

	leftWidth := lipgloss.Width(titleLeft)
	countWidth := lipgloss.Width(count)
	statusWidth := lipgloss.Width(statusIndicator)
	minWidth := leftWidth + countWidth + statusWidth + 4

	var titleRight string
	if m.width < minWidth+12 {
		titleRight = fmt.Sprintf("%s %s", count, statusIndicator)
	} else {
		titleRight = fmt.Sprintf("%s %s %s", count, helpIndicator, statusIndicator)
	}

	rightWidth := lipgloss.Width(titleRight)
	spacing := ""
	if m.width > leftWidth+rightWidth {
		spacing = strings.Repeat(" ", m.width-leftWidth-rightWidth)
	}

	b.WriteString(titleLeft)
	b.WriteString(spacing)
	b.WriteString(titleRight)
	b.WriteString("\n")

	if m.width > 0 {
		b.WriteString(m.styles.Help.Render(strings.Repeat("─", m.width)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.textInput.View())
	b.WriteString("\n\n")

	if m.refreshErr != nil {
		b.WriteString(m.styles.StatusError.Render("reindex failed: " + m.refreshErr.Error()))
		b.WriteString("\n\n")
	}

	usedLines := 6 // title, separator, blank, input, two blanks
	if m.showHelp {
		usedLines += 3
	}
	maxAvailableLines := m.height - usedLines - 4
	if maxAvailableLines < 1 {
		maxAvailableLines = 1
	}

	// Keep the cursor visible: walk back from it while items still fit
	start := 0
	if m.cursor > 0 && m.cursor < len(m.results) {
		lineCount := itemLines(m.results[m.cursor])
		itemsBeforeCursor := 0
		for i := m.cursor - 1; i >= 0; i-- {
			n := itemLines(m.results[i])
			if lineCount+n > maxAvailableLines {
				break
			}
			lineCount += n
			itemsBeforeCursor++
		}
		start = m.cursor - itemsBeforeCursor
	}

	query := strings.TrimSpace(m.textInput.Value())
	renderedLines := 0
	for i := start; i < len(m.results); i++ {
		r := m.results[i]
		n := itemLines(r)
		if renderedLines+n > maxAvailableLines {
			break
		}

		if i == m.cursor {
			b.WriteString(m.styles.Cursor.Render("▌"))
		} else {
			b.WriteString(" ")
		}

		content := renderResult(r, lipgloss.NewStyle(), m.styles.Highlight, m.styles.Snippet, m.styles.Kind, query, m.showScores)
		for lineIdx, line := range strings.Split(content, "\n") {
			lineContent := " " + line
			if lineIdx > 0 {
				b.WriteString("\n ")
				lineContent = "      " + line
			}
			if i == m.cursor {
				b.WriteString(m.styles.Selected.Width(max(m.width-2, 0)).Render(lineContent))
			} else {
				b.WriteString(m.styles.Normal.Render(lineContent))
			}
		}
		b.WriteString("\n")
		renderedLines += n
	}

	if len(m.results) == 0 && !m.searching && query != "" {
		b.WriteString(m.styles.Help.Render("  no matches"))
		b.WriteString("\n")
	}

	if m.showHelp {
		b.WriteString("\n\n")
		b.WriteString(m.styles.Help.Render("↑/↓: navigate • enter: launch • ctrl+r: reindex • ctrl+s: scores • ?: toggle help"))
	}

	return b.String()
}

func itemLines(r model.SearchResult) int {
	if r.Common().Subtitle != "" {
		return 2
	}
	return 1
}

// Selected returns the result picked with Enter, or nil
func (m Model) Selected() model.SearchResult {
	return m.selected
}

// truncateSnippet truncates text at word boundary respecting UTF-8
func truncateSnippet(text string, maxRunes int) string {
	runes := []rune(text)
	if len(runes) <= maxRunes {
		return text
	}

	truncated := runes[:maxRunes]

	lastSpace := -1
	for i := len(truncated) - 1; i >= 0; i-- {
		if unicode.IsSpace(truncated[i]) || truncated[i] == ',' || truncated[i] == '.' || truncated[i] == ';' {
			lastSpace = i
			break
		}
	}

	// Use word boundary if found in last 20% to avoid losing too much text
	if lastSpace > int(float64(maxRunes)*0.8) {
		truncated = truncated[:lastSpace]
	}

	return string(truncated) + "..."
}

// formatCount renders "results/documents"
func formatCount(results, documents int, countStyle lipgloss.Style, activeStyle lipgloss.Style) string {
	if documents == 0 {
		return countStyle.Render(formatNumber(results) + " results")
	}
	return countStyle.Render(lipgloss.JoinHorizontal(lipgloss.Left,
		activeStyle.Render(formatNumber(results)),
		"/",
		lipgloss.NewStyle().Bold(true).Inherit(countStyle).Render(formatNumber(documents)),
		" indexed"))
}

func formatNumber(n int) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	return fmt.Sprintf("%d,%03d", n/1000, n%1000)
}
