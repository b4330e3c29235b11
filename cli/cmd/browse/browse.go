// Package browse implements an interactive fuzzy finder over resolved
// bibliography entries.
package browse

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ardnew/bibdb/bib"
	"github.com/ardnew/bibdb/log"
)

const (
	prompt        = "❯ "
	defaultWidth  = 80
	defaultHeight = 24
	// chrome is the number of lines used by the input, the status line and
	// the separator above the preview.
	chrome = 3
)

// Styles.
var (
	promptStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true)
	keyStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	matchStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("4")).Bold(true)
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("4"))
	hintStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	fieldStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("5"))
)

// candidates adapts entries to fuzzy.Source, matching on the key followed by
// the purified title.
type candidates []*bib.Entry

func (c candidates) String(i int) string {
	e := c[i]
	if title, ok := e.Field("title"); ok {
		return e.ID() + " " + title.Purified()
	}

	return e.ID()
}

func (c candidates) Len() int { return len(c) }

// model is the Bubble Tea model for the browser.
type model struct {
	input    textinput.Model
	entries  candidates
	matches  fuzzy.Matches
	selected int  // index into matches
	offset   int  // first visible match
	preview  bool // whether the field preview is shown
	chosen   *bib.Entry
	width    int
	height   int
	quitting bool
}

func newModel(entries []*bib.Entry, query string) model {
	ti := textinput.New()
	ti.Prompt = promptStyle.Render(prompt)
	ti.Placeholder = "citation key or title"
	ti.CharLimit = 256
	ti.Width = defaultWidth
	ti.SetValue(query)
	ti.Focus()

	m := model{
		input:   ti,
		entries: candidates(entries),
		preview: true,
		width:   defaultWidth,
		height:  defaultHeight,
	}
	m.refresh()

	return m
}

// Run shows the browser until the user picks an entry or quits. It returns
// the picked entry, or nil.
func Run(
	ctx context.Context,
	entries []*bib.Entry,
	query string,
	in io.Reader,
	out io.Writer,
) (*bib.Entry, error) {
	log.TraceContext(ctx, "browse start",
		slog.Int("entries", len(entries)),
		slog.String("query", query),
	)

	p := tea.NewProgram(
		newModel(entries, query),
		tea.WithContext(ctx),
		tea.WithInput(in),
		tea.WithOutput(out),
		tea.WithAltScreen(),
	)

	final, err := p.Run()
	if err != nil {
		return nil, err
	}

	m, _ := final.(model)

	return m.chosen, nil
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.quitting = true

			return m, tea.Quit

		case tea.KeyEnter:
			if len(m.matches) > 0 {
				m.chosen = m.entries[m.matches[m.selected].Index]
			}

			m.quitting = true

			return m, tea.Quit

		case tea.KeyUp, tea.KeyCtrlP:
			m.move(-1)

			return m, nil

		case tea.KeyDown, tea.KeyCtrlN:
			m.move(1)

			return m, nil

		case tea.KeyTab:
			m.preview = !m.preview
			m.scroll()

			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = msg.Width - lipgloss.Width(prompt) - 1
		m.scroll()

		return m, nil
	}

	var cmd tea.Cmd

	before := m.input.Value()
	m.input, cmd = m.input.Update(msg)

	if m.input.Value() != before {
		m.refresh()
	}

	return m, cmd
}

// refresh recomputes matches for the current query and resets the selection.
func (m *model) refresh() {
	query := strings.TrimSpace(m.input.Value())

	if query == "" {
		m.matches = make(fuzzy.Matches, len(m.entries))
		for i := range m.entries {
			m.matches[i] = fuzzy.Match{Str: m.entries.String(i), Index: i}
		}
	} else {
		m.matches = fuzzy.FindFrom(query, m.entries)
	}

	m.selected = 0
	m.offset = 0
}

func (m *model) move(delta int) {
	if len(m.matches) == 0 {
		return
	}

	m.selected = max(0, min(len(m.matches)-1, m.selected+delta))
	m.scroll()
}

// scroll keeps the selection within the visible rows.
func (m *model) scroll() {
	rows := m.rows()
	if m.selected < m.offset {
		m.offset = m.selected
	}

	if m.selected >= m.offset+rows {
		m.offset = m.selected - rows + 1
	}
}

// rows returns the number of visible match rows.
func (m model) rows() int {
	rows := m.height - chrome
	if m.preview {
		rows /= 2
	}

	return max(1, rows)
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(m.input.View())
	b.WriteString("\n")

	end := min(len(m.matches), m.offset+m.rows())
	for i := m.offset; i < end; i++ {
		b.WriteString(renderMatch(m.matches[i], i == m.selected, m.width))
		b.WriteString("\n")
	}

	b.WriteString(hintStyle.Render(status(len(m.matches), len(m.entries))))
	b.WriteString("\n")

	if m.preview && len(m.matches) > 0 {
		e := m.entries[m.matches[m.selected].Index]
		b.WriteString(hintStyle.Render(strings.Repeat("─", max(0, m.width))))
		b.WriteString("\n")
		b.WriteString(renderEntry(e, m.width))
	}

	return b.String()
}

func status(matched, total int) string {
	return fmt.Sprintf("  %d/%d  ↑/↓ select  enter pick  tab preview  esc quit",
		matched, total)
}

// renderMatch renders a match with matched characters highlighted,
// truncated to width.
func renderMatch(match fuzzy.Match, selected bool, width int) string {
	base, highlight := keyStyle, matchStyle
	if selected {
		base = selectedStyle
		highlight = selectedStyle.Bold(true)
	}

	matchSet := make(map[int]bool, len(match.MatchedIndexes))
	for _, idx := range match.MatchedIndexes {
		matchSet[idx] = true
	}

	var b strings.Builder

	n := 0
	for i, r := range match.Str {
		if n >= width-1 {
			b.WriteString(hintStyle.Render("…"))

			break
		}

		if matchSet[i] {
			b.WriteString(highlight.Render(string(r)))
		} else {
			b.WriteString(base.Render(string(r)))
		}

		n++
	}

	return b.String()
}

// renderEntry renders the fields of e, one per line.
func renderEntry(e *bib.Entry, width int) string {
	var b strings.Builder

	b.WriteString(keyStyle.Render("@" + e.Type() + "{" + e.ID()))
	b.WriteString("\n")

	for name, value := range e.Fields() {
		val := value.Raw()
		if avail := width - lipgloss.Width("  "+name+" = "); avail > 1 {
			val = truncate(val, avail)
		}

		b.WriteString("  " + fieldStyle.Render(name) + " = " + val)
		b.WriteString("\n")
	}

	b.WriteString(keyStyle.Render("}"))
	b.WriteString("\n")

	return b.String()
}

// truncate shortens s to at most width cells, ending with an ellipsis.
func truncate(s string, width int) string {
	if lipgloss.Width(s) <= width {
		return s
	}

	r := []rune(s)
	for len(r) > 0 && lipgloss.Width(string(r))+1 > width {
		r = r[:len(r)-1]
	}

	return string(r) + "…"
}
