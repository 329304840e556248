// Package tui browses delivered rows in a terminal table.
package tui

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/r9s-ai/open-line-parsers/pkg/rowexport"
)

const (
	maxColumns    = 16
	lineColWidth  = 6
	minFieldWidth = 4
	maxFieldWidth = 24
	// rows taken by title, footer and table header.
	chromeHeight = 5
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")).MarginBottom(1)
	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	baseStyle   = lipgloss.NewStyle().BorderStyle(lipgloss.NormalBorder()).BorderForeground(lipgloss.Color("240"))
)

type model struct {
	title string
	table table.Model
	total int
	width int
}

// Run shows recs until the user quits.
func Run(title string, recs []rowexport.Record, in io.Reader, out io.Writer) error {
	p := tea.NewProgram(newModel(title, recs), tea.WithInput(in), tea.WithOutput(out), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui run failed: %w", err)
	}
	return nil
}

func newModel(title string, recs []rowexport.Record) model {
	cols := columns(recs)
	t := table.New(
		table.WithColumns(cols),
		table.WithRows(rows(recs, len(cols)-1)),
		table.WithFocused(true),
		table.WithHeight(min(max(len(recs), 1), 20)),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.BorderStyle(lipgloss.NormalBorder()).BorderForeground(lipgloss.Color("240")).BorderBottom(true).Bold(false)
	s.Selected = s.Selected.Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57")).Bold(false)
	t.SetStyles(s)
	return model{title: title, table: t, total: len(recs)}
}

// columns sizes one column per field up to maxColumns, plus the line column.
func columns(recs []rowexport.Record) []table.Column {
	width := min(rowexport.Width(recs), maxColumns)
	widths := make([]int, width)
	for i := range widths {
		widths[i] = max(minFieldWidth, len(rowexport.ColumnName(i)))
	}
	for _, r := range recs {
		for i := 0; i < width && i < len(r.Fields); i++ {
			widths[i] = min(max(widths[i], len(r.Fields[i])), maxFieldWidth)
		}
	}
	cols := make([]table.Column, 0, width+1)
	cols = append(cols, table.Column{Title: rowexport.LineColumn, Width: lineColWidth})
	for i, w := range widths {
		cols = append(cols, table.Column{Title: rowexport.ColumnName(i), Width: w})
	}
	return cols
}

func rows(recs []rowexport.Record, width int) []table.Row {
	out := make([]table.Row, 0, len(recs))
	for _, r := range recs {
		row := make(table.Row, width+1)
		row[0] = strconv.Itoa(r.Line)
		for i := 0; i < width && i < len(r.Fields); i++ {
			row[i+1] = r.Fields[i]
		}
		out = append(out, row)
	}
	return out
}

func (m model) Init() tea.Cmd { return nil }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.table.SetHeight(max(msg.Height-chromeHeight, 1))
		m.table.SetWidth(max(msg.Width-2, 1))
		return m, nil
	}
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m model) View() string {
	footer := fmt.Sprintf("%d rows", m.total)
	if m.total > 0 {
		footer = fmt.Sprintf("row %d/%d", m.table.Cursor()+1, m.total)
	}
	footer += " • ↑/↓ move • q quit"
	return titleStyle.Render(m.title) + "\n" +
		baseStyle.Render(m.table.View()) + "\n" +
		footerStyle.Render(footer) + "\n"
}
