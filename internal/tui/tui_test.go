package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/r9s-ai/open-line-parsers/pkg/rowexport"
)

func sampleRecords() []rowexport.Record {
	return []rowexport.Record{
		{Line: 1, Fields: []string{"a", "b", "c"}},
		{Line: 3, Fields: []string{"x", "y"}},
	}
}

func TestColumnsAndRows(t *testing.T) {
	cols := columns(sampleRecords())
	if len(cols) != 4 || cols[0].Title != "line" || cols[3].Title != "col_3" {
		t.Fatalf("unexpected columns %+v", cols)
	}
	rs := rows(sampleRecords(), len(cols)-1)
	if len(rs) != 2 || rs[1][0] != "3" || rs[1][3] != "" {
		t.Fatalf("unexpected rows %+v", rs)
	}
}

func TestColumnsCapped(t *testing.T) {
	wide := make([]string, 40)
	for i := range wide {
		wide[i] = strings.Repeat("v", 50)
	}
	cols := columns([]rowexport.Record{{Line: 1, Fields: wide}})
	if len(cols) != maxColumns+1 {
		t.Fatalf("columns=%d want %d", len(cols), maxColumns+1)
	}
	if cols[1].Width != maxFieldWidth {
		t.Fatalf("width=%d want %d", cols[1].Width, maxFieldWidth)
	}
}

func TestQuitKeys(t *testing.T) {
	for _, k := range []tea.KeyMsg{
		{Type: tea.KeyRunes, Runes: []rune("q")},
		{Type: tea.KeyEsc},
		{Type: tea.KeyCtrlC},
	} {
		_, cmd := newModel("rows", sampleRecords()).Update(k)
		if cmd == nil {
			t.Fatalf("%s: expected quit command", k)
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Fatalf("%s: expected tea.QuitMsg", k)
		}
	}
}

func TestWindowResizeAndNavigation(t *testing.T) {
	var m tea.Model = newModel("rows.txt", sampleRecords())
	m, _ = m.Update(tea.WindowSizeMsg{Width: 80, Height: 30})
	got := m.(model)
	if got.width != 80 || got.table.Height() <= 0 || got.table.Height() > 30-chromeHeight {
		t.Fatalf("width=%d height=%d", got.width, got.table.Height())
	}

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	view := m.View()
	if !strings.Contains(view, "rows.txt") || !strings.Contains(view, "row 2/2") {
		t.Fatalf("unexpected view:\n%s", view)
	}
}

func TestEmptyView(t *testing.T) {
	view := newModel("empty", nil).View()
	if !strings.Contains(view, "0 rows") {
		t.Fatalf("unexpected view:\n%s", view)
	}
}
