package tui

import (
	"context"
	"fmt"
	"maps"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/AntoineGS/loadtracker/internal/loads"
	"github.com/AntoineGS/loadtracker/internal/tracker"
)

// memoryColumns keeps column preferences for the session only.
type memoryColumns struct {
	visible map[string]bool
	widths  map[string]int
}

func newMemoryColumns() *memoryColumns {
	return &memoryColumns{visible: map[string]bool{}, widths: map[string]int{}}
}

func (c *memoryColumns) ColumnVisibility() map[string]bool { return maps.Clone(c.visible) }
func (c *memoryColumns) ColumnWidths() map[string]int      { return maps.Clone(c.widths) }

func (c *memoryColumns) SetColumnVisible(_ context.Context, col string, v bool) error {
	c.visible[col] = v
	return nil
}

func (c *memoryColumns) SetColumnWidth(_ context.Context, col string, w int) error {
	c.widths[col] = w
	return nil
}

func (m Model) updateColumns(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	col := loads.Columns[m.columnsCursor]

	switch {
	case key.Matches(msg, ColumnsKeys.Close):
		m.showColumns = false
		m.ensureCursorVisible()
		return m, nil

	case key.Matches(msg, ColumnsKeys.Up):
		if m.columnsCursor > 0 {
			m.columnsCursor--
		}
		return m, nil

	case key.Matches(msg, ColumnsKeys.Down):
		if m.columnsCursor < len(loads.Columns)-1 {
			m.columnsCursor++
		}
		return m, nil

	case key.Matches(msg, ColumnsKeys.Toggle):
		visible := m.tracker.Layout().Visible(col.Key)
		if err := m.columns.SetColumnVisible(context.Background(), col.Key, !visible); err != nil {
			m.setError(fmt.Sprintf("Saving column preference: %v", err))
			return m, nil
		}
		m.tracker.ApplyPreferences()
		return m, nil

	case key.Matches(msg, ColumnsKeys.Wider):
		return m.resizeColumn(col, ColumnWidthStep)

	case key.Matches(msg, ColumnsKeys.Narrow):
		return m.resizeColumn(col, -ColumnWidthStep)
	}

	return m, nil
}

func (m Model) resizeColumn(col loads.Column, delta int) (tea.Model, tea.Cmd) {
	w := m.columnWidth(col) + delta
	w = max(tracker.MinColumnWidth, w)
	if err := m.columns.SetColumnWidth(context.Background(), col.Key, w); err != nil {
		m.setError(fmt.Sprintf("Saving column preference: %v", err))
		return m, nil
	}
	m.tracker.ApplyPreferences()
	return m, nil
}

// columnWidth is the width col is drawn with.
func (m Model) columnWidth(col loads.Column) int {
	for _, c := range m.tracker.Layout().Columns {
		if c.Key == col.Key {
			return c.Width
		}
	}
	if w := m.columns.ColumnWidths()[col.Key]; w >= tracker.MinColumnWidth {
		return w
	}
	return col.Width
}

func (m Model) viewColumns() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("Columns"))
	b.WriteString("\n\n")

	layout := m.tracker.Layout()
	for i, c := range loads.Columns {
		box := UncheckedStyle.Render(CheckboxUnchecked)
		if layout.Visible(c.Key) {
			box = CheckedStyle.Render(CheckboxChecked)
		}
		line := fmt.Sprintf("%s %-10s %3d", box, c.Title, m.columnWidth(c))
		if i == m.columnsCursor {
			b.WriteString(HelpKeyStyle.Render("> ") + line)
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}

	b.WriteString(RenderHelp("space", "show/hide", "+/-", "width", "esc", "close"))

	return BoxStyle.Render(b.String())
}
