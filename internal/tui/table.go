package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/charmbracelet/x/ansi"

	"github.com/AntoineGS/loadtracker/internal/loads"
	"github.com/AntoineGS/loadtracker/internal/tracker"
)

func (m Model) updateTable(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	editing := m.tracker.Edit().Active()

	switch {
	case key.Matches(msg, SharedKeys.Quit):
		if editing {
			m.setError(NoticeEditingBusy)
			return m, nil
		}
		return m, tea.Quit

	case key.Matches(msg, TableKeys.Up):
		m.moveCursor(-1)
		return m, nil

	case key.Matches(msg, TableKeys.Down):
		m.moveCursor(1)
		return m, nil

	case key.Matches(msg, TableKeys.Edit):
		return m.activate(m.cursorID)

	case key.Matches(msg, TableKeys.FocusNext):
		if editing {
			return m.setFocus(FocusException)
		}
		return m, nil

	case key.Matches(msg, TableKeys.FocusPrev):
		if editing {
			return m.setFocus(FocusComments)
		}
		return m, nil

	case key.Matches(msg, EditorKeys.Cancel):
		if editing {
			return m.cancelEdit()
		}
		return m, nil

	case key.Matches(msg, EditorKeys.Save):
		if editing {
			return m.save()
		}
		return m, nil

	case key.Matches(msg, TableKeys.Refresh):
		tk, ok := m.tracker.PollDue(true)
		if !ok {
			m.setError(NoticeEditingBusy)
			return m, nil
		}
		m.setNotice(NoticeRefreshing)
		return m, fetchTable(m.backend, tk)

	case key.Matches(msg, TableKeys.Recompute):
		m.tracker.Recompute()
		m.setNotice(NoticeRecomputed)
		return m, nil

	case key.Matches(msg, TableKeys.Columns):
		m.showColumns = true
		m.columnsCursor = 0
		return m, nil
	}

	return m, nil
}

// activate opens id for editing. A dirty edit on another row turns into
// the discard question instead.
func (m Model) activate(id int64) (tea.Model, tea.Cmd) {
	if m.tracker.Registry().Len() == 0 {
		return m, nil
	}

	ok, err := m.tracker.Activate(id, nil)
	switch {
	case errors.Is(err, tracker.ErrReadOnly):
		m.setError(NoticeReadOnly)
		return m, nil
	case err != nil:
		m.setError(err.Error())
		return m, nil
	case !ok:
		m.confirm = m.discardQuestion(id)
		return m, nil
	}

	return m.openEditor(id)
}

func (m Model) openEditor(id int64) (tea.Model, tea.Cmd) {
	row, ok := m.tracker.Row(id)
	if !ok {
		return m, nil
	}
	m.cursorID = id
	m.delayInput.SetValue(row.Delay)
	m.commentsInput.SetValue(row.Comments)
	m.setNotice("")
	m.ensureCursorVisible()
	return m.setFocus(FocusException)
}

func (m Model) viewMain() string {
	var b strings.Builder

	title := fmt.Sprintf("Loads  %s  %s", m.customer, m.tracker.Period())
	b.WriteString(TitleStyle.Render(title))
	b.WriteString("\n")
	b.WriteString(m.board.View())
	b.WriteString("\n")

	switch {
	case m.tracker.Fingerprint().IsZero():
		b.WriteString(SubtitleStyle.Render(NoticeLoading))
		b.WriteString("\n")
	case m.tracker.Registry().Len() == 0:
		b.WriteString(SubtitleStyle.Render("No loads for this period."))
		b.WriteString("\n")
	default:
		b.WriteString(m.renderTable())
		b.WriteString("\n")
	}

	if m.tracker.Edit().Active() {
		b.WriteString(m.viewEditor())
		b.WriteString("\n")
	}

	b.WriteString(m.viewNotice())
	b.WriteString(m.viewHelp())

	return b.String()
}

func (m Model) viewNotice() string {
	var parts []string
	if m.notice != "" {
		style := SuccessStyle
		if m.noticeErr {
			style = ErrorStyle
		}
		parts = append(parts, style.Render(m.notice))
	}
	if !m.pushLive {
		parts = append(parts, MutedTextStyle.Render("polling only"))
	}
	if !m.tracker.CanEdit() {
		parts = append(parts, WarningStyle.Render("read-only"))
	}
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, "  ") + "\n"
}

func (m Model) viewHelp() string {
	if m.tracker.Edit().Active() {
		if m.focus == FocusTable {
			return RenderHelp("↑/↓", "move", "enter", "edit row", "tab", "editor", "ctrl+s", "save", "esc", "cancel")
		}
		return RenderHelp("tab", "next", "space", "toggle", "ctrl+s", "save", "esc", "cancel")
	}
	return RenderHelp("↑/↓", "move", "enter", "edit", "r", "refresh", "R", "recompute", "c", "columns", "q", "quit")
}

// renderTable draws the group band, the header and the visible window
// of rows.
func (m Model) renderTable() string {
	layout := m.tracker.Layout()
	rows := m.rows()
	vh := m.viewHeight()

	start := m.scrollOffset
	end := min(len(rows), start+vh)
	window := rows[start:end]

	headers := make([]string, len(layout.Columns))
	for i, c := range layout.Columns {
		headers[i] = fit(c.Title, c.Width)
	}

	data := make([][]string, len(window))
	for i, r := range window {
		cells := make([]string, len(layout.Columns))
		for j, c := range layout.Columns {
			cells[j] = fit(r.Field(c.Key), c.Width)
		}
		data[i] = cells
	}

	cursor := m.cursorIndex()
	editID, editing := m.tracker.Edit().RowID()

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(primaryColor)).
		Headers(headers...).
		Rows(data...).
		BorderHeader(true).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return HeaderCellStyle
			}
			actual := start + row
			if actual < 0 || actual >= len(rows) {
				return CellStyle
			}
			if editing && rows[actual].ID == editID {
				return EditingCellStyle
			}
			if actual == cursor {
				return CursorCellStyle
			}
			return CellStyle
		})

	var b strings.Builder
	b.WriteString(m.groupBand(layout))
	b.WriteString("\n")
	if start > 0 {
		b.WriteString(MutedTextStyle.Render(fmt.Sprintf("  ↑ %d more", start)))
		b.WriteString("\n")
	}
	b.WriteString(t.Render())
	if end < len(rows) {
		b.WriteString("\n")
		b.WriteString(MutedTextStyle.Render(fmt.Sprintf("  ↓ %d more", len(rows)-end)))
	}
	return b.String()
}

// groupBand renders the header bands above their visible columns.
func (m Model) groupBand(layout tracker.Layout) string {
	inGroup := make(map[string]string)
	for _, g := range loads.Groups {
		for _, c := range g.Columns {
			inGroup[c] = g.Name
		}
	}

	widths := make(map[string]int)
	order := []string{}
	for _, c := range layout.Columns {
		g := inGroup[c.Key]
		if _, seen := widths[g]; !seen {
			order = append(order, g)
		} else {
			widths[g]++ // column separator
		}
		widths[g] += c.Width + 2
	}

	var b strings.Builder
	b.WriteString(" ")
	for i, g := range order {
		if i > 0 {
			b.WriteString(" ")
		}
		b.WriteString(GroupBandStyle.Render(center(g, widths[g])))
	}
	return b.String()
}

// fit truncates or pads s to exactly w cells.
func fit(s string, w int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if lipgloss.Width(s) > w {
		s = ansi.Truncate(s, w, Ellipsis)
	}
	if pad := w - lipgloss.Width(s); pad > 0 {
		s += strings.Repeat(" ", pad)
	}
	return s
}

func center(s string, w int) string {
	s = ansi.Truncate(s, w, Ellipsis)
	pad := w - lipgloss.Width(s)
	if pad <= 0 {
		return s
	}
	left := pad / 2
	return strings.Repeat("─", left) + s + strings.Repeat("─", pad-left)
}
