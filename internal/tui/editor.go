package tui

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/AntoineGS/loadtracker/internal/client"
	"github.com/AntoineGS/loadtracker/internal/loads"
	"github.com/AntoineGS/loadtracker/internal/tracker"
)

var editorOrder = []Focus{FocusTable, FocusException, FocusDelay, FocusComments}

func (m Model) updateEditor(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	id, ok := m.tracker.Edit().RowID()
	if !ok {
		return m.setFocus(FocusTable)
	}

	switch {
	case key.Matches(msg, EditorKeys.TabNext):
		return m.setFocus(m.nextFocus(1))

	case key.Matches(msg, EditorKeys.TabPrev):
		return m.setFocus(m.nextFocus(-1))

	case key.Matches(msg, EditorKeys.Cancel):
		return m.cancelEdit()

	case key.Matches(msg, EditorKeys.Save):
		return m.save()
	}

	if m.tracker.Edit().Saving() {
		m.setNotice(NoticeSaving)
		return m, nil
	}

	var cmd tea.Cmd
	switch m.focus {
	case FocusException:
		if key.Matches(msg, EditorKeys.Toggle) || msg.String() == KeyEnter {
			row, _ := m.tracker.Row(id)
			if err := m.tracker.SetException(id, !row.ExceptionChecked()); err != nil {
				m.setError(editErrText(err))
			}
		}
		return m, nil

	case FocusDelay:
		m.delayInput, cmd = m.delayInput.Update(msg)
		if err := m.tracker.SetDelay(id, m.delayInput.Value()); err != nil {
			m.setError(editErrText(err))
		}

	case FocusComments:
		m.commentsInput, cmd = m.commentsInput.Update(msg)
		if err := m.tracker.SetComments(id, m.commentsInput.Value()); err != nil {
			m.setError(editErrText(err))
		}

	case FocusTable:
	}

	return m, cmd
}

func (m Model) nextFocus(delta int) Focus {
	i := 0
	for j, f := range editorOrder {
		if f == m.focus {
			i = j
		}
	}
	n := len(editorOrder)
	return editorOrder[((i+delta)%n+n)%n]
}

func (m Model) setFocus(f Focus) (tea.Model, tea.Cmd) {
	cmd := m.focusOn(f)
	return m, cmd
}

// focusOn moves keyboard focus and keeps the text inputs in step.
func (m *Model) focusOn(f Focus) tea.Cmd {
	m.focus = f
	m.delayInput.Blur()
	m.commentsInput.Blur()

	switch f {
	case FocusDelay:
		return m.delayInput.Focus()
	case FocusComments:
		return m.commentsInput.Focus()
	case FocusTable, FocusException:
	}
	return nil
}

func (m Model) cancelEdit() (tea.Model, tea.Cmd) {
	m.tracker.CancelEdit()
	m.setNotice("")
	return m.setFocus(FocusTable)
}

// save submits the open row. A clean row just closes the editor.
func (m Model) save() (tea.Model, tea.Cmd) {
	tk, err := m.tracker.BeginSave()
	switch {
	case errors.Is(err, tracker.ErrSaveInFlight):
		m.setNotice(NoticeSaving)
		return m, nil
	case err != nil:
		m.setError(editErrText(err))
		return m.setFocus(FocusTable)
	case tk == nil:
		m.setNotice(NoticeNoChanges)
		return m.setFocus(FocusTable)
	}

	m.setNotice(NoticeSaving)
	return m, submitSave(m.backend, tk)
}

// finishSave applies a save result. On success the saved row is fetched
// again so it shows the server's values.
func (m Model) finishSave(msg saveDoneMsg) (tea.Model, tea.Cmd) {
	if msg.ticket == nil {
		return m, nil
	}
	err := m.tracker.FinishSave(msg.ticket, msg.err)

	var se *tracker.SaveError
	switch {
	case errors.As(err, &se):
		m.setError(saveFailureText(se))
		return m, nil
	case err != nil:
		m.setError(err.Error())
		return m, nil
	case msg.err != nil:
		// Result for an edit that was closed meanwhile.
		return m, nil
	}

	if m.notice == NoticeSaving {
		m.setNotice(NoticeSaved)
	}
	var cmds []tea.Cmd
	if !m.tracker.Edit().Active() {
		cmds = append(cmds, m.focusOn(FocusTable))
	}
	if tk, ok := m.tracker.PushReceived(msg.ticket.Update.ID); ok {
		cmds = append(cmds, fetchRow(m.backend, tk, m.tracker.Period()))
	}
	return m, tea.Batch(cmds...)
}

// saveFailureText is the status line for a rejected save.
func saveFailureText(se *tracker.SaveError) string {
	head := "Update failed."
	var ue *client.UpdateError
	if errors.As(se.Err, &ue) {
		head = fmt.Sprintf("Update failed (%d %s).", ue.StatusCode, http.StatusText(ue.StatusCode))
	}
	if se.Message == "" {
		return head
	}
	return head + "\n\n" + se.Message
}

func editErrText(err error) string {
	switch {
	case errors.Is(err, tracker.ErrFieldReadOnly):
		return "The exception flag cannot be changed on this row."
	case errors.Is(err, tracker.ErrRowNotFound):
		return "The row being edited is no longer in the table."
	case errors.Is(err, tracker.ErrRowLocked), errors.Is(err, tracker.ErrNotEditing):
		return "Open the row for editing first."
	default:
		return err.Error()
	}
}

// viewEditor renders the pane for the open row.
func (m Model) viewEditor() string {
	id, ok := m.tracker.Edit().RowID()
	if !ok {
		return ""
	}
	row, ok := m.tracker.Row(id)
	if !ok {
		return ""
	}

	label := func(f Focus, s string) string {
		if m.focus == f {
			return FocusedFieldLabelStyle.Render(s)
		}
		return FieldLabelStyle.Render(s)
	}

	var b strings.Builder
	b.WriteString(SubtitleStyle.Render(fmt.Sprintf("Editing load %d", id)))
	if m.tracker.IsDirty() {
		b.WriteString(WarningStyle.Render("  (modified)"))
	}
	b.WriteString("\n")

	box := CheckboxUnchecked
	style := UncheckedStyle
	if row.ExceptionChecked() {
		box, style = CheckboxChecked, CheckedStyle
	}
	exc := style.Render(box)
	if row.Exception.Kind != loads.CellCheckbox {
		exc = MutedTextStyle.Render(row.Exception.Display() + " (fixed)")
	}
	b.WriteString(label(FocusException, "Exception") + exc + "\n")
	b.WriteString(label(FocusDelay, "Delay") + m.delayInput.View() + "\n")
	if row.EffectiveDelay != "" && strings.TrimSpace(row.OriginalUserDelay) == "" {
		b.WriteString(lipgloss.NewStyle().PaddingLeft(12).Render(
			MutedTextStyle.Render("computed: "+row.EffectiveDelay)) + "\n")
	}
	b.WriteString(label(FocusComments, "Comments") + m.commentsInput.View())

	return EditorBoxStyle.Width(min(m.width-4, 80)).Render(b.String())
}
