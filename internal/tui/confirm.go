package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/AntoineGS/loadtracker/internal/loads"
	"github.com/AntoineGS/loadtracker/internal/tracker"
)

// discardQuestion builds the pending question for leaving the open row
// for target.
func (m Model) discardQuestion(target int64) *confirmState {
	c := &confirmState{targetID: target}
	id, ok := m.tracker.Edit().RowID()
	if !ok {
		return c
	}
	snap, _ := m.tracker.Edit().Snapshot()
	if row, ok := m.tracker.Row(id); ok {
		c.diff = discardDiff(snap, row)
	}
	return c
}

func (m Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	target := m.confirm.targetID

	switch {
	case key.Matches(msg, ConfirmKeys.Yes):
		m.confirm = nil
		ok, err := m.tracker.Activate(target, tracker.Always)
		if err != nil {
			m.setError(editErrText(err))
			return m.setFocus(FocusTable)
		}
		if !ok {
			return m, nil
		}
		return m.openEditor(target)

	case key.Matches(msg, ConfirmKeys.No):
		m.confirm = nil
		if id, ok := m.tracker.Edit().RowID(); ok {
			m.cursorID = id
			m.ensureCursorVisible()
		}
		return m, nil
	}

	return m, nil
}

func (m Model) viewConfirm() string {
	var b strings.Builder

	b.WriteString(ErrorStyle.Render("Unsaved changes"))
	b.WriteString("\n\n")
	b.WriteString(tracker.DiscardPrompt)
	b.WriteString("\n")

	if m.confirm.diff != "" {
		b.WriteString("\n")
		for _, line := range strings.Split(strings.TrimRight(m.confirm.diff, "\n"), "\n") {
			switch {
			case strings.HasPrefix(line, "- "):
				b.WriteString(ErrorStyle.Render(line))
			case strings.HasPrefix(line, "+ "):
				b.WriteString(SuccessStyle.Render(line))
			default:
				b.WriteString(MutedTextStyle.Render(line))
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(RenderHelp("y", "discard and switch", "n/esc", "keep editing"))

	return ModalStyle.Render(b.String())
}

// editableLines renders the editable fields one per line.
func editableLines(exception bool, delay, comments string) string {
	box := CheckboxUnchecked
	if exception {
		box = CheckboxChecked
	}
	return fmt.Sprintf("exception: %s\ndelay: %s\ncomments: %s\n",
		box, strings.TrimSpace(delay), strings.TrimSpace(comments))
}

// discardDiff is a line diff between the snapshot and the current edits.
func discardDiff(snap tracker.Snapshot, row loads.Row) string {
	before := editableLines(snap.Exception, snap.Delay, snap.Comments)
	after := editableLines(row.ExceptionChecked(), row.Delay, row.Comments)

	dmp := diffmatchpatch.New()
	a, b, lineArray := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	var sb strings.Builder
	for _, diff := range diffs {
		lines := strings.Split(diff.Text, "\n")
		if len(lines) > 0 && lines[len(lines)-1] == "" {
			lines = lines[:len(lines)-1]
		}
		for _, line := range lines {
			switch diff.Type {
			case diffmatchpatch.DiffDelete:
				sb.WriteString("- " + line + "\n")
			case diffmatchpatch.DiffInsert:
				sb.WriteString("+ " + line + "\n")
			case diffmatchpatch.DiffEqual:
				sb.WriteString("  " + line + "\n")
			}
		}
	}
	return sb.String()
}
