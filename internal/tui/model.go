// Package tui provides the terminal user interface for the loads table.
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/AntoineGS/loadtracker/internal/config"
	"github.com/AntoineGS/loadtracker/internal/loads"
	"github.com/AntoineGS/loadtracker/internal/tracker"
)

// Focus is the part of the screen receiving keys.
type Focus int

// Focus targets. The editor targets are only reachable while a row is open.
const (
	FocusTable Focus = iota
	FocusException
	FocusDelay
	FocusComments
)

func (f Focus) String() string {
	switch f {
	case FocusException:
		return "exception"
	case FocusDelay:
		return "delay"
	case FocusComments:
		return "comments"
	default:
		return "table"
	}
}

// ColumnStore is a writable preference source.
type ColumnStore interface {
	tracker.Preferences
	SetColumnVisible(ctx context.Context, column string, visible bool) error
	SetColumnWidth(ctx context.Context, column string, width int) error
}

// Options configure a Model.
type Options struct {
	Columns      ColumnStore
	Push         <-chan int64
	Customer     string
	PollInterval time.Duration
	Width        int
	Height       int
}

// confirmState is the pending discard question.
type confirmState struct {
	diff     string
	targetID int64
}

// Model holds the TUI state. All tracker calls happen inside Update, which
// makes the bubbletea loop the only writer.
type Model struct {
	tracker       *tracker.Tracker
	backend       tracker.Backend
	board         *statusBoard
	columns       ColumnStore
	push          <-chan int64
	confirm       *confirmState
	notice        string
	customer      string
	delayInput    textinput.Model
	commentsInput textinput.Model
	pollInterval  time.Duration
	cursorID      int64
	scrollOffset  int
	columnsCursor int
	width         int
	height        int
	focus         Focus
	noticeErr     bool
	showColumns   bool
	pushLive      bool
}

// NewModel creates a model over t. The tracker is given the model's
// status board and the column preferences; without a store, preferences
// last for the session.
func NewModel(t *tracker.Tracker, backend tracker.Backend, opts Options) Model {
	if opts.Columns == nil {
		opts.Columns = newMemoryColumns()
	}
	board := &statusBoard{}
	t = t.WithBoard(board).WithPreferences(opts.Columns)

	delay := textinput.New()
	delay.Cursor.SetMode(cursor.CursorStatic)
	delay.Placeholder = PlaceholderDelay
	delay.CharLimit = delayCharLimit
	delay.Prompt = ""

	comments := textinput.New()
	comments.Cursor.SetMode(cursor.CursorStatic)
	comments.Placeholder = PlaceholderNotes
	comments.CharLimit = commentsCharLimit
	comments.Prompt = ""

	m := Model{
		tracker:       t,
		backend:       backend,
		board:         board,
		columns:       opts.Columns,
		push:          opts.Push,
		pushLive:      opts.Push != nil,
		customer:      opts.Customer,
		pollInterval:  opts.PollInterval,
		delayInput:    delay,
		commentsInput: comments,
		width:         opts.Width,
		height:        opts.Height,
	}
	if m.pollInterval <= 0 {
		m.pollInterval = config.DefaultPollInterval
	}
	if m.width <= 0 {
		m.width = DefaultWidth
	}
	if m.height <= 0 {
		m.height = DefaultHeight
	}
	t.Recompute()

	return m
}

// Tracker returns the view state.
func (m Model) Tracker() *tracker.Tracker {
	return m.tracker
}

// Focus returns the focused part of the screen.
func (m Model) Focus() Focus {
	return m.focus
}

// Notice returns the status line text.
func (m Model) Notice() string {
	return m.notice
}

// Confirming reports whether the discard question is showing.
func (m Model) Confirming() bool {
	return m.confirm != nil
}

// Init loads the table and starts the poll timer and the push listener.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{pollTick(m.pollInterval)}
	if tk, ok := m.tracker.PollDue(true); ok {
		cmds = append(cmds, fetchTable(m.backend, tk))
	}
	if m.push != nil {
		cmds = append(cmds, waitForPush(m.push))
	}
	return tea.Batch(cmds...)
}

// Update processes messages and updates the model state accordingly.
// This is part of the Bubble Tea model interface.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ensureCursorVisible()
		return m, nil

	case tea.FocusMsg:
		m.tracker.SetVisible(true)
		if tk, ok := m.tracker.PollDue(false); ok {
			return m, fetchTable(m.backend, tk)
		}
		return m, nil

	case tea.BlurMsg:
		m.tracker.SetVisible(false)
		return m, nil

	case pollTickMsg:
		cmds := []tea.Cmd{pollTick(m.pollInterval)}
		if tk, ok := m.tracker.PollDue(false); ok {
			cmds = append(cmds, fetchTable(m.backend, tk))
		}
		return m, tea.Batch(cmds...)

	case tableFetchedMsg:
		out := m.tracker.ApplyTable(msg.ticket, msg.body, msg.err)
		m.afterRefresh()
		if msg.ticket.Force {
			switch out {
			case tracker.Failed:
				m.setError("Refresh failed: " + errText(msg.err))
			case tracker.Applied, tracker.Unchanged:
				m.setNotice("Table refreshed.")
			case tracker.Skipped, tracker.Stale, tracker.Missing:
			}
		}
		return m, nil

	case pushMsg:
		var cmds []tea.Cmd
		if m.push != nil {
			cmds = append(cmds, waitForPush(m.push))
		}
		if tk, ok := m.tracker.PushReceived(msg.id); ok {
			cmds = append(cmds, fetchRow(m.backend, tk, m.tracker.Period()))
		}
		return m, tea.Batch(cmds...)

	case pushClosedMsg:
		m.pushLive = false
		m.setError(NoticePushLost)
		return m, nil

	case rowFetchedMsg:
		m.tracker.ApplyRow(msg.ticket, msg.body, msg.err)
		m.afterRefresh()
		return m, nil

	case saveDoneMsg:
		return m.finishSave(msg)
	}

	return m, nil
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == KeyCtrlC {
		return m, tea.Quit
	}

	switch {
	case m.confirm != nil:
		return m.updateConfirm(msg)
	case m.showColumns:
		return m.updateColumns(msg)
	case m.focus != FocusTable && m.tracker.Edit().Active():
		return m.updateEditor(msg)
	}

	return m.updateTable(msg)
}

// View renders the screen.
func (m Model) View() string {
	if m.confirm != nil {
		return m.viewConfirm()
	}
	if m.showColumns {
		return m.viewColumns()
	}
	return m.viewMain()
}

// rows returns the rows in view.
func (m Model) rows() []loads.Row {
	return m.tracker.Rows()
}

// cursorIndex is the index of the cursor row, clamped to the view.
func (m Model) cursorIndex() int {
	if n := m.tracker.Registry().Index(m.cursorID); n >= 0 {
		return n
	}
	return 0
}

func (m *Model) moveCursor(delta int) {
	ids := m.tracker.Registry().IDs()
	if len(ids) == 0 {
		return
	}
	i := m.cursorIndex() + delta
	i = max(0, min(i, len(ids)-1))
	m.cursorID = ids[i]
	if err := m.tracker.Select(m.cursorID); err != nil && m.tracker.CanEdit() {
		m.setError(err.Error())
	}
	m.ensureCursorVisible()
}

// afterRefresh keeps the cursor on a row after rows were replaced.
func (m *Model) afterRefresh() {
	ids := m.tracker.Registry().IDs()
	if len(ids) == 0 {
		m.cursorID = 0
		m.scrollOffset = 0
		return
	}
	if m.tracker.Registry().Index(m.cursorID) < 0 {
		if id, ok := m.tracker.Selected(); ok {
			m.cursorID = id
		} else {
			m.cursorID = ids[min(m.scrollOffset, len(ids)-1)]
		}
	}
	m.ensureCursorVisible()
}

func (m Model) viewHeight() int {
	h := m.height - chromeHeight
	if m.tracker.Edit().Active() {
		h -= 6
	}
	return max(minViewHeight, h)
}

// ensureCursorVisible keeps ScrollOffsetMargin rows around the cursor.
func (m *Model) ensureCursorVisible() {
	n := len(m.tracker.Registry().IDs())
	vh := m.viewHeight()
	if n <= vh {
		m.scrollOffset = 0
		return
	}
	c := m.cursorIndex()
	margin := min(ScrollOffsetMargin, vh/2)
	if c < m.scrollOffset+margin {
		m.scrollOffset = c - margin
	}
	if c > m.scrollOffset+vh-1-margin {
		m.scrollOffset = c - vh + 1 + margin
	}
	m.scrollOffset = max(0, min(m.scrollOffset, n-vh))
}

func (m *Model) setNotice(s string) {
	m.notice = s
	m.noticeErr = false
}

func (m *Model) setError(s string) {
	m.notice = s
	m.noticeErr = true
}

func errText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
