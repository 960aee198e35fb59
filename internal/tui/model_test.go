package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/AntoineGS/loadtracker/internal/client"
	"github.com/AntoineGS/loadtracker/internal/config"
	"github.com/AntoineGS/loadtracker/internal/loads"
	"github.com/AntoineGS/loadtracker/internal/testutil"
	"github.com/AntoineGS/loadtracker/internal/tracker"
)

var testPeriod = loads.Period{Year: 2026, Month: 3}

// newTestModel returns a model whose table is already loaded from b.
func newTestModel(t *testing.T, b *testutil.Backend, readOnly bool) Model {
	t.Helper()

	tr := tracker.New(b, testPeriod).WithReadOnly(readOnly)
	m := NewModel(tr, b, Options{Customer: "ACME"})
	if out := m.tracker.RefreshTable(context.Background(), true); out != tracker.Applied {
		t.Fatalf("initial load = %v, want applied", out)
	}
	m.afterRefresh()
	return m
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "shift+tab":
		return tea.KeyMsg{Type: tea.KeyShiftTab}
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

// send delivers msg and runs every command it produces to completion.
func send(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()

	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T, want Model", next)
	}
	return drain(t, nm, cmd)
}

func drain(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()

	if cmd == nil {
		return m
	}
	switch msg := cmd().(type) {
	case nil:
		return m
	case tea.BatchMsg:
		for _, c := range msg {
			m = drain(t, m, c)
		}
		return m
	default:
		return send(t, m, msg)
	}
}

// press sends keys in order.
func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		m = send(t, m, keyMsg(k))
	}
	return m
}

// typeText types s into the focused input.
func typeText(t *testing.T, m Model, s string) Model {
	t.Helper()
	for _, r := range s {
		m = send(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return m
}

func TestNewModel(t *testing.T) {
	b := testutil.NewBackend(testutil.MixedTable()...)
	m := newTestModel(t, b, false)

	if got := m.tracker.Registry().Len(); got != 10 {
		t.Errorf("rows = %d, want 10", got)
	}
	if m.Focus() != FocusTable {
		t.Errorf("Focus() = %v, want table", m.Focus())
	}
	if m.cursorID != 1 {
		t.Errorf("cursorID = %d, want 1", m.cursorID)
	}
	if m.board.updates == 0 {
		t.Error("status board never received a summary")
	}
	if got := m.board.summary.OnTime; got != 6 {
		t.Errorf("board OnTime = %d, want 6", got)
	}
	if m.pollInterval != config.DefaultPollInterval {
		t.Errorf("pollInterval = %v, want %v", m.pollInterval, config.DefaultPollInterval)
	}
}

func TestCursorMovement(t *testing.T) {
	b := testutil.NewBackend(testutil.MixedTable()...)
	m := newTestModel(t, b, false)

	m = press(t, m, "down", "down", "j")
	if m.cursorID != 4 {
		t.Errorf("cursorID = %d, want 4", m.cursorID)
	}
	if id, ok := m.tracker.Selected(); !ok || id != 4 {
		t.Errorf("Selected() = %d, %v, want 4, true", id, ok)
	}

	m = press(t, m, "up", "up", "up", "up", "k")
	if m.cursorID != 1 {
		t.Errorf("cursorID = %d, want 1 after moving past the top", m.cursorID)
	}
}

func TestEditAndSave(t *testing.T) {
	b := testutil.NewBackend(testutil.MixedTable()...)
	m := newTestModel(t, b, false)

	m = press(t, m, "down", "enter")
	if id, ok := m.tracker.Edit().RowID(); !ok || id != 2 {
		t.Fatalf("editing = %d, %v, want 2, true", id, ok)
	}
	if m.Focus() != FocusException {
		t.Errorf("Focus() = %v, want exception", m.Focus())
	}

	m = press(t, m, " ")
	row, _ := m.tracker.Row(2)
	if !row.ExceptionChecked() {
		t.Error("space did not toggle the exception")
	}

	m = press(t, m, "tab")
	m = typeText(t, m, "weather")
	m = press(t, m, "tab")
	m = typeText(t, m, "dock closed")

	row, _ = m.tracker.Row(2)
	if row.Delay != "weather" || row.Comments != "dock closed" {
		t.Errorf("row = %q/%q, want weather/dock closed", row.Delay, row.Comments)
	}

	m = press(t, m, "ctrl+s")

	if m.tracker.Edit().Active() {
		t.Error("edit still open after a successful save")
	}
	if m.Notice() != NoticeSaved {
		t.Errorf("Notice() = %q, want %q", m.Notice(), NoticeSaved)
	}
	if m.Focus() != FocusTable {
		t.Errorf("Focus() = %v, want table", m.Focus())
	}

	ups := b.Updates()
	if len(ups) != 1 {
		t.Fatalf("updates = %d, want 1", len(ups))
	}
	u := ups[0]
	if u.ID != 2 || !u.Exception || u.Delay == nil || *u.Delay != "weather" ||
		u.Comments == nil || *u.Comments != "dock closed" || u.Period != testPeriod {
		t.Errorf("update = %+v", u)
	}

	rows, _ := b.Calls()
	if rows != 1 {
		t.Errorf("row fetches = %d, want 1 after save", rows)
	}
	row, _ = m.tracker.Row(2)
	if row.OriginalUserDelay != "weather" {
		t.Errorf("OriginalUserDelay = %q, want refreshed value weather", row.OriginalUserDelay)
	}
}

func TestSave_NoChanges(t *testing.T) {
	b := testutil.NewBackend(testutil.MixedTable()...)
	m := newTestModel(t, b, false)

	m = press(t, m, "enter", "ctrl+s")

	if m.tracker.Edit().Active() {
		t.Error("clean save left the edit open")
	}
	if m.Notice() != NoticeNoChanges {
		t.Errorf("Notice() = %q, want %q", m.Notice(), NoticeNoChanges)
	}
	if n := len(b.Updates()); n != 0 {
		t.Errorf("updates = %d, want 0", n)
	}
}

func TestSave_Failure(t *testing.T) {
	b := testutil.NewBackend(testutil.MixedTable()...)
	b.FailUpdates(client.NewUpdateError(409, "409 Conflict", "Row is closed for edits.\n"))
	m := newTestModel(t, b, false)

	m = press(t, m, "enter", " ", "ctrl+s")

	if !m.tracker.Edit().Active() {
		t.Fatal("failed save closed the edit")
	}
	if m.tracker.Edit().Saving() {
		t.Error("Saving() still true after the result arrived")
	}
	want := "Update failed (409 Conflict).\n\nRow is closed for edits."
	if m.Notice() != want {
		t.Errorf("Notice() = %q, want %q", m.Notice(), want)
	}
	if !m.noticeErr {
		t.Error("failure notice is not styled as an error")
	}
	row, _ := m.tracker.Row(1)
	if !row.ExceptionChecked() {
		t.Error("failed save lost the local edit")
	}
}

func TestSave_InFlight(t *testing.T) {
	b := testutil.NewBackend(testutil.MixedTable()...)
	m := newTestModel(t, b, false)

	m = press(t, m, "enter", " ")
	next, cmd := m.Update(keyMsg("ctrl+s"))
	m = next.(Model)
	if cmd == nil {
		t.Fatal("save returned no command")
	}

	next, second := m.Update(keyMsg("ctrl+s"))
	m = next.(Model)
	if second != nil {
		t.Error("second save while one is in flight returned a command")
	}
	if m.Notice() != NoticeSaving {
		t.Errorf("Notice() = %q, want %q", m.Notice(), NoticeSaving)
	}

	m = drain(t, m, cmd)
	if m.tracker.Edit().Active() {
		t.Error("edit open after save completed")
	}
	if n := len(b.Updates()); n != 1 {
		t.Errorf("updates = %d, want 1", n)
	}
}

func TestCancelRestoresSnapshot(t *testing.T) {
	b := testutil.NewBackend(testutil.MixedTable()...)
	m := newTestModel(t, b, false)

	m = press(t, m, "enter", "tab")
	m = typeText(t, m, "late truck")
	m = press(t, m, "esc")

	if m.tracker.Edit().Active() {
		t.Error("esc left the edit open")
	}
	row, _ := m.tracker.Row(1)
	if row.Delay != "" {
		t.Errorf("Delay = %q, want restored empty value", row.Delay)
	}
	if m.Focus() != FocusTable {
		t.Errorf("Focus() = %v, want table", m.Focus())
	}
}

func TestQuitBlockedWhileEditing(t *testing.T) {
	b := testutil.NewBackend(testutil.MixedTable()...)
	m := newTestModel(t, b, false)

	m = press(t, m, "enter", "shift+tab")
	if m.Focus() != FocusTable {
		t.Fatalf("Focus() = %v, want table", m.Focus())
	}

	_, cmd := m.Update(keyMsg("q"))
	if cmd != nil {
		if _, quit := cmd().(tea.QuitMsg); quit {
			t.Error("q quit with an edit open")
		}
	}

	m = press(t, m, "esc")
	_, cmd = m.Update(keyMsg("q"))
	if cmd == nil {
		t.Fatal("q returned no command")
	}
	if _, quit := cmd().(tea.QuitMsg); !quit {
		t.Error("q did not quit")
	}
}

func TestReadOnly(t *testing.T) {
	b := testutil.NewBackend(testutil.MixedTable()...)
	m := newTestModel(t, b, true)

	m = press(t, m, "enter")

	if m.tracker.Edit().Active() {
		t.Error("read-only view opened an edit")
	}
	if m.Notice() != NoticeReadOnly {
		t.Errorf("Notice() = %q, want %q", m.Notice(), NoticeReadOnly)
	}

	m = press(t, m, "down")
	if m.cursorID != 2 {
		t.Errorf("cursorID = %d, want 2", m.cursorID)
	}
	if _, ok := m.tracker.Selected(); ok {
		t.Error("read-only view has a selection")
	}
}

func TestPushRefreshesRow(t *testing.T) {
	b := testutil.NewBackend(testutil.MixedTable()...)
	m := newTestModel(t, b, false)

	r, _ := b.Row(3)
	r.Comments = "changed elsewhere"
	b.SetRow(r)

	m = send(t, m, pushMsg{id: 3})

	got, _ := m.tracker.Row(3)
	if got.Comments != "changed elsewhere" {
		t.Errorf("Comments = %q, want pushed value", got.Comments)
	}
}

func TestPushIgnoredForOpenRow(t *testing.T) {
	b := testutil.NewBackend(testutil.MixedTable()...)
	m := newTestModel(t, b, false)

	m = press(t, m, "enter", "tab")
	m = typeText(t, m, "mine")

	r, _ := b.Row(1)
	r.Delay = "theirs"
	b.SetRow(r)

	m = send(t, m, pushMsg{id: 1})

	got, _ := m.tracker.Row(1)
	if got.Delay != "mine" {
		t.Errorf("Delay = %q, want local edit kept", got.Delay)
	}
	if rows, _ := b.Calls(); rows != 0 {
		t.Errorf("row fetches = %d, want 0", rows)
	}
}

func TestPollSkippedWhileEditing(t *testing.T) {
	b := testutil.NewBackend(testutil.MixedTable()...)
	m := newTestModel(t, b, false)
	_, before := b.Calls()

	m = press(t, m, "enter", "shift+tab", "r")

	if _, after := b.Calls(); after != before {
		t.Errorf("table fetches = %d, want %d", after, before)
	}
	if m.Notice() != NoticeEditingBusy {
		t.Errorf("Notice() = %q, want %q", m.Notice(), NoticeEditingBusy)
	}
}

func TestForcedRefresh(t *testing.T) {
	b := testutil.NewBackend(testutil.MixedTable()...)
	m := newTestModel(t, b, false)

	b.RemoveRow(1)
	m = press(t, m, "r")

	if m.tracker.Registry().Has(1) {
		t.Error("removed row still in view")
	}
	if m.cursorID == 1 {
		t.Error("cursor left on a removed row")
	}
	if m.Notice() != "Table refreshed." {
		t.Errorf("Notice() = %q, want Table refreshed.", m.Notice())
	}

	b.FailTables(errors.New("gateway timeout"))
	m = press(t, m, "r")
	if !strings.Contains(m.Notice(), "gateway timeout") {
		t.Errorf("Notice() = %q, want the fetch error", m.Notice())
	}
	if got := m.tracker.Registry().Len(); got != 9 {
		t.Errorf("rows = %d, want 9 kept after a failed refresh", got)
	}
}

func TestBlurStopsPolling(t *testing.T) {
	b := testutil.NewBackend(testutil.MixedTable()...)
	m := newTestModel(t, b, false)
	_, before := b.Calls()

	m = send(t, m, tea.BlurMsg{})
	if m.tracker.Visible() {
		t.Fatal("view visible after blur")
	}
	if _, ok := m.tracker.PollDue(false); ok {
		t.Error("poll due while hidden")
	}

	b.RemoveRow(2)
	m = send(t, m, tea.FocusMsg{})
	if _, after := b.Calls(); after != before+1 {
		t.Errorf("table fetches = %d, want %d after focus", after, before+1)
	}
	if m.tracker.Registry().Has(2) {
		t.Error("focus refresh did not apply")
	}
}

func TestPushClosed(t *testing.T) {
	b := testutil.NewBackend(testutil.MixedTable()...)
	ch := make(chan int64)
	tr := tracker.New(b, testPeriod)
	m := NewModel(tr, b, Options{Push: ch})
	if !m.pushLive {
		t.Fatal("pushLive = false with a channel")
	}

	close(ch)
	m = drain(t, m, waitForPush(ch))

	if m.pushLive {
		t.Error("pushLive still true after the channel closed")
	}
	if m.Notice() != NoticePushLost {
		t.Errorf("Notice() = %q, want %q", m.Notice(), NoticePushLost)
	}
}

func TestRecomputeKey(t *testing.T) {
	b := testutil.NewBackend(testutil.MixedTable()...)
	m := newTestModel(t, b, false)
	before := m.board.updates

	m = press(t, m, "R")

	if m.board.updates != before+1 {
		t.Errorf("board updates = %d, want %d", m.board.updates, before+1)
	}
	if m.Notice() != NoticeRecomputed {
		t.Errorf("Notice() = %q, want %q", m.Notice(), NoticeRecomputed)
	}
}

func TestEnsureCursorVisible(t *testing.T) {
	var rows []loads.Row
	for i := int64(1); i <= 40; i++ {
		rows = append(rows, testutil.Load(i, loads.CheckboxCell(true), false))
	}
	b := testutil.NewBackend(rows...)
	m := newTestModel(t, b, false)
	m = send(t, m, tea.WindowSizeMsg{Width: 120, Height: 24})

	vh := m.viewHeight()
	for range 20 {
		m = press(t, m, "down")
	}

	c := m.cursorIndex()
	if c < m.scrollOffset || c >= m.scrollOffset+vh {
		t.Errorf("cursor %d outside window [%d, %d)", c, m.scrollOffset, m.scrollOffset+vh)
	}
	if c > m.scrollOffset+vh-1-ScrollOffsetMargin {
		t.Errorf("cursor %d within margin of the bottom edge (offset %d, height %d)", c, m.scrollOffset, vh)
	}
}

func TestFocusString(t *testing.T) {
	tests := []struct {
		f    Focus
		want string
	}{
		{FocusTable, "table"},
		{FocusException, "exception"},
		{FocusDelay, "delay"},
		{FocusComments, "comments"},
	}

	for _, tt := range tests {
		if got := tt.f.String(); got != tt.want {
			t.Errorf("Focus(%d).String() = %q, want %q", tt.f, got, tt.want)
		}
	}
}

func TestNextFocus(t *testing.T) {
	m := Model{focus: FocusComments}
	if got := m.nextFocus(1); got != FocusTable {
		t.Errorf("nextFocus(1) from comments = %v, want table", got)
	}
	m.focus = FocusTable
	if got := m.nextFocus(-1); got != FocusComments {
		t.Errorf("nextFocus(-1) from table = %v, want comments", got)
	}
}
