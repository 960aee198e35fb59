package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/AntoineGS/loadtracker/internal/loads"
	"github.com/AntoineGS/loadtracker/internal/testutil"
	"github.com/AntoineGS/loadtracker/internal/tracker"
)

// failingColumns rejects every write.
type failingColumns struct {
	*memoryColumns
}

func (failingColumns) SetColumnVisible(context.Context, string, bool) error {
	return errors.New("disk full")
}

func (failingColumns) SetColumnWidth(context.Context, string, int) error {
	return errors.New("disk full")
}

func newColumnsModel(t *testing.T, cols ColumnStore) Model {
	t.Helper()

	b := testutil.NewBackend(testutil.MixedTable()...)
	tr := tracker.New(b, testPeriod)
	m := NewModel(tr, b, Options{Columns: cols})
	m.tracker.RefreshTable(context.Background(), true)
	m.afterRefresh()
	return press(t, m, "c")
}

func TestColumns_ToggleVisibility(t *testing.T) {
	cols := newMemoryColumns()
	m := newColumnsModel(t, cols)
	if !m.showColumns {
		t.Fatal("c did not open the columns panel")
	}

	m = press(t, m, "down", " ")

	key := loads.Columns[1].Key
	if m.tracker.Layout().Visible(key) {
		t.Errorf("column %s still visible", key)
	}
	if v, ok := cols.visible[key]; !ok || v {
		t.Errorf("stored visibility = %v, %v, want false, true", v, ok)
	}

	m = press(t, m, "enter")
	if !m.tracker.Layout().Visible(key) {
		t.Errorf("column %s hidden after toggling back", key)
	}

	m = press(t, m, "esc")
	if m.showColumns {
		t.Error("esc did not close the panel")
	}
}

func TestColumns_Resize(t *testing.T) {
	cols := newMemoryColumns()
	m := newColumnsModel(t, cols)
	col := loads.Columns[0]

	m = press(t, m, "+", "+")
	if got := cols.widths[col.Key]; got != col.Width+2*ColumnWidthStep {
		t.Errorf("width = %d, want %d", got, col.Width+2*ColumnWidthStep)
	}
	if got := m.tracker.Layout().Columns[0].Width; got != col.Width+2*ColumnWidthStep {
		t.Errorf("layout width = %d, want %d", got, col.Width+2*ColumnWidthStep)
	}

	for range 20 {
		m = press(t, m, "-")
	}
	if got := cols.widths[col.Key]; got != tracker.MinColumnWidth {
		t.Errorf("width = %d, want clamped to %d", got, tracker.MinColumnWidth)
	}
}

func TestColumns_StoreError(t *testing.T) {
	m := newColumnsModel(t, failingColumns{newMemoryColumns()})

	m = press(t, m, " ")

	if !strings.Contains(m.Notice(), "disk full") {
		t.Errorf("Notice() = %q, want the store error", m.Notice())
	}
	if !m.tracker.Layout().Visible(loads.Columns[0].Key) {
		t.Error("column hidden although the store rejected the change")
	}
}

func TestViewColumns(t *testing.T) {
	m := newColumnsModel(t, newMemoryColumns())
	m = press(t, m, " ")

	out := plainView(m.View())

	if !strings.Contains(out, "> [ ] Probill") {
		t.Errorf("cursor line missing hidden Probill:\n%s", out)
	}
	if !strings.Contains(out, "[x] Comments") {
		t.Errorf("Comments not listed as visible:\n%s", out)
	}
}
