package tui

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/sebdah/goldie/v2"

	"github.com/AntoineGS/loadtracker/internal/loads"
	"github.com/AntoineGS/loadtracker/internal/testutil"
	"github.com/AntoineGS/loadtracker/internal/tracker"
)

// TestViewMain_States checks the rendered main screen in its common states.
func TestViewMain_States(t *testing.T) {
	tests := []struct {
		name      string
		readOnly  bool
		setupFunc func(*testing.T, Model) Model
		want      []string
		notWant   []string
	}{
		{
			name:      "browsing",
			setupFunc: func(_ *testing.T, m Model) Model { return m },
			want: []string{
				"Loads  ACME  2026-03",
				"Shipment", "Delivery",
				"Probill", "On Time",
				"P00001", "Receiver 10",
				"On Time 6 (60%)",
				"r refresh",
				"polling only",
			},
			notWant: []string{"Editing load", "read-only"},
		},
		{
			name: "editing",
			setupFunc: func(t *testing.T, m Model) Model {
				m = press(t, m, "down", "enter", " ", "tab")
				return typeText(t, m, "snow")
			},
			want: []string{
				"Editing load 2",
				"(modified)",
				"Exception",
				"[x]",
				"snow",
				"ctrl+s save",
			},
		},
		{
			name:      "read only",
			readOnly:  true,
			setupFunc: func(_ *testing.T, m Model) Model { return m },
			want:      []string{"read-only", "P00001"},
		},
		{
			name: "error notice",
			setupFunc: func(t *testing.T, m Model) Model {
				m.setError("Refresh failed: boom")
				return m
			},
			want: []string{"Refresh failed: boom"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Force ASCII color profile for consistent rendering
			lipgloss.SetColorProfile(termenv.Ascii)

			b := testutil.NewBackend(testutil.MixedTable()...)
			m := tt.setupFunc(t, newTestModel(t, b, tt.readOnly))

			out := plainView(m.View())
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("view missing %q:\n%s", w, out)
				}
			}
			for _, w := range tt.notWant {
				if strings.Contains(out, w) {
					t.Errorf("view contains %q:\n%s", w, out)
				}
			}
		})
	}
}

// narrowModel shows three rows, one per bucket, with only the probill,
// exception, on-time and comments columns visible.
func narrowModel(t *testing.T, readOnly bool) Model {
	t.Helper()

	cols := newMemoryColumns()
	for _, c := range loads.Columns {
		switch c.Key {
		case loads.ColProbill, loads.ColException, loads.ColOnTime, loads.ColComments:
		default:
			cols.visible[c.Key] = false
		}
	}

	b := testutil.NewBackend(
		testutil.Load(1, loads.CheckboxCell(true), false),
		testutil.Load(2, loads.TextCell("No"), true),
		testutil.Load(3, loads.SelectCell("N", "No"), false),
	)
	tr := tracker.New(b, testPeriod).WithReadOnly(readOnly)
	m := NewModel(tr, b, Options{Customer: "ACME", Columns: cols})
	if out := m.tracker.RefreshTable(context.Background(), true); out != tracker.Applied {
		t.Fatalf("initial load = %v, want applied", out)
	}
	m.afterRefresh()
	return m
}

func TestView_Golden(t *testing.T) {
	tests := []struct {
		name  string
		model func(*testing.T) Model
	}{
		{
			name:  "main_browsing",
			model: func(t *testing.T) Model { return narrowModel(t, false) },
		},
		{
			name:  "main_read_only",
			model: func(t *testing.T) Model { return narrowModel(t, true) },
		},
		{
			name: "columns_panel",
			model: func(t *testing.T) Model {
				return newColumnsModel(t, newMemoryColumns())
			},
		},
		{
			name: "discard_confirm",
			model: func(t *testing.T) Model {
				m, _ := dirtyOnFirstRow(t)
				return press(t, m, "enter")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Force ASCII color profile for consistent rendering
			lipgloss.SetColorProfile(termenv.Ascii)

			normalized := plainView(tt.model(t).View())

			g := goldie.New(t)
			g.Assert(t, tt.name, []byte(normalized))
		})
	}
}

func TestViewMain_Loading(t *testing.T) {
	lipgloss.SetColorProfile(termenv.Ascii)

	b := testutil.NewBackend(testutil.MixedTable()...)
	m := NewModel(tracker.New(b, testPeriod), b, Options{Customer: "ACME"})
	out := plainView(m.View())

	if !strings.Contains(out, NoticeLoading) {
		t.Errorf("view before the first load missing %q:\n%s", NoticeLoading, out)
	}
	if strings.Contains(out, "No loads for this period.") {
		t.Errorf("view before the first load claims the period is empty:\n%s", out)
	}
}

func TestViewMain_Empty(t *testing.T) {
	lipgloss.SetColorProfile(termenv.Ascii)

	m := newTestModel(t, testutil.NewBackend(), false)
	out := plainView(m.View())

	if !strings.Contains(out, "No loads for this period.") {
		t.Errorf("empty view missing placeholder:\n%s", out)
	}
}

func TestViewMain_ScrollIndicators(t *testing.T) {
	lipgloss.SetColorProfile(termenv.Ascii)

	var rows []loads.Row
	for i := int64(1); i <= 30; i++ {
		rows = append(rows, testutil.Load(i, loads.CheckboxCell(true), false))
	}
	m := newTestModel(t, testutil.NewBackend(rows...), false)
	m = send(t, m, tea.WindowSizeMsg{Width: 120, Height: 24})

	out := plainView(m.View())
	if !strings.Contains(out, "↓ 20 more") {
		t.Errorf("missing bottom indicator:\n%s", out)
	}

	for range 15 {
		m = press(t, m, "down")
	}
	out = plainView(m.View())
	if !strings.Contains(out, "↑") {
		t.Errorf("missing top indicator after scrolling:\n%s", out)
	}
}

func TestFit(t *testing.T) {
	tests := []struct {
		in   string
		w    int
		want string
	}{
		{"abc", 5, "abc  "},
		{"abcdef", 4, "abc…"},
		{"a\nb", 3, "a b"},
		{"", 2, "  "},
	}

	for _, tt := range tests {
		if got := fit(tt.in, tt.w); got != tt.want {
			t.Errorf("fit(%q, %d) = %q, want %q", tt.in, tt.w, got, tt.want)
		}
	}
}
