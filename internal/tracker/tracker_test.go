package tracker

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/AntoineGS/loadtracker/internal/loads"
	"github.com/AntoineGS/loadtracker/internal/testutil"
)

var testPeriod = loads.Period{Year: 2026, Month: 3}

type recordingBoard struct {
	err       error
	summaries []loads.Summary
}

func (b *recordingBoard) ShowSummary(s loads.Summary) error {
	b.summaries = append(b.summaries, s)
	return b.err
}

func (b *recordingBoard) last() loads.Summary {
	if len(b.summaries) == 0 {
		return loads.Summary{}
	}
	return b.summaries[len(b.summaries)-1]
}

type staticPrefs struct {
	visibility map[string]bool
	widths     map[string]int
	reads      int
}

func (p *staticPrefs) ColumnVisibility() map[string]bool {
	p.reads++
	return p.visibility
}

func (p *staticPrefs) ColumnWidths() map[string]int {
	return p.widths
}

// newTestTracker loads rows into a tracker backed by an in-memory server
// holding the same rows.
func newTestTracker(t *testing.T, rows ...loads.Row) (*Tracker, *testutil.Backend, *recordingBoard) {
	t.Helper()

	backend := testutil.NewBackend(rows...)
	board := &recordingBoard{}
	tr := New(backend, testPeriod).WithBoard(board)
	if err := tr.Load(rows); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return tr, backend, board
}

func TestLoadComputesSummary(t *testing.T) {
	tr, _, board := newTestTracker(t, testutil.MixedTable()...)

	want := loads.Counts{OnTime: 6, LateOther: 2, LateCarrier: 2}
	if got := tr.Summary().Counts; got != want {
		t.Fatalf("Summary() = %+v, want %+v", got, want)
	}
	if len(board.summaries) != 1 {
		t.Errorf("board updates = %d, want 1", len(board.summaries))
	}
	s := board.last()
	if s.Percents[loads.BucketOnTime] != 60 || s.Percents[loads.BucketLateOther] != 20 || s.Percents[loads.BucketLateCarrier] != 20 {
		t.Errorf("Percents = %v, want 60/20/20", s.Percents)
	}
	if tr.Fingerprint().IsZero() {
		t.Error("fingerprint not recorded on load")
	}
}

func TestRecomputeWithoutBoard(t *testing.T) {
	tr := New(testutil.NewBackend(), testPeriod)
	if err := tr.Load(testutil.MixedTable()); err != nil {
		t.Fatal(err)
	}
	if got := tr.Recompute().OnTime; got != 6 {
		t.Errorf("OnTime = %d, want 6", got)
	}
}

func TestRecomputeBoardErrorIsLogged(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	board := &recordingBoard{err: errors.New("status box rows < 4")}
	tr := New(testutil.NewBackend(), testPeriod).WithBoard(board).WithLogger(logger)
	if err := tr.Load(testutil.MixedTable()); err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(buf.String(), "summary board rejected update") {
		t.Errorf("missing board warning in log:\n%s", buf.String())
	}
}

func TestRecomputeZeroTotalsDiagnostic(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	var rows []loads.Row
	for i := int64(1); i <= 7; i++ {
		rows = append(rows, loads.Row{ID: i, OnTime: loads.TextCell("pending"), StatusText: "in transit"})
	}

	tr := New(testutil.NewBackend(), testPeriod).WithLogger(logger)
	if err := tr.Load(rows); err != nil {
		t.Fatal(err)
	}

	output := buf.String()
	if got := strings.Count(output, "totals are 0 but rows exist"); got != 5 {
		t.Errorf("diagnostic lines = %d, want 5", got)
	}
	if !strings.Contains(output, `status_text="IN TRANSIT"`) {
		t.Errorf("missing normalized status text in:\n%s", output)
	}
	if tr.Summary().Unknown != 7 {
		t.Errorf("Unknown = %d, want 7", tr.Summary().Unknown)
	}
}

func TestPreferencesReappliedOnReplace(t *testing.T) {
	prefs := &staticPrefs{visibility: map[string]bool{loads.ColPO: false}}
	backend := testutil.NewBackend(testutil.MixedTable()...)
	tr := New(backend, testPeriod).WithPreferences(prefs)
	if err := tr.Load(testutil.MixedTable()); err != nil {
		t.Fatal(err)
	}

	if tr.Layout().Visible(loads.ColPO) {
		t.Error("po should be hidden")
	}

	before := prefs.reads
	prefs.visibility = map[string]bool{loads.ColPO: true, loads.ColRAD: false}
	if out := tr.RefreshRow(context.Background(), 3); out != Applied {
		t.Fatalf("RefreshRow() = %v, want applied", out)
	}
	if prefs.reads <= before {
		t.Error("preferences not reread on replace")
	}
	if !tr.Layout().Visible(loads.ColPO) || tr.Layout().Visible(loads.ColRAD) {
		t.Errorf("layout not reapplied: hidden = %v", tr.Layout().Hidden)
	}
}
