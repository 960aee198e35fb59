// Package tracker keeps a live view of the load table consistent while a
// single row is edited and the table is refreshed by push and poll.
//
// A Tracker is not safe for concurrent use. All methods are meant to run
// on one event loop; network calls happen outside it and their results are
// handed back through the Apply and Finish methods.
package tracker

import (
	"context"
	"io"
	"log/slog"

	"github.com/AntoineGS/loadtracker/internal/fragment"
	"github.com/AntoineGS/loadtracker/internal/loads"
)

// DefaultMessageLimit bounds the server message shown after a failed save.
const DefaultMessageLimit = 800

// Updater submits saved edits.
type Updater interface {
	Update(ctx context.Context, u loads.Update) error
}

// RowFetcher returns the current fragment of a single row.
type RowFetcher interface {
	FetchRow(ctx context.Context, id int64, p loads.Period) ([]byte, error)
}

// TableFetcher returns the current fragment of the whole table.
type TableFetcher interface {
	FetchTable(ctx context.Context) ([]byte, error)
}

// Backend is every server operation the tracker needs.
type Backend interface {
	Updater
	RowFetcher
	TableFetcher
}

// Preferences supplies per-viewer display settings. The tracker only
// reads them.
type Preferences interface {
	ColumnVisibility() map[string]bool
	ColumnWidths() map[string]int
}

// Confirmer answers a yes/no question.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(prompt string) bool

// Confirm calls f.
func (f ConfirmFunc) Confirm(prompt string) bool {
	return f(prompt)
}

// Always is a Confirmer that answers yes.
var Always = ConfirmFunc(func(string) bool { return true })

// SummaryBoard displays the aggregate counts.
type SummaryBoard interface {
	ShowSummary(s loads.Summary) error
}

// Tracker is the view state: the rows in view, the selection, the edit
// session and the refresh bookkeeping.
type Tracker struct {
	backend Backend
	prefs   Preferences
	board   SummaryBoard
	logger  *slog.Logger

	registry *Registry
	rowSeq   map[int64]uint64
	summary  loads.Summary
	layout   Layout
	edit     EditSession

	period      loads.Period
	fingerprint fragment.Fingerprint

	selected     int64
	seq          uint64
	tableSeq     uint64
	messageLimit int

	hasSelection bool
	canEdit      bool
	visible      bool
}

// New creates a tracker for the given period. The view starts visible and
// editable with default column layout.
func New(backend Backend, period loads.Period) *Tracker {
	return &Tracker{
		backend:      backend,
		period:       period,
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		registry:     NewRegistry(),
		rowSeq:       make(map[int64]uint64),
		layout:       BuildLayout(nil, nil),
		messageLimit: DefaultMessageLimit,
		canEdit:      true,
		visible:      true,
	}
}

// WithLogger sets a custom logger
func (t *Tracker) WithLogger(logger *slog.Logger) *Tracker {
	t2 := *t
	t2.logger = logger

	return &t2
}

// WithPreferences sets the preferences source and applies it.
func (t *Tracker) WithPreferences(p Preferences) *Tracker {
	t2 := *t
	t2.prefs = p
	t2.reapplyPreferences()

	return &t2
}

// WithBoard sets where summaries are displayed.
func (t *Tracker) WithBoard(b SummaryBoard) *Tracker {
	t2 := *t
	t2.board = b

	return &t2
}

// WithReadOnly returns a tracker that never wires rows, so rows cannot be
// selected or edited.
func (t *Tracker) WithReadOnly(readOnly bool) *Tracker {
	t2 := *t
	t2.canEdit = !readOnly

	return &t2
}

// WithMessageLimit bounds the save failure message to limit runes.
func (t *Tracker) WithMessageLimit(limit int) *Tracker {
	t2 := *t
	t2.messageLimit = limit

	return &t2
}

// Period returns the period in view.
func (t *Tracker) Period() loads.Period { return t.period }

// CanEdit reports whether rows may be selected and edited.
func (t *Tracker) CanEdit() bool { return t.canEdit }

// Registry exposes the rows in view.
func (t *Tracker) Registry() *Registry { return t.registry }

// Rows returns the rows in display order.
func (t *Tracker) Rows() []loads.Row { return t.registry.Rows() }

// Row returns the row with the given id.
func (t *Tracker) Row(id int64) (loads.Row, bool) { return t.registry.Get(id) }

// Edit returns the edit session.
func (t *Tracker) Edit() *EditSession { return &t.edit }

// Selected returns the selected row id. A selected row missing from the
// current table reports false but stays pending until ClearSelection.
func (t *Tracker) Selected() (int64, bool) {
	if !t.hasSelection || !t.registry.Has(t.selected) {
		return 0, false
	}
	return t.selected, true
}

// Summary returns the last computed summary.
func (t *Tracker) Summary() loads.Summary { return t.summary }

// Layout returns the column layout from the last preferences reapply.
func (t *Tracker) Layout() Layout { return t.layout }

// Fingerprint returns the fingerprint of the last applied table.
func (t *Tracker) Fingerprint() fragment.Fingerprint { return t.fingerprint }

// Visible reports whether the view is shown.
func (t *Tracker) Visible() bool { return t.visible }

// SetVisible records whether the view is shown. Polls are skipped while
// hidden.
func (t *Tracker) SetVisible(v bool) {
	if t.visible != v {
		t.logger.Debug("visibility changed", "visible", v)
	}
	t.visible = v
}

// Load installs the initial rows.
func (t *Tracker) Load(rows []loads.Row) error {
	fp, err := fragment.Compute(rows)
	if err != nil {
		return err
	}
	t.registry.ReplaceAll(rows, nil)
	t.fingerprint = fp
	t.refreshView()
	return nil
}

// LoadFragment decodes a table fragment and installs its rows.
func (t *Tracker) LoadFragment(body []byte) error {
	rows, err := fragment.DecodeRows(body)
	if err != nil {
		return err
	}
	return t.Load(rows)
}

// Recompute reclassifies every row and writes the summary to the board.
func (t *Tracker) Recompute() loads.Summary {
	rows := t.registry.Rows()
	s := loads.Summarize(rows)
	t.summary = s

	t.logger.Debug("status updated", "on_time", s.OnTime, "late_carrier", s.LateCarrier,
		"late_other", s.LateOther, "unknown", s.Unknown, "rows", len(rows))

	if s.Tracked() == 0 && len(rows) > 0 {
		t.logSample(rows)
	}

	if t.board == nil {
		t.logger.Debug("no summary board, skipping display")
		return s
	}
	if err := t.board.ShowSummary(s); err != nil {
		t.logger.Warn("summary board rejected update", "error", err)
	}
	return s
}

func (t *Tracker) logSample(rows []loads.Row) {
	for i, r := range rows {
		if i >= 5 {
			break
		}
		t.logger.Debug("totals are 0 but rows exist",
			"row", r.ID,
			"ontime_text", loads.Normalize(r.OnTime.Display()),
			"exception_text", loads.Normalize(r.Exception.Display()),
			"status_text", loads.Normalize(r.StatusText))
	}
}

// ApplyPreferences rereads the preferences after they changed.
func (t *Tracker) ApplyPreferences() {
	t.reapplyPreferences()
	t.Recompute()
}

func (t *Tracker) reapplyPreferences() {
	if t.prefs == nil {
		t.layout = BuildLayout(nil, nil)
		return
	}
	t.layout = BuildLayout(t.prefs.ColumnVisibility(), t.prefs.ColumnWidths())
}

// refreshView runs the steps that follow any row replacement.
func (t *Tracker) refreshView() {
	t.reapplyPreferences()
	if n := t.registry.Rebind(t.canEdit); n > 0 {
		t.logger.Debug("wired rows", "count", n)
	}
	t.Recompute()
}
