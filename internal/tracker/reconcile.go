package tracker

import (
	"context"

	"github.com/AntoineGS/loadtracker/internal/fragment"
)

// Outcome is the result of handing a refresh to the tracker.
type Outcome int

// Refresh outcomes.
const (
	Applied Outcome = iota
	Unchanged
	Skipped
	Stale
	Missing
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Applied:
		return "applied"
	case Unchanged:
		return "unchanged"
	case Skipped:
		return "skipped"
	case Stale:
		return "stale"
	case Missing:
		return "missing"
	default:
		return "failed"
	}
}

// RowTicket is an issued single-row refresh.
type RowTicket struct {
	ID  int64
	Seq uint64
}

// TableTicket is an issued full-table refresh.
type TableTicket struct {
	Seq   uint64
	Force bool
}

// PushReceived handles a row change notification. It returns false when
// the row is under edit; otherwise the row must be fetched and the result
// passed to ApplyRow.
func (t *Tracker) PushReceived(id int64) (RowTicket, bool) {
	if t.edit.Editing(id) {
		t.logger.Debug("push ignored, row is being edited", "row", id)
		return RowTicket{}, false
	}
	t.seq++
	return RowTicket{ID: id, Seq: t.seq}, true
}

// ApplyRow replaces a single row with a fetched fragment. Results are
// ordered by issue: a row result loses to any later-issued refresh of the
// same row or of the whole table that was already applied.
func (t *Tracker) ApplyRow(tk RowTicket, body []byte, fetchErr error) Outcome {
	log := t.logger.With("row", tk.ID, "seq", tk.Seq)

	if fetchErr != nil {
		log.Warn("row fetch failed", "error", fetchErr)
		return Failed
	}
	if t.edit.Editing(tk.ID) {
		log.Debug("row entered edit during fetch, dropping")
		return Skipped
	}

	row, err := fragment.DecodeRow(body)
	if err != nil {
		log.Warn("row fragment rejected", "error", err)
		return Failed
	}
	if row.ID != tk.ID {
		log.Warn("row fragment is for another row", "got", row.ID)
		return Failed
	}
	if !t.registry.Has(tk.ID) {
		log.Debug("pushed row not in view")
		return Missing
	}
	if tk.Seq < t.rowSeq[tk.ID] || tk.Seq < t.tableSeq {
		log.Debug("row result superseded", "outcome", Stale)
		return Stale
	}

	if err := t.registry.Replace(row); err != nil {
		log.Warn("row replace failed", "error", err)
		return Failed
	}
	t.rowSeq[tk.ID] = tk.Seq

	t.refreshView()
	if id, ok := t.Selected(); ok && id == tk.ID {
		log.Debug("selection restored")
	}
	log.Debug("row replaced")
	return Applied
}

// PollDue decides whether a table refresh may start. Polls never run while
// any row is under edit or the view is hidden. Force bypasses only the
// unchanged-content check at apply time.
func (t *Tracker) PollDue(force bool) (TableTicket, bool) {
	if t.edit.Active() {
		t.logger.Debug("poll skipped, edit open")
		return TableTicket{}, false
	}
	if !t.visible {
		t.logger.Debug("poll skipped, view hidden")
		return TableTicket{}, false
	}
	t.seq++
	return TableTicket{Seq: t.seq, Force: force}, true
}

// ApplyTable replaces the whole collection with a fetched table. Rows
// refreshed by a later-issued push are kept as they are.
func (t *Tracker) ApplyTable(tk TableTicket, body []byte, fetchErr error) Outcome {
	log := t.logger.With("seq", tk.Seq, "force", tk.Force)

	if fetchErr != nil {
		log.Warn("poll refresh error", "error", fetchErr)
		return Failed
	}
	if t.edit.Active() {
		log.Debug("edit opened during poll, dropping")
		return Skipped
	}
	if tk.Seq < t.tableSeq {
		log.Debug("table result superseded")
		return Stale
	}

	rows, err := fragment.DecodeRows(body)
	if err != nil {
		log.Warn("table fragment rejected", "error", err)
		return Failed
	}
	fp, err := fragment.Compute(rows)
	if err != nil {
		log.Warn("fingerprint failed", "error", err)
		return Failed
	}
	if !tk.Force && fp == t.fingerprint {
		log.Debug("poll unchanged", "fingerprint", fp)
		return Unchanged
	}

	keep := func(id int64) bool { return t.rowSeq[id] > tk.Seq }
	t.registry.ReplaceAll(rows, keep)
	t.fingerprint = fp
	t.tableSeq = tk.Seq
	for id, seq := range t.rowSeq {
		if seq <= tk.Seq || !t.registry.Has(id) {
			delete(t.rowSeq, id)
		}
	}

	keepID, hadSelection := t.Selected()
	t.refreshView()
	if _, ok := t.Selected(); hadSelection && !ok {
		log.Debug("selected row left the view, selection pending", "row", keepID)
	}
	log.Debug("poll refresh applied", "rows", len(rows))
	return Applied
}

// RefreshRow runs a push cycle for id with a blocking fetch.
func (t *Tracker) RefreshRow(ctx context.Context, id int64) Outcome {
	tk, ok := t.PushReceived(id)
	if !ok {
		return Skipped
	}
	body, err := t.backend.FetchRow(ctx, id, t.period)
	return t.ApplyRow(tk, body, err)
}

// RefreshTable runs a poll cycle with a blocking fetch.
func (t *Tracker) RefreshTable(ctx context.Context, force bool) Outcome {
	tk, ok := t.PollDue(force)
	if !ok {
		return Skipped
	}
	body, err := t.backend.FetchTable(ctx)
	return t.ApplyTable(tk, body, err)
}
