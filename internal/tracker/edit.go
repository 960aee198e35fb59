package tracker

import (
	"context"
	"strings"

	"github.com/AntoineGS/loadtracker/internal/loads"
)

// EditState is the state of the edit session.
type EditState int

// Edit session states.
const (
	Idle EditState = iota
	Editing
)

func (s EditState) String() string {
	if s == Editing {
		return "editing"
	}
	return "idle"
}

// Snapshot holds the values of a row when it entered edit mode.
type Snapshot struct {
	Delay             string
	Comments          string
	OriginalUserDelay string
	EffectiveDelay    string
	Exception         bool
}

func snapshotOf(r loads.Row) Snapshot {
	return Snapshot{
		Exception:         r.ExceptionChecked(),
		Delay:             r.Delay,
		Comments:          r.Comments,
		OriginalUserDelay: strings.TrimSpace(r.OriginalUserDelay),
		EffectiveDelay:    strings.TrimSpace(r.EffectiveDelay),
	}
}

// Differs reports whether r's editable fields differ from the snapshot,
// comparing trimmed text.
func (s Snapshot) Differs(r loads.Row) bool {
	return r.ExceptionChecked() != s.Exception ||
		strings.TrimSpace(r.Delay) != strings.TrimSpace(s.Delay) ||
		strings.TrimSpace(r.Comments) != strings.TrimSpace(s.Comments)
}

func (s Snapshot) restore(r *loads.Row) {
	if r.Exception.Kind == loads.CellCheckbox {
		r.Exception.Checked = s.Exception
	}
	r.Delay = s.Delay
	r.Comments = s.Comments
}

// EditSession tracks the single row open for editing. At most one row is
// ever open; the session owns its snapshot.
type EditSession struct {
	snapshot Snapshot
	rowID    int64
	token    uint64
	state    EditState
	saving   bool
}

// State returns the current state.
func (s *EditSession) State() EditState {
	return s.state
}

// RowID returns the row under edit.
func (s *EditSession) RowID() (int64, bool) {
	return s.rowID, s.state == Editing
}

// Editing reports whether id is the row under edit.
func (s *EditSession) Editing(id int64) bool {
	return s.state == Editing && s.rowID == id
}

// Active reports whether any row is under edit.
func (s *EditSession) Active() bool {
	return s.state == Editing
}

// Saving reports whether a save for the open row is in flight.
func (s *EditSession) Saving() bool {
	return s.state == Editing && s.saving
}

// Snapshot returns the captured values of the open row.
func (s *EditSession) Snapshot() (Snapshot, bool) {
	return s.snapshot, s.state == Editing
}

func (s *EditSession) begin(r loads.Row) {
	s.token++
	s.state = Editing
	s.rowID = r.ID
	s.snapshot = snapshotOf(r)
	s.saving = false
}

func (s *EditSession) end() {
	s.state = Idle
	s.rowID = 0
	s.snapshot = Snapshot{}
	s.saving = false
}

// SaveTicket identifies one submitted save.
type SaveTicket struct {
	Update loads.Update
	token  uint64
}

// Payload builds the update for r. Empty text clears. A delay equal to the
// effective delay is sent as no override when the user had none before.
func Payload(r loads.Row, snap Snapshot, p loads.Period) loads.Update {
	u := loads.Update{ID: r.ID, Exception: r.ExceptionChecked(), Period: p}

	delay := strings.TrimSpace(r.Delay)
	if delay != "" && (snap.OriginalUserDelay != "" || delay != snap.EffectiveDelay) {
		u.Delay = &delay
	}

	if comments := strings.TrimSpace(r.Comments); comments != "" {
		u.Comments = &comments
	}

	return u
}

// EnterEdit opens id for editing and selects it. A different open row is
// discarded without asking; callers resolve confirmation first.
func (t *Tracker) EnterEdit(id int64) error {
	if !t.canEdit {
		return ErrReadOnly
	}
	row, ok := t.registry.Get(id)
	if !ok {
		return ErrRowNotFound
	}
	if t.edit.Editing(id) {
		return nil
	}
	if t.edit.Active() {
		t.CancelEdit()
	}

	t.edit.begin(row)
	t.selected, t.hasSelection = id, true
	t.logger.Debug("enter edit", "row", id)
	return nil
}

// IsDirty reports whether the open row differs from its snapshot.
func (t *Tracker) IsDirty() bool {
	id, ok := t.edit.RowID()
	if !ok {
		return false
	}
	row, ok := t.registry.Get(id)
	if !ok {
		return false
	}
	return t.edit.snapshot.Differs(row)
}

// CancelEdit restores the open row from its snapshot and closes the
// session. It does nothing when no row is open.
func (t *Tracker) CancelEdit() {
	id, ok := t.edit.RowID()
	if !ok {
		return
	}
	snap := t.edit.snapshot
	if err := t.registry.update(id, snap.restore); err != nil {
		t.logger.Warn("row under edit left the view", "row", id)
	}
	t.edit.end()
	t.logger.Debug("cancel edit", "row", id)
	t.Recompute()
}

func (t *Tracker) editRow(id int64, fn func(*loads.Row) error) error {
	if !t.edit.Editing(id) {
		return ErrRowLocked
	}
	var ferr error
	if err := t.registry.update(id, func(r *loads.Row) { ferr = fn(r) }); err != nil {
		return err
	}
	return ferr
}

// SetException sets the exception flag of the open row.
func (t *Tracker) SetException(id int64, checked bool) error {
	err := t.editRow(id, func(r *loads.Row) error {
		if r.Exception.Kind != loads.CellCheckbox {
			return ErrFieldReadOnly
		}
		r.Exception.Checked = checked
		return nil
	})
	if err != nil {
		return err
	}
	t.Recompute()
	return nil
}

// SetDelay sets the delay text of the open row.
func (t *Tracker) SetDelay(id int64, delay string) error {
	return t.editRow(id, func(r *loads.Row) error {
		r.Delay = delay
		return nil
	})
}

// SetComments sets the comments of the open row.
func (t *Tracker) SetComments(id int64, comments string) error {
	return t.editRow(id, func(r *loads.Row) error {
		r.Comments = comments
		return nil
	})
}

// BeginSave starts saving the open row. A clean row closes the session and
// returns a nil ticket; otherwise the returned ticket's Update must be
// submitted and its result passed to FinishSave.
func (t *Tracker) BeginSave() (*SaveTicket, error) {
	id, ok := t.edit.RowID()
	if !ok {
		return nil, ErrNotEditing
	}
	if t.edit.saving {
		return nil, ErrSaveInFlight
	}
	row, ok := t.registry.Get(id)
	if !ok {
		t.edit.end()
		return nil, ErrRowNotFound
	}

	if !t.edit.snapshot.Differs(row) {
		t.edit.end()
		t.logger.Debug("save with no changes, exit edit", "row", id)
		t.Recompute()
		return nil, nil
	}

	t.edit.saving = true
	tk := &SaveTicket{Update: Payload(row, t.edit.snapshot, t.period), token: t.edit.token}
	t.logger.Debug("saving", "row", id, "exception", tk.Update.Exception,
		"delay", optional(tk.Update.Delay), "comments", optional(tk.Update.Comments))
	return tk, nil
}

// FinishSave applies the result of a submitted save. A failure keeps the
// session open and returns a *SaveError. Results for a session that has
// since closed are dropped.
func (t *Tracker) FinishSave(tk *SaveTicket, err error) error {
	if tk == nil {
		return nil
	}
	if !t.edit.Active() || t.edit.token != tk.token {
		t.logger.Debug("dropping save result for closed edit", "row", tk.Update.ID, "error", err)
		return nil
	}
	t.edit.saving = false

	if err != nil {
		t.logger.Warn("update failed", "row", tk.Update.ID, "error", err)
		return NewSaveError(tk.Update.ID, err, truncate(serverMessage(err), t.messageLimit))
	}

	t.edit.end()
	t.logger.Debug("saved", "row", tk.Update.ID)
	t.Recompute()
	return nil
}

// Save runs a full save of the open row through the backend.
func (t *Tracker) Save(ctx context.Context) error {
	tk, err := t.BeginSave()
	if err != nil || tk == nil {
		return err
	}
	return t.FinishSave(tk, t.backend.Update(ctx, tk.Update))
}

func optional(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
