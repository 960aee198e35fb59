package tracker

import (
	"slices"

	"github.com/AntoineGS/loadtracker/internal/loads"
)

// DiscardPrompt is the question asked before abandoning unsaved edits.
const DiscardPrompt = "You have unsaved changes. Discard them and edit the other row?"

type entry struct {
	row   loads.Row
	wired bool
}

// Registry holds the rows in view in display order, indexed by id.
// Replacing a row swaps its fields and drops its wiring; identity is kept.
type Registry struct {
	entries map[int64]*entry
	order   []int64
	dirty   bool
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[int64]*entry)}
}

// Len returns the number of rows.
func (r *Registry) Len() int {
	return len(r.order)
}

// Has reports whether id is in view.
func (r *Registry) Has(id int64) bool {
	_, ok := r.entries[id]
	return ok
}

// Get returns a copy of the row with the given id.
func (r *Registry) Get(id int64) (loads.Row, bool) {
	e, ok := r.entries[id]
	if !ok {
		return loads.Row{}, false
	}
	return e.row.Clone(), true
}

// Rows returns copies of every row in display order.
func (r *Registry) Rows() []loads.Row {
	rows := make([]loads.Row, 0, len(r.order))
	for _, id := range r.order {
		rows = append(rows, r.entries[id].row.Clone())
	}
	return rows
}

// IDs returns the row ids in display order.
func (r *Registry) IDs() []int64 {
	return slices.Clone(r.order)
}

// Index returns the display position of id, or -1.
func (r *Registry) Index(id int64) int {
	return slices.Index(r.order, id)
}

// Wired reports whether id has its handlers attached.
func (r *Registry) Wired(id int64) bool {
	e, ok := r.entries[id]
	return ok && e.wired
}

// ReplaceAll swaps the whole collection for rows. Rows for which keep
// reports true and that are present in both keep their current entry.
func (r *Registry) ReplaceAll(rows []loads.Row, keep func(id int64) bool) {
	next := make(map[int64]*entry, len(rows))
	order := make([]int64, 0, len(rows))

	for _, row := range rows {
		if _, dup := next[row.ID]; dup {
			continue
		}
		if old, ok := r.entries[row.ID]; ok && keep != nil && keep(row.ID) {
			next[row.ID] = old
		} else {
			next[row.ID] = &entry{row: row.Clone()}
		}
		order = append(order, row.ID)
	}

	r.entries = next
	r.order = order
	r.dirty = true
}

// Replace swaps the fields of an existing row in place.
func (r *Registry) Replace(row loads.Row) error {
	e, ok := r.entries[row.ID]
	if !ok {
		return ErrRowNotFound
	}
	e.row = row.Clone()
	e.wired = false
	r.dirty = true
	return nil
}

// update applies fn to the stored row. Wiring is unaffected.
func (r *Registry) update(id int64, fn func(*loads.Row)) error {
	e, ok := r.entries[id]
	if !ok {
		return ErrRowNotFound
	}
	fn(&e.row)
	r.dirty = true
	return nil
}

// Rebind wires every row not yet wired and returns how many it wired.
// Read-only views never wire.
func (r *Registry) Rebind(interactive bool) int {
	if !interactive {
		return 0
	}
	n := 0
	for _, id := range r.order {
		if e := r.entries[id]; !e.wired {
			e.wired = true
			n++
		}
	}
	return n
}

// Dirty reports whether rows changed since the last TakeDirty.
func (r *Registry) Dirty() bool {
	return r.dirty
}

// TakeDirty reports and clears the view-dirty flag.
func (r *Registry) TakeDirty() bool {
	d := r.dirty
	r.dirty = false
	return d
}

// Select moves the selection to id. An open edit is never affected.
func (t *Tracker) Select(id int64) error {
	if !t.canEdit {
		return ErrReadOnly
	}
	if !t.registry.Has(id) {
		return ErrRowNotFound
	}
	if !t.registry.Wired(id) {
		return ErrNotWired
	}
	t.selected, t.hasSelection = id, true
	return nil
}

// ClearSelection drops the selection.
func (t *Tracker) ClearSelection() {
	t.selected, t.hasSelection = 0, false
}

// Activate opens id for editing. When another row is open with unsaved
// changes, c is asked first; a refusal leaves that edit as it was and
// returns false.
func (t *Tracker) Activate(id int64, c Confirmer) (bool, error) {
	if !t.canEdit {
		return false, ErrReadOnly
	}
	if !t.registry.Wired(id) {
		if !t.registry.Has(id) {
			return false, ErrRowNotFound
		}
		return false, ErrNotWired
	}

	if cur, ok := t.edit.RowID(); ok {
		if cur == id {
			return true, nil
		}
		if t.IsDirty() {
			if c == nil || !c.Confirm(DiscardPrompt) {
				t.logger.Debug("discard declined", "editing", cur, "row", id)
				return false, nil
			}
		}
		t.CancelEdit()
	}

	if err := t.EnterEdit(id); err != nil {
		return false, err
	}
	return true, nil
}
