// Package testutil provides an in-memory load server for tests.
package testutil

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/AntoineGS/loadtracker/internal/fragment"
	"github.com/AntoineGS/loadtracker/internal/loads"
)

// ErrNotFound is returned by FetchRow for an unknown id.
var ErrNotFound = errors.New("load not found")

// Backend is an in-memory load server. It renders rows the same way the
// real server does and records every call.
type Backend struct {
	rows     map[int64]loads.Row
	rowErr   error
	tableErr error
	updErr   error
	order    []int64
	updates  []loads.Update
	mu       sync.Mutex

	rowCalls   int
	tableCalls int
}

// NewBackend returns a backend serving rows in order.
func NewBackend(rows ...loads.Row) *Backend {
	b := &Backend{rows: make(map[int64]loads.Row)}
	for _, r := range rows {
		b.SetRow(r)
	}
	return b
}

// SetRow adds or replaces a row.
func (b *Backend) SetRow(r loads.Row) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.rows[r.ID]; !ok {
		b.order = append(b.order, r.ID)
	}
	b.rows[r.ID] = r.Clone()
}

// RemoveRow drops a row from the table.
func (b *Backend) RemoveRow(id int64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.rows, id)
	b.order = slices.DeleteFunc(b.order, func(v int64) bool { return v == id })
}

// Row returns the stored row.
func (b *Backend) Row(id int64) (loads.Row, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	r, ok := b.rows[id]
	return r.Clone(), ok
}

// FailUpdates makes every Update return err until reset with nil.
func (b *Backend) FailUpdates(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.updErr = err
}

// FailRows makes every FetchRow return err until reset with nil.
func (b *Backend) FailRows(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rowErr = err
}

// FailTables makes every FetchTable return err until reset with nil.
func (b *Backend) FailTables(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tableErr = err
}

// Update records u and applies it with last-write-wins.
func (b *Backend) Update(_ context.Context, u loads.Update) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.updates = append(b.updates, u)
	if b.updErr != nil {
		return b.updErr
	}

	r, ok := b.rows[u.ID]
	if !ok {
		return fmt.Errorf("update %d: %w", u.ID, ErrNotFound)
	}
	if r.Exception.Kind == loads.CellCheckbox {
		r.Exception.Checked = u.Exception
	}
	r.OriginalUserDelay = deref(u.Delay)
	r.Delay = r.EffectiveDelay
	if u.Delay != nil {
		r.Delay = *u.Delay
	}
	r.Comments = deref(u.Comments)
	b.rows[u.ID] = r
	return nil
}

// FetchRow renders a single row.
func (b *Backend) FetchRow(_ context.Context, id int64, _ loads.Period) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.rowCalls++
	if b.rowErr != nil {
		return nil, b.rowErr
	}
	r, ok := b.rows[id]
	if !ok {
		return nil, fmt.Errorf("row %d: %w", id, ErrNotFound)
	}
	return fragment.Row(r)
}

// FetchTable renders every row.
func (b *Backend) FetchTable(_ context.Context) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.tableCalls++
	if b.tableErr != nil {
		return nil, b.tableErr
	}
	rows := make([]loads.Row, 0, len(b.order))
	for _, id := range b.order {
		rows = append(rows, b.rows[id])
	}
	var buf bytes.Buffer
	if err := fragment.RenderRows(&buf, rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Updates returns the recorded updates.
func (b *Backend) Updates() []loads.Update {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.updates)
}

// Calls returns how many row and table fetches were made.
func (b *Backend) Calls() (rows, tables int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.rowCalls, b.tableCalls
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
