package state

import (
	"context"
	"database/sql"
	"fmt"
	"maps"
	"sync"
)

// ColumnPrefs returns the stored visibility and width preferences. Columns
// without a stored value are absent from the maps.
func (s *Store) ColumnPrefs(ctx context.Context) (visible map[string]bool, widths map[string]int, err error) {
	rows, err := s.db.QueryContext(ctx, `SELECT column_key, visible, width FROM column_prefs`)
	if err != nil {
		return nil, nil, fmt.Errorf("querying column prefs: %w", err)
	}
	defer func() { _ = rows.Close() }() //nolint:errcheck,gosec // defer close is best-effort

	visible = make(map[string]bool)
	widths = make(map[string]int)
	for rows.Next() {
		var key string
		var vis, width sql.NullInt64
		if err := rows.Scan(&key, &vis, &width); err != nil {
			return nil, nil, fmt.Errorf("scanning column prefs: %w", err)
		}
		if vis.Valid {
			visible[key] = vis.Int64 != 0
		}
		if width.Valid {
			widths[key] = int(width.Int64)
		}
	}

	return visible, widths, rows.Err()
}

// SetColumnVisible stores the visibility of a column.
func (s *Store) SetColumnVisible(ctx context.Context, column string, visible bool) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO column_prefs (column_key, visible) VALUES (?, ?)
		ON CONFLICT(column_key) DO UPDATE SET visible = excluded.visible, updated_at = CURRENT_TIMESTAMP
	`, column, visible)
	if err != nil {
		return fmt.Errorf("saving visibility of %s: %w", column, err)
	}
	return nil
}

// SetColumnWidth stores the width of a column.
func (s *Store) SetColumnWidth(ctx context.Context, column string, width int) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO column_prefs (column_key, width) VALUES (?, ?)
		ON CONFLICT(column_key) DO UPDATE SET width = excluded.width, updated_at = CURRENT_TIMESTAMP
	`, column, width)
	if err != nil {
		return fmt.Errorf("saving width of %s: %w", column, err)
	}
	return nil
}

// ResetColumnPrefs removes every stored preference.
func (s *Store) ResetColumnPrefs(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM column_prefs`); err != nil {
		return fmt.Errorf("resetting column prefs: %w", err)
	}
	return nil
}

// Prefs is an in-memory view of the column preferences that writes
// through to the store. Reads never touch the database.
type Prefs struct {
	store   *Store
	visible map[string]bool
	widths  map[string]int
	mu      sync.RWMutex
}

// LoadPrefs reads the preferences once.
func LoadPrefs(ctx context.Context, s *Store) (*Prefs, error) {
	vis, widths, err := s.ColumnPrefs(ctx)
	if err != nil {
		return nil, err
	}
	return &Prefs{store: s, visible: vis, widths: widths}, nil
}

// ColumnVisibility returns a copy of the visibility preferences.
func (p *Prefs) ColumnVisibility() map[string]bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return maps.Clone(p.visible)
}

// ColumnWidths returns a copy of the width preferences.
func (p *Prefs) ColumnWidths() map[string]int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return maps.Clone(p.widths)
}

// SetColumnVisible updates and stores the visibility of a column.
func (p *Prefs) SetColumnVisible(ctx context.Context, column string, visible bool) error {
	if err := p.store.SetColumnVisible(ctx, column, visible); err != nil {
		return err
	}
	p.mu.Lock()
	p.visible[column] = visible
	p.mu.Unlock()
	return nil
}

// SetColumnWidth updates and stores the width of a column.
func (p *Prefs) SetColumnWidth(ctx context.Context, column string, width int) error {
	if err := p.store.SetColumnWidth(ctx, column, width); err != nil {
		return err
	}
	p.mu.Lock()
	p.widths[column] = width
	p.mu.Unlock()
	return nil
}
