package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/AntoineGS/loadtracker/internal/loads"
)

// Sentinel errors for loads.
var (
	ErrLoadNotFound  = errors.New("load not found")
	ErrUnknownColumn = errors.New("not a display column")
)

// LoadRecord is a stored load line.
type LoadRecord struct {
	UpdatedAt     time.Time
	Fields        map[string]string
	UserDelay     *string
	Customer      string
	StatusText    string
	OnTime        string
	ComputedDelay string
	Comments      string
	Period        loads.Period
	ID            int64
	Exception     bool
}

// EffectiveDelay is the user override if set, else the computed delay.
func (r LoadRecord) EffectiveDelay() string {
	if r.UserDelay != nil && *r.UserDelay != "" {
		return *r.UserDelay
	}
	return r.ComputedDelay
}

// LoadEdit is the editable part of a load.
type LoadEdit struct {
	UserDelay *string
	Comments  *string
	Exception bool
}

const loadColumns = `id, customer, year, month, fields, status_text, on_time, exception,
	computed_delay, user_delay, comments, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanLoad(row scanner) (*LoadRecord, error) {
	var r LoadRecord
	var fields []byte
	var userDelay sql.NullString
	var updatedAt string

	err := row.Scan(&r.ID, &r.Customer, &r.Period.Year, &r.Period.Month, &fields, &r.StatusText,
		&r.OnTime, &r.Exception, &r.ComputedDelay, &userDelay, &r.Comments, &updatedAt)
	if err != nil {
		return nil, err
	}

	if err := cbor.Unmarshal(fields, &r.Fields); err != nil {
		return nil, fmt.Errorf("decoding fields of load %d: %w", r.ID, err)
	}
	if userDelay.Valid {
		r.UserDelay = &userDelay.String
	}
	r.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}

	return &r, nil
}

// InsertLoad stores a new load or replaces one with the same id.
func (s *Store) InsertLoad(ctx context.Context, r LoadRecord) error {
	for col := range r.Fields {
		if !slices.Contains(loads.DisplayColumns, col) {
			return fmt.Errorf("load %d field %q: %w", r.ID, col, ErrUnknownColumn)
		}
	}

	fields, err := cbor.Marshal(r.Fields)
	if err != nil {
		return fmt.Errorf("encoding fields of load %d: %w", r.ID, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO loads (id, customer, year, month, fields, status_text, on_time, exception,
			computed_delay, user_delay, comments)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.ID, r.Customer, r.Period.Year, r.Period.Month, fields, r.StatusText, r.OnTime, r.Exception,
		r.ComputedDelay, nullString(r.UserDelay), r.Comments)
	if err != nil {
		return fmt.Errorf("inserting load %d: %w", r.ID, err)
	}
	return nil
}

// GetLoad returns one load scoped to a period.
func (s *Store) GetLoad(ctx context.Context, id int64, p loads.Period) (*LoadRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+loadColumns+` FROM loads WHERE id = ? AND year = ? AND month = ?`,
		id, p.Year, p.Month)

	r, err := scanLoad(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("load %d: %w", id, ErrLoadNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying load %d: %w", id, err)
	}
	return r, nil
}

// ListLoads returns the loads of a customer in a period ordered by id.
func (s *Store) ListLoads(ctx context.Context, customer string, p loads.Period) ([]LoadRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+loadColumns+` FROM loads
		WHERE customer = ? AND year = ? AND month = ? ORDER BY id`, customer, p.Year, p.Month)
	if err != nil {
		return nil, fmt.Errorf("querying loads: %w", err)
	}
	defer func() { _ = rows.Close() }() //nolint:errcheck,gosec // defer close is best-effort

	var records []LoadRecord
	for rows.Next() {
		r, err := scanLoad(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning load: %w", err)
		}
		records = append(records, *r)
	}

	return records, rows.Err()
}

// UpdateLoad applies an edit with last-write-wins and returns the stored
// result. A nil Comments clears the comment.
func (s *Store) UpdateLoad(ctx context.Context, id int64, p loads.Period, e LoadEdit) (*LoadRecord, error) {
	comments := ""
	if e.Comments != nil {
		comments = *e.Comments
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE loads SET exception = ?, user_delay = ?, comments = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND year = ? AND month = ?
	`, e.Exception, nullString(e.UserDelay), comments, id, p.Year, p.Month)
	if err != nil {
		return nil, fmt.Errorf("updating load %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("updating load %d: %w", id, err)
	}
	if n == 0 {
		return nil, fmt.Errorf("load %d: %w", id, ErrLoadNotFound)
	}

	return s.GetLoad(ctx, id, p)
}

// CountLoads returns the number of stored loads.
func (s *Store) CountLoads(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM loads`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting loads: %w", err)
	}
	return n, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

var (
	demoReceivers = []string{"Northgate Foods", "Harbour Supply", "Prairie Hardware", "Lakeside Pharmacy", "Summit Grocers"}
	demoCities    = []struct{ city, prov string }{
		{"Winnipeg", "MB"}, {"Regina", "SK"}, {"Calgary", "AB"}, {"Toronto", "ON"}, {"Halifax", "NS"},
	}
	demoStatuses = []string{"Delivered", "In Transit", "Out for Delivery", "Awaiting Pickup"}
)

// SeedDemo inserts n generated loads for a customer and period. The same
// seed always yields the same loads.
func (s *Store) SeedDemo(ctx context.Context, customer string, p loads.Period, n int, seed uint64) error {
	rng := rand.New(rand.NewPCG(seed, uint64(p.Year*100+p.Month))) //nolint:gosec // demo data

	for i := 1; i <= n; i++ {
		id := int64(p.Year*100+p.Month)*10000 + int64(i)
		city := demoCities[rng.IntN(len(demoCities))]
		day := 1 + rng.IntN(28)

		r := LoadRecord{
			ID:       id,
			Customer: customer,
			Period:   p,
			Fields: map[string]string{
				loads.ColProbill:  fmt.Sprintf("P%07d", 1000000+i),
				loads.ColBOL:      fmt.Sprintf("B%06d", rng.IntN(1000000)),
				loads.ColOrder:    fmt.Sprintf("O-%05d", rng.IntN(100000)),
				loads.ColPO:       fmt.Sprintf("PO%05d", rng.IntN(100000)),
				loads.ColReceiver: demoReceivers[rng.IntN(len(demoReceivers))],
				loads.ColCity:     city.city,
				loads.ColProv:     city.prov,
				loads.ColPickup:   fmt.Sprintf("%04d-%02d-%02d", p.Year, p.Month, day),
				loads.ColRAD:      fmt.Sprintf("%04d-%02d-%02d", p.Year, p.Month, min(day+2, 28)),
				loads.ColDelDate:  fmt.Sprintf("%04d-%02d-%02d", p.Year, p.Month, min(day+2+rng.IntN(2), 28)),
				loads.ColDelTime:  fmt.Sprintf("%02d:%02d", 7+rng.IntN(10), 15*rng.IntN(4)),
			},
			StatusText: demoStatuses[rng.IntN(len(demoStatuses))],
		}

		switch roll := rng.IntN(10); {
		case roll < 6:
			r.OnTime = "Y"
		case roll < 9:
			r.OnTime = "N"
			r.ComputedDelay = fmt.Sprintf("%dh", 1+rng.IntN(24))
			r.Exception = roll == 8
		}

		if err := s.InsertLoad(ctx, r); err != nil {
			return err
		}
	}

	return nil
}
