// Package loads holds the load row model and the status classification
// used for the on-time summary.
package loads

import (
	"fmt"
	"maps"
	"time"
)

// CellKind describes how a yes/no cell is rendered by the server.
type CellKind int

// Cell kinds as they appear in a row fragment.
const (
	CellMissing CellKind = iota
	CellText
	CellInput
	CellSelect
	CellCheckbox
)

// String returns the name of the kind.
func (k CellKind) String() string {
	switch k {
	case CellText:
		return "text"
	case CellInput:
		return "input"
	case CellSelect:
		return "select"
	case CellCheckbox:
		return "checkbox"
	default:
		return "missing"
	}
}

// Cell is a yes/no column in one of its rendered forms.
// Value holds the input value or the selected option value,
// Text holds plain text content or the selected option label.
type Cell struct {
	Kind    CellKind
	Checked bool
	Value   string
	Text    string
}

// CheckboxCell returns a checkbox cell.
func CheckboxCell(checked bool) Cell {
	return Cell{Kind: CellCheckbox, Checked: checked}
}

// TextCell returns a plain text cell.
func TextCell(text string) Cell {
	return Cell{Kind: CellText, Text: text}
}

// InputCell returns a text input cell.
func InputCell(value string) Cell {
	return Cell{Kind: CellInput, Value: value}
}

// SelectCell returns a select cell with the given selected option.
func SelectCell(value, text string) Cell {
	return Cell{Kind: CellSelect, Value: value, Text: text}
}

// Display returns a short representation for a terminal table.
func (c Cell) Display() string {
	switch c.Kind {
	case CellCheckbox:
		if c.Checked {
			return "[x]"
		}
		return "[ ]"
	case CellSelect:
		if c.Text != "" {
			return c.Text
		}
		return c.Value
	case CellInput:
		return c.Value
	case CellText:
		return c.Text
	default:
		return ""
	}
}

// Row is one load line. ID is stable across replacements.
type Row struct {
	ID int64

	// Columns holds the display-only columns keyed by column name.
	Columns map[string]string

	OnTime    Cell
	Exception Cell

	Delay             string
	Comments          string
	StatusText        string
	OriginalUserDelay string
	EffectiveDelay    string
}

// Clone returns a deep copy of the row.
func (r Row) Clone() Row {
	r.Columns = maps.Clone(r.Columns)
	return r
}

// ExceptionChecked reports the editable exception state. Only a checkbox
// counts as editable; any other form reads as unchecked.
func (r Row) ExceptionChecked() bool {
	return r.Exception.Kind == CellCheckbox && r.Exception.Checked
}

// Field returns the display text of the named column.
func (r Row) Field(col string) string {
	switch col {
	case ColStatus:
		return r.StatusText
	case ColOnTime:
		return r.OnTime.Display()
	case ColException:
		return r.Exception.Display()
	case ColDelay:
		return r.Delay
	case ColComments:
		return r.Comments
	default:
		return r.Columns[col]
	}
}

// Period is the year and month the table is scoped to.
type Period struct {
	Year  int
	Month int
}

// PeriodOf returns the period containing t.
func PeriodOf(t time.Time) Period {
	return Period{Year: t.Year(), Month: int(t.Month())}
}

// Key returns the period as YYYYMM.
func (p Period) Key() string {
	return fmt.Sprintf("%04d%02d", p.Year, p.Month)
}

// Valid reports whether the month is in range and the year is set.
func (p Period) Valid() bool {
	return p.Year > 0 && p.Month >= 1 && p.Month <= 12
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
}

// Update is the payload sent when an edit is saved.
// A nil Delay clears the user override, a nil Comments clears the comment.
type Update struct {
	ID        int64
	Exception bool
	Delay     *string
	Comments  *string
	Period    Period
}
