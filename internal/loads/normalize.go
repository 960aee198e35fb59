package loads

import "strings"

// TriState is a yes/no value that may be unknown.
type TriState int

// TriState values.
const (
	Unknown TriState = iota
	Yes
	No
)

func (t TriState) String() string {
	switch t {
	case Yes:
		return "yes"
	case No:
		return "no"
	default:
		return "unknown"
	}
}

// Normalize collapses whitespace runs, trims and uppercases s.
func Normalize(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), " "))
}

// ParseYesNo interprets a cell regardless of how it is rendered.
// Checkboxes are read directly; every other form goes through ParseText.
func ParseYesNo(c Cell) TriState {
	switch c.Kind {
	case CellCheckbox:
		if c.Checked {
			return Yes
		}
		return No
	case CellSelect:
		x := Normalize(c.Value)
		if x == "" {
			x = Normalize(c.Text)
		}
		return ParseText(x)
	case CellInput:
		return ParseText(c.Value)
	case CellText:
		return ParseText(c.Text)
	default:
		return Unknown
	}
}

// ParseText matches normalized text against the yes/no vocabulary,
// falling back to a substring match.
func ParseText(s string) TriState {
	x := Normalize(s)
	switch x {
	case "":
		return Unknown
	case "YES", "Y", "TRUE", "1":
		return Yes
	case "NO", "N", "FALSE", "0":
		return No
	}
	if strings.Contains(x, "YES") {
		return Yes
	}
	if strings.Contains(x, "NO") {
		return No
	}
	return Unknown
}
