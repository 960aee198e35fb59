package tracker

import "github.com/AntoineGS/loadtracker/internal/loads"

// MinColumnWidth is the narrowest stored width that is honored.
const MinColumnWidth = 3

// GroupSpan is a header band and the number of visible columns under it.
type GroupSpan struct {
	Name string
	Span int
}

// Layout is the display state derived from preferences.
type Layout struct {
	Hidden  map[string]bool
	Columns []loads.Column
	Groups  []GroupSpan
}

// BuildLayout derives the layout. Columns are visible unless explicitly
// hidden; a group always spans at least one column.
func BuildLayout(visibility map[string]bool, widths map[string]int) Layout {
	l := Layout{Hidden: make(map[string]bool)}

	for _, c := range loads.Columns {
		if show, ok := visibility[c.Key]; ok && !show {
			l.Hidden[c.Key] = true
			continue
		}
		if w := widths[c.Key]; w >= MinColumnWidth {
			c.Width = w
		}
		l.Columns = append(l.Columns, c)
	}

	for _, g := range loads.Groups {
		n := 0
		for _, c := range g.Columns {
			if !l.Hidden[c] {
				n++
			}
		}
		l.Groups = append(l.Groups, GroupSpan{Name: g.Name, Span: max(1, n)})
	}

	return l
}

// Visible reports whether col is shown.
func (l Layout) Visible(col string) bool {
	return !l.Hidden[col]
}
