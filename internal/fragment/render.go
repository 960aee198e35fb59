package fragment

import (
	"bytes"
	"fmt"
	"html/template"
	"io"

	"github.com/AntoineGS/loadtracker/internal/loads"
)

const rowsTemplate = `{{define "cell"}}<td data-col="{{.Col}}">
{{- if eq .Kind "checkbox"}}{{if .Checked}}<input type="checkbox" class="{{.Class}}" checked>{{else}}<input type="checkbox" class="{{.Class}}">{{end}}
{{- else if eq .Kind "select"}}<select>{{range .Options}}{{if .Selected}}<option value="{{.Value}}" selected>{{.Text}}</option>{{else}}<option value="{{.Value}}">{{.Text}}</option>{{end}}{{end}}</select>
{{- else if eq .Kind "input"}}<input type="text" value="{{.Value}}">
{{- else if eq .Kind "textarea"}}<textarea class="{{.Class}} edit-lock" readonly>{{.Text}}</textarea>
{{- else}}{{.Text}}{{end -}}
</td>{{end}}
{{- define "row"}}<tr data-rowid="{{.ID}}" data-orig-userdelay="{{.OriginalUserDelay}}" data-effective-delay="{{.EffectiveDelay}}">
{{- range .Cells}}{{template "cell" .}}{{end -}}
</tr>
{{end}}
{{- define "rows"}}{{range .}}{{template "row" .}}{{end}}{{end}}
{{- define "page"}}<!DOCTYPE html>
<html>
<head><title>Loads {{.Customer}} {{.Period}}</title></head>
<body>
<table id="loadsTable" data-customer="{{.Customer}}" data-year="{{.Year}}" data-month="{{.Month}}">
<thead>
<tr class="group-row">{{range .Groups}}<th colspan="{{.Span}}">{{.Name}}</th>{{end}}</tr>
<tr class="col-row">{{range .Headers}}<th data-col="{{.Key}}">{{.Title}}</th>{{end}}</tr>
</thead>
<tbody>
{{template "rows" .Rows}}</tbody>
</table>
</body>
</html>
{{end}}`

var templates = template.Must(template.New("fragment").Parse(rowsTemplate))

type optionView struct {
	Value    string
	Text     string
	Selected bool
}

type cellView struct {
	Col     string
	Kind    string
	Class   string
	Text    string
	Value   string
	Checked bool
	Options []optionView
}

type rowView struct {
	ID                int64
	OriginalUserDelay string
	EffectiveDelay    string
	Cells             []cellView
}

type groupView struct {
	Name string
	Span int
}

type pageView struct {
	Customer string
	Period   string
	Year     int
	Month    int
	Groups   []groupView
	Headers  []loads.Column
	Rows     []rowView
}

// Page is the data for a full table page.
type Page struct {
	Customer string
	Period   loads.Period
	Rows     []loads.Row
}

// RenderRow writes the fragment for one row.
func RenderRow(w io.Writer, r loads.Row) error {
	if err := templates.ExecuteTemplate(w, "row", newRowView(r)); err != nil {
		return fmt.Errorf("rendering row %d: %w", r.ID, err)
	}
	return nil
}

// RenderRows writes the fragments for rows in order, as found in a tbody.
func RenderRows(w io.Writer, rows []loads.Row) error {
	views := make([]rowView, len(rows))
	for i, r := range rows {
		views[i] = newRowView(r)
	}
	if err := templates.ExecuteTemplate(w, "rows", views); err != nil {
		return fmt.Errorf("rendering rows: %w", err)
	}
	return nil
}

// RenderPage writes a full page with the loads table.
func RenderPage(w io.Writer, p Page) error {
	v := pageView{
		Customer: p.Customer,
		Period:   p.Period.Key(),
		Year:     p.Period.Year,
		Month:    p.Period.Month,
		Headers:  loads.Columns,
	}
	for _, g := range loads.Groups {
		v.Groups = append(v.Groups, groupView{Name: g.Name, Span: len(g.Columns)})
	}
	for _, r := range p.Rows {
		v.Rows = append(v.Rows, newRowView(r))
	}
	if err := templates.ExecuteTemplate(w, "page", v); err != nil {
		return fmt.Errorf("rendering page: %w", err)
	}
	return nil
}

// Row returns the rendered fragment for r.
func Row(r loads.Row) ([]byte, error) {
	var buf bytes.Buffer
	if err := RenderRow(&buf, r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func newRowView(r loads.Row) rowView {
	v := rowView{
		ID:                r.ID,
		OriginalUserDelay: r.OriginalUserDelay,
		EffectiveDelay:    r.EffectiveDelay,
	}

	for _, c := range loads.Columns {
		switch c.Key {
		case loads.ColStatus:
			v.Cells = append(v.Cells, cellView{Col: c.Key, Kind: "text", Text: r.StatusText})
		case loads.ColOnTime:
			if r.OnTime.Kind != loads.CellMissing {
				v.Cells = append(v.Cells, yesNoView(c.Key, "", r.OnTime))
			}
		case loads.ColException:
			if r.Exception.Kind != loads.CellMissing {
				v.Cells = append(v.Cells, yesNoView(c.Key, "ex", r.Exception))
			}
		case loads.ColDelay:
			v.Cells = append(v.Cells, cellView{Col: c.Key, Kind: "textarea", Class: "delay", Text: r.Delay})
		case loads.ColComments:
			v.Cells = append(v.Cells, cellView{Col: c.Key, Kind: "textarea", Class: "comments", Text: r.Comments})
		default:
			v.Cells = append(v.Cells, cellView{Col: c.Key, Kind: "text", Text: r.Columns[c.Key]})
		}
	}

	return v
}

func yesNoView(col, class string, c loads.Cell) cellView {
	v := cellView{Col: col, Kind: c.Kind.String(), Class: class}
	switch c.Kind {
	case loads.CellCheckbox:
		v.Checked = c.Checked
	case loads.CellInput:
		v.Value = c.Value
	case loads.CellSelect:
		v.Options = selectOptions(c)
	default:
		v.Text = c.Text
	}
	return v
}

func selectOptions(c loads.Cell) []optionView {
	opts := []optionView{{Value: "", Text: ""}, {Value: "Y", Text: "Yes"}, {Value: "N", Text: "No"}}
	found := false
	for i := range opts {
		if opts[i].Value == c.Value && opts[i].Text == c.Text {
			opts[i].Selected = true
			found = true
		}
	}
	if !found {
		opts = append(opts, optionView{Value: c.Value, Text: c.Text, Selected: true})
	}
	return opts
}
