// Package fragment reads and writes the HTML row fragments exchanged with
// the load server.
package fragment

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/AntoineGS/loadtracker/internal/loads"
)

// TableID is the id of the loads table in a full page.
const TableID = "loadsTable"

// Sentinel errors for decoding.
var (
	ErrNoRow   = errors.New("fragment contains no row")
	ErrNoTable = errors.New("loads table body not found")
)

// DecodeRows decodes every row of a table fragment. The body may be a full
// page holding table#loadsTable or the bare rows of a tbody. Rows may carry
// nested tables of their own.
func DecodeRows(body []byte) ([]loads.Row, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parsing page: %w", err)
	}
	if tbody := findTableBody(doc); tbody != nil {
		return decodeRowNodes(childElements(tbody))
	}
	if isDocument(body) {
		return nil, ErrNoTable
	}

	nodes, err := parseRowFragment(body)
	if err != nil {
		return nil, err
	}

	return decodeRowNodes(nodes)
}

// DecodeRow decodes the first row of a single-row fragment.
func DecodeRow(body []byte) (loads.Row, error) {
	nodes, err := parseRowFragment(body)
	if err != nil {
		return loads.Row{}, err
	}

	for _, n := range nodes {
		tr := findFirst(n, func(n *html.Node) bool { return isElement(n, atom.Tr) && hasAttr(n, "data-rowid") })
		if tr == nil {
			continue
		}
		return decodeRow(tr)
	}

	return loads.Row{}, ErrNoRow
}

func isDocument(body []byte) bool {
	head := bytes.ToLower(body[:min(len(body), 4096)])
	return bytes.Contains(head, []byte("<html")) ||
		bytes.Contains(head, []byte("<!doctype"))
}

func parseRowFragment(body []byte) ([]*html.Node, error) {
	ctx := &html.Node{Type: html.ElementNode, Data: "tbody", DataAtom: atom.Tbody}
	nodes, err := html.ParseFragment(bytes.NewReader(bytes.TrimSpace(body)), ctx)
	if err != nil {
		return nil, fmt.Errorf("parsing row fragment: %w", err)
	}
	return nodes, nil
}

func findTableBody(doc *html.Node) *html.Node {
	table := findFirst(doc, func(n *html.Node) bool {
		return isElement(n, atom.Table) && attr(n, "id") == TableID
	})
	if table == nil {
		return nil
	}
	return findFirst(table, func(n *html.Node) bool { return isElement(n, atom.Tbody) })
}

func decodeRowNodes(nodes []*html.Node) ([]loads.Row, error) {
	rows := make([]loads.Row, 0, len(nodes))
	for _, n := range nodes {
		if !isElement(n, atom.Tr) || !hasAttr(n, "data-rowid") {
			continue
		}
		r, err := decodeRow(n)
		if err != nil {
			return nil, err
		}
		rows = append(rows, r)
	}
	return rows, nil
}

func decodeRow(tr *html.Node) (loads.Row, error) {
	raw := attr(tr, "data-rowid")
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return loads.Row{}, fmt.Errorf("invalid data-rowid %q: %w", raw, err)
	}

	r := loads.Row{
		ID:                id,
		Columns:           make(map[string]string),
		OriginalUserDelay: strings.TrimSpace(attr(tr, "data-orig-userdelay")),
		EffectiveDelay:    strings.TrimSpace(attr(tr, "data-effective-delay")),
	}

	for _, td := range childElements(tr) {
		if !isElement(td, atom.Td) {
			continue
		}
		col := attr(td, "data-col")
		switch col {
		case "":
			continue
		case loads.ColOnTime:
			r.OnTime = decodeCell(td)
		case loads.ColException:
			r.Exception = decodeCell(td)
		case loads.ColStatus:
			r.StatusText = collapse(textContent(td))
		case loads.ColDelay:
			r.Delay = editableText(td, "delay")
		case loads.ColComments:
			r.Comments = editableText(td, "comments")
		default:
			if v := collapse(textContent(td)); v != "" {
				r.Columns[col] = v
			}
		}
	}

	return r, nil
}

// decodeCell reads a yes/no cell. A checkbox anywhere in the cell wins,
// then a select, then a text input, then the plain text.
func decodeCell(td *html.Node) loads.Cell {
	if cb := findFirst(td, func(n *html.Node) bool {
		return isElement(n, atom.Input) && strings.EqualFold(attr(n, "type"), "checkbox")
	}); cb != nil {
		return loads.CheckboxCell(hasAttr(cb, "checked"))
	}

	if sel := findFirst(td, func(n *html.Node) bool { return isElement(n, atom.Select) }); sel != nil {
		return decodeSelect(sel)
	}

	if in := findFirst(td, func(n *html.Node) bool {
		if !isElement(n, atom.Input) {
			return false
		}
		t := strings.ToLower(attr(n, "type"))
		return t == "" || t == "text"
	}); in != nil {
		return loads.InputCell(attr(in, "value"))
	}

	return loads.TextCell(collapse(textContent(td)))
}

func decodeSelect(sel *html.Node) loads.Cell {
	var first, selected *html.Node
	walk(sel, func(n *html.Node) {
		if !isElement(n, atom.Option) {
			return
		}
		if first == nil {
			first = n
		}
		if selected == nil && hasAttr(n, "selected") {
			selected = n
		}
	})
	if selected == nil {
		selected = first
	}
	if selected == nil {
		return loads.SelectCell("", "")
	}

	text := collapse(textContent(selected))
	value, ok := attrOK(selected, "value")
	if !ok {
		value = text
	}
	return loads.SelectCell(value, text)
}

// editableText returns the content of the textarea with the given class,
// or the cell text when the row is rendered without one.
func editableText(td *html.Node, class string) string {
	ta := findFirst(td, func(n *html.Node) bool { return isElement(n, atom.Textarea) && hasClass(n, class) })
	if ta == nil {
		ta = findFirst(td, func(n *html.Node) bool { return isElement(n, atom.Textarea) })
	}
	if ta != nil {
		return textContent(ta)
	}
	return strings.TrimSpace(textContent(td))
}
