package testutil

import (
	"fmt"

	"github.com/AntoineGS/loadtracker/internal/loads"
)

// Load returns an editable row with a checkbox exception.
func Load(id int64, onTime loads.Cell, exception bool) loads.Row {
	return loads.Row{
		ID: id,
		Columns: map[string]string{
			loads.ColProbill:  fmt.Sprintf("P%05d", id),
			loads.ColReceiver: "Receiver " + fmt.Sprint(id),
		},
		OnTime:    onTime,
		Exception: loads.CheckboxCell(exception),
	}
}

// MixedTable returns ten rows: six on time, two late with an exception
// and two late without.
func MixedTable() []loads.Row {
	var rows []loads.Row
	for i := int64(1); i <= 6; i++ {
		rows = append(rows, Load(i, loads.CheckboxCell(true), false))
	}
	for i := int64(7); i <= 8; i++ {
		rows = append(rows, Load(i, loads.TextCell("No"), true))
	}
	for i := int64(9); i <= 10; i++ {
		rows = append(rows, Load(i, loads.SelectCell("N", "No"), false))
	}
	return rows
}
