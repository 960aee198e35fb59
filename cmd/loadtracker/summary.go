package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/AntoineGS/loadtracker/internal/loads"
)

var (
	summaryTitleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	summaryHeaderStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	summaryCellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// writeSummary prints s as a table, or as tab-separated lines when plain.
func writeSummary(w io.Writer, customer string, p loads.Period, s loads.Summary, plain bool) error {
	type line struct {
		name    string
		count   int
		percent string
	}

	lines := make([]line, 0, len(loads.TrackedBuckets)+2)
	for _, b := range loads.TrackedBuckets {
		lines = append(lines, line{b.String(), s.Of(b), strconv.Itoa(s.Percents[b]) + "%"})
	}
	lines = append(lines,
		line{loads.BucketUnknown.String(), s.Unknown, "-"},
		line{"Total", s.Rows(), "-"},
	)

	if plain {
		if _, err := fmt.Fprintf(w, "customer\t%s\nperiod\t%s\n", customer, p); err != nil {
			return err
		}
		for _, l := range lines {
			if _, err := fmt.Fprintf(w, "%s\t%d\t%s\n", l.name, l.count, l.percent); err != nil {
				return err
			}
		}
		return nil
	}

	rows := make([][]string, len(lines))
	for i, l := range lines {
		rows[i] = []string{l.name, strconv.Itoa(l.count), l.percent}
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Status", "Loads", "Share").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return summaryHeaderStyle
			}
			return summaryCellStyle
		})

	_, err := fmt.Fprintf(w, "%s\n%s\n", summaryTitleStyle.Render(fmt.Sprintf("%s  %s", customer, p)), t.Render())
	return err
}
