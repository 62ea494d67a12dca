// Package display shapes aircraft query results for presentation: table rows,
// the deck.gl point layer handed to the web map, and the terminal radar grid.
package display

import (
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/unklstewy/plane-tracker/pkg/tracker"
)

// Text shown by every host.
const (
	Title         = "Plane Tracker"
	Tagline       = "See what planes are flying over your head and where they are headed!"
	TableHeading  = "Currently, the following planes are flying over your location:"
	NoDataMessage = "No aircraft data available at the moment. Please try again later."
)

// Missing is rendered for values the provider reported as null.
const Missing = "n/a"

// Columns is the table header, in display order.
var Columns = []string{"LAT", "LON", "Callsign", "Altitude", "Speed", "Heading"}

// Row formats one record in Columns order.
func Row(r tracker.Record) []string {
	callsign := r.Callsign
	if callsign == "" {
		callsign = Missing
	}
	return []string{
		formatFloat(r.Latitude),
		formatFloat(r.Longitude),
		callsign,
		formatOptional(r.Altitude),
		formatOptional(r.Velocity),
		formatOptional(r.Heading),
	}
}

// Rows formats records in order. The result is never nil.
func Rows(records []tracker.Record) [][]string {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, Row(r))
	}
	return rows
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// RenderTable renders records as a bordered terminal table, or NoDataMessage
// when there are none.
func RenderTable(records []tracker.Record) string {
	if len(records) == 0 {
		return NoDataMessage
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers(Columns...).
		Rows(Rows(records)...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	return t.String()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatOptional(v *float64) string {
	if v == nil {
		return Missing
	}
	return formatFloat(*v)
}
