package render

import (
	"fmt"
	"math"

	"github.com/Scalingo/ghlangstats/aggregator"
	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Table renders the ranking for a terminal
func Table(entries []aggregator.RankedEntry, unit aggregator.Unit) string {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false
	tbl.Style().Format.Footer = text.FormatDefault
	tbl.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
	})

	weightHeader := "Bytes"
	if unit == aggregator.UnitRepositories {
		weightHeader = "Repositories"
	}

	tbl.AppendHeader(table.Row{"#", "Language", weightHeader, "Share"})

	for i, e := range entries {
		tbl.AppendRow(table.Row{i + 1, e.Name, humanize.Comma(int64(math.Round(e.Weight))), formatPercent(e.Percent) + "%"})
	}

	tbl.AppendFooter(table.Row{"", fmt.Sprintf("Total: %d languages", len(entries)), "", ""})

	return tbl.Render()
}
