package render

import (
	"fmt"
	"io"

	"github.com/Scalingo/ghlangstats/aggregator"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// HTMLChart writes an interactive horizontal bar chart page
func HTMLChart(w io.Writer, entries []aggregator.RankedEntry, title string) error {
	if len(entries) == 0 {
		return ErrNothingToRender
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle:       title,
			BackgroundColor: "transparent",
		}),
		charts.WithTitleOpts(opts.Title{
			Title: title,
			Left:  "2%",
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "%"}),
	)

	// echarts draws the first category at the bottom, so feed it reversed
	names := make([]string, len(entries))
	data := make([]opts.BarData, len(entries))

	for i, e := range entries {
		j := len(entries) - 1 - i
		names[j] = e.Name
		data[j] = opts.BarData{Name: e.Name, Value: e.Percent}
	}

	bar.SetXAxis(names).
		AddSeries("share", data).
		SetSeriesOptions(charts.WithLabelOpts(opts.Label{
			Show:     opts.Bool(true),
			Position: "right",
		}))
	bar.XYReversal()

	if err := bar.Render(w); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}

	return nil
}
