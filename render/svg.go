package render

import (
	"fmt"
	"io"
	"text/template"

	"github.com/Scalingo/ghlangstats/aggregator"
)

// SVGOptions controls the bar chart layout
type SVGOptions struct {
	Title       string
	Width       int
	BarHeight   int
	BarGap      int
	LeftPadding int
}

func DefaultSVGOptions(title string) SVGOptions {
	return SVGOptions{
		Title:       title,
		Width:       600,
		BarHeight:   24,
		BarGap:      12,
		LeftPadding: 120,
	}
}

const (
	rightPadding  = 60
	topPadding    = 40
	bottomPadding = 40
)

type svgBar struct {
	Name       string
	Percent    string
	LabelY     float64
	Y          int
	Width      float64
	ValueX     float64
	InnerWidth int
}

type svgDocument struct {
	SVGOptions
	Height int
	TitleX int
	TitleY int
	Bars   []svgBar
}

var svgTemplate = template.Must(template.New("svg").Funcs(template.FuncMap{
	"xml":    xmlEscape,
	"labelX": func(left int) int { return left - 10 },
}).Parse(`<svg width="{{.Width}}" height="{{.Height}}" viewBox="0 0 {{.Width}} {{.Height}}" xmlns="http://www.w3.org/2000/svg">
  <style>
    .title { font-family: system-ui, -apple-system, "Segoe UI", sans-serif; font-size: 16px; font-weight: 600; fill: #111; }
    .label { font-family: system-ui, -apple-system, "Segoe UI", sans-serif; font-size: 12px; fill: #111; }
    .value { font-family: system-ui, -apple-system, "Segoe UI", sans-serif; font-size: 11px; fill: #111; }
    .bar-bg { fill: #f2f2f2; }
    .bar { fill: #222; }
  </style>
  <text x="{{.TitleX}}" y="{{.TitleY}}" text-anchor="middle" class="title">{{xml .Title}}</text>
{{- range .Bars}}
  <text x="{{$.LeftPadding | labelX}}" y="{{printf "%.1f" .LabelY}}" text-anchor="end" class="label">{{xml .Name}}</text>
  <rect class="bar-bg" x="{{$.LeftPadding}}" y="{{.Y}}" width="{{.InnerWidth}}" height="{{$.BarHeight}}" rx="4" ry="4"/>
  <rect class="bar" x="{{$.LeftPadding}}" y="{{.Y}}" width="{{printf "%.2f" .Width}}" height="{{$.BarHeight}}" rx="4" ry="4"/>
  <text x="{{printf "%.2f" .ValueX}}" y="{{printf "%.1f" .LabelY}}" class="value">{{.Percent}}%</text>
{{- end}}
</svg>
`))

// SVG writes a static bar chart, bar widths are proportional to the ranked percentages
func SVG(w io.Writer, entries []aggregator.RankedEntry, opts SVGOptions) error {
	if len(entries) == 0 {
		return ErrNothingToRender
	}

	innerWidth := opts.Width - opts.LeftPadding - rightPadding
	doc := svgDocument{
		SVGOptions: opts,
		Height:     topPadding + bottomPadding + len(entries)*(opts.BarHeight+opts.BarGap),
		TitleX:     opts.Width / 2,
		TitleY:     topPadding - 12,
		Bars:       make([]svgBar, 0, len(entries)),
	}

	for i, e := range entries {
		y := topPadding + i*(opts.BarHeight+opts.BarGap)
		width := e.Percent / 100 * float64(innerWidth)

		doc.Bars = append(doc.Bars, svgBar{
			Name:       e.Name,
			Percent:    formatPercent(e.Percent),
			LabelY:     float64(y) + float64(opts.BarHeight)*0.7,
			Y:          y,
			Width:      width,
			ValueX:     float64(opts.LeftPadding) + width + 6,
			InnerWidth: innerWidth,
		})
	}

	if err := svgTemplate.Execute(w, doc); err != nil {
		return fmt.Errorf("unable to render svg: %w", err)
	}

	return nil
}
