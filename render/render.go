package render

import (
	"bytes"
	"encoding/xml"
	"errors"
	"strconv"
)

// ErrNothingToRender is returned when a renderer gets no entries
// callers are expected to stop on aggregator.ErrEmptyDataset before reaching the renderers
var ErrNothingToRender = errors.New("NOTHING_TO_RENDER")

func xmlEscape(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))

	return buf.String()
}

// formatPercent prints an already rounded percentage with two decimals
func formatPercent(p float64) string {
	return strconv.FormatFloat(p, 'f', 2, 64)
}
