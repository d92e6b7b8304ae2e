package sink

import (
	"encoding/json"

	"github.com/matzehuels/stackchart/pkg/layout"
	"github.com/matzehuels/stackchart/pkg/stack"
)

// JSONOption configures [RenderJSON].
type JSONOption func(*jsonRenderer)

type jsonRenderer struct {
	title  string
	series []stack.Series
	indent bool
}

// WithJSONTitle records the chart title.
func WithJSONTitle(title string) JSONOption { return func(r *jsonRenderer) { r.title = title } }

// WithJSONSeries embeds the stacked series the layout was built from.
func WithJSONSeries(series []stack.Series) JSONOption {
	return func(r *jsonRenderer) { r.series = series }
}

// WithJSONIndent pretty-prints the output.
func WithJSONIndent() JSONOption { return func(r *jsonRenderer) { r.indent = true } }

type jsonOutput struct {
	Title     string          `json:"title,omitempty"`
	Width     float64         `json:"width"`
	Height    float64         `json:"height"`
	MarginX   float64         `json:"margin_x"`
	MarginY   float64         `json:"margin_y"`
	Mark      layout.Mark     `json:"mark"`
	Direction stack.Direction `json:"direction"`
	Blocks    []layout.Block  `json:"blocks,omitempty"`
	Areas     []layout.Area   `json:"areas,omitempty"`
	Series    []stack.Series  `json:"series,omitempty"`
}

// RenderJSON encodes l.
func RenderJSON(l layout.Layout, opts ...JSONOption) ([]byte, error) {
	var r jsonRenderer
	for _, opt := range opts {
		opt(&r)
	}
	out := jsonOutput{
		Title:     r.title,
		Width:     l.Width,
		Height:    l.Height,
		MarginX:   l.MarginX,
		MarginY:   l.MarginY,
		Mark:      l.Mark,
		Direction: l.Direction,
		Blocks:    l.Blocks,
		Areas:     l.Areas,
		Series:    r.series,
	}
	if r.indent {
		return json.MarshalIndent(out, "", "  ")
	}
	return json.Marshal(out)
}
