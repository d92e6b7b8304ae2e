package pipeline

import (
	"fmt"

	"github.com/matzehuels/stackchart/pkg/errors"
	"github.com/matzehuels/stackchart/pkg/layout"
	"github.com/matzehuels/stackchart/pkg/render/sink"
	"github.com/matzehuels/stackchart/pkg/stack"
)

// Render produces one artifact per requested format.
func Render(l layout.Layout, series []stack.Series, opts Options) (map[string][]byte, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, err
	}
	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		data, err := renderFormat(l, series, format, opts)
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}

func renderFormat(l layout.Layout, series []stack.Series, format string, opts Options) ([]byte, error) {
	switch format {
	case FormatJSON:
		return sink.RenderJSON(l, sink.WithJSONTitle(opts.Title), sink.WithJSONSeries(series))
	case FormatSVG:
		return sink.RenderSVG(l, chartOptions(opts)...)
	case FormatPNG:
		return sink.RenderPNG(l, chartOptions(opts)...)
	}
	return nil, errors.New(errors.ErrCodeUnsupported, "unsupported format %q", format)
}

func chartOptions(opts Options) []sink.ChartOption {
	var out []sink.ChartOption
	if opts.Title != "" {
		out = append(out, sink.WithTitle(opts.Title))
	}
	return out
}
