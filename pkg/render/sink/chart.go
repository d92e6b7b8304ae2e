package sink

import (
	"bytes"
	"math"
	"sort"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/matzehuels/stackchart/pkg/errors"
	"github.com/matzehuels/stackchart/pkg/layout"
)

// ChartOption configures [RenderSVG] and [RenderPNG].
type ChartOption func(*chartRenderer)

type chartRenderer struct {
	title   string
	palette []drawing.Color
	legend  bool
}

// WithTitle draws title in the top margin.
func WithTitle(title string) ChartOption { return func(r *chartRenderer) { r.title = title } }

// WithPalette replaces the series colors. Colors repeat when there are more
// series than colors.
func WithPalette(colors ...drawing.Color) ChartOption {
	return func(r *chartRenderer) {
		if len(colors) > 0 {
			r.palette = colors
		}
	}
}

// WithoutLegend hides the series legend.
func WithoutLegend() ChartOption { return func(r *chartRenderer) { r.legend = false } }

// DefaultPalette is a qualitative palette readable on white.
var DefaultPalette = []drawing.Color{
	drawing.ColorFromHex("4e79a7"),
	drawing.ColorFromHex("f28e2b"),
	drawing.ColorFromHex("e15759"),
	drawing.ColorFromHex("76b7b2"),
	drawing.ColorFromHex("59a14f"),
	drawing.ColorFromHex("edc948"),
	drawing.ColorFromHex("b07aa1"),
	drawing.ColorFromHex("ff9da7"),
	drawing.ColorFromHex("9c755f"),
	drawing.ColorFromHex("bab0ac"),
}

// RenderSVG draws l as SVG.
func RenderSVG(l layout.Layout, opts ...ChartOption) ([]byte, error) {
	return render(chart.SVG, l, opts)
}

// RenderPNG draws l as PNG.
func RenderPNG(l layout.Layout, opts ...ChartOption) ([]byte, error) {
	return render(chart.PNG, l, opts)
}

func render(provider chart.RendererProvider, l layout.Layout, opts []ChartOption) ([]byte, error) {
	r := chartRenderer{palette: DefaultPalette, legend: true}
	for _, opt := range opts {
		opt(&r)
	}

	w, h := int(math.Ceil(l.Width)), int(math.Ceil(l.Height))
	if err := errors.ValidateDimensions(l.Width, l.Height); err != nil {
		return nil, err
	}
	cv, err := provider(w, h)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "create renderer")
	}
	font, err := chart.GetDefaultFont()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "load font")
	}
	cv.SetFont(font)

	cv.SetFillColor(drawing.ColorWhite)
	rect(cv, 0, 0, l.Width, l.Height)
	cv.Fill()

	keys := seriesKeys(l)
	color := func(key string) drawing.Color {
		return r.palette[keys[key]%len(r.palette)]
	}

	areas := append([]layout.Area(nil), l.Areas...)
	sort.SliceStable(areas, func(i, j int) bool { return areas[i].VisualOrder > areas[j].VisualOrder })
	for _, a := range areas {
		if len(a.Upper) == 0 {
			continue
		}
		drawArea(cv, a, color(a.Key))
	}
	for _, b := range l.Blocks {
		cv.SetFillColor(color(b.Key))
		cv.SetStrokeColor(drawing.ColorWhite)
		cv.SetStrokeWidth(0.5)
		rect(cv, b.Left, b.Bottom, b.Right, b.Top)
		cv.FillStroke()
	}

	if r.title != "" {
		cv.SetFontColor(drawing.ColorBlack)
		cv.SetFontSize(14)
		tb := cv.MeasureText(r.title)
		cv.Text(r.title, (w-tb.Width())/2, int(math.Max(l.MarginY/2, 14)))
	}
	if r.legend && len(keys) > 0 {
		drawLegend(cv, l, keys, color)
	}

	var buf bytes.Buffer
	if err := cv.Save(&buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode chart")
	}
	return buf.Bytes(), nil
}

// seriesKeys numbers series keys in the order they appear.
func seriesKeys(l layout.Layout) map[string]int {
	keys := make(map[string]int)
	add := func(k string) {
		if _, ok := keys[k]; !ok {
			keys[k] = len(keys)
		}
	}
	for _, a := range l.Areas {
		add(a.Key)
	}
	for _, b := range l.Blocks {
		add(b.Key)
	}
	return keys
}

func drawArea(cv chart.Renderer, a layout.Area, c drawing.Color) {
	cv.SetFillColor(c)
	cv.SetStrokeColor(c)
	cv.SetStrokeWidth(1)
	cv.MoveTo(px(a.Upper[0].X), px(a.Upper[0].Y))
	for _, p := range a.Upper[1:] {
		cv.LineTo(px(p.X), px(p.Y))
	}
	for i := len(a.Lower) - 1; i >= 0; i-- {
		cv.LineTo(px(a.Lower[i].X), px(a.Lower[i].Y))
	}
	cv.Close()
	cv.FillStroke()
}

func drawLegend(cv chart.Renderer, l layout.Layout, keys map[string]int, color func(string) drawing.Color) {
	ordered := make([]string, len(keys))
	for k, i := range keys {
		ordered[i] = k
	}

	const swatch, gap = 10.0, 6.0
	cv.SetFontSize(10)
	cv.SetFontColor(chart.ColorAlternateGray)
	widest := 0
	for _, k := range ordered {
		widest = max(widest, cv.MeasureText(k).Width())
	}

	x := l.Width - float64(widest) - swatch - 2*gap
	y := gap
	for _, k := range ordered {
		cv.SetFillColor(color(k))
		cv.SetStrokeColor(color(k))
		rect(cv, x, y, x+swatch, y+swatch)
		cv.FillStroke()
		cv.Text(k, px(x+swatch+gap/2), px(y+swatch))
		y += swatch + gap
	}
}

func rect(cv chart.Renderer, x0, y0, x1, y1 float64) {
	cv.MoveTo(px(x0), px(y0))
	cv.LineTo(px(x1), px(y0))
	cv.LineTo(px(x1), px(y1))
	cv.LineTo(px(x0), px(y1))
	cv.Close()
}

func px(v float64) int { return int(math.Round(v)) }
