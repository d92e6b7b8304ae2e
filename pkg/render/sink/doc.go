// Package sink turns a computed [layout.Layout] into output bytes.
//
//   - [RenderJSON]: geometry as JSON, optionally with the stacked series
//   - [RenderSVG]: vector chart drawn with go-chart's SVG renderer
//   - [RenderPNG]: raster chart drawn with go-chart's PNG renderer
//
// The chart renderers draw the layout as given; they do not rescale.
// Areas are painted outermost first, so inner series overlay outer ones
// where offsets make them overlap.
//
//	svg, err := sink.RenderSVG(l, sink.WithTitle("visits by day"))
package sink
