// Package render groups the output stages of stackchart.
//
// Rendering starts from a computed [layout.Layout]; nothing here
// re-derives geometry. The [sink] subpackage writes a layout as:
//
//   - SVG and PNG, drawn through go-chart's renderer
//   - JSON, the layout plus optional series for client-side drawing
//
// [layout.Layout]: github.com/matzehuels/stackchart/pkg/layout.Layout
// [sink]: github.com/matzehuels/stackchart/pkg/render/sink
package render
