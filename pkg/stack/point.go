package stack

import (
	"encoding/json"

	"github.com/matzehuels/stackchart/pkg/encoding"
)

// Direction is the axis along which values accumulate.
type Direction string

const (
	// Vertical stacks y values over x ids.
	Vertical Direction = "vertical"
	// Horizontal stacks x values over y ids.
	Horizontal Direction = "horizontal"
)

// idKey is the pivoted column holding the id value.
func (d Direction) idKey() string {
	if d == Horizontal {
		return "y"
	}
	return "x"
}

// Row is one pivoted table row: an id and the cell value of every
// category at that id. Categories with no record at the id hold 0.
type Row struct {
	ID     any
	Values map[string]float64

	dir Direction
}

// Value returns the cell for category key.
func (r Row) Value(key string) float64 { return r.Values[key] }

// Record flattens r into {x: id, <category>: value, ...}, with y as the id
// column for horizontal stacks.
func (r Row) Record() encoding.Record {
	rec := make(encoding.Record, len(r.Values)+1)
	for k, v := range r.Values {
		rec[k] = v
	}
	rec[r.dir.idKey()] = r.ID
	return rec
}

// MarshalJSON encodes r in its flattened form.
func (r Row) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Record())
}

// Point is one stacked cell. Start and End are the lower and upper
// cumulative bounds; Value equals End.
type Point struct {
	Start float64
	End   float64
	Value float64
	ID    any
	Data  Row

	dir Direction
}

// Direction returns the direction of the stack the point belongs to.
func (p Point) Direction() Direction { return p.dir }

// MarshalJSON encodes p as {y0, y1, y, x, data} for vertical stacks and
// {x0, x1, x, y, data} for horizontal ones.
func (p Point) MarshalJSON() ([]byte, error) {
	if p.dir == Horizontal {
		return json.Marshal(struct {
			X0   float64         `json:"x0"`
			X1   float64         `json:"x1"`
			X    float64         `json:"x"`
			Y    any             `json:"y"`
			Data encoding.Record `json:"data"`
		}{p.Start, p.End, p.Value, p.ID, p.Data.Record()})
	}
	return json.Marshal(struct {
		Y0   float64         `json:"y0"`
		Y1   float64         `json:"y1"`
		Y    float64         `json:"y"`
		X    any             `json:"x"`
		Data encoding.Record `json:"data"`
	}{p.Start, p.End, p.Value, p.ID, p.Data.Record()})
}

// Series is the stacked points of one category, one per table row.
type Series struct {
	// Key is the category.
	Key string `json:"key"`
	// Index is the position assigned by the order strategy; 0 is drawn
	// first, at the baseline.
	Index int `json:"index"`
	// VisualOrder ranks series by the value of their first point,
	// ascending. The series with the highest VisualOrder is outermost.
	VisualOrder int     `json:"visualOrder"`
	Points      []Point `json:"points"`
}

// SlicePoint is a point produced by slice stacking, tagged with the
// category of the record it came from.
type SlicePoint struct {
	Point
	Key string
}

// MarshalJSON encodes s like a Point with an added "key" field.
func (s SlicePoint) MarshalJSON() ([]byte, error) {
	b, err := s.Point.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	key, err := json.Marshal(s.Key)
	if err != nil {
		return nil, err
	}
	m["key"] = key
	return json.Marshal(m)
}

// Duplicate is an (id, category) pair seen more than once in the input.
// Only the first record of such a pair contributes to the table.
type Duplicate struct {
	ID  any    `json:"id"`
	Key string `json:"key"`
}
