// Package layout converts stacked series into pixel-space geometry.
//
// The id axis (x for vertical stacks, y for horizontal ones) and the value
// axis are each described by a [scale.Scale]. Both must be fully qualified;
// see package frame for completing a domain from data first.
package layout

import (
	"math"

	"github.com/matzehuels/stackchart/pkg/errors"
	"github.com/matzehuels/stackchart/pkg/scale"
	"github.com/matzehuels/stackchart/pkg/stack"
)

// Mark selects the geometry built for a stack.
type Mark string

const (
	MarkArea Mark = "area"
	MarkBar  Mark = "bar"
)

// Layout is the complete geometry of one chart.
type Layout struct {
	Width     float64         `json:"width"`
	Height    float64         `json:"height"`
	MarginX   float64         `json:"margin_x"`
	MarginY   float64         `json:"margin_y"`
	Mark      Mark            `json:"mark"`
	Direction stack.Direction `json:"direction"`
	Blocks    []Block         `json:"blocks,omitempty"`
	Areas     []Area          `json:"areas,omitempty"`
}

// Build lays out series as mark. ids maps point ids and values maps
// stacked values.
func Build(series []stack.Series, dir stack.Direction, mark Mark, ids, values scale.Scale, width, height float64) (Layout, error) {
	l := Layout{Width: width, Height: height, Mark: mark, Direction: dir}
	var err error
	switch mark {
	case MarkBar:
		l.Blocks, err = Bars(series, dir, ids, values)
	case MarkArea, "":
		l.Mark = MarkArea
		l.Areas, err = Areas(series, dir, ids, values)
	default:
		err = errors.New(errors.ErrCodeInvalidInput, "unknown mark %q", mark)
	}
	if err != nil {
		return Layout{}, err
	}
	return l, nil
}

// Bars returns one block per point. ids must be a band scale.
func Bars(series []stack.Series, dir stack.Direction, ids, values scale.Scale) ([]Block, error) {
	band, ok := ids.(*scale.Band)
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidScale, "bars need a band scale on the id axis, got %s", ids.Kind())
	}
	bw, err := band.Bandwidth()
	if err != nil {
		return nil, err
	}

	outer := maxVisualOrder(series)
	var blocks []Block
	for _, s := range series {
		for _, p := range s.Points {
			pos, err := band.Compute(p.ID)
			if err != nil {
				return nil, err
			}
			v0, v1, err := span(values, p)
			if err != nil {
				return nil, err
			}

			b := Block{
				Key:         s.Key,
				ID:          p.ID,
				Value:       p.End - p.Start,
				VisualOrder: s.VisualOrder,
				Outermost:   s.VisualOrder == outer,
				Innermost:   s.VisualOrder == 0,
			}
			if dir == stack.Horizontal {
				b.Left, b.Right = v0, v1
				b.Bottom, b.Top = pos, pos+bw
			} else {
				b.Left, b.Right = pos, pos+bw
				b.Bottom, b.Top = v0, v1
			}
			blocks = append(blocks, b)
		}
	}
	return blocks, nil
}

// Areas returns one area per series, sampling each point at the center of
// its id (the band center for band scales).
func Areas(series []stack.Series, dir stack.Direction, ids, values scale.Scale) ([]Area, error) {
	outer := maxVisualOrder(series)
	areas := make([]Area, 0, len(series))
	for _, s := range series {
		a := Area{
			Key:         s.Key,
			Index:       s.Index,
			VisualOrder: s.VisualOrder,
			Outermost:   s.VisualOrder == outer,
			Innermost:   s.VisualOrder == 0,
			Upper:       make([]Vec, 0, len(s.Points)),
			Lower:       make([]Vec, 0, len(s.Points)),
		}
		for _, p := range s.Points {
			pos, err := center(ids, p.ID)
			if err != nil {
				return nil, err
			}
			lo, err := values.Compute(p.Start)
			if err != nil {
				return nil, err
			}
			hi, err := values.Compute(p.End)
			if err != nil {
				return nil, err
			}
			if dir == stack.Horizontal {
				a.Upper = append(a.Upper, Vec{X: hi, Y: pos})
				a.Lower = append(a.Lower, Vec{X: lo, Y: pos})
			} else {
				a.Upper = append(a.Upper, Vec{X: pos, Y: hi})
				a.Lower = append(a.Lower, Vec{X: pos, Y: lo})
			}
		}
		areas = append(areas, a)
	}
	return areas, nil
}

func center(ids scale.Scale, id any) (float64, error) {
	pos, err := ids.Compute(id)
	if err != nil {
		return 0, err
	}
	if band, ok := ids.(*scale.Band); ok {
		bw, err := band.Bandwidth()
		if err != nil {
			return 0, err
		}
		pos += bw / 2
	}
	return pos, nil
}

// span maps a point's bounds through values, smaller pixel first.
func span(values scale.Scale, p stack.Point) (float64, float64, error) {
	a, err := values.Compute(p.Start)
	if err != nil {
		return 0, 0, err
	}
	b, err := values.Compute(p.End)
	if err != nil {
		return 0, 0, err
	}
	return math.Min(a, b), math.Max(a, b), nil
}

func maxVisualOrder(series []stack.Series) int {
	m := 0
	for _, s := range series {
		m = max(m, s.VisualOrder)
	}
	return m
}
