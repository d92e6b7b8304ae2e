package stack

import (
	"math"
	"slices"
)

// Offset names a strategy that decides where each stack's baseline sits.
type Offset string

const (
	OffsetNone       Offset = "none"
	OffsetExpand     Offset = "expand"
	OffsetDiverging  Offset = "diverging"
	OffsetSilhouette Offset = "silhouette"
	OffsetWiggle     Offset = "wiggle"
)

// Offsets lists every known offset strategy.
var Offsets = []Offset{OffsetExpand, OffsetDiverging, OffsetNone, OffsetSilhouette, OffsetWiggle}

// Valid reports whether o names a known strategy. Unknown names stack as
// OffsetNone.
func (o Offset) Valid() bool {
	return slices.Contains(Offsets, o)
}

// offsetFunc shifts s in place, visiting series in the given order.
type offsetFunc func(s layers, order []int)

var offsetFuncs = map[Offset]offsetFunc{
	OffsetNone:       offsetNone,
	OffsetExpand:     offsetExpand,
	OffsetDiverging:  offsetDiverging,
	OffsetSilhouette: offsetSilhouette,
	OffsetWiggle:     offsetWiggle,
}

func lookupOffset(o Offset) offsetFunc {
	if f, ok := offsetFuncs[o]; ok {
		return f
	}
	return offsetNone
}

// offsetNone stacks each series on top of the previous one in order,
// starting from zero.
func offsetNone(s layers, order []int) {
	if len(s) < 2 {
		return
	}
	s1 := s[order[0]]
	for i := 1; i < len(order); i++ {
		s0 := s1
		s1 = s[order[i]]
		for j := range s1 {
			base := s0[j][1]
			if math.IsNaN(base) {
				base = s0[j][0]
			}
			s1[j][0] = base
			s1[j][1] += base
		}
	}
}

// offsetExpand normalizes every row to sum to one before stacking.
func offsetExpand(s layers, order []int) {
	if len(s) == 0 {
		return
	}
	for j := range s[0] {
		var y float64
		for i := range s {
			y += orZero(s[i][j][1])
		}
		if y != 0 {
			for i := range s {
				s[i][j][1] /= y
			}
		}
	}
	offsetNone(s, order)
}

// offsetDiverging stacks positive values upward from zero and negative
// values downward from zero.
func offsetDiverging(s layers, order []int) {
	if len(s) == 0 {
		return
	}
	for j := range s[order[0]] {
		var yp, yn float64
		for _, i := range order {
			d := &s[i][j]
			dy := d[1] - d[0]
			switch {
			case dy > 0:
				d[0] = yp
				yp += dy
				d[1] = yp
			case dy < 0:
				d[1] = yn
				yn += dy
				d[0] = yn
			default:
				d[0], d[1] = 0, dy
			}
		}
	}
}

// offsetSilhouette centers every stack around zero.
func offsetSilhouette(s layers, order []int) {
	if len(s) == 0 {
		return
	}
	s0 := s[order[0]]
	for j := range s0 {
		var y float64
		for i := range s {
			y += orZero(s[i][j][1])
		}
		s0[j][0] = -y / 2
		s0[j][1] += s0[j][0]
	}
	offsetNone(s, order)
}

// offsetWiggle shifts the baseline to minimize the weighted change in
// slope across series (the streamgraph layout).
func offsetWiggle(s layers, order []int) {
	if len(s) == 0 {
		return
	}
	s0 := s[order[0]]
	m := len(s0)
	if m == 0 {
		return
	}

	var y float64
	for j := 1; j < m; j++ {
		var s1, s2 float64
		for i, oi := range order {
			si := s[oi]
			sij0 := orZero(si[j][1])
			sij1 := orZero(si[j-1][1])
			s3 := (sij0 - sij1) / 2
			for _, k := range order[:i] {
				sk := s[k]
				s3 += orZero(sk[j][1]) - orZero(sk[j-1][1])
			}
			s1 += sij0
			s2 += s3 * sij0
		}
		s0[j-1][0] = y
		s0[j-1][1] += y
		if s1 != 0 {
			y -= s2 / s1
		}
	}
	s0[m-1][0] = y
	s0[m-1][1] += y
	offsetNone(s, order)
}

func orZero(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return v
}
