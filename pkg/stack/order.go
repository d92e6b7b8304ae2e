package stack

import (
	"math"
	"slices"
	"sort"
)

// Order names a strategy that decides which series sits lowest in the stack.
type Order string

const (
	OrderNone       Order = "none"
	OrderReverse    Order = "reverse"
	OrderAscending  Order = "ascending"
	OrderDescending Order = "descending"
	OrderAppearance Order = "appearance"
	OrderInsideOut  Order = "insideOut"
)

// Orders lists every known order strategy.
var Orders = []Order{OrderAppearance, OrderAscending, OrderDescending, OrderInsideOut, OrderNone, OrderReverse}

// Valid reports whether o names a known strategy. Unknown names are not an
// error anywhere in this package; they stack as OrderNone.
func (o Order) Valid() bool {
	return slices.Contains(Orders, o)
}

// layers holds one [lower, upper] pair per series (outer index) and row
// (inner index). Before an offset runs, lower is 0 and upper is the raw cell.
type layers [][][2]float64

type orderFunc func(s layers) []int

var orderFuncs = map[Order]orderFunc{
	OrderNone:       orderNone,
	OrderReverse:    orderReverse,
	OrderAscending:  orderAscending,
	OrderDescending: orderDescending,
	OrderAppearance: orderAppearance,
	OrderInsideOut:  orderInsideOut,
}

func lookupOrder(o Order) orderFunc {
	if f, ok := orderFuncs[o]; ok {
		return f
	}
	return orderNone
}

func orderNone(s layers) []int {
	return identity(len(s))
}

func orderReverse(s layers) []int {
	idx := orderNone(s)
	slices.Reverse(idx)
	return idx
}

func orderAscending(s layers) []int {
	sums := make([]float64, len(s))
	for i, l := range s {
		sums[i] = total(l)
	}
	idx := orderNone(s)
	sort.SliceStable(idx, func(a, b int) bool { return sums[idx[a]] < sums[idx[b]] })
	return idx
}

func orderDescending(s layers) []int {
	idx := orderAscending(s)
	slices.Reverse(idx)
	return idx
}

// orderAppearance sorts series by the row at which each first peaks.
func orderAppearance(s layers) []int {
	peaks := make([]int, len(s))
	for i, l := range s {
		peaks[i] = peak(l)
	}
	idx := orderNone(s)
	sort.SliceStable(idx, func(a, b int) bool { return peaks[idx[a]] < peaks[idx[b]] })
	return idx
}

// orderInsideOut places early-peaking series in the middle and alternates
// later ones outward, keeping the two halves balanced by total. It pairs
// with OffsetWiggle for streamgraphs.
func orderInsideOut(s layers) []int {
	sums := make([]float64, len(s))
	for i, l := range s {
		sums[i] = total(l)
	}

	var top, bottom float64
	var tops, bottoms []int
	for _, j := range orderAppearance(s) {
		if top < bottom {
			top += sums[j]
			tops = append(tops, j)
		} else {
			bottom += sums[j]
			bottoms = append(bottoms, j)
		}
	}
	slices.Reverse(bottoms)
	return append(bottoms, tops...)
}

func total(l [][2]float64) float64 {
	var sum float64
	for _, p := range l {
		if !math.IsNaN(p[1]) {
			sum += p[1]
		}
	}
	return sum
}

func peak(l [][2]float64) int {
	j, best := 0, math.Inf(-1)
	for i, p := range l {
		if p[1] > best {
			j, best = i, p[1]
		}
	}
	return j
}
