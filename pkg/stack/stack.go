// Package stack turns flat records into stacked series.
//
// Records are pivoted into a table with one row per id (the x value of a
// vertical stack) and one column per category (the z value). An order
// strategy then decides which category sits at the baseline, and an offset
// strategy where the baseline is:
//
//	s, _ := stack.NewVertical(stack.Config{
//	    Data: records,
//	    X:    encoding.Field("day"),
//	    Y:    encoding.Field("visits"),
//	    Z:    encoding.Field("region"),
//	})
//	for _, series := range s.Data() {
//	    fmt.Println(series.Key, series.Points[0].Start, series.Points[0].End)
//	}
//
// Results are memoized and recomputed only after a setter changes an
// input. With Stable set, the first computed category order is kept for
// later data, so series do not swap places as a live feed updates.
//
// A Stack is not safe for concurrent use.
package stack

import (
	"slices"
	"sort"

	"github.com/matzehuels/stackchart/pkg/encoding"
	"github.com/matzehuels/stackchart/pkg/errors"
)

// Config is the input of a stack.
type Config struct {
	Data []encoding.Record

	// X, Y, and Z select the id, cell, and category of each record for a
	// vertical stack. A horizontal stack reads its id from Y and its cell
	// from X.
	X, Y, Z encoding.Accessor

	// Order defaults to OrderNone, or OrderInsideOut with OffsetWiggle.
	Order  Order
	Offset Offset

	// Stable keeps the first computed category order across data updates.
	Stable bool

	// Direction defaults to Vertical.
	Direction Direction
}

type dirty uint8

const (
	dirtyCategories dirty = 1 << iota
	dirtyTable
	dirtySeries

	dirtyAll = dirtyCategories | dirtyTable | dirtySeries
)

// Stack is a memoized stack transform.
type Stack struct {
	data    []encoding.Record
	x, y, z encoding.Accessor
	order   Order
	offset  Offset
	stable  bool
	dir     Direction

	// persisted is the category order cached by a stable stack.
	persisted []string

	dirty      dirty
	categories []string
	table      pivoted
	series     []Series
	perm       []int
}

// New validates cfg and returns a stack over it.
func New(cfg Config) (*Stack, error) {
	s := &Stack{
		data:   cfg.Data,
		order:  cfg.Order,
		offset: cfg.Offset,
		stable: cfg.Stable,
		dirty:  dirtyAll,
	}
	if err := s.SetAccessors(cfg.X, cfg.Y, cfg.Z); err != nil {
		return nil, err
	}
	if err := s.SetDirection(cfg.Direction); err != nil {
		return nil, err
	}
	return s, nil
}

// NewVertical is New with the direction forced to Vertical.
func NewVertical(cfg Config) (*Stack, error) {
	cfg.Direction = Vertical
	return New(cfg)
}

// NewHorizontal is New with the direction forced to Horizontal.
func NewHorizontal(cfg Config) (*Stack, error) {
	cfg.Direction = Horizontal
	return New(cfg)
}

// SetData replaces the input records.
func (s *Stack) SetData(data []encoding.Record) {
	s.data = data
	s.dirty = dirtyAll
}

// SetAccessors replaces the x, y, and z accessors. All three are required.
func (s *Stack) SetAccessors(x, y, z encoding.Accessor) error {
	for _, a := range []struct {
		name string
		acc  encoding.Accessor
	}{{"x", x}, {"y", y}, {"z", z}} {
		if a.acc == nil {
			return errors.New(errors.ErrCodeInvalidAccessor, "stack: %s accessor is required", a.name)
		}
	}
	s.x, s.y, s.z = x, y, z
	s.dirty = dirtyAll
	return nil
}

// SetOrder replaces the order strategy.
func (s *Stack) SetOrder(o Order) {
	s.order = o
	s.dirty |= dirtySeries
}

// SetOffset replaces the offset strategy.
func (s *Stack) SetOffset(o Offset) {
	s.offset = o
	s.dirty |= dirtySeries
}

// SetStable turns category order persistence on or off. Turning it off
// drops the persisted order, so the next computation orders afresh.
func (s *Stack) SetStable(stable bool) {
	s.stable = stable
	if !stable {
		if s.persisted != nil {
			s.persisted = nil
			s.dirty = dirtyAll
		}
		return
	}
	if s.dirty&dirtySeries == 0 {
		s.commit()
	}
}

// SetDirection switches between vertical and horizontal stacking. The
// empty direction means Vertical.
func (s *Stack) SetDirection(d Direction) error {
	switch d {
	case "":
		d = Vertical
	case Vertical, Horizontal:
	default:
		return errors.New(errors.ErrCodeInvalidInput, "stack: unknown direction %q", d)
	}
	if d != s.dir {
		s.dir = d
		s.dirty |= dirtyTable | dirtySeries
	}
	return nil
}

// Direction returns the stacking direction.
func (s *Stack) Direction() Direction { return s.dir }

// Order returns the order strategy actually applied: OrderNone while a
// persisted order exists or for unknown names, OrderInsideOut for an
// unset order under OffsetWiggle.
func (s *Stack) Order() Order {
	switch {
	case s.persisted != nil:
		return OrderNone
	case s.order == "" && s.offset == OffsetWiggle:
		return OrderInsideOut
	case !s.order.Valid():
		return OrderNone
	}
	return s.order
}

// Offset returns the offset strategy actually applied.
func (s *Stack) Offset() Offset {
	if !s.offset.Valid() {
		return OffsetNone
	}
	return s.offset
}

// Categories returns the category keys in first-seen order, or the
// persisted order of a stable stack.
func (s *Stack) Categories() []string {
	s.ensureCategories()
	return slices.Clone(s.categories)
}

// PersistedOrder returns the cached category order, or nil if none is
// cached.
func (s *Stack) PersistedOrder() []string {
	return slices.Clone(s.persisted)
}

// Table returns the pivoted rows in first-seen id order.
func (s *Stack) Table() []Row {
	s.ensureTable()
	return slices.Clone(s.table.rows)
}

// Duplicates returns the (id, category) pairs that occurred more than once
// in the data. Only the first record of each contributes to the table.
func (s *Stack) Duplicates() []Duplicate {
	s.ensureTable()
	return slices.Clone(s.table.dups)
}

// Data returns the stacked series in category order. Each call returns
// fresh series and point slices; a point's Data row is shared.
func (s *Stack) Data() []Series {
	s.ensureSeries()
	out := slices.Clone(s.series)
	for i := range out {
		out[i].Points = slices.Clone(out[i].Points)
	}
	return out
}

func (s *Stack) ensureCategories() {
	if s.dirty&dirtyCategories == 0 {
		return
	}
	if s.persisted != nil {
		s.categories = slices.Clone(s.persisted)
	} else {
		s.categories = distinctCategories(s.data, s.z)
	}
	s.dirty &^= dirtyCategories
}

func (s *Stack) ensureTable() {
	s.ensureCategories()
	if s.dirty&dirtyTable == 0 {
		return
	}
	id, cell := s.channels()
	s.table = pivot(s.data, id, cell, s.z, s.categories, s.dir)
	s.dirty &^= dirtyTable
}

func (s *Stack) ensureSeries() {
	s.ensureTable()
	if s.dirty&dirtySeries == 0 {
		return
	}

	m := s.table.matrix(s.categories)
	perm := lookupOrder(s.Order())(m)
	if s.stable && s.persisted == nil && len(perm) > 0 {
		s.persist(perm)
		m = s.table.matrix(s.categories)
		perm = identity(len(perm))
	}
	lookupOffset(s.Offset())(m, perm)

	series := make([]Series, len(s.categories))
	for i, key := range s.categories {
		series[i] = Series{Key: key, Points: s.points(m[i], s.table.rows)}
	}
	for rank, i := range perm {
		series[i].Index = rank
	}
	assignVisualOrder(series)

	s.series, s.perm = series, perm
	s.dirty &^= dirtySeries
}

// persist caches the category order given by perm. From then on the
// categories are kept in that order and the order strategy is skipped,
// which leaves every category's index unchanged.
func (s *Stack) persist(perm []int) {
	keys := make([]string, len(perm))
	for rank, i := range perm {
		keys[rank] = s.categories[i]
	}
	s.persisted = keys
	s.categories = slices.Clone(keys)
}

// commit persists the order of already computed series.
func (s *Stack) commit() {
	if s.persisted != nil || len(s.perm) == 0 {
		return
	}
	s.persist(s.perm)
	sorted := make([]Series, len(s.series))
	for _, sr := range s.series {
		sorted[sr.Index] = sr
	}
	s.series, s.perm = sorted, identity(len(sorted))
}

func identity(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}

func (s *Stack) points(l [][2]float64, rows []Row) []Point {
	pts := make([]Point, len(l))
	for j, p := range l {
		pts[j] = Point{Start: p[0], End: p[1], Value: p[1], ID: rows[j].ID, Data: rows[j], dir: s.dir}
	}
	return pts
}

// channels returns the id and cell accessors for the current direction.
func (s *Stack) channels() (id, cell encoding.Accessor) {
	if s.dir == Horizontal {
		return s.y, s.x
	}
	return s.x, s.y
}

// assignVisualOrder ranks series by the value of their first point,
// ascending. Ties keep category order.
func assignVisualOrder(series []Series) {
	idx := identity(len(series))
	first := func(i int) float64 {
		if len(series[i].Points) == 0 {
			return 0
		}
		return series[i].Points[0].Value
	}
	sort.SliceStable(idx, func(a, b int) bool { return first(idx[a]) < first(idx[b]) })
	for rank, i := range idx {
		series[i].VisualOrder = rank
	}
}

// Slice stacks a subset of records with the categories and series order
// already established over the full data, returning one point per record
// in input order. Records without an id or with a category the stack does
// not know are skipped.
func (s *Stack) Slice(records []encoding.Record) []SlicePoint {
	s.ensureSeries()

	id, cell := s.channels()
	p := pivot(records, id, cell, s.z, s.categories, s.dir)
	m := p.matrix(s.categories)
	lookupOffset(s.Offset())(m, s.perm)

	col := make(map[string]int, len(s.categories))
	for i, c := range s.categories {
		col[c] = i
	}

	out := make([]SlicePoint, 0, len(records))
	for _, r := range records {
		idv, zv := id.Value(r), s.z.Value(r)
		if idv == nil || zv == nil {
			continue
		}
		key := encoding.Label(zv)
		i, ok := col[key]
		if !ok {
			continue
		}
		j := p.index[encoding.Key(idv)]
		row := p.rows[j]
		out = append(out, SlicePoint{
			Point: Point{Start: m[i][j][0], End: m[i][j][1], Value: m[i][j][1], ID: row.ID, Data: row, dir: s.dir},
			Key:   key,
		})
	}
	return out
}
