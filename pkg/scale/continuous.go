package scale

import (
	"sort"
	"time"

	mscale "github.com/aclements/go-moremath/scale"

	"github.com/matzehuels/stackchart/pkg/bounds"
	"github.com/matzehuels/stackchart/pkg/encoding"
	"github.com/matzehuels/stackchart/pkg/errors"
)

// Linear maps a numeric domain onto a numeric range. A piecewise domain is
// mapped segment by segment (polylinear).
type Linear struct {
	id     string
	domain *bounds.Bounds[float64]
	rng    *bounds.Bounds[float64]

	// Clamp restricts outputs to the range.
	Clamp bool
}

// NewLinear returns a linear scale. A nil domain is fully unset.
func NewLinear(domain, rng *bounds.Bounds[float64]) *Linear {
	if domain == nil {
		domain = bounds.Unset[float64]()
	}
	return &Linear{id: newID(), domain: domain, rng: orUnset(rng)}
}

func (s *Linear) ID() string     { return s.id }
func (s *Linear) Kind() Kind     { return KindLinear }
func (s *Linear) Domain() Extent { return s.domain }
func (s *Linear) Range() Extent  { return s.rng }

func (s *Linear) Valid() bool {
	return s.domain.Valid() && s.rng.Valid()
}

func (s *Linear) Compute(v any) (float64, error) {
	r, err := rangeBounds(s.id, s.rng)
	if err != nil {
		return 0, err
	}
	d, err := s.domain.Bounds()
	if err != nil {
		return 0, err
	}
	x, ok := encoding.Float(v)
	if !ok {
		return 0, errors.New(errors.ErrCodeInvalidInput, "linear scale: %v is not a number", v)
	}
	return polymap(d, r, x, func(lo, hi, x float64) (float64, error) {
		l := mscale.Linear{Min: lo, Max: hi, Clamp: s.Clamp}
		return l.Map(x), nil
	})
}

func (s *Linear) Derive(o Overrides) (Scale, error) {
	c := &Linear{id: newID(), domain: s.domain.Copy(), rng: copyRange(s.rng, o.Range), Clamp: s.Clamp}
	if o.Domain != nil {
		d, ok := o.Domain.(*bounds.Bounds[float64])
		if !ok {
			return nil, domainMismatch(s.Kind(), o.Domain)
		}
		if d != nil {
			c.domain = d
		}
	}
	return c, nil
}

// Ticks returns at most max evenly spaced domain values.
func (s *Linear) Ticks(max int) ([]float64, error) {
	d, err := s.domain.Bounds()
	if err != nil {
		return nil, err
	}
	l := mscale.Linear{Min: d[0], Max: d[len(d)-1]}
	major, _ := l.Ticks(mscale.TickOptions{Max: max})
	return major, nil
}

// Nice widens a qualified domain outward to round tick values. It is a
// no-op on unqualified or piecewise domains.
func (s *Linear) Nice(max int) {
	if !s.domain.Valid() || s.domain.IsPiecewise() {
		return
	}
	lo, _ := s.domain.Min()
	hi, _ := s.domain.Max()
	l := mscale.Linear{Min: lo, Max: hi}
	l.Nice(mscale.TickOptions{Max: max})
	s.domain = bounds.New(l.Min, l.Max)
}

// Log maps a strictly positive (or strictly negative) domain
// logarithmically onto a numeric range.
type Log struct {
	id     string
	domain *bounds.Bounds[float64]
	rng    *bounds.Bounds[float64]
	base   int
}

// NewLog returns a log scale with the given base; bases below 2 default
// to 10.
func NewLog(domain, rng *bounds.Bounds[float64], base int) *Log {
	if domain == nil {
		domain = bounds.Unset[float64]()
	}
	if base < 2 {
		base = 10
	}
	return &Log{id: newID(), domain: domain, rng: orUnset(rng), base: base}
}

func (s *Log) ID() string     { return s.id }
func (s *Log) Kind() Kind     { return KindLog }
func (s *Log) Domain() Extent { return s.domain }
func (s *Log) Range() Extent  { return s.rng }
func (s *Log) Base() int      { return s.base }

func (s *Log) Valid() bool {
	return s.domain.Valid() && s.rng.Valid()
}

func (s *Log) Compute(v any) (float64, error) {
	r, err := rangeBounds(s.id, s.rng)
	if err != nil {
		return 0, err
	}
	d, err := s.domain.Bounds()
	if err != nil {
		return 0, err
	}
	x, ok := encoding.Float(v)
	if !ok {
		return 0, errors.New(errors.ErrCodeInvalidInput, "log scale: %v is not a number", v)
	}
	return polymap(d, r, x, func(lo, hi, x float64) (float64, error) {
		l, err := mscale.NewLog(min(lo, hi), max(lo, hi), s.base)
		if err != nil {
			return 0, errors.Wrap(errors.ErrCodeInvalidScale, err, "log domain [%g, %g]", lo, hi)
		}
		if lo > hi {
			return 1 - l.Map(x), nil
		}
		return l.Map(x), nil
	})
}

func (s *Log) Derive(o Overrides) (Scale, error) {
	c := &Log{id: newID(), domain: s.domain.Copy(), rng: copyRange(s.rng, o.Range), base: s.base}
	if o.Domain != nil {
		d, ok := o.Domain.(*bounds.Bounds[float64])
		if !ok {
			return nil, domainMismatch(s.Kind(), o.Domain)
		}
		if d != nil {
			c.domain = d
		}
	}
	return c, nil
}

// Time maps instants linearly onto a numeric range.
type Time struct {
	id     string
	domain *bounds.Bounds[time.Time]
	rng    *bounds.Bounds[float64]
}

// NewTime returns a time scale. A nil domain is fully unset.
func NewTime(domain *bounds.Bounds[time.Time], rng *bounds.Bounds[float64]) *Time {
	if domain == nil {
		domain = bounds.Unset[time.Time]()
	}
	return &Time{id: newID(), domain: domain, rng: orUnset(rng)}
}

func (s *Time) ID() string     { return s.id }
func (s *Time) Kind() Kind     { return KindTime }
func (s *Time) Domain() Extent { return s.domain }
func (s *Time) Range() Extent  { return s.rng }

func (s *Time) Valid() bool {
	return s.domain.Valid() && s.rng.Valid()
}

func (s *Time) Compute(v any) (float64, error) {
	r, err := rangeBounds(s.id, s.rng)
	if err != nil {
		return 0, err
	}
	dt, err := s.domain.Bounds()
	if err != nil {
		return 0, err
	}
	t, ok := encoding.Time(v)
	if !ok {
		return 0, errors.New(errors.ErrCodeInvalidInput, "time scale: %v is not a time", v)
	}
	d := make([]float64, len(dt))
	for i, x := range dt {
		d[i] = float64(x.UnixNano())
	}
	return polymap(d, r, float64(t.UnixNano()), func(lo, hi, x float64) (float64, error) {
		l := mscale.Linear{Min: lo, Max: hi}
		return l.Map(x), nil
	})
}

func (s *Time) Derive(o Overrides) (Scale, error) {
	c := &Time{id: newID(), domain: s.domain.Copy(), rng: copyRange(s.rng, o.Range)}
	if o.Domain != nil {
		d, ok := o.Domain.(*bounds.Bounds[time.Time])
		if !ok {
			return nil, domainMismatch(s.Kind(), o.Domain)
		}
		if d != nil {
			c.domain = d
		}
	}
	return c, nil
}

// Ticks returns at most max evenly spaced instants across the domain.
func (s *Time) Ticks(max int) ([]time.Time, error) {
	d, err := s.domain.Bounds()
	if err != nil {
		return nil, err
	}
	l := mscale.Linear{Min: float64(d[0].UnixNano()), Max: float64(d[len(d)-1].UnixNano())}
	major, _ := l.Ticks(mscale.TickOptions{Max: max})
	ticks := make([]time.Time, len(major))
	for i, ns := range major {
		ticks[i] = time.Unix(0, int64(ns)).In(d[0].Location())
	}
	return ticks, nil
}

// polymap maps x through the domain segment containing it onto the
// matching range segment. norm maps x into [0, 1] relative to a segment.
// Domain and range are truncated to the shorter of the two. A degenerate
// segment maps to the middle of its range segment.
func polymap(d, r []float64, x float64, norm func(lo, hi, x float64) (float64, error)) (float64, error) {
	n := min(len(d), len(r))
	d, r = d[:n], r[:n]

	i := 0
	if n > 2 {
		asc := d[n-1] >= d[0]
		// Index of the first breakpoint beyond x, clamped to a segment.
		j := sort.Search(n, func(k int) bool {
			if asc {
				return d[k] > x
			}
			return d[k] < x
		})
		i = min(max(j-1, 0), n-2)
	}

	if d[i] == d[i+1] {
		return (r[i] + r[i+1]) / 2, nil
	}
	t, err := norm(d[i], d[i+1], x)
	if err != nil {
		return 0, err
	}
	return r[i] + t*(r[i+1]-r[i]), nil
}
