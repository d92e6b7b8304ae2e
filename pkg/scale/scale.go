// Package scale maps data values to pixel space.
//
// Scales are thin adapters: the numeric formulas come from
// github.com/aclements/go-moremath/scale, and this package only wires them
// to [bounds.Bounds] domains and ranges so that incomplete domains can be
// qualified from data (see package frame).
//
// A scale's range must always be known up front; it comes from layout,
// never from data. Computing through a scale whose range is unqualified
// fails with RANGE_UNBOUND.
package scale

import (
	"slices"

	"github.com/google/uuid"

	"github.com/matzehuels/stackchart/pkg/bounds"
	"github.com/matzehuels/stackchart/pkg/encoding"
	"github.com/matzehuels/stackchart/pkg/errors"
)

// Kind names a scale type.
type Kind string

const (
	KindLinear   Kind = "linear"
	KindLog      Kind = "log"
	KindTime     Kind = "time"
	KindBand     Kind = "band"
	KindIdentity Kind = "identity"
)

// Extent is a scale domain or range. Bounds-backed extents may be
// incomplete; discrete sets are always valid.
type Extent interface {
	Valid() bool
}

// Qualifiable is an extent whose missing sides can be filled from data.
// Both *bounds.Bounds[float64] and *bounds.Bounds[time.Time] implement it.
type Qualifiable interface {
	Extent
	IsPiecewise() bool
	Qualify(data []encoding.Record, acc encoding.Accessor) error
}

// Scale is the contract the qualification protocol and the layout stage
// rely on.
type Scale interface {
	// ID identifies the scale for deferred-write coalescing.
	ID() string
	Kind() Kind
	Domain() Extent
	Range() Extent
	// Compute maps a domain value to a range value.
	Compute(v any) (float64, error)
	// Valid reports whether both domain and range are complete.
	Valid() bool
	// Derive returns an independent copy with the given overrides applied.
	// A domain override of the wrong kind fails with INVALID_SCALE.
	Derive(o Overrides) (Scale, error)
}

// Overrides replaces parts of a scale in Derive. Nil fields keep a copy of
// the original. Continuous scales take a *bounds.Bounds of their value
// type as Domain, band scales a Set; identity scales take no Domain.
type Overrides struct {
	Domain Extent
	Range  *bounds.Bounds[float64]
}

// Set is a discrete domain in display order.
type Set []any

// Valid always reports true; a discrete domain is never incomplete.
func (s Set) Valid() bool { return true }

// Index returns the position of v in s, comparing by encoding.Key.
func (s Set) Index(v any) int {
	k := encoding.Key(v)
	return slices.IndexFunc(s, func(e any) bool { return encoding.Key(e) == k })
}

// Distinct collects the distinct values of acc over data in first-seen
// order.
func Distinct(data []encoding.Record, acc encoding.Accessor) Set {
	seen := make(map[any]bool)
	var out Set
	for _, r := range data {
		v := acc.Value(r)
		if v == nil {
			continue
		}
		k := encoding.Key(v)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, v)
	}
	return out
}

// IsIdentity reports whether s is an identity scale, whose domain is
// definitionally its range.
func IsIdentity(s Scale) bool {
	return s.Kind() == KindIdentity
}

func newID() string {
	return uuid.NewString()
}

func rangeBounds(id string, rng *bounds.Bounds[float64]) ([]float64, error) {
	if !rng.Valid() {
		return nil, errors.New(errors.ErrCodeRangeUnbound, "scale %s has no range", id)
	}
	return rng.Bounds()
}

func orUnset(rng *bounds.Bounds[float64]) *bounds.Bounds[float64] {
	if rng == nil {
		return bounds.Unset[float64]()
	}
	return rng
}

func copyRange(rng *bounds.Bounds[float64], o *bounds.Bounds[float64]) *bounds.Bounds[float64] {
	if o != nil {
		return o
	}
	return rng.Copy()
}

func domainMismatch(k Kind, d Extent) error {
	return errors.New(errors.ErrCodeInvalidScale, "%s scale cannot derive a %T domain", k, d)
}
