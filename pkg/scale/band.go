package scale

import (
	"github.com/matzehuels/stackchart/pkg/bounds"
	"github.com/matzehuels/stackchart/pkg/encoding"
	"github.com/matzehuels/stackchart/pkg/errors"
)

// Band divides a numeric range into equal bands, one per domain value.
// Compute returns the start of a value's band; Bandwidth its width.
type Band struct {
	id     string
	domain Set
	rng    *bounds.Bounds[float64]

	// PaddingInner is the fraction of each step left empty between bands.
	PaddingInner float64
	// PaddingOuter is the padding before the first and after the last band,
	// in steps.
	PaddingOuter float64
	// Align positions the bands within the outer padding, 0 to 1.
	Align float64
}

// NewBand returns a band scale with no padding and centered alignment. An
// empty domain can be filled later with SetDomain.
func NewBand(domain Set, rng *bounds.Bounds[float64]) *Band {
	return &Band{id: newID(), domain: domain, rng: orUnset(rng), Align: 0.5}
}

func (s *Band) ID() string     { return s.id }
func (s *Band) Kind() Kind     { return KindBand }
func (s *Band) Domain() Extent { return s.domain }
func (s *Band) Range() Extent  { return s.rng }

func (s *Band) Valid() bool {
	return s.rng.Valid()
}

// SetDomain replaces the discrete domain.
func (s *Band) SetDomain(d Set) { s.domain = d }

// SetPadding sets inner and outer padding to p.
func (s *Band) SetPadding(p float64) {
	s.PaddingInner, s.PaddingOuter = p, p
}

func (s *Band) Compute(v any) (float64, error) {
	starts, _, err := s.layout()
	if err != nil {
		return 0, err
	}
	i := s.domain.Index(v)
	if i < 0 {
		return 0, errors.New(errors.ErrCodeInvalidInput, "band scale: %v is not in the domain", v)
	}
	return starts[i], nil
}

// Bandwidth returns the width of each band.
func (s *Band) Bandwidth() (float64, error) {
	_, bw, err := s.layout()
	return bw, err
}

func (s *Band) layout() ([]float64, float64, error) {
	r, err := rangeBounds(s.id, s.rng)
	if err != nil {
		return nil, 0, err
	}
	r0, r1 := r[0], r[len(r)-1]
	reverse := r1 < r0
	start, stop := r0, r1
	if reverse {
		start, stop = r1, r0
	}

	n := float64(len(s.domain))
	step := (stop - start) / max(1, n-s.PaddingInner+s.PaddingOuter*2)
	start += (stop - start - step*(n-s.PaddingInner)) * s.Align
	bw := step * (1 - s.PaddingInner)

	starts := make([]float64, len(s.domain))
	for i := range starts {
		starts[i] = start + step*float64(i)
	}
	if reverse {
		for i, j := 0, len(starts)-1; i < j; i, j = i+1, j-1 {
			starts[i], starts[j] = starts[j], starts[i]
		}
	}
	return starts, bw, nil
}

func (s *Band) Derive(o Overrides) (Scale, error) {
	c := *s
	c.id = newID()
	c.domain = append(Set(nil), s.domain...)
	c.rng = copyRange(s.rng, o.Range)
	if o.Domain != nil {
		d, ok := o.Domain.(Set)
		if !ok {
			return nil, domainMismatch(s.Kind(), o.Domain)
		}
		c.domain = d
	}
	return &c, nil
}

// Identity passes numeric values through unchanged. Its domain is its
// range, so it never needs qualification.
type Identity struct {
	id  string
	rng *bounds.Bounds[float64]
}

// NewIdentity returns an identity scale over rng.
func NewIdentity(rng *bounds.Bounds[float64]) *Identity {
	return &Identity{id: newID(), rng: orUnset(rng)}
}

func (s *Identity) ID() string     { return s.id }
func (s *Identity) Kind() Kind     { return KindIdentity }
func (s *Identity) Domain() Extent { return s.rng }
func (s *Identity) Range() Extent  { return s.rng }

func (s *Identity) Valid() bool {
	return s.rng.Valid()
}

func (s *Identity) Compute(v any) (float64, error) {
	x, ok := encoding.Float(v)
	if !ok {
		return 0, errors.New(errors.ErrCodeInvalidInput, "identity scale: %v is not a number", v)
	}
	return x, nil
}

func (s *Identity) Derive(o Overrides) (Scale, error) {
	if o.Domain != nil {
		return nil, domainMismatch(s.Kind(), o.Domain)
	}
	return &Identity{id: newID(), rng: copyRange(s.rng, o.Range)}, nil
}
