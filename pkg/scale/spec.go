package scale

import (
	"strings"

	"github.com/matzehuels/stackchart/pkg/bounds"
	"github.com/matzehuels/stackchart/pkg/errors"
)

// Spec describes a scale in a chart file or API request. Domain and Range
// accept anything bounds.ParseValue does; a nil Domain is fully unset and
// will be qualified from data.
type Spec struct {
	Type    string  `toml:"type" json:"type,omitempty"`
	Domain  any     `toml:"domain" json:"domain,omitempty"`
	Range   any     `toml:"range" json:"range,omitempty"`
	Padding float64 `toml:"padding" json:"padding,omitempty"`
	Base    int     `toml:"base" json:"base,omitempty"`
	Clamp   bool    `toml:"clamp" json:"clamp,omitempty"`
	Nice    bool    `toml:"nice" json:"nice,omitempty"`
}

// Build constructs the scale described by s. An empty Type defaults to
// linear. rng, when non-nil, overrides s.Range; layout supplies it from the
// chart dimensions.
func (s Spec) Build(rng *bounds.Bounds[float64]) (Scale, error) {
	if rng == nil {
		r, err := bounds.ParseValue(s.Range)
		if err != nil {
			return nil, err
		}
		rng = r
	}

	switch Kind(strings.ToLower(s.Type)) {
	case "", KindLinear:
		d, err := bounds.ParseValue(s.Domain)
		if err != nil {
			return nil, err
		}
		l := NewLinear(d, rng)
		l.Clamp = s.Clamp
		return l, nil
	case KindLog:
		d, err := bounds.ParseValue(s.Domain)
		if err != nil {
			return nil, err
		}
		return NewLog(d, rng, s.Base), nil
	case KindTime:
		d, err := bounds.ParseTimeValue(s.Domain)
		if err != nil {
			return nil, err
		}
		return NewTime(d, rng), nil
	case KindBand:
		var d Set
		switch v := s.Domain.(type) {
		case nil:
		case []any:
			d = Set(v)
		case []string:
			for _, x := range v {
				d = append(d, x)
			}
		default:
			return nil, errors.New(errors.ErrCodeInvalidScale, "band domain must be a list, got %T", s.Domain)
		}
		b := NewBand(d, rng)
		b.SetPadding(s.Padding)
		return b, nil
	case KindIdentity:
		return NewIdentity(rng), nil
	}
	return nil, errors.New(errors.ErrCodeInvalidScale, "unknown scale type %q", s.Type)
}
