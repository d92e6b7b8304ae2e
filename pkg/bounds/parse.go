package bounds

import (
	"regexp"
	"strconv"
	"time"

	"github.com/matzehuels/stackchart/pkg/encoding"
	"github.com/matzehuels/stackchart/pkg/errors"
)

// rangeExpr is the compact range grammar: an optional number, "..", and an
// optional number. An omitted side is unset.
var rangeExpr = regexp.MustCompile(`^(-?\d+(?:\.\d+)?)?\.\.(-?\d+(?:\.\d+)?)?$`)

// Parse parses a range expression such as "0..", "..", or "-10..10".
// Any other shape fails with a PARSE_ERROR; there is no partial recovery.
func Parse(expr string) (*Bounds[float64], error) {
	m := rangeExpr.FindStringSubmatch(expr)
	if m == nil {
		return nil, errors.New(errors.ErrCodeParse, "malformed range expression %q (want \"min..max\")", expr)
	}

	b := Unset[float64]()
	if m[1] != "" {
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeParse, err, "range minimum %q", m[1])
		}
		b.min, b.hasMin = v, true
	}
	if m[2] != "" {
		v, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeParse, err, "range maximum %q", m[2])
		}
		b.max, b.hasMax = v, true
	}
	if b.Valid() {
		b.steps = []float64{b.min, b.max}
	}
	return b, nil
}

// MustParse is like Parse but panics on error. It is intended for
// package-level chart definitions.
func MustParse(expr string) *Bounds[float64] {
	b, err := Parse(expr)
	if err != nil {
		panic(err)
	}
	return b
}

// ParseValue builds numeric bounds from a decoded config or request value:
// a range expression string, a numeric array (forwarded to FromSlice), an
// existing *Bounds, or nil for fully unset bounds.
func ParseValue(v any) (*Bounds[float64], error) {
	switch x := v.(type) {
	case nil:
		return Unset[float64](), nil
	case *Bounds[float64]:
		return x, nil
	case string:
		return Parse(x)
	case []float64:
		return FromSlice(x), nil
	case []int:
		vals := make([]float64, len(x))
		for i, n := range x {
			vals[i] = float64(n)
		}
		return FromSlice(vals), nil
	case []int64:
		vals := make([]float64, len(x))
		for i, n := range x {
			vals[i] = float64(n)
		}
		return FromSlice(vals), nil
	case []any:
		vals := make([]float64, len(x))
		for i, e := range x {
			f, ok := encoding.Float(e)
			if !ok {
				return nil, errors.New(errors.ErrCodeParse, "bounds element %d (%v) is not a number", i, e)
			}
			vals[i] = f
		}
		return FromSlice(vals), nil
	}
	return nil, errors.New(errors.ErrCodeParse, "cannot build bounds from %T", v)
}

// ParseTimeValue builds time bounds from a decoded config or request
// value: nil, an existing *Bounds, or an array of times or time strings.
func ParseTimeValue(v any) (*Bounds[time.Time], error) {
	switch x := v.(type) {
	case nil:
		return Unset[time.Time](), nil
	case *Bounds[time.Time]:
		return x, nil
	case []time.Time:
		return FromSlice(x), nil
	case []string:
		vals := make([]any, len(x))
		for i, s := range x {
			vals[i] = s
		}
		return ParseTimeValue(vals)
	case []any:
		vals := make([]time.Time, len(x))
		for i, e := range x {
			t, ok := encoding.Time(e)
			if !ok {
				return nil, errors.New(errors.ErrCodeParse, "bounds element %d (%v) is not a time", i, e)
			}
			vals[i] = t
		}
		return FromSlice(vals), nil
	}
	return nil, errors.New(errors.ErrCodeParse, "cannot build time bounds from %T", v)
}
