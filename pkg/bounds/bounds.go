// Package bounds implements the interval model behind scale domains and
// ranges.
//
// A [Bounds] is either a two-sided interval [min, max] whose sides may be
// left unset, or a piecewise breakpoint sequence. Unset sides are filled
// from a dataset by [Bounds.Qualify]:
//
//	b, _ := bounds.Parse("0..")             // min 0, max unset
//	_ = b.Qualify(records, encoding.Field("sales"))
//	ext, _ := b.Bounds()                     // [0, max(sales)]
//
// Qualification only ever fills unset sides, so once both sides are known a
// Bounds no longer changes.
package bounds

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/matzehuels/stackchart/pkg/encoding"
	"github.com/matzehuels/stackchart/pkg/errors"
)

// Value is the set of ordered types a Bounds can range over.
type Value interface {
	float64 | time.Time
}

// Bounds is a possibly incomplete interval over T.
type Bounds[T Value] struct {
	min, max       T
	hasMin, hasMax bool
	steps          []T
}

// Unset returns bounds with neither side known.
func Unset[T Value]() *Bounds[T] {
	return &Bounds[T]{}
}

// New returns the two-sided interval [min, max].
func New[T Value](min, max T) *Bounds[T] {
	return &Bounds[T]{min: min, max: max, hasMin: true, hasMax: true, steps: []T{min, max}}
}

// AtLeast returns bounds with only the lower side set.
func AtLeast[T Value](min T) *Bounds[T] {
	return &Bounds[T]{min: min, hasMin: true}
}

// AtMost returns bounds with only the upper side set.
func AtMost[T Value](max T) *Bounds[T] {
	return &Bounds[T]{max: max, hasMax: true}
}

// FromSlice interprets vals by length: empty is unset, a single value is a
// point interval, two values are [min, max], and more than two are a
// piecewise sequence kept verbatim with min and max at its ends.
func FromSlice[T Value](vals []T) *Bounds[T] {
	switch len(vals) {
	case 0:
		return Unset[T]()
	case 1:
		return &Bounds[T]{min: vals[0], max: vals[0], hasMin: true, hasMax: true}
	case 2:
		return New(vals[0], vals[1])
	}
	return &Bounds[T]{
		min:    vals[0],
		max:    vals[len(vals)-1],
		hasMin: true,
		hasMax: true,
		steps:  slices.Clone(vals),
	}
}

// Valid reports whether both sides are set.
func (b *Bounds[T]) Valid() bool {
	return b.hasMin && b.hasMax
}

// IsPiecewise reports whether b holds more than two breakpoints.
func (b *Bounds[T]) IsPiecewise() bool {
	return len(b.steps) > 2
}

// Min returns the lower side and whether it is set.
func (b *Bounds[T]) Min() (T, bool) { return b.min, b.hasMin }

// Max returns the upper side and whether it is set.
func (b *Bounds[T]) Max() (T, bool) { return b.max, b.hasMax }

// Bounds returns [min, max], or the breakpoints if b is piecewise.
func (b *Bounds[T]) Bounds() ([]T, error) {
	if !b.Valid() {
		return nil, errors.New(errors.ErrCodeUnqualified, "bounds %s are not qualified", b)
	}
	if b.IsPiecewise() {
		return slices.Clone(b.steps), nil
	}
	return []T{b.min, b.max}, nil
}

// Copy returns an independent clone of b.
func (b *Bounds[T]) Copy() *Bounds[T] {
	c := *b
	c.steps = slices.Clone(b.steps)
	return &c
}

// Qualify fills the unset sides of b with the minimum and maximum of acc
// over data, ignoring records for which acc yields nil or a value that does
// not convert to T.
//
// Qualify is a no-op on valid bounds and fails on piecewise ones. When no
// value is found it fails for a field accessor (the field is absent from
// the dataset); for other accessors an empty result is tolerated unless
// both sides are still unset, since an interval cannot be both empty and
// valid.
func (b *Bounds[T]) Qualify(data []encoding.Record, acc encoding.Accessor) error {
	if b.IsPiecewise() {
		return errors.New(errors.ErrCodeQualification, "piecewise bounds %s cannot be qualified", b)
	}
	if b.Valid() {
		return nil
	}
	if acc == nil {
		return errors.New(errors.ErrCodeQualification, "no accessor to qualify bounds %s", b)
	}

	var lo, hi T
	found := false
	for _, r := range data {
		v, ok := coerce[T](acc.Value(r))
		if !ok {
			continue
		}
		if !found {
			lo, hi, found = v, v, true
			continue
		}
		if compare(v, lo) < 0 {
			lo = v
		}
		if compare(v, hi) > 0 {
			hi = v
		}
	}

	if !found {
		if name, ok := encoding.FieldName(acc); ok {
			return errors.New(errors.ErrCodeQualification, "field %q has no usable values in %d records", name, len(data))
		}
		if !b.hasMin && !b.hasMax {
			return errors.New(errors.ErrCodeQualification, "accessor %s produced no values in %d records", encoding.Describe(acc), len(data))
		}
		return nil
	}

	if !b.hasMin {
		b.min, b.hasMin = lo, true
	}
	if !b.hasMax {
		b.max, b.hasMax = hi, true
	}
	b.steps = []T{b.min, b.max}
	return nil
}

// String renders b in range-expression form ("0..10", "..", "[1 5 9]").
func (b *Bounds[T]) String() string {
	if b.IsPiecewise() {
		parts := make([]string, len(b.steps))
		for i, s := range b.steps {
			parts[i] = format(s)
		}
		return "[" + strings.Join(parts, " ") + "]"
	}
	var sb strings.Builder
	if b.hasMin {
		sb.WriteString(format(b.min))
	}
	sb.WriteString("..")
	if b.hasMax {
		sb.WriteString(format(b.max))
	}
	return sb.String()
}

func compare[T Value](a, b T) int {
	switch x := any(a).(type) {
	case float64:
		return cmp.Compare(x, any(b).(float64))
	case time.Time:
		return x.Compare(any(b).(time.Time))
	}
	panic(fmt.Sprintf("bounds: unsupported value type %T", a))
}

func coerce[T Value](v any) (T, bool) {
	var zero T
	if v == nil {
		return zero, false
	}
	switch any(zero).(type) {
	case float64:
		f, ok := encoding.Float(v)
		if !ok {
			return zero, false
		}
		return any(f).(T), true
	case time.Time:
		t, ok := encoding.Time(v)
		if !ok {
			return zero, false
		}
		return any(t).(T), true
	}
	return zero, false
}

func format[T Value](v T) string {
	switch x := any(v).(type) {
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case time.Time:
		return x.Format(time.RFC3339)
	}
	return fmt.Sprint(v)
}
