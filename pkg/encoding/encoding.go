// Package encoding normalizes the ways a chart names a value in a record.
//
// A channel (x, y, z, ...) may be encoded as a field name, a constant, a Go
// function, or an expression. All of them reduce to an [Accessor], which
// extracts one value from one [Record]. A nil result means "no value" and is
// skipped by consumers that aggregate over a dataset.
//
//	x := encoding.Field("day")
//	y, err := encoding.Compile("visits / 1000")
//	z := encoding.Func(func(r encoding.Record) any { return r["region"] })
package encoding

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/matzehuels/stackchart/pkg/errors"
)

// Record is one row of row-oriented input data.
type Record map[string]any

// Accessor extracts a value from a record.
type Accessor interface {
	Value(r Record) any
}

// Field reads a named field from each record.
type Field string

// Value returns r[f], or nil if the field is absent.
func (f Field) Value(r Record) any { return r[string(f)] }

// String returns the field name.
func (f Field) String() string { return string(f) }

// Func adapts an ordinary function to an Accessor.
type Func func(r Record) any

// Value calls f(r).
func (f Func) Value(r Record) any { return f(r) }

// Const returns the same value for every record.
func Const(v any) Accessor { return constant{v} }

type constant struct{ v any }

func (c constant) Value(Record) any { return c.v }

func (c constant) String() string { return fmt.Sprintf("const(%v)", c.v) }

// Expr evaluates a compiled expression with the record's fields as
// variables. Fields missing from a record evaluate to nil.
type Expr struct {
	src  string
	prog *vm.Program
}

// Compile compiles src into an expression accessor.
func Compile(src string) (*Expr, error) {
	src = strings.TrimSpace(src)
	if src == "" {
		return nil, errors.New(errors.ErrCodeInvalidAccessor, "expression must not be empty")
	}
	prog, err := expr.Compile(src, expr.AllowUndefinedVariables())
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidAccessor, err, "compile expression %q", src)
	}
	return &Expr{src: src, prog: prog}, nil
}

// Value runs the expression against r. Evaluation failures yield nil, the
// same as a missing field.
func (e *Expr) Value(r Record) any {
	out, err := expr.Run(e.prog, map[string]any(r))
	if err != nil {
		return nil
	}
	return out
}

// String returns the expression source.
func (e *Expr) String() string { return e.src }

// Parse builds an accessor from its textual form in a chart file. A leading
// "=" marks an expression ("=sales * 1.2"); anything else is a field name.
func Parse(spec string) (Accessor, error) {
	if rest, ok := strings.CutPrefix(spec, "="); ok {
		return Compile(rest)
	}
	if err := errors.ValidateFieldName(spec); err != nil {
		return nil, err
	}
	return Field(spec), nil
}

// FieldName reports the field name behind acc, if acc is a plain field.
func FieldName(acc Accessor) (string, bool) {
	f, ok := acc.(Field)
	return string(f), ok
}

// Describe returns a short label for acc, used in logs and errors.
func Describe(acc Accessor) string {
	switch a := acc.(type) {
	case nil:
		return "<nil>"
	case fmt.Stringer:
		return a.String()
	default:
		return fmt.Sprintf("%T", acc)
	}
}

// Values applies acc to every record, dropping nil results.
func Values(data []Record, acc Accessor) []any {
	out := make([]any, 0, len(data))
	for _, r := range data {
		if v := acc.Value(r); v != nil {
			out = append(out, v)
		}
	}
	return out
}
