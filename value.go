package microsel

import (
	"math"
	"strconv"
)

// Value is a single numeric memory cell. Every datum in a program, scalar or
// array element, is one Value.
type Value float64

// IsInteger reports whether v has no fractional part.
func (v Value) IsInteger() bool {
	f := float64(v)
	return !math.IsInf(f, 0) && math.Trunc(f) == f
}

// IsUnsignedInteger reports whether v is an integer >= 0.
func (v Value) IsUnsignedInteger() bool { return v.IsInteger() && v >= 0 }

// Truthy is the condition test used by if/for/while.
func (v Value) Truthy() bool { return v != 0 }

func (v Value) String() string { return FormatValue(v, NumberCompact) }

// Signal tags a Result that is unwinding through enclosing constructs.
type Signal int

const (
	SigNone   Signal = iota // plain value
	SigBreak                // caught by the nearest for/while
	SigReturn               // caught by the nearest function call
)

func (s Signal) String() string {
	switch s {
	case SigBreak:
		return "break"
	case SigReturn:
		return "return"
	default:
		return "value"
	}
}

// Result is what evaluating a node produces when it does not fail. Failures
// travel on the error channel instead.
type Result struct {
	Value  Value
	Signal Signal
}

func normal(v Value) Result { return Result{Value: v} }

// Unwinding reports whether r must stop sequential evaluation.
func (r Result) Unwinding() bool { return r.Signal != SigNone }

// NumberFormat selects how values are rendered by the printer and built-ins.
type NumberFormat string

const (
	NumberCompact NumberFormat = "compact" // shortest round-trip form, 3 or 2.5
	NumberFixed   NumberFormat = "fixed"   // six decimals, 3.000000
)

// FormatValue renders v for display.
func FormatValue(v Value, format NumberFormat) string {
	f := float64(v)
	if format == NumberFixed {
		return strconv.FormatFloat(f, 'f', 6, 64)
	}
	if v.IsInteger() && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
