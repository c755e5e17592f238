package microsel

import (
	"fmt"
	"sort"
	"strings"
)

// OpChars lists every character that may spell an operator.
const OpChars = "<>+-*/%!&|="

// Precedence bounds for user-registered binary operators.
const (
	MinPrecedence     = 1
	MaxPrecedence     = 18
	DefaultPrecedence = MaxPrecedence
)

// OpTable is the mutable binary-operator precedence table consulted by the
// parser. Higher numbers bind tighter.
type OpTable struct {
	prec  map[string]int
	right map[string]bool
}

// NewOpTable returns a table seeded with the built-in operators.
func NewOpTable() *OpTable {
	t := &OpTable{
		prec: map[string]int{
			"**": 14,
			"*":  13, "/": 13, "%": 13,
			"+": 12, "-": 12,
			"<": 10, ">": 10, "<=": 10, ">=": 10,
			"==": 9, "!=": 9,
			"&&": 5,
			"||": 4,
			"=":  3,
		},
		right: map[string]bool{"**": true, "=": true},
	}
	return t
}

// IsOpChar reports whether r can be part of an operator spelling.
func IsOpChar(r rune) bool { return r > 0 && strings.ContainsRune(OpChars, r) }

// ValidOpSpelling reports whether op is one or two operator characters.
func ValidOpSpelling(op string) bool {
	rs := []rune(op)
	if len(rs) == 0 || len(rs) > 2 {
		return false
	}
	for _, r := range rs {
		if !IsOpChar(r) {
			return false
		}
	}
	return true
}

// Precedence returns the precedence of op, or -1 when op is not a binary
// operator.
func (t *OpTable) Precedence(op string) int {
	if p, ok := t.prec[op]; ok && p > 0 {
		return p
	}
	return -1
}

// Has reports whether op is registered.
func (t *OpTable) Has(op string) bool { return t.Precedence(op) > 0 }

// RightAssoc reports whether a chain of op at equal precedence groups to the
// right.
func (t *OpTable) RightAssoc(op string) bool { return t.right[op] }

// Register installs or replaces op with the given precedence.
func (t *OpTable) Register(op string, prec int) error {
	if !ValidOpSpelling(op) {
		return fmt.Errorf("invalid operator %q: must be one or two of %q", op, OpChars)
	}
	if prec < MinPrecedence || prec > MaxPrecedence {
		return fmt.Errorf("invalid precedence %d for %q: must be %d~%d", prec, op, MinPrecedence, MaxPrecedence)
	}
	t.prec[op] = prec
	return nil
}

// Clone returns an independent copy of t.
func (t *OpTable) Clone() *OpTable {
	c := &OpTable{prec: make(map[string]int, len(t.prec)), right: make(map[string]bool, len(t.right))}
	for k, v := range t.prec {
		c.prec[k] = v
	}
	for k, v := range t.right {
		c.right[k] = v
	}
	return c
}

// Operators lists the registered spellings ordered from loosest to tightest.
func (t *OpTable) Operators() []string {
	ops := make([]string, 0, len(t.prec))
	for op := range t.prec {
		ops = append(ops, op)
	}
	sort.Slice(ops, func(i, j int) bool {
		if t.prec[ops[i]] != t.prec[ops[j]] {
			return t.prec[ops[i]] < t.prec[ops[j]]
		}
		return ops[i] < ops[j]
	})
	return ops
}
