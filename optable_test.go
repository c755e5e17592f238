package microsel

import (
	"reflect"
	"testing"
)

func Test_OpTable_Seeded_Precedences(t *testing.T) {
	ops := NewOpTable()
	cases := map[string]int{
		"**": 14, "*": 13, "/": 13, "%": 13, "+": 12, "-": 12,
		"<": 10, ">": 10, "<=": 10, ">=": 10, "==": 9, "!=": 9,
		"&&": 5, "||": 4, "=": 3,
	}
	for op, want := range cases {
		if got := ops.Precedence(op); got != want {
			t.Fatalf("%s: want %d, got %d", op, want, got)
		}
	}
	if ops.Precedence("|") != -1 || ops.Has(">>") {
		t.Fatalf("unexpected operators registered")
	}
	if !ops.RightAssoc("**") || !ops.RightAssoc("=") || ops.RightAssoc("-") {
		t.Fatalf("bad associativity")
	}
}

func Test_OpTable_Register_Validates(t *testing.T) {
	ops := NewOpTable()
	if err := ops.Register(">>", 11); err != nil {
		t.Fatalf("register: %v", err)
	}
	if ops.Precedence(">>") != 11 {
		t.Fatalf("want 11, got %d", ops.Precedence(">>"))
	}
	bad := []struct {
		op   string
		prec int
	}{
		{"", 5}, {"abc", 5}, {"a", 5}, {">>>", 5}, {"^", 5},
		{"|", 0}, {"|", 19}, {"|", -1},
	}
	for _, b := range bad {
		if err := ops.Register(b.op, b.prec); err == nil {
			t.Fatalf("Register(%q, %d): want error", b.op, b.prec)
		}
	}
}

func Test_OpTable_Clone_Is_Independent(t *testing.T) {
	ops := NewOpTable()
	c := ops.Clone()
	if err := c.Register("|", 6); err != nil {
		t.Fatal(err)
	}
	if ops.Has("|") {
		t.Fatalf("clone registration leaked into original")
	}
	if !c.RightAssoc("**") {
		t.Fatalf("clone lost associativity")
	}
}

func Test_OpTable_Operators_Loosest_First(t *testing.T) {
	got := NewOpTable().Operators()
	want := []string{"=", "||", "&&", "!=", "==", "<", "<=", ">", ">=", "+", "-", "%", "*", "/", "**"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("want %v, got %v", want, got)
	}
}

func Test_OpTable_Spelling(t *testing.T) {
	for _, op := range []string{"+", "<=", "|", "&&", "=!"} {
		if !ValidOpSpelling(op) {
			t.Fatalf("%q should be valid", op)
		}
	}
	for _, r := range "@#;,[](){}^~" {
		if IsOpChar(r) {
			t.Fatalf("%q should not be an operator character", r)
		}
	}
	if IsOpChar(EOFRune) {
		t.Fatalf("EOF is not an operator character")
	}
}
