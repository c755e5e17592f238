package microsel

import (
	"errors"
	"strconv"
	"strings"
	"testing"
)

func mustContain(t *testing.T, s, sub string) {
	t.Helper()
	if !strings.Contains(s, sub) {
		t.Fatalf("expected output to contain %q\n--- output ---\n%s", sub, s)
	}
}

func mustRuntimeAt(t *testing.T, src string, line, col int) error {
	t.Helper()
	ip, _ := newTestInterpreter()
	_, err := ip.EvalSource(src)
	if err == nil {
		t.Fatalf("expected runtime error, got nil\nsource:\n%s", src)
	}
	var re *RuntimeError
	if !errors.As(err, &re) {
		t.Fatalf("want *RuntimeError, got %T: %v", err, err)
	}
	if re.Line != line || re.Col != col {
		t.Fatalf("want error at %d:%d, got %d:%d (%v)", line, col, re.Line, re.Col, re)
	}
	want := "RUNTIME ERROR in <main> at " + strconv.Itoa(line) + ":" + strconv.Itoa(col) + ":"
	mustContain(t, err.Error(), want)
	return err
}

func Test_ErrorWrap_Parse_ShowsCaretAndContext(t *testing.T) {
	src := "x = 1\ny = )\nz = 2"
	_, err := Pretty(src)
	if err == nil {
		t.Fatalf("expected parse error, got nil")
	}
	msg := err.Error()

	mustContain(t, msg, "PARSE ERROR at 2:5: unexpected )")
	mustContain(t, msg, "   1 | x = 1")
	mustContain(t, msg, "   2 | y = )")
	mustContain(t, msg, "     |     ^")
	mustContain(t, msg, "   3 | z = 2")

	var pe *Error
	if !errors.As(err, &pe) || pe.Line != 2 {
		t.Fatalf("wrapped error lost its diagnostic: %v", err)
	}
}

func Test_ErrorWrap_Named_Source(t *testing.T) {
	_, err := ParseProgram("f(1", NewOpTable())
	msg := WrapErrorWithName(err, "demo.msel", "f(1").Error()
	mustContain(t, msg, "PARSE ERROR in demo.msel at 1:4:")
	mustContain(t, msg, "   1 | f(1")
	mustContain(t, msg, "     |    ^")
	if strings.Contains(msg, "   2 |") {
		t.Fatalf("no following line expected\n%s", msg)
	}
}

func Test_ErrorWrap_Passthrough(t *testing.T) {
	plain := errors.New("boom")
	if got := WrapErrorWithSource(plain, "x"); got != plain {
		t.Fatalf("plain errors must pass through, got %v", got)
	}
	noPos := &RuntimeError{Err: ErrUnknownFunction, Msg: "unknown function \"f\""}
	if got := WrapErrorWithSource(noPos, "x"); got != error(noPos) {
		t.Fatalf("positionless runtime errors must pass through, got %v", got)
	}
	if noPos.Error() != `RUNTIME ERROR: unknown function "f"` {
		t.Fatalf("bad message %q", noPos.Error())
	}
}

func Test_ErrorWrap_Clamps_Position(t *testing.T) {
	msg := prettyErrorStringLabeled("a\nb", "PARSE ERROR", "", 9, 0, "oops")
	mustContain(t, msg, "PARSE ERROR at 2:1: oops")
	mustContain(t, msg, "   2 | b")
	mustContain(t, msg, "     | ^")
}

func Test_Errors_Undeclared_Line(t *testing.T) {
	src := `x = 1
y = x +
    nope`
	err := mustRuntimeAt(t, src, 3, 5)
	mustContain(t, err.Error(), "   3 |     nope")
	mustContain(t, err.Error(), `identifier "nope" not found`)
}

func Test_Errors_Index_Line(t *testing.T) {
	mustRuntimeAt(t, "arr a[2]\na[0] = a[2]", 2, 10)
}

func Test_Errors_Dimension_At_Reference(t *testing.T) {
	mustRuntimeAt(t, "arr a[2][2]\n  a[1] = 0", 2, 3)
}

func Test_Errors_Assign_Target_At_Operator(t *testing.T) {
	mustRuntimeAt(t, "1 + 2 = 3", 1, 7)
}

func Test_Errors_Call_Line(t *testing.T) {
	err := mustRuntimeAt(t, "func f(a) a\n\nf(1, 2)", 3, 1)
	if !errors.Is(err, ErrArity) {
		t.Fatalf("want ErrArity, got %v", err)
	}
}

func Test_Errors_Inside_Function_Report_Callee_Line(t *testing.T) {
	mustRuntimeAt(t, "func f() {\n    @1000\n}\nf()", 2, 5)
}

func Test_IsIncomplete(t *testing.T) {
	if IsIncomplete(errors.New("x")) || IsIncomplete(nil) {
		t.Fatalf("plain errors are not incomplete")
	}
	inc := &Error{Kind: DiagIncomplete, Line: 1, Col: 1, Msg: "more"}
	if !IsIncomplete(WrapErrorWithSource(inc, "(")) {
		t.Fatalf("wrapping must keep the incomplete marker")
	}
}
