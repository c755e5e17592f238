// errors.go: diagnostics, runtime error categories and caret-snippet rendering
//
// Two error channels exist. The parser returns *Error values carrying a
// 1-based position and a DiagKind; the REPL uses DiagIncomplete to ask for
// more input. The evaluator returns *RuntimeError values that wrap one of the
// Err* sentinels below, so callers can classify failures with errors.Is.
//
// WrapErrorWithName turns either kind into a multi-line snippet:
//
//	PARSE ERROR in demo.msel at 3:12: expected ')'
//
//	   2 | x = 1
//	   3 | y = (x + 2
//	     |            ^
//	   4 | z = 3
//
// Other errors are returned unchanged.
package microsel

import (
	"errors"
	"fmt"
	"strings"
)

// DiagKind classifies a parser diagnostic.
type DiagKind int

const (
	DiagParse      DiagKind = iota // malformed input
	DiagIncomplete                 // input ended inside a construct
)

// Error is a parser diagnostic.
type Error struct {
	Kind DiagKind
	Line int
	Col  int
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("PARSE ERROR at %d:%d: %s", e.Line, e.Col, e.Msg)
}

// IsIncomplete reports whether err is a parse failure caused only by the
// input ending too early.
func IsIncomplete(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == DiagIncomplete
}

// Runtime error categories.
var (
	ErrUndeclared      = errors.New("undeclared identifier")
	ErrNotArray        = errors.New("not an array")
	ErrIsArray         = errors.New("array used as a scalar")
	ErrDimension       = errors.New("dimension count mismatch")
	ErrIndex           = errors.New("invalid array index")
	ErrAddress         = errors.New("invalid address")
	ErrAssignTarget    = errors.New("invalid assignment target")
	ErrUnknownFunction = errors.New("unknown function")
	ErrArity           = errors.New("wrong number of arguments")
	ErrBuiltinArity    = errors.New("wrong number of arguments to built-in")
	ErrUnknownOperator = errors.New("unknown operator")
	ErrCallDepth       = errors.New("call depth limit exceeded")
	ErrStackLimit      = errors.New("stack limit exceeded")
)

// RuntimeError is an evaluation failure at a source position. Line/Col are
// 1-based; zero means the position is unknown.
type RuntimeError struct {
	Err  error
	Line int
	Col  int
	Msg  string
}

func (e *RuntimeError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("RUNTIME ERROR at %d:%d: %s", e.Line, e.Col, e.Msg)
	}
	return "RUNTIME ERROR: " + e.Msg
}

func (e *RuntimeError) Unwrap() error { return e.Err }

func rtErr(at Node, sentinel error, format string, args ...any) *RuntimeError {
	e := &RuntimeError{Err: sentinel, Msg: fmt.Sprintf(format, args...)}
	if at != nil {
		p := at.Position()
		e.Line, e.Col = p.Line, p.Col
	}
	return e
}

// WrapErrorWithSource renders err against src without a source name.
func WrapErrorWithSource(err error, src string) error {
	return WrapErrorWithName(err, "", src)
}

// WrapErrorWithName returns err augmented with a caret-annotated snippet of
// src when err is a parse or positioned runtime error. The result still
// unwraps to the original error.
func WrapErrorWithName(err error, srcName string, src string) error {
	var pe *Error
	if errors.As(err, &pe) {
		return &snippetError{err: err, text: prettyErrorStringLabeled(src, "PARSE ERROR", srcName, pe.Line, pe.Col, pe.Msg)}
	}
	var re *RuntimeError
	if errors.As(err, &re) && re.Line > 0 {
		return &snippetError{err: err, text: prettyErrorStringLabeled(src, "RUNTIME ERROR", srcName, re.Line, re.Col, re.Msg)}
	}
	return err
}

type snippetError struct {
	err  error
	text string
}

func (e *snippetError) Error() string { return e.text }
func (e *snippetError) Unwrap() error { return e.err }

// prettyErrorStringLabeled shows at most one line of context on each side.
// Coordinates are clamped to the source bounds.
func prettyErrorStringLabeled(src, header, name string, line, col int, msg string) string {
	lines := strings.Split(src, "\n")
	line = min(max(line, 1), len(lines))
	col = max(col, 1)

	var b strings.Builder
	if name != "" {
		fmt.Fprintf(&b, "%s in %s at %d:%d: %s\n\n", header, name, line, col, msg)
	} else {
		fmt.Fprintf(&b, "%s at %d:%d: %s\n\n", header, line, col, msg)
	}
	if line > 1 {
		fmt.Fprintf(&b, "%4d | %s\n", line-1, lines[line-2])
	}
	fmt.Fprintf(&b, "%4d | %s\n", line, lines[line-1])
	fmt.Fprintf(&b, "     | %s^\n", strings.Repeat(" ", col-1))
	if line < len(lines) {
		fmt.Fprintf(&b, "%4d | %s\n", line+1, lines[line])
	}
	return b.String()
}
