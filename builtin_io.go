package microsel

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
)

// ErrInput is wrapped by runtime errors from input().
var ErrInput = errors.New("input failed")

// builtin is a host function callable by name from programs. Arity -1
// accepts any number of arguments.
type builtin struct {
	Name  string
	Arity int
	Doc   string
	impl  func(ip *Interpreter, at Node, args []Value) (Value, error)
}

func (b builtin) call(ip *Interpreter, at Node, args []Value) (Value, error) {
	if b.Arity >= 0 && len(args) != b.Arity {
		return 0, rtErr(at, ErrBuiltinArity, "%s() requires %d argument(s), got %d", b.Name, b.Arity, len(args))
	}
	return b.impl(ip, at, args)
}

// ---- I/O built-ins -----------------------------------------------------

var builtins = map[string]builtin{
	"print": {Name: "print", Arity: -1, impl: builtinPrint,
		Doc: "print(args...): write each value followed by a space"},
	"println": {Name: "println", Arity: -1, impl: builtinPrintln,
		Doc: "println(args...): like print, then a newline"},
	"printch": {Name: "printch", Arity: -1, impl: builtinPrintch,
		Doc: "printch(codes...): write each value as a character, then a newline"},
	"input": {Name: "input", Arity: 0, impl: builtinInput,
		Doc: "input(): read one number; end the calling statement with ';' when data follows on stdin"},
	"inputch": {Name: "inputch", Arity: 0, impl: builtinInputch,
		Doc: "inputch(): read one character and return its code, -1 at end of input"},
}

// IsBuiltin reports whether name is reserved by a built-in function.
func IsBuiltin(name string) bool {
	_, ok := builtins[name]
	return ok
}

// BuiltinDocs returns one usage line per built-in, sorted by name.
func BuiltinDocs() []string {
	out := make([]string, 0, len(builtins))
	for _, b := range builtins {
		out = append(out, b.Doc)
	}
	sort.Strings(out)
	return out
}

func (ip *Interpreter) writeValues(args []Value, nl bool) {
	var b strings.Builder
	for _, v := range args {
		b.WriteString(ip.Format(v))
		b.WriteByte(' ')
	}
	if nl {
		b.WriteByte('\n')
	}
	_, _ = io.WriteString(ip.out, b.String())
}

func builtinPrint(ip *Interpreter, _ Node, args []Value) (Value, error) {
	ip.writeValues(args, false)
	return 0, nil
}

func builtinPrintln(ip *Interpreter, _ Node, args []Value) (Value, error) {
	ip.writeValues(args, true)
	return 0, nil
}

func builtinPrintch(ip *Interpreter, _ Node, args []Value) (Value, error) {
	var b strings.Builder
	for _, v := range args {
		b.WriteRune(rune(int64(v)))
	}
	b.WriteByte('\n')
	_, _ = io.WriteString(ip.out, b.String())
	return 0, nil
}

func builtinInput(ip *Interpreter, at Node, _ []Value) (Value, error) {
	var f float64
	if _, err := fmt.Fscan(ip.in, &f); err != nil {
		return 0, rtErr(at, fmt.Errorf("%w: %w", ErrInput, err), "input(): %v", err)
	}
	return Value(f), nil
}

func builtinInputch(ip *Interpreter, _ Node, _ []Value) (Value, error) {
	r, _, err := ip.in.ReadRune()
	if err != nil {
		return -1, nil
	}
	return Value(r), nil
}
