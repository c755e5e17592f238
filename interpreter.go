// interpreter.go: public API surface of the MicroSEL interpreter.
//
// OVERVIEW
// ========
// An Interpreter owns all mutable program state:
//   • a flat value Stack shared by every active scope,
//   • a SymbolTable mapping names to stack addresses (newest entry wins),
//   • the registry of named functions,
//   • the operator precedence table its parsers consult.
//
// Independent interpreters share nothing, so tests and embedders can run
// several side by side.
//
// SCOPING
// -------
// if/for/while bodies, blocks and function calls checkpoint the stack and
// symbol-table lengths on entry and truncate back to them on every exit path.
// There are no scope objects. The one exception is the reserved AnonName
// function that wraps each top-level expression: its scope is kept, which is
// how `x = 5` at the top level stays visible to the next statement.
//
// CONTROL FLOW & ERRORS
// ---------------------
// Evaluation yields a Result: a Value plus a Signal. `break e` and `return e`
// produce SigBreak/SigReturn results that unwind through blocks until a loop
// (break) or a function call (return) turns them back into plain values. A
// break or return that reaches a function boundary is absorbed there.
//
// Runtime failures are Go errors of type *RuntimeError wrapping one of the
// Err* sentinels. They abort the whole top-level statement; stack writes
// already performed are not rolled back.
//
// ENTRY POINTS
// ------------
//   • EvalSource: parse and run a whole program, stop at the first error.
//   • Run: the top-level driver loop over any io.RuneReader, reporting each
//     unit and recovering from parse errors by skipping one token.
//   • Exec / EvalNode / Call: finer-grained hooks for embedders and tests.
package microsel

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"fortio.org/log"
)

// Interpreter evaluates MicroSEL programs.
type Interpreter struct {
	stack Stack
	syms  SymbolTable
	funcs map[string]*Function
	ops   *OpTable
	cfg   *Config

	out   io.Writer
	in    *bufio.Reader
	depth int
}

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithOutput sets where print/println/printch write. Default os.Stdout.
func WithOutput(w io.Writer) Option { return func(ip *Interpreter) { ip.out = w } }

// WithInput sets where input/inputch read. Default os.Stdin.
func WithInput(r io.Reader) Option {
	return func(ip *Interpreter) {
		if br, ok := r.(*bufio.Reader); ok {
			ip.in = br
			return
		}
		ip.in = bufio.NewReader(r)
	}
}

// WithConfig applies resource limits, number format and extra operators.
func WithConfig(cfg *Config) Option { return func(ip *Interpreter) { ip.cfg = cfg } }

// WithOperatorTable makes the interpreter share t instead of a fresh table.
func WithOperatorTable(t *OpTable) Option { return func(ip *Interpreter) { ip.ops = t } }

// NewInterpreter returns an interpreter with empty memory and no functions.
func NewInterpreter(opts ...Option) *Interpreter {
	ip := &Interpreter{funcs: map[string]*Function{}}
	for _, opt := range opts {
		opt(ip)
	}
	if ip.cfg == nil {
		ip.cfg = DefaultConfig()
	}
	if ip.ops == nil {
		ip.ops = NewOpTable()
	}
	if ip.out == nil {
		ip.out = os.Stdout
	}
	if ip.in == nil {
		ip.in = bufio.NewReader(os.Stdin)
	}
	if err := ip.cfg.InstallOperators(ip.ops); err != nil {
		log.Errf("config operators: %v", err)
	}
	return ip
}

// Ops returns the operator table used by parsers created for this
// interpreter.
func (ip *Interpreter) Ops() *OpTable { return ip.ops }

// Config returns the active configuration.
func (ip *Interpreter) Config() *Config { return ip.cfg }

// Define registers fn, silently replacing any function of the same name.
func (ip *Interpreter) Define(fn *Function) {
	if _, ok := ip.funcs[fn.Proto.Name]; ok {
		log.LogVf("redefining function %s", fn.Proto.Name)
	}
	ip.funcs[fn.Proto.Name] = fn
}

// Function looks up a user-defined function.
func (ip *Interpreter) Function(name string) (*Function, bool) {
	fn, ok := ip.funcs[name]
	return fn, ok
}

// Call invokes a built-in or user function with already evaluated arguments.
func (ip *Interpreter) Call(name string, args ...Value) (Value, error) {
	return ip.callNamed(nil, name, args)
}

// EvalNode evaluates n in the current scope. The Result may carry a pending
// break or return.
func (ip *Interpreter) EvalNode(n Node) (Result, error) { return ip.eval(n) }

// Exec runs one top-level unit. Definitions are registered and report
// ok=false; expressions run inside the reserved anonymous function.
func (ip *Interpreter) Exec(u Unit) (v Value, ok bool, err error) {
	if u.Func != nil {
		ip.Define(u.Func)
		return 0, false, nil
	}
	if u.Expr == nil {
		return 0, false, nil
	}
	v, err = ip.invoke(Anonymous(u.Expr), nil, nil)
	return v, true, err
}

// EvalSource parses and runs src, returning the value of the last top-level
// expression. It stops at the first parse or runtime error, which comes back
// wrapped with a source snippet.
func (ip *Interpreter) EvalSource(src string) (Value, error) {
	p := NewParser(NewLexerString(src), ip.ops)
	var last Value
	for {
		u, err := p.ParseUnit()
		if err == io.EOF {
			return last, nil
		}
		if err != nil {
			return last, WrapErrorWithName(err, "<main>", src)
		}
		v, ok, err := ip.Exec(u)
		if err != nil {
			return last, WrapErrorWithName(err, "<main>", src)
		}
		if ok {
			last = v
		}
	}
}

// ReportKind tells what a Report describes.
type ReportKind int

const (
	ReportDefinition ReportKind = iota
	ReportValue
	ReportParseError
	ReportRuntimeError
)

// Report describes the outcome of one top-level unit processed by Run.
type Report struct {
	Kind  ReportKind
	Name  string // function name for ReportDefinition
	Value Value
	Err   error
}

// ReportFunc receives one Report per top-level unit. It may be nil.
type ReportFunc func(Report)

// ErrRunFailed is returned by Run when at least one unit failed.
var ErrRunFailed = errors.New("run failed")

// Run is the top-level driver: it parses and executes units from r one at a
// time until end of input. A parse error is reported and one token skipped
// before trying again; a runtime error is reported and the next unit runs.
// Run returns an error wrapping ErrRunFailed if anything failed.
func (ip *Interpreter) Run(name string, r io.RuneReader, report ReportFunc) error {
	if report == nil {
		report = func(Report) {}
	}
	p := NewParser(NewLexer(r), ip.ops)
	failures := 0
	for {
		u, err := p.ParseUnit()
		if err == io.EOF {
			break
		}
		if err != nil {
			failures++
			log.Errf("%s: %v", name, err)
			report(Report{Kind: ReportParseError, Err: err})
			p.Skip()
			continue
		}
		v, ok, err := ip.Exec(u)
		switch {
		case err != nil:
			failures++
			log.Warnf("%s: %v", name, err)
			report(Report{Kind: ReportRuntimeError, Err: err})
		case ok:
			report(Report{Kind: ReportValue, Value: v})
		default:
			report(Report{Kind: ReportDefinition, Name: u.Func.Proto.Name})
		}
	}
	log.Infof("%s: finished with %d failed unit(s)", name, failures)
	if failures > 0 {
		return fmt.Errorf("%s: %w: %d failed unit(s)", name, ErrRunFailed, failures)
	}
	return nil
}

// Reset clears memory, symbols and functions. The operator table is kept.
func (ip *Interpreter) Reset() {
	ip.stack.Truncate(0)
	ip.syms.Truncate(0)
	ip.funcs = map[string]*Function{}
	ip.depth = 0
}

// StackLen returns the number of live stack cells.
func (ip *Interpreter) StackLen() int { return ip.stack.Len() }

// SymbolCount returns the number of symbol-table entries.
func (ip *Interpreter) SymbolCount() int { return ip.syms.Len() }

// Lookup finds the most recent symbol named name.
func (ip *Interpreter) Lookup(name string) (Symbol, bool) { return ip.syms.Lookup(name) }

// Symbols returns the symbol table, oldest first.
func (ip *Interpreter) Symbols() []Symbol { return ip.syms.Symbols() }

// Load reads the stack cell at addr.
func (ip *Interpreter) Load(addr int) (Value, bool) {
	if !ip.stack.Valid(addr) {
		return 0, false
	}
	return ip.stack.Get(addr), true
}

// Format renders v in the configured number format.
func (ip *Interpreter) Format(v Value) string { return FormatValue(v, ip.cfg.NumberFormat) }
