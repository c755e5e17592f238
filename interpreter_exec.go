// interpreter_exec.go: PRIVATE: tree-walking evaluation and the call engine.
//   - eval dispatches over the closed Node set.
//   - Control constructs checkpoint the stack and symbol table on entry and
//     restore them with defer, so every exit path (value, break, return,
//     error) tears the scope down.
//   - Operand positions go through value(), which turns a break/return raised
//     inside an operand into an *unwind error; eval turns it back into a
//     Result at the node boundary via settle.
//
// Public API is in interpreter.go. Operators, variables and memory access are
// in interpreter_ops.go.
package microsel

import (
	"errors"
	"fmt"

	"fortio.org/log"
)

// unwind carries a pending break or return out of value-level helpers.
type unwind struct{ r Result }

func (u *unwind) Error() string { return "unhandled " + u.r.Signal.String() }

func settle(v Value, err error) (Result, error) {
	var u *unwind
	if errors.As(err, &u) {
		return u.r, nil
	}
	return normal(v), err
}

// value evaluates n where a plain number is needed.
func (ip *Interpreter) value(n Node) (Value, error) {
	r, err := ip.eval(n)
	if err != nil {
		return 0, err
	}
	if r.Unwinding() {
		return 0, &unwind{r}
	}
	return r.Value, nil
}

func (ip *Interpreter) mark() scope { return scope{stack: ip.stack.Len(), syms: ip.syms.Len()} }

func (ip *Interpreter) restore(s scope) {
	ip.syms.Truncate(s.syms)
	ip.stack.Truncate(s.stack)
}

func (ip *Interpreter) eval(n Node) (Result, error) {
	switch n := n.(type) {
	case *Number:
		return normal(n.Val), nil
	case *Variable:
		return settle(ip.load(n))
	case *Deref:
		addr, err := ip.derefAddr(n)
		if err != nil {
			return settle(0, err)
		}
		return normal(ip.stack.Get(addr)), nil
	case *ArrayDecl:
		return settle(ip.declareArray(n))
	case *Unary:
		return settle(ip.unary(n))
	case *Binary:
		return settle(ip.binary(n))
	case *Call:
		return settle(ip.evalCall(n))
	case *If:
		return ip.evalIf(n)
	case *For:
		return ip.evalFor(n)
	case *While:
		return ip.evalWhile(n)
	case *Block:
		return ip.evalBlock(n)
	case *Break:
		return ip.signal(n.Expr, SigBreak)
	case *Return:
		return ip.signal(n.Expr, SigReturn)
	case nil:
		return normal(0), nil
	default:
		return Result{}, fmt.Errorf("microsel: unknown node type %T", n)
	}
}

func (ip *Interpreter) signal(expr Node, sig Signal) (Result, error) {
	v, err := ip.value(expr)
	if err != nil {
		return settle(0, err)
	}
	return Result{Value: v, Signal: sig}, nil
}

func (ip *Interpreter) evalBlock(n *Block) (Result, error) {
	defer ip.restore(ip.mark())
	last := normal(0)
	for _, s := range n.Stmts {
		r, err := ip.eval(s)
		if err != nil {
			return r, err
		}
		last = r
		if r.Unwinding() {
			break
		}
	}
	return last, nil
}

func (ip *Interpreter) evalIf(n *If) (Result, error) {
	cond, err := ip.value(n.Cond)
	if err != nil {
		return settle(0, err)
	}
	defer ip.restore(ip.mark())
	if cond.Truthy() {
		log.LogVf("if: condition %v true, taking then branch", cond)
		return ip.eval(n.Then)
	}
	if n.Else != nil {
		log.LogVf("if: condition %v false, taking else branch", cond)
		return ip.eval(n.Else)
	}
	return normal(0), nil
}

func (ip *Interpreter) evalFor(n *For) (Result, error) {
	start, err := ip.value(n.Start)
	if err != nil {
		return settle(0, err)
	}
	defer ip.restore(ip.mark())

	// An enclosing scalar of the same name is reused in place.
	var addr int
	if sym, ok := ip.syms.Lookup(n.Var); ok && !sym.IsArray {
		addr = sym.Addr
		ip.stack.Set(addr, start)
	} else if addr, err = ip.declare(n, n.Var, start); err != nil {
		return Result{}, err
	}

	step := Value(1)
	if n.Step != nil {
		if step, err = ip.value(n.Step); err != nil {
			return settle(0, err)
		}
	}
	log.LogVf("for %s = %v, step %v", n.Var, start, step)

	var last Value
	for {
		cond, err := ip.value(n.End)
		if err != nil {
			return settle(0, err)
		}
		if !cond.Truthy() {
			return normal(last), nil
		}
		body, err := ip.eval(n.Body)
		if err != nil {
			return body, err
		}
		switch body.Signal {
		case SigBreak:
			return normal(body.Value), nil
		case SigReturn:
			return body, nil
		}
		last = body.Value
		ip.stack.Set(addr, ip.stack.Get(addr)+step)
	}
}

func (ip *Interpreter) evalWhile(n *While) (Result, error) {
	defer ip.restore(ip.mark())
	var last Value
	for {
		cond, err := ip.value(n.Cond)
		if err != nil {
			return settle(0, err)
		}
		if !cond.Truthy() {
			return normal(last), nil
		}
		body, err := ip.eval(n.Body)
		if err != nil {
			return body, err
		}
		switch body.Signal {
		case SigBreak:
			return normal(body.Value), nil
		case SigReturn:
			return body, nil
		}
		last = body.Value
	}
}

func (ip *Interpreter) evalCall(n *Call) (Value, error) {
	args := make([]Value, 0, len(n.Args))
	for _, a := range n.Args {
		v, err := ip.value(a)
		if err != nil {
			return 0, err
		}
		args = append(args, v)
	}
	return ip.callNamed(n, n.Name, args)
}

// callNamed dispatches to a built-in first, then to user functions.
func (ip *Interpreter) callNamed(at Node, name string, args []Value) (Value, error) {
	if b, ok := builtins[name]; ok {
		return b.call(ip, at, args)
	}
	fn, ok := ip.funcs[name]
	if !ok {
		return 0, rtErr(at, ErrUnknownFunction, "unknown function %q", name)
	}
	if len(args) != len(fn.Proto.Params) {
		return 0, rtErr(at, ErrArity, "%s expects %d argument(s), got %d", name, len(fn.Proto.Params), len(args))
	}
	return ip.invoke(fn, args, at)
}

// invoke binds args to fresh parameter cells and evaluates the body. A break
// or return reaching the boundary becomes the call's plain value.
func (ip *Interpreter) invoke(fn *Function, args []Value, at Node) (Value, error) {
	name := fn.Proto.Name
	if limit := ip.cfg.MaxCallDepth; limit > 0 && ip.depth >= limit {
		return 0, rtErr(at, ErrCallDepth, "call depth limit %d exceeded calling %s", limit, name)
	}
	ip.depth++
	defer func() { ip.depth-- }()

	if name != AnonName {
		defer ip.restore(ip.mark())
		log.LogVf("call %s%v", name, args)
	}
	for i, param := range fn.Proto.Params {
		if _, err := ip.declare(at, param, args[i]); err != nil {
			return 0, err
		}
	}
	r, err := ip.eval(fn.Body)
	if err != nil {
		return 0, err
	}
	if r.Signal == SigBreak && name != AnonName {
		log.Warnf("break escaped function %s, using %v as its result", name, r.Value)
	}
	return r.Value, nil
}
