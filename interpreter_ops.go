// interpreter_ops.go: PRIVATE: operators, variables and memory access.
//
// Name resolution scans the symbol table from the newest entry and takes the
// first symbol with a matching name; the symbol's kind is checked afterward.
// Array elements live at base + Σ idx[l]·Π dims[m>l] (row-major).
package microsel

import (
	"math"

	"fortio.org/log"
)

func boolValue(b bool) Value {
	if b {
		return 1
	}
	return 0
}

// reserve fails when n more cells would exceed the configured stack limit.
func (ip *Interpreter) reserve(at Node, n int) error {
	if limit := ip.cfg.MaxStack; limit > 0 && ip.stack.Len()+n > limit {
		return rtErr(at, ErrStackLimit, "stack limit of %d cells exceeded", limit)
	}
	return nil
}

// declare pushes a new scalar cell bound to name and returns its address.
func (ip *Interpreter) declare(at Node, name string, v Value) (int, error) {
	if err := ip.reserve(at, 1); err != nil {
		return 0, err
	}
	addr := ip.stack.Push(v)
	ip.syms.Add(Symbol{Name: name, Addr: addr})
	return addr, nil
}

func (ip *Interpreter) declareArray(n *ArrayDecl) (Value, error) {
	size := 1
	for _, d := range n.Dims {
		if d > math.MaxInt32/size {
			return 0, rtErr(n, ErrStackLimit, "array %q is too large", n.Name)
		}
		size *= d
	}
	if err := ip.reserve(n, size); err != nil {
		return 0, err
	}
	base := ip.stack.Grow(size)
	ip.syms.Add(Symbol{Name: n.Name, Addr: base, IsArray: true, Dims: append([]int(nil), n.Dims...)})
	log.LogVf("arr %s%v at %d (%d cells)", n.Name, n.Dims, base, size)
	return Value(size), nil
}

func (ip *Interpreter) load(n *Variable) (Value, error) {
	if len(n.Indices) > 0 {
		addr, err := ip.elementAddr(n)
		if err != nil {
			return 0, err
		}
		return ip.stack.Get(addr), nil
	}
	sym, ok := ip.syms.Lookup(n.Name)
	if !ok {
		return 0, rtErr(n, ErrUndeclared, "identifier %q not found", n.Name)
	}
	if sym.IsArray {
		return 0, rtErr(n, ErrIsArray, "array %q used without an index", n.Name)
	}
	return ip.stack.Get(sym.Addr), nil
}

// elementAddr resolves an indexed reference to its stack address.
func (ip *Interpreter) elementAddr(n *Variable) (int, error) {
	sym, ok := ip.syms.Lookup(n.Name)
	if !ok {
		return 0, rtErr(n, ErrUndeclared, "array %q not found", n.Name)
	}
	if !sym.IsArray {
		return 0, rtErr(n, ErrNotArray, "%q is not an array", n.Name)
	}

	idx := make([]Value, 0, len(n.Indices))
	for _, in := range n.Indices {
		v, err := ip.value(in)
		if err != nil {
			return 0, err
		}
		if !v.IsInteger() {
			return 0, rtErr(in, ErrIndex, "index must be an integer, got %v", v)
		}
		idx = append(idx, v)
	}
	if len(idx) != len(sym.Dims) {
		return 0, rtErr(n, ErrDimension, "%q has %d dimension(s), got %d index(es)", n.Name, len(sym.Dims), len(idx))
	}

	off := 0
	for l, v := range idx {
		d := sym.Dims[l]
		if v < 0 || v >= Value(d) {
			return 0, rtErr(n.Indices[l], ErrIndex, "index %v out of range [0, %d) in dimension %d of %q", v, d, l+1, n.Name)
		}
		off = off*d + int(v)
	}
	return sym.Addr + off, nil
}

// derefAddr evaluates the address operand of `@`.
func (ip *Interpreter) derefAddr(n *Deref) (int, error) {
	a, err := ip.value(n.Addr)
	if err != nil {
		return 0, err
	}
	if !a.IsUnsignedInteger() {
		return 0, rtErr(n, ErrAddress, "address must be an unsigned integer, got %v", a)
	}
	if a >= Value(ip.stack.Len()) {
		return 0, rtErr(n, ErrAddress, "address %v is outside the stack (%d cells)", a, ip.stack.Len())
	}
	return int(a), nil
}

func (ip *Interpreter) addressOf(n *Unary) (Value, error) {
	v, ok := n.Operand.(*Variable)
	if !ok {
		return 0, rtErr(n, ErrAddress, "operand of '&' must be a variable")
	}
	if len(v.Indices) > 0 {
		addr, err := ip.elementAddr(v)
		return Value(addr), err
	}
	sym, ok := ip.syms.Lookup(v.Name)
	if !ok {
		return 0, rtErr(v, ErrUndeclared, "variable %q not found", v.Name)
	}
	return Value(sym.Addr), nil
}

// assign evaluates the right side first, then stores it. An unknown scalar
// name is declared on the spot.
func (ip *Interpreter) assign(n *Binary) (Value, error) {
	v, err := ip.value(n.RHS)
	if err != nil {
		return 0, err
	}
	switch lhs := n.LHS.(type) {
	case *Deref:
		addr, err := ip.derefAddr(lhs)
		if err != nil {
			return 0, err
		}
		ip.stack.Set(addr, v)
	case *Variable:
		if len(lhs.Indices) > 0 {
			addr, err := ip.elementAddr(lhs)
			if err != nil {
				return 0, err
			}
			ip.stack.Set(addr, v)
			break
		}
		sym, ok := ip.syms.Lookup(lhs.Name)
		switch {
		case !ok:
			if _, err := ip.declare(lhs, lhs.Name, v); err != nil {
				return 0, err
			}
		case sym.IsArray:
			return 0, rtErr(lhs, ErrIsArray, "cannot assign to array %q without an index", lhs.Name)
		default:
			ip.stack.Set(sym.Addr, v)
		}
	default:
		return 0, rtErr(n, ErrAssignTarget, "destination of '=' must be a variable, array element or dereference")
	}
	return v, nil
}

func (ip *Interpreter) unary(n *Unary) (Value, error) {
	if n.Op == '&' {
		return ip.addressOf(n)
	}
	v, err := ip.value(n.Operand)
	if err != nil {
		return 0, err
	}
	switch n.Op {
	case '!':
		return boolValue(v == 0), nil
	case '+':
		return v, nil
	case '-':
		return -v, nil
	}
	fn, ok := ip.funcs["unary"+string(n.Op)]
	if !ok {
		return 0, rtErr(n, ErrUnknownOperator, "unknown unary operator '%c'", n.Op)
	}
	return ip.invoke(fn, []Value{v}, n)
}

// binary evaluates both operands unconditionally; && and || do not
// short-circuit.
func (ip *Interpreter) binary(n *Binary) (Value, error) {
	if n.Op == "=" {
		return ip.assign(n)
	}
	l, err := ip.value(n.LHS)
	if err != nil {
		return 0, err
	}
	r, err := ip.value(n.RHS)
	if err != nil {
		return 0, err
	}
	switch n.Op {
	case "+":
		return l + r, nil
	case "-":
		return l - r, nil
	case "*":
		return l * r, nil
	case "/":
		return l / r, nil
	case "%":
		return Value(math.Mod(float64(l), float64(r))), nil
	case "**":
		return Value(math.Pow(float64(l), float64(r))), nil
	case "<":
		return boolValue(l < r), nil
	case ">":
		return boolValue(l > r), nil
	case "<=":
		return boolValue(l <= r), nil
	case ">=":
		return boolValue(l >= r), nil
	case "==":
		return boolValue(l == r), nil
	case "!=":
		return boolValue(l != r), nil
	case "&&":
		return boolValue(l != 0 && r != 0), nil
	case "||":
		return boolValue(l != 0 || r != 0), nil
	}
	fn, ok := ip.funcs["binary"+n.Op]
	if !ok {
		return 0, rtErr(n, ErrUnknownOperator, "unknown binary operator %q", n.Op)
	}
	return ip.invoke(fn, []Value{l, r}, n)
}
