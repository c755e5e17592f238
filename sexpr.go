// sexpr.go: tagged-list view of the AST.
//
// Every node becomes a slice whose first element is a string tag:
//
//	("num", 1)  ("var", "a", idx...)  ("deref", addr)  ("arr", "a", 2, 3)
//	("unop", "-", x)  ("binop", "+", l, r)  ("call", "f", args...)
//	("if", cond, then, else|nil)  ("for", "i", start, end, step|nil, body)
//	("while", cond, body)  ("block", stmts...)  ("break", x)  ("return", x)
//
// Definitions are ("fun", name, ("params", p...), body) with operator
// functions carrying ("binary", op, prec) or ("unary", op) in place of name.
// The form marshals cleanly to JSON, which is what `msel ast` prints.
package microsel

type S = []any

func L(tag string, parts ...any) S { return append([]any{tag}, parts...) }

// ParseSExpr parses src with the built-in operator table and returns the
// program as ("program", units...).
func ParseSExpr(src string) (S, error) {
	units, err := ParseProgram(src, NewOpTable())
	if err != nil {
		return nil, WrapErrorWithSource(err, src)
	}
	return ProgramToS(units), nil
}

// ProgramToS converts parsed units.
func ProgramToS(units []Unit) S {
	parts := make([]any, len(units))
	for i, u := range units {
		parts[i] = UnitToS(u)
	}
	return L("program", parts...)
}

func UnitToS(u Unit) S {
	if u.Func == nil {
		return NodeToS(u.Expr)
	}
	proto := u.Func.Proto
	params := make([]any, len(proto.Params))
	for i, p := range proto.Params {
		params[i] = p
	}
	var head any = proto.Name
	switch proto.Kind {
	case FuncBinary:
		head = L("binary", proto.Op, proto.Precedence)
	case FuncUnary:
		head = L("unary", proto.Op)
	}
	return L("fun", head, L("params", params...), NodeToS(u.Func.Body))
}

// NodeToS converts one expression tree. A nil node yields nil.
func NodeToS(n Node) S {
	switch n := n.(type) {
	case *Number:
		return L("num", float64(n.Val))
	case *Variable:
		return L("var", append([]any{n.Name}, nodesToS(n.Indices)...)...)
	case *Deref:
		return L("deref", NodeToS(n.Addr))
	case *ArrayDecl:
		parts := []any{n.Name}
		for _, d := range n.Dims {
			parts = append(parts, d)
		}
		return L("arr", parts...)
	case *Unary:
		return L("unop", string(n.Op), NodeToS(n.Operand))
	case *Binary:
		return L("binop", n.Op, NodeToS(n.LHS), NodeToS(n.RHS))
	case *Call:
		return L("call", append([]any{n.Name}, nodesToS(n.Args)...)...)
	case *If:
		return L("if", NodeToS(n.Cond), NodeToS(n.Then), optS(n.Else))
	case *For:
		return L("for", n.Var, NodeToS(n.Start), NodeToS(n.End), optS(n.Step), NodeToS(n.Body))
	case *While:
		return L("while", NodeToS(n.Cond), NodeToS(n.Body))
	case *Block:
		return L("block", nodesToS(n.Stmts)...)
	case *Break:
		return L("break", NodeToS(n.Expr))
	case *Return:
		return L("return", NodeToS(n.Expr))
	}
	return nil
}

func nodesToS(ns []Node) []any {
	out := make([]any, len(ns))
	for i, n := range ns {
		out[i] = NodeToS(n)
	}
	return out
}

// optS keeps an absent child as a JSON null rather than an empty list.
func optS(n Node) any {
	if n == nil {
		return nil
	}
	return NodeToS(n)
}
