package microsel

import (
	"strconv"
	"strings"
)

/* ---------- small writer with indentation ---------- */

const indentUnit = "    "

type out struct {
	b     strings.Builder
	depth int
}

func (o *out) write(s string) { o.b.WriteString(s) }
func (o *out) nl()            { o.b.WriteByte('\n') }
func (o *out) pad()           { o.b.WriteString(strings.Repeat(indentUnit, o.depth)) }

/* ---------- public entry points ---------- */

// Pretty parses src and returns its canonical form. Operators defined in src
// are registered into a fresh table, so src must be self-contained.
func Pretty(src string) (string, error) { return PrettyWithOps(src, NewOpTable()) }

// PrettyWithOps is Pretty with a caller-supplied operator table.
func PrettyWithOps(src string, ops *OpTable) (string, error) {
	units, err := ParseProgram(src, ops)
	if err != nil {
		return "", WrapErrorWithSource(err, src)
	}
	return FormatProgram(units), nil
}

// FormatProgram renders units one per line, each terminated by ';'.
func FormatProgram(units []Unit) string {
	var b strings.Builder
	for _, u := range units {
		b.WriteString(FormatUnit(u))
		b.WriteByte('\n')
	}
	return b.String()
}

// FormatUnit renders one top-level unit, ';' included.
func FormatUnit(u Unit) string {
	p := &pp{}
	switch {
	case u.Func != nil:
		p.printFunction(u.Func)
	case u.Expr != nil:
		p.printExpr(u.Expr)
	}
	p.out.write(";")
	return p.out.b.String()
}

// FormatNode renders a single expression.
func FormatNode(n Node) string {
	p := &pp{}
	p.printExpr(n)
	return p.out.b.String()
}

// FormatFunction renders a definition without the trailing ';'.
func FormatFunction(fn *Function) string {
	p := &pp{}
	p.printFunction(fn)
	return p.out.b.String()
}

/* ---------- printer ---------- */

type pp struct{ out out }

func (p *pp) write(s string) { p.out.write(s) }

func (p *pp) printFunction(fn *Function) {
	proto := fn.Proto
	p.write("func ")
	switch proto.Kind {
	case FuncBinary:
		p.write("binary " + proto.Op + " " + strconv.Itoa(proto.Precedence) + " ")
	case FuncUnary:
		p.write("unary " + proto.Op + " ")
	default:
		p.write(proto.Name)
	}
	p.write("(" + strings.Join(proto.Params, ", ") + ") ")
	p.printExpr(fn.Body)
}

func (p *pp) printBlock(b *Block) {
	if len(b.Stmts) == 0 {
		p.write("{}")
		return
	}
	p.write("{")
	p.out.nl()
	p.out.depth++
	for _, s := range b.Stmts {
		p.out.pad()
		p.printExpr(s)
		p.write(";")
		p.out.nl()
	}
	p.out.depth--
	p.out.pad()
	p.write("}")
}

func (p *pp) printExpr(n Node) {
	switch n := n.(type) {
	case *Number:
		p.write(strconv.FormatFloat(float64(n.Val), 'f', -1, 64))
	case *Variable:
		p.write(n.Name)
		for _, idx := range n.Indices {
			p.write("[")
			p.printExpr(idx)
			p.write("]")
		}
	case *Deref:
		p.write("@")
		p.printOperand(n.Addr, derefAtomic)
	case *ArrayDecl:
		p.write("arr " + n.Name)
		for _, d := range n.Dims {
			p.write("[" + strconv.Itoa(d) + "]")
		}
	case *Unary:
		p.write(string(n.Op))
		p.printOperand(n.Operand, atomic)
	case *Binary:
		p.printOperand(n.LHS, atomic)
		p.write(" " + n.Op + " ")
		p.printOperand(n.RHS, atomic)
	case *Call:
		p.write(n.Name + "(")
		for i, a := range n.Args {
			if i > 0 {
				p.write(", ")
			}
			p.printExpr(a)
		}
		p.write(")")
	case *If:
		p.write("if ")
		p.printExpr(n.Cond)
		p.write(" then ")
		if n.Else != nil && openIf(n.Then) {
			p.paren(n.Then)
		} else {
			p.printExpr(n.Then)
		}
		if n.Else != nil {
			p.write(" else ")
			p.printExpr(n.Else)
		}
	case *For:
		p.write("for " + n.Var + " = ")
		p.printExpr(n.Start)
		p.write(", ")
		if n.Step == nil {
			p.printHeadTail(n.End, n.Body)
			return
		}
		p.printExpr(n.End)
		p.write(", ")
		p.printHeadTail(n.Step, n.Body)
	case *While:
		p.write("while ")
		p.printHeadTail(n.Cond, n.Body)
	case *Block:
		p.printBlock(n)
	case *Break:
		p.write("break ")
		p.printExpr(n.Expr)
	case *Return:
		p.write("return ")
		p.printExpr(n.Expr)
	}
}

// printHeadTail prints the last loop-header expression and the body. A body
// that is not a block follows an expression directly, so the header is
// parenthesized and a body starting with an operator is too.
func (p *pp) printHeadTail(head, body Node) {
	if b, ok := body.(*Block); ok {
		p.printExpr(head)
		p.write(" ")
		p.printBlock(b)
		return
	}
	p.paren(head)
	p.write(" ")
	if s := FormatNode(body); s != "" && IsOpChar(rune(s[0])) {
		p.paren(body)
		return
	}
	p.printExpr(body)
}

func (p *pp) paren(n Node) {
	p.write("(")
	p.printExpr(n)
	p.write(")")
}

func (p *pp) printOperand(n Node, ok func(Node) bool) {
	if ok(n) {
		p.printExpr(n)
		return
	}
	p.paren(n)
}

// atomic nodes print as a single operand with no trailing construct that
// could absorb a following operator.
func atomic(n Node) bool {
	switch n := n.(type) {
	case *Number, *Variable, *Call:
		return true
	case *Deref:
		return true
	case *Unary:
		return atomic(n.Operand)
	}
	return false
}

// derefAtomic nodes parse as a primary after '@'.
func derefAtomic(n Node) bool {
	switch n.(type) {
	case *Number, *Variable, *Call, *Deref:
		return true
	}
	return false
}

// openIf reports whether n prints ending in an if without else, which would
// capture a following 'else'.
func openIf(n Node) bool {
	switch n := n.(type) {
	case *If:
		if n.Else == nil {
			return true
		}
		return openIf(n.Else)
	case *For:
		if _, ok := n.Body.(*Block); ok {
			return false
		}
		return openIf(n.Body)
	case *While:
		if _, ok := n.Body.(*Block); ok {
			return false
		}
		return openIf(n.Body)
	case *Break:
		return openIf(n.Expr)
	case *Return:
		return openIf(n.Expr)
	}
	return false
}
