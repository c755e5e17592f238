// parser.go: recursive-descent parser with precedence climbing.
//
// The parser pulls one token at a time from a Lexer and never buffers more
// than the current token. Binary operators are not tokens of their own: an
// operator is one TokChar, or two when the lexer's raw lookahead character
// (Lexer.LastChar) completes a spelling registered in the OpTable. Defining
// `func binary OP [prec] (a, b)` registers OP as soon as its prototype has
// been parsed, so later input can use it.
//
// Grammar:
//
//	program    := (definition | ';' | blockexpr)* EOF
//	definition := 'func' prototype blockexpr
//	prototype  := ident '(' params ')'
//	            | 'binary' OP number? '(' ident ',' ident ')'
//	            | 'unary' OP '(' ident ')'
//	blockexpr  := expression | '{' (blockexpr ';'*)* '}'
//	expression := 'arr' ident ('[' number ']')+
//	            | 'break' expression | 'return' expression
//	            | unary binoprhs
//	unary      := OPCHAR unary | primary
//	primary    := ident | ident ('[' expression ']')+ | ident '(' args ')'
//	            | '@' primary | number | '(' expression ')'
//	            | 'if' expression 'then' blockexpr ('else' blockexpr)?
//	            | 'for' ident '=' expression ',' expression (',' expression)? blockexpr
//	            | 'while' expression blockexpr
package microsel

import (
	"fmt"
	"io"
	"math"

	"fortio.org/log"
)

// Parser turns a token stream into top-level units.
type Parser struct {
	lex         *Lexer
	ops         *OpTable
	tok         Token
	primed      bool
	interactive bool
}

// NewParser creates a parser reading from lex. Operator definitions are
// registered into ops.
func NewParser(lex *Lexer, ops *OpTable) *Parser {
	return &Parser{lex: lex, ops: ops}
}

// NewInteractiveParser is like NewParser, but failures caused by running out
// of input are reported as DiagIncomplete.
func NewInteractiveParser(lex *Lexer, ops *OpTable) *Parser {
	p := NewParser(lex, ops)
	p.interactive = true
	return p
}

// Ops returns the operator table the parser consults.
func (p *Parser) Ops() *OpTable { return p.ops }

// ParseUnit parses the next definition or top-level expression. Stray ';'
// separators are skipped. It returns io.EOF once the input is exhausted.
func (p *Parser) ParseUnit() (Unit, error) {
	p.prime()
	for p.tok.Is(';') {
		p.next()
	}
	switch p.tok.Kind {
	case TokEOF:
		return Unit{}, io.EOF
	case TokFunc:
		fn, err := p.definition()
		if err != nil {
			return Unit{}, err
		}
		return Unit{Func: fn}, nil
	default:
		e, err := p.blockExpr()
		if err != nil {
			return Unit{}, err
		}
		return Unit{Expr: e}, nil
	}
}

// Skip discards the current token. Drivers call it after a failed
// ParseUnit to make progress.
func (p *Parser) Skip() {
	p.prime()
	if p.tok.Kind != TokEOF {
		p.next()
	}
}

// ParseProgram parses all of src, registering operator definitions into ops.
// It stops at the first error.
func ParseProgram(src string, ops *OpTable) ([]Unit, error) {
	return parseAll(NewParser(NewLexerString(src), ops))
}

// ParseInteractive is ParseProgram in REPL mode: input that ends inside a
// construct yields an *Error with Kind DiagIncomplete.
func ParseInteractive(src string, ops *OpTable) ([]Unit, error) {
	return parseAll(NewInteractiveParser(NewLexerString(src), ops))
}

func parseAll(p *Parser) ([]Unit, error) {
	var units []Unit
	for {
		u, err := p.ParseUnit()
		if err == io.EOF {
			return units, nil
		}
		if err != nil {
			return units, err
		}
		units = append(units, u)
	}
}

// ─────────────────────────── token basics ───────────────────────────

func (p *Parser) prime() {
	if !p.primed {
		p.primed = true
		p.tok = p.lex.Next()
	}
}

func (p *Parser) next() { p.tok = p.lex.Next() }

func (p *Parser) pos() Pos { return Pos{Line: p.tok.Line, Col: p.tok.Col} }

func (p *Parser) errorf(format string, args ...any) *Error {
	kind := DiagParse
	if p.interactive && p.tok.Kind == TokEOF {
		kind = DiagIncomplete
	}
	return &Error{Kind: kind, Line: p.tok.Line, Col: p.tok.Col, Msg: fmt.Sprintf(format, args...)}
}

func (p *Parser) expect(c rune) error {
	if !p.tok.Is(c) {
		return p.errorf("expected '%c', found %s", c, p.tok)
	}
	p.next()
	return nil
}

// peekOp returns the operator spelled at the current token without consuming
// it, and how many tokens it spans.
func (p *Parser) peekOp() (string, int) {
	if p.tok.Kind != TokChar {
		return "", 0
	}
	one := string(p.tok.Char)
	if IsOpChar(p.tok.Char) {
		if la := p.lex.LastChar(); IsOpChar(la) {
			if two := one + string(la); p.ops.Has(two) {
				return two, 2
			}
		}
	}
	return one, 1
}

func (p *Parser) consume(n int) {
	for i := 0; i < n; i++ {
		p.next()
	}
}

// ─────────────────────────── definitions ───────────────────────────

func (p *Parser) definition() (*Function, error) {
	p.next() // func
	proto, err := p.prototype()
	if err != nil {
		return nil, err
	}
	body, err := p.blockExpr()
	if err != nil {
		return nil, err
	}
	return &Function{Proto: proto, Body: body}, nil
}

func (p *Parser) prototype() (*Prototype, error) {
	if p.tok.Kind != TokIdent {
		return nil, p.errorf("expected function name in prototype")
	}
	proto := &Prototype{Pos: p.pos(), Name: p.tok.Text}
	p.next()

	if (proto.Name == "unary" || proto.Name == "binary") && p.tok.Kind == TokChar && IsOpChar(p.tok.Char) {
		op := string(p.tok.Char)
		if proto.Name == "binary" {
			proto.Kind = FuncBinary
			proto.Precedence = DefaultPrecedence
			if la := p.lex.LastChar(); IsOpChar(la) {
				op += string(la)
				p.next()
			}
		} else {
			proto.Kind = FuncUnary
		}
		p.next()
		proto.Op = op
		proto.Name += op

		if proto.Kind == FuncBinary && p.tok.Kind == TokNumber {
			v := Value(p.tok.Num)
			if !v.IsInteger() || v < MinPrecedence || v > MaxPrecedence {
				return nil, p.errorf("invalid precedence: must be an integer %d~%d", MinPrecedence, MaxPrecedence)
			}
			proto.Precedence = int(v)
			p.next()
		}
	}

	if p.tok.Kind != TokParenOpen {
		return nil, p.errorf("expected '(' in prototype")
	}
	p.next()
	for p.tok.Kind != TokParenClose {
		if p.tok.Kind != TokIdent {
			return nil, p.errorf("expected parameter name, found %s", p.tok)
		}
		proto.Params = append(proto.Params, p.tok.Text)
		p.next()
		if p.tok.Kind == TokParenClose {
			break
		}
		if err := p.expect(','); err != nil {
			return nil, p.errorf("expected ',' or ')' in parameter list")
		}
	}
	p.next() // )

	if want := int(proto.Kind); proto.Kind != FuncPlain && len(proto.Params) != want {
		return nil, &Error{Kind: DiagParse, Line: proto.Line, Col: proto.Col,
			Msg: fmt.Sprintf("invalid number of operands for operator %s: want %d, got %d", proto.Op, want, len(proto.Params))}
	}
	if proto.Kind == FuncBinary {
		if err := p.ops.Register(proto.Op, proto.Precedence); err != nil {
			return nil, &Error{Kind: DiagParse, Line: proto.Line, Col: proto.Col, Msg: err.Error()}
		}
		log.Debugf("registered binary operator %q with precedence %d", proto.Op, proto.Precedence)
	}
	return proto, nil
}

// ─────────────────────────── expressions ───────────────────────────

func (p *Parser) blockExpr() (Node, error) {
	if p.tok.Kind != TokBlockOpen {
		return p.expression()
	}
	b := &Block{Pos: p.pos()}
	p.next()
	for {
		for p.tok.Is(';') {
			p.next()
		}
		if p.tok.Kind == TokBlockClose {
			p.next()
			return b, nil
		}
		if p.tok.Kind == TokEOF {
			return nil, p.errorf("expected '}'")
		}
		s, err := p.blockExpr()
		if err != nil {
			return nil, err
		}
		b.Stmts = append(b.Stmts, s)
	}
}

func (p *Parser) expression() (Node, error) {
	switch p.tok.Kind {
	case TokArr:
		return p.arrayDecl()
	case TokBreak:
		pos := p.pos()
		p.next()
		e, err := p.expression()
		if err != nil {
			return nil, err
		}
		return &Break{Pos: pos, Expr: e}, nil
	case TokReturn:
		pos := p.pos()
		p.next()
		e, err := p.expression()
		if err != nil {
			return nil, err
		}
		return &Return{Pos: pos, Expr: e}, nil
	}
	lhs, err := p.unary()
	if err != nil {
		return nil, err
	}
	return p.binopRHS(0, lhs)
}

// binopRHS folds operators binding tighter than minPrec onto lhs. After each
// right operand it peeks at the following operator: a tighter one, or an
// equal right-associative one, claims the operand first.
func (p *Parser) binopRHS(minPrec int, lhs Node) (Node, error) {
	for {
		op, width := p.peekOp()
		prec := p.ops.Precedence(op)
		if prec <= minPrec {
			return lhs, nil
		}
		pos := p.pos()
		p.consume(width)

		rhs, err := p.unary()
		if err != nil {
			return nil, err
		}

		next, _ := p.peekOp()
		nextPrec := p.ops.Precedence(next)
		right := p.ops.RightAssoc(op)
		if nextPrec > prec || (right && nextPrec == prec) {
			sub := prec
			if right {
				sub = prec - 1
			}
			if rhs, err = p.binopRHS(sub, rhs); err != nil {
				return nil, err
			}
		}
		lhs = &Binary{Pos: pos, Op: op, LHS: lhs, RHS: rhs}
	}
}

func (p *Parser) unary() (Node, error) {
	if p.tok.Kind != TokChar || !IsOpChar(p.tok.Char) {
		return p.primary()
	}
	u := &Unary{Pos: p.pos(), Op: p.tok.Char}
	p.next()
	operand, err := p.unary()
	if err != nil {
		return nil, err
	}
	u.Operand = operand
	return u, nil
}

func (p *Parser) primary() (Node, error) {
	switch p.tok.Kind {
	case TokIdent:
		return p.identExpr()
	case TokNumber:
		if math.IsInf(p.tok.Num, 0) {
			return nil, p.errorf("number literal %s out of range", p.tok.Text)
		}
		n := &Number{Pos: p.pos(), Val: Value(p.tok.Num)}
		p.next()
		return n, nil
	case TokParenOpen:
		p.next()
		e, err := p.expression()
		if err != nil {
			return nil, err
		}
		if p.tok.Kind != TokParenClose {
			return nil, p.errorf("expected ')'")
		}
		p.next()
		return e, nil
	case TokIf:
		return p.ifExpr()
	case TokFor:
		return p.forExpr()
	case TokWhile:
		return p.whileExpr()
	case TokChar:
		if p.tok.Char == '@' {
			d := &Deref{Pos: p.pos()}
			p.next()
			addr, err := p.primary()
			if err != nil {
				return nil, err
			}
			d.Addr = addr
			return d, nil
		}
	}
	return nil, p.errorf("unexpected %s when expecting an expression", p.tok)
}

func (p *Parser) identExpr() (Node, error) {
	pos, name := p.pos(), p.tok.Text
	p.next()

	switch {
	case p.tok.Kind == TokParenOpen:
		call := &Call{Pos: pos, Name: name}
		p.next()
		for p.tok.Kind != TokParenClose {
			arg, err := p.expression()
			if err != nil {
				return nil, err
			}
			call.Args = append(call.Args, arg)
			if p.tok.Kind == TokParenClose {
				break
			}
			if !p.tok.Is(',') {
				return nil, p.errorf("expected ')' or ',' in argument list")
			}
			p.next()
		}
		p.next() // )
		return call, nil

	case p.tok.Is('['):
		v := &Variable{Pos: pos, Name: name}
		for p.tok.Is('[') {
			p.next()
			if p.tok.Is(']') {
				return nil, p.errorf("array index missing")
			}
			idx, err := p.expression()
			if err != nil {
				return nil, err
			}
			if err := p.expect(']'); err != nil {
				return nil, err
			}
			v.Indices = append(v.Indices, idx)
		}
		return v, nil
	}
	return &Variable{Pos: pos, Name: name}, nil
}

func (p *Parser) arrayDecl() (Node, error) {
	d := &ArrayDecl{Pos: p.pos()}
	p.next() // arr
	if p.tok.Kind != TokIdent {
		return nil, p.errorf("expected array name after 'arr'")
	}
	d.Name = p.tok.Text
	p.next()
	if !p.tok.Is('[') {
		return nil, p.errorf("expected '[' after array name")
	}
	for p.tok.Is('[') {
		p.next()
		if p.tok.Is(']') {
			return nil, p.errorf("array dimension missing")
		}
		n := Value(p.tok.Num)
		if p.tok.Kind != TokNumber || !n.IsInteger() || n < 1 {
			return nil, p.errorf("length of each dimension must be an integer 1 or higher")
		}
		if n > math.MaxInt32 {
			return nil, p.errorf("array dimension %s too large", p.tok.Text)
		}
		d.Dims = append(d.Dims, int(n))
		p.next()
		if err := p.expect(']'); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func (p *Parser) ifExpr() (Node, error) {
	n := &If{Pos: p.pos()}
	p.next() // if
	var err error
	if n.Cond, err = p.expression(); err != nil {
		return nil, err
	}
	if p.tok.Kind != TokThen {
		return nil, p.errorf("expected 'then'")
	}
	p.next()
	if n.Then, err = p.blockExpr(); err != nil {
		return nil, err
	}
	if p.tok.Kind == TokElse {
		p.next()
		if n.Else, err = p.blockExpr(); err != nil {
			return nil, err
		}
	}
	return n, nil
}

func (p *Parser) forExpr() (Node, error) {
	n := &For{Pos: p.pos()}
	p.next() // for
	if p.tok.Kind != TokIdent {
		return nil, p.errorf("expected identifier after 'for'")
	}
	n.Var = p.tok.Text
	p.next()
	if !p.tok.Is('=') {
		return nil, p.errorf("expected '=' after identifier")
	}
	p.next()

	var err error
	if n.Start, err = p.expression(); err != nil {
		return nil, err
	}
	if err := p.expect(','); err != nil {
		return nil, err
	}
	if n.End, err = p.expression(); err != nil {
		return nil, err
	}
	if p.tok.Is(',') {
		p.next()
		if n.Step, err = p.expression(); err != nil {
			return nil, err
		}
	}
	if n.Body, err = p.blockExpr(); err != nil {
		return nil, err
	}
	return n, nil
}

func (p *Parser) whileExpr() (Node, error) {
	n := &While{Pos: p.pos()}
	p.next() // while
	var err error
	if n.Cond, err = p.expression(); err != nil {
		return nil, err
	}
	if n.Body, err = p.blockExpr(); err != nil {
		return nil, err
	}
	return n, nil
}
