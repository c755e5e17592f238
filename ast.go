package microsel

// Pos is a 1-based source position.
type Pos struct {
	Line int
	Col  int
}

// Position returns p itself; embedding Pos gives every node its location.
func (p Pos) Position() Pos { return p }

// Node is an expression tree. The set of variants is closed: only the types
// in this file implement it, and the evaluator and printer switch over them
// exhaustively.
type Node interface {
	Position() Pos
	node()
}

type (
	// Number is a numeric literal.
	Number struct {
		Pos
		Val Value
	}

	// Variable names a scalar, or an array element when Indices is non-empty.
	Variable struct {
		Pos
		Name    string
		Indices []Node
	}

	// Deref reads or writes the stack cell at Addr (`@addr`).
	Deref struct {
		Pos
		Addr Node
	}

	// ArrayDecl reserves a zero-filled array (`arr a[2][3]`).
	ArrayDecl struct {
		Pos
		Name string
		Dims []int
	}

	// Unary is a prefix operator application.
	Unary struct {
		Pos
		Op      rune
		Operand Node
	}

	// Binary is an infix operator application, assignment included.
	Binary struct {
		Pos
		Op       string
		LHS, RHS Node
	}

	// Call invokes a built-in or user function by name.
	Call struct {
		Pos
		Name string
		Args []Node
	}

	// If has an optional Else (nil when absent).
	If struct {
		Pos
		Cond, Then, Else Node
	}

	// For loops while End is truthy; Step is nil for the default step of 1.
	For struct {
		Pos
		Var              string
		Start, End, Step Node
		Body             Node
	}

	While struct {
		Pos
		Cond, Body Node
	}

	Block struct {
		Pos
		Stmts []Node
	}

	Break struct {
		Pos
		Expr Node
	}

	Return struct {
		Pos
		Expr Node
	}
)

func (*Number) node()    {}
func (*Variable) node()  {}
func (*Deref) node()     {}
func (*ArrayDecl) node() {}
func (*Unary) node()     {}
func (*Binary) node()    {}
func (*Call) node()      {}
func (*If) node()        {}
func (*For) node()       {}
func (*While) node()     {}
func (*Block) node()     {}
func (*Break) node()     {}
func (*Return) node()    {}

// FuncKind distinguishes plain functions from operator definitions.
type FuncKind int

const (
	FuncPlain  FuncKind = iota
	FuncUnary           // func unary OP (a)
	FuncBinary          // func binary OP [prec] (a, b)
)

// AnonName is the reserved name of the function wrapping each top-level
// expression. Its scope is never torn down, so top-level variables persist
// from one statement to the next.
const AnonName = "__anon_expr"

// Prototype is a function signature. For operator functions Name is
// "unary"+Op or "binary"+Op, and Precedence is what was registered.
type Prototype struct {
	Pos
	Name       string
	Params     []string
	Kind       FuncKind
	Op         string
	Precedence int
}

// Function is a named, globally registered function.
type Function struct {
	Proto *Prototype
	Body  Node
}

// IsOperator reports whether f implements a custom operator.
func (f *Function) IsOperator() bool { return f.Proto.Kind != FuncPlain }

// Unit is one top-level item of a program: a definition or an expression.
// Exactly one of Func and Expr is set.
type Unit struct {
	Func *Function
	Expr Node
}

// Anonymous wraps a top-level expression in the reserved function.
func Anonymous(body Node) *Function {
	return &Function{Proto: &Prototype{Pos: body.Position(), Name: AnonName}, Body: body}
}
