// lexer_test.go
package microsel

import (
	"testing"
)

// --- helpers ---------------------------------------------------------------

func kinds(toks []Token) []TokenKind {
	out := make([]TokenKind, len(toks))
	for i, t := range toks {
		out[i] = t.Kind
	}
	return out
}

func wantKinds(t *testing.T, src string, want ...TokenKind) []Token {
	t.Helper()
	toks := Scan(src)
	got := kinds(toks)
	if len(got) != len(want) {
		t.Fatalf("token count mismatch for %q: got %v, want %v", src, got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token %d of %q: got %v, want %v (all: %v)", i, src, got[i], want[i], got)
		}
	}
	return toks
}

// --- tests -----------------------------------------------------------------

func Test_Lexer_Function_Definition(t *testing.T) {
	toks := wantKinds(t, "func add(a, b) a+b",
		TokFunc, TokIdent, TokParenOpen, TokIdent, TokChar, TokIdent, TokParenClose,
		TokIdent, TokChar, TokIdent, TokEOF)
	if toks[1].Text != "add" {
		t.Fatalf("want ident add, got %q", toks[1].Text)
	}
	if !toks[4].Is(',') || !toks[8].Is('+') {
		t.Fatalf("want ',' and '+', got %v and %v", toks[4], toks[8])
	}
}

func Test_Lexer_Keywords(t *testing.T) {
	wantKinds(t, "func arr if then else for while break return",
		TokFunc, TokArr, TokIf, TokThen, TokElse, TokFor, TokWhile, TokBreak, TokReturn, TokEOF)
	// binary/unary are plain identifiers to the lexer
	wantKinds(t, "binary unary iffy", TokIdent, TokIdent, TokIdent, TokEOF)
}

func Test_Lexer_Identifiers_Allow_Digits_And_Underscore(t *testing.T) {
	toks := wantKinds(t, "x_1 Y2z", TokIdent, TokIdent, TokEOF)
	if toks[0].Text != "x_1" || toks[1].Text != "Y2z" {
		t.Fatalf("bad identifiers: %v", toks)
	}
	// leading underscore is not an identifier start
	toks = wantKinds(t, "_a", TokChar, TokIdent, TokEOF)
	if !toks[0].Is('_') {
		t.Fatalf("want '_', got %v", toks[0])
	}
}

func Test_Lexer_Numbers(t *testing.T) {
	cases := []struct {
		src  string
		want float64
	}{
		{"42", 42},
		{"3.25", 3.25},
		{".5", 0.5},
		{"7.", 7},
		{"1.2.3", 1.2},
		{".", 0},
	}
	for _, c := range cases {
		toks := wantKinds(t, c.src, TokNumber, TokEOF)
		if toks[0].Num != c.want {
			t.Fatalf("%q: want %g, got %g", c.src, c.want, toks[0].Num)
		}
		if toks[0].Text != c.src {
			t.Fatalf("%q: spelling kept as %q", c.src, toks[0].Text)
		}
	}
}

func Test_Lexer_Comments_Skipped(t *testing.T) {
	toks := wantKinds(t, "# header\nx # trailing\n# last", TokIdent, TokEOF)
	if toks[0].Line != 2 || toks[0].Col != 1 {
		t.Fatalf("want x at 2:1, got %d:%d", toks[0].Line, toks[0].Col)
	}
}

func Test_Lexer_Positions(t *testing.T) {
	toks := Scan("a = 1\n  b")
	want := [][2]int{{1, 1}, {1, 3}, {1, 5}, {2, 3}}
	for i, w := range want {
		if toks[i].Line != w[0] || toks[i].Col != w[1] {
			t.Fatalf("token %d (%v): want %d:%d, got %d:%d", i, toks[i], w[0], w[1], toks[i].Line, toks[i].Col)
		}
	}
}

func Test_Lexer_LastChar_Is_Raw_Lookahead(t *testing.T) {
	l := NewLexerString("a<=b")
	if tok := l.Next(); tok.Kind != TokIdent {
		t.Fatalf("want ident, got %v", tok)
	}
	if l.LastChar() != '<' {
		t.Fatalf("want lookahead '<', got %q", l.LastChar())
	}
	if tok := l.Next(); !tok.Is('<') {
		t.Fatalf("want '<', got %v", tok)
	}
	if l.LastChar() != '=' {
		t.Fatalf("want lookahead '=', got %q", l.LastChar())
	}

	l = NewLexerString("< =")
	l.Next()
	if l.LastChar() != ' ' {
		t.Fatalf("spaced operator: want lookahead ' ', got %q", l.LastChar())
	}

	l = NewLexerString("x")
	l.Next()
	if l.LastChar() != EOFRune {
		t.Fatalf("want EOFRune at end, got %q", l.LastChar())
	}
}

func Test_Lexer_Brackets_And_Chars(t *testing.T) {
	toks := wantKinds(t, "{ a[1] @p; }",
		TokBlockOpen, TokIdent, TokChar, TokNumber, TokChar, TokChar, TokIdent, TokChar, TokBlockClose, TokEOF)
	for i, c := range map[int]rune{2: '[', 4: ']', 5: '@', 7: ';'} {
		if !toks[i].Is(c) {
			t.Fatalf("token %d: want %q, got %v", i, c, toks[i])
		}
	}
}

func Test_Lexer_EOF_Is_Sticky(t *testing.T) {
	l := NewLexerString("")
	for i := 0; i < 3; i++ {
		if tok := l.Next(); tok.Kind != TokEOF {
			t.Fatalf("call %d: want EOF, got %v", i, tok)
		}
	}
}

func Test_Lexer_Token_String(t *testing.T) {
	toks := Scan("foo 12 + {")
	want := []string{"foo", "12", "+", "{", "end of input"}
	for i, w := range want {
		if got := toks[i].String(); got != w {
			t.Fatalf("token %d: want %q, got %q", i, w, got)
		}
	}
	if TokWhile.String() != "WHILE" {
		t.Fatalf("kind name: got %q", TokWhile.String())
	}
}
