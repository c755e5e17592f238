// lexer.go: character-at-a-time scanner with a one-rune lookahead.
package microsel

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	"fortio.org/log"
)

// TokenKind represents the kind of token.
type TokenKind int

const (
	TokEOF TokenKind = iota
	TokIdent
	TokNumber

	// Keywords
	TokFunc
	TokArr
	TokIf
	TokThen
	TokElse
	TokFor
	TokWhile
	TokBreak
	TokReturn

	// Brackets
	TokBlockOpen  // "{"
	TokBlockClose // "}"
	TokParenOpen  // "("
	TokParenClose // ")"

	// Any other single character; see Token.Char.
	TokChar
)

var tokenNames = [...]string{
	TokEOF:        "EOF",
	TokIdent:      "IDENT",
	TokNumber:     "NUMBER",
	TokFunc:       "FUNC",
	TokArr:        "ARR",
	TokIf:         "IF",
	TokThen:       "THEN",
	TokElse:       "ELSE",
	TokFor:        "FOR",
	TokWhile:      "WHILE",
	TokBreak:      "BREAK",
	TokReturn:     "RETURN",
	TokBlockOpen:  "{",
	TokBlockClose: "}",
	TokParenOpen:  "(",
	TokParenClose: ")",
	TokChar:       "CHAR",
}

func (k TokenKind) String() string {
	if int(k) < len(tokenNames) {
		return tokenNames[k]
	}
	return fmt.Sprintf("TokenKind(%d)", int(k))
}

// keywords map
var keywords = map[string]TokenKind{
	"func":   TokFunc,
	"arr":    TokArr,
	"if":     TokIf,
	"then":   TokThen,
	"else":   TokElse,
	"for":    TokFor,
	"while":  TokWhile,
	"break":  TokBreak,
	"return": TokReturn,
}

// EOFRune is what LastChar holds once the source is exhausted.
const EOFRune rune = -1

// Token is a lexical token. Text is the identifier or number spelling, Num the
// parsed number and Char the raw character of a TokChar.
type Token struct {
	Kind TokenKind
	Text string
	Num  float64
	Char rune
	Line int
	Col  int
}

// Is reports whether t is the single character c.
func (t Token) Is(c rune) bool { return t.Kind == TokChar && t.Char == c }

func (t Token) String() string {
	switch t.Kind {
	case TokIdent, TokNumber:
		return t.Text
	case TokChar:
		return string(t.Char)
	case TokEOF:
		return "end of input"
	default:
		if t.Text != "" {
			return t.Text
		}
		return t.Kind.String()
	}
}

// Lexer scans runes from any io.RuneReader. The same type serves a whole
// script held in memory and a live character stream.
type Lexer struct {
	src  io.RuneReader
	last rune // first unconsumed character
	line int  // position of last
	col  int
	prev rune
}

// NewLexer creates a lexer reading from r.
func NewLexer(r io.RuneReader) *Lexer {
	return &Lexer{src: r, last: ' ', line: 1}
}

// NewLexerString creates a lexer over an in-memory source buffer.
func NewLexerString(src string) *Lexer { return NewLexer(strings.NewReader(src)) }

// LastChar returns the lookahead character: the first character that the
// next call to Next has not consumed yet.
func (l *Lexer) LastChar() rune { return l.last }

// Pos returns the line and column of LastChar.
func (l *Lexer) Pos() (int, int) { return l.line, l.col }

func (l *Lexer) advance() {
	if l.last == EOFRune {
		return
	}
	r, _, err := l.src.ReadRune()
	if err != nil {
		r = EOFRune
	}
	if l.prev == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	l.prev = r
	l.last = r
}

func isIdentStart(r rune) bool { return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') }
func isIdentPart(r rune) bool { return isIdentStart(r) || (r >= '0' && r <= '9') || r == '_' }
func isNumberPart(r rune) bool { return (r >= '0' && r <= '9') || r == '.' }

// Next scans and returns the next token.
func (l *Lexer) Next() Token {
	for {
		for l.last != EOFRune && unicode.IsSpace(l.last) {
			l.advance()
		}
		line, col := l.line, l.col

		switch {
		case l.last == EOFRune:
			return Token{Kind: TokEOF, Line: line, Col: col}

		case isIdentStart(l.last):
			var b strings.Builder
			for isIdentPart(l.last) {
				b.WriteRune(l.last)
				l.advance()
			}
			word := b.String()
			if kind, ok := keywords[word]; ok {
				return Token{Kind: kind, Text: word, Line: line, Col: col}
			}
			return Token{Kind: TokIdent, Text: word, Line: line, Col: col}

		case isNumberPart(l.last):
			var b strings.Builder
			for isNumberPart(l.last) {
				b.WriteRune(l.last)
				l.advance()
			}
			lit := b.String()
			return Token{Kind: TokNumber, Text: lit, Num: scanNumber(lit), Line: line, Col: col}

		case l.last == '#':
			for l.last != EOFRune && l.last != '\n' && l.last != '\r' {
				l.advance()
			}
			continue
		}

		c := l.last
		l.advance()
		switch c {
		case '{':
			return Token{Kind: TokBlockOpen, Text: "{", Line: line, Col: col}
		case '}':
			return Token{Kind: TokBlockClose, Text: "}", Line: line, Col: col}
		case '(':
			return Token{Kind: TokParenOpen, Text: "(", Line: line, Col: col}
		case ')':
			return Token{Kind: TokParenClose, Text: ")", Line: line, Col: col}
		}
		return Token{Kind: TokChar, Char: c, Line: line, Col: col}
	}
}

// scanNumber converts a [0-9.]+ spelling. The longest prefix that forms a
// decimal number is used and the rest ignored, so "1.2.3" reads as 1.2 and
// "." as 0.
func scanNumber(lit string) float64 {
	end, sawDot, sawDigit := 0, false, false
	for end < len(lit) {
		c := lit[end]
		if c == '.' {
			if sawDot {
				break
			}
			sawDot = true
		} else {
			sawDigit = true
		}
		end++
	}
	if !sawDigit {
		log.Warnf("number literal %q has no digits, reading it as 0", lit)
		return 0
	}
	if end < len(lit) {
		log.Warnf("number literal %q truncated to %q", lit, lit[:end])
	}
	// out-of-range spellings come back as +Inf with an error; the parser rejects them
	f, _ := strconv.ParseFloat(lit[:end], 64)
	return f
}

// Scan tokenizes the entire source and returns tokens (EOF included).
func Scan(src string) []Token {
	l := NewLexerString(src)
	var out []Token
	for {
		t := l.Next()
		out = append(out, t)
		if t.Kind == TokEOF {
			return out
		}
	}
}
