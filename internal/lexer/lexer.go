// Package lexer tokenizes source-language text for internal/parser.
package lexer

import (
	"strings"
	"unicode"

	"github.com/stackc-go/stackc/internal/token"
)

// Lexer tokenizes source text one byte at a time, tracking a 1-based
// line and column for diagnostics; a tab counts as one column
// (parser.Error.Detail converts the column for internal/diag).
type Lexer struct {
	input   string
	pos     int
	readPos int
	ch      byte
	line    int
	column  int

	// docBuf accumulates consecutive `///` doc-comment lines, trimmed,
	// ready for a parser declaration to claim via TakeDoc.
	docBuf []string
}

// New creates a Lexer over input.
func New(input string) *Lexer {
	l := &Lexer{input: input, line: 1, column: 0}
	l.readChar()
	return l
}

func (l *Lexer) readChar() {
	if l.readPos >= len(l.input) {
		l.ch = 0
	} else {
		l.ch = l.input[l.readPos]
	}
	l.pos = l.readPos
	l.readPos++
	l.column++
	if l.ch == '\n' {
		l.line++
		l.column = 0
	}
}

func (l *Lexer) peekChar() byte {
	if l.readPos >= len(l.input) {
		return 0
	}
	return l.input[l.readPos]
}

// NextToken scans and returns the next token.
func (l *Lexer) NextToken() token.Token {
	l.skipWhitespaceAndComments()

	tok := token.Token{Line: l.line, Column: l.column}

	switch {
	case l.ch == 0:
		tok.Type = token.EOF
	case l.ch == '+':
		if l.peekChar() == '=' {
			l.readChar()
			tok.Type, tok.Literal = token.PLUSEQ, "+="
		} else {
			tok.Type, tok.Literal = token.PLUS, "+"
		}
	case l.ch == '-':
		if l.peekChar() == '>' {
			l.readChar()
			tok.Type, tok.Literal = token.ARROW, "->"
		} else if l.peekChar() == '=' {
			l.readChar()
			tok.Type, tok.Literal = token.MINUSEQ, "-="
		} else {
			tok.Type, tok.Literal = token.MINUS, "-"
		}
	case l.ch == '*':
		if l.peekChar() == '=' {
			l.readChar()
			tok.Type, tok.Literal = token.STAREQ, "*="
		} else {
			tok.Type, tok.Literal = token.STAR, "*"
		}
	case l.ch == '/':
		if l.peekChar() == '=' {
			l.readChar()
			tok.Type, tok.Literal = token.SLASHEQ, "/="
		} else {
			tok.Type, tok.Literal = token.SLASH, "/"
		}
	case l.ch == '=':
		if l.peekChar() == '=' {
			l.readChar()
			tok.Type, tok.Literal = token.EQ, "=="
		} else {
			tok.Type, tok.Literal = token.ASSIGN, "="
		}
	case l.ch == '!':
		if l.peekChar() == '=' {
			l.readChar()
			tok.Type, tok.Literal = token.NEQ, "!="
		} else {
			tok.Type, tok.Literal = token.NOT, "!"
		}
	case l.ch == '<':
		if l.peekChar() == '=' {
			l.readChar()
			tok.Type, tok.Literal = token.LE, "<="
		} else {
			tok.Type, tok.Literal = token.LT, "<"
		}
	case l.ch == '>':
		if l.peekChar() == '=' {
			l.readChar()
			tok.Type, tok.Literal = token.GE, ">="
		} else {
			tok.Type, tok.Literal = token.GT, ">"
		}
	case l.ch == '&':
		if l.peekChar() == '&' {
			l.readChar()
			tok.Type, tok.Literal = token.AND, "&&"
		} else {
			tok.Type, tok.Literal = token.AMP, "&"
		}
	case l.ch == '|':
		if l.peekChar() == '|' {
			l.readChar()
			tok.Type, tok.Literal = token.OR, "||"
		} else {
			tok.Type, tok.Literal = token.ILLEGAL, string(l.ch)
		}
	case l.ch == '.':
		if l.peekChar() == '.' {
			l.readChar()
			tok.Type, tok.Literal = token.DOTDOT, ".."
		} else {
			tok.Type, tok.Literal = token.DOT, "."
		}
	case l.ch == ',':
		tok.Type, tok.Literal = token.COMMA, ","
	case l.ch == ':':
		tok.Type, tok.Literal = token.COLON, ":"
	case l.ch == ';':
		tok.Type, tok.Literal = token.SEMI, ";"
	case l.ch == '(':
		tok.Type, tok.Literal = token.LPAREN, "("
	case l.ch == ')':
		tok.Type, tok.Literal = token.RPAREN, ")"
	case l.ch == '{':
		tok.Type, tok.Literal = token.LBRACE, "{"
	case l.ch == '}':
		tok.Type, tok.Literal = token.RBRACE, "}"
	case l.ch == '[':
		tok.Type, tok.Literal = token.LBRACKET, "["
	case l.ch == ']':
		tok.Type, tok.Literal = token.RBRACKET, "]"
	case l.ch == '#' && l.peekChar() == '#':
		l.readChar() // consume first #
		l.readChar() // consume second #
		start := l.pos
		for l.ch != '\n' && l.ch != 0 {
			l.readChar()
		}
		tok.Type = token.DOC
		tok.Literal = strings.TrimSpace(l.input[start:l.pos])
		return tok
	case l.ch == '\'':
		tok.Type = token.CHAR
		tok.Literal = l.readCharLiteral()
		return tok
	case l.ch == '"':
		tok.Type = token.STRING
		tok.Literal = l.readStringLiteral()
		return tok
	case isDigit(l.ch):
		tok.Type, tok.Literal = l.readNumber()
		return tok
	case isIdentStart(l.ch):
		lit := l.readIdentifier()
		tok.Literal = lit
		tok.Type = token.Lookup(lit)
		return tok
	default:
		tok.Type, tok.Literal = token.ILLEGAL, string(l.ch)
	}

	l.readChar()
	return tok
}

// TakeDoc returns the `///` lines accumulated since the last call,
// joined by newlines, and clears the buffer. Called by the parser right
// before consuming a declaration's leading keyword, so unclaimed doc
// comments (e.g. ones followed by a declaration kind with no docstring
// slot) are simply dropped rather than leaking onto the next one.
func (l *Lexer) TakeDoc() string {
	if len(l.docBuf) == 0 {
		return ""
	}
	doc := strings.Join(l.docBuf, "\n")
	l.docBuf = nil
	return doc
}

func (l *Lexer) skipWhitespaceAndComments() {
	for {
		for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
			l.readChar()
		}
		if l.ch == '/' && l.peekChar() == '/' {
			l.readChar() // consume first /
			l.readChar() // consume second /
			isDoc := l.ch == '/'
			if isDoc {
				l.readChar() // consume third /
			}
			start := l.pos
			for l.ch != '\n' && l.ch != 0 {
				l.readChar()
			}
			if isDoc {
				l.docBuf = append(l.docBuf, strings.TrimSpace(l.input[start:l.pos]))
			}
			continue
		}
		if l.ch == '/' && l.peekChar() == '*' {
			l.readChar()
			l.readChar()
			for !(l.ch == '*' && l.peekChar() == '/') && l.ch != 0 {
				l.readChar()
			}
			if l.ch != 0 {
				l.readChar()
				l.readChar()
			}
			continue
		}
		break
	}
}

func (l *Lexer) readIdentifier() string {
	start := l.pos
	for isIdentPart(l.ch) {
		l.readChar()
	}
	return l.input[start:l.pos]
}

func (l *Lexer) readNumber() (token.Type, string) {
	start := l.pos
	typ := token.INT
	for isDigit(l.ch) {
		l.readChar()
	}
	if l.ch == '.' && isDigit(l.peekChar()) {
		typ = token.FLOAT
		l.readChar()
		for isDigit(l.ch) {
			l.readChar()
		}
	}
	return typ, l.input[start:l.pos]
}

func (l *Lexer) readCharLiteral() string {
	l.readChar() // consume opening '
	var b strings.Builder
	if l.ch == '\\' {
		l.readChar()
		b.WriteByte(unescape(l.ch))
	} else {
		b.WriteByte(l.ch)
	}
	l.readChar()
	if l.ch == '\'' {
		l.readChar()
	}
	return b.String()
}

func (l *Lexer) readStringLiteral() string {
	l.readChar() // consume opening "
	var b strings.Builder
	for l.ch != '"' && l.ch != 0 {
		if l.ch == '\\' {
			l.readChar()
			b.WriteByte(unescape(l.ch))
		} else {
			b.WriteByte(l.ch)
		}
		l.readChar()
	}
	if l.ch == '"' {
		l.readChar()
	}
	return b.String()
}

func unescape(ch byte) byte {
	switch ch {
	case 'n':
		return '\n'
	case 't':
		return '\t'
	case 'r':
		return '\r'
	case '0':
		return 0
	default:
		return ch
	}
}

func isDigit(ch byte) bool { return ch >= '0' && ch <= '9' }

func isIdentStart(ch byte) bool {
	return ch == '_' || unicode.IsLetter(rune(ch))
}

func isIdentPart(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch)
}
