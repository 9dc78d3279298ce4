// Package parser implements a recursive-descent, Pratt-precedence parser
// that turns source text into a tir.Program, grounded on the teacher's
// two-pass translation idiom and on original_source/src/parser.rs's
// grammar (declarations, statements, then a precedence-climbing
// expression parser).
package parser

import (
	"fmt"
	"strings"

	"github.com/stackc-go/stackc/internal/diag"
	"github.com/stackc-go/stackc/internal/lexer"
	"github.com/stackc-go/stackc/internal/tir"
	"github.com/stackc-go/stackc/internal/token"
)

// Error is the sentinel error type for parse failures. Token carries the
// offending token's literal text, letting Detail render a gutter-and-
// caret snippet (diag.Format) the way original_source/src/lib.rs's
// format_error does, without every call site needing to build that
// snippet itself.
type Error struct {
	Msg       string
	Line, Col int
	Token     string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Col, e.Msg)
}

// Detail renders a source-snippet diagnostic for the error against the
// original source text, for callers (cmd/stackc) that want the fuller
// gutter-and-caret presentation rather than the plain one-line Error().
func (e *Error) Detail(source string) string {
	unexpected := e.Token
	if unexpected == "" {
		unexpected = " "
	}
	// The lexer's column is 1-based and counts a tab as one column;
	// diag.Format takes a 0-based column within the tab-expanded,
	// left-trimmed line.
	col := e.Col - 1
	if col < 0 {
		col = 0
	}
	if lines := strings.Split(source, "\n"); e.Line >= 1 && e.Line <= len(lines) && col <= len(lines[e.Line-1]) {
		col = len(strings.TrimLeft(strings.ReplaceAll(lines[e.Line-1][:col], "\t", "    "), " "))
	}
	return diag.Format(source, e.Line, col, unexpected)
}

// Parser holds the token stream and one token of lookahead beyond the
// current token (cur/peek), the classic Pratt-parser shape.
type Parser struct {
	l *lexer.Lexer

	cur  token.Token
	peek token.Token
}

// Parse tokenizes and parses source into a tir.Program.
func Parse(source string) (*tir.Program, error) {
	p := &Parser{l: lexer.New(source)}
	p.next()
	p.next()
	return p.parseProgram()
}

func (p *Parser) next() {
	p.cur = p.peek
	p.peek = p.l.NextToken()
}

func (p *Parser) curIs(t token.Type) bool  { return p.cur.Type == t }
func (p *Parser) peekIs(t token.Type) bool { return p.peek.Type == t }

func (p *Parser) expect(t token.Type) (token.Token, error) {
	if p.cur.Type != t {
		return token.Token{}, p.errorf("expected %s, got %s %q", t, p.cur.Type, p.cur.Literal)
	}
	tok := p.cur
	p.next()
	return tok, nil
}

func (p *Parser) errorf(format string, args ...interface{}) error {
	return &Error{Msg: fmt.Sprintf(format, args...), Line: p.cur.Line, Col: p.cur.Column, Token: p.cur.Literal}
}

func (p *Parser) parseProgram() (*tir.Program, error) {
	prog := &tir.Program{}
	for !p.curIs(token.EOF) {
		d, err := p.parseDecl()
		if err != nil {
			return nil, err
		}
		if d != nil {
			prog.Decls = append(prog.Decls, d)
		}
	}
	return prog, nil
}

func (p *Parser) parseDecl() (tir.Declaration, error) {
	switch p.cur.Type {
	case token.FN:
		fn, err := p.parseFunction()
		if err != nil {
			return nil, err
		}
		return tir.FuncDecl{Func: fn}, nil

	case token.STRUCT:
		return p.parseStruct()

	case token.CONST:
		return p.parseConstDecl()

	case token.ASSERT:
		p.next()
		cond, err := p.parseConstExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.SEMI); err != nil {
			return nil, err
		}
		return tir.AssertDecl{Cond: cond}, nil

	case token.INCLUDE:
		p.next()
		tok, err := p.expect(token.STRING)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.SEMI); err != nil {
			return nil, err
		}
		return tir.IncludeDecl{Filename: tok.Literal}, nil

	case token.EXTERN:
		p.next()
		tok, err := p.expect(token.STRING)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.SEMI); err != nil {
			return nil, err
		}
		return tir.ExternDecl{Filename: tok.Literal}, nil

	case token.MEMORY:
		p.next()
		tok, err := p.expect(token.INT)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.SEMI); err != nil {
			return nil, err
		}
		return tir.HeapSizeDecl{Size: atoi(tok.Literal)}, nil

	case token.REQUIRE_STD:
		p.next()
		if _, err := p.expect(token.SEMI); err != nil {
			return nil, err
		}
		return tir.RequireStdDecl{}, nil

	case token.NO_STD:
		p.next()
		if _, err := p.expect(token.SEMI); err != nil {
			return nil, err
		}
		return tir.NoStdDecl{}, nil

	case token.ERROR:
		p.next()
		tok, err := p.expect(token.STRING)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.SEMI); err != nil {
			return nil, err
		}
		return tir.ErrorDecl{Message: tok.Literal}, nil

	case token.MACRO:
		return p.parseMacroDef()

	case token.IDENT:
		if p.peekIs(token.NOT) {
			call, err := p.parseMacroCall()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(token.SEMI); err != nil {
				return nil, err
			}
			return call, nil
		}
		return nil, p.errorf("unexpected token %s %q at top level", p.cur.Type, p.cur.Literal)

	case token.IF:
		return p.parseTopLevelIf()

	case token.DOC:
		text := p.cur.Literal
		p.next()
		return tir.DocHeaderDecl{Text: text}, nil

	default:
		return nil, p.errorf("unexpected token %s %q at top level", p.cur.Type, p.cur.Literal)
	}
}

func (p *Parser) parseTopLevelIf() (tir.Declaration, error) {
	p.next() // consume 'if'
	cond, err := p.parseConstExpr()
	if err != nil {
		return nil, err
	}
	body, err := p.parseDeclBlock()
	if err != nil {
		return nil, err
	}
	if !p.curIs(token.ELSE) {
		return tir.IfDecl{Cond: cond, Body: tir.Program{Decls: body}}, nil
	}
	p.next()
	elseBody, err := p.parseDeclBlock()
	if err != nil {
		return nil, err
	}
	return tir.IfElseDecl{
		Cond:     cond,
		ThenBody: tir.Program{Decls: body},
		ElseBody: tir.Program{Decls: elseBody},
	}, nil
}

func (p *Parser) parseDeclBlock() ([]tir.Declaration, error) {
	if _, err := p.expect(token.LBRACE); err != nil {
		return nil, err
	}
	var decls []tir.Declaration
	for !p.curIs(token.RBRACE) {
		d, err := p.parseDecl()
		if err != nil {
			return nil, err
		}
		if d != nil {
			decls = append(decls, d)
		}
	}
	if _, err := p.expect(token.RBRACE); err != nil {
		return nil, err
	}
	return decls, nil
}

func (p *Parser) parseConstDecl() (tir.Declaration, error) {
	p.next() // consume 'const'
	name, err := p.expect(token.IDENT)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.ASSIGN); err != nil {
		return nil, err
	}
	v, err := p.parseConstExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.SEMI); err != nil {
		return nil, err
	}
	return tir.ConstDecl{Name: name.Literal, Value: v}, nil
}

func (p *Parser) parseFunction() (tir.Function, error) {
	doc := p.l.TakeDoc()
	p.next() // consume 'fn'
	name, err := p.expect(token.IDENT)
	if err != nil {
		return tir.Function{}, err
	}
	params, err := p.parseParams()
	if err != nil {
		return tir.Function{}, err
	}
	retType := tir.Type(tir.TVoid{})
	if p.curIs(token.ARROW) {
		p.next()
		retType, err = p.parseType()
		if err != nil {
			return tir.Function{}, err
		}
	}
	body, err := p.parseBlock()
	if err != nil {
		return tir.Function{}, err
	}
	return tir.Function{Name: name.Literal, Doc: doc, Params: params, ReturnType: retType, Body: body}, nil
}

func (p *Parser) parseParams() ([]tir.Param, error) {
	if _, err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}
	var params []tir.Param
	for !p.curIs(token.RPAREN) {
		name, err := p.expect(token.IDENT)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.COLON); err != nil {
			return nil, err
		}
		typ, err := p.parseType()
		if err != nil {
			return nil, err
		}
		params = append(params, tir.Param{Name: name.Literal, Type: typ})
		if p.curIs(token.COMMA) {
			p.next()
		}
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}
	return params, nil
}

func (p *Parser) parseType() (tir.Type, error) {
	if p.curIs(token.AMP) {
		p.next()
		inner, err := p.parseType()
		if err != nil {
			return nil, err
		}
		return tir.TPointer{Inner: inner}, nil
	}
	switch p.cur.Type {
	case token.VOID:
		p.next()
		return tir.TVoid{}, nil
	case token.NUM:
		p.next()
		return tir.TFloat{}, nil
	case token.BOOLTY:
		p.next()
		return tir.TBool{}, nil
	case token.CHARTY:
		p.next()
		return tir.TChar{}, nil
	case token.IDENT:
		name := p.cur.Literal
		p.next()
		return tir.TStructure{Name: name}, nil
	default:
		return nil, p.errorf("expected a type, got %s %q", p.cur.Type, p.cur.Literal)
	}
}

func (p *Parser) parseStruct() (tir.Declaration, error) {
	doc := p.l.TakeDoc()
	p.next() // consume 'struct'
	name, err := p.expect(token.IDENT)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LBRACE); err != nil {
		return nil, err
	}
	s := tir.Structure{Name: name.Literal, Doc: doc}
	for !p.curIs(token.RBRACE) {
		if p.curIs(token.FN) {
			m, err := p.parseFunction()
			if err != nil {
				return nil, err
			}
			if m.Name == "copy" {
				s.HasCopy = true
			}
			if m.Name == "drop" {
				s.HasDrop = true
			}
			s.Methods = append(s.Methods, m)
			continue
		}
		mname, err := p.expect(token.IDENT)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.COLON); err != nil {
			return nil, err
		}
		mtype, err := p.parseType()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.SEMI); err != nil {
			return nil, err
		}
		s.Members = append(s.Members, tir.Member{Name: mname.Literal, Type: mtype})
	}
	if _, err := p.expect(token.RBRACE); err != nil {
		return nil, err
	}
	return tir.StructDecl{Struct: s}, nil
}

// parseMacroDef parses `macro NAME ( kind ident, ... ) { BODY }`, where
// BODY is either a single expression, a single statement, or a
// declaration, matching MacroResult's single-tree-only shape (spec
// §4.5). The body's own syntactic form (does it start like a decl, a
// statement, or is it a bare expression followed directly by `}`)
// determines which MacroResult variant is produced.
func (p *Parser) parseMacroDef() (tir.Declaration, error) {
	p.next() // consume 'macro'
	name, err := p.expect(token.IDENT)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}
	var params []tir.MacroParam
	for !p.curIs(token.RPAREN) {
		kindTok, err := p.expect(token.IDENT)
		if err != nil {
			return nil, err
		}
		kind, err := macroKindFromName(kindTok.Literal)
		if err != nil {
			return nil, err
		}
		pname, err := p.expect(token.IDENT)
		if err != nil {
			return nil, err
		}
		params = append(params, tir.MacroParam{Name: pname.Literal, Kind: kind})
		if p.curIs(token.COMMA) {
			p.next()
		}
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}

	if _, err := p.expect(token.LBRACE); err != nil {
		return nil, err
	}
	body, err := p.parseMacroBody()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RBRACE); err != nil {
		return nil, err
	}

	return tir.Macro{Name: name.Literal, Params: params, Body: body}, nil
}

func macroKindFromName(s string) (tir.ArgKind, error) {
	switch s {
	case "ident":
		return tir.KindIdentifier, nil
	case "expr":
		return tir.KindExpression, nil
	case "stmt":
		return tir.KindStatement, nil
	case "ty":
		return tir.KindType, nil
	default:
		return 0, fmt.Errorf("unknown macro parameter kind %q (want ident, expr, stmt, or ty)", s)
	}
}

func (p *Parser) parseMacroBody() (tir.MacroResult, error) {
	if p.curIs(token.FN) || p.curIs(token.STRUCT) {
		d, err := p.parseDecl()
		if err != nil {
			return nil, err
		}
		return tir.DeclResult{Decl: d}, nil
	}
	// A single statement body always ends with its own semicolon/brace
	// before this macro definition's closing brace; a single expression
	// body is the value immediately preceding it. Statements are
	// distinguished by their leading keyword.
	switch p.cur.Type {
	case token.LET, token.IF, token.WHILE, token.FOR, token.RETURN:
		s, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		return tir.StmtResult{Stmt: s}, nil
	default:
		e, err := p.parseExpr(precLowest)
		if err != nil {
			return nil, err
		}
		if p.curIs(token.SEMI) {
			p.next()
			return tir.StmtResult{Stmt: tir.ExprStmt{Value: e}}, nil
		}
		return tir.ExprResult{Expr: e}, nil
	}
}

func (p *Parser) parseMacroCall() (tir.MacroCall, error) {
	name, err := p.expect(token.IDENT)
	if err != nil {
		return tir.MacroCall{}, err
	}
	if _, err := p.expect(token.NOT); err != nil {
		return tir.MacroCall{}, err
	}
	if _, err := p.expect(token.LPAREN); err != nil {
		return tir.MacroCall{}, err
	}
	var args []tir.MacroArg
	for !p.curIs(token.RPAREN) {
		a, err := p.parseMacroArg()
		if err != nil {
			return tir.MacroCall{}, err
		}
		args = append(args, a)
		if p.curIs(token.COMMA) {
			p.next()
		}
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return tir.MacroCall{}, err
	}
	return tir.MacroCall{Name: name.Literal, Args: args}, nil
}

// parseMacroArg parses one macro call argument. Every argument is parsed
// as an expression (the call site never states a kind, matching the
// original's untyped macro_call! grammar); an argument consisting of a
// single bare identifier is additionally tagged so it can still satisfy
// an Identifier-kinded formal parameter (spec §4.5's per-position kind
// check happens at expansion time in tir/macro.go).
func (p *Parser) parseMacroArg() (tir.MacroArg, error) {
	if p.curIs(token.IDENT) && (p.peekIs(token.COMMA) || p.peekIs(token.RPAREN)) {
		name := p.cur.Literal
		p.next()
		return tir.MacroArg{Kind: tir.KindIdentifier, Ident: name, Expr: tir.Var{Name: name}}, nil
	}
	e, err := p.parseExpr(precLowest)
	if err != nil {
		return tir.MacroArg{}, err
	}
	return tir.MacroArg{Kind: tir.KindExpression, Expr: e}, nil
}

func atoi(s string) int {
	n := 0
	for _, c := range s {
		n = n*10 + int(c-'0')
	}
	return n
}
