package parser

import (
	"github.com/stackc-go/stackc/internal/tir"
	"github.com/stackc-go/stackc/internal/token"
)

func (p *Parser) parseBlock() ([]tir.Statement, error) {
	if _, err := p.expect(token.LBRACE); err != nil {
		return nil, err
	}
	var stmts []tir.Statement
	for !p.curIs(token.RBRACE) {
		s, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s)
	}
	if _, err := p.expect(token.RBRACE); err != nil {
		return nil, err
	}
	return stmts, nil
}

func (p *Parser) parseStatement() (tir.Statement, error) {
	switch {
	case p.curIs(token.LET):
		return p.parseLet()
	case p.curIs(token.IF):
		return p.parseIf()
	case p.curIs(token.WHILE):
		return p.parseWhile()
	case p.curIs(token.FOR):
		return p.parseFor()
	case p.curIs(token.RETURN):
		return p.parseReturn()
	case p.curIs(token.IDENT) && p.peekIs(token.NOT):
		call, err := p.parseMacroCall()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.SEMI); err != nil {
			return nil, err
		}
		return tir.MacroCallStmt{Call: call}, nil
	default:
		return p.parseExprOrAssignStatement()
	}
}

func (p *Parser) parseLet() (tir.Statement, error) {
	p.next() // consume 'let'
	name, err := p.expect(token.IDENT)
	if err != nil {
		return nil, err
	}
	typ := tir.Type(tir.TFloat{}) // inferred below if an initializer is present; otherwise num is the default scalar type
	hasType := false
	if p.curIs(token.COLON) {
		p.next()
		typ, err = p.parseType()
		if err != nil {
			return nil, err
		}
		hasType = true
	}
	var init tir.Expression
	if p.curIs(token.ASSIGN) {
		p.next()
		init, err = p.parseExpr(precLowest)
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(token.SEMI); err != nil {
		return nil, err
	}
	if !hasType {
		typ = inferLiteralType(init)
	}
	return tir.Define{Name: name.Literal, Type: typ, Init: init}, nil
}

// inferLiteralType gives an untyped `let` its type from its initializer's
// literal form when the source omits an explicit `: Type` annotation;
// anything else defaults to num, the language's default scalar.
func inferLiteralType(e tir.Expression) tir.Type {
	switch e.(type) {
	case tir.CharLit:
		return tir.TChar{}
	case tir.BoolLit:
		return tir.TBool{}
	case tir.StringLit:
		return tir.TPointer{Inner: tir.TChar{}}
	default:
		return tir.TFloat{}
	}
}

func (p *Parser) parseIf() (tir.Statement, error) {
	p.next() // consume 'if'
	cond, err := p.parseExpr(precLowest)
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	stmt := tir.IfElseIf{Cond: cond, ThenBody: body}
	for p.curIs(token.ELSE) {
		p.next()
		if p.curIs(token.IF) {
			p.next()
			eCond, err := p.parseExpr(precLowest)
			if err != nil {
				return nil, err
			}
			eBody, err := p.parseBlock()
			if err != nil {
				return nil, err
			}
			stmt.ElseIfs = append(stmt.ElseIfs, tir.ElseIfClause{Cond: eCond, Body: eBody})
			continue
		}
		elseBody, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		stmt.ElseBody = elseBody
		break
	}
	return stmt, nil
}

func (p *Parser) parseWhile() (tir.Statement, error) {
	p.next() // consume 'while'
	cond, err := p.parseExpr(precLowest)
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return tir.While{Cond: cond, Body: body}, nil
}

// parseFor parses either range-for (`for x in lo..hi { }`) or classic
// three-clause for (`for (init; cond; post) { }`); the parenthesized form
// disambiguates the grammar without lookahead past the loop variable.
func (p *Parser) parseFor() (tir.Statement, error) {
	p.next() // consume 'for'
	if p.curIs(token.LPAREN) {
		p.next()
		init, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		cond, err := p.parseExpr(precLowest)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.SEMI); err != nil {
			return nil, err
		}
		post, err := p.parseSimpleStatementNoSemi()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RPAREN); err != nil {
			return nil, err
		}
		body, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		return tir.For{Init: init, Cond: cond, Post: post, Body: body}, nil
	}

	name, err := p.expect(token.IDENT)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.IN); err != nil {
		return nil, err
	}
	low, err := p.parseExpr(precRange)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.DOTDOT); err != nil {
		return nil, err
	}
	high, err := p.parseExpr(precRange)
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return tir.RangeFor{Var: name.Literal, Low: low, High: high, Body: body}, nil
}

// parseSimpleStatementNoSemi parses a for-loop's post-clause: an
// assignment or compound assignment with no trailing semicolon (the
// caller consumes the loop's closing paren instead).
func (p *Parser) parseSimpleStatementNoSemi() (tir.Statement, error) {
	target, err := p.parseExpr(precLowest)
	if err != nil {
		return nil, err
	}
	if op, ok := compoundOp(p.cur.Type); ok {
		p.next()
		value, err := p.parseExpr(precLowest)
		if err != nil {
			return nil, err
		}
		return tir.CompoundAssign{Op: op, Target: target, Value: value}, nil
	}
	if p.curIs(token.ASSIGN) {
		p.next()
		value, err := p.parseExpr(precLowest)
		if err != nil {
			return nil, err
		}
		return tir.Assign{Target: target, Value: value}, nil
	}
	return tir.ExprStmt{Value: target}, nil
}

func (p *Parser) parseReturn() (tir.Statement, error) {
	p.next() // consume 'return'
	if p.curIs(token.SEMI) {
		p.next()
		return tir.Return{Value: tir.VoidLit{}}, nil
	}
	v, err := p.parseExpr(precLowest)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.SEMI); err != nil {
		return nil, err
	}
	return tir.Return{Value: v}, nil
}

func (p *Parser) parseExprOrAssignStatement() (tir.Statement, error) {
	e, err := p.parseExpr(precLowest)
	if err != nil {
		return nil, err
	}
	var stmt tir.Statement
	if op, ok := compoundOp(p.cur.Type); ok {
		p.next()
		value, err := p.parseExpr(precLowest)
		if err != nil {
			return nil, err
		}
		stmt = tir.CompoundAssign{Op: op, Target: e, Value: value}
	} else if p.curIs(token.ASSIGN) {
		p.next()
		value, err := p.parseExpr(precLowest)
		if err != nil {
			return nil, err
		}
		stmt = tir.Assign{Target: e, Value: value}
	} else {
		stmt = tir.ExprStmt{Value: e}
	}
	if _, err := p.expect(token.SEMI); err != nil {
		return nil, err
	}
	return stmt, nil
}
