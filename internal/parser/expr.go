package parser

import (
	"strconv"

	"github.com/stackc-go/stackc/internal/tir"
	"github.com/stackc-go/stackc/internal/token"
)

// Precedence levels, low to high; a Pratt parser climbs these via
// infixPrecedence below each time it considers consuming an infix
// operator, matching original_source/src/parser.rs's expression grammar.
const (
	precLowest = iota
	precOr
	precAnd
	precEquality
	precRelational
	precRange
	precAdditive
	precMultiplicative
	precUnary
	precPostfix
)

func infixPrecedence(t token.Type) int {
	switch t {
	case token.OR:
		return precOr
	case token.AND:
		return precAnd
	case token.EQ, token.NEQ:
		return precEquality
	case token.LT, token.LE, token.GT, token.GE:
		return precRelational
	case token.PLUS, token.MINUS:
		return precAdditive
	case token.STAR, token.SLASH:
		return precMultiplicative
	default:
		return precLowest
	}
}

func compoundOp(t token.Type) (string, bool) {
	switch t {
	case token.PLUSEQ:
		return "+", true
	case token.MINUSEQ:
		return "-", true
	case token.STAREQ:
		return "*", true
	case token.SLASHEQ:
		return "/", true
	default:
		return "", false
	}
}

func (p *Parser) parseExpr(minPrec int) (tir.Expression, error) {
	left, err := p.parsePrefix()
	if err != nil {
		return nil, err
	}
	for {
		prec := infixPrecedence(p.cur.Type)
		if prec <= minPrec || prec == precLowest {
			break
		}
		op := p.cur.Literal
		p.next()
		right, err := p.parseExpr(prec)
		if err != nil {
			return nil, err
		}
		left = tir.Binary{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parsePrefix() (tir.Expression, error) {
	switch p.cur.Type {
	case token.MINUS:
		p.next()
		inner, err := p.parseExpr(precUnary)
		if err != nil {
			return nil, err
		}
		return tir.Unary{Op: "-", Value: inner}, nil
	case token.NOT:
		p.next()
		inner, err := p.parseExpr(precUnary)
		if err != nil {
			return nil, err
		}
		return tir.Unary{Op: "!", Value: inner}, nil
	case token.AMP:
		p.next()
		inner, err := p.parseExpr(precUnary)
		if err != nil {
			return nil, err
		}
		return tir.Refer{Value: inner}, nil
	case token.STAR:
		p.next()
		inner, err := p.parseExpr(precUnary)
		if err != nil {
			return nil, err
		}
		return tir.Deref{Value: inner}, nil
	default:
		return p.parsePostfix()
	}
}

func (p *Parser) parsePostfix() (tir.Expression, error) {
	e, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch p.cur.Type {
		case token.DOT:
			p.next()
			name, err := p.expect(token.IDENT)
			if err != nil {
				return nil, err
			}
			if p.curIs(token.LPAREN) {
				args, err := p.parseArgs()
				if err != nil {
					return nil, err
				}
				e = tir.MethodCall{Recv: e, Method: name.Literal, Args: args}
				continue
			}
			e = tir.MemberAccess{Recv: e, Name: name.Literal}
		case token.LBRACKET:
			p.next()
			idx, err := p.parseExpr(precLowest)
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(token.RBRACKET); err != nil {
				return nil, err
			}
			e = tir.Index{Ptr: e, Idx: idx}
		default:
			return e, nil
		}
	}
}

func (p *Parser) parseArgs() ([]tir.Expression, error) {
	if _, err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}
	var args []tir.Expression
	for !p.curIs(token.RPAREN) {
		a, err := p.parseExpr(precLowest)
		if err != nil {
			return nil, err
		}
		args = append(args, a)
		if p.curIs(token.COMMA) {
			p.next()
		}
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}
	return args, nil
}

func (p *Parser) parsePrimary() (tir.Expression, error) {
	switch p.cur.Type {
	case token.INT, token.FLOAT:
		v, err := strconv.ParseFloat(p.cur.Literal, 64)
		if err != nil {
			return nil, p.errorf("invalid numeric literal %q", p.cur.Literal)
		}
		p.next()
		return tir.NumLit{Value: v}, nil

	case token.CHAR:
		v := byte(0)
		if len(p.cur.Literal) > 0 {
			v = p.cur.Literal[0]
		}
		p.next()
		return tir.CharLit{Value: v}, nil

	case token.STRING:
		v := p.cur.Literal
		p.next()
		return tir.StringLit{Value: v}, nil

	case token.TRUE:
		p.next()
		return tir.BoolLit{Value: true}, nil

	case token.FALSE:
		p.next()
		return tir.BoolLit{Value: false}, nil

	case token.LPAREN:
		p.next()
		e, err := p.parseExpr(precLowest)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RPAREN); err != nil {
			return nil, err
		}
		return e, nil

	case token.ALLOC:
		p.next()
		if _, err := p.expect(token.LPAREN); err != nil {
			return nil, err
		}
		count, err := p.parseExpr(precLowest)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RPAREN); err != nil {
			return nil, err
		}
		return tir.Alloc{Count: count}, nil

	case token.FREE:
		p.next()
		if _, err := p.expect(token.LPAREN); err != nil {
			return nil, err
		}
		v, err := p.parseExpr(precLowest)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RPAREN); err != nil {
			return nil, err
		}
		return tir.Free{Value: v}, nil

	case token.IDENT:
		name := p.cur.Literal
		p.next()
		if p.curIs(token.NOT) {
			p.next()
			if _, err := p.expect(token.LPAREN); err != nil {
				return nil, err
			}
			var args []tir.MacroArg
			for !p.curIs(token.RPAREN) {
				a, err := p.parseMacroArg()
				if err != nil {
					return nil, err
				}
				args = append(args, a)
				if p.curIs(token.COMMA) {
					p.next()
				}
			}
			if _, err := p.expect(token.RPAREN); err != nil {
				return nil, err
			}
			return tir.MacroCallExpr{Call: tir.MacroCall{Name: name, Args: args}}, nil
		}
		if p.curIs(token.LPAREN) {
			args, err := p.parseArgs()
			if err != nil {
				return nil, err
			}
			return tir.Call{Name: name, Args: args}, nil
		}
		return tir.Var{Name: name}, nil

	default:
		return nil, p.errorf("unexpected token %s %q in expression", p.cur.Type, p.cur.Literal)
	}
}

// parseConstExpr parses the compile-time constant-expression grammar
// used by assert/const/if-at-top-level (spec §4.4): a restricted
// expression grammar over Float/Char/true/false/identifiers, "TARGET",
// isdef(NAME), and is_movable(Type), plus the same binary operators as
// runtime expressions.
func (p *Parser) parseConstExpr() (tir.Constant, error) {
	return p.parseConstBinary(precLowest)
}

func (p *Parser) parseConstBinary(minPrec int) (tir.Constant, error) {
	left, err := p.parseConstUnary()
	if err != nil {
		return nil, err
	}
	for {
		prec := infixPrecedence(p.cur.Type)
		if prec <= minPrec || prec == precLowest {
			break
		}
		op := p.cur.Literal
		p.next()
		right, err := p.parseConstBinary(prec)
		if err != nil {
			return nil, err
		}
		left = tir.CBin{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseConstUnary() (tir.Constant, error) {
	if p.curIs(token.NOT) {
		p.next()
		inner, err := p.parseConstUnary()
		if err != nil {
			return nil, err
		}
		return tir.CNot{Inner: inner}, nil
	}
	return p.parseConstPrimary()
}

func (p *Parser) parseConstPrimary() (tir.Constant, error) {
	switch p.cur.Type {
	case token.INT, token.FLOAT:
		v, err := strconv.ParseFloat(p.cur.Literal, 64)
		if err != nil {
			return nil, p.errorf("invalid numeric literal %q", p.cur.Literal)
		}
		p.next()
		return tir.CFloat(v), nil

	case token.CHAR:
		v := byte(0)
		if len(p.cur.Literal) > 0 {
			v = p.cur.Literal[0]
		}
		p.next()
		return tir.CChar(v), nil

	case token.TRUE:
		p.next()
		return tir.CTrue{}, nil

	case token.FALSE:
		p.next()
		return tir.CFalse{}, nil

	case token.LPAREN:
		p.next()
		v, err := p.parseConstExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RPAREN); err != nil {
			return nil, err
		}
		return v, nil

	case token.IDENT:
		name := p.cur.Literal
		switch name {
		case "isdef":
			p.next()
			if _, err := p.expect(token.LPAREN); err != nil {
				return nil, err
			}
			arg, err := p.expect(token.IDENT)
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(token.RPAREN); err != nil {
				return nil, err
			}
			return tir.CIsDefined{Name: arg.Literal}, nil
		case "is_movable":
			p.next()
			if _, err := p.expect(token.LPAREN); err != nil {
				return nil, err
			}
			typ, err := p.parseType()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(token.RPAREN); err != nil {
				return nil, err
			}
			return tir.CIsMovable{Type: typ}, nil
		default:
			p.next()
			return tir.CRef{Name: name}, nil
		}

	default:
		return nil, p.errorf("unexpected token %s %q in constant expression", p.cur.Type, p.cur.Literal)
	}
}
