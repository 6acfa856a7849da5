//
// Copyright (C) 2026 Agent Studio Authors.  All rights reserved.
//
// agent-studio-go is licensed under the Apache License Version 2.0.
//
//

package expr

// parser is a recursive-descent parser over the token stream. Precedence
// mirrors the source language: or < and < not < comparison < additive <
// multiplicative < unary < postfix < primary.
type parser struct {
	lex  lexer
	tok  token
	err  error
	next token
	has  bool
}

func parse(src string) (node, error) {
	p := &parser{lex: lexer{src: src}}
	p.advance()
	if p.err != nil {
		return nil, p.err
	}
	if p.tok.kind == tokEOF {
		return nil, &SyntaxError{Pos: 0, Msg: "empty expression"}
	}
	root, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.tok.kind != tokEOF {
		return nil, &SyntaxError{Pos: p.tok.pos, Msg: "unexpected trailing input"}
	}
	return root, nil
}

func (p *parser) advance() {
	if p.err != nil {
		return
	}
	if p.has {
		p.tok = p.next
		p.has = false
		return
	}
	tok, err := p.lex.next()
	if err != nil {
		p.err = err
		return
	}
	p.tok = tok
}

// peek looks one token ahead without consuming the current token.
func (p *parser) peek() token {
	if p.err != nil || p.has {
		return p.next
	}
	tok, err := p.lex.next()
	if err != nil {
		p.err = err
		return token{}
	}
	p.next = tok
	p.has = true
	return tok
}

func (p *parser) expect(kind tokenKind, what string) error {
	if p.err != nil {
		return p.err
	}
	if p.tok.kind != kind {
		return &SyntaxError{Pos: p.tok.pos, Msg: "expected " + what}
	}
	p.advance()
	return p.err
}

func (p *parser) parseExpr() (node, error) {
	return p.parseOr()
}

func (p *parser) parseOr() (node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	if p.err != nil {
		return nil, p.err
	}
	if p.tok.kind != tokOr {
		return left, nil
	}
	values := []node{left}
	for p.err == nil && p.tok.kind == tokOr {
		p.advance()
		v, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	if p.err != nil {
		return nil, p.err
	}
	return &boolNode{op: opOr, values: values}, nil
}

func (p *parser) parseAnd() (node, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	if p.err != nil {
		return nil, p.err
	}
	if p.tok.kind != tokAnd {
		return left, nil
	}
	values := []node{left}
	for p.err == nil && p.tok.kind == tokAnd {
		p.advance()
		v, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	if p.err != nil {
		return nil, p.err
	}
	return &boolNode{op: opAnd, values: values}, nil
}

func (p *parser) parseNot() (node, error) {
	if p.err != nil {
		return nil, p.err
	}
	if p.tok.kind == tokNot {
		p.advance()
		operand, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &unaryNode{op: opNot, operand: operand}, nil
	}
	return p.parseComparison()
}

func (p *parser) parseComparison() (node, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	var ops []compareOp
	var comparators []node
	for p.err == nil {
		op, ok := p.compareOpAt()
		if !ok {
			break
		}
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
		comparators = append(comparators, right)
	}
	if p.err != nil {
		return nil, p.err
	}
	if len(ops) == 0 {
		return left, nil
	}
	return &compareNode{left: left, ops: ops, comparators: comparators}, nil
}

// compareOpAt consumes a comparison operator at the current token, handling
// the two-token forms "not in" and "is not".
func (p *parser) compareOpAt() (compareOp, bool) {
	switch p.tok.kind {
	case tokEq:
		p.advance()
		return cmpEq, true
	case tokNe:
		p.advance()
		return cmpNe, true
	case tokLt:
		p.advance()
		return cmpLt, true
	case tokLe:
		p.advance()
		return cmpLe, true
	case tokGt:
		p.advance()
		return cmpGt, true
	case tokGe:
		p.advance()
		return cmpGe, true
	case tokIn:
		p.advance()
		return cmpIn, true
	case tokNot:
		if p.peek().kind == tokIn {
			p.advance()
			p.advance()
			return cmpNotIn, true
		}
		return 0, false
	case tokIs:
		if p.peek().kind == tokNot {
			p.advance()
			p.advance()
			return cmpIsNot, true
		}
		p.advance()
		return cmpIs, true
	}
	return 0, false
}

func (p *parser) parseAdditive() (node, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.err == nil && (p.tok.kind == tokPlus || p.tok.kind == tokMinus) {
		op := opAdd
		if p.tok.kind == tokMinus {
			op = opSub
		}
		p.advance()
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &binaryNode{op: op, left: left, right: right}
	}
	return left, p.err
}

func (p *parser) parseMultiplicative() (node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.err == nil {
		var op binaryOp
		switch p.tok.kind {
		case tokStar:
			op = opMul
		case tokSlash:
			op = opDiv
		case tokPercent:
			op = opMod
		default:
			return left, nil
		}
		p.advance()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &binaryNode{op: op, left: left, right: right}
	}
	return left, p.err
}

func (p *parser) parseUnary() (node, error) {
	if p.err != nil {
		return nil, p.err
	}
	switch p.tok.kind {
	case tokMinus:
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &unaryNode{op: opNeg, operand: operand}, nil
	case tokPlus:
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &unaryNode{op: opPos, operand: operand}, nil
	}
	return p.parsePostfix()
}

func (p *parser) parsePostfix() (node, error) {
	value, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for p.err == nil {
		switch p.tok.kind {
		case tokDot:
			p.advance()
			if p.err != nil {
				return nil, p.err
			}
			if p.tok.kind != tokIdent {
				return nil, &SyntaxError{Pos: p.tok.pos, Msg: "expected attribute name after '.'"}
			}
			value = &attributeNode{value: value, attr: p.tok.text}
			p.advance()
		case tokLBracket:
			p.advance()
			index, err := p.parseSubscriptIndex()
			if err != nil {
				return nil, err
			}
			if err := p.expect(tokRBracket, "']'"); err != nil {
				return nil, err
			}
			value = &subscriptNode{value: value, index: index}
		case tokLParen:
			return nil, &UnsupportedError{Pos: p.tok.pos, Construct: "function call"}
		default:
			return value, p.err
		}
	}
	return value, p.err
}

// parseSubscriptIndex parses either a plain expression or a slice of the
// form [lower:upper:step] with every part optional.
func (p *parser) parseSubscriptIndex() (node, error) {
	if p.err != nil {
		return nil, p.err
	}
	sl := &sliceNode{}
	isSlice := false
	if p.tok.kind != tokColon {
		lower, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		sl.lower = lower
	}
	if p.tok.kind == tokColon {
		isSlice = true
		p.advance()
		if p.err == nil && p.tok.kind != tokColon && p.tok.kind != tokRBracket {
			upper, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			sl.upper = upper
		}
		if p.err == nil && p.tok.kind == tokColon {
			p.advance()
			if p.err == nil && p.tok.kind != tokRBracket {
				step, err := p.parseExpr()
				if err != nil {
					return nil, err
				}
				sl.step = step
			}
		}
	}
	if p.err != nil {
		return nil, p.err
	}
	if isSlice {
		return sl, nil
	}
	return sl.lower, nil
}

func (p *parser) parsePrimary() (node, error) {
	if p.err != nil {
		return nil, p.err
	}
	tok := p.tok
	switch tok.kind {
	case tokInt:
		p.advance()
		return &literalNode{value: tok.intVal}, p.err
	case tokFloat:
		p.advance()
		return &literalNode{value: tok.floatVal}, p.err
	case tokString:
		p.advance()
		return &literalNode{value: tok.strVal}, p.err
	case tokTrue:
		p.advance()
		return &literalNode{value: true}, p.err
	case tokFalse:
		p.advance()
		return &literalNode{value: false}, p.err
	case tokNone:
		p.advance()
		return &literalNode{value: nil}, p.err
	case tokIdent:
		p.advance()
		return &nameNode{name: tok.text}, p.err
	case tokLParen:
		return p.parseParen()
	case tokLBracket:
		return p.parseList()
	case tokLBrace:
		return p.parseDict()
	case tokEOF:
		return nil, &SyntaxError{Pos: tok.pos, Msg: "unexpected end of expression"}
	}
	return nil, &SyntaxError{Pos: tok.pos, Msg: "unexpected token"}
}

func (p *parser) parseParen() (node, error) {
	p.advance()
	if p.err != nil {
		return nil, p.err
	}
	// () is the empty tuple.
	if p.tok.kind == tokRParen {
		p.advance()
		return &tupleNode{}, p.err
	}
	first, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.tok.kind == tokRParen {
		p.advance()
		return first, p.err
	}
	elts := []node{first}
	for p.err == nil && p.tok.kind == tokComma {
		p.advance()
		if p.err != nil {
			return nil, p.err
		}
		if p.tok.kind == tokRParen {
			break
		}
		elt, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		elts = append(elts, elt)
	}
	if err := p.expect(tokRParen, "')'"); err != nil {
		return nil, err
	}
	return &tupleNode{elts: elts}, nil
}

func (p *parser) parseList() (node, error) {
	p.advance()
	lst := &listNode{}
	for p.err == nil && p.tok.kind != tokRBracket {
		elt, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		lst.elts = append(lst.elts, elt)
		if p.tok.kind == tokComma {
			p.advance()
			continue
		}
		break
	}
	if err := p.expect(tokRBracket, "']'"); err != nil {
		return nil, err
	}
	return lst, nil
}

func (p *parser) parseDict() (node, error) {
	pos := p.tok.pos
	p.advance()
	d := &dictNode{}
	for p.err == nil && p.tok.kind != tokRBrace {
		key, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if p.tok.kind != tokColon {
			// {a, b} would be a set literal, which is outside the subset.
			return nil, &UnsupportedError{Pos: pos, Construct: "set literal"}
		}
		p.advance()
		value, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		d.keys = append(d.keys, key)
		d.values = append(d.values, value)
		if p.tok.kind == tokComma {
			p.advance()
			continue
		}
		break
	}
	if err := p.expect(tokRBrace, "'}'"); err != nil {
		return nil, err
	}
	return d, nil
}
