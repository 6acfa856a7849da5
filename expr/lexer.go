//
// Copyright (C) 2026 Agent Studio Authors.  All rights reserved.
//
// agent-studio-go is licensed under the Apache License Version 2.0.
//
//

package expr

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokInt
	tokFloat
	tokString

	tokPlus
	tokMinus
	tokStar
	tokSlash
	tokPercent

	tokEq
	tokNe
	tokLt
	tokLe
	tokGt
	tokGe

	tokLParen
	tokRParen
	tokLBracket
	tokRBracket
	tokLBrace
	tokRBrace
	tokComma
	tokColon
	tokDot

	tokAnd
	tokOr
	tokNot
	tokIn
	tokIs
	tokTrue
	tokFalse
	tokNone
)

type token struct {
	kind tokenKind
	pos  int
	text string
	// num holds the parsed value for tokInt/tokFloat; str for tokString.
	intVal   int64
	floatVal float64
	strVal   string
}

var keywords = map[string]tokenKind{
	"and":   tokAnd,
	"or":    tokOr,
	"not":   tokNot,
	"in":    tokIn,
	"is":    tokIs,
	"True":  tokTrue,
	"False": tokFalse,
	"None":  tokNone,
}

// Reserved words whose presence always means a construct outside the subset.
var unsupportedKeywords = map[string]string{
	"lambda": "lambda",
	"for":    "comprehension",
	"if":     "conditional expression",
	"else":   "conditional expression",
	"await":  "await",
	"yield":  "yield",
	"import": "import",
	"def":    "function definition",
}

type lexer struct {
	src string
	pos int
}

func (l *lexer) next() (token, error) {
	l.skipSpace()
	start := l.pos
	if l.pos >= len(l.src) {
		return token{kind: tokEOF, pos: start}, nil
	}
	c := l.src[l.pos]
	switch {
	case c >= '0' && c <= '9' || c == '.' && l.peekDigit(1):
		return l.lexNumber()
	case c == '\'' || c == '"':
		return l.lexString()
	case isIdentStart(rune(c)) || c >= utf8.RuneSelf:
		return l.lexIdent()
	}
	l.pos++
	switch c {
	case '+':
		return token{kind: tokPlus, pos: start}, nil
	case '-':
		return token{kind: tokMinus, pos: start}, nil
	case '*':
		if l.eat('*') {
			return token{}, &UnsupportedError{Pos: start, Construct: "operator **"}
		}
		return token{kind: tokStar, pos: start}, nil
	case '/':
		if l.eat('/') {
			return token{}, &UnsupportedError{Pos: start, Construct: "operator //"}
		}
		return token{kind: tokSlash, pos: start}, nil
	case '%':
		return token{kind: tokPercent, pos: start}, nil
	case '=':
		if l.eat('=') {
			return token{kind: tokEq, pos: start}, nil
		}
		return token{}, &UnsupportedError{Pos: start, Construct: "assignment"}
	case '!':
		if l.eat('=') {
			return token{kind: tokNe, pos: start}, nil
		}
		return token{}, &SyntaxError{Pos: start, Msg: "unexpected character '!'"}
	case '<':
		if l.eat('=') {
			return token{kind: tokLe, pos: start}, nil
		}
		if l.eat('<') {
			return token{}, &UnsupportedError{Pos: start, Construct: "operator <<"}
		}
		return token{kind: tokLt, pos: start}, nil
	case '>':
		if l.eat('=') {
			return token{kind: tokGe, pos: start}, nil
		}
		if l.eat('>') {
			return token{}, &UnsupportedError{Pos: start, Construct: "operator >>"}
		}
		return token{kind: tokGt, pos: start}, nil
	case '(':
		return token{kind: tokLParen, pos: start}, nil
	case ')':
		return token{kind: tokRParen, pos: start}, nil
	case '[':
		return token{kind: tokLBracket, pos: start}, nil
	case ']':
		return token{kind: tokRBracket, pos: start}, nil
	case '{':
		return token{kind: tokLBrace, pos: start}, nil
	case '}':
		return token{kind: tokRBrace, pos: start}, nil
	case ',':
		return token{kind: tokComma, pos: start}, nil
	case ':':
		return token{kind: tokColon, pos: start}, nil
	case '.':
		return token{kind: tokDot, pos: start}, nil
	case '&', '|', '^', '~', '@':
		return token{}, &UnsupportedError{Pos: start, Construct: "operator " + string(c)}
	}
	return token{}, &SyntaxError{Pos: start, Msg: "unexpected character " + strconv.QuoteRune(rune(c))}
}

func (l *lexer) skipSpace() {
	for l.pos < len(l.src) {
		switch l.src[l.pos] {
		case ' ', '\t', '\r', '\n':
			l.pos++
		default:
			return
		}
	}
}

func (l *lexer) eat(c byte) bool {
	if l.pos < len(l.src) && l.src[l.pos] == c {
		l.pos++
		return true
	}
	return false
}

func (l *lexer) peekDigit(offset int) bool {
	i := l.pos + offset
	return i < len(l.src) && l.src[i] >= '0' && l.src[i] <= '9'
}

func (l *lexer) lexNumber() (token, error) {
	start := l.pos
	isFloat := false
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		if c >= '0' && c <= '9' {
			l.pos++
			continue
		}
		if c == '.' && !isFloat {
			isFloat = true
			l.pos++
			continue
		}
		if (c == 'e' || c == 'E') && l.pos > start {
			next := l.pos + 1
			if next < len(l.src) && (l.src[next] == '+' || l.src[next] == '-') {
				next++
			}
			if next < len(l.src) && l.src[next] >= '0' && l.src[next] <= '9' {
				isFloat = true
				l.pos = next
				continue
			}
		}
		break
	}
	text := l.src[start:l.pos]
	if isFloat {
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return token{}, &SyntaxError{Pos: start, Msg: "malformed number " + strconv.Quote(text)}
		}
		return token{kind: tokFloat, pos: start, text: text, floatVal: f}, nil
	}
	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		// Overflowing integer literals degrade to float.
		f, ferr := strconv.ParseFloat(text, 64)
		if ferr != nil {
			return token{}, &SyntaxError{Pos: start, Msg: "malformed number " + strconv.Quote(text)}
		}
		return token{kind: tokFloat, pos: start, text: text, floatVal: f}, nil
	}
	return token{kind: tokInt, pos: start, text: text, intVal: n}, nil
}

func (l *lexer) lexString() (token, error) {
	start := l.pos
	quote := l.src[l.pos]
	l.pos++
	var sb strings.Builder
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		if c == quote {
			l.pos++
			return token{kind: tokString, pos: start, strVal: sb.String()}, nil
		}
		if c == '\\' {
			l.pos++
			if l.pos >= len(l.src) {
				break
			}
			esc := l.src[l.pos]
			switch esc {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			case '\\', '\'', '"':
				sb.WriteByte(esc)
			default:
				sb.WriteByte('\\')
				sb.WriteByte(esc)
			}
			l.pos++
			continue
		}
		sb.WriteByte(c)
		l.pos++
	}
	return token{}, &SyntaxError{Pos: start, Msg: "unterminated string literal"}
}

func (l *lexer) lexIdent() (token, error) {
	start := l.pos
	for l.pos < len(l.src) {
		r, size := utf8.DecodeRuneInString(l.src[l.pos:])
		if !isIdentPart(r) {
			break
		}
		l.pos += size
	}
	text := l.src[start:l.pos]
	if construct, ok := unsupportedKeywords[text]; ok {
		return token{}, &UnsupportedError{Pos: start, Construct: construct}
	}
	if kind, ok := keywords[text]; ok {
		return token{kind: kind, pos: start, text: text}, nil
	}
	return token{kind: tokIdent, pos: start, text: text}, nil
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
