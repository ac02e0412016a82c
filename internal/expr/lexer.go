package expr

import (
	"fmt"
	"go/scanner"
	"go/token"
)

type kind int

const (
	kEOF kind = iota
	kNum
	kIdent
	kAdd
	kSub
	kMul
	kDiv
	kMod
	kPow
	kLParen
	kRParen
	kComma
)

var kindText = [...]string{
	kEOF:    "end of formula",
	kNum:    "number",
	kIdent:  "name",
	kAdd:    "+",
	kSub:    "-",
	kMul:    "*",
	kDiv:    "/",
	kMod:    "%",
	kPow:    "**",
	kLParen: "(",
	kRParen: ")",
	kComma:  ",",
}

func (k kind) String() string { return kindText[k] }

type lexeme struct {
	kind kind
	lit  string
	off  int
}

var operators = map[token.Token]kind{
	token.ADD:    kAdd,
	token.SUB:    kSub,
	token.MUL:    kMul,
	token.QUO:    kDiv,
	token.REM:    kMod,
	token.XOR:    kPow,
	token.LPAREN: kLParen,
	token.RPAREN: kRParen,
	token.COMMA:  kComma,
}

// lex splits src with the Go scanner and keeps only the tokens of the
// formula language. Two adjacent '*' become one power operator.
func lex(src string) ([]lexeme, error) {
	fset := token.NewFileSet()
	file := fset.AddFile("formula", fset.Base(), len(src))

	var scanErr *FormulaError
	var s scanner.Scanner
	s.Init(file, []byte(src), func(pos token.Position, msg string) {
		if scanErr == nil {
			scanErr = &FormulaError{Source: src, Offset: pos.Offset, Msg: msg, Err: ErrSyntax}
		}
	}, scanner.ScanComments)

	var out []lexeme
	for {
		pos, tok, lit := s.Scan()
		if scanErr != nil {
			return nil, scanErr
		}
		off := file.Offset(pos)

		switch tok {
		case token.EOF:
			return append(out, lexeme{kind: kEOF, off: len(src)}), nil
		case token.SEMICOLON:
			// automatic semicolon at the end of the input
			if lit == "\n" {
				continue
			}
		case token.INT, token.FLOAT:
			out = append(out, lexeme{kind: kNum, lit: lit, off: off})
			continue
		case token.IDENT:
			out = append(out, lexeme{kind: kIdent, lit: lit, off: off})
			continue
		case token.MUL:
			if n := len(out); n > 0 && out[n-1].kind == kMul && out[n-1].off+1 == off {
				out[n-1].kind = kPow
				out[n-1].lit = "**"
				continue
			}
		}

		if k, ok := operators[tok]; ok {
			out = append(out, lexeme{kind: k, lit: tok.String(), off: off})
			continue
		}

		text := lit
		if text == "" {
			text = tok.String()
		}
		return nil, &FormulaError{Source: src, Offset: off, Msg: fmt.Sprintf("%q is not allowed in a formula", text), Err: ErrSyntax}
	}
}
