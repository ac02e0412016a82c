package expr

import (
	"fmt"
	"strconv"
	"strings"
)

// maxDepth bounds nesting so hostile input cannot exhaust the stack.
const maxDepth = 200

// parser is a recursive-descent parser over the grammar
//
//	expr    = term { ("+" | "-") term }
//	term    = unary { ("*" | "/" | "%") unary }
//	unary   = ("+" | "-") unary | power
//	power   = primary [ "**" unary ]
//	primary = number | name | name "(" expr { "," expr } ")" | "(" expr ")"
//
// "**" is right-associative and binds tighter than a leading sign, so
// -x**2 is -(x**2).
type parser struct {
	src   string
	toks  []lexeme
	pos   int
	vars  map[string]int
	depth int
}

func (p *parser) peek() lexeme { return p.toks[p.pos] }

func (p *parser) next() lexeme {
	t := p.toks[p.pos]
	if t.kind != kEOF {
		p.pos++
	}
	return t
}

func (p *parser) errorf(off int, err error, format string, args ...any) error {
	return &FormulaError{Source: p.src, Offset: off, Msg: fmt.Sprintf(format, args...), Err: err}
}

func (p *parser) unexpected(t lexeme) error {
	if t.kind == kEOF {
		return p.errorf(t.off, ErrSyntax, "unexpected end of formula")
	}
	return p.errorf(t.off, ErrSyntax, "unexpected %s", t.kind)
}

func (p *parser) parse() (node, error) {
	n, err := p.expr()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != kEOF {
		return nil, p.unexpected(t)
	}
	return n, nil
}

func (p *parser) enter() error {
	p.depth++
	if p.depth > maxDepth {
		return p.errorf(p.peek().off, ErrSyntax, "formula nested deeper than %d", maxDepth)
	}
	return nil
}

func (p *parser) leave() { p.depth-- }

func (p *parser) expr() (node, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	left, err := p.term()
	if err != nil {
		return nil, err
	}
	for {
		op := p.peek().kind
		if op != kAdd && op != kSub {
			return left, nil
		}
		p.next()
		right, err := p.term()
		if err != nil {
			return nil, err
		}
		left = binNode{op: op, l: left, r: right}
	}
}

func (p *parser) term() (node, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for {
		op := p.peek().kind
		if op != kMul && op != kDiv && op != kMod {
			return left, nil
		}
		p.next()
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		left = binNode{op: op, l: left, r: right}
	}
}

func (p *parser) unary() (node, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	switch p.peek().kind {
	case kAdd:
		p.next()
		return p.unary()
	case kSub:
		p.next()
		x, err := p.unary()
		if err != nil {
			return nil, err
		}
		return negNode{x: x}, nil
	}
	return p.power()
}

func (p *parser) power() (node, error) {
	base, err := p.primary()
	if err != nil {
		return nil, err
	}
	if p.peek().kind != kPow {
		return base, nil
	}
	p.next()
	exp, err := p.unary()
	if err != nil {
		return nil, err
	}
	return binNode{op: kPow, l: base, r: exp}, nil
}

func (p *parser) primary() (node, error) {
	t := p.next()
	switch t.kind {
	case kNum:
		return p.number(t)
	case kIdent:
		if p.peek().kind == kLParen {
			return p.call(t)
		}
		return p.name(t)
	case kLParen:
		n, err := p.expr()
		if err != nil {
			return nil, err
		}
		if c := p.next(); c.kind != kRParen {
			return nil, p.errorf(c.off, ErrSyntax, "expected ) but found %s", c.kind)
		}
		return n, nil
	}
	return nil, p.unexpected(t)
}

// number accepts decimal literals only. Prefixed forms (0x, 0o, 0b) and
// integers with a leading zero such as 010 are rejected.
func (p *parser) number(t lexeme) (node, error) {
	lit := strings.ReplaceAll(t.lit, "_", "")
	if !decimalLiteral(lit) {
		return nil, p.errorf(t.off, ErrSyntax, "number %q is not a decimal literal", t.lit)
	}
	v, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		return nil, p.errorf(t.off, ErrSyntax, "malformed number %q", t.lit)
	}
	return numNode{v: v}, nil
}

func decimalLiteral(lit string) bool {
	if len(lit) < 2 || lit[0] != '0' {
		return true
	}
	switch lit[1] {
	case 'x', 'X', 'o', 'O', 'b', 'B':
		return false
	}
	if strings.ContainsAny(lit, ".eE") {
		return true
	}
	return strings.Trim(lit, "0") == ""
}

func (p *parser) name(t lexeme) (node, error) {
	if idx, ok := p.vars[t.lit]; ok {
		return varNode{name: t.lit, idx: idx}, nil
	}
	if v, ok := constants[t.lit]; ok {
		return numNode{v: v}, nil
	}
	if _, ok := builtins[t.lit]; ok {
		return nil, p.errorf(t.off, ErrSyntax, "function %s used without arguments", t.lit)
	}
	return nil, p.errorf(t.off, ErrUnknownName, "%q is not a declared variable, constant or function", t.lit)
}

func (p *parser) call(t lexeme) (node, error) {
	fn, ok := builtins[t.lit]
	if !ok {
		if _, isVar := p.vars[t.lit]; isVar {
			return nil, p.errorf(t.off, ErrSyntax, "variable %s is not callable", t.lit)
		}
		return nil, p.errorf(t.off, ErrUnknownName, "%q is not an allowed function", t.lit)
	}
	p.next()

	var args []node
	for {
		a, err := p.expr()
		if err != nil {
			return nil, err
		}
		args = append(args, a)
		c := p.next()
		if c.kind == kRParen {
			break
		}
		if c.kind != kComma {
			return nil, p.errorf(c.off, ErrSyntax, "expected , or ) but found %s", c.kind)
		}
	}
	if len(args) < fn.minArgs || len(args) > fn.maxArgs {
		want := strconv.Itoa(fn.minArgs)
		if fn.maxArgs != fn.minArgs {
			want += " or " + strconv.Itoa(fn.maxArgs)
		}
		return nil, p.errorf(t.off, ErrArity, "%s takes %s arguments, got %d", t.lit, want, len(args))
	}
	return callNode{name: t.lit, fn: fn, args: args}, nil
}
