package expr

import (
	"math"
	"strconv"
	"strings"
)

// node is one vertex of a compiled formula. The set of implementations is
// closed: numbers, variables, unary minus, binary operators and calls into
// the builtin table.
type node interface {
	eval(vars []float64) (float64, error)
	format(sb *strings.Builder)
}

type numNode struct{ v float64 }

func (n numNode) eval([]float64) (float64, error) { return n.v, nil }

func (n numNode) format(sb *strings.Builder) {
	sb.WriteString(strconv.FormatFloat(n.v, 'g', -1, 64))
}

type varNode struct {
	name string
	idx  int
}

func (n varNode) eval(vars []float64) (float64, error) { return vars[n.idx], nil }

func (n varNode) format(sb *strings.Builder) { sb.WriteString(n.name) }

type negNode struct{ x node }

func (n negNode) eval(vars []float64) (float64, error) {
	v, err := n.x.eval(vars)
	if err != nil {
		return 0, err
	}
	return -v, nil
}

func (n negNode) format(sb *strings.Builder) {
	sb.WriteString("(-")
	n.x.format(sb)
	sb.WriteByte(')')
}

type binNode struct {
	op   kind
	l, r node
}

func (n binNode) eval(vars []float64) (float64, error) {
	a, err := n.l.eval(vars)
	if err != nil {
		return 0, err
	}
	b, err := n.r.eval(vars)
	if err != nil {
		return 0, err
	}
	switch n.op {
	case kAdd:
		return a + b, nil
	case kSub:
		return a - b, nil
	case kMul:
		return a * b, nil
	case kDiv:
		if b == 0 {
			return 0, ErrDivisionByZero
		}
		return a / b, nil
	case kMod:
		return floorMod(a, b)
	case kPow:
		return power(a, b)
	}
	panic("expr: unknown operator " + n.op.String())
}

func (n binNode) format(sb *strings.Builder) {
	sb.WriteByte('(')
	n.l.format(sb)
	sb.WriteString(" " + n.op.String() + " ")
	n.r.format(sb)
	sb.WriteByte(')')
}

type callNode struct {
	name string
	fn   builtin
	args []node
}

func (n callNode) eval(vars []float64) (float64, error) {
	var buf [2]float64
	args := buf[:0]
	for _, a := range n.args {
		v, err := a.eval(vars)
		if err != nil {
			return 0, err
		}
		args = append(args, v)
	}
	return n.fn.call(args)
}

func (n callNode) format(sb *strings.Builder) {
	sb.WriteString(n.name)
	sb.WriteByte('(')
	for i, a := range n.args {
		if i > 0 {
			sb.WriteString(", ")
		}
		a.format(sb)
	}
	sb.WriteByte(')')
}

// floorMod follows the sign of the divisor.
func floorMod(a, b float64) (float64, error) {
	if b == 0 {
		return 0, ErrDivisionByZero
	}
	m := math.Mod(a, b)
	if m != 0 && (m < 0) != (b < 0) {
		m += b
	}
	return m, nil
}

func power(a, b float64) (float64, error) {
	if a == 0 && b < 0 {
		return 0, ErrDivisionByZero
	}
	if a < 0 && b != math.Trunc(b) {
		return 0, ErrDomain
	}
	return math.Pow(a, b), nil
}
