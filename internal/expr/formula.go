package expr

import (
	"fmt"
	"go/token"
	"math"
	"strings"
)

// Formula is a compiled formula. The zero value is not usable; build one
// with Compile.
type Formula struct {
	src  string
	vars []string
	root node
}

// Compile parses text as a formula over the ordered variables vars. The
// formula is probed once with every variable set to 1.0; a probe that fails
// or is not finite rejects the formula. All failures are *FormulaError.
func Compile(text string, vars ...string) (*Formula, error) {
	index := make(map[string]int, len(vars))
	for i, v := range vars {
		if !token.IsIdentifier(v) {
			return nil, &FormulaError{Source: text, Offset: -1, Msg: fmt.Sprintf("variable %q is not an identifier", v), Err: ErrSyntax}
		}
		if reserved(v) {
			return nil, &FormulaError{Source: text, Offset: -1, Msg: fmt.Sprintf("variable %q shadows a builtin name", v), Err: ErrSyntax}
		}
		if _, dup := index[v]; dup {
			return nil, &FormulaError{Source: text, Offset: -1, Msg: fmt.Sprintf("variable %q declared twice", v), Err: ErrSyntax}
		}
		index[v] = i
	}

	toks, err := lex(text)
	if err != nil {
		return nil, err
	}
	p := &parser{src: text, toks: toks, vars: index}
	root, err := p.parse()
	if err != nil {
		return nil, err
	}

	f := &Formula{src: strings.TrimSpace(text), vars: append([]string(nil), vars...), root: root}
	if err := f.probe(); err != nil {
		return nil, &FormulaError{Source: text, Offset: -1, Msg: err.Error(), Err: ErrProbe}
	}
	return f, nil
}

// MustCompile is like Compile but panics on error. It is meant for formulas
// fixed at build time.
func MustCompile(text string, vars ...string) *Formula {
	f, err := Compile(text, vars...)
	if err != nil {
		panic(err)
	}
	return f
}

func (f *Formula) probe() error {
	args := make([]float64, len(f.vars))
	for i := range args {
		args[i] = 1.0
	}
	_, err := f.Eval(args...)
	return err
}

// Eval evaluates the formula with args bound positionally to the declared
// variables. A NaN or infinite result is reported as ErrNonFinite.
func (f *Formula) Eval(args ...float64) (float64, error) {
	if len(args) != len(f.vars) {
		return 0, fmt.Errorf("%w: formula takes %d values, got %d", ErrArity, len(f.vars), len(args))
	}
	v, err := f.root.eval(args)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %g", ErrNonFinite, v)
	}
	return v, nil
}

func (f *Formula) Arity() int { return len(f.vars) }

// Vars returns the declared variable names in order.
func (f *Formula) Vars() []string { return append([]string(nil), f.vars...) }

// String returns the source text.
func (f *Formula) String() string { return f.src }

// Tree renders the parsed tree fully parenthesised.
func (f *Formula) Tree() string {
	var sb strings.Builder
	f.root.format(&sb)
	return sb.String()
}
