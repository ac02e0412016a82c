// Package expr compiles restricted formula text into pure real functions.
//
// The accepted language is arithmetic only: numbers, the declared variables,
// the constants pi, e and tau, the operators + - * / % and ** (or ^), unary
// signs, parentheses and calls to a closed set of real functions
// (sin, cos, exp, log, sqrt, abs, pow, ...). Anything else, including
// attribute access, indexing, assignment, strings and keywords, is rejected
// while parsing. Every node of the resulting tree is one of a fixed set of
// node kinds, so evaluation cannot reach anything outside that set.
//
//	f, err := expr.Compile("x**2 + sin(y)", "x", "y")
//	v, err := f.Eval(1.5, 0.2)
//
// Compile probes the formula once with every variable set to 1.0 and fails
// if that evaluation errors or is not finite. A compiled Formula is
// immutable and safe for concurrent use.
package expr
