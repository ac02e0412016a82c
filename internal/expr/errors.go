package expr

import (
	"errors"
	"fmt"
)

var (
	ErrSyntax      = errors.New("syntax error")
	ErrUnknownName = errors.New("name not allowed")
	ErrArity       = errors.New("wrong number of arguments")
	ErrProbe       = errors.New("probe evaluation failed")

	ErrDivisionByZero = errors.New("division by zero")
	ErrDomain         = errors.New("math domain error")
	ErrNonFinite      = errors.New("non-finite result")
)

// FormulaError reports why a formula could not be compiled. Offset is the
// byte offset into Source, or -1 when the failure has no position.
type FormulaError struct {
	Source string
	Offset int
	Msg    string
	Err    error
}

func (e *FormulaError) Error() string {
	if e.Offset < 0 {
		return fmt.Sprintf("formula %q: %v: %s", e.Source, e.Err, e.Msg)
	}
	return fmt.Sprintf("formula %q: offset %d: %v: %s", e.Source, e.Offset, e.Err, e.Msg)
}

func (e *FormulaError) Unwrap() error { return e.Err }
