package integrators

import "github.com/san-kum/odetrace/internal/dynamo"

// Euler is the explicit first-order method y' = y + h*f(x, y). It retains no
// intermediate slopes.
type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Name() string     { return "euler" }
func (e *Euler) Order() int       { return 1 }
func (e *Euler) Stages() []string { return nil }

func (e *Euler) Step(f dynamo.Formula, x, y, h float64, _ []float64) (float64, error) {
	slope, err := dynamo.EvalSlope(f, "f", x, y)
	if err != nil {
		return 0, err
	}
	return y + h*slope, nil
}
