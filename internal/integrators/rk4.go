package integrators

import "github.com/san-kum/odetrace/internal/dynamo"

var rk4Stages = []string{"k1", "k2", "k3", "k4"}

// RK4 is the classical fourth-order Runge-Kutta method. All four slopes are
// handed back to the caller.
type RK4 struct{}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) Name() string     { return "rk4" }
func (r *RK4) Order() int       { return 4 }
func (r *RK4) Stages() []string { return rk4Stages }

func (r *RK4) Step(f dynamo.Formula, x, y, h float64, k []float64) (float64, error) {
	half := h * 0.5

	k1, err := dynamo.EvalSlope(f, "k1", x, y)
	if err != nil {
		return 0, err
	}
	k2, err := dynamo.EvalSlope(f, "k2", x+half, y+half*k1)
	if err != nil {
		return 0, err
	}
	k3, err := dynamo.EvalSlope(f, "k3", x+half, y+half*k2)
	if err != nil {
		return 0, err
	}
	k4, err := dynamo.EvalSlope(f, "k4", x+h, y+h*k3)
	if err != nil {
		return 0, err
	}

	k[0], k[1], k[2], k[3] = k1, k2, k3, k4
	return y + (h/6.0)*(k1+2*k2+2*k3+k4), nil
}
