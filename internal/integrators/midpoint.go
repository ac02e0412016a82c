package integrators

import "github.com/san-kum/odetrace/internal/dynamo"

var twoStages = []string{"k1", "k2"}

// Midpoint is the explicit midpoint method (second order).
type Midpoint struct{}

func NewMidpoint() *Midpoint {
	return &Midpoint{}
}

func (m *Midpoint) Name() string     { return "midpoint" }
func (m *Midpoint) Order() int       { return 2 }
func (m *Midpoint) Stages() []string { return twoStages }

func (m *Midpoint) Step(f dynamo.Formula, x, y, h float64, k []float64) (float64, error) {
	half := h * 0.5

	k1, err := dynamo.EvalSlope(f, "k1", x, y)
	if err != nil {
		return 0, err
	}
	k2, err := dynamo.EvalSlope(f, "k2", x+half, y+half*k1)
	if err != nil {
		return 0, err
	}

	k[0], k[1] = k1, k2
	return y + h*k2, nil
}

// Heun is the improved Euler method: an Euler predictor averaged with the
// slope at the predicted point.
type Heun struct{}

func NewHeun() *Heun {
	return &Heun{}
}

func (h *Heun) Name() string     { return "heun" }
func (h *Heun) Order() int       { return 2 }
func (h *Heun) Stages() []string { return twoStages }

func (h *Heun) Step(f dynamo.Formula, x, y, dx float64, k []float64) (float64, error) {
	k1, err := dynamo.EvalSlope(f, "k1", x, y)
	if err != nil {
		return 0, err
	}
	k2, err := dynamo.EvalSlope(f, "k2", x+dx, y+dx*k1)
	if err != nil {
		return 0, err
	}

	k[0], k[1] = k1, k2
	return y + dx*0.5*(k1+k2), nil
}
