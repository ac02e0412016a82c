package expr

import (
	"fmt"
	"math"
	"sort"
)

type builtin struct {
	minArgs int
	maxArgs int
	fn      func(args []float64) (float64, error)
}

// call runs the function and turns NaN into a domain error and an infinite
// result of finite arguments into an overflow.
func (b builtin) call(args []float64) (float64, error) {
	v, err := b.fn(args)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) {
		return 0, ErrDomain
	}
	if math.IsInf(v, 0) {
		for _, a := range args {
			if math.IsInf(a, 0) {
				return v, nil
			}
		}
		return 0, fmt.Errorf("%w: overflow", ErrNonFinite)
	}
	return v, nil
}

func unary(f func(float64) float64) builtin {
	return builtin{1, 1, func(a []float64) (float64, error) { return f(a[0]), nil }}
}

func binary(f func(float64, float64) float64) builtin {
	return builtin{2, 2, func(a []float64) (float64, error) { return f(a[0], a[1]), nil }}
}

// domain wraps f so that arguments outside ok fail with ErrDomain.
func domain(f func(float64) float64, ok func(float64) bool) builtin {
	return builtin{1, 1, func(a []float64) (float64, error) {
		if !ok(a[0]) {
			return 0, ErrDomain
		}
		return f(a[0]), nil
	}}
}

func positive(x float64) bool { return x > 0 }

func notPole(x float64) bool { return !(x <= 0 && x == math.Trunc(x)) }

func logN(a []float64) (float64, error) {
	if a[0] <= 0 {
		return 0, ErrDomain
	}
	if len(a) == 1 {
		return math.Log(a[0]), nil
	}
	if a[1] <= 0 {
		return 0, ErrDomain
	}
	if a[1] == 1 {
		return 0, ErrDivisionByZero
	}
	return math.Log(a[0]) / math.Log(a[1]), nil
}

// builtins is the allow-list of callable names.
var builtins = map[string]builtin{
	"sin":   unary(math.Sin),
	"cos":   unary(math.Cos),
	"tan":   unary(math.Tan),
	"asin":  domain(math.Asin, func(x float64) bool { return x >= -1 && x <= 1 }),
	"acos":  domain(math.Acos, func(x float64) bool { return x >= -1 && x <= 1 }),
	"atan":  unary(math.Atan),
	"atan2": binary(math.Atan2),
	"sinh":  unary(math.Sinh),
	"cosh":  unary(math.Cosh),
	"tanh":  unary(math.Tanh),
	"asinh": unary(math.Asinh),
	"acosh": domain(math.Acosh, func(x float64) bool { return x >= 1 }),
	"atanh": domain(math.Atanh, func(x float64) bool { return x > -1 && x < 1 }),
	"exp":   unary(math.Exp),
	"expm1": unary(math.Expm1),
	"log":   {1, 2, logN},
	"log10": domain(math.Log10, positive),
	"log2":  domain(math.Log2, positive),
	"log1p": domain(math.Log1p, func(x float64) bool { return x > -1 }),
	"sqrt":  domain(math.Sqrt, func(x float64) bool { return x >= 0 }),
	"cbrt":  unary(math.Cbrt),
	"abs":   unary(math.Abs),
	"fabs":  unary(math.Abs),
	"pow": {2, 2, func(a []float64) (float64, error) {
		return power(a[0], a[1])
	}},
	"hypot":    binary(math.Hypot),
	"floor":    unary(math.Floor),
	"ceil":     unary(math.Ceil),
	"trunc":    unary(math.Trunc),
	"copysign": binary(math.Copysign),
	"fmod": {2, 2, func(a []float64) (float64, error) {
		if a[1] == 0 {
			return 0, ErrDomain
		}
		return math.Mod(a[0], a[1]), nil
	}},
	"degrees": unary(func(x float64) float64 { return x * 180 / math.Pi }),
	"radians": unary(func(x float64) float64 { return x * math.Pi / 180 }),
	"erf":     unary(math.Erf),
	"erfc":    unary(math.Erfc),
	"gamma":   domain(math.Gamma, notPole),
	"lgamma": domain(func(x float64) float64 {
		v, _ := math.Lgamma(x)
		return v
	}, notPole),
}

// constants is the allow-list of named values.
var constants = map[string]float64{
	"pi":  math.Pi,
	"π":   math.Pi,
	"e":   math.E,
	"tau": 2 * math.Pi,
}

// Functions lists the callable names a formula may use.
func Functions() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Constants lists the named constants a formula may use.
func Constants() []string {
	names := make([]string, 0, len(constants))
	for name := range constants {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func reserved(name string) bool {
	_, isFn := builtins[name]
	_, isConst := constants[name]
	return isFn || isConst
}
