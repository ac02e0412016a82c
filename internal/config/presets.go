package config

import "sort"

// Presets are ready-made problems, most with a closed-form solution.
var Presets = map[string]*Config{
	"growth": {
		Label: "exponential growth", Method: "rk4", Slope: "y", Exact: "exp(x)",
		X0: 0, Y0: 1, H: 0.1, XEnd: 1,
	},
	"decay": {
		Label: "exponential decay", Method: "rk4", Slope: "-2*y", Exact: "exp(-2*x)",
		X0: 0, Y0: 1, H: 0.1, XEnd: 2,
	},
	"linear": {
		Label: "linear forcing", Method: "rk4", Slope: "x + y", Exact: "2*exp(x) - x - 1",
		X0: 0, Y0: 1, H: 0.1, XEnd: 1,
	},
	"logistic": {
		Label: "logistic growth", Method: "rk4", Slope: "y*(1 - y)", Exact: "1/(1 + 9*exp(-x))",
		X0: 0, Y0: 0.1, H: 0.5, XEnd: 10,
	},
	"trig": {
		Label: "pure quadrature", Method: "rk4", Slope: "cos(x)", Exact: "sin(x)",
		X0: 0, Y0: 0, H: 0.2, XEnd: 6.4,
	},
	"cooling": {
		Label: "newton cooling", Method: "rk4", Slope: "-0.5*(y - 20)", Exact: "20 + 80*exp(-0.5*x)",
		X0: 0, Y0: 100, H: 1, XEnd: 10,
	},
	"singular": {
		Label: "slope pole at x = 0", Method: "euler", Slope: "1/x", Exact: "log(abs(x))",
		X0: -1, Y0: 0, H: 0.25, XEnd: 1,
	},
}

// GetPreset returns a copy of the named preset filled with the default
// presentation settings, or nil.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := p.Clone()
	if cfg.Precision == 0 {
		cfg.Precision = DefaultPrecision
	}
	if cfg.Grid == 0 {
		cfg.Grid = DefaultGrid
	}
	if cfg.DataDir == "" {
		cfg.DataDir = DefaultDataDir
	}
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
