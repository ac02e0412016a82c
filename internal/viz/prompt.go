package viz

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/san-kum/odetrace/internal/config"
	"github.com/san-kum/odetrace/internal/dynamo"
	"github.com/san-kum/odetrace/internal/expr"
)

// promptValues holds the raw text of the form fields.
type promptValues struct {
	method string
	slope  string
	exact  string
	x0     string
	y0     string
	h      string
	xEnd   string
}

func valuesFrom(cfg *config.Config) *promptValues {
	g := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	return &promptValues{
		method: cfg.Method,
		slope:  cfg.Slope,
		exact:  cfg.Exact,
		x0:     g(cfg.X0),
		y0:     g(cfg.Y0),
		h:      g(cfg.H),
		xEnd:   g(cfg.XEnd),
	}
}

// apply parses the fields into cfg. Fields are validated by the form, so
// errors here only surface for values set outside it.
func (p *promptValues) apply(cfg *config.Config) error {
	nums := []struct {
		name string
		text string
		dst  *float64
	}{
		{"x0", p.x0, &cfg.X0},
		{"y0", p.y0, &cfg.Y0},
		{"h", p.h, &cfg.H},
		{"x_end", p.xEnd, &cfg.XEnd},
	}
	for _, n := range nums {
		v, err := parseNumber(n.text)
		if err != nil {
			return fmt.Errorf("%s: %w", n.name, err)
		}
		*n.dst = v
	}
	cfg.Method = p.method
	cfg.Slope = strings.TrimSpace(p.slope)
	cfg.Exact = strings.TrimSpace(p.exact)
	return nil
}

func parseNumber(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", s)
	}
	if !dynamo.IsFinite(v) {
		return 0, fmt.Errorf("%q is not finite", s)
	}
	return v, nil
}

func validateNumber(s string) error {
	_, err := parseNumber(s)
	return err
}

func validateStep(s string) error {
	v, err := parseNumber(s)
	if err != nil {
		return err
	}
	if v == 0 {
		return fmt.Errorf("h must be non-zero")
	}
	return nil
}

func validateSlope(s string) error {
	_, err := expr.Compile(s, "x", "y")
	return err
}

func validateExact(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	_, err := expr.Compile(s, "x")
	return err
}

func newPromptForm(p *promptValues, methods []string) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Slope f(x, y)").
				Description("y' = f(x, y), e.g. x + y").
				Value(&p.slope).
				Validate(validateSlope),
			huh.NewInput().
				Title("Exact solution g(x)").
				Description("optional, leave empty to skip error columns").
				Value(&p.exact).
				Validate(validateExact),
			huh.NewSelect[string]().
				Title("Method").
				Options(huh.NewOptions(methods...)...).
				Value(&p.method),
		),
		huh.NewGroup(
			huh.NewInput().Title("x0").Value(&p.x0).Validate(validateNumber),
			huh.NewInput().Title("y0").Value(&p.y0).Validate(validateNumber),
			huh.NewInput().Title("h").Value(&p.h).Validate(validateStep),
			huh.NewInput().Title("x_end").Value(&p.xEnd).Validate(validateNumber),
		),
	)
}

// Prompt asks for a problem interactively, starting from cfg, and writes
// the answers back into cfg. accessible selects huh's plain line mode.
func Prompt(cfg *config.Config, methods []string, accessible bool) error {
	p := valuesFrom(cfg)
	form := newPromptForm(p, methods).WithAccessible(accessible)
	if err := form.Run(); err != nil {
		return err
	}
	return p.apply(cfg)
}
