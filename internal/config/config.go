package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	DefaultMethod    = "rk4"
	DefaultX0        = 0.0
	DefaultY0        = 1.0
	DefaultH         = 0.1
	DefaultXEnd      = 1.0
	DefaultPrecision = 6
	DefaultGrid      = 1000
	MinGrid          = 2
	MaxGrid          = 100000
	DefaultDataDir   = "runs"

	// EnvPrefix is prepended to every environment override, e.g. ODETRACE_H.
	EnvPrefix = "ODETRACE_"
)

// Methods lists the method names a problem file may select.
var Methods = []string{"euler", "rk4", "midpoint", "heun"}

// Config describes one initial value problem and how to present it.
type Config struct {
	Label     string  `yaml:"label,omitempty" env:"LABEL"`
	Method    string  `yaml:"method" env:"METHOD" validate:"required,method"`
	Slope     string  `yaml:"slope" env:"SLOPE" validate:"required"`
	Exact     string  `yaml:"exact,omitempty" env:"EXACT"`
	X0        float64 `yaml:"x0" env:"X0"`
	Y0        float64 `yaml:"y0" env:"Y0"`
	H         float64 `yaml:"h" env:"H"`
	XEnd      float64 `yaml:"x_end" env:"X_END"`
	MaxSteps  int     `yaml:"max_steps,omitempty" env:"MAX_STEPS" validate:"gte=0"`
	Precision int     `yaml:"precision" env:"PRECISION" validate:"gte=0,lte=17"`
	Grid      int     `yaml:"grid" env:"GRID" validate:"grid"`
	DataDir   string  `yaml:"data_dir,omitempty" env:"DATA_DIR"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("method", func(fl validator.FieldLevel) bool {
		return knownMethod(fl.Field().String())
	})
	_ = validate.RegisterValidation("grid", func(fl validator.FieldLevel) bool {
		n := fl.Field().Int()
		return n >= MinGrid && n <= MaxGrid
	})
}

func knownMethod(name string) bool {
	for _, m := range Methods {
		if m == name {
			return true
		}
	}
	return false
}

func DefaultConfig() *Config {
	return &Config{
		Method:    DefaultMethod,
		Slope:     "y",
		Exact:     "exp(x)",
		X0:        DefaultX0,
		Y0:        DefaultY0,
		H:         DefaultH,
		XEnd:      DefaultXEnd,
		Precision: DefaultPrecision,
		Grid:      DefaultGrid,
		DataDir:   DefaultDataDir,
	}
}

// Load reads a problem file over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ParseEnv applies ODETRACE_* variables on top of cfg. Unset variables
// leave their field untouched.
func ParseEnv(cfg *Config) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Validate checks the presentation fields and that a slope and a known
// method are set. Numeric request checks happen when the request is built.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	name := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return name + " is required"
	case "method":
		return fmt.Sprintf("method %q is not one of %s", fe.Value(), strings.Join(Methods, ", "))
	case "grid":
		if fe.Value().(int) < MinGrid {
			return fmt.Sprintf("grid must be at least %d", MinGrid)
		}
		return fmt.Sprintf("grid must be at most %d", MaxGrid)
	case "gte":
		return fmt.Sprintf("%s must be at least %s", name, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", name, fe.Param())
	}
	return fmt.Sprintf("%s failed %s", name, fe.Tag())
}

// Clone returns a copy safe to modify.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}
