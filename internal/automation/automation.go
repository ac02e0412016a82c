package automation

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/odetrace/internal/config"
	"github.com/san-kum/odetrace/internal/experiment"
	"github.com/san-kum/odetrace/internal/metrics"
	"github.com/san-kum/odetrace/internal/storage"
)

// Scenario is a named batch of problems solved in order.
type Scenario struct {
	Name        string    `yaml:"name"`
	Description string    `yaml:"description"`
	Problems    []Problem `yaml:"problems"`
}

// Problem is one entry of a scenario. Keys not given fall back to the
// named preset, or to the defaults when no preset is named.
type Problem struct {
	Name   string
	Preset string
	Config *config.Config
}

func (p *Problem) UnmarshalYAML(node *yaml.Node) error {
	var head struct {
		Name   string `yaml:"name"`
		Preset string `yaml:"preset"`
		Label  string `yaml:"label"`
	}
	if err := node.Decode(&head); err != nil {
		return err
	}

	cfg := config.DefaultConfig()
	if head.Preset != "" {
		cfg = config.GetPreset(head.Preset)
		if cfg == nil {
			return fmt.Errorf("line %d: unknown preset %q", node.Line, head.Preset)
		}
	}
	if err := node.Decode(cfg); err != nil {
		return err
	}
	if head.Label == "" && head.Name != "" {
		cfg.Label = head.Name
	}

	p.Name, p.Preset, p.Config = head.Name, head.Preset, cfg
	return nil
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseScenario(data)
}

func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}
	if len(scenario.Problems) == 0 {
		return nil, fmt.Errorf("scenario %q has no problems", scenario.Name)
	}
	return &scenario, nil
}

// Result is the outcome of one problem. Err holds a build or step failure;
// a step failure still carries the summary of the partial trace.
type Result struct {
	Name    string           `json:"name"`
	RunID   string           `json:"run_id,omitempty"`
	Summary *metrics.Summary `json:"summary,omitempty"`
	Err     error            `json:"-"`
}

// Runner solves scenarios and optionally saves each trace.
type Runner struct {
	store  *storage.Store
	logger *slog.Logger
}

// NewRunner returns a runner; a nil store skips saving.
func NewRunner(store *storage.Store, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Runner{store: store, logger: logger}
}

// Run executes every problem in order. A failing problem is recorded and the
// batch moves on; only cancellation and storage errors stop it.
func (r *Runner) Run(ctx context.Context, scenario *Scenario) ([]Result, error) {
	results := make([]Result, 0, len(scenario.Problems))

	for i, p := range scenario.Problems {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		name := p.Name
		if name == "" {
			name = fmt.Sprintf("problem-%d", i+1)
		}
		log := r.logger.With("scenario", scenario.Name, "problem", name, "index", i+1, "total", len(scenario.Problems))

		res := Result{Name: name}
		exp, err := experiment.New(p.Config, experiment.WithLogger(r.logger))
		if err != nil {
			log.Warn("problem rejected", "err", err)
			res.Err = err
			results = append(results, res)
			continue
		}

		trace, err := exp.Run(ctx)
		if trace == nil {
			if ctx.Err() != nil {
				return results, err
			}
			res.Err = err
			results = append(results, res)
			continue
		}
		sum := metrics.Summarize(trace)
		res.Summary, res.Err = &sum, err

		if r.store != nil {
			id, serr := r.store.Save(p.Config, trace)
			if serr != nil {
				return results, fmt.Errorf("%s: save: %w", name, serr)
			}
			res.RunID = id
		}
		log.Info("problem solved", "method", trace.Method, "status", trace.Phase, "run", res.RunID)
		results = append(results, res)
	}

	return results, nil
}
