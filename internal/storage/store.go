package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/odetrace/internal/config"
	"github.com/san-kum/odetrace/internal/dynamo"
	"github.com/san-kum/odetrace/internal/export"
	"github.com/san-kum/odetrace/internal/metrics"
)

const (
	metadataFile = "metadata.json"
	traceFile    = "trace.csv"
)

// ErrNotFound is returned for a run id with no stored run.
var ErrNotFound = errors.New("storage: run not found")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// RunMetadata is everything about a run except its records.
type RunMetadata struct {
	ID          string          `json:"id"`
	Label       string          `json:"label,omitempty"`
	Timestamp   time.Time       `json:"timestamp"`
	Method      string          `json:"method"`
	Stages      []string        `json:"stages,omitempty"`
	Slope       string          `json:"slope"`
	Exact       string          `json:"exact,omitempty"`
	X0          float64         `json:"x0"`
	Y0          float64         `json:"y0"`
	H           float64         `json:"h"`
	XEnd        float64         `json:"x_end"`
	StepCount   int             `json:"step_count"`
	Status      dynamo.Phase    `json:"status"`
	Failure     string          `json:"failure,omitempty"`
	ExactErrors []string        `json:"exact_errors,omitempty"`
	Precision   int             `json:"precision"`
	Summary     metrics.Summary `json:"summary"`
}

// Save writes <base>/<id>/metadata.json and trace.csv and returns the new
// run id.
func (s *Store) Save(cfg *config.Config, trace *dynamo.Trace) (string, error) {
	runID := fmt.Sprintf("%s_%s", trace.Method, uuid.NewString()[:8])
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:        runID,
		Label:     cfg.Label,
		Timestamp: time.Now().UTC(),
		Method:    trace.Method,
		Stages:    trace.Stages,
		Slope:     cfg.Slope,
		Exact:     cfg.Exact,
		X0:        trace.X0,
		Y0:        trace.Y0,
		H:         trace.H,
		XEnd:      trace.XEnd,
		StepCount: trace.StepCount,
		Status:    trace.Phase,
		Precision: cfg.Precision,
		Summary:   metrics.Summarize(trace),
	}
	if trace.Err != nil {
		meta.Failure = trace.Err.Error()
	}
	for _, err := range trace.ExactErrors {
		meta.ExactErrors = append(meta.ExactErrors, err.Error())
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, traceFile))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	if err := export.WriteCSV(csvFile, trace, -1); err != nil {
		return "", err
	}
	return runID, csvFile.Close()
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return err
	}
	return f.Close()
}

// List returns stored runs, newest first. Directories without readable
// metadata are skipped.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.SliceStable(runs, func(i, j int) bool { return runs[i].Timestamp.After(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	if runID == "" || filepath.Base(runID) != runID {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, runID)
	}
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("%s: %w", runID, err)
	}
	return &meta, nil
}

// LoadTrace rebuilds the stored trace. Failure messages come back as plain
// errors.
func (s *Store) LoadTrace(runID string) (*RunMetadata, *dynamo.Trace, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, nil, err
	}

	f, err := os.Open(filepath.Join(s.baseDir, runID, traceFile))
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	stages, records, err := export.ReadCSV(f)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", runID, err)
	}

	base := dynamo.Trace{
		Method:    meta.Method,
		Stages:    stages,
		X0:        meta.X0,
		Y0:        meta.Y0,
		H:         meta.H,
		XEnd:      meta.XEnd,
		StepCount: meta.StepCount,
		Phase:     meta.Status,
	}
	if meta.Failure != "" {
		base.Err = errors.New(meta.Failure)
	}
	for _, msg := range meta.ExactErrors {
		base.ExactErrors = append(base.ExactErrors, errors.New(msg))
	}
	return meta, dynamo.Restore(base, records), nil
}

// Config rebuilds the problem a stored run was made from.
func (m *RunMetadata) Config() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Label = m.Label
	cfg.Method = m.Method
	cfg.Slope = m.Slope
	cfg.Exact = m.Exact
	cfg.X0, cfg.Y0, cfg.H, cfg.XEnd = m.X0, m.Y0, m.H, m.XEnd
	cfg.Precision = m.Precision
	return cfg
}
