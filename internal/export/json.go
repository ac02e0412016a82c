package export

import (
	"encoding/json"
	"io"

	"github.com/san-kum/odetrace/internal/dynamo"
	"github.com/san-kum/odetrace/internal/metrics"
)

// Document is the JSON export of one run.
type Document struct {
	ID      string          `json:"id,omitempty"`
	Label   string          `json:"label,omitempty"`
	Slope   string          `json:"slope"`
	Exact   string          `json:"exact,omitempty"`
	Summary metrics.Summary `json:"summary"`
	Trace   *dynamo.Trace   `json:"trace"`
}

// NewDocument pairs a trace with its summary.
func NewDocument(slope, exact string, t *dynamo.Trace) Document {
	return Document{Slope: slope, Exact: exact, Summary: metrics.Summarize(t), Trace: t}
}

func WriteJSON(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
