package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/san-kum/odetrace/internal/dynamo"
)

// CSV columns around the per-method stage columns.
var (
	leadColumns = []string{"index", "x", "y"}
	tailColumns = []string{"exact", "abs_error", "rel_error_pct"}
)

// WriteCSV writes one row per record. Absent values are empty cells. A
// negative prec writes the shortest representation that reads back exactly.
func WriteCSV(w io.Writer, t *dynamo.Trace, prec int) error {
	cw := csv.NewWriter(w)

	header := append(append(append([]string{}, leadColumns...), t.Stages...), tailColumns...)
	if err := cw.Write(header); err != nil {
		return err
	}

	format := func(v float64) string {
		if prec < 0 {
			return strconv.FormatFloat(v, 'g', -1, 64)
		}
		return strconv.FormatFloat(v, 'f', prec, 64)
	}
	cell := func(v dynamo.Value) string {
		f, ok := v.Get()
		if !ok {
			return ""
		}
		return format(f)
	}

	for _, r := range t.Records() {
		row := []string{strconv.Itoa(r.Index), format(r.X), format(r.Y)}
		for i := range t.Stages {
			row = append(row, cell(r.Stage(i)))
		}
		row = append(row, cell(r.Exact), cell(r.AbsError), cell(r.RelError))
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// ReadCSV parses what WriteCSV produced and returns the stage names and the
// records in file order.
func ReadCSV(r io.Reader) ([]string, []dynamo.StepRecord, error) {
	cr := csv.NewReader(r)
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("csv: missing header")
	}

	header := rows[0]
	nStages := len(header) - len(leadColumns) - len(tailColumns)
	if nStages < 0 {
		return nil, nil, fmt.Errorf("csv: header has %d columns", len(header))
	}
	for i, name := range leadColumns {
		if header[i] != name {
			return nil, nil, fmt.Errorf("csv: column %d is %q, expected %q", i, header[i], name)
		}
	}
	var stages []string
	if nStages > 0 {
		stages = append(stages, header[len(leadColumns):len(leadColumns)+nStages]...)
	}

	records := make([]dynamo.StepRecord, 0, len(rows)-1)
	for line, row := range rows[1:] {
		rec, err := parseRow(row, nStages)
		if err != nil {
			return nil, nil, fmt.Errorf("csv: line %d: %w", line+2, err)
		}
		records = append(records, rec)
	}
	return stages, records, nil
}

func parseRow(row []string, nStages int) (dynamo.StepRecord, error) {
	var rec dynamo.StepRecord
	var err error

	if rec.Index, err = strconv.Atoi(row[0]); err != nil {
		return rec, err
	}
	if rec.X, err = strconv.ParseFloat(row[1], 64); err != nil {
		return rec, err
	}
	if rec.Y, err = strconv.ParseFloat(row[2], 64); err != nil {
		return rec, err
	}

	values := make([]dynamo.Value, 0, nStages+len(tailColumns))
	for _, c := range row[len(leadColumns):] {
		v, err := parseCell(c)
		if err != nil {
			return rec, err
		}
		values = append(values, v)
	}
	if nStages > 0 {
		rec.Stages = values[:nStages]
	}
	rec.Exact, rec.AbsError, rec.RelError = values[nStages], values[nStages+1], values[nStages+2]
	return rec, nil
}

func parseCell(c string) (dynamo.Value, error) {
	if c == "" {
		return dynamo.Absent(), nil
	}
	f, err := strconv.ParseFloat(c, 64)
	if err != nil {
		return dynamo.Absent(), err
	}
	return dynamo.Some(f), nil
}
