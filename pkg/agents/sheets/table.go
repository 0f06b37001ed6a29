package sheets

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
)

// Table is parsed tabular data: a header row plus data rows. Every row
// has exactly len(Columns) cells.
type Table struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// ParseCSV parses CSV bytes into a table. The first record is the
// header; short rows are padded with empty cells and long rows
// truncated, since spreadsheet exports are rarely rectangular.
func ParseCSV(data []byte) (*Table, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("CSV has no header row")
	}

	columns := make([]string, len(records[0]))
	for i, c := range records[0] {
		columns[i] = strings.TrimSpace(c)
	}

	rows := make([][]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := make([]string, len(columns))
		for i := range row {
			if i < len(rec) {
				row[i] = strings.TrimSpace(rec[i])
			}
		}
		rows = append(rows, row)
	}
	return &Table{Columns: columns, Rows: rows}, nil
}

// Shape returns the table's row and column counts.
func (t *Table) Shape() (rows, cols int) {
	return len(t.Rows), len(t.Columns)
}

// DropEmpty returns a copy without all-empty rows and all-empty
// columns, the same cleanup a spreadsheet tool applies before
// analysis. A table with no data rows keeps its columns.
func (t *Table) DropEmpty() *Table {
	kept := make([][]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		empty := true
		for _, cell := range row {
			if cell != "" {
				empty = false
				break
			}
		}
		if !empty {
			kept = append(kept, row)
		}
	}

	if len(kept) == 0 {
		return &Table{Columns: append([]string(nil), t.Columns...)}
	}

	keepCol := make([]bool, len(t.Columns))
	for i := range t.Columns {
		for _, row := range kept {
			if row[i] != "" {
				keepCol[i] = true
				break
			}
		}
	}

	var columns []string
	for i, keep := range keepCol {
		if keep {
			columns = append(columns, t.Columns[i])
		}
	}
	rows := make([][]string, len(kept))
	for r, row := range kept {
		out := make([]string, 0, len(columns))
		for i, keep := range keepCol {
			if keep {
				out = append(out, row[i])
			}
		}
		rows[r] = out
	}
	return &Table{Columns: columns, Rows: rows}
}

// ColumnStats summarizes one numeric column.
type ColumnStats struct {
	Column string  `json:"column"`
	Count  int     `json:"count"`
	Sum    float64 `json:"sum"`
	Mean   float64 `json:"mean"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// Analyze computes stats for every numeric column. A column is numeric
// when it has at least one value and every non-empty value parses as a
// number; empty cells are skipped, not counted.
func (t *Table) Analyze() []ColumnStats {
	var stats []ColumnStats
	for i, name := range t.Columns {
		var values []float64
		numeric := true
		for _, row := range t.Rows {
			cell := row[i]
			if cell == "" {
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				numeric = false
				break
			}
			values = append(values, v)
		}
		if !numeric || len(values) == 0 {
			continue
		}

		s := ColumnStats{Column: name, Count: len(values), Min: values[0], Max: values[0]}
		for _, v := range values {
			s.Sum += v
			if v < s.Min {
				s.Min = v
			}
			if v > s.Max {
				s.Max = v
			}
		}
		s.Mean = s.Sum / float64(len(values))
		stats = append(stats, s)
	}
	return stats
}
