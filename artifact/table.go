// Package artifact defines the domain objects produced and consumed by
// generated code: tabular data and plotly figures. The agent core treats
// these as opaque payloads; the only requirements are that they can be bound
// into an execution namespace, returned from executed code, and serialized
// into an event.
package artifact

import (
	"encoding/json"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Table is a column-oriented dataframe. Columns preserves the column order;
// Data maps each column name to its values. All columns have equal length.
type Table struct {
	Name    string           `json:"name,omitempty"`
	Columns []string         `json:"columns"`
	Data    map[string][]any `json:"data"`
}

// NewTable builds a table and validates that every column in Columns has a
// value slice of the same length.
func NewTable(name string, columns []string, data map[string][]any) (*Table, error) {
	rows := -1
	for _, col := range columns {
		values, ok := data[col]
		if !ok {
			return nil, fmt.Errorf("column %q has no data", col)
		}
		if rows == -1 {
			rows = len(values)
		} else if len(values) != rows {
			return nil, fmt.Errorf("column %q has %d rows, expected %d", col, len(values), rows)
		}
	}
	return &Table{Name: name, Columns: columns, Data: data}, nil
}

// NumRows returns the row count. An empty table has zero rows.
func (t *Table) NumRows() int {
	if len(t.Columns) == 0 {
		return 0
	}
	return len(t.Data[t.Columns[0]])
}

// Column returns the values of the named column.
func (t *Table) Column(name string) ([]any, bool) {
	values, ok := t.Data[name]
	return values, ok
}

// Float64Column returns the column converted to float64 values. Columns
// containing non-numeric values are reported as not numeric.
func (t *Table) Float64Column(name string) ([]float64, bool) {
	values, ok := t.Data[name]
	if !ok || len(values) == 0 {
		return nil, false
	}
	result := make([]float64, len(values))
	for i, v := range values {
		f, ok := toFloat64(v)
		if !ok {
			return nil, false
		}
		result[i] = f
	}
	return result, true
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// ColumnSummary describes one numeric column for prompt rendering.
type ColumnSummary struct {
	Name   string
	Count  int
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64
}

// Describe computes summary statistics for every numeric column, in column
// order. Non-numeric columns are skipped.
func (t *Table) Describe() []ColumnSummary {
	var summaries []ColumnSummary
	for _, col := range t.Columns {
		values, ok := t.Float64Column(col)
		if !ok || len(values) == 0 {
			continue
		}
		summaries = append(summaries, ColumnSummary{
			Name:   col,
			Count:  len(values),
			Mean:   stat.Mean(values, nil),
			StdDev: stat.StdDev(values, nil),
			Min:    floats.Min(values),
			Max:    floats.Max(values),
		})
	}
	return summaries
}

// SortedNames returns the keys of a named-table map in deterministic order.
func SortedNames(tables map[string]*Table) []string {
	names := make([]string, 0, len(tables))
	for name := range tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
