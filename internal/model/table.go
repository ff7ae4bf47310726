package model

import (
	"fmt"
	"time"
)

// Row is one (symbol, timestamp) entry of an aggregated indicator table.
// RSI holds one value per table period, in table period order.
type Row struct {
	Symbol string
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
	Return float64
	RSI    []float64
}

// Table is the aggregated dataset produced by one ingestion batch: all
// symbols' rows concatenated in processing order, keyed by (Symbol, Time).
// Within one symbol's rows timestamps are strictly increasing; symbols are
// independent partitions with no cross-symbol alignment.
type Table struct {
	Periods []int
	Rows    []Row
}

// RSIColumn returns the deterministic column name for an RSI period.
func RSIColumn(period int) string {
	return fmt.Sprintf("RSI_%d", period)
}

// Columns lists the table's column names in order.
func (t *Table) Columns() []string {
	cols := []string{"Open", "High", "Low", "Close", "Volume", "Return"}
	for _, p := range t.Periods {
		cols = append(cols, RSIColumn(p))
	}
	return cols
}

// Column extracts a named column as a flat slice over all rows.
// Returns an error for unknown column names.
func (t *Table) Column(name string) ([]float64, error) {
	pick := func(f func(*Row) float64) []float64 {
		out := make([]float64, len(t.Rows))
		for i := range t.Rows {
			out[i] = f(&t.Rows[i])
		}
		return out
	}

	switch name {
	case "Open":
		return pick(func(r *Row) float64 { return r.Open }), nil
	case "High":
		return pick(func(r *Row) float64 { return r.High }), nil
	case "Low":
		return pick(func(r *Row) float64 { return r.Low }), nil
	case "Close":
		return pick(func(r *Row) float64 { return r.Close }), nil
	case "Volume":
		return pick(func(r *Row) float64 { return r.Volume }), nil
	case "Return":
		return pick(func(r *Row) float64 { return r.Return }), nil
	}
	for i, p := range t.Periods {
		if name == RSIColumn(p) {
			idx := i
			return pick(func(r *Row) float64 { return r.RSI[idx] }), nil
		}
	}
	return nil, fmt.Errorf("unknown column %q", name)
}

// HasColumns reports whether every named column exists in the table.
func (t *Table) HasColumns(names []string) bool {
	for _, n := range names {
		if _, err := t.Column(n); err != nil {
			return false
		}
	}
	return true
}

// Symbols returns the distinct symbols in first-appearance order.
func (t *Table) Symbols() []string {
	seen := make(map[string]bool)
	var out []string
	for i := range t.Rows {
		if !seen[t.Rows[i].Symbol] {
			seen[t.Rows[i].Symbol] = true
			out = append(out, t.Rows[i].Symbol)
		}
	}
	return out
}
