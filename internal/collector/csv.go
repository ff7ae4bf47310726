package collector

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"MarketLens/internal/model"
)

// CSVFetcher reads bars from local CSV files, one file per symbol named
// <dir>/<symbol>.csv with a Date,Open,High,Low,Close,Volume header. It is an
// offline data source for development and for replaying saved downloads.
type CSVFetcher struct {
	Dir string
}

// NewCSVFetcher creates a fetcher rooted at the given directory.
func NewCSVFetcher(dir string) *CSVFetcher {
	return &CSVFetcher{Dir: dir}
}

func (f *CSVFetcher) Name() string { return "csv" }

// FetchBars loads the symbol's file and returns rows inside [start, end),
// ordered as stored. The interval token is ignored; files carry one
// granularity. Rows must be ascending by date.
func (f *CSVFetcher) FetchBars(symbol string, start, end time.Time, _ string) ([]model.OHLCV, error) {
	path := filepath.Join(f.Dir, symbol+".csv")
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("csv open %s: %w", symbol, err)
	}
	defer file.Close()

	r := csv.NewReader(file)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("csv read %s: %w", symbol, err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("csv %s: no data rows", symbol)
	}

	var bars []model.OHLCV
	for lineNo, rec := range records[1:] { // skip header
		if len(rec) < 6 {
			return nil, fmt.Errorf("csv %s line %d: expected 6 fields, got %d", symbol, lineNo+2, len(rec))
		}
		ts, err := time.Parse("2006-01-02", rec[0])
		if err != nil {
			return nil, fmt.Errorf("csv %s line %d: bad date %q: %w", symbol, lineNo+2, rec[0], err)
		}
		if ts.Before(start) || !ts.Before(end) {
			continue
		}
		vals := make([]float64, 5)
		for i := 0; i < 5; i++ {
			v, err := strconv.ParseFloat(rec[i+1], 64)
			if err != nil {
				return nil, fmt.Errorf("csv %s line %d: bad number %q: %w", symbol, lineNo+2, rec[i+1], err)
			}
			vals[i] = v
		}
		if len(bars) > 0 && !bars[len(bars)-1].Time.Before(ts) {
			return nil, fmt.Errorf("csv %s line %d: timestamps not ascending", symbol, lineNo+2)
		}
		bars = append(bars, model.OHLCV{
			Time: ts, Open: vals[0], High: vals[1], Low: vals[2], Close: vals[3], Volume: vals[4],
		})
	}
	return bars, nil
}
