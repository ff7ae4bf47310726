package ingest

import (
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"MarketLens/internal/collector"
	"MarketLens/internal/indicator"
	"MarketLens/internal/model"
	"MarketLens/internal/report"
)

// ErrConfig marks option validation failures, raised before any fetch begins.
var ErrConfig = errors.New("invalid ingestion options")

// ErrDataContract marks data source contract violations: an empty or
// too-short series, or timestamps out of order. The whole batch aborts with
// no partial results.
var ErrDataContract = errors.New("data contract violation")

// Options configures one aggregation batch.
type Options struct {
	Symbols  []string
	Start    time.Time
	End      time.Time
	Interval string
	Periods  []int

	// KeepWarmup retains the first max(Periods) rows of each symbol, where
	// the RSI columns still hold their sentinel zeros and the first Return
	// is NaN. Off by default: warm-up rows are trimmed.
	KeepWarmup bool

	// ProgressBatchSize, when positive, suppresses per-symbol logging and
	// emits one progress notification after every ProgressBatchSize symbols.
	ProgressBatchSize int
}

// NewOptions builds Options for a single symbol and a single RSI period, the
// common case. Batch callers fill the struct directly.
func NewOptions(symbol string, start, end time.Time, interval string, period int) Options {
	return Options{
		Symbols:  []string{symbol},
		Start:    start,
		End:      end,
		Interval: interval,
		Periods:  []int{period},
	}
}

// Validate checks the options eagerly, before any fetch.
func (o *Options) Validate() error {
	if len(o.Symbols) == 0 {
		return fmt.Errorf("%w: no symbols given", ErrConfig)
	}
	if len(o.Periods) == 0 {
		return fmt.Errorf("%w: no RSI periods given", ErrConfig)
	}
	for _, p := range o.Periods {
		if p < 1 {
			return fmt.Errorf("%w: RSI period %d must be >= 1", ErrConfig, p)
		}
	}
	if o.ProgressBatchSize > len(o.Symbols) {
		return fmt.Errorf("%w: progress batch size %d exceeds the number of symbols (%d)",
			ErrConfig, o.ProgressBatchSize, len(o.Symbols))
	}
	return nil
}

func (o *Options) maxPeriod() int {
	max := o.Periods[0]
	for _, p := range o.Periods[1:] {
		if p > max {
			max = p
		}
	}
	return max
}

// Aggregator pulls each symbol's series from the fetcher, attaches return and
// RSI columns, trims warm-up rows, and assembles one table. Symbols are
// processed strictly one at a time in the given order; a single failed symbol
// fails the whole batch.
type Aggregator struct {
	Fetcher  collector.Fetcher
	Reporter report.Reporter
}

// NewAggregator creates an Aggregator. A nil reporter defaults to logging.
func NewAggregator(f collector.Fetcher, r report.Reporter) *Aggregator {
	if r == nil {
		r = report.LogReporter{}
	}
	return &Aggregator{Fetcher: f, Reporter: r}
}

// Run executes one aggregation batch and returns the assembled table.
func (a *Aggregator) Run(opts Options) (*model.Table, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	batched := opts.ProgressBatchSize > 0
	maxPeriod := opts.maxPeriod()
	table := &model.Table{Periods: opts.Periods}

	completed := 0
	for _, symbol := range opts.Symbols {
		bars, err := a.Fetcher.FetchBars(symbol, opts.Start, opts.End, opts.Interval)
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", symbol, err)
		}
		series := &model.PriceSeries{Symbol: symbol, Bars: bars, FetchedAt: time.Now()}

		rows, err := buildRows(series, opts.Periods, maxPeriod)
		if err != nil {
			return nil, err
		}
		if !opts.KeepWarmup {
			rows = rows[maxPeriod:]
		}
		table.Rows = append(table.Rows, rows...)

		completed++
		if batched {
			if completed%opts.ProgressBatchSize == 0 {
				a.Reporter.Notify(completed, len(opts.Symbols))
			}
		} else {
			log.Printf("[INFO] fetched %d rows for %s", len(bars), symbol)
		}
	}

	return table, nil
}

// buildRows validates one symbol's series and attaches the Return and RSI
// columns. The series must be longer than the largest requested period so
// that every RSI column has at least one computed value and trimming cannot
// remove more rows than exist.
func buildRows(series *model.PriceSeries, periods []int, maxPeriod int) ([]model.Row, error) {
	bars := series.Bars
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: %s returned no rows", ErrDataContract, series.Symbol)
	}
	if len(bars) <= maxPeriod {
		return nil, fmt.Errorf("%w: %s returned %d rows, need more than the largest RSI period %d",
			ErrDataContract, series.Symbol, len(bars), maxPeriod)
	}
	for i := 1; i < len(bars); i++ {
		if !bars[i-1].Time.Before(bars[i].Time) {
			return nil, fmt.Errorf("%w: %s timestamps not strictly ascending at row %d",
				ErrDataContract, series.Symbol, i)
		}
	}

	closes := series.Closes()
	rsiCols := make([][]float64, len(periods))
	for i, p := range periods {
		col, err := indicator.RSI(closes, p)
		if err != nil {
			return nil, fmt.Errorf("%s %s: %w", series.Symbol, model.RSIColumn(p), err)
		}
		rsiCols[i] = col
	}

	rows := make([]model.Row, len(bars))
	for i, b := range bars {
		ret := math.NaN()
		if i > 0 {
			ret = b.Close/bars[i-1].Close - 1
		}
		rsi := make([]float64, len(periods))
		for j := range periods {
			rsi[j] = rsiCols[j][i]
		}
		rows[i] = model.Row{
			Symbol: series.Symbol,
			Time:   b.Time,
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: b.Volume,
			Return: ret,
			RSI:    rsi,
		}
	}
	return rows, nil
}
