package ingest

import (
	"errors"
	"math"
	"reflect"
	"testing"
	"time"

	"MarketLens/internal/collector"
	"MarketLens/internal/model"
)

type captureReporter struct {
	calls [][2]int
}

func (c *captureReporter) Notify(done, total int) {
	c.calls = append(c.calls, [2]int{done, total})
}

func makeBars(count int, base float64) []model.OHLCV {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]model.OHLCV, count)
	for i := 0; i < count; i++ {
		// Deterministic wiggle so RSI sees both gains and losses.
		c := base + float64(i%5) - float64(i%3)
		bars[i] = model.OHLCV{
			Time:   start.AddDate(0, 0, i),
			Open:   c - 0.5,
			High:   c + 1,
			Low:    c - 1,
			Close:  c,
			Volume: 1000,
		}
	}
	return bars
}

func testOptions(symbols []string, periods []int) Options {
	return Options{
		Symbols:  symbols,
		Start:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:      time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		Interval: "1d",
		Periods:  periods,
	}
}

func TestRun_TrimsByLargestPeriod(t *testing.T) {
	const n = 40
	fetcher := &collector.MockFetcher{Bars: map[string][]model.OHLCV{
		"AAA": makeBars(n, 100),
		"BBB": makeBars(n, 50),
	}}
	agg := NewAggregator(fetcher, &captureReporter{})

	opts := testOptions([]string{"AAA", "BBB"}, []int{5, 14})
	table, err := agg.Run(opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The first max(periods) rows of each symbol are dropped, even where the
	// smaller-period column is already valid.
	if got, want := len(table.Rows), 2*(n-14); got != want {
		t.Fatalf("expected %d rows after trimming, got %d", want, got)
	}
	for i := range table.Rows {
		row := &table.Rows[i]
		for j := range row.RSI {
			if row.RSI[j] == 0 {
				t.Fatalf("row %d: sentinel zero survived trimming", i)
			}
		}
		if math.IsNaN(row.Return) {
			t.Fatalf("row %d: undefined return survived trimming", i)
		}
	}
}

func TestRun_KeepWarmupPreservesAllRows(t *testing.T) {
	const n, period = 30, 7
	fetcher := &collector.MockFetcher{Bars: map[string][]model.OHLCV{
		"AAA": makeBars(n, 100),
	}}
	agg := NewAggregator(fetcher, &captureReporter{})

	opts := NewOptions("AAA", time.Time{}, time.Time{}, "1d", period)
	opts.KeepWarmup = true
	table, err := agg.Run(opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(table.Rows) != n {
		t.Fatalf("expected raw row count %d, got %d", n, len(table.Rows))
	}
	for i := 0; i < period; i++ {
		if table.Rows[i].RSI[0] != 0 {
			t.Errorf("row %d: expected sentinel RSI 0, got %v", i, table.Rows[i].RSI[0])
		}
	}
	if table.Rows[period].RSI[0] == 0 {
		t.Errorf("row %d: expected computed RSI, got sentinel", period)
	}
	if !math.IsNaN(table.Rows[0].Return) {
		t.Errorf("expected undefined first return, got %v", table.Rows[0].Return)
	}
	for i := 1; i < n; i++ {
		want := table.Rows[i].Close/table.Rows[i-1].Close - 1
		if math.Abs(table.Rows[i].Return-want) > 1e-12 {
			t.Errorf("row %d: expected return %v, got %v", i, want, table.Rows[i].Return)
		}
	}
}

func TestRun_BatchSizeValidatedBeforeFetch(t *testing.T) {
	fetcher := &collector.MockFetcher{Count: 40}
	agg := NewAggregator(fetcher, &captureReporter{})

	opts := testOptions([]string{"AAA", "BBB"}, []int{5})
	opts.ProgressBatchSize = 3
	_, err := agg.Run(opts)
	if !errors.Is(err, ErrConfig) {
		t.Fatalf("expected config error, got %v", err)
	}
	if len(fetcher.Calls) != 0 {
		t.Fatalf("expected no fetches after validation failure, got %d", len(fetcher.Calls))
	}
}

func TestRun_InvalidPeriodRejected(t *testing.T) {
	agg := NewAggregator(&collector.MockFetcher{Count: 40}, &captureReporter{})
	opts := testOptions([]string{"AAA"}, []int{5, 0})
	if _, err := agg.Run(opts); !errors.Is(err, ErrConfig) {
		t.Fatalf("expected config error for period 0, got %v", err)
	}
}

func TestRun_ProgressBatches(t *testing.T) {
	fetcher := &collector.MockFetcher{Count: 40}
	rep := &captureReporter{}
	agg := NewAggregator(fetcher, rep)

	opts := testOptions([]string{"A", "B", "C", "D", "E"}, []int{5})
	opts.ProgressBatchSize = 2
	if _, err := agg.Run(opts); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := [][2]int{{2, 5}, {4, 5}}
	if !reflect.DeepEqual(rep.calls, want) {
		t.Fatalf("expected notifications %v, got %v", want, rep.calls)
	}
}

func TestRun_ShortSeriesAbortsBatch(t *testing.T) {
	fetcher := &collector.MockFetcher{Bars: map[string][]model.OHLCV{
		"AAA": makeBars(40, 100),
		"BBB": makeBars(10, 50), // shorter than the largest period
	}}
	agg := NewAggregator(fetcher, &captureReporter{})

	opts := testOptions([]string{"AAA", "BBB"}, []int{14})
	table, err := agg.Run(opts)
	if !errors.Is(err, ErrDataContract) {
		t.Fatalf("expected data contract error, got %v", err)
	}
	if table != nil {
		t.Fatal("expected no partial result")
	}
}

func TestRun_FetchErrorAbortsBatch(t *testing.T) {
	fetcher := &collector.MockFetcher{Err: errors.New("boom")}
	agg := NewAggregator(fetcher, &captureReporter{})

	opts := testOptions([]string{"AAA", "BBB"}, []int{5})
	if _, err := agg.Run(opts); err == nil {
		t.Fatal("expected fetch error to fail the whole batch")
	}
}

func TestRun_PreservesSymbolOrder(t *testing.T) {
	fetcher := &collector.MockFetcher{Bars: map[string][]model.OHLCV{
		"ZZZ": makeBars(20, 10),
		"AAA": makeBars(20, 20),
	}}
	agg := NewAggregator(fetcher, &captureReporter{})

	opts := testOptions([]string{"ZZZ", "AAA"}, []int{5})
	table, err := agg.Run(opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := table.Symbols(); !reflect.DeepEqual(got, []string{"ZZZ", "AAA"}) {
		t.Fatalf("expected caller-supplied order, got %v", got)
	}
	if !reflect.DeepEqual(fetcher.Calls, []string{"ZZZ", "AAA"}) {
		t.Fatalf("expected sequential fetches in order, got %v", fetcher.Calls)
	}
	// Per-symbol timestamps strictly increasing.
	for i := 1; i < len(table.Rows); i++ {
		if table.Rows[i].Symbol != table.Rows[i-1].Symbol {
			continue
		}
		if !table.Rows[i-1].Time.Before(table.Rows[i].Time) {
			t.Fatalf("row %d: timestamps not strictly increasing within symbol", i)
		}
	}
}

func TestRun_Idempotent(t *testing.T) {
	fetcher := &collector.MockFetcher{Bars: map[string][]model.OHLCV{
		"AAA": makeBars(40, 100),
		"BBB": makeBars(40, 50),
	}}
	agg := NewAggregator(fetcher, &captureReporter{})

	opts := testOptions([]string{"AAA", "BBB"}, []int{5, 9})
	first, err := agg.Run(opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := agg.Run(opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(first.Rows, second.Rows) {
		t.Fatal("expected identical tables from identical inputs")
	}
}

func TestNewOptions_ScalarErgonomics(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	opts := NewOptions("AAA", start, end, "1wk", 14)
	if !reflect.DeepEqual(opts.Symbols, []string{"AAA"}) {
		t.Errorf("expected normalized symbol list, got %v", opts.Symbols)
	}
	if !reflect.DeepEqual(opts.Periods, []int{14}) {
		t.Errorf("expected normalized period list, got %v", opts.Periods)
	}
	if err := opts.Validate(); err != nil {
		t.Errorf("unexpected validation error: %v", err)
	}
}
