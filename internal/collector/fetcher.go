package collector

import (
	"time"

	"MarketLens/internal/model"
)

// Fetcher defines the interface for fetching raw price bars.
// Implementations must return bars ordered by ascending timestamp.
type Fetcher interface {
	FetchBars(symbol string, start, end time.Time, interval string) ([]model.OHLCV, error)
	Name() string
}
