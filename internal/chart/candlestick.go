// Package chart assembles plot-ready series from raw bars.
package chart

import (
	"errors"
	"fmt"
	"time"

	"MarketLens/internal/model"
)

// Candlestick is a JSON-serializable candlestick series in the column layout
// charting front-ends expect.
type Candlestick struct {
	X     []time.Time `json:"x"`
	Open  []float64   `json:"open"`
	High  []float64   `json:"high"`
	Low   []float64   `json:"low"`
	Close []float64   `json:"close"`
}

// NewCandlestick builds a candlestick series from bars. Bars must be
// non-empty and strictly ascending by timestamp.
func NewCandlestick(bars []model.OHLCV) (*Candlestick, error) {
	if len(bars) == 0 {
		return nil, errors.New("no bars provided")
	}
	c := &Candlestick{
		X:     make([]time.Time, len(bars)),
		Open:  make([]float64, len(bars)),
		High:  make([]float64, len(bars)),
		Low:   make([]float64, len(bars)),
		Close: make([]float64, len(bars)),
	}
	for i, b := range bars {
		if i > 0 && !bars[i-1].Time.Before(b.Time) {
			return nil, fmt.Errorf("timestamps not strictly ascending at bar %d", i)
		}
		c.X[i] = b.Time
		c.Open[i] = b.Open
		c.High[i] = b.High
		c.Low[i] = b.Low
		c.Close[i] = b.Close
	}
	return c, nil
}
