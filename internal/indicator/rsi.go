package indicator

import (
	"errors"

	"gonum.org/v1/gonum/stat"
)

// pointRSI computes Wilder's RSI from the carried mean upward and downward
// movements. A zero mean downward movement means no losses were observed,
// which is maximal strength (100), not a division failure.
func pointRSI(meanUp, meanDown float64) float64 {
	if meanDown == 0 {
		return 100.0
	}
	rs := meanUp / meanDown
	return 100.0 - 100.0/(1.0+rs)
}

// RSI computes the Wilder-smoothed Relative Strength Index series for the
// given period. The result has the same length as prices. The first `period`
// entries are exactly 0: a sentinel meaning "insufficient history", distinct
// from a computed RSI of 0 only by position. Entries from index `period`
// onward are produced by the smoothing recurrence, strictly left to right,
// since each output depends on the carried means from the previous step.
//
// Fewer than period+1 prices leaves no computable index, so the result is
// entirely sentinel zeros. period < 1 is an error.
func RSI(prices []float64, period int) ([]float64, error) {
	if period < 1 {
		return nil, errors.New("period must be positive")
	}

	out := make([]float64, len(prices))
	if len(prices) <= period {
		return out, nil
	}

	// Per-step deltas, split into non-negative up/down magnitudes.
	upward := make([]float64, len(prices)-1)
	downward := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		delta := prices[i] - prices[i-1]
		if delta > 0 {
			upward[i-1] = delta
		} else {
			downward[i-1] = -delta
		}
	}

	// Seed over the first `period` deltas, not prices.
	meanUp := stat.Mean(upward[:period], nil)
	meanDown := stat.Mean(downward[:period], nil)
	out[period] = pointRSI(meanUp, meanDown)

	for i := period + 1; i < len(prices); i++ {
		meanUp = (meanUp*float64(period-1) + upward[i-1]) / float64(period)
		meanDown = (meanDown*float64(period-1) + downward[i-1]) / float64(period)
		out[i] = pointRSI(meanUp, meanDown)
	}

	return out, nil
}
