package indicator

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/stat"
)

// SMA computes the simple moving average of values over a trailing window of
// size n. The result has the same length as the input; the first n-1 entries
// are NaN because no full window exists yet. NaN inputs propagate into every
// window that contains them. n larger than the input yields an all-NaN
// result rather than an error.
func SMA(values []float64, n int) ([]float64, error) {
	if n < 1 {
		return nil, errors.New("window size must be positive")
	}
	out := make([]float64, len(values))
	for i := range out {
		if i < n-1 {
			out[i] = math.NaN()
			continue
		}
		out[i] = stat.Mean(values[i-n+1:i+1], nil)
	}
	return out, nil
}
