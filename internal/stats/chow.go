// Package stats provides structural-break analysis over aggregated
// indicator tables.
package stats

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"MarketLens/internal/model"
)

// ChowTest runs a Chow test: an F test whose null hypothesis is that two
// datasets can be represented by a single linear regression of the response
// on the features, against the alternative that they need separate models.
// Returns the F statistic and its p-value.
//
// Both tables must contain every feature column and the response column, and
// the used columns must be free of NaN (trim warm-up rows before testing).
func ChowTest(t1, t2 *model.Table, features []string, response string) (fstat, pvalue float64, err error) {
	if len(features) == 0 {
		return 0, 0, errors.New("at least one feature is required")
	}
	required := append(append([]string{}, features...), response)
	if !t1.HasColumns(required) || !t2.HasColumns(required) {
		return 0, 0, fmt.Errorf("both datasets must contain the feature and response columns %v", required)
	}

	y1, x1, err := regressionData(t1, features, response)
	if err != nil {
		return 0, 0, err
	}
	y2, x2, err := regressionData(t2, features, response)
	if err != nil {
		return 0, 0, err
	}

	n1, n2 := len(y1), len(y2)
	k := len(features) + 1 // predictors plus intercept
	df := n1 + n2 - 2*k
	if n1 <= k || n2 <= k || df <= 0 {
		return 0, 0, fmt.Errorf("not enough observations for %d predictors (n1=%d, n2=%d)", k, n1, n2)
	}

	rss1, err := residualSumOfSquares(y1, x1, k)
	if err != nil {
		return 0, 0, err
	}
	rss2, err := residualSumOfSquares(y2, x2, k)
	if err != nil {
		return 0, 0, err
	}
	rssPooled, err := residualSumOfSquares(append(append([]float64{}, y1...), y2...), append(append([][]float64{}, x1...), x2...), k)
	if err != nil {
		return 0, 0, err
	}

	rssSummed := rss1 + rss2
	fstat = ((rssPooled - rssSummed) / float64(k)) / (rssSummed / float64(df))
	dist := distuv.F{D1: float64(k), D2: float64(df)}
	pvalue = 1 - dist.CDF(fstat)
	return fstat, pvalue, nil
}

// regressionData extracts the response vector and feature rows from a table.
func regressionData(t *model.Table, features []string, response string) ([]float64, [][]float64, error) {
	y, err := t.Column(response)
	if err != nil {
		return nil, nil, err
	}
	cols := make([][]float64, len(features))
	for i, f := range features {
		cols[i], err = t.Column(f)
		if err != nil {
			return nil, nil, err
		}
	}

	rows := make([][]float64, len(y))
	for i := range y {
		if math.IsNaN(y[i]) {
			return nil, nil, fmt.Errorf("column %q contains NaN at row %d; trim warm-up rows first", response, i)
		}
		row := make([]float64, len(features))
		for j := range features {
			v := cols[j][i]
			if math.IsNaN(v) {
				return nil, nil, fmt.Errorf("column %q contains NaN at row %d; trim warm-up rows first", features[j], i)
			}
			row[j] = v
		}
		rows[i] = row
	}
	return y, rows, nil
}

// residualSumOfSquares fits y = X*beta by QR least squares, with an intercept
// prepended, and returns the sum of squared residuals.
func residualSumOfSquares(y []float64, features [][]float64, k int) (float64, error) {
	n := len(y)
	X := mat.NewDense(n, k, nil)
	for i := 0; i < n; i++ {
		X.Set(i, 0, 1) // intercept
		for j, v := range features[i] {
			X.Set(i, j+1, v)
		}
	}

	var qr mat.QR
	qr.Factorize(X)
	var beta mat.Dense
	if err := qr.SolveTo(&beta, false, mat.NewVecDense(n, y)); err != nil {
		return 0, fmt.Errorf("least squares solve: %w", err)
	}

	var fitted mat.Dense
	fitted.Mul(X, &beta)
	var rss float64
	for i := 0; i < n; i++ {
		r := y[i] - fitted.At(i, 0)
		rss += r * r
	}
	return rss, nil
}
