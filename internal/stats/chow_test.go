package stats

import (
	"math"
	"testing"
	"time"

	"MarketLens/internal/model"
)

// makeTable builds a minimal one-feature table: Close carries the predictor
// and Return carries the response.
func makeTable(xs, ys []float64) *model.Table {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	t := &model.Table{Periods: []int{14}}
	for i := range xs {
		t.Rows = append(t.Rows, model.Row{
			Symbol: "AAA",
			Time:   start.AddDate(0, 0, i),
			Close:  xs[i],
			Return: ys[i],
			RSI:    []float64{50},
		})
	}
	return t
}

// linearData generates y = a + b*x plus a small deterministic residual so the
// fit is imperfect but reproducible.
func linearData(n int, offset, a, b float64) (xs, ys []float64) {
	xs = make([]float64, n)
	ys = make([]float64, n)
	for i := 0; i < n; i++ {
		x := offset + float64(i)
		noise := 0.1 * math.Sin(float64(i))
		xs[i] = x
		ys[i] = a + b*x + noise
	}
	return xs, ys
}

func TestChowTest_SameRegime(t *testing.T) {
	x1, y1 := linearData(30, 0, 1, 2)
	x2, y2 := linearData(30, 30, 1, 2)

	fstat, p, err := ChowTest(makeTable(x1, y1), makeTable(x2, y2), []string{"Close"}, "Return")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p < 0.05 {
		t.Errorf("expected no structural break, got F=%.4f p=%.4f", fstat, p)
	}
}

func TestChowTest_StructuralBreak(t *testing.T) {
	x1, y1 := linearData(30, 0, 1, 2)
	x2, y2 := linearData(30, 30, 40, -3)

	fstat, p, err := ChowTest(makeTable(x1, y1), makeTable(x2, y2), []string{"Close"}, "Return")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p > 0.01 {
		t.Errorf("expected a structural break, got F=%.4f p=%.4f", fstat, p)
	}
	if fstat <= 0 {
		t.Errorf("expected positive F statistic, got %.4f", fstat)
	}
}

func TestChowTest_MissingColumn(t *testing.T) {
	x, y := linearData(10, 0, 1, 2)
	tab := makeTable(x, y)
	if _, _, err := ChowTest(tab, tab, []string{"RSI_99"}, "Return"); err == nil {
		t.Error("expected error for a column absent from the tables")
	}
}

func TestChowTest_NaNRejected(t *testing.T) {
	x, y := linearData(10, 0, 1, 2)
	tab := makeTable(x, y)
	tab.Rows[0].Return = math.NaN()
	if _, _, err := ChowTest(tab, tab, []string{"Close"}, "Return"); err == nil {
		t.Error("expected error for NaN in a used column")
	}
}

func TestChowTest_TooFewObservations(t *testing.T) {
	x, y := linearData(2, 0, 1, 2)
	tab := makeTable(x, y)
	if _, _, err := ChowTest(tab, tab, []string{"Close"}, "Return"); err == nil {
		t.Error("expected error when degrees of freedom run out")
	}
}
