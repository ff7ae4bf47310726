package report

import (
	"fmt"
	"log"
	"strings"

	"MarketLens/internal/model"
)

// Reporter receives batched download progress notifications.
type Reporter interface {
	Notify(done, total int)
}

// LogReporter writes progress to the standard logger.
type LogReporter struct{}

func (LogReporter) Notify(done, total int) {
	log.Printf("[INFO] %d of %d downloaded", done, total)
}

// FormatSummary renders a short human-readable description of an aggregated
// table for CLI output.
func FormatSummary(t *model.Table) string {
	var b strings.Builder
	symbols := t.Symbols()
	fmt.Fprintf(&b, "aggregated %d rows across %d symbols\n", len(t.Rows), len(symbols))
	fmt.Fprintf(&b, "columns: %s\n", strings.Join(t.Columns(), ", "))
	for _, sym := range symbols {
		var n int
		var first, last string
		for i := range t.Rows {
			if t.Rows[i].Symbol != sym {
				continue
			}
			if n == 0 {
				first = t.Rows[i].Time.Format("2006-01-02")
			}
			last = t.Rows[i].Time.Format("2006-01-02")
			n++
		}
		fmt.Fprintf(&b, "  %-10s %5d rows  %s .. %s\n", sym, n, first, last)
	}
	return b.String()
}
