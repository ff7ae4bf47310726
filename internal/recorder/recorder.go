package recorder

import "MarketLens/internal/model"

// Recorder delivers aggregated tables to an output sink for downstream
// analysis. The pipeline itself keeps no state between runs.
type Recorder interface {
	RecordTable(t *model.Table) error
	Close() error
}
