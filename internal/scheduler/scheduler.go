package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"

	"github.com/robfig/cron/v3"

	"MarketLens/internal/ingest"
	"MarketLens/internal/recorder"
	"MarketLens/internal/report"
)

// Scheduler re-runs the aggregation batch on a cron schedule and records each
// refreshed table. Runs are strictly sequential; a tick that fires while a
// refresh is still in progress is skipped.
type Scheduler struct {
	Cron       *cron.Cron
	Aggregator *ingest.Aggregator
	Options    ingest.Options
	Recorder   recorder.Recorder
	Ctx        context.Context

	running atomic.Bool
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, agg *ingest.Aggregator, opts ingest.Options, rec recorder.Recorder) *Scheduler {
	return &Scheduler{
		Cron:       cron.New(cron.WithSeconds()),
		Aggregator: agg,
		Options:    opts,
		Recorder:   rec,
		Ctx:        ctx,
	}
}

// RegisterRefresh registers the refresh job under the given cron spec.
func (s *Scheduler) RegisterRefresh(cronSpec string) error {
	if _, err := s.Cron.AddFunc(cronSpec, s.refreshTask); err != nil {
		return fmt.Errorf("register refresh task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	s.Cron.Stop()
	log.Println("[INFO] scheduler stopped")
}

// RunNow executes one refresh immediately (for manual trigger / run-on-start).
func (s *Scheduler) RunNow() {
	s.refreshTask()
}

func (s *Scheduler) refreshTask() {
	if s.Ctx != nil && s.Ctx.Err() != nil {
		return
	}
	if !s.running.CompareAndSwap(false, true) {
		log.Println("[WARN] refresh still in progress, skipping tick")
		return
	}
	defer s.running.Store(false)

	log.Println("[INFO] running scheduled refresh")
	table, err := s.Aggregator.Run(s.Options)
	if err != nil {
		log.Printf("[ERROR] scheduled refresh: %v", err)
		return
	}
	log.Printf("[INFO] refresh complete:\n%s", report.FormatSummary(table))

	if err := s.Recorder.RecordTable(table); err != nil {
		log.Printf("[ERROR] record refresh: %v", err)
	}
}
