package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"MarketLens/internal/collector"
	"MarketLens/internal/config"
	"MarketLens/internal/ingest"
	"MarketLens/internal/recorder"
	"MarketLens/internal/report"
	"MarketLens/internal/scheduler"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] MarketLens starting...")

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	// Init fetcher
	var fetcher collector.Fetcher
	if cfg.DataSource.CSVDir != "" {
		fetcher = collector.NewCSVFetcher(cfg.DataSource.CSVDir)
	} else {
		fetcher = collector.NewYahooFetcher(cfg.Proxy)
	}
	log.Printf("[INFO] data source: %s", fetcher.Name())

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	// Build the batch options
	start, end := cfg.Range()
	opts := ingest.Options{
		Symbols:           cfg.Symbols,
		Start:             start,
		End:               end,
		Interval:          cfg.Interval,
		Periods:           cfg.RSIPeriods,
		KeepWarmup:        cfg.KeepWarmupRows,
		ProgressBatchSize: cfg.ProgressBatchSize,
	}
	agg := ingest.NewAggregator(fetcher, report.LogReporter{})

	// One aggregation run
	table, err := agg.Run(opts)
	if err != nil {
		log.Fatalf("[FATAL] aggregation: %v", err)
	}
	log.Printf("[INFO] %s", report.FormatSummary(table))
	if err := rec.RecordTable(table); err != nil {
		log.Printf("[ERROR] record table: %v", err)
	}

	if cfg.RefreshCron == "" {
		log.Println("[INFO] no refresh_cron configured, exiting")
		return
	}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init scheduler for periodic refreshes
	sched := scheduler.NewScheduler(ctx, agg, opts, rec)
	if err := sched.RegisterRefresh(cfg.RefreshCron); err != nil {
		log.Fatalf("[FATAL] register refresh task: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	log.Println("[INFO] MarketLens is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	cancel()
	log.Println("[INFO] MarketLens stopped")
}
