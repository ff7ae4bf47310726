package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Symbols           []string `yaml:"symbols"`
	StartDate         string   `yaml:"start_date"` // ISO date, inclusive
	EndDate           string   `yaml:"end_date"`   // ISO date, exclusive
	Interval          string   `yaml:"interval"`   // passed through to the data source
	RSIPeriods        []int    `yaml:"rsi_periods"`
	KeepWarmupRows    bool     `yaml:"keep_warmup_rows"`
	ProgressBatchSize int      `yaml:"progress_batch_size"`
	DataSource        struct {
		CSVDir string `yaml:"csv_dir"` // non-empty switches from Yahoo to local CSV files
	} `yaml:"data_source"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	RefreshCron string `yaml:"refresh_cron"` // empty disables scheduled refresh
	Proxy       string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("LENS_SYMBOLS"); v != "" {
		cfg.Symbols = splitList(v)
	}
	if v := os.Getenv("LENS_START_DATE"); v != "" {
		cfg.StartDate = v
	}
	if v := os.Getenv("LENS_END_DATE"); v != "" {
		cfg.EndDate = v
	}
	if v := os.Getenv("LENS_INTERVAL"); v != "" {
		cfg.Interval = v
	}
	if v := os.Getenv("LENS_RSI_PERIODS"); v != "" {
		var periods []int
		for _, s := range splitList(v) {
			p, err := strconv.Atoi(s)
			if err != nil {
				return nil, fmt.Errorf("parse LENS_RSI_PERIODS: %w", err)
			}
			periods = append(periods, p)
		}
		cfg.RSIPeriods = periods
	}
	if v := os.Getenv("LENS_CSV_DIR"); v != "" {
		cfg.DataSource.CSVDir = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("REFRESH_CRON"); v != "" {
		cfg.RefreshCron = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}

	// Defaults
	if cfg.Interval == "" {
		cfg.Interval = "1d"
	}
	if len(cfg.RSIPeriods) == 0 {
		cfg.RSIPeriods = []int{14}
	}
	if cfg.EndDate == "" {
		cfg.EndDate = time.Now().Format("2006-01-02")
	}
	if cfg.StartDate == "" {
		end, err := time.Parse("2006-01-02", cfg.EndDate)
		if err == nil {
			cfg.StartDate = end.AddDate(-1, 0, 0).Format("2006-01-02")
		}
	}

	return cfg, nil
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Validate checks that all required fields are set and consistent.
func (c *Config) Validate() error {
	if len(c.Symbols) == 0 {
		return fmt.Errorf("symbols is required")
	}
	start, err := time.Parse("2006-01-02", c.StartDate)
	if err != nil {
		return fmt.Errorf("start_date: %w", err)
	}
	end, err := time.Parse("2006-01-02", c.EndDate)
	if err != nil {
		return fmt.Errorf("end_date: %w", err)
	}
	if !start.Before(end) {
		return fmt.Errorf("start_date %s must be before end_date %s", c.StartDate, c.EndDate)
	}
	for _, p := range c.RSIPeriods {
		if p < 1 {
			return fmt.Errorf("rsi_periods entry %d must be >= 1", p)
		}
	}
	if c.ProgressBatchSize < 0 {
		return fmt.Errorf("progress_batch_size must not be negative")
	}
	if c.ProgressBatchSize > len(c.Symbols) {
		return fmt.Errorf("progress_batch_size %d cannot exceed the number of symbols (%d)",
			c.ProgressBatchSize, len(c.Symbols))
	}
	return nil
}

// Range returns the parsed date range. Call Validate first.
func (c *Config) Range() (start, end time.Time) {
	start, _ = time.Parse("2006-01-02", c.StartDate)
	end, _ = time.Parse("2006-01-02", c.EndDate)
	return start, end
}
