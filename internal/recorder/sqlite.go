package recorder

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"MarketLens/internal/model"
)

// SQLiteRecorder writes aggregated tables to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode for better concurrent read performance (Grafana reads while the batch writes).
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS ingest_runs (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp INTEGER NOT NULL,
			symbols   TEXT,
			periods   TEXT,
			row_count INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_ts ON ingest_runs(timestamp)`,

		`CREATE TABLE IF NOT EXISTS indicator_rows (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id    INTEGER NOT NULL,
			symbol    TEXT NOT NULL,
			timestamp INTEGER NOT NULL,
			open      REAL,
			high      REAL,
			low       REAL,
			close     REAL,
			volume    REAL,
			return_pct REAL,
			rsi       TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_rows_symbol_ts ON indicator_rows(symbol, timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordTable stores one aggregation run and all of its rows.
func (r *SQLiteRecorder) RecordTable(t *model.Table) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	periods := make([]string, len(t.Periods))
	for i, p := range t.Periods {
		periods[i] = model.RSIColumn(p)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`INSERT INTO ingest_runs (timestamp, symbols, periods, row_count)
		VALUES (?,?,?,?)`,
		time.Now().Unix(), strings.Join(t.Symbols(), ","), strings.Join(periods, ","), len(t.Rows))
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("run id: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO indicator_rows
		(run_id, symbol, timestamp, open, high, low, close, volume, return_pct, rsi)
		VALUES (?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for i := range t.Rows {
		row := &t.Rows[i]
		rsi := make(map[string]float64, len(t.Periods))
		for j, p := range t.Periods {
			rsi[model.RSIColumn(p)] = row.RSI[j]
		}
		rsiJSON, err := json.Marshal(rsi)
		if err != nil {
			return fmt.Errorf("encode rsi: %w", err)
		}

		// SQLite has no NaN; the undefined first return per symbol becomes NULL.
		ret := sql.NullFloat64{Float64: row.Return, Valid: !math.IsNaN(row.Return)}

		if _, err := stmt.Exec(runID, row.Symbol, row.Time.Unix(),
			row.Open, row.High, row.Low, row.Close, row.Volume, ret, string(rsiJSON)); err != nil {
			return fmt.Errorf("insert row: %w", err)
		}
	}

	return tx.Commit()
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
