package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	"MarketPulse/internal/model"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists refresh history to a SQLite database.
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

	// WAL so dashboards can read while the refresh loop writes.
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
		`CREATE TABLE IF NOT EXISTS refresh_runs (
			id          TEXT PRIMARY KEY,
			started_at  INTEGER NOT NULL,
			finished_at INTEGER NOT NULL,
			quotes      INTEGER,
			simulated   INTEGER,
			changes     INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started ON refresh_runs(started_at)`,

		`CREATE TABLE IF NOT EXISTS analyses (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id          TEXT,
			timestamp       INTEGER NOT NULL,
			symbol          TEXT NOT NULL,
			source          TEXT,
			simulated       INTEGER,
			price           REAL,
			change_percent  REAL,
			day_high        REAL,
			day_low         REAL,
			volume          REAL,
			rsi             INTEGER,
			volatility_pct  REAL,
			range_position  REAL,
			pivot           REAL,
			score           INTEGER,
			classification  TEXT,
			summary         TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_analyses_symbol_ts ON analyses(symbol, timestamp)`,

		`CREATE TABLE IF NOT EXISTS news_items (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			fetched_at   INTEGER NOT NULL,
			published_at INTEGER,
			title        TEXT NOT NULL,
			source       TEXT,
			url          TEXT,
			impact       TEXT,
			UNIQUE(title, source)
		)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordRun(run *RefreshRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	_, err := r.db.Exec(`INSERT OR REPLACE INTO refresh_runs
		(id, started_at, finished_at, quotes, simulated, changes)
		VALUES (?,?,?,?,?,?)`,
		run.ID, run.StartedAt.Unix(), run.FinishedAt.Unix(),
		run.Quotes, run.Simulated, run.Changes,
	)
	return err
}

// RecordAnalysis stores one snapshot. A nil analysis stores the quote with
// empty indicator columns.
func (r *SQLiteRecorder) RecordAnalysis(rec *AnalysisRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap := rec.Snapshot
	q := snap.Quote
	var (
		rsi, score           sql.NullInt64
		volPct, rangePos, pv sql.NullFloat64
		class, summary       sql.NullString
		change               sql.NullFloat64
	)
	if q.HasChange() {
		change = sql.NullFloat64{Float64: q.ChangePercent, Valid: true}
	}
	if a := rec.Analysis; a != nil {
		rsi = sql.NullInt64{Int64: int64(a.RelativeStrength.Value), Valid: true}
		score = sql.NullInt64{Int64: int64(a.Score), Valid: true}
		volPct = sql.NullFloat64{Float64: a.Volatility.RangePercent, Valid: true}
		rangePos = sql.NullFloat64{Float64: a.RangePosition.Percent, Valid: true}
		pv = sql.NullFloat64{Float64: a.Pivots.Pivot, Valid: true}
		class = sql.NullString{String: string(a.Classification), Valid: true}
		summary = sql.NullString{String: a.Summary, Valid: true}
	}

	ts := snap.FetchedAt
	if ts.IsZero() {
		ts = time.Now()
	}
	_, err := r.db.Exec(`INSERT INTO analyses
		(run_id, timestamp, symbol, source, simulated, price, change_percent, day_high, day_low, volume,
		 rsi, volatility_pct, range_position, pivot, score, classification, summary)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		rec.RunID, ts.Unix(), snap.Instrument.Symbol, snap.Source, snap.Simulated,
		q.Price, change, q.DayHigh, q.DayLow, q.Volume,
		rsi, volPct, rangePos, pv, score, class, summary,
	)
	return err
}

// RecordNews stores headlines, skipping ones already seen from the same source.
// Offline placeholders are not stored.
func (r *SQLiteRecorder) RecordNews(items []model.NewsItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().Unix()
	for _, it := range items {
		if it.Offline {
			continue
		}
		if _, err := r.db.Exec(`INSERT OR IGNORE INTO news_items
			(fetched_at, published_at, title, source, url, impact)
			VALUES (?,?,?,?,?,?)`,
			now, it.PublishedAt.Unix(), it.Title, it.Source, it.URL, string(it.Impact),
		); err != nil {
			return fmt.Errorf("insert news %q: %w", it.Title, err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
