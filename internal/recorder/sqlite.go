package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"SignalSentinel/internal/model"

	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists the signal journal to a SQLite database.
// Writes are serialised; the journal is never read back by the bot.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

var journalPragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA busy_timeout=5000",
	"PRAGMA synchronous=NORMAL",
}

var journalSchema = []string{
	`CREATE TABLE IF NOT EXISTS signals (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp   INTEGER NOT NULL,
		cycle_id    TEXT,
		scope       TEXT,
		owner_id    INTEGER,
		mode        TEXT,
		symbol      TEXT,
		timeframe   TEXT,
		label       TEXT,
		strength    INTEGER,
		buy_score   REAL,
		sell_score  REAL,
		price       REAL,
		rsi         REAL,
		recipients  INTEGER,
		delivered   INTEGER,
		suppressed  INTEGER
	)`,
	`CREATE INDEX IF NOT EXISTS idx_signals_ts ON signals(timestamp)`,
	`CREATE INDEX IF NOT EXISTS idx_signals_target ON signals(symbol, timeframe)`,
	`CREATE TABLE IF NOT EXISTS fetch_failures (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp  INTEGER NOT NULL,
		cycle_id   TEXT,
		mode       TEXT,
		symbol     TEXT,
		timeframe  TEXT,
		kind       TEXT,
		message    TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_failures_ts ON fetch_failures(timestamp)`,
}

// NewSQLiteRecorder opens the journal at path, creating the file, its directory and the tables as needed.
func NewSQLiteRecorder(path string) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create journal dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open journal %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if err := execAll(db, journalPragmas); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := execAll(db, journalSchema); err != nil {
		_ = db.Close()
		return nil, err
	}
	log.Printf("[INFO] signal journal at %s", path)
	return &SQLiteRecorder{db: db}, nil
}

func execAll(db *sql.DB, stmts []string) error {
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			head := strings.Fields(s)
			if len(head) > 4 {
				head = head[:4]
			}
			return fmt.Errorf("%s: %w", strings.Join(head, " "), err)
		}
	}
	return nil
}

// nullable maps undefined indicator readings to NULL.
func nullable(v float64) any {
	if !model.Valid(v) {
		return nil
	}
	return v
}

func (r *SQLiteRecorder) RecordSignal(evt *SignalEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO signals
		(timestamp, cycle_id, scope, owner_id, mode, symbol, timeframe,
		 label, strength, buy_score, sell_score, price, rsi,
		 recipients, delivered, suppressed)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		time.Now().Unix(), evt.CycleID, evt.Scope, evt.OwnerID, string(evt.Mode), evt.Symbol, evt.Timeframe,
		string(evt.Label), int(evt.Strength), evt.BuyScore, evt.SellScore, nullable(evt.Price), nullable(evt.RSI),
		evt.Recipients, evt.Delivered, evt.Suppressed,
	)
	if err != nil {
		return fmt.Errorf("insert signal: %w", err)
	}
	return nil
}

func (r *SQLiteRecorder) RecordFetchFailure(evt *FetchFailure) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO fetch_failures
		(timestamp, cycle_id, mode, symbol, timeframe, kind, message)
		VALUES (?,?,?,?,?,?,?)`,
		time.Now().Unix(), evt.CycleID, string(evt.Mode), evt.Symbol, evt.Timeframe, evt.Kind, evt.Message,
	)
	if err != nil {
		return fmt.Errorf("insert fetch failure: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (r *SQLiteRecorder) Close() error {
	return r.db.Close()
}
