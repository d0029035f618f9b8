// Package store persists scoring results for later lookup, following the
// teacher's sqlite persistence pattern: a mandatory-PRAGMA DSN, a
// PRAGMA-user_version schema migration, and JSON-encoded slice columns.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/qualitylab/p1203go/internal/report"
)

const schemaVersion = 1

// Config mirrors the teacher's sqlite.Config: the busy timeout is applied
// via a DSN pragma so it binds to every connection in the pool, and
// MaxOpenConns sizes the pool.
type Config struct {
	BusyTimeout  time.Duration
	MaxOpenConns int
}

// DefaultConfig returns sane defaults for a single-writer result store.
func DefaultConfig() Config {
	return Config{
		BusyTimeout:  5 * time.Second,
		MaxOpenConns: 8,
	}
}

// Store persists report.Result rows keyed by an opaque session ID.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the sqlite-backed result store at path
// and runs its schema migration.
func Open(path string, cfg Config) (*Store, error) {
	dsn := fmt.Sprintf(
		"file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)&_pragma=synchronous(NORMAL)",
		path, cfg.BusyTimeout.Milliseconds(),
	)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open failed: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxOpenConns)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: ping failed: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: migration failed: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	var current int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&current); err != nil {
		return err
	}
	if current >= schemaVersion {
		return nil
	}

	schema := `
	CREATE TABLE IF NOT EXISTS results (
		session_id TEXT PRIMARY KEY,
		stream_id INTEGER NOT NULL,
		mode INTEGER NOT NULL,
		o23 REAL NOT NULL,
		o34_json TEXT NOT NULL,
		o35 REAL NOT NULL,
		o46 REAL NOT NULL,
		date TEXT NOT NULL,
		o21_json TEXT,
		o22_json TEXT,
		created_at_ms INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_results_created ON results(created_at_ms);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return err
	}
	_, err := s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion))
	return err
}

// Put records one session's result under sessionID, overwriting any
// previous result stored for it.
func (s *Store) Put(ctx context.Context, sessionID string, result report.Result) error {
	o34, err := json.Marshal(result.O34)
	if err != nil {
		return err
	}
	o21, err := json.Marshal(result.O21)
	if err != nil {
		return err
	}
	o22, err := json.Marshal(result.O22)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO results (
			session_id, stream_id, mode, o23, o34_json, o35, o46, date, o21_json, o22_json, created_at_ms
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			stream_id = excluded.stream_id,
			mode = excluded.mode,
			o23 = excluded.o23,
			o34_json = excluded.o34_json,
			o35 = excluded.o35,
			o46 = excluded.o46,
			date = excluded.date,
			o21_json = excluded.o21_json,
			o22_json = excluded.o22_json,
			created_at_ms = excluded.created_at_ms
	`,
		sessionID, result.StreamID, result.Mode, result.O23, o34, result.O35, result.O46, result.Date,
		o21, o22, time.Now().UnixMilli(),
	)
	return err
}

// Get returns the result stored for sessionID, or (report.Result{}, false, nil)
// if none exists.
func (s *Store) Get(ctx context.Context, sessionID string) (report.Result, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT stream_id, mode, o23, o34_json, o35, o46, date, o21_json, o22_json
		FROM results WHERE session_id = ?
	`, sessionID)

	var result report.Result
	var o34, o21, o22 []byte
	err := row.Scan(&result.StreamID, &result.Mode, &result.O23, &o34, &result.O35, &result.O46, &result.Date, &o21, &o22)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return report.Result{}, false, nil
		}
		return report.Result{}, false, err
	}

	if err := json.Unmarshal(o34, &result.O34); err != nil {
		return report.Result{}, false, err
	}
	if len(o21) > 0 {
		if err := json.Unmarshal(o21, &result.O21); err != nil {
			return report.Result{}, false, err
		}
	}
	if len(o22) > 0 {
		if err := json.Unmarshal(o22, &result.O22); err != nil {
			return report.Result{}, false, err
		}
	}
	return result, true, nil
}

// Recent returns up to limit results ordered by most-recently written.
func (s *Store) Recent(ctx context.Context, limit int) ([]report.Result, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT stream_id, mode, o23, o34_json, o35, o46, date, o21_json, o22_json
		FROM results ORDER BY created_at_ms DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []report.Result
	for rows.Next() {
		var result report.Result
		var o34, o21, o22 []byte
		if err := rows.Scan(&result.StreamID, &result.Mode, &result.O23, &o34, &result.O35, &result.O46, &result.Date, &o21, &o22); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(o34, &result.O34); err != nil {
			return nil, err
		}
		if len(o21) > 0 {
			_ = json.Unmarshal(o21, &result.O21)
		}
		if len(o22) > 0 {
			_ = json.Unmarshal(o22, &result.O22)
		}
		results = append(results, result)
	}
	return results, rows.Err()
}
