// Package journal persists run history to a local sqlite database. One run
// row per wallet per invocation, one attempt row per terminal pipeline
// outcome. A file lock serializes writers so concurrent invocations against
// the same data directory do not interleave.
package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

type Journal struct {
	db   *sql.DB
	lock *flock.Flock
}

// Run is one wallet's pass over a task tree.
type Run struct {
	RunID      string `json:"run_id"`
	Wallet     string `json:"wallet"`
	Status     string `json:"status"` // running, completed, aborted, failed
	StartedAt  string `json:"started_at"`
	FinishedAt string `json:"finished_at,omitempty"`
}

// Attempt is one terminal pipeline outcome inside a run.
type Attempt struct {
	AttemptID string `json:"attempt_id"`
	RunID     string `json:"run_id"`
	Network   string `json:"network"`
	Label     string `json:"label"`
	Outcome   string `json:"outcome"` // success, reverted, skipped
	TxHash    string `json:"tx_hash,omitempty"`
	Reason    string `json:"reason,omitempty"`
	Attempts  int    `json:"attempts"`
	At        string `json:"at"`
}

func Open(path, lockPath string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create journal directory: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
		return nil, fmt.Errorf("create journal lock directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open journal sqlite: %w", err)
	}

	queries := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		`CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			wallet TEXT NOT NULL,
			status TEXT NOT NULL,
			started_at INTEGER NOT NULL,
			finished_at INTEGER,
			payload BLOB NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS attempts (
			attempt_id TEXT PRIMARY KEY,
			run_id TEXT NOT NULL,
			outcome TEXT NOT NULL,
			at INTEGER NOT NULL,
			payload BLOB NOT NULL
		);`,
		"CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at DESC);",
		"CREATE INDEX IF NOT EXISTS idx_attempts_run ON attempts(run_id, at);",
	}
	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("init journal schema: %w", err)
		}
	}
	return &Journal{db: db, lock: flock.New(lockPath)}, nil
}

func (j *Journal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}
	return j.db.Close()
}

// BeginRun records a new run in status "running" and returns it.
func (j *Journal) BeginRun(wallet string) (Run, error) {
	run := Run{
		RunID:     uuid.NewString(),
		Wallet:    wallet,
		Status:    "running",
		StartedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if err := j.saveRun(run); err != nil {
		return Run{}, err
	}
	return run, nil
}

// FinishRun stamps the run's terminal status.
func (j *Journal) FinishRun(run Run, status string) error {
	run.Status = status
	run.FinishedAt = time.Now().UTC().Format(time.RFC3339)
	return j.saveRun(run)
}

func (j *Journal) saveRun(run Run) error {
	if strings.TrimSpace(run.RunID) == "" {
		return fmt.Errorf("save run: missing run id")
	}
	unlock, err := j.acquire()
	if err != nil {
		return err
	}
	defer unlock()

	payload, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("marshal run: %w", err)
	}
	started, _ := parseRFC3339Unix(run.StartedAt)
	var finished any
	if unix, ok := parseRFC3339Unix(run.FinishedAt); ok {
		finished = unix
	}
	_, err = j.db.Exec(`
		INSERT INTO runs (run_id, wallet, status, started_at, finished_at, payload)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id) DO UPDATE SET
			status=excluded.status,
			finished_at=excluded.finished_at,
			payload=excluded.payload
	`, run.RunID, run.Wallet, run.Status, started, finished, payload)
	if err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	return nil
}

// RecordAttempt appends one terminal outcome to a run.
func (j *Journal) RecordAttempt(runID string, attempt Attempt) error {
	attempt.AttemptID = uuid.NewString()
	attempt.RunID = runID
	attempt.At = time.Now().UTC().Format(time.RFC3339)

	unlock, err := j.acquire()
	if err != nil {
		return err
	}
	defer unlock()

	payload, err := json.Marshal(attempt)
	if err != nil {
		return fmt.Errorf("marshal attempt: %w", err)
	}
	at, _ := parseRFC3339Unix(attempt.At)
	_, err = j.db.Exec(`
		INSERT INTO attempts (attempt_id, run_id, outcome, at, payload)
		VALUES (?, ?, ?, ?, ?)
	`, attempt.AttemptID, attempt.RunID, attempt.Outcome, at, payload)
	if err != nil {
		return fmt.Errorf("save attempt: %w", err)
	}
	return nil
}

// GetRun loads one run by id.
func (j *Journal) GetRun(runID string) (Run, error) {
	var payload []byte
	err := j.db.QueryRow("SELECT payload FROM runs WHERE run_id = ?", runID).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, fmt.Errorf("run not found: %s", runID)
		}
		return Run{}, fmt.Errorf("read run: %w", err)
	}
	var run Run
	if err := json.Unmarshal(payload, &run); err != nil {
		return Run{}, fmt.Errorf("decode run payload: %w", err)
	}
	return run, nil
}

// ListRuns returns the most recent runs, newest first.
func (j *Journal) ListRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := j.db.Query("SELECT payload FROM runs ORDER BY started_at DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	runs := make([]Run, 0)
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		var run Run
		if err := json.Unmarshal(payload, &run); err != nil {
			return nil, fmt.Errorf("decode run row: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run rows: %w", err)
	}
	return runs, nil
}

// ListAttempts returns a run's attempts in the order they happened.
func (j *Journal) ListAttempts(runID string) ([]Attempt, error) {
	rows, err := j.db.Query("SELECT payload FROM attempts WHERE run_id = ? ORDER BY at", runID)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	defer rows.Close()

	attempts := make([]Attempt, 0)
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan attempt row: %w", err)
		}
		var attempt Attempt
		if err := json.Unmarshal(payload, &attempt); err != nil {
			return nil, fmt.Errorf("decode attempt row: %w", err)
		}
		attempts = append(attempts, attempt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attempt rows: %w", err)
	}
	return attempts, nil
}

func (j *Journal) acquire() (func(), error) {
	locked, err := j.lock.TryLockContext(context.Background(), 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("lock journal: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("lock journal: timeout acquiring lock")
	}
	return func() { _ = j.lock.Unlock() }, nil
}

func parseRFC3339Unix(v string) (int64, bool) {
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return 0, false
	}
	return t.UTC().Unix(), true
}
