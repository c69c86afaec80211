// Package store persists run history in a local sqlite database: one row per
// merge run, per-source outcomes and leveled run events. The status API reads
// the same tables.
package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Store wraps the run-history database. Construct it once at process start
// and pass it into the components that record or serve run state.
type Store struct {
	db *sql.DB
}

// Open creates the database and its tables if needed.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open run store %q: %w", path, err)
	}

	tables := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			status TEXT,
			started_at DATETIME,
			finished_at DATETIME
		);`,
		`CREATE TABLE IF NOT EXISTS run_sources (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT,
			name TEXT,
			path TEXT,
			status TEXT,
			output_path TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS run_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT,
			level TEXT,
			stage TEXT,
			message TEXT,
			created_at DATETIME
		);`,
	}
	for _, ddl := range tables {
		if _, err := db.Exec(ddl); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create run store schema: %w", err)
		}
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateRun records a new run in pending state.
func (s *Store) CreateRun(runID string) error {
	_, err := s.db.Exec(`INSERT INTO runs (id, status, started_at) VALUES (?, ?, ?)`,
		runID, "pending", time.Now().UTC())
	return err
}

// UpdateRunStatus moves a run to a new status.
func (s *Store) UpdateRunStatus(runID, status string) error {
	_, err := s.db.Exec(`UPDATE runs SET status = ? WHERE id = ?`, status, runID)
	return err
}

// FinishRun records the terminal status and completion time of a run.
func (s *Store) FinishRun(runID, status string) error {
	_, err := s.db.Exec(`UPDATE runs SET status = ?, finished_at = ? WHERE id = ?`,
		status, time.Now().UTC(), runID)
	return err
}

// SaveSource records the outcome of one source within a run.
func (s *Store) SaveSource(runID, name, path, status, outputPath string) error {
	_, err := s.db.Exec(
		`INSERT INTO run_sources (run_id, name, path, status, output_path) VALUES (?, ?, ?, ?, ?)`,
		runID, name, path, status, outputPath)
	return err
}

// SaveEvent records one leveled event of a run.
func (s *Store) SaveEvent(runID, level, stage, message string) error {
	_, err := s.db.Exec(
		`INSERT INTO run_events (run_id, level, stage, message, created_at) VALUES (?, ?, ?, ?, ?)`,
		runID, level, stage, message, time.Now().UTC())
	return err
}

// ListRuns returns every run, newest first.
func (s *Store) ListRuns() ([]map[string]interface{}, error) {
	rows, err := s.db.Query(`SELECT id, status, started_at, finished_at FROM runs ORDER BY started_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []map[string]interface{}
	for rows.Next() {
		var id, status string
		var startedAt time.Time
		var finishedAt sql.NullTime
		if err := rows.Scan(&id, &status, &startedAt, &finishedAt); err != nil {
			return nil, err
		}
		run := map[string]interface{}{
			"id":        id,
			"status":    status,
			"startedAt": startedAt,
		}
		if finishedAt.Valid {
			run["finishedAt"] = finishedAt.Time
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetRun returns one run with its per-source outcomes.
func (s *Store) GetRun(runID string) (map[string]interface{}, error) {
	var status string
	var startedAt time.Time
	var finishedAt sql.NullTime
	err := s.db.QueryRow(`SELECT status, started_at, finished_at FROM runs WHERE id = ?`, runID).
		Scan(&status, &startedAt, &finishedAt)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(
		`SELECT name, path, status, output_path FROM run_sources WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sources []map[string]interface{}
	for rows.Next() {
		var name, path, srcStatus, outputPath string
		if err := rows.Scan(&name, &path, &srcStatus, &outputPath); err != nil {
			return nil, err
		}
		sources = append(sources, map[string]interface{}{
			"name":       name,
			"path":       path,
			"status":     srcStatus,
			"outputPath": outputPath,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	run := map[string]interface{}{
		"id":        runID,
		"status":    status,
		"startedAt": startedAt,
		"sources":   sources,
	}
	if finishedAt.Valid {
		run["finishedAt"] = finishedAt.Time
	}
	return run, nil
}

// ListEvents returns a run's events in insertion order.
func (s *Store) ListEvents(runID string) ([]map[string]interface{}, error) {
	rows, err := s.db.Query(
		`SELECT level, stage, message, created_at FROM run_events WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []map[string]interface{}
	for rows.Next() {
		var level, stage, message string
		var createdAt time.Time
		if err := rows.Scan(&level, &stage, &message, &createdAt); err != nil {
			return nil, err
		}
		events = append(events, map[string]interface{}{
			"level":     level,
			"stage":     stage,
			"message":   message,
			"createdAt": createdAt,
		})
	}
	return events, rows.Err()
}
