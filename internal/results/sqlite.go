package results

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps runs and episodes in a single SQLite file.
type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}

	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

func (s *SQLiteStore) SaveRun(ctx context.Context, run Run) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO runs (id, mode, environment, episodes, started_at)
		VALUES (?, ?, ?, ?, ?)
	`, run.ID, run.Mode, run.Environment, run.Episodes, run.StartedAt.UnixNano())
	if isUniqueViolation(err) {
		return fmt.Errorf("run %s: %w", run.ID, ErrConflict)
	}
	return err
}

func (s *SQLiteStore) GetRun(ctx context.Context, id string) (Run, error) {
	db, err := s.getDB()
	if err != nil {
		return Run{}, err
	}

	var (
		run       Run
		startedAt int64
	)
	err = db.QueryRowContext(ctx, `
		SELECT id, mode, environment, episodes, started_at FROM runs WHERE id = ?
	`, id).Scan(&run.ID, &run.Mode, &run.Environment, &run.Episodes, &startedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, fmt.Errorf("run %s: %w", id, ErrNotFound)
		}
		return Run{}, err
	}
	run.StartedAt = time.Unix(0, startedAt).UTC()
	return run, nil
}

func (s *SQLiteStore) AppendEpisode(ctx context.Context, episode Episode) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}
	if _, err := s.GetRun(ctx, episode.RunID); err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO episodes (run_id, episode, score, steps, epsilon, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, episode.RunID, episode.Episode, episode.Score, episode.Steps, episode.Epsilon, episode.RecordedAt.UnixNano())
	if isUniqueViolation(err) {
		return fmt.Errorf("run %s episode %d: %w", episode.RunID, episode.Episode, ErrConflict)
	}
	return err
}

func (s *SQLiteStore) Episodes(ctx context.Context, runID string) ([]Episode, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}
	if _, err := s.GetRun(ctx, runID); err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT run_id, episode, score, steps, epsilon, recorded_at
		FROM episodes WHERE run_id = ? ORDER BY episode
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Episode
	for rows.Next() {
		var (
			ep         Episode
			recordedAt int64
		)
		if err := rows.Scan(&ep.RunID, &ep.Episode, &ep.Score, &ep.Steps, &ep.Epsilon, &recordedAt); err != nil {
			return nil, err
		}
		ep.RecordedAt = time.Unix(0, recordedAt).UTC()
		out = append(out, ep)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, errors.New("sqlite store is not initialized")
	}
	return s.db, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			mode TEXT NOT NULL,
			environment TEXT NOT NULL,
			episodes INTEGER NOT NULL,
			started_at INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS episodes (
			run_id TEXT NOT NULL REFERENCES runs(id),
			episode INTEGER NOT NULL,
			score REAL NOT NULL,
			steps INTEGER NOT NULL,
			epsilon REAL NOT NULL,
			recorded_at INTEGER NOT NULL,
			PRIMARY KEY (run_id, episode)
		)`,
	}
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
