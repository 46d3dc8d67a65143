// Package store handles SQLite persistence.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/verte-zerg/tokencraft/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// takenAtLayout is fixed width so taken_at sorts chronologically as text.
const takenAtLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store wraps SQLite access for score snapshots.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS snapshots (
			id INTEGER PRIMARY KEY,
			taken_at TEXT NOT NULL,
			total_score REAL NOT NULL,
			avg_tokens_per_session REAL NOT NULL,
			rank_name TEXT NOT NULL,
			payload TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_taken_at ON snapshots(taken_at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertSnapshot stores a scoring run and returns its id.
func (s *Store) InsertSnapshot(ctx context.Context, snap model.Snapshot) (int64, error) {
	snap.ID = 0
	payload, err := json.Marshal(snap)
	if err != nil {
		return 0, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO snapshots (taken_at, total_score, avg_tokens_per_session, rank_name, payload)
		 VALUES (?, ?, ?, ?, ?)`,
		snap.Timestamp.UTC().Format(takenAtLayout),
		snap.Scores.TotalScore,
		snap.Profile.AvgTokensPerSession,
		snap.Rank.Name,
		string(payload),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// LatestSnapshot returns the most recent snapshot, or nil when none exist.
func (s *Store) LatestSnapshot(ctx context.Context) (*model.Snapshot, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, payload FROM snapshots ORDER BY taken_at DESC, id DESC LIMIT 1`)
	snap, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

// ListSnapshots returns up to limit most recent snapshots, oldest first.
// A non-positive limit returns all snapshots.
func (s *Store) ListSnapshots(ctx context.Context, limit int) ([]model.Snapshot, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, payload FROM (
			SELECT id, taken_at, payload FROM snapshots
			ORDER BY taken_at DESC, id DESC
			LIMIT ?
		) ORDER BY taken_at ASC, id ASC`, limit)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(sc scanner) (model.Snapshot, error) {
	var id int64
	var payload string
	if err := sc.Scan(&id, &payload); err != nil {
		return model.Snapshot{}, err
	}
	var snap model.Snapshot
	if err := json.Unmarshal([]byte(payload), &snap); err != nil {
		return model.Snapshot{}, fmt.Errorf("failed to decode snapshot %d: %w", id, err)
	}
	snap.ID = id
	return snap, nil
}
