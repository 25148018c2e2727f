// Package store handles SQLite persistence of export snapshots.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/verte-zerg/spirestats/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Store wraps SQLite access for recorded snapshots.
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
			recorded_at INTEGER NOT NULL,
			run_count INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS snapshot_stats (
			snapshot_id INTEGER NOT NULL,
			character TEXT NOT NULL,
			display_name TEXT NOT NULL,
			total_runs INTEGER NOT NULL,
			wins INTEGER NOT NULL,
			win_rate REAL NOT NULL,
			avg_score REAL NOT NULL,
			avg_floor REAL NOT NULL,
			max_floor INTEGER NOT NULL,
			avg_deck_size REAL NOT NULL,
			avg_relics REAL NOT NULL,
			PRIMARY KEY (snapshot_id, character)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_recorded_at ON snapshots(recorded_at);`,
		`CREATE INDEX IF NOT EXISTS idx_snapshot_stats_character ON snapshot_stats(character);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertSnapshot stores an export snapshot and its per-character stats.
func (s *Store) InsertSnapshot(ctx context.Context, export model.ExportData) (id int64, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO snapshots (recorded_at, run_count) VALUES (?, ?)`,
		export.ExportTimestamp,
		len(export.Runs),
	)
	if err != nil {
		return 0, err
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, err
	}

	if len(export.CharacterStats) > 0 {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO snapshot_stats (snapshot_id, character, display_name, total_runs, wins, win_rate, avg_score, avg_floor, max_floor, avg_deck_size, avg_relics)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return 0, err
		}
		defer func() {
			if cerr := stmt.Close(); cerr != nil {
				// Best-effort statement close.
				_ = cerr
			}
		}()
		for _, st := range export.CharacterStats {
			if _, err := stmt.ExecContext(ctx, id, st.Character, st.DisplayName, st.TotalRuns, st.Wins,
				st.WinRate, st.AvgScore, st.AvgFloor, st.MaxFloor, st.AvgDeckSize, st.AvgRelics); err != nil {
				return 0, err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// ListHistory returns recorded stats rows, oldest first. character filters
// case-insensitively when non-empty; last limits to the most recent snapshots.
func (s *Store) ListHistory(ctx context.Context, character string, last int) ([]model.SnapshotStats, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if character != "" {
		clauses = append(clauses, "UPPER(st.character) = UPPER(?)")
		args = append(args, character)
	}
	if last > 0 {
		clauses = append(clauses, "s.id IN (SELECT id FROM snapshots ORDER BY recorded_at DESC, id DESC LIMIT ?)")
		args = append(args, last)
	}
	query := fmt.Sprintf(`SELECT s.id, s.recorded_at, s.run_count, st.character, st.display_name,
		st.total_runs, st.wins, st.win_rate, st.avg_score, st.avg_floor, st.max_floor, st.avg_deck_size, st.avg_relics
		FROM snapshots s
		JOIN snapshot_stats st ON st.snapshot_id = s.id
		WHERE %s
		ORDER BY s.recorded_at ASC, s.id ASC, st.rowid ASC`, strings.Join(clauses, " AND "))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.SnapshotStats
	for rows.Next() {
		var r model.SnapshotStats
		if err := rows.Scan(&r.SnapshotID, &r.RecordedAt, &r.RunCount, &r.Stats.Character, &r.Stats.DisplayName,
			&r.Stats.TotalRuns, &r.Stats.Wins, &r.Stats.WinRate, &r.Stats.AvgScore, &r.Stats.AvgFloor,
			&r.Stats.MaxFloor, &r.Stats.AvgDeckSize, &r.Stats.AvgRelics); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
