// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package records persists resolution results in a local SQLite database so
// repeated invocations can reuse earlier answers and the CLI can inspect
// resolution history. The engine itself never touches the store; it is
// wired at the CLI layer only.
package records

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/sragent/pkg/types"
)

const dbFile = "resolutions.db"

// Store manages the resolutions SQLite database.
type Store struct {
	db     *sqlx.DB
	maxAge time.Duration
}

// Open opens or creates the database at cfg.Dir/resolutions.db and ensures
// the schema exists.
func Open(cfg types.RecordsConfig) (*Store, error) {
	dir := cfg.Dir
	if dir == "" {
		dir = ".sragent"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating records directory: %w", err)
	}

	dbPath := filepath.Join(dir, dbFile)
	db, err := sqlx.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, maxAge: cfg.MaxAge}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS resolutions (
			id TEXT PRIMARY KEY,
			input TEXT NOT NULL,
			goal TEXT NOT NULL,
			target TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS accession_records (
			resolution_id TEXT NOT NULL REFERENCES resolutions(id),
			namespace TEXT NOT NULL,
			accession TEXT NOT NULL,
			source TEXT NOT NULL,
			confidence REAL NOT NULL,
			detail TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_resolutions_input ON resolutions(input, goal, target)`,
		`CREATE INDEX IF NOT EXISTS idx_records_resolution ON accession_records(resolution_id)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Save persists one resolution and its records in a transaction.
func (s *Store) Save(result types.ResolutionResult) error {
	tx, err := s.db.Beginx()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO resolutions (id, input, goal, target, status, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		result.ID,
		result.Request.Input,
		string(result.Request.Goal),
		string(result.Request.Target),
		string(result.Status),
		result.Timestamp.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("inserting resolution: %w", err)
	}

	for _, rec := range result.Records {
		_, err = tx.Exec(
			`INSERT INTO accession_records (resolution_id, namespace, accession, source, confidence, detail)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			result.ID, string(rec.Namespace), rec.Accession, rec.Source, rec.Confidence, rec.Detail,
		)
		if err != nil {
			return fmt.Errorf("inserting record: %w", err)
		}
	}

	return tx.Commit()
}

// resolutionRow mirrors the resolutions table.
type resolutionRow struct {
	ID        string `db:"id"`
	Input     string `db:"input"`
	Goal      string `db:"goal"`
	Target    string `db:"target"`
	Status    string `db:"status"`
	CreatedAt string `db:"created_at"`
}

// recordRow mirrors the accession_records table.
type recordRow struct {
	ResolutionID string         `db:"resolution_id"`
	Namespace    string         `db:"namespace"`
	Accession    string         `db:"accession"`
	Source       string         `db:"source"`
	Confidence   float64        `db:"confidence"`
	Detail       sql.NullString `db:"detail"`
}

// Latest returns the most recent stored resolution matching the request, or
// false when none exists or the newest one is older than the configured
// maximum age. Only successful resolutions are reused.
func (s *Store) Latest(req types.ResolutionRequest) (types.ResolutionResult, bool, error) {
	var row resolutionRow
	err := s.db.Get(&row,
		`SELECT id, input, goal, target, status, created_at FROM resolutions
		 WHERE input = ? AND goal = ? AND target = ? AND status != ?
		 ORDER BY created_at DESC LIMIT 1`,
		req.Input, string(req.Goal), string(req.Target), string(types.StatusUnresolved),
	)
	if errors.Is(err, sql.ErrNoRows) {
		return types.ResolutionResult{}, false, nil
	}
	if err != nil {
		return types.ResolutionResult{}, false, fmt.Errorf("querying resolutions: %w", err)
	}

	result, err := s.hydrate(row)
	if err != nil {
		return types.ResolutionResult{}, false, err
	}

	if s.maxAge > 0 && time.Since(result.Timestamp) > s.maxAge {
		return types.ResolutionResult{}, false, nil
	}
	return result, true, nil
}

// List returns stored resolutions, newest first, up to limit (0 = all).
func (s *Store) List(limit int) ([]types.ResolutionResult, error) {
	query := `SELECT id, input, goal, target, status, created_at FROM resolutions ORDER BY created_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	var rows []resolutionRow
	if err := s.db.Select(&rows, query, args...); err != nil {
		return nil, fmt.Errorf("listing resolutions: %w", err)
	}

	results := make([]types.ResolutionResult, 0, len(rows))
	for _, row := range rows {
		result, err := s.hydrate(row)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	return results, nil
}

// hydrate loads the accession records for a resolution row and rebuilds the
// result value.
func (s *Store) hydrate(row resolutionRow) (types.ResolutionResult, error) {
	var recRows []recordRow
	err := s.db.Select(&recRows,
		`SELECT resolution_id, namespace, accession, source, confidence, detail
		 FROM accession_records WHERE resolution_id = ? ORDER BY confidence DESC`,
		row.ID,
	)
	if err != nil {
		return types.ResolutionResult{}, fmt.Errorf("loading records for %s: %w", row.ID, err)
	}

	result := types.ResolutionResult{
		ID: row.ID,
		Request: types.ResolutionRequest{
			Goal:   types.Goal(row.Goal),
			Input:  row.Input,
			Target: types.Namespace(row.Target),
		},
		Status: types.ResolutionStatus(row.Status),
	}

	if t, parseErr := time.Parse(time.RFC3339Nano, strings.TrimSpace(row.CreatedAt)); parseErr == nil {
		result.Timestamp = t
	}

	for _, rr := range recRows {
		result.Records = append(result.Records, types.AccessionRecord{
			Namespace:  types.Namespace(rr.Namespace),
			Accession:  rr.Accession,
			Source:     rr.Source,
			Confidence: rr.Confidence,
			Detail:     rr.Detail.String,
		})
	}
	return result, nil
}
