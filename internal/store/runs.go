// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pdiddy/litreview/pkg/types"
)

// CreateRun inserts a new run in the created state.
func (s *Store) CreateRun(ctx context.Context, topic, notes string, uploadPapers bool) (types.Run, error) {
	ts := now()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (topic, status, upload_papers, notes, created_at) VALUES (?, ?, ?, ?, ?)`,
		topic, string(types.RunCreated), uploadPapers, notes, formatTime(ts),
	)
	if err != nil {
		return types.Run{}, fmt.Errorf("inserting run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return types.Run{}, fmt.Errorf("reading run id: %w", err)
	}
	return types.Run{
		ID:           id,
		Topic:        topic,
		Status:       types.RunCreated,
		UploadPapers: uploadPapers,
		Notes:        notes,
		CreatedAt:    ts,
	}, nil
}

// GetRun returns the run with the given id, or types.ErrNotFound.
func (s *Store) GetRun(ctx context.Context, id int64) (types.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, topic, status, upload_papers, notes, created_at FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Run{}, fmt.Errorf("run %d: %w", id, types.ErrNotFound)
	}
	if err != nil {
		return types.Run{}, fmt.Errorf("querying run %d: %w", id, err)
	}
	return run, nil
}

// ListRuns returns all runs, newest first.
func (s *Store) ListRuns(ctx context.Context) ([]types.Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, topic, status, upload_papers, notes, created_at FROM runs ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []types.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// SetRunStatus transitions a run to next and persists the change
// immediately, in its own transaction. The monotonic lifecycle is
// enforced here: a terminal run never re-enters running.
func (s *Store) SetRunStatus(ctx context.Context, id int64, next types.RunStatus) error {
	run, err := s.GetRun(ctx, id)
	if err != nil {
		return err
	}
	if !run.Status.CanTransition(next) {
		return fmt.Errorf("run %d: invalid status transition %s → %s", id, run.Status, next)
	}
	if _, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ? WHERE id = ?`, string(next), id); err != nil {
		return fmt.Errorf("updating run %d status: %w", id, err)
	}
	return nil
}

// scanner covers *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (types.Run, error) {
	var (
		run       types.Run
		status    string
		createdAt string
	)
	if err := sc.Scan(&run.ID, &run.Topic, &status, &run.UploadPapers, &run.Notes, &createdAt); err != nil {
		return types.Run{}, err
	}
	run.Status = types.RunStatus(status)
	run.CreatedAt = parseTime(createdAt)
	return run, nil
}
