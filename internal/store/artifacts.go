// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"fmt"

	"github.com/pdiddy/litreview/pkg/types"
)

// SaveArtifact appends a pipeline output for a run.
func (s *Store) SaveArtifact(ctx context.Context, runID int64, kind types.ArtifactKind, content string) (types.Artifact, error) {
	ts := now()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO artifacts (run_id, kind, content, created_at) VALUES (?, ?, ?, ?)`,
		runID, string(kind), content, formatTime(ts),
	)
	if err != nil {
		return types.Artifact{}, fmt.Errorf("inserting artifact: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return types.Artifact{}, fmt.Errorf("reading artifact id: %w", err)
	}
	return types.Artifact{
		ID:        id,
		RunID:     runID,
		Kind:      kind,
		Content:   content,
		CreatedAt: ts,
	}, nil
}

// ArtifactsForRun returns all artifacts persisted for a run, oldest first.
func (s *Store) ArtifactsForRun(ctx context.Context, runID int64) ([]types.Artifact, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, run_id, kind, content, created_at FROM artifacts WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying artifacts for run %d: %w", runID, err)
	}
	defer rows.Close()

	var artifacts []types.Artifact
	for rows.Next() {
		var (
			a         types.Artifact
			kind      string
			createdAt string
		)
		if err := rows.Scan(&a.ID, &a.RunID, &kind, &a.Content, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning artifact: %w", err)
		}
		a.Kind = types.ArtifactKind(kind)
		a.CreatedAt = parseTime(createdAt)
		artifacts = append(artifacts, a)
	}
	return artifacts, rows.Err()
}
