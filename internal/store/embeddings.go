// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pdiddy/litreview/pkg/types"
)

// GetEmbedding returns the embedding for (kind, paperID), or (nil, nil)
// when none exists.
func (s *Store) GetEmbedding(ctx context.Context, kind string, paperID int64) (*types.Embedding, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, kind, paper_id, run_id, vector, created_at FROM embeddings
		 WHERE kind = ? AND paper_id = ? LIMIT 1`, kind, paperID)

	var (
		e         types.Embedding
		paper     sql.NullInt64
		run       sql.NullInt64
		vector    string
		createdAt string
	)
	err := row.Scan(&e.ID, &e.Kind, &paper, &run, &vector, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying embedding (%s, %d): %w", kind, paperID, err)
	}
	e.PaperID = paper.Int64
	e.RunID = run.Int64
	if err := json.Unmarshal([]byte(vector), &e.Vector); err != nil {
		return nil, fmt.Errorf("parsing embedding vector: %w", err)
	}
	e.CreatedAt = parseTime(createdAt)
	return &e, nil
}

// SaveEmbedding stores a vector for (kind, paperID). The unique index on
// (kind, paper_id) makes a second save for the same pair a no-op.
func (s *Store) SaveEmbedding(ctx context.Context, kind string, paperID int64, vector []float64) (types.Embedding, error) {
	data, err := json.Marshal(vector)
	if err != nil {
		return types.Embedding{}, fmt.Errorf("marshaling vector: %w", err)
	}
	ts := now()
	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO embeddings (kind, paper_id, vector, created_at) VALUES (?, ?, ?, ?)`,
		kind, paperID, string(data), formatTime(ts),
	)
	if err != nil {
		return types.Embedding{}, fmt.Errorf("inserting embedding: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return types.Embedding{}, fmt.Errorf("reading embedding id: %w", err)
	}
	return types.Embedding{
		ID:        id,
		Kind:      kind,
		PaperID:   paperID,
		Vector:    vector,
		CreatedAt: ts,
	}, nil
}
