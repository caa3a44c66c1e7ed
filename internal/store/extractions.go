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

// SaveExtraction appends a new extraction row. Rows are never updated in
// place, even when an identical extraction already exists; deduplication
// happens only at read time via latest-wins.
func (s *Store) SaveExtraction(ctx context.Context, runID, paperID int64, data types.ExtractionFields) (types.Extraction, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return types.Extraction{}, fmt.Errorf("marshaling extraction data: %w", err)
	}

	ts := now()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO extractions (run_id, paper_id, data, created_at) VALUES (?, ?, ?, ?)`,
		runID, paperID, string(payload), formatTime(ts),
	)
	if err != nil {
		return types.Extraction{}, fmt.Errorf("inserting extraction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return types.Extraction{}, fmt.Errorf("reading extraction id: %w", err)
	}
	return types.Extraction{
		ID:        id,
		RunID:     runID,
		PaperID:   paperID,
		Data:      data,
		CreatedAt: ts,
	}, nil
}

// LatestExtractionForPaper returns the most recent extraction for a paper
// across all runs, or (nil, nil) when none exists. Cross-run reuse is
// intentional: extracted fields are stable facts about a paper's content.
func (s *Store) LatestExtractionForPaper(ctx context.Context, paperID int64) (*types.Extraction, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, run_id, paper_id, data, created_at FROM extractions
		 WHERE paper_id = ? ORDER BY id DESC LIMIT 1`, paperID)
	ex, err := scanExtraction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying latest extraction for paper %d: %w", paperID, err)
	}
	return &ex, nil
}

// ExtractionsForRun returns up to maxItems extractions for a run, newest
// first by id, each joined with its paper. Older extractions beyond the
// cap are silently dropped; the cap only bounds digest size.
func (s *Store) ExtractionsForRun(ctx context.Context, runID int64, maxItems int) ([]ExtractionWithPaper, error) {
	if maxItems <= 0 {
		maxItems = 12
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT e.id, e.run_id, e.paper_id, e.data, e.created_at,
			p.id, p.source, p.source_id, p.title, p.year, p.doi, p.abstract, p.url, p.created_at
		 FROM extractions e
		 JOIN papers p ON p.id = e.paper_id
		 WHERE e.run_id = ?
		 ORDER BY e.id DESC
		 LIMIT ?`, runID, maxItems)
	if err != nil {
		return nil, fmt.Errorf("querying extractions for run %d: %w", runID, err)
	}
	defer rows.Close()

	var result []ExtractionWithPaper
	for rows.Next() {
		var (
			ex          types.Extraction
			p           types.Paper
			data        string
			exCreated   string
			pCreatedStr string
		)
		if err := rows.Scan(
			&ex.ID, &ex.RunID, &ex.PaperID, &data, &exCreated,
			&p.ID, &p.Source, &p.SourceID, &p.Title, &p.Year, &p.DOI, &p.Abstract, &p.URL, &pCreatedStr,
		); err != nil {
			return nil, fmt.Errorf("scanning extraction row: %w", err)
		}
		if err := json.Unmarshal([]byte(data), &ex.Data); err != nil {
			return nil, fmt.Errorf("parsing extraction %d data: %w", ex.ID, err)
		}
		ex.CreatedAt = parseTime(exCreated)
		p.CreatedAt = parseTime(pCreatedStr)
		result = append(result, ExtractionWithPaper{Extraction: ex, Paper: p})
	}
	return result, rows.Err()
}

// ExtractionWithPaper joins an extraction with its paper metadata for
// evidence building.
type ExtractionWithPaper struct {
	Extraction types.Extraction
	Paper      types.Paper
}

func scanExtraction(sc scanner) (types.Extraction, error) {
	var (
		ex        types.Extraction
		data      string
		createdAt string
	)
	if err := sc.Scan(&ex.ID, &ex.RunID, &ex.PaperID, &data, &createdAt); err != nil {
		return types.Extraction{}, err
	}
	if err := json.Unmarshal([]byte(data), &ex.Data); err != nil {
		return types.Extraction{}, fmt.Errorf("parsing extraction data: %w", err)
	}
	ex.CreatedAt = parseTime(createdAt)
	return ex, nil
}
