// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pdiddy/litreview/pkg/types"
)

// UpsertPaper inserts a paper or, when (source, source_id) already exists,
// backfills empty fields from rec and returns the stored row. Populated
// fields are never overwritten: first write wins.
func (s *Store) UpsertPaper(ctx context.Context, rec types.PaperRecord) (types.Paper, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return types.Paper{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	existing, err := getPaperBySource(ctx, tx, rec.Source, rec.SourceID)
	switch {
	case err == nil:
		merged := backfill(existing, rec)
		if merged != existing {
			if _, err := tx.ExecContext(ctx,
				`UPDATE papers SET title = ?, year = ?, doi = ?, abstract = ?, url = ? WHERE id = ?`,
				merged.Title, merged.Year, merged.DOI, merged.Abstract, merged.URL, merged.ID,
			); err != nil {
				return types.Paper{}, fmt.Errorf("updating paper %d: %w", merged.ID, err)
			}
		}
		if err := tx.Commit(); err != nil {
			return types.Paper{}, fmt.Errorf("committing paper upsert: %w", err)
		}
		return merged, nil

	case errors.Is(err, sql.ErrNoRows):
		ts := now()
		res, err := tx.ExecContext(ctx,
			`INSERT INTO papers (source, source_id, title, year, doi, abstract, url, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.Source, rec.SourceID, rec.Title, rec.Year, rec.DOI, rec.Abstract, rec.URL, formatTime(ts),
		)
		if err != nil {
			return types.Paper{}, fmt.Errorf("inserting paper: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return types.Paper{}, fmt.Errorf("reading paper id: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return types.Paper{}, fmt.Errorf("committing paper insert: %w", err)
		}
		return types.Paper{
			ID:        id,
			Source:    rec.Source,
			SourceID:  rec.SourceID,
			Title:     rec.Title,
			Year:      rec.Year,
			DOI:       rec.DOI,
			Abstract:  rec.Abstract,
			URL:       rec.URL,
			CreatedAt: ts,
		}, nil

	default:
		return types.Paper{}, fmt.Errorf("querying paper (%s, %s): %w", rec.Source, rec.SourceID, err)
	}
}

// backfill fills empty fields of p from rec. Non-empty fields keep their
// first-observed value.
func backfill(p types.Paper, rec types.PaperRecord) types.Paper {
	if p.Title == "" {
		p.Title = rec.Title
	}
	if p.Year == 0 {
		p.Year = rec.Year
	}
	if p.DOI == "" {
		p.DOI = rec.DOI
	}
	if p.Abstract == "" {
		p.Abstract = rec.Abstract
	}
	if p.URL == "" {
		p.URL = rec.URL
	}
	return p
}

func getPaperBySource(ctx context.Context, tx *sql.Tx, source, sourceID string) (types.Paper, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT id, source, source_id, title, year, doi, abstract, url, created_at
		 FROM papers WHERE source = ? AND source_id = ?`, source, sourceID)
	return scanPaper(row)
}

// GetPaper returns the paper with the given id, or types.ErrNotFound.
func (s *Store) GetPaper(ctx context.Context, id int64) (types.Paper, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, source, source_id, title, year, doi, abstract, url, created_at
		 FROM papers WHERE id = ?`, id)
	p, err := scanPaper(row)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Paper{}, fmt.Errorf("paper %d: %w", id, types.ErrNotFound)
	}
	if err != nil {
		return types.Paper{}, fmt.Errorf("querying paper %d: %w", id, err)
	}
	return p, nil
}

// LinkPaperToRun associates a paper with a run. Linking the same pair
// twice is a no-op rather than a duplicate row.
func (s *Store) LinkPaperToRun(ctx context.Context, runID, paperID int64) error {
	if _, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO run_papers (run_id, paper_id, created_at) VALUES (?, ?, ?)`,
		runID, paperID, formatTime(now()),
	); err != nil {
		return fmt.Errorf("linking paper %d to run %d: %w", paperID, runID, err)
	}
	return nil
}

// PapersForRun returns all papers linked to a run, in link order.
func (s *Store) PapersForRun(ctx context.Context, runID int64) ([]types.Paper, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT p.id, p.source, p.source_id, p.title, p.year, p.doi, p.abstract, p.url, p.created_at
		 FROM run_papers rp
		 JOIN papers p ON p.id = rp.paper_id
		 WHERE rp.run_id = ?
		 ORDER BY rp.id`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying papers for run %d: %w", runID, err)
	}
	defer rows.Close()

	var papers []types.Paper
	for rows.Next() {
		p, err := scanPaper(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning paper: %w", err)
		}
		papers = append(papers, p)
	}
	return papers, rows.Err()
}

func scanPaper(sc scanner) (types.Paper, error) {
	var (
		p         types.Paper
		createdAt string
	)
	if err := sc.Scan(&p.ID, &p.Source, &p.SourceID, &p.Title, &p.Year, &p.DOI, &p.Abstract, &p.URL, &createdAt); err != nil {
		return types.Paper{}, err
	}
	p.CreatedAt = parseTime(createdAt)
	return p, nil
}
