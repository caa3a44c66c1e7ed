// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extraction obtains structured fields for papers, memoized per
// paper: the latest prior extraction is reused across runs instead of
// recomputing, because extracted fields are stable facts about a paper's
// content. Retention is unbounded and nothing invalidates old rows;
// latest-wins reads absorb any duplicates concurrent runs produce.
package extraction

import (
	"context"
	"fmt"
	"io"

	"github.com/pdiddy/litreview/pkg/types"
)

// Producer is the expensive extraction call, satisfied by *llm.Client.
// Tests supply fakes.
type Producer interface {
	ExtractFields(ctx context.Context, title, abstract string) (types.ExtractionFields, error)
}

// Store is the persistence surface the service needs.
type Store interface {
	LatestExtractionForPaper(ctx context.Context, paperID int64) (*types.Extraction, error)
	SaveExtraction(ctx context.Context, runID, paperID int64, data types.ExtractionFields) (types.Extraction, error)
}

// Service wraps the producer with the per-paper cache policy.
type Service struct {
	Producer Producer
	Store    Store
}

// ForPaper returns the extraction fields for a paper. A prior extraction
// for the paper — from any run — is reused verbatim with no producer call;
// otherwise the producer runs and the result is appended for this run.
func (s *Service) ForPaper(ctx context.Context, runID int64, paper types.Paper, w io.Writer) (types.ExtractionFields, error) {
	cached, err := s.Store.LatestExtractionForPaper(ctx, paper.ID)
	if err != nil {
		return types.ExtractionFields{}, err
	}
	if cached != nil {
		fmt.Fprintf(w, "extraction cache hit for paper %d\n", paper.ID)
		return cached.Data, nil
	}

	fields, err := s.Producer.ExtractFields(ctx, paper.Title, paper.Abstract)
	if err != nil {
		return types.ExtractionFields{}, err
	}

	if _, err := s.Store.SaveExtraction(ctx, runID, paper.ID, fields); err != nil {
		return types.ExtractionFields{}, err
	}
	fmt.Fprintf(w, "extracted paper %d\n", paper.ID)
	return fields, nil
}
