// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package evidence assembles the bounded digest fed to synthesis: one
// fixed-shape textual block per extraction, newest first. Every missing
// field renders as the literal "unknown" — the digest must never hand an
// empty field to a downstream prompt, unlike the registry, which leaves
// absent fields absent.
package evidence

import (
	"context"
	"fmt"
	"strings"

	"github.com/pdiddy/litreview/internal/store"
	"github.com/pdiddy/litreview/pkg/types"
)

// DefaultMaxItems bounds digest size when the config leaves it unset.
// Purely a token-cost control; truncation drops the oldest extractions.
const DefaultMaxItems = 12

// Store is the persistence surface the builder needs.
type Store interface {
	ExtractionsForRun(ctx context.Context, runID int64, maxItems int) ([]store.ExtractionWithPaper, error)
}

// Builder renders evidence digests for runs.
type Builder struct {
	Store    Store
	MaxItems int
}

// Build returns the evidence digest for a run: up to MaxItems blocks,
// ordered newest extraction first.
func (b *Builder) Build(ctx context.Context, runID int64) (string, error) {
	maxItems := b.MaxItems
	if maxItems <= 0 {
		maxItems = DefaultMaxItems
	}

	joined, err := b.Store.ExtractionsForRun(ctx, runID, maxItems)
	if err != nil {
		return "", err
	}

	blocks := make([]string, len(joined))
	for i, j := range joined {
		blocks[i] = renderBlock(j.Paper, j.Extraction.Data)
	}
	return strings.Join(blocks, "\n"), nil
}

// renderBlock formats one paper's evidence with labeled fields.
func renderBlock(p types.Paper, d types.ExtractionFields) string {
	year := "unknown"
	if p.Year != 0 {
		year = fmt.Sprintf("%d", p.Year)
	}
	return fmt.Sprintf(`PAPER: %s (%s)
DOI: %s
URL: %s
PROBLEM: %s
METHOD: %s
DATA/DOMAIN: %s
KEY RESULTS: %s
LIMITATIONS: %s
---`,
		orUnknown(p.Title), year,
		orUnknown(p.DOI),
		orUnknown(p.URL),
		orUnknown(d.Problem),
		orUnknown(d.Method),
		orUnknown(d.DatasetOrDomain),
		orUnknown(d.KeyResults),
		orUnknown(d.Limitations),
	)
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "unknown"
	}
	return s
}
