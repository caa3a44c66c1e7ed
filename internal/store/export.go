// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/litreview/pkg/types"
)

// Dossier is the exportable record of one run: the run itself, its papers,
// the extractions produced for it, and the persisted artifacts.
type Dossier struct {
	Run         types.Run          `json:"run" yaml:"run"`
	Papers      []types.Paper      `json:"papers" yaml:"papers"`
	Extractions []types.Extraction `json:"extractions" yaml:"extractions"`
	Artifacts   []types.Artifact   `json:"artifacts" yaml:"artifacts"`
}

// dossierLimit caps the extractions included in an export.
const dossierLimit = 100000

// BuildDossier assembles the full audit record for a run.
func (s *Store) BuildDossier(ctx context.Context, runID int64) (Dossier, error) {
	run, err := s.GetRun(ctx, runID)
	if err != nil {
		return Dossier{}, err
	}
	papers, err := s.PapersForRun(ctx, runID)
	if err != nil {
		return Dossier{}, err
	}
	joined, err := s.ExtractionsForRun(ctx, runID, dossierLimit)
	if err != nil {
		return Dossier{}, err
	}
	extractions := make([]types.Extraction, len(joined))
	for i, j := range joined {
		extractions[i] = j.Extraction
	}
	// Retrieved papers are not linked to runs explicitly; recover them from
	// the extractions so the dossier is self-contained.
	if len(papers) == 0 {
		seen := make(map[int64]bool)
		for i := len(joined) - 1; i >= 0; i-- {
			p := joined[i].Paper
			if !seen[p.ID] {
				seen[p.ID] = true
				papers = append(papers, p)
			}
		}
	}
	artifacts, err := s.ArtifactsForRun(ctx, runID)
	if err != nil {
		return Dossier{}, err
	}
	return Dossier{
		Run:         run,
		Papers:      papers,
		Extractions: extractions,
		Artifacts:   artifacts,
	}, nil
}

// ExportYAML writes the run dossier to path as YAML.
func (s *Store) ExportYAML(ctx context.Context, runID int64, path string) error {
	d, err := s.BuildDossier(ctx, runID)
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(d)
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ExportJSON writes the run dossier to path as indented JSON.
func (s *Store) ExportJSON(ctx context.Context, runID int64, path string) error {
	d, err := s.BuildDossier(ctx, runID)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
