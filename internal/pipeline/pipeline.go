// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline drives a run through its stages: retrieval (or uploaded
// papers), per-paper extraction, evidence building, synthesis, and artifact
// writes, owning the run's status transitions.
//
// Persistence is commit-as-you-go: each store write commits on its own, so
// a failed run keeps every paper, extraction, and artifact committed before
// the failure point. That partial progress is a designed property — it is
// what makes a failed run inspectable — and callers must not assume a
// failed run left nothing behind.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pdiddy/litreview/internal/evidence"
	"github.com/pdiddy/litreview/internal/extraction"
	"github.com/pdiddy/litreview/internal/retrieval"
	"github.com/pdiddy/litreview/internal/store"
	"github.com/pdiddy/litreview/pkg/types"
)

// Synthesizer produces the topic-level outputs from the evidence digest.
// Satisfied by *llm.Client.
type Synthesizer interface {
	Synthesize(ctx context.Context, topic, evidence string) (types.SynthesisResult, error)
}

// Embedder produces vectors for paper text. Satisfied by *llm.Client.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Orchestrator executes runs. All collaborators are injected; none of them
// is retried here — a collaborator failure fails the run.
type Orchestrator struct {
	Store       *store.Store
	Retrieval   *retrieval.Service
	Extraction  *extraction.Service
	Synthesizer Synthesizer

	// Embedder is optional. Embeddings are a side channel: failures are
	// reported on Progress and never block the pipeline.
	Embedder Embedder

	Evidence *evidence.Builder

	// Progress receives stage-by-stage progress lines. Nil means silent.
	Progress io.Writer
}

// Execute drives the run with the given id through the full pipeline.
// The caller hands over a run in the created state; the orchestrator does
// not re-validate that precondition beyond the store's own transition
// check.
//
// On any stage failure the run is marked failed before the error returns.
// If that status write itself fails the run is left inconsistent and the
// error is a *types.StatusPersistError so operators can reconcile it
// manually.
func (o *Orchestrator) Execute(ctx context.Context, runID int64) error {
	run, err := o.Store.GetRun(ctx, runID)
	if err != nil {
		return err
	}

	// Mark running first so the status is externally observable even when
	// a later stage is slow.
	if err := o.Store.SetRunStatus(ctx, runID, types.RunRunning); err != nil {
		return err
	}
	runsStarted.Inc()
	started := time.Now()

	if err := o.executeStages(ctx, run); err != nil {
		if perr := o.Store.SetRunStatus(ctx, runID, types.RunFailed); perr != nil {
			return &types.StatusPersistError{RunID: runID, Cause: err, PersistErr: perr}
		}
		runsFailed.Inc()
		runDuration.Observe(time.Since(started).Seconds())
		return err
	}

	if err := o.Store.SetRunStatus(ctx, runID, types.RunCompleted); err != nil {
		return &types.StatusPersistError{RunID: runID, Cause: nil, PersistErr: err}
	}
	runsCompleted.Inc()
	runDuration.Observe(time.Since(started).Seconds())
	return nil
}

func (o *Orchestrator) executeStages(ctx context.Context, run types.Run) error {
	w := o.Progress
	if w == nil {
		w = io.Discard
	}

	papers, err := o.collectPapers(ctx, run, w)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "run %d: %d papers\n", run.ID, len(papers))

	for _, paper := range papers {
		o.ensureEmbedding(ctx, paper, w)

		if _, err := o.Extraction.ForPaper(ctx, run.ID, paper, w); err != nil {
			return err
		}
	}

	digest, err := o.Evidence.Build(ctx, run.ID)
	if err != nil {
		return err
	}

	result, err := o.Synthesizer.Synthesize(ctx, run.Topic, digest)
	if err != nil {
		return err
	}

	return o.saveArtifacts(ctx, run.ID, result, w)
}

// collectPapers resolves the run's paper set. Uploaded runs read their
// explicitly linked papers; topic runs retrieve (cache-then-gateway) and
// upsert each record. Retrieved papers are not explicitly linked — their
// association with the run flows through the extractions rows.
func (o *Orchestrator) collectPapers(ctx context.Context, run types.Run, w io.Writer) ([]types.Paper, error) {
	if run.UploadPapers {
		return o.Store.PapersForRun(ctx, run.ID)
	}

	records, err := o.Retrieval.Retrieve(ctx, run.Topic, w)
	if err != nil {
		return nil, err
	}

	papers := make([]types.Paper, 0, len(records))
	for _, rec := range records {
		paper, err := o.Store.UpsertPaper(ctx, rec)
		if err != nil {
			return nil, err
		}
		papers = append(papers, paper)
	}
	return papers, nil
}

// ensureEmbedding computes and stores the paper's abstract embedding if
// one does not already exist. Best effort only.
func (o *Orchestrator) ensureEmbedding(ctx context.Context, paper types.Paper, w io.Writer) {
	if o.Embedder == nil {
		return
	}
	text := strings.TrimSpace(paper.Abstract)
	if text == "" {
		text = strings.TrimSpace(paper.Title)
	}
	if text == "" {
		return
	}

	existing, err := o.Store.GetEmbedding(ctx, types.EmbeddingKindPaperAbstract, paper.ID)
	if err != nil {
		fmt.Fprintf(w, "warning: embedding lookup for paper %d: %v\n", paper.ID, err)
		return
	}
	if existing != nil {
		return
	}

	vec, err := o.Embedder.Embed(ctx, text)
	if err != nil {
		fmt.Fprintf(w, "warning: embedding paper %d: %v\n", paper.ID, err)
		return
	}
	if _, err := o.Store.SaveEmbedding(ctx, types.EmbeddingKindPaperAbstract, paper.ID, vec); err != nil {
		fmt.Fprintf(w, "warning: storing embedding for paper %d: %v\n", paper.ID, err)
	}
}

// saveArtifacts persists one artifact per non-empty output kind.
func (o *Orchestrator) saveArtifacts(ctx context.Context, runID int64, result types.SynthesisResult, w io.Writer) error {
	outputs := []struct {
		kind    types.ArtifactKind
		content string
	}{
		{types.ArtifactSynthesis, result.Synthesis},
		{types.ArtifactGaps, renderGaps(result.Gaps)},
		{types.ArtifactHypotheses, renderHypotheses(result.Hypotheses)},
	}

	for _, out := range outputs {
		if strings.TrimSpace(out.content) == "" {
			continue
		}
		if _, err := o.Store.SaveArtifact(ctx, runID, out.kind, out.content); err != nil {
			return err
		}
		fmt.Fprintf(w, "saved %s artifact for run %d\n", out.kind, runID)
	}
	return nil
}
