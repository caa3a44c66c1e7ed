// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the litreview pipeline:
// runs, papers, extractions, artifacts, retrieval cache entries, and the
// synthesis output variants.
package types

import "time"

// RunStatus is the lifecycle state of a literature-review run.
type RunStatus string

const (
	RunCreated   RunStatus = "created"
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// Terminal reports whether the status is absorbing: no transition leaves
// completed or failed.
func (s RunStatus) Terminal() bool {
	return s == RunCompleted || s == RunFailed
}

// CanTransition reports whether the run lifecycle permits moving from s to
// next. Transitions are monotonic: created → running → {completed, failed}.
func (s RunStatus) CanTransition(next RunStatus) bool {
	switch s {
	case RunCreated:
		return next == RunRunning
	case RunRunning:
		return next == RunCompleted || next == RunFailed
	default:
		return false
	}
}

// Run identifies one literature-review request.
type Run struct {
	ID int64 `json:"id" yaml:"id"`

	// Topic is the research topic the run reviews.
	Topic string `json:"topic" yaml:"topic"`

	Status RunStatus `json:"status" yaml:"status"`

	// UploadPapers marks runs whose papers are user-supplied rather than
	// retrieved from a scholarly index.
	UploadPapers bool `json:"upload_papers" yaml:"upload_papers"`

	// Notes is optional free text attached at creation time.
	Notes string `json:"notes,omitempty" yaml:"notes,omitempty"`

	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// Paper is a de-duplicated bibliographic record. (Source, SourceID) is
// globally unique; re-observation backfills empty fields only.
type Paper struct {
	ID int64 `json:"id" yaml:"id"`

	// Source identifies where the record came from (e.g. "openalex", "uploaded").
	Source string `json:"source" yaml:"source"`

	// SourceID is the identifier within the source.
	SourceID string `json:"source_id" yaml:"source_id"`

	Title string `json:"title" yaml:"title"`

	// Year is the publication year; zero when unknown.
	Year int `json:"year,omitempty" yaml:"year,omitempty"`

	DOI      string `json:"doi,omitempty" yaml:"doi,omitempty"`
	Abstract string `json:"abstract,omitempty" yaml:"abstract,omitempty"`
	URL      string `json:"url,omitempty" yaml:"url,omitempty"`

	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// PaperRecord is the wire shape produced by retrieval gateways and consumed
// by the paper registry. Missing optional fields stay zero-valued; the
// "unknown" placeholder is evidence-formatting policy, applied only when a
// digest is rendered.
type PaperRecord struct {
	Source   string `json:"source" yaml:"source"`
	SourceID string `json:"source_id" yaml:"source_id"`
	Title    string `json:"title" yaml:"title"`
	Year     int    `json:"year,omitempty" yaml:"year,omitempty"`
	DOI      string `json:"doi,omitempty" yaml:"doi,omitempty"`
	Abstract string `json:"abstract,omitempty" yaml:"abstract,omitempty"`
	URL      string `json:"url,omitempty" yaml:"url,omitempty"`
}

// Record converts a stored Paper back to the gateway wire shape so
// downstream stages are source-agnostic.
func (p Paper) Record() PaperRecord {
	return PaperRecord{
		Source:   p.Source,
		SourceID: p.SourceID,
		Title:    p.Title,
		Year:     p.Year,
		DOI:      p.DOI,
		Abstract: p.Abstract,
		URL:      p.URL,
	}
}

// ExtractionFields holds the structured fields the extraction producer
// returns for one paper. The producer fills absent information with the
// literal "unknown".
type ExtractionFields struct {
	Problem         string `json:"problem" yaml:"problem"`
	Method          string `json:"method" yaml:"method"`
	DatasetOrDomain string `json:"dataset_or_domain" yaml:"dataset_or_domain"`
	KeyResults      string `json:"key_results" yaml:"key_results"`
	Limitations     string `json:"limitations" yaml:"limitations"`
}

// Extraction is one structured-field extraction of a paper, scoped to the
// run that produced it. Rows are append-only; "latest for paper" means
// highest ID.
type Extraction struct {
	ID        int64            `json:"id" yaml:"id"`
	RunID     int64            `json:"run_id" yaml:"run_id"`
	PaperID   int64            `json:"paper_id" yaml:"paper_id"`
	Data      ExtractionFields `json:"data" yaml:"data"`
	CreatedAt time.Time        `json:"created_at" yaml:"created_at"`
}

// ArtifactKind names a persisted pipeline output.
type ArtifactKind string

const (
	ArtifactSynthesis      ArtifactKind = "synthesis"
	ArtifactGaps           ArtifactKind = "gaps"
	ArtifactHypotheses     ArtifactKind = "hypotheses"
	ArtifactContradictions ArtifactKind = "contradictions"
)

// Artifact is a persisted pipeline output. One artifact per non-empty kind
// is produced per successful run execution; rows are append-only.
type Artifact struct {
	ID        int64        `json:"id" yaml:"id"`
	RunID     int64        `json:"run_id" yaml:"run_id"`
	Kind      ArtifactKind `json:"kind" yaml:"kind"`
	Content   string       `json:"content" yaml:"content"`
	CreatedAt time.Time    `json:"created_at" yaml:"created_at"`
}

// RetrievalCacheEntry is a cached result set for a (topic, source) pair.
// Entries are immutable once written; freshness is evaluated at read time
// from CreatedAt, never by active expiry.
type RetrievalCacheEntry struct {
	ID        int64     `json:"id" yaml:"id"`
	Topic     string    `json:"topic" yaml:"topic"`
	Source    string    `json:"source" yaml:"source"`
	Payload   string    `json:"payload" yaml:"payload"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// EmbeddingKindPaperAbstract tags embeddings computed from a paper's
// abstract (or title when the abstract is missing).
const EmbeddingKindPaperAbstract = "paper_abstract"

// Embedding is a vector representation tied to a paper or run, keyed by a
// kind tag. Created lazily on first need, never duplicated for the same
// (kind, paper) pair.
type Embedding struct {
	ID        int64     `json:"id" yaml:"id"`
	Kind      string    `json:"kind" yaml:"kind"`
	PaperID   int64     `json:"paper_id,omitempty" yaml:"paper_id,omitempty"`
	RunID     int64     `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	Vector    []float64 `json:"vector" yaml:"vector"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}
