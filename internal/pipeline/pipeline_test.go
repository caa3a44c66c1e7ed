package pipeline

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pdiddy/litreview/internal/evidence"
	"github.com/pdiddy/litreview/internal/extraction"
	"github.com/pdiddy/litreview/internal/retrieval"
	"github.com/pdiddy/litreview/internal/store"
	"github.com/pdiddy/litreview/pkg/types"
)

// --- fakes ---

type fakeGateway struct {
	records []types.PaperRecord
	calls   int
}

func (g *fakeGateway) Name() string { return "fake" }

func (g *fakeGateway) Fetch(ctx context.Context, topic string, maxResults int) ([]types.PaperRecord, error) {
	g.calls++
	return g.records, nil
}

type fakeProducer struct {
	calls   int
	failOn  int // 1-based call number to fail on; 0 means never
	failErr error
}

func (p *fakeProducer) ExtractFields(ctx context.Context, title, abstract string) (types.ExtractionFields, error) {
	p.calls++
	if p.failOn != 0 && p.calls == p.failOn {
		return types.ExtractionFields{}, p.failErr
	}
	return types.ExtractionFields{Problem: "problem of " + title}, nil
}

type fakeSynthesizer struct {
	result types.SynthesisResult
	err    error
	topic  string
	digest string
}

func (s *fakeSynthesizer) Synthesize(ctx context.Context, topic, evidence string) (types.SynthesisResult, error) {
	s.topic = topic
	s.digest = evidence
	return s.result, s.err
}

type fakeEmbedder struct {
	calls int
	err   error
}

func (e *fakeEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	return []float64{0.1, 0.2}, nil
}

func records(n int) []types.PaperRecord {
	out := make([]types.PaperRecord, n)
	for i := range out {
		out[i] = types.PaperRecord{
			Source:   "fake",
			SourceID: "W" + string(rune('a'+i)),
			Title:    "Paper " + string(rune('A'+i)),
			Abstract: "Abstract " + string(rune('A'+i)),
		}
	}
	return out
}

func fullResult() types.SynthesisResult {
	return types.SynthesisResult{
		Synthesis: "The field is converging.",
		Gaps:      types.GapsOutput{Items: []string{"no long-context data", "no cross-domain study"}},
		Hypotheses: types.HypothesesOutput{Items: []types.HypothesisItem{
			{Hypothesis: "H one", Rationale: "because", Validation: "measure it"},
		}},
	}
}

type testRig struct {
	store *store.Store
	orch  *Orchestrator
	gw    *fakeGateway
	prod  *fakeProducer
	synth *fakeSynthesizer
	emb   *fakeEmbedder
	out   *bytes.Buffer
}

func newRig(t *testing.T, gw *fakeGateway, prod *fakeProducer, synth *fakeSynthesizer, emb *fakeEmbedder) *testRig {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "pipeline.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { st.Close() })

	out := &bytes.Buffer{}
	orch := &Orchestrator{
		Store:       st,
		Retrieval:   &retrieval.Service{Gateway: gw, Cache: st},
		Extraction:  &extraction.Service{Producer: prod, Store: st},
		Synthesizer: synth,
		Evidence:    &evidence.Builder{Store: st},
		Progress:    out,
	}
	if emb != nil {
		orch.Embedder = emb
	}
	return &testRig{store: st, orch: orch, gw: gw, prod: prod, synth: synth, emb: emb, out: out}
}

// --- tests ---

func TestExecuteCompletesRun(t *testing.T) {
	rig := newRig(t,
		&fakeGateway{records: records(3)},
		&fakeProducer{},
		&fakeSynthesizer{result: fullResult()},
		&fakeEmbedder{},
	)
	ctx := context.Background()

	run, err := rig.store.CreateRun(ctx, "efficient attention", "", false)
	if err != nil {
		t.Fatal(err)
	}
	if err := rig.orch.Execute(ctx, run.ID); err != nil {
		t.Fatal(err)
	}

	got, err := rig.store.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != types.RunCompleted {
		t.Fatalf("status = %s, want completed", got.Status)
	}

	items, err := rig.store.ExtractionsForRun(ctx, run.ID, 100)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 3 {
		t.Fatalf("extractions = %d, want 3", len(items))
	}

	artifacts, err := rig.store.ArtifactsForRun(ctx, run.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(artifacts) != 3 {
		t.Fatalf("artifacts = %d, want 3", len(artifacts))
	}
	if artifacts[0].Kind != types.ArtifactSynthesis {
		t.Fatalf("first artifact = %s", artifacts[0].Kind)
	}
	if artifacts[1].Content != "- no long-context data\n- no cross-domain study" {
		t.Fatalf("gaps content = %q", artifacts[1].Content)
	}
	if !strings.Contains(artifacts[2].Content, "Hypothesis 1: H one") {
		t.Fatalf("hypotheses content = %q", artifacts[2].Content)
	}

	// Synthesis received the topic and an evidence digest.
	if rig.synth.topic != "efficient attention" {
		t.Fatalf("topic = %q", rig.synth.topic)
	}
	if !strings.Contains(rig.synth.digest, "PAPER: Paper A") {
		t.Fatalf("digest = %q", rig.synth.digest)
	}

	// Retrieval result was cached.
	n, err := rig.store.CacheEntryCount(ctx, "efficient attention", "fake")
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("cache entries = %d, want 1", n)
	}

	// Embeddings happened for each paper.
	if rig.emb.calls != 3 {
		t.Fatalf("embedder calls = %d, want 3", rig.emb.calls)
	}
}

func TestExecuteFailureKeepsPartialProgress(t *testing.T) {
	svcErr := &types.ExternalServiceError{Service: "llm", Err: errors.New("quota exhausted")}
	rig := newRig(t,
		&fakeGateway{records: records(5)},
		&fakeProducer{failOn: 3, failErr: svcErr},
		&fakeSynthesizer{result: fullResult()},
		nil,
	)
	ctx := context.Background()

	run, err := rig.store.CreateRun(ctx, "topic", "", false)
	if err != nil {
		t.Fatal(err)
	}
	err = rig.orch.Execute(ctx, run.ID)
	var got *types.ExternalServiceError
	if !errors.As(err, &got) {
		t.Fatalf("err = %v, want ExternalServiceError", err)
	}

	state, err := rig.store.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatal(err)
	}
	if state.Status != types.RunFailed {
		t.Fatalf("status = %s, want failed", state.Status)
	}

	// The two extractions committed before the failure survive.
	items, err := rig.store.ExtractionsForRun(ctx, run.ID, 100)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 {
		t.Fatalf("extractions = %d, want 2", len(items))
	}

	// No artifacts: the run never reached synthesis.
	artifacts, err := rig.store.ArtifactsForRun(ctx, run.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(artifacts) != 0 {
		t.Fatalf("artifacts = %d, want 0", len(artifacts))
	}
}

func TestExecuteTerminalRunRejected(t *testing.T) {
	rig := newRig(t,
		&fakeGateway{records: records(1)},
		&fakeProducer{},
		&fakeSynthesizer{result: fullResult()},
		nil,
	)
	ctx := context.Background()

	run, err := rig.store.CreateRun(ctx, "topic", "", false)
	if err != nil {
		t.Fatal(err)
	}
	if err := rig.orch.Execute(ctx, run.ID); err != nil {
		t.Fatal(err)
	}

	// A completed run cannot transition back to running.
	if err := rig.orch.Execute(ctx, run.ID); err == nil {
		t.Fatal("expected error re-executing a terminal run")
	}
	state, _ := rig.store.GetRun(ctx, run.ID)
	if state.Status != types.RunCompleted {
		t.Fatalf("status changed to %s", state.Status)
	}
}

func TestExecuteUploadedRunUsesLinkedPapers(t *testing.T) {
	rig := newRig(t,
		&fakeGateway{},
		&fakeProducer{},
		&fakeSynthesizer{result: fullResult()},
		nil,
	)
	ctx := context.Background()

	run, err := rig.store.CreateRun(ctx, "uploaded corpus", "", true)
	if err != nil {
		t.Fatal(err)
	}
	for _, rec := range records(2) {
		paper, err := rig.store.UpsertPaper(ctx, rec)
		if err != nil {
			t.Fatal(err)
		}
		if err := rig.store.LinkPaperToRun(ctx, run.ID, paper.ID); err != nil {
			t.Fatal(err)
		}
	}

	if err := rig.orch.Execute(ctx, run.ID); err != nil {
		t.Fatal(err)
	}
	if rig.gw.calls != 0 {
		t.Fatalf("gateway called %d times for an uploaded run", rig.gw.calls)
	}
	items, err := rig.store.ExtractionsForRun(ctx, run.ID, 100)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 {
		t.Fatalf("extractions = %d, want 2", len(items))
	}
}

func TestExecuteSecondRunReusesExtractions(t *testing.T) {
	gw := &fakeGateway{records: records(2)}
	prod := &fakeProducer{}
	rig := newRig(t, gw, prod, &fakeSynthesizer{result: fullResult()}, nil)
	ctx := context.Background()

	first, err := rig.store.CreateRun(ctx, "same topic", "", false)
	if err != nil {
		t.Fatal(err)
	}
	if err := rig.orch.Execute(ctx, first.ID); err != nil {
		t.Fatal(err)
	}
	if prod.calls != 2 {
		t.Fatalf("producer calls after first run = %d", prod.calls)
	}

	second, err := rig.store.CreateRun(ctx, "same topic", "", false)
	if err != nil {
		t.Fatal(err)
	}
	if err := rig.orch.Execute(ctx, second.ID); err != nil {
		t.Fatal(err)
	}

	// Same papers: extraction memoization means zero new producer calls,
	// and the retrieval cache means zero new gateway calls.
	if prod.calls != 2 {
		t.Fatalf("producer calls after second run = %d, want 2", prod.calls)
	}
	if gw.calls != 1 {
		t.Fatalf("gateway calls = %d, want 1", gw.calls)
	}
	if !strings.Contains(rig.out.String(), "cache hit") {
		t.Fatalf("progress missing cache hits:\n%s", rig.out.String())
	}
}

func TestExecuteEmbeddingFailureDoesNotFailRun(t *testing.T) {
	rig := newRig(t,
		&fakeGateway{records: records(1)},
		&fakeProducer{},
		&fakeSynthesizer{result: fullResult()},
		&fakeEmbedder{err: errors.New("embeddings down")},
	)
	ctx := context.Background()

	run, err := rig.store.CreateRun(ctx, "topic", "", false)
	if err != nil {
		t.Fatal(err)
	}
	if err := rig.orch.Execute(ctx, run.ID); err != nil {
		t.Fatal(err)
	}
	state, _ := rig.store.GetRun(ctx, run.ID)
	if state.Status != types.RunCompleted {
		t.Fatalf("status = %s, want completed", state.Status)
	}
	if !strings.Contains(rig.out.String(), "warning: embedding") {
		t.Fatalf("progress missing embedding warning:\n%s", rig.out.String())
	}
}

func TestExecuteSkipsBlankArtifacts(t *testing.T) {
	rig := newRig(t,
		&fakeGateway{records: records(1)},
		&fakeProducer{},
		&fakeSynthesizer{result: types.SynthesisResult{Synthesis: "only synthesis"}},
		nil,
	)
	ctx := context.Background()

	run, err := rig.store.CreateRun(ctx, "topic", "", false)
	if err != nil {
		t.Fatal(err)
	}
	if err := rig.orch.Execute(ctx, run.ID); err != nil {
		t.Fatal(err)
	}

	artifacts, err := rig.store.ArtifactsForRun(ctx, run.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(artifacts) != 1 || artifacts[0].Kind != types.ArtifactSynthesis {
		t.Fatalf("artifacts = %+v", artifacts)
	}
}

func TestExecuteSynthesisFailure(t *testing.T) {
	synthErr := &types.ExternalServiceError{Service: "llm", Err: errors.New("timeout")}
	rig := newRig(t,
		&fakeGateway{records: records(1)},
		&fakeProducer{},
		&fakeSynthesizer{err: synthErr},
		nil,
	)
	ctx := context.Background()

	run, err := rig.store.CreateRun(ctx, "topic", "", false)
	if err != nil {
		t.Fatal(err)
	}
	err = rig.orch.Execute(ctx, run.ID)
	if err == nil {
		t.Fatal("expected synthesis failure")
	}

	state, _ := rig.store.GetRun(ctx, run.ID)
	if state.Status != types.RunFailed {
		t.Fatalf("status = %s, want failed", state.Status)
	}
	// The extraction committed before synthesis survives the failure.
	items, _ := rig.store.ExtractionsForRun(ctx, run.ID, 100)
	if len(items) != 1 {
		t.Fatalf("extractions = %d, want 1", len(items))
	}
}
