package extraction

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/pdiddy/litreview/pkg/types"
)

type fakeProducer struct {
	fields types.ExtractionFields
	err    error
	calls  int
}

func (p *fakeProducer) ExtractFields(ctx context.Context, title, abstract string) (types.ExtractionFields, error) {
	p.calls++
	return p.fields, p.err
}

type fakeStore struct {
	latest *types.Extraction
	saved  []types.ExtractionFields
}

func (s *fakeStore) LatestExtractionForPaper(ctx context.Context, paperID int64) (*types.Extraction, error) {
	return s.latest, nil
}

func (s *fakeStore) SaveExtraction(ctx context.Context, runID, paperID int64, data types.ExtractionFields) (types.Extraction, error) {
	s.saved = append(s.saved, data)
	return types.Extraction{ID: int64(len(s.saved)), RunID: runID, PaperID: paperID, Data: data}, nil
}

func TestForPaperReusesPriorExtraction(t *testing.T) {
	prior := &types.Extraction{
		ID:      7,
		RunID:   1, // a different, earlier run
		PaperID: 3,
		Data:    types.ExtractionFields{Problem: "memoized problem"},
	}
	producer := &fakeProducer{}
	store := &fakeStore{latest: prior}
	svc := &Service{Producer: producer, Store: store}

	var progress bytes.Buffer
	fields, err := svc.ForPaper(context.Background(), 2, types.Paper{ID: 3, Title: "T"}, &progress)
	if err != nil {
		t.Fatal(err)
	}
	if producer.calls != 0 {
		t.Fatalf("producer called %d times despite cached extraction", producer.calls)
	}
	if len(store.saved) != 0 {
		t.Fatal("cache hit must not append a new row")
	}
	if fields.Problem != "memoized problem" {
		t.Fatalf("fields = %+v", fields)
	}
	if !bytes.Contains(progress.Bytes(), []byte("cache hit")) {
		t.Fatalf("progress = %q", progress.String())
	}
}

func TestForPaperProducesAndPersists(t *testing.T) {
	producer := &fakeProducer{fields: types.ExtractionFields{Method: "fresh"}}
	store := &fakeStore{}
	svc := &Service{Producer: producer, Store: store}

	fields, err := svc.ForPaper(context.Background(), 5, types.Paper{ID: 9, Title: "T", Abstract: "A"}, io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	if producer.calls != 1 {
		t.Fatalf("producer calls = %d, want 1", producer.calls)
	}
	if len(store.saved) != 1 || store.saved[0].Method != "fresh" {
		t.Fatalf("saved = %+v", store.saved)
	}
	if fields.Method != "fresh" {
		t.Fatalf("fields = %+v", fields)
	}
}

func TestForPaperProducerError(t *testing.T) {
	producer := &fakeProducer{err: &types.ExternalServiceError{Service: "llm", Err: errors.New("down")}}
	store := &fakeStore{}
	svc := &Service{Producer: producer, Store: store}

	_, err := svc.ForPaper(context.Background(), 1, types.Paper{ID: 1}, io.Discard)
	var svcErr *types.ExternalServiceError
	if !errors.As(err, &svcErr) {
		t.Fatalf("err = %v, want ExternalServiceError", err)
	}
	if len(store.saved) != 0 {
		t.Fatal("failed extraction must not be persisted")
	}
}
