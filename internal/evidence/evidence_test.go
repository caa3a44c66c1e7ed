package evidence

import (
	"context"
	"strings"
	"testing"

	"github.com/pdiddy/litreview/internal/store"
	"github.com/pdiddy/litreview/pkg/types"
)

type fakeStore struct {
	items      []store.ExtractionWithPaper
	gotMax     int
	applyLimit bool
}

func (s *fakeStore) ExtractionsForRun(ctx context.Context, runID int64, maxItems int) ([]store.ExtractionWithPaper, error) {
	s.gotMax = maxItems
	items := s.items
	if s.applyLimit && len(items) > maxItems {
		items = items[:maxItems]
	}
	return items, nil
}

func item(title string, fields types.ExtractionFields) store.ExtractionWithPaper {
	return store.ExtractionWithPaper{
		Paper:      types.Paper{Title: title, Year: 2021, DOI: "10.1/x", URL: "https://x"},
		Extraction: types.Extraction{Data: fields},
	}
}

func TestBuildRendersBlocks(t *testing.T) {
	st := &fakeStore{items: []store.ExtractionWithPaper{
		item("Newest Paper", types.ExtractionFields{
			Problem:         "p1",
			Method:          "m1",
			DatasetOrDomain: "d1",
			KeyResults:      "r1",
			Limitations:     "l1",
		}),
		item("Older Paper", types.ExtractionFields{Problem: "p2"}),
	}}
	b := &Builder{Store: st}

	digest, err := b.Build(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}

	want := `PAPER: Newest Paper (2021)
DOI: 10.1/x
URL: https://x
PROBLEM: p1
METHOD: m1
DATA/DOMAIN: d1
KEY RESULTS: r1
LIMITATIONS: l1
---`
	if !strings.HasPrefix(digest, want) {
		t.Fatalf("digest does not start with expected block:\n%s", digest)
	}
	if strings.Index(digest, "Newest Paper") > strings.Index(digest, "Older Paper") {
		t.Fatal("blocks out of order")
	}
	if strings.Count(digest, "---") != 2 {
		t.Fatalf("separator count = %d, want 2", strings.Count(digest, "---"))
	}
}

func TestBuildMissingFieldsRenderUnknown(t *testing.T) {
	st := &fakeStore{items: []store.ExtractionWithPaper{
		{
			Paper:      types.Paper{Title: "Sparse Metadata"},
			Extraction: types.Extraction{Data: types.ExtractionFields{Method: "only method"}},
		},
	}}
	b := &Builder{Store: st}

	digest, err := b.Build(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}

	for _, line := range []string{
		"PAPER: Sparse Metadata (unknown)",
		"DOI: unknown",
		"URL: unknown",
		"PROBLEM: unknown",
		"METHOD: only method",
		"DATA/DOMAIN: unknown",
		"KEY RESULTS: unknown",
		"LIMITATIONS: unknown",
	} {
		if !strings.Contains(digest, line) {
			t.Fatalf("digest missing %q:\n%s", line, digest)
		}
	}
}

func TestBuildPassesMaxItems(t *testing.T) {
	st := &fakeStore{applyLimit: true}
	for i := 0; i < 20; i++ {
		st.items = append(st.items, item("Paper", types.ExtractionFields{}))
	}

	b := &Builder{Store: st, MaxItems: 3}
	digest, err := b.Build(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if st.gotMax != 3 {
		t.Fatalf("maxItems = %d, want 3", st.gotMax)
	}
	if strings.Count(digest, "PAPER:") != 3 {
		t.Fatalf("blocks = %d, want 3", strings.Count(digest, "PAPER:"))
	}

	// Unset falls back to the default cap.
	b = &Builder{Store: st}
	if _, err := b.Build(context.Background(), 1); err != nil {
		t.Fatal(err)
	}
	if st.gotMax != DefaultMaxItems {
		t.Fatalf("maxItems = %d, want %d", st.gotMax, DefaultMaxItems)
	}
}

func TestBuildEmptyRun(t *testing.T) {
	b := &Builder{Store: &fakeStore{}}
	digest, err := b.Build(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if digest != "" {
		t.Fatalf("digest = %q, want empty", digest)
	}
}
