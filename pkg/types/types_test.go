package types

import (
	"errors"
	"strings"
	"testing"
)

func TestRunStatusCanTransition(t *testing.T) {
	tests := []struct {
		from, to RunStatus
		want     bool
	}{
		{RunCreated, RunRunning, true},
		{RunCreated, RunCompleted, false},
		{RunCreated, RunFailed, false},
		{RunRunning, RunCompleted, true},
		{RunRunning, RunFailed, true},
		{RunRunning, RunCreated, false},
		{RunCompleted, RunRunning, false},
		{RunFailed, RunRunning, false},
		{RunCompleted, RunFailed, false},
	}
	for _, tt := range tests {
		if got := tt.from.CanTransition(tt.to); got != tt.want {
			t.Errorf("%s → %s = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestRunStatusTerminal(t *testing.T) {
	for status, want := range map[RunStatus]bool{
		RunCreated:   false,
		RunRunning:   false,
		RunCompleted: true,
		RunFailed:    true,
	} {
		if got := status.Terminal(); got != want {
			t.Errorf("%s.Terminal() = %v, want %v", status, got, want)
		}
	}
}

func TestExternalServiceErrorUnwrap(t *testing.T) {
	inner := errors.New("connection refused")
	err := &ExternalServiceError{Service: "openalex", Err: inner}

	if !errors.Is(err, inner) {
		t.Fatal("unwrap lost the inner error")
	}
	if !strings.Contains(err.Error(), "openalex") {
		t.Fatalf("message = %q", err.Error())
	}
}

func TestStatusPersistErrorMessages(t *testing.T) {
	persistErr := errors.New("disk full")

	// Failure path: both the run failure and the persist failure appear.
	withCause := &StatusPersistError{RunID: 7, Cause: errors.New("llm down"), PersistErr: persistErr}
	msg := withCause.Error()
	if !strings.Contains(msg, "llm down") || !strings.Contains(msg, "disk full") {
		t.Fatalf("message = %q", msg)
	}
	if !errors.Is(withCause, persistErr) {
		t.Fatal("unwrap should expose the persist error")
	}

	// Completion path: no underlying run failure to report.
	noCause := &StatusPersistError{RunID: 7, PersistErr: persistErr}
	if strings.Contains(noCause.Error(), "<nil>") {
		t.Fatalf("message leaks nil cause: %q", noCause.Error())
	}
}

func TestPaperRecordRoundTrip(t *testing.T) {
	p := Paper{
		ID:       3,
		Source:   "openalex",
		SourceID: "W1",
		Title:    "T",
		Year:     2020,
		DOI:      "10.1/x",
		Abstract: "A",
		URL:      "https://x",
	}
	rec := p.Record()
	if rec.Source != p.Source || rec.SourceID != p.SourceID || rec.Title != p.Title {
		t.Fatalf("record = %+v", rec)
	}
	if rec.Year != p.Year || rec.DOI != p.DOI || rec.Abstract != p.Abstract || rec.URL != p.URL {
		t.Fatalf("record = %+v", rec)
	}
}
