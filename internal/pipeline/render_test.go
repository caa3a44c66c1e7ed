package pipeline

import (
	"testing"

	"github.com/pdiddy/litreview/pkg/types"
)

func TestRenderGaps(t *testing.T) {
	tests := []struct {
		name string
		in   types.GapsOutput
		want string
	}{
		{
			"list becomes bullets",
			types.GapsOutput{Items: []string{"gap one", "gap two"}},
			"- gap one\n- gap two",
		},
		{
			"plain string passes through",
			types.GapsOutput{Plain: "a single paragraph of gaps"},
			"a single paragraph of gaps",
		},
		{
			"empty",
			types.GapsOutput{},
			"",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := renderGaps(tt.in); got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRenderHypotheses(t *testing.T) {
	tests := []struct {
		name string
		in   types.HypothesesOutput
		want string
	}{
		{
			"structured items",
			types.HypothesesOutput{Items: []types.HypothesisItem{
				{Hypothesis: "H1", Rationale: "R1", Validation: "V1"},
				{Hypothesis: "H2", Rationale: "R2", Validation: "V2"},
			}},
			"Hypothesis 1: H1\nRationale: R1\nValidation: V1\n\nHypothesis 2: H2\nRationale: R2\nValidation: V2",
		},
		{
			"raw fallback",
			types.HypothesesOutput{Items: []types.HypothesisItem{
				{Raw: "just a sentence"},
			}},
			"Hypothesis 1: just a sentence",
		},
		{
			"mixed",
			types.HypothesesOutput{Items: []types.HypothesisItem{
				{Hypothesis: "H1", Rationale: "R1", Validation: "V1"},
				{Raw: "unstructured"},
			}},
			"Hypothesis 1: H1\nRationale: R1\nValidation: V1\n\nHypothesis 2: unstructured",
		},
		{
			"empty",
			types.HypothesesOutput{},
			"",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := renderHypotheses(tt.in); got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}
