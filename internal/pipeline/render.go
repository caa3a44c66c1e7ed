// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"fmt"
	"strings"

	"github.com/pdiddy/litreview/pkg/types"
)

// renderGaps normalizes the gaps output for storage: an array becomes a
// bulleted block, a plain string passes through.
func renderGaps(g types.GapsOutput) string {
	if len(g.Items) > 0 {
		lines := make([]string, len(g.Items))
		for i, item := range g.Items {
			lines[i] = "- " + item
		}
		return strings.Join(lines, "\n")
	}
	return g.Plain
}

// renderHypotheses normalizes the hypotheses output: numbered paragraphs
// with Hypothesis/Rationale/Validation sub-lines, falling back to the raw
// stringified element when the model skipped the expected keys.
func renderHypotheses(h types.HypothesesOutput) string {
	formatted := make([]string, len(h.Items))
	for i, item := range h.Items {
		n := i + 1
		if item.Structured() {
			formatted[i] = fmt.Sprintf("Hypothesis %d: %s\nRationale: %s\nValidation: %s",
				n, item.Hypothesis, item.Rationale, item.Validation)
		} else {
			formatted[i] = fmt.Sprintf("Hypothesis %d: %s", n, item.Raw)
		}
	}
	return strings.Join(formatted, "\n\n")
}
