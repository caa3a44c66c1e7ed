// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"encoding/json"
	"strings"
)

// SynthesisResult holds the three outputs of the synthesis producer. The
// model is free-form about the shape of gaps and hypotheses, so both are
// tagged variants decoded once here rather than type-inspected at render
// time.
type SynthesisResult struct {
	Synthesis  string           `json:"synthesis"`
	Gaps       GapsOutput       `json:"gaps"`
	Hypotheses HypothesesOutput `json:"hypotheses"`
}

// GapsOutput is either a plain string or a list of bullet strings.
type GapsOutput struct {
	// Plain is set when the model returned a single string.
	Plain string

	// Items is set when the model returned an array.
	Items []string
}

// IsEmpty reports whether the output carries no content.
func (g GapsOutput) IsEmpty() bool {
	return g.Plain == "" && len(g.Items) == 0
}

// UnmarshalJSON accepts a JSON string, an array of strings, or an array of
// arbitrary values (stringified element-wise).
func (g *GapsOutput) UnmarshalJSON(data []byte) error {
	*g = GapsOutput{}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		g.Plain = s
		return nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		// Unexpected shape (object, number): keep the raw text.
		g.Plain = string(data)
		return nil
	}
	for _, el := range raw {
		g.Items = append(g.Items, rawToString(el))
	}
	return nil
}

// HypothesesOutput is the list of candidate hypotheses, each either
// structured or a bare string.
type HypothesesOutput struct {
	Items []HypothesisItem
}

// IsEmpty reports whether no hypotheses were produced.
func (h HypothesesOutput) IsEmpty() bool { return len(h.Items) == 0 }

// UnmarshalJSON accepts an array of objects or strings, or a single string.
func (h *HypothesesOutput) UnmarshalJSON(data []byte) error {
	*h = HypothesesOutput{}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err == nil {
		for _, el := range raw {
			var item HypothesisItem
			if err := json.Unmarshal(el, &item); err != nil {
				item = HypothesisItem{Raw: rawToString(el)}
			}
			h.Items = append(h.Items, item)
		}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s != "" {
			h.Items = append(h.Items, HypothesisItem{Raw: s})
		}
		return nil
	}

	h.Items = append(h.Items, HypothesisItem{Raw: string(data)})
	return nil
}

// HypothesisItem is one candidate hypothesis. When the expected keys are
// absent the Raw fallback carries the model's literal output.
type HypothesisItem struct {
	Hypothesis string
	Rationale  string
	Validation string

	// Raw is the stringified element when the model did not use the
	// expected keys.
	Raw string
}

// Structured reports whether at least one expected key was present.
func (h HypothesisItem) Structured() bool {
	return h.Hypothesis != "" || h.Rationale != "" || h.Validation != ""
}

// hypothesisKeyAliases maps each canonical field to the key spellings
// models have been observed to use.
var hypothesisKeyAliases = map[string][]string{
	"hypothesis": {"hypothesis", "statement", "Hypothesis", "claim"},
	"rationale":  {"rationale", "reason", "Rationale", "justification"},
	"validation": {"validation", "test", "Validation", "evaluation"},
}

// UnmarshalJSON accepts an object with loosely-spelled keys or a string.
func (h *HypothesisItem) UnmarshalJSON(data []byte) error {
	*h = HypothesisItem{}

	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err == nil {
		h.Hypothesis = pickKey(m, hypothesisKeyAliases["hypothesis"])
		h.Rationale = pickKey(m, hypothesisKeyAliases["rationale"])
		h.Validation = pickKey(m, hypothesisKeyAliases["validation"])
		if !h.Structured() {
			h.Raw = string(data)
		}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		h.Raw = s
		return nil
	}

	h.Raw = string(data)
	return nil
}

// pickKey returns the first non-empty string value among the alias keys.
func pickKey(m map[string]json.RawMessage, keys []string) string {
	for _, k := range keys {
		el, ok := m[k]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(el, &s); err != nil {
			continue
		}
		if strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

// rawToString renders a raw JSON element as display text: strings are
// unquoted, everything else keeps its JSON encoding.
func rawToString(el json.RawMessage) string {
	var s string
	if err := json.Unmarshal(el, &s); err == nil {
		return s
	}
	return string(el)
}
