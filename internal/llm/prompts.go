// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"bytes"
	"text/template"
)

// extractionPromptTmpl instructs the model to pull structured fields from a
// paper's title and abstract. The model fills absent information with the
// literal "unknown" so the extraction record never carries empty values.
var extractionPromptTmpl = template.Must(template.New("extraction").Parse(`Extract structured information from the following paper title and abstract.

Return ONLY valid JSON (no markdown, no code fences), with keys:
problem, method, dataset_or_domain, key_results, limitations

Rules:
- Each value should be 1-3 short sentences.
- If a field is missing, use "unknown".

Title: {{.Title}}
Abstract: {{.Abstract}}
`))

// synthesisPromptTmpl instructs the model to produce the topic-level
// overview, gap list, and hypotheses from the evidence digest.
var synthesisPromptTmpl = template.Must(template.New("synthesis").Parse(`You are an academic research assistant.

TOPIC: {{.Topic}}

EVIDENCE PACK (each entry contains extracted fields from a paper):
{{.Evidence}}

Task:
Return ONLY valid JSON with keys:
1) synthesis: a short literature overview (8-12 lines), grouping papers into themes/trends.
2) gaps: list 3-5 bullet points of open research gaps AND contradictions (if none, return empty array []). Each bullet must reference paper titles (short).
3) hypotheses: a JSON array of 3-5 objects.
   Each object MUST have exactly these keys:
   - hypothesis
   - rationale
   - validation
   All values must be non-empty strings.

Rules:
- Do NOT invent citations. Use only paper titles that appear in the evidence pack.
- Do NOT add "No clear contradictions found" anywhere. If none, gaps must be [].
`))

func renderExtractionPrompt(title, abstract string) (string, error) {
	var buf bytes.Buffer
	err := extractionPromptTmpl.Execute(&buf, struct{ Title, Abstract string }{title, abstract})
	return buf.String(), err
}

func renderSynthesisPrompt(topic, evidence string) (string, error) {
	var buf bytes.Buffer
	err := synthesisPromptTmpl.Execute(&buf, struct{ Topic, Evidence string }{topic, evidence})
	return buf.String(), err
}
