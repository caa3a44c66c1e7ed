// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llm is the language-model collaborator: structured-field
// extraction, synthesis, and embeddings over an OpenAI-compatible API.
// The client is constructed explicitly from config and injected wherever
// it is needed; there is no package-level service state, so tests swap in
// fakes freely.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/pdiddy/litreview/internal/httputil"
	"github.com/pdiddy/litreview/pkg/types"
)

const defaultBaseURL = "https://api.openai.com/v1"

// Client calls an OpenAI-compatible chat completions and embeddings API.
type Client struct {
	apiKey     string
	model      string
	embedModel string
	baseURL    string
	httpClient *http.Client
}

// NewClient builds a client from config. BaseURL and models fall back to
// sensible defaults when empty.
func NewClient(cfg types.LLMConfig) *Client {
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = "gpt-4.1-mini"
	}
	embedModel := cfg.EmbedModel
	if embedModel == "" {
		embedModel = "text-embedding-3-small"
	}
	return &Client{
		apiKey:     cfg.APIKey,
		model:      model,
		embedModel: embedModel,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// chat API structures.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// ExtractFields asks the model for the structured fields of one paper.
// A malformed or non-JSON response is an *types.ExternalServiceError.
func (c *Client) ExtractFields(ctx context.Context, title, abstract string) (types.ExtractionFields, error) {
	prompt, err := renderExtractionPrompt(title, abstract)
	if err != nil {
		return types.ExtractionFields{}, fmt.Errorf("rendering prompt: %w", err)
	}

	raw, err := c.chatJSON(ctx, "You output strictly valid JSON only.", prompt, 0.2)
	if err != nil {
		return types.ExtractionFields{}, err
	}

	var fields types.ExtractionFields
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return types.ExtractionFields{}, &types.ExternalServiceError{
			Service: "llm",
			Err:     fmt.Errorf("parsing extraction response: %w", err),
		}
	}
	return fields, nil
}

// Synthesize asks the model for the topic overview, gaps, and hypotheses
// grounded in the evidence digest.
func (c *Client) Synthesize(ctx context.Context, topic, evidence string) (types.SynthesisResult, error) {
	prompt, err := renderSynthesisPrompt(topic, evidence)
	if err != nil {
		return types.SynthesisResult{}, fmt.Errorf("rendering prompt: %w", err)
	}

	raw, err := c.chatJSON(ctx, "Return strictly valid JSON only.", prompt, 0.3)
	if err != nil {
		return types.SynthesisResult{}, err
	}

	var result types.SynthesisResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return types.SynthesisResult{}, &types.ExternalServiceError{
			Service: "llm",
			Err:     fmt.Errorf("parsing synthesis response: %w", err),
		}
	}
	return result, nil
}

// chatJSON runs one JSON-mode chat completion and returns the message
// content with any code fences stripped.
func (c *Client) chatJSON(ctx context.Context, system, prompt string, temperature float64) (string, error) {
	reqBody := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: prompt},
		},
		Temperature:    temperature,
		ResponseFormat: &responseFormat{Type: "json_object"},
	}

	var resp chatResponse
	if err := c.post(ctx, c.baseURL+"/chat/completions", reqBody, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", &types.ExternalServiceError{Service: "llm", Err: fmt.Errorf("empty choices in response")}
	}
	return stripCodeFences(resp.Choices[0].Message.Content), nil
}

// embedding API structures.
type embedRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type embedResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
}

// Embed returns the embedding vector for text.
func (c *Client) Embed(ctx context.Context, text string) ([]float64, error) {
	var resp embedResponse
	if err := c.post(ctx, c.baseURL+"/embeddings", embedRequest{Model: c.embedModel, Input: text}, &resp); err != nil {
		if ese, ok := err.(*types.ExternalServiceError); ok {
			ese.Service = "embedding"
		}
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, &types.ExternalServiceError{Service: "embedding", Err: fmt.Errorf("empty data in response")}
	}
	return resp.Data[0].Embedding, nil
}

// post sends a JSON request and decodes the JSON response. API-level
// failures surface as *types.ExternalServiceError.
func (c *Client) post(ctx context.Context, url string, body, out any) error {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := httputil.DoWithRetry(ctx, c.httpClient, req, 0)
	if err != nil {
		return &types.ExternalServiceError{Service: "llm", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &types.ExternalServiceError{
			Service: "llm",
			Err:     fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &types.ExternalServiceError{Service: "llm", Err: fmt.Errorf("decoding response: %w", err)}
	}
	return nil
}

var (
	fenceOpen  = regexp.MustCompile("(?i)^```(?:json)?\\s*")
	fenceClose = regexp.MustCompile("\\s*```$")
)

// stripCodeFences removes a surrounding ```json ... ``` block if the model
// added one despite JSON mode.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	s = fenceOpen.ReplaceAllString(s, "")
	s = fenceClose.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}
