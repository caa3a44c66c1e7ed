// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package retrieval

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/pdiddy/litreview/internal/httputil"
	"github.com/pdiddy/litreview/pkg/types"
)

// openAlexSearchBase is the OpenAlex Works search endpoint. Declared as a
// var so tests can substitute an httptest server.
var openAlexSearchBase = "https://api.openalex.org/works"

// SourceOpenAlex is the source tag on papers and cache entries produced by
// this gateway.
const SourceOpenAlex = "openalex"

// OpenAlexGateway fetches candidate papers for a topic from the OpenAlex
// Works API.
type OpenAlexGateway struct {
	Client *http.Client
	// Email is sent as mailto parameter for polite pool access.
	Email     string
	UserAgent string
}

// Name returns the gateway's source identifier.
func (g *OpenAlexGateway) Name() string { return SourceOpenAlex }

// Fetch queries OpenAlex for the topic and returns up to maxResults paper
// records. Missing optional fields stay zero-valued. Network and HTTP
// failures come back as *types.ExternalServiceError.
func (g *OpenAlexGateway) Fetch(ctx context.Context, topic string, maxResults int) ([]types.PaperRecord, error) {
	if strings.TrimSpace(topic) == "" {
		return nil, fmt.Errorf("empty topic")
	}
	if maxResults <= 0 {
		maxResults = 10
	}
	if maxResults > 200 {
		maxResults = 200
	}

	params := url.Values{
		"search":   {topic},
		"per-page": {fmt.Sprintf("%d", maxResults)},
		"page":     {"1"},
	}
	if g.Email != "" {
		params.Set("mailto", g.Email)
	}

	reqURL := openAlexSearchBase + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if g.UserAgent != "" {
		req.Header.Set("User-Agent", g.UserAgent)
	}

	client := g.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := httputil.DoWithRetry(ctx, client, req, 0)
	if err != nil {
		return nil, &types.ExternalServiceError{Service: SourceOpenAlex, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &types.ExternalServiceError{
			Service: SourceOpenAlex,
			Err:     fmt.Errorf("HTTP %d", resp.StatusCode),
		}
	}

	var oar openAlexResponse
	if err := json.NewDecoder(resp.Body).Decode(&oar); err != nil {
		return nil, &types.ExternalServiceError{
			Service: SourceOpenAlex,
			Err:     fmt.Errorf("parsing response: %w", err),
		}
	}

	var records []types.PaperRecord
	for _, work := range oar.Results {
		if work.ID == "" {
			continue
		}
		rec := types.PaperRecord{
			Source:   SourceOpenAlex,
			SourceID: work.ID,
			Title:    work.Title,
			Year:     work.PublicationYear,
			Abstract: reconstructAbstract(work.AbstractInvertedIndex),
		}
		if work.DOI != "" {
			rec.DOI = strings.TrimPrefix(work.DOI, "https://doi.org/")
		}
		if work.PrimaryLocation != nil {
			rec.URL = work.PrimaryLocation.LandingPageURL
		}
		records = append(records, rec)
	}
	return records, nil
}

// reconstructAbstract converts OpenAlex's abstract_inverted_index back to
// plain text. The inverted index maps each word to the positions where it
// appears.
func reconstructAbstract(invertedIndex map[string][]int) string {
	if len(invertedIndex) == 0 {
		return ""
	}

	type posWord struct {
		pos  int
		word string
	}
	var pairs []posWord
	for word, positions := range invertedIndex {
		for _, pos := range positions {
			pairs = append(pairs, posWord{pos: pos, word: word})
		}
	}

	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i].pos < pairs[j].pos
	})

	words := make([]string, len(pairs))
	for i, p := range pairs {
		words[i] = p.word
	}
	return strings.Join(words, " ")
}

// OpenAlex API JSON structures.
type openAlexResponse struct {
	Meta    openAlexMeta   `json:"meta"`
	Results []openAlexWork `json:"results"`
}

type openAlexMeta struct {
	Count   int `json:"count"`
	PerPage int `json:"per_page"`
	Page    int `json:"page"`
}

type openAlexWork struct {
	ID                    string            `json:"id"`
	Title                 string            `json:"title"`
	DOI                   string            `json:"doi"`
	PublicationYear       int               `json:"publication_year"`
	AbstractInvertedIndex map[string][]int  `json:"abstract_inverted_index"`
	PrimaryLocation       *openAlexLocation `json:"primary_location"`
}

type openAlexLocation struct {
	LandingPageURL string `json:"landing_page_url"`
}
