// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package retrieval fetches candidate papers for a topic, consulting an
// append-only cache before the external gateway. Cached result sets are
// kept forever for audit; only freshness-at-read decides whether an entry
// is served.
package retrieval

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/pdiddy/litreview/pkg/types"
)

// Gateway fetches candidate papers from a scholarly index. Implementations
// return *types.ExternalServiceError on network or service failure; the
// caller does not retry — a failed fetch fails the run.
type Gateway interface {
	Name() string
	Fetch(ctx context.Context, topic string, maxResults int) ([]types.PaperRecord, error)
}

// Cache is the store surface the retrieval service needs.
type Cache interface {
	GetCachedPayload(ctx context.Context, topic, source string, ttl time.Duration) (string, bool, error)
	SaveCachedPayload(ctx context.Context, topic, source, payload string) error
}

// Service coordinates cache and gateway.
type Service struct {
	Gateway Gateway
	Cache   Cache
	Config  types.RetrievalConfig
}

// Retrieve returns candidate papers for the topic. Within the configured
// TTL the cached payload is returned unchanged and the gateway is not
// called; on a miss the gateway result is appended to the cache before
// being returned. Cache-layer failures propagate: they are never treated
// as a miss.
func (s *Service) Retrieve(ctx context.Context, topic string, w io.Writer) ([]types.PaperRecord, error) {
	ttl := s.Config.CacheTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	maxResults := s.Config.MaxResults
	if maxResults <= 0 {
		maxResults = 10
	}

	payload, ok, err := s.Cache.GetCachedPayload(ctx, topic, s.Gateway.Name(), ttl)
	if err != nil {
		return nil, err
	}
	if ok {
		var records []types.PaperRecord
		if err := json.Unmarshal([]byte(payload), &records); err != nil {
			return nil, &types.CacheReadError{Err: fmt.Errorf("parsing cached payload: %w", err)}
		}
		fmt.Fprintf(w, "retrieval cache hit for %q (%d papers)\n", topic, len(records))
		return records, nil
	}

	records, err := s.Gateway.Fetch(ctx, topic, maxResults)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("marshaling retrieval payload: %w", err)
	}
	if err := s.Cache.SaveCachedPayload(ctx, topic, s.Gateway.Name(), string(data)); err != nil {
		return nil, err
	}

	fmt.Fprintf(w, "fetched %d papers for %q from %s\n", len(records), topic, s.Gateway.Name())
	return records, nil
}
