// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pdiddy/litreview/pkg/types"
)

// GetCachedPayload returns the payload of the most recent cache entry for
// (topic, source) if it is younger than ttl. A missing or stale entry is a
// miss (ok == false); stale rows stay in the table for audit. Storage
// failures come back as *types.CacheReadError — a broken cache is a hard
// error, never a forced miss.
func (s *Store) GetCachedPayload(ctx context.Context, topic, source string, ttl time.Duration) (string, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT payload, created_at FROM retrieval_cache
		 WHERE topic = ? AND source = ?
		 ORDER BY id DESC LIMIT 1`, topic, source)

	var payload, createdAt string
	err := row.Scan(&payload, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, &types.CacheReadError{Err: err}
	}

	created := parseTime(createdAt)
	if created.IsZero() {
		return "", false, &types.CacheReadError{Err: fmt.Errorf("unparseable cache timestamp %q", createdAt)}
	}
	if now().Sub(created) > ttl {
		return "", false, nil
	}
	return payload, true, nil
}

// SaveCachedPayload appends a new immutable cache entry. Existing rows are
// never overwritten; concurrent writers for the same topic simply produce
// two entries and freshest-wins reads tolerate that.
func (s *Store) SaveCachedPayload(ctx context.Context, topic, source, payload string) error {
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO retrieval_cache (topic, source, payload, created_at) VALUES (?, ?, ?, ?)`,
		topic, source, payload, formatTime(now()),
	); err != nil {
		return fmt.Errorf("inserting cache entry: %w", err)
	}
	return nil
}

// CacheEntries returns every stored entry for (topic, source), newest
// first — the audit view of what past retrievals returned.
func (s *Store) CacheEntries(ctx context.Context, topic, source string) ([]types.RetrievalCacheEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, topic, source, payload, created_at FROM retrieval_cache
		 WHERE topic = ? AND source = ?
		 ORDER BY id DESC`, topic, source)
	if err != nil {
		return nil, fmt.Errorf("querying cache entries: %w", err)
	}
	defer rows.Close()

	var entries []types.RetrievalCacheEntry
	for rows.Next() {
		var (
			e         types.RetrievalCacheEntry
			createdAt string
		)
		if err := rows.Scan(&e.ID, &e.Topic, &e.Source, &e.Payload, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning cache entry: %w", err)
		}
		e.CreatedAt = parseTime(createdAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// CacheEntryCount reports how many entries exist for (topic, source).
// Used by audit surfaces and tests; reads never delete.
func (s *Store) CacheEntryCount(ctx context.Context, topic, source string) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx,
		`SELECT count(*) FROM retrieval_cache WHERE topic = ? AND source = ?`,
		topic, source,
	).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting cache entries: %w", err)
	}
	return n, nil
}
