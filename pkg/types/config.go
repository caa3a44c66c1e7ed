// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "litreview/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// RetrievalConfig holds settings for the retrieval stage: the scholarly
// index gateway and the cache in front of it.
type RetrievalConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// MaxResults is the number of candidate papers requested per topic (default 10).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`

	// CacheTTL is how long a cached result set stays fresh (default 24h).
	// Stale entries are ignored on read, never deleted.
	CacheTTL time.Duration `json:"cache_ttl" yaml:"cache_ttl" mapstructure:"cache_ttl"`

	// Email is sent as the mailto parameter for OpenAlex polite pool access.
	Email string `json:"email,omitempty" yaml:"email,omitempty" mapstructure:"email"`
}

// LLMConfig holds settings for the language-model collaborator used by
// extraction, synthesis, and embeddings. The client is constructed from
// this config and injected; there is no process-wide service state.
type LLMConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// Model is the chat completion model (e.g. "gpt-4.1-mini").
	Model string `json:"model" yaml:"model" mapstructure:"model"`

	// EmbedModel is the embedding model (e.g. "text-embedding-3-small").
	EmbedModel string `json:"embed_model" yaml:"embed_model" mapstructure:"embed_model"`

	// APIKey is the authentication key for the API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// BaseURL overrides the API endpoint; empty means the public API.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty" mapstructure:"base_url"`
}

// StoreConfig holds settings for the SQLite store.
type StoreConfig struct {
	// Path is the database file path (e.g. "litreview.db").
	Path string `json:"path" yaml:"path" mapstructure:"path"`
}

// ServerConfig holds settings for the HTTP API.
type ServerConfig struct {
	// Address is the listen address (default ":8080").
	Address string `json:"address" yaml:"address" mapstructure:"address"`
}

// EvidenceConfig holds settings for evidence digest building.
type EvidenceConfig struct {
	// MaxItems bounds the number of extraction blocks in a digest
	// (default 12). Purely a cost/latency control.
	MaxItems int `json:"max_items" yaml:"max_items" mapstructure:"max_items"`
}

// Config groups all stage configurations.
type Config struct {
	Server    ServerConfig    `json:"server" yaml:"server" mapstructure:"server"`
	Store     StoreConfig     `json:"store" yaml:"store" mapstructure:"store"`
	Retrieval RetrievalConfig `json:"retrieval" yaml:"retrieval" mapstructure:"retrieval"`
	LLM       LLMConfig       `json:"llm" yaml:"llm" mapstructure:"llm"`
	Evidence  EvidenceConfig  `json:"evidence" yaml:"evidence" mapstructure:"evidence"`
}
