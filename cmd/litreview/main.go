// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the litreview CLI: an HTTP service
// and command surface for automated literature-review runs.
package main

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/litreview/internal/evidence"
	"github.com/pdiddy/litreview/internal/extraction"
	"github.com/pdiddy/litreview/internal/llm"
	"github.com/pdiddy/litreview/internal/pipeline"
	"github.com/pdiddy/litreview/internal/retrieval"
	"github.com/pdiddy/litreview/internal/secrets"
	"github.com/pdiddy/litreview/internal/store"
	"github.com/pdiddy/litreview/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

const (
	defaultTimeout   = 60 * time.Second
	defaultUserAgent = "litreview/0.1"
	defaultDBPath    = "litreview.db"
)

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// secretDefault returns fallback if non-empty, else the named secret.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	return loadedSecrets[key]
}

// rootCmd is the base command for the litreview CLI.
var rootCmd = &cobra.Command{
	Use:   "litreview",
	Short: "Automated literature-review pipeline",
	Long: `litreview retrieves candidate papers for a research topic, extracts
structured fields from each paper with a language model, and synthesizes a
topic overview, gap analysis, and candidate hypotheses. Every stage is
persisted as an auditable record.

Serve the HTTP API with "litreview serve", or drive runs directly with the
"run" subcommands.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./litreview.yaml or ~/.config/litreview/config.yaml)")
	rootCmd.PersistentFlags().String("db", "", "database file (default: ./litreview.db)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("litreview")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "litreview"))
		}
	}

	viper.SetEnvPrefix("LITREVIEW")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig materializes the typed configuration from viper, flags, and
// secrets, applying defaults.
func loadConfig(cmd *cobra.Command) (types.Config, error) {
	var cfg types.Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return types.Config{}, fmt.Errorf("parsing config: %w", err)
	}

	if dbFlag, _ := rootCmd.PersistentFlags().GetString("db"); dbFlag != "" {
		cfg.Store.Path = dbFlag
	}
	if cfg.Store.Path == "" {
		cfg.Store.Path = defaultDBPath
	}
	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8080"
	}
	if cfg.Retrieval.Timeout == 0 {
		cfg.Retrieval.Timeout = defaultTimeout
	}
	if cfg.Retrieval.UserAgent == "" {
		cfg.Retrieval.UserAgent = defaultUserAgent
	}
	if cfg.Retrieval.MaxResults == 0 {
		cfg.Retrieval.MaxResults = 10
	}
	if cfg.Retrieval.CacheTTL == 0 {
		cfg.Retrieval.CacheTTL = 24 * time.Hour
	}
	cfg.Retrieval.Email = secretDefault("openalex-email", cfg.Retrieval.Email)

	if cfg.LLM.Timeout == 0 {
		cfg.LLM.Timeout = defaultTimeout
	}
	cfg.LLM.APIKey = secretDefault("openai-api-key", cfg.LLM.APIKey)

	if cfg.Evidence.MaxItems == 0 {
		cfg.Evidence.MaxItems = evidence.DefaultMaxItems
	}

	return cfg, nil
}

// buildOrchestrator assembles the pipeline from config. The store is
// returned too so callers can close it.
func buildOrchestrator(cfg types.Config, progress *os.File) (*pipeline.Orchestrator, *store.Store, error) {
	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return nil, nil, err
	}

	client := llm.NewClient(cfg.LLM)

	orch := &pipeline.Orchestrator{
		Store: st,
		Retrieval: &retrieval.Service{
			Gateway: &retrieval.OpenAlexGateway{
				Client:    &http.Client{Timeout: cfg.Retrieval.Timeout},
				Email:     cfg.Retrieval.Email,
				UserAgent: cfg.Retrieval.UserAgent,
			},
			Cache:  st,
			Config: cfg.Retrieval,
		},
		Extraction: &extraction.Service{
			Producer: client,
			Store:    st,
		},
		Synthesizer: client,
		Embedder:    client,
		Evidence: &evidence.Builder{
			Store:    st,
			MaxItems: cfg.Evidence.MaxItems,
		},
		Progress: progress,
	}
	return orch, st, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
