// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/litreview/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the litreview HTTP API",
	Long: `Serve exposes the run lifecycle over HTTP: create runs, upload papers,
execute the pipeline, and inspect papers and artifacts. Prometheus metrics
are exported on /metrics.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("address", "", "listen address (default :8080)")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if addr, _ := cmd.Flags().GetString("address"); addr != "" {
		cfg.Server.Address = addr
	}

	orch, st, err := buildOrchestrator(cfg, os.Stderr)
	if err != nil {
		return err
	}
	defer st.Close()

	return server.New(st, orch).Run(cfg.Server.Address)
}
