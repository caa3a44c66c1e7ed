// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pdiddy/litreview/internal/store"
	"github.com/pdiddy/litreview/pkg/types"
)

// openStore opens just the database, for subcommands that do not need the
// full pipeline.
func openStore(cfg types.Config) (*store.Store, error) {
	return store.Open(cfg.Store.Path)
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Create, execute, and inspect literature-review runs",
}

var runCreateCmd = &cobra.Command{
	Use:   "create [topic]",
	Short: "Create a run for a research topic",
	RunE:  runCreate,
}

var runExecuteCmd = &cobra.Command{
	Use:   "execute [run-id]",
	Short: "Execute a created run through the full pipeline",
	RunE:  runExecute,
}

var runListCmd = &cobra.Command{
	Use:   "list",
	Short: "List runs",
	RunE:  runList,
}

var runShowCmd = &cobra.Command{
	Use:   "show [run-id]",
	Short: "Show a run with its papers and artifacts",
	RunE:  runShow,
}

func init() {
	runCreateCmd.Flags().String("notes", "", "free-text notes for the run")
	runCreateCmd.Flags().Bool("upload", false, "papers will be uploaded rather than retrieved")

	runCmd.AddCommand(runCreateCmd, runExecuteCmd, runListCmd, runShowCmd)
	rootCmd.AddCommand(runCmd)
}

func runCreate(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("provide the research topic as a single argument")
	}
	topic := strings.TrimSpace(args[0])
	if len(topic) < 3 {
		return fmt.Errorf("topic must be at least 3 characters")
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	notes, _ := cmd.Flags().GetString("notes")
	upload, _ := cmd.Flags().GetBool("upload")

	run, err := st.CreateRun(cmd.Context(), topic, notes, upload)
	if err != nil {
		return err
	}
	fmt.Printf("created run %d for topic %q\n", run.ID, run.Topic)
	return nil
}

func runExecute(cmd *cobra.Command, args []string) error {
	id, err := parseRunID(args)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	orch, st, err := buildOrchestrator(cfg, os.Stdout)
	if err != nil {
		return err
	}
	defer st.Close()

	run, err := st.GetRun(cmd.Context(), id)
	if err != nil {
		return err
	}
	if run.Status != types.RunCreated {
		return fmt.Errorf("run %d has status %s; only created runs can be executed", id, run.Status)
	}

	if err := orch.Execute(cmd.Context(), id); err != nil {
		return fmt.Errorf("run %d failed: %w", id, err)
	}
	fmt.Printf("run %d completed\n", id)
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.ListRuns(cmd.Context())
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tCREATED\tTOPIC")
	for _, r := range runs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n",
			r.ID, r.Status, r.CreatedAt.Format("2006-01-02 15:04"), r.Topic)
	}
	return tw.Flush()
}

func runShow(cmd *cobra.Command, args []string) error {
	id, err := parseRunID(args)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	d, err := st.BuildDossier(cmd.Context(), id)
	if err != nil {
		return err
	}

	fmt.Printf("run %d: %s [%s]\n", d.Run.ID, d.Run.Topic, d.Run.Status)
	if d.Run.Notes != "" {
		fmt.Printf("notes: %s\n", d.Run.Notes)
	}
	fmt.Printf("\npapers (%d):\n", len(d.Papers))
	for _, p := range d.Papers {
		fmt.Printf("  [%d] %s (%s)\n", p.ID, p.Title, p.Source)
	}
	fmt.Printf("\nextractions: %d\n", len(d.Extractions))
	for _, a := range d.Artifacts {
		fmt.Printf("\n--- %s ---\n%s\n", a.Kind, a.Content)
	}
	return nil
}

func parseRunID(args []string) (int64, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("provide the run id as a single argument")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid run id %q", args[0])
	}
	return id, nil
}
