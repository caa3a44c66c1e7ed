// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export [run-id]",
	Short: "Export a run dossier (run, papers, extractions, artifacts)",
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().String("format", "yaml", "output format: yaml or json")
	exportCmd.Flags().StringP("output", "o", "", "output file (default: run-<id>.<format>)")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	id, err := parseRunID(args)
	if err != nil {
		return err
	}

	format, _ := cmd.Flags().GetString("format")
	if format != "yaml" && format != "json" {
		return fmt.Errorf("unsupported format %q (want yaml or json)", format)
	}

	out, _ := cmd.Flags().GetString("output")
	if out == "" {
		out = fmt.Sprintf("run-%d.%s", id, format)
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

	switch format {
	case "yaml":
		err = st.ExportYAML(cmd.Context(), id, out)
	case "json":
		err = st.ExportJSON(cmd.Context(), id, out)
	}
	if err != nil {
		return err
	}
	fmt.Printf("exported run %d to %s\n", id, out)
	return nil
}
