// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var papersCmd = &cobra.Command{
	Use:   "papers [run-id]",
	Short: "List the papers a run worked on",
	RunE:  runPapers,
}

func init() {
	rootCmd.AddCommand(papersCmd)
}

func runPapers(cmd *cobra.Command, args []string) error {
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

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSOURCE\tYEAR\tDOI\tTITLE")
	for _, p := range d.Papers {
		year := ""
		if p.Year != 0 {
			year = fmt.Sprintf("%d", p.Year)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", p.ID, p.Source, year, p.DOI, p.Title)
	}
	return tw.Flush()
}
