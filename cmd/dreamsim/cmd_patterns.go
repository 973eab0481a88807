package main

import (
	"github.com/spf13/cobra"

	"github.com/talgya/dreamsim/internal/patterns"
)

func newPatternsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "patterns",
		Short: "Show recurring themes, emotions and characters across the journal",
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := a.openDB()
			if err != nil {
				return err
			}
			entries, err := db.All(cmd.Context())
			if err != nil {
				return err
			}
			printProfile(cmd.OutOrStdout(), patterns.Track(a.lib, entries))
			return nil
		},
	}
}
