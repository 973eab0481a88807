package main

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/talgya/dreamsim/internal/engine"
	"github.com/talgya/dreamsim/internal/journal"
)

func newJournalCmd(a *app) *cobra.Command {
	var (
		limit   int
		session string
	)
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "List recent journal entries or replay a stored session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := a.openDB()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			ctx := cmd.Context()

			if session != "" {
				s, err := db.LoadSession(ctx, session)
				if errors.Is(err, sql.ErrNoRows) {
					return fmt.Errorf("no stored session %q", session)
				}
				if err != nil {
					return err
				}
				events, err := db.SessionEvents(ctx, session)
				if err != nil {
					return err
				}
				printPlan(out, s)
				if s.EndedEarly {
					fmt.Fprintf(out, "  stopped at %s\n", engine.Clock(s.Elapsed))
				}
				fmt.Fprintln(out)
				for _, e := range events {
					printEvent(out, e)
				}
				return nil
			}

			entries, err := db.List(ctx, limit)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(out, "The dream journal is empty. Run 'dreamsim simulate' to record a dream.")
				return nil
			}
			for _, e := range entries {
				who := ""
				if e.UserName != "" {
					who = " by " + e.UserName
				}
				fmt.Fprintf(out, "%s  %s%s, %s (%s)\n", short(e.ID), e.DreamType, who, humanize.Time(e.CreatedAt), e.Pattern)
				fmt.Fprintf(out, "  %s\n", e.Summary)
			}
			if last, err := db.GetMeta("last_session"); err == nil {
				fmt.Fprintf(out, "\nLast session: %s\n", last)
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.IntVar(&limit, "limit", journal.DefaultLimit, "number of most recent entries")
	f.StringVar(&session, "session", "", "replay the events of a stored session")
	return cmd
}

func short(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
