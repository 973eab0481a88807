package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/talgya/dreamsim/internal/dream"
	"github.com/talgya/dreamsim/internal/engine"
	"github.com/talgya/dreamsim/internal/journal"
)

func newSimulateCmd(a *app) *cobra.Command {
	var (
		sf       sessionFlags
		asJSON   bool
		noSave   bool
		showPlan bool
	)
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run a whole dream instantly on virtual time",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var store journal.Store = journal.NewMemory()
			if !noSave {
				db, err := a.openDB()
				if err != nil {
					return err
				}
				store = db
			}

			vc := &engine.VirtualClock{}
			d := engine.NewDirector(a.lib,
				engine.WithClock(vc),
				engine.WithManualTicks(),
				engine.WithSource(a.cfg.Source(a.seed)),
				engine.WithStore(store),
			)
			s, err := d.Configure(sf.config())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			var events []dream.Event
			unsubscribe := d.Subscribe(func(e dream.Event) { events = append(events, e) })
			defer unsubscribe()

			d.Start()
			ticks := engine.FastForward(d, vc)
			rep, _ := d.Report()
			final, _ := d.Snapshot()
			if !noSave {
				if err := saveSession(cmd.Context(), a, final); err != nil {
					return err
				}
			}

			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(struct {
					Session *dream.Session `json:"session"`
					Events  []dream.Event  `json:"events"`
					Report  dream.Report   `json:"report"`
				}{final, events, rep})
			}

			if showPlan {
				printPlan(out, s)
				fmt.Fprintln(out)
			}
			for _, e := range events {
				printEvent(out, e)
			}
			printReport(out, rep)
			fmt.Fprintf(out, "\n%d ticks, %d events.\n", ticks, len(events))
			return nil
		},
	}
	sf.register(cmd)
	f := cmd.Flags()
	f.BoolVar(&asJSON, "json", false, "print session, events and report as JSON")
	f.BoolVar(&noSave, "no-save", false, "keep the journal entry in memory only")
	f.BoolVar(&showPlan, "plan", true, "print the compiled plan before the events")
	return cmd
}
