package main

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/talgya/dreamsim/internal/engine"
	"github.com/talgya/dreamsim/internal/entropy"
	"github.com/talgya/dreamsim/internal/journal"
	"github.com/talgya/dreamsim/internal/patterns"
)

// batchResult is one finished dream of a batch.
type batchResult struct {
	completion engine.Completion
	ticks      int
	events     int
}

func newBatchCmd(a *app) *cobra.Command {
	var (
		sf       sessionFlags
		count    int
		parallel int
		noSave   bool
	)
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Simulate many independent dreams concurrently",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if count <= 0 {
				return fmt.Errorf("count must be positive")
			}
			var store journal.Store = journal.NewMemory()
			if !noSave {
				db, err := a.openDB()
				if err != nil {
					return err
				}
				store = db
			}

			start := time.Now()
			results, err := runBatch(cmd.Context(), a, store, sf, count, parallel)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			events, ticks := 0, 0
			for i, r := range results {
				c := r.completion
				primary, _ := c.Session.PrimarySetting()
				fmt.Fprintf(out, "%-5s %-9s %-24s %2d conflicts  %3d events  %s\n",
					humanize.Ordinal(i+1), c.Session.Type, primary.Name,
					len(c.Session.Narrative.Conflicts), r.events, c.Session.Narrative.Pattern.Name)
				events += r.events
				ticks += r.ticks
			}
			fmt.Fprintf(out, "\n%s dreams, %s ticks, %s events in %s.\n",
				humanize.Comma(int64(len(results))), humanize.Comma(int64(ticks)), humanize.Comma(int64(events)),
				time.Since(start).Round(time.Millisecond))

			if !noSave {
				for _, r := range results {
					if err := saveSession(cmd.Context(), a, r.completion.Session); err != nil {
						return err
					}
				}
			}

			entries, err := store.All(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(out)
			printProfile(out, patterns.Track(a.lib, entries))
			return nil
		},
	}
	sf.register(cmd)
	f := cmd.Flags()
	f.IntVar(&count, "count", 10, "number of dreams")
	f.IntVar(&parallel, "parallel", runtime.NumCPU(), "dreams simulated at once")
	f.BoolVar(&noSave, "no-save", false, "keep journal entries in memory only")
	return cmd
}

// runBatch simulates count sessions, each on its own director, clock and
// random source. Results keep submission order.
func runBatch(ctx context.Context, a *app, store journal.Store, sf sessionFlags, count, parallel int) ([]batchResult, error) {
	base := a.seed
	if base == 0 {
		base = a.cfg.Seed
	}
	results := make([]batchResult, count)

	g, gCtx := errgroup.WithContext(ctx)
	if parallel > 0 {
		g.SetLimit(parallel)
	}
	for i := range count {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			var src entropy.Source
			if base != 0 {
				src = entropy.NewSeeded(base + int64(i))
			} else {
				src = a.cfg.Source(0)
			}

			vc := &engine.VirtualClock{}
			completed := make(chan engine.Completion, 1)
			d := engine.NewDirector(a.lib,
				engine.WithClock(vc),
				engine.WithManualTicks(),
				engine.WithSource(src),
				engine.WithStore(store),
				engine.OnComplete(func(c engine.Completion) { completed <- c }),
			)
			if _, err := d.Configure(sf.config()); err != nil {
				return fmt.Errorf("dream %d: %w", i+1, err)
			}
			d.Start()
			ticks := engine.FastForward(d, vc)
			results[i] = batchResult{
				completion: <-completed,
				ticks:      ticks,
				events:     len(d.EventsSince(0)),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
