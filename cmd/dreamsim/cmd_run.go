package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/talgya/dreamsim/internal/dream"
	"github.com/talgya/dreamsim/internal/engine"
)

func newRunCmd(a *app) *cobra.Command {
	var (
		sf    sessionFlags
		speed float64
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Play a dream session on the real clock",
		Long: "run configures a session and plays it tick by tick. Ctrl+C stops the\n" +
			"dream early; a stopped dream is saved but gets no journal entry.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if speed <= 0 {
				return fmt.Errorf("speed must be positive")
			}
			db, err := a.openDB()
			if err != nil {
				return err
			}

			completed := make(chan engine.Completion, 1)
			d := engine.NewDirector(a.lib,
				engine.WithClock(engine.NewWallClock(speed)),
				engine.WithInterval(a.cfg.TickInterval),
				engine.WithSource(a.cfg.Source(a.seed)),
				engine.WithStore(db),
				engine.OnComplete(func(c engine.Completion) { completed <- c }),
			)

			s, err := d.Configure(sf.config())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			printPlan(out, s)
			fmt.Fprintln(out)

			unsubscribe := d.Subscribe(func(e dream.Event) { printEvent(out, e) })
			defer unsubscribe()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			d.Start()
			select {
			case c := <-completed:
				if err := saveSession(ctx, a, c.Session); err != nil {
					return err
				}
				printReport(out, c.Report)
				fmt.Fprintf(out, "\nJournal entry %s recorded.\n", c.Entry.ID)
				return nil
			case <-ctx.Done():
				d.Stop()
				snap, _ := d.Snapshot()
				fmt.Fprintf(out, "\nDream stopped at %s in stage %q.\n", engine.Clock(snap.Elapsed), snap.Narrative.Stages[snap.CurrentStage].Label)
				return saveSession(context.Background(), a, snap)
			}
		},
	}
	sf.register(cmd)
	cmd.Flags().Float64Var(&speed, "speed", 1, "simulated seconds per real second")
	return cmd
}

func saveSession(ctx context.Context, a *app, s *dream.Session) error {
	db, err := a.openDB()
	if err != nil {
		return err
	}
	if err := db.SaveSession(ctx, s); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	if err := db.SaveMeta("last_session", s.ID); err != nil {
		slog.Warn("recording last session", "error", err)
	}
	return nil
}
