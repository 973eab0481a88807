package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/talgya/dreamsim/internal/api"
	"github.com/talgya/dreamsim/internal/engine"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		port  int
		speed float64
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dream director over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if speed <= 0 {
				return fmt.Errorf("speed must be positive")
			}
			db, err := a.openDB()
			if err != nil {
				return err
			}
			slog.Info("database opened", "path", a.cfg.DBPath)

			d := engine.NewDirector(a.lib,
				engine.WithClock(engine.NewWallClock(speed)),
				engine.WithInterval(a.cfg.TickInterval),
				engine.WithSource(a.cfg.Source(a.seed)),
				engine.WithStore(db),
				engine.OnComplete(func(c engine.Completion) {
					if err := saveSession(context.Background(), a, c.Session); err != nil {
						slog.Error("session save failed", "session", c.Session.ID, "error", err)
					}
					slog.Info("dream recorded",
						"session", c.Session.ID,
						"entry", c.Entry.ID,
						"journal_size", c.Profile.Entries,
					)
				}),
			)

			if a.cfg.AdminKey == "" {
				slog.Warn("DREAMSIM_ADMIN_KEY not set; admin POST endpoints are disabled")
			}
			if port == 0 {
				port = a.cfg.APIPort
			}
			server := &api.Server{
				Director:    d,
				Sessions:    db,
				Port:        port,
				AdminKey:    a.cfg.AdminKey,
				CORSOrigins: a.cfg.CORSOrigins,
			}
			srv := server.Start()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			fmt.Fprintf(cmd.OutOrStdout(), "API: http://localhost:%d/api/v1/status\n", port)
			<-ctx.Done()

			slog.Info("shutting down")
			if d.Stop() {
				if snap, ok := d.Snapshot(); ok {
					if err := saveSession(context.Background(), a, snap); err != nil {
						slog.Error("final save failed", "error", err)
					}
				}
			}
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
	f := cmd.Flags()
	f.IntVar(&port, "port", 0, "listen port (default DREAMSIM_API_PORT)")
	f.Float64Var(&speed, "speed", 1, "simulated seconds per real second")
	return cmd
}
