package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/talgya/dreamsim/internal/catalog"
	"github.com/talgya/dreamsim/internal/config"
	"github.com/talgya/dreamsim/internal/persistence"
)

// app carries what every subcommand needs once the root has loaded it.
type app struct {
	cfg  config.Config
	lib  *catalog.Library
	db   *persistence.DB
	seed int64
	path string
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "dreamsim",
		Short: "Procedural dream narrative simulator",
		Long: "dreamsim builds a dream session from content catalogs, plays it on a\n" +
			"one-second clock, analyzes it and records it in the dream journal.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load()
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			if a.db != nil {
				return a.db.Close()
			}
			return nil
		},
	}
	f := root.PersistentFlags()
	f.Int64Var(&a.seed, "seed", 0, "random seed (0 = DREAMSIM_SEED or non-deterministic)")
	f.StringVar(&a.path, "db", "", "journal database path (default DREAMSIM_DB_PATH)")

	root.AddCommand(
		newRunCmd(a),
		newSimulateCmd(a),
		newBatchCmd(a),
		newJournalCmd(a),
		newPatternsCmd(a),
		newSymbolCmd(a),
		newServeCmd(a),
	)
	return root
}

func (a *app) load() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if a.path != "" {
		cfg.DBPath = a.path
	}
	cfg.InitLogging()
	a.cfg = cfg

	lib, err := catalog.Load()
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	a.lib = lib
	return nil
}

// openDB opens the journal database, creating its directory.
func (a *app) openDB() (*persistence.DB, error) {
	if a.db != nil {
		return a.db, nil
	}
	if dir := filepath.Dir(a.cfg.DBPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}
	db, err := persistence.Open(a.cfg.DBPath)
	if err != nil {
		return nil, err
	}
	a.db = db
	return db, nil
}
