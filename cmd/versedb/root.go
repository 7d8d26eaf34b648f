package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/versedb/versedb/internal/config"
	"github.com/versedb/versedb/internal/corpus"
	"github.com/versedb/versedb/internal/storage"
	"github.com/versedb/versedb/internal/storage/kv"
)

type rootOptions struct {
	configPath string
	verbose    bool
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "versedb",
		Short: "Offline-first reference-text store",
		Long: `versedb manages the local scripture store: schema migrations,
one-time corpus bootstrap, full-text search and typed settings.

The same semantics hold on the native file-backed engine and the
embedded engine persisting to durable key-value storage.`,
		Version:       fmt.Sprintf("%s (built %s, %s/%s)", version, buildTime, storage.BuildMode, storage.DriverName),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if opts.verbose {
				level = slog.LevelDebug
			}
			handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
			slog.SetDefault(slog.New(handler))
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to YAML config file")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")

	cmd.AddCommand(
		newInitCommand(opts),
		newStatusCommand(opts),
		newSearchCommand(opts),
		newSettingsCommand(opts),
		newResetCommand(opts),
	)
	return cmd
}

// openManager wires the build-selected engine, the bundled datasets and
// stderr progress reporting. The returned closer releases the KV store
// backing the embedded engine.
func openManager(opts *rootOptions) (*storage.Manager, func(), error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, nil, err
	}

	var kvStore kv.Store
	closer := func() {}
	if storage.BuildMode == "embedded" {
		c, err := kv.OpenCharm(kv.CharmConfig{DBName: cfg.KV.Name, AutoSync: cfg.KV.Sync})
		if err != nil {
			return nil, nil, err
		}
		kvStore = c
		closer = func() { _ = c.Close() }
	}

	datasets, err := corpus.Datasets(cfg.Bootstrap.Languages)
	if err != nil {
		closer()
		return nil, nil, err
	}

	engine := storage.NewDefaultEngine(filepath.Join(cfg.DataDir, "db"), kvStore, slog.Default())
	mgr := storage.NewManager(storage.ManagerConfig{
		Engine:            engine,
		Datasets:          datasets,
		Logger:            slog.Default(),
		BootstrapProgress: stageProgress("bootstrap"),
		FtsProgress:       stageProgress("search index"),
	})
	return mgr, closer, nil
}

func stageProgress(stage string) storage.ProgressFunc {
	return func(fraction float64) {
		fmt.Fprintf(os.Stderr, "\r%s %3.0f%%", stage, fraction*100)
		if fraction >= 1.0 {
			fmt.Fprintln(os.Stderr)
		}
	}
}
