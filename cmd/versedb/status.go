package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/versedb/versedb/internal/storage"
)

func newStatusCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Report engine, schema and corpus state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, closer, err := openManager(opts)
			if err != nil {
				return err
			}
			defer closer()
			defer func() { _ = mgr.Close() }()

			store, err := mgr.Acquire(cmd.Context())
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			schemaVersion, err := store.SchemaVersion(ctx)
			if err != nil {
				return err
			}
			verses, err := store.Count(ctx, "verses", "")
			if err != nil {
				return err
			}
			indexed, err := store.Count(ctx, "verses_fts", "")
			if err != nil {
				return err
			}
			initialized, _, err := store.Metadata(ctx, "initialized")
			if err != nil {
				return err
			}

			fmt.Printf("Engine:         %s (%s)\n", storage.BuildMode, storage.DriverName)
			fmt.Printf("Schema version: %d\n", schemaVersion)
			fmt.Printf("Initialized:    %v\n", initialized == "true")
			fmt.Printf("Verses:         %d\n", verses)
			fmt.Printf("Indexed:        %d\n", indexed)
			return nil
		},
	}
}
