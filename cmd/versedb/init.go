package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newInitCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Open storage, migrating and bootstrapping if needed",
		Long: `Open the store, bring the schema to the current version and, on
first run, ingest the bundled corpus and build the search index.
Idempotent: an already-initialized store is a no-op.`,
		Args: cobra.NoArgs,
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
			n, err := store.Count(cmd.Context(), "verses", "")
			if err != nil {
				return err
			}
			fmt.Printf("storage ready, %d verses\n", n)
			return nil
		},
	}
}
