package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newResetCommand(opts *rootOptions) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Clear all persisted data and re-bootstrap",
		Long: `Remove every persisted byte (verses, settings, metadata) and
re-initialize as if on first install, including a fresh bootstrap.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to reset without --yes")
			}
			mgr, closer, err := openManager(opts)
			if err != nil {
				return err
			}
			defer closer()
			defer func() { _ = mgr.Close() }()

			store, err := mgr.Reset(cmd.Context())
			if err != nil {
				return err
			}
			n, err := store.Count(cmd.Context(), "verses", "")
			if err != nil {
				return err
			}
			fmt.Printf("storage reset, %d verses\n", n)
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the destructive reset")
	return cmd
}
