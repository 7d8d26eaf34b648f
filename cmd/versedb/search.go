package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newSearchCommand(opts *rootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "search <terms>...",
		Short: "Full-text search over the corpus",
		Args:  cobra.MinimumNArgs(1),
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
			verses, err := store.SearchVerses(cmd.Context(), strings.Join(args, " "), limit)
			if err != nil {
				return err
			}
			if len(verses) == 0 {
				fmt.Println("no matches")
				return nil
			}
			for _, v := range verses {
				fmt.Printf("%s %d:%d (%s)  %s\n", v.Book, v.Chapter, v.Verse, v.Version, v.Text)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "maximum results")
	return cmd
}
