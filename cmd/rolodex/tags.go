package main

import (
	"github.com/spf13/cobra"

	"rolodex/internal/store"
)

func tagsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tags",
		Short: "List the tag vocabulary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := newTable(cmd.OutOrStdout(), "TAG", "DESCRIPTION")
			for _, t := range store.AllTags() {
				row(tw, t, t.Description())
			}
			return tw.Flush()
		},
	}
}
