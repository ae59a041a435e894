package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"rolodex/internal/query"
	"rolodex/internal/store"
)

func statsCmd(opts *rootOptions) *cobra.Command {
	var format *outputFormat
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON, err := format.json()
			if err != nil {
				return err
			}
			return opts.withStore(cmd, func(ctx context.Context, st store.Store) error {
				stats, err := query.New(st).Stats(ctx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if asJSON {
					return printJSON(out, stats)
				}

				tw := newTable(out, "COUNT", "VALUE")
				row(tw, "persons", stats.Persons)
				row(tw, "interactions", stats.Interactions)
				row(tw, "connections", stats.Connections)
				row(tw, "followups", stats.Followups)
				row(tw, "open followups", stats.OpenFollowups)
				if err := tw.Flush(); err != nil {
					return err
				}

				fmt.Fprintln(out)
				heading.Fprintln(out, "Persons by type")
				tw = newTable(out, "TYPE", "PERSONS")
				types := append(store.AllPersonTypes(), store.PersonType(query.UnknownSegment))
				for _, t := range types {
					if n := stats.ByType[t]; n > 0 {
						row(tw, t, n)
					}
				}
				if err := tw.Flush(); err != nil {
					return err
				}

				fmt.Fprintln(out)
				heading.Fprintln(out, "Interactions by tag")
				tw = newTable(out, "TAG", "COUNT")
				for _, t := range store.AllTags() {
					if n := stats.ByTag[t]; n > 0 {
						row(tw, t, n)
					}
				}
				return tw.Flush()
			})
		},
	}
	format = addFormatFlag(cmd)
	return cmd
}
