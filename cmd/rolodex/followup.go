package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/spf13/cobra"

	"rolodex/internal/query"
	"rolodex/internal/store"
)

func followupCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "followup",
		Short: "Track followup items raised in interactions",
	}
	cmd.AddCommand(followupAddCmd(opts))
	cmd.AddCommand(followupListCmd(opts))
	cmd.AddCommand(followupCompleteCmd(opts))
	return cmd
}

func followupAddCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "add <person> <slug|id> <item>...",
		Short: "Add followup items to an interaction",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			person, ref, items := args[0], args[1], args[2:]
			return opts.withStore(cmd, func(ctx context.Context, st store.Store) error {
				id, err := resolveInteraction(ctx, st, person, ref)
				if err != nil {
					return err
				}
				created, err := st.CreateFollowups(ctx, person, id, items)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for _, f := range created {
					fmt.Fprintf(out, "Added [%d] %s: %s\n", f.ID, f.DateSlug, f.Item)
				}
				return nil
			})
		},
	}
}

// resolveInteraction accepts a numeric id or an interaction slug of person.
func resolveInteraction(ctx context.Context, st store.Store, person, ref string) (int64, error) {
	if !strings.Contains(ref, "-") {
		return parseID(ref)
	}
	detail, err := query.New(st).InteractionBySlug(ctx, person, ref)
	if err != nil {
		return 0, err
	}
	return detail.ID, nil
}

func followupListCmd(opts *rootOptions) *cobra.Command {
	var person, status string
	var format *outputFormat
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List followups, open ones by default",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON, err := format.json()
			if err != nil {
				return err
			}
			var s store.FollowupStatus
			if status != "all" {
				if s, err = store.ParseFollowupStatus(status); err != nil {
					return err
				}
			}
			return opts.withStore(cmd, func(ctx context.Context, st store.Store) error {
				items, err := query.New(st).Followups(ctx, person, s)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if asJSON {
					return printJSON(out, items)
				}
				if len(items) == 0 {
					fmt.Fprintln(out, "No followups found.")
					return nil
				}
				tw := newTable(out, "ID", "PERSON", "SLUG", "STATUS", "ITEM")
				for _, f := range items {
					row(tw, f.ID, f.PersonName, f.DateSlug, f.Status, f.Item)
				}
				return tw.Flush()
			})
		},
	}
	format = addFormatFlag(cmd)
	cmd.Flags().StringVar(&person, "person", "", "Only followups of this person")
	cmd.Flags().StringVar(&status, "status", string(store.FollowupStatusOpen), "open, complete or all")
	return cmd
}

func followupCompleteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "complete <id>...",
		Short: "Mark followups complete",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]int64, 0, len(args))
			for _, a := range args {
				id, err := parseID(a)
				if err != nil {
					return err
				}
				ids = append(ids, id)
			}
			return opts.withStore(cmd, func(ctx context.Context, st store.Store) error {
				for _, id := range ids {
					f, err := st.CompleteFollowup(ctx, id)
					if err != nil {
						return goerr.Wrap(err, "failed to complete followup", goerr.V("id", id))
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Completed [%d] %s: %s\n", f.ID, f.DateSlug, f.Item)
				}
				return nil
			})
		},
	}
}
