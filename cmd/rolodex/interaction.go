package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/m-mizutani/goerr/v2"
	"github.com/spf13/cobra"

	"rolodex/internal/logging"
	"rolodex/internal/query"
	"rolodex/internal/store"
	"rolodex/internal/vfs"
)

func interactionCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "interaction",
		Short: "Inspect and delete interactions",
	}
	cmd.AddCommand(interactionListCmd(opts))
	cmd.AddCommand(interactionShowCmd(opts))
	cmd.AddCommand(interactionDeleteCmd(opts))
	return cmd
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, goerr.Wrap(store.ErrValidation, "id must be a positive integer", goerr.V("id", s))
	}
	return id, nil
}

func interactionListCmd(opts *rootOptions) *cobra.Command {
	var format *outputFormat
	cmd := &cobra.Command{
		Use:   "list <person>",
		Short: "List the interactions of a person in date order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON, err := format.json()
			if err != nil {
				return err
			}
			return opts.withStore(cmd, func(ctx context.Context, st store.Store) error {
				rows, err := query.New(st).Interactions(ctx, args[0])
				if err != nil {
					return err
				}
				return printInteractions(cmd, rows, asJSON)
			})
		},
	}
	format = addFormatFlag(cmd)
	return cmd
}

func interactionShowCmd(opts *rootOptions) *cobra.Command {
	var format *outputFormat
	cmd := &cobra.Command{
		Use:   "show <id> | show <person> <slug>",
		Short: "Show an interaction with its transcript",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON, err := format.json()
			if err != nil {
				return err
			}
			return opts.withStore(cmd, func(ctx context.Context, st store.Store) error {
				engine := query.New(st)
				var detail *query.InteractionDetail
				if len(args) == 2 {
					detail, err = engine.InteractionBySlug(ctx, args[0], args[1])
				} else {
					var id int64
					if id, err = parseID(args[0]); err != nil {
						return err
					}
					detail, err = engine.Interaction(ctx, id)
				}
				if err != nil {
					return err
				}
				if asJSON {
					return printJSON(cmd.OutOrStdout(), detail)
				}
				printInteraction(cmd, detail)
				return nil
			})
		},
	}
	format = addFormatFlag(cmd)
	return cmd
}

func printInteraction(cmd *cobra.Command, d *query.InteractionDetail) {
	out := cmd.OutOrStdout()
	heading.Fprintf(out, "%s %s", d.PersonName, d.Slug)
	dim.Fprintf(out, " (id %d)\n", d.ID)
	fmt.Fprintf(out, "Tags: %s\n\n", orDash(joinTags(d.Tags)))

	heading.Fprintln(out, "Takeaways")
	for _, t := range d.Takeaways {
		fmt.Fprintf(out, "  - %s\n", t)
	}
	fmt.Fprintln(out)
	heading.Fprintln(out, "Transcript")
	fmt.Fprintln(out, vfs.FormatTranscript(&d.Transcript))
}

func interactionDeleteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an interaction and its followups",
		Long:  "Slugs of the remaining interactions on the same date are not renumbered.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return opts.withStore(cmd, func(ctx context.Context, st store.Store) error {
				res, err := st.DeleteInteraction(ctx, id)
				if err != nil {
					return err
				}
				logging.Default().Info("interaction deleted", "id", id, "followups", res.Followups)
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted interaction %d and %d followups.\n", id, res.Followups)
				return nil
			})
		},
	}
}

func printInteractions(cmd *cobra.Command, rows []query.InteractionRow, asJSON bool) error {
	out := cmd.OutOrStdout()
	if asJSON {
		return printJSON(out, rows)
	}
	if len(rows) == 0 {
		fmt.Fprintln(out, "No interactions found.")
		return nil
	}
	tw := newTable(out, "ID", "PERSON", "SLUG", "TAGS", "FIRST TAKEAWAY")
	for _, i := range rows {
		first := ""
		if len(i.Takeaways) > 0 {
			first = i.Takeaways[0]
		}
		row(tw, i.ID, i.PersonName, i.Slug, joinTags(i.Tags), truncate(first, 60))
	}
	return tw.Flush()
}
