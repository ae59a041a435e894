package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"rolodex/internal/query"
	"rolodex/internal/store"
)

// filterFlags binds the shared filter flags. Commands that ignore tags or
// dates do not register them.
type filterFlags struct {
	raw query.RawFilter
}

func (f *filterFlags) registerTags(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&f.raw.Tags, "tag", nil, "Match interactions with any of these tags (repeatable or comma separated)")
}

func (f *filterFlags) registerDates(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.raw.DateFrom, "from", "", "Earliest interaction date, YYYY-MM-DD")
	cmd.Flags().StringVar(&f.raw.DateTo, "to", "", "Latest interaction date, YYYY-MM-DD")
}

func (f *filterFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&f.raw.PersonType, "type", "", "Person type")
	flags.StringVar(&f.raw.Company, "company", "", "Company substring")
	flags.StringVar(&f.raw.Industry, "industry", "", "Industry substring")
	flags.StringVar(&f.raw.Person, "person", "", "Person name substring")
	flags.StringVar(&f.raw.Text, "text", "", "Words that must all appear, matched as prefixes")
}

func (f *filterFlags) parse() (query.Filter, error) {
	return query.ParseFilter(f.raw)
}

func searchCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search interactions and persons",
	}
	cmd.AddCommand(searchInteractionsCmd(opts))
	cmd.AddCommand(searchPeopleCmd(opts))
	cmd.AddCommand(searchTextCmd(opts))
	return cmd
}

func searchInteractionsCmd(opts *rootOptions) *cobra.Command {
	filters := &filterFlags{}
	var format *outputFormat
	cmd := &cobra.Command{
		Use:   "interactions",
		Short: "List interactions matching every given filter, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON, err := format.json()
			if err != nil {
				return err
			}
			f, err := filters.parse()
			if err != nil {
				return err
			}
			return opts.withStore(cmd, func(ctx context.Context, st store.Store) error {
				rows, err := query.New(st).SearchInteractions(ctx, f)
				if err != nil {
					return err
				}
				return printInteractions(cmd, rows, asJSON)
			})
		},
	}
	format = addFormatFlag(cmd)
	filters.registerTags(cmd)
	filters.registerDates(cmd)
	filters.register(cmd)
	return cmd
}

func searchPeopleCmd(opts *rootOptions) *cobra.Command {
	filters := &filterFlags{}
	var format *outputFormat
	cmd := &cobra.Command{
		Use:   "people",
		Short: "List persons matching every given filter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON, err := format.json()
			if err != nil {
				return err
			}
			f, err := filters.parse()
			if err != nil {
				return err
			}
			return opts.withStore(cmd, func(ctx context.Context, st store.Store) error {
				rows, err := query.New(st).SearchPersons(ctx, f)
				if err != nil {
					return err
				}
				return printPersons(cmd, rows, asJSON)
			})
		},
	}
	format = addFormatFlag(cmd)
	filters.register(cmd)
	return cmd
}

func searchTextCmd(opts *rootOptions) *cobra.Command {
	var format *outputFormat
	cmd := &cobra.Command{
		Use:   "text <query>...",
		Short: "Rank interactions by full-text relevance",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON, err := format.json()
			if err != nil {
				return err
			}
			q := strings.Join(args, " ")
			return opts.withStore(cmd, func(ctx context.Context, st store.Store) error {
				matches, err := query.New(st).SearchText(ctx, q)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if asJSON {
					return printJSON(out, matches)
				}
				if len(matches) == 0 {
					fmt.Fprintln(out, "No matches.")
					return nil
				}
				for i, m := range matches {
					if i > 0 {
						fmt.Fprintln(out)
					}
					heading.Fprintf(out, "%s %s", m.PersonName, m.Slug)
					dim.Fprintf(out, " (id %d, score %.2f)\n", m.ID, m.Score)
					fmt.Fprintf(out, "  %s\n", m.Snippet)
					for _, t := range m.Takeaways {
						fmt.Fprintf(out, "  - %s\n", t)
					}
					for _, q := range m.Quotes {
						fmt.Fprintf(out, "  > %s\n", q)
					}
				}
				return nil
			})
		},
	}
	format = addFormatFlag(cmd)
	return cmd
}
