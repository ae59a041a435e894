package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"rolodex/internal/query"
	"rolodex/internal/store"
)

func aggregateCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "aggregate",
		Short: "Count tags and segments",
	}
	cmd.AddCommand(aggregateTagsCmd(opts))
	cmd.AddCommand(aggregateSegmentsCmd(opts))
	return cmd
}

func aggregateTagsCmd(opts *rootOptions) *cobra.Command {
	filters := &filterFlags{}
	var format *outputFormat
	cmd := &cobra.Command{
		Use:   "tags",
		Short: "Count tag occurrences over matching interactions",
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
				counts, err := query.New(st).AggregateTags(ctx, f)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if asJSON {
					return printJSON(out, struct {
						Counts query.TagCounts `json:"counts"`
						Total  int             `json:"total"`
					}{counts, counts.Total()})
				}
				heading.Fprintf(out, "Tag distribution (%d total)\n", counts.Total())
				if len(counts) == 0 {
					fmt.Fprintln(out, "No tagged interactions.")
					return nil
				}
				tw := newTable(out, "TAG", "COUNT", "")
				for _, c := range counts {
					row(tw, c.Tag, c.Count, barOf(c.Count, counts[0].Count))
				}
				return tw.Flush()
			})
		},
	}
	format = addFormatFlag(cmd)
	filters.registerDates(cmd)
	filters.register(cmd)
	return cmd
}

func aggregateSegmentsCmd(opts *rootOptions) *cobra.Command {
	filters := &filterFlags{}
	var by string
	var format *outputFormat
	cmd := &cobra.Command{
		Use:   "segments",
		Short: "Group matching persons by type, industry or company",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON, err := format.json()
			if err != nil {
				return err
			}
			segmentBy, err := query.ParseSegmentBy(by)
			if err != nil {
				return err
			}
			f, err := filters.parse()
			if err != nil {
				return err
			}
			return opts.withStore(cmd, func(ctx context.Context, st store.Store) error {
				segments, err := query.New(st).AggregateSegments(ctx, segmentBy, f)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if asJSON {
					return printJSON(out, struct {
						By       query.SegmentBy `json:"by"`
						Segments []query.Segment `json:"segments"`
					}{segmentBy, segments})
				}
				heading.Fprintf(out, "Segments by %s\n", segmentBy)
				if len(segments) == 0 {
					fmt.Fprintln(out, "No matching persons.")
					return nil
				}
				tw := newTable(out, "SEGMENT", "PEOPLE", "INTERACTIONS", "")
				for _, s := range segments {
					row(tw, s.Key, s.Members, s.Interactions, barOf(s.Members, segments[0].Members))
				}
				return tw.Flush()
			})
		},
	}
	format = addFormatFlag(cmd)
	filters.registerTags(cmd)
	filters.registerDates(cmd)
	filters.register(cmd)
	cmd.Flags().StringVar(&by, "by", string(query.SegmentByType), "Segment field: type, industry or company")
	return cmd
}
