package main

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/spf13/cobra"

	"rolodex/internal/ingest"
	"rolodex/internal/store"
)

func ingestCmd(opts *rootOptions) *cobra.Command {
	var options ingest.Options
	var format *outputFormat
	cmd := &cobra.Command{
		Use:   "ingest <path>...",
		Short: "Record interaction documents from YAML or JSON files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON, err := format.json()
			if err != nil {
				return err
			}
			return opts.withStore(cmd, func(ctx context.Context, st store.Store) error {
				return runIngest(ctx, cmd, st, args, options, asJSON)
			})
		},
	}
	format = addFormatFlag(cmd)
	cmd.Flags().BoolVar(&options.Full, "full", false, "Force full re-ingestion (ignore recorded hashes)")
	cmd.Flags().BoolVar(&options.DryRun, "dry-run", false, "Parse and validate without writing")
	return cmd
}

func runIngest(ctx context.Context, cmd *cobra.Command, st store.Store, paths []string, options ingest.Options, asJSON bool) error {
	result, err := ingest.Run(ctx, st, paths, options)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if asJSON {
		errs := make([]string, 0, len(result.Errors))
		for _, e := range result.Errors {
			errs = append(errs, e.Error())
		}
		payload := struct {
			*ingest.Result
			DryRun bool     `json:"dry_run"`
			Errors []string `json:"errors"`
		}{result, options.DryRun, errs}
		if err := printJSON(out, payload); err != nil {
			return err
		}
	} else {
		if options.DryRun {
			fmt.Fprintln(out, "Dry run complete.")
		} else {
			fmt.Fprintln(out, "Ingestion complete.")
		}
		fmt.Fprintf(out, "  Interactions ingested: %d\n", result.Ingested)
		fmt.Fprintf(out, "  Followups created:     %d\n", result.Followups)
		fmt.Fprintf(out, "  Files skipped:         %d\n", result.Skipped)

		if len(result.Errors) > 0 {
			fmt.Fprintf(out, "\nErrors (%d):\n", len(result.Errors))
			for _, item := range result.Errors {
				fmt.Fprintf(out, "  - %v\n", item)
			}
		}
	}

	if len(result.Errors) > 0 {
		return goerr.New("ingestion completed with errors", goerr.V("errors", len(result.Errors)))
	}
	return nil
}
