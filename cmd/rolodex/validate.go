package main

import (
	"context"
	"fmt"
	"io"

	"github.com/m-mizutani/goerr/v2"
	"github.com/spf13/cobra"

	"rolodex/internal/store"
	"rolodex/internal/validate"
)

func validateCmd(opts *rootOptions) *cobra.Command {
	var format *outputFormat
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Run consistency checks against the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON, err := format.json()
			if err != nil {
				return err
			}
			return opts.withStore(cmd, func(ctx context.Context, st store.Store) error {
				var report *validate.Report
				err := st.View(ctx, func(r store.Reader) error {
					var err error
					report, err = validate.Run(ctx, r)
					return err
				})
				if err != nil {
					return err
				}
				return printReport(cmd.OutOrStdout(), report, asJSON)
			})
		},
	}
	format = addFormatFlag(cmd)
	return cmd
}

func printReport(out io.Writer, report *validate.Report, asJSON bool) error {
	errorIssues := report.Errors()
	warnIssues := report.Warnings()

	if asJSON {
		if err := printJSON(out, report); err != nil {
			return err
		}
	} else {
		if len(errorIssues) == 0 && len(warnIssues) == 0 {
			fmt.Fprintln(out, "No issues found.")
			return nil
		}
		if len(errorIssues) > 0 {
			heading.Fprintf(out, "Errors (%d):\n", len(errorIssues))
			printIssues(out, errorIssues)
		}
		if len(warnIssues) > 0 {
			if len(errorIssues) > 0 {
				fmt.Fprintln(out)
			}
			heading.Fprintf(out, "Warnings (%d):\n", len(warnIssues))
			printIssues(out, warnIssues)
		}
	}

	if len(errorIssues) > 0 {
		return goerr.Wrap(store.ErrIntegrity, "validation found errors", goerr.V("errors", len(errorIssues)))
	}
	return nil
}

func printIssues(out io.Writer, issues []validate.Issue) {
	for _, issue := range issues {
		location := issue.Person
		if issue.Ref != "" {
			if location != "" {
				location += " "
			}
			location += "[" + issue.Ref + "]"
		}
		if location == "" {
			fmt.Fprintf(out, "  - %s (%s)\n", issue.Message, issue.Code)
			continue
		}
		fmt.Fprintf(out, "  - %s: %s (%s)\n", location, issue.Message, issue.Code)
	}
}
