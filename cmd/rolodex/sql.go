package main

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/spf13/cobra"

	"rolodex/internal/store"
)

func sqlCmd(opts *rootOptions) *cobra.Command {
	var paramPairs []string
	cmd := &cobra.Command{
		Use:   "sql <query>",
		Short: "Run a read-only SQL query against a SQL-backed store",
		Long:  "Parameters are positional and keyed 1, 2, ... as in --param 1=Jane. Changes are always rolled back.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			params, err := parseParamPairs(paramPairs)
			if err != nil {
				return err
			}
			return opts.withStore(cmd, func(ctx context.Context, st store.Store) error {
				runner, ok := st.(store.SQLRunner)
				if !ok {
					return goerr.Wrap(store.ErrValidation, "store does not support sql",
						goerr.V("dsn", opts.cfg.Database.DSN))
				}
				rows, err := runner.RunSQL(ctx, query, params)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), rows)
			})
		},
	}
	cmd.Flags().StringArrayVar(&paramPairs, "param", nil, "Query parameter as key=value (repeatable)")
	return cmd
}

func parseParamPairs(pairs []string) (map[string]any, error) {
	params := make(map[string]any)
	for _, pair := range pairs {
		if pair == "" {
			continue
		}
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) != 2 {
			return nil, goerr.Wrap(store.ErrValidation, "invalid param: expected key=value", goerr.V("param", pair))
		}
		key := strings.TrimSpace(parts[0])
		if key == "" {
			return nil, goerr.Wrap(store.ErrValidation, "invalid param: empty key", goerr.V("param", pair))
		}
		params[key] = strings.TrimSpace(parts[1])
	}
	return params, nil
}
