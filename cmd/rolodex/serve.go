package main

import (
	"context"

	"github.com/spf13/cobra"

	"rolodex/internal/config"
	"rolodex/internal/logging"
	"rolodex/internal/mcp"
	"rolodex/internal/store"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

func serveCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withStore(cmd, func(ctx context.Context, st store.Store) error {
				logging.Default().Info("serving mcp over stdio", "scheme", config.Scheme(opts.cfg.Database.DSN))
				return mcp.NewServer(st, version).Run(ctx, &sdk.StdioTransport{})
			})
		},
	}
}
