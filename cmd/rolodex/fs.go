package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"rolodex/internal/store"
	"rolodex/internal/vfs"
)

func pathArg(args []string) string {
	if len(args) == 0 {
		return "/"
	}
	return vfs.Join("/", args[0])
}

func lsCmd(opts *rootOptions) *cobra.Command {
	var format *outputFormat
	cmd := &cobra.Command{
		Use:   "ls [path]",
		Short: "List a directory of the path view",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON, err := format.json()
			if err != nil {
				return err
			}
			return opts.withStore(cmd, func(ctx context.Context, st store.Store) error {
				entries, err := vfs.New(st).List(ctx, pathArg(args))
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if asJSON {
					return printJSON(out, entries)
				}
				for _, e := range entries {
					fmt.Fprintln(out, e)
				}
				return nil
			})
		},
	}
	format = addFormatFlag(cmd)
	return cmd
}

func catCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "cat <path>",
		Short: "Print a file of the path view",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withStore(cmd, func(ctx context.Context, st store.Store) error {
				content, err := vfs.New(st).Read(ctx, pathArg(args))
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), content)
				return nil
			})
		},
	}
}

func treeCmd(opts *rootOptions) *cobra.Command {
	var depth int
	cmd := &cobra.Command{
		Use:   "tree [path]",
		Short: "Draw the path view as a tree",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withStore(cmd, func(ctx context.Context, st store.Store) error {
				tree, err := vfs.New(st).Tree(ctx, pathArg(args), depth)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), tree)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&depth, "depth", vfs.DefaultTreeDepth, "Maximum depth to descend")
	return cmd
}
