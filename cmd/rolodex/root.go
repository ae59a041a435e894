package main

import (
	"context"
	"os"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"rolodex/internal/config"
	"rolodex/internal/logging"
	"rolodex/internal/store"
)

type rootOptions struct {
	configPath string
	dsn        string
	logLevel   string
	logFormat  string

	cfg   *config.ProjectConfig
	runID string
}

func rootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "rolodex",
		Short:         "Track people, interactions and their rolling state of play",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup(cmd)
		},
	}
	root.Version = version
	root.SetVersionTemplate("{{.Version}}\n")

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", config.DefaultPath, "Project config file")
	flags.StringVar(&opts.dsn, "dsn", "", "Database DSN, overrides config and "+config.EnvDSN)
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn or error")
	flags.StringVar(&opts.logFormat, "log-format", "", "Log format: console or json")

	root.AddCommand(personCmd(opts))
	root.AddCommand(interactionCmd(opts))
	root.AddCommand(ingestCmd(opts))
	root.AddCommand(followupCmd(opts))
	root.AddCommand(searchCmd(opts))
	root.AddCommand(aggregateCmd(opts))
	root.AddCommand(lsCmd(opts))
	root.AddCommand(catCmd(opts))
	root.AddCommand(treeCmd(opts))
	root.AddCommand(validateCmd(opts))
	root.AddCommand(statsCmd(opts))
	root.AddCommand(sqlCmd(opts))
	root.AddCommand(initCmd(opts))
	root.AddCommand(serveCmd(opts))
	root.AddCommand(tagsCmd())
	root.AddCommand(versionCmd())
	return root
}

// setup resolves config, then installs the process logger tagged with a
// fresh run id. Flags win over the config file.
func (o *rootOptions) setup(cmd *cobra.Command) error {
	explicit := cmd.Flags().Changed("config")
	cfg, err := config.Resolve(o.configPath, explicit, os.Getenv)
	if err != nil {
		return err
	}
	if o.dsn != "" {
		cfg.Database.DSN = o.dsn
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	if o.logFormat != "" {
		cfg.Log.Format = o.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	o.cfg = cfg

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	logger, err := logging.New(cmd.ErrOrStderr(), level, cfg.Log.Format, !color.NoColor)
	if err != nil {
		return err
	}
	o.runID = uuid.NewString()
	logging.SetDefault(logger.With("run_id", o.runID, "command", cmd.CommandPath()))
	return nil
}

// withStore opens the configured store, ensures its schema and runs fn.
func (o *rootOptions) withStore(cmd *cobra.Command, fn func(ctx context.Context, st store.Store) error) error {
	ctx := cmd.Context()
	st, err := openStore(ctx, o.cfg.Database.DSN)
	if err != nil {
		return err
	}
	defer st.Close(ctx)

	if err := st.EnsureSchema(ctx); err != nil {
		return err
	}
	return fn(ctx, st)
}
