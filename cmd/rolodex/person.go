package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"rolodex/internal/logging"
	"rolodex/internal/query"
	"rolodex/internal/store"
)

func personCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "person",
		Short: "Create, update and inspect persons",
	}
	cmd.AddCommand(personCreateCmd(opts))
	cmd.AddCommand(personUpdateCmd(opts))
	cmd.AddCommand(personDeleteCmd(opts))
	cmd.AddCommand(personShowCmd(opts))
	cmd.AddCommand(personListCmd(opts))
	cmd.AddCommand(personConnectCmd(opts, true))
	cmd.AddCommand(personConnectCmd(opts, false))
	cmd.AddCommand(personStateCmd(opts))
	cmd.AddCommand(personBackgroundCmd(opts))
	return cmd
}

type personFlags struct {
	company    string
	personType string
	industry   string
	revenue    string
	headcount  string
	linkedIn   string
	background string
}

func (f *personFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&f.company, "company", "", "Current company")
	flags.StringVar(&f.personType, "type", "", "Person type: customer, investor or competitor")
	flags.StringVar(&f.industry, "industry", "", "Company industry")
	flags.StringVar(&f.revenue, "revenue", "", "Company revenue")
	flags.StringVar(&f.headcount, "headcount", "", "Company headcount")
	flags.StringVar(&f.linkedIn, "linkedin", "", "LinkedIn URL")
	flags.StringVar(&f.background, "background", "", "Background notes")
}

// apply overwrites the fields whose flags were set on cmd.
func (f *personFlags) apply(cmd *cobra.Command, fields *store.PersonFields) error {
	changed := cmd.Flags().Changed
	if changed("type") {
		t, err := store.ParsePersonType(f.personType)
		if err != nil {
			return err
		}
		fields.Type = t
	}
	set := func(name string, dst *string, v string) {
		if changed(name) {
			*dst = strings.TrimSpace(v)
		}
	}
	set("company", &fields.CurrentCompany, f.company)
	set("industry", &fields.CompanyIndustry, f.industry)
	set("revenue", &fields.CompanyRevenue, f.revenue)
	set("headcount", &fields.CompanyHeadcount, f.headcount)
	set("linkedin", &fields.LinkedInURL, f.linkedIn)
	set("background", &fields.Background, f.background)
	return nil
}

func personCreateCmd(opts *rootOptions) *cobra.Command {
	flags := &personFlags{}
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a person",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var fields store.PersonFields
			if err := flags.apply(cmd, &fields); err != nil {
				return err
			}
			return opts.withStore(cmd, func(ctx context.Context, st store.Store) error {
				p, err := st.CreatePerson(ctx, args[0], fields)
				if err != nil {
					return err
				}
				logging.Default().Info("person created", "name", p.Name)
				fmt.Fprintf(cmd.OutOrStdout(), "Created %s (/%s)\n", p.Name, p.Slug())
				return nil
			})
		},
	}
	flags.register(cmd)
	return cmd
}

func personUpdateCmd(opts *rootOptions) *cobra.Command {
	flags := &personFlags{}
	cmd := &cobra.Command{
		Use:   "update <name>",
		Short: "Update the static fields of a person, creating it if missing",
		Long:  "Only the flags given are changed. State of play, delta and interactions are left alone.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withStore(cmd, func(ctx context.Context, st store.Store) error {
				var fields store.PersonFields
				existing, err := st.GetPerson(ctx, args[0])
				switch {
				case err == nil:
					fields = existing.PersonFields
				case !errors.Is(err, store.ErrNotFound):
					return err
				}
				if err := flags.apply(cmd, &fields); err != nil {
					return err
				}
				p, err := st.UpsertPerson(ctx, args[0], fields)
				if err != nil {
					return err
				}
				logging.Default().Info("person updated", "name", p.Name)
				fmt.Fprintf(cmd.OutOrStdout(), "Updated %s\n", p.Name)
				return nil
			})
		},
	}
	flags.register(cmd)
	return cmd
}

func personDeleteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a person with its interactions, followups and connections",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withStore(cmd, func(ctx context.Context, st store.Store) error {
				res, err := st.DeletePerson(ctx, args[0])
				if err != nil {
					return err
				}
				logging.Default().Info("person deleted", "name", args[0],
					"interactions", res.Interactions, "followups", res.Followups, "connections", res.Connections)
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Deleted %s.\n", args[0])
				fmt.Fprintf(out, "  Interactions: %d\n", res.Interactions)
				fmt.Fprintf(out, "  Followups:    %d\n", res.Followups)
				fmt.Fprintf(out, "  Connections:  %d\n", res.Connections)
				return nil
			})
		},
	}
}

func personShowCmd(opts *rootOptions) *cobra.Command {
	var format *outputFormat
	cmd := &cobra.Command{
		Use:   "show <name>",
		Short: "Show a person with state of play and connections",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON, err := format.json()
			if err != nil {
				return err
			}
			return opts.withStore(cmd, func(ctx context.Context, st store.Store) error {
				p, err := query.New(st).Person(ctx, args[0])
				if err != nil {
					return err
				}
				if asJSON {
					return printJSON(cmd.OutOrStdout(), p)
				}
				printPerson(cmd, p)
				return nil
			})
		},
	}
	format = addFormatFlag(cmd)
	return cmd
}

func printPerson(cmd *cobra.Command, p *query.PersonRow) {
	out := cmd.OutOrStdout()
	heading.Fprintln(out, p.Name)
	tw := newTable(out, "FIELD", "VALUE")
	row(tw, "company", orDash(p.CurrentCompany))
	row(tw, "type", orDash(p.Type.String()))
	row(tw, "industry", orDash(p.CompanyIndustry))
	row(tw, "revenue", orDash(p.CompanyRevenue))
	row(tw, "headcount", orDash(p.CompanyHeadcount))
	row(tw, "linkedin", orDash(p.LinkedInURL))
	row(tw, "interactions", len(p.InteractionIDs))
	row(tw, "connections", orDash(strings.Join(p.Connections, ", ")))
	tw.Flush()

	for _, section := range []struct{ title, body string }{
		{"Background", p.Background},
		{"State of play", p.StateOfPlay},
		{"Last delta", p.LastDelta},
	} {
		fmt.Fprintln(out)
		heading.Fprintln(out, section.title)
		if strings.TrimSpace(section.body) == "" {
			dim.Fprintln(out, "(none)")
			continue
		}
		fmt.Fprintln(out, section.body)
	}
}

func personListCmd(opts *rootOptions) *cobra.Command {
	var personType string
	var format *outputFormat
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List persons",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON, err := format.json()
			if err != nil {
				return err
			}
			f, err := query.ParseFilter(query.RawFilter{PersonType: personType})
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
	cmd.Flags().StringVar(&personType, "type", "", "Only persons of this type")
	return cmd
}

func printPersons(cmd *cobra.Command, rows []query.PersonRow, asJSON bool) error {
	out := cmd.OutOrStdout()
	if asJSON {
		return printJSON(out, rows)
	}
	if len(rows) == 0 {
		fmt.Fprintln(out, "No persons found.")
		return nil
	}
	tw := newTable(out, "NAME", "TYPE", "COMPANY", "INDUSTRY", "INTERACTIONS", "CONNECTIONS")
	for _, p := range rows {
		row(tw, p.Name, orDash(p.Type.String()), orDash(p.CurrentCompany), orDash(p.CompanyIndustry),
			len(p.InteractionIDs), len(p.Connections))
	}
	return tw.Flush()
}

func personConnectCmd(opts *rootOptions, connect bool) *cobra.Command {
	use, short := "connect <name> <name>", "Connect two persons"
	if !connect {
		use, short = "disconnect <name> <name>", "Remove the connection between two persons"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withStore(cmd, func(ctx context.Context, st store.Store) error {
				out := cmd.OutOrStdout()
				if connect {
					created, err := st.Connect(ctx, args[0], args[1])
					if err != nil {
						return err
					}
					if !created {
						fmt.Fprintf(out, "%s and %s are already connected.\n", args[0], args[1])
						return nil
					}
					fmt.Fprintf(out, "Connected %s and %s.\n", args[0], args[1])
					return nil
				}
				removed, err := st.Disconnect(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				if !removed {
					fmt.Fprintf(out, "%s and %s were not connected.\n", args[0], args[1])
					return nil
				}
				fmt.Fprintf(out, "Disconnected %s and %s.\n", args[0], args[1])
				return nil
			})
		},
	}
}

func personStateCmd(opts *rootOptions) *cobra.Command {
	var state store.PersonState
	cmd := &cobra.Command{
		Use:   "state <name>",
		Short: "Overwrite the state of play and last delta",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withStore(cmd, func(ctx context.Context, st store.Store) error {
				if err := st.SetPersonState(ctx, args[0], state); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated state of %s.\n", args[0])
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&state.StateOfPlay, "state", "", "State of play")
	cmd.Flags().StringVar(&state.LastDelta, "delta", "", "What changed in the last interaction")
	cmd.MarkFlagRequired("state")
	return cmd
}

func personBackgroundCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "background <name> <text>",
		Short: "Replace the background of a person",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			background := strings.Join(args[1:], " ")
			return opts.withStore(cmd, func(ctx context.Context, st store.Store) error {
				if err := st.SetPersonBackground(ctx, args[0], background); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated background of %s.\n", args[0])
				return nil
			})
		},
	}
}
