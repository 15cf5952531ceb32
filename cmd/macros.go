package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	json "github.com/json-iterator/go"
	"github.com/spf13/cobra"
)

func newMacrosCmd() *cobra.Command {
	macrosCmd := &cobra.Command{
		Use:   "macros",
		Short: "Manage the macro library",
	}
	macrosCmd.AddCommand(newMacrosListCmd(), newMacrosShowCmd(), newMacrosDeleteCmd())
	return macrosCmd
}

func newMacrosListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved macros",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := getConfig(cmd.Context())
			if err != nil {
				return err
			}
			store, err := openMacroStore(cfg)
			if err != nil {
				return err
			}
			entries, err := store.List()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintf(out, "No macros in %s\n", store.Dir())
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tEVENTS\tDURATION\tMODIFIED")
			for _, e := range entries {
				info, err := store.Info(e.Path)
				if err != nil {
					fmt.Fprintf(w, "%s\t-\t-\t(%v)\n", e.Name, err)
					continue
				}
				fmt.Fprintf(w, "%s\t%d\t%.2fs\t%s\n", info.Name, info.EventCount, info.DurationSec, info.Modified.Format(time.DateTime))
			}
			return w.Flush()
		},
	}
}

func newMacrosShowCmd() *cobra.Command {
	var events bool

	showCmd := &cobra.Command{
		Use:   "show <name|path>",
		Short: "Show a macro's summary, or its events with --events",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := getConfig(cmd.Context())
			if err != nil {
				return err
			}
			store, err := openMacroStore(cfg)
			if err != nil {
				return err
			}

			var v any
			if events {
				m, err := store.Load(args[0])
				if err != nil {
					return err
				}
				v = m
			} else {
				info, err := store.Info(args[0])
				if err != nil {
					return err
				}
				v = info
			}
			data, err := json.MarshalIndent(v, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
	showCmd.Flags().BoolVar(&events, "events", false, "print every event")
	return showCmd
}

func newMacrosDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name|path>",
		Short: "Delete a saved macro",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := getConfig(cmd.Context())
			if err != nil {
				return err
			}
			store, err := openMacroStore(cfg)
			if err != nil {
				return err
			}
			if err := store.Delete(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		},
	}
}
