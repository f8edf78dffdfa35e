package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/nvandessel/mina/internal/constants"
	"github.com/spf13/cobra"
)

func newModelsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "Manage the model catalog",
		Long: `List, show and remove fitted models saved with 'mina fit --name'.

Models live in .mina/models.db under the project root (local) and in
~/.mina/models.db (global). Lookups search local first.`,
	}
	cmd.PersistentFlags().String("scope", string(constants.ScopeBoth), "Catalog scope: local, global, both")

	cmd.AddCommand(
		newModelsListCmd(),
		newModelsShowCmd(),
		newModelsRmCmd(),
	)
	return cmd
}

func newModelsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List catalogued models",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			scope, _ := cmd.Flags().GetString("scope")
			catalog, err := a.openCatalog(constants.Scope(scope))
			if err != nil {
				return err
			}
			defer catalog.Close()

			entries, err := catalog.List(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if a.jsonOut {
				return json.NewEncoder(out).Encode(map[string]interface{}{
					"models": entries,
					"count":  len(entries),
				})
			}

			if len(entries) == 0 {
				fmt.Fprintln(out, "No models. Save one with: mina fit <trace> --name <name>")
				return nil
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, color.New(color.Bold).Sprint("NAME\tSCOPE\tLEVELS\tINCREMENTS\tUPDATED\tSOURCE"))
			for _, e := range entries {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\t%s\n", e.Name, e.Scope, e.Levels, e.Increments,
					e.UpdatedAt.Local().Format("2006-01-02 15:04"), e.Source)
			}
			return tw.Flush()
		},
	}
}

func newModelsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Show a model's levels",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			scope, _ := cmd.Flags().GetString("scope")
			catalog, err := a.openCatalog(constants.Scope(scope))
			if err != nil {
				return err
			}
			defer catalog.Close()

			e, err := catalog.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if a.jsonOut {
				summary := summarizeModel(e.Model)
				summary.Name = e.Name
				summary.Scope = string(e.Scope)
				summary.Source = e.Source
				return json.NewEncoder(out).Encode(summary)
			}

			fmt.Fprintf(out, "%s (%s)\n", color.New(color.Bold).Sprint(e.Name), e.Scope)
			if e.Source != "" {
				fmt.Fprintf(out, "Source:     %s\n", e.Source)
			}
			fmt.Fprintf(out, "Increments: %d\n", e.Increments)
			fmt.Fprintf(out, "Total:      %g\n", e.Root)
			fmt.Fprintf(out, "Batch size: %d\n", e.Model.BatchSize())
			fmt.Fprintf(out, "Updated:    %s\n\n", e.UpdatedAt.Local().Format("2006-01-02 15:04:05"))
			printLevels(out, e.Model)
			return nil
		},
	}
}

func newModelsRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <name>",
		Aliases: []string{"delete"},
		Short:   "Remove a model from the catalog",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			scope, _ := cmd.Flags().GetString("scope")
			catalog, err := a.openCatalog(constants.Scope(scope))
			if err != nil {
				return err
			}
			defer catalog.Close()

			if err := catalog.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			a.events.Log("model_deleted", map[string]any{"name": args[0], "scope": scope})

			if a.jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]string{
					"status": "deleted",
					"name":   args[0],
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", args[0])
			return nil
		},
	}
}
