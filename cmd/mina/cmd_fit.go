package main

import (
	"encoding/json"
	"fmt"

	"github.com/nvandessel/mina/internal/arrival"
	"github.com/nvandessel/mina/internal/constants"
	"github.com/nvandessel/mina/internal/modelfile"
	"github.com/spf13/cobra"
)

func newFitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fit <trace>",
		Short: "Fit a cascade model to a trace",
		Long: `Fit a multiplicative cascade to a trace of arrival timestamps, one per
line ("-" reads stdin), and print the per-level Beta parameters.

Examples:
  mina fit trace.txt                     # Print the fitted levels
  mina fit trace.txt --name web          # Save in the local catalog
  mina fit trace.txt --name web --scope global
  mina fit trace.txt --save web.mina     # Write a model file`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			strict, _ := cmd.Flags().GetBool("strict")
			name, _ := cmd.Flags().GetString("name")
			savePath, _ := cmd.Flags().GetString("save")
			scope, _ := cmd.Flags().GetString("scope")

			ts, err := readTrace(args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}
			m, err := a.fit(ts, strict)
			if err != nil {
				return err
			}

			source := args[0]
			if source == "-" {
				source = ""
			}

			if name != "" {
				catalog, err := a.openCatalog(constants.Scope(scope))
				if err != nil {
					return err
				}
				defer catalog.Close()
				if err := catalog.Save(cmd.Context(), name, source, m); err != nil {
					return fmt.Errorf("failed to save model: %w", err)
				}
			}

			if savePath != "" {
				if err := modelfile.Write(savePath, &modelfile.File{Name: name, Source: source, Model: m}); err != nil {
					return fmt.Errorf("failed to write model file: %w", err)
				}
			}

			out := cmd.OutOrStdout()
			if a.jsonOut {
				summary := summarizeModel(m)
				summary.Name = name
				summary.Source = source
				if name != "" {
					summary.Scope = scope
				}
				return json.NewEncoder(out).Encode(map[string]interface{}{
					"model":        summary,
					"poisson_rate": arrival.ModelRate(m),
					"saved_to":     savePath,
				})
			}

			fmt.Fprintf(out, "Fitted %d levels from %d increments (total %g, batch size %d)\n\n",
				m.Depth(), m.Increments(), m.Root(), m.BatchSize())
			printLevels(out, m)
			fmt.Fprintf(out, "\nMean rate: %g arrivals per unit time\n", arrival.ModelRate(m))
			if name != "" {
				fmt.Fprintf(out, "Saved as %s (%s)\n", name, scope)
			}
			if savePath != "" {
				fmt.Fprintf(out, "Wrote %s\n", savePath)
			}
			return nil
		},
	}

	cmd.Flags().String("name", "", "Save the model in the catalog under this name")
	cmd.Flags().String("scope", string(constants.ScopeLocal), "Catalog for --name: local or global")
	cmd.Flags().String("save", "", "Write the model to this file")
	cmd.Flags().Bool("strict", false, "Require a power-of-two number of increments so none are left out")

	return cmd
}
