package main

import (
	"encoding/json"
	"fmt"

	"github.com/fatih/color"
	"github.com/nvandessel/mina/internal/modelfile"
	"github.com/spf13/cobra"
)

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <model-file>",
		Short: "Show the contents of a model file",
		Long: `Verify and print a model file written by 'mina fit --save'.

Compressed files have their checksum verified before anything is printed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			path := args[0]

			version, err := modelfile.DetectFormat(path)
			if err != nil {
				return err
			}
			mf, err := modelfile.Read(path)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				summary := summarizeModel(mf.Model)
				summary.Name = mf.Name
				summary.Source = mf.Source
				return json.NewEncoder(out).Encode(map[string]interface{}{
					"format":     version,
					"created_at": mf.CreatedAt,
					"model":      summary,
				})
			}

			fmt.Fprintf(out, "%s %s\n", color.New(color.Bold).Sprint("Model file"), path)
			fmt.Fprintf(out, "Format:     v%d", version)
			if version == modelfile.FormatV2 {
				h, err := modelfile.ReadHeader(path)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, " (checksum %s)", color.GreenString("ok"))
				fmt.Fprintf(out, "\nChecksum:   %s", h.Checksum)
			}
			fmt.Fprintln(out)
			if mf.Name != "" {
				fmt.Fprintf(out, "Name:       %s\n", mf.Name)
			}
			if mf.Source != "" {
				fmt.Fprintf(out, "Source:     %s\n", mf.Source)
			}
			if !mf.CreatedAt.IsZero() {
				fmt.Fprintf(out, "Created:    %s\n", mf.CreatedAt.Local().Format("2006-01-02 15:04:05"))
			}
			fmt.Fprintf(out, "Increments: %d\n", mf.Model.Increments())
			fmt.Fprintf(out, "Total:      %g\n", mf.Model.Root())
			fmt.Fprintf(out, "Batch size: %d\n\n", mf.Model.BatchSize())
			printLevels(out, mf.Model)
			return nil
		},
	}
}
