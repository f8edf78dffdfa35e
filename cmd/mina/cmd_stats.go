package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math"

	"github.com/fatih/color"
	"github.com/nvandessel/mina/internal/analysis"
	"github.com/nvandessel/mina/internal/arrival"
	"github.com/nvandessel/mina/internal/trace"
	"github.com/spf13/cobra"
)

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats <trace>",
		Short: "Summarize a trace and compare it with a synthetic one",
		Long: `Print summary statistics of a trace's inter-arrival increments: mean,
standard deviation, coefficient of variation and an aggregated-variance
Hurst estimate.

With --compare, a cascade is fitted to the trace and a synthetic trace of
the same length (plus a Poisson trace with the same mean rate) is generated
and summarized alongside.

Examples:
  mina stats trace.txt
  mina stats trace.txt --compare --seed 7`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			compare, _ := cmd.Flags().GetBool("compare")
			opts, err := resolveGenerateOptions(cmd, a.cfg)
			if err != nil {
				return err
			}

			ts, err := readTrace(args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}
			incs, err := trace.Increments(ts)
			if err != nil {
				return err
			}

			rows := []statsRow{}
			empirical, err := analysis.Summarize(incs)
			if err != nil {
				return err
			}
			rows = append(rows, statsRow{Name: "trace", Summary: empirical})

			if compare {
				m, err := a.fit(ts, false)
				if err != nil {
					return err
				}
				for _, kind := range []string{arrival.KindCascade, arrival.KindPoisson} {
					stream, err := arrival.Open(m, arrival.Options{Kind: kind, Seed: opts.seed, Batch: opts.batch})
					if err != nil {
						return err
					}
					synth, err := arrival.Collect(stream, len(incs))
					if err != nil {
						return err
					}
					// Synthetic traces start at zero
					synthIncs, err := trace.Increments(append([]float64{0}, synth...))
					if err != nil {
						return err
					}
					s, err := analysis.Summarize(synthIncs)
					if err != nil {
						return err
					}
					rows = append(rows, statsRow{Name: kind, Summary: s})
				}
			}

			out := cmd.OutOrStdout()
			if a.jsonOut {
				return json.NewEncoder(out).Encode(map[string]interface{}{"traces": jsonRows(rows)})
			}
			printStats(out, rows)
			return nil
		},
	}

	cmd.Flags().Bool("compare", false, "Also summarize synthetic cascade and Poisson traces")
	cmd.Flags().String("seed", "", "Random seed for --compare (default from config)")
	cmd.Flags().Int("batch-size", 0, "Poisson refill size for --compare (default from config)")

	return cmd
}

type statsRow struct {
	Name    string
	Summary analysis.Summary
}

// jsonRows replaces a NaN Hurst estimate, which JSON cannot encode, with null.
func jsonRows(rows []statsRow) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(rows))
	for _, r := range rows {
		var hurst interface{}
		if !math.IsNaN(r.Summary.Hurst) {
			hurst = r.Summary.Hurst
		}
		out = append(out, map[string]interface{}{
			"name":    r.Name,
			"count":   r.Summary.Count,
			"total":   r.Summary.Total,
			"mean":    r.Summary.Mean,
			"std_dev": r.Summary.StdDev,
			"cv":      r.Summary.CV,
			"min":     r.Summary.Min,
			"max":     r.Summary.Max,
			"hurst":   hurst,
		})
	}
	return out
}

func printStats(w io.Writer, rows []statsRow) {
	color.New(color.Bold).Fprintf(w, "%-8s %8s %12s %12s %12s %8s %8s\n",
		"TRACE", "COUNT", "TOTAL", "MEAN", "STDDEV", "CV", "HURST")
	for _, r := range rows {
		s := r.Summary
		hurst := "n/a"
		if !math.IsNaN(s.Hurst) {
			hurst = fmt.Sprintf("%.3f", s.Hurst)
			if s.Hurst > 0.6 {
				hurst = color.CyanString(hurst)
			}
		}
		fmt.Fprintf(w, "%-8s %8d %12.4g %12.4g %12.4g %8.3f %8s\n",
			r.Name, s.Count, s.Total, s.Mean, s.StdDev, s.CV, hurst)
	}
}
