package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/nvandessel/mina/internal/arrival"
	"github.com/nvandessel/mina/internal/cascade"
	"github.com/nvandessel/mina/internal/config"
	"github.com/nvandessel/mina/internal/constants"
	"github.com/nvandessel/mina/internal/logging"
	"github.com/nvandessel/mina/internal/modelfile"
	"github.com/nvandessel/mina/internal/random"
	"github.com/nvandessel/mina/internal/trace"
	"github.com/spf13/cobra"
)

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a synthetic arrival trace",
		Long: `Generate synthetic absolute arrival times, one per line (or as an Arrow
IPC file with --format arrow).

The model comes from exactly one of:
  --input        a trace to fit on the fly ("-" reads stdin)
  --model-name   a model saved with 'mina fit --name'
  --model-file   a model file written with 'mina fit --save'

Examples:
  mina generate -i trace.txt -n 100000
  mina generate --model-name web --seed 7 -o web.txt
  mina generate --model-file web.mina --model poisson`,
		Args: cobra.NoArgs,
		RunE: runGenerate,
	}
	addGenerateFlags(cmd)
	return cmd
}

func addGenerateFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("input", "i", "", "Trace of timestamps to fit (\"-\" for stdin)")
	cmd.Flags().String("model-name", "", "Catalog model to generate from")
	cmd.Flags().String("model-file", "", "Model file to generate from")
	cmd.Flags().String("scope", string(constants.ScopeBoth), "Catalog scope for --model-name: local, global, both")
	cmd.Flags().StringP("output", "o", "", "Output file (default stdout)")
	cmd.Flags().IntP("length", "n", 0, "Number of arrivals (default from config)")
	cmd.Flags().String("seed", "", "Random seed, negative values wrap (default from config)")
	cmd.Flags().String("model", "", "Generator: cascade or poisson (default from config)")
	cmd.Flags().String("format", "", "Output format: text or arrow (default from config)")
	cmd.Flags().Int("batch-size", 0, "Poisson refill size (default from config)")
	cmd.Flags().Bool("strict", false, "Require a power-of-two number of increments when fitting --input")
}

// generateOptions merges flags over config.
type generateOptions struct {
	length int
	seed   uint64
	kind   string
	format string
	batch  int
}

func resolveGenerateOptions(cmd *cobra.Command, cfg *config.MinaConfig) (generateOptions, error) {
	opts := generateOptions{
		length: cfg.Generator.Length,
		seed:   cfg.Generator.Seed,
		kind:   cfg.Generator.Model,
		format: cfg.Generator.Format,
		batch:  cfg.Generator.BatchSize,
	}

	if cmd.Flags().Changed("length") {
		opts.length, _ = cmd.Flags().GetInt("length")
	}
	if s, _ := cmd.Flags().GetString("seed"); s != "" {
		seed, err := config.ParseSeed(s)
		if err != nil {
			return opts, err
		}
		opts.seed = seed
	}
	if k, _ := cmd.Flags().GetString("model"); k != "" {
		opts.kind = k
	}
	if f, _ := cmd.Flags().GetString("format"); f != "" {
		opts.format = f
	}
	if cmd.Flags().Changed("batch-size") {
		opts.batch, _ = cmd.Flags().GetInt("batch-size")
	}

	if opts.length < 0 {
		return opts, fmt.Errorf("length must be non-negative, got %d", opts.length)
	}
	return opts, nil
}

// modelSource returns the model source flags, exactly one of which is set.
func modelSource(cmd *cobra.Command) (input, name, file string, err error) {
	input, _ = cmd.Flags().GetString("input")
	name, _ = cmd.Flags().GetString("model-name")
	file, _ = cmd.Flags().GetString("model-file")

	set := 0
	for _, v := range []string{input, name, file} {
		if v != "" {
			set++
		}
	}
	if set != 1 {
		return "", "", "", fmt.Errorf("exactly one of --input, --model-name or --model-file is required")
	}
	return input, name, file, nil
}

// openStream builds the arrival stream for opts. A Poisson stream over
// --input is fitted from the increments alone, so it works for traces no
// cascade can be fitted to.
func (a *app) openStream(cmd *cobra.Command, opts generateOptions) (arrival.Stream, string, error) {
	input, _, _, err := modelSource(cmd)
	if err != nil {
		return nil, "", err
	}

	if opts.kind == arrival.KindPoisson && input != "" {
		ts, err := readTrace(input, cmd.InOrStdin())
		if err != nil {
			return nil, "", err
		}
		incs, err := trace.Increments(ts)
		if err != nil {
			return nil, "", err
		}
		rate, err := arrival.FitPoisson(incs)
		if err != nil {
			return nil, "", err
		}
		a.logger.Debug("fitted poisson", "increments", len(incs), "rate", rate)
		stream, err := arrival.NewPoisson(rate, opts.batch, random.New(opts.seed))
		if err != nil {
			return nil, "", err
		}
		return stream, input, nil
	}

	m, label, err := a.loadModel(cmd)
	if err != nil {
		return nil, "", err
	}
	stream, err := arrival.Open(m, arrival.Options{Kind: opts.kind, Seed: opts.seed, Batch: opts.batch})
	return stream, label, err
}

// loadModel resolves the model source flags. It returns the model and a
// label for logs.
func (a *app) loadModel(cmd *cobra.Command) (*cascade.Model, string, error) {
	input, name, file, err := modelSource(cmd)
	if err != nil {
		return nil, "", err
	}

	switch {
	case input != "":
		ts, err := readTrace(input, cmd.InOrStdin())
		if err != nil {
			return nil, "", err
		}
		strict, _ := cmd.Flags().GetBool("strict")
		m, err := a.fit(ts, strict)
		return m, input, err

	case name != "":
		scope, _ := cmd.Flags().GetString("scope")
		catalog, err := a.openCatalog(constants.Scope(scope))
		if err != nil {
			return nil, "", err
		}
		defer catalog.Close()
		e, err := catalog.Load(cmd.Context(), name)
		if err != nil {
			return nil, "", err
		}
		a.logger.Debug("loaded model", "name", name, "scope", e.Scope, "levels", e.Levels)
		return e.Model, name, nil

	default:
		mf, err := modelfile.Read(file)
		if err != nil {
			return nil, "", fmt.Errorf("failed to read model file: %w", err)
		}
		return mf.Model, file, nil
	}
}

func runGenerate(cmd *cobra.Command, args []string) error {
	if cmd.Parent() == nil && cmd.Flags().NFlag() == 0 {
		return cmd.Help()
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	opts, err := resolveGenerateOptions(cmd, a.cfg)
	if err != nil {
		return err
	}

	stream, label, err := a.openStream(cmd, opts)
	if err != nil {
		return err
	}

	var w io.Writer = cmd.OutOrStdout()
	if path, _ := cmd.Flags().GetString("output"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create output: %w", err)
		}
		defer f.Close()
		w = f
	}

	sink, err := trace.NewSink(opts.format, w)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	start := time.Now()
	takeErr := arrival.Take(ctx, stream, opts.length, sink.Write)
	if err := sink.Close(); err != nil && takeErr == nil {
		takeErr = err
	}
	if takeErr != nil {
		return fmt.Errorf("generation failed: %w", takeErr)
	}

	if f, ok := stream.(*arrival.Fractal); ok {
		a.logger.Log(ctx, logging.LevelTrace, "cascade batches", "batches", f.Batches(), "batch_size", f.Model().BatchSize())
	}
	a.logger.Debug("generated", "model", label, "kind", opts.kind, "count", opts.length,
		"seed", opts.seed, "elapsed", time.Since(start))
	a.events.Log("generate", map[string]any{
		"model":  label,
		"kind":   opts.kind,
		"count":  opts.length,
		"seed":   opts.seed,
		"format": opts.format,
	})
	return nil
}
