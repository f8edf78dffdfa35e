package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/nvandessel/mina/internal/cascade"
	"github.com/nvandessel/mina/internal/config"
	"github.com/nvandessel/mina/internal/constants"
	"github.com/nvandessel/mina/internal/logging"
	"github.com/nvandessel/mina/internal/store"
	"github.com/nvandessel/mina/internal/trace"
	"github.com/spf13/cobra"
)

// app carries what every command needs: effective config, loggers and
// the project root.
type app struct {
	cfg      *config.MinaConfig
	logger   *slog.Logger
	events   *logging.EventLog
	root     string
	storeDir string
	jsonOut  bool
}

// newApp loads config and sets up logging. --log-level overrides the
// configured level.
func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		if err := cfg.Set("logging.level", level); err != nil {
			return nil, err
		}
	}

	storeDir, err := cfg.StoreDir()
	if err != nil {
		return nil, err
	}

	root, _ := cmd.Flags().GetString("root")
	jsonOut, _ := cmd.Flags().GetBool("json")

	return &app{
		cfg:      cfg,
		logger:   logging.NewLogger(cfg.Logging.Level, cmd.ErrOrStderr()),
		events:   logging.NewEventLog(storeDir, cfg.Logging.Level),
		root:     root,
		storeDir: storeDir,
		jsonOut:  jsonOut,
	}, nil
}

func (a *app) Close() {
	a.events.Close()
}

// openCatalog opens the local and global catalogs for scope.
func (a *app) openCatalog(scope constants.Scope) (*store.MultiModelStore, error) {
	return store.NewMultiModelStore(store.LocalMinaPath(a.root), a.storeDir, scope)
}

// readTrace reads timestamps from path, or stdin when path is "-".
func readTrace(path string, stdin io.Reader) ([]float64, error) {
	if path == "-" {
		return trace.ReadTimestamps(stdin)
	}
	return trace.ReadFile(path)
}

// fit extracts increments and fits a cascade, logging each level.
func (a *app) fit(ts []float64, strict bool) (*cascade.Model, error) {
	incs, err := trace.Increments(ts)
	if err != nil {
		return nil, err
	}

	var opts []cascade.FitOption
	if strict || a.cfg.Fit.Strict {
		opts = append(opts, cascade.WithExactLength())
	}
	m, err := cascade.Fit(incs, opts...)
	if err != nil {
		return nil, fmt.Errorf("fit failed: %w", err)
	}

	a.logFit(m)
	return m, nil
}

func (a *app) logFit(m *cascade.Model) {
	a.logger.Debug("fitted cascade", "increments", m.Increments(), "levels", m.Depth(), "root", m.Root())
	for i, l := range m.Levels() {
		if l.Fixed {
			a.logger.Debug("fixed split", "level", i+1, "ratio", l.Mean)
			continue
		}
		a.logger.Debug("level", "level", i+1, "pairs", l.Pairs, "mean", l.Mean,
			"variance", l.Variance, "alpha", l.Alpha, "beta", l.Beta)
	}
	a.events.Log("fit", map[string]any{
		"increments": m.Increments(),
		"levels":     m.Depth(),
		"root":       m.Root(),
	})
}

// signalContext returns a context cancelled on SIGINT/SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigChan := make(chan os.Signal, 1)
	notifySignals(sigChan)
	go func() {
		select {
		case <-sigChan:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

// printLevels writes a table of cascade levels. Fixed levels are highlighted.
func printLevels(w io.Writer, m *cascade.Model) {
	bold := color.New(color.Bold)
	bold.Fprintf(w, "%-6s %6s %10s %12s %10s %10s\n", "LEVEL", "PAIRS", "MEAN", "VARIANCE", "ALPHA", "BETA")
	for i, l := range m.Levels() {
		if l.Fixed {
			fmt.Fprintf(w, "%-6d %6d %10.4f %12s %10s %10s\n", i+1, l.Pairs, l.Mean,
				color.YellowString("fixed"), "-", "-")
			continue
		}
		fmt.Fprintf(w, "%-6d %6d %10.4f %12.6f %10.3f %10.3f\n", i+1, l.Pairs, l.Mean, l.Variance, l.Alpha, l.Beta)
	}
}

// modelSummary is the JSON form of a model used by fit, models show and inspect.
type modelSummary struct {
	Name       string          `json:"name,omitempty"`
	Scope      string          `json:"scope,omitempty"`
	Source     string          `json:"source,omitempty"`
	Increments int             `json:"increments"`
	Root       float64         `json:"root"`
	BatchSize  int             `json:"batch_size"`
	Levels     []cascade.Level `json:"levels"`
}

func summarizeModel(m *cascade.Model) modelSummary {
	return modelSummary{
		Increments: m.Increments(),
		Root:       m.Root(),
		BatchSize:  m.BatchSize(),
		Levels:     m.Levels(),
	}
}
