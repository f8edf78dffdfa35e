package mcp

import (
	"context"
	"fmt"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/nvandessel/mina/internal/arrival"
	"github.com/nvandessel/mina/internal/cascade"
	"github.com/nvandessel/mina/internal/constants"
	"github.com/nvandessel/mina/internal/pathutil"
	"github.com/nvandessel/mina/internal/ratelimit"
	"github.com/nvandessel/mina/internal/store"
	"github.com/nvandessel/mina/internal/trace"
)

// registerTools registers all mina MCP tools with the server.
func (s *Server) registerTools() {
	sdk.AddTool(s.server, &sdk.Tool{
		Name:        ratelimit.ToolFit,
		Description: "Fit a multifractal cascade model to a trace of arrival timestamps and optionally save it in the model catalog",
	}, s.handleFit)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        ratelimit.ToolGenerate,
		Description: "Generate synthetic arrival timestamps from a catalogued model or from timestamps given inline",
	}, s.handleGenerate)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        ratelimit.ToolModels,
		Description: "List, show or delete models in the local and global catalogs",
	}, s.handleModels)
}

// logToolCall records one tool invocation at debug level and in the event log.
func (s *Server) logToolCall(tool string, start time.Time, err error, fields map[string]any) {
	entry := make(map[string]any, len(fields)+3)
	for k, v := range fields {
		entry[k] = v
	}
	entry["tool"] = tool
	entry["duration_ms"] = time.Since(start).Milliseconds()
	if err != nil {
		entry["error"] = err.Error()
		s.logger.Debug("tool call failed", "tool", tool, "error", err)
	} else {
		s.logger.Debug("tool call", "tool", tool, "duration", time.Since(start))
	}
	s.events.Log("tool_call", entry)
}

func (s *Server) catalog(scope constants.Scope) store.ModelStore {
	return store.Combine(s.local, s.global, scope)
}

func parseScope(raw string, def constants.Scope) (constants.Scope, error) {
	if raw == "" {
		return def, nil
	}
	scope := constants.Scope(raw)
	if !scope.Valid() {
		return "", fmt.Errorf("invalid scope %q (valid: local, global, both)", raw)
	}
	return scope, nil
}

// fitTimestamps fits a model to absolute timestamps.
func (s *Server) fitTimestamps(ts []float64, strict bool) (*cascade.Model, error) {
	incs, err := trace.Increments(ts)
	if err != nil {
		return nil, err
	}
	var opts []cascade.FitOption
	if strict || s.defaults.Fit.Strict {
		opts = append(opts, cascade.WithExactLength())
	}
	return cascade.Fit(incs, opts...)
}

func (s *Server) handleFit(ctx context.Context, req *sdk.CallToolRequest, args FitInput) (_ *sdk.CallToolResult, _ FitOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.logToolCall(ratelimit.ToolFit, start, retErr, map[string]any{
			"timestamps": len(args.Timestamps), "path": pathutil.RedactPath(args.Path), "name": args.Name,
		})
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, ratelimit.ToolFit); err != nil {
		return nil, FitOutput{}, err
	}

	ts := args.Timestamps
	source := ""
	if len(ts) == 0 {
		if args.Path == "" {
			return nil, FitOutput{}, fmt.Errorf("either timestamps or path is required")
		}
		path, err := pathutil.Resolve(s.root, args.Path, s.allowedDirs)
		if err != nil {
			return nil, FitOutput{}, err
		}
		ts, err = trace.ReadFile(path)
		if err != nil {
			return nil, FitOutput{}, err
		}
		source = args.Path
	}

	m, err := s.fitTimestamps(ts, args.Strict)
	if err != nil {
		return nil, FitOutput{}, fmt.Errorf("fit failed: %w", err)
	}

	out := describe(m)
	out.Message = fmt.Sprintf("Fitted %d levels from %d increments", m.Depth(), m.Increments())

	if args.Name != "" {
		scope, err := parseScope(args.Scope, constants.ScopeLocal)
		if err != nil {
			return nil, FitOutput{}, err
		}
		if err := s.catalog(scope).Save(ctx, args.Name, source, m); err != nil {
			return nil, FitOutput{}, fmt.Errorf("failed to save model: %w", err)
		}
		out.Name = args.Name
		out.Scope = string(scope)
		out.Message += fmt.Sprintf("; saved as %s (%s)", args.Name, scope)
	}

	return nil, out, nil
}

func (s *Server) handleGenerate(ctx context.Context, req *sdk.CallToolRequest, args GenerateInput) (_ *sdk.CallToolResult, _ GenerateOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.logToolCall(ratelimit.ToolGenerate, start, retErr, map[string]any{
			"model": args.Model, "kind": args.Kind, "length": args.Length,
		})
	}()

	if args.Length < 1 || args.Length > MaxGenerateLength {
		return nil, GenerateOutput{}, fmt.Errorf("length must be between 1 and %d, got %d", MaxGenerateLength, args.Length)
	}
	if err := ratelimit.CheckCost(s.toolLimiters, ratelimit.ToolGenerate, ratelimit.GenerateCost(args.Length)); err != nil {
		return nil, GenerateOutput{}, err
	}

	var m *cascade.Model
	switch {
	case args.Model != "":
		e, err := s.catalog(constants.ScopeBoth).Load(ctx, args.Model)
		if err != nil {
			return nil, GenerateOutput{}, err
		}
		m = e.Model
	case len(args.Timestamps) > 0:
		fitted, err := s.fitTimestamps(args.Timestamps, false)
		if err != nil {
			return nil, GenerateOutput{}, fmt.Errorf("fit failed: %w", err)
		}
		m = fitted
	default:
		return nil, GenerateOutput{}, fmt.Errorf("either model or timestamps is required")
	}

	kind := args.Kind
	if kind == "" {
		kind = s.defaults.Generator.Model
	}
	seed := s.defaults.Generator.Seed
	if args.Seed != nil {
		seed = *args.Seed
	}

	stream, err := arrival.Open(m, arrival.Options{Kind: kind, Seed: seed, Batch: s.defaults.Generator.BatchSize})
	if err != nil {
		return nil, GenerateOutput{}, err
	}

	out := GenerateOutput{
		Arrivals: make([]float64, 0, args.Length),
		Kind:     kind,
		Seed:     seed,
		Model:    args.Model,
	}
	err = arrival.Take(ctx, stream, args.Length, func(v float64) error {
		out.Arrivals = append(out.Arrivals, v)
		return nil
	})
	if err != nil {
		return nil, GenerateOutput{}, fmt.Errorf("generation failed: %w", err)
	}
	out.Count = len(out.Arrivals)

	return nil, out, nil
}

func (s *Server) handleModels(ctx context.Context, req *sdk.CallToolRequest, args ModelsInput) (_ *sdk.CallToolResult, _ ModelsOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.logToolCall(ratelimit.ToolModels, start, retErr, map[string]any{
			"action": args.Action, "name": args.Name, "scope": args.Scope,
		})
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, ratelimit.ToolModels); err != nil {
		return nil, ModelsOutput{}, err
	}

	scope, err := parseScope(args.Scope, constants.ScopeBoth)
	if err != nil {
		return nil, ModelsOutput{}, err
	}
	catalog := s.catalog(scope)

	switch args.Action {
	case "", "list":
		entries, err := catalog.List(ctx)
		if err != nil {
			return nil, ModelsOutput{}, err
		}
		items := make([]ModelListItem, 0, len(entries))
		for _, e := range entries {
			items = append(items, ModelListItem{
				Name:       e.Name,
				Scope:      string(e.Scope),
				Source:     e.Source,
				Levels:     e.Levels,
				Increments: e.Increments,
				Root:       e.Root,
				UpdatedAt:  e.UpdatedAt,
			})
		}
		return nil, ModelsOutput{
			Models:  items,
			Count:   len(items),
			Message: fmt.Sprintf("%d models in %s catalog", len(items), scope),
		}, nil

	case "show":
		if args.Name == "" {
			return nil, ModelsOutput{}, fmt.Errorf("name is required for show")
		}
		e, err := catalog.Load(ctx, args.Name)
		if err != nil {
			return nil, ModelsOutput{}, err
		}
		detail := describe(e.Model)
		detail.Name = e.Name
		detail.Scope = string(e.Scope)
		detail.Message = fmt.Sprintf("%s: %d levels, batch size %d", e.Name, e.Levels, e.Model.BatchSize())
		return nil, ModelsOutput{Detail: &detail, Count: 1, Message: detail.Message}, nil

	case "delete":
		if args.Name == "" {
			return nil, ModelsOutput{}, fmt.Errorf("name is required for delete")
		}
		if err := catalog.Delete(ctx, args.Name); err != nil {
			return nil, ModelsOutput{}, err
		}
		return nil, ModelsOutput{Deleted: true, Count: 1, Message: "Deleted " + args.Name}, nil

	default:
		return nil, ModelsOutput{}, fmt.Errorf("unknown action %q (valid: list, show, delete)", args.Action)
	}
}

// describe summarizes a fitted model for tool output.
func describe(m *cascade.Model) FitOutput {
	out := FitOutput{
		Increments: m.Increments(),
		Root:       m.Root(),
		BatchSize:  m.BatchSize(),
		Levels:     make([]LevelSummary, 0, m.Depth()),
	}
	for i, l := range m.Levels() {
		out.Levels = append(out.Levels, LevelSummary{
			Level:    i + 1,
			Alpha:    l.Alpha,
			Beta:     l.Beta,
			Mean:     l.Mean,
			Variance: l.Variance,
			Pairs:    l.Pairs,
			Fixed:    l.Fixed,
		})
	}
	return out
}
