// Package mcp provides an MCP (Model Context Protocol) server that lets
// agents fit cascade models and generate arrival traces.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/nvandessel/mina/internal/config"
	"github.com/nvandessel/mina/internal/logging"
	"github.com/nvandessel/mina/internal/pathutil"
	"github.com/nvandessel/mina/internal/ratelimit"
	"github.com/nvandessel/mina/internal/store"
)

// Server wraps the MCP SDK server and the model catalogs it serves.
type Server struct {
	server       *sdk.Server
	local        store.ModelStore
	global       store.ModelStore
	root         string
	allowedDirs  []string
	defaults     *config.MinaConfig
	toolLimiters ratelimit.ToolLimiters
	logger       *slog.Logger
	events       *logging.EventLog
}

// Config holds server configuration.
type Config struct {
	Name    string // Server name (e.g., "mina")
	Version string // Server version
	Root    string // Project root directory

	// Catalogs. When nil, SQLite catalogs are opened under Root/.mina and
	// GlobalDir.
	Local  store.ModelStore
	Global store.ModelStore

	// GlobalDir is the global catalog directory; defaults to ~/.mina.
	GlobalDir string

	// Defaults supplies seed, kind and fit settings; defaults to config.Default().
	Defaults *config.MinaConfig

	Logger *slog.Logger
	Events *logging.EventLog
}

// NewServer creates a new MCP server with mina tools.
func NewServer(cfg *Config) (*Server, error) {
	s := &Server{
		root:         cfg.Root,
		local:        cfg.Local,
		global:       cfg.Global,
		defaults:     cfg.Defaults,
		toolLimiters: ratelimit.NewToolLimiters(),
		logger:       cfg.Logger,
		events:       cfg.Events,
	}
	if s.defaults == nil {
		s.defaults = config.Default()
	}
	if s.logger == nil {
		s.logger = logging.Discard()
	}

	dirs, err := pathutil.TraceDirs(cfg.Root)
	if err != nil {
		return nil, err
	}
	s.allowedDirs = dirs

	if err := s.openStores(cfg.GlobalDir); err != nil {
		return nil, err
	}

	s.server = sdk.NewServer(&sdk.Implementation{
		Name:    cfg.Name,
		Version: cfg.Version,
	}, &sdk.ServerOptions{
		InitializedHandler: func(ctx context.Context, req *sdk.InitializedRequest) {
			s.logger.Debug("mcp client initialized")
		},
	})

	s.registerTools()
	return s, nil
}

func (s *Server) openStores(globalDir string) error {
	if s.local == nil {
		local, err := store.NewSQLiteModelStore(store.LocalMinaPath(s.root))
		if err != nil {
			return fmt.Errorf("failed to open local catalog: %w", err)
		}
		s.local = local
	}

	if s.global == nil {
		if globalDir == "" {
			dir, err := store.GlobalMinaPath()
			if err != nil {
				s.local.Close()
				return err
			}
			globalDir = dir
		}
		global, err := store.NewSQLiteModelStore(globalDir)
		if err != nil {
			s.local.Close()
			return fmt.Errorf("failed to open global catalog: %w", err)
		}
		s.global = global
	}
	return nil
}

// Run serves over stdio until the client disconnects, the context is
// cancelled, or the process receives an interrupt.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	notifySignals(sigChan)
	go func() {
		select {
		case <-sigChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	return s.RunTransport(ctx, &sdk.StdioTransport{})
}

// RunTransport serves over t and closes the catalogs when done.
func (s *Server) RunTransport(ctx context.Context, t sdk.Transport) error {
	err := s.server.Run(ctx, t)
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	return errors.Join(err, s.Close())
}

// Close closes the catalogs.
func (s *Server) Close() error {
	return errors.Join(s.local.Close(), s.global.Close())
}
