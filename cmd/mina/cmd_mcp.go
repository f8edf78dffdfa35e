package main

import (
	"fmt"
	"path/filepath"

	"github.com/nvandessel/mina/internal/mcp"
	"github.com/spf13/cobra"
)

func newMCPServerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp-server",
		Short: "Run an MCP server over stdio",
		Long: `Run a Model Context Protocol server on stdin/stdout exposing the tools
mina_fit, mina_generate and mina_models.

Logs go to stderr so they never mix with protocol messages.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			root, err := filepath.Abs(a.root)
			if err != nil {
				return fmt.Errorf("failed to resolve root: %w", err)
			}

			server, err := mcp.NewServer(&mcp.Config{
				Name:      "mina",
				Version:   version,
				Root:      root,
				GlobalDir: a.storeDir,
				Defaults:  a.cfg,
				Logger:    a.logger,
				Events:    a.events,
			})
			if err != nil {
				return fmt.Errorf("failed to start MCP server: %w", err)
			}

			a.logger.Info("mcp server listening on stdio", "root", root)
			return server.Run(cmd.Context())
		},
	}
}
