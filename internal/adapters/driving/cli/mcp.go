package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/labtriage/internal/adapters/driving/mcp"
	"github.com/custodia-labs/labtriage/internal/logger"
	"github.com/custodia-labs/labtriage/internal/ratelimit"
	"github.com/custodia-labs/labtriage/internal/refdata"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server so an assistant can analyse
lab reports and look up markers.

By default, the server communicates over stdio using JSON-RPC.
Use --port to serve streamable HTTP instead.

Examples:
  labtriage mcp serve
  labtriage mcp serve --port 8090

Client configuration:
  {
    "mcpServers": {
      "labtriage": {
        "command": "/path/to/labtriage",
        "args": ["mcp", "serve"]
      }
    }
  }`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}
	s, err := requireServices()
	if err != nil {
		return err
	}

	app := appSettings()
	ports := &mcp.Ports{
		Analysis:  s.Analysis,
		Reference: s.Reference,
		Limiter: ratelimit.New(ratelimit.Config{
			RequestsPerSecond: app.MCP.RateLimit,
			BurstSize:         app.MCP.Burst,
		}),
	}

	server, err := mcp.NewServer(ports)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	if err := startWatcher(ctx, s); err != nil {
		return err
	}

	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(ctx, addr)
	}

	return server.Run(ctx)
}

// startWatcher reloads reference data while ctx lives, when the
// configuration asks for it.
func startWatcher(ctx context.Context, s *Services) error {
	if s.Refs == nil || s.RefDir == "" || s.App == nil || !s.App.RefData.Watch {
		return nil
	}
	w, err := refdata.NewWatcher(s.Refs, s.RefDir, refdata.DefaultDebounce)
	if err != nil {
		return err
	}
	go func() {
		if err := w.Run(ctx); err != nil {
			logger.Warn("refdata watcher stopped: %v", err)
		}
	}()
	logger.Debug("watching %s for reference changes", s.RefDir)
	return nil
}
