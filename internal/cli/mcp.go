package cli

import (
	"context"
	"os"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/meltforce/liftlog/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the live workout over MCP (stdio)",
	Long: `Serve the live workout as MCP tools on stdin/stdout.

Logs are written to stderr. The workout is flushed to the local snapshot when
the client disconnects.`,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := newApp(ctx, os.Stderr)
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	s := mcp.New(a.host, a.client, Version, a.log)
	a.log.Info("mcp server on stdio", "version", Version)
	return mcpserver.ServeStdio(s)
}
