package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"ragdocs/internal/mcpserver"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server exposing the search_docs,
get_document and list_documents tools.

By default the server listens on the configured host and port and serves
streamable HTTP at /mcp and SSE at /sse. Use --stdio to serve a single
session over stdin/stdout instead.

Examples:
  # HTTP on the configured address (default 0.0.0.0:8000)
  ragdocs serve

  # Rebuild the index first, useful with the memory or chromem stores
  ragdocs serve --reindex

  # Stdio mode for desktop assistants
  ragdocs serve --stdio`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().Bool("stdio", false, "serve over stdio instead of HTTP")
	serveCmd.Flags().IntP("port", "p", 0, "HTTP port (overrides config)")
	serveCmd.Flags().String("host", "", "HTTP host (overrides config)")
	serveCmd.Flags().Bool("reindex", false, "rebuild the collection before serving")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	stdio, err := flags.GetBool("stdio")
	if err != nil {
		return fmt.Errorf("getting stdio flag: %w", err)
	}
	port, err := flags.GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}
	host, err := flags.GetString("host")
	if err != nil {
		return fmt.Errorf("getting host flag: %w", err)
	}
	reindex, err := flags.GetBool("reindex")
	if err != nil {
		return fmt.Errorf("getting reindex flag: %w", err)
	}
	if port > 0 {
		appCfg.Server.Port = port
	}
	if host != "" {
		appCfg.Server.Host = host
	}

	st, err := newStack(appCfg)
	if err != nil {
		return err
	}
	if reindex {
		ix, err := st.indexer()
		if err != nil {
			return err
		}
		if _, err := ix.Rebuild(cmd.Context()); err != nil {
			return fmt.Errorf("index failed: %w", err)
		}
	}

	server, err := mcpserver.NewServer(st.retriever(), mcpserver.Options{
		Name:    appCfg.Server.Name,
		Version: version,
		Logger:  logger.With().Str("component", "mcp").Logger(),
	})
	if err != nil {
		return err
	}

	if stdio {
		return server.Run(cmd.Context())
	}
	return server.RunHTTP(cmd.Context(), appCfg.Addr())
}
