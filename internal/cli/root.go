// Package cli implements the ragdocs command line.
package cli

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"ragdocs/internal/config"
	"ragdocs/internal/logging"
)

// version is set at build time via -ldflags "-X ragdocs/internal/cli.version=...".
var version = "dev"

var (
	configPath string
	logLevel   string

	appCfg *config.AppConfig
	logger = zerolog.Nop()
)

var rootCmd = &cobra.Command{
	Use:   "ragdocs",
	Short: "Index documentation into a vector store and serve it over MCP",
	Long: `ragdocs crawls a documentation tree published through an nginx JSON
autoindex, splits every document into overlapping chunks, embeds them and
rebuilds a vector collection. The same index is then queried through the
search, get and list commands, an interactive TUI, or an MCP server.

Configuration is read from --config, ./config.yaml or
~/.config/ragdocs/config.yaml, with environment variables taking precedence.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadRuntime,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// loadRuntime loads and validates the configuration and installs the
// logger on stderr. stdout carries command output and the stdio transport.
func loadRuntime(cmd *cobra.Command, _ []string) error {
	var (
		cfg  *config.AppConfig
		path string
		err  error
	)
	if configPath != "" {
		cfg, err = config.Load(configPath)
		path = configPath
	} else {
		cfg, path, err = config.LoadDefault()
	}
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	l, err := logging.Setup(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}
	appCfg, logger = cfg, l
	if path != "" {
		logger.Debug().Str("path", path).Msg("loaded config")
	}
	return nil
}
