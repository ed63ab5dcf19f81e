// typo3-mcp exposes a content repository to AI agents over the Model
// Context Protocol. All agent writes land in an isolated workspace; the
// live dataset is never touched.
//
// Usage:
//
//	typo3-mcp serve      # start the MCP server (stdio transport)
//	typo3-mcp version    # print the build version
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/hauptsacheNet/typo3-mcp-server-sub003/internal/config"
	"github.com/hauptsacheNet/typo3-mcp-server-sub003/internal/logging"
	"github.com/hauptsacheNet/typo3-mcp-server-sub003/internal/metrics"
	mcpserver "github.com/hauptsacheNet/typo3-mcp-server-sub003/internal/server"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var debug bool

var rootCmd = &cobra.Command{
	Use:           "typo3-mcp",
	Short:         "MCP server exposing a content repository with workspace-safe writes",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server on stdio",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the build version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("typo3-mcp %s\n", mcpserver.Version)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.AddCommand(serveCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func serve() error {
	log, err := logging.New(debug)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer log.Sync() //nolint:errcheck

	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}

	ctx := context.Background()
	s, cleanup, err := mcpserver.New(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	defer cleanup()

	if cfg.MetricsAddr != "" {
		go serveMetrics(cfg.MetricsAddr, log)
	}

	// stdio transport: the host owns the process lifecycle and closes
	// stdin to shut us down.
	return server.ServeStdio(s)
}

func serveMetrics(addr string, log *zap.SugaredLogger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	log.Infow("serving metrics", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Warnw("metrics listener stopped", "error", err)
	}
}
