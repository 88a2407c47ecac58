// Command codegraph-mcp serves the tool surface as a
// line-delimited JSON-RPC server over stdin/stdout.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/websines/codegraph-mcp/internal/mcptransport"
	"github.com/websines/codegraph-mcp/internal/toolhandler"
)

const (
	serverName    = "codegraph-mcp"
	serverVersion = "0.1.0"
)

var logFile string

var rootCmd = &cobra.Command{
	Use:   "codegraph-mcp",
	Short: "MCP server exposing code graph, session, and learning tools",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server on stdin/stdout",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&logFile, "log-file", "", "log file path (defaults to the user cache dir)")
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	logger, cleanup, err := setupLogging()
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	defer cleanup()
	logger.Info("starting server", "name", serverName, "version", serverVersion)

	handler := &toolhandler.Handler{}
	server := mcptransport.NewServer(handler, logger)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig.String())
		os.Exit(0)
	}()

	if err := server.Run(os.Stdin, os.Stdout); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

func setupLogging() (*slog.Logger, func(), error) {
	path := logFile
	if path == "" {
		cacheDir, err := os.UserCacheDir()
		if err != nil {
			cacheDir = os.TempDir()
		}
		logDir := filepath.Join(cacheDir, "codegraph-mcp")
		if err := os.MkdirAll(logDir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		path = filepath.Join(logDir, "server.log")
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(file, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return logger, func() { file.Close() }, nil
}
