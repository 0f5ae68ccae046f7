package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mikeboe/ennchan-rag/pkg/app"
	"github.com/mikeboe/ennchan-rag/pkg/config"
)

var (
	configPath string
	verbose    bool
)

func main() {
	if err := run(); err != nil {
		slog.Error("Command execution failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := &cobra.Command{
		Use:   "ennchan",
		Short: "Search-augmented question answering",
		Long: `ennchan answers questions by searching the web, summarizing what it finds,
indexing it in a vector store and generating an answer from the best matches.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a JSON or YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log pipeline progress")

	rootCmd.AddCommand(newAskCmd(), newShellCmd(), newIngestCmd(), newMCPCmd())

	return rootCmd.ExecuteContext(ctx)
}

// setupLogging installs a text handler on stderr. quiet raises the level to
// errors unless --verbose is set.
func setupLogging(cfg *config.Config, quiet bool) {
	level := parseLevel(cfg.LogLevel)
	switch {
	case verbose:
		level = slog.LevelDebug
	case quiet:
		level = slog.LevelError
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// openRuntime loads and validates the configuration and connects the
// pipeline dependencies.
func openRuntime(ctx context.Context, quiet bool) (*app.Runtime, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	setupLogging(cfg, quiet)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return app.New(ctx, cfg, slog.Default())
}
