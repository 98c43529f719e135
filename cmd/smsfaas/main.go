package main

import (
	"io"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/LeventeLantos/sms-faas/internal/config"
)

func main() {
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		slog.Error("smsfaas failed", "error", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "smsfaas",
		Short:         "GraphQL API for SMS templates, sending and delivery logs",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd(), newMockProviderCmd())
	return root
}

// loadConfig reads the environment and installs the configured logger.
func loadConfig(w io.Writer) (*config.Config, error) {
	cfg, err := config.LoadAll()
	if err != nil {
		return nil, err
	}
	slog.SetDefault(newLogger(cfg.Server, w))
	return cfg, nil
}

func newLogger(cfg config.ServerConfig, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}

	var h slog.Handler = slog.NewTextHandler(w, opts)
	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(w, opts)
	}
	return slog.New(h).With("service", cfg.ServiceName)
}
