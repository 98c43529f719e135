package main

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/LeventeLantos/sms-faas/internal/api"
	"github.com/LeventeLantos/sms-faas/internal/mockprovider"
)

func newMockProviderCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mock-provider",
		Short: "Run a local SMS relay that accepts and echoes every message",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(os.Stderr)
			if err != nil {
				return err
			}

			srv := &http.Server{
				Addr:         cfg.Mock.Address,
				Handler:      api.RequestLogger(mockprovider.Handler()),
				ReadTimeout:  10 * time.Second,
				WriteTimeout: 10 * time.Second,
			}
			slog.Info("mock sms provider starting", "addr", cfg.Mock.Address)
			return serveUntilSignal(cmd.Context(), srv)
		},
	}
}
