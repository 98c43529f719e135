package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/LeventeLantos/sms-faas/internal/api"
	"github.com/LeventeLantos/sms-faas/internal/cache"
	"github.com/LeventeLantos/sms-faas/internal/client"
	"github.com/LeventeLantos/sms-faas/internal/config"
	"github.com/LeventeLantos/sms-faas/internal/events"
	"github.com/LeventeLantos/sms-faas/internal/gql"
	"github.com/LeventeLantos/sms-faas/internal/metrics"
	"github.com/LeventeLantos/sms-faas/internal/repo"
	"github.com/LeventeLantos/sms-faas/internal/service"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the GraphQL API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(os.Stderr)
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg)
		},
	}
}

func runServe(ctx context.Context, cfg *config.Config) error {
	store, err := newStore(cfg.Store)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			slog.Warn("store close failed", "error", err)
		}
	}()

	m := metrics.New()

	sender := service.Timed(
		client.NewProviderClient(cfg.Provider.URL, cfg.Provider.APIKey, cfg.Provider.Timeout),
		func(d time.Duration) { m.ProviderDuration.Observe(d.Seconds()) },
	)
	var sent cache.SentCache = cache.Noop{}
	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		sent = cache.NewRedisCache(rdb, cfg.Redis.TTL)
	}

	var pub events.Publisher = events.Noop{}
	if cfg.Kafka.Enabled {
		pub = events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	}
	defer pub.Close()

	svc := service.NewSmsService(store, store, sender, service.Options{
		DefaultSenderID: cfg.Provider.DefaultSenderID,
		PhoneRegion:     cfg.Provider.PhoneRegion,
	}).WithHooks(
		service.CountStatus(m.ObserveLog),
		service.CacheSent(sent),
		service.PublishLogs(pub),
	)

	schema, err := gql.NewSchema(svc)
	if err != nil {
		return fmt.Errorf("build schema: %w", err)
	}

	h := api.NewHandler(schema, cfg.Server.ServiceName, m)
	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      api.Router(h, cfg.Server.CORSAllowOrigin),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	slog.Info("sms api starting",
		"addr", cfg.Server.Address,
		"store", cfg.Store.Driver,
		"redis", cfg.Redis.Enabled,
		"kafka", cfg.Kafka.Enabled,
	)
	return serveUntilSignal(ctx, srv)
}

func newStore(cfg config.StoreConfig) (repo.Store, error) {
	switch cfg.Driver {
	case config.DriverMongo:
		return repo.NewMongoStore(repo.NewMongoConnector(cfg.MongoURI, cfg.MongoDB)), nil
	case config.DriverPostgres:
		return repo.NewPostgresStore(cfg.PostgresURL), nil
	case config.DriverMemory:
		return repo.NewMemoryStore(), nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
}

// serveUntilSignal runs srv until it fails or SIGINT/SIGTERM arrives, then
// drains in-flight requests.
func serveUntilSignal(ctx context.Context, srv *http.Server) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
		slog.Info("shutting down", "addr", srv.Addr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	slog.Info("server stopped")
	return nil
}
