package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Sternrassler/pokedex-client/pkg/client"
	"github.com/Sternrassler/pokedex-client/pkg/config"
	"github.com/Sternrassler/pokedex-client/pkg/logging"
	"github.com/lrstanley/chix"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.Setup(logging.Config{
		Level:   logging.LogLevel(cfg.Log.Level),
		Pretty:  cfg.Log.Pretty,
		Output:  os.Stderr,
		Service: "pokedex-server",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("Server failed")
	}
}

func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	var rdb *redis.Client
	if cfg.Redis.Enabled() {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()

		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("connect to redis at %s: %w", cfg.Redis.Addr, err)
		}
		logger.Info().Str("addr", cfg.Redis.Addr).Msg("Connected to Redis, response cache enabled")
	} else {
		logger.Info().Msg("No Redis address configured, response cache disabled")
	}

	api, err := client.New(client.Config{
		BaseURL:   cfg.API.BaseURL,
		UserAgent: cfg.API.UserAgent,
		Redis:     rdb,
		Timeout:   cfg.API.Timeout,
		RateLimit: cfg.API.RateLimit,
		Burst:     cfg.API.Burst,
	})
	if err != nil {
		return fmt.Errorf("create api client: %w", err)
	}
	defer api.Close()

	srv, err := newServer(cfg, api, 0)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:    cfg.HTTP.Addr(),
		Handler: srv.routes(),
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * cfg.API.Timeout,
	}

	logger.Info().
		Str("addr", httpServer.Addr).
		Str("api", cfg.API.BaseURL).
		Str("user_agent", cfg.API.UserAgent).
		Msg("Starting HTTP server")

	return chix.RunContext(ctx, httpServer)
}
