package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Sternrassler/pokedex-client/pkg/auth"
	"github.com/Sternrassler/pokedex-client/pkg/catalog"
	"github.com/Sternrassler/pokedex-client/pkg/client"
	"github.com/Sternrassler/pokedex-client/pkg/config"
	"github.com/Sternrassler/pokedex-client/pkg/logging"
	"github.com/Sternrassler/pokedex-client/pkg/pagination"
	"github.com/Sternrassler/pokedex-client/pkg/pokeapi"
	"github.com/redis/go-redis/v9"
	"golang.org/x/term"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Log lines would interleave with the prompt; only warnings and errors
	// are shown unless a level is configured explicitly.
	level := logging.LevelWarn
	if _, ok := os.LookupEnv(config.EnvPrefix + "_LOG_LEVEL"); ok {
		level = logging.LogLevel(cfg.Log.Level)
	}
	logging.Setup(logging.Config{Level: level, Pretty: true, Output: os.Stderr, Service: "pokedex"})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	var rdb *redis.Client
	if cfg.Redis.Enabled() {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("connect to redis at %s: %w", cfg.Redis.Addr, err)
		}
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

	authenticator, err := auth.NewStaticAuthenticator(cfg.Auth.Email, cfg.Auth.Password, 0)
	if err != nil {
		return err
	}

	cat := catalog.New(pokeapi.NewService(api), pagination.NewBatchFetcher(pagination.Config{
		MaxConcurrency: cfg.API.MaxConcurrency,
		Timeout:        cfg.API.Timeout,
	}))

	sh := newShell(ctx, os.Stdin, os.Stdout, cat, authenticator, cfg.Catalog.PageSize, cfg.Catalog.MovesPerPage)
	if fd := int(os.Stdin.Fd()); term.IsTerminal(fd) {
		sh.readPassword = func() (string, error) {
			b, err := term.ReadPassword(fd)
			fmt.Fprintln(os.Stdout)
			return string(b), err
		}
	}

	return sh.run(ctx)
}
