package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/odyssey-erp/odyssey-console/cmd/console/cli"
	"github.com/odyssey-erp/odyssey-console/internal/app"
	"github.com/odyssey-erp/odyssey-console/internal/auth"
	"github.com/odyssey-erp/odyssey-console/internal/console"
	"github.com/odyssey-erp/odyssey-console/internal/observability"
	"github.com/odyssey-erp/odyssey-console/internal/platform/cache"
	"github.com/odyssey-erp/odyssey-console/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-console/internal/session"
)

func main() {
	os.Exit(run())
}

func run() int {
	// A missing .env is fine; the environment may already be populated.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		return 1
	}
	logger := app.NewLogger(cfg)

	store, closeStore, err := tokenStore(ctx, cfg)
	if err != nil {
		logger.Error("open token store", slog.Any("error", err))
		return 1
	}
	defer closeStore()

	sess := session.New(store)
	if err := sess.Restore(ctx); err != nil {
		logger.Warn("restore credential", slog.Any("error", err))
	}
	guard := session.NewGuard(sess,
		session.WithRefreshSkew(cfg.TokenRefreshSkew),
		session.WithGuardLogger(logger),
		session.WithRedirect(func(context.Context) {
			_, _ = fmt.Fprintln(os.Stderr, "Session expired. Sign in again with `console login`.")
		}),
	)
	metrics := observability.NewMetrics()
	client := httpx.NewClient(cfg.APIBaseURL, guard,
		httpx.WithTimeout(cfg.APIRequestTimeout),
		httpx.WithLogger(logger),
		httpx.WithObserver(metrics),
	)
	authService := auth.NewService(client, sess, logger)
	guard.SetRenewer(authService)

	ws := console.NewWorkspace(console.NewStores(client), console.WithLogger(logger))
	commands, err := cli.NewConsoleCLI(authService, guard, ws)
	if err != nil {
		logger.Error("build cli", slog.Any("error", err))
		return 1
	}
	code := commands.Run(ctx, os.Args[1:], cli.Defaults{Email: cfg.Email, Password: cfg.Password}, cli.Streams{})
	if err := metrics.WriteTextfile(cfg.MetricsTextfile); err != nil {
		logger.Warn("write metrics", slog.String("path", cfg.MetricsTextfile), slog.Any("error", err))
	}
	return code
}

func tokenStore(ctx context.Context, cfg *app.Config) (session.TokenStore, func(), error) {
	if cfg.TokenStore != app.TokenStoreRedis {
		return session.NewMemoryStore(), func() {}, nil
	}
	client, err := cache.New(ctx, cache.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
	if err != nil {
		return nil, nil, err
	}
	return session.NewRedisStore(client, cfg.TokenKey), func() { _ = client.Close() }, nil
}
