package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"

	"github.com/YakymenkoDarii/RealTimeChatApp/internal/auth"
	"github.com/YakymenkoDarii/RealTimeChatApp/internal/broadcast"
	"github.com/YakymenkoDarii/RealTimeChatApp/internal/chat"
	"github.com/YakymenkoDarii/RealTimeChatApp/internal/config"
	"github.com/YakymenkoDarii/RealTimeChatApp/internal/domain"
	"github.com/YakymenkoDarii/RealTimeChatApp/internal/logging"
	"github.com/YakymenkoDarii/RealTimeChatApp/internal/postgres"
	"github.com/YakymenkoDarii/RealTimeChatApp/internal/presence"
	"github.com/YakymenkoDarii/RealTimeChatApp/internal/redis"
	"github.com/YakymenkoDarii/RealTimeChatApp/internal/sentiment"
	"github.com/YakymenkoDarii/RealTimeChatApp/internal/server"
)

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupDB(cfg *config.Config) *pgxpool.Pool {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	return pool
}

// setupLabelCache connects Redis if configured. The cache is optional; the
// annotator works without it.
func setupLabelCache(cfg *config.Config) (sentiment.LabelCache, func()) {
	if cfg.RedisURL == "" {
		slog.Info("No REDIS_URL configured, sentiment label cache disabled")
		return nil, func() {}
	}

	client, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		slog.Error("Failed to create Redis client", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx); err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}

	return redis.NewLabelCache(client.Underlying()), func() { _ = client.Close() }
}

func runGracefulShutdown(srv *server.Server, fanout *broadcast.Fanout) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		fanout.Close("Server shutting down")

		close(done)
	}()

	return done
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port)

	pool := setupDB(cfg)
	defer pool.Close()

	labelCache, closeCache := setupLabelCache(cfg)
	defer closeCache()

	var sentimentService domain.SentimentService
	if cfg.SentimentEndpoint != "" {
		sentimentService = sentiment.NewHTTPClient(cfg.SentimentEndpoint, cfg.SentimentAPIKey)
	} else {
		slog.Warn("No SENTIMENT_ENDPOINT configured, all messages will be labeled neutral")
	}
	annotator := sentiment.NewAnnotator(sentimentService, labelCache, cfg.SentimentTimeout)

	users := postgres.NewUserRepo(pool)
	messages := postgres.NewMessageRepo(pool)

	registry := presence.NewRegistry()
	fanout := broadcast.NewFanout()
	coordinator := chat.NewCoordinator(registry, fanout, messages, users, annotator, clock)

	tokens := auth.NewTokenService(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.TokenTTL, clock)

	srv := server.NewServer(cfg, coordinator, users, tokens, pool, clock)
	done := runGracefulShutdown(srv, fanout)

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
	slog.Info("Shutdown complete")
}
