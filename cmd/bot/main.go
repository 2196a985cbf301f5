package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"tattty/internal/bot"
	"tattty/internal/config"
	"tattty/internal/httpclient"
	"tattty/internal/logger"
	"tattty/internal/providers"
	"tattty/internal/session"
	"tattty/internal/sweeper"
	"tattty/internal/telegram"
)

var version = "dev"

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadBot()
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpClient := httpclient.New(httpclient.Options{
		PreferIPv4: cfg.PreferIPv4,
		Timeout:    cfg.HTTPTimeout,
		UserAgent:  "tattty-bot/" + version,
		Logger:     log,
	})

	tg, err := telegram.New(telegram.Options{
		Token:      cfg.TelegramToken,
		HTTPClient: httpClient,
		Logger:     log,
		Debug:      cfg.Debug,
	})
	if err != nil {
		log.Fatal("telegram init failed", zap.Error(err))
	}

	gen, err := providers.NewGenerator(ctx, cfg, httpClient, log)
	if err != nil {
		log.Fatal("generator init failed", zap.Error(err))
	}

	sw := sweeper.New(log)
	sessions, closeSessions, err := newSessionStore(ctx, cfg, sw)
	if err != nil {
		log.Fatal("session store init failed", zap.Error(err))
	}
	defer closeSessions()

	handler, err := bot.New(bot.Options{
		Messenger: tg,
		Generator: gen,
		Sessions:  sessions,
		Logger:    log,
	})
	if err != nil {
		log.Fatal("bot init failed", zap.Error(err))
	}

	go func() { _ = sw.Run(ctx) }()

	log.Info("bot started",
		zap.String("username", tg.Username()),
		zap.String("version", version),
		zap.Int("max_concurrent", cfg.MaxConcurrent))

	updates := tg.Updates(telegram.UpdatesOptions{
		Timeout: 30 * time.Second,
	})
	defer tg.StopUpdates()

	sem := make(chan struct{}, cfg.MaxConcurrent)
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			log.Info("shutting down")
			return
		case update, ok := <-updates:
			if !ok {
				log.Info("updates channel closed")
				return
			}

			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return
			}

			wg.Add(1)
			go func(update telegram.Update) {
				defer wg.Done()
				defer func() { <-sem }()

				reqCtx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout)
				defer cancel()

				if err := handler.HandleUpdate(reqCtx, update); err != nil && !errors.Is(err, context.Canceled) {
					log.Error("handle update failed", zap.Int("update_id", update.UpdateID), zap.Error(err))
				}
			}(update)
		}
	}
}

// newSessionStore uses Redis when REDIS_ADDR is set, otherwise an in-memory
// store pruned by the sweeper.
func newSessionStore(ctx context.Context, cfg config.Config, sw *sweeper.Sweeper) (session.Store, func(), error) {
	opts := session.Options{TTL: cfg.SessionTTL}

	if cfg.RedisAddr == "" {
		store := session.NewMemoryStore(opts)
		if err := sw.Every("0 * * * * *", "sessions", store.Prune); err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, err
	}

	return session.NewRedisStore(client, opts), func() { _ = client.Close() }, nil
}
