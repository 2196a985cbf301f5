package main

import (
	"context"
	_ "embed"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"tattty/internal/api"
	"tattty/internal/config"
	"tattty/internal/httpclient"
	"tattty/internal/logger"
	"tattty/internal/providers"
	"tattty/internal/sweeper"
)

//go:embed static/index.html
var indexHTML []byte

var version = "dev"

const visitorIdle = 10 * time.Minute

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
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
		UserAgent:  "tattty/" + version,
		Logger:     log,
	})

	gen, err := providers.NewGenerator(ctx, cfg, httpClient, log)
	if err != nil {
		log.Fatal("generator init failed", zap.Error(err))
	}

	limiter := api.NewRateLimiter(cfg.RateLimitPerMinute, cfg.RateLimitBurst)
	previewLimiter := api.NewRateLimiter(cfg.PreviewRateLimitPerMinute, cfg.PreviewRateLimitBurst)

	srv, err := api.New(api.Options{
		Addr:           cfg.Addr,
		Version:        version,
		Debug:          cfg.Debug,
		RequestTimeout: cfg.RequestTimeout,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Generator:      gen,
		Limiter:        limiter,
		PreviewLimiter: previewLimiter,
		IndexPage:      indexHTML,
		Logger:         log,
	})
	if err != nil {
		log.Fatal("server init failed", zap.Error(err))
	}

	sw := sweeper.New(log)
	if err := sw.Every("0 */5 * * * *", "rate-limit-visitors", func() int {
		return limiter.Prune(visitorIdle) + previewLimiter.Prune(visitorIdle)
	}); err != nil {
		log.Fatal("sweeper init failed", zap.Error(err))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Run)
	g.Go(func() error { return sw.Run(gctx) })
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	log.Info("web started",
		zap.String("addr", cfg.Addr),
		zap.String("version", version),
		zap.String("prompt_provider", cfg.PromptProvider))

	if err := g.Wait(); err != nil {
		log.Error("server stopped", zap.Error(err))
		os.Exit(1)
	}
	log.Info("server stopped")
}
