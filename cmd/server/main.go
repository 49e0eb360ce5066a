package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"luckyjet/internal/config"
	"luckyjet/internal/engine"
	"luckyjet/internal/metrics"
	"luckyjet/internal/notification"
	"luckyjet/internal/security"
	"luckyjet/internal/server"
	"luckyjet/pkg/crypto"
	logger "luckyjet/pkg/zap"

	_ "go.uber.org/automaxprocs"
)

const metricsSubscriber = "metrics"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.NewZapLogger(&logger.Config{
		Level: cfg.LogLevel,
		App:   "luckyjet",
		Dir:   cfg.LogDir,
		File:  cfg.LogFile,
	})
	defer log.Sync()

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	notifier := notification.NewNotificationManager(log.Named("notify"))
	defer notifier.Close()

	opts := engine.DefaultOptions()
	opts.CrashProbability = cfg.CrashProbability
	opts.StartingBalance = cfg.StartingBalance
	opts.Countdown = cfg.Countdown
	opts.CountdownTick = cfg.CountdownTick
	opts.FlightTick = cfg.FlightTick
	opts.CrashDwell = cfg.CrashDwell
	opts.HistorySize = cfg.HistorySize
	opts.Source = crypto.Source{}
	opts.Notifier = notifier
	opts.Logger = log.Named("engine")

	e, err := engine.New(time.Now(), opts)
	if err != nil {
		return err
	}
	runner := engine.NewRunner(e, log.Named("runner"))

	limiter := security.NewIPRateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst)
	srv := server.NewGameServer(runner, notifier, limiter, cfg.Currency, log.Named("http"))

	feed := notifier.Subscribe(metricsSubscriber)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return runner.Run(ctx)
	})
	g.Go(func() error {
		metrics.Run(ctx, feed)
		return nil
	})
	g.Go(func() error {
		return srv.Run(ctx, cfg.ListenAddr)
	})
	return g.Wait()
}
