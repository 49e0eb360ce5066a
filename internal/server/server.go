// Package server exposes a running engine over HTTP and WebSocket so a
// presentation layer can drive it.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"luckyjet/internal/engine"
	"luckyjet/internal/notification"
	"luckyjet/internal/security"
)

const (
	shutdownTimeout = 5 * time.Second
	pruneInterval   = time.Minute
)

type GameServer struct {
	router   *gin.Engine
	runner   *engine.Runner
	notifier *notification.NotificationManager
	limiter  *security.IPRateLimiter
	currency string
	log      *zap.Logger
}

func NewGameServer(
	runner *engine.Runner,
	notifier *notification.NotificationManager,
	limiter *security.IPRateLimiter,
	currency string,
	log *zap.Logger,
) *GameServer {
	router := gin.New()

	server := &GameServer{
		router:   router,
		runner:   runner,
		notifier: notifier,
		limiter:  limiter,
		currency: currency,
		log:      log,
	}

	server.setupRoutes()

	return server
}

// Handler returns the router, mainly for tests.
func (s *GameServer) Handler() http.Handler {
	return s.router
}

// Run serves addr until ctx is cancelled, then shuts down gracefully.
func (s *GameServer) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", zap.String("addr", addr))
		errc <- srv.ListenAndServe()
	}()

	prune := time.NewTicker(pruneInterval)
	defer prune.Stop()

	for {
		select {
		case err := <-errc:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case now := <-prune.C:
			if n := s.limiter.Prune(now); n > 0 {
				s.log.Debug("pruned idle rate limiters", zap.Int("count", n))
			}
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			s.log.Info("http server shutting down")
			return srv.Shutdown(shutdownCtx)
		}
	}
}

func (s *GameServer) setupRoutes() {
	s.router.Use(gin.Recovery(), s.requestLogger())

	s.router.GET("/health", s.Health)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	s.router.GET("/ws", s.handleWebSocket)

	api := s.router.Group("/api")
	api.Use(s.securityMiddleware())
	{
		api.GET("/game/current", s.GetCurrentGame)
		api.GET("/game/history", s.GetGameHistory)
		api.POST("/bet", s.PlaceBet)
		api.POST("/cashout", s.Cashout)
		api.POST("/stake", s.AdjustStake)
	}
}
