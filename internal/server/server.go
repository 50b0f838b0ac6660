// Package server is the arena's HTTP API: accounts and session tokens, the
// leaderboard, and the registry of live games that spectators poll.
package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vovakirdan/snake-arena/internal/arena"
	"github.com/vovakirdan/snake-arena/internal/config"
	"github.com/vovakirdan/snake-arena/internal/storage"
)

// Version is reported by /healthz. The CLI overrides it at startup.
var Version = "dev"

const (
	shutdownTimeout = 10 * time.Second
	purgePeriod     = time.Hour
	historyLimit    = 50
)

// Deps are the collaborators a Server runs on top of.
type Deps struct {
	Store   *storage.Store
	Arena   *arena.Arena
	Limiter Limiter // optional; nil disables rate limiting
	Logger  *log.Logger
}

// Server serves the arena API.
type Server struct {
	cfg    config.ServerConfig
	store  *storage.Store
	arena  *arena.Arena
	limit  Limiter
	logger *log.Logger
	tokens *tokens
	now    func() time.Time
}

// New wires a server. Ended live games are written to the store's history.
func New(cfg config.ServerConfig, deps Deps) (*Server, error) {
	if deps.Store == nil || deps.Arena == nil {
		return nil, errors.New("server: store and arena are required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = log.Default()
	}

	secret := []byte(cfg.JWTSecret)
	if len(secret) == 0 {
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			return nil, fmt.Errorf("server: generate jwt secret: %w", err)
		}
		secret = []byte(hex.EncodeToString(buf))
		logger.Warn("no jwt secret configured; tokens will not survive a restart")
	}
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	s := &Server{
		cfg:    cfg,
		store:  deps.Store,
		arena:  deps.Arena,
		limit:  deps.Limiter,
		logger: logger,
		now:    time.Now,
	}
	s.tokens = &tokens{secret: secret, ttl: ttl, store: deps.Store, now: s.clock}
	deps.Arena.SetResultSaver(arena.ResultSaverFunc(s.saveResult))
	return s, nil
}

func (s *Server) clock() time.Time { return s.now() }

func (s *Server) saveResult(ctx context.Context, r arena.Result) error {
	liveGames.Set(float64(s.arena.Len()))
	return s.store.SaveGame(ctx, storage.GameRecord{
		ID:         r.ID,
		Username:   r.Username,
		Mode:       string(r.Mode),
		GridSize:   r.GridSize,
		Score:      r.Score,
		EndReason:  r.EndReason,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
	})
}

// Handler builds the gin router.
func (s *Server) Handler() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLog(), instrument())

	r.GET("/healthz", s.health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	a := r.Group("/api")
	{
		limited := rateLimit(s.limit, s.logger)
		a.POST("/login", limited, s.login)
		a.POST("/signup", limited, s.signup)
		a.POST("/logout", s.requireAuth(), s.logout)
		a.GET("/user", s.requireAuth(), s.me)

		a.GET("/leaderboard", s.leaderboard)
		a.POST("/leaderboard", s.submitScore)
		a.GET("/history", s.history)

		a.GET("/games", s.listGames)
		a.POST("/games", s.requireAuth(), s.startGame)
		a.GET("/games/:id", s.getGame)
		a.PUT("/games/:id", s.requireAuth(), s.publishGame)
		a.DELETE("/games/:id", s.requireAuth(), s.finishGame)
	}
	return r
}

// Run serves on cfg.Addr until ctx is cancelled, then shuts down gracefully.
// The arena reaper and the session purge run for the server's lifetime.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	s.arena.Start()
	defer s.arena.Stop()

	purgeCtx, stopPurge := context.WithCancel(ctx)
	defer stopPurge()
	go s.purgeLoop(purgeCtx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: listen %s: %w", s.cfg.Addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}

func (s *Server) purgeLoop(ctx context.Context) {
	t := time.NewTicker(purgePeriod)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := s.store.PurgeSessions(ctx, s.now())
			if err != nil {
				s.logger.Warn("session purge failed", "err", err)
				continue
			}
			if n > 0 {
				s.logger.Debug("purged sessions", "count", n)
			}
		}
	}
}

func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"ip", c.ClientIP(),
		)
	}
}

func (s *Server) health(c *gin.Context) {
	if err := s.store.Ping(); err != nil {
		s.logger.Error("health check failed", "err", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
			"error":  "database unavailable",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"version":    Version,
		"live_games": s.arena.Len(),
	})
}
