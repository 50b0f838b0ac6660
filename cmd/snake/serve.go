package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/snake-arena/internal/arena"
	"github.com/vovakirdan/snake-arena/internal/server"
	"github.com/vovakirdan/snake-arena/internal/storage"
)

var (
	flagServeAddr string
	flagServeDB   string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the arena API server",
	Long: `Run the HTTP API used by every client: accounts, the leaderboard and
the registry of live games.

Auth routes are rate limited per client address. When server.redis.addr
is set the limit is shared through Redis; otherwise it is kept in memory.

Examples:
  snake serve                      # Listen on :8080
  snake serve --addr :9000
  snake serve --db ./arena.db
  SNAKE_JWT_SECRET=... snake serve`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagServeAddr, "addr", "", "Listen address (host:port)")
	serveCmd.Flags().StringVar(&flagServeDB, "db", "", "Path to the SQLite database")
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if flagServeAddr != "" {
		cfg.Server.Addr = flagServeAddr
	}
	if flagServeDB != "" {
		cfg.Server.DBPath = flagServeDB
	}

	logger, err := cfg.Log.NewLogger(os.Stderr, "server")
	if err != nil {
		return err
	}

	store, err := storage.Open(cfg.Server.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ac := arena.DefaultConfig()
	ac.StaleAfter = cfg.Server.StaleAfter
	ac.MaxGamesPerUser = cfg.Server.MaxGamesPerUser

	rl := cfg.Server.RateLimit
	var limiter server.Limiter = server.NewMemoryLimiter(rl.Requests, rl.Window)
	if r := cfg.Server.Redis; r.Addr != "" {
		redisLimiter, err := server.NewRedisLimiter(ctx, r.Addr, r.Password, r.DB, rl.Requests, rl.Window)
		if err != nil {
			logger.Warn("redis unavailable, rate limiting in memory", "err", err)
		} else {
			defer redisLimiter.Close()
			limiter = redisLimiter
			logger.Info("rate limiting through redis", "addr", r.Addr)
		}
	}

	server.Version = version
	srv, err := server.New(cfg.Server, server.Deps{
		Store:   store,
		Arena:   arena.New(ac, logger.WithPrefix("arena")),
		Limiter: limiter,
		Logger:  logger,
	})
	if err != nil {
		return err
	}
	return srv.Run(ctx)
}
