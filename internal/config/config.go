// Package config provides YAML-based configuration loading for the arena
// server, the terminal client and the SSH front door, with environment
// overrides.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/vovakirdan/snake-arena/internal/core"
	"github.com/vovakirdan/snake-arena/internal/games/snake"
)

// Config is the whole configuration file.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Client ClientConfig `yaml:"client"`
	Game   GameConfig   `yaml:"game"`
	SSH    SSHConfig    `yaml:"ssh"`
	Log    LogConfig    `yaml:"log"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	DBPath          string        `yaml:"db_path"`
	JWTSecret       string        `yaml:"jwt_secret"`
	TokenTTL        time.Duration `yaml:"token_ttl"`
	LeaderboardSize int           `yaml:"leaderboard_size"`
	StaleAfter      time.Duration `yaml:"stale_after"`      // Live games silent this long are dropped
	MaxGamesPerUser int           `yaml:"max_games_per_user"`
	RateLimit       RateLimit     `yaml:"rate_limit"`
	Redis           RedisConfig   `yaml:"redis"`
}

// RateLimit bounds requests per client address on the auth routes.
type RateLimit struct {
	Requests int           `yaml:"requests"`
	Window   time.Duration `yaml:"window"`
}

// RedisConfig points the rate limiter at a shared Redis. An empty Addr keeps
// the limiter in memory.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// ClientConfig configures how the terminal client reaches the server.
type ClientConfig struct {
	ServerURL      string        `yaml:"server_url"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// GameConfig holds the simulation and polling parameters.
type GameConfig struct {
	GridSize      int           `yaml:"grid_size"`
	TickPeriod    time.Duration `yaml:"tick_period"`
	PollInterval  time.Duration `yaml:"poll_interval"`
	ReversalGuard bool          `yaml:"reversal_guard"` // Ignore 180° turns into the neck
	Seed          int64         `yaml:"seed"`           // 0 = random per game
	DefaultMode   snake.Mode    `yaml:"default_mode"`
}

// SSHConfig configures the SSH front door.
type SSHConfig struct {
	Addr        string        `yaml:"addr"`
	HostKeyPath string        `yaml:"host_key_path"`
	IdleTimeout time.Duration `yaml:"idle_timeout"`
	MaxTimeout  time.Duration `yaml:"max_timeout"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
	File   string `yaml:"file"`   // Used by the terminal client, which owns stdout
}

// Runtime returns the engine configuration.
func (g GameConfig) Runtime() core.RuntimeConfig {
	return core.RuntimeConfig{
		GridSize:   g.GridSize,
		TickPeriod: g.TickPeriod,
		Seed:       g.Seed,
	}
}

// Validate reports every invalid field at once.
func (c Config) Validate() error {
	var errs []error
	if c.Game.GridSize < 2 {
		errs = append(errs, fmt.Errorf("game.grid_size must be at least 2, got %d", c.Game.GridSize))
	}
	if c.Game.TickPeriod <= 0 {
		errs = append(errs, fmt.Errorf("game.tick_period must be positive, got %s", c.Game.TickPeriod))
	}
	if c.Game.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("game.poll_interval must be positive, got %s", c.Game.PollInterval))
	}
	if _, err := snake.ParseMode(string(c.Game.DefaultMode)); err != nil {
		errs = append(errs, fmt.Errorf("game.default_mode: %w", err))
	}
	if c.Server.TokenTTL <= 0 {
		errs = append(errs, fmt.Errorf("server.token_ttl must be positive, got %s", c.Server.TokenTTL))
	}
	if c.Server.RateLimit.Requests < 0 {
		errs = append(errs, errors.New("server.rate_limit.requests must not be negative"))
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: invalid configuration: %w", err)
	}
	return nil
}
