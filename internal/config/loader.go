package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/vovakirdan/snake-arena/internal/games/snake"
)

// FileName is the configuration file looked up in the user and local
// directories.
const FileName = "config.yaml"

// Load reads the configuration, applies environment overrides and validates
// the result.
// Search order: customPath -> ~/.snake-arena/config.yaml -> ./configs/config.yaml -> embedded default
// Values missing from the file keep their defaults. A .env file in the
// working directory is loaded into the environment first.
func Load(customPath string) (Config, error) {
	cfg, err := loadFile(customPath)
	if err != nil {
		return cfg, err
	}

	_ = godotenv.Load()
	if err := ApplyEnv(&cfg, os.Getenv); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func loadFile(customPath string) (Config, error) {
	cfg := Default()

	// Try custom path first
	if customPath != "" {
		data, err := os.ReadFile(customPath)
		if err != nil {
			return cfg, fmt.Errorf("config: failed to read %s: %w", customPath, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config: failed to parse %s: %w", customPath, err)
		}
		return cfg, nil
	}

	// Try user config directory
	if userCfgPath := UserPath(FileName); userCfgPath != "" {
		if data, err := os.ReadFile(userCfgPath); err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Default(), fmt.Errorf("config: failed to parse %s: %w", userCfgPath, err)
			}
			return cfg, nil
		}
	}

	// Try local configs directory
	if data, err := os.ReadFile(filepath.Join("configs", FileName)); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err == nil {
			return cfg, nil
		}
		cfg = Default()
	}

	// Use embedded default YAML
	if err := yaml.Unmarshal(defaultConfigYAML, &cfg); err != nil {
		return Default(), nil // Fallback to hardcoded if embed fails
	}
	return cfg, nil
}

// UserPath returns a path inside ~/.snake-arena, or empty if home is unavailable.
func UserPath(filename string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".snake-arena", filename)
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) (string, error) {
	if path == "" || path[0] != '~' {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: cannot expand home directory: %w", err)
	}
	return filepath.Join(home, path[1:]), nil
}

type envOverride struct {
	keys  []string // First non-empty wins
	apply func(cfg *Config, v string) error
}

var envOverrides = []envOverride{
	{[]string{"SNAKE_SERVER_ADDR"}, setString(func(c *Config) *string { return &c.Server.Addr })},
	{[]string{"SNAKE_DB_PATH"}, setString(func(c *Config) *string { return &c.Server.DBPath })},
	{[]string{"SNAKE_JWT_SECRET", "JWT_SECRET"}, setString(func(c *Config) *string { return &c.Server.JWTSecret })},
	{[]string{"SNAKE_TOKEN_TTL"}, setDuration(func(c *Config) *time.Duration { return &c.Server.TokenTTL })},
	{[]string{"SNAKE_STALE_AFTER"}, setDuration(func(c *Config) *time.Duration { return &c.Server.StaleAfter })},
	{[]string{"SNAKE_AUTH_RATE_LIMIT"}, setInt(func(c *Config) *int { return &c.Server.RateLimit.Requests })},
	{[]string{"SNAKE_AUTH_RATE_WINDOW"}, setDuration(func(c *Config) *time.Duration { return &c.Server.RateLimit.Window })},
	{[]string{"SNAKE_REDIS_ADDR", "REDIS_ADDR"}, setString(func(c *Config) *string { return &c.Server.Redis.Addr })},
	{[]string{"SNAKE_REDIS_PASSWORD"}, setString(func(c *Config) *string { return &c.Server.Redis.Password })},
	{[]string{"SNAKE_REDIS_DB"}, setInt(func(c *Config) *int { return &c.Server.Redis.DB })},
	{[]string{"SNAKE_SERVER_URL"}, setString(func(c *Config) *string { return &c.Client.ServerURL })},
	{[]string{"SNAKE_REQUEST_TIMEOUT"}, setDuration(func(c *Config) *time.Duration { return &c.Client.RequestTimeout })},
	{[]string{"SNAKE_GRID_SIZE"}, setInt(func(c *Config) *int { return &c.Game.GridSize })},
	{[]string{"SNAKE_TICK_PERIOD"}, setDuration(func(c *Config) *time.Duration { return &c.Game.TickPeriod })},
	{[]string{"SNAKE_POLL_INTERVAL"}, setDuration(func(c *Config) *time.Duration { return &c.Game.PollInterval })},
	{[]string{"SNAKE_REVERSAL_GUARD"}, setBool(func(c *Config) *bool { return &c.Game.ReversalGuard })},
	{[]string{"SNAKE_SEED"}, func(c *Config, v string) error {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return err
		}
		c.Game.Seed = n
		return nil
	}},
	{[]string{"SNAKE_MODE"}, func(c *Config, v string) error {
		m, err := snake.ParseMode(v)
		if err != nil {
			return err
		}
		c.Game.DefaultMode = m
		return nil
	}},
	{[]string{"SNAKE_SSH_ADDR"}, setString(func(c *Config) *string { return &c.SSH.Addr })},
	{[]string{"SNAKE_HOST_KEY"}, setString(func(c *Config) *string { return &c.SSH.HostKeyPath })},
	{[]string{"SNAKE_LOG_LEVEL"}, setString(func(c *Config) *string { return &c.Log.Level })},
	{[]string{"SNAKE_LOG_FORMAT"}, setString(func(c *Config) *string { return &c.Log.Format })},
	{[]string{"SNAKE_LOG_FILE"}, setString(func(c *Config) *string { return &c.Log.File })},
}

// ApplyEnv overrides cfg from environment variables read through getenv.
// Malformed values are reported together; valid ones are still applied.
func ApplyEnv(cfg *Config, getenv func(string) string) error {
	var errs []error
	for _, o := range envOverrides {
		for _, key := range o.keys {
			v := getenv(key)
			if v == "" {
				continue
			}
			if err := o.apply(cfg, v); err != nil {
				errs = append(errs, fmt.Errorf("%s=%q: %w", key, v, err))
			}
			break
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: bad environment: %w", err)
	}
	return nil
}

func setString(field func(*Config) *string) func(*Config, string) error {
	return func(c *Config, v string) error {
		*field(c) = v
		return nil
	}
}

func setInt(field func(*Config) *int) func(*Config, string) error {
	return func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		*field(c) = n
		return nil
	}
}

func setBool(field func(*Config) *bool) func(*Config, string) error {
	return func(c *Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		*field(c) = b
		return nil
	}
}

func setDuration(field func(*Config) *time.Duration) func(*Config, string) error {
	return func(c *Config, v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		*field(c) = d
		return nil
	}
}
