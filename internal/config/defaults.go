package config

import (
	_ "embed"
	"time"

	"github.com/vovakirdan/snake-arena/internal/games/snake"
)

//go:embed defaults/config.yaml
var defaultConfigYAML []byte

// Default returns the built-in configuration. It matches defaults/config.yaml.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			DBPath:          "~/.snake-arena/arena.db",
			TokenTTL:        24 * time.Hour,
			LeaderboardSize: 10,
			StaleAfter:      30 * time.Second,
			MaxGamesPerUser: 3,
			RateLimit: RateLimit{
				Requests: 10,
				Window:   time.Minute,
			},
		},
		Client: ClientConfig{
			ServerURL:      "http://localhost:8080",
			RequestTimeout: 5 * time.Second,
		},
		Game: GameConfig{
			GridSize:      15,
			TickPeriod:    120 * time.Millisecond,
			PollInterval:  400 * time.Millisecond,
			ReversalGuard: true,
			DefaultMode:   snake.ModeWalls,
		},
		SSH: SSHConfig{
			Addr:        ":23234",
			HostKeyPath: "~/.snake-arena/host_key",
			IdleTimeout: 30 * time.Minute,
			MaxTimeout:  2 * time.Hour,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
