package tui

import (
	"github.com/charmbracelet/log"

	"github.com/vovakirdan/snake-arena/internal/api"
	"github.com/vovakirdan/snake-arena/internal/config"
	"github.com/vovakirdan/snake-arena/internal/session"
)

// SessionOptions builds machine options from the game section of the config.
func SessionOptions(client api.Client, game config.GameConfig, logger *log.Logger) session.Options {
	return session.Options{
		Client:        client,
		Game:          game.Runtime(),
		PollInterval:  game.PollInterval,
		ReversalGuard: game.ReversalGuard,
		Logger:        logger,
	}
}
