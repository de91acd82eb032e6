package server

import (
	"context"
	"fmt"
	rand "math/rand/v2"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
)

// Serve runs one complete game: bind the listener, gather players in the
// lobby until at least two are ready, then hand the table to the game
// driver. It returns when the game finishes or ctx is cancelled.
func Serve(ctx context.Context, cfg Config, logger *log.Logger, clock quartz.Clock, rng *rand.Rand) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	lobby := NewLobby(cfg, logger)
	if err := lobby.Listen(); err != nil {
		return err
	}

	seats, err := lobby.Run(ctx)
	if err != nil {
		return err
	}
	logger.Info("all players ready", "players", len(seats))

	game := NewGame(cfg, logger, clock, rng, seats, lobby.Inbox())
	return game.Run(ctx)
}
