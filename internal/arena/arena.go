package arena

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/vovakirdan/snake-arena/internal/games/snake"
)

// Arena is the registry of live games. It is safe for concurrent use.
type Arena struct {
	config Config
	logger *log.Logger
	now    func() time.Time
	saver  ResultSaver // Optional, can be nil

	mu    sync.RWMutex
	games map[string]*Game

	done     chan struct{}
	stopOnce sync.Once
}

// New creates an empty arena.
func New(cfg Config, logger *log.Logger) *Arena {
	def := DefaultConfig()
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = def.StaleAfter
	}
	if cfg.ReapPeriod <= 0 {
		cfg.ReapPeriod = def.ReapPeriod
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Arena{
		config: cfg,
		logger: logger,
		now:    time.Now,
		games:  make(map[string]*Game),
		done:   make(chan struct{}),
	}
}

// SetResultSaver sets the optional saver for ended games.
func (a *Arena) SetResultSaver(s ResultSaver) {
	a.saver = s
}

// Start begins reaping stale games in the background.
func (a *Arena) Start() {
	go a.reapLoop()
}

// Stop shuts the reaper down. It is safe to call more than once.
func (a *Arena) Stop() {
	a.stopOnce.Do(func() { close(a.done) })
}

// Register adds a new live game for username and returns it.
func (a *Arena) Register(username string, mode snake.Mode, gridSize int) (Game, error) {
	if _, err := snake.ParseMode(string(mode)); err != nil {
		return Game{}, fmt.Errorf("arena: register: %w", err)
	}
	if gridSize < 1 {
		return Game{}, fmt.Errorf("arena: register: invalid grid size %d", gridSize)
	}

	now := a.now()
	g := &Game{
		ID:        uuid.NewString(),
		Username:  username,
		Mode:      mode,
		GridSize:  gridSize,
		StartedAt: now,
		UpdatedAt: now,
		Snapshot: snake.Snapshot{
			Mode:     mode,
			GridSize: gridSize,
			Alive:    true,
		},
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if limit := a.config.MaxGamesPerUser; limit > 0 && a.countLocked(username) >= limit {
		return Game{}, fmt.Errorf("arena: %s has %d live games: %w", username, limit, ErrTooManyGames)
	}
	a.games[g.ID] = g
	a.logger.Debug("game registered", "id", g.ID, "user", username, "mode", mode)
	return g.clone(), nil
}

func (a *Arena) countLocked(username string) int {
	n := 0
	for _, g := range a.games {
		if g.Username == username {
			n++
		}
	}
	return n
}

// Publish replaces the snapshot of a live game. Only its owner may publish,
// and the snapshot must describe the same mode and grid.
func (a *Arena) Publish(id, username string, snap snake.Snapshot) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	g, ok := a.games[id]
	if !ok {
		return fmt.Errorf("arena: publish %s: %w", id, ErrNotFound)
	}
	if g.Username != username {
		return fmt.Errorf("arena: publish %s: %w", id, ErrForbidden)
	}
	if snap.Mode != g.Mode || snap.GridSize != g.GridSize || len(snap.Snake) == 0 {
		return fmt.Errorf("arena: publish %s: %w", id, ErrInvalidSnapshot)
	}
	if snap.Tick < g.Snapshot.Tick {
		// Out-of-order delivery; keep the newer state.
		return nil
	}

	snap.Snake = slices.Clone(snap.Snake)
	g.Snapshot = snap
	g.UpdatedAt = a.now()
	return nil
}

// Get returns a copy of a live game.
func (a *Arena) Get(id string) (Game, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	g, ok := a.games[id]
	if !ok {
		return Game{}, fmt.Errorf("arena: %s: %w", id, ErrNotFound)
	}
	return g.clone(), nil
}

// List returns all live games, oldest first.
func (a *Arena) List() []Game {
	a.mu.RLock()
	out := make([]Game, 0, len(a.games))
	for _, g := range a.games {
		out = append(out, g.clone())
	}
	a.mu.RUnlock()

	slices.SortFunc(out, func(x, y Game) int {
		if c := x.StartedAt.Compare(y.StartedAt); c != 0 {
			return c
		}
		return cmp.Compare(x.ID, y.ID)
	})
	return out
}

// Len returns the number of live games.
func (a *Arena) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.games)
}

// Finish removes a game at its owner's request and saves the result.
func (a *Arena) Finish(ctx context.Context, id, username string, score int) (Result, error) {
	a.mu.Lock()
	g, ok := a.games[id]
	if !ok {
		a.mu.Unlock()
		return Result{}, fmt.Errorf("arena: finish %s: %w", id, ErrNotFound)
	}
	if g.Username != username {
		a.mu.Unlock()
		return Result{}, fmt.Errorf("arena: finish %s: %w", id, ErrForbidden)
	}
	delete(a.games, id)
	a.mu.Unlock()

	r := a.result(g, score, EndFinished)
	a.save(ctx, r)
	return r, nil
}

// Reap removes games that have not published since StaleAfter before now.
func (a *Arena) Reap(ctx context.Context) []Result {
	cutoff := a.now().Add(-a.config.StaleAfter)

	a.mu.Lock()
	var stale []*Game
	for id, g := range a.games {
		if g.UpdatedAt.Before(cutoff) {
			stale = append(stale, g)
			delete(a.games, id)
		}
	}
	a.mu.Unlock()

	results := make([]Result, 0, len(stale))
	for _, g := range stale {
		r := a.result(g, g.Snapshot.Score, EndStale)
		a.logger.Info("reaped stale game", "id", g.ID, "user", g.Username, "idle", a.now().Sub(g.UpdatedAt).Round(time.Second))
		a.save(ctx, r)
		results = append(results, r)
	}
	return results
}

func (a *Arena) result(g *Game, score int, reason string) Result {
	return Result{
		ID:         g.ID,
		Username:   g.Username,
		Mode:       g.Mode,
		GridSize:   g.GridSize,
		Score:      score,
		EndReason:  reason,
		StartedAt:  g.StartedAt,
		FinishedAt: a.now(),
	}
}

func (a *Arena) save(ctx context.Context, r Result) {
	if a.saver == nil {
		return
	}
	if err := a.saver.SaveResult(ctx, r); err != nil {
		a.logger.Error("failed to save game result", "id", r.ID, "err", err)
	}
}

func (a *Arena) reapLoop() {
	ticker := time.NewTicker(a.config.ReapPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			a.Reap(ctx)
			cancel()
		case <-a.done:
			return
		}
	}
}
