package server

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vovakirdan/snake-arena/internal/api"
	"github.com/vovakirdan/snake-arena/internal/arena"
	"github.com/vovakirdan/snake-arena/internal/games/snake"
)

func summary(g arena.Game) api.GameSummary {
	return api.GameSummary{ID: g.ID, Username: g.Username, Mode: g.Mode}
}

func snapshot(g arena.Game) api.GameSnapshot {
	return api.GameSnapshot{
		Username:  g.Username,
		Mode:      g.Mode,
		Score:     g.Snapshot.Score,
		Snake:     g.Snapshot.Snake,
		Food:      g.Snapshot.Food,
		GridSize:  g.GridSize,
		Tick:      g.Snapshot.Tick,
		Alive:     g.Snapshot.Alive,
		UpdatedAt: g.UpdatedAt,
	}
}

// arenaError maps arena sentinels onto status codes.
func (s *Server) arenaError(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, arena.ErrNotFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Game not found"})
	case errors.Is(err, arena.ErrForbidden):
		c.JSON(http.StatusForbidden, api.ErrorResponse{Error: "game belongs to another player"})
	case errors.Is(err, arena.ErrInvalidSnapshot):
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "snapshot does not match game"})
	case errors.Is(err, arena.ErrTooManyGames):
		c.JSON(http.StatusTooManyRequests, api.ErrorResponse{Error: "too many live games"})
	default:
		s.internalError(c, op, err)
	}
}

func (s *Server) listGames(c *gin.Context) {
	games := s.arena.List()
	out := make([]api.GameSummary, 0, len(games))
	for _, g := range games {
		out = append(out, summary(g))
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) getGame(c *gin.Context) {
	g, err := s.arena.Get(c.Param("id"))
	if err != nil {
		s.arenaError(c, "get game", err)
		return
	}
	c.JSON(http.StatusOK, snapshot(g))
}

func (s *Server) startGame(c *gin.Context) {
	var req api.StartGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid request body"})
		return
	}
	if _, err := snake.ParseMode(string(req.Mode)); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}
	if req.GridSize < 2 {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "grid_size must be at least 2"})
		return
	}

	user := c.GetString(ctxUsername)
	g, err := s.arena.Register(user, req.Mode, req.GridSize)
	if err != nil {
		s.arenaError(c, "register game", err)
		return
	}
	liveGames.Set(float64(s.arena.Len()))
	s.logger.Info("game started", "id", g.ID, "user", user, "mode", g.Mode)
	c.JSON(http.StatusCreated, api.StartGameResponse{ID: g.ID})
}

func (s *Server) publishGame(c *gin.Context) {
	var snap snake.Snapshot
	if err := c.ShouldBindJSON(&snap); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid request body"})
		return
	}
	if err := s.arena.Publish(c.Param("id"), c.GetString(ctxUsername), snap); err != nil {
		s.arenaError(c, "publish game", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// finishGame closes a live game. Without a body the last published score is
// recorded.
func (s *Server) finishGame(c *gin.Context) {
	id := c.Param("id")
	user := c.GetString(ctxUsername)

	var req api.FinishGameRequest
	switch err := c.ShouldBindJSON(&req); {
	case errors.Is(err, io.EOF):
		if g, err := s.arena.Get(id); err == nil {
			req.Score = g.Snapshot.Score
		}
	case err != nil:
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid request body"})
		return
	}

	r, err := s.arena.Finish(c.Request.Context(), id, user, req.Score)
	if err != nil {
		s.arenaError(c, "finish game", err)
		return
	}
	s.logger.Info("game finished", "id", r.ID, "user", r.Username, "score", r.Score)
	c.Status(http.StatusNoContent)
}
