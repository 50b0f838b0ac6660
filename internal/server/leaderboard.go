package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/vovakirdan/snake-arena/internal/api"
	"github.com/vovakirdan/snake-arena/internal/games/snake"
)

func (s *Server) leaderboard(c *gin.Context) {
	top, err := s.store.TopScores(c.Request.Context(), s.cfg.LeaderboardSize)
	if err != nil {
		s.internalError(c, "top scores", err)
		return
	}
	out := make([]api.LeaderboardEntry, 0, len(top))
	for _, e := range top {
		out = append(out, api.LeaderboardEntry{Username: e.Username, Score: e.Score, CreatedAt: e.CreatedAt})
	}
	c.JSON(http.StatusOK, out)
}

// submitScore is unauthenticated: sign-up without login leaves the client
// with a username but no token, and those scores are still recorded.
func (s *Server) submitScore(c *gin.Context) {
	var req api.ScoreSubmission
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid request body"})
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Score < 0 {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "username and a non-negative score are required"})
		return
	}

	if _, err := s.store.SaveScore(c.Request.Context(), req.Username, req.Score); err != nil {
		s.internalError(c, "save score", err)
		return
	}
	scoresSubmitted.Inc()
	s.logger.Debug("score submitted", "user", req.Username, "score", req.Score)
	c.JSON(http.StatusOK, api.Ack{Success: true})
}

func (s *Server) history(c *gin.Context) {
	limit := historyLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "limit must be a positive integer"})
			return
		}
		limit = min(n, historyLimit)
	}

	recs, err := s.store.RecentGames(c.Request.Context(), c.Query("user"), limit)
	if err != nil {
		s.internalError(c, "recent games", err)
		return
	}
	out := make([]api.HistoryEntry, 0, len(recs))
	for _, r := range recs {
		out = append(out, api.HistoryEntry{
			ID:         r.ID,
			Username:   r.Username,
			Mode:       snake.Mode(r.Mode),
			Score:      r.Score,
			EndReason:  r.EndReason,
			StartedAt:  r.StartedAt,
			FinishedAt: r.FinishedAt,
		})
	}
	c.JSON(http.StatusOK, out)
}
