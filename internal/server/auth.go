package server

import (
	"errors"
	"net/http"
	"strings"
	"unicode"

	"github.com/gin-gonic/gin"
	"github.com/vovakirdan/snake-arena/internal/api"
	"github.com/vovakirdan/snake-arena/internal/storage"
	"golang.org/x/crypto/bcrypt"
)

const (
	maxUsernameLen = 32
	maxPasswordLen = 72 // bcrypt ignores anything longer

	msgInvalidCredentials = "Invalid credentials"
	msgUserExists         = "User exists"
)

// context keys set by requireAuth
const (
	ctxUsername  = "username"
	ctxSessionID = "session_id"
)

func validateSignup(c api.Credentials) string {
	switch {
	case c.Username == "" || c.Password == "":
		return "username and password are required"
	case len(c.Username) > maxUsernameLen:
		return "username is too long"
	case len(c.Password) > maxPasswordLen:
		return "password is too long"
	}
	for _, r := range c.Username {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' && r != '-' {
			return "username may only contain letters, digits, '_' and '-'"
		}
	}
	return ""
}

func (s *Server) login(c *gin.Context) {
	var req api.Credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid request body"})
		return
	}
	req.Username = strings.TrimSpace(req.Username)

	ctx := c.Request.Context()
	user, err := s.store.UserByName(ctx, req.Username)
	if errors.Is(err, storage.ErrNotFound) {
		authAttempts.WithLabelValues("login", "rejected").Inc()
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: msgInvalidCredentials})
		return
	}
	if err != nil {
		s.internalError(c, "login lookup", err)
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		authAttempts.WithLabelValues("login", "rejected").Inc()
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: msgInvalidCredentials})
		return
	}

	token, err := s.tokens.issue(ctx, user.Username)
	if err != nil {
		s.internalError(c, "issue token", err)
		return
	}
	authAttempts.WithLabelValues("login", "ok").Inc()
	s.logger.Info("login", "user", user.Username)
	c.JSON(http.StatusOK, api.LoginResult{Success: true, Token: token, Username: user.Username})
}

func (s *Server) signup(c *gin.Context) {
	var req api.Credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid request body"})
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if msg := validateSignup(req); msg != "" {
		authAttempts.WithLabelValues("signup", "invalid").Inc()
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: msg})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.internalError(c, "hash password", err)
		return
	}
	_, err = s.store.CreateUser(c.Request.Context(), req.Username, string(hash))
	if errors.Is(err, storage.ErrUserExists) {
		authAttempts.WithLabelValues("signup", "conflict").Inc()
		c.JSON(http.StatusConflict, api.ErrorResponse{Error: msgUserExists})
		return
	}
	if err != nil {
		s.internalError(c, "create user", err)
		return
	}

	authAttempts.WithLabelValues("signup", "ok").Inc()
	s.logger.Info("signup", "user", req.Username)
	c.JSON(http.StatusCreated, api.SignupResult{Success: true})
}

func (s *Server) logout(c *gin.Context) {
	err := s.store.RevokeSession(c.Request.Context(), c.GetString(ctxSessionID))
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		s.internalError(c, "revoke session", err)
		return
	}
	c.JSON(http.StatusOK, api.Ack{Success: true})
}

func (s *Server) me(c *gin.Context) {
	c.JSON(http.StatusOK, api.UserResponse{Username: c.GetString(ctxUsername)})
}

// requireAuth accepts "Authorization: Bearer <token>" or a bare token.
func (s *Server) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader("Authorization"))
		if len(raw) > 7 && strings.EqualFold(raw[:7], "bearer ") {
			raw = strings.TrimSpace(raw[7:])
		}
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, api.ErrorResponse{Error: "missing token"})
			return
		}

		cl, err := s.tokens.parse(c.Request.Context(), raw)
		if errors.Is(err, errInvalidToken) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Invalid token"})
			return
		}
		if err != nil {
			s.internalError(c, "check token", err)
			c.Abort()
			return
		}
		c.Set(ctxUsername, cl.username)
		c.Set(ctxSessionID, cl.id)
		c.Next()
	}
}

func (s *Server) internalError(c *gin.Context, op string, err error) {
	s.logger.Error(op, "err", err)
	c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "internal error"})
}
