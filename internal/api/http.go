package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/vovakirdan/snake-arena/internal/games/snake"
)

// DefaultTimeout bounds a single request when the caller's context has no deadline.
const DefaultTimeout = 5 * time.Second

// StatusError is a non-2xx reply from the server.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: server returned %d", e.Code)
	}
	return fmt.Sprintf("api: %s (%d)", e.Message, e.Code)
}

// Is maps status codes onto the package sentinels.
func (e *StatusError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Code == http.StatusUnauthorized
	case ErrNotFound:
		return e.Code == http.StatusNotFound
	}
	return false
}

// HTTPClient talks to the arena server over JSON/HTTP.
type HTTPClient struct {
	base *url.URL
	http *http.Client
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient creates a client for the server at baseURL
// (for example "http://localhost:8080").
func NewHTTPClient(baseURL string, timeout time.Duration) (*HTTPClient, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("api: parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("api: base url %q needs a scheme and host", baseURL)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPClient{
		base: u,
		http: &http.Client{Timeout: timeout},
	}, nil
}

func (c *HTTPClient) Login(ctx context.Context, username, password string) (LoginResult, error) {
	var res LoginResult
	err := c.do(ctx, http.MethodPost, "/api/login", "", Credentials{username, password}, &res)
	var se *StatusError
	if errors.As(err, &se) && (se.Code == http.StatusUnauthorized || se.Code == http.StatusBadRequest) {
		return LoginResult{Success: false, Error: se.Message}, nil
	}
	if err != nil {
		return LoginResult{}, err
	}
	return res, nil
}

func (c *HTTPClient) Signup(ctx context.Context, username, password string) (SignupResult, error) {
	var res SignupResult
	err := c.do(ctx, http.MethodPost, "/api/signup", "", Credentials{username, password}, &res)
	var se *StatusError
	if errors.As(err, &se) && (se.Code == http.StatusConflict || se.Code == http.StatusBadRequest) {
		return SignupResult{Success: false, Error: se.Message}, nil
	}
	if err != nil {
		return SignupResult{}, err
	}
	return res, nil
}

func (c *HTTPClient) Logout(ctx context.Context, token string) (Ack, error) {
	var ack Ack
	if err := c.do(ctx, http.MethodPost, "/api/logout", token, nil, &ack); err != nil {
		return Ack{}, err
	}
	return ack, nil
}

// Me returns the user a token belongs to. It fails with ErrUnauthorized for
// expired or revoked tokens.
func (c *HTTPClient) Me(ctx context.Context, token string) (string, error) {
	var res UserResponse
	if err := c.do(ctx, http.MethodGet, "/api/user", token, nil, &res); err != nil {
		return "", err
	}
	return res.Username, nil
}

func (c *HTTPClient) Leaderboard(ctx context.Context) ([]LeaderboardEntry, error) {
	var entries []LeaderboardEntry
	if err := c.do(ctx, http.MethodGet, "/api/leaderboard", "", nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (c *HTTPClient) SubmitScore(ctx context.Context, username string, score int) (Ack, error) {
	var ack Ack
	if err := c.do(ctx, http.MethodPost, "/api/leaderboard", "", ScoreSubmission{username, score}, &ack); err != nil {
		return Ack{}, err
	}
	return ack, nil
}

func (c *HTTPClient) ActiveGames(ctx context.Context) ([]GameSummary, error) {
	var games []GameSummary
	if err := c.do(ctx, http.MethodGet, "/api/games", "", nil, &games); err != nil {
		return nil, err
	}
	return games, nil
}

func (c *HTTPClient) GameState(ctx context.Context, id string) (GameSnapshot, error) {
	var snap GameSnapshot
	if err := c.do(ctx, http.MethodGet, "/api/games/"+url.PathEscape(id), "", nil, &snap); err != nil {
		return GameSnapshot{}, err
	}
	return snap, nil
}

func (c *HTTPClient) StartGame(ctx context.Context, token string, mode snake.Mode, gridSize int) (string, error) {
	var res StartGameResponse
	req := StartGameRequest{Mode: mode, GridSize: gridSize}
	if err := c.do(ctx, http.MethodPost, "/api/games", token, req, &res); err != nil {
		return "", err
	}
	return res.ID, nil
}

func (c *HTTPClient) PublishState(ctx context.Context, token, id string, snap snake.Snapshot) error {
	return c.do(ctx, http.MethodPut, "/api/games/"+url.PathEscape(id), token, snap, nil)
}

func (c *HTTPClient) FinishGame(ctx context.Context, token, id string, score int) error {
	return c.do(ctx, http.MethodDelete, "/api/games/"+url.PathEscape(id), token, FinishGameRequest{Score: score}, nil)
}

// History returns recently finished live games. An empty username lists
// every player.
func (c *HTTPClient) History(ctx context.Context, username string, limit int) ([]HistoryEntry, error) {
	q := url.Values{}
	if username != "" {
		q.Set("user", username)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	path := "/api/history"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var out []HistoryEntry
	if err := c.do(ctx, http.MethodGet, path, "", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Health checks that the server is up.
func (c *HTTPClient) Health(ctx context.Context) (HealthResponse, error) {
	var h HealthResponse
	if err := c.do(ctx, http.MethodGet, "/healthz", "", nil, &h); err != nil {
		return HealthResponse{}, err
	}
	return h, nil
}

// do sends one JSON request and decodes the reply into out (when non-nil).
func (c *HTTPClient) do(ctx context.Context, method, path, token string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("api: encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, body)
	if err != nil {
		return fmt.Errorf("api: build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("api: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var er ErrorResponse
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if json.Unmarshal(raw, &er) != nil || er.Error == "" {
			er.Error = strings.TrimSpace(string(raw))
		}
		return &StatusError{Code: resp.StatusCode, Message: er.Error}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("api: decode %s %s: %w", method, path, err)
	}
	return nil
}
