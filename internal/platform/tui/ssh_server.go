package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/bubbletea"
	"github.com/charmbracelet/wish/logging"

	"github.com/vovakirdan/snake-arena/internal/api"
	"github.com/vovakirdan/snake-arena/internal/config"
)

// SSHServerConfig holds configuration for the SSH front door.
type SSHServerConfig struct {
	SSH    config.SSHConfig
	Client config.ClientConfig
	Game   config.GameConfig
}

// SSHServer serves the snake client over SSH. Every connection gets its own
// session machine talking to the arena server over HTTP, exactly like a
// local client would.
type SSHServer struct {
	config SSHServerConfig
	server *ssh.Server
	logger *log.Logger
}

// NewSSHServer creates a new SSH server with the given configuration.
func NewSSHServer(cfg SSHServerConfig, logger *log.Logger) (*SSHServer, error) {
	if logger == nil {
		logger = log.NewWithOptions(os.Stderr, log.Options{
			ReportTimestamp: true,
			Prefix:          "snake-ssh",
		})
	}

	hostKeyPath, err := config.ExpandHome(cfg.SSH.HostKeyPath)
	if err != nil {
		return nil, fmt.Errorf("tui: resolve host key path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(hostKeyPath), 0o700); err != nil {
		return nil, fmt.Errorf("tui: create host key directory: %w", err)
	}

	srv := &SSHServer{config: cfg, logger: logger}

	opts := []ssh.Option{
		wish.WithAddress(cfg.SSH.Addr),
		wish.WithHostKeyPath(hostKeyPath),
		wish.WithMiddleware(
			bubbletea.Middleware(srv.teaHandler),
			logging.StructuredMiddlewareWithLogger(logger, log.DebugLevel),
			srv.sessionLog,
		),
	}
	if cfg.SSH.IdleTimeout > 0 {
		opts = append(opts, wish.WithIdleTimeout(cfg.SSH.IdleTimeout))
	}
	if cfg.SSH.MaxTimeout > 0 {
		opts = append(opts, wish.WithMaxTimeout(cfg.SSH.MaxTimeout))
	}

	server, err := wish.NewServer(opts...)
	if err != nil {
		return nil, fmt.Errorf("tui: create SSH server: %w", err)
	}
	srv.server = server
	return srv, nil
}

// teaHandler creates a client for each SSH session. The SSH user name
// pre-fills the login form; the arena password is still required.
func (s *SSHServer) teaHandler(sess ssh.Session) (tea.Model, []tea.ProgramOption) {
	if _, _, ok := sess.Pty(); !ok {
		wish.Fatalln(sess, "snake needs an interactive terminal: connect with ssh -t")
		return nil, nil
	}

	client, err := api.NewHTTPClient(s.config.Client.ServerURL, s.config.Client.RequestTimeout)
	if err != nil {
		s.logger.Error("cannot build api client", "err", err)
		wish.Fatalln(sess, "server misconfigured")
		return nil, nil
	}

	opts := SessionOptions(client, s.config.Game, s.logger.With("user", sess.User()))
	opts.Parent = sess.Context()
	app := NewApp(opts, sess.User()).WithDefaultMode(s.config.Game.DefaultMode)
	return app, []tea.ProgramOption{tea.WithAltScreen()}
}

// sessionLog logs SSH session events.
func (s *SSHServer) sessionLog(next ssh.Handler) ssh.Handler {
	return func(sess ssh.Session) {
		start := time.Now()
		s.logger.Info("session started", "user", sess.User(), "remote", sess.RemoteAddr().String())
		next(sess)
		s.logger.Info("session ended", "user", sess.User(), "duration", time.Since(start).Round(time.Second))
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *SSHServer) Run(ctx context.Context) error {
	s.logger.Info("starting SSH server", "address", s.config.SSH.Addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("tui: ssh listen %s: %w", s.config.SSH.Addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}

// Addr returns the configured listen address.
func (s *SSHServer) Addr() string {
	return s.config.SSH.Addr
}
