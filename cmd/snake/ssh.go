package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/snake-arena/internal/platform/tui"
)

var (
	flagSSHAddr   string
	flagHostKey   string
	flagSSHServer string
)

var sshCmd = &cobra.Command{
	Use:   "ssh",
	Short: "Serve the game over SSH",
	Long: `Start an SSH server that runs the snake client for every connection.

Each connection gets its own session talking to the arena server, so
players still log in with their arena account. The SSH user name fills
in the login form.

Host key handling:
  - If --host-key is provided, uses that key file
  - Otherwise, auto-generates a key at ~/.snake-arena/host_key

Examples:
  snake ssh                           # Listen on :23234
  snake ssh --addr :2222
  snake ssh --server http://arena:8080

Users can connect with:
  ssh -t localhost -p 23234`,
	RunE: runSSH,
}

func init() {
	sshCmd.Flags().StringVar(&flagSSHAddr, "addr", "", "SSH listen address (host:port)")
	sshCmd.Flags().StringVar(&flagHostKey, "host-key", "", "Path to host key file")
	sshCmd.Flags().StringVar(&flagSSHServer, "server", "", "Arena server URL")
}

func runSSH(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if flagSSHAddr != "" {
		cfg.SSH.Addr = flagSSHAddr
	}
	if flagHostKey != "" {
		cfg.SSH.HostKeyPath = flagHostKey
	}
	if flagSSHServer != "" {
		cfg.Client.ServerURL = flagSSHServer
	}

	logger, err := cfg.Log.NewLogger(os.Stderr, "snake-ssh")
	if err != nil {
		return err
	}

	srv, err := tui.NewSSHServer(tui.SSHServerConfig{
		SSH:    cfg.SSH,
		Client: cfg.Client,
		Game:   cfg.Game,
	}, logger)
	if err != nil {
		return err
	}

	fmt.Printf("Connect with: ssh -t localhost -p %s\n", portOf(srv.Addr()))
	fmt.Println("Press Ctrl+C to stop")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return srv.Run(ctx)
}
