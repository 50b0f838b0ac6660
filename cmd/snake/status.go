package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/snake-arena/internal/api"
)

var (
	flagStatusServer string
	flagStatusToken  string
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check the arena server",
	Long: `Report whether the arena server is up, its version and how many games
are live. With --token, also report who the token belongs to.

Examples:
  snake status
  snake status --server http://arena:8080
  snake status --token "$SNAKE_TOKEN"`,
	Args: cobra.NoArgs,
	Run:  runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&flagStatusServer, "server", "", "Arena server URL")
	statusCmd.Flags().StringVar(&flagStatusToken, "token", "", "Session token to check")
}

func runStatus(_ *cobra.Command, _ []string) {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if flagStatusServer != "" {
		cfg.Client.ServerURL = flagStatusServer
	}

	client, err := api.NewHTTPClient(cfg.Client.ServerURL, cfg.Client.RequestTimeout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Client.RequestTimeout)
	defer cancel()

	if err := printStatus(ctx, os.Stdout, client, cfg.Client.ServerURL, flagStatusToken); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// printStatus reports server health and, when token is set, its owner.
func printStatus(ctx context.Context, w io.Writer, client *api.HTTPClient, url, token string) error {
	h, err := client.Health(ctx)
	if err != nil {
		return fmt.Errorf("server %s is not healthy: %w", url, err)
	}
	fmt.Fprintf(w, "Server:     %s\n", url)
	fmt.Fprintf(w, "Status:     %s\n", h.Status)
	if h.Version != "" {
		fmt.Fprintf(w, "Version:    %s\n", h.Version)
	}
	fmt.Fprintf(w, "Live games: %d\n", h.LiveGames)

	if token == "" {
		return nil
	}
	user, err := client.Me(ctx, token)
	switch {
	case errors.Is(err, api.ErrUnauthorized):
		fmt.Fprintln(w, "Token:      expired or revoked")
	case err != nil:
		return fmt.Errorf("check token: %w", err)
	default:
		fmt.Fprintf(w, "Token:      signed in as %s\n", user)
	}
	return nil
}
