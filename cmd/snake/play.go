package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/snake-arena/internal/api"
	"github.com/vovakirdan/snake-arena/internal/games/snake"
	"github.com/vovakirdan/snake-arena/internal/platform/tui"
)

var (
	flagServer        string
	flagUser          string
	flagMode          string
	flagGrid          int
	flagSeed          int64
	flagReversalGuard bool
	flagLogFile       string
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play snake in this terminal",
	Long: `Start the snake client. Log in or sign up with an arena account, then
pick a mode from the menu.

Modes:
  walls         - Hitting the border ends the game
  pass-through  - Leaving one side enters from the opposite side

Controls:
  Arrows/WASD/HJKL - Steer
  Esc/X            - Abandon the current game
  T                - Leaderboard
  V                - Watch other players
  ?                - Help
  Q/Ctrl+C         - Quit

Examples:
  snake play
  snake play --server http://arena.example.com:8080
  snake play --user alice --mode pass-through
  snake play --grid 20 --seed 42
  snake play --log-file /tmp/snake.log`,
	Args: cobra.NoArgs,
	Run:  runPlay,
}

func init() {
	playCmd.Flags().StringVar(&flagServer, "server", "", "Arena server URL")
	playCmd.Flags().StringVar(&flagUser, "user", "", "Username to pre-fill on the login screen")
	playCmd.Flags().StringVar(&flagMode, "mode", "", "Mode selected in the menu: walls, pass-through")
	playCmd.Flags().IntVar(&flagGrid, "grid", 0, "Grid size in cells")
	playCmd.Flags().Int64Var(&flagSeed, "seed", 0, "Random seed for food placement (0 = random)")
	playCmd.Flags().BoolVar(&flagReversalGuard, "reversal-guard", true, "Ignore turns straight back into the snake")
	playCmd.Flags().StringVar(&flagLogFile, "log-file", "", "Write logs to this file")
}

func runPlay(cmd *cobra.Command, _ []string) {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Fprintln(os.Stderr, "Error: snake play needs an interactive terminal")
		os.Exit(1)
	}

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if flagServer != "" {
		cfg.Client.ServerURL = flagServer
	}
	if flagGrid != 0 {
		cfg.Game.GridSize = flagGrid
	}
	if flagSeed != 0 {
		cfg.Game.Seed = flagSeed
	}
	if cmd.Flags().Changed("reversal-guard") {
		cfg.Game.ReversalGuard = flagReversalGuard
	}
	if flagMode != "" {
		mode, err := snake.ParseMode(flagMode)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		cfg.Game.DefaultMode = mode
	}
	if flagLogFile != "" {
		cfg.Log.File = flagLogFile
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// The board is two columns per cell plus a border.
	if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		needW, needH := cfg.Game.GridSize*2+2, cfg.Game.GridSize+4
		if w < needW || h < needH {
			fmt.Fprintf(os.Stderr, "Warning: terminal is %dx%d, a %d grid needs at least %dx%d\n",
				w, h, cfg.Game.GridSize, needW, needH)
		}
	}

	// The TUI owns stdout, so logs go to a file or nowhere.
	var logOut io.Writer = io.Discard
	if cfg.Log.File != "" {
		f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening log file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		logOut = f
	}
	logger, err := cfg.Log.NewLogger(logOut, "snake")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	client, err := api.NewHTTPClient(cfg.Client.ServerURL, cfg.Client.RequestTimeout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// The login screen reports connection errors too; this only warns early.
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Client.RequestTimeout)
	if _, err := client.Health(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: arena server %s unreachable: %v\n", cfg.Client.ServerURL, err)
		logger.Warn("server health check failed", "err", err)
	}
	cancel()

	logger.Info("starting client", "server", cfg.Client.ServerURL, "grid", cfg.Game.GridSize)
	opts := tui.SessionOptions(client, cfg.Game, logger)
	if err := tui.Run(opts, flagUser, cfg.Game.DefaultMode); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// portOf returns the port part of a listen address, or the address itself.
func portOf(addr string) string {
	if _, port, err := net.SplitHostPort(addr); err == nil {
		return port
	}
	return addr
}
