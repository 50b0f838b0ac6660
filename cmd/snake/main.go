// snake is a terminal snake game with an online arena: a leaderboard, live
// games that others can watch, and an SSH front door.
//
// Usage:
//
//	snake play              - Play in this terminal against an arena server
//	snake serve             - Run the arena HTTP API server
//	snake ssh               - Serve the client over SSH
//	snake scores            - Print the leaderboard from the server database
//	snake history           - Print recently finished live games
//	snake status            - Check the arena server
//	snake version           - Print the version
//
// Global flags:
//
//	--config <path>     - Config file (default: ~/.snake-arena/config.yaml)
//	--log-level <lvl>   - debug, info, warn or error
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/snake-arena/internal/config"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

var (
	// Global flags
	flagConfig   string
	flagLogLevel string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "snake",
	Short: "Snake Arena - play snake in your terminal, watch others play",
	Long: `Snake Arena is a terminal snake game with accounts, a shared leaderboard
and live spectating.

Available commands:
  play     - Play in this terminal
  serve    - Run the arena API server
  ssh      - Serve the game over SSH
  scores   - Show the leaderboard
  history  - Show recently finished live games
  status   - Check the arena server

Examples:
  snake serve
  snake play --server http://localhost:8080
  snake ssh --addr :2222
  snake scores --user alice`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to config file")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(sshCmd)
	rootCmd.AddCommand(scoresCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads the config file and applies global flags on top.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return config.Config{}, err
	}
	if flagLogLevel != "" {
		cfg.Log.Level = flagLogLevel
	}
	return cfg, nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "snake", version)
	},
}
