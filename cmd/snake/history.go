package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/snake-arena/internal/api"
)

var (
	flagHistoryServer string
	flagHistoryUser   string
	flagHistoryLimit  int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recently finished live games",
	Long: `List live games that ended recently, newest first. Games that stopped
publishing are shown with the reason "stale".

Examples:
  snake history
  snake history --user bob
  snake history --limit 5 --server http://arena:8080`,
	Args: cobra.NoArgs,
	Run:  runHistory,
}

func init() {
	historyCmd.Flags().StringVar(&flagHistoryServer, "server", "", "Arena server URL")
	historyCmd.Flags().StringVar(&flagHistoryUser, "user", "", "Only show this player's games")
	historyCmd.Flags().IntVar(&flagHistoryLimit, "limit", 20, "Number of games to show")
}

func runHistory(_ *cobra.Command, _ []string) {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if flagHistoryServer != "" {
		cfg.Client.ServerURL = flagHistoryServer
	}

	client, err := api.NewHTTPClient(cfg.Client.ServerURL, cfg.Client.RequestTimeout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Client.RequestTimeout)
	defer cancel()

	games, err := client.History(ctx, flagHistoryUser, flagHistoryLimit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error retrieving history: %v\n", err)
		os.Exit(1)
	}

	if len(games) == 0 {
		fmt.Println("No finished games yet.")
		return
	}

	fmt.Printf("  %-16s  %-13s  %-6s  %-9s  %s\n", "Player", "Mode", "Score", "Ended", "Finished")
	fmt.Printf("  %-16s  %-13s  %-6s  %-9s  %s\n", "------", "----", "-----", "-----", "--------")
	for _, g := range games {
		fmt.Printf("  %-16s  %-13s  %-6d  %-9s  %s\n",
			g.Username, g.Mode, g.Score, g.EndReason, g.FinishedAt.Local().Format("2006-01-02 15:04"))
	}
}
