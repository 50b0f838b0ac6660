package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/snake-arena/internal/storage"
)

var (
	flagScoresDB    string
	flagScoresUser  string
	flagScoresLimit int
	flagScoresClear bool
)

var scoresCmd = &cobra.Command{
	Use:   "scores",
	Short: "Show the leaderboard",
	Long: `Display the top scores straight from the server database. Run it on
the machine hosting the arena.

Examples:
  snake scores
  snake scores --limit 25
  snake scores --user alice
  snake scores --db ./arena.db
  snake scores --clear            # Wipe the leaderboard`,
	Args: cobra.NoArgs,
	Run:  runScores,
}

func init() {
	scoresCmd.Flags().StringVar(&flagScoresDB, "db", "", "Path to the SQLite database")
	scoresCmd.Flags().StringVar(&flagScoresUser, "user", "", "Also show this player's best score")
	scoresCmd.Flags().IntVar(&flagScoresLimit, "limit", storage.DefaultTopLimit, "Number of scores to show")
	scoresCmd.Flags().BoolVar(&flagScoresClear, "clear", false, "Delete every leaderboard entry")
}

func runScores(_ *cobra.Command, _ []string) {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	dbPath := cfg.Server.DBPath
	if flagScoresDB != "" {
		dbPath = flagScoresDB
	}

	store, err := storage.Open(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening scores database: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	ctx := context.Background()
	if flagScoresClear {
		if err := clearScores(ctx, os.Stdout, store); err != nil {
			fmt.Fprintf(os.Stderr, "Error clearing scores: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := printScores(ctx, os.Stdout, store, flagScoresLimit, flagScoresUser); err != nil {
		fmt.Fprintf(os.Stderr, "Error retrieving scores: %v\n", err)
		os.Exit(1)
	}
}

func clearScores(ctx context.Context, w io.Writer, store *storage.Store) error {
	if err := store.ClearScores(ctx); err != nil {
		return err
	}
	fmt.Fprintln(w, "Leaderboard cleared.")
	return nil
}

// printScores writes the leaderboard table, plus user's best score when set.
func printScores(ctx context.Context, w io.Writer, store *storage.Store, limit int, user string) error {
	scores, err := store.TopScores(ctx, limit)
	if err != nil {
		return err
	}

	fmt.Fprintln(w, "High Scores - Snake Arena")
	fmt.Fprintln(w)

	if len(scores) == 0 {
		fmt.Fprintln(w, "No scores recorded yet.")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Play 'snake play' to set the first high score!")
		return nil
	}

	fmt.Fprintf(w, "  %-4s  %-16s  %-8s  %s\n", "Rank", "Player", "Score", "Date")
	fmt.Fprintf(w, "  %-4s  %-16s  %-8s  %s\n", "----", "------", "-----", "----")

	for i, entry := range scores {
		dateStr := entry.CreatedAt.Format("2006-01-02 15:04")
		fmt.Fprintf(w, "  %-4d  %-16s  %-8d  %s\n", i+1, entry.Username, entry.Score, dateStr)
	}

	if user != "" {
		best, err := store.HighScore(ctx, user)
		if err != nil {
			return err
		}
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Best for %s: %d\n", user, best)
	}
	return nil
}
