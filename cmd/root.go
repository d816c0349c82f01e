// Package cmd implements the newsquill command-line interface.
package cmd

import (
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/newsquill/newsquill/internal/log"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "newsquill",
	Short: "newsquill - retrieval-augmented news chatbot",
	Long: `newsquill ingests news articles from RSS feeds into a vector index
and answers questions about them, grounded in the indexed content.

Commands:
  ingest   fetch, chunk, embed and index articles from the configured feeds
  serve    run the HTTP chat API
  ask      ask a one-shot question from the terminal`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	// A missing .env is fine; the environment may be set elsewhere.
	_ = godotenv.Load()
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// newLogger builds the process logger from the persistent flags.
func newLogger() log.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return log.New(log.Config{Level: level})
}
