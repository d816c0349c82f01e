package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"github.com/newsquill/newsquill/internal/config"
	"github.com/newsquill/newsquill/internal/feed"
	"github.com/newsquill/newsquill/internal/ingest"
	"github.com/newsquill/newsquill/internal/news"
)

var (
	ingestFeeds       []string
	ingestMaxArticles int
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Fetch, chunk, embed and index articles from the configured feeds",
	Long: `Ingest walks the configured RSS feeds, fetches and cleans each linked
article, splits it into overlapping word windows, embeds every window and
upserts the vectors into the index.

Re-running ingestion re-embeds everything under fresh record IDs; there is
no deduplication across runs.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runIngest(cmd.Context())
	},
}

func init() {
	ingestCmd.Flags().StringSliceVar(&ingestFeeds, "feeds", nil, "feed URLs (overrides configured feeds)")
	ingestCmd.Flags().IntVar(&ingestMaxArticles, "max-articles", 0, "article cap across all feeds (overrides max_articles)")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(parent context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}

	logger := newLogger()

	// Concurrent ingestion runs would double-index every article, so a
	// file lock keeps the command single-instance per machine.
	lock := flock.New(filepath.Join(os.TempDir(), "newsquill-ingest.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquiring ingest lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("another ingestion run is already in progress")
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn("releasing ingest lock", "error", err)
		}
	}()

	ctx := parent

	client, err := newGeminiClient(ctx, cfg)
	if err != nil {
		return err
	}
	embedder, err := newEmbedder(client, cfg, logger)
	if err != nil {
		return fmt.Errorf("creating embedder: %w", err)
	}
	idx, closeIndex, err := newIndex(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("creating index: %w", err)
	}
	defer closeIndex()

	fetcher, err := news.NewFetcher(news.FetcherConfig{
		Timeout: time.Duration(cfg.FetchTimeoutMS) * time.Millisecond,
		Delay:   time.Duration(cfg.FetchDelayMS) * time.Millisecond,
	}, logger.With("component", "fetcher"))
	if err != nil {
		return fmt.Errorf("creating fetcher: %w", err)
	}

	pipeline, err := ingest.New(
		feed.NewParser(logger.With("component", "feeds")),
		fetcher,
		embedder,
		idx,
		ingest.Config{ChunkSize: cfg.ChunkSize, ChunkOverlap: cfg.ChunkOverlap},
		logger.With("component", "ingest"),
	)
	if err != nil {
		return fmt.Errorf("creating pipeline: %w", err)
	}

	feeds := cfg.Feeds
	if len(ingestFeeds) > 0 {
		feeds = ingestFeeds
	}
	maxArticles := cfg.MaxArticles
	if ingestMaxArticles > 0 {
		maxArticles = ingestMaxArticles
	}

	indexed, err := pipeline.Run(ctx, feeds, maxArticles)
	if err != nil {
		return fmt.Errorf("ingestion aborted after %d articles: %w", indexed, err)
	}

	fmt.Printf("Indexed %d articles from %d feeds\n", indexed, len(feeds))
	return nil
}
