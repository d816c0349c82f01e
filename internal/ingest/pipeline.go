// Package ingest orchestrates the offline content pipeline: feed listing,
// article acquisition, chunking, embedding and vector upsert.
//
// The pipeline is deliberately tolerant: a failing feed, article, or chunk
// is logged and skipped, never aborting the run. A crash leaves the index
// partially populated; the expected recovery is simply re-running ingestion,
// which re-embeds everything under fresh record IDs (there is no dedup key
// on URL + chunk offset — documented behavior inherited from the source
// system).
package ingest

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/newsquill/newsquill/internal/chunk"
	"github.com/newsquill/newsquill/internal/embed"
	"github.com/newsquill/newsquill/internal/feed"
	"github.com/newsquill/newsquill/internal/index"
	"github.com/newsquill/newsquill/internal/log"
	"github.com/newsquill/newsquill/internal/news"
)

// FeedParser lists entries from a feed URL.
type FeedParser interface {
	Parse(ctx context.Context, feedURL string) ([]feed.Entry, error)
}

// ArticleFetcher fetches one article, reporting absence instead of errors.
type ArticleFetcher interface {
	Fetch(ctx context.Context, pageURL string) (*news.Article, bool)
}

// Config holds chunking parameters for the pipeline.
type Config struct {
	ChunkSize    int
	ChunkOverlap int
}

// Pipeline runs ingestion over a batch of feeds.
type Pipeline struct {
	feeds    FeedParser
	fetcher  ArticleFetcher
	embedder embed.Embedder
	idx      index.Index
	cfg      Config
	logger   log.Logger
}

// New creates a Pipeline. Chunking parameters fall back to the defaults
// when unset; invalid combinations surface on the first article.
func New(feeds FeedParser, fetcher ArticleFetcher, embedder embed.Embedder,
	idx index.Index, cfg Config, logger log.Logger) (*Pipeline, error) {
	if feeds == nil || fetcher == nil || embedder == nil || idx == nil {
		return nil, fmt.Errorf("feeds, fetcher, embedder and index are required")
	}
	if logger == nil {
		logger = log.NewNop()
	}
	if cfg.ChunkSize == 0 {
		cfg.ChunkSize = chunk.DefaultSize
		cfg.ChunkOverlap = chunk.DefaultOverlap
	}
	return &Pipeline{
		feeds:    feeds,
		fetcher:  fetcher,
		embedder: embedder,
		idx:      idx,
		cfg:      cfg,
		logger:   logger,
	}, nil
}

// Run ingests up to maxArticles articles from feedURLs, in feed order.
//
// Returns the number of articles with at least one indexed chunk. The only
// error returned is context cancellation; every per-item failure is logged
// and skipped.
func (p *Pipeline) Run(ctx context.Context, feedURLs []string, maxArticles int) (int, error) {
	articles, err := p.collect(ctx, feedURLs, maxArticles)
	if err != nil {
		return 0, err
	}
	p.logger.Info("acquisition finished", "articles", len(articles))

	indexed := 0
	for _, article := range articles {
		if err := ctx.Err(); err != nil {
			return indexed, err
		}
		if p.indexArticle(ctx, article) {
			indexed++
		}
	}

	p.logger.Info("ingestion finished", "indexed", indexed, "accepted", len(articles))
	return indexed, nil
}

// collect walks the feeds and acquires clean articles until the cap is hit.
func (p *Pipeline) collect(ctx context.Context, feedURLs []string, maxArticles int) ([]*news.Article, error) {
	var articles []*news.Article

	for _, feedURL := range feedURLs {
		if len(articles) >= maxArticles {
			break
		}

		entries, err := p.feeds.Parse(ctx, feedURL)
		if err != nil {
			// One broken feed must not starve the others.
			p.logger.Warn("feed parse failed", "feed", feedURL, "error", err)
			continue
		}
		p.logger.Debug("feed parsed", "feed", feedURL, "entries", len(entries))

		for _, entry := range entries {
			if len(articles) >= maxArticles {
				break
			}
			if err := ctx.Err(); err != nil {
				return articles, err
			}

			article, ok := p.fetcher.Fetch(ctx, entry.Link)
			if !ok {
				continue
			}
			articles = append(articles, article)
			p.logger.Info("parsed article", "title", article.Title)
		}
	}

	return articles, nil
}

// indexArticle chunks, embeds and upserts one article. Chunk-level failures
// are logged and skipped; reports whether at least one chunk was indexed.
func (p *Pipeline) indexArticle(ctx context.Context, article *news.Article) bool {
	chunks, err := chunk.Split(article.Content, p.cfg.ChunkSize, p.cfg.ChunkOverlap)
	if err != nil {
		// Invalid parameters are a configuration error; nothing later in
		// the batch can succeed either, but the contract is to keep going.
		p.logger.Error("chunking failed", "url", article.URL, "error", err)
		return false
	}

	indexed := 0
	for i, text := range chunks {
		vector, err := p.embedder.Embed(ctx, text)
		if err != nil {
			p.logger.Warn("embedding failed", "url", article.URL, "chunk", i, "error", err)
			continue
		}

		record := index.Record{
			ID:     uuid.New(),
			Vector: vector,
			Payload: index.Payload{
				Title:   article.Title,
				URL:     article.URL,
				Content: text,
			},
		}
		if err := p.idx.Upsert(ctx, []index.Record{record}); err != nil {
			p.logger.Warn("upsert failed", "url", article.URL, "chunk", i, "error", err)
			continue
		}
		indexed++
	}

	p.logger.Debug("article indexed", "url", article.URL, "chunks", indexed, "total", len(chunks))
	return indexed > 0
}
