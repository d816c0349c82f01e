// Package feed lists article entries from RSS/Atom feeds.
package feed

import (
	"context"
	"fmt"

	"github.com/mmcdole/gofeed"

	"github.com/newsquill/newsquill/internal/log"
)

// Entry is one feed item. Entries without a link are unusable for
// acquisition and are dropped at parse time.
type Entry struct {
	Title string
	Link  string
}

// Parser parses feeds into entries.
type Parser struct {
	fp     *gofeed.Parser
	logger log.Logger
}

// NewParser creates a feed parser.
func NewParser(logger log.Logger) *Parser {
	if logger == nil {
		logger = log.NewNop()
	}
	fp := gofeed.NewParser()
	fp.UserAgent = "Mozilla/5.0"
	return &Parser{fp: fp, logger: logger}
}

// Parse fetches and parses feedURL, returning its entries in feed order.
func (p *Parser) Parse(ctx context.Context, feedURL string) ([]Entry, error) {
	parsed, err := p.fp.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parsing feed %s: %w", feedURL, err)
	}

	entries := make([]Entry, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if item.Link == "" {
			p.logger.Debug("skipping feed item without link", "feed", feedURL, "title", item.Title)
			continue
		}
		entries = append(entries, Entry{Title: item.Title, Link: item.Link})
	}
	return entries, nil
}
