package news

import (
	"bytes"
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"github.com/gocolly/colly/v2"

	"github.com/newsquill/newsquill/internal/log"
)

const (
	// userAgent is the client identity presented to article servers.
	userAgent = "Mozilla/5.0"

	// minParagraphChars is the boilerplate/caption heuristic: paragraphs at
	// or below this length are discarded.
	minParagraphChars = 50

	// minContentChars is the quality floor: pages whose joined paragraph
	// text is shorter than this are rejected as stubs.
	minContentChars = 500

	// bodyKey stores the response body in the per-request colly context.
	bodyKey = "body"
)

// FetcherConfig configures article acquisition.
type FetcherConfig struct {
	// Timeout bounds each page fetch. Default 15s.
	Timeout time.Duration

	// Delay is the politeness pause enforced between successive requests
	// to the same source domain.
	Delay time.Duration
}

// Fetcher fetches and cleans articles. One Fetcher is intended per
// ingestion run; it remembers visited URLs and skips duplicates.
type Fetcher struct {
	collector *colly.Collector
	logger    log.Logger
}

// NewFetcher creates a Fetcher.
func NewFetcher(cfg FetcherConfig, logger log.Logger) (*Fetcher, error) {
	if logger == nil {
		logger = log.NewNop()
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}

	c := colly.NewCollector(colly.UserAgent(userAgent))
	c.SetRequestTimeout(timeout)

	if cfg.Delay > 0 {
		if err := c.Limit(&colly.LimitRule{DomainGlob: "*", Delay: cfg.Delay}); err != nil {
			return nil, err
		}
	}

	c.OnResponse(func(r *colly.Response) {
		r.Ctx.Put(bodyKey, string(r.Body))
	})

	return &Fetcher{collector: c, logger: logger}, nil
}

// Fetch retrieves and cleans the article at pageURL.
//
// The boolean is false when the article is unusable for any reason: network
// or HTTP failure, unparseable HTML, missing title, or content below the
// quality floor. Failures are logged, never returned, so callers can treat
// every absent result uniformly.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) (*Article, bool) {
	if err := ctx.Err(); err != nil {
		return nil, false
	}

	reqCtx := colly.NewContext()
	if err := f.collector.Request("GET", pageURL, nil, reqCtx, nil); err != nil {
		var alreadyVisited *colly.AlreadyVisitedError
		if errors.As(err, &alreadyVisited) {
			f.logger.Debug("skipping already visited URL", "url", pageURL)
		} else {
			f.logger.Warn("fetch failed", "url", pageURL, "error", err)
		}
		return nil, false
	}

	body := reqCtx.Get(bodyKey)
	if body == "" {
		f.logger.Warn("empty response body", "url", pageURL)
		return nil, false
	}

	parsed, err := url.Parse(pageURL)
	if err != nil {
		f.logger.Warn("unparseable URL", "url", pageURL, "error", err)
		return nil, false
	}

	article, ok := extract([]byte(body), parsed)
	if !ok {
		f.logger.Debug("article rejected by quality filter", "url", pageURL)
		return nil, false
	}
	article.URL = pageURL
	return article, true
}

// extract pulls title and paragraph text out of an article page.
//
// Primary path: first h1 as title, paragraph nodes scoped to the article
// container. When the page has no article container, readability extraction
// is used as a fallback. Either way the quality floor applies: a title is
// required and the joined content must reach minContentChars.
func extract(html []byte, pageURL *url.URL) (*Article, bool) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, false
	}

	title := strings.TrimSpace(doc.Find("h1").First().Text())
	paragraphs := collectParagraphs(doc.Find("article p"))

	if len(paragraphs) == 0 {
		rdTitle, rdParagraphs := extractReadability(html, pageURL)
		if title == "" {
			title = rdTitle
		}
		paragraphs = rdParagraphs
	}

	content := strings.Join(paragraphs, "\n\n")
	if title == "" || len(content) < minContentChars {
		return nil, false
	}

	return &Article{Title: title, Content: content}, true
}

// collectParagraphs returns the trimmed text of each paragraph node longer
// than the boilerplate threshold.
func collectParagraphs(sel *goquery.Selection) []string {
	var paragraphs []string
	sel.Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if len(text) > minParagraphChars {
			paragraphs = append(paragraphs, text)
		}
	})
	return paragraphs
}

// extractReadability runs readability extraction for pages without a
// semantic article container.
func extractReadability(html []byte, pageURL *url.URL) (string, []string) {
	article, err := readability.FromReader(bytes.NewReader(html), pageURL)
	if err != nil {
		return "", nil
	}

	contentDoc, err := goquery.NewDocumentFromReader(strings.NewReader(article.Content))
	if err != nil {
		return strings.TrimSpace(article.Title), nil
	}
	return strings.TrimSpace(article.Title), collectParagraphs(contentDoc.Find("p"))
}
