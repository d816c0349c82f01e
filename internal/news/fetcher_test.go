package news

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// longPara returns a paragraph comfortably above the boilerplate threshold.
func longPara(i int) string {
	return fmt.Sprintf("Paragraph %d carries enough words to clear the caption filter and count as real article prose for the extractor.", i)
}

// articleHTML builds a page with a semantic article container.
func articleHTML(title string, paragraphs ...string) string {
	var b strings.Builder
	b.WriteString("<html><head><title>page</title></head><body>")
	fmt.Fprintf(&b, "<h1>%s</h1><article>", title)
	for _, p := range paragraphs {
		fmt.Fprintf(&b, "<p>%s</p>", p)
	}
	b.WriteString("</article></body></html>")
	return b.String()
}

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestExtract(t *testing.T) {
	paragraphs := make([]string, 6)
	for i := range paragraphs {
		paragraphs[i] = longPara(i)
	}
	html := articleHTML("Big Headline", paragraphs...)

	article, ok := extract([]byte(html), mustURL(t, "https://example.com/a"))
	require.True(t, ok)
	assert.Equal(t, "Big Headline", article.Title)
	assert.Equal(t, strings.Join(paragraphs, "\n\n"), article.Content)
}

func TestExtractDropsShortParagraphs(t *testing.T) {
	paragraphs := make([]string, 6)
	for i := range paragraphs {
		paragraphs[i] = longPara(i)
	}
	withNoise := append([]string{"Photo: Reuters", "Advertisement"}, paragraphs...)
	html := articleHTML("Headline", withNoise...)

	article, ok := extract([]byte(html), mustURL(t, "https://example.com/a"))
	require.True(t, ok)
	assert.NotContains(t, article.Content, "Photo: Reuters")
	assert.NotContains(t, article.Content, "Advertisement")
}

func TestExtractRejectsMissingTitle(t *testing.T) {
	paragraphs := make([]string, 6)
	for i := range paragraphs {
		paragraphs[i] = longPara(i)
	}
	html := "<html><body><article>"
	for _, p := range paragraphs {
		html += "<p>" + p + "</p>"
	}
	html += "</article></body></html>"

	_, ok := extract([]byte(html), mustURL(t, "https://example.com/a"))
	assert.False(t, ok)
}

func TestExtractRejectsThinContent(t *testing.T) {
	html := articleHTML("Headline", longPara(0))

	// One paragraph is far below the content floor.
	if len(longPara(0)) >= minContentChars {
		t.Fatalf("test paragraph unexpectedly long")
	}
	_, ok := extract([]byte(html), mustURL(t, "https://example.com/a"))
	assert.False(t, ok)
}

func TestExtractReadabilityFallback(t *testing.T) {
	// No <article> container: extraction falls back to readability over
	// the whole page.
	var b strings.Builder
	b.WriteString("<html><head><title>Fallback Headline</title></head><body>")
	b.WriteString("<h1>Fallback Headline</h1><div id=\"content\">")
	for i := 0; i < 8; i++ {
		fmt.Fprintf(&b, "<p>%s</p>", longPara(i))
	}
	b.WriteString("</div></body></html>")

	article, ok := extract([]byte(b.String()), mustURL(t, "https://example.com/a"))
	require.True(t, ok)
	assert.Equal(t, "Fallback Headline", article.Title)
	assert.GreaterOrEqual(t, len(article.Content), minContentChars)
}

func TestFetch(t *testing.T) {
	paragraphs := make([]string, 6)
	for i := range paragraphs {
		paragraphs[i] = longPara(i)
	}

	var gotUA string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		fmt.Fprint(w, articleHTML("Served Headline", paragraphs...))
	}))
	defer ts.Close()

	f, err := NewFetcher(FetcherConfig{}, nil)
	require.NoError(t, err)

	article, ok := f.Fetch(context.Background(), ts.URL+"/story")
	require.True(t, ok)
	assert.Equal(t, "Served Headline", article.Title)
	assert.Equal(t, ts.URL+"/story", article.URL)
	assert.Equal(t, "Mozilla/5.0", gotUA)
}

func TestFetchSkipsRevisits(t *testing.T) {
	paragraphs := make([]string, 6)
	for i := range paragraphs {
		paragraphs[i] = longPara(i)
	}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, articleHTML("Headline", paragraphs...))
	}))
	defer ts.Close()

	f, err := NewFetcher(FetcherConfig{}, nil)
	require.NoError(t, err)

	_, ok := f.Fetch(context.Background(), ts.URL+"/story")
	require.True(t, ok)

	_, ok = f.Fetch(context.Background(), ts.URL+"/story")
	assert.False(t, ok, "a URL is fetched at most once per run")
}

func TestFetchHTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer ts.Close()

	f, err := NewFetcher(FetcherConfig{}, nil)
	require.NoError(t, err)

	_, ok := f.Fetch(context.Background(), ts.URL+"/missing")
	assert.False(t, ok)
}

func TestFetchRejectsStubPage(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, articleHTML("Headline", "Too short."))
	}))
	defer ts.Close()

	f, err := NewFetcher(FetcherConfig{}, nil)
	require.NoError(t, err)

	_, ok := f.Fetch(context.Background(), ts.URL+"/stub")
	assert.False(t, ok)
}

func TestFetchCancelledContext(t *testing.T) {
	f, err := NewFetcher(FetcherConfig{}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, ok := f.Fetch(ctx, "https://example.com/a")
	assert.False(t, ok)
}
