package feed

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rssBody = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>World news</title>
    <link>https://example.com/world</link>
    <item>
      <title>First story</title>
      <link>https://example.com/world/first</link>
    </item>
    <item>
      <title>Linkless story</title>
    </item>
    <item>
      <title>Second story</title>
      <link>https://example.com/world/second</link>
    </item>
  </channel>
</rss>`

func TestParse(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, rssBody)
	}))
	defer ts.Close()

	p := NewParser(nil)
	entries, err := p.Parse(context.Background(), ts.URL)
	require.NoError(t, err)

	// The linkless item is dropped; order is preserved.
	require.Len(t, entries, 2)
	assert.Equal(t, Entry{Title: "First story", Link: "https://example.com/world/first"}, entries[0])
	assert.Equal(t, Entry{Title: "Second story", Link: "https://example.com/world/second"}, entries[1])
}

func TestParseAtom(t *testing.T) {
	const atomBody = `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Business news</title>
  <entry>
    <title>Markets rally</title>
    <link href="https://example.com/business/rally"/>
  </entry>
</feed>`

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/atom+xml")
		fmt.Fprint(w, atomBody)
	}))
	defer ts.Close()

	p := NewParser(nil)
	entries, err := p.Parse(context.Background(), ts.URL)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "https://example.com/business/rally", entries[0].Link)
}

func TestParseHTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	p := NewParser(nil)
	_, err := p.Parse(context.Background(), ts.URL)
	assert.Error(t, err)
}

func TestParseMalformedFeed(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "<html>this is not a feed</html>")
	}))
	defer ts.Close()

	p := NewParser(nil)
	_, err := p.Parse(context.Background(), ts.URL)
	assert.Error(t, err)
}

func TestParseCancelledContext(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, rssBody)
	}))
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewParser(nil)
	_, err := p.Parse(ctx, ts.URL)
	assert.Error(t, err)
}
