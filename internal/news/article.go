// Package news acquires article content from the web.
//
// The Fetcher turns a feed entry URL into a cleaned Article, filtering out
// stub, paywalled and boilerplate pages. Acquisition failures are expressed
// as an absent result rather than an error so a bad page can never abort a
// batch ingestion run.
package news

// Article is a cleaned article ready for chunking. Articles are immutable
// and discarded after chunking; only their chunks are persisted.
type Article struct {
	Title   string
	Content string
	URL     string
}
