// Package retrieve answers similarity queries over the news index.
package retrieve

import (
	"context"
	"fmt"

	"github.com/newsquill/newsquill/internal/embed"
	"github.com/newsquill/newsquill/internal/index"
	"github.com/newsquill/newsquill/internal/log"
)

// DefaultTopK is the number of context chunks retrieved per query.
const DefaultTopK = 5

// Retriever embeds queries and returns the best-matching content chunks.
//
// The embedder must be the same model and dimension used at ingestion time;
// an embedding failure here is fatal for the query since no answer can be
// grounded without a query vector.
type Retriever struct {
	embedder embed.Embedder
	idx      index.Index
	logger   log.Logger
}

// New creates a Retriever.
func New(embedder embed.Embedder, idx index.Index, logger log.Logger) (*Retriever, error) {
	if embedder == nil || idx == nil {
		return nil, fmt.Errorf("embedder and index are required")
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &Retriever{embedder: embedder, idx: idx, logger: logger}, nil
}

// Retrieve returns up to topK chunk contents ranked by descending
// similarity, in the index's native order. Hits without content are
// skipped: payload shape is not enforced by the index, and an empty string
// in the context would only pollute the prompt.
func (r *Retriever) Retrieve(ctx context.Context, query string, topK int) ([]string, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}

	vector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	hits, err := r.idx.Search(ctx, vector, topK)
	if err != nil {
		return nil, fmt.Errorf("searching index: %w", err)
	}

	contents := make([]string, 0, len(hits))
	for _, hit := range hits {
		if hit.Payload.Content == "" {
			r.logger.Debug("skipping hit without content payload", "score", hit.Score)
			continue
		}
		contents = append(contents, hit.Payload.Content)
	}
	return contents, nil
}
