// Package embed maps text to fixed-dimension vectors for similarity search.
//
// The Embedder interface abstracts the embedding provider so the pipeline is
// testable with in-memory fakes and portable across model choices. The same
// Embedder instance (model and dimension) must be used at ingestion time and
// at query time; mixing models yields meaningless similarity scores.
package embed

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"github.com/newsquill/newsquill/internal/log"
)

// ErrEmptyEmbedding indicates the provider returned no vector.
var ErrEmptyEmbedding = errors.New("empty embedding response")

// Embedder converts text into a fixed-dimension vector.
type Embedder interface {
	// Embed returns the vector for text. The returned slice always has
	// exactly Dimension() elements on success.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimension reports the vector dimensionality this embedder produces.
	Dimension() int
}

// Gemini embeds text with the Gemini embedding API.
//
// gemini-embedding-001 outputs 3072 dimensions by default; OutputDimensionality
// truncates to the index's configured size (Matryoshka representation).
type Gemini struct {
	client *genai.Client
	model  string
	dim    int32
	logger log.Logger
}

// NewGemini creates a Gemini embedder for the given model and dimension.
func NewGemini(client *genai.Client, model string, dim int, logger log.Logger) (*Gemini, error) {
	if client == nil {
		return nil, fmt.Errorf("genai client is required")
	}
	if model == "" {
		return nil, fmt.Errorf("embedder model is required")
	}
	if dim <= 0 {
		return nil, fmt.Errorf("dimension must be positive, got %d", dim)
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &Gemini{client: client, model: model, dim: int32(dim), logger: logger}, nil
}

// Embed implements Embedder.
func (g *Gemini) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := g.client.Models.EmbedContent(ctx, g.model,
		genai.Text(text),
		&genai.EmbedContentConfig{OutputDimensionality: genai.Ptr(g.dim)},
	)
	if err != nil {
		return nil, fmt.Errorf("embedding text: %w", err)
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
		return nil, ErrEmptyEmbedding
	}

	vec := resp.Embeddings[0].Values
	if len(vec) != int(g.dim) {
		// The index is created with a fixed size; a mismatch here is a
		// configuration error, not something to paper over.
		return nil, fmt.Errorf("embedder returned %d dimensions, index expects %d", len(vec), g.dim)
	}
	return vec, nil
}

// Dimension implements Embedder.
func (g *Gemini) Dimension() int {
	return int(g.dim)
}
