package testutil

import (
	"context"
	"hash/fnv"
	"math"
)

// FakeEmbedder is a deterministic in-process embedder. The same text always
// maps to the same unit vector, and different texts map to different
// vectors with overwhelming probability, which is enough for exercising
// chunk indexing and similarity search without network access.
type FakeEmbedder struct {
	Dim int

	// Err, when set, is returned by every Embed call.
	Err error

	// FailOn, when non-empty, makes Embed fail only for that exact text.
	FailOn string

	Calls int
}

// NewFakeEmbedder creates a fake embedder producing dim-sized vectors.
func NewFakeEmbedder(dim int) *FakeEmbedder {
	return &FakeEmbedder{Dim: dim}
}

// Embed returns a deterministic unit vector derived from text.
func (f *FakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.Calls++
	if f.Err != nil {
		return nil, f.Err
	}
	if f.FailOn != "" && text == f.FailOn {
		return nil, errFailOn{text}
	}

	vec := make([]float32, f.Dim)
	var norm float64
	for i := range vec {
		h := fnv.New64a()
		_, _ = h.Write([]byte(text))
		_, _ = h.Write([]byte{byte(i), byte(i >> 8)})
		// Map the hash into [-1, 1).
		v := float64(int64(h.Sum64())) / math.MaxInt64
		vec[i] = float32(v)
		norm += v * v
	}
	if norm > 0 {
		scale := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= scale
		}
	}
	return vec, nil
}

// Dimension implements embed.Embedder.
func (f *FakeEmbedder) Dimension() int { return f.Dim }

type errFailOn struct{ text string }

func (e errFailOn) Error() string { return "embedding failure injected for: " + e.text }
