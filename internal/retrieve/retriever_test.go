package retrieve

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newsquill/newsquill/internal/index"
	"github.com/newsquill/newsquill/internal/testutil"
)

func seedIndex(t *testing.T, embedder *testutil.FakeEmbedder, contents ...string) *index.Memory {
	t.Helper()

	idx := index.NewMemory()
	ctx := context.Background()
	require.NoError(t, idx.Ensure(ctx, embedder.Dim))

	for _, content := range contents {
		vec, err := embedder.Embed(ctx, content)
		require.NoError(t, err)
		require.NoError(t, idx.Upsert(ctx, []index.Record{{
			ID:      uuid.New(),
			Vector:  vec,
			Payload: index.Payload{Title: "t", URL: "https://x", Content: content},
		}}))
	}
	return idx
}

func TestRetrieve(t *testing.T) {
	embedder := testutil.NewFakeEmbedder(16)
	idx := seedIndex(t, embedder, "rates rose", "team won", "rain fell")

	r, err := New(embedder, idx, nil)
	require.NoError(t, err)

	// The query embeds identically to a stored chunk, so that chunk must
	// rank first.
	contents, err := r.Retrieve(context.Background(), "team won", 2)
	require.NoError(t, err)
	require.Len(t, contents, 2)
	assert.Equal(t, "team won", contents[0])
}

func TestRetrieveDefaultTopK(t *testing.T) {
	embedder := testutil.NewFakeEmbedder(16)
	idx := seedIndex(t, embedder, "a", "b", "c", "d", "e", "f", "g")

	r, err := New(embedder, idx, nil)
	require.NoError(t, err)

	contents, err := r.Retrieve(context.Background(), "a", 0)
	require.NoError(t, err)
	assert.Len(t, contents, DefaultTopK)
}

func TestRetrieveEmbeddingFailureIsFatal(t *testing.T) {
	embedder := testutil.NewFakeEmbedder(16)
	idx := seedIndex(t, embedder, "a")
	embedder.Err = errors.New("api down")

	r, err := New(embedder, idx, nil)
	require.NoError(t, err)

	_, err = r.Retrieve(context.Background(), "query", 5)
	assert.Error(t, err)
}

func TestRetrieveSkipsEmptyContent(t *testing.T) {
	embedder := testutil.NewFakeEmbedder(16)
	idx := seedIndex(t, embedder, "real chunk")

	ctx := context.Background()
	vec, err := embedder.Embed(ctx, "ghost")
	require.NoError(t, err)
	require.NoError(t, idx.Upsert(ctx, []index.Record{{
		ID:     uuid.New(),
		Vector: vec,
		// Payload without content, as written by a foreign producer.
	}}))

	r, err := New(embedder, idx, nil)
	require.NoError(t, err)

	contents, err := r.Retrieve(ctx, "ghost", 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"real chunk"}, contents)
}

func TestRetrieveEmptyIndex(t *testing.T) {
	embedder := testutil.NewFakeEmbedder(16)
	idx := index.NewMemory()
	require.NoError(t, idx.Ensure(context.Background(), 16))

	r, err := New(embedder, idx, nil)
	require.NoError(t, err)

	contents, err := r.Retrieve(context.Background(), "anything", 5)
	require.NoError(t, err)
	assert.Empty(t, contents)
}

func TestNewValidation(t *testing.T) {
	_, err := New(nil, index.NewMemory(), nil)
	assert.Error(t, err)

	_, err = New(testutil.NewFakeEmbedder(8), nil, nil)
	assert.Error(t, err)
}
