package index

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeQdrant emulates the handful of Qdrant REST endpoints the client uses.
type fakeQdrant struct {
	t *testing.T

	exists bool
	size   int
	apiKey string

	created  bool
	upserted []map[string]any
	hits     []map[string]any
}

func (f *fakeQdrant) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /collections/news_articles", func(w http.ResponseWriter, r *http.Request) {
		if !f.checkKey(w, r) {
			return
		}
		if !f.exists {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		resp := map[string]any{
			"result": map[string]any{
				"config": map[string]any{
					"params": map[string]any{
						"vectors": map[string]any{"size": f.size},
					},
				},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	})

	mux.HandleFunc("PUT /collections/news_articles", func(w http.ResponseWriter, r *http.Request) {
		if !f.checkKey(w, r) {
			return
		}
		f.created = true
		f.exists = true
		_ = json.NewEncoder(w).Encode(map[string]any{"result": true})
	})

	mux.HandleFunc("PUT /collections/news_articles/points", func(w http.ResponseWriter, r *http.Request) {
		if !f.checkKey(w, r) {
			return
		}
		assert.Equal(f.t, "true", r.URL.Query().Get("wait"))
		var body struct {
			Points []map[string]any `json:"points"`
		}
		require.NoError(f.t, json.NewDecoder(r.Body).Decode(&body))
		f.upserted = append(f.upserted, body.Points...)
		_ = json.NewEncoder(w).Encode(map[string]any{"result": map[string]any{"status": "completed"}})
	})

	mux.HandleFunc("POST /collections/news_articles/points/search", func(w http.ResponseWriter, r *http.Request) {
		if !f.checkKey(w, r) {
			return
		}
		var body struct {
			WithPayload bool `json:"with_payload"`
			Limit       int  `json:"limit"`
		}
		require.NoError(f.t, json.NewDecoder(r.Body).Decode(&body))
		assert.True(f.t, body.WithPayload)
		_ = json.NewEncoder(w).Encode(map[string]any{"result": f.hits})
	})

	return mux
}

func (f *fakeQdrant) checkKey(w http.ResponseWriter, r *http.Request) bool {
	if f.apiKey != "" && r.Header.Get("api-key") != f.apiKey {
		w.WriteHeader(http.StatusUnauthorized)
		return false
	}
	return true
}

func newTestQdrant(t *testing.T, fake *fakeQdrant) *Qdrant {
	t.Helper()

	fake.t = t
	ts := httptest.NewServer(fake.handler())
	t.Cleanup(ts.Close)

	q, err := NewQdrant(QdrantConfig{
		URL:        ts.URL,
		APIKey:     fake.apiKey,
		Collection: "news_articles",
	}, nil)
	require.NoError(t, err)
	return q
}

func TestQdrantEnsureCreatesMissingCollection(t *testing.T) {
	fake := &fakeQdrant{}
	q := newTestQdrant(t, fake)

	require.NoError(t, q.Ensure(context.Background(), 768))
	assert.True(t, fake.created)
}

func TestQdrantEnsureAcceptsMatchingCollection(t *testing.T) {
	fake := &fakeQdrant{exists: true, size: 768}
	q := newTestQdrant(t, fake)

	require.NoError(t, q.Ensure(context.Background(), 768))
	assert.False(t, fake.created)
}

func TestQdrantEnsureDimensionMismatch(t *testing.T) {
	fake := &fakeQdrant{exists: true, size: 1536}
	q := newTestQdrant(t, fake)

	err := q.Ensure(context.Background(), 768)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestQdrantUpsertAndSearch(t *testing.T) {
	fake := &fakeQdrant{
		hits: []map[string]any{
			{"score": 0.91, "payload": map[string]any{"title": "A", "url": "https://a", "content": "chunk a"}},
			{"score": 0.72, "payload": map[string]any{"title": "B", "url": "https://b", "content": "chunk b"}},
		},
	}
	q := newTestQdrant(t, fake)
	ctx := context.Background()
	require.NoError(t, q.Ensure(ctx, 2))

	require.NoError(t, q.Upsert(ctx, []Record{rec([]float32{1, 0}, "chunk a")}))
	require.Len(t, fake.upserted, 1)
	assert.NotEmpty(t, fake.upserted[0]["id"])

	hits, err := q.Search(ctx, []float32{1, 0}, 5)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "chunk a", hits[0].Payload.Content)
	assert.InDelta(t, 0.91, float64(hits[0].Score), 1e-6)
}

func TestQdrantUpsertEmptyBatch(t *testing.T) {
	fake := &fakeQdrant{}
	q := newTestQdrant(t, fake)

	require.NoError(t, q.Upsert(context.Background(), nil))
	assert.Empty(t, fake.upserted)
}

func TestQdrantSendsAPIKey(t *testing.T) {
	fake := &fakeQdrant{apiKey: "secret", exists: true, size: 768}
	q := newTestQdrant(t, fake)

	require.NoError(t, q.Ensure(context.Background(), 768))
}

func TestQdrantServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "overloaded", http.StatusInternalServerError)
	}))
	t.Cleanup(ts.Close)

	q, err := NewQdrant(QdrantConfig{URL: ts.URL, Collection: "news_articles"}, nil)
	require.NoError(t, err)

	err = q.Ensure(context.Background(), 768)
	assert.Error(t, err)
}

func TestNewQdrantValidation(t *testing.T) {
	_, err := NewQdrant(QdrantConfig{Collection: "c"}, nil)
	assert.Error(t, err)

	_, err = NewQdrant(QdrantConfig{URL: "http://localhost:6333"}, nil)
	assert.Error(t, err)
}
