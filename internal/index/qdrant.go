package index

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/newsquill/newsquill/internal/log"
)

const qdrantDefaultTimeout = 15 * time.Second

// Qdrant is a minimal REST client to a Qdrant collection with cosine
// distance. It implements Index.
type Qdrant struct {
	url        string
	apiKey     string
	collection string
	dim        int
	client     *http.Client
	logger     log.Logger
}

// QdrantConfig configures the Qdrant backend.
type QdrantConfig struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
}

// NewQdrant creates a Qdrant-backed index. Call Ensure before use.
func NewQdrant(cfg QdrantConfig, logger log.Logger) (*Qdrant, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("qdrant URL is required")
	}
	if cfg.Collection == "" {
		return nil, fmt.Errorf("collection name is required")
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = qdrantDefaultTimeout
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &Qdrant{
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		client:     &http.Client{Timeout: timeout},
		logger:     logger,
	}, nil
}

// Ensure creates the collection with the given vector size if it does not
// exist, and verifies the size when it does.
func (q *Qdrant) Ensure(ctx context.Context, dim int) error {
	if dim <= 0 {
		return fmt.Errorf("invalid dimension %d", dim)
	}
	q.dim = dim

	var info struct {
		Result struct {
			Config struct {
				Params struct {
					Vectors struct {
						Size int `json:"size"`
					} `json:"vectors"`
				} `json:"params"`
			} `json:"config"`
		} `json:"result"`
	}

	status, err := q.getJSON(ctx, fmt.Sprintf("%s/collections/%s", q.url, q.collection), &info)
	if err != nil {
		return err
	}

	switch {
	case status == http.StatusOK:
		if got := info.Result.Config.Params.Vectors.Size; got != dim {
			return fmt.Errorf("collection %q: %w (index has %d, config wants %d)",
				q.collection, ErrDimensionMismatch, got, dim)
		}
		return nil
	case status == http.StatusNotFound:
		body := map[string]any{
			"vectors": map[string]any{
				"size":     dim,
				"distance": "Cosine",
			},
		}
		if err := q.doJSON(ctx, http.MethodPut,
			fmt.Sprintf("%s/collections/%s", q.url, q.collection), body, nil); err != nil {
			return fmt.Errorf("creating collection %q: %w", q.collection, err)
		}
		q.logger.Info("created qdrant collection", "collection", q.collection, "dim", dim)
		return nil
	default:
		return fmt.Errorf("checking collection %q: unexpected status %d", q.collection, status)
	}
}

// Upsert implements Index. Points are written with wait=true so a successful
// return means the records are searchable.
func (q *Qdrant) Upsert(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	if err := validateRecords(records, q.dim); err != nil {
		return err
	}

	points := make([]map[string]any, len(records))
	for i, r := range records {
		points[i] = map[string]any{
			"id":      r.ID.String(),
			"vector":  r.Vector,
			"payload": r.Payload,
		}
	}
	body := map[string]any{"points": points}
	url := fmt.Sprintf("%s/collections/%s/points?wait=true", q.url, q.collection)
	if err := q.doJSON(ctx, http.MethodPut, url, body, nil); err != nil {
		return fmt.Errorf("upserting %d points: %w", len(points), err)
	}
	return nil
}

// Search implements Index.
func (q *Qdrant) Search(ctx context.Context, vector []float32, limit int) ([]Hit, error) {
	if limit <= 0 {
		limit = 5
	}
	req := map[string]any{
		"vector":       vector,
		"limit":        limit,
		"with_payload": true,
	}
	var resp struct {
		Result []struct {
			Score   float32 `json:"score"`
			Payload Payload `json:"payload"`
		} `json:"result"`
	}
	url := fmt.Sprintf("%s/collections/%s/points/search", q.url, q.collection)
	if err := q.doJSON(ctx, http.MethodPost, url, req, &resp); err != nil {
		return nil, fmt.Errorf("searching collection %q: %w", q.collection, err)
	}

	hits := make([]Hit, 0, len(resp.Result))
	for _, r := range resp.Result {
		hits = append(hits, Hit{Payload: r.Payload, Score: r.Score})
	}
	return hits, nil
}

// getJSON performs a GET and decodes the body into out when the status is
// 200. The status code is returned so callers can branch on 404.
func (q *Qdrant) getJSON(ctx context.Context, url string, out any) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("building request: %w", err)
	}
	q.setHeaders(req)

	resp, err := q.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("GET %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK && out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("decoding response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

// doJSON performs a request with a JSON body and optionally decodes the
// response. Non-2xx statuses are errors.
func (q *Qdrant) doJSON(ctx context.Context, method, url string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	q.setHeaders(req)

	resp, err := q.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: %s: %s", method, url, resp.Status, bytes.TrimSpace(snippet))
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}

func (q *Qdrant) setHeaders(req *http.Request) {
	if q.apiKey != "" {
		req.Header.Set("api-key", q.apiKey)
	}
}
