// Package vectorstore is the narrow Qdrant collaborator: upsert, retrieve,
// delete and search over one embeddings collection. Qdrant is the system of
// record for persisted vectors; this package owns nothing beyond the
// request scope.
package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultCollection = "embeddings"

	// Dimension of the default embedding model.
	VectorSize = 1536

	requestTimeout = 30 * time.Second
)

type Record struct {
	ID        uint64    `json:"id"`
	Text      string    `json:"text"`
	Content   string    `json:"content"`
	Embedding []float32 `json:"embedding,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type SearchHit struct {
	ID        uint64
	Text      string
	Score     float64
	CreatedAt time.Time
}

type Qdrant struct {
	baseURL    string
	collection string
	httpClient *http.Client
	log        *zap.SugaredLogger
}

func NewQdrant(qdrantURL string, log *zap.SugaredLogger) *Qdrant {
	return &Qdrant{
		baseURL:    strings.TrimSuffix(qdrantURL, "/"),
		collection: DefaultCollection,
		httpClient: &http.Client{Timeout: requestTimeout},
		log:        log,
	}
}

// Qdrant wraps every response in {"result": ..., "status": ..., "time": ...}.
type envelope struct {
	Result json.RawMessage `json:"result"`
	Status json.RawMessage `json:"status"`
}

func (q *Qdrant) do(ctx context.Context, method, path string, payload any, result any) (int, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return 0, err
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, q.baseURL+path, body)
	if err != nil {
		return 0, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := q.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("qdrant request failed: %w", err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return res.StatusCode, fmt.Errorf("qdrant response read failed: %w", err)
	}
	if res.StatusCode != http.StatusOK {
		return res.StatusCode, fmt.Errorf("qdrant returned status %d: %s", res.StatusCode, strings.TrimSpace(string(raw)))
	}
	if result != nil {
		var env envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			return res.StatusCode, fmt.Errorf("qdrant response decode failed: %w", err)
		}
		if len(env.Result) > 0 {
			if err := json.Unmarshal(env.Result, result); err != nil {
				return res.StatusCode, fmt.Errorf("qdrant result decode failed: %w", err)
			}
		}
	}
	return res.StatusCode, nil
}

// EnsureCollection creates the embeddings collection when it does not exist
// yet (cosine distance, fixed vector size).
func (q *Qdrant) EnsureCollection(ctx context.Context) error {
	status, err := q.do(ctx, http.MethodGet, "/collections/"+q.collection, nil, nil)
	if err == nil {
		return nil
	}
	if status != http.StatusNotFound {
		return err
	}

	q.log.Infow("Creating collection", "collection", q.collection)
	_, err = q.do(ctx, http.MethodPut, "/collections/"+q.collection, map[string]any{
		"vectors": map[string]any{
			"size":     VectorSize,
			"distance": "Cosine",
		},
	}, nil)
	return err
}

type pointPayload struct {
	Text      string `json:"text"`
	Content   string `json:"content"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
}

// Store upserts the vector under a fresh microsecond-timestamp id. No dedup:
// storing the same text twice yields two independent points.
func (q *Qdrant) Store(ctx context.Context, text string, vector []float32) (*Record, error) {
	now := time.Now()
	id := uint64(now.UnixMicro())
	millis := now.UnixMilli()

	_, err := q.do(ctx, http.MethodPut, "/collections/"+q.collection+"/points?wait=true", map[string]any{
		"points": []map[string]any{{
			"id":     id,
			"vector": vector,
			"payload": pointPayload{
				Text:      text,
				Content:   text,
				CreatedAt: millis,
				UpdatedAt: millis,
			},
		}},
	}, nil)
	if err != nil {
		return nil, err
	}
	return &Record{
		ID:        id,
		Text:      text,
		Content:   text,
		Embedding: vector,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

type retrievedPoint struct {
	ID      uint64       `json:"id"`
	Payload pointPayload `json:"payload"`
	Vector  []float32    `json:"vector"`
}

// Get returns nil without error when the id is unknown.
func (q *Qdrant) Get(ctx context.Context, id uint64) (*Record, error) {
	var points []retrievedPoint
	_, err := q.do(ctx, http.MethodPost, "/collections/"+q.collection+"/points", map[string]any{
		"ids":          []uint64{id},
		"with_payload": true,
		"with_vector":  true,
	}, &points)
	if err != nil {
		return nil, err
	}
	if len(points) == 0 {
		return nil, nil
	}
	p := points[0]
	return &Record{
		ID:        p.ID,
		Text:      p.Payload.Text,
		Content:   p.Payload.Content,
		Embedding: p.Vector,
		CreatedAt: time.UnixMilli(p.Payload.CreatedAt),
		UpdatedAt: time.UnixMilli(p.Payload.UpdatedAt),
	}, nil
}

// Delete reports whether the point existed.
func (q *Qdrant) Delete(ctx context.Context, id uint64) (bool, error) {
	existing, err := q.Get(ctx, id)
	if err != nil {
		return false, err
	}
	if existing == nil {
		return false, nil
	}
	_, err = q.do(ctx, http.MethodPost, "/collections/"+q.collection+"/points/delete?wait=true", map[string]any{
		"points": []uint64{id},
	}, nil)
	if err != nil {
		return false, err
	}
	return true, nil
}

type scoredPoint struct {
	ID      uint64       `json:"id"`
	Score   float64      `json:"score"`
	Payload pointPayload `json:"payload"`
}

// Search returns the ranked cosine-similarity neighbors above the threshold.
func (q *Qdrant) Search(ctx context.Context, vector []float32, limit int, scoreThreshold float64) ([]SearchHit, error) {
	var points []scoredPoint
	_, err := q.do(ctx, http.MethodPost, "/collections/"+q.collection+"/points/search", map[string]any{
		"vector":          vector,
		"limit":           limit,
		"score_threshold": scoreThreshold,
		"with_payload":    true,
	}, &points)
	if err != nil {
		return nil, err
	}
	hits := make([]SearchHit, 0, len(points))
	for _, p := range points {
		hits = append(hits, SearchHit{
			ID:        p.ID,
			Text:      p.Payload.Text,
			Score:     p.Score,
			CreatedAt: time.UnixMilli(p.Payload.CreatedAt),
		})
	}
	return hits, nil
}
