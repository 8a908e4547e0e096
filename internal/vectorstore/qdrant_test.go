package vectorstore

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeQdrant is an in-memory stand-in covering the handful of endpoints the
// store uses, responses wrapped in the usual {"result": ...} envelope.
type fakeQdrant struct {
	mu          sync.Mutex
	collections map[string]bool
	points      map[uint64]map[string]any
}

func newFakeQdrant() *fakeQdrant {
	return &fakeQdrant{
		collections: map[string]bool{},
		points:      map[uint64]map[string]any{},
	}
}

func writeResult(w http.ResponseWriter, result any) {
	_ = json.NewEncoder(w).Encode(map[string]any{"result": result, "status": "ok", "time": 0.001})
}

func (f *fakeQdrant) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /collections/{name}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if !f.collections[r.PathValue("name")] {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		writeResult(w, map[string]any{"status": "green"})
	})
	mux.HandleFunc("PUT /collections/{name}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.collections[r.PathValue("name")] = true
		writeResult(w, true)
	})
	mux.HandleFunc("PUT /collections/{name}/points", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Points []struct {
				ID      uint64         `json:"id"`
				Vector  []float32      `json:"vector"`
				Payload map[string]any `json:"payload"`
			} `json:"points"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		f.mu.Lock()
		defer f.mu.Unlock()
		for _, p := range body.Points {
			f.points[p.ID] = map[string]any{"id": p.ID, "vector": p.Vector, "payload": p.Payload}
		}
		writeResult(w, map[string]any{"operation_id": 1, "status": "completed"})
	})
	mux.HandleFunc("POST /collections/{name}/points", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			IDs []uint64 `json:"ids"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		f.mu.Lock()
		defer f.mu.Unlock()
		result := []map[string]any{}
		for _, id := range body.IDs {
			if p, ok := f.points[id]; ok {
				result = append(result, p)
			}
		}
		writeResult(w, result)
	})
	mux.HandleFunc("POST /collections/{name}/points/delete", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Points []uint64 `json:"points"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		f.mu.Lock()
		defer f.mu.Unlock()
		for _, id := range body.Points {
			delete(f.points, id)
		}
		writeResult(w, map[string]any{"operation_id": 2, "status": "completed"})
	})
	mux.HandleFunc("POST /collections/{name}/points/search", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		result := []map[string]any{}
		for _, p := range f.points {
			result = append(result, map[string]any{
				"id":      p["id"],
				"score":   0.92,
				"payload": p["payload"],
			})
		}
		writeResult(w, result)
	})
	return mux
}

func newTestStore(t *testing.T) (*Qdrant, *fakeQdrant) {
	fake := newFakeQdrant()
	srv := httptest.NewServer(fake.handler(t))
	t.Cleanup(srv.Close)
	return NewQdrant(srv.URL, zap.NewNop().Sugar()), fake
}

func TestEnsureCollection(t *testing.T) {
	store, fake := newTestStore(t)

	require.NoError(t, store.EnsureCollection(context.Background()))
	assert.True(t, fake.collections[DefaultCollection])

	// idempotent on a second boot
	require.NoError(t, store.EnsureCollection(context.Background()))
}

func TestStoreGetRoundTrip(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	vector := make([]float32, 4)
	vector[0] = 0.25

	record, err := store.Store(ctx, "the quick brown fox", vector)
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.NotZero(t, record.ID)
	assert.Equal(t, "the quick brown fox", record.Text)
	assert.Equal(t, record.Text, record.Content)
	assert.WithinDuration(t, time.Now(), record.CreatedAt, time.Minute)

	got, err := store.Get(ctx, record.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, record.ID, got.ID)
	assert.Equal(t, record.Text, got.Text)
	assert.Equal(t, vector, got.Embedding)
	// payload stores millisecond precision
	assert.WithinDuration(t, record.CreatedAt, got.CreatedAt, time.Second)
}

func TestGetMissingReturnsNil(t *testing.T) {
	store, _ := newTestStore(t)
	got, err := store.Get(context.Background(), 999)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDelete(t *testing.T) {
	store, fake := newTestStore(t)
	ctx := context.Background()

	record, err := store.Store(ctx, "to be removed", []float32{0.1})
	require.NoError(t, err)

	deleted, err := store.Delete(ctx, record.ID)
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.Empty(t, fake.points)

	deleted, err = store.Delete(ctx, record.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestMissingCollectionSurfacesErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"status":{"error":"Collection embeddings doesn't exist"}}`))
	}))
	defer srv.Close()

	store := NewQdrant(srv.URL, zap.NewNop().Sugar())
	ctx := context.Background()

	record, err := store.Store(ctx, "hello", []float32{0.1})
	require.Error(t, err)
	assert.Nil(t, record)
	assert.Contains(t, err.Error(), "404")

	_, err = store.Search(ctx, []float32{0.1}, 5, 0.7)
	require.Error(t, err)

	_, err = store.Get(ctx, 1)
	require.Error(t, err)

	_, err = store.Delete(ctx, 1)
	require.Error(t, err)
}

func TestSearch(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	_, err := store.Store(ctx, "stored text", []float32{0.3, 0.4})
	require.NoError(t, err)

	hits, err := store.Search(ctx, []float32{0.3, 0.4}, 5, 0.7)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "stored text", hits[0].Text)
	assert.Equal(t, 0.92, hits[0].Score)
	assert.False(t, hits[0].CreatedAt.IsZero())
}
