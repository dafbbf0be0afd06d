package embedding

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	einoembedding "github.com/cloudwego/eino/components/embedding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-tailor-go/internal/types"
)

// fakeEmbedder counts backend calls and returns a deterministic vector
// derived from the text length, so distinct texts get distinct vectors.
type fakeEmbedder struct {
	mu    sync.Mutex
	calls int
	delay time.Duration
	err   error
}

func (f *fakeEmbedder) EmbedStrings(ctx context.Context, texts []string, _ ...einoembedding.Option) ([][]float64, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}

	out := make([][]float64, len(texts))
	for i, t := range texts {
		out[i] = []float64{float64(len(t)), 1, 0}
	}
	return out, nil
}

func (f *fakeEmbedder) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestEmbedCacheHit(t *testing.T) {
	backend := &fakeEmbedder{}
	cache := NewMemoryCache()
	idx, err := NewIndex(backend, cache, "test-model-v1")
	require.NoError(t, err)

	ctx := context.Background()
	items := []Item{{ID: "e1", Text: "Built CI/CD pipelines with Jenkins"}}

	first, err := idx.Embed(ctx, items)
	require.NoError(t, err)
	require.Contains(t, first, "e1")

	// Second call with identical content must be served from cache.
	second, err := idx.Embed(ctx, []Item{{ID: "e2", Text: "Built CI/CD pipelines with Jenkins"}})
	require.NoError(t, err)

	assert.Equal(t, 1, backend.callCount(), "identical content must hit the backend exactly once")
	assert.Equal(t, first["e1"].Values, second["e2"].Values, "cached vector must be bit-identical")
	assert.Equal(t, first["e1"].ContentHash, second["e2"].ContentHash)
	assert.Equal(t, 1, cache.Len())
}

func TestEmbedModelVersionMismatch(t *testing.T) {
	backend := &fakeEmbedder{}
	cache := NewMemoryCache()
	idx, err := NewIndex(backend, cache, "test-model-v2")
	require.NoError(t, err)

	ctx := context.Background()
	text := "Led Kubernetes migration"
	hash := ContentHash(text)

	// An entry produced by an older model version must not be reused.
	stale := types.EmbeddingVector{ContentHash: hash, Values: []float64{9, 9, 9}}
	require.NoError(t, cache.Set(ctx, stale, "test-model-v1"))

	out, err := idx.Embed(ctx, []Item{{ID: "e1", Text: text}})
	require.NoError(t, err)

	assert.Equal(t, 1, backend.callCount(), "stale model version should force a recompute")
	assert.NotEqual(t, stale.Values, out["e1"].Values)
}

func TestEmbedSingleflightCoalescing(t *testing.T) {
	backend := &fakeEmbedder{delay: 50 * time.Millisecond}
	idx, err := NewIndex(backend, NewMemoryCache(), "test-model-v1")
	require.NoError(t, err)

	ctx := context.Background()
	const workers = 8

	var wg sync.WaitGroup
	results := make([][]float64, workers)
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out, err := idx.Embed(ctx, []Item{{ID: fmt.Sprintf("e%d", i), Text: "shared content"}})
			if err != nil {
				errs[i] = err
				return
			}
			results[i] = out[fmt.Sprintf("e%d", i)].Values
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, results[0], results[i], "all callers must observe the same vector")
	}
	assert.Equal(t, 1, backend.callCount(), "concurrent requests for one content hash must coalesce")
}

func TestEmbedBackendUnavailable(t *testing.T) {
	backend := &fakeEmbedder{err: errors.New("connection refused")}
	idx, err := NewIndex(backend, NewMemoryCache(), "test-model-v1")
	require.NoError(t, err)

	_, err = idx.Embed(context.Background(), []Item{{ID: "e1", Text: "anything"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmbeddingUnavailable)

	var unavailable *UnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Contains(t, unavailable.Cause.Error(), "connection refused")
}

func TestContentHashDeterministic(t *testing.T) {
	assert.Equal(t, ContentHash("abc"), ContentHash("abc"))
	assert.NotEqual(t, ContentHash("abc"), ContentHash("abd"))
	assert.Len(t, ContentHash(""), 64)
}

func TestRescaledCosine(t *testing.T) {
	testCases := []struct {
		name     string
		a, b     []float64
		expected float64
	}{
		{"identical direction", []float64{1, 0}, []float64{2, 0}, 1.0},
		{"opposite direction", []float64{1, 0}, []float64{-1, 0}, 0.0},
		{"orthogonal", []float64{1, 0}, []float64{0, 1}, 0.5},
		{"zero vector", []float64{0, 0}, []float64{1, 0}, 0.0},
		{"dimension mismatch", []float64{1, 0, 0}, []float64{1, 0}, 0.0},
		{"empty", nil, nil, 0.0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.expected, RescaledCosine(tc.a, tc.b), 1e-9)
		})
	}
}

func TestMostSimilarOrdering(t *testing.T) {
	idx, err := NewIndex(&fakeEmbedder{}, NewMemoryCache(), "test-model-v1")
	require.NoError(t, err)

	query := []float64{1, 0}
	candidates := []types.EmbeddingVector{
		{ID: "far", Values: []float64{-1, 0}},
		{ID: "close", Values: []float64{1, 0.1}},
		{ID: "exact", Values: []float64{2, 0}},
		{ID: "mid", Values: []float64{1, 1}},
	}

	got := idx.MostSimilar(query, candidates, 3)
	require.Len(t, got, 3)
	assert.Equal(t, "exact", got[0].ID)
	assert.Equal(t, "close", got[1].ID)
	assert.Equal(t, "mid", got[2].ID)
	assert.True(t, got[0].Score >= got[1].Score && got[1].Score >= got[2].Score)
}

func TestMostSimilarTieBreaksByID(t *testing.T) {
	idx, err := NewIndex(&fakeEmbedder{}, NewMemoryCache(), "test-model-v1")
	require.NoError(t, err)

	query := []float64{1, 0}
	candidates := []types.EmbeddingVector{
		{ID: "b", Values: []float64{3, 0}},
		{ID: "a", Values: []float64{1, 0}},
	}

	// Identical scores must resolve to the same order on every run.
	for i := 0; i < 5; i++ {
		got := idx.MostSimilar(query, candidates, 2)
		require.Len(t, got, 2)
		assert.Equal(t, "a", got[0].ID)
		assert.Equal(t, "b", got[1].ID)
	}
}

func TestMostSimilarBounds(t *testing.T) {
	idx, err := NewIndex(&fakeEmbedder{}, NewMemoryCache(), "test-model-v1")
	require.NoError(t, err)

	candidates := []types.EmbeddingVector{{ID: "only", Values: []float64{1, 0}}}

	assert.Nil(t, idx.MostSimilar([]float64{1, 0}, candidates, 0))
	assert.Nil(t, idx.MostSimilar([]float64{1, 0}, nil, 3))
	assert.Len(t, idx.MostSimilar([]float64{1, 0}, candidates, 10), 1)
}
