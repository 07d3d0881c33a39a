// ABOUTME: Tests for the GUID to id resolver
// ABOUTME: Covers caching, batching boundaries, eviction, failures and cancellation
package resolver

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/harperreed/formsync/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeQuerier resolves id n to GUID "guid-n" and back.
type fakeQuerier struct {
	calls     atomic.Int64
	inFlight  atomic.Int64
	maxFlight atomic.Int64
	delay     time.Duration

	mu        sync.Mutex
	batchLens []int
	failIf    func(n int) bool
	onCall    func(call int64)
}

func (q *fakeQuerier) enter(n int) int64 {
	call := q.calls.Add(1)
	cur := q.inFlight.Add(1)
	for {
		peak := q.maxFlight.Load()
		if cur <= peak || q.maxFlight.CompareAndSwap(peak, cur) {
			break
		}
	}
	q.mu.Lock()
	q.batchLens = append(q.batchLens, n)
	q.mu.Unlock()
	if q.delay > 0 {
		time.Sleep(q.delay)
	}
	return call
}

func (q *fakeQuerier) ObjectsByIDs(ctx context.Context, ids []uint32) ([]models.FormObject, error) {
	call := q.enter(len(ids))
	defer q.inFlight.Add(-1)
	if q.onCall != nil {
		defer q.onCall(call)
	}
	var out []models.FormObject
	for _, id := range ids {
		if q.failIf != nil && q.failIf(int(id)) {
			return nil, errors.New("backend unavailable")
		}
		out = append(out, models.FormObject{ID: id, GUID: fmt.Sprintf("guid-%d", id), Name: "obj"})
	}
	return out, nil
}

func (q *fakeQuerier) IDsByGUIDs(ctx context.Context, guids []string) (map[string]uint32, error) {
	q.enter(len(guids))
	defer q.inFlight.Add(-1)
	out := make(map[string]uint32)
	for _, guid := range guids {
		n, err := strconv.Atoi(strings.TrimPrefix(guid, "guid-"))
		if err != nil {
			continue
		}
		out[guid] = uint32(n)
	}
	return out, nil
}

func ids(from, to int) []uint32 {
	out := make([]uint32, 0, to-from)
	for i := from; i < to; i++ {
		out = append(out, uint32(i))
	}
	return out
}

func TestMapGUIDsToIDs_ServedFromCache(t *testing.T) {
	q := &fakeQuerier{}
	r := New(q, NewCache(0))
	ctx := context.Background()

	first, err := r.MapGUIDsToIDs(ctx, []string{"guid-7"})
	require.NoError(t, err)
	require.Equal(t, int64(1), q.calls.Load())

	second, err := r.MapGUIDsToIDs(ctx, []string{"guid-7"})
	require.NoError(t, err)

	assert.Equal(t, uint32(7), first["guid-7"])
	assert.Equal(t, first, second)
	assert.Equal(t, int64(1), q.calls.Load(), "second lookup must not query")
}

func TestMapGUIDsToIDs_UnknownGUIDsAbsent(t *testing.T) {
	r := New(&fakeQuerier{}, nil)
	got, err := r.MapGUIDsToIDs(context.Background(), []string{"guid-1", "nope"})
	require.NoError(t, err)
	assert.Equal(t, map[string]uint32{"guid-1": 1}, got)
}

func TestIDsToObjects_BatchBoundary(t *testing.T) {
	q := &fakeQuerier{delay: 5 * time.Millisecond}
	r := New(q, nil)

	objects, err := r.IDsToObjects(context.Background(), ids(0, 250))
	require.NoError(t, err)

	assert.Len(t, objects, 250)
	assert.Equal(t, int64(3), q.calls.Load())
	assert.ElementsMatch(t, []int{100, 100, 50}, q.batchLens)

	stats := r.Stats()
	assert.Equal(t, int64(3), stats.Batches)
	assert.Equal(t, int64(1), stats.Waves)
}

func TestIDsToObjects_WavesAreBounded(t *testing.T) {
	q := &fakeQuerier{delay: 2 * time.Millisecond}
	cache := NewCache(0)
	r := New(q, cache)

	objects, err := r.IDsToObjects(context.Background(), ids(0, 1200))
	require.NoError(t, err)

	assert.Len(t, objects, 1200)
	assert.Equal(t, int64(12), q.calls.Load())
	assert.Equal(t, int64(3), r.Stats().Waves)
	assert.LessOrEqual(t, q.maxFlight.Load(), int64(DefaultConcurrency))
	assert.Zero(t, cache.ObjectsLen(), "bulk lookups bypass the cache")
}

func TestIDsToObjects_CacheEviction(t *testing.T) {
	cache := NewCache(0)
	r := New(&fakeQuerier{}, cache)
	ctx := context.Background()

	_, err := r.IDsToObjects(ctx, ids(0, 1000))
	require.NoError(t, err)
	_, err = r.IDsToObjects(ctx, []uint32{1000})
	require.NoError(t, err)
	require.Equal(t, 1001, cache.ObjectsLen())

	_, err = r.IDsToObjects(ctx, []uint32{5000})
	require.NoError(t, err)

	assert.Equal(t, 1, cache.ObjectsLen())
	_, ok := cache.Object(0)
	assert.False(t, ok, "earlier entries are flushed")
	_, ok = cache.Object(5000)
	assert.True(t, ok)
	assert.Equal(t, 1, cache.Flushes())
}

func TestIDsToObjects_MergesKnownAndFresh(t *testing.T) {
	q := &fakeQuerier{}
	r := New(q, nil)
	ctx := context.Background()

	_, err := r.IDsToObjects(ctx, []uint32{1, 2})
	require.NoError(t, err)

	objects, err := r.IDsToObjects(ctx, []uint32{2, 3, 3, 1})
	require.NoError(t, err)

	assert.Len(t, objects, 3)
	assert.Equal(t, int64(2), q.calls.Load())
	assert.Equal(t, []int{2, 1}, q.batchLens, "only the unknown id is queried")
}

func TestIDsToObjects_FailedBatchIsSkipped(t *testing.T) {
	q := &fakeQuerier{failIf: func(n int) bool { return n >= 100 && n < 200 }}
	r := New(q, nil)

	objects, err := r.IDsToObjects(context.Background(), ids(0, 300))
	require.NoError(t, err)

	assert.Len(t, objects, 200)
	assert.Equal(t, int64(1), r.Stats().FailedBatches)
	for _, obj := range objects {
		assert.False(t, obj.ID >= 100 && obj.ID < 200)
	}
}

func TestIDsToObjects_DedupesByGUID(t *testing.T) {
	r := New(dupQuerier{}, nil)
	objects, err := r.IDsToObjects(context.Background(), []uint32{1, 2})
	require.NoError(t, err)
	assert.Len(t, objects, 1)
}

type dupQuerier struct{}

func (dupQuerier) ObjectsByIDs(_ context.Context, ids []uint32) ([]models.FormObject, error) {
	var out []models.FormObject
	for _, id := range ids {
		out = append(out, models.FormObject{ID: id, GUID: "same"})
	}
	return out, nil
}

func (dupQuerier) IDsByGUIDs(context.Context, []string) (map[string]uint32, error) {
	return nil, nil
}

func TestIDsToObjects_CancellationKeepsCompletedCacheWrites(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := &fakeQuerier{onCall: func(call int64) {
		if call == 1 {
			cancel()
		}
	}}
	cache := NewCache(0)
	r := New(q, cache, WithBatchSize(1), WithConcurrency(1))

	objects, err := r.IDsToObjects(ctx, []uint32{10, 11, 12})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, objects)

	assert.Equal(t, int64(1), q.calls.Load(), "no wave starts after cancellation")
	_, ok := cache.Object(10)
	assert.True(t, ok, "completed batch is still cached")
}

func TestCacheReset(t *testing.T) {
	cache := NewCache(10)
	r := New(&fakeQuerier{}, cache)
	_, err := r.MapGUIDsToIDs(context.Background(), []string{"guid-1", "guid-2"})
	require.NoError(t, err)
	require.Equal(t, 2, cache.IDsLen())

	cache.Reset()
	assert.Zero(t, cache.IDsLen())
	_, ok := cache.ID("guid-1")
	assert.False(t, ok)
}

func TestChunk(t *testing.T) {
	assert.Nil(t, chunk([]int{}, 3))
	assert.Equal(t, [][]int{{1, 2}, {3, 4}, {5}}, chunk([]int{1, 2, 3, 4, 5}, 2))
}

func TestCacheBypassThreshold(t *testing.T) {
	cache := NewCache(0)
	r := New(&fakeQuerier{}, cache, WithCacheBypassThreshold(2))

	_, err := r.MapGUIDsToIDs(context.Background(), []string{"guid-1", "guid-2", "guid-3"})
	require.NoError(t, err)
	assert.Zero(t, cache.IDsLen())

	_, err = r.MapGUIDsToIDs(context.Background(), []string{"guid-1", "guid-2"})
	require.NoError(t, err)
	assert.Equal(t, 2, cache.IDsLen())
}
