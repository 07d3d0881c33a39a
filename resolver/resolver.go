// ABOUTME: Batched, cached and cancellable translation between object GUIDs and numeric ids
// ABOUTME: Issues small batches in bounded concurrent waves with a short pause between waves
package resolver

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/harperreed/formsync/models"
)

// Protocol defaults.
const (
	DefaultBatchSize   = 100
	DefaultConcurrency = 5
	DefaultWaveDelay   = time.Millisecond
)

// ObjectQuerier is the object query service of a loaded scene. Each call
// receives one batch of keys.
type ObjectQuerier interface {
	ObjectsByIDs(ctx context.Context, ids []uint32) ([]models.FormObject, error)
	IDsByGUIDs(ctx context.Context, guids []string) (map[string]uint32, error)
}

// Stats counts the work done by a resolver.
type Stats struct {
	Batches       int64
	Waves         int64
	FailedBatches int64
}

// Resolver bridges stable GUIDs and per-session numeric object ids.
type Resolver struct {
	querier     ObjectQuerier
	cache       *Cache
	batchSize   int
	concurrency int
	waveDelay   time.Duration
	bypass      int
	logger      *log.Logger

	batches atomic.Int64
	waves   atomic.Int64
	failed  atomic.Int64
}

// Option configures a Resolver.
type Option func(*Resolver)

func WithBatchSize(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

func WithConcurrency(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

func WithWaveDelay(d time.Duration) Option {
	return func(r *Resolver) {
		if d >= 0 {
			r.waveDelay = d
		}
	}
}

// WithCacheBypassThreshold sets the input size above which the cache is
// skipped. It defaults to the cache limit.
func WithCacheBypassThreshold(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.bypass = n
		}
	}
}

func WithLogger(l *log.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// New creates a resolver over querier sharing cache. A nil cache gets a
// private one.
func New(querier ObjectQuerier, cache *Cache, opts ...Option) *Resolver {
	if cache == nil {
		cache = NewCache(DefaultCacheLimit)
	}
	r := &Resolver{
		querier:     querier,
		cache:       cache,
		batchSize:   DefaultBatchSize,
		concurrency: DefaultConcurrency,
		waveDelay:   DefaultWaveDelay,
		logger:      log.WithPrefix("resolver"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Cache returns the cache shared by this resolver.
func (r *Resolver) Cache() *Cache {
	return r.cache
}

// Stats returns a snapshot of the batch counters.
func (r *Resolver) Stats() Stats {
	return Stats{
		Batches:       r.batches.Load(),
		Waves:         r.waves.Load(),
		FailedBatches: r.failed.Load(),
	}
}

// IDsToObjects resolves numeric ids to scene objects. The result is
// de-duplicated by GUID and not ordered like the input. When ctx is
// cancelled the error is ctx.Err(); objects from batches that completed
// before cancellation are still cached.
func (r *Resolver) IDsToObjects(ctx context.Context, ids []uint32) ([]models.FormObject, error) {
	ids = uniqueIDs(ids)

	var known []models.FormObject
	unknown := ids
	useCache := len(ids) <= r.bypassThreshold()
	if useCache {
		known, unknown = r.cache.splitObjects(ids)
	}

	batches, err := runBatches(ctx, r, unknown, r.querier.ObjectsByIDs)

	var fresh []models.FormObject
	for _, batch := range batches {
		fresh = append(fresh, batch...)
	}
	if useCache {
		r.cache.storeObjects(fresh)
	}
	if err != nil {
		return nil, err
	}

	return dedupeByGUID(append(fresh, known...)), nil
}

// MapGUIDsToIDs resolves GUIDs to numeric ids. GUIDs the scene does not know
// are absent from the result.
func (r *Resolver) MapGUIDsToIDs(ctx context.Context, guids []string) (map[string]uint32, error) {
	guids = uniqueStrings(guids)

	known := map[string]uint32{}
	unknown := guids
	useCache := len(guids) <= r.bypassThreshold()
	if useCache {
		known, unknown = r.cache.splitGUIDs(guids)
	}

	batches, err := runBatches(ctx, r, unknown, r.querier.IDsByGUIDs)

	fresh := make(map[string]uint32)
	for _, batch := range batches {
		for guid, id := range batch {
			if _, seen := fresh[guid]; !seen {
				fresh[guid] = id
			}
		}
	}
	if useCache {
		r.cache.storeIDs(fresh)
	}
	if err != nil {
		return nil, err
	}

	for guid, id := range known {
		fresh[guid] = id
	}
	return fresh, nil
}

func (r *Resolver) bypassThreshold() int {
	if r.bypass > 0 {
		return r.bypass
	}
	return r.cache.Limit()
}

// runBatches chunks keys and queries them wave by wave. Batch failures are
// logged and dropped. It stops issuing waves once ctx is done and returns
// the results gathered so far together with ctx.Err().
func runBatches[K any, R any](ctx context.Context, r *Resolver, keys []K, query func(context.Context, []K) (R, error)) ([]R, error) {
	chunks := chunk(keys, r.batchSize)
	if len(chunks) == 0 {
		return nil, ctx.Err()
	}

	var (
		mu      sync.Mutex
		results []R
	)

	for start := 0; start < len(chunks); start += r.concurrency {
		if start > 0 {
			if err := pause(ctx, r.waveDelay); err != nil {
				return results, err
			}
		}
		if err := ctx.Err(); err != nil {
			return results, err
		}

		end := min(start+r.concurrency, len(chunks))
		r.waves.Add(1)

		var g errgroup.Group
		for _, batch := range chunks[start:end] {
			g.Go(func() error {
				r.batches.Add(1)
				res, err := query(ctx, batch)
				if err != nil {
					r.failed.Add(1)
					if !isCancellation(ctx, err) {
						r.logger.Warn("batch query failed", "keys", len(batch), "err", err)
					}
					return nil
				}
				mu.Lock()
				results = append(results, res)
				mu.Unlock()
				return nil
			})
		}
		_ = g.Wait()
	}

	return results, ctx.Err()
}

func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func isCancellation(ctx context.Context, err error) bool {
	return ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func chunk[K any](keys []K, size int) [][]K {
	var chunks [][]K
	for size < len(keys) {
		keys, chunks = keys[size:], append(chunks, keys[:size:size])
	}
	if len(keys) > 0 {
		chunks = append(chunks, keys)
	}
	return chunks
}

func uniqueIDs(ids []uint32) []uint32 {
	seen := make(map[uint32]struct{}, len(ids))
	out := make([]uint32, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func uniqueStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func dedupeByGUID(objects []models.FormObject) []models.FormObject {
	seen := make(map[string]struct{}, len(objects))
	out := make([]models.FormObject, 0, len(objects))
	for _, obj := range objects {
		if _, ok := seen[obj.GUID]; ok {
			continue
		}
		seen[obj.GUID] = struct{}{}
		out = append(out, obj)
	}
	return out
}
