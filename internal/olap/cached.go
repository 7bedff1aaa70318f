package olap

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/zeebo/xxh3"

	"github.com/pgEdge/pgedge-salesdw/internal/cache"
	"github.com/pgEdge/pgedge-salesdw/internal/metrics"
)

// CachedExecutor memoizes results of another Executor for a time window.
type CachedExecutor struct {
	next    Executor
	cache   *cache.TTL[*Result]
	metrics *metrics.Metrics
}

// NewCachedExecutor wraps next. ttl applies to queries that do not set
// their own. m may be nil.
func NewCachedExecutor(next Executor, ttl time.Duration, m *metrics.Metrics, opts ...cache.Option) *CachedExecutor {
	return &CachedExecutor{
		next:    next,
		cache:   cache.New[*Result](ttl, opts...),
		metrics: m,
	}
}

// Cache returns the underlying cache.
func (c *CachedExecutor) Cache() *cache.TTL[*Result] {
	return c.cache
}

// Execute returns a cached result for q when one is live, and otherwise
// runs q and caches it. Errors are not cached. The shared load is bounded by
// the wrapped executor's timeout, not by the first caller's ctx.
func (c *CachedExecutor) Execute(ctx context.Context, q Query) (*Result, error) {
	res, hit, err := c.cache.GetOrLoad(ctx, cacheKey(q), q.TTL, func(ctx context.Context) (*Result, error) {
		return c.next.Execute(ctx, q)
	})
	c.metrics.CacheLookup(hit)
	if err != nil {
		return nil, err
	}
	out := res.clone()
	out.Cached = hit
	return out, nil
}

func cacheKey(q Query) string {
	h := xxh3.New()
	_, _ = h.WriteString(q.Name)
	_, _ = h.WriteString("\x00")
	_, _ = h.WriteString(q.SQL)
	for _, a := range q.Args {
		_, _ = h.WriteString("\x00")
		_, _ = h.WriteString(fmt.Sprintf("%T:%v", a, a))
	}
	return strconv.FormatUint(h.Sum64(), 16)
}

// clone copies the slices callers may reorder or relabel. Row contents are
// shared.
func (r *Result) clone() *Result {
	out := *r
	out.Columns = slices.Clone(r.Columns)
	out.Rows = slices.Clone(r.Rows)
	out.Args = slices.Clone(r.Args)
	return &out
}
