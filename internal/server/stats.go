package server

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/matzehuels/magflat/pkg/observability"
)

// Stats counts loader and cache events. It implements both
// observability.LoadHooks and observability.CacheHooks.
type Stats struct {
	started time.Time

	loads        atomic.Int64
	loadErrors   atomic.Int64
	reuses       atomic.Int64
	unrecognized atomic.Int64
	rects        atomic.Int64
	loadNanos    atomic.Int64
	sharedLoads  atomic.Int64

	mu    sync.Mutex
	cache map[string]*CacheCounts
}

// CacheCounts are the cache events of one key type.
type CacheCounts struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
	Sets   int64 `json:"sets"`
	Bytes  int64 `json:"bytes"`
}

// Snapshot is a point-in-time copy of Stats.
type Snapshot struct {
	Uptime       string                 `json:"uptime"`
	Loads        int64                  `json:"loads"`
	LoadErrors   int64                  `json:"load_errors"`
	Reuses       int64                  `json:"reuses"`
	Unrecognized int64                  `json:"unrecognized"`
	Rects        int64                  `json:"rects"`
	LoadTime     string                 `json:"load_time"`
	SharedLoads  int64                  `json:"shared_loads"`
	Cache        map[string]CacheCounts `json:"cache"`
}

// NewStats creates zeroed counters.
func NewStats() *Stats {
	return &Stats{started: time.Now(), cache: make(map[string]*CacheCounts)}
}

func (s *Stats) OnLoadStart(string, int) {}

func (s *Stats) OnLoadComplete(_ string, rects int, d time.Duration, err error) {
	s.loads.Add(1)
	s.loadNanos.Add(int64(d))
	if err != nil {
		s.loadErrors.Add(1)
		return
	}
	s.rects.Add(int64(rects))
}

func (s *Stats) OnCellReuse(string) { s.reuses.Add(1) }

func (s *Stats) OnUnrecognized(string, int, string) { s.unrecognized.Add(1) }

func (s *Stats) OnCacheHit(_ context.Context, keyType string) {
	s.update(keyType, func(c *CacheCounts) { c.Hits++ })
}

func (s *Stats) OnCacheMiss(_ context.Context, keyType string) {
	s.update(keyType, func(c *CacheCounts) { c.Misses++ })
}

func (s *Stats) OnCacheSet(_ context.Context, keyType string, size int) {
	s.update(keyType, func(c *CacheCounts) {
		c.Sets++
		c.Bytes += int64(size)
	})
}

func (s *Stats) update(keyType string, fn func(*CacheCounts)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cache[keyType]
	if !ok {
		c = &CacheCounts{}
		s.cache[keyType] = c
	}
	fn(c)
}

// Snapshot copies the current counters.
func (s *Stats) Snapshot() Snapshot {
	snap := Snapshot{
		Uptime:       time.Since(s.started).Round(time.Second).String(),
		Loads:        s.loads.Load(),
		LoadErrors:   s.loadErrors.Load(),
		Reuses:       s.reuses.Load(),
		Unrecognized: s.unrecognized.Load(),
		Rects:        s.rects.Load(),
		LoadTime:     time.Duration(s.loadNanos.Load()).String(),
		SharedLoads:  s.sharedLoads.Load(),
		Cache:        make(map[string]CacheCounts),
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, c := range s.cache {
		snap.Cache[k] = *c
	}
	return snap
}

var (
	_ observability.LoadHooks  = (*Stats)(nil)
	_ observability.CacheHooks = (*Stats)(nil)
)
