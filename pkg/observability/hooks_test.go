package observability

import (
	"context"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	l := NoopLoadHooks{}
	l.OnLoadStart("top.mag", 0)
	l.OnLoadComplete("top.mag", 12, time.Millisecond, nil)
	l.OnCellReuse("leaf.mag")
	l.OnUnrecognized("top.mag", 3, "string FIXED_BBOX 0 0 1 1")

	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "cell")
	c.OnCacheMiss(ctx, "artifact")
	c.OnCacheSet(ctx, "artifact", 1024)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	if _, ok := Load().(NoopLoadHooks); !ok {
		t.Error("Load() should return NoopLoadHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}

	customLoad := &testLoadHooks{}
	SetLoadHooks(customLoad)
	if Load() != customLoad {
		t.Error("SetLoadHooks should set custom hooks")
	}

	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	if Cache() != customCache {
		t.Error("SetCacheHooks should set custom hooks")
	}

	Reset()
	if _, ok := Load().(NoopLoadHooks); !ok {
		t.Error("Reset should restore NoopLoadHooks")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Reset should restore NoopCacheHooks")
	}
}

func TestSetNilHooksIgnored(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	custom := &testLoadHooks{}
	SetLoadHooks(custom)
	SetLoadHooks(nil)
	if Load() != custom {
		t.Error("SetLoadHooks(nil) should keep the registered hooks")
	}

	SetCacheHooks(nil)
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("SetCacheHooks(nil) should keep the default hooks")
	}
}

func TestHooksReceiveEvents(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	lh := &testLoadHooks{}
	ch := &testCacheHooks{}
	SetLoadHooks(lh)
	SetCacheHooks(ch)

	Load().OnLoadStart("top.mag", 0)
	Load().OnLoadComplete("top.mag", 4, time.Millisecond, nil)
	Load().OnCellReuse("leaf.mag")
	Load().OnUnrecognized("top.mag", 7, "checkpaint 0 0 1 1")
	Cache().OnCacheHit(context.Background(), "cell")
	Cache().OnCacheMiss(context.Background(), "cell")
	Cache().OnCacheSet(context.Background(), "cell", 10)

	if lh.starts != 1 || lh.completes != 1 || lh.reuses != 1 || lh.unrecognized != 1 {
		t.Errorf("load events = %+v", lh)
	}
	if ch.hits != 1 || ch.misses != 1 || ch.sets != 1 {
		t.Errorf("cache events = %+v", ch)
	}
}

type testLoadHooks struct {
	starts, completes, reuses, unrecognized int
}

func (h *testLoadHooks) OnLoadStart(string, int)                            { h.starts++ }
func (h *testLoadHooks) OnLoadComplete(string, int, time.Duration, error) { h.completes++ }
func (h *testLoadHooks) OnCellReuse(string)                                 { h.reuses++ }
func (h *testLoadHooks) OnUnrecognized(string, int, string)                 { h.unrecognized++ }

type testCacheHooks struct {
	hits, misses, sets int
}

func (h *testCacheHooks) OnCacheHit(context.Context, string)      { h.hits++ }
func (h *testCacheHooks) OnCacheMiss(context.Context, string)     { h.misses++ }
func (h *testCacheHooks) OnCacheSet(context.Context, string, int) { h.sets++ }
