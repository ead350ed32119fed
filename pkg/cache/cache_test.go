package cache

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "key")
	if err != nil || hit || data != nil {
		t.Errorf("Get = (%v, %v, %v), want a miss", data, hit, err)
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestFileCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(filepath.Join(t.TempDir(), "nested", "cache"))
	if err != nil {
		t.Fatal(err)
	}

	if _, hit, _ := c.Get(ctx, "cell:abc"); hit {
		t.Fatal("empty cache reported a hit")
	}
	if err := c.Set(ctx, "cell:abc", []byte(`{"cell":"top"}`), time.Hour); err != nil {
		t.Fatal(err)
	}
	data, hit, err := c.Get(ctx, "cell:abc")
	if err != nil || !hit || string(data) != `{"cell":"top"}` {
		t.Errorf("Get = (%q, %v, %v)", data, hit, err)
	}

	if err := c.Delete(ctx, "cell:abc"); err != nil {
		t.Fatal(err)
	}
	if _, hit, _ := c.Get(ctx, "cell:abc"); hit {
		t.Error("hit after Delete")
	}
	if err := c.Delete(ctx, "cell:abc"); err != nil {
		t.Errorf("deleting a missing key: %v", err)
	}
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())

	if err := c.Set(ctx, "k", []byte("v"), time.Nanosecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("expired entry reported as hit")
	}
	if _, err := os.Stat(c.path("k")); !os.IsNotExist(err) {
		t.Error("expired entry was not removed")
	}
}

func TestFileCacheCorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())
	_ = c.Set(ctx, "k", []byte("v"), 0)

	if err := os.WriteFile(c.path("k"), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
		t.Errorf("corrupt entry: hit=%v err=%v, want clean miss", hit, err)
	}
}

func TestFileCacheClear(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	c, _ := NewFileCache(dir)
	for _, k := range []string{"a", "b", "c"} {
		_ = c.Set(ctx, k, []byte(k), 0)
	}
	if err := os.WriteFile(filepath.Join(dir, "README"), []byte("keep"), 0o644); err != nil {
		t.Fatal(err)
	}

	n, err := c.Clear()
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("Clear() = %d, want 3", n)
	}
	if _, hit, _ := c.Get(ctx, "a"); hit {
		t.Error("entry survived Clear")
	}
	if _, err := os.Stat(filepath.Join(dir, "README")); err != nil {
		t.Error("Clear removed an unrelated file")
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	if h1 != Hash([]byte("hello")) {
		t.Error("Hash should be deterministic")
	}
	if h1 == Hash([]byte("world")) {
		t.Error("different inputs should produce different hashes")
	}
	if len(h1) != 64 {
		t.Errorf("Hash length = %d, want 64", len(h1))
	}

	path := filepath.Join(t.TempDir(), "f")
	_ = os.WriteFile(path, []byte("hello"), 0o644)
	fh, err := HashFile(path)
	if err != nil || fh != h1 {
		t.Errorf("HashFile = %s, %v; want %s", fh, err, h1)
	}
	if _, err := HashFile(path + ".missing"); err == nil {
		t.Error("HashFile on missing file should fail")
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	c1 := k.CellKey("/lib/top.mag", CellKeyOpts{MaxDepth: 64})
	c2 := k.CellKey("/lib/top.mag", CellKeyOpts{MaxDepth: 64, Normalize: true})
	c3 := k.CellKey("/lib/mid.mag", CellKeyOpts{MaxDepth: 64})
	if c1 == c2 || c1 == c3 {
		t.Error("CellKey should depend on path and options")
	}
	if !strings.HasPrefix(c1, "cell:") {
		t.Errorf("CellKey = %s, want cell: prefix", c1)
	}

	a1 := k.ArtifactKey("hash123", ArtifactKeyOpts{Layer: "metal1", Format: "svg"})
	a2 := k.ArtifactKey("hash123", ArtifactKeyOpts{Layer: "metal1", Format: "png"})
	a3 := k.ArtifactKey("hash123", ArtifactKeyOpts{Layer: "poly", Format: "svg"})
	if a1 == a2 || a1 == a3 {
		t.Error("ArtifactKey should depend on every option")
	}
	if a1 != k.ArtifactKey("hash123", ArtifactKeyOpts{Layer: "metal1", Format: "svg"}) {
		t.Error("ArtifactKey should be deterministic")
	}
}

func TestScopedKeyer(t *testing.T) {
	inner := NewDefaultKeyer()
	scoped := NewScopedKeyer(inner, "proj:inv:")

	want := "proj:inv:" + inner.CellKey("/a.mag", CellKeyOpts{})
	if got := scoped.CellKey("/a.mag", CellKeyOpts{}); got != want {
		t.Errorf("CellKey = %s, want %s", got, want)
	}
	if got := scoped.ArtifactKey("h", ArtifactKeyOpts{}); !strings.HasPrefix(got, "proj:inv:artifact:") {
		t.Errorf("ArtifactKey = %s", got)
	}

	nilInner := NewScopedKeyer(nil, "p:")
	if got := nilInner.CellKey("/a.mag", CellKeyOpts{}); got != "p:"+inner.CellKey("/a.mag", CellKeyOpts{}) {
		t.Errorf("nil inner keyer: %s", got)
	}
}

func TestRetryWithBackoff(t *testing.T) {
	ctx := context.Background()
	transient := Retryable(ErrUnavailable)

	calls := 0
	err := RetryWithBackoff(ctx, 3, time.Millisecond, func() error {
		calls++
		if calls < 2 {
			return transient
		}
		return nil
	})
	if err != nil || calls != 2 {
		t.Errorf("err = %v, calls = %d; want success after 2", err, calls)
	}

	calls = 0
	permanent := os.ErrPermission
	err = RetryWithBackoff(ctx, 3, time.Millisecond, func() error {
		calls++
		return permanent
	})
	if err != permanent || calls != 1 {
		t.Errorf("err = %v, calls = %d; want immediate stop", err, calls)
	}

	calls = 0
	err = RetryWithBackoff(ctx, 3, time.Millisecond, func() error {
		calls++
		return transient
	})
	if !IsRetryable(err) || calls != 3 {
		t.Errorf("err = %v, calls = %d; want 3 attempts", err, calls)
	}
}

func TestRetryWithBackoffContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RetryWithBackoff(ctx, 3, time.Hour, func() error {
		return Retryable(ErrUnavailable)
	})
	if err != context.Canceled {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestRetryable(t *testing.T) {
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should be nil")
	}
	err := Retryable(ErrUnavailable)
	if err.Error() != ErrUnavailable.Error() {
		t.Errorf("message = %q", err.Error())
	}
	if IsRetryable(ErrUnavailable) {
		t.Error("unwrapped error reported retryable")
	}
}

func TestNewRedisCacheBadURL(t *testing.T) {
	if _, err := NewRedisCache(context.Background(), "http://localhost", "magflat:"); err == nil {
		t.Error("NewRedisCache should reject a non-redis URL")
	}
}

func TestNewRedisCacheUnreachable(t *testing.T) {
	oldAttempts, oldBackoff := pingAttempts, pingBackoff
	pingAttempts, pingBackoff = 2, time.Millisecond
	t.Cleanup(func() { pingAttempts, pingBackoff = oldAttempts, oldBackoff })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Port 1 is reserved and refuses connections on loopback.
	_, err := NewRedisCache(ctx, "redis://127.0.0.1:1/0", "magflat:")
	if err == nil {
		t.Fatal("NewRedisCache should fail for an unreachable server")
	}
	if !strings.Contains(err.Error(), ErrUnavailable.Error()) {
		t.Errorf("error = %v, want %v", err, ErrUnavailable)
	}
}
