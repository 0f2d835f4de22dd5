package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemory_SetGetDelete(t *testing.T) {
	c := NewMemory(time.Minute)
	ctx := context.Background()

	if _, ok, _ := c.Get(ctx, "k"); ok {
		t.Fatalf("expected miss on empty cache")
	}

	if err := c.Set(ctx, "k", []byte(`[1,2]`)); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, ok, err := c.Get(ctx, "k")
	if err != nil || !ok {
		t.Fatalf("expected hit, ok=%v err=%v", ok, err)
	}
	if string(got) != `[1,2]` {
		t.Fatalf("got %q", got)
	}

	_ = c.Delete(ctx, "k")
	if _, ok, _ := c.Get(ctx, "k"); ok {
		t.Fatalf("expected miss after delete")
	}
}

func TestMemory_Expires(t *testing.T) {
	c := NewMemory(10 * time.Second)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return base }

	_ = c.Set(ctx, "k", []byte("v"))

	c.now = func() time.Time { return base.Add(9 * time.Second) }
	if _, ok, _ := c.Get(ctx, "k"); !ok {
		t.Fatalf("expected hit before ttl")
	}

	c.now = func() time.Time { return base.Add(11 * time.Second) }
	if _, ok, _ := c.Get(ctx, "k"); ok {
		t.Fatalf("expected miss after ttl")
	}
}

func TestMemory_SetCopiesValue(t *testing.T) {
	c := NewMemory(time.Minute)
	ctx := context.Background()

	buf := []byte("abc")
	_ = c.Set(ctx, "k", buf)
	buf[0] = 'x'

	got, _, _ := c.Get(ctx, "k")
	if string(got) != "abc" {
		t.Fatalf("cached value mutated: %q", got)
	}
}

func TestMemory_IncrNeverExpires(t *testing.T) {
	c := NewMemory(10 * time.Second)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return base }

	for want := int64(1); want <= 2; want++ {
		n, err := c.Incr(ctx, "gen")
		if err != nil || n != want {
			t.Fatalf("incr: got %d err=%v, want %d", n, err, want)
		}
	}

	c.now = func() time.Time { return base.Add(time.Hour) }

	got, ok, err := c.Get(ctx, "gen")
	if err != nil || !ok || string(got) != "2" {
		t.Fatalf("counter lost: %q ok=%v err=%v", got, ok, err)
	}

	_ = c.Set(ctx, "k", []byte("v"))
	if _, err := c.Incr(ctx, "k"); err == nil {
		t.Fatalf("expected an error incrementing a non-numeric value")
	}
}

func TestMemory_SetSweepsExpiredEntries(t *testing.T) {
	c := NewMemory(10 * time.Second)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return base }

	_ = c.Set(ctx, "old", []byte("v"))
	_, _ = c.Incr(ctx, "gen")

	c.now = func() time.Time { return base.Add(time.Minute) }
	_ = c.Set(ctx, "new", []byte("v"))

	c.mu.RLock()
	_, oldKept := c.m["old"]
	_, genKept := c.m["gen"]
	size := len(c.m)
	c.mu.RUnlock()

	if oldKept || !genKept || size != 2 {
		t.Fatalf("unexpected entries after sweep: old=%v gen=%v size=%d", oldKept, genKept, size)
	}
}
