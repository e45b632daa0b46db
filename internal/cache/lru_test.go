package cache

import (
	"testing"
	"time"
)

func TestLRUEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRU[int64, string](2, 0)
	c.Set(1, "a")
	c.Set(2, "b")
	if _, ok := c.Get(1); !ok {
		t.Fatal("expected key 1")
	}
	c.Set(3, "c")

	if _, ok := c.Get(2); ok {
		t.Fatal("key 2 should have been evicted")
	}
	if v, ok := c.Get(1); !ok || v != "a" {
		t.Fatalf("key 1 should survive, got %q %v", v, ok)
	}
	if c.Size() != 2 {
		t.Fatalf("expected size 2, got %d", c.Size())
	}
}

func TestLRUExpiry(t *testing.T) {
	c := NewLRU[string, int](10, time.Minute)
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return clock }

	c.Set("x", 1)
	c.Set("y", 2)
	clock = clock.Add(30 * time.Second)
	c.Set("y", 3)

	clock = clock.Add(45 * time.Second)
	if _, ok := c.Get("x"); ok {
		t.Fatal("x should have expired")
	}
	if v, ok := c.Get("y"); !ok || v != 3 {
		t.Fatalf("y refreshed by Set should live, got %d %v", v, ok)
	}

	clock = clock.Add(time.Minute)
	if n := c.CleanExpired(); n != 1 {
		t.Fatalf("expected 1 expired entry, got %d", n)
	}
	if c.Size() != 0 {
		t.Fatalf("expected empty cache, got %d", c.Size())
	}
}

func TestLRUDeleteAndPurge(t *testing.T) {
	c := NewLRU[int, int](0, 0)
	c.Set(1, 1)
	c.Delete(1)
	if c.Size() != 0 {
		t.Fatal("delete failed")
	}
	c.Set(2, 2)
	c.Purge()
	if _, ok := c.Get(2); ok || c.Size() != 0 {
		t.Fatal("purge failed")
	}
}

func TestManagerCleansRegisteredCaches(t *testing.T) {
	c := NewLRU[int, int](4, time.Minute)
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return clock }
	c.Set(1, 1)
	c.Set(2, 2)
	clock = clock.Add(2 * time.Minute)

	m := NewManager(nil)
	m.Register(c)
	if n := m.CleanNow(); n != 2 {
		t.Fatalf("expected 2 removed, got %d", n)
	}

	m.StartCleanup(time.Hour)
	m.StartCleanup(time.Hour)
	m.Stop()
	m.Stop()
}

func TestManagerStopWithoutStart(t *testing.T) {
	NewManager(nil).Stop()
}
