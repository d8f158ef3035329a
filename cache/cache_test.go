package cache

import (
	"fmt"
	"testing"
	"time"
)

func TestCache_OldestFirstEviction(t *testing.T) {
	c := New[int](1000)
	for i := 0; i < 1001; i++ {
		c.Put(fmt.Sprintf("key-%d", i), i)
	}
	if got := c.Len(); got != 1000 {
		t.Fatalf("expected 1000 entries after overflow, got %d", got)
	}
	if _, ok := c.Get("key-0"); ok {
		t.Fatalf("expected first-inserted key to be evicted")
	}
	if v, ok := c.Get("key-1000"); !ok || v != 1000 {
		t.Fatalf("expected newest key to survive, got %v %v", v, ok)
	}
}

func TestCache_PutExistingDoesNotGrow(t *testing.T) {
	c := New[string](10)
	c.Put("a", "one")
	c.Put("a", "two")
	if got := c.Len(); got != 1 {
		t.Fatalf("expected 1 entry, got %d", got)
	}
	if v, _ := c.Get("a"); v != "two" {
		t.Fatalf("expected updated value, got %q", v)
	}
}

func TestCache_TTLExpiryIsMiss(t *testing.T) {
	now := time.Now()
	c := NewTTL[string](10, time.Hour)
	c.now = func() time.Time { return now }

	c.Put("k", "v")
	if _, ok := c.Get("k"); !ok {
		t.Fatalf("expected hit before expiry")
	}

	now = now.Add(24*time.Hour + time.Minute)
	if _, ok := c.Get("k"); ok {
		t.Fatalf("expected miss after ttl elapsed")
	}
}

func TestCache_OverflowSweepPurgesExpiredFirst(t *testing.T) {
	now := time.Now()
	c := NewTTL[int](3, time.Hour)
	c.now = func() time.Time { return now }

	c.Put("a", 1)
	c.Put("b", 2)
	now = now.Add(2 * time.Hour) // a and b now expired
	c.Put("c", 3)
	c.Put("d", 4) // overflow: sweep removes a and b, no live eviction

	if got := c.Len(); got != 2 {
		t.Fatalf("expected sweep to shrink cache to 2 live entries, got %d", got)
	}
	if _, ok := c.Get("c"); !ok {
		t.Fatalf("expected live entry c to survive the sweep")
	}
	if _, ok := c.Get("d"); !ok {
		t.Fatalf("expected live entry d to survive the sweep")
	}
}

func TestKey_NormalizesWhitespace(t *testing.T) {
	if Key("board reviews finances") != Key("board\n reviews \tfinances") {
		t.Fatalf("expected whitespace-insensitive keys")
	}
	if Key("board reviews finances") == Key("board reviews budgets") {
		t.Fatalf("expected distinct keys for distinct content")
	}
}
