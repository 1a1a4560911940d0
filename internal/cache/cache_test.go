package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestLRUCache(t *testing.T) {
	c := NewLRU[string](2, time.Hour)

	c.Set("key1", "test")

	got, found := c.Get("key1")
	if !found {
		t.Fatal("Get(key1) not found")
	}
	if got != "test" {
		t.Errorf("Get(key1) = %v, want test", got)
	}

	if _, found := c.Get("nonexistent"); found {
		t.Error("Get(nonexistent) found, want miss")
	}
}

func TestLRUEviction(t *testing.T) {
	c := NewLRU[int](2, time.Hour)

	c.Set("key1", 1)
	c.Set("key2", 2)
	c.Get("key1")    // key2 is now least recently used
	c.Set("key3", 3) // Evicts key2

	if _, found := c.Get("key2"); found {
		t.Error("key2 should be evicted")
	}
	if _, found := c.Get("key1"); !found {
		t.Error("key1 should exist")
	}
	if _, found := c.Get("key3"); !found {
		t.Error("key3 should exist")
	}
}

func TestLRUExpiration(t *testing.T) {
	c := NewLRU[int](10, time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set("key1", 1)
	now = now.Add(2 * time.Minute)

	if _, found := c.Get("key1"); found {
		t.Error("key1 should be expired")
	}
	if got := c.Stats().Entries; got != 0 {
		t.Errorf("Entries = %d after expiry, want 0", got)
	}
}

func TestLRUZeroTTLNeverExpires(t *testing.T) {
	c := NewLRU[int](10, 0)
	now := time.Now()
	c.now = func() time.Time { return now }

	c.Set("key1", 1)
	now = now.Add(365 * 24 * time.Hour)

	if _, found := c.Get("key1"); !found {
		t.Error("key1 should not expire with zero ttl")
	}
}

func TestLRUClear(t *testing.T) {
	c := NewLRU[int](10, time.Hour)

	c.Set("key1", 1)
	c.Set("key2", 2)
	c.Clear()

	if stats := c.Stats(); stats.Entries != 0 {
		t.Errorf("Entries after Clear() = %d, want 0", stats.Entries)
	}
}

func TestLRUStats(t *testing.T) {
	c := NewLRU[int](10, time.Hour)

	c.Set("key1", 1)
	c.Get("key1")        // hit
	c.Get("key1")        // hit
	c.Get("nonexistent") // miss

	stats := c.Stats()
	if stats.Hits != 2 {
		t.Errorf("Hits = %d, want 2", stats.Hits)
	}
	if stats.Misses != 1 {
		t.Errorf("Misses = %d, want 1", stats.Misses)
	}
}

func TestLRUConcurrent(t *testing.T) {
	c := NewLRU[int](50, time.Hour)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := fmt.Sprintf("key-%d", i%100)
				if i%2 == g%2 {
					c.Set(key, i)
				} else {
					c.Get(key)
				}
			}
		}(g)
	}
	wg.Wait()

	if n := c.Stats().Entries; n > 50 {
		t.Errorf("Entries = %d, want <= 50", n)
	}
}

func TestKey(t *testing.T) {
	key1 := Key("a.py", []byte("x = 1"), "r1")
	key2 := Key("a.py", []byte("x = 1"), "r1")

	if key1 != key2 {
		t.Error("Same input should have same key")
	}

	different := map[string]string{
		"content": Key("a.py", []byte("x = 2"), "r1"),
		"path":    Key("b.py", []byte("x = 1"), "r1"),
		"salt":    Key("a.py", []byte("x = 1"), "r2"),
		// Separators keep the parts from running together.
		"boundary": Key("a.py", []byte("x = 1"), "r1\x00"),
	}
	for name, k := range different {
		if k == key1 {
			t.Errorf("changing %s should change the key", name)
		}
	}

	// Key should be 64 chars (SHA-256 hex)
	if len(key1) != 64 {
		t.Errorf("Key length = %d, want 64", len(key1))
	}
}
