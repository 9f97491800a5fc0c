package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestCache_PutGet(t *testing.T) {
	dir := t.TempDir()
	c, err := New(true, dir, 86400)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	key := "test-key"
	value := `{"findings":[],"summary":"ok"}`

	if _, ok := c.Get(key); ok {
		t.Error("Expected cache miss before put")
	}
	if err := c.Put(key, value); err != nil {
		t.Fatalf("Put error: %v", err)
	}
	got, ok := c.Get(key)
	if !ok {
		t.Fatal("Expected cache hit after put")
	}
	if got != value {
		t.Errorf("Got = %q, want %q", got, value)
	}
}

func TestCache_PutLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	c, err := New(true, dir, 0)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if err := c.Put("k", "v"); err != nil {
		t.Fatalf("Put error: %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 || filepath.Ext(entries[0].Name()) != ".json" {
		t.Errorf("unexpected directory contents: %v", entries)
	}
}

func TestCache_TTLExpiration(t *testing.T) {
	dir := t.TempDir()
	c, err := New(true, dir, 60)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	if err := c.Put("expire-test", "data"); err != nil {
		t.Fatalf("Put error: %v", err)
	}
	if _, ok := c.Get("expire-test"); !ok {
		t.Error("Expected cache hit before expiration")
	}

	now = now.Add(61 * time.Second)
	stats, err := c.GetStats()
	if err != nil {
		t.Fatalf("GetStats error: %v", err)
	}
	if stats.Expired != 1 {
		t.Errorf("Expired = %d, want 1", stats.Expired)
	}
	if _, ok := c.Get("expire-test"); ok {
		t.Error("Expected cache miss after TTL expiration")
	}
}

func TestCache_Disabled(t *testing.T) {
	c, err := New(false, "", 0)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if c.Enabled() {
		t.Error("Cache should be disabled")
	}
	if err := c.Put("key", "value"); err != nil {
		t.Errorf("Put on disabled cache should not error: %v", err)
	}
	if _, ok := c.Get("key"); ok {
		t.Error("Get on disabled cache should always miss")
	}
	if n, err := c.Clear(); err != nil || n != 0 {
		t.Errorf("Clear on disabled cache = (%d, %v), want (0, nil)", n, err)
	}
}

func TestCache_Clear(t *testing.T) {
	dir := t.TempDir()
	c, err := New(true, dir, 86400)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	for i := 0; i < 5; i++ {
		if err := c.Put(string(rune('a'+i)), "data"); err != nil {
			t.Fatalf("Put error: %v", err)
		}
	}

	n, err := c.Clear()
	if err != nil {
		t.Fatalf("Clear error: %v", err)
	}
	if n != 5 {
		t.Errorf("Clear removed %d, want 5", n)
	}
	stats, _ := c.GetStats()
	if stats.Entries != 0 {
		t.Errorf("Expected 0 cache entries after clear, got %d", stats.Entries)
	}
}

func TestCache_GetStats(t *testing.T) {
	dir := t.TempDir()
	c, err := New(true, dir, 86400)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	c.Put("key1", "value1")
	c.Put("key2", "value2")

	stats, err := c.GetStats()
	if err != nil {
		t.Fatalf("GetStats error: %v", err)
	}
	if stats.Entries != 2 {
		t.Errorf("Entries = %d, want 2", stats.Entries)
	}
	if stats.TotalBytes <= 0 {
		t.Error("TotalBytes should be > 0")
	}
	if stats.Dir != dir {
		t.Errorf("Dir = %q, want %q", stats.Dir, dir)
	}
}

func TestBuildKey(t *testing.T) {
	base := BuildKey("anthropic", "m", "system", "user", 2048)
	if base != BuildKey("anthropic", "m", "system", "user", 2048) {
		t.Error("Same inputs should produce same cache key")
	}
	if len(base) != 64 {
		t.Errorf("key length = %d, want 64", len(base))
	}
	variants := []string{
		BuildKey("openai", "m", "system", "user", 2048),
		BuildKey("anthropic", "other", "system", "user", 2048),
		BuildKey("anthropic", "m", "system2", "user", 2048),
		BuildKey("anthropic", "m", "system", "user2", 2048),
		BuildKey("anthropic", "m", "system", "user", 1024),
	}
	for i, v := range variants {
		if v == base {
			t.Errorf("variant %d collided with base key", i)
		}
	}
}
