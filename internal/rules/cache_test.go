// internal/rules/cache_test.go
package rules

import (
	"fmt"
	"sync"
	"testing"
)

func TestFIFOCache_EvictsOldest(t *testing.T) {
	c := NewFIFOCache[string, int]("test", 2)
	c.Put("a", 1)
	c.Put("b", 2)
	c.Put("c", 3)

	if _, ok := c.Get("a"); ok {
		t.Errorf("Get(a) found, want evicted")
	}
	if v, ok := c.Get("b"); !ok || v != 2 {
		t.Errorf("Get(b) = %d, %v, want 2, true", v, ok)
	}
	if v, ok := c.Get("c"); !ok || v != 3 {
		t.Errorf("Get(c) = %d, %v, want 3, true", v, ok)
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}
}

func TestFIFOCache_AccessDoesNotRefreshAge(t *testing.T) {
	c := NewFIFOCache[string, int]("test", 2)
	c.Put("a", 1)
	c.Put("b", 2)

	// Neither a hit nor an update moves "a" to the back.
	_, _ = c.Get("a")
	c.Put("a", 10)
	c.Put("c", 3)

	if _, ok := c.Get("a"); ok {
		t.Errorf("Get(a) found, want evicted as oldest insertion")
	}
	if _, ok := c.Get("b"); !ok {
		t.Errorf("Get(b) missing, want present")
	}
}

func TestFIFOCache_UpdateInPlace(t *testing.T) {
	c := NewFIFOCache[string, int]("test", 2)
	c.Put("a", 1)
	c.Put("a", 2)

	if v, _ := c.Get("a"); v != 2 {
		t.Errorf("Get(a) = %d, want 2", v)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
}

func TestFIFOCache_DefaultCapacity(t *testing.T) {
	c := NewFIFOCache[string, int]("test", 0)
	if c.Capacity() != DefaultCacheCapacity {
		t.Errorf("Capacity() = %d, want %d", c.Capacity(), DefaultCacheCapacity)
	}
}

func TestFIFOCache_Clear(t *testing.T) {
	c := NewFIFOCache[string, int]("test", 4)
	c.Put("a", 1)
	c.Put("b", 2)
	c.Clear()

	if c.Len() != 0 {
		t.Errorf("Len() after Clear = %d, want 0", c.Len())
	}
	c.Put("c", 3)
	if v, ok := c.Get("c"); !ok || v != 3 {
		t.Errorf("Get(c) after Clear = %d, %v, want 3, true", v, ok)
	}
}

func TestFIFOCache_ConcurrentPutStaysBounded(t *testing.T) {
	c := NewFIFOCache[string, int]("test", 50)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := fmt.Sprintf("%d-%d", g, i)
				c.Put(key, i)
				_, _ = c.Get(key)
			}
		}(g)
	}
	wg.Wait()

	if c.Len() > c.Capacity() {
		t.Errorf("Len() = %d exceeds capacity %d", c.Len(), c.Capacity())
	}
}

func TestResultCache_DefaultCapacity(t *testing.T) {
	c := NewResultCache(DefaultCacheCapacity)
	for i := 0; i < DefaultCacheCapacity+10; i++ {
		c.Put(ResultKey{Text: fmt.Sprint(i)}, "x")
	}
	if c.Len() != DefaultCacheCapacity {
		t.Errorf("Len() = %d, want %d", c.Len(), DefaultCacheCapacity)
	}
	if _, ok := c.Get(ResultKey{Text: "0"}); ok {
		t.Errorf("first entry still cached after overflow")
	}
}
