package kv

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStore_GetSet(t *testing.T) {
	s := New[string, int]()

	s.Set("foo", 42)
	val, ok := s.Get("foo")
	assert.True(t, ok)
	assert.Equal(t, 42, val)

	_, ok = s.Get("bar")
	assert.False(t, ok)
}

func TestStore_Delete(t *testing.T) {
	s := New[string, string]()
	s.Set("a", "1")
	s.Set("b", "2")

	s.Delete("a", "b", "missing")

	assert.Equal(t, 0, s.Len())
}

func TestStore_TTL(t *testing.T) {
	now := time.Unix(1000, 0)
	s := New[string, string]().WithClock(func() time.Time { return now })

	s.SetTTL("flag", "1", time.Minute)
	_, ok := s.Get("flag")
	assert.True(t, ok)

	exp, ok := s.ExpiresAt("flag")
	assert.True(t, ok)
	assert.Equal(t, now.Add(time.Minute), exp)

	now = now.Add(time.Minute)
	_, ok = s.Get("flag")
	assert.False(t, ok, "entry should expire exactly at its deadline")
	assert.Empty(t, s.Keys())
}

func TestStore_SetIfAbsent(t *testing.T) {
	now := time.Unix(1000, 0)
	s := New[string, string]().WithClock(func() time.Time { return now })

	assert.True(t, s.SetIfAbsent("lock", "1", time.Second))
	assert.False(t, s.SetIfAbsent("lock", "2", time.Second))

	v, _ := s.Get("lock")
	assert.Equal(t, "1", v)

	now = now.Add(2 * time.Second)
	assert.True(t, s.SetIfAbsent("lock", "3", time.Second), "expired entries can be replaced")
}

func TestStore_SetIfAbsentConcurrent(t *testing.T) {
	s := New[string, bool]()

	var wins atomic.Int32
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.SetIfAbsent("lock", true, time.Minute) {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
}
