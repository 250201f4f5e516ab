package utils

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestKeySetNoDuplicates(t *testing.T) {
	s := NewKeySet()

	added := s.Add("listing-1")
	if !added {
		t.Error("first Add should return true")
	}

	added = s.Add("listing-1")
	if added {
		t.Error("second Add of same key should return false")
	}

	if s.Size() != 1 {
		t.Errorf("size: got %d, want 1", s.Size())
	}
}

func TestKeySetConcurrency(t *testing.T) {
	s := NewKeySet()
	var added int64

	pool := NewWorkerPool(10, 0)
	for i := 0; i < 100; i++ {
		key := "1 Main St, Hempstead, NY 11550|400000"
		pool.Submit(func() {
			if s.Add(key) {
				atomic.AddInt64(&added, 1)
			}
		})
	}
	pool.Wait()

	if added != 1 {
		t.Errorf("expected exactly 1 successful add, got %d", added)
	}
}

func TestWorkerPoolRateLimit(t *testing.T) {
	rateLimitMs := 100
	pool := NewWorkerPool(1, rateLimitMs)

	var timestamps []time.Time
	mu := make(chan struct{}, 1)
	mu <- struct{}{}

	for i := 0; i < 3; i++ {
		pool.Submit(func() {
			<-mu
			timestamps = append(timestamps, time.Now())
			mu <- struct{}{}
		})
	}
	pool.Wait()

	for i := 1; i < len(timestamps); i++ {
		gap := timestamps[i].Sub(timestamps[i-1])
		min := time.Duration(rateLimitMs) * time.Millisecond
		if gap < min {
			t.Errorf("gap between job %d and %d: %v < minimum %v", i-1, i, gap, min)
		}
	}
}

func TestWorkerPoolBound(t *testing.T) {
	const maxWorkers = 6
	pool := NewWorkerPool(maxWorkers, 0)

	var current, peak int64
	for i := 0; i < 40; i++ {
		pool.Submit(func() {
			n := atomic.AddInt64(&current, 1)
			for {
				p := atomic.LoadInt64(&peak)
				if n <= p || atomic.CompareAndSwapInt64(&peak, p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt64(&current, -1)
		})
	}
	pool.Wait()

	if peak > maxWorkers {
		t.Errorf("observed %d concurrent jobs, want at most %d", peak, maxWorkers)
	}
}

func TestWorkerPoolPanicIsolation(t *testing.T) {
	pool := NewWorkerPool(2, 0)

	var panics, completed int64
	pool.OnPanic(func(any) { atomic.AddInt64(&panics, 1) })

	for i := 0; i < 10; i++ {
		i := i
		pool.Submit(func() {
			if i%2 == 0 {
				panic("worker blew up")
			}
			atomic.AddInt64(&completed, 1)
		})
	}
	pool.Wait()

	if panics != 5 {
		t.Errorf("panics: got %d, want 5", panics)
	}
	if completed != 5 {
		t.Errorf("completed jobs: got %d, want 5", completed)
	}
}
