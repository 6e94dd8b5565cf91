package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestStore_GetOrLoad_DeduplicatesConcurrentLoads(t *testing.T) {
	t.Parallel()

	store := NewStore[string](time.Minute)
	var calls atomic.Int32

	loader := func(context.Context) (string, error) {
		calls.Add(1)
		time.Sleep(20 * time.Millisecond)
		return "brazil", nil
	}

	const workers = 32
	start := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(workers)
	errCh := make(chan error, workers)

	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			<-start
			v, err := store.GetOrLoad(context.Background(), "team:id:bra", loader)
			if err != nil {
				errCh <- err
				return
			}
			if v != "brazil" {
				errCh <- errUnexpectedValue
			}
		}()
	}

	close(start)
	wg.Wait()
	close(errCh)
	for err := range errCh {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if got := calls.Load(); got != 1 {
		t.Fatalf("loader called %d times, want 1", got)
	}
}

func TestStore_GetOrLoad_DoesNotCacheErrors(t *testing.T) {
	t.Parallel()

	store := NewStore[int](time.Minute)
	var calls atomic.Int32
	boom := errors.New("boom")

	loader := func(context.Context) (int, error) {
		if calls.Add(1) == 1 {
			return 0, boom
		}
		return 7, nil
	}

	if _, err := store.GetOrLoad(t.Context(), "k", loader); !errors.Is(err, boom) {
		t.Fatalf("expected loader error, got %v", err)
	}
	v, err := store.GetOrLoad(t.Context(), "k", loader)
	if err != nil || v != 7 {
		t.Fatalf("expected 7 after retry, got %d %v", v, err)
	}
	if v, _ := store.GetOrLoad(t.Context(), "k", loader); v != 7 || calls.Load() != 2 {
		t.Fatalf("expected cached value without extra load, calls=%d", calls.Load())
	}
}

func TestStore_ExpiryAndDelete(t *testing.T) {
	store := NewStore[string](time.Minute)
	now := time.Date(2026, 6, 11, 18, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	store.Set(t.Context(), "team:id:a", "a")
	store.Set(t.Context(), "team:tournament:x", "x")
	store.Set(t.Context(), "team:tournament:y", "y")

	if _, ok := store.Get(t.Context(), "team:id:a"); !ok {
		t.Fatalf("expected fresh entry")
	}

	store.DeletePrefix(t.Context(), "team:tournament:")
	if store.Len() != 1 {
		t.Fatalf("expected prefix delete to leave one entry, got %d", store.Len())
	}

	now = now.Add(2 * time.Minute)
	if _, ok := store.Get(t.Context(), "team:id:a"); ok {
		t.Fatalf("expected expired entry to miss")
	}
	if store.Len() != 0 {
		t.Fatalf("expected expired entry to be evicted")
	}
}

var errUnexpectedValue = errors.New("unexpected loaded value")
