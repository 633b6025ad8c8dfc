package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestStore_GetOrLoad_UsesSingleFlight(t *testing.T) {
	t.Parallel()

	store := NewStore(nil)
	var calls atomic.Int32

	loader := func(context.Context) (any, error) {
		calls.Add(1)
		time.Sleep(20 * time.Millisecond)
		return "value", nil
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
			v, err := store.GetOrLoad(context.Background(), "same-key", time.Minute, loader)
			if err != nil {
				errCh <- err
				return
			}
			if got, _ := v.(string); got != "value" {
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

func TestStore_GetOrLoad_UsesCachedValueAfterFirstLoad(t *testing.T) {
	t.Parallel()

	store := NewStore(nil)
	var calls atomic.Int32

	loader := func(context.Context) (any, error) {
		calls.Add(1)
		return "cached", nil
	}

	if _, err := store.GetOrLoad(context.Background(), "k", time.Minute, loader); err != nil {
		t.Fatalf("first GetOrLoad error: %v", err)
	}
	if _, err := store.GetOrLoad(context.Background(), "k", time.Minute, loader); err != nil {
		t.Fatalf("second GetOrLoad error: %v", err)
	}

	if got := calls.Load(); got != 1 {
		t.Fatalf("loader called %d times, want 1", got)
	}
}

func TestStore_GetOrLoad_ServesStaleOnLoaderFailure(t *testing.T) {
	t.Parallel()

	store := NewStore(nil)
	now := time.Date(2026, 6, 14, 18, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	store.Set("matches", "old-value", time.Minute)
	now = now.Add(70 * time.Second)

	if _, ok := store.Get("matches"); ok {
		t.Fatal("expected expired entry to miss on Get")
	}

	v, err := store.GetOrLoad(context.Background(), "matches", time.Minute, func(context.Context) (any, error) {
		return nil, errors.New("upstream down")
	})
	if err != nil {
		t.Fatalf("expected stale fallback, got error: %v", err)
	}
	if got, _ := v.(string); got != "old-value" {
		t.Fatalf("unexpected stale value: %v", v)
	}
}

func TestStore_GetOrLoad_ErrorWithoutPreviousValuePropagates(t *testing.T) {
	t.Parallel()

	store := NewStore(nil)
	wantErr := errors.New("upstream down")

	_, err := store.GetOrLoad(context.Background(), "empty", time.Minute, func(context.Context) (any, error) {
		return nil, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected loader error, got %v", err)
	}

	if _, ok := store.Get("empty"); ok {
		t.Fatal("failed load must not create an entry")
	}
}

func TestStore_Invalidate_DropsEntryAndBlocksResurrection(t *testing.T) {
	t.Parallel()

	store := NewStore(nil)
	release := make(chan struct{})
	started := make(chan struct{})

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = store.GetOrLoad(context.Background(), "k", time.Minute, func(context.Context) (any, error) {
			close(started)
			<-release
			return "late", nil
		})
	}()

	<-started
	store.Invalidate("k")
	close(release)
	<-done

	if _, ok := store.Get("k"); ok {
		t.Fatal("invalidated key must not be resurrected by an in-flight fetch")
	}
}

func TestStore_AbandonedCallerStillPopulatesCache(t *testing.T) {
	t.Parallel()

	store := NewStore(nil)
	release := make(chan struct{})
	started := make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := store.GetOrLoad(ctx, "k", time.Minute, func(context.Context) (any, error) {
			close(started)
			<-release
			return "value", nil
		})
		errCh <- err
	}()

	<-started
	cancel()
	if err := <-errCh; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	close(release)

	deadline := time.Now().Add(time.Second)
	for {
		if v, ok := store.Get("k"); ok {
			if got, _ := v.(string); got != "value" {
				t.Fatalf("unexpected cached value: %v", v)
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("in-flight fetch did not populate the cache after caller abandoned")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestStore_Stats(t *testing.T) {
	t.Parallel()

	store := NewStore(nil)
	now := time.Date(2026, 6, 14, 18, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	store.Set("matches", "v", time.Minute)
	now = now.Add(10 * time.Second)

	stats := store.Stats()
	stat, ok := stats["matches"]
	if !ok {
		t.Fatal("expected stats entry for matches")
	}
	if stat.Age != 10*time.Second {
		t.Fatalf("unexpected age: %s", stat.Age)
	}
	if stat.Expired {
		t.Fatal("entry should not be expired yet")
	}

	now = now.Add(55 * time.Second)
	if !store.Stats()["matches"].Expired {
		t.Fatal("entry should be expired after the TTL elapsed")
	}
}

func TestStore_BackgroundRefreshKeepsEntryFresh(t *testing.T) {
	t.Parallel()

	store := NewStore(nil)
	store.refreshFloor = 30 * time.Millisecond

	var calls atomic.Int32
	loader := func(context.Context) (any, error) {
		return int(calls.Add(1)), nil
	}

	if _, err := store.GetOrLoad(context.Background(), "k", 40*time.Millisecond, loader); err != nil {
		t.Fatalf("GetOrLoad error: %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for calls.Load() < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("background refresh never fired, loader calls=%d", calls.Load())
		}
		time.Sleep(5 * time.Millisecond)
	}

	if _, ok := store.Get("k"); !ok {
		t.Fatal("refreshed entry should still be readable")
	}
}

var errUnexpectedValue = errors.New("unexpected loaded value")
