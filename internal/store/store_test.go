package store

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
)

// testKVStore exercises the behavior every backend shares. Keys are prefixed
// so the suite can run against a shared Redis or Postgres instance.
func testKVStore(t *testing.T, s KVStore, prefix string) {
	t.Helper()
	ctx := context.Background()
	key := prefix + "key"
	s.Delete(ctx, key)
	t.Cleanup(func() { s.Delete(ctx, key) })

	if err := s.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}

	if _, ok, err := s.Get(ctx, key); err != nil || ok {
		t.Fatalf("missing key: ok=%v err=%v", ok, err)
	}

	if err := s.Set(ctx, key, "one"); err != nil {
		t.Fatal(err)
	}
	if v, ok, err := s.Get(ctx, key); err != nil || !ok || v != "one" {
		t.Fatalf("after set: v=%q ok=%v err=%v", v, ok, err)
	}

	if err := s.Set(ctx, key, "two"); err != nil {
		t.Fatal(err)
	}
	if v, _, _ := s.Get(ctx, key); v != "two" {
		t.Fatalf("expected overwrite to %q, got %q", "two", v)
	}

	err := s.Update(ctx, key, func(old string, ok bool) (string, error) {
		if !ok || old != "two" {
			t.Fatalf("update saw old=%q ok=%v", old, ok)
		}
		return old + "+", nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if v, _, _ := s.Get(ctx, key); v != "two+" {
		t.Fatalf("after update: got %q", v)
	}

	errAbort := errors.New("abort")
	err = s.Update(ctx, key, func(old string, ok bool) (string, error) {
		return "discarded", errAbort
	})
	if err != errAbort {
		t.Fatalf("expected fn error passed through unchanged, got %v", err)
	}
	if v, _, _ := s.Get(ctx, key); v != "two+" {
		t.Fatalf("aborted update changed value to %q", v)
	}

	if err := s.Delete(ctx, key); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := s.Get(ctx, key); ok {
		t.Fatal("key still present after delete")
	}
	if err := s.Delete(ctx, key); err != nil {
		t.Fatalf("deleting a missing key: %v", err)
	}
}

// testConcurrentUpdates checks that no increment is lost when workers update
// the same key at once.
func testConcurrentUpdates(t *testing.T, s KVStore, key string, workers int) {
	t.Helper()
	ctx := context.Background()
	s.Delete(ctx, key)
	t.Cleanup(func() { s.Delete(ctx, key) })

	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- s.Update(ctx, key, func(old string, ok bool) (string, error) {
				n := 0
				if ok {
					var err error
					if n, err = strconv.Atoi(old); err != nil {
						return "", err
					}
				}
				return strconv.Itoa(n + 1), nil
			})
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent update: %v", err)
		}
	}
	if v, _, _ := s.Get(ctx, key); v != strconv.Itoa(workers) {
		t.Fatalf("expected counter %d, got %q", workers, v)
	}
}
