package store

import (
	"context"
	"os"
	"testing"
)

// These tests need a running server and are skipped unless the matching
// environment variable is set, e.g.
//
//	TEST_REDIS_URL=redis://localhost:6379/15 go test ./internal/store
func TestRedisStore(t *testing.T) {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}

	s, err := NewRedisStore(context.Background(), url)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })

	testKVStore(t, s, "vmeet-test-")
	// Fewer workers than retries, so optimistic retries always succeed.
	testConcurrentUpdates(t, s, "vmeet-test-counter", maxUpdateRetries/2)
}

func TestPostgresStore(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	s, err := NewPostgresStore(context.Background(), url)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })

	testKVStore(t, s, "vmeet-test-")
	testConcurrentUpdates(t, s, "vmeet-test-counter", 20)
}
