package notify

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func receive(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case evt, ok := <-ch:
		if !ok {
			t.Fatal("channel closed")
		}
		return evt
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	return Event{}
}

func TestLocalFanOut(t *testing.T) {
	l := NewLocal()
	a, cancelA := l.Subscribe()
	defer cancelA()
	b, cancelB := l.Subscribe()
	defer cancelB()

	if n := l.Subscribers(); n != 2 {
		t.Fatalf("expected 2 subscribers, got %d", n)
	}

	evt := Event{ID: "01HZZZZZZZZZZZZZZZZZZZZZZZ", At: 42}
	if err := l.Publish(context.Background(), evt); err != nil {
		t.Fatal(err)
	}
	if got := receive(t, a); got != evt {
		t.Fatalf("subscriber a: expected %+v, got %+v", evt, got)
	}
	if got := receive(t, b); got != evt {
		t.Fatalf("subscriber b: expected %+v, got %+v", evt, got)
	}
}

func TestLocalCancel(t *testing.T) {
	l := NewLocal()
	ch, cancel := l.Subscribe()
	cancel()
	cancel() // idempotent

	if n := l.Subscribers(); n != 0 {
		t.Fatalf("expected 0 subscribers, got %d", n)
	}
	if _, ok := <-ch; ok {
		t.Fatal("expected closed channel after cancel")
	}
	if err := l.Publish(context.Background(), Event{At: 1}); err != nil {
		t.Fatal(err)
	}
}

func TestLocalSlowSubscriberDoesNotBlock(t *testing.T) {
	l := NewLocal()
	ch, cancel := l.Subscribe()
	defer cancel()

	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer*3; i++ {
			l.Publish(context.Background(), Event{At: int64(i)})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}
	if len(ch) != subscriberBuffer {
		t.Fatalf("expected a full buffer of %d, got %d", subscriberBuffer, len(ch))
	}
}

func TestRedisRoundTrip(t *testing.T) {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		t.Fatal(err)
	}
	client := redis.NewClient(opts)
	defer client.Close()

	ctx := context.Background()
	sender, err := NewRedis(ctx, client, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	defer sender.Close()
	receiver, err := NewRedis(ctx, client, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	defer receiver.Close()

	ch, cancel := receiver.Subscribe()
	defer cancel()

	evt := Event{ID: "01J0000000000000000000TEST", At: time.Now().UnixMilli()}
	if err := sender.Publish(ctx, evt); err != nil {
		t.Fatal(err)
	}
	if got := receive(t, ch); got != evt {
		t.Fatalf("expected %+v, got %+v", evt, got)
	}
}
