package crypto

import (
	"testing"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

func TestNewRoomID(t *testing.T) {
	a, b := NewRoomID(), NewRoomID()
	if a == b {
		t.Fatal("room ids should be unique")
	}
	id, err := uuid.Parse(a)
	if err != nil {
		t.Fatal(err)
	}
	if id.Version() != 7 {
		t.Fatalf("expected UUID v7, got v%d", id.Version())
	}
}

func TestNewEventIDSortable(t *testing.T) {
	prev := NewEventID()
	if _, err := ulid.ParseStrict(prev); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 100; i++ {
		next := NewEventID()
		if next <= prev {
			t.Fatalf("event ids out of order: %s then %s", prev, next)
		}
		prev = next
	}
}
