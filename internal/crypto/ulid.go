package crypto

import (
	"github.com/oklog/ulid/v2"
)

// NewEventID generates a lexically sortable identifier for a change notification.
func NewEventID() string {
	return ulid.Make().String()
}
