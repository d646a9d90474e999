package vmeet

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// DefaultPollInterval is how often a Watcher re-lists rooms on its own.
	DefaultPollInterval = 3 * time.Second
	// DefaultKeepAliveInterval is how often an active call refreshes its room.
	DefaultKeepAliveInterval = 30 * time.Second
)

// Event is a change notification from the server's event stream.
type Event struct {
	ID string `json:"id"`
	At int64  `json:"at"`
}

// Watcher keeps a room list fresh. It re-lists on a fixed interval and
// immediately whenever the server's event stream reports a change.
type Watcher struct {
	Client   *Client
	Interval time.Duration

	// OnRooms receives every successful listing.
	OnRooms func([]Room)
	// OnError receives listing and stream errors. Optional.
	OnError func(error)
}

// Run blocks until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	interval := w.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	changed := make(chan struct{}, 1)
	go w.stream(ctx, interval, changed)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	w.refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		case <-changed:
		}
		w.refresh(ctx)
	}
}

func (w *Watcher) refresh(ctx context.Context) {
	rooms, err := w.Client.ListRooms(ctx)
	if err != nil {
		if ctx.Err() == nil {
			w.report(err)
		}
		return
	}
	if w.OnRooms != nil {
		w.OnRooms(rooms)
	}
}

// stream follows the event stream, reconnecting after retry, and signals
// changed for each event. Polling keeps the list fresh while disconnected.
func (w *Watcher) stream(ctx context.Context, retry time.Duration, changed chan<- struct{}) {
	for {
		if err := w.follow(ctx, changed); err != nil && ctx.Err() == nil {
			w.report(err)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(retry):
		}
	}
}

func (w *Watcher) follow(ctx context.Context, changed chan<- struct{}) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, w.Client.EventsURL(), http.Header{})
	if err != nil {
		return err
	}
	defer conn.Close()

	// Unblock ReadJSON when ctx ends.
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	for {
		var evt Event
		if err := conn.ReadJSON(&evt); err != nil {
			return err
		}
		select {
		case changed <- struct{}{}:
		default:
			// a refresh is already pending
		}
	}
}

func (w *Watcher) report(err error) {
	if w.OnError != nil {
		w.OnError(err)
	}
}

// EventsURL returns the websocket URL of the event stream.
func (c *Client) EventsURL() string {
	base := c.BaseURL
	switch {
	case strings.HasPrefix(base, "https://"):
		base = "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}
	return strings.TrimSuffix(base, "/") + "/events"
}

// KeepAliveLoop refreshes roomID every interval until ctx is done, keeping
// the room listed for the duration of a call. Errors go to onError when set.
func (c *Client) KeepAliveLoop(ctx context.Context, roomID string, interval time.Duration, onError func(error)) {
	if interval <= 0 {
		interval = DefaultKeepAliveInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := c.KeepAlive(ctx, roomID); err != nil && ctx.Err() == nil && onError != nil {
				onError(err)
			}
		}
	}
}
