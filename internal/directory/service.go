// Package directory implements the room directory: the list of known rooms,
// its visibility expiry, and the change notifications sent on every mutation.
//
// Every operation is fail-soft. Storage faults and malformed stored data are
// logged and reported as an empty result or a false return; they never reach
// the caller as errors.
package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Dino-is-real/vmeet-v2/internal/crypto"
	"github.com/Dino-is-real/vmeet-v2/internal/metrics"
	"github.com/Dino-is-real/vmeet-v2/internal/models"
	"github.com/Dino-is-real/vmeet-v2/internal/notify"
	"github.com/Dino-is-real/vmeet-v2/internal/store"
)

const (
	// RoomsKey holds the JSON array of rooms.
	RoomsKey = "v-meet-rooms-global"
	// UpdatedKey holds the Unix ms time of the last mutation.
	UpdatedKey = "v-meet-rooms-updated"

	// DefaultExpiry is how long a room stays visible without an update.
	DefaultExpiry = time.Hour

	// SampleRoomPrefix marks the permanent seed rooms.
	SampleRoomPrefix = "sample-room-"
)

var (
	errRoomNotFound  = errors.New("room not found")
	errSeedNotNeeded = errors.New("directory not empty")
)

// SampleRooms returns the rooms seeded into an empty directory.
func SampleRooms() []models.Room {
	return []models.Room{
		{ID: "sample-room-1", Name: "General Discussion"},
		{ID: "sample-room-2", Name: "Team Meeting"},
		{ID: "sample-room-3", Name: "Coffee Break"},
	}
}

// IsSampleRoom reports whether id names a seed room. Callers are expected to
// refuse deleting these.
func IsSampleRoom(id string) bool {
	return strings.HasPrefix(id, SampleRoomPrefix)
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLogger sets the logger used for storage faults.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithExpiry sets the visibility window.
func WithExpiry(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.expiry = d
		}
	}
}

// WithSeedRooms replaces the rooms seeded into an empty directory.
func WithSeedRooms(rooms []models.Room) Option {
	return func(s *Service) { s.seeds = rooms }
}

// Service is the room directory.
type Service struct {
	kv       store.KVStore
	notifier notify.Notifier
	now      func() time.Time
	logger   zerolog.Logger
	expiry   time.Duration
	seeds    []models.Room

	seedMu sync.Mutex
	seeded bool
}

// NewService creates a directory over kv. notifier may be nil, in which case
// only the UpdatedKey signal is written.
func NewService(kv store.KVStore, notifier notify.Notifier, opts ...Option) *Service {
	s := &Service{
		kv:       kv,
		notifier: notifier,
		now:      time.Now,
		logger:   zerolog.Nop(),
		expiry:   DefaultExpiry,
		seeds:    SampleRooms(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Expiry returns the visibility window.
func (s *Service) Expiry() time.Duration {
	return s.expiry
}

// ListRooms returns the rooms updated within the expiry window, in storage order.
func (s *Service) ListRooms(ctx context.Context) []models.Room {
	s.ensureSeeded(ctx)

	rooms, err := s.load(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list rooms")
		metrics.DirectoryOps.WithLabelValues("list", "error").Inc()
		return []models.Room{}
	}

	visible := s.visible(rooms, s.nowMillis())
	metrics.DirectoryOps.WithLabelValues("list", "ok").Inc()
	metrics.VisibleRooms.Set(float64(len(visible)))
	return visible
}

// GetRoom looks id up among the visible rooms.
func (s *Service) GetRoom(ctx context.Context, id string) (models.Room, bool) {
	for _, room := range s.ListRooms(ctx) {
		if room.ID == id {
			return room, true
		}
	}
	return models.Room{}, false
}

// CreateOrUpdateRoom upserts room by id. An existing room keeps its createdAt;
// a non-empty name and the participant count from room replace the stored
// ones. An empty id is replaced with a generated one.
func (s *Service) CreateOrUpdateRoom(ctx context.Context, room models.Room) bool {
	_, ok := s.upsert(ctx, "upsert", room)
	return ok
}

// CreateRoom adds a new room with a generated id and returns it.
func (s *Service) CreateRoom(ctx context.Context, name string) (models.Room, bool) {
	return s.upsert(ctx, "create", models.Room{ID: crypto.NewRoomID(), Name: name})
}

func (s *Service) upsert(ctx context.Context, op string, room models.Room) (models.Room, bool) {
	s.ensureSeeded(ctx)

	if room.ID == "" {
		room.ID = crypto.NewRoomID()
	}

	var result models.Room
	now, err := s.mutate(ctx, func(rooms []models.Room, now int64) ([]models.Room, error) {
		rooms, result = upsertRoom(rooms, room, now)
		return rooms, nil
	})
	if err != nil {
		s.logger.Error().Err(err).Str("room_id", room.ID).Msg("failed to save room")
		metrics.DirectoryOps.WithLabelValues(op, "error").Inc()
		return models.Room{}, false
	}

	s.broadcast(ctx, now)
	metrics.DirectoryOps.WithLabelValues(op, "ok").Inc()
	return result, true
}

// DeleteRoom removes id from the stored collection. Deleting an unknown id
// still succeeds.
func (s *Service) DeleteRoom(ctx context.Context, id string) bool {
	s.ensureSeeded(ctx)

	now, err := s.mutate(ctx, func(rooms []models.Room, now int64) ([]models.Room, error) {
		kept := rooms[:0]
		for _, r := range rooms {
			if r.ID != id {
				kept = append(kept, r)
			}
		}
		return kept, nil
	})
	if err != nil {
		s.logger.Error().Err(err).Str("room_id", id).Msg("failed to delete room")
		metrics.DirectoryOps.WithLabelValues("delete", "error").Inc()
		return false
	}

	s.broadcast(ctx, now)
	metrics.DirectoryOps.WithLabelValues("delete", "ok").Inc()
	return true
}

// UpdateParticipants adds delta to a visible room's participant count,
// clamping at zero, and refreshes lastUpdated. A zero delta is a keep-alive.
// Unknown or expired ids fail without creating anything.
func (s *Service) UpdateParticipants(ctx context.Context, id string, delta int) bool {
	_, ok := s.updateParticipants(ctx, "participants", id, delta)
	return ok
}

func (s *Service) updateParticipants(ctx context.Context, op, id string, delta int) (models.Room, bool) {
	s.ensureSeeded(ctx)

	var result models.Room
	now, err := s.mutate(ctx, func(rooms []models.Room, now int64) ([]models.Room, error) {
		i := indexOf(rooms, id)
		if i < 0 || !s.isVisible(rooms[i], now) {
			return nil, errRoomNotFound
		}
		r := rooms[i]
		r.Participants = clampParticipants(r.Participants + delta)
		r.LastUpdated = touch(r.LastUpdated, now)
		rooms[i] = r
		result = r
		return rooms, nil
	})
	if errors.Is(err, errRoomNotFound) {
		s.logger.Debug().Str("room_id", id).Int("delta", delta).Msg("participant update for unknown room")
		metrics.DirectoryOps.WithLabelValues(op, "not_found").Inc()
		return models.Room{}, false
	}
	if err != nil {
		s.logger.Error().Err(err).Str("room_id", id).Int("delta", delta).Msg("failed to update participants")
		metrics.DirectoryOps.WithLabelValues(op, "error").Inc()
		return models.Room{}, false
	}

	s.broadcast(ctx, now)
	metrics.DirectoryOps.WithLabelValues(op, "ok").Inc()
	return result, true
}

// JoinRoom enters id: a visible room gains one participant, an unknown or
// expired one is created with a single participant. name is used only when
// the room is created; empty means "Room <first 8 chars of id>...".
func (s *Service) JoinRoom(ctx context.Context, id, name string) (models.Room, bool) {
	s.ensureSeeded(ctx)

	var result models.Room
	now, err := s.mutate(ctx, func(rooms []models.Room, now int64) ([]models.Room, error) {
		i := indexOf(rooms, id)
		if i >= 0 && s.isVisible(rooms[i], now) {
			r := rooms[i]
			r.Participants = clampParticipants(r.Participants + 1)
			r.LastUpdated = touch(r.LastUpdated, now)
			rooms[i] = r
			result = r
			return rooms, nil
		}
		if name == "" {
			name = DefaultRoomName(id)
		}
		rooms, result = upsertRoom(rooms, models.Room{ID: id, Name: name, Participants: 1}, now)
		return rooms, nil
	})
	if err != nil {
		s.logger.Error().Err(err).Str("room_id", id).Msg("failed to join room")
		metrics.DirectoryOps.WithLabelValues("join", "error").Inc()
		return models.Room{}, false
	}

	s.broadcast(ctx, now)
	metrics.DirectoryOps.WithLabelValues("join", "ok").Inc()
	return result, true
}

// LeaveRoom removes one participant from id.
func (s *Service) LeaveRoom(ctx context.Context, id string) (models.Room, bool) {
	return s.updateParticipants(ctx, "leave", id, -1)
}

// KeepAlive refreshes id's lastUpdated without changing its participant count.
func (s *Service) KeepAlive(ctx context.Context, id string) (models.Room, bool) {
	return s.updateParticipants(ctx, "keepalive", id, 0)
}

// Compact physically removes rooms that have been hidden by the expiry
// window and returns how many were removed. Visible rooms are untouched, so
// no change notification is sent.
func (s *Service) Compact(ctx context.Context) (int, error) {
	removed := 0
	_, err := s.mutate(ctx, func(rooms []models.Room, now int64) ([]models.Room, error) {
		kept := s.visible(rooms, now)
		removed = len(rooms) - len(kept)
		return kept, nil
	})
	if err != nil {
		metrics.DirectoryOps.WithLabelValues("compact", "error").Inc()
		return 0, err
	}
	metrics.DirectoryOps.WithLabelValues("compact", "ok").Inc()
	metrics.RoomsCompacted.Add(float64(removed))
	return removed, nil
}

// LastChange returns the time of the last recorded mutation.
func (s *Service) LastChange(ctx context.Context) (time.Time, bool) {
	raw, ok, err := s.kv.Get(ctx, UpdatedKey)
	if err != nil || !ok {
		return time.Time{}, false
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.UnixMilli(ms), true
}

// DefaultRoomName names a room created by joining an unknown id.
func DefaultRoomName(id string) string {
	short := id
	if len(short) > 8 {
		short = short[:8]
	}
	return fmt.Sprintf("Room %s...", short)
}

// ensureSeeded inserts the seed rooms the first time this service finds the
// directory empty. A failed attempt is retried on the next call.
func (s *Service) ensureSeeded(ctx context.Context) {
	s.seedMu.Lock()
	defer s.seedMu.Unlock()
	if s.seeded {
		return
	}

	inserted := false
	now, err := s.mutate(ctx, func(rooms []models.Room, now int64) ([]models.Room, error) {
		if len(s.visible(rooms, now)) > 0 || len(s.seeds) == 0 {
			return nil, errSeedNotNeeded
		}
		for _, seed := range s.seeds {
			rooms, _ = upsertRoom(rooms, seed, now)
		}
		inserted = true
		return rooms, nil
	})
	if err != nil && !errors.Is(err, errSeedNotNeeded) {
		s.logger.Error().Err(err).Msg("failed to seed sample rooms")
		return
	}

	s.seeded = true
	if inserted {
		s.logger.Info().Int("rooms", len(s.seeds)).Msg("seeded sample rooms")
		s.broadcast(ctx, now)
	}
}

// load reads and decodes the stored collection.
func (s *Service) load(ctx context.Context) ([]models.Room, error) {
	start := time.Now()
	raw, ok, err := s.kv.Get(ctx, RoomsKey)
	metrics.StorageLatency.WithLabelValues("get").Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}
	return decodeRooms(raw, ok)
}

// mutate runs fn over the stored collection inside a single store update and
// returns the time the update was stamped with.
func (s *Service) mutate(ctx context.Context, fn func(rooms []models.Room, now int64) ([]models.Room, error)) (int64, error) {
	now := s.nowMillis()
	start := time.Now()
	err := s.kv.Update(ctx, RoomsKey, func(old string, ok bool) (string, error) {
		rooms, err := decodeRooms(old, ok)
		if err != nil {
			return "", err
		}
		rooms, err = fn(rooms, now)
		if err != nil {
			return "", err
		}
		return encodeRooms(rooms)
	})
	metrics.StorageLatency.WithLabelValues("update").Observe(time.Since(start).Seconds())
	return now, err
}

// broadcast records the mutation time under UpdatedKey and notifies other
// contexts. The room data is already persisted, so failures here are logged
// and do not fail the operation.
func (s *Service) broadcast(ctx context.Context, now int64) {
	if err := s.kv.Set(ctx, UpdatedKey, strconv.FormatInt(now, 10)); err != nil {
		s.logger.Warn().Err(err).Msg("failed to write change signal")
	}
	if s.notifier == nil {
		return
	}
	evt := notify.Event{ID: crypto.NewEventID(), At: now}
	if err := s.notifier.Publish(ctx, evt); err != nil {
		s.logger.Warn().Err(err).Str("event_id", evt.ID).Msg("failed to publish change notification")
		return
	}
	metrics.ChangeNotifications.Inc()
}

func (s *Service) nowMillis() int64 {
	return s.now().UnixMilli()
}

func (s *Service) isVisible(room models.Room, now int64) bool {
	return room.LastUpdated > now-s.expiry.Milliseconds()
}

func (s *Service) visible(rooms []models.Room, now int64) []models.Room {
	out := make([]models.Room, 0, len(rooms))
	for _, r := range rooms {
		if s.isVisible(r, now) {
			out = append(out, r)
		}
	}
	return out
}

func decodeRooms(raw string, ok bool) ([]models.Room, error) {
	if !ok || raw == "" {
		return []models.Room{}, nil
	}
	var rooms []models.Room
	if err := json.Unmarshal([]byte(raw), &rooms); err != nil {
		return nil, fmt.Errorf("decode %s: %w: %v", RoomsKey, store.ErrMalformedData, err)
	}
	return rooms, nil
}

func encodeRooms(rooms []models.Room) (string, error) {
	if rooms == nil {
		rooms = []models.Room{}
	}
	data, err := json.Marshal(rooms)
	if err != nil {
		return "", fmt.Errorf("encode %s: %w", RoomsKey, err)
	}
	return string(data), nil
}

// upsertRoom merges room into rooms and returns the stored version.
func upsertRoom(rooms []models.Room, room models.Room, now int64) ([]models.Room, models.Room) {
	if i := indexOf(rooms, room.ID); i >= 0 {
		r := rooms[i]
		if room.Name != "" {
			r.Name = room.Name
		}
		r.Participants = clampParticipants(room.Participants)
		r.LastUpdated = touch(r.LastUpdated, now)
		rooms[i] = r
		return rooms, r
	}

	if room.CreatedAt == 0 {
		room.CreatedAt = now
	}
	room.Participants = clampParticipants(room.Participants)
	room.LastUpdated = now
	return append(rooms, room), room
}

func indexOf(rooms []models.Room, id string) int {
	for i, r := range rooms {
		if r.ID == id {
			return i
		}
	}
	return -1
}

func clampParticipants(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

// touch keeps lastUpdated from moving backwards when clocks disagree.
func touch(prev, now int64) int64 {
	if now > prev {
		return now
	}
	return prev
}
