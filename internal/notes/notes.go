// Package notes stores the current username and per-room private notes.
package notes

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/Dino-is-real/vmeet-v2/internal/store"
)

// UsernameKey holds the name of the current user.
const UsernameKey = "username"

// Key returns the key holding the notes for roomID.
func Key(roomID string) string {
	return "notes-" + roomID
}

// Store reads and writes notes through a key-value store. Like the room
// directory it never returns storage errors; failures are logged and reported
// as empty values or false.
type Store struct {
	kv     store.KVStore
	logger zerolog.Logger
}

// NewStore creates a notes store over kv.
func NewStore(kv store.KVStore, logger zerolog.Logger) *Store {
	return &Store{kv: kv, logger: logger}
}

// Username returns the stored username, or "" when none is set.
func (s *Store) Username(ctx context.Context) string {
	v, _, err := s.kv.Get(ctx, UsernameKey)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to read username")
		return ""
	}
	return v
}

// SetUsername stores name after trimming surrounding whitespace.
func (s *Store) SetUsername(ctx context.Context, name string) bool {
	if err := s.kv.Set(ctx, UsernameKey, strings.TrimSpace(name)); err != nil {
		s.logger.Error().Err(err).Msg("failed to save username")
		return false
	}
	return true
}

// Get returns the notes for roomID.
func (s *Store) Get(ctx context.Context, roomID string) string {
	v, _, err := s.kv.Get(ctx, Key(roomID))
	if err != nil {
		s.logger.Error().Err(err).Str("room_id", roomID).Msg("failed to read notes")
		return ""
	}
	return v
}

// Save replaces the notes for roomID.
func (s *Store) Save(ctx context.Context, roomID, text string) bool {
	if err := s.kv.Set(ctx, Key(roomID), text); err != nil {
		s.logger.Error().Err(err).Str("room_id", roomID).Msg("failed to save notes")
		return false
	}
	return true
}

// Clear removes the notes for roomID.
func (s *Store) Clear(ctx context.Context, roomID string) bool {
	if err := s.kv.Delete(ctx, Key(roomID)); err != nil {
		s.logger.Error().Err(err).Str("room_id", roomID).Msg("failed to clear notes")
		return false
	}
	return true
}
