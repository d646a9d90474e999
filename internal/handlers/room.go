package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Dino-is-real/vmeet-v2/internal/directory"
	"github.com/Dino-is-real/vmeet-v2/internal/models"
)

// RoomListResponse represents the room list response.
type RoomListResponse struct {
	Rooms []models.Room `json:"rooms"`
	Total int           `json:"total"`
}

// CreateRoomRequest represents the room creation request.
type CreateRoomRequest struct {
	Name string `json:"name"`
}

// PutRoomRequest represents an upsert of a room under a known id.
type PutRoomRequest struct {
	Name         string `json:"name"`
	Participants int    `json:"participants"`
	CreatedAt    int64  `json:"createdAt,omitempty"`
}

// JoinRoomRequest names a room created by joining an unknown id.
type JoinRoomRequest struct {
	Name string `json:"name,omitempty"`
}

// ParticipantsRequest represents a participant count change.
type ParticipantsRequest struct {
	Delta int `json:"delta"`
}

// ListRooms handles listing the visible rooms.
func (h *Handler) ListRooms(w http.ResponseWriter, r *http.Request) {
	rooms := h.dir.ListRooms(r.Context())
	h.JSON(w, http.StatusOK, RoomListResponse{
		Rooms: rooms,
		Total: len(rooms),
	})
}

// GetRoom handles fetching a single visible room.
func (h *Handler) GetRoom(w http.ResponseWriter, r *http.Request) {
	id, ok := h.roomID(w, r)
	if !ok {
		return
	}

	room, found := h.dir.GetRoom(r.Context(), id)
	if !found {
		h.Error(w, http.StatusNotFound, "room not found")
		return
	}
	h.JSON(w, http.StatusOK, room)
}

// CreateRoom handles creating a room with a generated id.
func (h *Handler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	var req CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	name := sanitizeName(req.Name)
	if name == "" {
		h.Error(w, http.StatusBadRequest, "name is required")
		return
	}

	room, ok := h.dir.CreateRoom(r.Context(), name)
	if !ok {
		h.Error(w, http.StatusServiceUnavailable, "could not save room")
		return
	}
	h.JSON(w, http.StatusCreated, room)
}

// PutRoom handles creating or updating a room under the id in the path.
func (h *Handler) PutRoom(w http.ResponseWriter, r *http.Request) {
	id, ok := h.roomID(w, r)
	if !ok {
		return
	}

	var req PutRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Participants < 0 {
		h.Error(w, http.StatusBadRequest, "participants must not be negative")
		return
	}

	room := models.Room{
		ID:           id,
		Name:         sanitizeName(req.Name),
		Participants: req.Participants,
		CreatedAt:    req.CreatedAt,
	}
	if !h.dir.CreateOrUpdateRoom(r.Context(), room) {
		h.Error(w, http.StatusServiceUnavailable, "could not save room")
		return
	}

	saved, found := h.dir.GetRoom(r.Context(), id)
	if !found {
		// Deleted again before the read; report what was written.
		h.JSON(w, http.StatusOK, room)
		return
	}
	h.JSON(w, http.StatusOK, saved)
}

// DeleteRoom handles removing a room. Sample rooms cannot be deleted.
func (h *Handler) DeleteRoom(w http.ResponseWriter, r *http.Request) {
	id, ok := h.roomID(w, r)
	if !ok {
		return
	}

	if directory.IsSampleRoom(id) {
		h.Error(w, http.StatusForbidden, "sample rooms cannot be deleted")
		return
	}

	if !h.dir.DeleteRoom(r.Context(), id) {
		h.Error(w, http.StatusServiceUnavailable, "could not delete room")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UpdateParticipants handles a participant count change.
func (h *Handler) UpdateParticipants(w http.ResponseWriter, r *http.Request) {
	id, ok := h.roomID(w, r)
	if !ok {
		return
	}

	var req ParticipantsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if _, found := h.dir.GetRoom(r.Context(), id); !found {
		h.Error(w, http.StatusNotFound, "room not found")
		return
	}
	if !h.dir.UpdateParticipants(r.Context(), id, req.Delta) {
		h.Error(w, http.StatusServiceUnavailable, "could not update participants")
		return
	}

	room, _ := h.dir.GetRoom(r.Context(), id)
	h.JSON(w, http.StatusOK, room)
}

// JoinRoom handles entering a room, creating it when the id is unknown.
func (h *Handler) JoinRoom(w http.ResponseWriter, r *http.Request) {
	id, ok := h.roomID(w, r)
	if !ok {
		return
	}

	var req JoinRoomRequest
	if err := decodeOptional(r, &req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	room, ok := h.dir.JoinRoom(r.Context(), id, sanitizeName(req.Name))
	if !ok {
		h.Error(w, http.StatusServiceUnavailable, "could not join room")
		return
	}
	h.JSON(w, http.StatusOK, room)
}

// LeaveRoom handles leaving a room.
func (h *Handler) LeaveRoom(w http.ResponseWriter, r *http.Request) {
	id, ok := h.roomID(w, r)
	if !ok {
		return
	}

	room, ok := h.dir.LeaveRoom(r.Context(), id)
	if !ok {
		h.Error(w, http.StatusNotFound, "room not found")
		return
	}
	h.JSON(w, http.StatusOK, room)
}

// KeepAlive handles refreshing an active room so it stays listed.
func (h *Handler) KeepAlive(w http.ResponseWriter, r *http.Request) {
	id, ok := h.roomID(w, r)
	if !ok {
		return
	}

	room, ok := h.dir.KeepAlive(r.Context(), id)
	if !ok {
		h.Error(w, http.StatusNotFound, "room not found")
		return
	}
	h.JSON(w, http.StatusOK, room)
}

// roomID validates the {id} path parameter, writing a 400 when it is invalid.
func (h *Handler) roomID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if !isValidRoomID(id) {
		h.Error(w, http.StatusBadRequest, "invalid room ID")
		return "", false
	}
	return id, true
}
