package handlers

import (
	"encoding/json"
	"net/http"
)

// NotesResponse carries the private notes of a room.
type NotesResponse struct {
	RoomID string `json:"room_id"`
	Text   string `json:"text"`
}

// NotesRequest replaces the notes of a room.
type NotesRequest struct {
	Text string `json:"text"`
}

// UserResponse carries the current username.
type UserResponse struct {
	Username string `json:"username"`
}

// GetNotes handles reading a room's notes. Notes are kept for ids that are
// not (or no longer) in the directory.
func (h *Handler) GetNotes(w http.ResponseWriter, r *http.Request) {
	id, ok := h.roomID(w, r)
	if !ok {
		return
	}
	h.JSON(w, http.StatusOK, NotesResponse{RoomID: id, Text: h.notes.Get(r.Context(), id)})
}

// SaveNotes handles replacing a room's notes.
func (h *Handler) SaveNotes(w http.ResponseWriter, r *http.Request) {
	id, ok := h.roomID(w, r)
	if !ok {
		return
	}

	var req NotesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(req.Text) > maxNotesLength {
		h.Error(w, http.StatusUnprocessableEntity, "notes too long (max 16384 bytes)")
		return
	}

	if !h.notes.Save(r.Context(), id, req.Text) {
		h.Error(w, http.StatusServiceUnavailable, "could not save notes")
		return
	}
	h.JSON(w, http.StatusOK, NotesResponse{RoomID: id, Text: req.Text})
}

// ClearNotes handles removing a room's notes.
func (h *Handler) ClearNotes(w http.ResponseWriter, r *http.Request) {
	id, ok := h.roomID(w, r)
	if !ok {
		return
	}
	if !h.notes.Clear(r.Context(), id) {
		h.Error(w, http.StatusServiceUnavailable, "could not clear notes")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetUser handles reading the current username.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	h.JSON(w, http.StatusOK, UserResponse{Username: h.notes.Username(r.Context())})
}

// SetUser handles storing the current username.
func (h *Handler) SetUser(w http.ResponseWriter, r *http.Request) {
	var req UserResponse
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	name := sanitizeName(req.Username)
	if name == "" {
		h.Error(w, http.StatusBadRequest, "username is required")
		return
	}
	if !h.notes.SetUsername(r.Context(), name) {
		h.Error(w, http.StatusServiceUnavailable, "could not save username")
		return
	}
	h.JSON(w, http.StatusOK, UserResponse{Username: name})
}
