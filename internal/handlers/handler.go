package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"unicode"

	"github.com/rs/zerolog"

	"github.com/Dino-is-real/vmeet-v2/internal/directory"
	"github.com/Dino-is-real/vmeet-v2/internal/notes"
	"github.com/Dino-is-real/vmeet-v2/internal/notify"
	"github.com/Dino-is-real/vmeet-v2/internal/store"
)

const (
	maxNameLength   = 100
	maxRoomIDLength = 128
	maxNotesLength  = 16 * 1024
)

// Handler contains shared dependencies for all HTTP handlers.
type Handler struct {
	dir      *directory.Service
	notes    *notes.Store
	kv       store.KVStore
	notifier notify.Notifier
	logger   zerolog.Logger
}

// NewHandler creates a new Handler.
func NewHandler(dir *directory.Service, notesStore *notes.Store, kv store.KVStore, notifier notify.Notifier, logger zerolog.Logger) *Handler {
	return &Handler{
		dir:      dir,
		notes:    notesStore,
		kv:       kv,
		notifier: notifier,
		logger:   logger,
	}
}

// JSON sends a JSON response with the given status code.
func (h *Handler) JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Error sends a JSON error response with the given status code.
func (h *Handler) Error(w http.ResponseWriter, status int, message string) {
	h.JSON(w, status, map[string]string{"error": message})
}

// decodeOptional decodes a JSON body into v when one was sent.
func decodeOptional(r *http.Request, v interface{}) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	return json.NewDecoder(r.Body).Decode(v)
}

// sanitizeName trims and limits name to 100 characters, removing control characters.
func sanitizeName(name string) string {
	name = strings.TrimSpace(name)

	// Remove control characters
	name = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, name)

	// Limit to 100 characters
	if runes := []rune(name); len(runes) > maxNameLength {
		name = string(runes[:maxNameLength])
	}

	return name
}

// isValidRoomID accepts any printable id without whitespace or slashes;
// rooms can be joined by an id typed in by hand.
func isValidRoomID(id string) bool {
	if id == "" || len(id) > maxRoomIDLength {
		return false
	}
	for _, r := range id {
		if unicode.IsSpace(r) || unicode.IsControl(r) || r == '/' {
			return false
		}
	}
	return true
}
