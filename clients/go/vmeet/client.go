// Package vmeet provides a client for the V-Meet room directory.
package vmeet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// DefaultURL is used when no base URL is given.
const DefaultURL = "http://localhost:8080"

// Client is a room directory API client.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// Room is a meeting room as listed by the directory.
type Room struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Participants int    `json:"participants"`
	CreatedAt    int64  `json:"createdAt"`
	LastUpdated  int64  `json:"lastUpdated"`
}

// APIError is returned for non-2xx responses.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("vmeet error %d: %s", e.Status, e.Message)
}

// NewClient creates a new client.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	return &Client{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// doRequest performs an HTTP request and decodes a JSON response into out
// when out is non-nil.
func (c *Client) doRequest(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		json.Unmarshal(respBody, &errResp)
		return &APIError{Status: resp.StatusCode, Message: errResp.Error}
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	return json.Unmarshal(respBody, out)
}

func roomPath(id string, suffix string) string {
	return "/rooms/" + url.PathEscape(id) + suffix
}

// RoomsResponse is the response from listing rooms.
type RoomsResponse struct {
	Rooms []Room `json:"rooms"`
	Total int    `json:"total"`
}

// ListRooms lists the visible rooms.
func (c *Client) ListRooms(ctx context.Context) ([]Room, error) {
	var resp RoomsResponse
	if err := c.doRequest(ctx, http.MethodGet, "/rooms", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Rooms, nil
}

// GetRoom gets one room.
func (c *Client) GetRoom(ctx context.Context, id string) (*Room, error) {
	var room Room
	if err := c.doRequest(ctx, http.MethodGet, roomPath(id, ""), nil, &room); err != nil {
		return nil, err
	}
	return &room, nil
}

// CreateRoom creates a room with a server-generated id.
func (c *Client) CreateRoom(ctx context.Context, name string) (*Room, error) {
	var room Room
	req := map[string]string{"name": name}
	if err := c.doRequest(ctx, http.MethodPost, "/rooms", req, &room); err != nil {
		return nil, err
	}
	return &room, nil
}

// PutRoom creates or updates the room with room.ID.
func (c *Client) PutRoom(ctx context.Context, room Room) (*Room, error) {
	req := struct {
		Name         string `json:"name"`
		Participants int    `json:"participants"`
		CreatedAt    int64  `json:"createdAt,omitempty"`
	}{room.Name, room.Participants, room.CreatedAt}

	var saved Room
	if err := c.doRequest(ctx, http.MethodPut, roomPath(room.ID, ""), req, &saved); err != nil {
		return nil, err
	}
	return &saved, nil
}

// DeleteRoom deletes a room.
func (c *Client) DeleteRoom(ctx context.Context, id string) error {
	return c.doRequest(ctx, http.MethodDelete, roomPath(id, ""), nil, nil)
}

// UpdateParticipants adds delta to a room's participant count.
func (c *Client) UpdateParticipants(ctx context.Context, id string, delta int) (*Room, error) {
	var room Room
	req := map[string]int{"delta": delta}
	if err := c.doRequest(ctx, http.MethodPost, roomPath(id, "/participants"), req, &room); err != nil {
		return nil, err
	}
	return &room, nil
}

// Join enters a room, creating it when the id is unknown. name is only used
// for a room created by the join.
func (c *Client) Join(ctx context.Context, id, name string) (*Room, error) {
	var in interface{}
	if name != "" {
		in = map[string]string{"name": name}
	}
	var room Room
	if err := c.doRequest(ctx, http.MethodPost, roomPath(id, "/join"), in, &room); err != nil {
		return nil, err
	}
	return &room, nil
}

// Leave leaves a room.
func (c *Client) Leave(ctx context.Context, id string) (*Room, error) {
	var room Room
	if err := c.doRequest(ctx, http.MethodPost, roomPath(id, "/leave"), nil, &room); err != nil {
		return nil, err
	}
	return &room, nil
}

// KeepAlive keeps an active room listed.
func (c *Client) KeepAlive(ctx context.Context, id string) (*Room, error) {
	var room Room
	if err := c.doRequest(ctx, http.MethodPost, roomPath(id, "/keepalive"), nil, &room); err != nil {
		return nil, err
	}
	return &room, nil
}

// Notes is the private notes of a room.
type Notes struct {
	RoomID string `json:"room_id"`
	Text   string `json:"text"`
}

// GetNotes reads the notes of a room.
func (c *Client) GetNotes(ctx context.Context, id string) (*Notes, error) {
	var n Notes
	if err := c.doRequest(ctx, http.MethodGet, roomPath(id, "/notes"), nil, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

// SaveNotes replaces the notes of a room.
func (c *Client) SaveNotes(ctx context.Context, id, text string) error {
	return c.doRequest(ctx, http.MethodPut, roomPath(id, "/notes"), map[string]string{"text": text}, nil)
}

// ClearNotes removes the notes of a room.
func (c *Client) ClearNotes(ctx context.Context, id string) error {
	return c.doRequest(ctx, http.MethodDelete, roomPath(id, "/notes"), nil, nil)
}

// SetUsername stores the current username.
func (c *Client) SetUsername(ctx context.Context, name string) error {
	return c.doRequest(ctx, http.MethodPut, "/me", map[string]string{"username": name}, nil)
}

// Username reads the current username.
func (c *Client) Username(ctx context.Context) (string, error) {
	var resp struct {
		Username string `json:"username"`
	}
	if err := c.doRequest(ctx, http.MethodGet, "/me", nil, &resp); err != nil {
		return "", err
	}
	return resp.Username, nil
}

// HealthResponse is the response from the health endpoint.
type HealthResponse struct {
	Status     string                 `json:"status"`
	Version    string                 `json:"version"`
	Checks     map[string]interface{} `json:"checks"`
	LastChange string                 `json:"last_change,omitempty"`
	Timestamp  string                 `json:"timestamp"`
}

// Health checks server health.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var resp HealthResponse
	if err := c.doRequest(ctx, http.MethodGet, "/health", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
