package models

// Room represents a meeting room tracked by the directory.
type Room struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Participants int    `json:"participants"`
	CreatedAt    int64  `json:"createdAt"`   // Unix ms
	LastUpdated  int64  `json:"lastUpdated"` // Unix ms
}
