package core

import (
	"encoding/json"
	"time"
)

// Notification is a server push as kept in the local notification log.
type Notification struct {
	ID         int64           `json:"id"`
	UserID     string          `json:"user_id"`
	Type       string          `json:"type"`
	Message    string          `json:"message,omitempty"`
	Data       json.RawMessage `json:"data,omitempty"`
	SentAt     string          `json:"timestamp,omitempty"`
	ReceivedAt time.Time       `json:"received_at"`
	Published  bool            `json:"published"`
}
