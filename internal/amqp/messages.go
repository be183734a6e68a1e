package amqp

import (
	"encoding/json"
	"time"

	"offertory/internal/core"
)

// NotificationEvent is the broker payload for a relayed server notification.
type NotificationEvent struct {
	ID         int64           `json:"id"`
	UserID     string          `json:"user_id"`
	Type       string          `json:"type"`
	Message    string          `json:"message,omitempty"`
	Data       json.RawMessage `json:"data,omitempty"`
	SentAt     string          `json:"sent_at,omitempty"`
	ReceivedAt time.Time       `json:"received_at"`
}

func NewNotificationEvent(n core.Notification) *NotificationEvent {
	return &NotificationEvent{
		ID:         n.ID,
		UserID:     n.UserID,
		Type:       n.Type,
		Message:    n.Message,
		Data:       n.Data,
		SentAt:     n.SentAt,
		ReceivedAt: n.ReceivedAt,
	}
}

func (m *NotificationEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func NotificationEventFromJSON(data []byte) (*NotificationEvent, error) {
	var msg NotificationEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
