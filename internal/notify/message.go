// Package notify keeps a live WebSocket channel to the backend open on behalf
// of the signed-in user and surfaces the notifications it pushes.
package notify

import (
	"encoding/json"
	"fmt"
)

// Status is the connection state reported to the rest of the console.
type Status string

const (
	StatusDisconnected Status = "disconnected"
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
	StatusError        Status = "error"
)

// MessageType is the "type" discriminator of a pushed notification.
type MessageType string

const (
	TypeConnection           MessageType = "connection"
	TypeCollectionUpdate     MessageType = "collection_update"
	TypeReceiptGenerated     MessageType = "receipt_generated"
	TypeReconciliationUpdate MessageType = "reconciliation_update"
)

// Known reports whether t is one of the kinds the backend documents.
func (t MessageType) Known() bool {
	switch t {
	case TypeConnection, TypeCollectionUpdate, TypeReceiptGenerated, TypeReconciliationUpdate:
		return true
	}
	return false
}

// Message is a decoded server push.
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Message   string          `json:"message,omitempty"`
	Timestamp string          `json:"timestamp"`
}

// Decode parses a text frame. Unknown kinds decode fine; callers check Known.
func Decode(frame []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(frame, &m); err != nil {
		return Message{}, fmt.Errorf("decode notification: %w", err)
	}
	return m, nil
}
