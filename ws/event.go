package ws

import (
	"encoding/json"
	"time"
)

// client -> server
const (
	EventAuthenticate = "authenticate"
	EventJoinGroup    = "join_group"
	EventLeaveGroup   = "leave_group"
	EventTypingStart  = "typing_start"
	EventTypingStop   = "typing_stop"
)

// server -> client
const (
	EventNewThread       = "new_thread"
	EventThreadUpdated   = "thread_updated"
	EventNewNotification = "new_notification"
	EventNotification    = "notification"
)

// ScopeAll delivers to every connected client.
const ScopeAll = "all"

func UserTopic(id string) string {
	return "user:" + id
}

func GroupTopic(id string) string {
	return "group:" + id
}

// Event is the wire envelope. Payloads are routed opaque; the relay never
// interprets them beyond picking a scope.
type Event struct {
	Event     string          `json:"event"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"ts,omitempty"`
}

func NewEvent(event string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(&Event{
		Event:     event,
		Payload:   data,
		Timestamp: time.Now().Unix(),
	})
}

type authPayload struct {
	Token string `json:"token"`
}

type groupPayload struct {
	GroupID string `json:"group_id"`
}

type typingPayload struct {
	GroupID string `json:"group_id"`
	UserID  string `json:"user_id"`
}
