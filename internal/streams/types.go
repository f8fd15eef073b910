package streams

import (
	"time"

	"github.com/google/uuid"
)

// StreamAuthEvents is the stream auth events are appended to.
const StreamAuthEvents = "auth:events"

// Schema version constant
const (
	SchemaVersionV1 = "v1"
)

// EventType names what happened to an account.
type EventType string

// Event types
const (
	EventUserRegistered   EventType = "user.registered"
	EventUserGoogleLinked EventType = "user.google_linked"
	EventUserLoggedIn     EventType = "user.logged_in"
)

// AuthEvent is a single account event message. It never carries credentials.
type AuthEvent struct {
	EventID    string    `json:"event_id"`
	Type       EventType `json:"type"`
	UserID     uint      `json:"user_id"`
	Provider   string    `json:"provider"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewAuthEvent stamps an event with a fresh id and the current time.
func NewAuthEvent(eventType EventType, userID uint, provider string) AuthEvent {
	return AuthEvent{
		EventID:    uuid.NewString(),
		Type:       eventType,
		UserID:     userID,
		Provider:   provider,
		OccurredAt: time.Now().UTC(),
	}
}
