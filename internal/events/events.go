// Package events publishes domain facts about files and links.
package events

import (
	"time"

	"github.com/google/uuid"
)

// Event types, also used as routing keys.
const (
	FileUploaded = "file.uploaded"
	FileDeleted  = "file.deleted"
	LinkIssued   = "link.issued"
)

// Event is a single domain fact.
type Event struct {
	ID         uuid.UUID      `json:"event_id"`
	Type       string         `json:"event_type"`
	OccurredAt time.Time      `json:"occurred_at"`
	FileID     int64          `json:"file_id"`
	UserID     int64          `json:"user_id"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// New stamps an event with a fresh id and the current time.
func New(eventType string, fileID, userID int64, attrs map[string]any) Event {
	return Event{
		ID:         uuid.New(),
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		FileID:     fileID,
		UserID:     userID,
		Attributes: attrs,
	}
}

// Publisher hands events off for delivery. It must not block the caller.
type Publisher interface {
	Publish(e Event)
}

// Noop discards events.
type Noop struct{}

// Publish implements Publisher.
func (Noop) Publish(Event) {}
