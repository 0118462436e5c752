package publisher

import (
	"encoding/json"
	"time"

	"mkessler/rentalintel/internal/listing"
)

// Event types pushed onto the listing event streams
const (
	EventCreated     = "created"
	EventUpdated     = "updated"
	EventDeactivated = "deactivated"
)

// Event describes one change to a stored listing record
type Event struct {
	Type          string          `json:"type"`
	ExternalID    string          `json:"external_id"`
	ChangedFields []string        `json:"changed_fields,omitempty"`
	Listing       *listing.Record `json:"listing,omitempty"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

// Publisher defines the interface for publishing listing events
type Publisher interface {
	// Publish publishes a serialized event
	Publish(eventType string, message []byte) error

	// TrimStreams trims the underlying streams to their maximum length
	TrimStreams() error

	// Close closes the publisher
	Close() error
}

// Encode serializes an event for publishing
func Encode(eventType string, rec *listing.Record, changed []string) ([]byte, error) {
	return json.Marshal(Event{
		Type:          eventType,
		ExternalID:    rec.ExternalID,
		ChangedFields: changed,
		Listing:       rec,
		OccurredAt:    time.Now(),
	})
}
