package publishers

import (
	"time"

	"github.com/samvad-hq/api-mastery/internal/domain"
)

// Event represents the payload published downstream.
type Event struct {
	Source      string        `json:"source"`
	Record      domain.Record `json:"record"`
	CollectedAt time.Time     `json:"collected_at"`
}

// NewEvent constructs an Event for a record.
func NewEvent(rec domain.Record) Event {
	return Event{
		Source:      rec.Source,
		Record:      rec,
		CollectedAt: time.Now().UTC(),
	}
}

// attributes are attached to queue and topic messages so consumers can filter
// without decoding the body.
func (e Event) attributes() map[string]string {
	return map[string]string{
		"source": e.Source,
		"kind":   e.Record.Kind,
	}
}
