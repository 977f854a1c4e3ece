// Package events announces applied change sets on a pub/sub stream so
// downstream consumers can observe planning progress.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/optassign/optassign/pkg/model"
)

// Publisher publishes messages to a stream.
type Publisher interface {
	// Publish sends a message to the specified subject.
	Publish(ctx context.Context, subject string, data []byte) error

	// Close releases resources.
	Close() error
}

// ChangeEvent is the JSON payload announced after a change set has been
// applied to the working solution.
type ChangeEvent struct {
	ID        string    `json:"id"`
	AppliedAt time.Time `json:"appliedAt"`
	Adds      int       `json:"adds"`
	Updates   int       `json:"updates"`
	Removes   int       `json:"removes"`
}

// NewChangeEvent builds an event describing the given change set.
func NewChangeEvent(cs model.ChangeSet) ChangeEvent {
	adds, updates, removes := cs.Counts()
	return ChangeEvent{
		ID:        uuid.New().String(),
		AppliedAt: time.Now().UTC(),
		Adds:      adds,
		Updates:   updates,
		Removes:   removes,
	}
}

// PublishChangeEvent marshals the event and publishes it on the subject.
func PublishChangeEvent(ctx context.Context, p Publisher, subject string, ev ChangeEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.Publish(ctx, subject, data)
}
