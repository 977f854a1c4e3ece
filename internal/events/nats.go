package events

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// jetStreamPublisher implements Publisher using NATS JetStream.
type jetStreamPublisher struct {
	js jetstream.JetStream
}

// NewJetStreamPublisher creates a Publisher backed by NATS JetStream, ensuring
// the stream exists with a subject wildcard under streamName.
func NewJetStreamPublisher(nc *nats.Conn, streamName string) (Publisher, error) {
	js, err := jetstream.New(nc)
	if err != nil {
		return nil, fmt.Errorf("failed to create jetstream context: %w", err)
	}

	_, err = js.CreateOrUpdateStream(context.Background(), jetstream.StreamConfig{
		Name:     streamName,
		Subjects: []string{streamName + ".>"},
		Storage:  jetstream.FileStorage,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to ensure stream: %w", err)
	}

	return &jetStreamPublisher{js: js}, nil
}

// Publish sends a message to the specified subject.
func (p *jetStreamPublisher) Publish(ctx context.Context, subject string, data []byte) error {
	if _, err := p.js.Publish(ctx, subject, data); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}
	return nil
}

// Close releases resources. JetStream needs no explicit close; the owning
// connection is managed by the service manager.
func (p *jetStreamPublisher) Close() error {
	return nil
}
