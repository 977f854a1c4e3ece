package events

import (
	"context"
	"sync"
)

// MemoryPublisher is an in-process Publisher used in tests and when no NATS
// endpoint is configured.
type MemoryPublisher struct {
	mu       sync.Mutex
	closed   bool
	messages map[string][][]byte
}

// NewMemoryPublisher creates an in-memory publisher.
func NewMemoryPublisher() *MemoryPublisher {
	return &MemoryPublisher{
		messages: make(map[string][][]byte),
	}
}

// Publish records the message under its subject.
func (p *MemoryPublisher) Publish(_ context.Context, subject string, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	buf := make([]byte, len(data))
	copy(buf, data)
	p.messages[subject] = append(p.messages[subject], buf)
	return nil
}

// Close marks the publisher closed.
func (p *MemoryPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

// Messages returns the messages published on the subject.
func (p *MemoryPublisher) Messages(subject string) [][]byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	msgs := make([][]byte, len(p.messages[subject]))
	copy(msgs, p.messages[subject])
	return msgs
}
