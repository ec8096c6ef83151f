package testutil

import (
	"context"
	"sync"
)

// PublishedEvent is one event captured by RecordingPublisher.
type PublishedEvent struct {
	Subject string
	Payload []byte
}

// RecordingPublisher captures published events in memory.
type RecordingPublisher struct {
	mu     sync.Mutex
	events []PublishedEvent
}

func (r *RecordingPublisher) Publish(_ context.Context, subject string, payload []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, PublishedEvent{Subject: subject, Payload: append([]byte(nil), payload...)})
	return nil
}

func (r *RecordingPublisher) Close() error { return nil }

// Subjects returns the subjects published so far, in order.
func (r *RecordingPublisher) Subjects() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Subject)
	}
	return out
}

// Events returns a copy of everything published so far.
func (r *RecordingPublisher) Events() []PublishedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]PublishedEvent(nil), r.events...)
}
