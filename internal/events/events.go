// Package events publishes domain events (post.created, message.created, media.ready)
// onto a bus so other processes can react without polling the database.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"encore/internal/middleware"
	"encore/internal/observability"

	"github.com/google/uuid"
)

// Subjects of the events emitted by the services.
const (
	SubjectPostCreated    = "post.created"
	SubjectMessageCreated = "message.created"
	SubjectMediaReady     = "media.ready"
)

// Publisher delivers a payload on a subject.
type Publisher interface {
	Publish(ctx context.Context, subject string, payload []byte) error
	Close() error
}

// PostCreated is emitted after a post and its media rows are committed.
type PostCreated struct {
	PostID    uint        `json:"post_id"`
	ProfileID uint        `json:"profile_id"`
	MediaIDs  []uuid.UUID `json:"media_ids,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// MessageCreated is emitted after a message is appended to a conversation.
type MessageCreated struct {
	MessageID      uint      `json:"message_id"`
	ConversationID uint      `json:"conversation_id"`
	SenderID       uint      `json:"sender_id"`
	RecipientID    uint      `json:"recipient_id"`
	Timestamp      time.Time `json:"timestamp"`
}

// MediaReady is emitted when an upload is confirmed.
type MediaReady struct {
	AssetID   uuid.UUID `json:"asset_id"`
	UserID    uint      `json:"user_id"`
	Scope     string    `json:"scope"`
	SizeBytes int64     `json:"size_bytes"`
	Timestamp time.Time `json:"timestamp"`
}

// Emit marshals event and publishes it. Delivery is best-effort: the write that
// produced the event is already committed, so failures are logged and counted
// instead of returned.
func Emit(ctx context.Context, p Publisher, subject string, event any) {
	if p == nil {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		middleware.Logger.ErrorContext(ctx, "event marshal failed",
			slog.String("subject", subject),
			slog.String("error", err.Error()),
		)
		observability.EventsPublished.WithLabelValues(subject, "error").Inc()
		return
	}
	if err := p.Publish(ctx, subject, payload); err != nil {
		middleware.Logger.WarnContext(ctx, "event publish failed",
			slog.String("subject", subject),
			slog.String("error", err.Error()),
		)
		observability.EventsPublished.WithLabelValues(subject, "error").Inc()
		return
	}
	observability.EventsPublished.WithLabelValues(subject, "ok").Inc()
}

// Noop drops every event. Used when EVENTS_BACKEND=none.
type Noop struct{}

func (Noop) Publish(context.Context, string, []byte) error { return nil }
func (Noop) Close() error                                  { return nil }
