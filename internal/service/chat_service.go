package service

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"encore/internal/events"
	"encore/internal/middleware"
	"encore/internal/models"
	"encore/internal/observability"
	"encore/internal/pagination"
	"encore/internal/repository"
)

const MaxMessageRunes = 2000

// ChatService provides one-to-one conversation business logic.
type ChatService struct {
	chats     repository.ChatRepository
	profiles  repository.ProfileRepository
	graph     repository.GraphRepository
	publisher events.Publisher
}

// NewChatService returns a new ChatService.
func NewChatService(chats repository.ChatRepository, profiles repository.ProfileRepository, graph repository.GraphRepository, publisher events.Publisher) *ChatService {
	return &ChatService{
		chats:     chats,
		profiles:  profiles,
		graph:     graph,
		publisher: publisher,
	}
}

// StartOrGet returns the conversation between viewer and other, creating it
// when needed. created reports whether this call created it.
func (s *ChatService) StartOrGet(ctx context.Context, viewerProfileID, otherProfileID uint) (*models.ConversationView, bool, error) {
	if viewerProfileID == 0 {
		return nil, false, models.NewNoActiveProfileError()
	}
	if viewerProfileID == otherProfileID {
		return nil, false, models.NewValidationError("Cannot start a conversation with yourself")
	}
	other, err := s.profiles.GetByID(ctx, otherProfileID)
	if err != nil {
		return nil, false, notFoundOr(err, "profile", otherProfileID)
	}
	blocked, err := s.graph.IsBlockedEither(ctx, viewerProfileID, otherProfileID)
	if err != nil {
		return nil, false, appError(err)
	}
	if blocked {
		return nil, false, models.NewForbiddenError("cannot message this profile")
	}

	created := false
	conv, err := s.chats.FindByPair(ctx, viewerProfileID, otherProfileID)
	if repository.IsNotFound(err) {
		conv, created, err = s.chats.CreateForPair(ctx, viewerProfileID, otherProfileID)
	}
	if err != nil {
		return nil, false, appError(err)
	}

	latest, err := s.chats.LatestMessages(ctx, []uint{conv.ID})
	if err != nil {
		return nil, false, appError(err)
	}
	return &models.ConversationView{
		ID:            conv.ID,
		Other:         other.Summary(),
		CreatedAt:     conv.CreatedAt,
		LastMessageAt: conv.LastMessageAt,
		LastMessage:   latest[conv.ID],
	}, created, nil
}

// PostMessage appends a message from the viewer to one of its conversations.
func (s *ChatService) PostMessage(ctx context.Context, viewerProfileID, conversationID uint, body string) (*models.Message, error) {
	conv, err := s.memberConversation(ctx, viewerProfileID, conversationID)
	if err != nil {
		return nil, err
	}
	recipient := conv.OtherMember(viewerProfileID)
	blocked, err := s.graph.IsBlockedEither(ctx, viewerProfileID, recipient)
	if err != nil {
		return nil, appError(err)
	}
	if blocked {
		return nil, models.NewForbiddenError("cannot message this profile")
	}

	body = strings.TrimSpace(body)
	if body == "" {
		return nil, models.NewValidationError("Message cannot be empty")
	}
	if utf8.RuneCountInString(body) > MaxMessageRunes {
		return nil, models.NewValidationError("Message too long (max 2000 characters)")
	}

	msg := &models.Message{ConversationID: conv.ID, ProfileID: viewerProfileID, Body: body}
	if err := s.chats.AppendMessage(ctx, msg); err != nil {
		return nil, appError(err)
	}

	observability.MessagesPosted.Inc()
	middleware.Logger.DebugContext(ctx, "message posted",
		slog.Uint64("conversation_id", uint64(conv.ID)),
		slog.Uint64("message_id", uint64(msg.ID)),
	)
	events.Emit(ctx, s.publisher, events.SubjectMessageCreated, events.MessageCreated{
		MessageID:      msg.ID,
		ConversationID: conv.ID,
		SenderID:       viewerProfileID,
		RecipientID:    recipient,
		Timestamp:      msg.CreatedAt,
	})
	return msg, nil
}

// ListMessages pages through a conversation oldest first.
func (s *ChatService) ListMessages(ctx context.Context, viewerProfileID, conversationID uint, req pagination.Request) (pagination.Page[models.Message], error) {
	if _, err := s.memberConversation(ctx, viewerProfileID, conversationID); err != nil {
		return pagination.Page[models.Message]{}, err
	}
	page, err := s.chats.ListMessages(ctx, conversationID, req)
	if err != nil {
		return pagination.Page[models.Message]{}, appError(err)
	}
	observability.PageItems.WithLabelValues("messages").Observe(float64(len(page.Items)))
	return page, nil
}

// ListConversations returns the viewer's inbox, most recently active first.
func (s *ChatService) ListConversations(ctx context.Context, viewerProfileID uint) ([]models.ConversationView, error) {
	if viewerProfileID == 0 {
		return nil, models.NewNoActiveProfileError()
	}
	convs, err := s.chats.ListConversations(ctx, viewerProfileID)
	if err != nil {
		return nil, appError(err)
	}
	views := make([]models.ConversationView, 0, len(convs))
	if len(convs) == 0 {
		return views, nil
	}

	convIDs := make([]uint, 0, len(convs))
	otherIDs := make([]uint, 0, len(convs))
	for i := range convs {
		convIDs = append(convIDs, convs[i].ID)
		otherIDs = append(otherIDs, convs[i].OtherMember(viewerProfileID))
	}
	others, err := s.profiles.GetByIDs(ctx, otherIDs)
	if err != nil {
		return nil, appError(err)
	}
	latest, err := s.chats.LatestMessages(ctx, convIDs)
	if err != nil {
		return nil, appError(err)
	}

	for i := range convs {
		c := &convs[i]
		v := models.ConversationView{
			ID:            c.ID,
			CreatedAt:     c.CreatedAt,
			LastMessageAt: c.LastMessageAt,
			LastMessage:   latest[c.ID],
		}
		if p, ok := others[c.OtherMember(viewerProfileID)]; ok {
			v.Other = p.Summary()
		}
		views = append(views, v)
	}
	return views, nil
}

func (s *ChatService) memberConversation(ctx context.Context, viewerProfileID, conversationID uint) (*models.Conversation, error) {
	if viewerProfileID == 0 {
		return nil, models.NewNoActiveProfileError()
	}
	conv, err := s.chats.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, notFoundOr(err, "conversation", conversationID)
	}
	if !conv.HasMember(viewerProfileID) {
		return nil, models.NewForbiddenError("not a member of this conversation")
	}
	return conv, nil
}
