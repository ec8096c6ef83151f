package repository

import (
	"context"

	"encore/internal/models"
	"encore/internal/pagination"

	"gorm.io/gorm"
)

// ChatRepository defines the interface for conversation and message data operations
type ChatRepository interface {
	GetConversation(ctx context.Context, id uint) (*models.Conversation, error)
	FindByPair(ctx context.Context, a, b uint) (*models.Conversation, error)
	CreateForPair(ctx context.Context, a, b uint) (*models.Conversation, bool, error)
	ListConversations(ctx context.Context, profileID uint) ([]models.Conversation, error)
	LatestMessages(ctx context.Context, conversationIDs []uint) (map[uint]*models.Message, error)
	AppendMessage(ctx context.Context, msg *models.Message) error
	ListMessages(ctx context.Context, conversationID uint, req pagination.Request) (pagination.Page[models.Message], error)
}

type chatRepository struct {
	db *gorm.DB
}

// NewChatRepository creates a new chat repository
func NewChatRepository(db *gorm.DB) ChatRepository {
	return &chatRepository{db: db}
}

var messageKeyset = pagination.NewKeyset("messages", pagination.Ascending)

func (r *chatRepository) GetConversation(ctx context.Context, id uint) (*models.Conversation, error) {
	var conv models.Conversation
	if err := r.db.WithContext(ctx).First(&conv, id).Error; err != nil {
		return nil, err
	}
	return &conv, nil
}

func (r *chatRepository) FindByPair(ctx context.Context, a, b uint) (*models.Conversation, error) {
	low, high := models.PairKey(a, b)
	var conv models.Conversation
	err := r.db.WithContext(ctx).
		Where("member_low_id = ? AND member_high_id = ?", low, high).
		First(&conv).Error
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

// CreateForPair creates the conversation for (a, b). When a concurrent request
// already created it, the existing row is returned with created=false.
func (r *chatRepository) CreateForPair(ctx context.Context, a, b uint) (*models.Conversation, bool, error) {
	low, high := models.PairKey(a, b)
	conv := models.Conversation{MemberLowID: low, MemberHighID: high}

	err := r.db.WithContext(ctx).Create(&conv).Error
	if err == nil {
		return &conv, true, nil
	}
	if !IsUniqueViolation(err) {
		return nil, false, err
	}

	existing, findErr := r.FindByPair(ctx, low, high)
	if findErr != nil {
		return nil, false, findErr
	}
	return existing, false, nil
}

// ListConversations orders by most recent message, conversations without
// messages last.
func (r *chatRepository) ListConversations(ctx context.Context, profileID uint) ([]models.Conversation, error) {
	var convs []models.Conversation
	err := r.db.WithContext(ctx).
		Where("member_low_id = ? OR member_high_id = ?", profileID, profileID).
		Order("CASE WHEN last_message_at IS NULL THEN 1 ELSE 0 END ASC, last_message_at DESC, id DESC").
		Find(&convs).Error
	return convs, err
}

// LatestMessages returns the newest message of each conversation in one query.
func (r *chatRepository) LatestMessages(ctx context.Context, conversationIDs []uint) (map[uint]*models.Message, error) {
	out := make(map[uint]*models.Message, len(conversationIDs))
	if len(conversationIDs) == 0 {
		return out, nil
	}

	latest := r.db.Model(&models.Message{}).
		Select("MAX(id)").
		Where("conversation_id IN ?", conversationIDs).
		Group("conversation_id")

	var msgs []models.Message
	if err := r.db.WithContext(ctx).Where("id IN (?)", latest).Find(&msgs).Error; err != nil {
		return nil, err
	}
	for i := range msgs {
		out[msgs[i].ConversationID] = &msgs[i]
	}
	return out, nil
}

// AppendMessage inserts msg and advances the conversation's last_message_at
// in the same transaction. last_message_at only moves forward, so a message
// committed out of order never rewinds it.
func (r *chatRepository) AppendMessage(ctx context.Context, msg *models.Message) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(msg).Error; err != nil {
			return err
		}
		return tx.Model(&models.Conversation{}).
			Where("id = ? AND (last_message_at IS NULL OR last_message_at < ?)", msg.ConversationID, msg.CreatedAt).
			Update("last_message_at", msg.CreatedAt).Error
	})
}

func (r *chatRepository) ListMessages(ctx context.Context, conversationID uint, req pagination.Request) (pagination.Page[models.Message], error) {
	q := r.db.Model(&models.Message{}).Where("messages.conversation_id = ?", conversationID)
	return pagination.Paginate(ctx, q, messageKeyset, req, func(m models.Message) uint { return m.ID })
}
