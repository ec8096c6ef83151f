package models

import "time"

// Conversation is a direct-message thread between exactly two profiles.
// MemberLowID < MemberHighID; the pair is unique.
type Conversation struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	MemberLowID   uint       `gorm:"not null;uniqueIndex:idx_conversations_pair,priority:1" json:"member_low_id"`
	MemberHighID  uint       `gorm:"not null;uniqueIndex:idx_conversations_pair,priority:2;index" json:"member_high_id"`
	CreatedAt     time.Time  `json:"created_at"`
	LastMessageAt *time.Time `json:"last_message_at"`
}

// TableName specifies the table name for GORM
func (Conversation) TableName() string {
	return "conversations"
}

// PairKey normalizes two profile ids into (low, high).
func PairKey(a, b uint) (uint, uint) {
	if a < b {
		return a, b
	}
	return b, a
}

// HasMember reports whether profileID is one of the two members.
func (c *Conversation) HasMember(profileID uint) bool {
	return c.MemberLowID == profileID || c.MemberHighID == profileID
}

// OtherMember returns the member that is not profileID.
func (c *Conversation) OtherMember(profileID uint) uint {
	if c.MemberLowID == profileID {
		return c.MemberHighID
	}
	return c.MemberLowID
}

// Message is an append-only entry in a conversation.
type Message struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	ConversationID uint      `gorm:"not null;index:idx_messages_conversation_created,priority:1" json:"conversation_id"`
	ProfileID      uint      `gorm:"not null" json:"profile_id"`
	Body           string    `gorm:"type:text;not null" json:"body"`
	CreatedAt      time.Time `gorm:"index:idx_messages_conversation_created,priority:2" json:"created_at"`
}

// TableName specifies the table name for GORM
func (Message) TableName() string {
	return "messages"
}

// ConversationView is a conversation as seen by one of its members.
type ConversationView struct {
	ID            uint           `json:"id"`
	Other         ProfileSummary `json:"other"`
	CreatedAt     time.Time      `json:"created_at"`
	LastMessageAt *time.Time     `json:"last_message_at"`
	LastMessage   *Message       `json:"last_message"`
}
