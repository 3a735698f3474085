package entities

import (
	"time"

	"jan-server/services/chat-api/internal/domain/chat"
)

// Chat links an analysis context to an upstream workflow conversation.
type Chat struct {
	ID        int64     `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime;index:idx_chat_context_created"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	ContextID      int64  `gorm:"not null;index:idx_chat_context_created"`
	Title          string `gorm:"type:varchar(256);not null"`
	ConversationID string `gorm:"type:varchar(128);not null;index"`
}

func (Chat) TableName() string {
	return "chats"
}

// NewSchemaChat converts a domain record into its entity.
func NewSchemaChat(record *chat.ConversationRecord) *Chat {
	return &Chat{
		ID:             record.ID,
		ContextID:      record.ContextID,
		Title:          record.Title,
		ConversationID: record.UpstreamConversationID,
	}
}

// EtoD converts the entity to its domain model.
func (e *Chat) EtoD() *chat.ConversationRecord {
	return &chat.ConversationRecord{
		ID:                     e.ID,
		ContextID:              e.ContextID,
		Title:                  e.Title,
		UpstreamConversationID: e.ConversationID,
		CreatedAt:              e.CreatedAt,
	}
}
