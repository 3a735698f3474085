package responses

import (
	"time"

	"jan-server/services/chat-api/internal/domain/chat"
)

// ChatRecordResponse is one conversation record of a context.
type ChatRecordResponse struct {
	ID             int64     `json:"id"`
	ContextID      int64     `json:"contextId"`
	Title          string    `json:"title"`
	ConversationID string    `json:"conversationId"`
	CreatedAt      time.Time `json:"createdAt"`
}

// ChatListResponse wraps the records of a context.
type ChatListResponse struct {
	Data []ChatRecordResponse `json:"data"`
}

// NewChatListResponse converts domain records.
func NewChatListResponse(records []*chat.ConversationRecord) ChatListResponse {
	data := make([]ChatRecordResponse, 0, len(records))
	for _, record := range records {
		data = append(data, ChatRecordResponse{
			ID:             record.ID,
			ContextID:      record.ContextID,
			Title:          record.Title,
			ConversationID: record.UpstreamConversationID,
			CreatedAt:      record.CreatedAt,
		})
	}
	return ChatListResponse{Data: data}
}
