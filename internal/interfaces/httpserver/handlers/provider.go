package handlers

import (
	"github.com/rs/zerolog"

	"jan-server/services/chat-api/internal/domain/chat"
	"jan-server/services/chat-api/internal/domain/stream"
	"jan-server/services/chat-api/internal/interfaces/httpserver/handlers/chathandler"
)

// Provider wires all HTTP handlers for dependency injection.
type Provider struct {
	Chat *chathandler.ChatHandler
}

// NewProvider constructs the handler provider with domain services.
func NewProvider(chatService chat.Service, relay *stream.Relay, log zerolog.Logger) *Provider {
	return &Provider{
		Chat: chathandler.NewChatHandler(chatService, relay, log),
	}
}
