package requests

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"jan-server/services/chat-api/internal/domain/chat"
)

// ChatRequest is the body of POST /v1/chat.
type ChatRequest struct {
	Query          string `json:"query" binding:"required" example:"Who are the strongest candidates?"`
	ResponseMode   string `json:"responseMode" binding:"required,oneof=streaming blocking" example:"streaming"`
	ContextID      *int64 `json:"contextId" binding:"required" example:"1"`
	ConversationID string `json:"conversationId,omitempty"`
	Title          string `json:"title,omitempty"`
	FnCall         string `json:"fnCall,omitempty" example:"candidate-rank"`
}

// ToDomain converts the request body into the domain request.
func (r *ChatRequest) ToDomain(callerID string) chat.ChatRequest {
	var contextID int64
	if r.ContextID != nil {
		contextID = *r.ContextID
	}
	return chat.ChatRequest{
		Query:          r.Query,
		ResponseMode:   chat.ResponseMode(r.ResponseMode),
		ContextID:      contextID,
		ConversationID: strings.TrimSpace(r.ConversationID),
		Title:          r.Title,
		FnCall:         r.FnCall,
		CallerID:       callerID,
	}
}

// fieldMessages maps a failed validation to the message returned to the caller.
var fieldMessages = map[string]map[string]string{
	"Query": {
		"required": "query is required",
	},
	"ResponseMode": {
		"required": "responseMode is required",
		"oneof":    "responseMode must be one of: streaming, blocking",
	},
	"ContextID": {
		"required": "contextId is required",
	},
}

// BindingMessage turns a binding error into a client facing message.
func BindingMessage(err error) string {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) && len(validationErrs) > 0 {
		fe := validationErrs[0]
		if msg, ok := fieldMessages[fe.StructField()][fe.Tag()]; ok {
			return msg
		}
		return fe.Field() + " is invalid"
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		switch typeErr.Field {
		case "contextId":
			return "contextId must be a positive integer"
		case "query", "responseMode", "conversationId", "title", "fnCall":
			return typeErr.Field + " must be a string"
		}
	}

	return "invalid request body"
}
