package chat

import (
	"time"
)

// ResponseMode selects how the workflow answer is delivered.
type ResponseMode string

const (
	ResponseModeStreaming ResponseMode = "streaming"
	ResponseModeBlocking  ResponseMode = "blocking"
)

// Valid reports whether m is one of the recognized modes.
func (m ResponseMode) Valid() bool {
	return m == ResponseModeStreaming || m == ResponseModeBlocking
}

// ChatRequest is a validated inbound chat call.
type ChatRequest struct {
	Query          string
	ResponseMode   ResponseMode
	ContextID      int64
	ConversationID string
	Title          string
	FnCall         string
	// CallerID identifies the end user towards the workflow service.
	CallerID string
}

// Document is a candidate file attached to an analysis context.
type Document struct {
	ID       int64
	FileName string
	FilePath string
}

// AnalysisContext anchors conversations with a job description, a language and documents.
type AnalysisContext struct {
	ID             int64
	Name           string
	JobDescription string
	LocalLanguage  string
	Documents      []Document
	CreatedAt      time.Time
}

// ConversationRecord links an analysis context to an upstream conversation id.
type ConversationRecord struct {
	ID                     int64     `json:"id"`
	ContextID              int64     `json:"contextId"`
	Title                  string    `json:"title"`
	UpstreamConversationID string    `json:"conversationId"`
	CreatedAt              time.Time `json:"createdAt"`
}
