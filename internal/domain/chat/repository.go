package chat

import "context"

// ContextRepository loads analysis contexts. FindByID returns a NotFound
// platform error for missing or deleted contexts.
type ContextRepository interface {
	FindByID(ctx context.Context, id int64) (*AnalysisContext, error)
}

// ConversationRepository persists conversation records.
type ConversationRepository interface {
	Create(ctx context.Context, record *ConversationRecord) error
	ListByContext(ctx context.Context, contextID int64) ([]*ConversationRecord, error)
}

// FileURLResolver turns a stored document path into a URL the workflow can fetch.
type FileURLResolver interface {
	ResolveURL(ctx context.Context, filePath string) (string, error)
}
