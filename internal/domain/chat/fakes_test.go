package chat

import (
	"context"
	"io"
	"sync"

	"jan-server/services/chat-api/internal/utils/platformerrors"
)

type fakeContextRepository struct {
	contexts map[int64]*AnalysisContext
	err      error
}

func (f *fakeContextRepository) FindByID(ctx context.Context, id int64) (*AnalysisContext, error) {
	if f.err != nil {
		return nil, f.err
	}
	ac, ok := f.contexts[id]
	if !ok {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, "analysis context not found", nil, "")
	}
	return ac, nil
}

type fakeConversationRepository struct {
	mu      sync.Mutex
	created []ConversationRecord
	records []*ConversationRecord
	err     error
}

func (f *fakeConversationRepository) Create(ctx context.Context, record *ConversationRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	record.ID = int64(len(f.created) + 1)
	f.created = append(f.created, *record)
	return nil
}

func (f *fakeConversationRepository) ListByContext(ctx context.Context, contextID int64) ([]*ConversationRecord, error) {
	return f.records, f.err
}

func (f *fakeConversationRepository) Created() []ConversationRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]ConversationRecord(nil), f.created...)
}

type fakeWorkflowClient struct {
	SendBlockingFunc func(ctx context.Context, req WorkflowRequest) (*BlockingCompletion, error)
	OpenStreamFunc   func(ctx context.Context, req WorkflowRequest) (io.ReadCloser, error)
	requests         []WorkflowRequest
}

func (f *fakeWorkflowClient) SendBlocking(ctx context.Context, req WorkflowRequest) (*BlockingCompletion, error) {
	f.requests = append(f.requests, req)
	return f.SendBlockingFunc(ctx, req)
}

func (f *fakeWorkflowClient) OpenStream(ctx context.Context, req WorkflowRequest) (io.ReadCloser, error) {
	f.requests = append(f.requests, req)
	return f.OpenStreamFunc(ctx, req)
}

type prefixResolver struct {
	prefix string
	err    error
}

func (p prefixResolver) ResolveURL(ctx context.Context, filePath string) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	return p.prefix + filePath, nil
}

type fakeGuard struct {
	ClaimFunc func(ctx context.Context, id string) (bool, error)
}

func (f fakeGuard) Claim(ctx context.Context, id string) (bool, error) {
	return f.ClaimFunc(ctx, id)
}
