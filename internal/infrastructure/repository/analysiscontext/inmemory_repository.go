package analysiscontext

import (
	"context"
	"fmt"
	"sync"
	"time"

	domain "jan-server/services/chat-api/internal/domain/chat"
	"jan-server/services/chat-api/internal/utils/platformerrors"
)

// InMemoryRepository is a thread-safe repository useful for demos/tests.
type InMemoryRepository struct {
	mu       sync.RWMutex
	nextID   int64
	contexts map[int64]*domain.AnalysisContext
	deleted  map[int64]bool
}

// NewInMemoryRepository creates an empty repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		contexts: make(map[int64]*domain.AnalysisContext),
		deleted:  make(map[int64]bool),
	}
}

// Store saves a copy of ac and assigns an id when it has none.
func (r *InMemoryRepository) Store(ctx context.Context, ac domain.AnalysisContext) *domain.AnalysisContext {
	r.mu.Lock()
	defer r.mu.Unlock()

	if ac.ID == 0 {
		r.nextID++
		ac.ID = r.nextID
	} else if ac.ID > r.nextID {
		r.nextID = ac.ID
	}
	if ac.CreatedAt.IsZero() {
		ac.CreatedAt = time.Now().UTC()
	}
	ac.Documents = append([]domain.Document(nil), ac.Documents...)

	r.contexts[ac.ID] = &ac
	delete(r.deleted, ac.ID)
	return cloneContext(&ac)
}

// Delete soft deletes a context.
func (r *InMemoryRepository) Delete(ctx context.Context, id int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleted[id] = true
}

// FindByID implements chat.ContextRepository.
func (r *InMemoryRepository) FindByID(ctx context.Context, id int64) (*domain.AnalysisContext, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ac, ok := r.contexts[id]
	if !ok || r.deleted[id] {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, fmt.Sprintf("analysis context not found: %d", id), nil, "b1c2d3e4-f5a6-4b7c-8d9e-0f1a2b3c4d5e")
	}
	return cloneContext(ac), nil
}

func cloneContext(ac *domain.AnalysisContext) *domain.AnalysisContext {
	clone := *ac
	clone.Documents = append([]domain.Document(nil), ac.Documents...)
	return &clone
}
