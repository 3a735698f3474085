package conversation

import (
	"context"
	"sort"
	"sync"
	"time"

	domain "jan-server/services/chat-api/internal/domain/chat"
)

// InMemoryRepository is a thread-safe repository useful for demos/tests.
type InMemoryRepository struct {
	mu      sync.RWMutex
	nextID  int64
	records []domain.ConversationRecord
}

// NewInMemoryRepository creates an empty repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{}
}

// Create implements chat.ConversationRepository.
func (r *InMemoryRepository) Create(ctx context.Context, record *domain.ConversationRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	record.ID = r.nextID
	record.CreatedAt = time.Now().UTC()
	r.records = append(r.records, *record)
	return nil
}

// ListByContext implements chat.ConversationRepository.
func (r *InMemoryRepository) ListByContext(ctx context.Context, contextID int64) ([]*domain.ConversationRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*domain.ConversationRecord
	for i := range r.records {
		if r.records[i].ContextID == contextID {
			record := r.records[i]
			out = append(out, &record)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ID > out[j].ID
	})
	return out, nil
}

// All returns every stored record in insertion order.
func (r *InMemoryRepository) All() []domain.ConversationRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domain.ConversationRecord(nil), r.records...)
}
