package conversation

import (
	"context"

	"gorm.io/gorm"

	domain "jan-server/services/chat-api/internal/domain/chat"
	"jan-server/services/chat-api/internal/infrastructure/database/entities"
	"jan-server/services/chat-api/internal/utils/platformerrors"
)

// PostgresRepository persists conversation records.
type PostgresRepository struct {
	db *gorm.DB
}

// NewPostgresRepository builds a conversation record repository.
func NewPostgresRepository(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts the record and fills its id and timestamp.
func (r *PostgresRepository) Create(ctx context.Context, record *domain.ConversationRecord) error {
	entity := entities.NewSchemaChat(record)

	if err := r.db.WithContext(ctx).Create(entity).Error; err != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to create chat record",
			err,
			"5c4b3a29-1807-4f6e-9d5c-4b3a29180f6e",
		)
	}

	record.ID = entity.ID
	record.CreatedAt = entity.CreatedAt
	return nil
}

// ListByContext returns the records of a context, newest first.
func (r *PostgresRepository) ListByContext(ctx context.Context, contextID int64) ([]*domain.ConversationRecord, error) {
	var rows []entities.Chat
	if err := r.db.WithContext(ctx).
		Where("context_id = ?", contextID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&rows).Error; err != nil {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to list chat records",
			err,
			"8e7d6c5b-4a39-4281-9f0e-1d2c3b4a5968",
		)
	}

	records := make([]*domain.ConversationRecord, 0, len(rows))
	for i := range rows {
		records = append(records, rows[i].EtoD())
	}
	return records, nil
}
