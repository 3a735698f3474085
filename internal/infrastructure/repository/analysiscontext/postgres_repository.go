package analysiscontext

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	domain "jan-server/services/chat-api/internal/domain/chat"
	"jan-server/services/chat-api/internal/infrastructure/database/entities"
	"jan-server/services/chat-api/internal/utils/platformerrors"
)

// PostgresRepository loads analysis contexts via PostgreSQL using GORM.
type PostgresRepository struct {
	db *gorm.DB
}

// NewPostgresRepository creates a repository backed by the provided DB.
func NewPostgresRepository(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// FindByID returns the context with its documents. Soft deleted rows are not found.
func (r *PostgresRepository) FindByID(ctx context.Context, id int64) (*domain.AnalysisContext, error) {
	var entity entities.AnalysisContext
	err := r.db.WithContext(ctx).
		Preload("Documents", func(db *gorm.DB) *gorm.DB {
			return db.Order("id ASC")
		}).
		First(&entity, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, platformerrors.NewError(
				ctx,
				platformerrors.LayerRepository,
				platformerrors.ErrorTypeNotFound,
				fmt.Sprintf("analysis context not found: %d", id),
				nil,
				"6f1e2d3c-4b5a-4968-8776-a5b4c3d2e1f0",
			)
		}
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to fetch analysis context",
			err,
			"0a9b8c7d-6e5f-4a3b-9c1d-2e3f4a5b6c7d",
		)
	}

	return entity.EtoD(), nil
}
