package entities

import (
	"time"

	"gorm.io/gorm"

	"jan-server/services/chat-api/internal/domain/chat"
)

// AnalysisContext is the persisted recruiter analysis session.
type AnalysisContext struct {
	ID        int64          `gorm:"primaryKey"`
	CreatedAt time.Time      `gorm:"autoCreateTime"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"index"`

	Name           string `gorm:"type:varchar(256)"`
	JobDescription string `gorm:"type:text;not null;default:''"`
	LocalLanguage  string `gorm:"type:varchar(64)"`

	Documents []ContextDocument `gorm:"foreignKey:ContextID"`
}

func (AnalysisContext) TableName() string {
	return "analysis_contexts"
}

// ContextDocument is a candidate file attached to a context.
type ContextDocument struct {
	ID        int64          `gorm:"primaryKey"`
	CreatedAt time.Time      `gorm:"autoCreateTime"`
	DeletedAt gorm.DeletedAt `gorm:"index"`

	ContextID int64  `gorm:"index;not null"`
	FileName  string `gorm:"type:varchar(512)"`
	FilePath  string `gorm:"type:text"`
}

func (ContextDocument) TableName() string {
	return "context_documents"
}

// EtoD converts the entity to its domain model.
func (e *AnalysisContext) EtoD() *chat.AnalysisContext {
	docs := make([]chat.Document, 0, len(e.Documents))
	for _, doc := range e.Documents {
		docs = append(docs, chat.Document{
			ID:       doc.ID,
			FileName: doc.FileName,
			FilePath: doc.FilePath,
		})
	}
	return &chat.AnalysisContext{
		ID:             e.ID,
		Name:           e.Name,
		JobDescription: e.JobDescription,
		LocalLanguage:  e.LocalLanguage,
		Documents:      docs,
		CreatedAt:      e.CreatedAt,
	}
}
