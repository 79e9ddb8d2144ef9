package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/AcademiaHub/module-service/internal/models"
)

// ChatRepository interface for persisted assistant conversations
type ChatRepository interface {
	Create(ctx context.Context, tx *gorm.DB, message *models.ChatMessage) error
	CreateBatch(ctx context.Context, tx *gorm.DB, messages []*models.ChatMessage) error
	ListByUser(ctx context.Context, tx *gorm.DB, userID string, filters ChatHistoryFilters) ([]*models.ChatMessage, int64, error)
	DeleteByUser(ctx context.Context, tx *gorm.DB, userID string) error
}
