package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/AcademiaHub/module-service/internal/models"
	"github.com/AcademiaHub/module-service/internal/repositories"
)

type ChatPostgreSQL struct {
	db *gorm.DB
}

func NewChatPostgreSQL(db *gorm.DB) repositories.ChatRepository {
	return &ChatPostgreSQL{db: db}
}

func (c *ChatPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return c.db
}

// Create persists a single chat message
func (c *ChatPostgreSQL) Create(ctx context.Context, tx *gorm.DB, message *models.ChatMessage) error {
	if err := c.getDB(tx).WithContext(ctx).Create(message).Error; err != nil {
		return fmt.Errorf("failed to create chat message: %w", err)
	}
	return nil
}

// CreateBatch persists several messages in one insert. Used to store the
// user turn and the assistant turn together.
func (c *ChatPostgreSQL) CreateBatch(ctx context.Context, tx *gorm.DB, messages []*models.ChatMessage) error {
	if len(messages) == 0 {
		return nil
	}
	if err := c.getDB(tx).WithContext(ctx).Create(&messages).Error; err != nil {
		return fmt.Errorf("failed to create chat messages: %w", err)
	}
	return nil
}

// ListByUser returns a user's conversation ordered oldest first
func (c *ChatPostgreSQL) ListByUser(ctx context.Context, tx *gorm.DB, userID string, filters repositories.ChatHistoryFilters) ([]*models.ChatMessage, int64, error) {
	query := c.getDB(tx).WithContext(ctx).
		Model(&models.ChatMessage{}).
		Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count chat messages: %w", err)
	}

	query = query.Order("created_at ASC, id ASC")
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	var messages []*models.ChatMessage
	if err := query.Find(&messages).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list chat messages: %w", err)
	}

	return messages, total, nil
}

// DeleteByUser clears a user's conversation history
func (c *ChatPostgreSQL) DeleteByUser(ctx context.Context, tx *gorm.DB, userID string) error {
	err := c.getDB(tx).WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.ChatMessage{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete chat messages: %w", err)
	}
	return nil
}
