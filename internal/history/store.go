package history

import (
	"context"
	"fmt"

	"github.com/kristianfreeman/aii/internal/models"

	"gorm.io/gorm"
)

// Store is the append-only per-user message log. Messages are never mutated
// or deleted; the returned id is the join key for the message's embedding in
// the vector index.
type Store interface {
	Insert(ctx context.Context, userID, text string, role models.Role) (uint, error)
	SelectRecent(ctx context.Context, userID string, limit int) ([]string, error)
	SelectByIDs(ctx context.Context, ids []uint) (map[uint]string, error)
}

// GormStore is a MySQL-backed Store.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GormStore.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Insert appends one message and returns its id.
func (s *GormStore) Insert(ctx context.Context, userID, text string, role models.Role) (uint, error) {
	msg := &models.Message{
		UserID: userID,
		Text:   text,
		Role:   role,
	}
	if err := s.db.WithContext(ctx).Create(msg).Error; err != nil {
		return 0, fmt.Errorf("failed to insert message: %w", err)
	}
	return msg.ID, nil
}

// SelectRecent returns the text of the user's most recent messages,
// most-recent-first.
func (s *GormStore) SelectRecent(ctx context.Context, userID string, limit int) ([]string, error) {
	var msgs []models.Message
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&msgs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to select recent messages: %w", err)
	}

	texts := make([]string, len(msgs))
	for i, m := range msgs {
		texts[i] = m.Text
	}
	return texts, nil
}

// SelectByIDs resolves message ids to their text. Ids with no matching row
// are simply absent from the result map.
func (s *GormStore) SelectByIDs(ctx context.Context, ids []uint) (map[uint]string, error) {
	if len(ids) == 0 {
		return map[uint]string{}, nil
	}

	var msgs []models.Message
	err := s.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&msgs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to select messages by ids: %w", err)
	}

	out := make(map[uint]string, len(msgs))
	for _, m := range msgs {
		out[m.ID] = m.Text
	}
	return out, nil
}
