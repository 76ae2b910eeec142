package notify

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/nchikhaoui/gestistock/internal/models"
)

const listLimit = 50

var (
	ErrNotFound  = errors.New("notification not found")
	ErrForbidden = errors.New("notification belongs to another user")
)

// Emitter is an append-only store of domain notifications. Rows are only ever
// mutated to flip their read flag.
type Emitter struct {
	DB *gorm.DB
}

// Emit persists a notification. A nil userID makes it a broadcast.
func (e *Emitter) Emit(ctx context.Context, userID *uint, title, message, typ string, metadata map[string]any) (*models.Notification, error) {
	n := models.Notification{
		UserID:   userID,
		Title:    title,
		Message:  message,
		Type:     typ,
		Metadata: metadata,
	}
	if err := e.DB.WithContext(ctx).Create(&n).Error; err != nil {
		return nil, err
	}
	return &n, nil
}

// ListFor returns the user's own notifications plus broadcasts, newest first,
// capped at 50.
func (e *Emitter) ListFor(ctx context.Context, userID uint) ([]models.Notification, error) {
	var out []models.Notification
	err := e.DB.WithContext(ctx).
		Where("user_id = ? OR user_id IS NULL", userID).
		Order("created_at DESC, id DESC").
		Limit(listLimit).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (e *Emitter) MarkRead(ctx context.Context, id, userID uint) (*models.Notification, error) {
	var n models.Notification
	if err := e.DB.WithContext(ctx).First(&n, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if n.UserID != nil && *n.UserID != userID {
		return nil, ErrForbidden
	}
	if err := e.DB.WithContext(ctx).Model(&n).Update("is_read", true).Error; err != nil {
		return nil, err
	}
	n.IsRead = true
	return &n, nil
}

func (e *Emitter) MarkAllRead(ctx context.Context, userID uint) error {
	return e.DB.WithContext(ctx).
		Model(&models.Notification{}).
		Where("user_id = ?", userID).
		Update("is_read", true).Error
}
