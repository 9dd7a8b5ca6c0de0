// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// CustomerMessage model.
package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-contactform/internal/domain"
)

// CreateMessage inserts a new message row. CreatedAt is set to UTC now when
// the caller left it empty.
func CreateMessage(ctx context.Context, db *gorm.DB, m *domain.CustomerMessage) error {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	return db.WithContext(ctx).Create(m).Error
}

// LastMessageBody returns the body of the most recent message in a thread.
// The boolean is false when the thread has no messages yet.
func LastMessageBody(ctx context.Context, db *gorm.DB, threadID uint) (string, bool, error) {
	var m domain.CustomerMessage
	err := db.WithContext(ctx).
		Select("message").
		Where("customer_thread_id = ?", threadID).
		Order("created_at DESC, id DESC").
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return m.Message, true, nil
}
