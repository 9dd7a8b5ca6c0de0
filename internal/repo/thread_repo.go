// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// CustomerThread model.
//
// Functions:
//
//   - FindThreadIDByEmailAndOrder(ctx, db, email, orderID) -> uint, error
//     Returns the id of the thread for (email, order) or 0 when none exists.
//
//   - GetThread(ctx, db, id) -> *domain.CustomerThread, error
//     Fetches a single thread by id, or ErrNotFound.
//
//   - CreateThread(ctx, db, t) -> error
//     Inserts a new thread; ID and timestamps are filled in on success.
//
//   - UpdateThread(ctx, db, t) -> error
//     Persists the mutable thread columns (status, lang, contact, order,
//     product). Returns ErrNotFound when no row matched.
//
// This repository is wrapped by services.ThreadResolver which owns the
// find-or-create policy; nothing here decides whether to create or update.
package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/tbourn/go-contactform/internal/domain"
)

// FindThreadIDByEmailAndOrder returns the most recent thread id for the
// (email, orderID) pair, or 0 if the sender has no thread for that order.
func FindThreadIDByEmailAndOrder(ctx context.Context, db *gorm.DB, email string, orderID uint) (uint, error) {
	var t domain.CustomerThread
	err := db.WithContext(ctx).
		Select("id").
		Where("email = ? AND order_id = ?", email, orderID).
		Order("updated_at DESC, id DESC").
		First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return t.ID, nil
}

// GetThread fetches a thread by id. If the record does not exist, it
// returns ErrNotFound.
func GetThread(ctx context.Context, db *gorm.DB, id uint) (*domain.CustomerThread, error) {
	var t domain.CustomerThread
	if err := db.WithContext(ctx).Where("id = ?", id).First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

// CreateThread inserts t. The generated id is written back into t.
func CreateThread(ctx context.Context, db *gorm.DB, t *domain.CustomerThread) error {
	return db.WithContext(ctx).Create(t).Error
}

// UpdateThread writes back the columns a new visitor message may change.
// Zero values are written too (e.g. OrderID 0 after an ownership check).
func UpdateThread(ctx context.Context, db *gorm.DB, t *domain.CustomerThread) error {
	res := db.WithContext(ctx).
		Model(&domain.CustomerThread{}).
		Where("id = ?", t.ID).
		Select("status", "lang", "contact_id", "order_id", "product_id", "updated_at").
		Updates(t)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
