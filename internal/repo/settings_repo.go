// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the global key/value configuration
// storage used by module settings.
package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-contactform/internal/domain"
)

// GetSetting returns the stored value for name. The boolean is false when
// the key has never been written.
func GetSetting(ctx context.Context, db *gorm.DB, name string) (string, bool, error) {
	var s domain.Setting
	err := db.WithContext(ctx).Where("name = ?", name).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return s.Value, true, nil
}

// SetSetting inserts or replaces the value stored under name.
func SetSetting(ctx context.Context, db *gorm.DB, name, value string) error {
	s := domain.Setting{Name: name, Value: value, UpdatedAt: time.Now().UTC()}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&s).Error
}
