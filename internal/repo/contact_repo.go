// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides read-only repository functions for
// Contact (support subjects) and their translations.
//
// Error semantics:
//   - When a contact is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors the raw gorm error is propagated.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/go-contactform/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// GetContact loads a contact by id with its name in lang. A contact without
// a translation for lang is still returned, with an empty name.
func GetContact(ctx context.Context, db *gorm.DB, id uint, lang string) (*domain.LocalizedContact, error) {
	var c domain.Contact
	err := db.WithContext(ctx).
		Preload("Translations", "lang = ?", lang).
		Where("id = ?", id).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	lc := localize(c)
	return &lc, nil
}

// ListContacts returns all contacts localized in lang, ordered by position.
func ListContacts(ctx context.Context, db *gorm.DB, lang string) ([]domain.LocalizedContact, error) {
	var rows []domain.Contact
	err := db.WithContext(ctx).
		Preload("Translations", "lang = ?", lang).
		Order("position ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]domain.LocalizedContact, 0, len(rows))
	for _, c := range rows {
		out = append(out, localize(c))
	}
	return out, nil
}

func localize(c domain.Contact) domain.LocalizedContact {
	lc := domain.LocalizedContact{
		ID:              c.ID,
		Email:           c.Email,
		CustomerService: c.CustomerService,
	}
	if len(c.Translations) > 0 {
		lc.Name = c.Translations[0].Name
		lc.Description = c.Translations[0].Description
	}
	return lc
}
