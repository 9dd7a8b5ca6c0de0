// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides read-only lookups for the shop entities
// the contact form references: customers, orders and products.
package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/tbourn/go-contactform/internal/domain"
)

// GetCustomer fetches a customer by id, or ErrNotFound.
func GetCustomer(ctx context.Context, db *gorm.DB, id uint) (*domain.Customer, error) {
	var c domain.Customer
	if err := db.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// FindCustomerByEmail returns the customer registered with email, or nil
// (and no error) when there is none.
func FindCustomerByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.Customer, error) {
	var c domain.Customer
	err := db.WithContext(ctx).Where("LOWER(email) = LOWER(?)", email).Order("id ASC").First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetOrder fetches an order by id, or ErrNotFound. Order lines are not loaded.
func GetOrder(ctx context.Context, db *gorm.DB, id uint) (*domain.Order, error) {
	var o domain.Order
	if err := db.WithContext(ctx).Where("id = ?", id).First(&o).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

// ListCustomerOrders returns the orders of a customer, newest first, with
// their product lines.
func ListCustomerOrders(ctx context.Context, db *gorm.DB, customerID uint) ([]domain.Order, error) {
	var out []domain.Order
	err := db.WithContext(ctx).
		Preload("Lines", func(tx *gorm.DB) *gorm.DB { return tx.Order("id ASC") }).
		Where("customer_id = ?", customerID).
		Order("created_at DESC, id DESC").
		Find(&out).Error
	return out, err
}

// GetOrderWithLines fetches one order with its product lines.
func GetOrderWithLines(ctx context.Context, db *gorm.DB, id uint) (*domain.Order, error) {
	var o domain.Order
	err := db.WithContext(ctx).
		Preload("Lines", func(tx *gorm.DB) *gorm.DB { return tx.Order("id ASC") }).
		Where("id = ?", id).
		First(&o).Error
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// GetProduct fetches a product with its name in lang, or ErrNotFound.
func GetProduct(ctx context.Context, db *gorm.DB, id uint, lang string) (*domain.Product, error) {
	var p domain.Product
	err := db.WithContext(ctx).
		Preload("Translations", "lang = ?", lang).
		Where("id = ?", id).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}
