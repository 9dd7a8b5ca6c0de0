// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file contains database bootstrapping helpers for
// SQLite (pure Go driver), schema migrations and default seed data.
package repo

import (
	"context"
	"os"
	"path/filepath"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/tbourn/go-contactform/internal/domain"
)

// OpenSQLite opens (or creates) a SQLite database, applies PRAGMAs and
// registers the OpenTelemetry tracing plugin so queries show up as spans.
func OpenSQLite(path string) (*gorm.DB, error) {
	// Fail early if parent directory does not exist (instead of sqlite "out of memory (14)" on Windows).
	if dir := filepath.Dir(path); dir != "." {
		if _, err := os.Stat(dir); err != nil {
			return nil, err
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	// PRAGMAs
	db.Exec("PRAGMA journal_mode=WAL;")
	db.Exec("PRAGMA synchronous=NORMAL;")
	db.Exec("PRAGMA foreign_keys=ON;")
	db.Exec("PRAGMA busy_timeout=5000;")

	// Pool
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(10)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}

	// Traces only; DB pool metrics are not exported.
	if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
		return nil, err
	}

	return db, nil
}

// AutoMigrate creates or updates every table the contact form touches,
// including the read-only shop tables so a standalone deployment works.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.Contact{},
		&domain.ContactLang{},
		&domain.CustomerThread{},
		&domain.CustomerMessage{},
		&domain.Customer{},
		&domain.Order{},
		&domain.OrderDetail{},
		&domain.Product{},
		&domain.ProductLang{},
		&domain.Setting{},
	)
}

// SeedDefaults inserts the two stock contacts (webmaster and customer
// service) when the contacts table is empty. It is a no-op otherwise.
func SeedDefaults(ctx context.Context, db *gorm.DB) error {
	var n int64
	if err := db.WithContext(ctx).Model(&domain.Contact{}).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	defaults := []domain.Contact{
		{
			ID: 1, Position: 0, CustomerService: true,
			Translations: []domain.ContactLang{
				{Lang: "en", Name: "Webmaster", Description: "If a technical problem occurs on this website"},
				{Lang: "fr", Name: "Webmaster", Description: "En cas de problème technique sur ce site"},
				{Lang: "de", Name: "Webmaster", Description: "Bei technischen Problemen mit dieser Website"},
			},
		},
		{
			ID: 2, Position: 1, CustomerService: true,
			Translations: []domain.ContactLang{
				{Lang: "en", Name: "Customer service", Description: "For any question about a product, an order"},
				{Lang: "fr", Name: "Service client", Description: "Pour toute question sur un produit ou une commande"},
				{Lang: "de", Name: "Kundenservice", Description: "Bei Fragen zu einem Produkt oder einer Bestellung"},
			},
		},
	}
	return db.WithContext(ctx).Create(&defaults).Error
}
