package services

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/go-contactform/internal/domain"
	"github.com/tbourn/go-contactform/internal/sysutil"
)

// Setting names persisted in the key/value settings table.
const (
	SettingSendConfirmation = "CONTACTFORM_SEND_CONFIRMATION_EMAIL"
	SettingSendNotification = "CONTACTFORM_SEND_NOTIFICATION_EMAIL"
	SettingAllowFileUpload  = "PS_CUSTOMER_SERVICE_FILE_UPLOAD"
)

// Store is the persistence contract the contact services depend on.
// Implementations forward to the repo package; the *gorm.DB is passed
// through so callers control transactions and contexts.
type Store interface {
	GetContact(ctx context.Context, db *gorm.DB, id uint, lang string) (*domain.LocalizedContact, error)
	ListContacts(ctx context.Context, db *gorm.DB, lang string) ([]domain.LocalizedContact, error)

	FindThreadIDByEmailAndOrder(ctx context.Context, db *gorm.DB, email string, orderID uint) (uint, error)
	GetThread(ctx context.Context, db *gorm.DB, id uint) (*domain.CustomerThread, error)
	CreateThread(ctx context.Context, db *gorm.DB, t *domain.CustomerThread) error
	UpdateThread(ctx context.Context, db *gorm.DB, t *domain.CustomerThread) error

	LastMessageBody(ctx context.Context, db *gorm.DB, threadID uint) (string, bool, error)
	CreateMessage(ctx context.Context, db *gorm.DB, m *domain.CustomerMessage) error

	GetCustomer(ctx context.Context, db *gorm.DB, id uint) (*domain.Customer, error)
	FindCustomerByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.Customer, error)
	GetOrder(ctx context.Context, db *gorm.DB, id uint) (*domain.Order, error)
	ListCustomerOrders(ctx context.Context, db *gorm.DB, customerID uint) ([]domain.Order, error)
	GetProduct(ctx context.Context, db *gorm.DB, id uint, lang string) (*domain.Product, error)

	GetSetting(ctx context.Context, db *gorm.DB, name string) (string, bool, error)
	SetSetting(ctx context.Context, db *gorm.DB, name, value string) error
}

// settingBool reads a boolean setting, returning def when it is unset or
// unreadable.
func settingBool(ctx context.Context, st Store, db *gorm.DB, name string, def bool) bool {
	v, ok, err := st.GetSetting(ctx, db, name)
	if err != nil || !ok {
		return def
	}
	return sysutil.IsTruthy(v)
}

func boolSetting(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
