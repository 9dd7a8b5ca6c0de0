package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-contactform/internal/domain"
	"github.com/tbourn/go-contactform/internal/i18n"
	"github.com/tbourn/go-contactform/internal/mailer"
	"github.com/tbourn/go-contactform/internal/repo"
)

// ----- DB -----

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("svc_test_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	if err := repo.SeedDefaults(context.Background(), db); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return db
}

// seedShop adds a routed contact, a non-threaded contact, one customer with
// an order and a product.
func seedShop(t *testing.T, db *gorm.DB) {
	t.Helper()
	rows := []any{
		&domain.Contact{ID: 3, Email: "sales@example.com", CustomerService: true, Position: 2,
			Translations: []domain.ContactLang{{Lang: "en", Name: "Sales"}, {Lang: "fr", Name: "Ventes"}}},
		&domain.Contact{ID: 4, Email: "press@example.com", CustomerService: false, Position: 3,
			Translations: []domain.ContactLang{{Lang: "en", Name: "Press"}}},
		&domain.Customer{ID: 7, Email: "jane@example.com", FirstName: "Jane", LastName: "McDonald"},
		&domain.Product{ID: 11, Reference: "MUG", Translations: []domain.ProductLang{{Lang: "en", Name: "Mug"}, {Lang: "fr", Name: "Tasse"}}},
		&domain.Order{ID: 21, CustomerID: 7, Reference: "XKBKNABJK",
			Lines: []domain.OrderDetail{{ProductID: 11, ProductName: "Mug", Quantity: 1}}},
		&domain.Order{ID: 22, CustomerID: 99, Reference: "OTHERCUST"},
	}
	for _, r := range rows {
		if err := db.Create(r).Error; err != nil {
			t.Fatalf("seed %T: %v", r, err)
		}
	}
}

// ----- Store -----

// repoStore forwards to the repo package. Setting failing[method] makes that
// method return the error instead.
type repoStore struct {
	mu      sync.Mutex
	failing map[string]error
}

func newRepoStore() *repoStore { return &repoStore{failing: map[string]error{}} }

func (s *repoStore) failOn(method string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failing[method] = err
}

func (s *repoStore) err(method string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failing[method]
}

func (s *repoStore) GetContact(ctx context.Context, db *gorm.DB, id uint, lang string) (*domain.LocalizedContact, error) {
	if err := s.err("GetContact"); err != nil {
		return nil, err
	}
	return repo.GetContact(ctx, db, id, lang)
}

func (s *repoStore) ListContacts(ctx context.Context, db *gorm.DB, lang string) ([]domain.LocalizedContact, error) {
	if err := s.err("ListContacts"); err != nil {
		return nil, err
	}
	return repo.ListContacts(ctx, db, lang)
}

func (s *repoStore) FindThreadIDByEmailAndOrder(ctx context.Context, db *gorm.DB, email string, orderID uint) (uint, error) {
	if err := s.err("FindThreadIDByEmailAndOrder"); err != nil {
		return 0, err
	}
	return repo.FindThreadIDByEmailAndOrder(ctx, db, email, orderID)
}

func (s *repoStore) GetThread(ctx context.Context, db *gorm.DB, id uint) (*domain.CustomerThread, error) {
	if err := s.err("GetThread"); err != nil {
		return nil, err
	}
	return repo.GetThread(ctx, db, id)
}

func (s *repoStore) CreateThread(ctx context.Context, db *gorm.DB, t *domain.CustomerThread) error {
	if err := s.err("CreateThread"); err != nil {
		return err
	}
	return repo.CreateThread(ctx, db, t)
}

func (s *repoStore) UpdateThread(ctx context.Context, db *gorm.DB, t *domain.CustomerThread) error {
	if err := s.err("UpdateThread"); err != nil {
		return err
	}
	return repo.UpdateThread(ctx, db, t)
}

func (s *repoStore) LastMessageBody(ctx context.Context, db *gorm.DB, threadID uint) (string, bool, error) {
	if err := s.err("LastMessageBody"); err != nil {
		return "", false, err
	}
	return repo.LastMessageBody(ctx, db, threadID)
}

func (s *repoStore) CreateMessage(ctx context.Context, db *gorm.DB, m *domain.CustomerMessage) error {
	if err := s.err("CreateMessage"); err != nil {
		return err
	}
	return repo.CreateMessage(ctx, db, m)
}

func (s *repoStore) GetCustomer(ctx context.Context, db *gorm.DB, id uint) (*domain.Customer, error) {
	return repo.GetCustomer(ctx, db, id)
}

func (s *repoStore) FindCustomerByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.Customer, error) {
	return repo.FindCustomerByEmail(ctx, db, email)
}

func (s *repoStore) GetOrder(ctx context.Context, db *gorm.DB, id uint) (*domain.Order, error) {
	return repo.GetOrderWithLines(ctx, db, id)
}

func (s *repoStore) ListCustomerOrders(ctx context.Context, db *gorm.DB, customerID uint) ([]domain.Order, error) {
	return repo.ListCustomerOrders(ctx, db, customerID)
}

func (s *repoStore) GetProduct(ctx context.Context, db *gorm.DB, id uint, lang string) (*domain.Product, error) {
	return repo.GetProduct(ctx, db, id, lang)
}

func (s *repoStore) GetSetting(ctx context.Context, db *gorm.DB, name string) (string, bool, error) {
	if err := s.err("GetSetting"); err != nil {
		return "", false, err
	}
	return repo.GetSetting(ctx, db, name)
}

func (s *repoStore) SetSetting(ctx context.Context, db *gorm.DB, name, value string) error {
	if err := s.err("SetSetting"); err != nil {
		return err
	}
	return repo.SetSetting(ctx, db, name, value)
}

// ----- Mailer -----

type fakeMailer struct {
	mu   sync.Mutex
	sent []mailer.Mail
	// failTemplate makes sends of that template fail.
	failTemplate string
}

var errSMTPDown = errors.New("smtp down")

func (m *fakeMailer) Send(_ context.Context, mail mailer.Mail) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failTemplate != "" && mail.Template == m.failTemplate {
		return errSMTPDown
	}
	m.sent = append(m.sent, mail)
	return nil
}

func (m *fakeMailer) byTemplate(name string) []mailer.Mail {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []mailer.Mail
	for _, s := range m.sent {
		if s.Template == name {
			out = append(out, s)
		}
	}
	return out
}

// ----- Files -----

type fakeFiles struct {
	moved   []string
	moveErr error
}

func (f *fakeFiles) Move(staged, original string) (string, error) {
	if f.moveErr != nil {
		return "", f.moveErr
	}
	f.moved = append(f.moved, staged)
	return "0123456789abcdef0123456789abcdef" + original[len(original)-4:], nil
}

func (f *fakeFiles) Path(name string) string { return "/uploads/" + name }

// ----- misc -----

var testCatalog = i18n.NewCatalog("en", "fr", "de")

func tr(lang string) i18n.Translator { return testCatalog.For(lang) }

func setFlags(t *testing.T, db *gorm.DB, confirmation, notification bool) {
	t.Helper()
	ctx := context.Background()
	if err := repo.SetSetting(ctx, db, SettingSendConfirmation, boolSetting(confirmation)); err != nil {
		t.Fatal(err)
	}
	if err := repo.SetSetting(ctx, db, SettingSendNotification, boolSetting(notification)); err != nil {
		t.Fatal(err)
	}
}

func countRows(t *testing.T, db *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	if err := db.Model(model).Count(&n).Error; err != nil {
		t.Fatalf("count %T: %v", model, err)
	}
	return n
}

func threadMessages(t *testing.T, db *gorm.DB, threadID uint) int64 {
	t.Helper()
	var n int64
	if err := db.Model(&domain.CustomerMessage{}).Where("customer_thread_id = ?", threadID).Count(&n).Error; err != nil {
		t.Fatalf("count messages: %v", err)
	}
	return n
}
