package repo

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-contactform/internal/domain"
)

func newRepoDB(t *testing.T, migrate ...any) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("repo_test_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	// Ensure the file handle is released before TempDir cleanup (Windows needs this).
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	if len(migrate) > 0 {
		if err := db.AutoMigrate(migrate...); err != nil {
			t.Fatalf("automigrate: %v", err)
		}
	}
	return db
}

func TestFindThreadIDByEmailAndOrder(t *testing.T) {
	db := newRepoDB(t, &domain.CustomerThread{})
	ctx := context.Background()

	id, err := FindThreadIDByEmailAndOrder(ctx, db, "a@example.com", 0)
	if err != nil || id != 0 {
		t.Fatalf("empty table: want (0,nil), got (%d,%v)", id, err)
	}

	noOrder := &domain.CustomerThread{ContactID: 1, Lang: "en", Email: "a@example.com", Status: "open", Token: "t1"}
	withOrder := &domain.CustomerThread{ContactID: 1, Lang: "en", Email: "a@example.com", OrderID: 9, Status: "open", Token: "t2"}
	other := &domain.CustomerThread{ContactID: 1, Lang: "en", Email: "b@example.com", Status: "open", Token: "t3"}
	for _, th := range []*domain.CustomerThread{noOrder, withOrder, other} {
		if err := CreateThread(ctx, db, th); err != nil {
			t.Fatalf("CreateThread: %v", err)
		}
	}

	if id, _ := FindThreadIDByEmailAndOrder(ctx, db, "a@example.com", 0); id != noOrder.ID {
		t.Fatalf("(a,0): want %d, got %d", noOrder.ID, id)
	}
	if id, _ := FindThreadIDByEmailAndOrder(ctx, db, "a@example.com", 9); id != withOrder.ID {
		t.Fatalf("(a,9): want %d, got %d", withOrder.ID, id)
	}
	if id, _ := FindThreadIDByEmailAndOrder(ctx, db, "c@example.com", 0); id != 0 {
		t.Fatalf("(c,0): want 0, got %d", id)
	}
}

func TestFindThreadIDByEmailAndOrder_ErrorWithoutTable(t *testing.T) {
	db := newRepoDB(t /* no migrations */)
	if _, err := FindThreadIDByEmailAndOrder(context.Background(), db, "a@example.com", 0); err == nil {
		t.Fatalf("expected error without table")
	}
}

func TestUpdateThread_WritesZeroValuesAndStatus(t *testing.T) {
	db := newRepoDB(t, &domain.CustomerThread{})
	ctx := context.Background()

	th := &domain.CustomerThread{ContactID: 1, Lang: "en", Email: "a@example.com", OrderID: 4, ProductID: 5, Status: domain.ThreadStatusClosed, Token: "tok"}
	if err := CreateThread(ctx, db, th); err != nil {
		t.Fatalf("CreateThread: %v", err)
	}

	th.Status = domain.ThreadStatusOpen
	th.ContactID = 2
	th.Lang = "fr"
	th.ProductID = 0
	if err := UpdateThread(ctx, db, th); err != nil {
		t.Fatalf("UpdateThread: %v", err)
	}

	got, err := GetThread(ctx, db, th.ID)
	if err != nil {
		t.Fatalf("GetThread: %v", err)
	}
	if got.Status != "open" || got.ContactID != 2 || got.Lang != "fr" || got.ProductID != 0 || got.OrderID != 4 {
		t.Fatalf("unexpected thread after update: %+v", got)
	}
	if got.Token != "tok" || got.Email != "a@example.com" {
		t.Fatalf("immutable columns changed: %+v", got)
	}
}

func TestUpdateThread_NotFound(t *testing.T) {
	db := newRepoDB(t, &domain.CustomerThread{})
	err := UpdateThread(context.Background(), db, &domain.CustomerThread{ID: 42, Status: "open", Lang: "en"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestGetThread_NotFound(t *testing.T) {
	db := newRepoDB(t, &domain.CustomerThread{})
	if _, err := GetThread(context.Background(), db, 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestMessages_LastBodyListAndCount(t *testing.T) {
	db := newRepoDB(t, &domain.CustomerThread{}, &domain.CustomerMessage{})
	ctx := context.Background()

	th := &domain.CustomerThread{ContactID: 1, Lang: "en", Email: "a@example.com", Status: "open", Token: "tok"}
	if err := CreateThread(ctx, db, th); err != nil {
		t.Fatalf("CreateThread: %v", err)
	}

	if _, ok, err := LastMessageBody(ctx, db, th.ID); err != nil || ok {
		t.Fatalf("empty thread: want ok=false, got ok=%v err=%v", ok, err)
	}

	base := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	for i, body := range []string{"first", "second", "third"} {
		m := &domain.CustomerMessage{CustomerThreadID: th.ID, Message: body, CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		if err := CreateMessage(ctx, db, m); err != nil {
			t.Fatalf("CreateMessage %q: %v", body, err)
		}
	}

	body, ok, err := LastMessageBody(ctx, db, th.ID)
	if err != nil || !ok || body != "third" {
		t.Fatalf("LastMessageBody: want third, got %q ok=%v err=%v", body, ok, err)
	}

	var n int64
	if err := db.Model(&domain.CustomerMessage{}).Where("customer_thread_id = ?", th.ID).Count(&n).Error; err != nil || n != 3 {
		t.Fatalf("stored messages: want 3, got %d err=%v", n, err)
	}
}

func TestCreateMessage_DefaultsCreatedAt(t *testing.T) {
	db := newRepoDB(t, &domain.CustomerThread{}, &domain.CustomerMessage{})
	ctx := context.Background()
	th := &domain.CustomerThread{ContactID: 1, Lang: "en", Email: "a@example.com", Status: "open", Token: "tok"}
	_ = CreateThread(ctx, db, th)

	start := time.Now().UTC().Add(-time.Second)
	m := &domain.CustomerMessage{CustomerThreadID: th.ID, Message: "x"}
	if err := CreateMessage(ctx, db, m); err != nil {
		t.Fatalf("CreateMessage: %v", err)
	}
	if m.ID == 0 || m.CreatedAt.Before(start) {
		t.Fatalf("expected id and fresh CreatedAt, got %+v", m)
	}
}
