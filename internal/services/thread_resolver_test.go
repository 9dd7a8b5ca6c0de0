package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/tbourn/go-contactform/internal/domain"
	"github.com/tbourn/go-contactform/internal/repo"
)

func newResolver(t *testing.T) (*ThreadResolver, *repoStore, *fakeFiles) {
	t.Helper()
	db := newTestDB(t)
	seedShop(t, db)
	st := newRepoStore()
	files := &fakeFiles{}
	fixed := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	return &ThreadResolver{DB: db, Store: st, Files: files, ShopID: 1, Now: func() time.Time { return fixed }}, st, files
}

func mustContact(t *testing.T, r *ThreadResolver, id uint) *domain.LocalizedContact {
	t.Helper()
	c, err := repo.GetContact(context.Background(), r.DB, id, "en")
	if err != nil {
		t.Fatalf("contact %d: %v", id, err)
	}
	return c
}

func TestThreadResolver_CreatesThreadAndMessage(t *testing.T) {
	r, _, _ := newResolver(t)
	ctx := context.Background()
	in := &ValidatedInput{Email: "a@example.com", Message: "hello", Contact: mustContact(t, r, 2)}
	req := IncomingRequest{ClientIP: "203.0.113.9", UserAgent: "ua"}

	out, serr := r.Resolve(ctx, in, 0, "fr", req)
	if serr != nil {
		t.Fatalf("Resolve: %v", serr)
	}
	if !out.IsNewMessage || out.Thread == nil || out.Message == nil {
		t.Fatalf("outcome = %+v", out)
	}
	th := out.Thread
	if th.ID == 0 || th.Status != domain.ThreadStatusOpen || th.Lang != "fr" || th.ContactID != 2 || th.ShopID != 1 {
		t.Fatalf("thread = %+v", th)
	}
	if len(th.Token) != 12 {
		t.Fatalf("token %q: want 12 chars", th.Token)
	}
	m := out.Message
	if m.CustomerThreadID != th.ID || m.Message != "hello" || m.IPAddress != 3405803785 || m.UserAgent != "ua" {
		t.Fatalf("message = %+v", m)
	}
}

func TestThreadResolver_ReusesThreadForSameEmailAndOrder(t *testing.T) {
	r, _, _ := newResolver(t)
	ctx := context.Background()
	in := &ValidatedInput{Email: "jane@example.com", Message: "first", Contact: mustContact(t, r, 2), OrderID: 21}

	first, serr := r.Resolve(ctx, in, 7, "en", IncomingRequest{})
	if serr != nil {
		t.Fatal(serr)
	}
	if err := r.DB.Model(&domain.CustomerThread{}).Where("id = ?", first.Thread.ID).
		Update("status", domain.ThreadStatusClosed).Error; err != nil {
		t.Fatal(err)
	}

	in2 := &ValidatedInput{Email: "jane@example.com", Message: "second", Contact: mustContact(t, r, 3), OrderID: 21, ProductID: 11}
	second, serr := r.Resolve(ctx, in2, 7, "de", IncomingRequest{})
	if serr != nil {
		t.Fatal(serr)
	}
	if second.Thread.ID != first.Thread.ID {
		t.Fatalf("new thread %d, want reuse of %d", second.Thread.ID, first.Thread.ID)
	}
	got, err := repo.GetThread(ctx, r.DB, first.Thread.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != domain.ThreadStatusOpen || got.Lang != "de" || got.ContactID != 3 || got.ProductID != 11 {
		t.Fatalf("thread not refreshed: %+v", got)
	}
	if got.Token != first.Thread.Token {
		t.Fatalf("token changed on reuse")
	}
	n := threadMessages(t, r.DB, got.ID)
	if n != 2 {
		t.Fatalf("messages = %d, want 2", n)
	}

	// A different order is a different conversation.
	in3 := &ValidatedInput{Email: "jane@example.com", Message: "no order", Contact: mustContact(t, r, 2)}
	third, serr := r.Resolve(ctx, in3, 7, "en", IncomingRequest{})
	if serr != nil {
		t.Fatal(serr)
	}
	if third.Thread.ID == first.Thread.ID {
		t.Fatalf("order-less message joined the order thread")
	}
}

func TestThreadResolver_SuppressesRepeatedBody(t *testing.T) {
	r, _, files := newResolver(t)
	ctx := context.Background()
	in := &ValidatedInput{Email: "a@example.com", Message: "same text", Contact: mustContact(t, r, 2)}

	if _, serr := r.Resolve(ctx, in, 0, "en", IncomingRequest{}); serr != nil {
		t.Fatal(serr)
	}
	dup, serr := r.Resolve(ctx, in, 0, "en", IncomingRequest{})
	if serr != nil {
		t.Fatal(serr)
	}
	if dup.IsNewMessage || dup.Message != nil {
		t.Fatalf("repeat was stored: %+v", dup)
	}
	if n := threadMessages(t, r.DB, dup.Thread.ID); n != 1 {
		t.Fatalf("messages = %d, want 1", n)
	}

	// The same body with an attachment is a new message.
	in.Attachment = &UploadedFile{Name: "scan.pdf", StagedPath: "/staging/abc"}
	withFile, serr := r.Resolve(ctx, in, 0, "en", IncomingRequest{})
	if serr != nil {
		t.Fatal(serr)
	}
	if !withFile.IsNewMessage || withFile.Message == nil {
		t.Fatalf("attachment message suppressed")
	}
	if withFile.Message.FileName != "0123456789abcdef0123456789abcdef.pdf" {
		t.Fatalf("file name = %q", withFile.Message.FileName)
	}
	if withFile.AttachmentPath != "/uploads/0123456789abcdef0123456789abcdef.pdf" {
		t.Fatalf("attachment path = %q", withFile.AttachmentPath)
	}
	if len(files.moved) != 1 || files.moved[0] != "/staging/abc" {
		t.Fatalf("moved = %v", files.moved)
	}
}

func TestThreadResolver_MoveFailureKeepsMessage(t *testing.T) {
	r, _, files := newResolver(t)
	files.moveErr = errors.New("disk full")
	in := &ValidatedInput{Email: "a@example.com", Message: "m", Contact: mustContact(t, r, 2),
		Attachment: &UploadedFile{Name: "scan.pdf", StagedPath: "/staging/abc"}}

	out, serr := r.Resolve(context.Background(), in, 0, "en", IncomingRequest{})
	if serr != nil {
		t.Fatal(serr)
	}
	if out.Message == nil || out.Message.FileName != "" {
		t.Fatalf("message = %+v", out.Message)
	}
	if out.AttachmentPath != "/staging/abc" {
		t.Fatalf("attachment path = %q, want staged path", out.AttachmentPath)
	}
}

func TestThreadResolver_ContactWithoutCustomerService(t *testing.T) {
	r, _, files := newResolver(t)
	in := &ValidatedInput{Email: "a@example.com", Message: "m", Contact: mustContact(t, r, 4),
		Attachment: &UploadedFile{Name: "scan.pdf", StagedPath: "/staging/abc"}}

	out, serr := r.Resolve(context.Background(), in, 0, "en", IncomingRequest{})
	if serr != nil {
		t.Fatal(serr)
	}
	if out.Thread != nil || !out.IsNewMessage || out.AttachmentPath != "/staging/abc" {
		t.Fatalf("outcome = %+v", out)
	}
	if len(files.moved) != 0 {
		t.Fatalf("file moved without a thread")
	}
	if n := countRows(t, r.DB, &domain.CustomerThread{}); n != 0 {
		t.Fatalf("threads = %d", n)
	}
}

func TestThreadResolver_PersistenceErrors(t *testing.T) {
	for _, method := range []string{"FindThreadIDByEmailAndOrder", "CreateThread", "LastMessageBody", "CreateMessage"} {
		t.Run(method, func(t *testing.T) {
			r, st, _ := newResolver(t)
			st.failOn(method, errors.New("db gone"))
			in := &ValidatedInput{Email: "a@example.com", Message: "m", Contact: mustContact(t, r, 2)}

			_, serr := r.Resolve(context.Background(), in, 0, "en", IncomingRequest{})
			if serr == nil || serr.Code != CodePersistenceError {
				t.Fatalf("got %v, want persistence error", serr)
			}
			if !errors.Is(serr, ErrPersistence) {
				t.Fatalf("errors.Is(ErrPersistence) = false")
			}
		})
	}
}

func TestThreadResolver_OwnedOrderID(t *testing.T) {
	r, _, _ := newResolver(t)
	ctx := context.Background()

	cases := []struct {
		order, customer, want uint
	}{
		{21, 7, 21},
		{22, 7, 0},  // someone else's order
		{21, 0, 0},  // guest
		{999, 7, 0}, // unknown
		{0, 7, 0},
	}
	for _, tc := range cases {
		if got := r.OwnedOrderID(ctx, tc.order, tc.customer); got != tc.want {
			t.Errorf("OwnedOrderID(%d,%d) = %d, want %d", tc.order, tc.customer, got, tc.want)
		}
	}
}

func TestPackIPv4(t *testing.T) {
	cases := map[string]uint32{
		"203.0.113.9":        3405803785,
		"::ffff:203.0.113.9": 3405803785,
		"2001:db8::1":        0,
		"garbage":            0,
		"":                   0,
	}
	for in, want := range cases {
		if got := packIPv4(in); got != want {
			t.Errorf("packIPv4(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestClipUserAgent(t *testing.T) {
	ascii := strings.Repeat("a", 200)
	if got := clipUserAgent(ascii); len(got) != 128 {
		t.Fatalf("ascii clipped to %d bytes", len(got))
	}
	// 127 ASCII bytes then a 3-byte rune straddling the limit.
	mixed := strings.Repeat("a", 127) + "€tail"
	got := clipUserAgent(mixed)
	if !utf8.ValidString(got) || got != strings.Repeat("a", 127) {
		t.Fatalf("clipped = %q (valid=%v)", got, utf8.ValidString(got))
	}
	if got := clipUserAgent("Mozilla/5.0"); got != "Mozilla/5.0" {
		t.Fatalf("short ua changed: %q", got)
	}
}
