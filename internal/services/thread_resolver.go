package services

import (
	"context"
	"crypto/rand"
	"math/big"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/tbourn/go-contactform/internal/domain"
)

// FileMover moves a staged upload into permanent storage.
type FileMover interface {
	Move(stagedPath, originalName string) (string, error)
	Path(name string) string
}

// ThreadOutcome is what the resolver did with a validated submission.
type ThreadOutcome struct {
	// Thread is nil when the contact does not use customer service threads.
	Thread *domain.CustomerThread
	// Message is the persisted message, nil when suppressed or not threaded.
	Message *domain.CustomerMessage
	// IsNewMessage is false when the body repeated the thread's last message.
	IsNewMessage bool
	// AttachmentPath is where the attachment can be read for mailing.
	AttachmentPath string
}

// ThreadResolver finds or creates the conversation for a submission and
// appends the message to it.
type ThreadResolver struct {
	DB     *gorm.DB
	Store  Store
	Files  FileMover
	ShopID uint
	Now    func() time.Time
}

func (r *ThreadResolver) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// OwnedOrderID returns orderID when it belongs to customerID, else 0.
func (r *ThreadResolver) OwnedOrderID(ctx context.Context, orderID, customerID uint) uint {
	if orderID == 0 || customerID == 0 {
		return 0
	}
	o, err := r.Store.GetOrder(ctx, r.DB, orderID)
	if err != nil || o == nil || o.CustomerID != customerID {
		return 0
	}
	return orderID
}

// Resolve threads the input. in.OrderID must already be ownership-checked.
func (r *ThreadResolver) Resolve(ctx context.Context, in *ValidatedInput, customerID uint, lang string, req IncomingRequest) (*ThreadOutcome, *SubmitError) {
	out := &ThreadOutcome{IsNewMessage: true}
	if in.Attachment != nil {
		out.AttachmentPath = in.Attachment.StagedPath
	}
	if !in.Contact.CustomerService {
		return out, nil
	}
	lg := zerolog.Ctx(ctx)

	id, err := r.Store.FindThreadIDByEmailAndOrder(ctx, r.DB, in.Email, in.OrderID)
	if err != nil {
		return nil, fail(CodePersistenceError, err)
	}

	var ct *domain.CustomerThread
	if id != 0 {
		ct, err = r.Store.GetThread(ctx, r.DB, id)
		if err != nil {
			return nil, fail(CodePersistenceError, err)
		}
		ct.Status = domain.ThreadStatusOpen
		ct.Lang = lang
		ct.ContactID = in.Contact.ID
		ct.OrderID = in.OrderID
		if in.ProductID != 0 {
			ct.ProductID = in.ProductID
		}
		ct.UpdatedAt = r.now()
		if err := r.Store.UpdateThread(ctx, r.DB, ct); err != nil {
			return nil, fail(CodePersistenceError, err)
		}
	} else {
		ct = &domain.CustomerThread{
			CustomerID: customerID,
			ShopID:     r.ShopID,
			OrderID:    in.OrderID,
			ProductID:  in.ProductID,
			ContactID:  in.Contact.ID,
			Lang:       lang,
			Email:      in.Email,
			Status:     domain.ThreadStatusOpen,
			Token:      threadToken(12),
		}
		if err := r.Store.CreateThread(ctx, r.DB, ct); err != nil {
			return nil, fail(CodePersistenceError, err)
		}
	}
	out.Thread = ct

	last, found, err := r.Store.LastMessageBody(ctx, r.DB, ct.ID)
	if err != nil {
		return nil, fail(CodePersistenceError, err)
	}
	if found && last == in.Message && in.Attachment == nil {
		out.IsNewMessage = false
		return out, nil
	}

	cm := &domain.CustomerMessage{
		CustomerThreadID: ct.ID,
		Message:          in.Message,
		IPAddress:        packIPv4(req.ClientIP),
		UserAgent:        clipUserAgent(req.UserAgent),
		CreatedAt:        r.now(),
	}
	if in.Attachment != nil && r.Files != nil {
		name, err := r.Files.Move(in.Attachment.StagedPath, in.Attachment.Name)
		if err != nil {
			lg.Warn().Err(err).Uint("thread_id", ct.ID).Msg("attachment not moved")
		} else {
			cm.FileName = name
			out.AttachmentPath = r.Files.Path(name)
		}
	}
	if err := r.Store.CreateMessage(ctx, r.DB, cm); err != nil {
		return nil, fail(CodePersistenceError, err)
	}
	out.Message = cm
	return out, nil
}

// clipUserAgent keeps at most 128 bytes of ua without splitting a rune.
func clipUserAgent(ua string) string {
	const max = 128
	if len(ua) <= max {
		return ua
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(ua[cut]) {
		cut--
	}
	return ua[:cut]
}

const tokenAlphabet = "abcdefghijkmnopqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// threadToken returns n random characters used in resume links.
func threadToken(n int) string {
	b := make([]byte, n)
	max := big.NewInt(int64(len(tokenAlphabet)))
	for i := range b {
		k, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic(err)
		}
		b[i] = tokenAlphabet[k.Int64()]
	}
	return string(b)
}
