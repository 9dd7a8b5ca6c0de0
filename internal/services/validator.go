package services

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"gorm.io/gorm"

	"github.com/tbourn/go-contactform/internal/domain"
	"github.com/tbourn/go-contactform/internal/sanitize"
)

// allowedExtensions lists accepted attachment suffixes, dot included.
var allowedExtensions = map[string]struct{}{
	".txt": {}, ".rtf": {}, ".doc": {}, ".docx": {}, ".pdf": {}, ".zip": {},
	".png": {}, ".jpeg": {}, ".gif": {}, ".jpg": {}, ".webp": {},
}

// ValidatedInput is a submission that passed every content check.
type ValidatedInput struct {
	Email      string
	Message    string
	Contact    *domain.LocalizedContact
	OrderID    uint
	ProductID  uint
	Attachment *UploadedFile // nil when no file was sent
}

// InputValidator runs the content checks in order; the first failure wins.
type InputValidator struct {
	DB    *gorm.DB
	Store Store
}

// Validate checks email, message body, subject and attachment.
func (v *InputValidator) Validate(ctx context.Context, req IncomingRequest, lang string) (*ValidatedInput, *SubmitError) {
	from := req.Field("from")
	if !IsEmail(from) {
		return nil, fail(CodeInvalidEmail, nil)
	}

	msg := req.Raw("message")
	if strings.TrimSpace(msg) == "" {
		return nil, fail(CodeEmptyMessage, nil)
	}
	if !sanitize.IsCleanHTML(msg) {
		return nil, fail(CodeUnsafeContent, nil)
	}

	contactID := req.UintField("id_contact")
	if contactID == 0 {
		return nil, fail(CodeInvalidSubject, nil)
	}
	contact, err := v.Store.GetContact(ctx, v.DB, contactID, lang)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fail(CodeInvalidSubject, ErrContactNotFound)
		}
		return nil, fail(CodeInvalidSubject, err)
	}

	var att *UploadedFile
	if req.HasAttachment() {
		f := req.UploadedFile
		if f.Err != nil {
			return nil, fail(CodeUploadFailed, f.Err)
		}
		if !AllowedExtension(f.Name) {
			return nil, fail(CodeDisallowedExtension, nil)
		}
		att = f
	}

	return &ValidatedInput{
		Email:      from,
		Message:    msg,
		Contact:    contact,
		OrderID:    req.UintField("id_order"),
		ProductID:  req.UintField("id_product"),
		Attachment: att,
	}, nil
}

// IsEmail reports whether s is a bare, plausible email address.
func IsEmail(s string) bool {
	if s == "" || len(s) > 255 {
		return false
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s || addr.Name != "" {
		return false
	}
	at := strings.LastIndexByte(s, '@')
	if at <= 0 {
		return false
	}
	domainPart := s[at+1:]
	dot := strings.IndexByte(domainPart, '.')
	return dot > 0 && dot < len(domainPart)-1
}

// AllowedExtension checks the last four and five characters of name,
// case-insensitively, against the allow-list.
func AllowedExtension(name string) bool {
	lower := strings.ToLower(name)
	for _, n := range []int{4, 5} {
		if len(lower) < n {
			continue
		}
		if _, ok := allowedExtensions[lower[len(lower)-n:]]; ok {
			return true
		}
	}
	return false
}
