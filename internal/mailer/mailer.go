// Package mailer renders and delivers the contact-form emails.
//
// Two templates are used: "contact" (staff notification) and "contact_form"
// (sender confirmation). Each exists as an HTML and a plain-text pongo2
// template per language under templates/<lang>/, with English as fallback.
// Messages are composed as multipart/alternative MIME with go-message and
// handed to a transport: SMTP in production, the log in development.
package mailer

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/flosch/pongo2/v6"
	"github.com/gabriel-vasile/mimetype"
)

// Template names.
const (
	TemplateNotification = "contact"
	TemplateConfirmation = "contact_form"
)

//go:embed templates
var templateFS embed.FS

// ErrNoRecipient is returned when a Mail has no To address.
var ErrNoRecipient = errors.New("mailer: no recipient")

// Attachment is a file on disk sent with a mail.
type Attachment struct {
	Path        string // where the content lives
	Name        string // file name shown to the recipient
	ContentType string // sniffed when empty
}

// Mail is one message to render and send.
type Mail struct {
	Lang       string
	Template   string
	Subject    string
	Vars       map[string]string
	To         string
	ToName     string
	ReplyTo    string
	From       string // overrides the transport default when set
	FromName   string
	Attachment *Attachment
}

// Mailer delivers a Mail. Implementations render the template themselves.
type Mailer interface {
	Send(ctx context.Context, m Mail) error
}

// Templates renders the embedded email templates.
type Templates struct {
	set      *pongo2.TemplateSet
	fallback string
}

// NewTemplates loads the embedded templates; fallback is the language used
// when a template is missing for the requested one.
func NewTemplates(fallback string) (*Templates, error) {
	sub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		return nil, err
	}
	loader, err := pongo2.NewHttpFileSystemLoader(http.FS(sub), "")
	if err != nil {
		return nil, err
	}
	if fallback == "" {
		fallback = "en"
	}
	return &Templates{set: pongo2.NewSet("mail", loader), fallback: fallback}, nil
}

// Render returns the HTML and plain-text bodies of template name in lang.
func (t *Templates) Render(lang, name string, vars map[string]string) (htmlBody, textBody string, err error) {
	ctx := pongo2.Context{}
	for k, v := range vars {
		ctx[k] = v
	}
	if _, ok := ctx["message_text"]; !ok {
		ctx["message_text"] = vars["message"]
	}
	htmlBody, err = t.exec(lang, name+".html", ctx)
	if err != nil {
		return "", "", err
	}
	textBody, err = t.exec(lang, name+".txt", ctx)
	if err != nil {
		return "", "", err
	}
	return htmlBody, strings.TrimSpace(textBody) + "\n", nil
}

func (t *Templates) exec(lang, file string, ctx pongo2.Context) (string, error) {
	tpl, err := t.set.FromFile(lang + "/" + file)
	if err != nil && lang != t.fallback {
		tpl, err = t.set.FromFile(t.fallback + "/" + file)
	}
	if err != nil {
		return "", fmt.Errorf("mail template %s: %w", file, err)
	}
	return tpl.Execute(ctx)
}

// Compose builds the RFC 5322 message for m with the given bodies.
func Compose(from *mail.Address, m Mail, htmlBody, textBody string, now time.Time) ([]byte, error) {
	if m.To == "" {
		return nil, ErrNoRecipient
	}

	var h mail.Header
	h.SetDate(now)
	h.SetAddressList("From", []*mail.Address{from})
	h.SetAddressList("To", []*mail.Address{{Name: m.ToName, Address: m.To}})
	if m.ReplyTo != "" {
		h.SetAddressList("Reply-To", []*mail.Address{{Address: m.ReplyTo}})
	}
	h.SetSubject(m.Subject)
	if err := h.GenerateMessageID(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	mw, err := mail.CreateWriter(&buf, h)
	if err != nil {
		return nil, err
	}

	tw, err := mw.CreateInline()
	if err != nil {
		return nil, err
	}
	if err := writeInline(tw, "text/plain", textBody); err != nil {
		return nil, err
	}
	if err := writeInline(tw, "text/html", htmlBody); err != nil {
		return nil, err
	}
	if err := tw.Close(); err != nil {
		return nil, err
	}

	if a := m.Attachment; a != nil {
		if err := writeAttachment(mw, a); err != nil {
			return nil, err
		}
	}

	if err := mw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeInline(tw *mail.InlineWriter, contentType, body string) error {
	var ih mail.InlineHeader
	ih.SetContentType(contentType, map[string]string{"charset": "utf-8"})
	w, err := tw.CreatePart(ih)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(w, body); err != nil {
		return err
	}
	return w.Close()
}

func writeAttachment(mw *mail.Writer, a *Attachment) error {
	f, err := os.Open(a.Path)
	if err != nil {
		return fmt.Errorf("open attachment: %w", err)
	}
	defer f.Close()

	ct := a.ContentType
	if ct == "" {
		if m, err := mimetype.DetectFile(a.Path); err == nil {
			ct = m.String()
		} else {
			ct = "application/octet-stream"
		}
	}
	name := a.Name
	if name == "" {
		name = filepath.Base(a.Path)
	}

	var ah mail.AttachmentHeader
	ah.Set("Content-Type", ct)
	ah.SetFilename(name)
	w, err := mw.CreateAttachment(ah)
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, f); err != nil {
		return err
	}
	return w.Close()
}
