package services

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"gorm.io/gorm"

	"github.com/tbourn/go-contactform/internal/domain"
	"github.com/tbourn/go-contactform/internal/i18n"
	"github.com/tbourn/go-contactform/internal/mailer"
	"github.com/tbourn/go-contactform/internal/observability"
	"github.com/tbourn/go-contactform/internal/sanitize"
)

// Notifier sends the staff notification and the sender confirmation.
type Notifier struct {
	DB           *gorm.DB
	Store        Store
	Mailer       mailer.Mailer
	ShopName     string
	SupportEmail string // used when the contact has no routing address
}

// NotifyInput is everything the notifier needs about one submission.
type NotifyInput struct {
	Input            *ValidatedInput
	Outcome          *ThreadOutcome
	Customer         *domain.Customer // nil for guests
	SendConfirmation bool
	SendNotification bool
}

// Notify sends the configured emails. Any transport failure is reported as
// CodeSendFailed; nothing is retried.
func (n *Notifier) Notify(ctx context.Context, tr i18n.Translator, in NotifyInput) *SubmitError {
	if !in.Outcome.IsNewMessage || (!in.SendConfirmation && !in.SendNotification) {
		return nil
	}
	ctx, span := otel.Tracer("services/Notifier").Start(ctx, "Notify")
	defer span.End()

	vars := n.templateVars(ctx, tr, in)
	lang := tr.Lang()
	v := in.Input

	if in.SendNotification {
		to, toName := v.Contact.Email, v.Contact.Name
		if to == "" {
			to, toName = n.SupportEmail, n.ShopName
		}
		m := mailer.Mail{
			Lang:     lang,
			Template: mailer.TemplateNotification,
			Subject:  tr.T(i18n.MsgNotifySubject) + " [no_sync]",
			Vars:     vars,
			To:       to,
			ToName:   toName,
			ReplyTo:  v.Email,
		}
		if v.Attachment != nil && in.Outcome.AttachmentPath != "" {
			m.Attachment = &mailer.Attachment{Path: in.Outcome.AttachmentPath, Name: v.Attachment.Name}
		}
		if err := n.send(ctx, m); err != nil {
			return fail(CodeSendFailed, err)
		}
	}

	if in.SendConfirmation {
		cvars := make(map[string]string, len(vars))
		for k, val := range vars {
			cvars[k] = val
		}
		hidden := tr.T(i18n.MsgMessageHidden)
		cvars["message"] = hidden
		cvars["message_text"] = hidden

		m := mailer.Mail{
			Lang:     lang,
			Template: mailer.TemplateConfirmation,
			Subject:  confirmationSubject(tr, in.Outcome.Thread),
			Vars:     cvars,
			To:       v.Email,
		}
		if v.Contact.Email != "" {
			m.ReplyTo = v.Contact.Email
		}
		if err := n.send(ctx, m); err != nil {
			return fail(CodeSendFailed, err)
		}
	}
	return nil
}

func (n *Notifier) send(ctx context.Context, m mailer.Mail) error {
	err := n.Mailer.Send(ctx, m)
	result := "sent"
	if err != nil {
		result = "failed"
		zerolog.Ctx(ctx).Error().Err(err).Str("template", m.Template).Msg("mail send failed")
	}
	observability.Emails.WithLabelValues(m.Template, result).Inc()
	return err
}

// templateVars builds the variables shared by both templates.
func (n *Notifier) templateVars(ctx context.Context, tr i18n.Translator, in NotifyInput) map[string]string {
	v := in.Input
	vars := map[string]string{
		"shop_name":     n.ShopName,
		"firstname":     "",
		"lastname":      "",
		"order_name":    "-",
		"id_order":      "",
		"attached_file": "-",
		"message":       sanitize.NL2BR(v.Message),
		"message_text":  v.Message,
		"email":         v.Email,
		"product_name":  "",
	}
	if c := in.Customer; c != nil {
		vars["firstname"] = c.FirstName
		vars["lastname"] = c.LastName
	}
	if v.Attachment != nil {
		vars["attached_file"] = v.Attachment.Name
	}

	orderID := v.OrderID
	if t := in.Outcome.Thread; t != nil {
		orderID = t.OrderID
	}
	if orderID != 0 {
		if o, err := n.Store.GetOrder(ctx, n.DB, orderID); err == nil && o != nil {
			vars["order_name"] = o.Reference
			vars["id_order"] = strconv.FormatUint(uint64(o.ID), 10)
		}
	}
	if v.ProductID != 0 {
		if p, err := n.Store.GetProduct(ctx, n.DB, v.ProductID, tr.Lang()); err == nil {
			vars["product_name"] = p.Name(tr.Lang())
		}
	}
	return vars
}

func confirmationSubject(tr i18n.Translator, t *domain.CustomerThread) string {
	base := tr.T(i18n.MsgConfirmSubject)
	if t == nil || t.ID == 0 {
		return base
	}
	return fmt.Sprintf("%s #ct%d #tc%s", base, t.ID, t.Token)
}
