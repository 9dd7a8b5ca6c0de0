// Package services – ContactService
//
// This file implements the submission pipeline behind the contact form:
// token guard, input validation, thread resolution and notification, run
// linearly for one request. Validation failures stop before any side effect.
// Persistence and send failures are reported but nothing is rolled back.
//
// Observability: Submit is OpenTelemetry-instrumented and every outcome is
// counted in contactform_submissions_total.
package services

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-contactform/internal/domain"
	"github.com/tbourn/go-contactform/internal/i18n"
	"github.com/tbourn/go-contactform/internal/mailer"
	"github.com/tbourn/go-contactform/internal/observability"
	"github.com/tbourn/go-contactform/internal/session"
)

// SubmitResult is the outcome of one submission attempt.
type SubmitResult struct {
	Errors    []ErrorCode
	Success   bool
	Thread    *domain.CustomerThread // set when the message was threaded
	Duplicate bool                   // body repeated the last message; nothing sent
}

// Err returns the first error as a *SubmitError, or nil on success.
func (r *SubmitResult) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	return &SubmitError{Code: r.Errors[0]}
}

// Messages localizes the result for display.
func (r *SubmitResult) Messages(tr i18n.Translator) []string {
	if r.Success {
		return []string{tr.T(i18n.MsgSuccess)}
	}
	out := make([]string, 0, len(r.Errors))
	for _, c := range r.Errors {
		out = append(out, c.Localize(tr))
	}
	return out
}

// ContactService runs the submission pipeline.
type ContactService struct {
	DB    *gorm.DB
	Store Store

	Guard     *TokenGuard
	Validator *InputValidator
	Resolver  *ThreadResolver
	Notifier  *Notifier
}

// ContactServiceOptions configures NewContactService.
type ContactServiceOptions struct {
	ShopID       uint
	ShopName     string
	SupportEmail string
	Guard        *TokenGuard
	Files        FileMover
	Mailer       mailer.Mailer
}

// NewContactService wires the pipeline stages over one store.
func NewContactService(db *gorm.DB, st Store, opt ContactServiceOptions) *ContactService {
	g := opt.Guard
	if g == nil {
		g = &TokenGuard{}
	}
	shopID := opt.ShopID
	if shopID == 0 {
		shopID = 1
	}
	return &ContactService{
		DB:        db,
		Store:     st,
		Guard:     g,
		Validator: &InputValidator{DB: db, Store: st},
		Resolver:  &ThreadResolver{DB: db, Store: st, Files: opt.Files, ShopID: shopID},
		Notifier: &Notifier{
			DB: db, Store: st, Mailer: opt.Mailer,
			ShopName: opt.ShopName, SupportEmail: opt.SupportEmail,
		},
	}
}

// Submit validates and processes one contact-form submission. The session
// token is reissued whatever the outcome, and the sender email is remembered
// in the session once the input is valid.
func (s *ContactService) Submit(ctx context.Context, tr i18n.Translator, req IncomingRequest, sess *session.Session) *SubmitResult {
	ctx, span := otel.Tracer("services/ContactService").Start(ctx, "Submit",
		trace.WithAttributes(
			attribute.String("lang", tr.Lang()),
			attribute.Bool("attachment", req.HasAttachment()),
		),
	)
	defer span.End()
	lg := zerolog.Ctx(ctx)
	if sess == nil {
		sess = session.New()
	}

	res := &SubmitResult{}
	serr := s.process(ctx, tr, req, sess, res)
	s.Guard.Issue(sess)

	switch {
	case serr != nil:
		res.Errors = append(res.Errors, serr.Code)
		span.SetStatus(codes.Error, string(serr.Code))
		observability.SubmissionErrors.WithLabelValues(string(serr.Code)).Inc()
		if serr.Code.IsValidation() {
			observability.Submissions.WithLabelValues(observability.OutcomeRejected).Inc()
			lg.Warn().Err(serr.Err).Str("code", string(serr.Code)).Msg("contact submission rejected")
		} else {
			observability.Submissions.WithLabelValues(observability.OutcomeFailed).Inc()
			lg.Error().Err(serr.Err).Str("code", string(serr.Code)).Msg("contact submission failed")
		}
	case res.Duplicate:
		res.Success = true
		observability.Submissions.WithLabelValues(observability.OutcomeDuplicate).Inc()
		lg.Info().Msg("contact submission duplicate, nothing sent")
	default:
		res.Success = true
		observability.Submissions.WithLabelValues(observability.OutcomeSuccess).Inc()
		ev := lg.Info()
		if res.Thread != nil {
			ev = ev.Uint("thread_id", res.Thread.ID)
		}
		ev.Msg("contact submission accepted")
	}
	return res
}

func (s *ContactService) process(ctx context.Context, tr i18n.Translator, req IncomingRequest, sess *session.Session, res *SubmitResult) *SubmitError {
	lang := tr.Lang()

	in, serr := s.Validator.Validate(ctx, req, lang)
	if serr != nil {
		return serr
	}
	if !s.Guard.Validate(sess, req.Raw("token"), req.Raw("url")) {
		return fail(CodeTokenInvalid, nil)
	}
	sess.SetEmail(in.Email)

	customer := s.currentCustomer(ctx, sess, in.Email)
	var customerID uint
	if customer != nil {
		customerID = customer.ID
	}
	// Ownership is checked against the session customer only; an email
	// match must not unlock someone else's order.
	in.OrderID = s.Resolver.OwnedOrderID(ctx, in.OrderID, sess.CustomerID)

	outcome, serr := s.Resolver.Resolve(ctx, in, customerID, lang, req)
	if serr != nil {
		return serr
	}
	res.Thread = outcome.Thread
	res.Duplicate = !outcome.IsNewMessage

	return s.Notifier.Notify(ctx, tr, NotifyInput{
		Input:            in,
		Outcome:          outcome,
		Customer:         customer,
		SendConfirmation: settingBool(ctx, s.Store, s.DB, SettingSendConfirmation, false),
		SendNotification: settingBool(ctx, s.Store, s.DB, SettingSendNotification, false),
	})
}

// currentCustomer returns the logged-in customer, else the customer whose
// account email matches the sender, else nil.
func (s *ContactService) currentCustomer(ctx context.Context, sess *session.Session, email string) *domain.Customer {
	if sess != nil && sess.CustomerID != 0 {
		c, err := s.Store.GetCustomer(ctx, s.DB, sess.CustomerID)
		if err == nil {
			return c
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			zerolog.Ctx(ctx).Warn().Err(err).Msg("customer lookup failed")
		}
		return &domain.Customer{ID: sess.CustomerID}
	}
	c, err := s.Store.FindCustomerByEmail(ctx, s.DB, email)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("customer lookup by email failed")
		return nil
	}
	return c
}
