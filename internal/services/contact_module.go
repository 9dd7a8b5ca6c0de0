// Package services – ContactModule
//
// ContactModule is the surface the host page pipeline talks to: it renders
// the contact widget (running a submission first when the form was posted),
// serves the admin settings form and seeds settings on install.
package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/tbourn/go-contactform/internal/domain"
	"github.com/tbourn/go-contactform/internal/i18n"
	"github.com/tbourn/go-contactform/internal/sanitize"
	"github.com/tbourn/go-contactform/internal/session"
	"github.com/tbourn/go-contactform/internal/sysutil"
	"github.com/tbourn/go-contactform/internal/view"
)

// Translations resolves a Translator for a language code.
type Translations interface {
	For(lang string) i18n.Translator
}

// Notifications is the flash block shown above the form.
type Notifications struct {
	Messages []string `json:"messages"`
	NwError  bool     `json:"nw_error"`
}

// ProductOption is one product of an order in the orders dropdown.
type ProductOption struct {
	ID   uint   `json:"id_product"`
	Name string `json:"name"`
}

// OrderOption is one order of the logged-in customer.
type OrderOption struct {
	ID        uint            `json:"id_order"`
	Reference string          `json:"reference"`
	Products  []ProductOption `json:"products"`
}

// ThreadView is a resumed thread as shown in the widget.
type ThreadView struct {
	ID             uint   `json:"id_customer_thread"`
	Token          string `json:"token"`
	Email          string `json:"email"`
	ContactID      uint   `json:"id_contact"`
	OrderID        uint   `json:"id_order"`
	OrderReference string `json:"reference,omitempty"`
	ProductID      uint   `json:"id_product"`
}

// WidgetVars are the variables the widget template is rendered with.
type WidgetVars struct {
	Contacts        []domain.LocalizedContact `json:"contacts"`
	Message         string                    `json:"message"`
	AllowFileUpload bool                      `json:"allow_file_upload"`
	Orders          []OrderOption             `json:"orders"`
	Email           string                    `json:"email"`
	Token           string                    `json:"token"`
	IDContact       uint                      `json:"id_contact"`
	IDOrder         uint                      `json:"id_order"`
	IDProduct       uint                      `json:"id_product"`
	CustomerThread  *ThreadView               `json:"customer_thread,omitempty"`
	Notifications   *Notifications            `json:"notifications,omitempty"`
}

// WidgetResult is the rendered widget plus the data behind it.
type WidgetResult struct {
	HTML   string
	Vars   WidgetVars
	Result *SubmitResult // nil when nothing was submitted
}

// AdminRequest is one call to the admin settings form.
type AdminRequest struct {
	Lang   string
	Action string
	Fields map[string]string
}

// Submitted reports whether the settings form was posted.
func (r AdminRequest) Submitted() bool {
	_, ok := r.Fields["submitContactform"]
	return ok
}

// AdminResult is the admin form state after handling a request.
type AdminResult struct {
	HTML             string   `json:"-"`
	SendConfirmation bool     `json:"send_confirmation_email"`
	SendNotification bool     `json:"send_notification_email"`
	Confirmation     string   `json:"confirmation,omitempty"`
	Errors           []string `json:"errors,omitempty"`
}

// ContactModule renders the widget and handles admin configuration.
type ContactModule struct {
	DB          *gorm.DB
	Store       Store
	Service     *ContactService
	Renderer    view.Renderer
	I18n        Translations
	DefaultLang string
	CatalogMode bool
}

// Install seeds the module settings when they are absent.
func (m *ContactModule) Install(ctx context.Context) error {
	for _, name := range []string{SettingSendConfirmation, SettingSendNotification, SettingAllowFileUpload} {
		_, ok, err := m.Store.GetSetting(ctx, m.DB, name)
		if err != nil {
			return fmt.Errorf("read setting %s: %w", name, err)
		}
		if ok {
			continue
		}
		if err := m.Store.SetSetting(ctx, m.DB, name, "1"); err != nil {
			return fmt.Errorf("seed setting %s: %w", name, err)
		}
	}
	return nil
}

// RenderWidget renders the contact form for hook. configuration may carry
// "lang" (the shop language) and "action" (the form target URL). When the
// request carries submitMessage, the submission is processed first and its
// outcome shown as notifications.
func (m *ContactModule) RenderWidget(ctx context.Context, hook string, configuration map[string]any, req IncomingRequest, sess *session.Session) (WidgetResult, error) {
	if sess == nil {
		sess = session.New()
	}
	lang := m.DefaultLang
	if l, ok := configuration["lang"].(string); ok && l != "" {
		lang = l
	}
	tr := m.I18n.For(lang)
	lang = tr.Lang()

	var out WidgetResult
	vars := &out.Vars

	if req.Has("submitMessage") {
		res := m.Service.Submit(ctx, tr, req, sess)
		out.Result = res
		vars.Notifications = &Notifications{Messages: res.Messages(tr), NwError: !res.Success}
	}

	var thread *domain.CustomerThread
	switch tv, t, err := m.resumeThread(ctx, req); {
	case err != nil:
		zerolog.Ctx(ctx).Debug().Err(err).Msg("thread not resumed")
	case tv != nil:
		vars.CustomerThread = tv
		thread = t
	}

	contacts, err := m.Store.ListContacts(ctx, m.DB, lang)
	if err != nil {
		return out, fmt.Errorf("list contacts: %w", err)
	}
	if thread != nil {
		for _, c := range contacts {
			if c.ID == thread.ContactID {
				contacts = []domain.LocalizedContact{c}
				break
			}
		}
	}
	vars.Contacts = contacts

	vars.Message = sanitize.Clean(req.Raw("message"))
	vars.AllowFileUpload = settingBool(ctx, m.Store, m.DB, SettingAllowFileUpload, false)
	if !m.CatalogMode {
		vars.Orders = m.orders(ctx, sess, thread, lang)
	}
	vars.Email = m.prefillEmail(req, sess, vars.CustomerThread)
	vars.IDContact = req.UintField("id_contact")
	if thread != nil {
		vars.IDContact = thread.ContactID
	}
	vars.IDOrder = req.UintField("id_order")
	vars.IDProduct = req.UintField("id_product")
	if thread != nil {
		vars.IDOrder = thread.OrderID
		vars.IDProduct = thread.ProductID
	}
	vars.Token = m.Service.Guard.Ensure(sess)

	html, err := m.Renderer.Render(view.Widget, tr, widgetTemplateVars(hook, configuration, out.Vars))
	if err != nil {
		return out, err
	}
	out.HTML = html
	return out, nil
}

// Contacts lists the contacts offered in lang, falling back to the default
// language.
func (m *ContactModule) Contacts(ctx context.Context, lang string) ([]domain.LocalizedContact, error) {
	if lang == "" {
		lang = m.DefaultLang
	}
	return m.Store.ListContacts(ctx, m.DB, m.I18n.For(lang).Lang())
}

// resumeThread loads the thread named by id_customer_thread when its token
// matches. The token is read from ct_token, or from token on resume links.
// It returns nils when no thread was asked for, and ErrThreadNotFound when
// the id/token pair does not match.
func (m *ContactModule) resumeThread(ctx context.Context, req IncomingRequest) (*ThreadView, *domain.CustomerThread, error) {
	id := req.UintField("id_customer_thread")
	tok := req.Field("ct_token")
	if tok == "" {
		tok = req.Field("token")
	}
	if id == 0 || tok == "" {
		return nil, nil, nil
	}
	t, err := m.Store.GetThread(ctx, m.DB, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, ErrThreadNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load thread %d: %w", id, err)
	}
	if subtle.ConstantTimeCompare([]byte(t.Token), []byte(tok)) != 1 {
		return nil, nil, ErrThreadNotFound
	}
	tv := &ThreadView{
		ID: t.ID, Token: t.Token, Email: t.Email,
		ContactID: t.ContactID, OrderID: t.OrderID, ProductID: t.ProductID,
	}
	if t.HasOrder() {
		if o, err := m.Store.GetOrder(ctx, m.DB, t.OrderID); err == nil {
			tv.OrderReference = o.Reference
		}
	}
	return tv, t, nil
}

// orders lists the customer's orders with their products. A resumed thread
// narrows the list to the thread's order and product.
func (m *ContactModule) orders(ctx context.Context, sess *session.Session, thread *domain.CustomerThread, lang string) []OrderOption {
	lg := zerolog.Ctx(ctx)
	var out []OrderOption

	switch {
	case thread == nil && sess.CustomerID != 0:
		orders, err := m.Store.ListCustomerOrders(ctx, m.DB, sess.CustomerID)
		if err != nil {
			lg.Warn().Err(err).Msg("list customer orders failed")
			return nil
		}
		for _, o := range orders {
			out = append(out, orderOption(o))
		}
	case thread != nil && thread.OrderID > 0:
		if o, err := m.Store.GetOrder(ctx, m.DB, thread.OrderID); err == nil {
			out = append(out, orderOption(*o))
		}
	}

	if thread != nil && thread.ProductID != 0 {
		p, err := m.Store.GetProduct(ctx, m.DB, thread.ProductID, lang)
		if err == nil {
			idx := -1
			for i := range out {
				if out[i].ID == thread.OrderID {
					idx = i
					break
				}
			}
			if idx < 0 {
				out = append(out, OrderOption{ID: thread.OrderID})
				idx = len(out) - 1
			}
			if !hasProduct(out[idx].Products, p.ID) {
				out[idx].Products = append(out[idx].Products, ProductOption{ID: p.ID, Name: p.Name(lang)})
			}
		}
	}
	return out
}

func orderOption(o domain.Order) OrderOption {
	opt := OrderOption{ID: o.ID, Reference: o.Reference}
	for _, l := range o.Lines {
		if !hasProduct(opt.Products, l.ProductID) {
			opt.Products = append(opt.Products, ProductOption{ID: l.ProductID, Name: l.ProductName})
		}
	}
	return opt
}

func hasOrderProducts(orders []OrderOption) bool {
	for _, o := range orders {
		if len(o.Products) > 0 {
			return true
		}
	}
	return false
}

func hasProduct(ps []ProductOption, id uint) bool {
	for _, p := range ps {
		if p.ID == id {
			return true
		}
	}
	return false
}

// prefillEmail picks the thread email, else the posted from, else the
// session email when it is a valid address.
func (m *ContactModule) prefillEmail(req IncomingRequest, sess *session.Session, tv *ThreadView) string {
	if tv != nil && tv.Email != "" {
		return tv.Email
	}
	if req.Has("from") {
		return req.Field("from")
	}
	if IsEmail(sess.Email) {
		return sess.Email
	}
	return ""
}

func widgetTemplateVars(hook string, configuration map[string]any, v WidgetVars) map[string]any {
	vars := map[string]any{
		"hook":              hook,
		"contacts":          v.Contacts,
		"message":           v.Message,
		"allow_file_upload": v.AllowFileUpload,
		"orders":            v.Orders,
		"email":             v.Email,
		"token":             v.Token,
		"id_contact":        v.IDContact,
		"id_order":          v.IDOrder,
		"id_product":        v.IDProduct,
		"order_products":    hasOrderProducts(v.Orders),
		"action":            "",
	}
	if a, ok := configuration["action"].(string); ok {
		vars["action"] = a
	}
	if v.CustomerThread != nil {
		vars["customer_thread"] = v.CustomerThread
	}
	if n := v.Notifications; n != nil {
		vars["notifications"] = map[string]any{"messages": n.Messages, "nw_error": n.NwError}
	}
	return vars
}

// HandleAdminConfig shows the settings form and saves it when submitted.
func (m *ContactModule) HandleAdminConfig(ctx context.Context, req AdminRequest) (AdminResult, error) {
	tr := m.I18n.For(req.Lang)
	var out AdminResult

	if req.Submitted() {
		for name, raw := range map[string]string{
			SettingSendConfirmation: req.Fields[SettingSendConfirmation],
			SettingSendNotification: req.Fields[SettingSendNotification],
		} {
			if err := m.Store.SetSetting(ctx, m.DB, name, boolSetting(sysutil.IsTruthy(raw))); err != nil {
				return out, fmt.Errorf("save setting %s: %w", name, err)
			}
		}
		out.Confirmation = tr.T(i18n.MsgSettingsUpdated)
		zerolog.Ctx(ctx).Info().Msg("contact form settings updated")
	}

	out.SendConfirmation = settingBool(ctx, m.Store, m.DB, SettingSendConfirmation, false)
	out.SendNotification = settingBool(ctx, m.Store, m.DB, SettingSendNotification, false)

	html, err := m.Renderer.Render(view.Admin, tr, map[string]any{
		"action":                  req.Action,
		"send_confirmation_email": out.SendConfirmation,
		"send_notification_email": out.SendNotification,
		"confirmation":            out.Confirmation,
		"errors":                  out.Errors,
	})
	if err != nil {
		return out, err
	}
	out.HTML = html
	return out, nil
}
