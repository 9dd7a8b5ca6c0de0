// Contact form HTTP handlers.
//
// This file exposes the contact form endpoints:
//   - GET  /contact             (render the widget, HTML or JSON variables)
//   - POST /contact             (submit a message, then render the outcome)
//   - GET  /contacts            (localized subject list)
//   - GET  /admin/contactform   (settings form)
//   - POST /admin/contactform   (save settings)
//
// Handlers are transport-thin: they turn the HTTP request into an explicit
// services.IncomingRequest plus the visitor session, call the module and
// translate the result into HTML or JSON.
package handlers

import (
	"context"
	"crypto/subtle"
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-contactform/internal/domain"
	"github.com/tbourn/go-contactform/internal/http/middleware"
	"github.com/tbourn/go-contactform/internal/i18n"
	"github.com/tbourn/go-contactform/internal/services"
	"github.com/tbourn/go-contactform/internal/session"
	"github.com/tbourn/go-contactform/internal/storage"
	"github.com/tbourn/go-contactform/internal/utils"
)

// WidgetHook is the display hook the standalone page renders the widget in.
const WidgetHook = "displayContactContent"

// AdminTokenHeader carries the admin secret for /admin routes.
const AdminTokenHeader = "X-Admin-Token"

//
// Service contracts (context-aware)
//

// ContactModule is the contact form surface consumed by the handlers.
type ContactModule interface {
	RenderWidget(ctx context.Context, hook string, configuration map[string]any, req services.IncomingRequest, sess *session.Session) (services.WidgetResult, error)
	HandleAdminConfig(ctx context.Context, req services.AdminRequest) (services.AdminResult, error)
	Contacts(ctx context.Context, lang string) ([]domain.LocalizedContact, error)
}

// PageRenderer wraps a rendered fragment in the site layout.
type PageRenderer interface {
	Page(tr i18n.Translator, title, content string) (string, error)
}

// FileStager copies an uploaded file to a staging location.
type FileStager interface {
	Stage(fh *multipart.FileHeader) (string, error)
}

//
// Handler wiring
//

// Options configures New.
type Options struct {
	Module     ContactModule
	Pages      PageRenderer
	I18n       services.Translations
	Uploads    FileStager // nil ignores attachments
	AdminToken string     // empty leaves /admin open
	MaxMemory  int64      // multipart bytes kept in memory; 0 means 8 MiB
}

// Handlers groups the contact form endpoints.
type Handlers struct {
	module     ContactModule
	pages      PageRenderer
	i18n       services.Translations
	uploads    FileStager
	adminToken string
	maxMemory  int64
}

// New constructs Handlers from opt.
func New(opt Options) *Handlers {
	mm := opt.MaxMemory
	if mm <= 0 {
		mm = 8 << 20
	}
	return &Handlers{
		module:     opt.Module,
		pages:      opt.Pages,
		i18n:       opt.I18n,
		uploads:    opt.Uploads,
		adminToken: opt.AdminToken,
		maxMemory:  mm,
	}
}

//
// DTOs
//

// SubmitResponse is the JSON outcome of a submission.
type SubmitResponse struct {
	Success   bool     `json:"success"`
	Duplicate bool     `json:"duplicate,omitempty"`
	Errors    []string `json:"errors"   example:"invalid_email"`
	Messages  []string `json:"messages" example:"Invalid email address."`
	// Token is the anti-forgery token to send with the next submission.
	Token    string `json:"token"`
	ThreadID uint   `json:"id_customer_thread,omitempty"`
}

// ContactsResponse lists the localized contacts.
type ContactsResponse struct {
	Lang     string                    `json:"lang" example:"en"`
	Contacts []domain.LocalizedContact `json:"contacts"`
}

//
// Helpers
//

func incoming(c *gin.Context, fields map[string]string) services.IncomingRequest {
	return services.IncomingRequest{
		Fields:    fields,
		ClientIP:  c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
}

// translator resolves the request language chosen by middleware.Language.
func (h *Handlers) translator(c *gin.Context) i18n.Translator {
	return h.i18n.For(middleware.LangFrom(c))
}

// renderWidget runs the module for req in the request language. The form
// posts back to the current path, keeping the language.
func (h *Handlers) renderWidget(c *gin.Context, req services.IncomingRequest) (services.WidgetResult, i18n.Translator, error) {
	tr := h.translator(c)
	configuration := map[string]any{
		"lang":   tr.Lang(),
		"action": c.Request.URL.Path + "?lang=" + tr.Lang(),
	}
	out, err := h.module.RenderWidget(c.Request.Context(), WidgetHook, configuration, req, middleware.SessionFrom(c))
	return out, tr, err
}

// writeWidget answers with the full page, or the bare fragment when
// ?fragment=1 is set (for embedding into a host page).
func (h *Handlers) writeWidget(c *gin.Context, tr i18n.Translator, fragment string) {
	if c.Query("fragment") == "1" {
		page(c, http.StatusOK, fragment)
		return
	}
	html, err := h.pages.Page(tr, tr.T(i18n.MsgContactUs), fragment)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeRenderFailed, "could not render page")
		return
	}
	page(c, http.StatusOK, html)
}

// attachment stages the fileUpload part. A receive or staging error is
// reported through UploadedFile.Err so validation turns it into a user error.
func (h *Handlers) attachment(c *gin.Context) *services.UploadedFile {
	if h.uploads == nil || c.Request.MultipartForm == nil {
		return nil
	}
	fh, err := c.FormFile("fileUpload")
	if errors.Is(err, http.ErrMissingFile) {
		return nil
	}
	if err != nil {
		return &services.UploadedFile{Name: "fileUpload", Err: err}
	}
	if fh.Filename == "" {
		return nil
	}
	f := &services.UploadedFile{Name: fh.Filename, Size: fh.Size}
	staged, err := h.uploads.Stage(fh)
	if err != nil {
		f.Err = err
		return f
	}
	f.StagedPath = staged
	return f
}

// parseBody reads a multipart or urlencoded body. The returned status is the
// HTTP status to fail with when err is non-nil.
func (h *Handlers) parseBody(c *gin.Context) (int, error) {
	var err error
	if c.ContentType() == gin.MIMEMultipartPOSTForm {
		err = c.Request.ParseMultipartForm(h.maxMemory)
	} else {
		err = c.Request.ParseForm()
	}
	if err == nil {
		return 0, nil
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge, err
	}
	return http.StatusBadRequest, err
}

// submitStatus maps a submission outcome to the JSON response status.
func submitStatus(res *services.SubmitResult) int {
	if res == nil || res.Success || len(res.Errors) == 0 {
		return http.StatusOK
	}
	switch code := res.Errors[0]; {
	case code == services.CodeTokenInvalid:
		return http.StatusForbidden
	case code.IsValidation():
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handlers) adminAuthorized(c *gin.Context) bool {
	if h.adminToken == "" {
		return true
	}
	got := c.GetHeader(AdminTokenHeader)
	return subtle.ConstantTimeCompare([]byte(got), []byte(h.adminToken)) == 1
}

//
// Handlers
//

// GetContact godoc
// @ID          getContact
// @Summary     Render the contact form
// @Description Renders the contact widget in the request language. Resume links carry id_customer_thread and token. With Accept: application/json the widget variables are returned instead.
// @Tags        Contact
// @Produce     html,json
//
// @Param       lang                query   string  false "Language code"                      example(fr)
// @Param       id_customer_thread  query   int     false "Thread to resume"
// @Param       token               query   string  false "Thread token from the resume link"
// @Param       fragment            query   string  false "Set to 1 to get the bare widget"   Enums(1)
//
// @Success     200  {object}  services.WidgetVars
// @Failure     500  {object}  handlers.ErrorResponse  "Render failed"
// @Router      /contact [get]
func (h *Handlers) GetContact(c *gin.Context) {
	fields := utils.FlattenForm(c.Request.URL.Query())
	// Submissions are POST only.
	delete(fields, "submitMessage")

	out, tr, err := h.renderWidget(c, incoming(c, fields))
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeRenderFailed, "could not render contact form")
		return
	}
	if wantsJSON(c) {
		ok(c, http.StatusOK, out.Vars)
		return
	}
	h.writeWidget(c, tr, out.HTML)
}

// PostContact godoc
// @ID          postContact
// @Summary     Submit a contact message
// @Description Validates the message, threads it and sends the configured emails. HTML clients get the form back with notifications; JSON clients get the outcome and the next token.
// @Tags        Contact
// @Accept      multipart/form-data,x-www-form-urlencoded
// @Produce     html,json
//
// @Param       from                formData  string  true  "Sender email"           example(jane@example.com)
// @Param       message             formData  string  true  "Message body"
// @Param       id_contact          formData  int     true  "Subject (contact id)"   example(2)
// @Param       token               formData  string  true  "Anti-forgery token"
// @Param       id_order            formData  int     false "Order the message is about"
// @Param       id_customer_thread  formData  int     false "Thread being answered"
// @Param       ct_token            formData  string  false "Token of that thread"
// @Param       fileUpload          formData  file    false "Attachment"
//
// @Success     200  {object}  handlers.SubmitResponse
// @Failure     403  {object}  handlers.SubmitResponse  "Token invalid"
// @Failure     422  {object}  handlers.SubmitResponse  "Validation failed"
// @Failure     413  {object}  handlers.ErrorResponse   "Body too large"
// @Failure     429  {object}  handlers.ErrorResponse   "Rate limited"
// @Failure     500  {object}  handlers.SubmitResponse  "Persistence or send failure"
// @Router      /contact [post]
func (h *Handlers) PostContact(c *gin.Context) {
	if status, err := h.parseBody(c); err != nil {
		if status == http.StatusRequestEntityTooLarge {
			fail(c, status, ErrCodePayloadTooLarge, "request body too large")
			return
		}
		fail(c, status, ErrCodeBadRequest, "invalid form body")
		return
	}

	fields := utils.FlattenForm(c.Request.URL.Query(), c.Request.PostForm)
	if _, ok := fields["submitMessage"]; !ok {
		fields["submitMessage"] = "1"
	}
	req := incoming(c, fields)
	if f := h.attachment(c); f != nil {
		req.UploadedFile = f
		// Moved files are gone by now; anything left is discarded.
		defer storage.Discard(f.StagedPath)
	}

	out, tr, err := h.renderWidget(c, req)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeRenderFailed, "could not render contact form")
		return
	}

	if wantsJSON(c) {
		resp := SubmitResponse{Token: out.Vars.Token, Errors: []string{}, Messages: []string{}}
		if res := out.Result; res != nil {
			resp.Success = res.Success
			resp.Duplicate = res.Duplicate
			for _, code := range res.Errors {
				resp.Errors = append(resp.Errors, string(code))
			}
			if res.Thread != nil {
				resp.ThreadID = res.Thread.ID
			}
		}
		if n := out.Vars.Notifications; n != nil {
			resp.Messages = n.Messages
		}
		ok(c, submitStatus(out.Result), resp)
		return
	}
	h.writeWidget(c, tr, out.HTML)
}

// ListContacts godoc
// @ID          listContacts
// @Summary     List contact subjects
// @Description Returns the contacts a message can be addressed to, localized in the request language.
// @Tags        Contact
// @Produce     json
//
// @Param       lang  query  string  false "Language code"  example(de)
//
// @Success     200  {object}  handlers.ContactsResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /contacts [get]
func (h *Handlers) ListContacts(c *gin.Context) {
	tr := h.translator(c)
	contacts, err := h.module.Contacts(c.Request.Context(), tr.Lang())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, "could not list contacts")
		return
	}
	ok(c, http.StatusOK, ContactsResponse{Lang: tr.Lang(), Contacts: contacts})
}

// AdminConfig godoc
// @ID          adminContactForm
// @Summary     Contact form settings
// @Description Shows (GET) or saves (POST with submitContactform) the email settings. Requires X-Admin-Token when ADMIN_TOKEN is configured.
// @Tags        Admin
// @Accept      x-www-form-urlencoded
// @Produce     html,json
//
// @Param       X-Admin-Token                         header    string  false "Admin secret"
// @Param       CONTACTFORM_SEND_CONFIRMATION_EMAIL   formData  string  false "Send confirmation email (1/0)"
// @Param       CONTACTFORM_SEND_NOTIFICATION_EMAIL   formData  string  false "Send notification email (1/0)"
//
// @Success     200  {object}  services.AdminResult
// @Failure     401  {object}  handlers.ErrorResponse  "Admin token missing or wrong"
// @Failure     500  {object}  handlers.ErrorResponse  "Save failed"
// @Router      /admin/contactform [get]
// @Router      /admin/contactform [post]
func (h *Handlers) AdminConfig(c *gin.Context) {
	if !h.adminAuthorized(c) {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "admin token required")
		return
	}

	fields := map[string]string{}
	if c.Request.Method == http.MethodPost {
		if err := c.Request.ParseForm(); err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid form body")
			return
		}
		fields = utils.FlattenForm(c.Request.PostForm)
		if _, ok := fields["submitContactform"]; !ok {
			fields["submitContactform"] = "1"
		}
	}

	tr := h.translator(c)
	res, err := h.module.HandleAdminConfig(c.Request.Context(), services.AdminRequest{
		Lang:   tr.Lang(),
		Action: c.Request.URL.Path,
		Fields: fields,
	})
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeSaveFailed, "could not save settings")
		return
	}
	if wantsJSON(c) {
		ok(c, http.StatusOK, res)
		return
	}
	html, err := h.pages.Page(tr, tr.T(i18n.MsgContactUs), res.HTML)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeRenderFailed, "could not render page")
		return
	}
	page(c, http.StatusOK, html)
}
