package services

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/tbourn/go-contactform/internal/domain"
	"github.com/tbourn/go-contactform/internal/mailer"
	"github.com/tbourn/go-contactform/internal/repo"
	"github.com/tbourn/go-contactform/internal/session"
	"github.com/tbourn/go-contactform/internal/view"
)

func newModule(t *testing.T) (*ContactModule, *serviceFixture) {
	t.Helper()
	f := newServiceFixture(t)
	r, err := view.New()
	if err != nil {
		t.Fatalf("view.New: %v", err)
	}
	m := &ContactModule{
		DB:          f.svc.DB,
		Store:       f.store,
		Service:     f.svc,
		Renderer:    r,
		I18n:        testCatalog,
		DefaultLang: "en",
	}
	return m, f
}

func TestInstall_SeedsOnlyMissingSettings(t *testing.T) {
	m, _ := newModule(t)
	ctx := context.Background()
	// newServiceFixture already stored both flags as "1"; turn one off.
	if err := repo.SetSetting(ctx, m.DB, SettingSendNotification, "0"); err != nil {
		t.Fatal(err)
	}

	if err := m.Install(ctx); err != nil {
		t.Fatalf("Install: %v", err)
	}
	if v, _, _ := repo.GetSetting(ctx, m.DB, SettingSendNotification); v != "0" {
		t.Fatalf("Install overwrote an existing setting: %q", v)
	}
	if v, ok, _ := repo.GetSetting(ctx, m.DB, SettingAllowFileUpload); !ok || v != "1" {
		t.Fatalf("file upload setting = %q/%v", v, ok)
	}
}

func TestRenderWidget_EmptyFormIssuesToken(t *testing.T) {
	m, _ := newModule(t)
	sess := session.New()

	out, err := m.RenderWidget(context.Background(), "displayContactContent", nil, IncomingRequest{}, sess)
	if err != nil {
		t.Fatalf("RenderWidget: %v", err)
	}
	if out.Result != nil || out.Vars.Notifications != nil {
		t.Fatalf("nothing was submitted: %+v", out)
	}
	if out.Vars.Token == "" || out.Vars.Token != sess.Token {
		t.Fatalf("token %q not stored in session", out.Vars.Token)
	}
	if len(out.Vars.Contacts) != 4 {
		t.Fatalf("contacts = %d", len(out.Vars.Contacts))
	}
	for _, want := range []string{`name="token" value="` + sess.Token + `"`, `name="submitMessage"`, "Customer service", `name="url"`} {
		if !strings.Contains(out.HTML, want) {
			t.Fatalf("html missing %q:\n%s", want, out.HTML)
		}
	}
	if strings.Contains(out.HTML, "fileUpload") {
		t.Fatalf("file input shown while uploads are not enabled")
	}

	again, _ := m.RenderWidget(context.Background(), "displayContactContent", nil, IncomingRequest{}, sess)
	if again.Vars.Token != out.Vars.Token {
		t.Fatalf("rendering twice rotated the token")
	}
}

func TestRenderWidget_SubmitSuccessHidesForm(t *testing.T) {
	m, f := newModule(t)
	sess := session.New()
	req := submission(sess, f.svc.Guard, nil)

	out, err := m.RenderWidget(context.Background(), "displayContactContent", map[string]any{"lang": "fr"}, req, sess)
	if err != nil {
		t.Fatal(err)
	}
	if out.Result == nil || !out.Result.Success {
		t.Fatalf("result = %+v", out.Result)
	}
	n := out.Vars.Notifications
	if n == nil || n.NwError || len(n.Messages) != 1 || n.Messages[0] != "Votre message a bien été envoyé à notre équipe." {
		t.Fatalf("notifications = %+v", n)
	}
	if !strings.Contains(out.HTML, "notification-success") || strings.Contains(out.HTML, "<textarea") {
		t.Fatalf("form shown after success:\n%s", out.HTML)
	}
	if out.Vars.Token != sess.Token || out.Vars.Token == req.Fields["token"] {
		t.Fatalf("token not rotated after submit")
	}
}

func TestRenderWidget_SubmitErrorEchoesInput(t *testing.T) {
	m, f := newModule(t)
	sess := session.New()
	req := submission(sess, f.svc.Guard, map[string]string{
		"from":    "visitor@example.com",
		"message": "Hi <b>there</b> & bye",
		"token":   "stale",
	})

	out, err := m.RenderWidget(context.Background(), "displayContactContent", nil, req, sess)
	if err != nil {
		t.Fatal(err)
	}
	n := out.Vars.Notifications
	if n == nil || !n.NwError || n.Messages[0] != "An error occurred while sending the message, please try again." {
		t.Fatalf("notifications = %+v", n)
	}
	if out.Vars.Message != "Hi there & bye" {
		t.Fatalf("echoed message = %q", out.Vars.Message)
	}
	if out.Vars.Email != "visitor@example.com" {
		t.Fatalf("echoed email = %q", out.Vars.Email)
	}
	if !strings.Contains(out.HTML, "notification-error") || !strings.Contains(out.HTML, "Hi there &amp; bye</textarea>") {
		t.Fatalf("form not redisplayed with input:\n%s", out.HTML)
	}
}

func TestRenderWidget_LoggedInCustomerSeesOrders(t *testing.T) {
	m, _ := newModule(t)
	sess := session.New()
	sess.SetCustomerID(7)
	sess.SetEmail("jane@example.com")

	out, err := m.RenderWidget(context.Background(), "displayContactContent", nil, IncomingRequest{}, sess)
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Vars.Orders) != 1 || out.Vars.Orders[0].Reference != "XKBKNABJK" {
		t.Fatalf("orders = %+v", out.Vars.Orders)
	}
	if ps := out.Vars.Orders[0].Products; len(ps) != 1 || ps[0].ID != 11 || ps[0].Name != "Mug" {
		t.Fatalf("products = %+v", ps)
	}
	if out.Vars.Email != "jane@example.com" {
		t.Fatalf("email prefill = %q", out.Vars.Email)
	}
	if !strings.Contains(out.HTML, "XKBKNABJK") {
		t.Fatalf("order not rendered")
	}

	m.CatalogMode = true
	out, _ = m.RenderWidget(context.Background(), "displayContactContent", nil, IncomingRequest{}, sess)
	if len(out.Vars.Orders) != 0 {
		t.Fatalf("orders listed in catalog mode")
	}
}

func TestRenderWidget_ProductPickerDefaultsToNone(t *testing.T) {
	m, f := newModule(t)
	ctx := context.Background()
	sess := session.New()
	sess.SetCustomerID(7)

	out, err := m.RenderWidget(ctx, "displayContactContent", nil, IncomingRequest{}, sess)
	if err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(out.HTML, `name="id_product"`); n != 1 {
		t.Fatalf("id_product selects = %d, want 1:\n%s", n, out.HTML)
	}
	picker := out.HTML[strings.Index(out.HTML, `name="id_product"`):]
	first := picker[strings.Index(picker, "<option"):]
	if !strings.HasPrefix(first, `<option value="">`) {
		t.Fatalf("product picker has no empty default:\n%s", picker)
	}

	// A browser posts the default choices: no order, no product.
	res := f.svc.Submit(ctx, tr("en"), submission(sess, f.svc.Guard, map[string]string{
		"from": "jane@example.com", "id_contact": "3", "id_order": "", "id_product": "",
	}), sess)
	if !res.Success || res.Thread.OrderID != 0 || res.Thread.ProductID != 0 {
		t.Fatalf("thread = %+v", res.Thread)
	}
	note := f.mailer.byTemplate(mailer.TemplateNotification)[0]
	if note.Vars["product_name"] != "" {
		t.Fatalf("product_name = %q", note.Vars["product_name"])
	}

	res = f.svc.Submit(ctx, tr("en"), submission(sess, f.svc.Guard, map[string]string{
		"from": "jane@example.com", "id_contact": "3", "id_order": "21", "id_product": "11",
		"message": "The mug arrived broken",
	}), sess)
	if !res.Success || res.Thread.OrderID != 21 || res.Thread.ProductID != 11 {
		t.Fatalf("thread = %+v", res.Thread)
	}
}

func TestRenderWidget_ResumesThreadWithToken(t *testing.T) {
	m, _ := newModule(t)
	ctx := context.Background()
	th := &domain.CustomerThread{CustomerID: 7, OrderID: 21, ProductID: 11, ContactID: 3, Lang: "en",
		Email: "jane@example.com", Status: domain.ThreadStatusOpen, Token: "AbCdEfGhJkLm"}
	if err := repo.CreateThread(ctx, m.DB, th); err != nil {
		t.Fatal(err)
	}
	id := func(n uint) string { return strconv.FormatUint(uint64(n), 10) }

	out, err := m.RenderWidget(ctx, "displayContactContent", nil, IncomingRequest{Fields: map[string]string{
		"id_customer_thread": id(th.ID), "token": "AbCdEfGhJkLm",
	}}, session.New())
	if err != nil {
		t.Fatal(err)
	}
	ct := out.Vars.CustomerThread
	if ct == nil || ct.ID != th.ID || ct.OrderReference != "XKBKNABJK" {
		t.Fatalf("thread view = %+v", ct)
	}
	if len(out.Vars.Contacts) != 1 || out.Vars.Contacts[0].ID != 3 || out.Vars.IDContact != 3 {
		t.Fatalf("contacts not restricted: %+v", out.Vars.Contacts)
	}
	if out.Vars.Email != "jane@example.com" {
		t.Fatalf("email = %q", out.Vars.Email)
	}
	if len(out.Vars.Orders) != 1 || len(out.Vars.Orders[0].Products) != 1 {
		t.Fatalf("orders = %+v", out.Vars.Orders)
	}
	for _, want := range []string{`name="ct_token" value="AbCdEfGhJkLm"`, "readonly"} {
		if !strings.Contains(out.HTML, want) {
			t.Fatalf("html missing %q", want)
		}
	}

	wrong, _ := m.RenderWidget(ctx, "displayContactContent", nil, IncomingRequest{Fields: map[string]string{
		"id_customer_thread": id(th.ID), "token": "nope",
	}}, session.New())
	if wrong.Vars.CustomerThread != nil || len(wrong.Vars.Contacts) != 4 {
		t.Fatalf("thread resumed with a wrong token")
	}

	for name, fields := range map[string]map[string]string{
		"wrong token":    {"id_customer_thread": id(th.ID), "ct_token": "nope"},
		"unknown thread": {"id_customer_thread": "9999", "ct_token": "AbCdEfGhJkLm"},
	} {
		if _, _, err := m.resumeThread(ctx, IncomingRequest{Fields: fields}); !errors.Is(err, ErrThreadNotFound) {
			t.Fatalf("%s: err = %v, want ErrThreadNotFound", name, err)
		}
	}
	if tv, _, err := m.resumeThread(ctx, IncomingRequest{}); tv != nil || err != nil {
		t.Fatalf("no resume requested: %+v %v", tv, err)
	}
}

func TestHandleAdminConfig(t *testing.T) {
	m, _ := newModule(t)
	ctx := context.Background()

	shown, err := m.HandleAdminConfig(ctx, AdminRequest{Lang: "en"})
	if err != nil {
		t.Fatal(err)
	}
	if !shown.SendConfirmation || !shown.SendNotification || shown.Confirmation != "" {
		t.Fatalf("initial = %+v", shown)
	}

	saved, err := m.HandleAdminConfig(ctx, AdminRequest{Lang: "de", Fields: map[string]string{
		"submitContactform":     "1",
		SettingSendConfirmation: "1",
	}})
	if err != nil {
		t.Fatal(err)
	}
	if !saved.SendConfirmation || saved.SendNotification {
		t.Fatalf("saved = %+v", saved)
	}
	if saved.Confirmation == "" || saved.Confirmation == "Settings updated" {
		t.Fatalf("confirmation not localized: %q", saved.Confirmation)
	}
	if !strings.Contains(saved.HTML, saved.Confirmation) || !strings.Contains(saved.HTML, SettingSendNotification) {
		t.Fatalf("admin html:\n%s", saved.HTML)
	}
	if v, _, _ := repo.GetSetting(ctx, m.DB, SettingSendNotification); v != "0" {
		t.Fatalf("stored notification flag = %q", v)
	}
}

func TestContacts_LocalizedWithFallback(t *testing.T) {
	m, _ := newModule(t)

	fr, err := m.Contacts(context.Background(), "fr")
	if err != nil {
		t.Fatal(err)
	}
	var found bool
	for _, c := range fr {
		if c.ID == 3 {
			found = c.Name == "Ventes"
		}
	}
	if !found {
		t.Fatalf("french contacts = %+v", fr)
	}

	def, err := m.Contacts(context.Background(), "")
	if err != nil || len(def) != 4 {
		t.Fatalf("default contacts = %+v, %v", def, err)
	}
}
