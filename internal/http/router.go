// Package httpapi wires the HTTP transport (Gin) to the contact form
// services, middleware, and route handlers. It centralizes cross-cutting
// concerns such as tracing, correlation IDs, logging/redaction, panic
// recovery, compression, metrics, CORS, security headers, visitor sessions,
// request language and submission rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/tbourn/go-contactform/internal/config"
	_ "github.com/tbourn/go-contactform/internal/docs" // swagger spec registration
	"github.com/tbourn/go-contactform/internal/domain"
	"github.com/tbourn/go-contactform/internal/http/handlers"
	"github.com/tbourn/go-contactform/internal/http/middleware"
	"github.com/tbourn/go-contactform/internal/i18n"
	"github.com/tbourn/go-contactform/internal/mailer"
	"github.com/tbourn/go-contactform/internal/repo"
	"github.com/tbourn/go-contactform/internal/services"
	"github.com/tbourn/go-contactform/internal/session"
	"github.com/tbourn/go-contactform/internal/storage"
	"github.com/tbourn/go-contactform/internal/view"
)

// bodySlack is added to MAX_UPLOAD_BYTES for the other form fields and the
// multipart framing.
const bodySlack = 1 << 20

// contactRepoShim adapts the repository free functions to the services.Store
// interface expected by the contact services. This keeps services decoupled
// from the concrete repo package while reusing existing functions.
type contactRepoShim struct{}

func (contactRepoShim) GetContact(ctx context.Context, db *gorm.DB, id uint, lang string) (*domain.LocalizedContact, error) {
	return repo.GetContact(ctx, db, id, lang)
}

func (contactRepoShim) ListContacts(ctx context.Context, db *gorm.DB, lang string) ([]domain.LocalizedContact, error) {
	return repo.ListContacts(ctx, db, lang)
}

func (contactRepoShim) FindThreadIDByEmailAndOrder(ctx context.Context, db *gorm.DB, email string, orderID uint) (uint, error) {
	return repo.FindThreadIDByEmailAndOrder(ctx, db, email, orderID)
}

func (contactRepoShim) GetThread(ctx context.Context, db *gorm.DB, id uint) (*domain.CustomerThread, error) {
	return repo.GetThread(ctx, db, id)
}

func (contactRepoShim) CreateThread(ctx context.Context, db *gorm.DB, t *domain.CustomerThread) error {
	return repo.CreateThread(ctx, db, t)
}

func (contactRepoShim) UpdateThread(ctx context.Context, db *gorm.DB, t *domain.CustomerThread) error {
	return repo.UpdateThread(ctx, db, t)
}

func (contactRepoShim) LastMessageBody(ctx context.Context, db *gorm.DB, threadID uint) (string, bool, error) {
	return repo.LastMessageBody(ctx, db, threadID)
}

func (contactRepoShim) CreateMessage(ctx context.Context, db *gorm.DB, m *domain.CustomerMessage) error {
	return repo.CreateMessage(ctx, db, m)
}

func (contactRepoShim) GetCustomer(ctx context.Context, db *gorm.DB, id uint) (*domain.Customer, error) {
	return repo.GetCustomer(ctx, db, id)
}

func (contactRepoShim) FindCustomerByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.Customer, error) {
	return repo.FindCustomerByEmail(ctx, db, email)
}

// GetOrder loads the order with its lines; the widget and the notification
// both need the product names.
func (contactRepoShim) GetOrder(ctx context.Context, db *gorm.DB, id uint) (*domain.Order, error) {
	return repo.GetOrderWithLines(ctx, db, id)
}

func (contactRepoShim) ListCustomerOrders(ctx context.Context, db *gorm.DB, customerID uint) ([]domain.Order, error) {
	return repo.ListCustomerOrders(ctx, db, customerID)
}

func (contactRepoShim) GetProduct(ctx context.Context, db *gorm.DB, id uint, lang string) (*domain.Product, error) {
	return repo.GetProduct(ctx, db, id, lang)
}

func (contactRepoShim) GetSetting(ctx context.Context, db *gorm.DB, name string) (string, bool, error) {
	return repo.GetSetting(ctx, db, name)
}

func (contactRepoShim) SetSetting(ctx context.Context, db *gorm.DB, name, value string) error {
	return repo.SetSetting(ctx, db, name, value)
}

// Deps are the collaborators RegisterRoutes wires into the contact module.
// DB, Renderer and Mailer are required. A nil Sessions store falls back to
// an in-memory store, a nil Catalog to one built from SUPPORTED_LANGS, and a
// nil Uploads disables attachments.
type Deps struct {
	DB       *gorm.DB
	Sessions session.Store
	Mailer   mailer.Mailer
	Uploads  *storage.Uploads
	Renderer *view.Pongo
	Catalog  *i18n.Catalog
}

// NewContactModule builds the contact module over the repo package.
func NewContactModule(deps Deps, cfg config.Config) *services.ContactModule {
	catalog := deps.Catalog
	if catalog == nil {
		catalog = i18n.NewCatalog(cfg.Shop.SupportedLangs...)
	}
	store := contactRepoShim{}

	opts := services.ContactServiceOptions{
		ShopID:       cfg.Shop.ID,
		ShopName:     cfg.Shop.Name,
		SupportEmail: cfg.Shop.Email,
		Guard:        &services.TokenGuard{TTL: cfg.ContactForm.TokenTTL},
		Mailer:       deps.Mailer,
	}
	if deps.Uploads != nil {
		opts.Files = deps.Uploads
	}

	return &services.ContactModule{
		DB:          deps.DB,
		Store:       store,
		Service:     services.NewContactService(deps.DB, store, opts),
		Renderer:    deps.Renderer,
		I18n:        catalog,
		DefaultLang: catalog.Default(),
		CatalogMode: cfg.Shop.CatalogMode,
	}
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine and returns the contact module it built, so the caller can run its
// install hook.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Gzip
//  7. Metrics
//  8. CORS and Security headers
//  9. Sessions and language (contact routes only)
//  10. Rate limiter (submissions only)
func RegisterRoutes(r *gin.Engine, deps Deps, cfg config.Config) *services.ContactModule {
	r.HandleMethodNotAllowed = true

	catalog := deps.Catalog
	if catalog == nil {
		catalog = i18n.NewCatalog(cfg.Shop.SupportedLangs...)
		deps.Catalog = catalog
	}
	sessions := deps.Sessions
	if sessions == nil {
		sessions = session.NewMemoryStore(cfg.Session.TTL)
	}

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	maskHeaders := []string{handlers.AdminTokenHeader}
	if cfg.Session.CustomerHeader != "" {
		maskHeaders = append(maskHeaders, cfg.Session.CustomerHeader)
	}
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{MaskHeaders: maskHeaders}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (largest attachment plus the form fields)
	r.Use(limitBody(cfg.ContactForm.MaxUploadBytes + bodySlack))

	// 6) Response compression; the scrape endpoint negotiates its own
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	// 7) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 8) CORS posture (safe defaults: allow all if none configured)
	corsHeaders := []string{"Origin", "Content-Type", "Accept", "Accept-Language", "X-Request-ID", handlers.AdminTokenHeader}
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     corsHeaders,
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length", "Content-Language"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		// Echo ACAO with the request Origin when it is in the allowlist (in addition to gin-contrib/cors).
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     corsHeaders,
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length", "Content-Language"},
			AllowCredentials: true, // the session cookie rides along with embedded widgets
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS; CSP on HTML)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:            cfg.Security.EnableHSTS,
		HSTSMaxAge:            cfg.Security.HSTSMaxAge,
		NoStore:               true,
		EnablePolicy:          true,
		ContentSecurityPolicy: middleware.DefaultContentSecurityPolicy,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: module ← services ← repo/db
	module := NewContactModule(deps, cfg)
	hopt := handlers.Options{
		Module:     module,
		Pages:      deps.Renderer,
		I18n:       catalog,
		AdminToken: cfg.ContactForm.AdminToken,
	}
	if deps.Uploads != nil {
		hopt.Uploads = deps.Uploads
	}
	h := handlers.New(hopt)

	visitor := []gin.HandlerFunc{
		middleware.Sessions(sessions, middleware.SessionOptions{
			CookieName:     cfg.Session.CookieName,
			TTL:            cfg.Session.TTL,
			Secure:         cfg.Session.Secure,
			CustomerHeader: cfg.Session.CustomerHeader,
		}),
		middleware.Language(catalog),
	}

	// Token-bucket rate limiter per client IP, submissions only
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByClientIP())

	// Public API
	api := groupWithPrefix(r, cfg.APIBasePath) // e.g. "/api/v1"
	api.Use(visitor...)
	{
		api.GET("/contact", h.GetContact)
		api.POST("/contact", rl.Handler(), h.PostContact)
		api.GET("/contacts", h.ListContacts)
	}

	// Back office
	admin := r.Group("/admin")
	admin.Use(middleware.SameOrigin(), middleware.Language(catalog))
	{
		admin.GET("/contactform", h.AdminConfig)
		admin.POST("/contactform", h.AdminConfig)
	}

	return module
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
