// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes application settings
// such as server timeouts, logging, database paths, rate limiting, sessions,
// outgoing mail, uploads and observability.
package config

import (
	"errors"
	"net/mail"
	"os"
	"strconv"
	"strings"
	"time"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "go-contactform")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// ShopConfig describes the storefront the contact form belongs to.
type ShopConfig struct {
	ID             uint     // SHOP_ID
	Name           string   // SHOP_NAME
	Email          string   // SHOP_EMAIL, support inbox for contacts without routing address
	DefaultLang    string   // DEFAULT_LANG
	SupportedLangs []string // SUPPORTED_LANGS (first entry wins on ties)
	CatalogMode    bool     // CATALOG_MODE hides the orders dropdown
}

// SessionConfig selects and tunes the visitor session store.
type SessionConfig struct {
	Backend    string        // memory|redis
	TTL        time.Duration // idle lifetime of a session
	CookieName string
	Secure     bool // mark the cookie Secure (HTTPS only)

	// CustomerHeader names a header set by the trusted storefront proxy with
	// the logged-in customer id. Empty disables it.
	CustomerHeader string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// MailConfig defines how outgoing email is delivered.
type MailConfig struct {
	Transport string // log|smtp

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	SMTPFrom     string
	SMTPTLSMode  string        // none|starttls|smtps
	SMTPAuthType string        // plain|login
	SMTPTimeout  time.Duration // bounds one whole SMTP session
}

// ContactFormConfig holds the contact-form specific knobs.
type ContactFormConfig struct {
	TokenTTL       time.Duration // lifetime of an anti-forgery token
	UploadDir      string        // permanent attachment storage
	MaxUploadBytes int64
	AdminToken     string // when set, required in X-Admin-Token for /admin routes
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // base path for API routes

	// App
	DBPath string // SQLite path

	// Rate limiting (applied to submissions)
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	Shop        ShopConfig
	Session     SessionConfig
	Mail        MailConfig
	ContactForm ContactFormConfig

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging / Docs
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/api/v1")),

		// App
		DBPath: getenv("DB_PATH", "contactform.db"),

		// Rate limiting
		RateRPS:   getfloat("RATE_RPS", 1.0),
		RateBurst: getint("RATE_BURST", 5),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		Shop: ShopConfig{
			ID:             uint(getint("SHOP_ID", 1)),
			Name:           getenv("SHOP_NAME", "My Shop"),
			Email:          strings.TrimSpace(getenv("SHOP_EMAIL", "support@example.com")),
			DefaultLang:    strings.ToLower(getenv("DEFAULT_LANG", "en")),
			SupportedLangs: lowerAll(splitCSV(getenv("SUPPORTED_LANGS", "en,fr,de"))),
			CatalogMode:    getbool("CATALOG_MODE", false),
		},

		Session: SessionConfig{
			Backend:        strings.ToLower(getenv("SESSION_BACKEND", "memory")),
			TTL:            getdur("SESSION_TTL", 24*time.Hour),
			CookieName:     getenv("SESSION_COOKIE", "contactform_sid"),
			Secure:         getbool("SESSION_COOKIE_SECURE", false),
			CustomerHeader: getenv("SESSION_CUSTOMER_HEADER", ""),
			RedisAddr:      getenv("REDIS_ADDR", "localhost:6379"),
			RedisPassword:  getenv("REDIS_PASSWORD", ""),
			RedisDB:        getint("REDIS_DB", 0),
		},

		Mail: MailConfig{
			Transport:    strings.ToLower(getenv("MAIL_TRANSPORT", "log")),
			SMTPHost:     getenv("SMTP_HOST", "localhost"),
			SMTPPort:     getint("SMTP_PORT", 587),
			SMTPUser:     getenv("SMTP_USER", ""),
			SMTPPassword: getenv("SMTP_PASSWORD", ""),
			SMTPFrom:     getenv("SMTP_FROM", ""),
			SMTPTLSMode:  strings.ToLower(getenv("SMTP_TLS_MODE", "starttls")),
			SMTPAuthType: strings.ToLower(getenv("SMTP_AUTH_TYPE", "plain")),
			SMTPTimeout:  getdur("SMTP_TIMEOUT", 30*time.Second),
		},

		ContactForm: ContactFormConfig{
			TokenTTL:       getdur("CONTACT_TOKEN_TTL", 10*time.Minute),
			UploadDir:      getenv("UPLOAD_DIR", "uploads"),
			MaxUploadBytes: int64(getint("MAX_UPLOAD_BYTES", 10<<20)),
			AdminToken:     getenv("ADMIN_TOKEN", ""),
		},

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "go-contactform"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}
	if len(cfg.Shop.SupportedLangs) == 0 {
		cfg.Shop.SupportedLangs = []string{cfg.Shop.DefaultLang}
	}
	if !contains(cfg.Shop.SupportedLangs, cfg.Shop.DefaultLang) {
		cfg.Shop.SupportedLangs = append([]string{cfg.Shop.DefaultLang}, cfg.Shop.SupportedLangs...)
	}
	if cfg.Mail.SMTPFrom == "" {
		cfg.Mail.SMTPFrom = cfg.Shop.Email
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		return cfg, errors.New("DB_PATH must not be empty")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if _, err := mail.ParseAddress(cfg.Shop.Email); err != nil {
		return cfg, errors.New("SHOP_EMAIL must be a valid email address")
	}
	switch cfg.Session.Backend {
	case "memory", "redis":
	default:
		return cfg, errors.New("SESSION_BACKEND must be one of: memory, redis")
	}
	if cfg.Session.TTL <= 0 {
		return cfg, errors.New("SESSION_TTL must be > 0")
	}
	if strings.TrimSpace(cfg.Session.CookieName) == "" {
		return cfg, errors.New("SESSION_COOKIE must not be empty")
	}
	switch cfg.Mail.Transport {
	case "log", "smtp":
	default:
		return cfg, errors.New("MAIL_TRANSPORT must be one of: log, smtp")
	}
	switch cfg.Mail.SMTPTLSMode {
	case "none", "starttls", "smtps":
	default:
		return cfg, errors.New("SMTP_TLS_MODE must be one of: none, starttls, smtps")
	}
	if cfg.Mail.SMTPPort <= 0 || cfg.Mail.SMTPPort > 65535 {
		return cfg, errors.New("SMTP_PORT must be in 1..65535")
	}
	if cfg.ContactForm.TokenTTL <= 0 {
		return cfg, errors.New("CONTACT_TOKEN_TTL must be > 0")
	}
	if strings.TrimSpace(cfg.ContactForm.UploadDir) == "" {
		return cfg, errors.New("UPLOAD_DIR must not be empty")
	}
	if cfg.ContactForm.MaxUploadBytes <= 0 {
		return cfg, errors.New("MAX_UPLOAD_BYTES must be > 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// ---- helpers (no external deps) ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

func lowerAll(in []string) []string {
	for i := range in {
		in[i] = strings.ToLower(in[i])
	}
	return in
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
