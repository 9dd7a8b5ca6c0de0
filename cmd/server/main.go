// Command server runs the storefront contact form service.
//
// @title       Contact Form API
// @version     1.0
// @description Storefront contact form: widget rendering, message submission with anti-forgery tokens, customer threads and email notifications.
// @BasePath    /api/v1
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-contactform/internal/config"
	httpapi "github.com/tbourn/go-contactform/internal/http"
	"github.com/tbourn/go-contactform/internal/i18n"
	"github.com/tbourn/go-contactform/internal/mailer"
	"github.com/tbourn/go-contactform/internal/observability"
	"github.com/tbourn/go-contactform/internal/repo"
	"github.com/tbourn/go-contactform/internal/session"
	"github.com/tbourn/go-contactform/internal/storage"
	"github.com/tbourn/go-contactform/internal/sysutil"
	"github.com/tbourn/go-contactform/internal/view"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// .env is optional; real environment variables win.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Msg("could not read .env")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	sysutil.ConfigureLogger(os.Stderr, cfg.LogLevel, cfg.LogPretty)
	appVersion := sysutil.FirstNonEmpty(os.Getenv("APP_VERSION"), version)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, appVersion, observability.ShopAttributes(cfg.Shop)...)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}
	if err := repo.SeedDefaults(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("seed database")
	}

	sessions, closeSessions, err := newSessionStore(ctx, cfg.Session)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.Session.Backend).Msg("session store")
	}
	defer closeSessions()

	mails, err := newMailer(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("mailer setup failed")
	}

	uploads, err := storage.New(cfg.ContactForm.UploadDir, cfg.ContactForm.MaxUploadBytes)
	if err != nil {
		log.Fatal().Err(err).Msg("upload dir")
	}

	pages, err := view.New()
	if err != nil {
		log.Fatal().Err(err).Msg("load templates")
	}

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	module := httpapi.RegisterRoutes(r, httpapi.Deps{
		DB:       db,
		Sessions: sessions,
		Mailer:   mails,
		Uploads:  uploads,
		Renderer: pages,
		Catalog:  i18n.NewCatalog(cfg.Shop.SupportedLangs...),
	}, cfg)
	if err := module.Install(ctx); err != nil {
		log.Fatal().Err(err).Msg("install contact form")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().
			Str("addr", srv.Addr).
			Str("version", appVersion).
			Str("sessions", cfg.Session.Backend).
			Str("mail", cfg.Mail.Transport).
			Msg("contact form listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	if err := shutdownOTel(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("otel shutdown")
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func newSessionStore(ctx context.Context, cfg config.SessionConfig) (session.Store, func(), error) {
	if cfg.Backend != "redis" {
		return session.NewMemoryStore(cfg.TTL), func() {}, nil
	}
	rs, err := session.NewRedisStore(ctx, session.RedisOptions{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		TTL:      cfg.TTL,
	})
	if err != nil {
		return nil, nil, err
	}
	return rs, func() { _ = rs.Close() }, nil
}

func newMailer(cfg config.Config) (mailer.Mailer, error) {
	tpl, err := mailer.NewTemplates(cfg.Shop.DefaultLang)
	if err != nil {
		return nil, err
	}
	if cfg.Mail.Transport == "smtp" {
		return mailer.NewSMTPMailer(cfg.Mail, cfg.Shop.Name, tpl), nil
	}
	return &mailer.LogMailer{
		From:      &mail.Address{Name: cfg.Shop.Name, Address: cfg.Mail.SMTPFrom},
		Templates: tpl,
	}, nil
}
