// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/olegiv/ocms-pages/internal/analytics"
	"github.com/olegiv/ocms-pages/internal/auth"
	"github.com/olegiv/ocms-pages/internal/cache"
	"github.com/olegiv/ocms-pages/internal/config"
	"github.com/olegiv/ocms-pages/internal/geoip"
	"github.com/olegiv/ocms-pages/internal/handler"
	"github.com/olegiv/ocms-pages/internal/handler/api"
	"github.com/olegiv/ocms-pages/internal/logging"
	"github.com/olegiv/ocms-pages/internal/middleware"
	"github.com/olegiv/ocms-pages/internal/render"
	"github.com/olegiv/ocms-pages/internal/scheduler"
	"github.com/olegiv/ocms-pages/internal/service"
	"github.com/olegiv/ocms-pages/internal/session"
	"github.com/olegiv/ocms-pages/internal/store"
	"github.com/olegiv/ocms-pages/internal/version"
	"github.com/olegiv/ocms-pages/internal/webhook"
	"github.com/olegiv/ocms-pages/web"
)

// jobLoginCleanup drops stale login attempt records.
const jobLoginCleanup = "cleanup-login-attempts"

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "oCMS Pages - page administration service\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OCMS_SESSION_SECRET    Session encryption key (required, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OCMS_DB_PATH           SQLite database path (default: ./data/ocms.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OCMS_SERVER_PORT       Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OCMS_ENV               Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OCMS_SITE_URL          Fallback system URL for absolute page links\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OCMS_ADMIN_PASSWORD    Initial administrator password\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OCMS_REDIS_URL         Redis URL for distributed caching (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OCMS_GEOIP_DB_PATH     GeoLite2 country database (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OCMS_WEBHOOK_URLS      Comma-separated page event webhook targets (optional)\n")
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if *showVersion {
		_, _ = fmt.Printf("ocms-pages %s (built: %s)\n", version.Get(), version.BuildTime)
		os.Exit(0)
	}

	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func parseLogLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

func run() error {
	// Load .env file if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logLevel := parseLogLevel(cfg.LogLevel)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	dataDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	slog.Info("initializing database", "path", cfg.DBPath)
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}(db)

	slog.Info("running database migrations")
	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	// WARN and ERROR records also go to the event log.
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	logger = slog.New(logging.NewEventLogHandler(textHandler, store.New(db)))
	slog.SetDefault(logger)
	slog.Info("event log integration enabled", "min_level", "warn")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appCache, backend := cache.New(cache.Config{
		RedisURL:   cfg.RedisURL,
		Prefix:     cfg.CachePrefix,
		DefaultTTL: time.Duration(cfg.CacheTTL) * time.Second,
		MaxSize:    cfg.CacheMaxSize,
	}, logger)
	defer func() { _ = appCache.Close() }()
	slog.Info("cache initialized", "backend", backend)

	events := service.NewEventService(db)
	settings := service.NewSettingsService(db, appCache, cfg.SiteURL, events, logger)
	views := service.NewViewService(db, appCache)

	pageOpts := service.PageServiceOptions{
		Cache:    appCache,
		Events:   events,
		Logger:   logger,
		CacheTTL: time.Duration(cfg.CacheTTL) * time.Second,
	}
	if cfg.WebhooksEnabled() {
		dispatcher := webhook.NewDispatcher(webhook.Config{
			URLs:   cfg.WebhookURLs,
			Secret: cfg.WebhookSecret,
		}, logger)
		dispatcher.Start(ctx)
		defer dispatcher.Stop()
		pageOpts.Dispatcher = dispatcher
	}
	pages := service.NewPageService(db, pageOpts)

	if cfg.AdminPassword != "" {
		stored, err := settings.EnsureAdminPassword(ctx, cfg.AdminPassword)
		if err != nil {
			return fmt.Errorf("setting admin password: %w", err)
		}
		if stored {
			slog.Info("admin password set from OCMS_ADMIN_PASSWORD")
		}
	}
	if err := store.Seed(ctx, db, cfg.SiteURL); err != nil {
		return fmt.Errorf("seeding database: %w", err)
	}

	geo, err := geoip.New(cfg.GeoIPDBPath)
	if err != nil {
		slog.Warn("GeoIP lookups disabled", "error", err)
	}
	defer func() { _ = geo.Close() }()

	tracker := analytics.NewTracker(views, settings, geo, logger)
	tracker.Start(ctx)
	defer tracker.Stop()

	loginProtection := middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig())

	sched := scheduler.New(logger)
	jobs := scheduler.Jobs{
		Pages:          pages,
		Views:          views,
		ViewRetention:  cfg.ViewRetention(),
		Events:         events,
		EventRetention: cfg.EventRetention(),
	}
	if cfg.GeoIPEnabled() {
		jobs.GeoIP = geo
	}
	if err := sched.RegisterDefaults(jobs); err != nil {
		return fmt.Errorf("registering jobs: %w", err)
	}
	err = sched.Add(jobLoginCleanup, "Forget expired login lockouts", "*/10 * * * *",
		func(context.Context) error {
			loginProtection.Cleanup()
			return nil
		})
	if err != nil {
		return fmt.Errorf("registering jobs: %w", err)
	}
	sched.Start()
	defer sched.Stop()

	sessionManager := session.New(db, cfg.IsDevelopment())

	templatesFS, err := fs.Sub(web.Templates, "templates")
	if err != nil {
		return fmt.Errorf("loading templates: %w", err)
	}
	renderer, err := render.New(render.Config{
		TemplatesFS:    templatesFS,
		SessionManager: sessionManager,
		IsDev:          cfg.IsDevelopment(),
	})
	if err != nil {
		return fmt.Errorf("initializing renderer: %w", err)
	}

	tokens := auth.NewTokenManager(cfg.SessionSecret, cfg.APITokenTTL)

	authHandler := handler.NewAuthHandler(settings, events, renderer, sessionManager, loginProtection)
	pagesHandler := handler.NewPagesHandler(pages, views, settings, renderer)
	settingsHandler := handler.NewSettingsHandler(settings, renderer)
	eventsHandler := handler.NewEventsHandler(events, renderer)
	schedulerHandler := handler.NewSchedulerHandler(sched, renderer)
	cacheHandler := handler.NewCacheHandler(renderer, appCache, backend, events)
	publicHandler := handler.NewPublicHandler(pages, renderer)
	healthHandler := handler.NewHealthHandler(db, handler.HealthOptions{
		SessionManager: sessionManager,
		Tokens:         tokens,
		Cache:          appCache,
		DataDir:        dataDir,
	})

	apiHandler := api.NewHandler(api.Deps{
		Pages:           pages,
		Views:           views,
		Settings:        settings,
		Tokens:          tokens,
		Jobs:            sched,
		LoginProtection: loginProtection,
	})
	apiDocsHandler, err := api.NewDocsHandler(api.DocsConfig{
		Settings:   settings,
		TemplateFS: templatesFS,
		IsDev:      cfg.IsDevelopment(),
	})
	if err != nil {
		return fmt.Errorf("initializing api docs handler: %w", err)
	}

	staticFS, err := fs.Sub(web.Static, "static/dist")
	if err != nil {
		return fmt.Errorf("loading static files: %w", err)
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(chimw.GetHead)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.SecurityHeaders(middleware.DefaultSecurityHeadersConfig(cfg.IsDevelopment())))
	r.Use(middleware.RequestPath)
	r.Use(sessionManager.LoadAndSave)

	csrfConfig := middleware.DefaultCSRFConfig([]byte(cfg.SessionSecret), cfg.IsDevelopment())
	csrfConfig.TrustedOrigins = append(csrfConfig.TrustedOrigins, middleware.TrustedOriginsFor(cfg.SiteURL)...)
	r.Use(middleware.SkipCSRFPrefix(api.Prefix + "/"))
	r.Use(middleware.CSRF(csrfConfig))

	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))

	r.Get("/health", healthHandler.Health)
	r.Get("/health/live", healthHandler.Liveness)
	r.Get("/health/ready", healthHandler.Readiness)

	r.Get(handler.RouteRoot, func(w http.ResponseWriter, req *http.Request) {
		http.Redirect(w, req, handler.RouteAdmin+handler.RoutePage, http.StatusSeeOther)
	})

	r.Route(handler.RouteLogin, func(r chi.Router) {
		r.Use(loginProtection.Middleware())
		r.Get("/", authHandler.LoginForm)
		r.Post("/", authHandler.Login)
	})
	r.Post(handler.RouteLogout, authHandler.Logout)

	r.Route(handler.RouteAdmin, func(r chi.Router) {
		r.Use(middleware.RequireAdmin(sessionManager))

		r.Get(handler.RoutePage, pagesHandler.List)
		r.Get(handler.RoutePageEditor, pagesHandler.EditorForm)
		r.Post(handler.RoutePageEditor, pagesHandler.Save)
		r.Get(handler.RoutePageEditorID, pagesHandler.EditorForm)
		r.Post(handler.RoutePageEditorID, pagesHandler.Save)
		r.Post(handler.RoutePageStatus, pagesHandler.ToggleStatus)
		r.Get(handler.RoutePageViews, pagesHandler.Views)
		r.Post(handler.RoutePageDelete, pagesHandler.Delete)
		r.Delete(handler.RoutePageID, pagesHandler.Delete)

		r.Get(handler.RouteSettings, settingsHandler.Form)
		r.Post(handler.RouteSettings, settingsHandler.Save)

		r.Get(handler.RouteEvents, eventsHandler.List)

		r.Get(handler.RouteScheduler, schedulerHandler.List)
		r.Post(handler.RouteSchedulerRun, schedulerHandler.TriggerNow)

		r.Get(handler.RouteCache, cacheHandler.Stats)
		r.Post(handler.RouteCacheClear, cacheHandler.Clear)
	})

	r.With(tracker.Middleware).Get(handler.RoutePublicPage, publicHandler.Page)

	r.Mount(api.Prefix, apiHandler.Router(api.RouterConfig{
		Docs:        apiDocsHandler,
		RateLimiter: middleware.NewRateLimiter(10, 20),
	}))

	r.NotFound(publicHandler.NotFound)

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env, "version", version.Get().String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	}

	slog.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
