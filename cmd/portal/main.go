package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/gtd_donate/internal/cache"
	"github.com/GTDGit/gtd_donate/internal/config"
	"github.com/GTDGit/gtd_donate/internal/database"
	"github.com/GTDGit/gtd_donate/internal/handler"
	"github.com/GTDGit/gtd_donate/internal/mailer"
	"github.com/GTDGit/gtd_donate/internal/middleware"
	"github.com/GTDGit/gtd_donate/internal/report"
	"github.com/GTDGit/gtd_donate/internal/repository"
	"github.com/GTDGit/gtd_donate/internal/service"
	"github.com/GTDGit/gtd_donate/internal/session"
	"github.com/GTDGit/gtd_donate/internal/sse"
	"github.com/GTDGit/gtd_donate/internal/utils"
	"github.com/GTDGit/gtd_donate/internal/web"
	"github.com/GTDGit/gtd_donate/internal/worker"
	"github.com/GTDGit/gtd_donate/pkg/donationapi"
)

// main is the entrypoint of the GTD Donate portal.
func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// 2. Setup logger
	setupLogger(cfg.Env)
	log.Info().Str("env", cfg.Env).Str("api_url", cfg.API.BaseURL).Msg("starting gtd donate portal")

	// 3. Context for workers and graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 4. Session backend
	var (
		backend     session.Backend
		storeOpts   = []session.Option{session.WithMaxTTL(cfg.Session.MaxTTL)}
		redisClient *cache.RedisClient
	)
	switch cfg.Session.Backend {
	case config.SessionBackendRedis:
		redisClient, err = cache.NewRedisClient(ctx, &cfg.Redis)
		if err != nil {
			log.Error().Err(err).Msg("redis connection failed")
			fmt.Fprintf(os.Stderr, "redis connection failed: %v\n", err)
			os.Exit(1)
		}
		defer redisClient.Close()
		sessionCache := cache.NewSessionCache(redisClient)
		backend = sessionCache
		storeOpts = append(storeOpts, session.WithBroadcaster(sessionCache))
		log.Info().Msg("redis session backend connected")
	default:
		backend = session.NewMemoryBackend()
		log.Warn().Msg("in-memory session backend: sessions are lost on restart and not shared between instances")
	}
	sessions := session.NewStore(backend, storeOpts...)

	// 5. Audit database (optional)
	var auditStore service.AuditStore
	if cfg.DB.Enabled() {
		db, err := database.Connect(ctx, &cfg.DB)
		if err != nil {
			log.Error().Err(err).Msg("database connection failed")
			fmt.Fprintf(os.Stderr, "database connection failed: %v\n", err)
			os.Exit(1)
		}
		defer db.Close()

		if err := database.Migrate(db.DB, "file://migrations"); err != nil {
			log.Error().Err(err).Msg("migration failed")
			fmt.Fprintf(os.Stderr, "migration failed: %v\n", err)
			os.Exit(1)
		}
		log.Info().Msg("migrations completed successfully")
		auditStore = repository.NewAuditRepository(db)
	} else {
		log.Info().Msg("DB_HOST not set - admin audit log disabled")
	}
	auditSvc := service.NewAuditService(auditStore)

	// 6. Export archive (optional)
	var archiver service.ExportArchiver
	if cfg.Export.Bucket != "" {
		s3Svc, err := service.NewS3Service(ctx, &cfg.Export)
		if err != nil {
			log.Warn().Err(err).Msg("S3 service initialization failed - exports will not be archived")
		} else {
			archiver = s3Svc
		}
	}

	// 7. Receipt mailer
	var sender mailer.Sender = mailer.NewNoopSender()
	if cfg.Mail.ResendAPIKey != "" {
		sender = mailer.NewResendSender(cfg.Mail.ResendAPIKey, cfg.Mail.From)
	}

	// 8. Donation API client and services
	apiClient := donationapi.NewClient(donationapi.Config{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.Timeout,
	})

	hub := sse.NewHub()
	registry := report.NewRegistry(apiClient)

	authSvc := service.NewAuthService(apiClient, sessions)
	donationSvc := service.NewDonationService(apiClient, auditSvc, sender, sse.NewHubNotifier(hub))
	exportSvc := service.NewExportService(archiver, auditSvc)

	// 9. Session event subscribers
	hubEvents, stopHub := sessions.Subscribe("")
	defer stopHub()
	go hub.Forward(ctx, hubEvents)

	registryEvents, stopRegistry := sessions.Subscribe("")
	defer stopRegistry()
	go registry.Watch(ctx, registryEvents)

	go func() {
		if err := sessions.Run(ctx); err != nil && ctx.Err() == nil {
			log.Error().Err(err).Msg("session event relay stopped")
		}
	}()

	// 10. Start workers
	limiter := middleware.NewInvalidAuthRateLimiter()
	go limiter.Start(ctx)
	go worker.NewSessionExpiryWorker(sessions, cfg.Worker.SessionSweepInterval, registry).Start(ctx)

	// 11. CSRF key
	csrfKey := cfg.Session.CSRFKey
	if len(csrfKey) == 0 {
		csrfKey, err = utils.GenerateCSRFKey()
		if err != nil {
			log.Fatal().Err(err).Msg("failed to generate CSRF key")
		}
		log.Warn().Msg("CSRF_KEY not set - using a random key, forms break across restarts")
	}

	// 12. Initialize handlers
	renderer, err := web.NewRenderer()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to parse templates")
	}
	cookie := middleware.SessionCookie{Name: cfg.Session.CookieName, Secure: cfg.Session.CookieSecure}
	pages := handler.NewPageHandler(web.NewFlasher(csrfKey, cfg.Session.CookieSecure))

	handlers := &handler.Handlers{
		Pages:       pages,
		Health:      handler.NewHealthHandler(sessions, hub, auditSvc),
		Auth:        handler.NewAuthHandler(pages, authSvc, limiter, cookie),
		Donate:      handler.NewDonateHandler(pages, donationSvc),
		AdminReport: handler.NewReportHandler(pages, report.AdminVariant, registry, donationSvc, exportSvc),
		UserReport:  handler.NewReportHandler(pages, report.UserVariant, registry, donationSvc, exportSvc),
		Admin:       handler.NewAdminHandler(pages, donationSvc, auditSvc),
		SSE:         handler.NewSSEHandler(hub),
	}

	// 13. Setup router
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.HTMLRender = renderer
	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	handler.RegisterRoutes(router, handlers, middleware.NewAuthMiddleware(sessions, cookie), limiter)

	// 14. Start HTTP server
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           middleware.CSRF(csrfKey, cfg.Session.CookieSecure)(router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// 15. Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// 16. Cancel context to stop workers and session streams
	cancel()

	// 17. Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited")
}

func setupLogger(env string) {
	if env == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
		return
	}
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
}
