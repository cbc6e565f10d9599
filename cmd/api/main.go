package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/xavierca1/visa-crm/internal/config"
	"github.com/xavierca1/visa-crm/internal/infra/auth"
	"github.com/xavierca1/visa-crm/internal/infra/database"
	"github.com/xavierca1/visa-crm/internal/infra/http/handlers"
	"github.com/xavierca1/visa-crm/internal/infra/http/middleware"
	"github.com/xavierca1/visa-crm/internal/infra/mail"
	"github.com/xavierca1/visa-crm/internal/infra/queue"
	"github.com/xavierca1/visa-crm/internal/infra/worker"
	"github.com/xavierca1/visa-crm/internal/logger"
	"github.com/xavierca1/visa-crm/internal/usecase"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewDBConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	// Repositories
	leadRepo := database.NewLeadRepository(db)
	userRepo := database.NewUserRepository(db)
	onboardingRepo := database.NewOnboardingRepository(db)

	hasher := auth.NewBcryptHasher(cfg.BcryptCost)
	sessions := auth.NewJWTIssuer(cfg.JWTSecret, cfg.SessionTTL)
	tokens := usecase.NewOnboardingTokenService(leadRepo, hasher, cfg.OnboardingTokenTTL)

	if !cfg.MailEnabled() {
		log.Warn().Msg("MAIL_HOST not set, lead emails will fail to send")
	}
	mailSender := mail.NewEmailSender(
		cfg.Mail.Host, cfg.Mail.Port, cfg.Mail.User, cfg.Mail.Password, cfg.Mail.From,
		cfg.FrontendURL, cfg.OnboardingTokenTTL,
	)

	// Notifications go through RabbitMQ when configured, otherwise straight to SMTP.
	var notifier usecase.Notifier
	var broker handlers.BrokerStatus
	if cfg.RabbitMQURL != "" {
		rabbitMQ, err := queue.NewRabbitMQ(cfg.RabbitMQURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to rabbitmq")
		}
		defer rabbitMQ.Close()
		broker = rabbitMQ

		notifier = queue.NewProducer(rabbitMQ.Ch)

		notificationWorker := queue.NewWorker(rabbitMQ.Ch, mailSender, func(error) {
			middleware.RecordNotificationError("rabbitmq")
		})
		go func() {
			if err := notificationWorker.Start(ctx, queue.QueueName); err != nil {
				log.Error().Err(err).Msg("notification worker stopped")
			}
		}()
	} else {
		notifier = mail.NewNotifier(mailSender, func(error) {
			middleware.RecordNotificationError("smtp")
		})
	}

	bootstrap := usecase.NewBootstrapAdminUseCase(userRepo, hasher)
	if cfg.Admin.Enabled() {
		created, err := bootstrap.Execute(ctx, usecase.BootstrapAdminInput{
			Name:     cfg.Admin.Name,
			Email:    cfg.Admin.Email,
			Password: cfg.Admin.Password,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to bootstrap admin")
		}
		if created {
			log.Info().Str("email", cfg.Admin.Email).Msg("admin account created")
		}
	}

	if cfg.SweepEnabled {
		sweeper := worker.NewOnboardingExpirationWorker(leadRepo, cfg.SweepInterval, cfg.SweepGrace)
		go sweeper.Start(ctx)
	}

	limiter := handlers.NewRateLimiter(cfg.LeadRateLimit, cfg.LeadRateWindow)
	go limiter.Cleanup(ctx, cfg.LeadRateWindow)

	// Handlers
	leadHandler := handlers.NewLeadHandler(
		usecase.NewCreateLeadUseCase(leadRepo),
		usecase.NewGetLeadUseCase(leadRepo),
		limiter,
	)
	adminLeadHandler := handlers.NewAdminLeadHandler(
		usecase.NewListLeadsUseCase(leadRepo),
		usecase.NewStartReviewUseCase(leadRepo),
		usecase.NewApproveLeadUseCase(leadRepo, tokens, notifier),
		usecase.NewRejectLeadUseCase(leadRepo, notifier),
	)
	onboardingHandler := handlers.NewOnboardingHandler(
		usecase.NewShowOnboardingUseCase(tokens),
		usecase.NewCompleteOnboardingUseCase(tokens, onboardingRepo, hasher, sessions),
	)
	authHandler := handlers.NewAuthHandler(usecase.NewLoginUseCase(userRepo, hasher, sessions))

	origins := cfg.CORSAllowedOrigins
	if len(origins) == 0 {
		origins = []string{cfg.FrontendURL}
	}

	router := newRouter(routerDeps{
		AllowedOrigins: origins,
		Sessions:       sessions,
		Health:         handlers.NewHealthHandler(db, broker, version),
		Leads:          leadHandler,
		AdminLeads:     adminLeadHandler,
		Onboarding:     onboardingHandler,
		Auth:           authHandler,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      35 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", version).Msg("visa crm api listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
