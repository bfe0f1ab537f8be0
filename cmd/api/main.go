package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/olimpiarestoration/leadbridge/internal/api/router"
	"github.com/olimpiarestoration/leadbridge/internal/callback"
	appconfig "github.com/olimpiarestoration/leadbridge/internal/config"
	"github.com/olimpiarestoration/leadbridge/internal/intake"
	"github.com/olimpiarestoration/leadbridge/internal/leads"
	"github.com/olimpiarestoration/leadbridge/internal/notify"
	"github.com/olimpiarestoration/leadbridge/internal/observability/metrics"
	"github.com/olimpiarestoration/leadbridge/internal/ratelimit"
	"github.com/olimpiarestoration/leadbridge/internal/sanity"
	"github.com/olimpiarestoration/leadbridge/internal/telephony"
	"github.com/olimpiarestoration/leadbridge/internal/triage"
	"github.com/olimpiarestoration/leadbridge/pkg/logging"
)

func main() {
	// Load .env in development; in production config comes from the environment.
	_ = godotenv.Load()

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting leadbridge API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	// Lead store: Sanity in production, in-memory when unconfigured.
	var store leads.Store
	sanityClient := sanity.NewClient(sanity.Config{
		ProjectID:  cfg.SanityProjectID,
		Dataset:    cfg.SanityDataset,
		Token:      cfg.SanityToken,
		APIVersion: cfg.SanityAPIVersion,
	}, logger)
	if sanityClient.Configured() {
		store = leads.NewSanityStore(sanityClient)
	} else {
		logger.Warn("sanity not configured, leads are stored in memory and lost on restart")
		store = leads.NewMemoryStore()
	}

	// Rate limiter: Redis when configured so limits hold across instances.
	var limiter ratelimit.Limiter
	if cfg.RedisAddr != "" {
		opts := &redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		limiter = ratelimit.NewRedisLimiter(redis.NewClient(opts), logger)
		logger.Info("rate limiting backed by redis", "addr", cfg.RedisAddr)
	} else {
		limiter = ratelimit.NewMemoryLimiter()
	}

	// Email: SendGrid when configured, log-only otherwise.
	var sender notify.EmailSender
	if sg := notify.NewSendGridSender(notify.SendGridConfig{
		APIKey:    cfg.SendGridAPIKey,
		FromEmail: cfg.SendGridFromEmail,
		FromName:  cfg.SendGridFromName,
	}, logger); sg != nil {
		sender = sg
	} else {
		sender = notify.NewLogSender(logger)
	}

	leadMetrics := metrics.NewLeadMetrics(prometheus.DefaultRegisterer)

	var dialer callback.Dialer
	if cfg.TelephonyConfigured() {
		dialer = telephony.NewClient(telephony.Config{
			AccountSID: cfg.TwilioAccountSID,
			AuthToken:  cfg.TwilioAuthToken,
		}, logger)
	} else {
		logger.Warn("telephony not configured, callback requests capture leads without auto-dial")
	}

	callbackService := callback.NewService(callback.ServiceConfig{
		Store:         store,
		Dialer:        dialer,
		FromNumber:    cfg.TwilioPhoneNumber,
		OnCallNumber:  cfg.OnCallNumber,
		PublicBaseURL: cfg.PublicBaseURL,
		Metrics:       leadMetrics,
		Logger:        logger,
	})

	r := router.New(&router.Config{
		Logger: logger,
		LeadsHandler: leads.NewHandler(leads.HandlerConfig{
			Store:       store,
			Limiter:     limiter,
			LimitMax:    cfg.LeadRateLimit.MaxRequests,
			LimitWindow: cfg.LeadRateLimit.Window,
			Notifier:    sender,
			NotifyTo:    cfg.NotificationEmail,
			Metrics:     leadMetrics,
			Logger:      logger,
		}),
		CallbackHandler: callback.NewHandler(callback.HandlerConfig{
			Service:        callbackService,
			Limiter:        limiter,
			LimitMax:       cfg.CallbackRateLimit.MaxRequests,
			LimitWindow:    cfg.CallbackRateLimit.Window,
			CallerID:       cfg.TwilioPhoneNumber,
			OnCallNumber:   cfg.OnCallNumber,
			OnCallFallback: cfg.OnCallNumberFallback,
			Metrics:        leadMetrics,
			Logger:         logger,
		}),
		StatusReconciler: callback.NewReconciler(callback.ReconcilerConfig{
			Store:      store,
			SigningKey: cfg.TwilioWebhookSecret,
			WebhookURL: cfg.PublicBaseURL + "/api/callback/status",
			Metrics:    leadMetrics,
			Logger:     logger,
		}),
		TriageHandler: triage.NewHandler(triage.HandlerConfig{
			Client: triage.NewClient(triage.Config{
				APIKey:    cfg.AnthropicAPIKey,
				Model:     cfg.AnthropicModel,
				MaxTokens: cfg.TriageMaxTokens,
			}, logger),
			Limiter:     limiter,
			LimitMax:    cfg.TriageRateLimit.MaxRequests,
			LimitWindow: cfg.TriageRateLimit.Window,
			PhoneLine:   cfg.EmergencyPhoneLine,
			Metrics:     leadMetrics,
			Logger:      logger,
		}),
		IntakeHandler: intake.NewHandler(intake.HandlerConfig{
			Sender:      sender,
			NotifyTo:    cfg.NotificationEmail,
			Limiter:     limiter,
			LimitMax:    cfg.LeadRateLimit.MaxRequests,
			LimitWindow: cfg.LeadRateLimit.Window,
			Metrics:     leadMetrics,
			Logger:      logger,
		}),
		MetricsHandler:     promhttp.Handler(),
		AdminAuthSecret:    cfg.AdminJWTSecret,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("forced shutdown", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}
