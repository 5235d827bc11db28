package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/imsolutions/chatdesk/cmd/mainconfig"
	"github.com/imsolutions/chatdesk/internal/api/router"
	"github.com/imsolutions/chatdesk/internal/appointments"
	appconfig "github.com/imsolutions/chatdesk/internal/config"
	"github.com/imsolutions/chatdesk/internal/conversation"
	"github.com/imsolutions/chatdesk/internal/dashboard"
	"github.com/imsolutions/chatdesk/internal/http/handlers"
	"github.com/imsolutions/chatdesk/internal/leads"
	"github.com/imsolutions/chatdesk/internal/notify"
	"github.com/imsolutions/chatdesk/internal/observability/metrics"
	"github.com/imsolutions/chatdesk/internal/sessions"
	"github.com/imsolutions/chatdesk/internal/sheets"
	"github.com/imsolutions/chatdesk/internal/store"
	"github.com/imsolutions/chatdesk/internal/telephony"
	"github.com/imsolutions/chatdesk/internal/users"
	"github.com/imsolutions/chatdesk/pkg/logging"
)

func main() {
	// Local development convenience; the file is absent in production.
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	logger.Info("starting chatdesk API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	chatMetrics := metrics.NewChatMetrics(nil)
	apptMetrics := metrics.NewAppointmentMetrics(nil)
	voiceMetrics := metrics.NewVoiceMetrics(nil)

	// Persistence: optional DynamoDB primary plus the flat-file floor.
	storeLogger := logger.Component("store")
	var primary *store.DynamoStore
	if cfg.StoreEnabled {
		awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
		if err != nil {
			logger.Error("failed to load AWS config, primary store disabled", "error", err)
		} else {
			primary = store.NewDynamoStore(dynamodb.NewFromConfig(awsCfg), store.Tables{
				Leads:         cfg.LeadsTable,
				Appointments:  cfg.AppointmentsTable,
				Conversations: cfg.ConversationsTable,
				Users:         cfg.UsersTable,
				Metrics:       cfg.MetricsTable,
			}, cfg.StoreTimeout, storeLogger)
		}
	}
	st := store.New(primary, store.NewFileStore(cfg.DataDir, storeLogger), storeLogger)

	// Sessions and the chat response cache share the Redis backend when one
	// is configured, and fall back to in-process maps otherwise.
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		opts := &redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		redisClient = redis.NewClient(opts)
	}

	var sessionStore sessions.Store
	var responseCache conversation.ResponseCache
	if redisClient != nil {
		sessionStore = sessions.NewRedisStore(redisClient, cfg.SessionTTL)
		responseCache = conversation.NewRedisResponseCache(redisClient, cfg.ResponseCacheTTL)
	} else {
		sessionStore = sessions.NewMemoryStore(cfg.SessionTTL)
		responseCache = conversation.NewMemoryResponseCache(cfg.ResponseCacheCapacity, cfg.ResponseCacheTTL)
	}

	content, err := conversation.LoadCompanyContent(cfg.CompanyContentPath)
	if err != nil {
		logger.Warn("company content unavailable, FAQ answers will be generic", "path", cfg.CompanyContentPath, "error", err)
	}

	var llm conversation.LLMClient
	if cfg.GeminiAPIKey != "" {
		gemini, err := conversation.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModelID)
		if err != nil {
			logger.Error("failed to initialize Gemini client, chat degrades to FAQ", "error", err)
		} else {
			defer gemini.Close()
			llm = gemini
		}
	}
	responder := conversation.NewResponder(content, responseCache, llm, cfg.LLMTimeout, chatMetrics, logger)

	var calendar *appointments.CalendarWriter
	if cal, err := appointments.NewCalendarWriter(cfg.CalendarDir); err != nil {
		logger.Warn("calendar export disabled", "dir", cfg.CalendarDir, "error", err)
	} else {
		calendar = cal
	}
	apptService := appointments.NewService(st, calendar, apptMetrics, logger)

	var emailSender notify.EmailSender
	if sender := notify.NewSendGridSender(notify.SendGridConfig{
		APIKey:    cfg.SendGridAPIKey,
		FromEmail: cfg.SendGridFromEmail,
		FromName:  cfg.SendGridFromName,
	}, logger); sender != nil {
		emailSender = sender
	}
	leadsService := leads.NewService(st, notify.NewLeadAlerter(emailSender, cfg.LeadNotifyEmail, logger), logger)

	var sheetsClient *sheets.Client
	if client, err := sheets.New(ctx, []byte(cfg.GoogleCredentialsJSON), cfg.SpreadsheetID, cfg.SheetsRange, logger); err != nil {
		if err == sheets.ErrNotConfigured {
			logger.Info("spreadsheet export not configured")
		} else {
			logger.Error("failed to initialize sheets client", "error", err)
		}
	} else {
		sheetsClient = client
	}
	var summarySink sheets.Appender
	var sheetsChecker sheets.HealthChecker
	if sheetsClient != nil {
		summarySink = sheetsClient
		sheetsChecker = sheetsClient
	}

	webhookSecret := cfg.TwilioWebhookSecret
	if webhookSecret == "" {
		webhookSecret = cfg.TwilioAuthToken
	}
	transcripts := telephony.NewTranscriptBufferWith(cfg.CallTranscriptCapacity, cfg.CallTranscriptTTL)
	voiceLogger := logger.Component("voice")
	caller := telephony.NewCaller(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioPhoneNumber,
		cfg.TwilioVoiceWebhookURL, cfg.TwilioStatusCallback, voiceLogger)
	voiceHandler := telephony.NewHandler(responder, transcripts, summarySink, caller, webhookSecret, voiceMetrics, voiceLogger)

	loginHandler := handlers.NewLoginHandler(cfg.DashboardUser, cfg.DashboardPassword,
		cfg.DashboardPasswordHash, cfg.DashboardJWTSecret, logger)
	loginHandler.SetTokenTTL(cfg.DashboardTokenTTL)

	aggregator := dashboard.NewAggregator(st, prometheus.DefaultGatherer, logger)

	routerCfg := &router.Config{
		Logger:              logger,
		ChatHandler:         conversation.NewHandler(responder, st, sessionStore, logger),
		AppointmentsHandler: appointments.NewHandler(apptService, sessionStore, logger),
		LeadsHandler:        leads.NewHandler(leadsService, logger),
		UsersHandler:        users.NewHandler(st, logger),
		SessionHandler:      sessions.NewHandler(sessionStore, logger),
		DashboardHandler:    dashboard.NewHandler(aggregator, logger),
		SheetsHandler:       sheets.NewHandler(sheetsChecker, logger),
		VoiceHandler:        voiceHandler,
		LoginHandler:        loginHandler,
		MetricsHandler:      promhttp.Handler(),
		DashboardAuthSecret: cfg.DashboardJWTSecret,
		CORSAllowedOrigins:  cfg.CORSAllowedOrigins,
		ChatRateLimit:       cfg.ChatRateLimit,
		ChatRateBurst:       cfg.ChatRateBurst,
	}
	r := router.New(routerCfg)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
