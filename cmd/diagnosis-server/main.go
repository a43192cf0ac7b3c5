// cmd/diagnosis-server/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"talent-diagnosis/internal/api"
	"talent-diagnosis/internal/common/config"
	"talent-diagnosis/internal/common/database"
	commonhttp "talent-diagnosis/internal/common/http"
	"talent-diagnosis/internal/common/logger"
	"talent-diagnosis/internal/common/observability"
	"talent-diagnosis/internal/diagnosis/lifecycle"
	"talent-diagnosis/internal/diagnosis/matching"
	"talent-diagnosis/internal/diagnosis/notify"
	"talent-diagnosis/internal/diagnosis/store"
	"talent-diagnosis/internal/diagnosis/talents"
	"talent-diagnosis/internal/diagnosis/tracking"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting diagnosis server...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog.Info("Configuration loaded",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init Redis with retry ---
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Stores ---
	sessionStore := store.NewRedisSessionStore(redis, time.Duration(cfg.Session.TTL)*time.Second)
	draftStore := store.NewPostgresDraftStore(pg.GetDB())
	repository := store.NewSessionRepository(sessionStore)

	// --- Host notifier ---
	messenger, err := buildMessenger(ctx, cfg.Notify)
	if err != nil {
		zapLog.Fatal("notifier setup failed", zap.Error(err))
	}
	notifier := notify.NewNotifier(
		messenger,
		time.Duration(cfg.Notify.ResetTimeout)*time.Millisecond,
		cfg.Notify.FallbackURL,
		func(target string) error {
			// Server-side fallback: the redirect target is delivered to the
			// client on its next poll; nothing to do here beyond logging.
			zapLog.Info("reset fallback navigation", zap.String("target", target))
			return nil
		},
		log,
	)

	// --- Pipeline ---
	guard := lifecycle.NewGuard(sessionStore, draftStore, log)
	matcher := matching.NewClient(
		matching.LoadConfig(cfg.Matching.BaseURL, cfg.Matching.Timeout),
		log,
	)
	service := api.NewDiagnosisService(matcher, repository, draftStore, guard, notifier, obs, log)

	tracker := tracking.NewClient(cfg.Tracking.BaseURL, time.Duration(cfg.Tracking.Timeout)*time.Millisecond, log)
	talentClient := talents.NewClient(cfg.Talents.BaseURL, time.Duration(cfg.Talents.Timeout)*time.Millisecond, log)
	handler := api.NewHandler(service, tracker, talentClient, log)

	// --- HTTP server ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	handler.RegisterRoutes(r)

	server := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: r,
	}

	go func() {
		zapLog.Info("API server listening", zap.String("address", cfg.Server.Address))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("API server failed", zap.Error(err))
		}
	}()

	// --- Health & Metrics Server ---
	go func() {
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "healthy",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.Handle("/metrics", promhttp.Handler())
		zapLog.Info("Health/Metrics server listening", zap.String("address", cfg.Server.MetricsAddress))
		if err := http.ListenAndServe(cfg.Server.MetricsAddress, nil); err != nil {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, purging sessions...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Millisecond)
	defer cancel()

	// Process termination discards every live session, same as a tab close.
	guard.PurgeAll(shutdownCtx)

	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("API server shutdown failed", zap.Error(err))
	}

	zapLog.Info("Diagnosis server stopped gracefully")
}

// buildMessenger selects the host notification channel. An empty webhook
// URL means the app runs standalone and the notifier skips messaging.
func buildMessenger(ctx context.Context, cfg config.NotifyConfig) (notify.Messenger, error) {
	switch cfg.Channel {
	case "sns":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			return nil, fmt.Errorf("load AWS config: %w", err)
		}
		return notify.NewSNSMessenger(sns.NewFromConfig(awsCfg), cfg.TopicARN), nil
	case "webhook":
		if cfg.ParentURL == "" {
			return nil, nil
		}
		return notify.NewWebhookMessenger(cfg.ParentURL, commonhttp.NewClient(10*time.Second)), nil
	default:
		return nil, fmt.Errorf("unknown notify channel: %s", cfg.Channel)
	}
}
