package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	adherenceHandler "github.com/jwalitptl/recovery-api/internal/handler/adherence"
	alertHandler "github.com/jwalitptl/recovery-api/internal/handler/alert"
	checkinHandler "github.com/jwalitptl/recovery-api/internal/handler/checkin"
	patientHandler "github.com/jwalitptl/recovery-api/internal/handler/patient"

	"github.com/jwalitptl/recovery-api/internal/config"
	"github.com/jwalitptl/recovery-api/internal/middleware"
	"github.com/jwalitptl/recovery-api/internal/repository/postgres"
	"github.com/jwalitptl/recovery-api/internal/router"
	adherenceService "github.com/jwalitptl/recovery-api/internal/service/adherence"
	alertService "github.com/jwalitptl/recovery-api/internal/service/alert"
	checkinService "github.com/jwalitptl/recovery-api/internal/service/checkin"
	patientService "github.com/jwalitptl/recovery-api/internal/service/patient"
	"github.com/jwalitptl/recovery-api/pkg/auth"
	"github.com/jwalitptl/recovery-api/pkg/clock"
	"github.com/jwalitptl/recovery-api/pkg/logger"
	"github.com/jwalitptl/recovery-api/pkg/messaging"
	redisBroker "github.com/jwalitptl/recovery-api/pkg/messaging/redis"
	"github.com/jwalitptl/recovery-api/pkg/metrics"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger(nil)
	zl := *appLogger.Zerolog()

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	// Repositories
	patientRepo := postgres.NewPatientRepository(db)
	taskRepo := postgres.NewTaskRepository(db)
	medicationRepo := postgres.NewMedicationRepository(db)
	checkInRepo := postgres.NewCheckInRepository(db)
	alertRepo := postgres.NewAlertRepository(db)
	assignmentRepo := postgres.NewAssignmentRepository(db)

	// Message broker for alert events. The API keeps serving without it.
	var broker messaging.Broker
	if cfg.Redis.URL != "" {
		broker, err = redisBroker.NewRedisBroker(redisBroker.Config{
			URL:          cfg.Redis.URL,
			MaxRetries:   3,
			RetryBackoff: 100 * time.Millisecond,
			PoolSize:     10,
			MinIdleConns: 2,
		}, &zl)
		if err != nil {
			log.Warn().Err(err).Msg("failed to connect to Redis, alert events disabled")
			broker = nil
		}
	}

	clk := clock.New()
	m := metrics.NewMetrics("recovery", "api")

	// Services
	patientSvc := patientService.NewService(patientRepo, taskRepo, medicationRepo, assignmentRepo, clk, zl)
	adherenceSvc := adherenceService.NewService(patientRepo, taskRepo, medicationRepo, clk, m, zl)
	alertSvc := alertService.NewService(alertRepo, patientRepo, assignmentRepo, broker, clk, m, zl)
	checkinSvc := checkinService.NewService(checkInRepo, assignmentRepo, alertSvc, clk, m, zl)

	// Middleware and handlers
	tokens := auth.NewTokenService(cfg.JWT.Secret, cfg.JWT.ExpiryHours)
	authMiddleware := middleware.NewAuthMiddleware(tokens)

	r := router.NewRouter(
		authMiddleware,
		db,
		router.RouterConfig{
			RateLimit:     rate.Limit(cfg.RateLimit.RequestsPerSecond),
			RateBurst:     cfg.RateLimit.Burst,
			MetricsPrefix: cfg.Metrics.Prefix,
		},
		patientHandler.NewHandler(patientSvc),
		adherenceHandler.NewHandler(adherenceSvc),
		checkinHandler.NewHandler(checkinSvc),
		alertHandler.NewHandler(alertSvc),
	)
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}
	if broker != nil {
		if err := broker.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close broker")
		}
	}

	log.Info().Msg("server exited properly")
}
