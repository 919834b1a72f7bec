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

	"github.com/serenemind/clinic-api/internal/config"
	"github.com/serenemind/clinic-api/internal/email"
	appointmenthandler "github.com/serenemind/clinic-api/internal/handler/appointment"
	"github.com/serenemind/clinic-api/internal/handler/health"
	patienthandler "github.com/serenemind/clinic-api/internal/handler/patient"
	paymenthandler "github.com/serenemind/clinic-api/internal/handler/payment"
	reporthandler "github.com/serenemind/clinic-api/internal/handler/report"
	sessionhandler "github.com/serenemind/clinic-api/internal/handler/session"
	voicehandler "github.com/serenemind/clinic-api/internal/handler/voice"
	"github.com/serenemind/clinic-api/internal/handler"
	"github.com/serenemind/clinic-api/internal/repository/postgres"
	"github.com/serenemind/clinic-api/internal/router"
	"github.com/serenemind/clinic-api/internal/service/appointment"
	"github.com/serenemind/clinic-api/internal/service/patient"
	"github.com/serenemind/clinic-api/internal/service/payment"
	"github.com/serenemind/clinic-api/internal/service/report"
	"github.com/serenemind/clinic-api/internal/service/session"
	"github.com/serenemind/clinic-api/internal/service/voice"
	"github.com/serenemind/clinic-api/pkg/auth"
	"github.com/serenemind/clinic-api/pkg/cache"
	"github.com/serenemind/clinic-api/pkg/clock"
	"github.com/serenemind/clinic-api/pkg/logger"
	"github.com/serenemind/clinic-api/pkg/storage"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(logger.Config{
		Level:  cfg.Logging.Level,
		Pretty: cfg.Logging.Pretty,
	})

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	store, err := storage.NewLocalStore(cfg.Storage.Root, cfg.Storage.BaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize storage")
	}

	var reportCache cache.Cache
	if cfg.Redis.Enabled {
		redisCache, err := cache.NewRedisCache(cfg.Redis.URL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisCache.Close()
		reportCache = redisCache
	} else {
		reportCache = cache.NewMemoryCache()
	}

	clk := clock.New()
	emailSvc := email.NewService(cfg.Email)

	patientRepo := postgres.NewPatientRepository(db)
	appointmentRepo := postgres.NewAppointmentRepository(db)
	sessionRepo := postgres.NewSessionRepository(db)
	paymentRepo := postgres.NewPaymentRepository(db)
	voiceRepo := postgres.NewVoiceRecordingRepository(db)

	patientSvc := patient.NewService(patientRepo, emailSvc, clk)
	appointmentSvc := appointment.NewService(appointmentRepo, patientRepo, emailSvc, clk)
	sessionSvc := session.NewService(sessionRepo, patientRepo, store, clk)
	paymentSvc := payment.NewService(paymentRepo)
	reportSvc := report.NewService(paymentRepo, reportCache)
	voiceSvc := voice.NewService(voiceRepo, store, clk)

	tokenValidator := auth.NewJWTValidator(cfg.JWT.Secret)

	engine := router.New(cfg, tokenValidator, router.Handlers{
		Health: health.NewHandler(db),
		Registrars: []handler.Registrar{
			patienthandler.NewHandler(patientSvc),
			appointmenthandler.NewHandler(appointmentSvc),
			sessionhandler.NewHandler(sessionSvc),
			paymenthandler.NewHandler(paymentSvc),
			reporthandler.NewHandler(reportSvc, sessionSvc),
			voicehandler.NewHandler(voiceSvc),
		},
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server stopped")
}
