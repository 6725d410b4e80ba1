package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/synaptica-ai/mobility-risk/pkg/assessment"
	"github.com/synaptica-ai/mobility-risk/pkg/common/config"
	"github.com/synaptica-ai/mobility-risk/pkg/common/database"
	"github.com/synaptica-ai/mobility-risk/pkg/common/kafka"
	"github.com/synaptica-ai/mobility-risk/pkg/common/logger"
	"github.com/synaptica-ai/mobility-risk/pkg/gateway/middleware"
	"github.com/synaptica-ai/mobility-risk/pkg/mobility"
	"github.com/synaptica-ai/mobility-risk/pkg/observability/metrics"
	"github.com/synaptica-ai/mobility-risk/pkg/risk"
	"github.com/synaptica-ai/mobility-risk/pkg/staypredict"
)

func main() {
	logger.Init()
	cfg := config.Load()

	calibration, err := risk.LoadCalibration(cfg.CalibrationFile)
	if err != nil {
		logger.Log.WithError(err).Fatal("Failed to load calibration")
	}

	prescriber, err := mobility.ForVariant(cfg.PrescriptionVariant)
	if err != nil {
		logger.Log.WithError(err).Fatal("Invalid prescription variant")
	}

	assessorOpts := []risk.Option{
		risk.WithPrescriber(prescriber),
		risk.WithStayErrorHandler(assessment.ReportStayFailure),
	}
	if cfg.StayPredictionURL != "" {
		stay, err := staypredict.NewClient(cfg.StayPredictionURL, cfg.StayPredictionTimeout)
		if err != nil {
			logger.Log.WithError(err).Fatal("Failed to configure stay prediction")
		}
		assessorOpts = append(assessorOpts, risk.WithStayPredictor(stay))
	}
	assessor := risk.NewAssessor(calibration, assessorOpts...)

	var serviceOpts []assessment.Option
	var ready []func(context.Context) error

	if cfg.PersistenceEnabled {
		db, err := database.GetPostgres(cfg)
		if err != nil {
			logger.Log.WithError(err).Fatal("Failed to connect to database")
		}
		repo := assessment.NewRepository(db)
		if err := repo.AutoMigrate(); err != nil {
			logger.Log.WithError(err).Fatal("Failed to migrate assessment tables")
		}
		serviceOpts = append(serviceOpts, assessment.WithStore(repo))
		ready = append(ready, func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		})
		defer database.ClosePostgres()
	}

	if cfg.CacheEnabled() {
		client, err := database.GetRedis(cfg)
		if err != nil {
			logger.Log.WithError(err).Warn("Result cache unavailable at startup")
		}
		serviceOpts = append(serviceOpts, assessment.WithCache(assessment.NewRedisCache(client, cfg.ResultCacheTTL)))
		ready = append(ready, func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		})
		defer database.CloseRedis()
	}

	if cfg.EventsEnabled() {
		producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.AssessmentTopic)
		serviceOpts = append(serviceOpts, assessment.WithPublisher(producer))
		defer producer.Close()
	}

	service := assessment.NewService(assessor, serviceOpts...)

	router := mux.NewRouter()
	router.Use(middleware.Recovery, middleware.Logging, middleware.CORS)
	router.HandleFunc("/health", healthCheck).Methods(http.MethodGet)
	router.HandleFunc("/ready", readinessCheck(ready)).Methods(http.MethodGet)
	router.HandleFunc("/metrics", metrics.Handler).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst), middleware.BodyLimit(cfg.MaxRequestBody))
	assessment.NewHandler(service).Register(api)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	go func() {
		logger.Log.WithFields(map[string]interface{}{
			"host":                 cfg.ServerHost,
			"port":                 cfg.ServerPort,
			"prescription_variant": cfg.PrescriptionVariant,
			"persistence":          cfg.PersistenceEnabled,
			"cache":                cfg.CacheEnabled(),
			"events":               cfg.EventsEnabled(),
			"stay_prediction":      cfg.StayPredictionURL != "",
		}).Info("Risk Service started")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down Risk Service...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Log.WithError(err).Error("Server forced to shutdown")
	}

	logger.Log.Info("Risk Service stopped")
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

func readinessCheck(checks []func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		w.Header().Set("Content-Type", "application/json")
		for _, check := range checks {
			if err := check(ctx); err != nil {
				logger.Log.WithError(err).Warn("Readiness check failed")
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte(`{"status":"unavailable"}`))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ready"}`))
	}
}
