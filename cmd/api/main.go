package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/time/rate"

	"github.com/lmezzz/hms-api/internal/config"
	authhandler "github.com/lmezzz/hms-api/internal/handler/auth"
	billinghandler "github.com/lmezzz/hms-api/internal/handler/billing"
	healthhandler "github.com/lmezzz/hms-api/internal/handler/health"
	labhandler "github.com/lmezzz/hms-api/internal/handler/lab"
	patienthandler "github.com/lmezzz/hms-api/internal/handler/patient"
	pharmacyhandler "github.com/lmezzz/hms-api/internal/handler/pharmacy"
	prescriptionhandler "github.com/lmezzz/hms-api/internal/handler/prescription"
	schedulehandler "github.com/lmezzz/hms-api/internal/handler/schedule"
	userhandler "github.com/lmezzz/hms-api/internal/handler/user"
	visithandler "github.com/lmezzz/hms-api/internal/handler/visit"
	"github.com/lmezzz/hms-api/internal/middleware"
	"github.com/lmezzz/hms-api/internal/repository/postgres"
	"github.com/lmezzz/hms-api/internal/router"
	authservice "github.com/lmezzz/hms-api/internal/service/auth"
	billingservice "github.com/lmezzz/hms-api/internal/service/billing"
	"github.com/lmezzz/hms-api/internal/service/event"
	labservice "github.com/lmezzz/hms-api/internal/service/lab"
	patientservice "github.com/lmezzz/hms-api/internal/service/patient"
	pharmacyservice "github.com/lmezzz/hms-api/internal/service/pharmacy"
	prescriptionservice "github.com/lmezzz/hms-api/internal/service/prescription"
	schedulingservice "github.com/lmezzz/hms-api/internal/service/scheduling"
	userservice "github.com/lmezzz/hms-api/internal/service/user"
	visitservice "github.com/lmezzz/hms-api/internal/service/visit"
	"github.com/lmezzz/hms-api/pkg/auth"
	"github.com/lmezzz/hms-api/pkg/logger"
	"github.com/lmezzz/hms-api/pkg/security"
)

func main() {
	log := logger.NewLogger(nil)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err, "failed to load config")
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal(err, "failed to connect to database")
	}
	defer db.Close()

	base := postgres.NewBaseRepository(db)
	userRepo := postgres.NewUserRepository(base)
	patientRepo := postgres.NewPatientRepository(base)
	scheduleRepo := postgres.NewScheduleRepository(base)
	appointmentRepo := postgres.NewAppointmentRepository(base)
	visitRepo := postgres.NewVisitRepository(base)
	prescriptionRepo := postgres.NewPrescriptionRepository(base)
	medicationRepo := postgres.NewMedicationRepository(base)
	labRepo := postgres.NewLabRepository(base)
	billingRepo := postgres.NewBillingRepository(base)
	outboxRepo := postgres.NewOutboxRepository(base)

	jwtExpiry := time.Duration(cfg.JWT.ExpiryHours) * time.Hour
	jwtSvc := auth.NewJWTService(cfg.JWT.Secret, jwtExpiry)
	hasher := security.NewBcryptHasher(12)

	eventSvc := event.NewService(outboxRepo, log)
	authSvc := authservice.NewService(userRepo, patientRepo, hasher, jwtSvc, jwtExpiry)
	userSvc := userservice.NewService(userRepo, hasher)
	patientSvc := patientservice.NewService(patientRepo)
	schedulingSvc := schedulingservice.NewService(scheduleRepo, appointmentRepo, userRepo, eventSvc, log)
	visitSvc := visitservice.NewService(visitRepo, appointmentRepo)
	prescriptionSvc := prescriptionservice.NewService(prescriptionRepo, medicationRepo, visitRepo, eventSvc, log, cfg.Billing.StockDeduction)
	pharmacySvc := pharmacyservice.NewService(medicationRepo, eventSvc, log)
	labSvc := labservice.NewService(labRepo, visitRepo)
	billingSvc := billingservice.NewService(billingRepo, eventSvc, log, cfg.Billing.StockDeduction)

	authMW := middleware.NewAuthMiddleware(jwtSvc, userRepo)

	r := router.NewRouter(authMW, router.Handlers{
		Auth:         authhandler.NewHandler(authSvc),
		Health:       healthhandler.NewHandler(db),
		User:         userhandler.NewHandler(userSvc),
		Patient:      patienthandler.NewHandler(patientSvc),
		Schedule:     schedulehandler.NewHandler(schedulingSvc),
		Visit:        visithandler.NewHandler(visitSvc),
		Prescription: prescriptionhandler.NewHandler(prescriptionSvc),
		Pharmacy:     pharmacyhandler.NewHandler(pharmacySvc),
		Lab:          labhandler.NewHandler(labSvc),
		Billing:      billinghandler.NewHandler(billingSvc),
	}, router.Config{
		RateLimitEnabled: cfg.RateLimit.Enabled,
		RateLimit:        rate.Limit(cfg.RateLimit.RequestsPerSecond),
		RateBurst:        cfg.RateLimit.Burst,
		RequestTimeout:   cfg.Server.RequestTimeout,
		CORSConfig:       middleware.DefaultCORSConfig(),
	})
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info("starting server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err, "server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal(err, "forced shutdown")
	}
	log.Info("server stopped")
}
