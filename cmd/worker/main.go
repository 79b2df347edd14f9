package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/kelseyhightower/envconfig"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/lmezzz/hms-api/internal/config"
	"github.com/lmezzz/hms-api/internal/email"
	"github.com/lmezzz/hms-api/internal/model"
	"github.com/lmezzz/hms-api/internal/repository"
	"github.com/lmezzz/hms-api/internal/repository/postgres"
	"github.com/lmezzz/hms-api/pkg/logger"
	"github.com/lmezzz/hms-api/pkg/messaging"
	"github.com/lmezzz/hms-api/pkg/messaging/redis"
	"github.com/lmezzz/hms-api/pkg/metrics"
	"github.com/lmezzz/hms-api/pkg/worker"
)

// Env carries worker-only settings that change per deployment, not per
// config file.
type Env struct {
	HealthPort   int    `envconfig:"HEALTH_PORT" default:"8081"`
	EmailEnabled bool   `envconfig:"EMAIL_ENABLED" default:"false"`
	SMTPHost     string `envconfig:"SMTP_HOST" default:"localhost"`
	SMTPPort     int    `envconfig:"SMTP_PORT" default:"587"`
	SMTPUser     string `envconfig:"SMTP_USER"`
	SMTPPassword string `envconfig:"SMTP_PASSWORD"`
	SMTPFrom     string `envconfig:"SMTP_FROM" default:"noreply@hms.local"`
}

func main() {
	lg := logger.NewLogger(nil)

	cfg, err := config.LoadConfig()
	if err != nil {
		lg.Fatal(err, "failed to load config")
	}

	var env Env
	if err := envconfig.Process("hms", &env); err != nil {
		lg.Fatal(err, "failed to read environment")
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		lg.Fatal(err, "failed to connect to database")
	}
	defer db.Close()

	broker, err := redis.NewRedisBroker(redis.Config{
		URL:          cfg.Redis.URL,
		MaxRetries:   3,
		RetryBackoff: 100 * time.Millisecond,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
	}, &log.Logger)
	if err != nil {
		lg.Fatal(err, "failed to create broker")
	}
	defer broker.Close()

	base := postgres.NewBaseRepository(db)
	outboxRepo := postgres.NewOutboxRepository(base)
	patientRepo := postgres.NewPatientRepository(base)
	userRepo := postgres.NewUserRepository(base)

	processor := worker.NewOutboxProcessor(outboxRepo, broker, worker.OutboxProcessorConfig{
		BatchSize:    cfg.Outbox.BatchSize,
		PollInterval: cfg.Outbox.PollInterval,
		RetentionAge: cfg.Outbox.RetentionAge,
	}, lg, metrics.NewMetrics("hms", "worker"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	startHealthServer(env.HealthPort, lg)

	if env.EmailEnabled {
		mailer := email.NewSMTPService(email.SMTPConfig{
			Host:     env.SMTPHost,
			Port:     env.SMTPPort,
			Username: env.SMTPUser,
			Password: env.SMTPPassword,
			From:     env.SMTPFrom,
		})
		go notifyAppointments(ctx, broker, patientRepo, userRepo, mailer, lg)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		lg.Info("shutting down")
		cancel()
	}()

	processor.Start(ctx)
}

func startHealthServer(port int, lg *logger.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	go func() {
		addr := ":" + strconv.Itoa(port)
		if err := http.ListenAndServe(addr, mux); err != nil {
			lg.Fatal(err, "health server failed")
		}
	}()
}

// notifyAppointments emails patients when their appointment is booked or
// cancelled. Failures are logged and dropped; email is best-effort.
func notifyAppointments(ctx context.Context, broker messaging.Broker, patients repository.PatientRepository, users repository.UserRepository, mailer email.Service, lg *logger.Logger) {
	messages, err := broker.Subscribe(ctx, messaging.ChannelAppointments)
	if err != nil {
		lg.Error(err, "failed to subscribe to appointment channel")
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case raw, ok := <-messages:
			if !ok {
				return
			}

			var msg struct {
				Type    string            `json:"type"`
				Payload model.Appointment `json:"payload"`
			}
			if err := json.Unmarshal(raw, &msg); err != nil {
				lg.Error(err, "failed to decode appointment message")
				continue
			}

			addr, name, err := patientEmail(ctx, patients, users, msg.Payload.PatientID)
			if err != nil {
				lg.Warn("no email address for patient", "patient_id", msg.Payload.PatientID)
				continue
			}

			when := msg.Payload.ScheduledTime.Format("Mon, 02 Jan 2006 15:04")
			switch msg.Type {
			case model.EventAppointmentBooked:
				err = mailer.SendAppointmentConfirmation(ctx, addr, name, when)
			case model.EventAppointmentCancelled:
				err = mailer.SendAppointmentCancellation(ctx, addr, name, when)
			default:
				continue
			}
			if err != nil {
				lg.Error(err, "failed to send appointment email")
			}
		}
	}
}

func patientEmail(ctx context.Context, patients repository.PatientRepository, users repository.UserRepository, patientID int64) (addr, name string, err error) {
	patient, err := patients.Get(ctx, patientID)
	if err != nil {
		return "", "", err
	}
	if patient.UserID == nil {
		return "", "", repository.ErrNotFound
	}
	user, err := users.Get(ctx, *patient.UserID)
	if err != nil {
		return "", "", err
	}
	return user.Email, patient.FullName, nil
}
