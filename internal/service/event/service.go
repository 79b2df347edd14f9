package event

import (
	"context"
	"encoding/json"

	"github.com/lmezzz/hms-api/internal/model"
	"github.com/lmezzz/hms-api/internal/repository"
	"github.com/lmezzz/hms-api/pkg/logger"
)

// Service writes domain events to the outbox table. Delivery to the broker
// happens later via the outbox processor, so emitting never blocks a request
// on the broker being up.
type Service struct {
	repo   repository.OutboxRepository
	logger *logger.Logger
}

func NewService(repo repository.OutboxRepository, logger *logger.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

// Emit records an event for asynchronous delivery. Failures are logged and
// swallowed: the triggering transaction has already committed and must not be
// reported as failed to the caller.
func (s *Service) Emit(ctx context.Context, eventType string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error(err, "failed to marshal event", "event_type", eventType)
		return
	}

	evt := &model.OutboxEvent{
		EventType: eventType,
		Payload:   data,
	}
	if err := s.repo.Create(ctx, evt); err != nil {
		s.logger.Error(err, "failed to write event to outbox", "event_type", eventType)
	}
}
