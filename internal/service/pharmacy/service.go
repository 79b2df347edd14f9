package pharmacy

import (
	"context"
	"errors"
	"fmt"

	"github.com/lmezzz/hms-api/internal/model"
	"github.com/lmezzz/hms-api/internal/repository"
	"github.com/lmezzz/hms-api/internal/service/event"
	apperr "github.com/lmezzz/hms-api/pkg/errors"
	"github.com/lmezzz/hms-api/pkg/logger"
)

// Service manages the medication catalog and stock levels.
type Service struct {
	medications repository.MedicationRepository
	events      *event.Service
	logger      *logger.Logger
}

func NewService(medications repository.MedicationRepository, events *event.Service, logger *logger.Logger) *Service {
	return &Service{
		medications: medications,
		events:      events,
		logger:      logger,
	}
}

func (s *Service) CreateMedication(ctx context.Context, req *model.CreateMedicationRequest) (*model.Medication, error) {
	med := &model.Medication{
		Name:              req.Name,
		Description:       req.Description,
		UnitPrice:         req.UnitPrice,
		StockQuantity:     req.StockQuantity,
		LowStockThreshold: req.LowStockThreshold,
	}
	if err := s.medications.Create(ctx, med); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.Conflict("medication already exists", err)
		}
		return nil, apperr.Storage(fmt.Errorf("failed to create medication: %w", err))
	}
	return med, nil
}

func (s *Service) GetMedication(ctx context.Context, id int64) (*model.Medication, error) {
	med, err := s.medications.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("medication", err)
		}
		return nil, apperr.Storage(fmt.Errorf("failed to get medication: %w", err))
	}
	return med, nil
}

func (s *Service) UpdateMedication(ctx context.Context, id int64, req *model.UpdateMedicationRequest) (*model.Medication, error) {
	med, err := s.GetMedication(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		med.Name = *req.Name
	}
	if req.Description != nil {
		med.Description = *req.Description
	}
	if req.UnitPrice != nil {
		med.UnitPrice = *req.UnitPrice
	}
	if req.LowStockThreshold != nil {
		med.LowStockThreshold = *req.LowStockThreshold
	}

	if err := s.medications.Update(ctx, med); err != nil {
		return nil, apperr.Storage(fmt.Errorf("failed to update medication: %w", err))
	}
	return med, nil
}

func (s *Service) ListMedications(ctx context.Context, search string) ([]*model.Medication, error) {
	meds, err := s.medications.List(ctx, search)
	if err != nil {
		return nil, apperr.Storage(fmt.Errorf("failed to list medications: %w", err))
	}
	return meds, nil
}

func (s *Service) ListLowStock(ctx context.Context) ([]*model.Medication, error) {
	meds, err := s.medications.ListLowStock(ctx)
	if err != nil {
		return nil, apperr.Storage(fmt.Errorf("failed to list low stock medications: %w", err))
	}
	return meds, nil
}

// AdjustStock applies a signed delta (restock or correction). Stock never
// goes negative; an adjustment that would is rejected as a conflict.
func (s *Service) AdjustStock(ctx context.Context, id int64, req *model.AdjustStockRequest) (*model.Medication, error) {
	remaining, err := s.medications.AdjustStock(ctx, id, req.Delta)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("medication", err)
		}
		if errors.Is(err, repository.ErrInsufficient) {
			return nil, apperr.Conflict("adjustment would make stock negative", err)
		}
		return nil, apperr.Storage(fmt.Errorf("failed to adjust stock: %w", err))
	}

	med, err := s.GetMedication(ctx, id)
	if err != nil {
		return nil, err
	}
	med.StockQuantity = remaining

	if med.LowStock() {
		s.events.Emit(ctx, model.EventMedicationLowStock, med)
	}
	return med, nil
}
