package prescription

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

type Service struct {
	prescriptions repository.PrescriptionRepository
	medications   repository.MedicationRepository
	visits        repository.VisitRepository
	events        *event.Service
	logger        *logger.Logger

	stockPolicy string
}

func NewService(prescriptions repository.PrescriptionRepository, medications repository.MedicationRepository, visits repository.VisitRepository, events *event.Service, logger *logger.Logger, stockPolicy string) *Service {
	if stockPolicy != model.StockDeductionOnDispense {
		stockPolicy = model.StockDeductionOnPayment
	}
	return &Service{
		prescriptions: prescriptions,
		medications:   medications,
		visits:        visits,
		events:        events,
		logger:        logger,
		stockPolicy:   stockPolicy,
	}
}

// CreatePrescription writes the prescription for a visit. Every medication is
// resolved up front so a typo'd ID fails the whole request instead of leaving
// a partial prescription.
func (s *Service) CreatePrescription(ctx context.Context, doctorID int64, req *model.CreatePrescriptionRequest) (*model.Prescription, error) {
	visit, err := s.visits.Get(ctx, req.VisitID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("visit", err)
		}
		return nil, apperr.Storage(fmt.Errorf("failed to get visit: %w", err))
	}
	if visit.DoctorID != doctorID {
		return nil, apperr.Forbidden("visit belongs to another doctor")
	}

	items := make([]*model.PrescriptionItem, 0, len(req.Items))
	for _, it := range req.Items {
		med, err := s.medications.Get(ctx, it.MedicationID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, apperr.Validation(fmt.Sprintf("unknown medication %d", it.MedicationID), err)
			}
			return nil, apperr.Storage(fmt.Errorf("failed to get medication: %w", err))
		}
		items = append(items, &model.PrescriptionItem{
			MedicationID:   med.ID,
			Dosage:         it.Dosage,
			Frequency:      it.Frequency,
			Duration:       it.Duration,
			Quantity:       it.Quantity,
			MedicationName: med.Name,
		})
	}

	prescription := &model.Prescription{
		VisitID:  req.VisitID,
		DoctorID: doctorID,
		Items:    items,
	}
	if err := s.prescriptions.Create(ctx, prescription); err != nil {
		return nil, apperr.Storage(fmt.Errorf("failed to create prescription: %w", err))
	}
	return prescription, nil
}

func (s *Service) GetPrescription(ctx context.Context, id int64) (*model.Prescription, error) {
	p, err := s.prescriptions.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("prescription", err)
		}
		return nil, apperr.Storage(fmt.Errorf("failed to get prescription: %w", err))
	}
	return p, nil
}

func (s *Service) ListByVisit(ctx context.Context, visitID int64) ([]*model.Prescription, error) {
	list, err := s.prescriptions.ListByVisit(ctx, visitID)
	if err != nil {
		return nil, apperr.Storage(fmt.Errorf("failed to list prescriptions: %w", err))
	}
	return list, nil
}

// DeletePrescription removes a prescription that has not been dispensed yet.
func (s *Service) DeletePrescription(ctx context.Context, id, doctorID int64) error {
	p, err := s.GetPrescription(ctx, id)
	if err != nil {
		return err
	}
	if p.DoctorID != doctorID {
		return apperr.Forbidden("prescription belongs to another doctor")
	}

	if err := s.prescriptions.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrStaleState) {
			return apperr.Conflict("prescription has already been dispensed", err)
		}
		return apperr.Storage(fmt.Errorf("failed to delete prescription: %w", err))
	}
	return nil
}

// Dispense hands the medication out. The Pending -> Dispensed flip is
// conditional, so a double-submit dispenses (and deducts) only once. Under
// the dispense-time policy stock comes off here; medications that cannot
// cover their quantity are reported as warnings and left untouched.
func (s *Service) Dispense(ctx context.Context, id int64) ([]model.StockWarning, error) {
	p, err := s.GetPrescription(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.prescriptions.MarkDispensed(ctx, id); err != nil {
		if errors.Is(err, repository.ErrStaleState) {
			return nil, apperr.Conflict("prescription has already been dispensed", err)
		}
		return nil, apperr.Storage(fmt.Errorf("failed to dispense prescription: %w", err))
	}

	var warnings []model.StockWarning
	if s.stockPolicy == model.StockDeductionOnDispense {
		for _, item := range p.Items {
			remaining, err := s.medications.AdjustStock(ctx, item.MedicationID, -item.Quantity)
			if err != nil {
				if errors.Is(err, repository.ErrInsufficient) {
					med, getErr := s.medications.Get(ctx, item.MedicationID)
					inStock := 0
					if getErr == nil {
						inStock = med.StockQuantity
					}
					warnings = append(warnings, model.StockWarning{
						MedicationID:   item.MedicationID,
						MedicationName: item.MedicationName,
						Requested:      item.Quantity,
						InStock:        inStock,
					})
					continue
				}
				return nil, apperr.Storage(fmt.Errorf("failed to deduct stock: %w", err))
			}
			if med, getErr := s.medications.Get(ctx, item.MedicationID); getErr == nil && remaining <= med.LowStockThreshold {
				s.events.Emit(ctx, model.EventMedicationLowStock, med)
			}
		}
		for _, w := range warnings {
			s.logger.Warn(fmt.Sprintf("insufficient stock for medication %d (%s): requested %d, in stock %d",
				w.MedicationID, w.MedicationName, w.Requested, w.InStock))
		}
	}
	return warnings, nil
}
