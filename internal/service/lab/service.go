package lab

import (
	"context"
	"errors"
	"fmt"

	"github.com/lmezzz/hms-api/internal/model"
	"github.com/lmezzz/hms-api/internal/repository"
	apperr "github.com/lmezzz/hms-api/pkg/errors"
)

type Service struct {
	labs   repository.LabRepository
	visits repository.VisitRepository
}

func NewService(labs repository.LabRepository, visits repository.VisitRepository) *Service {
	return &Service{labs: labs, visits: visits}
}

func (s *Service) CreateTest(ctx context.Context, req *model.CreateLabTestRequest) (*model.LabTest, error) {
	test := &model.LabTest{
		TestName:    req.TestName,
		Category:    req.Category,
		Cost:        req.Cost,
		Description: req.Description,
	}
	if err := s.labs.CreateTest(ctx, test); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.Conflict("lab test already exists", err)
		}
		return nil, apperr.Storage(fmt.Errorf("failed to create lab test: %w", err))
	}
	return test, nil
}

func (s *Service) ListTests(ctx context.Context) ([]*model.LabTest, error) {
	tests, err := s.labs.ListTests(ctx)
	if err != nil {
		return nil, apperr.Storage(fmt.Errorf("failed to list lab tests: %w", err))
	}
	return tests, nil
}

// OrderTest places a lab order from a visit. The patient comes from the
// visit, never from the request.
func (s *Service) OrderTest(ctx context.Context, doctorID int64, req *model.CreateLabOrderRequest) (*model.LabOrder, error) {
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

	test, err := s.labs.GetTest(ctx, req.LabTestID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.Validation("unknown lab test", err)
		}
		return nil, apperr.Storage(fmt.Errorf("failed to get lab test: %w", err))
	}

	priority := req.Priority
	if priority == "" {
		priority = "Routine"
	}

	order := &model.LabOrder{
		VisitID:   req.VisitID,
		PatientID: visit.PatientID,
		DoctorID:  doctorID,
		LabTestID: test.ID,
		Priority:  priority,
		TestName:  test.TestName,
	}
	if err := s.labs.CreateOrder(ctx, order); err != nil {
		return nil, apperr.Storage(fmt.Errorf("failed to create lab order: %w", err))
	}
	return order, nil
}

func (s *Service) GetOrder(ctx context.Context, id int64) (*model.LabOrder, error) {
	order, err := s.labs.GetOrder(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("lab order", err)
		}
		return nil, apperr.Storage(fmt.Errorf("failed to get lab order: %w", err))
	}
	return order, nil
}

func (s *Service) ListOrders(ctx context.Context, status model.LabOrderStatus, patientID *int64) ([]*model.LabOrder, error) {
	orders, err := s.labs.ListOrders(ctx, status, patientID)
	if err != nil {
		return nil, apperr.Storage(fmt.Errorf("failed to list lab orders: %w", err))
	}
	return orders, nil
}

// CollectSample moves a Pending order to InProgress, stamping the sample
// time. Only one technician wins a concurrent collect.
func (s *Service) CollectSample(ctx context.Context, orderID int64) error {
	err := s.labs.UpdateOrderStatus(ctx, orderID, model.LabOrderStatusPending, model.LabOrderStatusInProgress)
	if err != nil {
		if errors.Is(err, repository.ErrStaleState) {
			return apperr.Conflict("sample has already been collected", err)
		}
		return apperr.Storage(fmt.Errorf("failed to collect sample: %w", err))
	}
	return nil
}

// UploadResult stores the result and completes the order in one step. The
// order must be InProgress; Pending and Completed orders are rejected.
func (s *Service) UploadResult(ctx context.Context, orderID, uploadedBy int64, req *model.UploadLabResultRequest) (*model.LabResult, error) {
	if req.ResultText == "" && req.FilePath == "" {
		return nil, apperr.Validation("result text or file is required", nil)
	}

	result := &model.LabResult{
		LabOrderID: orderID,
		ResultText: req.ResultText,
		FilePath:   req.FilePath,
		UploadedBy: uploadedBy,
	}
	if err := s.labs.AddResult(ctx, result); err != nil {
		if errors.Is(err, repository.ErrStaleState) {
			return nil, apperr.Conflict("lab order is not awaiting a result", err)
		}
		return nil, apperr.Storage(fmt.Errorf("failed to upload result: %w", err))
	}
	return result, nil
}
