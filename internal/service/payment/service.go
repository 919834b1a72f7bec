package payment

import (
	"context"

	"github.com/google/uuid"

	"github.com/serenemind/clinic-api/internal/model"
	"github.com/serenemind/clinic-api/internal/repository"
)

type Service struct {
	repo repository.PaymentRepository
}

func NewService(repo repository.PaymentRepository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, req *model.CreatePaymentRequest) (*model.Payment, error) {
	payment := &model.Payment{
		PatientID:       req.PatientID,
		Amount:          req.Amount,
		Description:     req.Description,
		Category:        req.Category,
		Date:            req.Date,
		PaymentMethod:   req.PaymentMethod,
		ReferenceNumber: req.ReferenceNumber,
		Status:          model.PaymentStatus(req.Status),
		Type:            model.PaymentType(req.Type),
		Notes:           req.Notes,
	}
	if payment.PaymentMethod == "" {
		payment.PaymentMethod = "cash"
	}
	if payment.Status == "" {
		payment.Status = model.PaymentStatusCompleted
	}

	if err := s.repo.Create(ctx, payment); err != nil {
		return nil, err
	}
	return payment, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Payment, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req *model.UpdatePaymentRequest) (*model.Payment, error) {
	payment, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Amount != nil {
		payment.Amount = *req.Amount
	}
	if req.Description != nil {
		payment.Description = *req.Description
	}
	if req.Category != nil {
		payment.Category = *req.Category
	}
	if req.Date != nil {
		payment.Date = *req.Date
	}
	if req.PaymentMethod != nil {
		payment.PaymentMethod = *req.PaymentMethod
	}
	if req.ReferenceNumber != nil {
		payment.ReferenceNumber = req.ReferenceNumber
	}
	if req.Status != nil {
		payment.Status = model.PaymentStatus(*req.Status)
	}
	if req.PatientID != nil {
		payment.PatientID = req.PatientID
	}
	if req.Notes != nil {
		payment.Notes = req.Notes
	}

	if err := s.repo.Update(ctx, payment); err != nil {
		return nil, err
	}
	return payment, nil
}

// Delete tombstones the payment; the row survives for audit but leaves
// every listing and aggregate.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.SoftDelete(ctx, id)
}

func (s *Service) List(ctx context.Context, filters *model.PaymentFilters) ([]*model.Payment, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Summary(ctx context.Context, startDate, endDate string) (*model.PaymentSummary, error) {
	return s.repo.Summary(ctx, startDate, endDate)
}

func (s *Service) Categories(ctx context.Context) (*model.PaymentCategories, error) {
	return s.repo.Categories(ctx)
}
