package payment

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/cash-advance-management/internal"
	"github.com/frahmantamala/cash-advance-management/internal/cashadvance"
	"github.com/frahmantamala/cash-advance-management/internal/core/events"
)

// AdvanceState is the snapshot of the advance a payment is recorded
// against, read under the same row lock the insert commits with.
type AdvanceState struct {
	Status       string
	AmountIDR    int64
	TotalPaidIDR int64
}

// Repository defines the data access methods for payments. RecordForAdvance
// inserts the payment in a transaction that holds the advance row lock;
// check runs against the locked state and a non-nil error aborts the
// insert.
type Repository interface {
	RecordForAdvance(ctx context.Context, p *Payment, check func(state AdvanceState) error) error
	GetByID(ctx context.Context, id string) (*Payment, error)
	ListByAdvance(ctx context.Context, advanceID string) ([]*Payment, error)
	TotalPaid(ctx context.Context, advanceID string) (int64, error)
}

type Service struct {
	repo     Repository
	eventBus *events.EventBus
	logger   *slog.Logger
}

func NewService(repo Repository, eventBus *events.EventBus, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		eventBus: eventBus,
		logger:   logger,
	}
}

// RecordPayment appends a repayment to an advance. The advance must accept
// payments and the running total may never exceed the principal; both are
// checked under the advance row lock.
func (s *Service) RecordPayment(ctx context.Context, advanceID string, recordedBy *string, dto RecordPaymentDTO) (*Payment, error) {
	dto.ApplyDefaults()
	if err := dto.Validate(); err != nil {
		s.logger.Error("payment validation failed", "error", err)
		return nil, err
	}

	p := &Payment{
		CashAdvanceID:   advanceID,
		AmountIDR:       dto.AmountIDR,
		PaymentType:     dto.PaymentType,
		PaymentDate:     dto.PaymentDate,
		ReferenceNumber: dto.ReferenceNumber,
		Notes:           dto.Notes,
		RecordedBy:      recordedBy,
	}

	err := s.repo.RecordForAdvance(ctx, p, func(state AdvanceState) error {
		if !acceptsPayments(state.Status) {
			return internal.NewInvalidStateError(
				fmt.Sprintf("advance in status %s does not accept payments", state.Status),
				internal.ErrCodeInvalidTransition)
		}
		if state.TotalPaidIDR+dto.AmountIDR > state.AmountIDR {
			return internal.NewBalanceError(
				fmt.Sprintf("payment of %d IDR would exceed the remaining balance of %d IDR",
					dto.AmountIDR, state.AmountIDR-state.TotalPaidIDR),
				internal.ErrCodeBalanceExceeded)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("failed to record payment", "error", err, "advance_id", advanceID)
		return nil, err
	}

	s.logger.Info("payment recorded",
		"payment_id", p.ID,
		"advance_id", advanceID,
		"amount_idr", p.AmountIDR,
		"payment_type", p.PaymentType)

	s.eventBus.Publish(ctx, events.NewPaymentRecordedEvent(p.ID, advanceID, p.AmountIDR, p.PaymentType))

	return p, nil
}

func (s *Service) GetPayment(ctx context.Context, id string) (*Payment, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("failed to get payment", "error", err, "payment_id", id)
		return nil, internal.NewNotFoundError("payment not found", internal.ErrCodePaymentNotFound)
	}
	return p, nil
}

func (s *Service) ListPaymentsByAdvance(ctx context.Context, advanceID string) ([]*Payment, error) {
	payments, err := s.repo.ListByAdvance(ctx, advanceID)
	if err != nil {
		s.logger.Error("failed to list payments", "error", err, "advance_id", advanceID)
		return nil, err
	}
	return payments, nil
}

// TotalPaid returns the sum of all payments against the advance.
func (s *Service) TotalPaid(ctx context.Context, advanceID string) (int64, error) {
	return s.repo.TotalPaid(ctx, advanceID)
}

func acceptsPayments(status string) bool {
	return status == cashadvance.StatusApproved || status == cashadvance.StatusPaid
}
