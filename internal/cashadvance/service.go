package cashadvance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/frahmantamala/cash-advance-management/internal"
	"github.com/frahmantamala/cash-advance-management/internal/core/events"
)

// Repository defines the data access methods for cash advances. Transition
// is the only write path for status changes: it loads the row under lock,
// applies fn with the repayment total computed in the same transaction, and
// persists the result together with its audit entry.
type Repository interface {
	Create(ctx context.Context, a *CashAdvance) error
	GetByID(ctx context.Context, id string) (*CashAdvance, error)
	List(ctx context.Context, limit, offset int) ([]*CashAdvance, error)
	ListByEmployee(ctx context.Context, employeeID string, limit, offset int) ([]*CashAdvance, error)
	ListByStatus(ctx context.Context, status string, limit, offset int) ([]*CashAdvance, error)
	Transition(ctx context.Context, id string, fn func(a *CashAdvance, totalPaidIDR int64) error) (*CashAdvance, error)
	Summary(ctx context.Context, id string) (*Summary, error)
	ListSummaries(ctx context.Context, limit, offset int) ([]*Summary, error)
}

// EmployeeDirectory is the slice of the employee service the advance flow
// needs: existence checks on submission.
type EmployeeDirectory interface {
	Exists(ctx context.Context, employeeID string) error
}

type Service struct {
	repo      Repository
	employees EmployeeDirectory
	eventBus  *events.EventBus
	logger    *slog.Logger
}

func NewService(repo Repository, employees EmployeeDirectory, eventBus *events.EventBus, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		employees: employees,
		eventBus:  eventBus,
		logger:    logger,
	}
}

// Submit creates a new advance in PENDING for an existing employee.
func (s *Service) Submit(ctx context.Context, dto SubmitAdvanceDTO) (*CashAdvance, error) {
	if err := dto.Validate(); err != nil {
		s.logger.Error("advance validation failed", "error", err)
		return nil, err
	}

	if err := s.employees.Exists(ctx, dto.EmployeeID); err != nil {
		s.logger.Warn("advance submitted for unknown employee", "employee_id", dto.EmployeeID)
		return nil, internal.NewValidationError("employee does not exist", internal.ErrCodeEmployeeNotFound)
	}

	a := &CashAdvance{
		EmployeeID: dto.EmployeeID,
		AmountIDR:  dto.AmountIDR,
		Reason:     dto.Reason,
		Status:     StatusPending,
	}

	if err := s.repo.Create(ctx, a); err != nil {
		s.logger.Error("failed to create advance", "error", err)
		return nil, err
	}

	s.logger.Info("advance submitted",
		"advance_id", a.ID,
		"employee_id", a.EmployeeID,
		"amount_idr", a.AmountIDR)

	s.eventBus.Publish(ctx, events.NewAdvanceEvent(events.EventTypeAdvanceSubmitted, a.ID, a.EmployeeID, a.AmountIDR, a.Status))

	return a, nil
}

// Approve moves a PENDING advance to APPROVED, recording the approver and,
// optionally, a repayment plan sufficient to cover the principal.
func (s *Service) Approve(ctx context.Context, advanceID, approverID string, dto ApproveAdvanceDTO) (*CashAdvance, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	a, err := s.repo.Transition(ctx, advanceID, func(a *CashAdvance, _ int64) error {
		if !a.CanBeApproved() {
			return invalidTransition(a.Status, StatusApproved)
		}
		if !dto.CoversPrincipal(a.AmountIDR) {
			return internal.NewValidationError(
				"repayment plan does not cover the advance amount",
				internal.ErrCodeInvalidAmount)
		}
		a.Approve(approverID, dto.InstallmentPeriod, dto.MonthlyDeductionIDR)
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrAdvanceNotFound
		}
		s.logger.Error("failed to approve advance", "error", err, "advance_id", advanceID)
		return nil, err
	}

	s.logger.Info("advance approved", "advance_id", a.ID, "approved_by", approverID)
	s.eventBus.Publish(ctx, events.NewAdvanceEvent(events.EventTypeAdvanceApproved, a.ID, a.EmployeeID, a.AmountIDR, a.Status))

	return a, nil
}

// Reject moves a PENDING advance to REJECTED with a mandatory reason.
func (s *Service) Reject(ctx context.Context, advanceID, approverID string, dto RejectAdvanceDTO) (*CashAdvance, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	a, err := s.repo.Transition(ctx, advanceID, func(a *CashAdvance, _ int64) error {
		if !a.CanBeRejected() {
			return invalidTransition(a.Status, StatusRejected)
		}
		a.Reject(approverID, dto.Reason)
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrAdvanceNotFound
		}
		s.logger.Error("failed to reject advance", "error", err, "advance_id", advanceID)
		return nil, err
	}

	s.logger.Info("advance rejected", "advance_id", a.ID, "rejected_by", approverID)
	s.eventBus.Publish(ctx, events.NewAdvanceEvent(events.EventTypeAdvanceRejected, a.ID, a.EmployeeID, a.AmountIDR, a.Status))

	return a, nil
}

// MarkPaid settles an APPROVED advance. The outstanding balance must be
// zero unless the caller explicitly forgives the remainder.
func (s *Service) MarkPaid(ctx context.Context, advanceID string, dto MarkPaidDTO) (*CashAdvance, error) {
	dto.ApplyDefaults()

	a, err := s.repo.Transition(ctx, advanceID, func(a *CashAdvance, totalPaidIDR int64) error {
		if !a.CanBeMarkedPaid() {
			return invalidTransition(a.Status, StatusPaid)
		}
		if remaining := a.AmountIDR - totalPaidIDR; remaining > 0 && !dto.ForgiveRemaining {
			return internal.NewBalanceError(
				fmt.Sprintf("advance has an outstanding balance of %d IDR", remaining),
				internal.ErrCodeBalanceRemaining)
		}
		a.MarkPaid(dto.PaymentDate)
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrAdvanceNotFound
		}
		s.logger.Error("failed to mark advance paid", "error", err, "advance_id", advanceID)
		return nil, err
	}

	s.logger.Info("advance marked paid",
		"advance_id", a.ID,
		"payment_date", dto.PaymentDate,
		"forgive_remaining", dto.ForgiveRemaining)
	s.eventBus.Publish(ctx, events.NewAdvanceEvent(events.EventTypeAdvancePaid, a.ID, a.EmployeeID, a.AmountIDR, a.Status))

	return a, nil
}

func (s *Service) GetAdvance(ctx context.Context, id string) (*CashAdvance, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrAdvanceNotFound
		}
		s.logger.Error("failed to get advance", "error", err, "advance_id", id)
		return nil, internal.NewInternalError("failed to load advance", err)
	}
	return a, nil
}

func (s *Service) ListAdvances(ctx context.Context, status string, limit, offset int) ([]*CashAdvance, error) {
	if status != "" {
		if !ValidStatus(status) {
			return nil, internal.NewValidationError("unknown status filter", internal.ErrCodeValidationFailed)
		}
		return s.repo.ListByStatus(ctx, status, limit, offset)
	}
	return s.repo.List(ctx, limit, offset)
}

func (s *Service) ListAdvancesByEmployee(ctx context.Context, employeeID string, limit, offset int) ([]*CashAdvance, error) {
	return s.repo.ListByEmployee(ctx, employeeID, limit, offset)
}

// GetSummary returns the derived per-advance view: total repaid and the
// remaining balance, recomputed on read.
func (s *Service) GetSummary(ctx context.Context, id string) (*Summary, error) {
	summary, err := s.repo.Summary(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrAdvanceNotFound
		}
		s.logger.Error("failed to get advance summary", "error", err, "advance_id", id)
		return nil, internal.NewInternalError("failed to load advance summary", err)
	}
	return summary, nil
}

func (s *Service) ListSummaries(ctx context.Context, limit, offset int) ([]*Summary, error) {
	return s.repo.ListSummaries(ctx, limit, offset)
}

func invalidTransition(from, to string) error {
	return internal.NewInvalidStateError(
		fmt.Sprintf("cannot move advance from %s to %s", from, to),
		internal.ErrCodeInvalidTransition)
}
