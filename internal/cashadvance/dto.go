package cashadvance

import (
	"strings"
	"time"

	"github.com/frahmantamala/cash-advance-management/internal"
)

type SubmitAdvanceDTO struct {
	EmployeeID string `json:"employee_id"`
	AmountIDR  int64  `json:"amount_idr"`
	Reason     string `json:"reason"`
}

func (dto SubmitAdvanceDTO) Validate() error {
	if strings.TrimSpace(dto.EmployeeID) == "" {
		return internal.NewValidationError("employee_id is required", internal.ErrCodeValidationFailed)
	}
	if dto.AmountIDR <= 0 {
		return internal.NewValidationError("amount must be greater than 0", internal.ErrCodeInvalidAmount)
	}
	if strings.TrimSpace(dto.Reason) == "" {
		return internal.NewValidationError("reason is required", internal.ErrCodeValidationFailed)
	}
	return nil
}

// ApproveAdvanceDTO optionally carries a repayment plan. Either both plan
// fields are set or neither is.
type ApproveAdvanceDTO struct {
	InstallmentPeriod   *int   `json:"installment_period,omitempty"`
	MonthlyDeductionIDR *int64 `json:"monthly_deduction_idr,omitempty"`
}

func (dto ApproveAdvanceDTO) Validate() error {
	if (dto.InstallmentPeriod == nil) != (dto.MonthlyDeductionIDR == nil) {
		return internal.NewValidationError("installment period and monthly deduction must be provided together", internal.ErrCodeValidationFailed)
	}
	if dto.InstallmentPeriod != nil && *dto.InstallmentPeriod < 1 {
		return internal.NewValidationError("installment period must be at least 1", internal.ErrCodeValidationFailed)
	}
	if dto.MonthlyDeductionIDR != nil && *dto.MonthlyDeductionIDR <= 0 {
		return internal.NewValidationError("monthly deduction must be greater than 0", internal.ErrCodeInvalidAmount)
	}
	return nil
}

// CoversPrincipal reports whether the plan repays at least the given amount.
// A request without a plan trivially covers it; deductions are then handled
// ad hoc.
func (dto ApproveAdvanceDTO) CoversPrincipal(amountIDR int64) bool {
	if dto.InstallmentPeriod == nil || dto.MonthlyDeductionIDR == nil {
		return true
	}
	return int64(*dto.InstallmentPeriod)*(*dto.MonthlyDeductionIDR) >= amountIDR
}

type RejectAdvanceDTO struct {
	Reason string `json:"reason"`
}

func (dto RejectAdvanceDTO) Validate() error {
	if strings.TrimSpace(dto.Reason) == "" {
		return internal.NewValidationError("rejection reason is required", internal.ErrCodeValidationFailed)
	}
	return nil
}

// MarkPaidDTO closes out an advance. ForgiveRemaining allows settling with
// an outstanding balance; without it the balance must be zero.
type MarkPaidDTO struct {
	PaymentDate      time.Time `json:"payment_date"`
	ForgiveRemaining bool      `json:"forgive_remaining,omitempty"`
}

func (dto *MarkPaidDTO) ApplyDefaults() {
	if dto.PaymentDate.IsZero() {
		dto.PaymentDate = time.Now().UTC()
	}
}
