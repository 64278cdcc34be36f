package cashadvance

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	StatusPending  = "PENDING"
	StatusApproved = "APPROVED"
	StatusRejected = "REJECTED"
	StatusPaid     = "PAID"
)

// CashAdvance is a request for a salary pre-payment. It is created PENDING
// and only ever moves PENDING -> APPROVED -> PAID or PENDING -> REJECTED;
// rows are never deleted, only status-updated.
type CashAdvance struct {
	ID                  string     `json:"id" gorm:"type:uuid;primaryKey"`
	EmployeeID          string     `json:"employee_id" gorm:"column:employee_id;type:uuid;not null;index"`
	AmountIDR           int64      `json:"amount_idr" gorm:"column:amount_idr;not null"`
	Reason              string     `json:"reason" gorm:"column:reason;not null"`
	Status              string     `json:"status" gorm:"column:status;not null;default:PENDING;index"`
	ApprovedBy          *string    `json:"approved_by,omitempty" gorm:"column:approved_by;type:uuid"`
	ApprovedAt          *time.Time `json:"approved_at,omitempty" gorm:"column:approved_at"`
	RejectionReason     *string    `json:"rejection_reason,omitempty" gorm:"column:rejection_reason"`
	PaymentDate         *time.Time `json:"payment_date,omitempty" gorm:"column:payment_date;type:date"`
	InstallmentPeriod   *int       `json:"installment_period,omitempty" gorm:"column:installment_period"`
	MonthlyDeductionIDR *int64     `json:"monthly_deduction_idr,omitempty" gorm:"column:monthly_deduction_idr"`
	CreatedAt           time.Time  `json:"created_at" gorm:"column:created_at"`
	UpdatedAt           time.Time  `json:"updated_at" gorm:"column:updated_at"`
}

func (CashAdvance) TableName() string {
	return "cash_advances"
}

func (a *CashAdvance) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now
	if a.Status == "" {
		a.Status = StatusPending
	}
	return nil
}

func (a *CashAdvance) AuditEntityType() string {
	return "cash_advances"
}

func (a *CashAdvance) AuditEntityID() string {
	return a.ID
}

func ValidStatus(status string) bool {
	switch status {
	case StatusPending, StatusApproved, StatusRejected, StatusPaid:
		return true
	}
	return false
}

func (a *CashAdvance) CanBeApproved() bool {
	return a.Status == StatusPending
}

func (a *CashAdvance) CanBeRejected() bool {
	return a.Status == StatusPending
}

func (a *CashAdvance) CanBeMarkedPaid() bool {
	return a.Status == StatusApproved
}

// AcceptsPayments reports whether repayments may be recorded against the
// advance.
func (a *CashAdvance) AcceptsPayments() bool {
	return a.Status == StatusApproved || a.Status == StatusPaid
}

// Approve moves the advance to APPROVED; approved_by and approved_at are
// always set together.
func (a *CashAdvance) Approve(approverID string, installmentPeriod *int, monthlyDeductionIDR *int64) {
	now := time.Now().UTC()
	a.Status = StatusApproved
	a.ApprovedBy = &approverID
	a.ApprovedAt = &now
	a.InstallmentPeriod = installmentPeriod
	a.MonthlyDeductionIDR = monthlyDeductionIDR
	a.UpdatedAt = now
}

// Reject moves the advance to REJECTED, recording the deciding user and
// time in the same approver columns.
func (a *CashAdvance) Reject(approverID, reason string) {
	now := time.Now().UTC()
	a.Status = StatusRejected
	a.ApprovedBy = &approverID
	a.ApprovedAt = &now
	a.RejectionReason = &reason
	a.UpdatedAt = now
}

func (a *CashAdvance) MarkPaid(paymentDate time.Time) {
	now := time.Now().UTC()
	a.Status = StatusPaid
	a.PaymentDate = &paymentDate
	a.UpdatedAt = now
}

// Summary is the derived read model over the cash_advance_summaries view;
// balances are recomputed on read, never stored.
type Summary struct {
	AdvanceID           string    `json:"advance_id" gorm:"column:advance_id"`
	EmployeeID          string    `json:"employee_id" gorm:"column:employee_id"`
	EmployeeName        string    `json:"employee_name" gorm:"column:employee_name"`
	AmountIDR           int64     `json:"amount_idr" gorm:"column:amount_idr"`
	Status              string    `json:"status" gorm:"column:status"`
	TotalPaidIDR        int64     `json:"total_paid_idr" gorm:"column:total_paid_idr"`
	RemainingBalanceIDR int64     `json:"remaining_balance_idr" gorm:"column:remaining_balance_idr"`
	CreatedAt           time.Time `json:"created_at" gorm:"column:created_at"`
}

func (Summary) TableName() string {
	return "cash_advance_summaries"
}
