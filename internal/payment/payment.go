package payment

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	TypeSalaryDeduction = "SALARY_DEDUCTION"
	TypeCash            = "CASH"
	TypeBankTransfer    = "BANK_TRANSFER"
)

// Payment is a single repayment against a cash advance. Rows are append
// only; corrections are made by recording further payments, never by
// editing history.
type Payment struct {
	ID              string    `json:"id" gorm:"type:uuid;primaryKey"`
	CashAdvanceID   string    `json:"cash_advance_id" gorm:"column:cash_advance_id;type:uuid;not null;index"`
	AmountIDR       int64     `json:"amount_idr" gorm:"column:amount_idr;not null"`
	PaymentType     string    `json:"payment_type" gorm:"column:payment_type;not null"`
	PaymentDate     time.Time `json:"payment_date" gorm:"column:payment_date;type:date;not null"`
	ReferenceNumber string    `json:"reference_number,omitempty" gorm:"column:reference_number"`
	Notes           string    `json:"notes,omitempty" gorm:"column:notes"`
	RecordedBy      *string   `json:"recorded_by,omitempty" gorm:"column:recorded_by;type:uuid"`
	CreatedAt       time.Time `json:"created_at" gorm:"column:created_at"`
}

func (Payment) TableName() string {
	return "payments"
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	return nil
}

func ValidType(paymentType string) bool {
	switch paymentType {
	case TypeSalaryDeduction, TypeCash, TypeBankTransfer:
		return true
	}
	return false
}
