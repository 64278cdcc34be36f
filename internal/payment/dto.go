package payment

import (
	"strings"
	"time"

	"github.com/frahmantamala/cash-advance-management/internal"
)

type RecordPaymentDTO struct {
	AmountIDR       int64     `json:"amount_idr"`
	PaymentType     string    `json:"payment_type"`
	PaymentDate     time.Time `json:"payment_date"`
	ReferenceNumber string    `json:"reference_number,omitempty"`
	Notes           string    `json:"notes,omitempty"`
}

func (dto *RecordPaymentDTO) ApplyDefaults() {
	if dto.PaymentDate.IsZero() {
		dto.PaymentDate = time.Now().UTC()
	}
}

func (dto RecordPaymentDTO) Validate() error {
	if dto.AmountIDR <= 0 {
		return internal.NewValidationError("payment amount must be greater than 0", internal.ErrCodeInvalidAmount)
	}
	if strings.TrimSpace(dto.PaymentType) == "" {
		return internal.NewValidationError("payment type is required", internal.ErrCodeValidationFailed)
	}
	if !ValidType(dto.PaymentType) {
		return internal.NewValidationError("unknown payment type", internal.ErrCodeValidationFailed)
	}
	return nil
}
