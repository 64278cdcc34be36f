package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeAdvanceSubmitted = "advance.submitted"
	EventTypeAdvanceApproved  = "advance.approved"
	EventTypeAdvanceRejected  = "advance.rejected"
	EventTypeAdvancePaid      = "advance.paid"
	EventTypePaymentRecorded  = "payment.recorded"
)

type AdvanceEvent struct {
	BaseEvent
	AdvanceID  string `json:"advance_id"`
	EmployeeID string `json:"employee_id"`
	AmountIDR  int64  `json:"amount_idr"`
	Status     string `json:"status"`
}

func NewAdvanceEvent(eventType, advanceID, employeeID string, amountIDR int64, status string) *AdvanceEvent {
	return &AdvanceEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      eventType,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"advance_id":  advanceID,
				"employee_id": employeeID,
				"amount_idr":  amountIDR,
				"status":      status,
			},
		},
		AdvanceID:  advanceID,
		EmployeeID: employeeID,
		AmountIDR:  amountIDR,
		Status:     status,
	}
}

type PaymentRecordedEvent struct {
	BaseEvent
	PaymentID   string `json:"payment_id"`
	AdvanceID   string `json:"advance_id"`
	AmountIDR   int64  `json:"amount_idr"`
	PaymentType string `json:"payment_type"`
}

func NewPaymentRecordedEvent(paymentID, advanceID string, amountIDR int64, paymentType string) *PaymentRecordedEvent {
	return &PaymentRecordedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypePaymentRecorded,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"payment_id":   paymentID,
				"advance_id":   advanceID,
				"amount_idr":   amountIDR,
				"payment_type": paymentType,
			},
		},
		PaymentID:   paymentID,
		AdvanceID:   advanceID,
		AmountIDR:   amountIDR,
		PaymentType: paymentType,
	}
}
