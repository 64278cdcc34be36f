package payment_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/google/uuid"

	"github.com/frahmantamala/cash-advance-management/internal"
	"github.com/frahmantamala/cash-advance-management/internal/cashadvance"
	"github.com/frahmantamala/cash-advance-management/internal/core/events"
	"github.com/frahmantamala/cash-advance-management/internal/payment"
)

func TestPaymentService(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "PaymentService Suite")
}

// Mock repository for testing
type mockPaymentRepository struct {
	advanceStatus map[string]string
	advanceAmount map[string]int64
	payments      map[string][]*payment.Payment
	recordError   error
}

func newMockPaymentRepository() *mockPaymentRepository {
	return &mockPaymentRepository{
		advanceStatus: make(map[string]string),
		advanceAmount: make(map[string]int64),
		payments:      make(map[string][]*payment.Payment),
	}
}

func (m *mockPaymentRepository) total(advanceID string) int64 {
	var total int64
	for _, p := range m.payments[advanceID] {
		total += p.AmountIDR
	}
	return total
}

func (m *mockPaymentRepository) RecordForAdvance(_ context.Context, p *payment.Payment, check func(state payment.AdvanceState) error) error {
	if m.recordError != nil {
		return m.recordError
	}
	status, exists := m.advanceStatus[p.CashAdvanceID]
	if !exists {
		return errors.New("advance not found")
	}
	if err := check(payment.AdvanceState{
		Status:       status,
		AmountIDR:    m.advanceAmount[p.CashAdvanceID],
		TotalPaidIDR: m.total(p.CashAdvanceID),
	}); err != nil {
		return err
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	m.payments[p.CashAdvanceID] = append(m.payments[p.CashAdvanceID], p)
	return nil
}

func (m *mockPaymentRepository) GetByID(_ context.Context, id string) (*payment.Payment, error) {
	for _, list := range m.payments {
		for _, p := range list {
			if p.ID == id {
				return p, nil
			}
		}
	}
	return nil, errors.New("payment not found")
}

func (m *mockPaymentRepository) ListByAdvance(_ context.Context, advanceID string) ([]*payment.Payment, error) {
	return m.payments[advanceID], nil
}

func (m *mockPaymentRepository) TotalPaid(_ context.Context, advanceID string) (int64, error) {
	return m.total(advanceID), nil
}

var _ = Describe("PaymentService", func() {
	var (
		service   *payment.Service
		mockRepo  *mockPaymentRepository
		ctx       context.Context
		advanceID string
	)

	BeforeEach(func() {
		mockRepo = newMockPaymentRepository()
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = payment.NewService(mockRepo, events.NewEventBus(logger), logger)
		ctx = context.Background()

		advanceID = uuid.NewString()
		mockRepo.advanceStatus[advanceID] = cashadvance.StatusApproved
		mockRepo.advanceAmount[advanceID] = 5000000
	})

	record := func(amount int64) (*payment.Payment, error) {
		return service.RecordPayment(ctx, advanceID, nil, payment.RecordPaymentDTO{
			AmountIDR:   amount,
			PaymentType: payment.TypeCash,
		})
	}

	Describe("RecordPayment", func() {
		It("should record a payment against an approved advance", func() {
			p, err := record(2000000)

			Expect(err).ToNot(HaveOccurred())
			Expect(p.ID).ToNot(BeEmpty())
			Expect(p.AmountIDR).To(Equal(int64(2000000)))
			Expect(p.PaymentDate.IsZero()).To(BeFalse())
		})

		It("should reject a non-positive amount", func() {
			_, err := record(0)

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeInvalidAmount))
		})

		It("should reject an unknown payment type", func() {
			_, err := service.RecordPayment(ctx, advanceID, nil, payment.RecordPaymentDTO{
				AmountIDR:   100000,
				PaymentType: "IOU",
			})

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
		})

		It("should reject payments against a pending advance", func() {
			mockRepo.advanceStatus[advanceID] = cashadvance.StatusPending

			_, err := record(100000)

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeInvalidState))
		})

		It("should reject payments against a rejected advance", func() {
			mockRepo.advanceStatus[advanceID] = cashadvance.StatusRejected

			_, err := record(100000)

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeInvalidState))
		})

		It("should allow the running total to reach the principal exactly", func() {
			_, err := record(3000000)
			Expect(err).ToNot(HaveOccurred())

			_, err = record(2000000)
			Expect(err).ToNot(HaveOccurred())

			total, err := service.TotalPaid(ctx, advanceID)
			Expect(err).ToNot(HaveOccurred())
			Expect(total).To(Equal(int64(5000000)))
		})

		It("should reject a payment that would exceed the principal", func() {
			_, err := record(4000000)
			Expect(err).ToNot(HaveOccurred())

			_, err = record(1500000)

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeBalance))
			Expect(appErr.Code).To(Equal(internal.ErrCodeBalanceExceeded))

			// the failed payment must not count toward the total
			total, err := service.TotalPaid(ctx, advanceID)
			Expect(err).ToNot(HaveOccurred())
			Expect(total).To(Equal(int64(4000000)))
		})
	})

	Describe("ListPaymentsByAdvance", func() {
		It("should return all recorded payments", func() {
			_, err := record(1000000)
			Expect(err).ToNot(HaveOccurred())
			_, err = record(500000)
			Expect(err).ToNot(HaveOccurred())

			payments, err := service.ListPaymentsByAdvance(ctx, advanceID)

			Expect(err).ToNot(HaveOccurred())
			Expect(payments).To(HaveLen(2))
		})
	})
})
