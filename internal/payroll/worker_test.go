package payroll_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/google/uuid"

	"github.com/frahmantamala/cash-advance-management/internal/cashadvance"
	"github.com/frahmantamala/cash-advance-management/internal/payment"
	"github.com/frahmantamala/cash-advance-management/internal/payroll"
)

func TestPayrollWorker(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "PayrollWorker Suite")
}

type mockAdvanceSource struct {
	advances map[string]*cashadvance.CashAdvance
	order    []string
}

func (m *mockAdvanceSource) add(a *cashadvance.CashAdvance) {
	m.advances[a.ID] = a
	m.order = append(m.order, a.ID)
}

func (m *mockAdvanceSource) ListAdvances(_ context.Context, status string, limit, offset int) ([]*cashadvance.CashAdvance, error) {
	var matching []*cashadvance.CashAdvance
	for _, id := range m.order {
		if a := m.advances[id]; a.Status == status {
			matching = append(matching, a)
		}
	}
	if offset >= len(matching) {
		return nil, nil
	}
	matching = matching[offset:]
	if len(matching) > limit {
		matching = matching[:limit]
	}
	return matching, nil
}

func (m *mockAdvanceSource) MarkPaid(_ context.Context, advanceID string, _ cashadvance.MarkPaidDTO) (*cashadvance.CashAdvance, error) {
	a, exists := m.advances[advanceID]
	if !exists {
		return nil, errors.New("advance not found")
	}
	a.Status = cashadvance.StatusPaid
	return a, nil
}

type mockPaymentRecorder struct {
	recorded map[string][]int64
}

func (m *mockPaymentRecorder) RecordPayment(_ context.Context, advanceID string, _ *string, dto payment.RecordPaymentDTO) (*payment.Payment, error) {
	m.recorded[advanceID] = append(m.recorded[advanceID], dto.AmountIDR)
	return &payment.Payment{
		ID:            uuid.NewString(),
		CashAdvanceID: advanceID,
		AmountIDR:     dto.AmountIDR,
		PaymentType:   dto.PaymentType,
	}, nil
}

func (m *mockPaymentRecorder) TotalPaid(_ context.Context, advanceID string) (int64, error) {
	var total int64
	for _, amount := range m.recorded[advanceID] {
		total += amount
	}
	return total, nil
}

var _ = Describe("PayrollWorker", func() {
	var (
		worker   *payroll.Worker
		advances *mockAdvanceSource
		payments *mockPaymentRecorder
		ctx      context.Context
	)

	addAdvance := func(amount int64, deduction *int64) *cashadvance.CashAdvance {
		a := &cashadvance.CashAdvance{
			ID:                  uuid.NewString(),
			EmployeeID:          uuid.NewString(),
			AmountIDR:           amount,
			Status:              cashadvance.StatusApproved,
			MonthlyDeductionIDR: deduction,
		}
		advances.add(a)
		return a
	}

	BeforeEach(func() {
		advances = &mockAdvanceSource{advances: make(map[string]*cashadvance.CashAdvance)}
		payments = &mockPaymentRecorder{recorded: make(map[string][]int64)}
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		worker = payroll.NewWorker(advances, payments, 0, 100, logger)
		ctx = context.Background()
	})

	It("should record the monthly deduction for a planned advance", func() {
		deduction := int64(1000000)
		a := addAdvance(5000000, &deduction)

		worker.RunOnce(ctx)

		Expect(payments.recorded[a.ID]).To(Equal([]int64{1000000}))
		Expect(a.Status).To(Equal(cashadvance.StatusApproved))
	})

	It("should skip advances without a deduction plan", func() {
		a := addAdvance(5000000, nil)

		worker.RunOnce(ctx)

		Expect(payments.recorded[a.ID]).To(BeEmpty())
	})

	It("should cap the deduction at the remaining balance", func() {
		deduction := int64(2000000)
		a := addAdvance(5000000, &deduction)
		payments.recorded[a.ID] = []int64{4000000}

		worker.RunOnce(ctx)

		Expect(payments.recorded[a.ID]).To(Equal([]int64{4000000, 1000000}))
	})

	It("should settle the advance when the deduction clears the balance", func() {
		deduction := int64(1000000)
		a := addAdvance(3000000, &deduction)
		payments.recorded[a.ID] = []int64{2000000}

		worker.RunOnce(ctx)

		Expect(payments.recorded[a.ID]).To(Equal([]int64{2000000, 1000000}))
		Expect(a.Status).To(Equal(cashadvance.StatusPaid))
	})

	It("should settle an already cleared advance without a new payment", func() {
		deduction := int64(1000000)
		a := addAdvance(2000000, &deduction)
		payments.recorded[a.ID] = []int64{2000000}

		worker.RunOnce(ctx)

		Expect(payments.recorded[a.ID]).To(Equal([]int64{2000000}))
		Expect(a.Status).To(Equal(cashadvance.StatusPaid))
	})

	It("should process every advance in one pass even as settlements shrink the approved set", func() {
		deduction := int64(1000000)
		first := addAdvance(1000000, &deduction)
		second := addAdvance(1000000, &deduction)
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		small := payroll.NewWorker(advances, payments, 0, 1, logger)

		small.RunOnce(ctx)

		Expect(first.Status).To(Equal(cashadvance.StatusPaid))
		Expect(second.Status).To(Equal(cashadvance.StatusPaid))
		Expect(payments.recorded[first.ID]).To(Equal([]int64{1000000}))
		Expect(payments.recorded[second.ID]).To(Equal([]int64{1000000}))
	})

	It("should drain the full backlog over successive passes", func() {
		deduction := int64(1500000)
		a := addAdvance(3000000, &deduction)

		worker.RunOnce(ctx)
		worker.RunOnce(ctx)

		Expect(payments.recorded[a.ID]).To(Equal([]int64{1500000, 1500000}))
		Expect(a.Status).To(Equal(cashadvance.StatusPaid))
	})
})
