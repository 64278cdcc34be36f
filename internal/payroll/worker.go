package payroll

import (
	"context"
	"log/slog"
	"time"

	"github.com/frahmantamala/cash-advance-management/internal/cashadvance"
	"github.com/frahmantamala/cash-advance-management/internal/payment"
)

// AdvanceSource is the slice of the advance service the worker drives.
type AdvanceSource interface {
	ListAdvances(ctx context.Context, status string, limit, offset int) ([]*cashadvance.CashAdvance, error)
	MarkPaid(ctx context.Context, advanceID string, dto cashadvance.MarkPaidDTO) (*cashadvance.CashAdvance, error)
}

// PaymentRecorder records deductions and reports repayment totals.
type PaymentRecorder interface {
	RecordPayment(ctx context.Context, advanceID string, recordedBy *string, dto payment.RecordPaymentDTO) (*payment.Payment, error)
	TotalPaid(ctx context.Context, advanceID string) (int64, error)
}

// Worker applies monthly salary deductions to approved advances that carry
// an installment plan. Each tick it pages through APPROVED advances,
// records a SALARY_DEDUCTION payment capped at the remaining balance, and
// settles advances that reach zero.
type Worker struct {
	advances  AdvanceSource
	payments  PaymentRecorder
	interval  time.Duration
	batchSize int
	logger    *slog.Logger
}

func NewWorker(advances AdvanceSource, payments PaymentRecorder, interval time.Duration, batchSize int, logger *slog.Logger) *Worker {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &Worker{
		advances:  advances,
		payments:  payments,
		interval:  interval,
		batchSize: batchSize,
		logger:    logger,
	}
}

// Run blocks until ctx is cancelled, executing one deduction pass per
// interval.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("payroll deduction worker started",
		"interval", w.interval,
		"batch_size", w.batchSize)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("payroll deduction worker stopping")
			return ctx.Err()
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce executes a single deduction pass. The full APPROVED set is
// collected before any deduction runs: settling advances mid-pass shrinks
// the result set, and paging by offset over a shrinking set skips rows.
// Failures on individual advances are logged and skipped so one bad row
// cannot stall the batch.
func (w *Worker) RunOnce(ctx context.Context) {
	var pending []*cashadvance.CashAdvance
	offset := 0

	for {
		batch, err := w.advances.ListAdvances(ctx, cashadvance.StatusApproved, w.batchSize, offset)
		if err != nil {
			w.logger.Error("failed to list approved advances", "error", err)
			return
		}
		pending = append(pending, batch...)
		if len(batch) < w.batchSize {
			break
		}
		offset += w.batchSize
	}

	processed := 0
	for _, a := range pending {
		if a.MonthlyDeductionIDR == nil || *a.MonthlyDeductionIDR <= 0 {
			continue
		}
		if err := w.deduct(ctx, a); err != nil {
			w.logger.Error("deduction failed", "error", err, "advance_id", a.ID)
			continue
		}
		processed++
	}

	if processed > 0 {
		w.logger.Info("payroll deduction pass complete", "advances_processed", processed)
	}
}

func (w *Worker) deduct(ctx context.Context, a *cashadvance.CashAdvance) error {
	totalPaid, err := w.payments.TotalPaid(ctx, a.ID)
	if err != nil {
		return err
	}

	remaining := a.AmountIDR - totalPaid
	if remaining <= 0 {
		_, err := w.advances.MarkPaid(ctx, a.ID, cashadvance.MarkPaidDTO{})
		return err
	}

	amount := *a.MonthlyDeductionIDR
	if amount > remaining {
		amount = remaining
	}

	if _, err := w.payments.RecordPayment(ctx, a.ID, nil, payment.RecordPaymentDTO{
		AmountIDR:   amount,
		PaymentType: payment.TypeSalaryDeduction,
		Notes:       "monthly payroll deduction",
	}); err != nil {
		return err
	}

	w.logger.Info("salary deduction recorded",
		"advance_id", a.ID,
		"amount_idr", amount,
		"remaining_idr", remaining-amount)

	if remaining-amount == 0 {
		if _, err := w.advances.MarkPaid(ctx, a.ID, cashadvance.MarkPaidDTO{}); err != nil {
			return err
		}
		w.logger.Info("advance settled by payroll deduction", "advance_id", a.ID)
	}

	return nil
}
