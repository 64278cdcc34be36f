package postgres

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/frahmantamala/cash-advance-management/internal/cashadvance"
	"github.com/frahmantamala/cash-advance-management/internal/payment"
)

// PaymentRepository implements the payment.Repository interface using GORM.
type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) payment.Repository {
	return &PaymentRepository{db: db}
}

// RecordForAdvance locks the advance row, recomputes the repayment total,
// runs check against that state and inserts the payment, all in one
// transaction. Concurrent inserts against the same advance serialize on
// the row lock, so the total can never silently exceed the principal.
func (r *PaymentRepository) RecordForAdvance(ctx context.Context, p *payment.Payment, check func(state payment.AdvanceState) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var a cashadvance.CashAdvance
		if err := lockRow(tx).Where("id = ?", p.CashAdvanceID).First(&a).Error; err != nil {
			return err
		}

		var totalPaid int64
		if err := tx.Model(&payment.Payment{}).
			Where("cash_advance_id = ?", p.CashAdvanceID).
			Select("COALESCE(SUM(amount_idr), 0)").
			Scan(&totalPaid).Error; err != nil {
			return err
		}

		if err := check(payment.AdvanceState{
			Status:       a.Status,
			AmountIDR:    a.AmountIDR,
			TotalPaidIDR: totalPaid,
		}); err != nil {
			return err
		}

		return tx.Create(p).Error
	})
}

func (r *PaymentRepository) GetByID(ctx context.Context, id string) (*payment.Payment, error) {
	var p payment.Payment
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PaymentRepository) ListByAdvance(ctx context.Context, advanceID string) ([]*payment.Payment, error) {
	var payments []*payment.Payment
	err := r.db.WithContext(ctx).
		Where("cash_advance_id = ?", advanceID).
		Order("payment_date ASC, created_at ASC").
		Find(&payments).Error
	return payments, err
}

func (r *PaymentRepository) TotalPaid(ctx context.Context, advanceID string) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&payment.Payment{}).
		Where("cash_advance_id = ?", advanceID).
		Select("COALESCE(SUM(amount_idr), 0)").
		Scan(&total).Error
	return total, err
}

func lockRow(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}
