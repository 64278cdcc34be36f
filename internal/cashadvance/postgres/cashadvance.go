package postgres

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/frahmantamala/cash-advance-management/internal/cashadvance"
)

// CashAdvanceRepository implements the cashadvance.Repository interface
// using GORM.
type CashAdvanceRepository struct {
	db *gorm.DB
}

func NewCashAdvanceRepository(db *gorm.DB) cashadvance.Repository {
	return &CashAdvanceRepository{db: db}
}

func (r *CashAdvanceRepository) Create(ctx context.Context, a *cashadvance.CashAdvance) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *CashAdvanceRepository) GetByID(ctx context.Context, id string) (*cashadvance.CashAdvance, error) {
	var a cashadvance.CashAdvance
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *CashAdvanceRepository) List(ctx context.Context, limit, offset int) ([]*cashadvance.CashAdvance, error) {
	var advances []*cashadvance.CashAdvance
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&advances).Error
	return advances, err
}

func (r *CashAdvanceRepository) ListByEmployee(ctx context.Context, employeeID string, limit, offset int) ([]*cashadvance.CashAdvance, error) {
	var advances []*cashadvance.CashAdvance
	err := r.db.WithContext(ctx).
		Where("employee_id = ?", employeeID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&advances).Error
	return advances, err
}

func (r *CashAdvanceRepository) ListByStatus(ctx context.Context, status string, limit, offset int) ([]*cashadvance.CashAdvance, error) {
	var advances []*cashadvance.CashAdvance
	err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&advances).Error
	return advances, err
}

// Transition loads the advance under a row lock, computes the repayment
// total inside the same transaction, applies fn and saves. A failing fn or
// a failing audit insert rolls the whole transaction back.
func (r *CashAdvanceRepository) Transition(ctx context.Context, id string, fn func(a *cashadvance.CashAdvance, totalPaidIDR int64) error) (*cashadvance.CashAdvance, error) {
	var a cashadvance.CashAdvance
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockRow(tx).Where("id = ?", id).First(&a).Error; err != nil {
			return err
		}

		var totalPaid int64
		if err := tx.Table("payments").
			Where("cash_advance_id = ?", id).
			Select("COALESCE(SUM(amount_idr), 0)").
			Scan(&totalPaid).Error; err != nil {
			return err
		}

		if err := fn(&a, totalPaid); err != nil {
			return err
		}
		return tx.Save(&a).Error
	})
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *CashAdvanceRepository) Summary(ctx context.Context, id string) (*cashadvance.Summary, error) {
	var summary cashadvance.Summary
	err := r.db.WithContext(ctx).
		Where("advance_id = ?", id).
		Take(&summary).Error
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

func (r *CashAdvanceRepository) ListSummaries(ctx context.Context, limit, offset int) ([]*cashadvance.Summary, error) {
	var summaries []*cashadvance.Summary
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&summaries).Error
	return summaries, err
}

// lockRow adds FOR UPDATE on dialects that support it. SQLite serializes
// writers on its own, so the clause is skipped there.
func lockRow(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}
