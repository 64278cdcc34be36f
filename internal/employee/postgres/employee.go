package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/frahmantamala/cash-advance-management/internal/employee"
)

// EmployeeRepository implements the employee.Repository interface using GORM
type EmployeeRepository struct {
	db *gorm.DB
}

func NewEmployeeRepository(db *gorm.DB) employee.Repository {
	return &EmployeeRepository{db: db}
}

func (r *EmployeeRepository) Create(ctx context.Context, e *employee.Employee) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *EmployeeRepository) GetByID(ctx context.Context, id string) (*employee.Employee, error) {
	var e employee.Employee
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&e).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *EmployeeRepository) List(ctx context.Context, limit, offset int) ([]*employee.Employee, error) {
	var employees []*employee.Employee
	err := r.db.WithContext(ctx).
		Order("last_name ASC, first_name ASC").
		Limit(limit).
		Offset(offset).
		Find(&employees).Error
	return employees, err
}

func (r *EmployeeRepository) Save(ctx context.Context, e *employee.Employee) error {
	return r.db.WithContext(ctx).Save(e).Error
}

// Delete clears the supervisor reference on every direct report, then
// removes the employee, all in one transaction. Clearing row by row keeps
// the audit trail complete for the reports as well; the schema's ON DELETE
// SET NULL remains as a backstop for out-of-band deletes.
func (r *EmployeeRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var reports []*employee.Employee
		if err := tx.Where("supervisor_id = ?", id).Find(&reports).Error; err != nil {
			return err
		}

		for _, report := range reports {
			report.SupervisorID = nil
			if err := tx.Save(report).Error; err != nil {
				return err
			}
		}

		var e employee.Employee
		if err := tx.Where("id = ?", id).First(&e).Error; err != nil {
			return err
		}
		return tx.Delete(&e).Error
	})
}

func (r *EmployeeRepository) DirectReports(ctx context.Context, supervisorID string) ([]*employee.Employee, error) {
	var reports []*employee.Employee
	err := r.db.WithContext(ctx).
		Where("supervisor_id = ?", supervisorID).
		Order("last_name ASC, first_name ASC").
		Find(&reports).Error
	return reports, err
}
