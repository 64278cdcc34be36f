package employee

import (
	"strings"
	"time"

	"github.com/frahmantamala/cash-advance-management/internal"
)

type CreateEmployeeDTO struct {
	UserID        *string   `json:"user_id,omitempty"`
	FirstName     string    `json:"first_name"`
	LastName      string    `json:"last_name"`
	Department    string    `json:"department"`
	Position      string    `json:"position"`
	HireDate      time.Time `json:"hire_date"`
	ContactNumber string    `json:"contact_number"`
	SalaryIDR     int64     `json:"salary_idr"`
	SupervisorID  *string   `json:"supervisor_id,omitempty"`
}

func (dto CreateEmployeeDTO) Validate() error {
	if strings.TrimSpace(dto.FirstName) == "" {
		return internal.NewValidationError("first name is required", internal.ErrCodeValidationFailed)
	}
	if strings.TrimSpace(dto.LastName) == "" {
		return internal.NewValidationError("last name is required", internal.ErrCodeValidationFailed)
	}
	if dto.SalaryIDR <= 0 {
		return internal.NewValidationError("salary must be greater than 0", internal.ErrCodeInvalidAmount)
	}
	if dto.HireDate.IsZero() {
		return internal.NewValidationError("hire date is required", internal.ErrCodeValidationFailed)
	}
	return nil
}

type UpdateEmployeeDTO struct {
	Department      *string `json:"department,omitempty"`
	Position        *string `json:"position,omitempty"`
	ContactNumber   *string `json:"contact_number,omitempty"`
	SalaryIDR       *int64  `json:"salary_idr,omitempty"`
	SupervisorID    *string `json:"supervisor_id,omitempty"`
	ClearSupervisor bool    `json:"clear_supervisor,omitempty"`
}

func (dto UpdateEmployeeDTO) Validate() error {
	if dto.SalaryIDR != nil && *dto.SalaryIDR <= 0 {
		return internal.NewValidationError("salary must be greater than 0", internal.ErrCodeInvalidAmount)
	}
	if dto.SupervisorID != nil && dto.ClearSupervisor {
		return internal.NewValidationError("cannot both set and clear supervisor", internal.ErrCodeValidationFailed)
	}
	return nil
}
