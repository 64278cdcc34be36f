package employee

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Employee is a personnel record, optionally linked to a user account and
// to a supervisor. The supervisor reference forms a directed graph that the
// service keeps acyclic; the schema alone does not guarantee it.
type Employee struct {
	ID            string     `json:"id" gorm:"type:uuid;primaryKey"`
	UserID        *string    `json:"user_id,omitempty" gorm:"column:user_id;type:uuid"`
	FirstName     string     `json:"first_name" gorm:"column:first_name;not null"`
	LastName      string     `json:"last_name" gorm:"column:last_name;not null"`
	Department    string     `json:"department" gorm:"column:department"`
	Position      string     `json:"position" gorm:"column:position"`
	HireDate      time.Time  `json:"hire_date" gorm:"column:hire_date;type:date"`
	ContactNumber string     `json:"contact_number" gorm:"column:contact_number"`
	SalaryIDR     int64      `json:"salary_idr" gorm:"column:salary_idr;not null"`
	SupervisorID  *string    `json:"supervisor_id,omitempty" gorm:"column:supervisor_id;type:uuid;index"`
	CreatedAt     time.Time  `json:"created_at" gorm:"column:created_at"`
	UpdatedAt     time.Time  `json:"updated_at" gorm:"column:updated_at"`
}

func (Employee) TableName() string {
	return "employees"
}

func (e *Employee) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	e.UpdatedAt = now
	return nil
}

func (e *Employee) AuditEntityType() string {
	return "employees"
}

func (e *Employee) AuditEntityID() string {
	return e.ID
}

func (e *Employee) DisplayName() string {
	return e.FirstName + " " + e.LastName
}
