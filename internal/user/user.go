package user

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleAdmin      = "ADMIN"
	RoleSupervisor = "SUPERVISOR"
	RoleEmployee   = "EMPLOYEE"
)

// User is an account in the directory. Accounts are never hard-deleted;
// IsActive flips to false instead.
type User struct {
	ID           string     `json:"id" gorm:"type:uuid;primaryKey"`
	Username     string     `json:"username" gorm:"column:username;uniqueIndex;not null"`
	Email        string     `json:"email" gorm:"column:email;uniqueIndex;not null"`
	PasswordHash string     `json:"-" gorm:"column:password_hash;not null"`
	Role         string     `json:"role" gorm:"column:role;not null;default:EMPLOYEE"`
	AccessLevel  int        `json:"access_level" gorm:"column:access_level;default:1"`
	IsActive     bool       `json:"is_active" gorm:"column:is_active;default:true"`
	CreatedAt    time.Time  `json:"created_at" gorm:"column:created_at"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty" gorm:"column:last_login_at"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	return nil
}

func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleSupervisor, RoleEmployee:
		return true
	}
	return false
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// CanApprove reports whether the account may decide on cash advance
// requests.
func (u *User) CanApprove() bool {
	return u.Role == RoleAdmin || u.Role == RoleSupervisor
}
