package user

import (
	"strings"

	"github.com/frahmantamala/cash-advance-management/internal"
)

type CreateUserDTO struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	Role        string `json:"role"`
	AccessLevel int    `json:"access_level"`
}

func (dto CreateUserDTO) Validate() error {
	if strings.TrimSpace(dto.Username) == "" {
		return internal.NewValidationError("username is required", internal.ErrCodeValidationFailed)
	}
	if !strings.Contains(dto.Email, "@") {
		return internal.NewValidationError("email is invalid", internal.ErrCodeValidationFailed)
	}
	if len(dto.Password) < 8 {
		return internal.NewValidationError("password must be at least 8 characters", internal.ErrCodeValidationFailed)
	}
	if !ValidRole(dto.Role) {
		return internal.NewValidationError("role must be one of ADMIN, SUPERVISOR, EMPLOYEE", internal.ErrCodeInvalidRole)
	}
	if dto.AccessLevel < 0 {
		return internal.NewValidationError("access level cannot be negative", internal.ErrCodeValidationFailed)
	}
	return nil
}
