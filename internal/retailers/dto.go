package retailers

import (
	"time"

	"github.com/google/uuid"

	"github.com/voltaria/voltaria-backend/pkg/db/models"
	"github.com/voltaria/voltaria-backend/pkg/enums"
)

// RetailerDTO is the API representation of a retailer account. The password
// hash never leaves the service layer.
type RetailerDTO struct {
	ID          uuid.UUID      `json:"id"`
	Email       string         `json:"email"`
	FirstName   string         `json:"first_name"`
	LastName    string         `json:"last_name"`
	Phone       *string        `json:"phone,omitempty"`
	Role        enums.UserRole `json:"role"`
	CompanyName *string        `json:"company_name,omitempty"`
	IsActive    bool           `json:"is_active"`
	LastLoginAt *time.Time     `json:"last_login_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`

	// TempPassword is set only on creation when no password was supplied.
	TempPassword string `json:"temp_password,omitempty"`
}

func toRetailerDTO(user *models.User) *RetailerDTO {
	if user == nil {
		return nil
	}
	return &RetailerDTO{
		ID:          user.ID,
		Email:       user.Email,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		Phone:       user.Phone,
		Role:        user.Role,
		CompanyName: user.CompanyName,
		IsActive:    user.IsActive,
		LastLoginAt: user.LastLoginAt,
		CreatedAt:   user.CreatedAt,
		UpdatedAt:   user.UpdatedAt,
	}
}

// CreateRetailerInput holds the validated payload to open a retailer account.
// When Password is empty a temporary password is generated and returned once.
type CreateRetailerInput struct {
	Email       string
	Password    string
	FirstName   string
	LastName    string
	Phone       *string
	CompanyName *string
}

// UpdateRetailerInput mutates account fields. Nil fields are left untouched.
type UpdateRetailerInput struct {
	Email       *string
	Password    *string
	FirstName   *string
	LastName    *string
	Phone       *string
	CompanyName *string
	IsActive    *bool
}

// RetailerListResult is a cursor page of retailer accounts.
type RetailerListResult struct {
	Retailers  []RetailerDTO `json:"retailers"`
	NextCursor string        `json:"next_cursor,omitempty"`
}
