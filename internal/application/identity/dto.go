package identity

import (
	"time"

	"github.com/google/uuid"
	"github.com/perfume/backend/internal/domain/identity"
	"github.com/perfume/backend/internal/infrastructure/auth"
)

// RegisterInput contains the input for customer sign-up
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Phone    string
}

// LoginInput contains the input for user login
type LoginInput struct {
	Email    string
	Password string
	IP       string
}

// AuthResult is returned by register, login and refresh
type AuthResult struct {
	Tokens *auth.TokenPair `json:"tokens"`
	User   UserDTO         `json:"user"`
}

// LogoutInput carries the tokens to revoke. RefreshToken is optional.
type LogoutInput struct {
	AccessClaims *auth.Claims
	RefreshToken string
}

// UpdateProfileInput replaces the editable profile fields
type UpdateProfileInput struct {
	Name  string
	Phone string
}

// ChangePasswordInput contains the current and the new password
type ChangePasswordInput struct {
	OldPassword string
	NewPassword string
}

// UserDTO is the public view of an account
type UserDTO struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	Role        string     `json:"role"`
	Phone       string     `json:"phone,omitempty"`
	Active      bool       `json:"active"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	Version     int        `json:"version"`
}

// ToUserDTO converts a domain user
func ToUserDTO(u *identity.User) UserDTO {
	return UserDTO{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		Role:        string(u.Role),
		Phone:       u.Phone,
		Active:      u.Active,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
		Version:     u.GetVersion(),
	}
}

// ListUsersInput filters the admin user listing
type ListUsersInput struct {
	Page     int
	PageSize int
	Search   string
	Role     string
	Active   *bool
	OrderBy  string
	OrderDir string
}
