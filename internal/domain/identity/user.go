package identity

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/perfume/backend/internal/domain/shared"
	"golang.org/x/crypto/bcrypt"
)

// Role is the authorization level of a user
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleCustomer Role = "customer"
)

// IsValid reports whether r is a known role
func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RoleCustomer
}

// PasswordCost is the bcrypt cost used for new hashes
var PasswordCost = 12

var (
	emailRegex  = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	letterRegex = regexp.MustCompile(`[a-zA-Z]`)
	digitRegex  = regexp.MustCompile(`[0-9]`)
)

// User is a customer or administrator account
type User struct {
	shared.BaseAggregateRoot
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	Phone        string
	Active       bool
	LastLoginAt  *time.Time
}

// NewUser creates an active customer with a hashed password
func NewUser(name, email, password string) (*User, error) {
	name = strings.TrimSpace(name)
	email = NormalizeEmail(email)
	if err := validateName(name); err != nil {
		return nil, err
	}
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := ValidatePassword(password); err != nil {
		return nil, err
	}
	hash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}

	u := &User{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Email:             email,
		PasswordHash:      hash,
		Role:              RoleCustomer,
		Active:            true,
	}
	u.AddDomainEvent(NewUserRegisteredEvent(u))
	return u, nil
}

// NormalizeEmail lowercases and trims an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// UpdateProfile replaces name and phone
func (u *User) UpdateProfile(name, phone string) error {
	name = strings.TrimSpace(name)
	if err := validateName(name); err != nil {
		return err
	}
	phone = strings.TrimSpace(phone)
	if len(phone) > 30 {
		return shared.NewDomainError("INVALID_PHONE", "Phone cannot exceed 30 characters")
	}
	u.Name = name
	u.Phone = phone
	u.IncrementVersion()
	return nil
}

// ChangePassword verifies the current password before setting a new one
func (u *User) ChangePassword(oldPassword, newPassword string) error {
	if !u.VerifyPassword(oldPassword) {
		return shared.NewDomainError("INVALID_PASSWORD", "Current password is incorrect")
	}
	if oldPassword == newPassword {
		return shared.NewDomainError("INVALID_PASSWORD", "New password must differ from the current one")
	}
	return u.SetPassword(newPassword)
}

// SetPassword replaces the password without verifying the old one
func (u *User) SetPassword(password string) error {
	if err := ValidatePassword(password); err != nil {
		return err
	}
	hash, err := hashPassword(password)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	u.IncrementVersion()
	u.AddDomainEvent(NewUserPasswordChangedEvent(u))
	return nil
}

// VerifyPassword compares password with the stored hash
func (u *User) VerifyPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// SetRole changes the role
func (u *User) SetRole(role Role) error {
	if !role.IsValid() {
		return shared.NewDomainError("INVALID_ROLE", fmt.Sprintf("Unknown role %q", role))
	}
	if u.Role == role {
		return nil
	}
	u.Role = role
	u.IncrementVersion()
	return nil
}

// SetActive enables or disables the account
func (u *User) SetActive(active bool) {
	if u.Active == active {
		return
	}
	u.Active = active
	u.IncrementVersion()
}

// RecordLogin stamps the last login time
func (u *User) RecordLogin() {
	now := time.Now().UTC()
	u.LastLoginAt = &now
	u.IncrementVersion()
}

// IsAdmin reports whether the user is an administrator
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func validateName(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Name cannot be empty")
	}
	if len([]rune(name)) > 100 {
		return shared.NewDomainError("INVALID_NAME", "Name cannot exceed 100 characters")
	}
	return nil
}

// ValidateEmail checks the email format
func ValidateEmail(email string) error {
	if len(email) > 200 {
		return shared.NewDomainError("INVALID_EMAIL", "Email cannot exceed 200 characters")
	}
	if !emailRegex.MatchString(email) {
		return shared.NewDomainError("INVALID_EMAIL", "Invalid email format")
	}
	return nil
}

// ValidatePassword enforces the password policy
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return shared.NewDomainError("INVALID_PASSWORD", "Password must be at least 8 characters")
	}
	// bcrypt ignores input past 72 bytes
	if len(password) > 72 {
		return shared.NewDomainError("INVALID_PASSWORD", "Password cannot exceed 72 characters")
	}
	if !letterRegex.MatchString(password) || !digitRegex.MatchString(password) {
		return shared.NewDomainError("INVALID_PASSWORD", "Password must contain at least one letter and one number")
	}
	return nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), PasswordCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}
