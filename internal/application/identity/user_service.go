package identity

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/perfume/backend/internal/application/event"
	"github.com/perfume/backend/internal/domain/identity"
	"github.com/perfume/backend/internal/domain/shared"
	"github.com/perfume/backend/internal/infrastructure/auth"
	"go.uber.org/zap"
)

// UserService manages profiles and, for admins, accounts
type UserService struct {
	userRepo   identity.UserRepository
	jwtService *auth.JWTService
	revoked    auth.RevocationStore
	events     shared.EventPublisher
	logger     *zap.Logger
}

// NewUserService creates a new UserService
func NewUserService(
	userRepo identity.UserRepository,
	jwtService *auth.JWTService,
	revoked auth.RevocationStore,
	events shared.EventPublisher,
	logger *zap.Logger,
) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{
		userRepo:   userRepo,
		jwtService: jwtService,
		revoked:    revoked,
		events:     events,
		logger:     logger,
	}
}

// Me returns the account of the caller
func (s *UserService) Me(ctx context.Context, userID uuid.UUID) (*UserDTO, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	dto := ToUserDTO(user)
	return &dto, nil
}

// UpdateProfile changes the caller's name and phone
func (s *UserService) UpdateProfile(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*UserDTO, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := user.UpdateProfile(input.Name, input.Phone); err != nil {
		return nil, err
	}
	if err := s.userRepo.Save(ctx, user); err != nil {
		return nil, err
	}
	dto := ToUserDTO(user)
	return &dto, nil
}

// ChangePassword replaces the caller's password, ends every other session
// and returns a fresh token pair
func (s *UserService) ChangePassword(ctx context.Context, userID uuid.UUID, input ChangePasswordInput) (*AuthResult, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := user.ChangePassword(input.OldPassword, input.NewPassword); err != nil {
		return nil, err
	}
	if err := s.userRepo.Save(ctx, user); err != nil {
		return nil, err
	}
	event.PublishPending(ctx, s.events, s.logger, user)

	if err := s.revoked.RevokeUser(ctx, user.ID.String(), s.jwtService.GetRefreshTokenExpiration()); err != nil {
		s.logger.Error("Failed to revoke sessions after password change",
			zap.String("user_id", user.ID.String()),
			zap.Error(err),
		)
	}
	pair, err := s.jwtService.GenerateTokenPair(subject(user))
	if err != nil {
		return nil, err
	}
	s.logger.Info("Password changed", zap.String("user_id", user.ID.String()))
	return &AuthResult{Tokens: pair, User: ToUserDTO(user)}, nil
}

// List returns a page of accounts for the admin
func (s *UserService) List(ctx context.Context, input ListUsersInput) (*shared.Paginated[UserDTO], error) {
	filter := identity.UserFilter{
		Filter: shared.Filter{
			Page:     input.Page,
			PageSize: input.PageSize,
			Search:   strings.TrimSpace(input.Search),
			OrderBy:  input.OrderBy,
			OrderDir: input.OrderDir,
		}.Normalize(),
		Active: input.Active,
	}
	if input.Role != "" {
		role := identity.Role(input.Role)
		if !role.IsValid() {
			return nil, shared.NewDomainError("INVALID_ROLE", "Unknown role "+input.Role)
		}
		filter.Role = role
	}
	users, total, err := s.userRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]UserDTO, 0, len(users))
	for i := range users {
		items = append(items, ToUserDTO(&users[i]))
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &page, nil
}

// SetActive enables or disables an account. Disabling ends its sessions.
func (s *UserService) SetActive(ctx context.Context, actorID, userID uuid.UUID, active bool) (*UserDTO, error) {
	if actorID == userID && !active {
		return nil, shared.NewDomainError("INVALID_OPERATION", "You cannot deactivate your own account")
	}
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.SetActive(active)
	if err := s.userRepo.Save(ctx, user); err != nil {
		return nil, err
	}
	if !active {
		if err := s.revoked.RevokeUser(ctx, user.ID.String(), s.jwtService.GetRefreshTokenExpiration()); err != nil {
			s.logger.Error("Failed to revoke sessions of disabled user", zap.String("user_id", user.ID.String()), zap.Error(err))
		}
	}
	s.logger.Info("User activation changed",
		zap.String("actor_id", actorID.String()),
		zap.String("user_id", userID.String()),
		zap.Bool("active", active),
	)
	dto := ToUserDTO(user)
	return &dto, nil
}

// SetRole changes the role of an account
func (s *UserService) SetRole(ctx context.Context, actorID, userID uuid.UUID, role string) (*UserDTO, error) {
	r := identity.Role(role)
	if actorID == userID && r != identity.RoleAdmin {
		return nil, shared.NewDomainError("INVALID_OPERATION", "You cannot remove your own admin role")
	}
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := user.SetRole(r); err != nil {
		return nil, err
	}
	if err := s.userRepo.Save(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info("User role changed",
		zap.String("actor_id", actorID.String()),
		zap.String("user_id", userID.String()),
		zap.String("role", role),
	)
	dto := ToUserDTO(user)
	return &dto, nil
}

// SeedAdmin creates an active admin, or promotes and re-activates an existing
// account with that email and resets its password. The bool reports whether
// a new account was created.
func (s *UserService) SeedAdmin(ctx context.Context, name, email, password string) (*UserDTO, bool, error) {
	if strings.TrimSpace(name) == "" {
		name = "Administrator"
	}
	user, err := s.userRepo.FindByEmail(ctx, identity.NormalizeEmail(email))
	created := false
	switch {
	case errors.Is(err, shared.ErrNotFound):
		user, err = identity.NewUser(name, email, password)
		if err != nil {
			return nil, false, err
		}
		created = true
	case err != nil:
		return nil, false, err
	default:
		if err := user.SetPassword(password); err != nil {
			return nil, false, err
		}
	}
	if err := user.SetRole(identity.RoleAdmin); err != nil {
		return nil, false, err
	}
	user.SetActive(true)
	if err := s.userRepo.Save(ctx, user); err != nil {
		return nil, false, err
	}
	user.ClearDomainEvents()
	dto := ToUserDTO(user)
	return &dto, created, nil
}
