package identity

import (
	"context"
	"errors"

	"github.com/perfume/backend/internal/application/event"
	"github.com/perfume/backend/internal/domain/identity"
	"github.com/perfume/backend/internal/domain/shared"
	"github.com/perfume/backend/internal/infrastructure/auth"
	"go.uber.org/zap"
)

// AuthService handles sign-up, sign-in and session operations
type AuthService struct {
	userRepo   identity.UserRepository
	jwtService *auth.JWTService
	revoked    auth.RevocationStore
	events     shared.EventPublisher
	logger     *zap.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(
	userRepo identity.UserRepository,
	jwtService *auth.JWTService,
	revoked auth.RevocationStore,
	events shared.EventPublisher,
	logger *zap.Logger,
) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		userRepo:   userRepo,
		jwtService: jwtService,
		revoked:    revoked,
		events:     events,
		logger:     logger,
	}
}

var (
	errInvalidCredentials = shared.NewDomainError("INVALID_CREDENTIALS", "Invalid email or password")
	errAccountDisabled    = shared.NewDomainError("ACCOUNT_DISABLED", "Account has been disabled")
)

// Register creates a customer account and signs it in
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	email := identity.NormalizeEmail(input.Email)
	exists, err := s.userRepo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "An account with this email already exists")
	}

	user, err := identity.NewUser(input.Name, email, input.Password)
	if err != nil {
		return nil, err
	}
	if input.Phone != "" {
		if err := user.UpdateProfile(user.Name, input.Phone); err != nil {
			return nil, err
		}
	}
	user.RecordLogin()
	if err := s.userRepo.Save(ctx, user); err != nil {
		return nil, err
	}
	event.PublishPending(ctx, s.events, s.logger, user)

	s.logger.Info("User registered", zap.String("user_id", user.ID.String()))
	return s.issue(user)
}

// Login authenticates a user and returns tokens
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	user, err := s.userRepo.FindByEmail(ctx, identity.NormalizeEmail(input.Email))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			// same answer as a wrong password so accounts cannot be probed
			return nil, errInvalidCredentials
		}
		return nil, err
	}
	if !user.VerifyPassword(input.Password) {
		s.logger.Warn("Invalid password attempt",
			zap.String("user_id", user.ID.String()),
			zap.String("ip", input.IP),
		)
		return nil, errInvalidCredentials
	}
	if !user.Active {
		return nil, errAccountDisabled
	}

	user.RecordLogin()
	if err := s.userRepo.Save(ctx, user); err != nil {
		// the login itself succeeded
		s.logger.Error("Failed to record login", zap.String("user_id", user.ID.String()), zap.Error(err))
	}

	s.logger.Info("User logged in", zap.String("user_id", user.ID.String()))
	return s.issue(user)
}

// Refresh exchanges a refresh token for a new pair. The user is reloaded
// so role changes and deactivation take effect.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, tokenError(err)
	}
	if err := s.checkRevoked(ctx, claims); err != nil {
		return nil, err
	}
	userID, err := claims.GetUserUUID()
	if err != nil {
		return nil, tokenError(auth.ErrInvalidClaims)
	}
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, tokenError(auth.ErrInvalidToken)
		}
		return nil, err
	}
	if !user.Active {
		return nil, errAccountDisabled
	}

	pair, err := s.jwtService.RefreshTokenPair(refreshToken, subject(user))
	if err != nil {
		return nil, tokenError(err)
	}
	// single use: the old refresh token dies with the exchange
	if err := s.revoked.RevokeToken(ctx, claims.ID, claims.GetRemainingTTL()); err != nil {
		s.logger.Error("Failed to revoke used refresh token", zap.Error(err))
	}
	return &AuthResult{Tokens: pair, User: ToUserDTO(user)}, nil
}

// Logout revokes the access token and, when given, the refresh token
func (s *AuthService) Logout(ctx context.Context, input LogoutInput) error {
	if input.AccessClaims != nil {
		if err := s.revoked.RevokeToken(ctx, input.AccessClaims.ID, input.AccessClaims.GetRemainingTTL()); err != nil {
			return err
		}
	}
	if input.RefreshToken != "" {
		claims, err := s.jwtService.ValidateRefreshToken(input.RefreshToken)
		if err != nil {
			// an expired or foreign refresh token needs no revocation
			s.logger.Debug("Ignoring invalid refresh token on logout", zap.Error(err))
			return nil
		}
		if input.AccessClaims != nil && claims.UserID != input.AccessClaims.UserID {
			return shared.NewDomainError("FORBIDDEN", "Refresh token belongs to another user")
		}
		if err := s.revoked.RevokeToken(ctx, claims.ID, claims.GetRemainingTTL()); err != nil {
			return err
		}
	}
	return nil
}

// ValidateAccessToken parses the token and rejects revoked tokens
func (s *AuthService) ValidateAccessToken(ctx context.Context, token string) (*auth.Claims, error) {
	claims, err := s.jwtService.ValidateAccessToken(token)
	if err != nil {
		return nil, tokenError(err)
	}
	if err := s.checkRevoked(ctx, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

func (s *AuthService) checkRevoked(ctx context.Context, claims *auth.Claims) error {
	revoked, err := s.revoked.Revoked(ctx, claims.ID, claims.UserID, claims.GetIssuedAtTime())
	if err != nil {
		return err
	}
	if revoked {
		return tokenError(auth.ErrTokenRevoked)
	}
	return nil
}

func (s *AuthService) issue(user *identity.User) (*AuthResult, error) {
	pair, err := s.jwtService.GenerateTokenPair(subject(user))
	if err != nil {
		s.logger.Error("Failed to generate token pair", zap.Error(err))
		return nil, err
	}
	return &AuthResult{Tokens: pair, User: ToUserDTO(user)}, nil
}

func subject(u *identity.User) auth.Subject {
	return auth.Subject{UserID: u.ID, Email: u.Email, Role: string(u.Role)}
}

// tokenError maps token validation failures to UNAUTHORIZED domain errors
func tokenError(err error) error {
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return shared.WrapDomainError("TOKEN_EXPIRED", "Token has expired", err)
	case errors.Is(err, auth.ErrMaxRefreshExceeded):
		return shared.WrapDomainError("TOKEN_MAX_REFRESH", "Session is too old, please log in again", err)
	case errors.Is(err, auth.ErrTokenRevoked):
		return shared.WrapDomainError("TOKEN_REVOKED", "Token has been revoked", err)
	default:
		return shared.WrapDomainError("TOKEN_INVALID", "Invalid token", err)
	}
}
