// Package auth issues and verifies the HS256 token pairs that authenticate
// API calls, and tracks tokens revoked before they expire.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/perfume/backend/internal/infrastructure/config"
)

// TokenType tells access tokens from refresh tokens
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

var (
	ErrInvalidToken       = errors.New("invalid token")
	ErrExpiredToken       = errors.New("token has expired")
	ErrInvalidTokenType   = errors.New("invalid token type")
	ErrInvalidClaims      = errors.New("invalid token claims")
	ErrTokenNotYetValid   = errors.New("token is not yet valid")
	ErrMissingUserID      = errors.New("missing user_id in claims")
	ErrMaxRefreshExceeded = errors.New("maximum refresh count exceeded")
	ErrTokenRevoked       = errors.New("token has been revoked")
)

// Claims are the claims carried by both token kinds. Refresh tokens carry no
// email or role.
type Claims struct {
	jwt.RegisteredClaims
	UserID       string    `json:"user_id"`
	Email        string    `json:"email,omitempty"`
	Role         string    `json:"role,omitempty"`
	TokenType    TokenType `json:"token_type"`
	RefreshCount int       `json:"refresh_count,omitempty"`
}

// TokenPair is returned by login, register and refresh
type TokenPair struct {
	AccessToken           string    `json:"access_token"`
	RefreshToken          string    `json:"refresh_token"`
	AccessTokenExpiresAt  time.Time `json:"access_token_expires_at"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at"`
	TokenType             string    `json:"token_type"`
}

// Subject identifies the user a token pair is issued for
type Subject struct {
	UserID uuid.UUID
	Email  string
	Role   string
}

// signer holds the key and lifetime of one token kind
type signer struct {
	kind   TokenType
	secret []byte
	ttl    time.Duration
}

func (k signer) sign(claims *Claims) (string, error) {
	claims.TokenType = k.kind
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(k.secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", k.kind, err)
	}
	return signed, nil
}

// JWTService issues and validates token pairs
type JWTService struct {
	access          signer
	refresh         signer
	issuer          string
	maxRefreshCount int
	parser          *jwt.Parser
}

// NewJWTService creates a service from cfg. Refresh tokens are signed with
// the access secret when no refresh secret is configured.
func NewJWTService(cfg config.JWTConfig) *JWTService {
	refreshSecret := cfg.RefreshSecret
	if refreshSecret == "" {
		refreshSecret = cfg.Secret
	}
	return &JWTService{
		access:          signer{kind: TokenTypeAccess, secret: []byte(cfg.Secret), ttl: cfg.AccessTokenExpiration},
		refresh:         signer{kind: TokenTypeRefresh, secret: []byte(refreshSecret), ttl: cfg.RefreshTokenExpiration},
		issuer:          cfg.Issuer,
		maxRefreshCount: cfg.MaxRefreshCount,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithIssuer(cfg.Issuer),
		),
	}
}

// GenerateTokenPair issues a fresh pair for sub
func (s *JWTService) GenerateTokenPair(sub Subject) (*TokenPair, error) {
	return s.issue(sub, 0)
}

// RefreshTokenPair exchanges a refresh token for a new pair. sub must be the
// reloaded token owner, so role changes apply on the next access token.
func (s *JWTService) RefreshTokenPair(refreshToken string, sub Subject) (*TokenPair, error) {
	claims, err := s.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}
	if claims.RefreshCount >= s.maxRefreshCount {
		return nil, ErrMaxRefreshExceeded
	}
	if owner, err := claims.GetUserUUID(); err != nil || owner != sub.UserID {
		return nil, ErrInvalidClaims
	}
	return s.issue(sub, claims.RefreshCount+1)
}

func (s *JWTService) issue(sub Subject, refreshCount int) (*TokenPair, error) {
	now := time.Now()
	pair := &TokenPair{
		AccessTokenExpiresAt:  now.Add(s.access.ttl),
		RefreshTokenExpiresAt: now.Add(s.refresh.ttl),
		TokenType:             "Bearer",
	}

	var err error
	pair.AccessToken, err = s.access.sign(&Claims{
		RegisteredClaims: s.registered(sub.UserID, now, s.access.ttl),
		UserID:           sub.UserID.String(),
		Email:            sub.Email,
		Role:             sub.Role,
	})
	if err != nil {
		return nil, err
	}
	pair.RefreshToken, err = s.refresh.sign(&Claims{
		RegisteredClaims: s.registered(sub.UserID, now, s.refresh.ttl),
		UserID:           sub.UserID.String(),
		RefreshCount:     refreshCount,
	})
	if err != nil {
		return nil, err
	}
	return pair, nil
}

func (s *JWTService) registered(userID uuid.UUID, now time.Time, ttl time.Duration) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Issuer:    s.issuer,
		Subject:   userID.String(),
		Audience:  jwt.ClaimStrings{s.issuer},
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		NotBefore: jwt.NewNumericDate(now),
		IssuedAt:  jwt.NewNumericDate(now),
	}
}

// ValidateAccessToken returns the claims of a valid access token
func (s *JWTService) ValidateAccessToken(token string) (*Claims, error) {
	return s.parse(token, s.access)
}

// ValidateRefreshToken returns the claims of a valid refresh token
func (s *JWTService) ValidateRefreshToken(token string) (*Claims, error) {
	return s.parse(token, s.refresh)
}

func (s *JWTService) parse(raw string, k signer) (*Claims, error) {
	claims := &Claims{}
	_, err := s.parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return k.secret, nil
	})
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrExpiredToken
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return nil, ErrTokenNotYetValid
	case err != nil:
		return nil, ErrInvalidToken
	case claims.TokenType != k.kind:
		return nil, ErrInvalidTokenType
	case claims.UserID == "":
		return nil, ErrMissingUserID
	}
	return claims, nil
}

// GetRefreshTokenExpiration returns the refresh token lifetime, which is the
// longest any issued token can stay valid
func (s *JWTService) GetRefreshTokenExpiration() time.Duration {
	return s.refresh.ttl
}

// GetUserUUID parses the user_id claim
func (c *Claims) GetUserUUID() (uuid.UUID, error) {
	return uuid.Parse(c.UserID)
}

// GetIssuedAtTime returns iat, or the zero time when it is missing
func (c *Claims) GetIssuedAtTime() time.Time {
	if c.IssuedAt == nil {
		return time.Time{}
	}
	return c.IssuedAt.Time
}

// GetRemainingTTL returns how long the token stays valid, never negative
func (c *Claims) GetRemainingTTL() time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	return max(time.Until(c.ExpiresAt.Time), 0)
}
