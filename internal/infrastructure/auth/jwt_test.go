package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/perfume/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTService() *JWTService {
	cfg := config.JWTConfig{
		Secret:                 "test-secret-key-at-least-32-chars",
		RefreshSecret:          "test-refresh-secret-key-32-chars",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: 7 * 24 * time.Hour,
		Issuer:                 "perfume-test",
		MaxRefreshCount:        2,
	}
	return NewJWTService(cfg)
}

func newTestSubject() Subject {
	return Subject{
		UserID: uuid.New(),
		Email:  "amira@example.com",
		Role:   "customer",
	}
}

func TestNewJWTService_UsesSecretForRefreshIfNotProvided(t *testing.T) {
	svc := NewJWTService(config.JWTConfig{Secret: "test-secret"})
	assert.Equal(t, []byte("test-secret"), svc.refresh.secret)
}

func TestJWTService_GenerateAndValidate(t *testing.T) {
	svc := newTestJWTService()
	sub := newTestSubject()

	pair, err := svc.GenerateTokenPair(sub)
	require.NoError(t, err)
	assert.Equal(t, "Bearer", pair.TokenType)
	assert.True(t, pair.RefreshTokenExpiresAt.After(pair.AccessTokenExpiresAt))

	claims, err := svc.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, sub.UserID.String(), claims.UserID)
	assert.Equal(t, sub.Email, claims.Email)
	assert.Equal(t, "customer", claims.Role)
	assert.Equal(t, TokenTypeAccess, claims.TokenType)
	assert.NotEmpty(t, claims.ID)
	assert.InDelta(t, (15 * time.Minute).Seconds(), claims.GetRemainingTTL().Seconds(), 5)

	refresh, err := svc.ValidateRefreshToken(pair.RefreshToken)
	require.NoError(t, err)
	assert.Empty(t, refresh.Role)
	assert.NotEqual(t, claims.ID, refresh.ID)
}

func TestJWTService_RejectsWrongTokenKinds(t *testing.T) {
	svc := newTestJWTService()
	pair, err := svc.GenerateTokenPair(newTestSubject())
	require.NoError(t, err)

	t.Run("refresh token as access token", func(t *testing.T) {
		_, err := svc.ValidateAccessToken(pair.RefreshToken)
		assert.ErrorIs(t, err, ErrInvalidToken, "signed with the refresh secret")
	})

	t.Run("same secret but wrong type", func(t *testing.T) {
		shared := NewJWTService(config.JWTConfig{Secret: "one-secret-for-both-token-kinds!!", Issuer: "x", AccessTokenExpiration: time.Minute, RefreshTokenExpiration: time.Hour})
		p, err := shared.GenerateTokenPair(newTestSubject())
		require.NoError(t, err)
		_, err = shared.ValidateAccessToken(p.RefreshToken)
		assert.ErrorIs(t, err, ErrInvalidTokenType)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.ValidateAccessToken("not-a-jwt")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("none algorithm", func(t *testing.T) {
		claims := &Claims{UserID: uuid.NewString(), TokenType: TokenTypeAccess}
		token := jwt.NewWithClaims(jwt.SigningMethodNone, claims)
		raw, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = svc.ValidateAccessToken(raw)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("foreign issuer", func(t *testing.T) {
		other := NewJWTService(config.JWTConfig{Secret: "test-secret-key-at-least-32-chars", Issuer: "someone-else", AccessTokenExpiration: time.Minute})
		p, err := other.GenerateTokenPair(newTestSubject())
		require.NoError(t, err)
		_, err = svc.ValidateAccessToken(p.AccessToken)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestJWTService_ExpiredToken(t *testing.T) {
	svc := newTestJWTService()
	svc.access.ttl = -time.Minute
	pair, err := svc.GenerateTokenPair(newTestSubject())
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestJWTService_RefreshTokenPair(t *testing.T) {
	svc := newTestJWTService()
	sub := newTestSubject()
	pair, err := svc.GenerateTokenPair(sub)
	require.NoError(t, err)

	sub.Role = "admin"
	next, err := svc.RefreshTokenPair(pair.RefreshToken, sub)
	require.NoError(t, err)
	access, err := svc.ValidateAccessToken(next.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "admin", access.Role, "refresh picks up the reloaded role")

	refresh, err := svc.ValidateRefreshToken(next.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, 1, refresh.RefreshCount)

	third, err := svc.RefreshTokenPair(next.RefreshToken, sub)
	require.NoError(t, err)
	_, err = svc.RefreshTokenPair(third.RefreshToken, sub)
	assert.ErrorIs(t, err, ErrMaxRefreshExceeded)

	t.Run("subject mismatch", func(t *testing.T) {
		_, err := svc.RefreshTokenPair(pair.RefreshToken, newTestSubject())
		assert.ErrorIs(t, err, ErrInvalidClaims)
	})

	t.Run("access token cannot refresh", func(t *testing.T) {
		_, err := svc.RefreshTokenPair(pair.AccessToken, sub)
		assert.Error(t, err)
	})
}

func TestJWTService_NotYetValid(t *testing.T) {
	svc := newTestJWTService()
	future := time.Now().Add(time.Hour)
	raw, err := svc.access.sign(&Claims{
		RegisteredClaims: svc.registered(uuid.New(), future, time.Hour),
		UserID:           uuid.NewString(),
	})
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(raw)
	assert.ErrorIs(t, err, ErrTokenNotYetValid)
}

func TestJWTService_MissingUserID(t *testing.T) {
	svc := newTestJWTService()
	raw, err := svc.access.sign(&Claims{RegisteredClaims: svc.registered(uuid.New(), time.Now(), time.Minute)})
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(raw)
	assert.ErrorIs(t, err, ErrMissingUserID)
}

func TestClaims_RemainingTTL(t *testing.T) {
	assert.Zero(t, (&Claims{}).GetRemainingTTL())
	expired := &Claims{RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute))}}
	assert.Zero(t, expired.GetRemainingTTL())
	assert.True(t, (&Claims{}).GetIssuedAtTime().IsZero())
}
