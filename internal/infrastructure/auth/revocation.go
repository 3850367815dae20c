package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RevocationStore ends sessions before their tokens expire. Single tokens
// are revoked on logout and refresh; a user wide cutoff ends every session
// after a password change or deactivation.
type RevocationStore interface {
	// RevokeToken rejects the token with this JTI for ttl, which should be
	// the token's remaining lifetime
	RevokeToken(ctx context.Context, jti string, ttl time.Duration) error
	// RevokeUser rejects every token of userID issued before now
	RevokeUser(ctx context.Context, userID string, ttl time.Duration) error
	// Revoked reports whether the token was revoked directly or predates its
	// user's cutoff
	Revoked(ctx context.Context, jti, userID string, issuedAt time.Time) (bool, error)
}

const revocationKeyPrefix = "perfume:revoked:"

// RedisRevocationStore keeps revocations in redis so every instance sees them
type RedisRevocationStore struct {
	client redis.UniversalClient
}

// NewRedisRevocationStore creates a store on a shared client
func NewRedisRevocationStore(client redis.UniversalClient) *RedisRevocationStore {
	return &RedisRevocationStore{client: client}
}

func tokenKey(jti string) string   { return revocationKeyPrefix + "jti:" + jti }
func userKey(userID string) string { return revocationKeyPrefix + "user:" + userID }

// RevokeToken implements RevocationStore
func (s *RedisRevocationStore) RevokeToken(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := s.client.Set(ctx, tokenKey(jti), 1, ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// RevokeUser stores the current unix second as the user's cutoff
func (s *RedisRevocationStore) RevokeUser(ctx context.Context, userID string, ttl time.Duration) error {
	if err := s.client.Set(ctx, userKey(userID), time.Now().Unix(), ttl).Err(); err != nil {
		return fmt.Errorf("revoke user tokens: %w", err)
	}
	return nil
}

// Revoked checks both keys in one round trip
func (s *RedisRevocationStore) Revoked(ctx context.Context, jti, userID string, issuedAt time.Time) (bool, error) {
	vals, err := s.client.MGet(ctx, tokenKey(jti), userKey(userID)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return false, fmt.Errorf("check revocation: %w", err)
	}
	if len(vals) != 2 {
		return false, nil
	}
	if vals[0] != nil {
		return true, nil
	}
	raw, ok := vals[1].(string)
	if !ok {
		return false, nil
	}
	cutoff, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return false, fmt.Errorf("parse revocation cutoff %q: %w", raw, err)
	}
	return issuedAt.Unix() < cutoff, nil
}

var _ RevocationStore = (*RedisRevocationStore)(nil)

// MemoryRevocationStore is used when redis is disabled. Revocations are local
// to the process. Expired entries are dropped on lookup and by a periodic
// sweep; call Stop to end it.
type MemoryRevocationStore struct {
	mu       sync.Mutex
	tokens   map[string]time.Time
	cutoffs  map[string]cutoff
	now      func() time.Time
	done     chan struct{}
	stopOnce sync.Once
}

type cutoff struct {
	at      int64
	expires time.Time
}

// memorySweepInterval is how often expired revocations are pruned
const memorySweepInterval = time.Minute

// NewMemoryRevocationStore creates an empty store and starts its sweep
func NewMemoryRevocationStore() *MemoryRevocationStore {
	return newMemoryRevocationStore(time.Now, memorySweepInterval)
}

func newMemoryRevocationStore(now func() time.Time, sweepEvery time.Duration) *MemoryRevocationStore {
	s := &MemoryRevocationStore{
		tokens:  make(map[string]time.Time),
		cutoffs: make(map[string]cutoff),
		now:     now,
		done:    make(chan struct{}),
	}
	if sweepEvery > 0 {
		go s.sweepLoop(sweepEvery)
	}
	return s
}

// Stop ends the sweep goroutine
func (s *MemoryRevocationStore) Stop() {
	s.stopOnce.Do(func() { close(s.done) })
}

func (s *MemoryRevocationStore) sweepLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

// sweep drops revocations whose tokens can no longer be presented
func (s *MemoryRevocationStore) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for jti, exp := range s.tokens {
		if !now.Before(exp) {
			delete(s.tokens, jti)
		}
	}
	for userID, c := range s.cutoffs {
		if !now.Before(c.expires) {
			delete(s.cutoffs, userID)
		}
	}
}

// RevokeToken implements RevocationStore
func (s *MemoryRevocationStore) RevokeToken(_ context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	s.mu.Lock()
	s.tokens[jti] = s.now().Add(ttl)
	s.mu.Unlock()
	return nil
}

// RevokeUser implements RevocationStore
func (s *MemoryRevocationStore) RevokeUser(_ context.Context, userID string, ttl time.Duration) error {
	now := s.now()
	s.mu.Lock()
	s.cutoffs[userID] = cutoff{at: now.Unix(), expires: now.Add(ttl)}
	s.mu.Unlock()
	return nil
}

// Revoked implements RevocationStore. Cutoffs compare whole seconds because
// iat has second precision.
func (s *MemoryRevocationStore) Revoked(_ context.Context, jti, userID string, issuedAt time.Time) (bool, error) {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()

	if exp, ok := s.tokens[jti]; ok {
		if now.Before(exp) {
			return true, nil
		}
		delete(s.tokens, jti)
	}
	c, ok := s.cutoffs[userID]
	if !ok {
		return false, nil
	}
	if !now.Before(c.expires) {
		delete(s.cutoffs, userID)
		return false, nil
	}
	return issuedAt.Unix() < c.at, nil
}

var _ RevocationStore = (*MemoryRevocationStore)(nil)
