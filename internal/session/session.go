// Package session issues the signed tokens clients present after signing in.
// Tokens are HS256 JWTs; sign-out records the token ID in a revocation store
// until the token would have expired anyway.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anonto42/snapgram/backend/internal/backend"
	"github.com/anonto42/snapgram/backend/internal/models"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

// DefaultTTL matches the lifetime of tokens issued before sessions were revocable
const DefaultTTL = 72 * time.Hour

var (
	ErrInvalidToken = fmt.Errorf("invalid session token: %w", backend.ErrUnauthorized)
	ErrRevoked      = fmt.Errorf("session revoked: %w", backend.ErrUnauthorized)
)

// RevocationStore remembers revoked token IDs
type RevocationStore interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// Manager issues, parses and revokes session tokens
type Manager struct {
	secret      []byte
	ttl         time.Duration
	revocations RevocationStore
}

// NewManager creates a Manager signing with secret
func NewManager(secret string, ttl time.Duration, revocations RevocationStore) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{
		secret:      []byte(secret),
		ttl:         ttl,
		revocations: revocations,
	}
}

// TTL returns the lifetime of issued sessions
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Issue opens a session for account
func (m *Manager) Issue(_ context.Context, account *models.Account) (*models.Session, error) {
	now := time.Now()
	expiresAt := now.Add(m.ttl)
	claims := &models.JwtCustomClaims{
		AccountID: account.ID,
		Email:     account.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   account.ID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return nil, fmt.Errorf("sign session token: %w", err)
	}

	return &models.Session{
		ID:        claims.ID,
		AccountID: account.ID,
		Email:     account.Email,
		Token:     signed,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Parse validates a token and returns the session it carries
func (m *Manager) Parse(ctx context.Context, tokenString string) (*models.Session, error) {
	claims := &models.JwtCustomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}
	if !token.Valid || claims.ID == "" || claims.AccountID == "" || claims.ExpiresAt == nil {
		return nil, ErrInvalidToken
	}

	revoked, err := m.revocations.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("check session revocation: %w", err)
	}
	if revoked {
		return nil, ErrRevoked
	}

	return &models.Session{
		ID:        claims.ID,
		AccountID: claims.AccountID,
		Email:     claims.Email,
		Token:     tokenString,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Revoke invalidates a session until its natural expiry
func (m *Manager) Revoke(ctx context.Context, s *models.Session) error {
	ttl := time.Until(s.ExpiresAt)
	if ttl <= 0 {
		return nil
	}
	return m.revocations.Revoke(ctx, s.ID, ttl)
}
