package session

import (
	"context"
	"testing"
	"time"

	"github.com/anonto42/snapgram/backend/internal/backend"
	"github.com/anonto42/snapgram/backend/internal/models"
	"github.com/anonto42/snapgram/backend/internal/repositories"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var account = &models.Account{ID: "acc-1", Email: "ada@example.com", Name: "Ada"}

func TestIssueAndParse(t *testing.T) {
	ctx := context.Background()
	m := NewManager("secret", time.Hour, repositories.NewMemoryRevocations())

	s, err := m.Issue(ctx, account)
	require.NoError(t, err)
	assert.NotEmpty(t, s.ID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), s.ExpiresAt, time.Minute)

	parsed, err := m.Parse(ctx, s.Token)
	require.NoError(t, err)
	assert.Equal(t, s.ID, parsed.ID)
	assert.Equal(t, "acc-1", parsed.AccountID)
	assert.Equal(t, "ada@example.com", parsed.Email)
}

func TestParse_Rejects(t *testing.T) {
	ctx := context.Background()
	m := NewManager("secret", time.Hour, repositories.NewMemoryRevocations())
	other := NewManager("other-secret", time.Hour, repositories.NewMemoryRevocations())

	s, err := other.Issue(ctx, account)
	require.NoError(t, err)

	_, err = m.Parse(ctx, s.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.ErrorIs(t, err, backend.ErrUnauthorized)

	_, err = m.Parse(ctx, "not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, &models.JwtCustomClaims{
		AccountID: "acc-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "t1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})
	signed, err := expired.SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = m.Parse(ctx, signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRevoke(t *testing.T) {
	ctx := context.Background()
	m := NewManager("secret", time.Hour, repositories.NewMemoryRevocations())

	s, err := m.Issue(ctx, account)
	require.NoError(t, err)
	require.NoError(t, m.Revoke(ctx, s))

	_, err = m.Parse(ctx, s.Token)
	assert.ErrorIs(t, err, ErrRevoked)
	assert.ErrorIs(t, err, backend.ErrUnauthorized)

	assert.NoError(t, m.Revoke(ctx, &models.Session{ID: "old", ExpiresAt: time.Now().Add(-time.Hour)}))
}

func TestNewManager_DefaultTTL(t *testing.T) {
	m := NewManager("secret", 0, repositories.NewMemoryRevocations())
	assert.Equal(t, DefaultTTL, m.TTL())
}
