package repositories

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/anonto42/snapgram/backend/internal/backend"
	"github.com/anonto42/snapgram/backend/internal/models"
	"golang.org/x/crypto/bcrypt"
)

type memoryAccount struct {
	account  models.Account
	password []byte // bcrypt hash
}

// MemoryAccounts implements backend.Accounts with bcrypt-hashed passwords kept in memory
type MemoryAccounts struct {
	mu       sync.RWMutex
	byID     map[string]*memoryAccount
	byEmail  map[string]*memoryAccount
	hashCost int
}

// NewMemoryAccounts creates an empty MemoryAccounts
func NewMemoryAccounts() *MemoryAccounts {
	return &MemoryAccounts{
		byID:     make(map[string]*memoryAccount),
		byEmail:  make(map[string]*memoryAccount),
		hashCost: bcrypt.DefaultCost,
	}
}

// Create registers a new account
func (a *MemoryAccounts) Create(_ context.Context, id, email, password, name string) (*models.Account, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), a.hashCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w: %v", backend.ErrRejected, err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	key := strings.ToLower(email)
	if _, exists := a.byEmail[key]; exists {
		return nil, fmt.Errorf("account with email %s: %w", email, backend.ErrConflict)
	}
	if _, exists := a.byID[id]; exists {
		return nil, fmt.Errorf("account %s: %w", id, backend.ErrConflict)
	}

	acc := &memoryAccount{
		account:  models.Account{ID: id, Email: email, Name: name},
		password: hashed,
	}
	a.byID[id] = acc
	a.byEmail[key] = acc
	out := acc.account
	return &out, nil
}

// VerifyPassword compares password against the stored hash
func (a *MemoryAccounts) VerifyPassword(_ context.Context, email, password string) (*models.Account, error) {
	a.mu.RLock()
	acc, ok := a.byEmail[strings.ToLower(email)]
	a.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("invalid credentials: %w", backend.ErrUnauthorized)
	}
	if err := bcrypt.CompareHashAndPassword(acc.password, []byte(password)); err != nil {
		return nil, fmt.Errorf("invalid credentials: %w", backend.ErrUnauthorized)
	}
	out := acc.account
	return &out, nil
}

// RevokeSessions has nothing to revoke beyond the session tokens themselves
func (a *MemoryAccounts) RevokeSessions(_ context.Context, accountID string) error {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if _, ok := a.byID[accountID]; !ok {
		return fmt.Errorf("account %s: %w", accountID, backend.ErrNotFound)
	}
	return nil
}

// Get returns one account
func (a *MemoryAccounts) Get(_ context.Context, accountID string) (*models.Account, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	acc, ok := a.byID[accountID]
	if !ok {
		return nil, fmt.Errorf("account %s: %w", accountID, backend.ErrNotFound)
	}
	out := acc.account
	return &out, nil
}
