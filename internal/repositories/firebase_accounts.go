package repositories

import (
	"context"
	"fmt"

	"firebase.google.com/go/v4/auth"
	"github.com/anonto42/snapgram/backend/internal/backend"
	"github.com/anonto42/snapgram/backend/internal/models"
	"google.golang.org/api/identitytoolkit/v3"
)

// FirebaseAccounts implements backend.Accounts on Firebase Authentication
type FirebaseAccounts struct {
	authClient *auth.Client
	identity   *identitytoolkit.Service
}

// NewFirebaseAccounts creates a FirebaseAccounts. identity is the Identity
// Toolkit client used for password sign-in, authenticated with the web API key.
func NewFirebaseAccounts(authClient *auth.Client, identity *identitytoolkit.Service) *FirebaseAccounts {
	return &FirebaseAccounts{authClient: authClient, identity: identity}
}

// Create registers a new email/password account with the given UID
func (a *FirebaseAccounts) Create(ctx context.Context, id, email, password, name string) (*models.Account, error) {
	params := (&auth.UserToCreate{}).
		UID(id).
		Email(email).
		Password(password).
		DisplayName(name)

	record, err := a.authClient.CreateUser(ctx, params)
	if err != nil {
		return nil, wrap("create firebase user", err)
	}
	return accountFromRecord(record), nil
}

// VerifyPassword signs in with email/password and checks the resulting ID token
func (a *FirebaseAccounts) VerifyPassword(ctx context.Context, email, password string) (*models.Account, error) {
	resp, err := a.identity.Relyingparty.VerifyPassword(&identitytoolkit.IdentitytoolkitRelyingpartyVerifyPasswordRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	}).Context(ctx).Do()
	if err != nil {
		if sentinelFor(err) == backend.ErrRejected {
			// the REST API answers bad credentials with 400
			return nil, fmt.Errorf("verify password: %w: %w", backend.ErrUnauthorized, err)
		}
		return nil, wrap("verify password", err)
	}

	token, err := a.authClient.VerifyIDToken(ctx, resp.IdToken)
	if err != nil {
		return nil, fmt.Errorf("verify id token: %w: %w", backend.ErrUnauthorized, err)
	}

	return &models.Account{
		ID:    token.UID,
		Email: resp.Email,
		Name:  resp.DisplayName,
	}, nil
}

// RevokeSessions revokes every refresh token of the account
func (a *FirebaseAccounts) RevokeSessions(ctx context.Context, accountID string) error {
	if err := a.authClient.RevokeRefreshTokens(ctx, accountID); err != nil {
		return wrap("revoke refresh tokens", err)
	}
	return nil
}

// Get looks an account up by UID
func (a *FirebaseAccounts) Get(ctx context.Context, accountID string) (*models.Account, error) {
	record, err := a.authClient.GetUser(ctx, accountID)
	if err != nil {
		return nil, wrap("get firebase user", err)
	}
	if record.Disabled {
		return nil, fmt.Errorf("account %s disabled: %w", accountID, backend.ErrUnauthorized)
	}
	return accountFromRecord(record), nil
}

func accountFromRecord(record *auth.UserRecord) *models.Account {
	return &models.Account{
		ID:    record.UID,
		Email: record.Email,
		Name:  record.DisplayName,
	}
}
