package backend

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/anonto42/snapgram/backend/internal/models"
	"go.uber.org/zap"
)

// AvatarURL returns the initials avatar link for name
func (b *Backend) AvatarURL(name string) string {
	return b.cfg.PublicURL + "/api/v1/avatars/initials?name=" + url.QueryEscape(name)
}

// CreateUserAccount creates an auth account and its profile document
func (b *Backend) CreateUserAccount(ctx context.Context, user models.NewUser) (*models.Account, error) {
	const op = "createUserAccount"

	account, err := b.accounts.Create(ctx, b.newID(), user.Email, user.Password, user.Name)
	if err != nil {
		return nil, b.fail(op, err, zap.String("email", user.Email))
	}

	if _, err := b.SaveUserToDB(ctx, models.User{
		AccountID: account.ID,
		Name:      account.Name,
		Email:     account.Email,
		Username:  user.Username,
		ImageURL:  b.AvatarURL(account.Name),
	}); err != nil {
		return nil, b.fail(op, err)
	}

	return account, nil
}

// SaveUserToDB writes a profile document to the users collection
func (b *Backend) SaveUserToDB(ctx context.Context, user models.User) (*models.User, error) {
	const op = "saveUserToDB"

	doc, err := b.db.CreateDocument(ctx, b.cfg.UsersCollectionID, b.newID(), userFields(user))
	if err != nil {
		return nil, b.fail(op, err, zap.String("account_id", user.AccountID))
	}
	return userFromDocument(doc), nil
}

// SignInAccount verifies email/password credentials and opens a session
func (b *Backend) SignInAccount(ctx context.Context, email, password string) (*models.Session, error) {
	const op = "signInAccount"

	account, err := b.accounts.VerifyPassword(ctx, email, password)
	if err != nil {
		return nil, b.fail(op, err, zap.String("email", email))
	}

	session, err := b.sessions.Issue(ctx, account)
	if err != nil {
		return nil, b.fail(op, err, zap.String("account_id", account.ID))
	}
	return session, nil
}

// SignOutAccount closes the given session
func (b *Backend) SignOutAccount(ctx context.Context, session *models.Session) error {
	const op = "signOutAccount"

	if err := b.sessions.Revoke(ctx, session); err != nil {
		return b.fail(op, err, zap.String("session_id", session.ID))
	}
	if err := b.accounts.RevokeSessions(ctx, session.AccountID); err != nil {
		return b.fail(op, err, zap.String("account_id", session.AccountID))
	}
	if err := b.users.Delete(ctx, session.ID); err != nil {
		b.logger.Warn("evict cached user", zap.String("session_id", session.ID), zap.Error(err))
	}
	return nil
}

// GetAccount resolves the auth account behind a session
func (b *Backend) GetAccount(ctx context.Context, session *models.Session) (*models.Account, error) {
	const op = "getAccount"

	account, err := b.accounts.Get(ctx, session.AccountID)
	if err != nil {
		return nil, b.fail(op, err, zap.String("account_id", session.AccountID))
	}
	return account, nil
}

// GetCurrentUser returns the profile document of the session's account
func (b *Backend) GetCurrentUser(ctx context.Context, session *models.Session) (*models.User, error) {
	const op = "getCurrentUser"

	cached, err := b.users.Get(ctx, session.ID)
	switch {
	case err == nil && cached != nil:
		return cached, nil
	case err != nil && !errors.Is(err, ErrNotFound):
		b.logger.Warn("read cached user", zap.String("session_id", session.ID), zap.Error(err))
	}

	account, err := b.GetAccount(ctx, session)
	if err != nil {
		return nil, b.fail(op, err)
	}

	docs, err := b.db.ListDocuments(ctx, b.cfg.UsersCollectionID, Equal(fieldAccountID, account.ID))
	if err != nil {
		return nil, b.fail(op, err, zap.String("account_id", account.ID))
	}
	if len(docs) == 0 {
		return nil, b.fail(op, ErrNotFound, zap.String("account_id", account.ID))
	}

	user := userFromDocument(&docs[0])
	if ttl := time.Until(session.ExpiresAt); ttl > 0 {
		if err := b.users.Set(ctx, session.ID, user, ttl); err != nil {
			b.logger.Warn("cache current user", zap.String("session_id", session.ID), zap.Error(err))
		}
	}
	return user, nil
}
