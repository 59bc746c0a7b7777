package app

import (
	"context"
	"errors"

	"github.com/dkeye/livepoll/internal/core"
	"github.com/dkeye/livepoll/internal/domain"
	"github.com/rs/zerolog/log"
)

type PasswordHasher interface {
	Hash(password string) ([]byte, error)
	Compare(hash []byte, password string) bool
}

type TokenIssuer interface {
	Issue(id domain.Identity) (string, error)
}

// Accounts registers users and logs them in with a bearer credential.
type Accounts struct {
	users     core.UserStore
	passwords PasswordHasher
	tokens    TokenIssuer
}

func NewAccounts(users core.UserStore, passwords PasswordHasher, tokens TokenIssuer) *Accounts {
	return &Accounts{users: users, passwords: passwords, tokens: tokens}
}

func (a *Accounts) Register(ctx context.Context, username, password string) (*domain.User, error) {
	hash, err := a.passwords.Hash(password)
	if err != nil {
		return nil, err
	}
	u, err := domain.NewUser(username, hash)
	if err != nil {
		return nil, err
	}
	if err := a.users.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	log.Info().Str("module", "app.accounts").Str("user", string(u.ID)).Str("username", u.Username).Msg("user registered")
	return u, nil
}

// Login checks the password and issues a credential. Unknown users and wrong
// passwords fail the same way.
func (a *Accounts) Login(ctx context.Context, username, password string) (domain.Identity, string, error) {
	u, err := a.users.GetUserByName(ctx, username)
	if errors.Is(err, domain.ErrUserNotFound) {
		return domain.Identity{}, "", domain.ErrBadLogin
	}
	if err != nil {
		return domain.Identity{}, "", err
	}
	if !a.passwords.Compare(u.PasswordHash, password) {
		return domain.Identity{}, "", domain.ErrBadLogin
	}
	id := u.Identity()
	token, err := a.tokens.Issue(id)
	if err != nil {
		return domain.Identity{}, "", err
	}
	return id, token, nil
}
