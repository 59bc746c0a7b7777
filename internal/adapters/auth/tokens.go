// Package auth issues and verifies bearer credentials and hashes passwords.
package auth

import (
	"errors"
	"time"

	"github.com/dkeye/livepoll/internal/domain"
	"github.com/gorilla/securecookie"
	"github.com/rs/zerolog/log"
)

const tokenName = "livepoll_token"

type claims struct {
	UserID   string `json:"uid"`
	Username string `json:"name"`
}

// Tokens signs and verifies credentials with an HMAC key; tokens expire
// after ttl (checked by securecookie from the embedded timestamp).
type Tokens struct {
	codec *securecookie.SecureCookie
	ttl   time.Duration
}

func NewTokens(secret []byte, ttl time.Duration) (*Tokens, error) {
	if len(secret) < 32 {
		return nil, errors.New("token secret must be at least 32 bytes")
	}
	if ttl <= 0 {
		return nil, errors.New("token ttl must be positive")
	}
	codec := securecookie.New(secret, nil)
	codec.MaxAge(int(ttl / time.Second))
	codec.SetSerializer(securecookie.JSONEncoder{})
	return &Tokens{codec: codec, ttl: ttl}, nil
}

func (t *Tokens) TTL() time.Duration { return t.ttl }

// Issue returns a credential for id.
func (t *Tokens) Issue(id domain.Identity) (string, error) {
	return t.codec.Encode(tokenName, claims{UserID: string(id.UserID), Username: id.Username})
}

// VerifyCredential implements core.CredentialVerifier.
func (t *Tokens) VerifyCredential(token string) (domain.Identity, error) {
	if token == "" {
		return domain.Identity{}, domain.ErrInvalidCredential
	}
	var c claims
	if err := t.codec.Decode(tokenName, token, &c); err != nil {
		log.Debug().Err(err).Str("module", "auth").Msg("credential rejected")
		return domain.Identity{}, domain.ErrInvalidCredential
	}
	if c.UserID == "" {
		return domain.Identity{}, domain.ErrInvalidCredential
	}
	return domain.Identity{UserID: domain.UserID(c.UserID), Username: c.Username}, nil
}
