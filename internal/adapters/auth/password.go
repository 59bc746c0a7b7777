package auth

import (
	"errors"
	"fmt"

	"github.com/dkeye/livepoll/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

type Passwords struct {
	cost int
}

// NewPasswords uses bcrypt.DefaultCost when cost is zero.
func NewPasswords(cost int) Passwords {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return Passwords{cost: cost}
}

func (p Passwords) Hash(password string) ([]byte, error) {
	if len(password) < domain.MinPasswordLen {
		return nil, domain.Invalid("password must be at least %d characters", domain.MinPasswordLen)
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, domain.Invalid("password too long")
		}
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return h, nil
}

func (p Passwords) Compare(hash []byte, password string) bool {
	return bcrypt.CompareHashAndPassword(hash, []byte(password)) == nil
}
