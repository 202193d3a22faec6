// Package token issues and verifies the bearer tokens the relay
// consumes. Tokens are HMAC-SHA256 JWTs whose subject is the user id;
// verification resolves the subject against the user store, so a
// deleted account invalidates outstanding tokens immediately.
package token

import (
	"context"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"

	"github.com/aeroplan/collab/internal/domain"
)

// UserLookup is the slice of the datastore verification needs.
type UserLookup interface {
	GetUserByID(ctx context.Context, id domain.UserID) (*domain.User, error)
}

type Manager struct {
	secret []byte
	users  UserLookup
	ttl    time.Duration
	now    func() time.Time
}

func NewManager(secret string, users UserLookup, ttl time.Duration) *Manager {
	return &Manager{
		secret: []byte(secret),
		users:  users,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue mints a token for the user.
func (m *Manager) Issue(user *domain.User) (string, error) {
	now := m.now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(int64(user.ID), 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// Verify resolves a token to its user. Any parse, signature, expiry
// or lookup failure is ok=false: the relay drops unauthenticated
// events silently rather than surfacing errors.
func (m *Manager) Verify(ctx context.Context, tokenString string) (*domain.User, bool) {
	parsed, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{},
		func(t *jwt.Token) (any, error) { return m.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !parsed.Valid {
		log.Debug().Err(err).Str("module", "token").Msg("token rejected")
		return nil, false
	}
	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok {
		return nil, false
	}
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		log.Debug().Err(err).Str("module", "token").Msg("bad subject")
		return nil, false
	}
	user, err := m.users.GetUserByID(ctx, domain.UserID(id))
	if err != nil {
		log.Debug().Err(err).Str("module", "token").Int64("uid", id).Msg("user lookup failed")
		return nil, false
	}
	return user, true
}
