package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SessionStore tracks live refresh tokens by their JWT ID so that logout can revoke them.
// Implementations: Redis (production) or in-memory (local dev / single instance).
type SessionStore interface {
	Remember(ctx context.Context, jti string, userID uuid.UUID, ttl time.Duration) error
	// Lookup reports the owner of a live token; ok is false for unknown or expired ids.
	Lookup(ctx context.Context, jti string) (userID uuid.UUID, ok bool, err error)
	Forget(ctx context.Context, jti string) error
}

const sessionKeyPrefix = "session:refresh:"

func sessionKey(jti string) string { return sessionKeyPrefix + jti }
