package ports

import (
	"context"
	"time"
)

// SessionRevoker records revoked session IDs until their tokens expire.
type SessionRevoker interface {
	Revoke(ctx context.Context, sessionID string, until time.Time) error
	IsRevoked(ctx context.Context, sessionID string) (bool, error)
}
