package ports

import (
	"context"
	"time"
)

// BlacklistEntry records a revoked token. Entries are never pruned here.
type BlacklistEntry struct {
	TokenID   string
	UserID    string
	ExpiresAt time.Time
	RevokedAt time.Time
}

// BlacklistRepository is the durable set of revoked token identifiers.
type BlacklistRepository interface {
	// Add persists the entry before returning. Adding an identifier that is
	// already present returns domain.ErrTokenInvalid.
	Add(ctx context.Context, entry BlacklistEntry) error
	Contains(ctx context.Context, tokenID string) (bool, error)
}
