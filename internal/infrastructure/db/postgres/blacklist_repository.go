package postgres

import (
	"context"
	"fmt"

	"github.com/99minutos/accounts-api/internal/core/domain"
	"github.com/99minutos/accounts-api/internal/core/ports"
)

type BlacklistRepository struct {
	db DBTX
}

var _ ports.BlacklistRepository = (*BlacklistRepository)(nil)

func NewBlacklistRepository(db DBTX) *BlacklistRepository {
	return &BlacklistRepository{db: db}
}

func (r *BlacklistRepository) Add(ctx context.Context, e ports.BlacklistEntry) error {
	query := `INSERT INTO token_blacklist (token_id, user_id, expires_at, revoked_at)
		VALUES ($1, $2, $3, $4)`

	if _, err := r.db.ExecContext(ctx, query, e.TokenID, e.UserID, e.ExpiresAt.UTC(), e.RevokedAt.UTC()); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrTokenInvalid
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *BlacklistRepository) Contains(ctx context.Context, tokenID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM token_blacklist WHERE token_id = $1)`, tokenID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}
