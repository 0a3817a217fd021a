package ports

import (
	"context"
	"time"

	"github.com/99minutos/accounts-api/internal/core/domain"
)

// UserRepository defines persistence operations for the credential store.
//
// Implementations return domain.ErrUserNotFound for unknown ids/emails and
// domain.ErrEmailTaken when the store's unique constraint on email rejects a write.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	// ExistsByEmail reports whether a user other than excludeID owns email.
	ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error)
	// Update applies only the fields set in patch and keeps username equal to
	// the resulting email. It returns the stored user after the write.
	Update(ctx context.Context, id string, patch domain.UserPatch) (*domain.User, error)
	// SetActive flips is_active only when it currently holds !active.
	// It reports false when the user was already in the requested state.
	SetActive(ctx context.Context, id string, active bool) (bool, error)
	SetPassword(ctx context.Context, id, hash string) error
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
	// List returns one page of users ordered by creation and the total count.
	List(ctx context.Context, offset, limit int) ([]*domain.User, int64, error)
}
