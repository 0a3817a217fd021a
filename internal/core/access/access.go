// Package access authenticates bearer credentials, gates operations by role
// and resolves which user a mutating operation acts upon.
package access

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/99minutos/accounts-api/internal/core/domain"
	"github.com/99minutos/accounts-api/internal/core/token"
)

// Requirement is the access level an operation demands.
type Requirement int

const (
	AuthenticatedAny Requirement = iota
	StaffOrAdmin
)

// Authorize reports whether acting satisfies req.
func Authorize(acting *domain.User, req Requirement) bool {
	if acting == nil {
		return false
	}
	switch req {
	case AuthenticatedAny:
		return true
	case StaffOrAdmin:
		return acting.IsStaffOrAdmin()
	default:
		return false
	}
}

// UserFinder is the lookup ResolveTarget and Guard need.
type UserFinder interface {
	FindByID(ctx context.Context, id string) (*domain.User, error)
}

// ResolveTarget returns the user an update or deactivation applies to.
// A superuser naming an id acts on that user (domain.ErrUserNotFound when it
// does not exist). Anyone else always acts on themselves: a foreign id from a
// non-superuser is ignored.
func ResolveTarget(ctx context.Context, users UserFinder, acting *domain.User, requestedID string) (*domain.User, error) {
	if acting == nil {
		return nil, domain.ErrNotAuthenticated
	}
	if !acting.IsSuperuser || requestedID == "" {
		return acting, nil
	}
	if requestedID == acting.ID {
		return acting, nil
	}
	target, err := users.FindByID(ctx, requestedID)
	if err != nil {
		return nil, err
	}
	return target, nil
}

// TokenVerifier is the part of the token issuer Guard depends on.
type TokenVerifier interface {
	Verify(ctx context.Context, raw string, typ token.Type) (*token.Claims, error)
}

// Guard turns an Authorization header into the acting user.
type Guard struct {
	tokens TokenVerifier
	users  UserFinder
}

func NewGuard(tokens TokenVerifier, users UserFinder) *Guard {
	return &Guard{tokens: tokens, users: users}
}

// Authenticate verifies a "Bearer <access>" header and loads its user.
// Missing, malformed, revoked or expired credentials, as well as unknown and
// inactive users, yield domain.ErrNotAuthenticated or domain.ErrTokenInvalid.
func (g *Guard) Authenticate(ctx context.Context, authHeader string) (*domain.User, error) {
	if authHeader == "" {
		return nil, domain.ErrNotAuthenticated
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
		return nil, domain.ErrNotAuthenticated
	}

	claims, err := g.tokens.Verify(ctx, strings.TrimSpace(parts[1]), token.TypeAccess)
	if err != nil {
		return nil, err
	}

	user, err := g.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrTokenInvalid
		}
		return nil, fmt.Errorf("load acting user: %w", err)
	}
	if !user.IsActive {
		return nil, domain.ErrUserInactive
	}
	return user, nil
}
