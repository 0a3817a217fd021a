package middleware

import (
	"context"
	"errors"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/accounts-api/internal/core/domain"
)

// UserKey is the echo context key holding the authenticated *domain.User.
const UserKey = "user"

// Authenticator turns an Authorization header into the acting user.
type Authenticator interface {
	Authenticate(ctx context.Context, authHeader string) (*domain.User, error)
}

// Auth rejects the request with 401 unless the bearer access token resolves to
// an active user, which is then stored under UserKey.
func Auth(guard Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, err := guard.Authenticate(c.Request().Context(), c.Request().Header.Get(echo.HeaderAuthorization))
			if err != nil {
				var de *domain.Error
				if !errors.As(err, &de) {
					return err
				}
				if de.Kind == domain.KindToken {
					// a bad bearer credential is an authentication failure, not bad input
					return &domain.Error{Kind: domain.KindUnauthorized, Code: de.Code, Message: "Given token not valid for any token type"}
				}
				return err
			}

			c.Set(UserKey, user)
			return next(c)
		}
	}
}

// ActingUser returns the user stored by Auth.
func ActingUser(c echo.Context) (*domain.User, error) {
	u, ok := c.Get(UserKey).(*domain.User)
	if !ok || u == nil {
		return nil, domain.ErrNotAuthenticated
	}
	return u, nil
}
