package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/99minutos/accounts-api/internal/core/access"
	"github.com/99minutos/accounts-api/internal/core/domain"
)

// Require gates a route on an access requirement. It must run after Auth.
func Require(req access.Requirement) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, err := ActingUser(c)
			if err != nil {
				return err
			}
			if !access.Authorize(user, req) {
				return domain.ErrForbidden
			}
			return next(c)
		}
	}
}
