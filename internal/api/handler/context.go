package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/accounts-api/internal/api/middleware"
	"github.com/99minutos/accounts-api/internal/core/domain"
)

// actingUser returns the user the Auth middleware resolved. A missing user
// means the route was registered without Auth.
func actingUser(c echo.Context) (*domain.User, error) {
	return middleware.ActingUser(c)
}

// bindAndValidate binds the request body and runs the struct validator.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return err
	}
	return c.Validate(req)
}

// pageParam reads the 1-based ?page= query value. Absent means 1.
func pageParam(c echo.Context) (int, error) {
	raw := c.QueryParam("page")
	if raw == "" {
		return 1, nil
	}
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		return 0, domain.NewFieldError("page", "Invalid page.")
	}
	return page, nil
}
