package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/accounts-api/internal/core/domain"
	"github.com/99minutos/accounts-api/internal/core/ports"
	"github.com/99minutos/accounts-api/internal/metrics"
)

const (
	msgNoUsers         = "No users found"
	msgActivated       = "User activated!"
	msgPasswordChanged = "Password changed successfully. Log in with your new password."
	msgRecoverySent    = "If the email is registered, the instructions have been sent."
)

type AccountHandler struct {
	accounts ports.AccountService
}

func NewAccountHandler(accounts ports.AccountService) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

// Signup registers a new common user.
//
// @Summary      Sign up
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      signupRequest  true  "Registration details"
// @Success      201   {object}  userResponse
// @Failure      400   {object}  map[string]any
// @Router       /users/signup [post]
func (h *AccountHandler) Signup(c echo.Context) error {
	var req signupRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.accounts.Signup(c.Request().Context(), ports.SignupInput{
		Email:     req.Email,
		Password:  req.Password,
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		return err
	}

	metrics.SignupsTotal.Inc()
	return c.JSON(http.StatusCreated, newUserResponse(user))
}

// Login exchanges credentials for an access/refresh pair.
//
// @Summary      Log in
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Credentials"
// @Success      200   {object}  tokenResponse
// @Failure      400   {object}  map[string]any
// @Failure      401   {object}  map[string]any
// @Router       /users/login [post]
func (h *AccountHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	pair, err := h.accounts.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues(loginResult(err)).Inc()
		return err
	}

	metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
	return c.JSON(http.StatusOK, tokenResponse{Access: pair.Access, Refresh: pair.Refresh})
}

func loginResult(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, domain.ErrUserInactive):
		return "inactive"
	case domain.IsKind(err, domain.KindValidation):
		return "invalid_input"
	default:
		return "error"
	}
}

// Refresh rotates a refresh token.
//
// @Summary      Refresh tokens
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      refreshRequest  true  "Refresh token"
// @Success      200   {object}  tokenResponse
// @Failure      400   {object}  map[string]any
// @Router       /users/token/refresh [post]
func (h *AccountHandler) Refresh(c echo.Context) error {
	var req refreshRequest
	if err := c.Bind(&req); err != nil {
		return err
	}

	pair, err := h.accounts.Refresh(c.Request().Context(), req.Refresh)
	if err != nil {
		return err
	}

	metrics.TokensRevokedTotal.WithLabelValues("rotation").Inc()
	return c.JSON(http.StatusOK, tokenResponse{Access: pair.Access, Refresh: pair.Refresh})
}

// Logout blacklists the supplied refresh token.
//
// @Summary      Log out
// @Tags         users
// @Accept       json
// @Param        body  body  refreshRequest  true  "Refresh token"
// @Success      205
// @Failure      400   {object}  map[string]any
// @Failure      401   {object}  map[string]any
// @Security     Bearer
// @Router       /users/logout [post]
func (h *AccountHandler) Logout(c echo.Context) error {
	var req refreshRequest
	if err := c.Bind(&req); err != nil {
		return err
	}

	if err := h.accounts.Logout(c.Request().Context(), req.Refresh); err != nil {
		return err
	}

	metrics.TokensRevokedTotal.WithLabelValues("logout").Inc()
	return c.NoContent(http.StatusResetContent)
}

// Me returns the caller.
//
// @Summary      Current user
// @Tags         users
// @Produce      json
// @Success      200  {object}  userResponse
// @Failure      401  {object}  map[string]any
// @Security     Bearer
// @Router       /users/me [get]
func (h *AccountHandler) Me(c echo.Context) error {
	user, err := actingUser(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newUserResponse(user))
}

// List returns one page of users.
//
// @Summary      List users
// @Tags         users
// @Produce      json
// @Param        page  query     int  false  "1-based page number"
// @Success      200   {object}  userListResponse
// @Failure      401   {object}  map[string]any
// @Failure      403   {object}  map[string]any
// @Security     Bearer
// @Router       /users [get]
func (h *AccountHandler) List(c echo.Context) error {
	acting, err := actingUser(c)
	if err != nil {
		return err
	}
	page, err := pageParam(c)
	if err != nil {
		return err
	}

	res, err := h.accounts.List(c.Request().Context(), acting, ports.ListUsersInput{Page: page})
	if err != nil {
		return err
	}

	resp := userListResponse{
		Count:   res.Total,
		Results: make([]userResponse, 0, len(res.Items)),
	}
	for _, u := range res.Items {
		resp.Results = append(resp.Results, newUserResponse(u))
	}
	if len(resp.Results) == 0 {
		resp.Message = msgNoUsers
	}
	path := c.Request().URL.Path
	if res.HasNext {
		resp.Next = pageLink(path, res.Page+1)
	}
	if res.HasPrev {
		resp.Previous = pageLink(path, res.Page-1)
	}
	return c.JSON(http.StatusOK, resp)
}

// pageLink builds a relative page URL. The first page carries no page parameter.
func pageLink(path string, page int) *string {
	link := path
	if page > 1 {
		link += "?page=" + strconv.Itoa(page)
	}
	return &link
}

// Get returns any user by id.
//
// @Summary      Retrieve user
// @Tags         users
// @Produce      json
// @Param        id   path      string  true  "User id"
// @Success      200  {object}  userResponse
// @Failure      400  {object}  map[string]any
// @Failure      403  {object}  map[string]any
// @Security     Bearer
// @Router       /users/{id} [get]
func (h *AccountHandler) Get(c echo.Context) error {
	acting, err := actingUser(c)
	if err != nil {
		return err
	}

	user, err := h.accounts.Get(c.Request().Context(), acting, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newUserResponse(user))
}

// Update patches the caller, or the user named by id when the caller is a superuser.
//
// @Summary      Update user
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      updateRequest  true  "Fields to change"
// @Success      200   {object}  userResponse
// @Failure      400   {object}  map[string]any
// @Failure      401   {object}  map[string]any
// @Security     Bearer
// @Router       /users/update [put]
func (h *AccountHandler) Update(c echo.Context) error {
	acting, err := actingUser(c)
	if err != nil {
		return err
	}

	var req updateRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if req.Email != nil && *req.Email != "" {
		if err := c.Validate(&emailField{Email: *req.Email}); err != nil {
			return err
		}
	}

	user, err := h.accounts.Update(c.Request().Context(), acting, req.ID, req.patch())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newUserResponse(user))
}

// ChangePassword replaces the caller's password.
//
// @Summary      Change password
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      changePasswordRequest  true  "Current and new password"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  map[string]any
// @Failure      401   {object}  map[string]any
// @Security     Bearer
// @Router       /users/password [put]
func (h *AccountHandler) ChangePassword(c echo.Context) error {
	acting, err := actingUser(c)
	if err != nil {
		return err
	}

	var req changePasswordRequest
	if err := c.Bind(&req); err != nil {
		return err
	}

	err = h.accounts.ChangePassword(c.Request().Context(), acting, ports.ChangePasswordInput{
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: msgPasswordChanged})
}

// Deactivate turns the caller inactive, or the user named by id when the caller is a superuser.
//
// @Summary      Deactivate user
// @Tags         users
// @Accept       json
// @Param        body  body  deactivateRequest  false  "Target id (superusers only)"
// @Success      204
// @Failure      400   {object}  map[string]any
// @Failure      401   {object}  map[string]any
// @Security     Bearer
// @Router       /users/deactivate [delete]
func (h *AccountHandler) Deactivate(c echo.Context) error {
	acting, err := actingUser(c)
	if err != nil {
		return err
	}

	var req deactivateRequest
	if err := c.Bind(&req); err != nil {
		return err
	}

	if err := h.accounts.Deactivate(c.Request().Context(), acting, req.ID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Activate turns the user named in the path active.
//
// @Summary      Activate user
// @Tags         users
// @Produce      json
// @Param        id   path      string  true  "User id"
// @Success      200  {object}  messageResponse
// @Failure      400  {object}  map[string]any
// @Failure      401  {object}  map[string]any
// @Security     Bearer
// @Router       /users/activate/{id} [put]
func (h *AccountHandler) Activate(c echo.Context) error {
	acting, err := actingUser(c)
	if err != nil {
		return err
	}

	if err := h.accounts.Activate(c.Request().Context(), acting, c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: msgActivated})
}

// RecoverPassword resets the password of the account owning email and mails it.
// The answer is the same whether or not the email is registered.
//
// @Summary      Recover password
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      recoverPasswordRequest  true  "Account email"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  map[string]any
// @Failure      500   {object}  map[string]any
// @Router       /users/recover-password [post]
func (h *AccountHandler) RecoverPassword(c echo.Context) error {
	var req recoverPasswordRequest
	if err := c.Bind(&req); err != nil {
		return err
	}

	if err := h.accounts.RecoverPassword(c.Request().Context(), req.Email); err != nil {
		return err
	}

	metrics.PasswordResetsTotal.Inc()
	return c.JSON(http.StatusOK, messageResponse{Message: msgRecoverySent})
}

// TaskResult reports the state of a background job.
//
// @Summary      Task result
// @Tags         core
// @Produce      json
// @Param        task_id  path      string  true  "Task id"
// @Success      200      {object}  taskResultResponse
// @Failure      401      {object}  map[string]any
// @Failure      403      {object}  map[string]any
// @Security     Bearer
// @Router       /core/task-result/{task_id} [get]
func (h *AccountHandler) TaskResult(c echo.Context) error {
	acting, err := actingUser(c)
	if err != nil {
		return err
	}

	res, err := h.accounts.TaskResult(c.Request().Context(), acting, c.Param("task_id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, taskResultResponse{TaskID: res.TaskID, Status: res.Status, Result: res.Result})
}

// Choices lists the value/label pairs of a profile category.
//
// @Summary      Profile choices
// @Tags         users
// @Produce      json
// @Param        type  query  string  false  "language, country, currency or timezone"
// @Success      200   {array}  domain.Choice
// @Failure      401   {object}  map[string]any
// @Security     Bearer
// @Router       /users/choices [get]
func (h *AccountHandler) Choices(c echo.Context) error {
	return c.JSON(http.StatusOK, domain.ChoicesFor(c.QueryParam("type")))
}
