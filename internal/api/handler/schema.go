package handler

import (
	"time"

	"github.com/99minutos/accounts-api/internal/core/domain"
)

type signupRequest struct {
	Email     string `json:"email"      validate:"required,email"`
	Password  string `json:"password"   validate:"required"`
	Username  string `json:"username"`
	FirstName string `json:"first_name" validate:"required,max=30"`
	LastName  string `json:"last_name"  validate:"required,max=30"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

// updateRequest leaves absent fields nil so they stay untouched.
type updateRequest struct {
	ID        string  `json:"id"`
	Email     *string `json:"email"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Language  *string `json:"language"`
	Timezone  *string `json:"timezone"`
	Currency  *string `json:"currency"`
}

func (r updateRequest) patch() domain.UserPatch {
	return domain.UserPatch{
		Email:     r.Email,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Language:  r.Language,
		Timezone:  r.Timezone,
		Currency:  r.Currency,
	}
}

type emailField struct {
	Email string `json:"email" validate:"email"`
}

type deactivateRequest struct {
	ID string `json:"id"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type recoverPasswordRequest struct {
	Email string `json:"email"`
}

type tokenResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// userResponse is the public representation of a user. The hash never leaves.
type userResponse struct {
	ID          string      `json:"id"`
	Email       string      `json:"email"`
	Username    string      `json:"username"`
	FirstName   string      `json:"first_name"`
	LastName    string      `json:"last_name"`
	IsActive    bool        `json:"is_active"`
	IsStaff     bool        `json:"is_staff"`
	IsSuperuser bool        `json:"is_superuser"`
	Role        domain.Role `json:"role"`
	Language    string      `json:"language"`
	Timezone    string      `json:"timezone"`
	Currency    string      `json:"currency"`
	LastLogin   *time.Time  `json:"last_login"`
}

func newUserResponse(u *domain.User) userResponse {
	return userResponse{
		ID:          u.ID,
		Email:       u.Email,
		Username:    u.Username,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		IsActive:    u.IsActive,
		IsStaff:     u.IsStaff,
		IsSuperuser: u.IsSuperuser,
		Role:        u.Role(),
		Language:    u.Language,
		Timezone:    u.Timezone,
		Currency:    u.Currency,
		LastLogin:   u.LastLogin,
	}
}

type userListResponse struct {
	Count    int64          `json:"count"`
	Next     *string        `json:"next"`
	Previous *string        `json:"previous"`
	Results  []userResponse `json:"results"`
	Message  string         `json:"message,omitempty"`
}

type taskResultResponse struct {
	TaskID string            `json:"task_id"`
	Status domain.TaskStatus `json:"status"`
	Result any               `json:"result"`
}
