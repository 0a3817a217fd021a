package ports

import (
	"context"

	"github.com/99minutos/accounts-api/internal/core/domain"
)

// SignupInput carries the registration fields.
type SignupInput struct {
	Email     string
	Password  string
	Username  string
	FirstName string
	LastName  string
}

// TokenPair holds an access and refresh token pair.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// ListUsersInput carries the pagination parameters of List.
type ListUsersInput struct {
	Page int // 1-based
}

// ListUsersResult is one page of users.
type ListUsersResult struct {
	Items    []*domain.User
	Total    int64
	Page     int
	PageSize int
	HasNext  bool
	HasPrev  bool
}

// ChangePasswordInput carries the current and desired secrets.
type ChangePasswordInput struct {
	CurrentPassword string
	NewPassword     string
}

// AccountService defines the account lifecycle use cases.
type AccountService interface {
	Signup(ctx context.Context, in SignupInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*TokenPair, error)
	Refresh(ctx context.Context, refresh string) (*TokenPair, error)
	Logout(ctx context.Context, refresh string) error
	Update(ctx context.Context, acting *domain.User, targetID string, patch domain.UserPatch) (*domain.User, error)
	Deactivate(ctx context.Context, acting *domain.User, targetID string) error
	Activate(ctx context.Context, acting *domain.User, targetID string) error
	ChangePassword(ctx context.Context, acting *domain.User, in ChangePasswordInput) error
	Get(ctx context.Context, acting *domain.User, id string) (*domain.User, error)
	List(ctx context.Context, acting *domain.User, in ListUsersInput) (*ListUsersResult, error)
	RecoverPassword(ctx context.Context, email string) error
	TaskResult(ctx context.Context, acting *domain.User, taskID string) (*domain.TaskResult, error)
}
