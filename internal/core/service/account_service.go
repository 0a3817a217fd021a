package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/99minutos/accounts-api/internal/core/access"
	"github.com/99minutos/accounts-api/internal/core/domain"
	"github.com/99minutos/accounts-api/internal/core/password"
	"github.com/99minutos/accounts-api/internal/core/ports"
	"github.com/99minutos/accounts-api/internal/core/token"
)

const (
	defaultPageSize = 20
	maxNameLength   = 30
	msgRequired     = "This field is required."
	msgBlank        = "This field may not be blank."
)

// TokenManager is the token issuer surface the service uses.
type TokenManager interface {
	Issue(userID string) (*ports.TokenPair, error)
	Verify(ctx context.Context, raw string, typ token.Type) (*token.Claims, error)
	Rotate(ctx context.Context, refresh string) (*ports.TokenPair, error)
	Revoke(ctx context.Context, refresh string) error
}

// AccountConfig tunes the service. Zero values select defaults.
type AccountConfig struct {
	PageSize int
	HashCost int
}

var _ ports.AccountService = (*AccountService)(nil)

// AccountService implements the account lifecycle.
type AccountService struct {
	users     ports.UserRepository
	tokens    TokenManager
	jobs      ports.JobQueue
	tasks     ports.TaskStore
	logger    zerolog.Logger
	pageSize  int
	hashCost  int
	dummyHash []byte
	now       func() time.Time
}

func NewAccountService(
	users ports.UserRepository,
	tokens TokenManager,
	jobs ports.JobQueue,
	tasks ports.TaskStore,
	cfg AccountConfig,
	logger zerolog.Logger,
) *AccountService {
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaultPageSize
	}
	if cfg.HashCost == 0 {
		cfg.HashCost = bcrypt.DefaultCost
	}
	// compared against when the email is unknown so both login failures cost the same
	dummy, _ := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), cfg.HashCost)

	return &AccountService{
		users:     users,
		tokens:    tokens,
		jobs:      jobs,
		tasks:     tasks,
		logger:    logger,
		pageSize:  cfg.PageSize,
		hashCost:  cfg.HashCost,
		dummyHash: dummy,
		now:       time.Now,
	}
}

// Signup registers a common user. Username defaults to the email.
func (s *AccountService) Signup(ctx context.Context, in ports.SignupInput) (*domain.User, error) {
	fields := map[string][]string{}
	requireField(fields, "email", in.Email)
	requireField(fields, "password", in.Password)
	requireField(fields, "first_name", in.FirstName)
	requireField(fields, "last_name", in.LastName)
	checkLength(fields, "first_name", in.FirstName)
	checkLength(fields, "last_name", in.LastName)

	if in.Email != "" {
		taken, err := s.users.ExistsByEmail(ctx, in.Email, "")
		if err != nil {
			return nil, fmt.Errorf("signup: %w", err)
		}
		if taken {
			fields["email"] = append(fields["email"], domain.ErrEmailTaken.Message)
		}
	}
	if len(fields) > 0 {
		return nil, domain.NewValidationError(fields)
	}

	if reason := password.Validate(in.Password); reason != "" {
		return nil, domain.NewFieldError("password", reason)
	}

	hash, err := s.hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("signup: %w", err)
	}

	username := in.Username
	if username == "" {
		username = in.Email
	}

	now := s.now().UTC()
	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        in.Email,
		Username:     username,
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		IsActive:     true,
		Language:     domain.DefaultLanguage,
		Timezone:     domain.DefaultTimezone,
		Currency:     domain.DefaultCurrency,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			return nil, err
		}
		s.logger.Error().Err(err).Msg("failed to create user")
		return nil, fmt.Errorf("signup: %w", err)
	}

	s.logger.Info().Str("user_id", user.ID).Msg("user signed up")
	return user, nil
}

// Login checks existence, then active state, then the secret, in that order.
func (s *AccountService) Login(ctx context.Context, email, secret string) (*ports.TokenPair, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(secret))
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login: %w", err)
	}

	if !user.IsActive {
		return nil, domain.ErrUserInactive
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(secret)) != nil {
		return nil, domain.ErrInvalidCredentials
	}

	if err := s.users.TouchLastLogin(ctx, user.ID, s.now().UTC()); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	pair, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	s.logger.Info().Str("user_id", user.ID).Msg("user logged in")
	return pair, nil
}

// Refresh rotates a refresh token for a still-active user.
func (s *AccountService) Refresh(ctx context.Context, refresh string) (*ports.TokenPair, error) {
	if refresh == "" {
		return nil, domain.NewFieldError("refresh", msgRequired)
	}

	claims, err := s.tokens.Verify(ctx, refresh, token.TypeRefresh)
	if err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrTokenInvalid
		}
		return nil, fmt.Errorf("refresh: %w", err)
	}
	if !user.IsActive {
		return nil, domain.ErrUserInactive
	}

	return s.tokens.Rotate(ctx, refresh)
}

// Logout revokes the refresh token.
func (s *AccountService) Logout(ctx context.Context, refresh string) error {
	if refresh == "" {
		return domain.NewFieldError("refresh", msgRequired)
	}
	return s.tokens.Revoke(ctx, refresh)
}

// Update applies a partial patch to the resolved target.
func (s *AccountService) Update(ctx context.Context, acting *domain.User, targetID string, patch domain.UserPatch) (*domain.User, error) {
	target, err := access.ResolveTarget(ctx, s.users, acting, targetID)
	if err != nil {
		return nil, err
	}
	if !target.IsActive {
		return nil, domain.ErrUserNotActivated
	}

	fields := map[string][]string{}
	if patch.Email != nil && *patch.Email == "" {
		fields["email"] = []string{msgBlank}
	}
	if patch.FirstName != nil {
		checkLength(fields, "first_name", *patch.FirstName)
	}
	if patch.LastName != nil {
		checkLength(fields, "last_name", *patch.LastName)
	}
	checkChoice(fields, "language", patch.Language, domain.LanguageChoices)
	checkChoice(fields, "timezone", patch.Timezone, domain.TimezoneChoices)
	checkChoice(fields, "currency", patch.Currency, domain.CurrencyChoices)

	if patch.Email != nil && *patch.Email != "" {
		taken, err := s.users.ExistsByEmail(ctx, *patch.Email, target.ID)
		if err != nil {
			return nil, fmt.Errorf("update: %w", err)
		}
		if taken {
			fields["email"] = append(fields["email"], domain.ErrEmailTaken.Message)
		}
	}
	if len(fields) > 0 {
		return nil, domain.NewValidationError(fields)
	}

	updated, err := s.users.Update(ctx, target.ID, patch)
	if err != nil {
		if errors.Is(err, domain.ErrEmailTaken) || errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update: %w", err)
	}

	s.logger.Info().Str("actor_id", acting.ID).Str("user_id", target.ID).Msg("user updated")
	return updated, nil
}

// Deactivate turns the resolved target inactive. Deactivating twice fails.
func (s *AccountService) Deactivate(ctx context.Context, acting *domain.User, targetID string) error {
	target, err := access.ResolveTarget(ctx, s.users, acting, targetID)
	if err != nil {
		return err
	}
	if !target.IsActive {
		return domain.ErrAlreadyInactive
	}

	changed, err := s.users.SetActive(ctx, target.ID, false)
	if err != nil {
		return fmt.Errorf("deactivate: %w", err)
	}
	if !changed {
		return domain.ErrAlreadyInactive
	}

	s.logger.Info().Str("actor_id", acting.ID).Str("user_id", target.ID).Msg("user deactivated")
	return nil
}

// Activate turns the user with the given id active. Unlike Update and
// Deactivate it never falls back to the caller.
func (s *AccountService) Activate(ctx context.Context, acting *domain.User, targetID string) error {
	if targetID == "" {
		return domain.ErrUserNotFound
	}
	target, err := s.users.FindByID(ctx, targetID)
	if err != nil {
		return err
	}
	if target.IsActive {
		return domain.ErrAlreadyActive
	}

	changed, err := s.users.SetActive(ctx, target.ID, true)
	if err != nil {
		return fmt.Errorf("activate: %w", err)
	}
	if !changed {
		return domain.ErrAlreadyActive
	}

	s.logger.Info().Str("actor_id", acting.ID).Str("user_id", target.ID).Msg("user activated")
	return nil
}

// ChangePassword replaces the caller's secret after checking the current one.
func (s *AccountService) ChangePassword(ctx context.Context, acting *domain.User, in ports.ChangePasswordInput) error {
	fields := map[string][]string{}
	requireField(fields, "current_password", in.CurrentPassword)
	requireField(fields, "new_password", in.NewPassword)
	if len(fields) > 0 {
		return domain.NewValidationError(fields)
	}

	if bcrypt.CompareHashAndPassword([]byte(acting.PasswordHash), []byte(in.CurrentPassword)) != nil {
		return domain.NewFieldError("current_password", "Current password is invalid.")
	}
	if reason := password.Validate(in.NewPassword); reason != "" {
		return domain.NewFieldError("new_password", reason)
	}

	hash, err := s.hash(in.NewPassword)
	if err != nil {
		return fmt.Errorf("change password: %w", err)
	}
	if err := s.users.SetPassword(ctx, acting.ID, hash); err != nil {
		return fmt.Errorf("change password: %w", err)
	}

	s.logger.Info().Str("user_id", acting.ID).Msg("password changed")
	return nil
}

// Get returns any user by id. Staff only.
func (s *AccountService) Get(ctx context.Context, acting *domain.User, id string) (*domain.User, error) {
	if !access.Authorize(acting, access.StaffOrAdmin) {
		return nil, domain.ErrForbidden
	}
	return s.users.FindByID(ctx, id)
}

// List returns one page of users. Staff only.
func (s *AccountService) List(ctx context.Context, acting *domain.User, in ports.ListUsersInput) (*ports.ListUsersResult, error) {
	if !access.Authorize(acting, access.StaffOrAdmin) {
		return nil, domain.ErrForbidden
	}

	page := in.Page
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * s.pageSize

	items, total, err := s.users.List(ctx, offset, s.pageSize)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	if items == nil {
		items = []*domain.User{}
	}

	return &ports.ListUsersResult{
		Items:    items,
		Total:    total,
		Page:     page,
		PageSize: s.pageSize,
		HasNext:  int64(offset+len(items)) < total,
		HasPrev:  page > 1 && total > 0,
	}, nil
}

// RecoverPassword resets the secret of the account owning email and queues
// its delivery. Unknown emails succeed silently.
func (s *AccountService) RecoverPassword(ctx context.Context, email string) error {
	if email == "" {
		return domain.NewFieldError("email", "Email is required.")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil
		}
		s.logger.Error().Err(err).Msg("password recovery lookup failed")
		return fmt.Errorf("recover password: %w", err)
	}

	secret := password.Generate(password.GeneratedLength)
	hash, err := s.hash(secret)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID).Msg("password recovery hashing failed")
		return fmt.Errorf("recover password: %w", err)
	}
	if err := s.users.SetPassword(ctx, user.ID, hash); err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID).Msg("password recovery update failed")
		return fmt.Errorf("recover password: %w", err)
	}

	taskID, err := s.jobs.Submit(ctx, domain.JobSendPasswordResetEmail, domain.QueueSendPasswordResetEmail,
		domain.PasswordResetPayload{UserID: user.ID, NewPassword: secret})
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID).Msg("password recovery enqueue failed")
		return fmt.Errorf("recover password: %w", err)
	}

	s.logger.Info().Str("user_id", user.ID).Str("task_id", taskID).Msg("password reset queued")
	return nil
}

// TaskResult reports a background job outcome. Staff only.
func (s *AccountService) TaskResult(ctx context.Context, acting *domain.User, taskID string) (*domain.TaskResult, error) {
	if !access.Authorize(acting, access.StaffOrAdmin) {
		return nil, domain.ErrForbidden
	}
	res, err := s.tasks.Get(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("task result: %w", err)
	}
	return res, nil
}

func (s *AccountService) hash(secret string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(secret), s.hashCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

func requireField(fields map[string][]string, name, value string) {
	if value == "" {
		fields[name] = append(fields[name], msgRequired)
	}
}

func checkLength(fields map[string][]string, name, value string) {
	if len([]rune(value)) > maxNameLength {
		fields[name] = append(fields[name], fmt.Sprintf("Ensure this field has no more than %d characters.", maxNameLength))
	}
}

func checkChoice(fields map[string][]string, name string, value *string, choices []domain.Choice) {
	if value != nil && !domain.ValidChoice(choices, *value) {
		fields[name] = append(fields[name], fmt.Sprintf("%q is not a valid choice.", *value))
	}
}
