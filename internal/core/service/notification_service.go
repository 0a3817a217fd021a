package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/99minutos/accounts-api/internal/core/domain"
	"github.com/99minutos/accounts-api/internal/core/ports"
)

const (
	passwordResetSubject = "Your new password"
	passwordResetBody    = "Your new access password is: %s"
)

// NotificationService executes the password reset delivery job.
type NotificationService struct {
	users  ports.UserRepository
	mailer ports.Mailer
	log    zerolog.Logger
}

func NewNotificationService(users ports.UserRepository, mailer ports.Mailer, log zerolog.Logger) *NotificationService {
	return &NotificationService{users: users, mailer: mailer, log: log}
}

// SendPasswordReset mails the generated secret to the user's registered address.
// Failures are logged and returned so the job is recorded as failed; they never
// reach the request that queued the job.
func (s *NotificationService) SendPasswordReset(ctx context.Context, job domain.Job) (any, error) {
	s.log.Info().Str("task_id", job.ID).Msg("sending new password by email")

	var payload domain.PasswordResetPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		s.log.Error().Err(err).Str("task_id", job.ID).Msg("invalid password reset payload")
		return nil, fmt.Errorf("decode payload: %w", err)
	}

	user, err := s.users.FindByID(ctx, payload.UserID)
	if err != nil {
		s.log.Error().Err(err).Str("task_id", job.ID).Str("user_id", payload.UserID).Msg("password reset email failed")
		return nil, fmt.Errorf("load user: %w", err)
	}

	body := fmt.Sprintf(passwordResetBody, payload.NewPassword)
	if err := s.mailer.Send(ctx, user.Email, passwordResetSubject, body); err != nil {
		s.log.Error().Err(err).Str("task_id", job.ID).Str("user_id", user.ID).Msg("password reset email failed")
		return nil, fmt.Errorf("send email: %w", err)
	}

	s.log.Info().Str("task_id", job.ID).Str("email", user.Email).Msg("new password email sent")
	return map[string]string{"email": user.Email}, nil
}
