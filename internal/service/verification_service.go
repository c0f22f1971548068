package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nexivent/nexivent-api/internal/domain/repository"
	apperrors "github.com/nexivent/nexivent-api/internal/pkg/errors"
)

// VerificationPurpose selects the TTL policy and namespaces the stored code,
// so a registration code can never be redeemed through the password-reset
// flow and vice versa.
type VerificationPurpose string

const (
	PurposeRegistration  VerificationPurpose = "registration"
	PurposePasswordReset VerificationPurpose = "password_reset"
)

// VerificationService unifies the registration email-verification and
// password-reset code flows over one parametrized store.
type VerificationService struct {
	store            repository.VerificationCodeStore
	emailService     EmailService
	registrationTTL  time.Duration
	passwordResetTTL time.Duration
}

func NewVerificationService(
	store repository.VerificationCodeStore,
	emailService EmailService,
	registrationTTL time.Duration,
	passwordResetTTL time.Duration,
) (*VerificationService, error) {
	if store == nil {
		return nil, fmt.Errorf("verification code store is required")
	}
	if emailService == nil {
		return nil, fmt.Errorf("email service is required")
	}
	if registrationTTL <= 0 {
		registrationTTL = 15 * time.Minute
	}
	if passwordResetTTL <= 0 {
		passwordResetTTL = 1 * time.Minute
	}

	return &VerificationService{
		store:            store,
		emailService:     emailService,
		registrationTTL:  registrationTTL,
		passwordResetTTL: passwordResetTTL,
	}, nil
}

// SendCode issues a fresh code for the email under the given purpose and
// hands it to the email collaborator. A delivery failure propagates as
// ErrEmailDelivery; there is no automatic resend, the caller simply requests
// a new code (which invalidates this one).
func (s *VerificationService) SendCode(ctx context.Context, purpose VerificationPurpose, email, displayName string) error {
	if strings.TrimSpace(email) == "" {
		return fmt.Errorf("%w: empty email", apperrors.ErrValidation)
	}
	ttl, err := s.ttlFor(purpose)
	if err != nil {
		return err
	}

	code, err := s.store.Issue(ctx, storeIdentifier(purpose, email), ttl)
	if err != nil {
		return err
	}

	idempotencyKey := fmt.Sprintf("%s:%s:%s", purpose, email, code)
	if err := s.emailService.SendVerificationCode(ctx, email, displayName, code, ttl, idempotencyKey); err != nil {
		return fmt.Errorf("%w: %v", ErrEmailDelivery, err)
	}
	return nil
}

// ConfirmCode redeems a supplied code. Store outcomes map onto flow errors;
// on success the code is consumed and cannot be redeemed again.
func (s *VerificationService) ConfirmCode(ctx context.Context, purpose VerificationPurpose, email, code string) error {
	if strings.TrimSpace(email) == "" {
		return fmt.Errorf("%w: empty email", apperrors.ErrValidation)
	}
	if strings.TrimSpace(code) == "" {
		return fmt.Errorf("%w: empty verification code", apperrors.ErrValidation)
	}
	if _, err := s.ttlFor(purpose); err != nil {
		return err
	}

	err := s.store.Redeem(ctx, storeIdentifier(purpose, email), code)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrCodeNotFound):
		return ErrInvalidVerificationCode
	case errors.Is(err, repository.ErrCodeExpired):
		return ErrVerificationExpired
	case errors.Is(err, repository.ErrCodeMismatch):
		return ErrVerificationMismatch
	default:
		return err
	}
}

func (s *VerificationService) ttlFor(purpose VerificationPurpose) (time.Duration, error) {
	switch purpose {
	case PurposeRegistration:
		return s.registrationTTL, nil
	case PurposePasswordReset:
		return s.passwordResetTTL, nil
	default:
		return 0, fmt.Errorf("%w: unknown verification purpose %q", apperrors.ErrValidation, purpose)
	}
}

func storeIdentifier(purpose VerificationPurpose, email string) string {
	return string(purpose) + ":" + strings.ToLower(strings.TrimSpace(email))
}
