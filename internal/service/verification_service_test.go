package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/nexivent/nexivent-api/internal/pkg/errors"
	"github.com/nexivent/nexivent-api/internal/repository/memory"
)

// fakeEmailService records outgoing mail instead of sending it.
type fakeEmailService struct {
	failWith error

	lastTo       string
	lastName     string
	lastCode     string
	lastTTL      time.Duration
	lastEvent    string
	lastTicket   []byte
	sentCodes    int
	sentTickets  int
}

func (f *fakeEmailService) SendVerificationCode(ctx context.Context, toEmail, toName, code string, ttl time.Duration, idempotencyKey string) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.lastTo = toEmail
	f.lastName = toName
	f.lastCode = code
	f.lastTTL = ttl
	f.sentCodes++
	return nil
}

func (f *fakeEmailService) SendTicket(ctx context.Context, toEmail, eventName string, pdf []byte) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.lastTo = toEmail
	f.lastEvent = eventName
	f.lastTicket = pdf
	f.sentTickets++
	return nil
}

func newVerificationFixture(t *testing.T) (*VerificationService, *fakeEmailService) {
	t.Helper()
	emails := &fakeEmailService{}
	svc, err := NewVerificationService(memory.NewVerificationStore(), emails, 15*time.Minute, time.Minute)
	require.NoError(t, err)
	return svc, emails
}

func TestNewVerificationService_RequiresCollaborators(t *testing.T) {
	_, err := NewVerificationService(nil, &fakeEmailService{}, 0, 0)
	assert.Error(t, err)

	_, err = NewVerificationService(memory.NewVerificationStore(), nil, 0, 0)
	assert.Error(t, err)
}

func TestSendCode_EmailsTheIssuedCode(t *testing.T) {
	svc, emails := newVerificationFixture(t)
	ctx := context.Background()

	err := svc.SendCode(ctx, PurposeRegistration, "user@example.com", "Ada")
	require.NoError(t, err)

	assert.Equal(t, 1, emails.sentCodes)
	assert.Equal(t, "user@example.com", emails.lastTo)
	assert.Equal(t, "Ada", emails.lastName)
	assert.Len(t, emails.lastCode, 6)
	assert.Equal(t, 15*time.Minute, emails.lastTTL)

	// The emailed code is the one the store accepts.
	assert.NoError(t, svc.ConfirmCode(ctx, PurposeRegistration, "user@example.com", emails.lastCode))
}

func TestSendCode_PasswordResetUsesItsOwnTTL(t *testing.T) {
	svc, emails := newVerificationFixture(t)

	err := svc.SendCode(context.Background(), PurposePasswordReset, "user@example.com", "")
	require.NoError(t, err)
	assert.Equal(t, time.Minute, emails.lastTTL)
}

func TestSendCode_ValidationErrors(t *testing.T) {
	svc, _ := newVerificationFixture(t)
	ctx := context.Background()

	assert.ErrorIs(t, svc.SendCode(ctx, PurposeRegistration, "", "Ada"), apperrors.ErrValidation)
	assert.ErrorIs(t, svc.SendCode(ctx, VerificationPurpose("totp"), "user@example.com", ""), apperrors.ErrValidation)
}

func TestSendCode_DeliveryFailurePropagates(t *testing.T) {
	emails := &fakeEmailService{failWith: errors.New("upstream rejected")}
	svc, err := NewVerificationService(memory.NewVerificationStore(), emails, 0, 0)
	require.NoError(t, err)

	err = svc.SendCode(context.Background(), PurposeRegistration, "user@example.com", "")
	assert.ErrorIs(t, err, ErrEmailDelivery)
}

func TestConfirmCode_ErrorMapping(t *testing.T) {
	svc, emails := newVerificationFixture(t)
	ctx := context.Background()

	require.NoError(t, svc.SendCode(ctx, PurposeRegistration, "user@example.com", ""))
	code := emails.lastCode

	// Wrong guess: mismatch, entry survives.
	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}
	assert.ErrorIs(t, svc.ConfirmCode(ctx, PurposeRegistration, "user@example.com", wrong), ErrVerificationMismatch)

	// Correct code still redeems, exactly once.
	assert.NoError(t, svc.ConfirmCode(ctx, PurposeRegistration, "user@example.com", code))
	assert.ErrorIs(t, svc.ConfirmCode(ctx, PurposeRegistration, "user@example.com", code), ErrInvalidVerificationCode)

	// Never-issued identifier reads the same as an already-redeemed one.
	assert.ErrorIs(t, svc.ConfirmCode(ctx, PurposeRegistration, "ghost@example.com", "123456"), ErrInvalidVerificationCode)
}

func TestConfirmCode_PurposesAreIsolated(t *testing.T) {
	svc, emails := newVerificationFixture(t)
	ctx := context.Background()

	require.NoError(t, svc.SendCode(ctx, PurposeRegistration, "user@example.com", ""))
	code := emails.lastCode

	// A registration code cannot be redeemed through the password-reset flow.
	err := svc.ConfirmCode(ctx, PurposePasswordReset, "user@example.com", code)
	assert.ErrorIs(t, err, ErrInvalidVerificationCode)

	assert.NoError(t, svc.ConfirmCode(ctx, PurposeRegistration, "user@example.com", code))
}

func TestConfirmCode_ValidationErrors(t *testing.T) {
	svc, _ := newVerificationFixture(t)
	ctx := context.Background()

	assert.ErrorIs(t, svc.ConfirmCode(ctx, PurposeRegistration, "", "123456"), apperrors.ErrValidation)
	assert.ErrorIs(t, svc.ConfirmCode(ctx, PurposeRegistration, "user@example.com", " "), apperrors.ErrValidation)
}
